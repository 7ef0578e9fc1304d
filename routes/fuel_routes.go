package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"aeroserv.in/fuelops/handlers"
	"aeroserv.in/fuelops/middleware"
	"aeroserv.in/fuelops/models"
)

// registerFuelRoutes wires the fuel module: tanks, intake, outgoing
// movements, consistency checks and the supervised correction workflow.
func registerFuelRoutes(api *mux.Router) {
	supervisor := models.RoleSupervisor

	// Tanks
	api.HandleFunc("/tanks", handlers.GetAllTanks).Methods("GET")
	api.Handle("/tanks", middleware.RequireRole(supervisor, http.HandlerFunc(handlers.CreateTank))).Methods("POST")
	api.HandleFunc("/tanks/{id}", handlers.GetTank).Methods("GET")
	api.Handle("/tanks/{id}", middleware.RequireRole(supervisor, http.HandlerFunc(handlers.UpdateTank))).Methods("PUT")
	api.HandleFunc("/tanks/{id}/lots", handlers.GetTankLots).Methods("GET")

	// Fuel movements
	api.HandleFunc("/fuel/intake", handlers.CreateIntake).Methods("POST")
	api.HandleFunc("/fuel/out", handlers.CreateFuelingOut).Methods("POST")
	api.HandleFunc("/fuel/transfer", handlers.CreateTransfer).Methods("POST")
	api.HandleFunc("/fuel/movements", handlers.GetMovements).Methods("GET")
	api.Handle("/fuel/movements/import", middleware.RequireRole(supervisor, http.HandlerFunc(handlers.ImportLegacyMovement))).Methods("POST")

	// Consistency + corrections
	api.HandleFunc("/tanks/{id}/consistency", handlers.GetTankConsistency).Methods("GET")
	api.HandleFunc("/consistency", handlers.GetAllConsistency).Methods("GET")
	api.Handle("/fuel/corrections", middleware.RequireRole(supervisor, http.HandlerFunc(handlers.CreateCorrection))).Methods("POST")
	api.HandleFunc("/fuel/corrections", handlers.GetCorrections).Methods("GET")
	api.Handle("/fuel/overrides", middleware.RequireRole(supervisor, http.HandlerFunc(handlers.CreateOverride))).Methods("POST")
}
