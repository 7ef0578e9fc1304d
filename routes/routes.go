package routes

import (
	"net/http"

	"github.com/gorilla/mux"

	"aeroserv.in/fuelops/handlers"
	"aeroserv.in/fuelops/handlers/masters"
	"aeroserv.in/fuelops/middleware"
	"aeroserv.in/fuelops/models"
)

// RegisterRoutes sets up all application routes
func RegisterRoutes() http.Handler {
	r := mux.NewRouter()

	// =====================================================
	// Public Routes (no authentication)
	// =====================================================
	r.HandleFunc("/register", handlers.Register).Methods("POST")
	r.HandleFunc("/login", handlers.Login).Methods("POST")

	// =====================================================
	// Protected API Routes (require JWT authentication)
	// =====================================================
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.RequestLogger)
	api.Use(middleware.JWTMiddleware)

	api.HandleFunc("/profile", handlers.Profile).Methods("GET")

	registerFuelRoutes(api)
	registerMasterRoutes(api)

	return r
}

// registerMasterRoutes wires the master-data CRUD. Writes need supervisor;
// reads are open to every authenticated role.
func registerMasterRoutes(api *mux.Router) {
	supervisor := models.RoleSupervisor

	api.HandleFunc("/companies", masters.GetAllCompanies).Methods("GET")
	api.Handle("/companies", middleware.RequireRole(supervisor, http.HandlerFunc(masters.CreateCompany))).Methods("POST")
	api.HandleFunc("/companies/{id}", masters.GetCompany).Methods("GET")
	api.Handle("/companies/{id}", middleware.RequireRole(supervisor, http.HandlerFunc(masters.UpdateCompany))).Methods("PUT")
	api.Handle("/companies/{id}", middleware.RequireRole(supervisor, http.HandlerFunc(masters.DeleteCompany))).Methods("DELETE")

	api.HandleFunc("/locations", masters.GetAllLocations).Methods("GET")
	api.Handle("/locations", middleware.RequireRole(supervisor, http.HandlerFunc(masters.CreateLocation))).Methods("POST")
	api.HandleFunc("/locations/{id}", masters.GetLocation).Methods("GET")
	api.Handle("/locations/{id}", middleware.RequireRole(supervisor, http.HandlerFunc(masters.UpdateLocation))).Methods("PUT")
	api.Handle("/locations/{id}", middleware.RequireRole(supervisor, http.HandlerFunc(masters.DeleteLocation))).Methods("DELETE")

	api.HandleFunc("/vehicles", masters.GetAllVehicles).Methods("GET")
	api.Handle("/vehicles", middleware.RequireRole(supervisor, http.HandlerFunc(masters.CreateVehicle))).Methods("POST")
	api.HandleFunc("/vehicles/{id}", masters.GetVehicle).Methods("GET")
	api.Handle("/vehicles/{id}", middleware.RequireRole(supervisor, http.HandlerFunc(masters.UpdateVehicle))).Methods("PUT")
	api.Handle("/vehicles/{id}", middleware.RequireRole(supervisor, http.HandlerFunc(masters.DeleteVehicle))).Methods("DELETE")
}
