package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"

	"aeroserv.in/fuelops/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "10032026_create_master_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.User{}, &models.Company{},
					&models.Location{}, &models.Vehicle{})
			},
		},
		{
			ID: "10032026_create_fuel_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.FuelTank{}, &models.MrnLot{},
					&models.FuelMovement{}, &models.MovementAllocation{})
			},
		},
		{
			ID: "10032026_create_correction_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.OverrideToken{}, &models.CorrectionRecord{})
			},
		},
		{
			// Historical movement exports carry the breakdown as a serialized
			// blob; the column exists only so imports can stage it before
			// normalization into movement_allocations.
			ID: "12032026_legacy_breakdown_index",
			Migrate: func(tx *gorm.DB) error {
				return tx.Exec(
					"CREATE INDEX IF NOT EXISTS idx_movements_legacy ON fuel_movements ((legacy_breakdown IS NOT NULL))",
				).Error
			},
		},
	})
	return m.Migrate()
}
