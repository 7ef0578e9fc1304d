package config

import (
	"log"
	"os"

	"golang.org/x/crypto/bcrypt"

	"aeroserv.in/fuelops/models"
)

// SeedDefaults creates the initial admin account when the users table is
// empty. Skips silently when data already exists.
func SeedDefaults() {
	var count int64
	if err := DB.Model(&models.User{}).Count(&count).Error; err != nil {
		log.Printf("Warning: could not check users table: %v", err)
		return
	}
	if count > 0 {
		return
	}

	password := os.Getenv("ADMIN_INITIAL_PASSWORD")
	if password == "" {
		log.Println("ADMIN_INITIAL_PASSWORD not set, skipping admin seeding")
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Warning: could not hash admin password: %v", err)
		return
	}

	admin := models.User{
		Name:         "Administrator",
		Email:        "admin@fuelops.local",
		Phone:        "0000000000",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := DB.Create(&admin).Error; err != nil {
		log.Printf("Warning: could not seed admin user: %v", err)
		return
	}
	log.Println("Seeded initial admin user admin@fuelops.local")
}
