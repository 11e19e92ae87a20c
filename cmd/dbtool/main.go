package main

import (
	"delivery-tracking-service/internal/adapters/repositories"
	"delivery-tracking-service/internal/config"
	"delivery-tracking-service/internal/platform/db"
	"log"

	"github.com/joho/godotenv"
)

// dbtool initializes the database schema for local development and
// deployments without migrations tooling.
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	database, err := db.Open(cfg.Database.URL)
	if err != nil {
		log.Fatal(err)
	}
	defer database.Close()

	log.Println("Initializing database schema...")
	if err := repositories.InitSchema(database); err != nil {
		log.Fatalf("schema initialization failed: %v", err)
	}
	log.Println("Schema ready.")
}
