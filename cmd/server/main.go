package main

import (
	"fmt"
	"log"
	"net/http"

	"org-task-backend/pkg/config"
	"org-task-backend/pkg/database"
	"org-task-backend/pkg/server"
)

func main() {
	cfg := config.GetCached()

	if err := cfg.Validate(); err != nil {
		log.Fatalf("Configuration error: %v", err)
	}

	db := database.GetDatabase(database.DatabaseConfig{
		UseLocalDB:   cfg.UseLocalDB,
		LocalDataDir: cfg.LocalDataDir,
		PostgresDSN:  cfg.PostgresDSN,
		Debug:        cfg.Debug,
	})
	defer database.CloseDatabase()

	router := server.New(cfg, db)

	addr := ":" + cfg.Port
	fmt.Printf("Listening on %s (%s)\n", addr, cfg.Environment)
	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
