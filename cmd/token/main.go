// Command token issues a service token for the internal notification API.
package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/medibook/backend/internal/config"
	"github.com/medibook/backend/internal/database"
	"github.com/medibook/backend/internal/middleware"
	"github.com/medibook/backend/internal/models"
)

func main() {
	service := flag.String("service", "", "name of the calling service")
	ttl := flag.Duration("ttl", 0, "token lifetime (default api.jwtExpireHours)")
	flag.Parse()

	if *service == "" {
		log.Fatal("-service is required")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	secret := cfg.API.JWTSecret
	if secret == "" {
		if err := database.Connect(cfg); err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer database.Close()
		if err := models.AutoMigrate(database.DB); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		secret = database.EnsureJWTSecret(database.DB, "")
	}

	lifetime := *ttl
	if lifetime <= 0 {
		lifetime = time.Duration(cfg.API.JWTExpireHours) * time.Hour
	}

	token, err := middleware.GenerateToken(*service, secret, lifetime)
	if err != nil {
		log.Fatalf("Failed to sign token: %v", err)
	}
	fmt.Println(token)
}
