package database

import (
	"gorm.io/gorm"

	"github.com/medibook/backend/internal/config"
	"github.com/medibook/backend/internal/models"
	"github.com/medibook/backend/internal/zlog"
)

const jwtSecretKey = "jwt_secret"

// EnsureJWTSecret returns the configured API signing secret, or the one
// persisted in system_preferences, generating and saving it on first start.
func EnsureJWTSecret(db *gorm.DB, configured string) string {
	if configured != "" {
		return configured
	}
	if db == nil {
		zlog.Warn("Database not connected, cannot persist JWT secret")
		return config.GenerateSecureSecret(32)
	}

	var pref models.SystemPreference
	if err := db.Where("key = ?", jwtSecretKey).First(&pref).Error; err == nil && pref.Value != "" {
		zlog.Info("JWT secret loaded from database")
		return pref.Value
	}

	secret := config.GenerateSecureSecret(32)
	pref = models.SystemPreference{
		Key:       jwtSecretKey,
		Value:     secret,
		ValueType: "string",
	}
	if err := db.Create(&pref).Error; err != nil {
		// Another instance won the insert; use its value.
		var existing models.SystemPreference
		if db.Where("key = ?", jwtSecretKey).First(&existing).Error == nil && existing.Value != "" {
			return existing.Value
		}
	}

	zlog.Info("JWT secret generated and persisted to database")
	return secret
}
