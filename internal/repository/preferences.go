package repository

import (
	"context"
	"strings"

	"gorm.io/gorm"

	"github.com/medibook/backend/internal/models"
)

const templatePreferencePrefix = "bizmsg_template_"

// TemplateOverrides reads business-message template codes stored as
// bizmsg_template_<type> rows in system_preferences.
func TemplateOverrides(ctx context.Context, db *gorm.DB) (map[models.NotificationType]string, error) {
	var prefs []models.SystemPreference
	if err := db.WithContext(ctx).
		Where("key LIKE ?", templatePreferencePrefix+"%").
		Find(&prefs).Error; err != nil {
		return nil, err
	}

	overrides := make(map[models.NotificationType]string)
	for _, p := range prefs {
		t := models.NotificationType(strings.ToUpper(strings.TrimPrefix(p.Key, templatePreferencePrefix)))
		value := strings.TrimSpace(p.Value)
		if !t.Valid() || value == "" {
			continue
		}
		overrides[t] = value
	}
	return overrides, nil
}
