package models

import (
	"gorm.io/gorm"

	"github.com/medibook/backend/internal/zlog"
)

// SystemPreference represents system-wide preferences
type SystemPreference struct {
	ID        uint   `gorm:"column:id;primaryKey" json:"id"`
	Key       string `gorm:"column:key;size:100;uniqueIndex;not null" json:"key"`
	Value     string `gorm:"column:value;type:text" json:"value"`
	ValueType string `gorm:"column:value_type;size:20;default:string" json:"value_type"` // string, int, bool, json
}

func (SystemPreference) TableName() string {
	return "system_preferences"
}

// AutoMigrate creates the tables this service owns. users, hospitals,
// reservations and chat_rooms belong to the booking backend and are only read.
func AutoMigrate(db *gorm.DB) error {
	zlog.Info("Running database migrations")
	return db.AutoMigrate(
		&DeliveryAttempt{},
		&SystemPreference{},
	)
}
