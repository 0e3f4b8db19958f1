package models

import (
	"errors"
	"time"
)

// ErrRecipientNotFound is returned when no contact record exists for a user id
var ErrRecipientNotFound = errors.New("recipient not found")

// RecipientContact is the read-only projection of a user the dispatcher needs
type RecipientContact struct {
	UserID    uint         `json:"user_id"`
	Name      string       `json:"name"`
	Phone     string       `json:"phone"`
	PushToken string       `json:"push_token"`
	Platform  PushPlatform `json:"platform"`
	Active    bool         `json:"active"`
}

// ContactFromUser projects a users row
func ContactFromUser(u *User) *RecipientContact {
	c := &RecipientContact{
		UserID: u.ID,
		Name:   u.Name,
		Phone:  u.Phone,
		Active: u.IsActive,
	}
	if u.PushToken != nil {
		c.PushToken = *u.PushToken
	}
	if u.PushPlatform != nil {
		c.Platform = *u.PushPlatform
	}
	return c
}

// AttemptFilter narrows a delivery log listing
type AttemptFilter struct {
	RecipientID    uint
	Type           NotificationType
	CorrelationKey string
	Since          time.Time
	Limit          int
}
