// Package channels wraps the external delivery transports behind one Adapter
// contract. Adapters do network I/O only; logging attempts and invalidating
// device tokens is the caller's job.
package channels

import (
	"context"

	"github.com/medibook/backend/internal/models"
)

// Recipient is the contact data an adapter may need
type Recipient struct {
	UserID    uint
	Phone     string
	PushToken string
	Platform  models.PushPlatform
}

// PushContent is the mobile push payload
type PushContent struct {
	Title string
	Body  string
	Data  map[string]string
}

// Button is an action button attached to a business message
type Button struct {
	Name      string `json:"name"`
	Type      string `json:"type"` // WL = web link
	MobileURL string `json:"url_mobile"`
	PCURL     string `json:"url_pc,omitempty"`
}

// MessageContent is a templated business message
type MessageContent struct {
	TemplateCode string
	Variables    map[string]string
	Buttons      []Button
	Text         string // rendered body, kept for the delivery log
}

// Content carries the per-channel renditions of one notification
type Content struct {
	Push            *PushContent
	BusinessMessage *MessageContent
	SMSText         string
}

// Outcome is the result of a single Send. It never carries a Go error: every
// failure is folded into ErrorCode and ErrorMessage.
type Outcome struct {
	Success           bool
	ProviderMessageID string
	ErrorCode         ErrorCode
	ErrorMessage      string
}

// Adapter sends one notification through one transport
type Adapter interface {
	Channel() models.Channel
	Send(ctx context.Context, to Recipient, content Content) Outcome
}

func sent(providerMessageID string) Outcome {
	return Outcome{Success: true, ProviderMessageID: providerMessageID}
}
