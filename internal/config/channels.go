package config

import (
	"time"

	"github.com/medibook/backend/internal/models"
)

// ChannelConfig is the immutable channel setup decided once at process start.
// A channel whose credentials are absent stays disabled for the process lifetime.
type ChannelConfig struct {
	Push            PushChannel
	BusinessMessage BusinessMessageChannel
	SMS             SMSChannel
	DeepLinkBaseURL string
	Timeout         time.Duration
	CountryCode     string
	TrunkPrefix     string
}

type PushChannel struct {
	CredentialsFile  string
	CredentialsJSON  []byte
	ProjectID        string
	AndroidChannelID string
}

// Enabled reports whether a push credential is present
func (p PushChannel) Enabled() bool {
	return p.CredentialsFile != "" || len(p.CredentialsJSON) > 0
}

type BusinessMessageChannel struct {
	BaseURL   string
	APIKey    string
	SenderKey string
	Templates map[models.NotificationType]string
}

// Enabled reports whether the sender credential is present
func (b BusinessMessageChannel) Enabled() bool {
	return b.APIKey != "" && b.SenderKey != ""
}

// TemplateCode returns the provider template registered for t
func (b BusinessMessageChannel) TemplateCode(t models.NotificationType) (string, bool) {
	code, ok := b.Templates[t]
	return code, ok && code != ""
}

type SMSChannel struct {
	BaseURL     string
	APIKey      string
	SenderPhone string
}

// Enabled reports whether the SMS endpoint can be called
func (s SMSChannel) Enabled() bool {
	return s.APIKey != "" && s.SenderPhone != ""
}

// ChannelConfig derives the channel configuration value
func (c *Config) ChannelConfig() ChannelConfig {
	ch := c.Channels
	templates := make(map[models.NotificationType]string, len(ch.BusinessMessage.Templates))
	for k, v := range ch.BusinessMessage.Templates {
		templates[models.NotificationType(k)] = v
	}

	var credJSON []byte
	if ch.Push.CredentialsJSON != "" {
		credJSON = []byte(ch.Push.CredentialsJSON)
	}

	return ChannelConfig{
		Push: PushChannel{
			CredentialsFile:  ch.Push.CredentialsFile,
			CredentialsJSON:  credJSON,
			ProjectID:        ch.Push.ProjectID,
			AndroidChannelID: ch.Push.AndroidChannelID,
		},
		BusinessMessage: BusinessMessageChannel{
			BaseURL:   ch.BusinessMessage.BaseURL,
			APIKey:    ch.BusinessMessage.APIKey,
			SenderKey: ch.BusinessMessage.SenderKey,
			Templates: templates,
		},
		SMS: SMSChannel{
			BaseURL:     ch.BusinessMessage.BaseURL,
			APIKey:      ch.BusinessMessage.APIKey,
			SenderPhone: ch.SMS.SenderPhone,
		},
		DeepLinkBaseURL: ch.DeepLinkBaseURL,
		Timeout:         time.Duration(ch.TimeoutSeconds) * time.Second,
		CountryCode:     ch.CountryCode,
		TrunkPrefix:     ch.TrunkPrefix,
	}
}

// WithTemplateOverrides returns a copy whose business-message templates are
// overlaid by overrides (used for codes stored in system_preferences).
func (c ChannelConfig) WithTemplateOverrides(overrides map[models.NotificationType]string) ChannelConfig {
	if len(overrides) == 0 {
		return c
	}
	merged := make(map[models.NotificationType]string, len(c.BusinessMessage.Templates)+len(overrides))
	for k, v := range c.BusinessMessage.Templates {
		merged[k] = v
	}
	for k, v := range overrides {
		merged[k] = v
	}
	c.BusinessMessage.Templates = merged
	return c
}
