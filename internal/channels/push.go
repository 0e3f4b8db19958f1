package channels

import (
	"context"
	"fmt"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"

	"github.com/medibook/backend/internal/config"
	"github.com/medibook/backend/internal/models"
)

// messagingClient is the subset of *messaging.Client the adapter uses
type messagingClient interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

// PushAdapter delivers mobile push through Firebase Cloud Messaging
type PushAdapter struct {
	client           messagingClient
	androidChannelID string
	timeout          time.Duration
	isDeadToken      func(error) bool
}

// NewPushAdapter initializes the FCM client. With no credential configured the
// adapter is returned disabled and every Send fails with CONFIGURATION_MISSING.
func NewPushAdapter(ctx context.Context, cfg config.ChannelConfig) (*PushAdapter, error) {
	adapter := newPushAdapter(nil, cfg)
	if !cfg.Push.Enabled() {
		return adapter, nil
	}

	var opts []option.ClientOption
	if len(cfg.Push.CredentialsJSON) > 0 {
		opts = append(opts, option.WithCredentialsJSON(cfg.Push.CredentialsJSON))
	} else {
		opts = append(opts, option.WithCredentialsFile(cfg.Push.CredentialsFile))
	}

	var fbConfig *firebase.Config
	if cfg.Push.ProjectID != "" {
		fbConfig = &firebase.Config{ProjectID: cfg.Push.ProjectID}
	}
	app, err := firebase.NewApp(ctx, fbConfig, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize firebase messaging: %w", err)
	}
	adapter.client = client
	return adapter, nil
}

func newPushAdapter(client messagingClient, cfg config.ChannelConfig) *PushAdapter {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &PushAdapter{
		client:           client,
		androidChannelID: cfg.Push.AndroidChannelID,
		timeout:          timeout,
		isDeadToken:      fcmTokenDead,
	}
}

func (a *PushAdapter) Channel() models.Channel {
	return models.ChannelPush
}

func (a *PushAdapter) Send(ctx context.Context, to Recipient, content Content) Outcome {
	if a.client == nil {
		return Failed(fmt.Errorf("%w: push provider not initialized", ErrConfigurationMissing))
	}
	if to.PushToken == "" {
		return Failed(fmt.Errorf("%w: no push token", ErrRecipientDataMissing))
	}
	if content.Push == nil {
		return Failed(fmt.Errorf("%w: no push content", ErrTemplateInvalid))
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	id, err := a.client.Send(ctx, a.buildMessage(to, content.Push))
	if err != nil {
		switch {
		case a.isDeadToken(err):
			return Failed(fmt.Errorf("%w: %v", ErrTokenInvalid, err))
		case isTimeout(err):
			return Failed(fmt.Errorf("%w: %v", ErrProviderTimeout, err))
		default:
			return Failed(fmt.Errorf("%w: %v", ErrProviderRejected, err))
		}
	}
	return sent(id)
}

func (a *PushAdapter) buildMessage(to Recipient, push *PushContent) *messaging.Message {
	msg := &messaging.Message{
		Token: to.PushToken,
		Notification: &messaging.Notification{
			Title: push.Title,
			Body:  push.Body,
		},
		Data: push.Data,
	}

	// Platform hints; an unknown platform gets both.
	if to.Platform != models.PlatformIOS {
		msg.Android = &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: a.androidChannelID,
				Sound:     "default",
			},
		}
	}
	if to.Platform != models.PlatformAndroid {
		msg.APNS = &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		}
	}
	return msg
}

// fcmTokenDead reports provider errors meaning the token will never work again
func fcmTokenDead(err error) bool {
	return messaging.IsUnregistered(err) || messaging.IsSenderIDMismatch(err)
}
