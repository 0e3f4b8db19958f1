package channels

import (
	"context"
	"fmt"
	"net/http"

	"github.com/medibook/backend/internal/config"
	"github.com/medibook/backend/internal/models"
)

// BusinessMessageAdapter sends pre-approved templated messages (Kakao
// AlimTalk style) through the provider's template endpoint.
type BusinessMessageAdapter struct {
	senderKey string
	enabled   bool
	phone     PhoneNormalizer
	client    *providerClient
}

// NewBusinessMessageAdapter builds the adapter; httpClient may be nil
func NewBusinessMessageAdapter(cfg config.ChannelConfig, httpClient *http.Client) *BusinessMessageAdapter {
	bm := cfg.BusinessMessage
	return &BusinessMessageAdapter{
		senderKey: bm.SenderKey,
		enabled:   bm.Enabled() && bm.BaseURL != "",
		phone:     PhoneNormalizer{CountryCode: cfg.CountryCode, TrunkPrefix: cfg.TrunkPrefix},
		client:    newProviderClient(bm.BaseURL, bm.APIKey, cfg.Timeout, httpClient),
	}
}

func (a *BusinessMessageAdapter) Channel() models.Channel {
	return models.ChannelBusinessMessage
}

type businessMessageRequest struct {
	SenderKey    string            `json:"senderKey"`
	TemplateCode string            `json:"templateCode"`
	Receiver     string            `json:"receiver"`
	Variables    map[string]string `json:"variables"`
	Buttons      []Button          `json:"buttons,omitempty"`
}

func (a *BusinessMessageAdapter) Send(ctx context.Context, to Recipient, content Content) Outcome {
	if !a.enabled {
		return Failed(fmt.Errorf("%w: business message sender credential not set", ErrConfigurationMissing))
	}
	msg := content.BusinessMessage
	if msg == nil || msg.TemplateCode == "" {
		return Failed(fmt.Errorf("%w: no business message template registered", ErrConfigurationMissing))
	}
	if to.Phone == "" {
		return Failed(fmt.Errorf("%w: no phone number", ErrRecipientDataMissing))
	}
	receiver, err := a.phone.Normalize(to.Phone)
	if err != nil {
		return Failed(err)
	}

	res, err := a.client.post(ctx, "/v1/alimtalk/send", businessMessageRequest{
		SenderKey:    a.senderKey,
		TemplateCode: msg.TemplateCode,
		Receiver:     receiver,
		Variables:    msg.Variables,
		Buttons:      msg.Buttons,
	})
	if err != nil {
		return Failed(err)
	}
	return sent(res.MessageID)
}
