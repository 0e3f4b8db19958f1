package channels

import (
	"context"
	"fmt"
	"net/http"
	"unicode/utf8"

	"github.com/medibook/backend/internal/config"
	"github.com/medibook/backend/internal/models"
)

// smsMaxShortBytes is the carrier limit for a short message, counting
// non-ASCII characters as two bytes the way Korean carriers do.
const smsMaxShortBytes = 90

// SMSAdapter sends plain text through the provider's SMS endpoint. It is
// only reached as the fallback step after a business message fails.
type SMSAdapter struct {
	from    string
	enabled bool
	phone   PhoneNormalizer
	client  *providerClient
}

// NewSMSAdapter builds the adapter; httpClient may be nil
func NewSMSAdapter(cfg config.ChannelConfig, httpClient *http.Client) *SMSAdapter {
	s := cfg.SMS
	return &SMSAdapter{
		from:    s.SenderPhone,
		enabled: s.Enabled() && s.BaseURL != "",
		phone:   PhoneNormalizer{CountryCode: cfg.CountryCode, TrunkPrefix: cfg.TrunkPrefix},
		client:  newProviderClient(s.BaseURL, s.APIKey, cfg.Timeout, httpClient),
	}
}

func (a *SMSAdapter) Channel() models.Channel {
	return models.ChannelSMS
}

type smsRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"` // SMS or LMS
	Text string `json:"text"`
}

func (a *SMSAdapter) Send(ctx context.Context, to Recipient, content Content) Outcome {
	if !a.enabled {
		return Failed(fmt.Errorf("%w: SMS sender not configured", ErrConfigurationMissing))
	}
	if content.SMSText == "" {
		return Failed(fmt.Errorf("%w: empty SMS text", ErrTemplateInvalid))
	}
	if to.Phone == "" {
		return Failed(fmt.Errorf("%w: no phone number", ErrRecipientDataMissing))
	}
	receiver, err := a.phone.Normalize(to.Phone)
	if err != nil {
		return Failed(err)
	}
	from, err := a.phone.Normalize(a.from)
	if err != nil {
		return Failed(fmt.Errorf("%w: sender phone invalid", ErrConfigurationMissing))
	}

	res, err := a.client.post(ctx, "/v1/sms/send", smsRequest{
		From: from,
		To:   receiver,
		Type: messageKind(content.SMSText),
		Text: content.SMSText,
	})
	if err != nil {
		return Failed(err)
	}
	return sent(res.MessageID)
}

// messageKind picks SMS or LMS by carrier byte length
func messageKind(text string) string {
	n := 0
	for _, r := range text {
		if r < utf8.RuneSelf {
			n++
		} else {
			n += 2
		}
	}
	if n > smsMaxShortBytes {
		return "LMS"
	}
	return "SMS"
}
