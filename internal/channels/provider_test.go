package channels

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medibook/backend/internal/config"
	"github.com/medibook/backend/internal/models"
)

// fakeProvider records requests and answers with a canned envelope
type fakeProvider struct {
	mu       sync.Mutex
	requests []capturedRequest
	status   int
	body     string
	delay    time.Duration
}

type capturedRequest struct {
	Path          string
	Authorization string
	Body          map[string]any
}

func (f *fakeProvider) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		var body map[string]any
		if err := json.Unmarshal(raw, &body); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		f.mu.Lock()
		f.requests = append(f.requests, capturedRequest{
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			Body:          body,
		})
		f.mu.Unlock()

		if f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-r.Context().Done():
				return
			}
		}
		status := f.status
		if status == 0 {
			status = http.StatusOK
		}
		w.WriteHeader(status)
		_, _ = io.WriteString(w, f.body)
	}
}

func (f *fakeProvider) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.requests)
}

func (f *fakeProvider) request(i int) capturedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[i]
}

func newProvider(t *testing.T, f *fakeProvider) *httptest.Server {
	srv := httptest.NewServer(f.handler())
	t.Cleanup(srv.Close)
	return srv
}

func channelConfig(baseURL string) config.ChannelConfig {
	return config.ChannelConfig{
		BusinessMessage: config.BusinessMessageChannel{
			BaseURL:   baseURL,
			APIKey:    "api-key",
			SenderKey: "sender-key",
			Templates: map[models.NotificationType]string{
				models.NotifyReservationConfirmed: "TPL_CONFIRMED",
			},
		},
		SMS: config.SMSChannel{
			BaseURL:     baseURL,
			APIKey:      "api-key",
			SenderPhone: "+82 2-1234-5678",
		},
		Timeout:     time.Second,
		CountryCode: "82",
		TrunkPrefix: "0",
	}
}

func messageContent() Content {
	return Content{
		BusinessMessage: &MessageContent{
			TemplateCode: "TPL_CONFIRMED",
			Variables:    map[string]string{"hospital_name": "Seoul Clinic"},
			Buttons:      []Button{{Name: "View", Type: "WL", MobileURL: "https://app.example/r/1"}},
			Text:         "confirmed",
		},
		SMSText: "Your reservation is confirmed.",
	}
}

func TestBusinessMessageAdapter(t *testing.T) {
	t.Run("SendsTemplateWithNormalizedPhone", func(t *testing.T) {
		f := &fakeProvider{body: `{"code":"0","message":"ok","messageId":"bm-1"}`}
		srv := newProvider(t, f)
		adapter := NewBusinessMessageAdapter(channelConfig(srv.URL), srv.Client())

		out := adapter.Send(context.Background(), Recipient{UserID: 1, Phone: "+821012345678"}, messageContent())
		require.True(t, out.Success, out.ErrorMessage)
		require.Equal(t, "bm-1", out.ProviderMessageID)

		require.Equal(t, 1, f.count())
		req := f.request(0)
		require.Equal(t, "/v1/alimtalk/send", req.Path)
		require.Equal(t, "Bearer api-key", req.Authorization)
		require.Equal(t, "sender-key", req.Body["senderKey"])
		require.Equal(t, "TPL_CONFIRMED", req.Body["templateCode"])
		require.Equal(t, "01012345678", req.Body["receiver"])
		require.NotEmpty(t, req.Body["buttons"])
	})

	t.Run("ProviderRejection", func(t *testing.T) {
		f := &fakeProvider{body: `{"code":"3018","message":"template mismatch"}`}
		srv := newProvider(t, f)
		adapter := NewBusinessMessageAdapter(channelConfig(srv.URL), srv.Client())

		out := adapter.Send(context.Background(), Recipient{Phone: "01012345678"}, messageContent())
		require.False(t, out.Success)
		require.Equal(t, CodeProviderRejected, out.ErrorCode)
		require.Contains(t, out.ErrorMessage, "template mismatch")
	})

	t.Run("HTTPErrorIsRejection", func(t *testing.T) {
		f := &fakeProvider{status: http.StatusInternalServerError, body: "upstream down"}
		srv := newProvider(t, f)
		adapter := NewBusinessMessageAdapter(channelConfig(srv.URL), srv.Client())

		out := adapter.Send(context.Background(), Recipient{Phone: "01012345678"}, messageContent())
		require.Equal(t, CodeProviderRejected, out.ErrorCode)
	})

	t.Run("TimeoutIsProviderTimeout", func(t *testing.T) {
		f := &fakeProvider{body: `{"code":"0"}`, delay: 2 * time.Second}
		srv := newProvider(t, f)
		cfg := channelConfig(srv.URL)
		cfg.Timeout = 50 * time.Millisecond
		adapter := NewBusinessMessageAdapter(cfg, srv.Client())

		out := adapter.Send(context.Background(), Recipient{Phone: "01012345678"}, messageContent())
		require.Equal(t, CodeProviderTimeout, out.ErrorCode)
	})

	t.Run("DisabledWithoutSenderKey", func(t *testing.T) {
		f := &fakeProvider{}
		srv := newProvider(t, f)
		cfg := channelConfig(srv.URL)
		cfg.BusinessMessage.SenderKey = ""
		adapter := NewBusinessMessageAdapter(cfg, srv.Client())

		out := adapter.Send(context.Background(), Recipient{Phone: "01012345678"}, messageContent())
		require.Equal(t, CodeConfigurationMissing, out.ErrorCode)
		require.Zero(t, f.count())
	})

	t.Run("MissingTemplateCode", func(t *testing.T) {
		f := &fakeProvider{}
		srv := newProvider(t, f)
		adapter := NewBusinessMessageAdapter(channelConfig(srv.URL), srv.Client())

		content := messageContent()
		content.BusinessMessage.TemplateCode = ""
		out := adapter.Send(context.Background(), Recipient{Phone: "01012345678"}, content)
		require.Equal(t, CodeConfigurationMissing, out.ErrorCode)
		require.Zero(t, f.count())
	})

	t.Run("MissingPhone", func(t *testing.T) {
		f := &fakeProvider{}
		srv := newProvider(t, f)
		adapter := NewBusinessMessageAdapter(channelConfig(srv.URL), srv.Client())

		out := adapter.Send(context.Background(), Recipient{UserID: 7}, messageContent())
		require.Equal(t, CodeRecipientDataMissing, out.ErrorCode)
		require.Zero(t, f.count())
	})
}

func TestSMSAdapter(t *testing.T) {
	t.Run("SendsShortMessage", func(t *testing.T) {
		f := &fakeProvider{body: `{"code":"0","messageId":"sms-9"}`}
		srv := newProvider(t, f)
		adapter := NewSMSAdapter(channelConfig(srv.URL), srv.Client())

		out := adapter.Send(context.Background(), Recipient{Phone: "010-1234-5678"}, messageContent())
		require.True(t, out.Success, out.ErrorMessage)
		require.Equal(t, "sms-9", out.ProviderMessageID)

		req := f.request(0)
		require.Equal(t, "/v1/sms/send", req.Path)
		require.Equal(t, "0212345678", req.Body["from"])
		require.Equal(t, "01012345678", req.Body["to"])
		require.Equal(t, "SMS", req.Body["type"])
	})

	t.Run("LongTextBecomesLMS", func(t *testing.T) {
		f := &fakeProvider{body: `{"code":"0","messageId":"sms-10"}`}
		srv := newProvider(t, f)
		adapter := NewSMSAdapter(channelConfig(srv.URL), srv.Client())

		content := messageContent()
		content.SMSText = strings.Repeat("a", 91)
		out := adapter.Send(context.Background(), Recipient{Phone: "01012345678"}, content)
		require.True(t, out.Success)
		require.Equal(t, "LMS", f.request(0).Body["type"])
	})

	t.Run("DisabledWithoutSender", func(t *testing.T) {
		f := &fakeProvider{}
		srv := newProvider(t, f)
		cfg := channelConfig(srv.URL)
		cfg.SMS.SenderPhone = ""
		adapter := NewSMSAdapter(cfg, srv.Client())

		out := adapter.Send(context.Background(), Recipient{Phone: "01012345678"}, messageContent())
		require.Equal(t, CodeConfigurationMissing, out.ErrorCode)
		require.Zero(t, f.count())
	})

	t.Run("EmptyText", func(t *testing.T) {
		f := &fakeProvider{}
		srv := newProvider(t, f)
		adapter := NewSMSAdapter(channelConfig(srv.URL), srv.Client())

		out := adapter.Send(context.Background(), Recipient{Phone: "01012345678"}, Content{})
		require.Equal(t, CodeTemplateInvalid, out.ErrorCode)
	})
}

func TestMessageKind(t *testing.T) {
	require.Equal(t, "SMS", messageKind(strings.Repeat("a", 90)))
	require.Equal(t, "LMS", messageKind(strings.Repeat("a", 91)))
	// 46 Hangul syllables count as 92 bytes
	require.Equal(t, "LMS", messageKind(strings.Repeat("가", 46)))
	require.Equal(t, "SMS", messageKind(strings.Repeat("가", 45)))
}
