package services

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"

	"github.com/medibook/backend/internal/channels"
	"github.com/medibook/backend/internal/config"
	"github.com/medibook/backend/internal/models"
	"github.com/medibook/backend/internal/repository"
	"github.com/medibook/backend/internal/zlog"
)

const defaultFanOutConcurrency = 8

// NotificationRequest asks for one notification to one recipient
type NotificationRequest struct {
	RecipientID    uint                    `json:"recipient_id"`
	Type           models.NotificationType `json:"type"`
	Payload        map[string]string       `json:"payload"`
	CorrelationKey string                  `json:"correlation_key,omitempty"`
}

// FanOutResult aggregates a NotifyMany call
type FanOutResult struct {
	Success  int            `json:"success"`
	Failed   int            `json:"failed"`
	Outcomes []ChainOutcome `json:"outcomes,omitempty"`
}

// Notifier is the dispatch surface used by the scheduler and HTTP handlers
type Notifier interface {
	Notify(ctx context.Context, req NotificationRequest) ChainOutcome
	NotifyMany(ctx context.Context, recipientIDs []uint, req NotificationRequest) FanOutResult
	NotifyHospitalStaff(ctx context.Context, hospitalID uint, req NotificationRequest) (FanOutResult, error)
}

// Adapters groups the three channel adapters
type Adapters struct {
	Push            channels.Adapter
	BusinessMessage channels.Adapter
	SMS             channels.Adapter
}

// NotificationManager resolves recipients, renders content, runs the fallback
// chain and logs every step. It never returns a channel error to its caller.
type NotificationManager struct {
	cfg         config.ChannelConfig
	chain       *FallbackChain
	contacts    repository.ContactStore
	tokens      repository.DeviceTokenStore
	deliveries  repository.DeliveryLog
	concurrency int
}

var _ Notifier = (*NotificationManager)(nil)

// NewNotificationManager creates a new notification manager
func NewNotificationManager(
	cfg config.ChannelConfig,
	adapters Adapters,
	contacts repository.ContactStore,
	tokens repository.DeviceTokenStore,
	deliveries repository.DeliveryLog,
	concurrency int,
) *NotificationManager {
	if concurrency <= 0 {
		concurrency = defaultFanOutConcurrency
	}
	return &NotificationManager{
		cfg:         cfg,
		chain:       NewFallbackChain(adapters.Push, adapters.BusinessMessage, adapters.SMS),
		contacts:    contacts,
		tokens:      tokens,
		deliveries:  deliveries,
		concurrency: concurrency,
	}
}

// Notify delivers one notification through the topology of its type
func (m *NotificationManager) Notify(ctx context.Context, req NotificationRequest) ChainOutcome {
	topology, ok := TopologyFor(req.Type)
	if !ok {
		zlog.Warn("Notify: unknown notification type", zap.String("type", string(req.Type)), zap.Uint("recipient_id", req.RecipientID))
		return ChainOutcome{RecipientID: req.RecipientID, Type: req.Type, ErrorCode: channels.CodeTemplateInvalid}
	}

	// Log rows outlive the caller: a cancelled request still records what was sent.
	logCtx := context.WithoutCancel(ctx)
	payload := encodePayload(req.Payload)

	contact, err := m.contacts.Contact(ctx, req.RecipientID)
	if err == nil && !contact.Active {
		err = fmt.Errorf("%w: recipient %d is inactive", channels.ErrRecipientNotFound, req.RecipientID)
	} else if err != nil && !isNotFound(err) {
		err = fmt.Errorf("%w: contact lookup failed: %v", channels.ErrRecipientNotFound, err)
	}
	if err != nil {
		out := m.chain.Fail(ctx, topology, err, func(a Attempt) {
			m.record(logCtx, req, payload, a, channels.Content{})
		})
		return m.finish(req, out)
	}

	content, err := RenderContent(m.cfg, req.Type, req.Payload)
	if err != nil {
		out := m.chain.Fail(ctx, topology, err, func(a Attempt) {
			m.record(logCtx, req, payload, a, channels.Content{})
		})
		return m.finish(req, out)
	}

	to := channels.Recipient{
		UserID:    contact.UserID,
		Phone:     contact.Phone,
		PushToken: contact.PushToken,
		Platform:  contact.Platform,
	}
	out := m.chain.Run(ctx, topology, to, content, func(a Attempt) {
		m.record(logCtx, req, payload, a, content)
		if a.Channel == models.ChannelPush && a.Outcome.ErrorCode == channels.CodeTokenDead {
			m.clearDeadToken(logCtx, req.RecipientID, to.PushToken)
		}
	})
	return m.finish(req, out)
}

// NotifyMany fans one notification out to many recipients with bounded
// concurrency. A failure for one recipient never affects the others.
func (m *NotificationManager) NotifyMany(ctx context.Context, recipientIDs []uint, req NotificationRequest) FanOutResult {
	outcomes := make([]ChainOutcome, len(recipientIDs))

	var g errgroup.Group
	g.SetLimit(m.concurrency)
	for i, id := range recipientIDs {
		i := i
		r := req
		r.RecipientID = id
		g.Go(func() error {
			outcomes[i] = m.notifySafely(ctx, r)
			return nil
		})
	}
	_ = g.Wait()

	result := FanOutResult{Outcomes: outcomes}
	for _, o := range outcomes {
		if o.Success() {
			result.Success++
		} else {
			result.Failed++
		}
	}
	return result
}

// NotifyHospitalStaff fans out to the hospital's active staff. The error is
// only for the staff lookup itself.
func (m *NotificationManager) NotifyHospitalStaff(ctx context.Context, hospitalID uint, req NotificationRequest) (FanOutResult, error) {
	staff, err := m.contacts.ActiveStaffIDs(ctx, hospitalID)
	if err != nil {
		return FanOutResult{}, fmt.Errorf("failed to list staff of hospital %d: %w", hospitalID, err)
	}
	if len(staff) == 0 {
		zlog.Info("No active staff to notify", zap.Uint("hospital_id", hospitalID), zap.String("type", string(req.Type)))
		return FanOutResult{}, nil
	}
	return m.NotifyMany(ctx, staff, req), nil
}

func (m *NotificationManager) notifySafely(ctx context.Context, req NotificationRequest) (out ChainOutcome) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error("Notify panicked", zap.Uint("recipient_id", req.RecipientID), zap.Any("panic", r))
			out = ChainOutcome{RecipientID: req.RecipientID, Type: req.Type, ErrorCode: channels.CodeProviderRejected}
		}
	}()
	return m.Notify(ctx, req)
}

func (m *NotificationManager) finish(req NotificationRequest, out ChainOutcome) ChainOutcome {
	out.RecipientID = req.RecipientID
	out.Type = req.Type
	if !out.Success() {
		out.ErrorCode = firstErrorCode(out)
		zlog.Warn("Notification not delivered",
			zap.Uint("recipient_id", req.RecipientID),
			zap.String("type", string(req.Type)),
			zap.String("error_code", string(out.ErrorCode)))
	}
	return out
}

func (m *NotificationManager) record(ctx context.Context, req NotificationRequest, payload datatypes.JSON, a Attempt, content channels.Content) {
	attempt := &models.DeliveryAttempt{
		RecipientID:       req.RecipientID,
		Type:              req.Type,
		Channel:           a.Channel,
		Payload:           payload,
		CorrelationKey:    req.CorrelationKey,
		Status:            models.AttemptFailed,
		ErrorCode:         string(a.Outcome.ErrorCode),
		ErrorMessage:      truncateText(a.Outcome.ErrorMessage, 500),
		ProviderMessageID: a.Outcome.ProviderMessageID,
	}
	if a.Outcome.Success {
		attempt.Status = models.AttemptSent
	}
	switch a.Channel {
	case models.ChannelPush:
		if content.Push != nil {
			attempt.Title = truncateText(content.Push.Title, 255)
			attempt.Body = content.Push.Body
		}
	case models.ChannelBusinessMessage:
		if content.BusinessMessage != nil {
			attempt.Title = truncateText(content.BusinessMessage.TemplateCode, 255)
			attempt.Body = content.BusinessMessage.Text
		}
	case models.ChannelSMS:
		attempt.Body = content.SMSText
	}

	if err := m.deliveries.Record(ctx, attempt); err != nil {
		zlog.Error("Failed to record delivery attempt",
			zap.Uint("recipient_id", req.RecipientID),
			zap.String("type", string(req.Type)),
			zap.String("channel", string(a.Channel)),
			zap.Error(err))
	}
}

func (m *NotificationManager) clearDeadToken(ctx context.Context, userID uint, token string) {
	cleared, err := m.tokens.ClearToken(ctx, userID, token)
	if err != nil {
		zlog.Error("Failed to clear dead push token", zap.Uint("user_id", userID), zap.Error(err))
		return
	}
	if cleared {
		zlog.Info("Cleared dead push token", zap.Uint("user_id", userID))
	}
}

func firstErrorCode(out ChainOutcome) channels.ErrorCode {
	if out.ErrorCode != "" {
		return out.ErrorCode
	}
	if out.Message != nil && out.Message.ErrorCode != "" {
		return out.Message.ErrorCode
	}
	if out.Push != nil {
		return out.Push.ErrorCode
	}
	return ""
}

func encodePayload(payload map[string]string) datatypes.JSON {
	if len(payload) == 0 {
		return nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return datatypes.JSON(data)
}

func isNotFound(err error) bool {
	return channels.CodeOf(err) == channels.CodeRecipientNotFound
}

func truncateText(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
