package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/medibook/backend/internal/channels"
	"github.com/medibook/backend/internal/models"
	"github.com/medibook/backend/internal/repository"
)

// fakeAdapter answers with respond and counts the calls that reached it.
// With needsToken set it fails like the push adapter when the recipient has
// no token, without counting a call.
type fakeAdapter struct {
	channel    models.Channel
	needsToken bool
	respond    func(to channels.Recipient) channels.Outcome

	mu    sync.Mutex
	calls []channels.Recipient
}

var _ channels.Adapter = (*fakeAdapter)(nil)

func (f *fakeAdapter) Channel() models.Channel {
	return f.channel
}

func (f *fakeAdapter) Send(_ context.Context, to channels.Recipient, _ channels.Content) channels.Outcome {
	if f.needsToken && to.PushToken == "" {
		return channels.Outcome{ErrorCode: channels.CodeRecipientDataMissing, ErrorMessage: "no push token"}
	}
	f.mu.Lock()
	f.calls = append(f.calls, to)
	f.mu.Unlock()
	if f.respond == nil {
		return channels.Outcome{Success: true, ProviderMessageID: string(f.channel) + "-id"}
	}
	return f.respond(to)
}

func (f *fakeAdapter) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func succeeding(ch models.Channel) *fakeAdapter {
	return &fakeAdapter{channel: ch, needsToken: ch == models.ChannelPush}
}

func failing(ch models.Channel, code channels.ErrorCode) *fakeAdapter {
	a := succeeding(ch)
	a.respond = func(channels.Recipient) channels.Outcome {
		return channels.Outcome{ErrorCode: code, ErrorMessage: string(code)}
	}
	return a
}

type fakeContacts struct {
	mu       sync.Mutex
	contacts map[uint]*models.RecipientContact
	staff    map[uint][]uint
	err      error
}

var _ repository.ContactStore = (*fakeContacts)(nil)

func newFakeContacts(list ...models.RecipientContact) *fakeContacts {
	f := &fakeContacts{contacts: make(map[uint]*models.RecipientContact), staff: make(map[uint][]uint)}
	for i := range list {
		c := list[i]
		f.contacts[c.UserID] = &c
	}
	return f
}

func (f *fakeContacts) Contact(_ context.Context, userID uint) (*models.RecipientContact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	c, ok := f.contacts[userID]
	if !ok {
		return nil, models.ErrRecipientNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContacts) ActiveStaffIDs(_ context.Context, hospitalID uint) ([]uint, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.staff[hospitalID], nil
}

// fakeTokens clears tokens held by a fakeContacts
type fakeTokens struct {
	contacts *fakeContacts
	mu       sync.Mutex
	cleared  []uint
}

var _ repository.DeviceTokenStore = (*fakeTokens)(nil)

func (f *fakeTokens) SetToken(_ context.Context, userID uint, token string, platform models.PushPlatform) error {
	f.contacts.mu.Lock()
	defer f.contacts.mu.Unlock()
	c, ok := f.contacts.contacts[userID]
	if !ok {
		return models.ErrRecipientNotFound
	}
	c.PushToken = token
	c.Platform = platform
	return nil
}

func (f *fakeTokens) ClearToken(_ context.Context, userID uint, token string) (bool, error) {
	f.contacts.mu.Lock()
	defer f.contacts.mu.Unlock()
	c, ok := f.contacts.contacts[userID]
	if !ok || (token != "" && c.PushToken != token) {
		return false, nil
	}
	c.PushToken = ""
	f.mu.Lock()
	f.cleared = append(f.cleared, userID)
	f.mu.Unlock()
	return true, nil
}

type fakeDeliveryLog struct {
	mu       sync.Mutex
	attempts []models.DeliveryAttempt
	now      func() time.Time
}

var _ repository.DeliveryLog = (*fakeDeliveryLog)(nil)

func newFakeDeliveryLog() *fakeDeliveryLog {
	return &fakeDeliveryLog{now: time.Now}
}

func (f *fakeDeliveryLog) Record(_ context.Context, a *models.DeliveryAttempt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = f.now()
	}
	f.attempts = append(f.attempts, *a)
	return nil
}

func (f *fakeDeliveryLog) HasAttempt(_ context.Context, t models.NotificationType, key string, since time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.attempts {
		if a.Type == t && a.CorrelationKey == key && !a.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeDeliveryLog) List(_ context.Context, filter models.AttemptFilter) ([]models.DeliveryAttempt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.DeliveryAttempt
	for _, a := range f.attempts {
		if filter.RecipientID != 0 && a.RecipientID != filter.RecipientID {
			continue
		}
		if filter.Type != "" && a.Type != filter.Type {
			continue
		}
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeDeliveryLog) all() []models.DeliveryAttempt {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.DeliveryAttempt(nil), f.attempts...)
}

func (f *fakeDeliveryLog) forRecipient(id uint) []models.DeliveryAttempt {
	var out []models.DeliveryAttempt
	for _, a := range f.all() {
		if a.RecipientID == id {
			out = append(out, a)
		}
	}
	return out
}

func (f *fakeDeliveryLog) recipients() []uint {
	seen := make(map[uint]bool)
	for _, a := range f.all() {
		seen[a.RecipientID] = true
	}
	ids := make([]uint, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

type fakeCampaignQueries struct {
	reminders []models.ReminderCandidate
	reviews   []models.ReviewCandidate
	backlog   []models.ChatBacklog

	reminderWindow [2]time.Time
	reviewWindow   [2]time.Time
	chatCutoff     time.Time
}

var _ repository.CampaignQueries = (*fakeCampaignQueries)(nil)

func (f *fakeCampaignQueries) ConfirmedReservationsBetween(_ context.Context, from, to time.Time) ([]models.ReminderCandidate, error) {
	f.reminderWindow = [2]time.Time{from, to}
	var out []models.ReminderCandidate
	for _, c := range f.reminders {
		if !c.ReservedAt.Before(from) && c.ReservedAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCampaignQueries) CompletedReservationsBetween(_ context.Context, from, to time.Time) ([]models.ReviewCandidate, error) {
	f.reviewWindow = [2]time.Time{from, to}
	var out []models.ReviewCandidate
	for _, c := range f.reviews {
		if !c.CompletedAt.Before(from) && c.CompletedAt.Before(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeCampaignQueries) UnansweredChatBacklog(_ context.Context, before time.Time) ([]models.ChatBacklog, error) {
	f.chatCutoff = before
	return f.backlog, nil
}
