package services

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/medibook/backend/internal/models"
	"github.com/medibook/backend/internal/repository"
	"github.com/medibook/backend/internal/zlog"
)

// Campaign job names
const (
	JobReminder       = "reminder"
	JobReviewRequest  = "review-request"
	JobUnansweredChat = "unanswered-chat"
)

const reservationTimeLayout = "2006-01-02 15:04"

// CampaignResult summarizes one sweep
type CampaignResult struct {
	Job        string `json:"job"`
	Candidates int    `json:"candidates"`
	Skipped    int    `json:"skipped"`
	Delivered  int    `json:"delivered"`
	Failed     int    `json:"failed"`
}

// ScheduleSpecs holds the cron expressions of the three sweeps
type ScheduleSpecs struct {
	Reminder       string
	ReviewRequest  string
	UnansweredChat string
}

// CampaignScheduler runs the time-driven sweeps. Each candidate is checked
// against the delivery log before sending; two overlapping runs can both pass
// that check and send twice.
type CampaignScheduler struct {
	notifier   Notifier
	queries    repository.CampaignQueries
	deliveries repository.DeliveryLog
	loc        *time.Location
	specs      ScheduleSpecs
	cron       *cron.Cron
	now        func() time.Time

	mu      sync.Mutex
	running bool
}

// NewCampaignScheduler creates the scheduler; loc is the clinic time zone
func NewCampaignScheduler(notifier Notifier, queries repository.CampaignQueries, deliveries repository.DeliveryLog, loc *time.Location, specs ScheduleSpecs) *CampaignScheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &CampaignScheduler{
		notifier:   notifier,
		queries:    queries,
		deliveries: deliveries,
		loc:        loc,
		specs:      specs,
		cron:       cron.New(cron.WithLocation(loc)),
		now:        time.Now,
	}
}

// Start registers the sweeps and starts the cron runner
func (s *CampaignScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	jobs := []struct {
		name string
		spec string
	}{
		{JobReminder, s.specs.Reminder},
		{JobReviewRequest, s.specs.ReviewRequest},
		{JobUnansweredChat, s.specs.UnansweredChat},
	}
	for _, j := range jobs {
		if j.spec == "" {
			zlog.Info("Campaign job disabled", zap.String("job", j.name))
			continue
		}
		name := j.name
		if _, err := s.cron.AddFunc(j.spec, func() { s.runScheduled(name) }); err != nil {
			return fmt.Errorf("invalid schedule %q for %s: %w", j.spec, name, err)
		}
	}

	s.cron.Start()
	s.running = true
	zlog.Info("CampaignScheduler started", zap.String("timezone", s.loc.String()))
	return nil
}

// Stop stops the cron runner and waits for running sweeps to finish
func (s *CampaignScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	zlog.Info("CampaignScheduler stopped")
}

func (s *CampaignScheduler) runScheduled(job string) {
	defer func() {
		if r := recover(); r != nil {
			zlog.Error("Campaign job panicked", zap.String("job", job), zap.Any("panic", r))
		}
	}()

	if _, err := s.Run(context.Background(), job); err != nil {
		zlog.Error("Campaign job failed", zap.String("job", job), zap.Error(err))
	}
}

// Run executes the named sweep immediately
func (s *CampaignScheduler) Run(ctx context.Context, job string) (CampaignResult, error) {
	now := s.now()
	var (
		result CampaignResult
		err    error
	)
	switch job {
	case JobReminder:
		result, err = s.RunReminders(ctx, now)
	case JobReviewRequest:
		result, err = s.RunReviewRequests(ctx, now)
	case JobUnansweredChat:
		result, err = s.RunUnansweredChats(ctx, now)
	default:
		return CampaignResult{}, fmt.Errorf("unknown campaign job %q", job)
	}
	if err != nil {
		return result, err
	}

	zlog.Info("Campaign sweep finished",
		zap.String("job", job),
		zap.Int("candidates", result.Candidates),
		zap.Int("skipped", result.Skipped),
		zap.Int("delivered", result.Delivered),
		zap.Int("failed", result.Failed))
	return result, nil
}

// RunReminders notifies patients of confirmed reservations on the next
// calendar day.
func (s *CampaignScheduler) RunReminders(ctx context.Context, now time.Time) (CampaignResult, error) {
	result := CampaignResult{Job: JobReminder}
	from, to := TomorrowWindow(now, s.loc)

	candidates, err := s.queries.ConfirmedReservationsBetween(ctx, from, to)
	if err != nil {
		return result, fmt.Errorf("failed to query reminder candidates: %w", err)
	}
	result.Candidates = len(candidates)

	for _, c := range candidates {
		key := models.ReservationKey(c.ReservationID)
		if s.alreadySent(ctx, models.NotifyReservationReminder, key, time.Time{}) {
			result.Skipped++
			continue
		}
		out := s.notifier.Notify(ctx, NotificationRequest{
			RecipientID:    c.PatientID,
			Type:           models.NotifyReservationReminder,
			CorrelationKey: key,
			Payload: map[string]string{
				VarPatientName:     c.PatientName,
				VarHospitalName:    c.HospitalName,
				VarReservationTime: c.ReservedAt.In(s.loc).Format(reservationTimeLayout),
				VarReservationID:   strconv.FormatUint(uint64(c.ReservationID), 10),
			},
		})
		result.count(out.Success())
	}
	return result, nil
}

// RunReviewRequests asks for a review once per completed reservation, about
// a day after completion.
func (s *CampaignScheduler) RunReviewRequests(ctx context.Context, now time.Time) (CampaignResult, error) {
	result := CampaignResult{Job: JobReviewRequest}
	from, to := ReviewWindow(now)

	candidates, err := s.queries.CompletedReservationsBetween(ctx, from, to)
	if err != nil {
		return result, fmt.Errorf("failed to query review candidates: %w", err)
	}
	result.Candidates = len(candidates)

	for _, c := range candidates {
		key := models.ReservationKey(c.ReservationID)
		if s.alreadySent(ctx, models.NotifyReviewRequest, key, time.Time{}) {
			result.Skipped++
			continue
		}
		out := s.notifier.Notify(ctx, NotificationRequest{
			RecipientID:    c.PatientID,
			Type:           models.NotifyReviewRequest,
			CorrelationKey: key,
			Payload: map[string]string{
				VarHospitalName:  c.HospitalName,
				VarReservationID: strconv.FormatUint(uint64(c.ReservationID), 10),
			},
		})
		result.count(out.Success())
	}
	return result, nil
}

// RunUnansweredChats alerts hospital staff about patient threads left
// without a reply, at most once a day per hospital.
func (s *CampaignScheduler) RunUnansweredChats(ctx context.Context, now time.Time) (CampaignResult, error) {
	result := CampaignResult{Job: JobUnansweredChat}

	backlog, err := s.queries.UnansweredChatBacklog(ctx, UnansweredCutoff(now))
	if err != nil {
		return result, fmt.Errorf("failed to query unanswered chats: %w", err)
	}
	result.Candidates = len(backlog)

	since := UnansweredAlertSince(now)
	for _, b := range backlog {
		if b.ThreadCount <= 0 {
			continue
		}
		key := models.HospitalKey(b.HospitalID)
		if s.alreadySent(ctx, models.NotifyUnansweredChat, key, since) {
			result.Skipped++
			continue
		}
		fan, err := s.notifier.NotifyHospitalStaff(ctx, b.HospitalID, NotificationRequest{
			Type:           models.NotifyUnansweredChat,
			CorrelationKey: key,
			Payload: map[string]string{
				VarHospitalName: b.HospitalName,
				VarThreadCount:  strconv.Itoa(b.ThreadCount),
			},
		})
		if err != nil {
			zlog.Error("Unanswered chat fan-out failed", zap.Uint("hospital_id", b.HospitalID), zap.Error(err))
			result.Failed++
			continue
		}
		result.Delivered += fan.Success
		result.Failed += fan.Failed
	}
	return result, nil
}

// alreadySent reports whether a notification for key was logged since the
// given time. A lookup error counts as sent so a flaky read never duplicates.
func (s *CampaignScheduler) alreadySent(ctx context.Context, t models.NotificationType, key string, since time.Time) bool {
	sent, err := s.deliveries.HasAttempt(ctx, t, key, since)
	if err != nil {
		zlog.Error("Delivery log lookup failed, skipping candidate",
			zap.String("type", string(t)), zap.String("correlation_key", key), zap.Error(err))
		return true
	}
	return sent
}

func (r *CampaignResult) count(success bool) {
	if success {
		r.Delivered++
	} else {
		r.Failed++
	}
}
