package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/medibook/backend/internal/models"
)

type schedulerFixture struct {
	*managerFixture
	queries   *fakeCampaignQueries
	scheduler *CampaignScheduler
	loc       *time.Location
}

func newSchedulerFixture(t *testing.T, now time.Time, contacts ...models.RecipientContact) *schedulerFixture {
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	m := newManagerFixture(succeeding(models.ChannelPush), succeeding(models.ChannelBusinessMessage), succeeding(models.ChannelSMS), contacts...)
	m.log.now = func() time.Time { return now }
	q := &fakeCampaignQueries{}
	s := NewCampaignScheduler(m.manager, q, m.log, loc, ScheduleSpecs{})
	s.now = func() time.Time { return now }
	return &schedulerFixture{managerFixture: m, queries: q, scheduler: s, loc: loc}
}

func TestCampaignScheduler_ReviewRequests(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now, patient(1), patient(2))
	f.queries.reviews = []models.ReviewCandidate{
		{ReservationID: 100, PatientID: 1, HospitalName: "Seoul Clinic", CompletedAt: now.Add(-24*time.Hour - 30*time.Minute)},
		{ReservationID: 101, PatientID: 2, HospitalName: "Seoul Clinic", CompletedAt: now.Add(-23 * time.Hour)},
	}

	first, err := f.scheduler.RunReviewRequests(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, first.Candidates)
	require.Equal(t, 1, first.Delivered)
	require.Equal(t, now.Add(-25*time.Hour), f.queries.reviewWindow[0])

	rows := f.log.all()
	require.Len(t, rows, 1)
	require.Equal(t, models.ChannelPush, rows[0].Channel)
	require.Equal(t, "reservation:100", rows[0].CorrelationKey)

	t.Run("SecondRunIsIdempotent", func(t *testing.T) {
		second, err := f.scheduler.RunReviewRequests(context.Background(), now)
		require.NoError(t, err)
		require.Equal(t, 1, second.Skipped)
		require.Zero(t, second.Delivered)
		require.Len(t, f.log.all(), 1)
	})

	t.Run("FailedAttemptAlsoCounts", func(t *testing.T) {
		g := newSchedulerFixture(t, now, patient(1))
		g.contacts.contacts[1].PushToken = ""
		g.queries.reviews = f.queries.reviews[:1]

		res, err := g.scheduler.RunReviewRequests(context.Background(), now)
		require.NoError(t, err)
		require.Equal(t, 1, res.Failed)

		res, err = g.scheduler.RunReviewRequests(context.Background(), now)
		require.NoError(t, err)
		require.Equal(t, 1, res.Skipped)
	})
}

func TestCampaignScheduler_ReviewRequestsJitteredRuns(t *testing.T) {
	first := time.Date(2026, 10, 17, 13, 0, 0, 100_000_000, time.UTC)
	second := time.Date(2026, 10, 17, 14, 0, 0, 900_000_000, time.UTC)
	f := newSchedulerFixture(t, first, patient(1))
	f.queries.reviews = []models.ReviewCandidate{
		{ReservationID: 200, PatientID: 1, HospitalName: "Seoul Clinic", CompletedAt: time.Date(2026, 10, 16, 13, 0, 0, 500_000_000, time.UTC)},
	}

	run1, err := f.scheduler.RunReviewRequests(context.Background(), first)
	require.NoError(t, err)
	run2, err := f.scheduler.RunReviewRequests(context.Background(), second)
	require.NoError(t, err)

	require.Equal(t, 1, run1.Candidates+run2.Candidates)
	require.Len(t, f.log.all(), 1)
}

func TestCampaignScheduler_Reminders(t *testing.T) {
	loc, _ := time.LoadLocation("Asia/Seoul")
	now := time.Date(2026, 10, 17, 18, 0, 0, 0, loc)
	f := newSchedulerFixture(t, now, patient(1), patient(2), patient(3))
	f.queries.reminders = []models.ReminderCandidate{
		{ReservationID: 1, PatientID: 1, PatientName: "Kim", HospitalName: "Seoul Clinic", ReservedAt: time.Date(2026, 10, 18, 9, 0, 0, 0, loc)},
		{ReservationID: 2, PatientID: 2, PatientName: "Lee", HospitalName: "Seoul Clinic", ReservedAt: time.Date(2026, 10, 19, 0, 0, 0, 0, loc)},
		{ReservationID: 3, PatientID: 3, PatientName: "Park", HospitalName: "Seoul Clinic", ReservedAt: time.Date(2026, 10, 17, 23, 0, 0, 0, loc)},
	}

	res, err := f.scheduler.RunReminders(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, res.Candidates)
	require.Equal(t, 1, res.Delivered)

	rows := f.log.forRecipient(1)
	require.Len(t, rows, 2) // push and business message
	require.Contains(t, rows[0].Body+rows[1].Body, "2026-10-18 09:00")

	again, err := f.scheduler.RunReminders(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, 1, again.Skipped)
}

func TestCampaignScheduler_UnansweredChats(t *testing.T) {
	now := time.Date(2026, 10, 17, 3, 0, 0, 0, time.UTC)
	f := newSchedulerFixture(t, now, patient(5), patient(6), patient(7))
	f.contacts.staff[10] = []uint{5, 6}
	f.contacts.staff[20] = []uint{7}
	f.queries.backlog = []models.ChatBacklog{
		{HospitalID: 10, HospitalName: "Seoul Clinic", ThreadCount: 3},
		{HospitalID: 20, HospitalName: "Busan Clinic", ThreadCount: 1},
	}

	// hospital 20 was alerted 23 hours ago
	require.NoError(t, f.log.Record(context.Background(), &models.DeliveryAttempt{
		RecipientID:    7,
		Type:           models.NotifyUnansweredChat,
		Channel:        models.ChannelBusinessMessage,
		CorrelationKey: models.HospitalKey(20),
		Status:         models.AttemptSent,
		CreatedAt:      now.Add(-23 * time.Hour),
	}))

	res, err := f.scheduler.RunUnansweredChats(context.Background(), now)
	require.NoError(t, err)
	require.Equal(t, now.Add(-24*time.Hour), f.queries.chatCutoff)
	require.Equal(t, 2, res.Candidates)
	require.Equal(t, 1, res.Skipped)
	require.Equal(t, 2, res.Delivered)
	require.Equal(t, 2, f.bm.callCount())

	t.Run("AlertRepeatsAfterADay", func(t *testing.T) {
		later := now.Add(25 * time.Hour)
		f.log.now = func() time.Time { return later }
		res, err := f.scheduler.RunUnansweredChats(context.Background(), later)
		require.NoError(t, err)
		require.Zero(t, res.Skipped)
		require.Equal(t, 3, res.Delivered)
	})
}

func TestCampaignScheduler_Run(t *testing.T) {
	f := newSchedulerFixture(t, time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC))

	res, err := f.scheduler.Run(context.Background(), JobReviewRequest)
	require.NoError(t, err)
	require.Equal(t, JobReviewRequest, res.Job)

	_, err = f.scheduler.Run(context.Background(), "weekly-digest")
	require.Error(t, err)
}

func TestCampaignScheduler_StartStop(t *testing.T) {
	f := newSchedulerFixture(t, time.Now())
	f.scheduler.specs = ScheduleSpecs{Reminder: "0 18 * * *", ReviewRequest: "0 * * * *"}

	require.NoError(t, f.scheduler.Start())
	require.Len(t, f.scheduler.cron.Entries(), 2)
	f.scheduler.Stop()
	f.scheduler.Stop()

	bad := newSchedulerFixture(t, time.Now())
	bad.scheduler.specs = ScheduleSpecs{Reminder: "every evening"}
	require.Error(t, bad.scheduler.Start())
}
