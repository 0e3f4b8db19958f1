package services

import "time"

const (
	reviewRequestDelay   = 24 * time.Hour
	reviewRequestSpan    = time.Hour
	unansweredChatAge    = 24 * time.Hour
	unansweredChatRepeat = 24 * time.Hour
)

// TomorrowWindow is [tomorrow 00:00, day after 00:00) in loc. Calendar days
// are used so DST shifts do not move the bounds.
func TomorrowWindow(now time.Time, loc *time.Location) (from, to time.Time) {
	local := now.In(loc)
	from = time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, loc)
	to = time.Date(local.Year(), local.Month(), local.Day()+2, 0, 0, 0, 0, loc)
	return from, to
}

// ReviewWindow is [h-25h, h-24h) where h is now truncated to the hour, so
// late cron firings still produce adjacent windows.
func ReviewWindow(now time.Time) (from, to time.Time) {
	to = now.Truncate(reviewRequestSpan).Add(-reviewRequestDelay)
	return to.Add(-reviewRequestSpan), to
}

// UnansweredCutoff is the last-message time before which a thread counts as
// unanswered.
func UnansweredCutoff(now time.Time) time.Time {
	return now.Add(-unansweredChatAge)
}

// UnansweredAlertSince is the start of the period in which a hospital already
// alerted is skipped.
func UnansweredAlertSince(now time.Time) time.Time {
	return now.Add(-unansweredChatRepeat)
}
