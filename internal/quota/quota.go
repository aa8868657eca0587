// Package quota gates analysis creation behind a per-user rolling 7-day
// allowance. The window math is pure; Tracker binds it to storage.
package quota

import (
	"time"

	"resumetrack/internal/errors"
)

const (
	// WeeklyLimit is the number of analyses a user may create per window.
	WeeklyLimit = 4

	// WindowDays is the length of the rolling window in whole days.
	WindowDays = 7

	// Window is the rolling window duration.
	Window = WindowDays * 24 * time.Hour
)

// Usage is the per-user quota state. A nil WindowStart means the user has
// never created an analysis.
type Usage struct {
	Count       int
	WindowStart *time.Time
	LastReset   *time.Time
}

// windowElapsed reports whether the rolling window has fully passed.
// A window that started exactly Window ago counts as elapsed.
func (u Usage) windowElapsed(now time.Time) bool {
	if u.WindowStart == nil {
		return true
	}
	return now.Sub(*u.WindowStart) >= Window
}

// CanCreate reports whether a new analysis may be created under u at now.
// It is a pure read: checking never resets the window; only Consume does.
func CanCreate(u Usage, now time.Time) bool {
	if u.windowElapsed(now) {
		return true
	}
	return u.Count < WeeklyLimit
}

// Remaining returns how many analyses the user may still create in the
// current window. A fresh or elapsed window has the full allowance.
func Remaining(u Usage, now time.Time) int {
	if u.windowElapsed(now) {
		return WeeklyLimit
	}
	return max(0, WeeklyLimit-u.Count)
}

// DaysUntilReset returns the whole days until the window rolls over, using
// floor division of the elapsed time. Zero when the window is unset or has
// already elapsed.
func DaysUntilReset(u Usage, now time.Time) int {
	if u.windowElapsed(now) {
		return 0
	}
	elapsedDays := int(now.Sub(*u.WindowStart) / (24 * time.Hour))
	return max(0, WindowDays-elapsedDays)
}

// Consume accounts for one new analysis. When the window is unset or has
// elapsed it starts a fresh window with count 1 and stamps LastReset;
// otherwise it increments the count. It returns a QuotaExceeded error when
// the count is already at the limit inside a live window, leaving u
// unchanged.
func Consume(u Usage, now time.Time) (Usage, error) {
	if u.windowElapsed(now) {
		ts := now
		return Usage{Count: 1, WindowStart: &ts, LastReset: &ts}, nil
	}
	if u.Count >= WeeklyLimit {
		return u, errors.NewQuotaError(errors.ErrCodeQuotaExceeded,
			"weekly analysis limit reached", nil).
			WithContext("limit", WeeklyLimit).
			WithContext("window_start", u.WindowStart.Format(time.RFC3339))
	}
	u.Count++
	return u, nil
}
