// Package presence derives a user's online status from the recency of their
// last authenticated activity. Every presence flag in the API comes from IsOnline.
package presence

import "time"

const (
	// Window is how recent the last activity must be for a user to count as online.
	Window = 5 * time.Minute

	// OfflineBackdate is subtracted from now on logout. It must stay larger than Window.
	OfflineBackdate = 10 * time.Minute
)

// IsOnline reports whether lastActiveAt lies strictly within Window of now.
// A nil lastActiveAt means the user was never seen and is offline.
func IsOnline(lastActiveAt *time.Time, now time.Time) bool {
	if lastActiveAt == nil {
		return false
	}
	return now.Sub(*lastActiveAt) < Window
}

// OfflineAt returns the timestamp written on logout so the next presence
// check reports the user as offline.
func OfflineAt(now time.Time) time.Time {
	return now.Add(-OfflineBackdate)
}
