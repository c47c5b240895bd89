package presence

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsOnline(t *testing.T) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	at := func(d time.Duration) *time.Time {
		ts := now.Add(-d)
		return &ts
	}

	tests := []struct {
		name       string
		lastActive *time.Time
		want       bool
	}{
		{"never seen", nil, false},
		{"just now", at(0), true},
		{"4m59s ago", at(4*time.Minute + 59*time.Second), true},
		{"exactly 5m ago", at(5 * time.Minute), false},
		{"5m01s ago", at(5*time.Minute + time.Second), false},
		{"clock skew into the future", at(-time.Minute), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsOnline(tt.lastActive, now))
		})
	}
}

func TestOfflineAtIsOutsideWindow(t *testing.T) {
	now := time.Now()
	off := OfflineAt(now)

	assert.Equal(t, now.Add(-10*time.Minute), off)
	assert.False(t, IsOnline(&off, now))
}
