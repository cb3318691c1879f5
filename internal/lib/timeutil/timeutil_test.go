package timeutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t *testing.T) *Clock {
	t.Helper()
	loc, err := time.LoadLocation("America/Bogota")
	require.NoError(t, err)
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, loc)
	return New("America/Bogota", WithNow(func() time.Time { return now }))
}

func TestNow_UsesConfiguredZone(t *testing.T) {
	utcNow := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	c := New("America/Bogota", WithNow(func() time.Time { return utcNow }))

	assert.Equal(t, "2025-03-10 12:00:00", c.Now())
}

func TestNew_UnknownZoneFallsBack(t *testing.T) {
	utcNow := time.Date(2025, 3, 10, 17, 0, 0, 0, time.UTC)
	c := New("Mars/Olympus", WithNow(func() time.Time { return utcNow }))

	assert.Equal(t, "2025-03-10 12:00:00", c.Now())
}

func TestAddDays(t *testing.T) {
	c := fixedClock(t)

	assert.Equal(t, "2025-03-17 08:30:00", c.AddDays("2025-03-10 08:30:00", 7))
	assert.Equal(t, "2025-03-17 12:00:00", c.AddDays("garbage", 7))
	assert.Equal(t, "2025-03-17 12:00:00", c.ExpirationFromNow(7))
}

func TestIsBefore(t *testing.T) {
	c := fixedClock(t)

	assert.True(t, c.IsBefore("2025-03-10 08:00:00", "2025-03-10 09:00:00"))
	assert.False(t, c.IsBefore("2025-03-10 09:00:00", "2025-03-10 08:00:00"))
	assert.False(t, c.IsBefore("bad", "2025-03-10 09:00:00"))
	assert.False(t, c.IsBefore("2025-03-10 09:00:00", ""))
}

func TestIsActiveAndDaysUntil(t *testing.T) {
	c := fixedClock(t)

	tests := []struct {
		name       string
		exp        string
		wantActive bool
		wantDays   int
	}{
		{name: "через неделю", exp: "2025-03-17 12:00:00", wantActive: true, wantDays: 7},
		{name: "неполный день округляется вниз", exp: "2025-03-12 11:59:59", wantActive: true, wantDays: 1},
		{name: "меньше суток", exp: "2025-03-10 18:00:00", wantActive: true, wantDays: 0},
		{name: "истек", exp: "2025-03-09 12:00:00", wantActive: false, wantDays: 0},
		{name: "ровно сейчас", exp: "2025-03-10 12:00:00", wantActive: false, wantDays: 0},
		{name: "не разбирается", exp: "tomorrow", wantActive: false, wantDays: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantActive, c.IsActive(tt.exp))
			assert.Equal(t, tt.wantDays, c.DaysUntil(tt.exp))
		})
	}
}

func TestRelativeLabel(t *testing.T) {
	c := fixedClock(t)

	tests := []struct {
		ts   string
		want string
	}{
		{ts: "2025-03-10 11:59:30", want: "just now"},
		{ts: "2025-03-10 11:45:00", want: "15 min ago"},
		{ts: "2025-03-10 09:00:00", want: "3h ago"},
		{ts: "2025-03-08 12:00:00", want: "2d ago"},
		{ts: "2025-02-20 12:00:00", want: "20/02/2025"},
		{ts: "", want: "unknown"},
		{ts: "10/03/2025", want: "unknown"},
	}

	for _, tt := range tests {
		t.Run(tt.ts, func(t *testing.T) {
			assert.Equal(t, tt.want, c.RelativeLabel(tt.ts))
		})
	}
}

func TestFormatForUser(t *testing.T) {
	c := fixedClock(t)

	assert.Equal(t, "17/03/2025 08:30", c.FormatForUser("2025-03-17 08:30:00"))
	assert.Equal(t, "N/A", c.FormatForUser("nope"))
}
