package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseStartDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
		ok    bool
	}{
		{"2026/3/1", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"2026-03-01", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), true},
		{"到職日 2026/12/31 起", time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"   ", time.Time{}, false},
		{"0000-00-00", time.Time{}, false},
		{"0000/1/1", time.Time{}, false},
		{"2026/2/30", time.Time{}, false},
		{"2026/13/1", time.Time{}, false},
		{"soon", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseStartDate(tt.input)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got), "got %v", got)
		})
	}
}

func TestInWindow_Boundaries(t *testing.T) {
	min := time.Date(2026, time.February, 15, 0, 0, 0, 0, time.UTC)
	max := time.Date(2026, time.April, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		date string
		want bool
	}{
		{"2026/2/15", true},
		{"2026/4/15", true},
		{"2026/3/20", true},
		{"2026/2/14", false},
		{"2026/4/16", false},
		{"", false},
		{"0000/00/00", false},
	}

	for _, tt := range tests {
		t.Run(tt.date, func(t *testing.T) {
			assert.Equal(t, tt.want, InWindow(tt.date, min, max))
		})
	}
}

func TestInWindow_IgnoresTimeOfDay(t *testing.T) {
	taipei := time.FixedZone("CST", 8*60*60)
	min := time.Date(2026, time.February, 15, 9, 30, 0, 0, taipei)
	max := time.Date(2026, time.April, 15, 23, 0, 0, 0, taipei)

	assert.True(t, InWindow("2026-02-15", min, max))
	assert.True(t, InWindow("2026-04-15", min, max))
}
