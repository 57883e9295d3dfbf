package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDue(t *testing.T) {
	now := time.Date(2024, 1, 1, 14, 0, 0, 0, time.Local)
	local := func(y int, m time.Month, d, h, min int) time.Time {
		return time.Date(y, m, d, h, min, 0, 0, time.Local)
	}

	cases := []struct {
		in   string
		want time.Time
	}{
		{"2024-01-05 15:04", local(2024, 1, 5, 15, 4)},
		{"2024-01-05T08:30", local(2024, 1, 5, 8, 30)},
		{"2024-01-05", local(2024, 1, 5, 0, 0)},
		{"16:45", local(2024, 1, 1, 16, 45)},
		{"today", local(2024, 1, 1, 0, 0)},
		{"Tomorrow 9:30", local(2024, 1, 2, 9, 30)},
		{"tomorrow", local(2024, 1, 2, 0, 0)},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := parseDue(tc.in, now)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.True(t, got.Equal(tc.want), "got %v want %v", got, tc.want)
		})
	}
}

func TestParseDue_clear(t *testing.T) {
	for _, in := range []string{"", " none ", "NONE"} {
		got, err := parseDue(in, time.Now())
		assert.NoError(t, err)
		assert.Nil(t, got)
	}
}

func TestParseDue_invalid(t *testing.T) {
	for _, in := range []string{"next week", "25:00", "2024-13-01", "tomorrowish"} {
		_, err := parseDue(in, time.Now())
		assert.Error(t, err, in)
	}
}
