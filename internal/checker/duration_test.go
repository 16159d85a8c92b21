package checker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d        time.Duration
		expected string
	}{
		{0, "0s"},
		{42 * time.Second, "42s"},
		{59 * time.Second, "59s"},
		{60 * time.Second, "1m"},
		{5*time.Minute + 30*time.Second, "5m"},
		{59 * time.Minute, "59m"},
		{time.Hour, "1h"},
		{3*time.Hour + 20*time.Minute, "3h 20m"},
		{23*time.Hour + 59*time.Minute, "23h 59m"},
		{24 * time.Hour, "1d"},
		{2*24*time.Hour + 4*time.Hour, "2d 4h"},
	}

	for _, test := range tests {
		assert.Equal(t, test.expected, FormatDuration(test.d), "duration %v", test.d)
	}
}
