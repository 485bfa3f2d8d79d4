package overlay

import (
	"math"
	"testing"
	"time"
)

func TestFormatValue(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0"},
		{2.5, "2.5"},
		{-0.25, "-0.25"},
		{1234.5, "1,234.5"},
		{1234567, "1,234,567"},
		{math.NaN(), "-"},
		{math.Inf(1), "Inf"},
		{math.Inf(-1), "-Inf"},
	}
	for _, tt := range tests {
		if got := FormatValue(tt.in); got != tt.want {
			t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	ms := float64(time.Date(2024, 3, 5, 12, 34, 56, 0, time.UTC).UnixMilli())
	tests := []struct {
		name   string
		spanMs float64
		want   string
	}{
		{"seconds", 30 * msSecond, "12:34:56"},
		{"minutes", 2 * msHour, "12:34"},
		{"days", 10 * msDay, "Mar 05"},
		{"months", 730 * msDay, "2024-03"},
		{"unknown span", 0, "2024-03-05 12:34"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTime(ms, tt.spanMs); got != tt.want {
				t.Errorf("FormatTime(span=%v) = %q, want %q", tt.spanMs, got, tt.want)
			}
		})
	}
}
