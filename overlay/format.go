package overlay

import (
	"math"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var englishPrinter = message.NewPrinter(language.English)

// Time tiers for adaptive axis label formats, in milliseconds of
// visible span.
const (
	msSecond = 1000.0
	msMinute = 60 * msSecond
	msHour   = 60 * msMinute
	msDay    = 24 * msHour
	msMonth  = 30 * msDay
)

// FormatValue renders a numeric value for tooltips and value-axis
// labels: grouped digits, at most four fraction digits. NaN renders as
// a dash, matching the store's missing-value convention.
func FormatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	if math.IsInf(v, 1) {
		return "Inf"
	}
	if math.IsInf(v, -1) {
		return "-Inf"
	}
	return englishPrinter.Sprint(number.Decimal(v, number.MaxFractionDigits(4)))
}

// FormatTime renders an epoch-millisecond tick label. The layout
// adapts to the visible span so zoomed-in axes show clock time and
// zoomed-out axes show dates. Times are rendered in UTC.
func FormatTime(ms, spanMs float64) string {
	t := time.UnixMilli(int64(ms)).UTC()
	if spanMs <= 0 || math.IsNaN(spanMs) {
		return t.Format("2006-01-02 15:04")
	}
	switch {
	case spanMs < msMinute:
		return t.Format("15:04:05")
	case spanMs < msDay:
		return t.Format("15:04")
	case spanMs < 6*msMonth:
		return t.Format("Jan 02")
	default:
		return t.Format("2006-01")
	}
}
