package scale

import (
	"math"
	"time"
)

// NiceStep returns a step from the 1-2-5 ladder sized so that span/step
// lands near count intervals.
func NiceStep(span float64, count int) float64 {
	if count < 1 {
		count = 1
	}
	if span <= 0 || math.IsNaN(span) || math.IsInf(span, 0) {
		return 1
	}
	raw := span / float64(count)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	norm := raw / mag
	switch {
	case norm < 1.5:
		return mag
	case norm < 3:
		return 2 * mag
	case norm < 7:
		return 5 * mag
	default:
		return 10 * mag
	}
}

// Ticks returns nice tick values inside [min, max], aiming for about
// count intervals. Endpoints are included only when they fall on a step.
// A degenerate interval yields a single tick.
func Ticks(min, max float64, count int) []float64 {
	if min > max {
		min, max = max, min
	}
	if min == max || math.IsNaN(min) || math.IsNaN(max) {
		return []float64{min}
	}
	step := NiceStep(max-min, count)
	start := math.Ceil(min/step) * step
	var out []float64
	for i := 0; ; i++ {
		v := start + float64(i)*step
		if v > max+step*1e-9 {
			break
		}
		// Snap near-zero values produced by floating arithmetic.
		if math.Abs(v) < step*1e-9 {
			v = 0
		}
		out = append(out, v)
	}
	if len(out) == 0 {
		out = []float64{min}
	}
	return out
}

// timeStepsMs is the tick ladder for sub-month time spans, in
// milliseconds.
var timeStepsMs = []float64{
	1, 2, 5, 10, 20, 50, 100, 200, 500, // sub-second
	1000, 2000, 5000, 10000, 15000, 30000, // seconds
	60000, 120000, 300000, 600000, 900000, 1800000, // minutes
	3600000, 7200000, 10800000, 21600000, 43200000, // hours
	86400000, 172800000, 604800000, // 1d, 2d, 7d
}

const (
	monthMs = 2629800000.0  // mean month
	yearMs  = 31557600000.0 // mean year
)

// TimeTicks returns tick positions (epoch milliseconds) covering
// [minMs, maxMs] on calendar-friendly steps: the 1-2-5 ladder scaled to
// seconds, minutes, hours, and days, then whole months and years.
func TimeTicks(minMs, maxMs float64, count int) []float64 {
	if minMs > maxMs {
		minMs, maxMs = maxMs, minMs
	}
	if count < 1 {
		count = 1
	}
	if minMs == maxMs {
		return []float64{minMs}
	}
	span := maxMs - minMs

	for _, step := range timeStepsMs {
		if span/step <= float64(count) {
			return Ticks(minMs, maxMs, int(span/step))
		}
	}
	if span/monthMs <= float64(count)*12 {
		return monthTicks(minMs, maxMs, count)
	}
	return yearTicks(minMs, maxMs, count)
}

// monthTicks walks first-of-month boundaries in UTC.
func monthTicks(minMs, maxMs float64, count int) []float64 {
	every := int(math.Ceil((maxMs - minMs) / monthMs / float64(count)))
	if every < 1 {
		every = 1
	}
	start := time.UnixMilli(int64(minMs)).UTC()
	cur := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	if cur.UnixMilli() < int64(minMs) {
		cur = cur.AddDate(0, 1, 0)
	}
	var out []float64
	for cur.UnixMilli() <= int64(maxMs) {
		out = append(out, float64(cur.UnixMilli()))
		cur = cur.AddDate(0, every, 0)
	}
	if len(out) == 0 {
		out = []float64{minMs}
	}
	return out
}

// yearTicks walks January 1 boundaries in UTC on a nice year step.
func yearTicks(minMs, maxMs float64, count int) []float64 {
	spanYears := (maxMs - minMs) / yearMs
	step := int(NiceStep(spanYears, count))
	if step < 1 {
		step = 1
	}
	start := time.UnixMilli(int64(minMs)).UTC()
	year := start.Year()
	year = (year / step) * step
	cur := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for cur.UnixMilli() < int64(minMs) {
		cur = cur.AddDate(step, 0, 0)
	}
	var out []float64
	for cur.UnixMilli() <= int64(maxMs) {
		out = append(out, float64(cur.UnixMilli()))
		cur = cur.AddDate(step, 0, 0)
	}
	if len(out) == 0 {
		out = []float64{minMs}
	}
	return out
}
