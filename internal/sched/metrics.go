package sched

import (
	"sort"
	"time"
)

// ringSize is the number of recent frames kept for metrics.
const ringSize = 120

// Metrics is a snapshot of frame statistics over the last ringSize frames.
type Metrics struct {
	FrameCount       int
	FPS              float64
	MinFrame         time.Duration
	MaxFrame         time.Duration
	AvgFrame         time.Duration
	P50Frame         time.Duration
	P95Frame         time.Duration
	P99Frame         time.Duration
	AvgGPU           time.Duration
	ConsecutiveDrops int
	TotalDrops       int
	LastDropAt       time.Time
}

// frameRing is a fixed-size ring of frame-to-frame deltas and GPU times.
// Not safe for concurrent use; the scheduler guards it.
type frameRing struct {
	deltas [ringSize]time.Duration
	gpu    [ringSize]time.Duration
	head   int
	filled int

	frameCount       int
	consecutiveDrops int
	totalDrops       int
	lastDropAt       time.Time
}

// record adds one frame sample. delta is the time since the previous
// rendered frame (zero for the first frame, which carries no delta),
// gpu is the time spent waiting on the GPU fence. dropped marks deltas
// beyond the drop threshold.
func (r *frameRing) record(delta, gpu time.Duration, dropped bool) {
	r.frameCount++
	if delta <= 0 {
		return
	}
	r.deltas[r.head] = delta
	r.gpu[r.head] = gpu
	r.head = (r.head + 1) % ringSize
	if r.filled < ringSize {
		r.filled++
	}
	if dropped {
		r.consecutiveDrops++
		r.totalDrops++
		r.lastDropAt = time.Now()
	} else {
		r.consecutiveDrops = 0
	}
}

// snapshot computes metrics over the currently filled window.
// FPS is the exact windowed rate: filled frames divided by the sum of
// their deltas, not a smoothed estimate.
func (r *frameRing) snapshot() Metrics {
	m := Metrics{
		FrameCount:       r.frameCount,
		ConsecutiveDrops: r.consecutiveDrops,
		TotalDrops:       r.totalDrops,
		LastDropAt:       r.lastDropAt,
	}
	if r.filled == 0 {
		return m
	}

	window := make([]time.Duration, r.filled)
	var sum, gpuSum time.Duration
	for i := 0; i < r.filled; i++ {
		idx := (r.head - r.filled + i + ringSize) % ringSize
		window[i] = r.deltas[idx]
		sum += r.deltas[idx]
		gpuSum += r.gpu[idx]
	}
	if sum > 0 {
		m.FPS = float64(r.filled) / sum.Seconds()
	}
	m.AvgFrame = sum / time.Duration(r.filled)
	m.AvgGPU = gpuSum / time.Duration(r.filled)

	sort.Slice(window, func(i, j int) bool { return window[i] < window[j] })
	m.MinFrame = window[0]
	m.MaxFrame = window[len(window)-1]
	m.P50Frame = percentile(window, 50)
	m.P95Frame = percentile(window, 95)
	m.P99Frame = percentile(window, 99)
	return m
}

// percentile returns the nearest-rank percentile of sorted samples.
func percentile(sorted []time.Duration, p int) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}
