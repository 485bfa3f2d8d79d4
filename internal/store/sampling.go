package store

// SampleKind selects a downsampling strategy for dense XY series.
type SampleKind int

const (
	SampleNone SampleKind = iota
	SampleLTTB
	SampleAverage
	SampleMax
	SampleMin
	SampleOHLC
)

// SampleXY reduces flat [x,y] data to roughly threshold points using the
// given strategy. Data at or under the threshold is returned unchanged
// (the same slice). The result is always a whole number of points.
func SampleXY(data []float32, kind SampleKind, threshold int) []float32 {
	count := len(data) / 2
	if kind == SampleNone || threshold <= 0 || count <= threshold {
		return data
	}
	switch kind {
	case SampleLTTB:
		return lttb(data, threshold)
	case SampleAverage:
		return bucketAverage(data, threshold)
	case SampleMax:
		return bucketExtreme(data, threshold, true)
	case SampleMin:
		return bucketExtreme(data, threshold, false)
	case SampleOHLC:
		return bucketOHLC(data, threshold)
	default:
		return data
	}
}

// lttb implements largest-triangle-three-buckets downsampling. The first
// and last points are always kept; every interior bucket contributes the
// point forming the largest triangle with the previously selected point
// and the next bucket's average.
func lttb(data []float32, threshold int) []float32 {
	count := len(data) / 2
	if threshold < 3 {
		threshold = 3
	}
	out := make([]float32, 0, threshold*2)
	out = append(out, data[0], data[1])

	bucketSize := float64(count-2) / float64(threshold-2)
	prevIdx := 0
	for b := 0; b < threshold-2; b++ {
		start := int(float64(b)*bucketSize) + 1
		end := int(float64(b+1)*bucketSize) + 1
		if end >= count {
			end = count - 1
		}

		// Average of the next bucket (or the last point).
		nextStart := end
		nextEnd := int(float64(b+2)*bucketSize) + 1
		if nextEnd >= count {
			nextEnd = count
		}
		var avgX, avgY float64
		n := nextEnd - nextStart
		if n < 1 {
			n = 1
			nextStart = count - 1
			nextEnd = count
		}
		for i := nextStart; i < nextEnd; i++ {
			avgX += float64(data[i*2])
			avgY += float64(data[i*2+1])
		}
		avgX /= float64(n)
		avgY /= float64(n)

		px := float64(data[prevIdx*2])
		py := float64(data[prevIdx*2+1])

		bestArea := -1.0
		bestIdx := start
		for i := start; i < end; i++ {
			x := float64(data[i*2])
			y := float64(data[i*2+1])
			area := abs64((px-avgX)*(y-py) - (px-x)*(avgY-py))
			if area > bestArea {
				bestArea = area
				bestIdx = i
			}
		}
		out = append(out, data[bestIdx*2], data[bestIdx*2+1])
		prevIdx = bestIdx
	}

	out = append(out, data[(count-1)*2], data[(count-1)*2+1])
	return out
}

func bucketAverage(data []float32, threshold int) []float32 {
	count := len(data) / 2
	out := make([]float32, 0, threshold*2)
	for b := 0; b < threshold; b++ {
		start := b * count / threshold
		end := (b + 1) * count / threshold
		if end <= start {
			continue
		}
		var sx, sy float64
		for i := start; i < end; i++ {
			sx += float64(data[i*2])
			sy += float64(data[i*2+1])
		}
		n := float64(end - start)
		out = append(out, float32(sx/n), float32(sy/n))
	}
	return out
}

// bucketExtreme keeps the point with the largest (or smallest) y of each
// bucket, preserving its x.
func bucketExtreme(data []float32, threshold int, max bool) []float32 {
	count := len(data) / 2
	out := make([]float32, 0, threshold*2)
	for b := 0; b < threshold; b++ {
		start := b * count / threshold
		end := (b + 1) * count / threshold
		if end <= start {
			continue
		}
		best := start
		for i := start + 1; i < end; i++ {
			if max && data[i*2+1] > data[best*2+1] {
				best = i
			} else if !max && data[i*2+1] < data[best*2+1] {
				best = i
			}
		}
		out = append(out, data[best*2], data[best*2+1])
	}
	return out
}

// bucketOHLC emits the first, highest, lowest, and last point of each
// bucket, in x order, so spikes survive aggressive downsampling.
func bucketOHLC(data []float32, threshold int) []float32 {
	count := len(data) / 2
	buckets := threshold / 4
	if buckets < 1 {
		buckets = 1
	}
	out := make([]float32, 0, buckets*8)
	for b := 0; b < buckets; b++ {
		start := b * count / buckets
		end := (b + 1) * count / buckets
		if end <= start {
			continue
		}
		hi, lo := start, start
		for i := start + 1; i < end; i++ {
			if data[i*2+1] > data[hi*2+1] {
				hi = i
			}
			if data[i*2+1] < data[lo*2+1] {
				lo = i
			}
		}
		idxs := []int{start, hi, lo, end - 1}
		// Keep x order and drop duplicates.
		prev := -1
		for _, i := range sortedUnique(idxs) {
			if i != prev {
				out = append(out, data[i*2], data[i*2+1])
				prev = i
			}
		}
	}
	return out
}

func sortedUnique(idxs []int) []int {
	for i := 1; i < len(idxs); i++ {
		for j := i; j > 0 && idxs[j] < idxs[j-1]; j-- {
			idxs[j], idxs[j-1] = idxs[j-1], idxs[j]
		}
	}
	return idxs
}

func abs64(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
