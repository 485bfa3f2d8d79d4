package store

import (
	"errors"
	"testing"

	"github.com/gogpu/chartgpu/internal/gputest"
)

func newXYStore(t *testing.T) (*Store, func()) {
	t.Helper()
	device, queue, cleanup := gputest.Device(t)
	s := New(device, queue)
	s.Reset([]Layout{LayoutXY})
	return s, func() {
		s.Dispose()
		cleanup()
	}
}

func TestLayoutStrides(t *testing.T) {
	if LayoutXY.FloatsPerPoint() != 2 || LayoutXY.Stride() != 8 {
		t.Errorf("LayoutXY = %d floats / %d bytes, want 2 / 8", LayoutXY.FloatsPerPoint(), LayoutXY.Stride())
	}
	if LayoutOHLC.FloatsPerPoint() != 5 || LayoutOHLC.Stride() != 20 {
		t.Errorf("LayoutOHLC = %d floats / %d bytes, want 5 / 20", LayoutOHLC.FloatsPerPoint(), LayoutOHLC.Stride())
	}
	if LayoutCell.FloatsPerPoint() != 3 || LayoutCell.Stride() != 12 {
		t.Errorf("LayoutCell = %d floats / %d bytes, want 3 / 12", LayoutCell.FloatsPerPoint(), LayoutCell.Stride())
	}
}

func TestAppendWidthValidation(t *testing.T) {
	s, done := newXYStore(t)
	defer done()

	err := s.Append(0, [][]float64{{1, 2, 3}})
	if !errors.Is(err, ErrData) {
		t.Fatalf("Append with 3-wide row: err = %v, want ErrData", err)
	}
	if s.Count(0) != 0 {
		t.Errorf("Count = %d after rejected append, want 0", s.Count(0))
	}

	// A bad row anywhere rejects the whole batch.
	err = s.Append(0, [][]float64{{1, 2}, {3}})
	if !errors.Is(err, ErrData) {
		t.Fatalf("Append with short row: err = %v, want ErrData", err)
	}
	if s.Count(0) != 0 {
		t.Errorf("Count = %d after rejected batch, want 0", s.Count(0))
	}
}

func TestAppendOutOfRange(t *testing.T) {
	s, done := newXYStore(t)
	defer done()

	if err := s.Append(5, [][]float64{{1, 2}}); !errors.Is(err, ErrIndex) {
		t.Errorf("Append(5) err = %v, want ErrIndex", err)
	}
	if err := s.Append(-1, [][]float64{{1, 2}}); !errors.Is(err, ErrIndex) {
		t.Errorf("Append(-1) err = %v, want ErrIndex", err)
	}
}

func TestAppendMonotonicity(t *testing.T) {
	s, done := newXYStore(t)
	defer done()

	batches := [][][]float64{
		{{0, 1}, {1, 2}},
		{{2, 3}},
		{{3, 4}, {4, 5}, {5, 6}},
	}
	want := 0
	for _, b := range batches {
		if err := s.Append(0, b); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
		want += len(b)
		if got := s.Count(0); got != want {
			t.Errorf("Count = %d, want %d", got, want)
		}
	}

	flat := s.Floats(0)
	if len(flat) != want*2 {
		t.Fatalf("len(Floats) = %d, want %d", len(flat), want*2)
	}
	// Order is preserved across batches.
	for i := 0; i < want; i++ {
		if flat[i*2] != float32(i) {
			t.Errorf("x[%d] = %v, want %v", i, flat[i*2], float32(i))
		}
	}
}

func TestRollingHashDeterministic(t *testing.T) {
	a, doneA := newXYStore(t)
	defer doneA()
	b, doneB := newXYStore(t)
	defer doneB()

	h0 := a.Hash(0)
	if err := a.Append(0, [][]float64{{1, 2}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	h1 := a.Hash(0)
	if h1 == h0 {
		t.Error("hash unchanged after append")
	}
	if err := a.Append(0, [][]float64{{3, 4}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	h2 := a.Hash(0)
	if h2 == h1 {
		t.Error("hash unchanged after second append")
	}

	// Same content in one batch hashes identically.
	if err := b.Append(0, [][]float64{{1, 2}, {3, 4}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if b.Hash(0) != h2 {
		t.Errorf("hash = %#x, want %#x for identical content", b.Hash(0), h2)
	}
}

func TestReplaceResetsHashAndCursor(t *testing.T) {
	s, done := newXYStore(t)
	defer done()

	if err := s.Append(0, [][]float64{{9, 9}, {8, 8}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if err := s.Replace(0, [][]float64{{1, 2}}); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if s.Count(0) != 1 {
		t.Errorf("Count = %d after Replace, want 1", s.Count(0))
	}

	fresh, doneFresh := newXYStore(t)
	defer doneFresh()
	if err := fresh.Append(0, [][]float64{{1, 2}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if s.Hash(0) != fresh.Hash(0) {
		t.Error("Replace hash differs from fresh append of same content")
	}

	// Replace re-uploads from the start.
	if got := s.PendingBytes(0); got != 8 {
		t.Errorf("PendingBytes = %d after Replace, want 8", got)
	}
}

func TestFlushIncrementalUpload(t *testing.T) {
	s, done := newXYStore(t)
	defer done()

	if err := s.Append(0, [][]float64{{0, 0}, {1, 1}, {2, 2}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if got := s.PendingBytes(0); got != 24 {
		t.Errorf("PendingBytes = %d before first Flush, want 24", got)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if s.Buffer(0) == nil {
		t.Fatal("expected GPU buffer after Flush")
	}
	if got := s.BufferCapacity(0); got != 32 {
		t.Errorf("BufferCapacity = %d, want 32 (next pow2 of 24)", got)
	}
	if got := s.PendingBytes(0); got != 0 {
		t.Errorf("PendingBytes = %d after Flush, want 0", got)
	}

	// One more point fits the existing buffer: only the tail is pending.
	if err := s.Append(0, [][]float64{{3, 3}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if got := s.PendingBytes(0); got != 8 {
		t.Errorf("PendingBytes = %d for tail append, want 8", got)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	// Growing past capacity re-uploads everything.
	if err := s.Append(0, [][]float64{{4, 4}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if got := s.PendingBytes(0); got != 40 {
		t.Errorf("PendingBytes = %d past capacity, want full 40", got)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	if got := s.BufferCapacity(0); got != 64 {
		t.Errorf("BufferCapacity = %d after growth, want 64", got)
	}
}

func TestAppendFlatVariants(t *testing.T) {
	s, done := newXYStore(t)
	defer done()

	if err := s.AppendFlat32(0, []float32{0, 1, 2, 3}); err != nil {
		t.Fatalf("AppendFlat32 failed: %v", err)
	}
	if err := s.AppendFlat64(0, []float64{4, 5}); err != nil {
		t.Fatalf("AppendFlat64 failed: %v", err)
	}
	if s.Count(0) != 3 {
		t.Errorf("Count = %d, want 3", s.Count(0))
	}

	if err := s.AppendFlat32(0, []float32{1, 2, 3}); !errors.Is(err, ErrData) {
		t.Errorf("AppendFlat32 odd length err = %v, want ErrData", err)
	}
	if err := s.AppendFlat64(0, []float64{1}); !errors.Is(err, ErrData) {
		t.Errorf("AppendFlat64 odd length err = %v, want ErrData", err)
	}
}

func TestResetReusesMatchingBuffers(t *testing.T) {
	device, queue, cleanup := gputest.Device(t)
	defer cleanup()
	s := New(device, queue)
	defer s.Dispose()

	s.Reset([]Layout{LayoutXY, LayoutOHLC})
	if err := s.Append(0, [][]float64{{1, 1}, {2, 2}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	capBefore := s.BufferCapacity(0)
	if capBefore == 0 {
		t.Fatal("expected allocated buffer")
	}

	// Same layout at the same index: buffer survives, data clears.
	s.Reset([]Layout{LayoutXY})
	if s.SeriesCount() != 1 {
		t.Errorf("SeriesCount = %d, want 1", s.SeriesCount())
	}
	if s.Count(0) != 0 {
		t.Errorf("Count = %d after Reset, want 0", s.Count(0))
	}
	if got := s.BufferCapacity(0); got != capBefore {
		t.Errorf("BufferCapacity = %d after Reset, want %d (reused)", got, capBefore)
	}

	// Layout change drops the buffer.
	s.Reset([]Layout{LayoutOHLC})
	if got := s.BufferCapacity(0); got != 0 {
		t.Errorf("BufferCapacity = %d after layout change, want 0", got)
	}
}

func TestDisposeIdempotent(t *testing.T) {
	s, done := newXYStore(t)
	defer done()

	if err := s.Append(0, [][]float64{{1, 2}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	s.Dispose()
	s.Dispose()
	if s.SeriesCount() != 0 {
		t.Errorf("SeriesCount = %d after Dispose, want 0", s.SeriesCount())
	}
}

func TestNextPow2(t *testing.T) {
	tests := []struct{ in, want uint64 }{
		{0, 4}, {1, 4}, {3, 4}, {4, 4}, {5, 8},
		{24, 32}, {32, 32}, {33, 64}, {100, 128}, {1 << 20, 1 << 20},
	}
	for _, tt := range tests {
		if got := nextPow2(tt.in); got != tt.want {
			t.Errorf("nextPow2(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDisplayViewPassesThroughBelowThreshold(t *testing.T) {
	s, done := newXYStore(t)
	defer done()

	for i := 0; i < 10; i++ {
		if err := s.Append(0, [][]float64{{float64(i), float64(i * i)}}); err != nil {
			t.Fatalf("Append failed: %v", err)
		}
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	v, err := s.DisplayView(0, SampleLTTB, 100)
	if err != nil {
		t.Fatalf("DisplayView failed: %v", err)
	}
	if v.Count != 10 {
		t.Errorf("Count = %d, want 10", v.Count)
	}
	if v.Buffer != s.Buffer(0) {
		t.Error("below-threshold view should hand back the primary buffer")
	}
	if v.Capacity != s.BufferCapacity(0) {
		t.Errorf("Capacity = %d, want %d", v.Capacity, s.BufferCapacity(0))
	}
}

func TestDisplayViewSamplesAndCaches(t *testing.T) {
	s, done := newXYStore(t)
	defer done()

	rows := make([][]float64, 1000)
	for i := range rows {
		rows[i] = []float64{float64(i), float64(i % 7)}
	}
	if err := s.Append(0, rows); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	v1, err := s.DisplayView(0, SampleLTTB, 50)
	if err != nil {
		t.Fatalf("DisplayView failed: %v", err)
	}
	if v1.Count != 50 {
		t.Errorf("sampled Count = %d, want 50", v1.Count)
	}
	if v1.Buffer == s.Buffer(0) {
		t.Error("sampled view should use the side buffer, not the primary one")
	}

	// Same content hash: the cached buffer comes straight back.
	v2, err := s.DisplayView(0, SampleLTTB, 50)
	if err != nil {
		t.Fatalf("DisplayView failed: %v", err)
	}
	if v2.Buffer != v1.Buffer || v2.Count != v1.Count {
		t.Error("unchanged data should reuse the cached sampled buffer")
	}

	// New data moves the hash and forces a recompute.
	if err := s.Append(0, [][]float64{{1000, 3}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}
	v3, err := s.DisplayView(0, SampleLTTB, 50)
	if err != nil {
		t.Fatalf("DisplayView failed: %v", err)
	}
	if v3.Count != 50 {
		t.Errorf("resampled Count = %d, want 50", v3.Count)
	}
}

func TestDisplayViewCellLayout(t *testing.T) {
	device, queue, cleanup := gputest.Device(t)
	defer cleanup()
	s := New(device, queue)
	defer s.Dispose()
	s.Reset([]Layout{LayoutCell})

	if err := s.Append(0, [][]float64{{0, 0, 1}, {1, 0, 2}, {2, 1, 3}}); err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if err := s.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	// Sampling only understands XY; cell series pass through untouched.
	v, err := s.DisplayView(0, SampleLTTB, 2)
	if err != nil {
		t.Fatalf("DisplayView failed: %v", err)
	}
	if v.Count != 3 {
		t.Errorf("Count = %d, want 3", v.Count)
	}
	if v.Buffer != s.Buffer(0) {
		t.Error("cell layout should hand back the primary buffer")
	}
}
