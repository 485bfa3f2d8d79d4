// Package store keeps per-series point data mirrored into GPU storage
// buffers. Appends accumulate in a CPU-side float32 list and are uploaded
// incrementally: only bytes past the append cursor travel to the GPU on
// Flush, so a steady stream of appends never re-sends history.
package store

import (
	"errors"
	"fmt"
	"hash"
	"hash/fnv"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Sentinel errors.
var (
	// ErrData indicates appended rows do not match the series layout.
	ErrData = errors.New("store: data size mismatch")
	// ErrIndex indicates a series index out of range.
	ErrIndex = errors.New("store: series index out of range")
)

// Layout describes the per-point float packing of a series.
type Layout int

const (
	// LayoutXY holds [x, y] pairs, 8 bytes per point.
	LayoutXY Layout = iota
	// LayoutOHLC holds [t, open, high, low, close], 20 bytes per point.
	LayoutOHLC
	// LayoutCell holds [x, y, value] triples, 12 bytes per point.
	LayoutCell
)

// FloatsPerPoint returns how many float32 values one point occupies.
func (l Layout) FloatsPerPoint() int {
	switch l {
	case LayoutOHLC:
		return 5
	case LayoutCell:
		return 3
	default:
		return 2
	}
}

// Stride returns the per-point byte stride in the GPU buffer.
func (l Layout) Stride() uint32 {
	return uint32(l.FloatsPerPoint()) * 4
}

// minBufferSize is the smallest GPU allocation we make.
const minBufferSize = 4

// series is the CPU mirror plus GPU buffer for one data series.
type series struct {
	layout Layout
	data   []float32
	hash   hash.Hash64

	buf      hal.Buffer
	capBytes uint64
	// cursor is the byte offset up to which data has been uploaded.
	cursor int

	// Downsampled side buffer, rebuilt only when the content hash moves.
	sampled     hal.Buffer
	sampledCap  uint64
	sampledN    int
	sampledHash uint64
	sampledKind SampleKind
	sampledThr  int
}

// Store owns all series buffers of one chart.
type Store struct {
	device hal.Device
	queue  hal.Queue
	series []*series
}

// New creates an empty store bound to a device and queue.
func New(device hal.Device, queue hal.Queue) *Store {
	return &Store{device: device, queue: queue}
}

// Reset reconciles the store to the given series layouts. Existing GPU
// buffers are kept (and later grown in place) where the layout at an
// index is unchanged; everything else is destroyed. Logical data is
// cleared for all series.
func (s *Store) Reset(layouts []Layout) {
	for i, ser := range s.series {
		keep := i < len(layouts) && ser.layout == layouts[i]
		if !keep {
			if ser.buf != nil {
				s.device.DestroyBuffer(ser.buf)
				ser.buf = nil
				ser.capBytes = 0
			}
			if ser.sampled != nil {
				s.device.DestroyBuffer(ser.sampled)
				ser.sampled = nil
				ser.sampledCap = 0
			}
		}
	}
	next := make([]*series, len(layouts))
	for i, l := range layouts {
		if i < len(s.series) && s.series[i].layout == l {
			ser := s.series[i]
			ser.data = ser.data[:0]
			ser.cursor = 0
			ser.hash = fnv.New64a()
			ser.sampledHash = 0
			ser.sampledN = 0
			next[i] = ser
			continue
		}
		next[i] = &series{layout: l, hash: fnv.New64a()}
	}
	s.series = next
}

// SeriesCount returns the number of series.
func (s *Store) SeriesCount() int { return len(s.series) }

// Layout returns the layout of series idx.
func (s *Store) Layout(idx int) Layout {
	if idx < 0 || idx >= len(s.series) {
		return LayoutXY
	}
	return s.series[idx].layout
}

func (s *Store) at(idx int) (*series, error) {
	if idx < 0 || idx >= len(s.series) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndex, idx, len(s.series))
	}
	return s.series[idx], nil
}

// Append adds rows to series idx. Every row must have exactly the
// layout's float count, otherwise nothing is appended and ErrData is
// returned.
func (s *Store) Append(idx int, rows [][]float64) error {
	ser, err := s.at(idx)
	if err != nil {
		return err
	}
	width := ser.layout.FloatsPerPoint()
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d values, layout needs %d", ErrData, i, len(row), width)
		}
	}
	for _, row := range rows {
		for _, v := range row {
			ser.push(float32(v))
		}
	}
	return nil
}

// AppendFlat32 adds already-packed float32 values to series idx. The
// length must be a whole number of points.
func (s *Store) AppendFlat32(idx int, vals []float32) error {
	ser, err := s.at(idx)
	if err != nil {
		return err
	}
	width := ser.layout.FloatsPerPoint()
	if len(vals)%width != 0 {
		return fmt.Errorf("%w: %d values is not a multiple of %d", ErrData, len(vals), width)
	}
	for _, v := range vals {
		ser.push(v)
	}
	return nil
}

// AppendFlat64 adds packed float64 values, re-packing them to float32.
// The length must be a whole number of points.
func (s *Store) AppendFlat64(idx int, vals []float64) error {
	ser, err := s.at(idx)
	if err != nil {
		return err
	}
	width := ser.layout.FloatsPerPoint()
	if len(vals)%width != 0 {
		return fmt.Errorf("%w: %d values is not a multiple of %d", ErrData, len(vals), width)
	}
	for _, v := range vals {
		ser.push(float32(v))
	}
	return nil
}

// Replace discards the series content and installs rows as the new data.
// The GPU buffer is reused when large enough; the next Flush re-uploads
// from the start.
func (s *Store) Replace(idx int, rows [][]float64) error {
	ser, err := s.at(idx)
	if err != nil {
		return err
	}
	width := ser.layout.FloatsPerPoint()
	for i, row := range rows {
		if len(row) != width {
			return fmt.Errorf("%w: row %d has %d values, layout needs %d", ErrData, i, len(row), width)
		}
	}
	ser.data = ser.data[:0]
	ser.cursor = 0
	ser.hash = fnv.New64a()
	for _, row := range rows {
		for _, v := range row {
			ser.push(float32(v))
		}
	}
	return nil
}

// push appends one float and feeds the rolling hash.
func (ser *series) push(v float32) {
	ser.data = append(ser.data, v)
	bits := *(*uint32)(unsafe.Pointer(&v)) //nolint:gosec // raw bits for hashing
	var b [4]byte
	b[0] = byte(bits)
	b[1] = byte(bits >> 8)
	b[2] = byte(bits >> 16)
	b[3] = byte(bits >> 24)
	ser.hash.Write(b[:])
}

// Count returns the number of points in series idx.
func (s *Store) Count(idx int) int {
	ser, err := s.at(idx)
	if err != nil {
		return 0
	}
	return len(ser.data) / ser.layout.FloatsPerPoint()
}

// Floats returns the flat logical float32 mirror of series idx.
// The slice is shared with the store; callers must not modify it.
func (s *Store) Floats(idx int) []float32 {
	ser, err := s.at(idx)
	if err != nil {
		return nil
	}
	return ser.data
}

// Hash returns the rolling FNV-1a content hash of series idx.
func (s *Store) Hash(idx int) uint64 {
	ser, err := s.at(idx)
	if err != nil {
		return 0
	}
	return ser.hash.Sum64()
}

// Flush uploads pending bytes of every series to its GPU buffer,
// growing buffers to the next power of two when the data outgrew them.
// A grown buffer is re-uploaded in full; otherwise only bytes past the
// append cursor are written.
func (s *Store) Flush() error {
	for i, ser := range s.series {
		if err := s.flushSeries(i, ser); err != nil {
			return err
		}
	}
	return nil
}

func (s *Store) flushSeries(idx int, ser *series) error {
	usedBytes := len(ser.data) * 4
	if usedBytes == 0 {
		return nil
	}
	if ser.buf == nil || uint64(usedBytes) > ser.capBytes {
		newCap := nextPow2(uint64(usedBytes))
		if ser.buf != nil {
			s.device.DestroyBuffer(ser.buf)
			ser.buf = nil
		}
		buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("series_%d_data", idx),
			Size:  newCap,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return fmt.Errorf("create series %d buffer: %w", idx, err)
		}
		ser.buf = buf
		ser.capBytes = newCap
		ser.cursor = 0
		slogger().Debug("store: buffer grown", "series", idx, "capacity", newCap)
	}
	if ser.cursor < usedBytes {
		bytes := floatBytes(ser.data)
		s.queue.WriteBuffer(ser.buf, uint64(ser.cursor), bytes[ser.cursor:usedBytes])
		ser.cursor = usedBytes
	}
	return nil
}

// Buffer returns the GPU buffer of series idx, valid after Flush.
// Returns nil for empty series.
func (s *Store) Buffer(idx int) hal.Buffer {
	ser, err := s.at(idx)
	if err != nil {
		return nil
	}
	return ser.buf
}

// BufferCapacity returns the allocated GPU byte capacity of series idx.
func (s *Store) BufferCapacity(idx int) uint64 {
	ser, err := s.at(idx)
	if err != nil {
		return 0
	}
	return ser.capBytes
}

// View is a drawable buffer handed to the renderers: the GPU buffer,
// the point count inside it, and its allocated byte capacity for the
// storage binding.
type View struct {
	Buffer   hal.Buffer
	Count    int
	Capacity uint64
}

// DisplayView returns the buffer the renderers should draw for series
// idx. With no sampling strategy, a threshold the data does not reach,
// or a non-XY layout it is the primary buffer. Otherwise the data is
// reduced into a side buffer that is recomputed only when the content
// hash moved, so appends below the threshold stay upload-only. Valid
// after Flush, like Buffer.
func (s *Store) DisplayView(idx int, kind SampleKind, threshold int) (View, error) {
	ser, err := s.at(idx)
	if err != nil {
		return View{}, err
	}
	count := len(ser.data) / ser.layout.FloatsPerPoint()
	if kind == SampleNone || threshold <= 0 || count <= threshold || ser.layout != LayoutXY {
		return View{Buffer: ser.buf, Count: count, Capacity: ser.capBytes}, nil
	}
	h := ser.hash.Sum64()
	if ser.sampled != nil && h == ser.sampledHash && kind == ser.sampledKind && threshold == ser.sampledThr {
		return View{Buffer: ser.sampled, Count: ser.sampledN, Capacity: ser.sampledCap}, nil
	}
	out := SampleXY(ser.data, kind, threshold)
	need := uint64(len(out)) * 4
	if ser.sampled == nil || need > ser.sampledCap {
		if ser.sampled != nil {
			s.device.DestroyBuffer(ser.sampled)
			ser.sampled = nil
		}
		newCap := nextPow2(need)
		buf, err := s.device.CreateBuffer(&hal.BufferDescriptor{
			Label: fmt.Sprintf("series_%d_sampled", idx),
			Size:  newCap,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			return View{}, fmt.Errorf("create series %d sampled buffer: %w", idx, err)
		}
		ser.sampled = buf
		ser.sampledCap = newCap
	}
	if len(out) > 0 {
		s.queue.WriteBuffer(ser.sampled, 0, floatBytes(out))
	}
	ser.sampledHash = h
	ser.sampledKind = kind
	ser.sampledThr = threshold
	ser.sampledN = len(out) / 2
	slogger().Debug("store: series resampled", "series", idx, "points", ser.sampledN)
	return View{Buffer: ser.sampled, Count: ser.sampledN, Capacity: ser.sampledCap}, nil
}

// UsedBytes returns the logical byte size of series idx.
func (s *Store) UsedBytes(idx int) uint64 {
	ser, err := s.at(idx)
	if err != nil {
		return 0
	}
	return uint64(len(ser.data)) * 4
}

// PendingBytes returns how many bytes the next Flush would upload.
func (s *Store) PendingBytes(idx int) uint64 {
	ser, err := s.at(idx)
	if err != nil {
		return 0
	}
	used := len(ser.data) * 4
	if ser.buf == nil || uint64(used) > ser.capBytes {
		return uint64(used)
	}
	return uint64(used - ser.cursor)
}

// Dispose destroys all GPU buffers and clears the series list.
// Safe to call more than once.
func (s *Store) Dispose() {
	for _, ser := range s.series {
		if ser.buf != nil {
			s.device.DestroyBuffer(ser.buf)
			ser.buf = nil
		}
		if ser.sampled != nil {
			s.device.DestroyBuffer(ser.sampled)
			ser.sampled = nil
		}
	}
	s.series = nil
}

// nextPow2 rounds n up to the next power of two, with a floor of
// minBufferSize.
func nextPow2(n uint64) uint64 {
	if n < minBufferSize {
		return minBufferSize
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// floatBytes returns the raw byte view of a float32 slice for GPU upload.
func floatBytes(f []float32) []byte {
	if len(f) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&f[0])), len(f)*4) //nolint:gosec // raw view for GPU upload
}
