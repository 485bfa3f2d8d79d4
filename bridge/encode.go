package bridge

import (
	"fmt"
	"unsafe"

	"github.com/gogpu/chartgpu"
)

// EncodeRows packs row-oriented data into the flat float32 payload the
// worker ingests without copying. All rows must have the same width.
// Candlestick rows arrive in the public [t, open, close, low, high]
// order and are re-packed to the canonical [t, open, high, low, close]
// lane order here, so the worker treats every binary payload as
// canonical.
//
// The payload aliases a freshly allocated float32 slice: it is 4-byte
// aligned and native-endian, matching what the decode side expects.
func EncodeRows(typ chartgpu.SeriesType, rows [][]float64) (payload []byte, count, stride int, err error) {
	if len(rows) == 0 {
		return nil, 0, 0, chartgpu.NewError(chartgpu.CodeDataError, "encodeRows", "no rows to encode", nil)
	}
	width := len(rows[0])
	if width == 0 {
		return nil, 0, 0, chartgpu.NewError(chartgpu.CodeDataError, "encodeRows", "row 0 is empty", nil)
	}
	candle := typ == chartgpu.SeriesCandlestick
	if candle && width != 5 {
		return nil, 0, 0, chartgpu.NewError(chartgpu.CodeDataError, "encodeRows",
			fmt.Sprintf("candlestick row has %d values, want 5", width), nil)
	}
	vals := make([]float32, 0, len(rows)*width)
	for i, row := range rows {
		if len(row) != width {
			return nil, 0, 0, chartgpu.NewError(chartgpu.CodeDataError, "encodeRows",
				fmt.Sprintf("row %d has %d values, want %d", i, len(row), width), nil)
		}
		if candle {
			vals = append(vals,
				float32(row[0]), float32(row[1]), float32(row[4]), float32(row[3]), float32(row[2]))
			continue
		}
		for _, v := range row {
			vals = append(vals, float32(v))
		}
	}
	payload = unsafe.Slice((*byte)(unsafe.Pointer(&vals[0])), len(vals)*4) //nolint:gosec // aliases vals, alignment by allocation
	return payload, len(rows), width * 4, nil
}
