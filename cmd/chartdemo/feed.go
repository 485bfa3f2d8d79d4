package main

import (
	"fmt"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/xuri/excelize/v2"
)

// feed produces synthetic rows for one streaming series. Candle feeds emit
// [t, open, close, low, high] rows; every other kind emits [x, y].
type feed struct {
	kind   string
	period float64
	amp    float64
	base   float64
	noise  float64
	step   float64

	n     int     // points emitted so far
	level float64 // walk state
	rng   *rand.Rand
}

func newFeed(s *StreamScene, seed uint64) (*feed, error) {
	f := &feed{
		kind: s.Kind, period: s.Period, amp: s.Amp,
		base: s.Base, noise: s.Noise, step: s.Step,
		rng: rand.New(rand.NewPCG(seed, seed<<21|1)),
	}
	switch f.kind {
	case "", "sine":
		f.kind = "sine"
	case "walk", "ramp", "candles":
	default:
		return nil, fmt.Errorf("unknown stream kind %q (sine, walk, ramp, candles)", s.Kind)
	}
	if f.period <= 0 {
		f.period = 120
	}
	if f.amp == 0 {
		f.amp = 30
	}
	if f.step <= 0 {
		f.step = 1
	}
	// Walks and candles are noise-driven; zero noise would flatline them.
	if (f.kind == "walk" || f.kind == "candles") && f.noise <= 0 {
		f.noise = 1
	}
	f.level = f.base
	return f, nil
}

func (f *feed) next(n int) [][]float64 {
	rows := make([][]float64, 0, n)
	for i := 0; i < n; i++ {
		x := float64(f.n) * f.step
		switch f.kind {
		case "sine":
			y := f.base + f.amp*math.Sin(2*math.Pi*float64(f.n)/f.period) + f.jitter()
			rows = append(rows, []float64{x, y})
		case "walk":
			f.level += f.jitter()
			rows = append(rows, []float64{x, f.level})
		case "ramp":
			y := f.base + float64(f.n)*f.amp/f.period + f.jitter()
			rows = append(rows, []float64{x, y})
		case "candles":
			o := f.level
			f.level += f.jitter()
			cl := f.level
			lo := math.Min(o, cl) - math.Abs(f.jitter())
			hi := math.Max(o, cl) + math.Abs(f.jitter())
			rows = append(rows, []float64{x, o, cl, lo, hi})
		}
		f.n++
	}
	return rows
}

func (f *feed) jitter() float64 {
	if f.noise <= 0 {
		return 0
	}
	return f.rng.NormFloat64() * f.noise
}

// histogramBins folds raw samples into equal-width [center, count] pairs,
// the row shape histogram series consume.
func histogramBins(samples []float64, bins int) [][]float64 {
	if len(samples) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := samples[0], samples[0]
	for _, v := range samples[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if hi == lo {
		hi = lo + 1
	}
	width := (hi - lo) / float64(bins)
	counts := make([]float64, bins)
	for _, v := range samples {
		i := int((v - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		counts[i]++
	}
	rows := make([][]float64, bins)
	for i, c := range counts {
		rows[i] = []float64{lo + (float64(i)+0.5)*width, c}
	}
	return rows
}

// workbookColumns reads one sheet into per-series point lists. The first
// column is x; every other column is one series named by its header cell.
// Rows whose x cell does not parse as a number are skipped.
func workbookColumns(path, sheet string) (map[string][][]float64, []string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		list := f.GetSheetList()
		if len(list) == 0 {
			return nil, nil, fmt.Errorf("workbook %s has no sheets", path)
		}
		sheet = list[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("sheet %q: need a header row and at least one data row", sheet)
	}
	header := rows[0]
	if len(header) < 2 {
		return nil, nil, fmt.Errorf("sheet %q: need an x column and at least one series column", sheet)
	}

	series := make(map[string][][]float64, len(header)-1)
	var order []string
	for _, name := range header[1:] {
		if name != "" {
			order = append(order, name)
		}
	}
	for _, row := range rows[1:] {
		if len(row) == 0 || row[0] == "" {
			continue
		}
		x, err := strconv.ParseFloat(row[0], 64)
		if err != nil {
			continue
		}
		for col, name := range header[1:] {
			if name == "" || col+1 >= len(row) || row[col+1] == "" {
				continue
			}
			y, err := strconv.ParseFloat(row[col+1], 64)
			if err != nil {
				continue
			}
			series[name] = append(series[name], []float64{x, y})
		}
	}
	return series, order, nil
}

// mergeWorkbook attaches workbook columns to the scene. A column whose
// header matches a series name replaces that series' data and stops its
// stream; leftover columns are appended as new line series.
func mergeWorkbook(s *Scene, cols map[string][][]float64, order []string) {
	used := make(map[string]bool, len(cols))
	for i := range s.Series {
		if rows, ok := cols[s.Series[i].Name]; ok {
			s.Series[i].Data = rows
			s.Series[i].Stream = nil
			used[s.Series[i].Name] = true
		}
	}
	for _, name := range order {
		if !used[name] {
			s.Series = append(s.Series, SeriesScene{Type: "line", Name: name, Data: cols[name]})
		}
	}
}
