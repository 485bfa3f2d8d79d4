package overlay

import (
	"bytes"
	"fmt"

	"github.com/go-text/typesetting/di"
	"github.com/go-text/typesetting/font"
	"github.com/go-text/typesetting/language"
	"github.com/go-text/typesetting/shaping"
	xfont "golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/chartgpu/internal/cache"
)

// defaultFontSize is used when a caller passes a non-positive size.
const defaultFontSize = 12.0

// basicFaceHeight is the pixel height of the bitmap fallback face.
const basicFaceHeight = 13.0

// measureCacheSize bounds the memoized measurements. Tick labels cycle as
// the domain pans, so a few hundred entries cover steady state.
const measureCacheSize = 512

type measureKey struct {
	text string
	size float64
}

// Measurer sizes label text. With a registered font it shapes through
// HarfBuzz; otherwise it scales fixed bitmap-font metrics, which is
// coarse but stable enough for overlap and rotation decisions.
// Measurements are memoized per (text, size) until the font changes.
// Not safe for concurrent use.
type Measurer struct {
	// parsed is read-only once set; font.Face instances wrapping it are
	// created per call because they are not concurrent-safe.
	parsed *font.Font
	shaper shaping.HarfbuzzShaper
	sizes  *cache.Cache[measureKey, [2]float64]
}

// NewMeasurer returns a measurer using the bitmap fallback.
func NewMeasurer() *Measurer {
	return &Measurer{sizes: cache.New[measureKey, [2]float64](measureCacheSize)}
}

// SetFont registers TTF/OTF font data for shaping. Passing nil reverts
// to the bitmap fallback.
func (m *Measurer) SetFont(data []byte) error {
	if data == nil {
		m.parsed = nil
		m.sizes.Clear()
		return nil
	}
	face, err := font.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("overlay: parse font: %w", err)
	}
	m.parsed = face.Font
	m.sizes.Clear()
	return nil
}

// HasFont reports whether a shaping font is registered.
func (m *Measurer) HasFont() bool { return m.parsed != nil }

// Measure returns the width and height of a single line of text at the
// given pixel size.
func (m *Measurer) Measure(s string, size float64) (w, h float64) {
	if s == "" {
		return 0, 0
	}
	if size <= 0 {
		size = defaultFontSize
	}
	key := measureKey{text: s, size: size}
	if wh, ok := m.sizes.Get(key); ok {
		return wh[0], wh[1]
	}
	w, h = m.measure(s, size)
	m.sizes.Set(key, [2]float64{w, h})
	return w, h
}

func (m *Measurer) measure(s string, size float64) (w, h float64) {
	if m.parsed == nil {
		adv := xfont.MeasureString(basicfont.Face7x13, s)
		return fixedToFloat(adv) * size / basicFaceHeight, size
	}

	runes := []rune(s)
	out := m.shaper.Shape(shaping.Input{
		Text:      runes,
		RunStart:  0,
		RunEnd:    len(runes),
		Direction: di.DirectionLTR,
		Face:      font.NewFace(m.parsed),
		Size:      floatToFixed(size),
		Script:    detectScript(runes),
		Language:  language.NewLanguage("en"),
	})
	var adv fixed.Int26_6
	for _, g := range out.Glyphs {
		adv += g.Advance
	}
	// LineBounds.Descent is negative (below baseline).
	return fixedToFloat(adv), fixedToFloat(out.LineBounds.Ascent - out.LineBounds.Descent)
}

// detectScript inspects the runes and returns the script of the first
// non-space character. Axis labels are rarely mixed-script, so one run
// suffices.
func detectScript(runes []rune) language.Script {
	for _, r := range runes {
		if r == ' ' || r == '\t' || r == '\n' || r == '\r' {
			continue
		}
		return language.LookupScript(r)
	}
	return language.Latin
}

func floatToFixed(v float64) fixed.Int26_6 {
	return fixed.Int26_6(v * 64)
}

func fixedToFloat(v fixed.Int26_6) float64 {
	return float64(v) / 64
}
