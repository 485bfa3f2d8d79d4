package overlay

import (
	"testing"

	"github.com/go-text/typesetting/language"
)

func TestMeasureBitmapFallback(t *testing.T) {
	m := NewMeasurer()
	if m.HasFont() {
		t.Fatal("fresh measurer reports a font")
	}

	// Face7x13 advances 7px per glyph; the result scales with size.
	w, h := m.Measure("000", 13)
	if w != 21 || h != 13 {
		t.Errorf("Measure(000, 13) = %v, %v, want 21, 13", w, h)
	}
	w, h = m.Measure("000", 26)
	if w != 42 || h != 26 {
		t.Errorf("Measure(000, 26) = %v, %v, want 42, 26", w, h)
	}
}

func TestMeasureEmptyAndDefaultSize(t *testing.T) {
	m := NewMeasurer()
	if w, h := m.Measure("", 12); w != 0 || h != 0 {
		t.Errorf("Measure empty = %v, %v, want 0, 0", w, h)
	}
	_, h := m.Measure("x", 0)
	if h != defaultFontSize {
		t.Errorf("default size height = %v, want %v", h, defaultFontSize)
	}
}

func TestMeasureWidthGrowsWithText(t *testing.T) {
	m := NewMeasurer()
	w1, _ := m.Measure("ab", 12)
	w2, _ := m.Measure("abcd", 12)
	if w2 <= w1 {
		t.Errorf("width did not grow: %v then %v", w1, w2)
	}
}

func TestMeasureMemoizes(t *testing.T) {
	m := NewMeasurer()
	w1, h1 := m.Measure("42.5", 12)
	w2, h2 := m.Measure("42.5", 12)
	if w1 != w2 || h1 != h2 {
		t.Errorf("repeat Measure = %v, %v, want %v, %v", w2, h2, w1, h1)
	}
	m.Measure("42.5", 14)
	if n := m.sizes.Len(); n != 2 {
		t.Errorf("cache holds %d entries, want 2 (one per size)", n)
	}
	if err := m.SetFont(nil); err != nil {
		t.Fatalf("SetFont(nil): %v", err)
	}
	if n := m.sizes.Len(); n != 0 {
		t.Errorf("cache holds %d entries after font change, want 0", n)
	}
}

func TestSetFontRejectsGarbage(t *testing.T) {
	m := NewMeasurer()
	if err := m.SetFont([]byte("definitely not a font")); err == nil {
		t.Fatal("SetFont accepted garbage data")
	}
	if m.HasFont() {
		t.Error("failed SetFont left a font registered")
	}
	if err := m.SetFont(nil); err != nil {
		t.Errorf("SetFont(nil) = %v, want nil", err)
	}
}

func TestDetectScript(t *testing.T) {
	if got := detectScript([]rune("  Abc")); got != language.Latin {
		t.Errorf("detectScript(Abc) = %v, want Latin", got)
	}
	if got := detectScript([]rune("   ")); got != language.Latin {
		t.Errorf("detectScript(spaces) = %v, want Latin fallback", got)
	}
}
