package interact

import "math"

// minWindowSpan keeps Start strictly below End even when no explicit
// minimum span is configured.
const minWindowSpan = 1e-6

// wheelScale divides wheelDelta * sensitivity before exponentiation.
const wheelScale = 1000.0

// Window is the visible data window in percent space [0, 100].
type Window struct {
	Start float64
	End   float64
}

// Full is the unzoomed window.
func Full() Window { return Window{Start: 0, End: 100} }

// Span returns End - Start.
func (w Window) Span() float64 { return w.End - w.Start }

// Limits bound a window's span in percent. Zero values leave the bound
// unset.
type Limits struct {
	MinSpan float64
	MaxSpan float64
}

func (l Limits) spanBounds() (lo, hi float64) {
	lo = l.MinSpan
	if lo < minWindowSpan {
		lo = minWindowSpan
	}
	hi = l.MaxSpan
	if hi <= 0 || hi > 100 {
		hi = 100
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// Clamp normalizes w to 0 <= Start < End <= 100 and the span bounds in
// lim. Span corrections are applied about the window center, then the
// window is shifted back inside [0, 100] without resizing.
func Clamp(w Window, lim Limits) Window {
	if w.Start > w.End {
		w.Start, w.End = w.End, w.Start
	}
	lo, hi := lim.spanBounds()
	span := w.Span()
	if span < lo {
		span = lo
	} else if span > hi {
		span = hi
	}
	center := (w.Start + w.End) / 2
	w.Start = center - span/2
	w.End = center + span/2
	return shift(w)
}

// Translate slides w by delta percent. The shift stops at the range
// edges so the span never changes.
func Translate(w Window, delta float64, lim Limits) Window {
	w = Clamp(w, lim)
	w.Start += delta
	w.End += delta
	return shift(w)
}

// ZoomAbout scales w's span by factor while keeping the anchor's
// relative position inside the window fixed. anchor is in percent
// space; factor > 1 widens the window, factor < 1 narrows it. A
// non-positive or non-finite factor leaves the window unchanged.
func ZoomAbout(w Window, anchor, factor float64, lim Limits) Window {
	w = Clamp(w, lim)
	if factor <= 0 || math.IsNaN(factor) || math.IsInf(factor, 0) {
		return w
	}
	lo, hi := lim.spanBounds()
	span := w.Span()
	next := span * factor
	if next < lo {
		next = lo
	} else if next > hi {
		next = hi
	}
	rel := 0.5
	if span > 0 {
		rel = (anchor - w.Start) / span
	}
	if rel < 0 {
		rel = 0
	} else if rel > 1 {
		rel = 1
	}
	w.Start = anchor - rel*next
	w.End = w.Start + next
	return shift(w)
}

// WheelFactor converts a wheel delta to a span scale factor. Negative
// deltas (scrolling away from the user) zoom in. A sensitivity <= 0
// reads as 1.
func WheelFactor(delta, sensitivity float64) float64 {
	if sensitivity <= 0 {
		sensitivity = 1
	}
	return math.Exp(delta * sensitivity / wheelScale)
}

// shift slides w inside [0, 100] without changing its span.
func shift(w Window) Window {
	if w.Span() >= 100 {
		return Full()
	}
	if w.Start < 0 {
		w.End -= w.Start
		w.Start = 0
	}
	if w.End > 100 {
		w.Start -= w.End - 100
		w.End = 100
	}
	return w
}
