// Package scale maps data coordinates onto pixel ranges and computes
// tick positions and plot layout rectangles.
package scale

// Linear maps a numeric domain [d0, d1] onto a pixel range [r0, r1].
//
// Values outside the domain map outside the range; there is no clamping.
// A zero-width domain sends every value to the range midpoint, and a
// zero-width range inverts every pixel to the domain midpoint, so
// degenerate configurations stay total instead of dividing by zero.
type Linear struct {
	d0, d1 float64
	r0, r1 float64
}

// NewLinear creates a linear scale from domain [d0, d1] to range [r0, r1].
// Either interval may be descending.
func NewLinear(d0, d1, r0, r1 float64) Linear {
	return Linear{d0: d0, d1: d1, r0: r0, r1: r1}
}

// Apply maps a domain value to a range position.
func (l Linear) Apply(v float64) float64 {
	if l.d1 == l.d0 {
		return (l.r0 + l.r1) / 2
	}
	return l.r0 + (v-l.d0)/(l.d1-l.d0)*(l.r1-l.r0)
}

// Invert maps a range position back to a domain value.
func (l Linear) Invert(px float64) float64 {
	if l.r1 == l.r0 {
		return (l.d0 + l.d1) / 2
	}
	return l.d0 + (px-l.r0)/(l.r1-l.r0)*(l.d1-l.d0)
}

// Domain returns the domain endpoints.
func (l Linear) Domain() (float64, float64) { return l.d0, l.d1 }

// Range returns the range endpoints.
func (l Linear) Range() (float64, float64) { return l.r0, l.r1 }
