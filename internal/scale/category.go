package scale

import (
	"errors"
	"fmt"
	"math"
)

// ErrDuplicateCategory rejects category axes with repeated labels.
var ErrDuplicateCategory = errors.New("scale: duplicate category label")

// Category maps discrete labels onto evenly spaced band centers within a
// pixel range. Label i occupies band i; its center is the midpoint of
// the band. Unknown labels map to NaN.
type Category struct {
	labels []string
	index  map[string]int
	r0, r1 float64
}

// NewCategory creates a category scale over the given labels. Labels
// must be unique.
func NewCategory(labels []string, r0, r1 float64) (*Category, error) {
	index := make(map[string]int, len(labels))
	for i, l := range labels {
		if _, dup := index[l]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCategory, l)
		}
		index[l] = i
	}
	return &Category{
		labels: append([]string(nil), labels...),
		index:  index,
		r0:     r0,
		r1:     r1,
	}, nil
}

// Count returns the number of categories.
func (c *Category) Count() int { return len(c.labels) }

// Labels returns the category labels in band order.
func (c *Category) Labels() []string { return c.labels }

// Bandwidth returns the absolute width of one band, |range| / N.
// Zero when there are no categories.
func (c *Category) Bandwidth() float64 {
	if len(c.labels) == 0 {
		return 0
	}
	return math.Abs(c.r1-c.r0) / float64(len(c.labels))
}

// Center returns the band center of category index i. Indices outside
// [0, N) return NaN.
func (c *Category) Center(i int) float64 {
	n := len(c.labels)
	if i < 0 || i >= n {
		return math.NaN()
	}
	return c.r0 + (float64(i)+0.5)*(c.r1-c.r0)/float64(n)
}

// Apply maps a label to its band center. Unknown labels return NaN.
func (c *Category) Apply(label string) float64 {
	i, ok := c.index[label]
	if !ok {
		return math.NaN()
	}
	return c.Center(i)
}

// IndexOf returns the band index of a label.
func (c *Category) IndexOf(label string) (int, bool) {
	i, ok := c.index[label]
	return i, ok
}

// InvertIndex returns the band index whose center is nearest to px,
// clamped to [0, N). Returns -1 when there are no categories.
func (c *Category) InvertIndex(px float64) int {
	n := len(c.labels)
	if n == 0 {
		return -1
	}
	span := c.r1 - c.r0
	if span == 0 {
		return 0
	}
	i := int(math.Floor((px - c.r0) / span * float64(n)))
	if i < 0 {
		i = 0
	}
	if i >= n {
		i = n - 1
	}
	return i
}

// Range returns the range endpoints.
func (c *Category) Range() (float64, float64) { return c.r0, c.r1 }
