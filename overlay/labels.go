package overlay

import "github.com/gogpu/chartgpu/internal/scale"

// Label paddings in CSS pixels.
const (
	labelPad     = 8.0
	titlePad     = 8.0
	rotateMargin = 4.0
	autoRotation = 45.0
)

// AxisTick pairs a CSS position along an axis with its label text.
type AxisTick struct {
	CSS  float64
	Text string
}

// LabelStyle configures label sizing and rotation.
type LabelStyle struct {
	// FontSize in CSS pixels; 0 means the default.
	FontSize float64
	// XRotation is the explicit x-label rotation in degrees, positive
	// clockwise. Zero enables automatic rotation on overlap.
	XRotation float64
}

// BuildAxisLabels positions tick labels and axis titles around the plot
// rectangle. X labels anchor below the plot at their tick position; y
// labels anchor just left of it. When x labels would overlap their
// neighbors and no explicit rotation is configured, they rotate 45
// degrees.
func BuildAxisLabels(xTicks, yTicks []AxisTick, plot scale.Rect, m *Measurer, style LabelStyle, xName, yName string) AxisLabelSet {
	size := style.FontSize
	if size <= 0 {
		size = defaultFontSize
	}

	rot := style.XRotation
	if rot == 0 && m != nil && len(xTicks) > 1 && plot.W > 0 {
		maxW := 0.0
		for _, t := range xTicks {
			if w, _ := m.Measure(t.Text, size); w > maxW {
				maxW = w
			}
		}
		spacing := plot.W / float64(len(xTicks)-1)
		if maxW+rotateMargin > spacing {
			rot = autoRotation
		}
	}

	var set AxisLabelSet
	for _, t := range xTicks {
		set.XLabels = append(set.XLabels, AxisLabel{
			Text:        t.Text,
			XCSS:        t.CSS,
			YCSS:        plot.MaxY() + labelPad,
			RotationDeg: rot,
		})
	}
	if xName != "" {
		set.XLabels = append(set.XLabels, AxisLabel{
			Text:    xName,
			XCSS:    plot.X + plot.W/2,
			YCSS:    plot.MaxY() + labelPad + size + titlePad,
			IsTitle: true,
		})
	}

	maxYW := 0.0
	for _, t := range yTicks {
		if m != nil {
			if w, _ := m.Measure(t.Text, size); w > maxYW {
				maxYW = w
			}
		}
		set.YLabels = append(set.YLabels, AxisLabel{
			Text: t.Text,
			XCSS: plot.X - labelPad,
			YCSS: t.CSS,
		})
	}
	if yName != "" {
		set.YLabels = append(set.YLabels, AxisLabel{
			Text:        yName,
			XCSS:        plot.X - labelPad - maxYW - titlePad,
			YCSS:        plot.Y + plot.H/2,
			RotationDeg: -90,
			IsTitle:     true,
		})
	}
	return set
}
