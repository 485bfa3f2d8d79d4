package chartgpu

import (
	"image/color"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"
)

// RGBA represents a color with red, green, blue, and alpha components.
// Each component is in the range [0, 1].
type RGBA struct {
	R, G, B, A float64
}

// Color converts RGBA to the standard color.Color interface.
func (c RGBA) Color() color.Color {
	return color.NRGBA{
		R: uint8(clamp255(c.R * 255)),
		G: uint8(clamp255(c.G * 255)),
		B: uint8(clamp255(c.B * 255)),
		A: uint8(clamp255(c.A * 255)),
	}
}

// RGB creates an opaque color from RGB components.
func RGB(r, g, b float64) RGBA {
	return RGBA{R: r, G: g, B: b, A: 1.0}
}

// Premultiply returns a premultiplied color. Renderer pipelines blend with
// premultiplied alpha, so instance colors pass through this before upload.
func (c RGBA) Premultiply() RGBA {
	return RGBA{
		R: c.R * c.A,
		G: c.G * c.A,
		B: c.B * c.A,
		A: c.A,
	}
}

// Lerp performs linear interpolation between two colors.
func (c RGBA) Lerp(other RGBA, t float64) RGBA {
	return RGBA{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// CSS returns the color formatted as a CSS color string, rgba(...) when
// translucent and #rrggbb when opaque. Legend and tooltip payloads carry
// colors in this form.
func (c RGBA) CSS() string {
	r := int(clamp255(c.R * 255))
	g := int(clamp255(c.G * 255))
	b := int(clamp255(c.B * 255))
	if c.A >= 1 {
		const hexdigits = "0123456789abcdef"
		out := []byte{'#', 0, 0, 0, 0, 0, 0}
		out[1], out[2] = hexdigits[r>>4], hexdigits[r&0xf]
		out[3], out[4] = hexdigits[g>>4], hexdigits[g&0xf]
		out[5], out[6] = hexdigits[b>>4], hexdigits[b&0xf]
		return string(out)
	}
	a := strconv.FormatFloat(c.A, 'g', 3, 64)
	return "rgba(" + strconv.Itoa(r) + "," + strconv.Itoa(g) + "," + strconv.Itoa(b) + "," + a + ")"
}

// Hex creates a color from a hex string.
// Supports formats: "RGB", "RGBA", "RRGGBB", "RRGGBBAA".
func Hex(hex string) RGBA {
	if hex != "" && hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint32
	a = 255

	switch len(hex) {
	case 3: // RGB
		parseHex(hex[0:1], &r)
		parseHex(hex[1:2], &g)
		parseHex(hex[2:3], &b)
		r, g, b = r*17, g*17, b*17
	case 4: // RGBA
		parseHex(hex[0:1], &r)
		parseHex(hex[1:2], &g)
		parseHex(hex[2:3], &b)
		parseHex(hex[3:4], &a)
		r, g, b, a = r*17, g*17, b*17, a*17
	case 6: // RRGGBB
		parseHex(hex[0:2], &r)
		parseHex(hex[2:4], &g)
		parseHex(hex[4:6], &b)
	case 8: // RRGGBBAA
		parseHex(hex[0:2], &r)
		parseHex(hex[2:4], &g)
		parseHex(hex[4:6], &b)
		parseHex(hex[6:8], &a)
	default:
		return RGBA{R: 0, G: 0, B: 0, A: 1}
	}

	return RGBA{
		R: float64(r) / 255,
		G: float64(g) / 255,
		B: float64(b) / 255,
		A: float64(a) / 255,
	}
}

// parseHex is a helper for hex parsing
func parseHex(s string, val *uint32) {
	*val = 0
	for i := 0; i < len(s); i++ {
		c := s[i]
		*val *= 16
		switch {
		case '0' <= c && c <= '9':
			*val += uint32(c - '0')
		case 'a' <= c && c <= 'f':
			*val += uint32(c - 'a' + 10)
		case 'A' <= c && c <= 'F':
			*val += uint32(c - 'A' + 10)
		default:
			return
		}
	}
}

// ParseColor resolves an options color string: "#hex" forms, CSS
// rgb()/rgba() forms, or an SVG 1.1 color name ("steelblue"). The second
// return is false when the string matches no form.
func ParseColor(s string) (RGBA, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return RGBA{}, false
	}
	if s[0] == '#' {
		return Hex(s), true
	}
	lower := strings.ToLower(s)
	if strings.HasPrefix(lower, "rgb(") || strings.HasPrefix(lower, "rgba(") {
		return parseRGBFunc(lower)
	}
	if c, ok := colornames.Map[lower]; ok {
		return RGBA{
			R: float64(c.R) / 255,
			G: float64(c.G) / 255,
			B: float64(c.B) / 255,
			A: float64(c.A) / 255,
		}, true
	}
	return RGBA{}, false
}

// parseRGBFunc parses "rgb(r,g,b)" and "rgba(r,g,b,a)" with byte channels
// and a [0,1] alpha.
func parseRGBFunc(s string) (RGBA, bool) {
	open := strings.IndexByte(s, '(')
	close_ := strings.LastIndexByte(s, ')')
	if open < 0 || close_ <= open {
		return RGBA{}, false
	}
	parts := strings.Split(s[open+1:close_], ",")
	if len(parts) != 3 && len(parts) != 4 {
		return RGBA{}, false
	}
	var ch [4]float64
	ch[3] = 1
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return RGBA{}, false
		}
		ch[i] = v
	}
	return RGBA{R: ch[0] / 255, G: ch[1] / 255, B: ch[2] / 255, A: ch[3]}, true
}

// clamp255 restricts a value to [0, 255] range.
func clamp255(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// DefaultPalette is the series color cycle applied when a series config
// carries no explicit color. Series i receives DefaultPalette[i % len].
var DefaultPalette = []RGBA{
	Hex("#5470c6"),
	Hex("#91cc75"),
	Hex("#fac858"),
	Hex("#ee6666"),
	Hex("#73c0de"),
	Hex("#3ba272"),
	Hex("#fc8452"),
	Hex("#9a60b4"),
	Hex("#ea7ccc"),
}

// PaletteColor returns the effective color for a series: its configured
// color when parseable, otherwise the palette cycle entry for its index.
func PaletteColor(configured string, index int, palette []RGBA) RGBA {
	if c, ok := ParseColor(configured); ok {
		return c
	}
	if len(palette) == 0 {
		palette = DefaultPalette
	}
	return palette[((index%len(palette))+len(palette))%len(palette)]
}

// ===== Colormaps =====

// ColorStop is a user-defined gradient stop. Offset is in [0,1].
type ColorStop struct {
	Offset float64
	Color  RGBA
}

// Colormap maps a normalized value in [0,1] onto a color gradient.
// Heatmap cells sample it CPU-side; the density renderer uploads it as a
// 256-entry LUT.
type Colormap struct {
	name  string
	stops []ColorStop
}

// Name returns the colormap name ("" for user-stop maps).
func (m Colormap) Name() string { return m.name }

// At samples the gradient at t, clamping t to [0,1].
func (m Colormap) At(t float64) RGBA {
	if len(m.stops) == 0 {
		return RGBA{A: 1}
	}
	if t <= m.stops[0].Offset {
		return m.stops[0].Color
	}
	last := m.stops[len(m.stops)-1]
	if t >= last.Offset {
		return last.Color
	}
	for i := 1; i < len(m.stops); i++ {
		if t <= m.stops[i].Offset {
			lo, hi := m.stops[i-1], m.stops[i]
			span := hi.Offset - lo.Offset
			if span <= 0 {
				return hi.Color
			}
			return lo.Color.Lerp(hi.Color, (t-lo.Offset)/span)
		}
	}
	return last.Color
}

// LUT samples the gradient into n RGBA entries. The density pipeline uses
// n=256.
func (m Colormap) LUT(n int) []RGBA {
	if n < 2 {
		n = 2
	}
	out := make([]RGBA, n)
	for i := range out {
		out[i] = m.At(float64(i) / float64(n-1))
	}
	return out
}

// NewColormap builds a colormap from user stops. Stops must be sorted by
// offset; a single stop yields a constant map.
func NewColormap(stops []ColorStop) Colormap {
	cp := make([]ColorStop, len(stops))
	copy(cp, stops)
	return Colormap{stops: cp}
}

// evenStops distributes colors evenly across [0,1].
func evenStops(colors ...string) []ColorStop {
	stops := make([]ColorStop, len(colors))
	n := len(colors) - 1
	for i, c := range colors {
		off := 0.0
		if n > 0 {
			off = float64(i) / float64(n)
		}
		stops[i] = ColorStop{Offset: off, Color: Hex(c)}
	}
	return stops
}

// Built-in colormaps (10-anchor forms of the matplotlib scales).
var (
	Viridis = Colormap{name: "viridis", stops: evenStops(
		"#440154", "#482878", "#3e4989", "#31688e", "#26828e",
		"#1f9e89", "#35b779", "#6ece58", "#b5de2b", "#fde725",
	)}
	Plasma = Colormap{name: "plasma", stops: evenStops(
		"#0d0887", "#47039f", "#7301a8", "#9c179e", "#bd3786",
		"#d8576b", "#ed7953", "#fa9e3b", "#fdc926", "#f0f921",
	)}
	Inferno = Colormap{name: "inferno", stops: evenStops(
		"#000004", "#1b0c42", "#4b0c6b", "#781c6d", "#a52c60",
		"#cf4446", "#ed6925", "#fb9a06", "#f7d03c", "#fcffa4",
	)}
)

// ColormapByName resolves a named colormap. Unknown names return false.
func ColormapByName(name string) (Colormap, bool) {
	switch strings.ToLower(name) {
	case "viridis":
		return Viridis, true
	case "plasma":
		return Plasma, true
	case "inferno":
		return Inferno, true
	default:
		return Colormap{}, false
	}
}

// ===== Themes =====

// Theme bundles the non-series colors of a chart. The render pass clears
// to Background; overlays and axis labels use the remaining entries.
type Theme struct {
	Name          string
	Background    RGBA
	Text          RGBA
	AxisLine      RGBA
	SplitLine     RGBA
	CrosshairLine RGBA
	Palette       []RGBA
}

// ThemeLight is the default theme.
var ThemeLight = Theme{
	Name:          "light",
	Background:    Hex("#ffffff"),
	Text:          Hex("#333333"),
	AxisLine:      Hex("#6e7079"),
	SplitLine:     Hex("#e0e6f1"),
	CrosshairLine: Hex("#aaaaaa"),
	Palette:       DefaultPalette,
}

// ThemeDark mirrors ThemeLight on a dark background.
var ThemeDark = Theme{
	Name:          "dark",
	Background:    Hex("#100c2a"),
	Text:          Hex("#eeeeee"),
	AxisLine:      Hex("#b9b8ce"),
	SplitLine:     Hex("#484753"),
	CrosshairLine: Hex("#8d8d9d"),
	Palette:       DefaultPalette,
}

// ThemeByName resolves "light"/"dark"; unknown names return ThemeLight.
func ThemeByName(name string) Theme {
	if strings.EqualFold(name, "dark") {
		return ThemeDark
	}
	return ThemeLight
}
