// Package overlay computes the chart payloads a host renders outside
// the GPU surface: tooltips, legend entries, and positioned axis
// labels. The chart core draws series geometry only; everything textual
// is delivered through this package so hosts can put it in native
// widgets, DOM nodes, or any other surface they own.
//
// The three payload classes are
//
//   - TooltipPayload: pre-formatted content plus the per-series params
//     it was built from
//   - LegendItem: one entry per visible series
//   - AxisLabelSet: positioned tick labels and axis titles for both axes
//
// A Broker routes payloads by Mode. ModeHost drives a HostWidgets
// implementation directly; ModeEmbedded invokes the registered
// Callbacks, which a worker bridge typically forwards as events.
//
// Label sizing goes through Measurer. With a registered font it shapes
// through go-text/typesetting; without one it falls back to fixed
// bitmap-font metrics, which is enough for overlap and rotation
// decisions.
package overlay
