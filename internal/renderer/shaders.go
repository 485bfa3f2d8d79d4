package renderer

import _ "embed"

// Embedded WGSL shader sources, compiled to SPIR-V with naga at pipeline
// creation time.

//go:embed shaders/line.wgsl
var lineShaderSource string

//go:embed shaders/area.wgsl
var areaShaderSource string

//go:embed shaders/scatter.wgsl
var scatterShaderSource string

//go:embed shaders/candle.wgsl
var candleShaderSource string

//go:embed shaders/quad.wgsl
var quadShaderSource string

//go:embed shaders/density_compute.wgsl
var densityComputeShaderSource string

//go:embed shaders/density_draw.wgsl
var densityDrawShaderSource string
