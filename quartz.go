// Package quartz provides the value types consumed by the GPU rendering
// engine: paths, colors, affine transforms, gradients and per-draw state.
//
// The types in this package are plain data. All rendering happens in the
// render package, which turns drawing commands built from these values into
// GPU draw calls.
package quartz
