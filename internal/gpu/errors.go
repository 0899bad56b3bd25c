package gpu

import "errors"

var (
	// ErrNoGPU is returned when no compatible GPU adapter or device can be
	// acquired at start-up. It is fatal to the renderer as a whole and is
	// not retried automatically.
	ErrNoGPU = errors.New("gpu: no compatible GPU adapter found")

	// ErrShaderCompile is returned when WGSL compilation fails during
	// pipeline creation.
	ErrShaderCompile = errors.New("gpu: shader compilation failed")

	// ErrInvalidPoolConfig is returned when a buffer pool is constructed
	// with a ring depth below the frames the GPU may have in flight.
	ErrInvalidPoolConfig = errors.New("gpu: buffer pool ring depth below frames in flight")

	// ErrPoolExhausted is returned when an allocation cannot be satisfied
	// even after growing the slot buffer to its maximum size.
	ErrPoolExhausted = errors.New("gpu: buffer pool exhausted")
)
