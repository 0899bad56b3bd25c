package tess

import (
	"encoding/binary"
	"math"
)

// Vertex is the sole per-vertex layout for fill, stroke and gradient
// geometry: position in normalized device coordinates plus straight RGBA.
type Vertex struct {
	Pos   [2]float32
	Color [4]float32
}

// VertexStride is the size of one Vertex in bytes (6 float32 attributes).
const VertexStride = 24

// VertexBatch is an ordered triangle list; its length is always a multiple
// of 3. A batch is produced by one tessellation call and consumed once by
// buffer upload.
type VertexBatch []Vertex

// Bytes encodes the batch as little-endian float32 data laid out per
// VertexStride, ready for queue upload.
func (b VertexBatch) Bytes() []byte {
	out := make([]byte, len(b)*VertexStride)
	off := 0
	put := func(f float32) {
		binary.LittleEndian.PutUint32(out[off:off+4], math.Float32bits(f))
		off += 4
	}
	for _, v := range b {
		put(v.Pos[0])
		put(v.Pos[1])
		put(v.Color[0])
		put(v.Color[1])
		put(v.Color[2])
		put(v.Color[3])
	}
	return out
}

// ByteSize returns the encoded size of the batch.
func (b VertexBatch) ByteSize() int {
	return len(b) * VertexStride
}
