package mesh

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Размеры сырых записей в байтах
const (
	FloatsPerVertex = 3 + 3 + 3 + 2
	VertexStride    = FloatsPerVertex * 4
	IndexStride     = 4
)

// EncodeVertices сериализует вершины в little-endian раскладку для GPU-буфера
func EncodeVertices(vertices []Vertex) []byte {
	buf := make([]byte, len(vertices)*VertexStride)
	off := 0
	put := func(f float32) {
		binary.LittleEndian.PutUint32(buf[off:], math.Float32bits(f))
		off += 4
	}
	for _, v := range vertices {
		for _, f := range v.Position {
			put(f)
		}
		for _, f := range v.Color {
			put(f)
		}
		for _, f := range v.Normal {
			put(f)
		}
		for _, f := range v.UV {
			put(f)
		}
	}
	return buf
}

// DecodeVertices разбирает буфер, созданный EncodeVertices
func DecodeVertices(data []byte) ([]Vertex, error) {
	if len(data)%VertexStride != 0 {
		return nil, fmt.Errorf("размер буфера вершин %d не кратен %d", len(data), VertexStride)
	}
	vertices := make([]Vertex, len(data)/VertexStride)
	off := 0
	get := func() float32 {
		f := math.Float32frombits(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		return f
	}
	for i := range vertices {
		v := &vertices[i]
		for j := range v.Position {
			v.Position[j] = get()
		}
		for j := range v.Color {
			v.Color[j] = get()
		}
		for j := range v.Normal {
			v.Normal[j] = get()
		}
		for j := range v.UV {
			v.UV[j] = get()
		}
	}
	return vertices, nil
}

// EncodeIndices сериализует индексы в little-endian uint32
func EncodeIndices(indices []uint32) []byte {
	buf := make([]byte, len(indices)*IndexStride)
	for i, idx := range indices {
		binary.LittleEndian.PutUint32(buf[i*IndexStride:], idx)
	}
	return buf
}

// DecodeIndices разбирает буфер, созданный EncodeIndices
func DecodeIndices(data []byte) ([]uint32, error) {
	if len(data)%IndexStride != 0 {
		return nil, fmt.Errorf("размер буфера индексов %d не кратен %d", len(data), IndexStride)
	}
	indices := make([]uint32, len(data)/IndexStride)
	for i := range indices {
		indices[i] = binary.LittleEndian.Uint32(data[i*IndexStride:])
	}
	return indices, nil
}
