// Package render описывает приемник готовой геометрии (GPU-буферы, файл, память).
package render

import (
	"sync"

	"github.com/annel0/voxel-engine/internal/mesh"
)

// Sink принимает объединенный меш мира. Ожидается, что вершины загружаются раньше индексов.
type Sink interface {
	UploadVertices(vertices []mesh.Vertex) error
	UploadIndices(indices []uint32) error
}

// MemorySink хранит копии загруженных буферов
type MemorySink struct {
	mu       sync.Mutex
	vertices []mesh.Vertex
	indices  []uint32
	uploads  int
}

// NewMemorySink создает пустой приемник в памяти
func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

// UploadVertices сохраняет копию вершин
func (s *MemorySink) UploadVertices(vertices []mesh.Vertex) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.vertices = append([]mesh.Vertex(nil), vertices...)
	s.uploads++
	return nil
}

// UploadIndices сохраняет копию индексов
func (s *MemorySink) UploadIndices(indices []uint32) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.indices = append([]uint32(nil), indices...)
	s.uploads++
	return nil
}

// Mesh возвращает загруженные буферы как меш
func (s *MemorySink) Mesh() *mesh.Mesh {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := &mesh.Mesh{
		Vertices: append([]mesh.Vertex(nil), s.vertices...),
		Indices:  append([]uint32(nil), s.indices...),
	}
	return m
}

// Uploads возвращает число вызовов Upload*
func (s *MemorySink) Uploads() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uploads
}
