package mesh

import (
	"github.com/go-gl/mathgl/mgl32"
)

// IndicesPerQuad - два треугольника на грань
const (
	VerticesPerQuad = 4
	IndicesPerQuad  = 6
)

// Vertex - запись вершины. Порядок и состав полей - контракт с GPU-биндингом:
// position [3]f32, color [3]f32, normal [3]f32, uv [2]f32.
type Vertex struct {
	Position mgl32.Vec3
	Color    mgl32.Vec3
	Normal   mgl32.Vec3
	UV       mgl32.Vec2
}

// Mesh - пара буферов вершин и индексов
type Mesh struct {
	Vertices []Vertex
	Indices  []uint32
}

// New создает пустой меш
func New() *Mesh {
	return &Mesh{
		Vertices: make([]Vertex, 0),
		Indices:  make([]uint32, 0),
	}
}

// NewWithCapacity создает пустой меш с заранее выделенной памятью под quads граней
func NewWithCapacity(quads int) *Mesh {
	return &Mesh{
		Vertices: make([]Vertex, 0, quads*VerticesPerQuad),
		Indices:  make([]uint32, 0, quads*IndicesPerQuad),
	}
}

// AddQuad добавляет четыре вершины и шесть индексов с обходом 0,2,1,1,2,3
func (m *Mesh) AddQuad(v0, v1, v2, v3 Vertex) {
	base := uint32(len(m.Vertices))
	m.Indices = append(m.Indices,
		base, base+2, base+1,
		base+1, base+2, base+3,
	)
	m.Vertices = append(m.Vertices, v0, v1, v2, v3)
}

// QuadCount возвращает количество граней в меше
func (m *Mesh) QuadCount() int {
	return len(m.Indices) / IndicesPerQuad
}

// IsEmpty возвращает true, если в меше нет геометрии
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0 && len(m.Indices) == 0
}

// Translate сдвигает позиции всех вершин на offset
func (m *Mesh) Translate(offset mgl32.Vec3) {
	for i := range m.Vertices {
		m.Vertices[i].Position = m.Vertices[i].Position.Add(offset)
	}
}

// Append дописывает other в конец меша, сдвигая его индексы на текущее число вершин
func (m *Mesh) Append(other *Mesh) {
	if other == nil {
		return
	}
	offset := uint32(len(m.Vertices))
	m.Vertices = append(m.Vertices, other.Vertices...)
	for _, idx := range other.Indices {
		m.Indices = append(m.Indices, idx+offset)
	}
}

// Clone возвращает глубокую копию меша
func (m *Mesh) Clone() *Mesh {
	c := &Mesh{
		Vertices: make([]Vertex, len(m.Vertices)),
		Indices:  make([]uint32, len(m.Indices)),
	}
	copy(c.Vertices, m.Vertices)
	copy(c.Indices, m.Indices)
	return c
}

// Validate проверяет, что все индексы указывают на существующие вершины.
// Возвращает позицию первого неверного индекса или -1.
func (m *Mesh) Validate() int {
	n := uint32(len(m.Vertices))
	for i, idx := range m.Indices {
		if idx >= n {
			return i
		}
	}
	return -1
}
