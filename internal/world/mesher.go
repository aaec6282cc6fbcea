package world

import (
	"github.com/annel0/voxel-engine/internal/mesh"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/voxel"
	"github.com/go-gl/mathgl/mgl32"
)

// NeighborLookup возвращает воксель по мировой координате за пределами чанка.
// ok == false означает, что соседнего чанка нет и грань должна быть видна.
type NeighborLookup func(world vec.Vec3) (voxel.Data, bool)

// Face - одна из шести граней вокселя
type Face int

const (
	FaceNorth Face = iota
	FaceSouth
	FaceEast
	FaceWest
	FaceTop
	FaceBottom
)

var faceNames = [...]string{"north", "south", "east", "west", "top", "bottom"}

func (f Face) String() string {
	if f < 0 || int(f) >= len(faceNames) {
		return "unknown"
	}
	return faceNames[f]
}

type faceDef struct {
	offset   vec.Vec3
	occluder voxel.Shape // форма соседа, закрывающая грань
	normal   mgl32.Vec3
	corners  [4]mgl32.Vec3
}

var faceUVs = [4]mgl32.Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}}

var faceColor = mgl32.Vec3{1, 1, 1}

var faces = [...]faceDef{
	FaceNorth: {
		offset:   vec.New(0, 0, 1),
		occluder: voxel.South,
		normal:   mgl32.Vec3{0, 0, 1},
		corners:  [4]mgl32.Vec3{{1, 0, 1}, {0, 0, 1}, {1, 1, 1}, {0, 1, 1}},
	},
	FaceSouth: {
		offset:   vec.New(0, 0, -1),
		occluder: voxel.North,
		normal:   mgl32.Vec3{0, 0, -1},
		corners:  [4]mgl32.Vec3{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1, 0}},
	},
	FaceEast: {
		offset:   vec.New(1, 0, 0),
		occluder: voxel.West,
		normal:   mgl32.Vec3{1, 0, 0},
		corners:  [4]mgl32.Vec3{{1, 0, 0}, {1, 0, 1}, {1, 1, 0}, {1, 1, 1}},
	},
	FaceWest: {
		offset:   vec.New(-1, 0, 0),
		occluder: voxel.East,
		normal:   mgl32.Vec3{-1, 0, 0},
		corners:  [4]mgl32.Vec3{{0, 0, 1}, {0, 0, 0}, {0, 1, 1}, {0, 1, 0}},
	},
	FaceTop: {
		offset:   vec.New(0, 1, 0),
		occluder: voxel.Bottom,
		normal:   mgl32.Vec3{0, 1, 0},
		corners:  [4]mgl32.Vec3{{0, 1, 0}, {1, 1, 0}, {0, 1, 1}, {1, 1, 1}},
	},
	FaceBottom: {
		offset:   vec.New(0, -1, 0),
		occluder: voxel.Top,
		normal:   mgl32.Vec3{0, -1, 0},
		corners:  [4]mgl32.Vec3{{0, 0, 1}, {1, 0, 1}, {0, 0, 0}, {1, 0, 0}},
	},
}

// GenerateMesh перестраивает меш чанка. Соседи за границей чанка считаются пустыми.
func (c *Chunk) GenerateMesh() int {
	return c.GenerateMeshWithNeighbors(nil)
}

// GenerateMeshWithNeighbors перестраивает меш, спрашивая lookup о вокселях
// за границей чанка. Возвращает число выпущенных граней.
func (c *Chunk) GenerateMeshWithNeighbors(lookup NeighborLookup) int {
	m := mesh.New()
	origin := c.WorldOrigin()

	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				if c.voxels[x][y][z].Shape.IsEmpty() {
					continue
				}
				local := vec.New(x, y, z)
				for f := range faces {
					face := &faces[f]
					if c.faceHidden(local, origin, face, lookup) {
						continue
					}
					emitFace(m, local, face)
				}
			}
		}
	}

	c.Mesh = m
	return m.QuadCount()
}

// faceHidden проверяет, закрыта ли грань соседним вокселем
func (c *Chunk) faceHidden(local, origin vec.Vec3, face *faceDef, lookup NeighborLookup) bool {
	n := local.Add(face.offset)
	if InBounds(n) {
		return c.voxels[n.X][n.Y][n.Z].Shape.Contains(face.occluder)
	}
	if lookup == nil {
		return false
	}
	d, ok := lookup(origin.Add(n))
	if !ok {
		return false
	}
	return d.Shape.Contains(face.occluder)
}

func emitFace(m *mesh.Mesh, local vec.Vec3, face *faceDef) {
	base := local.ToMgl()
	var quad [4]mesh.Vertex
	for i := range quad {
		quad[i] = mesh.Vertex{
			Position: base.Add(face.corners[i]),
			Color:    faceColor,
			Normal:   face.normal,
			UV:       faceUVs[i],
		}
	}
	m.AddQuad(quad[0], quad[1], quad[2], quad[3])
}
