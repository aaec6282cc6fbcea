package world

import (
	"github.com/annel0/voxel-engine/internal/mesh"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/voxel"
)

// ChunkSize - длина ребра чанка в вокселях
const ChunkSize = 8

// ChunkVolume - количество вокселей в чанке
const ChunkVolume = ChunkSize * ChunkSize * ChunkSize

// Chunk представляет куб ChunkSize³ вокселей и его меш в локальных координатах.
// Чанк не синхронизирован: во время конвейера им владеет ровно одна задача пула.
type Chunk struct {
	Position vec.Vec3   // Координаты чанка в сетке чанков
	Mesh     *mesh.Mesh // Меш в локальных координатах чанка

	voxels [ChunkSize][ChunkSize][ChunkSize]voxel.Data
}

// NewChunk создаёт пустой чанк с указанными координатами
func NewChunk(position vec.Vec3) *Chunk {
	return &Chunk{
		Position: position,
		Mesh:     mesh.New(),
	}
}

// InBounds проверяет, что локальная координата лежит внутри чанка
func InBounds(local vec.Vec3) bool {
	return local.X >= 0 && local.X < ChunkSize &&
		local.Y >= 0 && local.Y < ChunkSize &&
		local.Z >= 0 && local.Z < ChunkSize
}

// VoxelAt возвращает воксель по локальной координате
func (c *Chunk) VoxelAt(local vec.UVec3) (voxel.Data, bool) {
	if local.X >= ChunkSize || local.Y >= ChunkSize || local.Z >= ChunkSize {
		return voxel.Data{}, false
	}
	return c.voxels[local.X][local.Y][local.Z], true
}

// SetVoxelShape меняет форму вокселя по локальной координате
func (c *Chunk) SetVoxelShape(local vec.UVec3, shape voxel.Shape) bool {
	if local.X >= ChunkSize || local.Y >= ChunkSize || local.Z >= ChunkSize {
		return false
	}
	c.voxels[local.X][local.Y][local.Z].Shape = shape
	return true
}

// WorldOrigin возвращает мировую координату вокселя (0,0,0) чанка
func (c *Chunk) WorldOrigin() vec.Vec3 {
	return c.Position.Scale(ChunkSize)
}

// Contains проверяет, принадлежит ли мировая координата этому чанку
func (c *Chunk) Contains(world vec.Vec3) bool {
	return world.ToChunkCoords(ChunkSize).Equals(c.Position)
}

// VoxelWorldAt возвращает воксель по мировой координате, если она внутри чанка
func (c *Chunk) VoxelWorldAt(world vec.Vec3) (voxel.Data, bool) {
	if !c.Contains(world) {
		return voxel.Data{}, false
	}
	return c.VoxelAt(world.LocalInChunk(ChunkSize))
}

// SetVoxelWorldShape меняет форму вокселя по мировой координате
func (c *Chunk) SetVoxelWorldShape(world vec.Vec3, shape voxel.Shape) bool {
	if !c.Contains(world) {
		return false
	}
	return c.SetVoxelShape(world.LocalInChunk(ChunkSize), shape)
}

// Fill заполняет чанк по полю плотности
func (c *Chunk) Fill(density *DensityField) {
	origin := c.WorldOrigin()
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				p := origin.Add(vec.New(x, y, z))
				c.voxels[x][y][z].Shape = density.Classify(p)
			}
		}
	}
}

// SolidCount возвращает число непустых вокселей
func (c *Chunk) SolidCount() int {
	count := 0
	c.forEachVoxel(func(_ vec.Vec3, d voxel.Data) {
		if d.IsSolid() {
			count++
		}
	})
	return count
}

// Shapes возвращает копию форм в порядке x, y, z
func (c *Chunk) Shapes() []voxel.Shape {
	shapes := make([]voxel.Shape, 0, ChunkVolume)
	c.forEachVoxel(func(_ vec.Vec3, d voxel.Data) {
		shapes = append(shapes, d.Shape)
	})
	return shapes
}

func (c *Chunk) forEachVoxel(fn func(local vec.Vec3, d voxel.Data)) {
	for x := 0; x < ChunkSize; x++ {
		for y := 0; y < ChunkSize; y++ {
			for z := 0; z < ChunkSize; z++ {
				fn(vec.New(x, y, z), c.voxels[x][y][z])
			}
		}
	}
}
