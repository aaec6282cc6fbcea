package world

import (
	"context"
	"testing"

	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/voxel"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScene(seamless bool) *Scene {
	return NewScene(DefaultDensityField(), SceneOptions{Workers: 4, SeamlessCulling: seamless})
}

func TestProcessInitializationQueue(t *testing.T) {
	s := newTestScene(false)
	coords := []vec.Vec3{vec.New(0, 0, 0), vec.New(1, 0, 0), vec.New(0, -1, 2)}
	for _, c := range coords {
		assert.True(t, s.InitializeChunk(c))
	}
	assert.Equal(t, 3, s.Pending())
	assert.Equal(t, 0, s.Len())

	require.NoError(t, s.ProcessInitializationQueue(context.Background()))

	assert.Equal(t, 0, s.Pending())
	assert.Equal(t, 3, s.Len())
	for _, coord := range coords {
		c, ok := s.Chunk(coord)
		require.True(t, ok)
		assert.Equal(t, coord, c.Position)

		// заполнен по полю плотности и замешен
		expected := NewChunk(coord)
		expected.Fill(s.Density())
		assert.Equal(t, expected.Shapes(), c.Shapes())
		assert.Equal(t, -1, c.Mesh.Validate())
		assert.Equal(t, expected.GenerateMesh(), c.Mesh.QuadCount())
	}
}

func TestInitializeChunkDeduplicates(t *testing.T) {
	reg := prometheus.NewRegistry()
	pm := metrics.NewPipelineMetrics(reg)
	s := NewScene(DefaultDensityField(), SceneOptions{Workers: 2, Metrics: pm})

	assert.True(t, s.InitializeChunk(vec.New(1, 1, 1)))
	assert.False(t, s.InitializeChunk(vec.New(1, 1, 1)))
	assert.Equal(t, 1, s.Pending())

	require.NoError(t, s.ProcessInitializationQueue(context.Background()))
	assert.Equal(t, 1, s.Len())

	// уже созданный чанк не пересоздается
	before, _ := s.Chunk(vec.New(1, 1, 1))
	assert.False(t, s.InitializeChunk(vec.New(1, 1, 1)))
	assert.Equal(t, 0, s.Pending())
	require.NoError(t, s.ProcessInitializationQueue(context.Background()))
	after, _ := s.Chunk(vec.New(1, 1, 1))
	assert.Same(t, before, after)

	count, err := testutil.GatherAndCount(reg, "voxel_duplicate_enqueues_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	assert.Equal(t, 2.0, gatherValue(t, reg, "voxel_duplicate_enqueues_total"))
	assert.Equal(t, 1.0, gatherValue(t, reg, "voxel_chunks_allocated_total"))
	assert.Equal(t, 2.0, gatherValue(t, reg, "voxel_chunks_meshed_total"))
}

func gatherValue(t *testing.T, reg *prometheus.Registry, name string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf.GetMetric()[0].GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s not found", name)
	return 0
}

func TestSceneDeterministic(t *testing.T) {
	a := newTestScene(false)
	b := NewScene(DefaultDensityField(), SceneOptions{Workers: 1})

	for x := -2; x < 2; x++ {
		for z := -2; z < 2; z++ {
			a.InitializeChunk(vec.New(x, 0, z))
		}
	}
	// обратный порядок постановки не влияет на результат
	for x := 1; x >= -2; x-- {
		for z := 1; z >= -2; z-- {
			b.InitializeChunk(vec.New(x, 0, z))
		}
	}
	require.NoError(t, a.ProcessInitializationQueue(context.Background()))
	require.NoError(t, b.ProcessInitializationQueue(context.Background()))

	ca, cb := a.Chunks(), b.Chunks()
	require.Len(t, cb, len(ca))
	for i := range ca {
		assert.Equal(t, ca[i].Position, cb[i].Position)
		assert.Equal(t, ca[i].Shapes(), cb[i].Shapes())
		assert.Equal(t, ca[i].Mesh, cb[i].Mesh)
	}
}

func TestSceneChunksSorted(t *testing.T) {
	s := newTestScene(false)
	s.InitializeChunk(vec.New(1, 0, 0))
	s.InitializeChunk(vec.New(0, 1, 0))
	s.InitializeChunk(vec.New(0, 0, 1))
	s.InitializeChunk(vec.New(-1, 5, 5))
	require.NoError(t, s.ProcessInitializationQueue(context.Background()))

	var got []vec.Vec3
	for _, c := range s.Chunks() {
		got = append(got, c.Position)
	}
	assert.Equal(t, []vec.Vec3{
		vec.New(-1, 5, 5),
		vec.New(0, 0, 1),
		vec.New(0, 1, 0),
		vec.New(1, 0, 0),
	}, got)
}

func TestSceneWorldQueriesNegative(t *testing.T) {
	s := newTestScene(false)
	s.InitializeChunk(vec.New(-1, 0, -1))
	require.NoError(t, s.ProcessInitializationQueue(context.Background()))

	c, ok := s.ChunkAt(vec.New(-1, 0, -1))
	require.True(t, ok)
	assert.Equal(t, vec.New(-1, 0, -1), c.Position)

	require.True(t, s.SetVoxelShape(vec.New(-1, 0, -1), voxel.Bottom))
	d, ok := s.VoxelAt(vec.New(-1, 0, -1))
	require.True(t, ok)
	assert.Equal(t, voxel.Bottom, d.Shape)

	local, _ := c.VoxelAt(vec.UVec3{X: 7, Y: 0, Z: 7})
	assert.Equal(t, voxel.Bottom, local.Shape)

	// соседний чанк не создан
	_, ok = s.VoxelAt(vec.New(0, 0, 0))
	assert.False(t, ok)
	assert.False(t, s.SetVoxelShape(vec.New(0, 0, 0), voxel.All))
	assert.False(t, s.Remesh(vec.New(0, 0, 0)))
	assert.True(t, s.Remesh(vec.New(-1, 0, -1)))
}

func TestSeamlessCullingHidesSharedFaces(t *testing.T) {
	coords := []vec.Vec3{}
	for x := 0; x < 3; x++ {
		for y := -1; y < 1; y++ {
			for z := 0; z < 3; z++ {
				coords = append(coords, vec.New(x, y, z))
			}
		}
	}

	open := newTestScene(false)
	seamless := newTestScene(true)
	for _, c := range coords {
		open.InitializeChunk(c)
		seamless.InitializeChunk(c)
	}
	require.NoError(t, open.ProcessInitializationQueue(context.Background()))
	require.NoError(t, seamless.ProcessInitializationQueue(context.Background()))

	openQuads, seamlessQuads := 0, 0
	oc, sc := open.Chunks(), seamless.Chunks()
	for i := range oc {
		assert.Equal(t, oc[i].Shapes(), sc[i].Shapes())
		assert.LessOrEqual(t, sc[i].Mesh.QuadCount(), oc[i].Mesh.QuadCount())
		openQuads += oc[i].Mesh.QuadCount()
		seamlessQuads += sc[i].Mesh.QuadCount()
	}
	assert.Less(t, seamlessQuads, openQuads)
}

func TestProcessQueueCancelled(t *testing.T) {
	s := newTestScene(false)
	s.InitializeChunk(vec.New(0, 0, 0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.ProcessInitializationQueue(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, s.Pending())
}

func TestRemeshVoxelUpdatesNeighbourBoundary(t *testing.T) {
	s := newTestScene(true)
	s.InitializeChunk(vec.New(0, 0, 0))
	s.InitializeChunk(vec.New(1, 0, 0))
	require.NoError(t, s.ProcessInitializationQueue(context.Background()))

	left, _ := s.Chunk(vec.New(0, 0, 0))
	edge := vec.New(ChunkSize, 4, 4) // x == 0 в чанке (1,0,0)

	require.True(t, s.SetVoxelShape(vec.New(ChunkSize-1, 4, 4), voxel.All))
	require.True(t, s.SetVoxelShape(edge, voxel.All))
	assert.Equal(t, 2, s.RemeshVoxel(edge))
	before := left.Mesh.QuadCount()

	// восточная грань (7,4,4) открывается только после перестройки соседа
	require.True(t, s.SetVoxelShape(edge, voxel.Empty))
	assert.Equal(t, 2, s.RemeshVoxel(edge))
	assert.Equal(t, before+1, left.Mesh.QuadCount())

	assert.Equal(t, 1, s.RemeshVoxel(vec.New(4, 4, 4)))
	assert.Equal(t, 1, s.RemeshVoxel(vec.New(0, 4, 4)), "соседа (-1,0,0) нет")
	assert.Equal(t, 0, s.RemeshVoxel(vec.New(-1, 0, 0)))
}

func TestRemeshVoxelWithoutSeamlessTouchesOneChunk(t *testing.T) {
	s := newTestScene(false)
	s.InitializeChunk(vec.New(0, 0, 0))
	s.InitializeChunk(vec.New(1, 0, 0))
	require.NoError(t, s.ProcessInitializationQueue(context.Background()))

	assert.Equal(t, 1, s.RemeshVoxel(vec.New(ChunkSize, 4, 4)))
}
