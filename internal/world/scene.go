package world

import (
	"context"
	"runtime"
	"sort"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/voxel"
	"go.opentelemetry.io/otel/attribute"
)

// SceneOptions - параметры конвейера инициализации
type SceneOptions struct {
	Workers         int                      // Размер пула; 0 - по числу CPU
	SeamlessCulling bool                     // Отсекать грани на границах соседних чанков
	Metrics         *metrics.PipelineMetrics // Может быть nil
}

// Scene хранит чанки мира и очередь их инициализации.
// Сцена не потокобезопасна: читать её можно только после ProcessInitializationQueue.
type Scene struct {
	density *DensityField
	chunks  map[vec.Vec3]*Chunk
	queue   []vec.Vec3
	pending map[vec.Vec3]struct{}

	workers  int
	seamless bool
	metrics  *metrics.PipelineMetrics
}

// NewScene создает пустую сцену над полем плотности
func NewScene(density *DensityField, opts SceneOptions) *Scene {
	if density == nil {
		density = DefaultDensityField()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Scene{
		density:  density,
		chunks:   make(map[vec.Vec3]*Chunk),
		queue:    make([]vec.Vec3, 0),
		pending:  make(map[vec.Vec3]struct{}),
		workers:  workers,
		seamless: opts.SeamlessCulling,
		metrics:  opts.Metrics,
	}
}

// Density возвращает поле плотности сцены
func (s *Scene) Density() *DensityField { return s.density }

// InitializeChunk ставит координату в очередь инициализации.
// Координата, уже стоящая в очереди или уже созданная, повторно не ставится.
func (s *Scene) InitializeChunk(coord vec.Vec3) bool {
	if _, queued := s.pending[coord]; queued {
		s.duplicate(coord)
		return false
	}
	if _, exists := s.chunks[coord]; exists {
		s.duplicate(coord)
		return false
	}

	s.pending[coord] = struct{}{}
	s.queue = append(s.queue, coord)
	s.metrics.SetPending(len(s.queue))
	return true
}

func (s *Scene) duplicate(coord vec.Vec3) {
	s.metrics.DuplicateEnqueue()
	logging.Debug("Чанк (%d,%d,%d) уже в очереди или создан, пропускаем", coord.X, coord.Y, coord.Z)
}

// Pending возвращает число координат в очереди
func (s *Scene) Pending() int {
	return len(s.queue)
}

// ProcessInitializationQueue создает все чанки из очереди (последовательно, в порядке
// очереди), затем параллельно заполняет и мешит все чанки сцены.
// Возвращает ошибку контекста, если он отменён до начала фазы.
func (s *Scene) ProcessInitializationQueue(ctx context.Context) error {
	ctx, span := observability.StartSpan(ctx, "scene.process_queue",
		attribute.Int("queue.length", len(s.queue)),
		attribute.Bool("seamless", s.seamless),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return err
	}

	s.allocate(ctx)

	if err := ctx.Err(); err != nil {
		return err
	}

	chunks := s.Chunks()
	span.SetAttributes(attribute.Int("chunks", len(chunks)))

	if s.seamless {
		s.fill(ctx, chunks)
		if err := ctx.Err(); err != nil {
			return err
		}
		s.mesh(ctx, chunks, s.lookup)
		return nil
	}

	s.fillAndMesh(ctx, chunks)
	return nil
}

// allocate - фаза 1: пустые чанки в порядке очереди
func (s *Scene) allocate(ctx context.Context) {
	_, span := observability.StartSpan(ctx, "scene.allocate")
	defer span.End()
	start := time.Now()

	for _, coord := range s.queue {
		s.chunks[coord] = NewChunk(coord)
		s.metrics.ChunkAllocated()
	}
	logging.Debug("Создано %d чанков из очереди", len(s.queue))

	s.queue = s.queue[:0]
	s.pending = make(map[vec.Vec3]struct{})
	s.metrics.SetPending(0)
	s.metrics.ObservePhase(metrics.PhaseAllocate, time.Since(start))
}

// fillAndMesh - фаза 2: заполнение и меш каждого чанка одной задачей пула
func (s *Scene) fillAndMesh(ctx context.Context, chunks []*Chunk) {
	_, span := observability.StartSpan(ctx, "scene.fill_mesh")
	defer span.End()
	start := time.Now()

	forEachParallel(s.workers, chunks, func(c *Chunk) {
		c.Fill(s.density)
		s.meshChunk(c, nil)
	})

	s.metrics.ObservePhase(metrics.PhaseFillMesh, time.Since(start))
}

func (s *Scene) fill(ctx context.Context, chunks []*Chunk) {
	_, span := observability.StartSpan(ctx, "scene.fill")
	defer span.End()
	start := time.Now()

	forEachParallel(s.workers, chunks, func(c *Chunk) {
		c.Fill(s.density)
	})

	s.metrics.ObservePhase(metrics.PhaseFill, time.Since(start))
}

// mesh строит меши, когда все чанки уже заполнены; соседи читаются без записи
func (s *Scene) mesh(ctx context.Context, chunks []*Chunk, lookup NeighborLookup) {
	_, span := observability.StartSpan(ctx, "scene.mesh")
	defer span.End()
	start := time.Now()

	forEachParallel(s.workers, chunks, func(c *Chunk) {
		s.meshChunk(c, lookup)
	})

	s.metrics.ObservePhase(metrics.PhaseMesh, time.Since(start))
}

func (s *Scene) meshChunk(c *Chunk, lookup NeighborLookup) {
	quads := c.GenerateMeshWithNeighbors(lookup)
	s.metrics.ChunkMeshed(quads)
	logging.LogChunkMeshed(c.Position.X, c.Position.Y, c.Position.Z, quads)
}

func (s *Scene) lookup(world vec.Vec3) (voxel.Data, bool) {
	return s.VoxelAt(world)
}

// Remesh перестраивает меш одного чанка. При SeamlessCulling соседние чанки
// не трогаются; после правки вокселя на границе нужен RemeshVoxel.
func (s *Scene) Remesh(coord vec.Vec3) bool {
	c, ok := s.chunks[coord]
	if !ok {
		return false
	}
	var lookup NeighborLookup
	if s.seamless {
		lookup = s.lookup
	}
	s.meshChunk(c, lookup)
	return true
}

// RemeshVoxel перестраивает чанк с вокселем world, а при SeamlessCulling и
// соседние чанки, чьи граничные грани смотрят на этот воксель.
// Возвращает число перестроенных чанков.
func (s *Scene) RemeshVoxel(world vec.Vec3) int {
	coord := world.ToChunkCoords(ChunkSize)
	if !s.Remesh(coord) {
		return 0
	}
	remeshed := 1
	if !s.seamless {
		return remeshed
	}

	local := world.LocalInChunk(ChunkSize).ToVec3()
	axes := [3]struct {
		pos  int
		unit vec.Vec3
	}{{local.X, vec.UnitX}, {local.Y, vec.UnitY}, {local.Z, vec.UnitZ}}
	for _, axis := range axes {
		if axis.pos == 0 && s.Remesh(coord.Sub(axis.unit)) {
			remeshed++
		}
		if axis.pos == ChunkSize-1 && s.Remesh(coord.Add(axis.unit)) {
			remeshed++
		}
	}
	return remeshed
}

// Chunk возвращает чанк по координате сетки чанков
func (s *Scene) Chunk(coord vec.Vec3) (*Chunk, bool) {
	c, ok := s.chunks[coord]
	return c, ok
}

// ChunkAt возвращает чанк, содержащий мировую координату
func (s *Scene) ChunkAt(world vec.Vec3) (*Chunk, bool) {
	return s.Chunk(world.ToChunkCoords(ChunkSize))
}

// VoxelAt возвращает воксель по мировой координате
func (s *Scene) VoxelAt(world vec.Vec3) (voxel.Data, bool) {
	c, ok := s.ChunkAt(world)
	if !ok {
		return voxel.Data{}, false
	}
	return c.VoxelAt(world.LocalInChunk(ChunkSize))
}

// SetVoxelShape меняет форму вокселя по мировой координате. Меш не перестраивается.
func (s *Scene) SetVoxelShape(world vec.Vec3, shape voxel.Shape) bool {
	c, ok := s.ChunkAt(world)
	if !ok {
		return false
	}
	return c.SetVoxelShape(world.LocalInChunk(ChunkSize), shape)
}

// Len возвращает число созданных чанков
func (s *Scene) Len() int {
	return len(s.chunks)
}

// Chunks возвращает чанки, отсортированные по координатам (x, затем y, затем z)
func (s *Scene) Chunks() []*Chunk {
	chunks := make([]*Chunk, 0, len(s.chunks))
	for _, c := range s.chunks {
		chunks = append(chunks, c)
	}
	sort.Slice(chunks, func(i, j int) bool {
		return lessCoord(chunks[i].Position, chunks[j].Position)
	})
	return chunks
}

func lessCoord(a, b vec.Vec3) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.Z < b.Z
}
