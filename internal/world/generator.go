package world

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/mesh"
	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/render"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

// EventSource - источник событий генератора в шине
const EventSource = "worldgen"

// ErrNotGenerated возвращается Publish до первого Generate
var ErrNotGenerated = errors.New("world has not been generated yet")

// Stats - итог одного запуска генерации
type Stats struct {
	RunID           string        `json:"run_id"`
	Chunks          int           `json:"chunks"`       // кубоид запуска, size.X*size.Y*size.Z
	SceneChunks     int           `json:"scene_chunks"` // все чанки сцены, вошедшие в меш
	Vertices        int           `json:"vertices"`
	Indices         int           `json:"indices"`
	Quads           int           `json:"quads"`
	Duration        time.Duration `json:"duration_ns"`
	PerChunk        time.Duration `json:"per_chunk_ns"`
	ChunksPerSecond float64       `json:"chunks_per_second"`
}

// Generator заполняет сцену кубоидом чанков и собирает общий меш
type Generator struct {
	scene  *Scene
	origin vec.Vec3
	events eventbus.EventBus

	last      *mesh.Mesh
	lastStats Stats
}

// NewGenerator создает генератор над сценой. origin - угол кубоида в координатах чанков.
func NewGenerator(scene *Scene, origin vec.Vec3) *Generator {
	return &Generator{
		scene:  scene,
		origin: origin,
	}
}

// StartedEvent - полезная нагрузка GenerationStarted
type StartedEvent struct {
	Size   [3]int `json:"size"`
	Origin [3]int `json:"origin"`
}

// PublishedEvent - полезная нагрузка MeshPublished
type PublishedEvent struct {
	Vertices int `json:"vertices"`
	Indices  int `json:"indices"`
}

// WithEvents подключает шину событий. nil отключает публикацию.
func (g *Generator) WithEvents(bus eventbus.EventBus) *Generator {
	g.events = bus
	return g
}

// emit публикует событие; ошибки шины не прерывают генерацию
func (g *Generator) emit(ctx context.Context, eventType, runID string, payload interface{}) {
	if g.events == nil {
		return
	}
	ev, err := eventbus.NewEnvelope(EventSource, eventType, runID, payload)
	if err == nil {
		err = g.events.Publish(ctx, ev)
	}
	if err != nil {
		logging.Warn("Не удалось опубликовать %s (run=%s): %v", eventType, runID, err)
	}
}

// Scene возвращает сцену генератора
func (g *Generator) Scene() *Scene { return g.scene }

// LastStats возвращает статистику последнего запуска
func (g *Generator) LastStats() (Stats, bool) {
	return g.lastStats, g.last != nil
}

// LastMesh возвращает объединенный меш последнего запуска
func (g *Generator) LastMesh() (*mesh.Mesh, bool) {
	return g.last, g.last != nil
}

// Generate ставит в очередь кубоид size чанков (обход x, затем y, затем z),
// прогоняет конвейер и возвращает меш в мировых координатах.
func (g *Generator) Generate(ctx context.Context, size vec.Vec3) (*mesh.Mesh, Stats, error) {
	if size.X <= 0 || size.Y <= 0 || size.Z <= 0 {
		return nil, Stats{}, fmt.Errorf("invalid world size %dx%dx%d", size.X, size.Y, size.Z)
	}

	runID := uuid.NewString()
	ctx, span := observability.StartSpan(ctx, "world.generate",
		attribute.String("run.id", runID),
		attribute.Int("size.x", size.X),
		attribute.Int("size.y", size.Y),
		attribute.Int("size.z", size.Z),
	)
	defer span.End()

	start := time.Now()
	g.emit(ctx, eventbus.EventGenerationStarted, runID, StartedEvent{
		Size:   [3]int{size.X, size.Y, size.Z},
		Origin: [3]int{g.origin.X, g.origin.Y, g.origin.Z},
	})

	for x := 0; x < size.X; x++ {
		for y := 0; y < size.Y; y++ {
			for z := 0; z < size.Z; z++ {
				g.scene.InitializeChunk(g.origin.Add(vec.New(x, y, z)))
			}
		}
	}

	if err := g.scene.ProcessInitializationQueue(ctx); err != nil {
		return nil, Stats{}, fmt.Errorf("обработка очереди чанков: %w", err)
	}

	chunks := g.scene.Chunks()
	merged := mergeChunkMeshes(ctx, chunks, ChunkSize, g.scene.workers, g.scene.metrics)

	duration := time.Since(start)
	stats := Stats{
		RunID:       runID,
		Chunks:      size.Volume(),
		SceneChunks: len(chunks),
		Vertices:    len(merged.Vertices),
		Indices:     len(merged.Indices),
		Quads:       merged.QuadCount(),
		Duration:    duration,
		PerChunk:    duration / time.Duration(size.Volume()),
	}
	if seconds := duration.Seconds(); seconds > 0 {
		stats.ChunksPerSecond = float64(stats.Chunks) / seconds
	}

	span.SetAttributes(
		attribute.Int("mesh.vertices", stats.Vertices),
		attribute.Int("mesh.indices", stats.Indices),
	)
	g.scene.metrics.SetLastRun(stats.Vertices, stats.Indices)
	logging.LogGenerationSummary(runID, stats.Chunks, stats.PerChunk, stats.ChunksPerSecond)
	if stats.SceneChunks != stats.Chunks {
		logging.Info("Меш собран из %d чанков сцены (run=%s)", stats.SceneChunks, runID)
	}

	g.last = merged
	g.lastStats = stats
	g.emit(ctx, eventbus.EventGenerationCompleted, runID, stats)
	return merged, stats, nil
}

// Publish передает последний объединенный меш в sink
func (g *Generator) Publish(ctx context.Context, sink render.Sink) error {
	if g.last == nil {
		return ErrNotGenerated
	}
	_, span := observability.StartSpan(ctx, "world.publish",
		attribute.String("run.id", g.lastStats.RunID),
	)
	defer span.End()

	if err := sink.UploadVertices(g.last.Vertices); err != nil {
		span.RecordError(err)
		return fmt.Errorf("загрузка вершин: %w", err)
	}
	if err := sink.UploadIndices(g.last.Indices); err != nil {
		span.RecordError(err)
		return fmt.Errorf("загрузка индексов: %w", err)
	}
	logging.Info("Меш запуска %s передан: %d вершин, %d индексов",
		g.lastStats.RunID, len(g.last.Vertices), len(g.last.Indices))
	g.emit(ctx, eventbus.EventMeshPublished, g.lastStats.RunID, PublishedEvent{
		Vertices: len(g.last.Vertices),
		Indices:  len(g.last.Indices),
	})
	return nil
}

// MergeChunkMeshes сдвигает меш каждого чанка на Position*chunkSize и склеивает
// их в переданном порядке. Меши чанков не меняются.
func MergeChunkMeshes(chunks []*Chunk, chunkSize int) *mesh.Mesh {
	return mergeChunkMeshes(context.Background(), chunks, chunkSize, runtime.NumCPU(), nil)
}

func mergeChunkMeshes(ctx context.Context, chunks []*Chunk, chunkSize, workers int, pm *metrics.PipelineMetrics) *mesh.Mesh {
	_, span := observability.StartSpan(ctx, "world.merge", attribute.Int("chunks", len(chunks)))
	defer span.End()

	// Перевод в мировые координаты - параллельно, по копии на чанк
	start := time.Now()
	results := make([]*mesh.Mesh, len(chunks))
	runParallel(workers, len(chunks), func(i int) {
		c := chunks[i]
		if c.Mesh == nil {
			results[i] = mesh.New()
			return
		}
		m := c.Mesh.Clone()
		m.Translate(c.Position.Scale(chunkSize).ToMgl())
		results[i] = m
	})
	pm.ObservePhase(metrics.PhaseTranslate, time.Since(start))

	// Склейка - последовательно
	start = time.Now()
	quads := 0
	for _, m := range results {
		quads += m.QuadCount()
	}
	merged := mesh.NewWithCapacity(quads)
	for _, m := range results {
		merged.Append(m)
	}
	pm.ObservePhase(metrics.PhaseMerge, time.Since(start))

	return merged
}
