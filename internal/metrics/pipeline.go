package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Фазы конвейера инициализации для метки phase
const (
	PhaseAllocate  = "allocate"
	PhaseFill      = "fill"
	PhaseMesh      = "mesh"
	PhaseFillMesh  = "fill_mesh"
	PhaseTranslate = "translate"
	PhaseMerge     = "merge"
)

// PipelineMetrics инкапсулирует Prometheus-метрики конвейера генерации.
// Все методы допускают nil-получатель, чтобы сцену можно было собрать без метрик.
type PipelineMetrics struct {
	chunksAllocated   prometheus.Counter
	chunksMeshed      prometheus.Counter
	duplicateEnqueues prometheus.Counter
	quadsEmitted      prometheus.Counter
	pendingChunks     prometheus.Gauge
	lastRunVertices   prometheus.Gauge
	lastRunIndices    prometheus.Gauge
	phaseDuration     *prometheus.HistogramVec
}

// NewPipelineMetrics создаёт метрики и регистрирует их в reg.
func NewPipelineMetrics(reg prometheus.Registerer) *PipelineMetrics {
	pm := &PipelineMetrics{
		chunksAllocated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "chunks_allocated_total",
			Help:      "Общее число чанков, созданных из очереди инициализации.",
		}),
		chunksMeshed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "chunks_meshed_total",
			Help:      "Общее число чанков, для которых построен меш.",
		}),
		duplicateEnqueues: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "duplicate_enqueues_total",
			Help:      "Повторные постановки координаты в очередь, отброшенные сценой.",
		}),
		quadsEmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "voxel",
			Name:      "quads_emitted_total",
			Help:      "Общее число граней, выпущенных мешером.",
		}),
		pendingChunks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "pending_chunks",
			Help:      "Количество координат в очереди инициализации.",
		}),
		lastRunVertices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "last_run_vertices",
			Help:      "Количество вершин в объединенном меше последнего запуска.",
		}),
		lastRunIndices: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "last_run_indices",
			Help:      "Количество индексов в объединенном меше последнего запуска.",
		}),
		phaseDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "voxel",
			Name:      "pipeline_phase_duration_seconds",
			Help:      "Длительность фаз конвейера генерации.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		}, []string{"phase"}),
	}

	reg.MustRegister(
		pm.chunksAllocated, pm.chunksMeshed, pm.duplicateEnqueues, pm.quadsEmitted,
		pm.pendingChunks, pm.lastRunVertices, pm.lastRunIndices, pm.phaseDuration,
	)
	return pm
}

// ChunkAllocated отмечает создание пустого чанка
func (pm *PipelineMetrics) ChunkAllocated() {
	if pm == nil {
		return
	}
	pm.chunksAllocated.Inc()
}

// ChunkMeshed отмечает построение меша чанка с quads гранями
func (pm *PipelineMetrics) ChunkMeshed(quads int) {
	if pm == nil {
		return
	}
	pm.chunksMeshed.Inc()
	pm.quadsEmitted.Add(float64(quads))
}

// DuplicateEnqueue отмечает отброшенную повторную постановку в очередь
func (pm *PipelineMetrics) DuplicateEnqueue() {
	if pm == nil {
		return
	}
	pm.duplicateEnqueues.Inc()
}

// SetPending обновляет размер очереди
func (pm *PipelineMetrics) SetPending(n int) {
	if pm == nil {
		return
	}
	pm.pendingChunks.Set(float64(n))
}

// ObservePhase записывает длительность фазы
func (pm *PipelineMetrics) ObservePhase(phase string, d time.Duration) {
	if pm == nil {
		return
	}
	pm.phaseDuration.WithLabelValues(phase).Observe(d.Seconds())
}

// SetLastRun запоминает размер объединенного меша
func (pm *PipelineMetrics) SetLastRun(vertices, indices int) {
	if pm == nil {
		return
	}
	pm.lastRunVertices.Set(float64(vertices))
	pm.lastRunIndices.Set(float64(indices))
}
