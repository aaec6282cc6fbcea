package metrics

import (
	"net/http"
	"time"

	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Exporter управляет HTTP-эндпоинтом Prometheus и периодически обновляет
// показатели процесса (память, CPU).
type Exporter struct {
	gatherer prometheus.Gatherer
	stats    *ProcessStats
	quit     chan struct{}
	done     chan struct{}
	started  bool

	allocMB    prometheus.Gauge
	rssMB      prometheus.Gauge
	cpuPercent prometheus.Gauge
	gcCycles   prometheus.Gauge
}

// NewExporter создаёт экспортер, но не запускает HTTP-сервер.
func NewExporter(reg prometheus.Registerer, gatherer prometheus.Gatherer, stats *ProcessStats) *Exporter {
	e := &Exporter{
		gatherer: gatherer,
		stats:    stats,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
		allocMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "process_alloc_megabytes",
			Help:      "Память, занятая кучей Go, в мегабайтах.",
		}),
		rssMB: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "process_rss_megabytes",
			Help:      "Резидентная память процесса в мегабайтах.",
		}),
		cpuPercent: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "process_cpu_percent",
			Help:      "Загрузка CPU процессом в процентах.",
		}),
		gcCycles: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxel",
			Name:      "process_gc_cycles",
			Help:      "Завершённые циклы GC с момента старта.",
		}),
	}

	reg.MustRegister(e.allocMB, e.rssMB, e.cpuPercent, e.gcCycles)
	return e
}

// Handler возвращает обработчик /metrics
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.gatherer, promhttp.HandlerOpts{})
}

// StartHTTP запускает HTTP-эндпоинт Prometheus на указанном адресе (например, ":2112").
// Метод неблокирующий: HTTP-сервер стартует в отдельной горутине.
func (e *Exporter) StartHTTP(addr string) {
	go func() {
		logging.Info("📈 Prometheus /metrics доступен по адресу %s", addr)
		mux := http.NewServeMux()
		mux.Handle("/metrics", e.Handler())
		if err := http.ListenAndServe(addr, mux); err != nil {
			logging.Error("Ошибка Prometheus HTTP сервера: %v", err)
		}
	}()
	e.started = true
	go e.loop()
}

// Stop останавливает обновление метрик. HTTP-сервер живет до конца процесса.
func (e *Exporter) Stop() {
	if !e.started {
		return
	}
	close(e.quit)
	<-e.done
	e.started = false
}

// Sample один раз снимает показатели процесса и возвращает их
func (e *Exporter) Sample() Snapshot {
	snap := e.stats.Snapshot()
	e.allocMB.Set(snap.AllocMB)
	e.rssMB.Set(snap.RSSMB)
	e.cpuPercent.Set(snap.CPUPercent)
	e.gcCycles.Set(float64(snap.GCCycles))
	return snap
}

func (e *Exporter) loop() {
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()
	defer close(e.done)

	for {
		select {
		case <-ticker.C:
			e.Sample()
		case <-e.quit:
			return
		}
	}
}
