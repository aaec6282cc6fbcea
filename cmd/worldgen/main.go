package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/annel0/voxel-engine/internal/api"
	"github.com/annel0/voxel-engine/internal/config"
	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/observability"
	"github.com/annel0/voxel-engine/internal/render"
	"github.com/annel0/voxel-engine/internal/util"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигурации (или ENV VOXEL_CONFIG)")
	sizeFlag := flag.String("size", "", "размер мира в чанках: x,y,z (по умолчанию из конфига)")
	outPath := flag.String("out", "", "путь к файлу дампа меша (по умолчанию из конфига)")
	serve := flag.Bool("serve", false, "после генерации запустить API до SIGINT/SIGTERM")
	flag.Parse()

	// Инициализируем систему логирования
	if err := logging.InitDefaultLogger("worldgen"); err != nil {
		log.Fatalf("❌ Ошибка инициализации логирования: %v", err)
	}
	defer logging.CloseDefaultLogger()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logging.Error("❌ Ошибка загрузки конфигурации: %v", err)
		log.Fatalf("❌ Ошибка загрузки конфигурации: %v", err)
	}
	level := logging.ParseLevel(cfg.LogLevel)
	logging.SetDefaultLevel(level)
	logging.GetLoggerManager().SetConsoleLevel(level)
	defer logging.GetLoggerManager().CloseAll()

	size := vec.New(cfg.World.SizeX, cfg.World.SizeY, cfg.World.SizeZ)
	if *sizeFlag != "" {
		size, err = parseSize(*sizeFlag)
		if err != nil {
			log.Fatalf("❌ Неверный флаг -size: %v", err)
		}
	}
	if *outPath != "" {
		cfg.Output.Path = *outPath
	}

	logging.Info("🌍 Запуск генератора мира: %dx%dx%d чанков, workers=%d, seamless=%v",
		size.X, size.Y, size.Z, cfg.Pipeline.Workers, cfg.Pipeline.SeamlessCulling)

	ctx := context.Background()

	// === ТЕЛЕМЕТРИЯ ===
	if cfg.Telemetry.Enabled {
		shutdown, err := observability.InitTelemetry(ctx, cfg.Telemetry.ServiceName)
		if err != nil {
			logging.Warn("⚠️ OpenTelemetry не инициализирован: %v", err)
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logging.Error("Ошибка остановки OpenTelemetry: %v", err)
				}
			}()
		}
	}

	// === МЕТРИКИ ===
	registry := prometheus.NewRegistry()
	pipelineMetrics := metrics.NewPipelineMetrics(registry)
	process := metrics.NewProcessStats()
	exporter := metrics.NewExporter(registry, registry, process)
	exporter.StartHTTP(fmt.Sprintf(":%d", cfg.Server.GetMetricsPort()))
	defer exporter.Stop()

	// === СОБЫТИЯ ===
	bus := newEventBus(cfg.Events)
	defer bus.Close()
	if _, err := eventbus.StartLoggingListener(bus, nil); err != nil {
		logging.Warn("⚠️ Логирующий слушатель событий не запущен: %v", err)
	}

	// === ГЕНЕРАЦИЯ ===
	worldLogger := logging.GetWorldLogger()
	density := world.NewDensityField(util.NoiseParams{
		Alpha:   cfg.Noise.Alpha,
		Beta:    cfg.Noise.Beta,
		Octaves: cfg.Noise.Octaves,
		Seed:    cfg.Noise.Seed,
	}, cfg.Noise.Scale, cfg.Noise.Threshold)

	scene := world.NewScene(density, world.SceneOptions{
		Workers:         cfg.Pipeline.Workers,
		SeamlessCulling: cfg.Pipeline.SeamlessCulling,
		Metrics:         pipelineMetrics,
	})
	origin := vec.New(cfg.World.OriginX, cfg.World.OriginY, cfg.World.OriginZ)
	generator := world.NewGenerator(scene, origin).WithEvents(bus)

	worldLogger.Info("Генерация %d чанков от (%d,%d,%d)", size.Volume(), origin.X, origin.Y, origin.Z)
	_, stats, err := generator.Generate(ctx, size)
	if err != nil {
		logging.Error("❌ Ошибка генерации мира: %v", err)
		log.Fatalf("❌ Ошибка генерации мира: %v", err)
	}
	worldLogger.Info("Готово: %d вершин, %d индексов, %d граней за %s",
		stats.Vertices, stats.Indices, stats.Quads, stats.Duration)

	snap := exporter.Sample()
	logging.Info("📊 Процесс: alloc=%.1fMB rss=%.1fMB cpu=%.1f%% gc=%d goroutines=%d",
		snap.AllocMB, snap.RSSMB, snap.CPUPercent, snap.GCCycles, snap.Goroutines)

	// === ВЫВОД ===
	sink := render.NewFileSink(cfg.Output.Path)
	if err := generator.Publish(ctx, sink); err != nil {
		logging.Error("❌ Ошибка записи меша: %v", err)
		log.Fatalf("❌ Ошибка записи меша: %v", err)
	}
	logging.GetRenderLogger().Info("💾 Меш записан в %s", sink.Path())

	if !*serve {
		logging.Info("👋 Генерация завершена")
		return
	}

	// === API ===
	apiPort := fmt.Sprintf(":%d", cfg.Server.GetAPIPort())
	server := api.NewServer(api.Config{
		Port:      apiPort,
		Generator: generator,
		Registry:  registry,
		Process:   process,
		Logger:    logging.GetAPILogger(),
		Events:    bus,
	})
	go func() {
		if err := server.Start(); err != nil {
			logging.Error("❌ Ошибка API сервера: %v", err)
		}
	}()

	logging.Info("✅ Инспекционный API запущен")
	logging.Info("   ❤️  Health check: http://localhost%s/health", apiPort)
	logging.Info("   🧱 Чанки: http://localhost%s/api/chunks", apiPort)
	logging.Info("   📈 Метрики: http://localhost%s/metrics", apiPort)

	// Канал для получения сигналов ОС
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logging.Info("📡 Получен сигнал %v, завершение работы...", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logging.Error("❌ Ошибка остановки API: %v", err)
	}

	logging.Info("👋 Генератор успешно остановлен")
}

// newEventBus подключается к JetStream, если задан адрес NATS, иначе возвращает шину в памяти
func newEventBus(cfg config.EventsConfig) eventbus.EventBus {
	url := cfg.GetNATSURL()
	if url == "" {
		return eventbus.NewMemoryBus(cfg.Buffer)
	}

	retention := time.Duration(cfg.RetentionHours) * time.Hour
	bus, err := eventbus.NewJetStreamBus(url, cfg.Stream, retention)
	if err != nil {
		logging.Warn("⚠️ NATS JetStream недоступен (%s): %v, используем шину в памяти", url, err)
		return eventbus.NewMemoryBus(cfg.Buffer)
	}
	logging.Info("📨 События публикуются в JetStream %s (stream=%s)", url, cfg.Stream)
	return bus
}
