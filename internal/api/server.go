package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/annel0/voxel-engine/internal/eventbus"
	"github.com/annel0/voxel-engine/internal/logging"
	"github.com/annel0/voxel-engine/internal/metrics"
	"github.com/annel0/voxel-engine/internal/middleware"
	"github.com/annel0/voxel-engine/internal/world"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

// ServiceName - имя сервиса для otelgin и префикс HTTP-метрик
const ServiceName = "voxel_api"

// Server - read-only HTTP API над сгенерированным миром
type Server struct {
	router     *gin.Engine
	generator  *world.Generator
	process    *metrics.ProcessStats
	events     eventbus.EventBus
	port       string
	httpServer *http.Server
}

// Config содержит конфигурацию для API сервера
type Config struct {
	Port      string                // адрес для запуска сервера, например ":8088"
	Generator *world.Generator      // генератор с уже готовой сценой
	Registry  *prometheus.Registry  // регистр для HTTP-метрик и /metrics; nil - новый
	Process   *metrics.ProcessStats // показатели процесса; nil - новый
	Logger    *logging.Logger       // логгер запросов; nil - глобальный
	Events    eventbus.EventBus     // шина событий генерации; может быть nil
}

// NewServer создает API сервер. Сцена генератора должна быть полностью построена:
// обработчики читают ее без блокировок.
func NewServer(config Config) *Server {
	if config.Port == "" {
		config.Port = ":8088"
	}
	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
	}
	if config.Process == nil {
		config.Process = metrics.NewProcessStats()
	}

	// Устанавливаем режим релиза для gin
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()        // без стандартного logger/recovery
	router.Use(gin.Recovery()) // добавим только recovery

	// otelgin первым, чтобы логгер увидел trace-id
	router.Use(otelgin.Middleware(ServiceName))

	loggerMw := middleware.NewRequestLogger(config.Logger, "/health", "/metrics")
	router.Use(loggerMw.Handler())

	promMw := middleware.NewPrometheusMiddleware(ServiceName, config.Registry)
	router.Use(promMw.Handler())
	promMw.RegisterMetricsEndpoint(router, config.Registry)

	server := &Server{
		router:    router,
		generator: config.Generator,
		process:   config.Process,
		events:    config.Events,
		port:      config.Port,
	}

	server.setupRoutes()
	return server
}

// setupRoutes настраивает маршруты API
func (s *Server) setupRoutes() {
	s.router.GET("/health", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.GET("/stats", s.handleStats)
		api.GET("/chunks", s.handleChunks)
		api.GET("/chunks/:x/:y/:z", s.handleChunk)
		api.GET("/voxels/:x/:y/:z", s.handleVoxel)
		api.GET("/mesh", s.handleMesh)
	}
}

// Router возвращает gin.Engine (используется в тестах)
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start запускает HTTP сервер и блокируется до Shutdown
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.port,
		Handler:           s.router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	logging.Info("🌐 API сервер слушает %s", s.port)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown корректно останавливает HTTP сервер
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}
