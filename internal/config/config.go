package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ErrInvalid возвращается Validate для некорректной конфигурации
var ErrInvalid = errors.New("invalid config")

// Config корневая структура конфигурации генератора мира.
type Config struct {
	World     WorldConfig     `yaml:"world"`
	Noise     NoiseConfig     `yaml:"noise"`
	Pipeline  PipelineConfig  `yaml:"pipeline"`
	Output    OutputConfig    `yaml:"output"`
	Server    ServerConfig    `yaml:"server"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Events    EventsConfig    `yaml:"events"`
	LogLevel  string          `yaml:"log_level"`
}

// WorldConfig задает кубоид чанков для генерации
type WorldConfig struct {
	SizeX   int `yaml:"size_x"`
	SizeY   int `yaml:"size_y"`
	SizeZ   int `yaml:"size_z"`
	OriginX int `yaml:"origin_x"`
	OriginY int `yaml:"origin_y"`
	OriginZ int `yaml:"origin_z"`
}

// NoiseConfig - параметры поля плотности
type NoiseConfig struct {
	Seed      int64   `yaml:"seed"`
	Alpha     float64 `yaml:"alpha"`
	Beta      float64 `yaml:"beta"`
	Octaves   int32   `yaml:"octaves"`
	Scale     float64 `yaml:"scale"`
	Threshold float64 `yaml:"threshold"`
}

// PipelineConfig - параметры конвейера инициализации
type PipelineConfig struct {
	Workers         int  `yaml:"workers"`
	SeamlessCulling bool `yaml:"seamless_culling"`
}

// OutputConfig - куда писать итоговый меш
type OutputConfig struct {
	Path string `yaml:"path"`
}

// ServerConfig - порты инспекционного API и метрик
type ServerConfig struct {
	APIPort     int `yaml:"api_port"`
	MetricsPort int `yaml:"metrics_port"`
}

// TelemetryConfig - трассировка OpenTelemetry
type TelemetryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	ServiceName string `yaml:"service_name"`
}

// EventsConfig - шина событий генерации. Пустой NATSURL - шина в памяти.
type EventsConfig struct {
	NATSURL        string `yaml:"nats_url"`
	Stream         string `yaml:"stream"`
	RetentionHours int    `yaml:"retention_hours"`
	Buffer         int    `yaml:"buffer"`
}

// GetNATSURL возвращает адрес NATS: config -> env VOXEL_NATS_URL -> "" (шина в памяти)
func (e *EventsConfig) GetNATSURL() string {
	if e.NATSURL != "" {
		return e.NATSURL
	}
	return os.Getenv("VOXEL_NATS_URL")
}

// Default возвращает конфигурацию по умолчанию (мир 50x1x50 чанков)
func Default() *Config {
	return &Config{
		World: WorldConfig{SizeX: 50, SizeY: 1, SizeZ: 50},
		Noise: NoiseConfig{
			Seed:      0,
			Alpha:     2.0,
			Beta:      2.0,
			Octaves:   1,
			Scale:     0.1,
			Threshold: 0.5,
		},
		Pipeline: PipelineConfig{
			Workers: runtime.NumCPU(),
		},
		Output: OutputConfig{Path: "world.vxm"},
		Telemetry: TelemetryConfig{
			ServiceName: "voxel-worldgen",
		},
		Events: EventsConfig{
			Stream:         "VOXEL_EVENTS",
			RetentionHours: 24,
			Buffer:         64,
		},
		LogLevel: "info",
	}
}

// GetAPIPort возвращает порт API с поддержкой fallback значений
func (s *ServerConfig) GetAPIPort() int {
	return getPortWithEnvFallback(s.APIPort, "VOXEL_API_PORT", 8088)
}

// GetMetricsPort возвращает Prometheus метрики порт с поддержкой fallback значений
func (s *ServerConfig) GetMetricsPort() int {
	return getPortWithEnvFallback(s.MetricsPort, "VOXEL_METRICS_PORT", 2112)
}

// getPortWithEnvFallback возвращает порт с приоритетом: config -> env -> default
func getPortWithEnvFallback(configPort int, envVar string, defaultPort int) int {
	// Если порт задан в конфиге и больше 0, используем его
	if configPort > 0 {
		return configPort
	}

	// Пробуем прочитать из environment variable
	if envVal := os.Getenv(envVar); envVal != "" {
		if port, err := strconv.Atoi(envVal); err == nil && port > 0 {
			return port
		}
	}

	// Используем дефолтное значение
	return defaultPort
}

// Validate проверяет значения конфигурации
func (c *Config) Validate() error {
	if c.World.SizeX <= 0 || c.World.SizeY <= 0 || c.World.SizeZ <= 0 {
		return fmt.Errorf("%w: world size must be positive, got %dx%dx%d",
			ErrInvalid, c.World.SizeX, c.World.SizeY, c.World.SizeZ)
	}
	if c.Noise.Scale <= 0 {
		return fmt.Errorf("%w: noise scale must be positive", ErrInvalid)
	}
	if c.Noise.Octaves <= 0 {
		return fmt.Errorf("%w: noise octaves must be positive", ErrInvalid)
	}
	if c.Pipeline.Workers <= 0 {
		return fmt.Errorf("%w: pipeline workers must be positive", ErrInvalid)
	}
	return nil
}

// Load читает YAML файл конфигурации поверх значений по умолчанию.
// Если path == "", пытается прочитать из ENV VOXEL_CONFIG или возвращает Default().
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = os.Getenv("VOXEL_CONFIG")
		if path == "" {
			return cfg, nil // конфиг не задан, используем дефолты
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("чтение конфига %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("разбор конфига %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
