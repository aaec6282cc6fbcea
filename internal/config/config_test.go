package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsWithoutPath(t *testing.T) {
	t.Setenv("VOXEL_CONFIG", "")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.World.SizeX)
	assert.Equal(t, 1, cfg.World.SizeY)
	assert.Equal(t, 50, cfg.World.SizeZ)
	assert.Equal(t, 0.1, cfg.Noise.Scale)
	assert.Equal(t, 0.5, cfg.Noise.Threshold)
	assert.Greater(t, cfg.Pipeline.Workers, 0)
	assert.NoError(t, cfg.Validate())
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worldgen.yaml")
	data := []byte(`
world:
  size_x: 4
  size_y: 2
  size_z: 3
  origin_x: -2
noise:
  seed: 99
  octaves: 3
pipeline:
  workers: 2
  seamless_culling: true
output:
  path: out/test.vxm
`)
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.World.SizeX)
	assert.Equal(t, -2, cfg.World.OriginX)
	assert.Equal(t, int64(99), cfg.Noise.Seed)
	assert.Equal(t, int32(3), cfg.Noise.Octaves)
	// не заданные поля остаются по умолчанию
	assert.Equal(t, 0.1, cfg.Noise.Scale)
	assert.Equal(t, 2.0, cfg.Noise.Alpha)
	assert.True(t, cfg.Pipeline.SeamlessCulling)
	assert.Equal(t, "out/test.vxm", cfg.Output.Path)
}

func TestLoadFromEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "env.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  size_x: 7\n"), 0644))
	t.Setenv("VOXEL_CONFIG", path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.World.SizeX)
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("world:\n  size_y: 0\n"), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestPortFallback(t *testing.T) {
	s := ServerConfig{}
	t.Setenv("VOXEL_API_PORT", "")
	assert.Equal(t, 8088, s.GetAPIPort())

	t.Setenv("VOXEL_API_PORT", "9090")
	assert.Equal(t, 9090, s.GetAPIPort())

	t.Setenv("VOXEL_METRICS_PORT", "not-a-port")
	assert.Equal(t, 2112, s.GetMetricsPort())

	s.APIPort = 7000
	assert.Equal(t, 7000, s.GetAPIPort())
}

func TestEventsConfig(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "VOXEL_EVENTS", cfg.Events.Stream)
	assert.Equal(t, 24, cfg.Events.RetentionHours)

	t.Setenv("VOXEL_NATS_URL", "")
	assert.Equal(t, "", cfg.Events.GetNATSURL())

	t.Setenv("VOXEL_NATS_URL", "nats://127.0.0.1:4222")
	assert.Equal(t, "nats://127.0.0.1:4222", cfg.Events.GetNATSURL())

	cfg.Events.NATSURL = "nats://nats:4222"
	assert.Equal(t, "nats://nats:4222", cfg.Events.GetNATSURL())
}
