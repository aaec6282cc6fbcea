package world

import (
	"github.com/annel0/voxel-engine/internal/util"
	"github.com/annel0/voxel-engine/internal/vec"
	"github.com/annel0/voxel-engine/internal/voxel"
)

// Значения поля плотности по умолчанию
const (
	DefaultDensityScale     = 0.1
	DefaultDensityThreshold = 0.5
)

// DensityField вычисляет плотность рельефа в мировых координатах.
// После создания поле неизменяемо и безопасно для параллельного чтения.
type DensityField struct {
	noise     *util.PerlinNoise
	scale     float64
	threshold float64
}

// NewDensityField создает поле плотности с заданными параметрами шума
func NewDensityField(params util.NoiseParams, scale, threshold float64) *DensityField {
	if scale <= 0 {
		scale = DefaultDensityScale
	}
	return &DensityField{
		noise:     util.NewPerlinNoise(params),
		scale:     scale,
		threshold: threshold,
	}
}

// DefaultDensityField - поле с параметрами по умолчанию (seed 0)
func DefaultDensityField() *DensityField {
	return NewDensityField(util.DefaultNoiseParams(), DefaultDensityScale, DefaultDensityThreshold)
}

// Scale возвращает масштаб шума
func (d *DensityField) Scale() float64 { return d.scale }

// Threshold возвращает порог твердости
func (d *DensityField) Threshold() float64 { return d.threshold }

// Density = noise3(p*scale) + p.y*scale
func (d *DensityField) Density(p vec.Vec3) float64 {
	x := float64(p.X) * d.scale
	y := float64(p.Y) * d.scale
	z := float64(p.Z) * d.scale
	return d.noise.Noise3D(x, y, z) + y
}

// Classify возвращает форму вокселя: ниже порога - твердый
func (d *DensityField) Classify(p vec.Vec3) voxel.Shape {
	if d.Density(p) < d.threshold {
		return voxel.All
	}
	return voxel.Empty
}
