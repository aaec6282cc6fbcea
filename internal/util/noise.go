package util

import (
	"github.com/aquilax/go-perlin"
)

// NoiseParams - параметры генератора шума Перлина
type NoiseParams struct {
	Alpha   float64 // Сглаживание шума (делитель амплитуды между октавами)
	Beta    float64 // Частота шума (множитель частоты между октавами)
	Octaves int32   // Количество октав
	Seed    int64
}

// DefaultNoiseParams возвращает параметры одной октавы классического шума
func DefaultNoiseParams() NoiseParams {
	return NoiseParams{
		Alpha:   2.0,
		Beta:    2.0,
		Octaves: 1,
		Seed:    0,
	}
}

// PerlinNoise - генератор когерентного шума с фиксированным сидом.
// После создания только читается, поэтому его можно использовать из нескольких горутин.
type PerlinNoise struct {
	params NoiseParams
	p      *perlin.Perlin
}

// NewPerlinNoise инициализирует генератор шума Перлина с указанными параметрами
func NewPerlinNoise(params NoiseParams) *PerlinNoise {
	if params.Octaves <= 0 {
		params.Octaves = 1
	}
	return &PerlinNoise{
		params: params,
		p:      perlin.NewPerlin(params.Alpha, params.Beta, params.Octaves, params.Seed),
	}
}

// Params возвращает параметры генератора
func (n *PerlinNoise) Params() NoiseParams {
	return n.params
}

// Noise3D возвращает значение 3D шума (примерно от -1 до 1 для одной октавы)
func (n *PerlinNoise) Noise3D(x, y, z float64) float64 {
	return n.p.Noise3D(x, y, z)
}
