package vec

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorDiv(t *testing.T) {
	cases := []struct {
		a, b, want int
	}{
		{0, 8, 0},
		{7, 8, 0},
		{8, 8, 1},
		{-1, 8, -1},
		{-8, 8, -1},
		{-9, 8, -2},
		{-16, 8, -2},
		{15, 8, 1},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, FloorDiv(c.a, c.b), "FloorDiv(%d, %d)", c.a, c.b)
	}
}

func TestFloorMod(t *testing.T) {
	assert.Equal(t, 7, FloorMod(-1, 8))
	assert.Equal(t, 0, FloorMod(-8, 8))
	assert.Equal(t, 7, FloorMod(-9, 8))
	assert.Equal(t, 3, FloorMod(11, 8))
}

func TestChunkLocalRoundTrip(t *testing.T) {
	// Проверяем все позиции в диапазоне, включая отрицательные
	for _, size := range []int{1, 8, 16} {
		for x := -20; x <= 20; x += 3 {
			for y := -17; y <= 17; y += 2 {
				for z := -9; z <= 9; z++ {
					p := New(x, y, z)
					chunk := p.ToChunkCoords(size)
					local := p.LocalInChunk(size)

					assert.Less(t, int(local.X), size)
					assert.Less(t, int(local.Y), size)
					assert.Less(t, int(local.Z), size)
					assert.Equal(t, p, FromChunkLocal(chunk, local, size), "size=%d pos=%v", size, p)
				}
			}
		}
	}
}

func TestNegativePositionMapsToNegativeChunk(t *testing.T) {
	p := New(-1, -8, -9)
	assert.Equal(t, New(-1, -1, -2), p.ToChunkCoords(8))
	assert.Equal(t, UVec3{X: 7, Y: 0, Z: 7}, p.LocalInChunk(8))
}

func TestVec3Arithmetic(t *testing.T) {
	a := New(1, 2, 3)
	b := New(-4, 5, 0)

	assert.Equal(t, New(-3, 7, 3), a.Add(b))
	assert.Equal(t, New(5, -3, 3), a.Sub(b))
	assert.Equal(t, New(-1, -2, -3), a.Neg())
	assert.Equal(t, New(8, 16, 24), a.Scale(8))
	assert.Equal(t, 6, a.Volume())
	assert.True(t, a.Equals(New(1, 2, 3)))
	assert.Equal(t, float32(3), a.ToMgl().Z())
}
