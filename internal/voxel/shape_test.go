package voxel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestShapeLayout(t *testing.T) {
	// Раскладка битов должна совпадать с форматом масок
	assert.Equal(t, uint8(0b_0011_0011), West.Bits())
	assert.Equal(t, uint8(0b_0110_0110), North.Bits())
	assert.Equal(t, uint8(0b_1100_1100), East.Bits())
	assert.Equal(t, uint8(0b_1001_1001), South.Bits())
	assert.Equal(t, uint8(0b_0000_1111), Bottom.Bits())
	assert.Equal(t, uint8(0b_1111_0000), Top.Bits())
	assert.Equal(t, uint8(0b_0000_1001), BottomSouth.Bits())
	assert.Equal(t, uint8(0b_1100_0000), TopEast.Bits())

	assert.Equal(t, All, West.Append(East))
	assert.Equal(t, All, North.Append(South))
	assert.Equal(t, All, Top.Append(Bottom))
}

func TestShapeAlgebraExhaustive(t *testing.T) {
	for i := 0; i < 256; i++ {
		a := Shape(i)

		assert.False(t, Empty.Overlaps(a), "EMPTY не должен перекрываться с %v", a)
		assert.True(t, a.Contains(Empty))
		assert.True(t, All.Contains(a))

		for j := 0; j < 256; j += 7 {
			b := Shape(j)
			shareBit := uint8(a)&uint8(b) != 0

			assert.True(t, a.Append(b).Contains(b), "%v.Append(%v) должен содержать %v", a, b, b)
			assert.Equal(t, shareBit, a.Mask(b).Overlaps(b), "a=%v b=%v", a, b)
			assert.Equal(t, shareBit, a.Overlaps(b))
			assert.Equal(t, !shareBit, a.Available(b))
		}
	}
}

func TestShapeContainsIsSuperset(t *testing.T) {
	assert.True(t, All.Contains(South))
	assert.True(t, South.Contains(BottomSouthWest))
	assert.False(t, South.Contains(North))
	assert.False(t, Bottom.Contains(Top))
	assert.True(t, Bottom.Available(Top))
	assert.Equal(t, BottomSouth, South.Mask(Bottom))
}

func TestShapeString(t *testing.T) {
	assert.Equal(t, "ALL", All.String())
	assert.Equal(t, "EMPTY", Empty.String())
	assert.Equal(t, "NORTH", North.String())
	assert.Equal(t, "0b00010010", Shape(0b_0001_0010).String())
}

func TestDataIsSolid(t *testing.T) {
	assert.False(t, Data{}.IsSolid())
	assert.True(t, Data{Shape: TopNorthEast}.IsSolid())
}
