package voxel

import "fmt"

// Shape - 8-битная маска занятости вокселя, по одному биту на октант куба.
// Раскладка битов фиксирована и общая для всех вокселей, на ней строятся
// проверки перекрытия соседних граней.
type Shape uint8

// Углы (октанты) куба
const (
	Empty Shape = 0b_0000_0000
	All   Shape = 0b_1111_1111

	BottomSouthWest Shape = 0b_0000_0001
	BottomNorthWest Shape = 0b_0000_0010
	BottomNorthEast Shape = 0b_0000_0100
	BottomSouthEast Shape = 0b_0000_1000

	TopSouthWest Shape = 0b_0001_0000
	TopNorthWest Shape = 0b_0010_0000
	TopNorthEast Shape = 0b_0100_0000
	TopSouthEast Shape = 0b_1000_0000
)

// Ребра
const (
	BottomWest  = BottomSouthWest | BottomNorthWest
	BottomNorth = BottomNorthWest | BottomNorthEast
	BottomEast  = BottomNorthEast | BottomSouthEast
	BottomSouth = BottomSouthWest | BottomSouthEast

	TopWest  = TopSouthWest | TopNorthWest
	TopNorth = TopNorthWest | TopNorthEast
	TopEast  = TopNorthEast | TopSouthEast
	TopSouth = TopSouthWest | TopSouthEast
)

// Грани
const (
	West  = BottomWest | TopWest
	North = BottomNorth | TopNorth
	East  = BottomEast | TopEast
	South = BottomSouth | TopSouth

	Bottom = BottomWest | BottomEast
	Top    = TopWest | TopEast
)

var shapeNames = map[Shape]string{
	Empty:           "EMPTY",
	All:             "ALL",
	BottomSouthWest: "BOTTOM_SOUTH_WEST",
	BottomNorthWest: "BOTTOM_NORTH_WEST",
	BottomNorthEast: "BOTTOM_NORTH_EAST",
	BottomSouthEast: "BOTTOM_SOUTH_EAST",
	TopSouthWest:    "TOP_SOUTH_WEST",
	TopNorthWest:    "TOP_NORTH_WEST",
	TopNorthEast:    "TOP_NORTH_EAST",
	TopSouthEast:    "TOP_SOUTH_EAST",
	BottomWest:      "BOTTOM_WEST",
	BottomNorth:     "BOTTOM_NORTH",
	BottomEast:      "BOTTOM_EAST",
	BottomSouth:     "BOTTOM_SOUTH",
	TopWest:         "TOP_WEST",
	TopNorth:        "TOP_NORTH",
	TopEast:         "TOP_EAST",
	TopSouth:        "TOP_SOUTH",
	West:            "WEST",
	North:           "NORTH",
	East:            "EAST",
	South:           "SOUTH",
	Bottom:          "BOTTOM",
	Top:             "TOP",
}

// Contains возвращает true, если s включает все биты other
func (s Shape) Contains(other Shape) bool {
	return s&other == other
}

// Overlaps возвращает true, если у форм есть хотя бы один общий бит
func (s Shape) Overlaps(other Shape) bool {
	return s&other != 0
}

// Available возвращает true, если место под other полностью свободно
func (s Shape) Available(other Shape) bool {
	return s&other == 0
}

// Append объединяет формы (OR)
func (s Shape) Append(other Shape) Shape {
	return s | other
}

// Mask оставляет только общие биты (AND)
func (s Shape) Mask(other Shape) Shape {
	return s & other
}

// IsEmpty проверяет, что воксель пустой
func (s Shape) IsEmpty() bool {
	return s == Empty
}

// Bits возвращает сырую маску
func (s Shape) Bits() uint8 {
	return uint8(s)
}

// String возвращает имя известной формы или двоичную запись маски
func (s Shape) String() string {
	if name, ok := shapeNames[s]; ok {
		return name
	}
	return fmt.Sprintf("0b%08b", uint8(s))
}
