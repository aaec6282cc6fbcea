package vec

import "github.com/go-gl/mathgl/mgl32"

// Vec3 представляет трехмерный вектор с целочисленными координатами.
// Используется как для мировых позиций вокселей, так и для координат чанков.
type Vec3 struct {
	X int
	Y int
	Z int
}

// UVec3 - беззнаковые локальные координаты внутри чанка
type UVec3 struct {
	X uint32
	Y uint32
	Z uint32
}

// Единичные векторы по осям
var (
	UnitX = Vec3{X: 1}
	UnitY = Vec3{Y: 1}
	UnitZ = Vec3{Z: 1}
)

// New создает Vec3 из трех координат
func New(x, y, z int) Vec3 {
	return Vec3{X: x, Y: y, Z: z}
}

// Equals проверяет равенство векторов
func (v Vec3) Equals(other Vec3) bool {
	return v.X == other.X && v.Y == other.Y && v.Z == other.Z
}

// Add складывает два вектора
func (v Vec3) Add(other Vec3) Vec3 {
	return Vec3{
		X: v.X + other.X,
		Y: v.Y + other.Y,
		Z: v.Z + other.Z,
	}
}

// Sub вычитает вектор
func (v Vec3) Sub(other Vec3) Vec3 {
	return Vec3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Neg возвращает противоположный вектор
func (v Vec3) Neg() Vec3 {
	return Vec3{X: -v.X, Y: -v.Y, Z: -v.Z}
}

// Scale умножает все компоненты на скаляр
func (v Vec3) Scale(s int) Vec3 {
	return Vec3{X: v.X * s, Y: v.Y * s, Z: v.Z * s}
}

// Volume возвращает произведение компонент (количество ячеек в кубоиде)
func (v Vec3) Volume() int {
	return v.X * v.Y * v.Z
}

// ToChunkCoords преобразует мировые координаты в координаты чанка.
// Используется деление с округлением вниз, поэтому -1 попадает в чанк -1, а не 0.
func (v Vec3) ToChunkCoords(chunkSize int) Vec3 {
	return Vec3{
		X: FloorDiv(v.X, chunkSize),
		Y: FloorDiv(v.Y, chunkSize),
		Z: FloorDiv(v.Z, chunkSize),
	}
}

// LocalInChunk возвращает локальные координаты внутри чанка (всегда в [0, chunkSize))
func (v Vec3) LocalInChunk(chunkSize int) UVec3 {
	return UVec3{
		X: uint32(FloorMod(v.X, chunkSize)),
		Y: uint32(FloorMod(v.Y, chunkSize)),
		Z: uint32(FloorMod(v.Z, chunkSize)),
	}
}

// FromChunkLocal восстанавливает мировую позицию: chunk * chunkSize + local
func FromChunkLocal(chunk Vec3, local UVec3, chunkSize int) Vec3 {
	return chunk.Scale(chunkSize).Add(local.ToVec3())
}

// ToMgl переводит вектор в mgl32.Vec3
func (v Vec3) ToMgl() mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// ToVec3 переводит локальные координаты в знаковые
func (u UVec3) ToVec3() Vec3 {
	return Vec3{X: int(u.X), Y: int(u.Y), Z: int(u.Z)}
}

// FloorDiv делит с округлением к минус бесконечности (в отличие от оператора /)
func FloorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// FloorMod - остаток, согласованный с FloorDiv: a == FloorDiv(a,b)*b + FloorMod(a,b)
func FloorMod(a, b int) int {
	m := a % b
	if m != 0 && ((m < 0) != (b < 0)) {
		m += b
	}
	return m
}
