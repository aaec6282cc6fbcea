package voxel

// Data - состояние одного вокселя. Принадлежит своему чанку
// и наружу по ссылке не отдается.
type Data struct {
	Shape Shape
}

// IsSolid возвращает true для любого непустого вокселя
func (d Data) IsSolid() bool {
	return !d.Shape.IsEmpty()
}
