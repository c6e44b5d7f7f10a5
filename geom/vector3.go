package geom

import "math"

type Element = float32

type Vector3 struct {
	X Element
	Y Element
	Z Element
}

func NewVector3FromSlice(arr []Element) *Vector3 {
	return &Vector3{X: arr[0], Y: arr[1], Z: arr[2]}
}

// Lerp returns v + (v2 - v) * t.
func (v *Vector3) Lerp(v2 *Vector3, t Element) *Vector3 {
	return &Vector3{X: v.X + (v2.X-v.X)*t, Y: v.Y + (v2.Y-v.Y)*t, Z: v.Z + (v2.Z-v.Z)*t}
}

func (v *Vector3) Len() Element {
	return Element(math.Sqrt(float64(v.X*v.X + v.Y*v.Y + v.Z*v.Z)))
}

func (v *Vector3) ToArray(array []Element) {
	array[0] = v.X
	array[1] = v.Y
	array[2] = v.Z
}
