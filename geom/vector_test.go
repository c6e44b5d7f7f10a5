package geom

import (
	"testing"
)

func TestVector3(t *testing.T) {
	v := NewVector3FromSlice([]float32{3, 4, 0, 9})
	if v.Len() != 5 {
		t.Error("Len: ", v.Len())
	}

	if *NewVector3FromSlice([]float32{0, 0, 0}).Lerp(&Vector3{X: 2, Y: 4, Z: 8}, 0.5) != (Vector3{X: 1, Y: 2, Z: 4}) {
		t.Error("Vector.Lerp()")
	}

	var arr [3]float32
	v.ToArray(arr[:])
	if arr != [3]float32{3, 4, 0} {
		t.Error("Vector.ToArray()", arr)
	}
}
