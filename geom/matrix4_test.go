package geom

import (
	"math"
	"testing"
)

// trsMatrix composes translation, rotation and scale the way glTF node matrices are built.
func trsMatrix(t [3]Element, q *Quaternion, s [3]Element) []Element {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	return []Element{
		(1 - 2*y*y - 2*z*z) * s[0], (2*x*y + 2*z*w) * s[0], (2*x*z - 2*y*w) * s[0], 0,
		(2*x*y - 2*z*w) * s[1], (1 - 2*x*x - 2*z*z) * s[1], (2*y*z + 2*x*w) * s[1], 0,
		(2*x*z + 2*y*w) * s[2], (2*y*z - 2*x*w) * s[2], (1 - 2*x*x - 2*y*y) * s[2], 0,
		t[0], t[1], t[2], 1,
	}
}

func vecDiff(a *Vector3, b [3]Element) Element {
	return (&Vector3{X: a.X - b[0], Y: a.Y - b[1], Z: a.Z - b[2]}).Len()
}

func TestDecomposeMatrix(t *testing.T) {
	const eps = 0.00001

	s45 := float32(math.Sin(math.Pi / 8))
	c45 := float32(math.Cos(math.Pi / 8))
	rotations := []*Quaternion{
		{W: 1},
		{X: s45, W: c45},
		{Y: 1},                            // 180 deg around Y, trace < 0
		{X: 0.5, Y: 0.5, Z: 0.5, W: -0.5}, // w < 0
		(&Quaternion{X: 0.1, Y: 0.7, Z: -0.3, W: 0.2}).Normalize(),
	}
	for _, rot := range rotations {
		pos := [3]Element{1, 2, 3}
		scale := [3]Element{1.5, 1.6, 1.7}
		pos1, rot1, scale1 := NewMatrix4FromSlice(trsMatrix(pos, rot, scale)).Decompose()

		if vecDiff(pos1, pos) > eps {
			t.Error("pos: ", pos, pos1)
		}
		// q and -q are the same rotation
		if d := math.Abs(float64(rot.Dot(rot1))); d < 1-eps {
			t.Error("rot: ", rot, rot1)
		}
		if vecDiff(scale1, scale) > eps {
			t.Error("scale: ", scale, scale1)
		}
	}
}

func TestDecomposeDegenerateMatrix(t *testing.T) {
	m := NewMatrix4FromSlice(trsMatrix([3]Element{0, 1, 0}, &Quaternion{W: 1}, [3]Element{0, 1, 1}))
	pos, rot, scale := m.Decompose()
	if vecDiff(pos, [3]Element{0, 1, 0}) > 0 {
		t.Error("pos: ", pos)
	}
	if *rot != (Quaternion{W: 1}) {
		t.Error("rot: ", rot)
	}
	if scale.X != 0 {
		t.Error("scale: ", scale)
	}
}

func TestDecomposeMirroredMatrix(t *testing.T) {
	const eps = 0.00001
	m := NewMatrix4FromSlice(trsMatrix([3]Element{}, &Quaternion{W: 1}, [3]Element{-1, 1, 1}))
	if d := m.Det(); math.Abs(float64(d+1)) > eps {
		t.Error("Det: ", d)
	}
	_, rot, scale := m.Decompose()
	if vecDiff(scale, [3]Element{-1, 1, 1}) > eps {
		t.Error("scale: ", scale)
	}
	if math.Abs(float64(rot.W)) < 1-eps {
		t.Error("rot: ", rot)
	}
}
