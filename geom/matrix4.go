package geom

import "math"

// column-major matrix
type Matrix4 [16]Element

func NewMatrix4FromSlice(a []Element) *Matrix4 {
	mat := &Matrix4{}
	copy(mat[:], a[:])
	return mat
}

func (m *Matrix4) Det() float32 {
	var (
		t11 = m[9]*m[14]*m[7] - m[13]*m[10]*m[7] + m[13]*m[6]*m[11] - m[5]*m[14]*m[11] - m[9]*m[6]*m[15] + m[5]*m[10]*m[15]
		t12 = m[12]*m[10]*m[7] - m[8]*m[14]*m[7] - m[12]*m[6]*m[11] + m[4]*m[14]*m[11] + m[8]*m[6]*m[15] - m[4]*m[10]*m[15]
		t13 = m[8]*m[13]*m[7] - m[12]*m[9]*m[7] + m[12]*m[5]*m[11] - m[4]*m[13]*m[11] - m[8]*m[5]*m[15] + m[4]*m[9]*m[15]
		t14 = m[12]*m[9]*m[6] - m[8]*m[13]*m[6] - m[12]*m[5]*m[10] + m[4]*m[13]*m[10] + m[8]*m[5]*m[14] - m[4]*m[9]*m[14]
	)
	return m[0]*t11 + m[1]*t12 + m[2]*t13 + m[3]*t14
}

// Decompose splits an affine matrix into translation, rotation and scale.
func (m *Matrix4) Decompose() (*Vector3, *Quaternion, *Vector3) {
	pos := &Vector3{X: m[12], Y: m[13], Z: m[14]}
	scale := &Vector3{
		X: NewVector3FromSlice(m[0:3]).Len(),
		Y: NewVector3FromSlice(m[4:7]).Len(),
		Z: NewVector3FromSlice(m[8:11]).Len(),
	}
	if m.Det() < 0 {
		scale.X = -scale.X
	}
	if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		return pos, &Quaternion{W: 1}, scale
	}

	// rotation part, r(row, col) = m[col*4+row]
	var (
		r00, r10, r20 = m[0] / scale.X, m[1] / scale.X, m[2] / scale.X
		r01, r11, r21 = m[4] / scale.Y, m[5] / scale.Y, m[6] / scale.Y
		r02, r12, r22 = m[8] / scale.Z, m[9] / scale.Z, m[10] / scale.Z
	)
	q := &Quaternion{}
	trace := r00 + r11 + r22
	if trace > 0 {
		s := 0.5 / Element(math.Sqrt(float64(trace+1)))
		q.W = 0.25 / s
		q.X = (r21 - r12) * s
		q.Y = (r02 - r20) * s
		q.Z = (r10 - r01) * s
	} else if r00 > r11 && r00 > r22 {
		s := 2 * Element(math.Sqrt(float64(1+r00-r11-r22)))
		q.W = (r21 - r12) / s
		q.X = 0.25 * s
		q.Y = (r01 + r10) / s
		q.Z = (r02 + r20) / s
	} else if r11 > r22 {
		s := 2 * Element(math.Sqrt(float64(1+r11-r00-r22)))
		q.W = (r02 - r20) / s
		q.X = (r01 + r10) / s
		q.Y = 0.25 * s
		q.Z = (r12 + r21) / s
	} else {
		s := 2 * Element(math.Sqrt(float64(1+r22-r00-r11)))
		q.W = (r10 - r01) / s
		q.X = (r02 + r20) / s
		q.Y = (r12 + r21) / s
		q.Z = 0.25 * s
	}
	return pos, q.Normalize(), scale
}
