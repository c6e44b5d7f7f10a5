package scene

import (
	"math"
	"testing"
)

func TestChannelSample(t *testing.T) {
	const eps = 0.00001

	linear := &Channel{Path: PathTranslation, Frames: []float64{0, 10}, Values: []float32{0, 0, 0, 10, 20, 30}}
	if v := linear.Sample(5); math.Abs(float64(v[0]-5)) > eps || math.Abs(float64(v[1]-10)) > eps || math.Abs(float64(v[2]-15)) > eps {
		t.Error("linear: ", v)
	}
	if v := linear.Sample(-1); v[2] != 0 {
		t.Error("before first key: ", v)
	}
	if v := linear.Sample(100); v[2] != 30 {
		t.Error("after last key: ", v)
	}

	step := &Channel{Path: PathScale, Interpolation: InterpolationStep, Frames: []float64{0, 10}, Values: []float32{1, 1, 1, 2, 2, 2}}
	if v := step.Sample(9.9); v[0] != 1 {
		t.Error("step: ", v)
	}
	if v := step.Sample(10); v[0] != 2 {
		t.Error("step: ", v)
	}

	s := float32(math.Sin(math.Pi / 4))
	rot := &Channel{Path: PathRotation, Frames: []float64{0, 2}, Values: []float32{0, 0, 0, 1, 0, 0, s, s}}
	v := rot.Sample(1)
	half := [4]float32{0, 0, float32(math.Sin(math.Pi / 8)), float32(math.Cos(math.Pi / 8))}
	for i := range half {
		if math.Abs(float64(v[i]-half[i])) > eps {
			t.Error("slerp: ", v, half)
			break
		}
	}

	// in-tangent, value, out-tangent per key; zero tangents give smoothstep
	cubic := &Channel{Path: PathTranslation, Interpolation: InterpolationCubicSpline, Frames: []float64{0, 4},
		Values: []float32{
			0, 0, 0, 0, 0, 0, 0, 0, 0,
			0, 0, 0, 8, 0, 0, 0, 0, 0,
		}}
	if v := cubic.Sample(2); math.Abs(float64(v[0]-4)) > eps {
		t.Error("cubic midpoint: ", v)
	}
	if v := cubic.Sample(1); math.Abs(float64(v[0]-8*(3.0/16-2.0/64))) > eps {
		t.Error("cubic: ", v)
	}
	if v := cubic.Sample(4); v[0] != 8 {
		t.Error("cubic last: ", v)
	}

	if (&Channel{}).Sample(0) != nil {
		t.Error("empty channel should return nil")
	}
}

func TestActionFrameRange(t *testing.T) {
	a := &Action{Channels: []*Channel{
		{Path: PathTranslation, Frames: []float64{3, 10}, Values: make([]float32, 6)},
		{Path: PathRotation, Frames: []float64{1, 24}, Values: make([]float32, 8)},
	}}
	if start, end := a.FrameRange(); start != 1 || end != 24 {
		t.Error("range: ", start, end)
	}

	single := &Action{Channels: []*Channel{{Path: PathScale, Frames: []float64{5}, Values: make([]float32, 3)}}}
	if start, end := single.FrameRange(); start != 5 || end != 6 {
		t.Error("single key range: ", start, end)
	}

	if start, end := (&Action{}).FrameRange(); start != 0 || end != 1 {
		t.Error("empty range: ", start, end)
	}
}

func TestActionCopy(t *testing.T) {
	a := &Action{Name: "run", Channels: []*Channel{{Bone: "Hips", Path: PathTranslation, Frames: []float64{0}, Values: []float32{1, 2, 3}}}}
	c := a.Copy()
	c.Channels[0].Values[0] = 100
	c.Channels[0].Frames[0] = 100
	if a.Channels[0].Values[0] != 1 || a.Channels[0].Frames[0] != 0 {
		t.Error("copy shares data")
	}
	if c.Name != "run" || c.Channel("Hips", PathTranslation) == nil {
		t.Error("copy: ", c)
	}
}
