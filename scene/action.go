package scene

import (
	"math"
	"sort"

	"github.com/binzume/animbake/geom"
)

type Path int

const (
	PathTranslation Path = iota
	PathRotation
	PathScale
)

func (p Path) String() string {
	switch p {
	case PathRotation:
		return "rotation"
	case PathScale:
		return "scale"
	}
	return "translation"
}

type Interpolation int

const (
	InterpolationLinear Interpolation = iota
	InterpolationStep
	InterpolationCubicSpline
)

// Action is a named keyframe track. Channels are keyed by bone name, an
// empty bone name addresses the owning object itself.
type Action struct {
	Name     string
	Channels []*Channel
}

type Channel struct {
	Bone          string
	Path          Path
	Interpolation Interpolation
	Frames        []float64
	// Width() values per key. Cubic splines store in-tangent, value and
	// out-tangent per key, with tangents in units per frame.
	Values []float32
}

func (a *Action) Copy() *Action {
	c := &Action{Name: a.Name}
	for _, ch := range a.Channels {
		c.Channels = append(c.Channels, ch.Copy())
	}
	return c
}

func (a *Action) Channel(bone string, path Path) *Channel {
	for _, ch := range a.Channels {
		if ch.Bone == bone && ch.Path == path {
			return ch
		}
	}
	return nil
}

// FrameRange returns the first and last keyframe over all channels.
// The range is at least one frame long.
func (a *Action) FrameRange() (float64, float64) {
	start, end := math.Inf(1), math.Inf(-1)
	for _, ch := range a.Channels {
		if len(ch.Frames) == 0 {
			continue
		}
		start = math.Min(start, ch.Frames[0])
		end = math.Max(end, ch.Frames[len(ch.Frames)-1])
	}
	if start > end {
		return 0, 1
	}
	if end <= start {
		end = start + 1
	}
	return start, end
}

func (c *Channel) Copy() *Channel {
	d := *c
	d.Frames = append([]float64(nil), c.Frames...)
	d.Values = append([]float32(nil), c.Values...)
	return &d
}

func (c *Channel) Width() int {
	if c.Path == PathRotation {
		return 4
	}
	return 3
}

func (c *Channel) stride() int {
	if c.Interpolation == InterpolationCubicSpline {
		return c.Width() * 3
	}
	return c.Width()
}

func (c *Channel) key(i int) []float32 {
	w := c.Width()
	p := i * c.stride()
	if c.Interpolation == InterpolationCubicSpline {
		p += w
	}
	return c.Values[p : p+w]
}

// Sample evaluates the channel at frame. Values are clamped outside of the key range.
func (c *Channel) Sample(frame float64) []float32 {
	n := len(c.Frames)
	if n == 0 {
		return nil
	}
	if frame <= c.Frames[0] {
		return append([]float32(nil), c.key(0)...)
	}
	if frame >= c.Frames[n-1] {
		return append([]float32(nil), c.key(n-1)...)
	}
	i := sort.Search(n, func(i int) bool { return c.Frames[i] > frame }) - 1
	f0, f1 := c.Frames[i], c.Frames[i+1]
	t := float32((frame - f0) / (f1 - f0))
	v0, v1 := c.key(i), c.key(i+1)
	w := c.Width()
	r := make([]float32, w)

	switch c.Interpolation {
	case InterpolationStep:
		copy(r, v0)
	case InterpolationCubicSpline:
		dt := float32(f1 - f0)
		t2 := t * t
		t3 := t2 * t
		out0 := c.Values[i*c.stride()+2*w : i*c.stride()+3*w]
		in1 := c.Values[(i+1)*c.stride() : (i+1)*c.stride()+w]
		for j := range r {
			r[j] = (2*t3-3*t2+1)*v0[j] + (t3-2*t2+t)*dt*out0[j] + (-2*t3+3*t2)*v1[j] + (t3-t2)*dt*in1[j]
		}
		if c.Path == PathRotation {
			geom.NewQuaternionFromSlice(r).Normalize().ToArray(r)
		}
	default:
		if c.Path == PathRotation {
			geom.NewQuaternionFromSlice(v0).Slerp(geom.NewQuaternionFromSlice(v1), t).ToArray(r)
		} else {
			geom.NewVector3FromSlice(v0).Lerp(geom.NewVector3FromSlice(v1), t).ToArray(r)
		}
	}
	return r
}
