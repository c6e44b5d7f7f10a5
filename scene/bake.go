package scene

import (
	"fmt"

	"github.com/binzume/animbake/geom"
	"go.uber.org/zap"
)

type BakeType int

const (
	BakePose BakeType = 1 << iota
	BakeObject
)

type BakeOptions struct {
	OnlySelected bool
	// VisualKeying keys the evaluated transform of every baked target,
	// including paths the action does not animate.
	VisualKeying bool
	// ClearConstraints has no effect: glTF has no constraints.
	ClearConstraints bool
	// UseCurrentAction writes into the active action instead of a new one.
	UseCurrentAction bool
	Types            BakeType
}

var bakePaths = []Path{PathTranslation, PathRotation, PathScale}

// Bake samples the action of obj at every integer frame from int(frameStart)
// to int(frameEnd) and replaces the baked channels with linear keys.
// Pose baking requires obj to be active in pose mode.
func (s *Scene) Bake(obj *Object, frameStart, frameEnd float64, opt BakeOptions) error {
	if obj == nil || !s.contains(obj) {
		return ErrNotInScene
	}
	start, end := int(frameStart), int(frameEnd)
	if end < start {
		return fmt.Errorf("invalid frame range %d - %d", start, end)
	}
	if opt.Types&BakePose != 0 {
		if obj.Type != ObjectArmature {
			return ErrNotArmature
		}
		if s.mode != ModePose || s.active != obj {
			return ErrNotPoseMode
		}
	}

	src := obj.ActiveAction()
	var baked []*Channel
	if opt.Types&BakePose != 0 {
		for _, b := range obj.Armature.Bones {
			if opt.OnlySelected && !b.Selected {
				continue
			}
			baked = append(baked, bakeTarget(src, b.Name, &b.Rest, opt.VisualKeying, start, end)...)
		}
	}
	if opt.Types&BakeObject != 0 {
		baked = append(baked, bakeTarget(src, "", &obj.Rest, opt.VisualKeying, start, end)...)
	}

	dst := src
	if dst == nil || !opt.UseCurrentAction {
		dst = &Action{Name: "Action"}
		s.Data.Actions = append(s.Data.Actions, dst)
		obj.CreateAnimationData().Action = dst
	}
	replaced := map[string]bool{}
	for _, c := range baked {
		replaced[channelKey(c.Bone, c.Path)] = true
	}
	channels := dst.Channels[:0]
	for _, c := range dst.Channels {
		if !replaced[channelKey(c.Bone, c.Path)] {
			channels = append(channels, c)
		}
	}
	dst.Channels = append(channels, baked...)

	s.logger.Debug("baked", zap.String("object", obj.Name), zap.String("action", dst.Name),
		zap.Int("start", start), zap.Int("end", end), zap.Int("channels", len(baked)))
	return nil
}

func channelKey(bone string, path Path) string {
	return bone + "\x00" + path.String()
}

func bakeTarget(src *Action, bone string, rest *Transform, visual bool, start, end int) []*Channel {
	var channels []*Channel
	for _, path := range bakePaths {
		var ch *Channel
		if src != nil {
			ch = src.Channel(bone, path)
		}
		if ch != nil && len(ch.Frames) == 0 {
			ch = nil
		}
		if ch == nil && !visual {
			continue
		}

		out := &Channel{Bone: bone, Path: path, Interpolation: InterpolationLinear}
		var prev []float32
		for f := start; f <= end; f++ {
			var v []float32
			if ch != nil {
				v = ch.Sample(float64(f))
			} else {
				v = rest.value(path)
			}
			if path == PathRotation && prev != nil {
				// keep quaternions on the same hemisphere
				q := geom.NewQuaternionFromSlice(v)
				if q.Dot(geom.NewQuaternionFromSlice(prev)) < 0 {
					q.Scale(-1).ToArray(v)
				}
			}
			out.Frames = append(out.Frames, float64(f))
			out.Values = append(out.Values, v...)
			prev = v
		}
		channels = append(channels, out)
	}
	return channels
}
