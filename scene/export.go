package scene

import (
	"fmt"
	"path/filepath"

	"github.com/binzume/animbake/gltfutil"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

type ExportOptions struct {
	Animations             bool
	Skins                  bool
	TextureResolutionLimit int // 0: unlimited
}

// Export writes the scene as a self-contained GLB file, overwriting path.
// Each armature's active action is exported as one animation.
func (s *Scene) Export(path string, opt ExportOptions) error {
	if len(s.objects) == 0 {
		return ErrEmptyScene
	}
	src := s.objects[0].source
	for _, obj := range s.objects {
		if obj.source != src {
			return ErrMixedSources
		}
	}

	doc := gltfutil.Clone(src.doc)
	doc.Animations = nil
	for _, obj := range src.objects {
		// removed objects don't render
		if obj.node != nil && !s.contains(obj) {
			n := doc.Nodes[*obj.node]
			n.Mesh = nil
			n.Skin = nil
		}
	}

	if opt.Animations {
		for _, obj := range s.objects {
			if obj.Type != ObjectArmature || obj.ActiveAction() == nil {
				continue
			}
			if anim := s.buildAnimation(doc, obj, obj.ActiveAction()); anim != nil {
				doc.Animations = append(doc.Animations, anim)
			}
		}
	}
	if !opt.Skins {
		doc.Skins = nil
		for _, n := range doc.Nodes {
			n.Skin = nil
		}
	}

	err := gltfutil.ToSingleFile(doc, filepath.Dir(src.path), &gltfutil.TextureOption{
		ResolutionLimit: opt.TextureResolutionLimit,
		Logger:          s.logger,
	})
	if err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	gltfutil.MergeBuffers(doc)
	if err := gltf.SaveBinary(doc, path); err != nil {
		return fmt.Errorf("export %s: %w", path, err)
	}
	s.logger.Debug("exported", zap.String("file", path), zap.Int("animations", len(doc.Animations)))
	return nil
}

func framesEqual(a, b []float64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func (s *Scene) channelNode(obj *Object, c *Channel) (uint32, bool) {
	if c.Bone == "" {
		if obj.node == nil {
			return 0, false
		}
		return *obj.node, true
	}
	if b := obj.Armature.Bone(c.Bone); b != nil {
		return b.node, true
	}
	return 0, false
}

func (s *Scene) buildAnimation(doc *gltf.Document, obj *Object, action *Action) *gltf.Animation {
	a := &gltf.Animation{Name: action.Name}
	fps := float32(s.FrameRate)

	var prevFrames []float64
	var prevKeysAcc uint32
	for _, c := range action.Channels {
		node, ok := s.channelNode(obj, c)
		if !ok || len(c.Frames) == 0 {
			s.logger.Debug("channel not exported", zap.String("action", action.Name), zap.String("bone", c.Bone), zap.Stringer("path", c.Path))
			continue
		}

		var keysAcc uint32
		if prevFrames != nil && framesEqual(c.Frames, prevFrames) {
			keysAcc = prevKeysAcc
		} else {
			keys := make([]float32, len(c.Frames))
			for i, f := range c.Frames {
				keys[i] = float32(f) / fps
			}
			keysAcc = modeler.WriteAccessor(doc, gltf.TargetNone, keys)
			doc.Accessors[keysAcc].Min = []float32{keys[0]}
			doc.Accessors[keysAcc].Max = []float32{keys[len(keys)-1]}
		}

		values := c.Values
		if c.Interpolation == InterpolationCubicSpline {
			// tangents per frame => per second
			values = append([]float32(nil), c.Values...)
			w := c.Width()
			for i := 0; i < len(c.Frames); i++ {
				p := i * c.stride()
				for j := 0; j < w; j++ {
					values[p+j] *= fps
					values[p+2*w+j] *= fps
				}
			}
		}

		var samplesAcc uint32
		var path gltf.TRSProperty
		if c.Path == PathRotation {
			rotations := make([][4]float32, len(values)/4)
			for i := range rotations {
				copy(rotations[i][:], values[i*4:])
			}
			samplesAcc = modeler.WriteAccessor(doc, gltf.TargetNone, rotations)
			path = gltf.TRSRotation
		} else {
			vectors := make([][3]float32, len(values)/3)
			for i := range vectors {
				copy(vectors[i][:], values[i*3:])
			}
			samplesAcc = modeler.WriteAccessor(doc, gltf.TargetNone, vectors)
			path = gltf.TRSTranslation
			if c.Path == PathScale {
				path = gltf.TRSScale
			}
		}

		interpolation := gltf.InterpolationLinear
		switch c.Interpolation {
		case InterpolationStep:
			interpolation = gltf.InterpolationStep
		case InterpolationCubicSpline:
			interpolation = gltf.InterpolationCubicSpline
		}
		a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
			Input:         gltf.Index(keysAcc),
			Output:        gltf.Index(samplesAcc),
			Interpolation: interpolation,
		})
		a.Channels = append(a.Channels, &gltf.Channel{
			Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
			Target: gltf.ChannelTarget{
				Node: gltf.Index(node),
				Path: path,
			},
		})

		prevFrames = c.Frames
		prevKeysAcc = keysAcc
	}
	if len(a.Channels) == 0 {
		return nil
	}
	return a
}
