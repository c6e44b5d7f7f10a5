// Package scene is an in-memory model of a 3D scene with armatures, meshes
// and keyframe actions, loaded from and written to glTF.
package scene

import (
	"errors"

	"github.com/qmuntal/gltf"
	"go.uber.org/zap"
)

var (
	ErrNoAnimationData = errors.New("no animation data")
	ErrNotArmature     = errors.New("object is not an armature")
	ErrNotPoseMode     = errors.New("not in pose mode")
	ErrNotInScene      = errors.New("object is not in the scene")
	ErrEmptyScene      = errors.New("scene is empty")
	ErrMixedSources    = errors.New("objects come from more than one document")
)

type Mode int

const (
	ModeObject Mode = iota
	ModePose
)

const DefaultFrameRate = 24

// Data holds data blocks. Blocks stay here after their objects are removed
// until they are purged.
type Data struct {
	Meshes    []*Mesh
	Armatures []*Armature
	Actions   []*Action
}

type source struct {
	path    string
	doc     *gltf.Document
	objects []*Object
}

type Scene struct {
	FrameRate float64
	Data      Data

	objects []*Object
	active  *Object
	mode    Mode
	logger  *zap.Logger
}

type Option func(*Scene)

func WithLogger(logger *zap.Logger) Option {
	return func(s *Scene) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithFrameRate(fps float64) Option {
	return func(s *Scene) {
		if fps > 0 {
			s.FrameRate = fps
		}
	}
}

func New(opts ...Option) *Scene {
	s := &Scene{FrameRate: DefaultFrameRate, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Scene) Objects() []*Object {
	return append([]*Object(nil), s.objects...)
}

func (s *Scene) Selected() []*Object {
	var selected []*Object
	for _, obj := range s.objects {
		if obj.selected {
			selected = append(selected, obj)
		}
	}
	return selected
}

func (s *Scene) Active() *Object {
	return s.active
}

func (s *Scene) Mode() Mode {
	return s.mode
}

func (s *Scene) contains(obj *Object) bool {
	for _, o := range s.objects {
		if o == obj {
			return true
		}
	}
	return false
}

func (s *Scene) link(obj *Object) {
	s.objects = append(s.objects, obj)
	if obj.Armature != nil {
		obj.Armature.users++
	}
	if obj.Mesh != nil {
		obj.Mesh.users++
	}
}

// Remove unlinks obj from the scene. Its data blocks become orphans when
// no other object uses them.
func (s *Scene) Remove(obj *Object) {
	for i, o := range s.objects {
		if o != obj {
			continue
		}
		s.objects = append(s.objects[:i], s.objects[i+1:]...)
		if obj.Armature != nil {
			obj.Armature.users--
		}
		if obj.Mesh != nil {
			obj.Mesh.users--
		}
		obj.selected = false
		if s.active == obj {
			s.active = nil
			s.mode = ModeObject
		}
		for _, child := range s.objects {
			if child.Parent == obj {
				child.Parent = nil
			}
		}
		return
	}
}

// Reset removes all objects and purges mesh and armature data without users.
func (s *Scene) Reset() {
	for len(s.objects) > 0 {
		s.Remove(s.objects[len(s.objects)-1])
	}
	s.active = nil
	s.mode = ModeObject
	s.purgeOrphans()
}

func (s *Scene) purgeOrphans() {
	meshes := s.Data.Meshes[:0]
	for _, m := range s.Data.Meshes {
		if m.users > 0 {
			meshes = append(meshes, m)
		}
	}
	s.Data.Meshes = meshes

	armatures := s.Data.Armatures[:0]
	for _, a := range s.Data.Armatures {
		if a.users > 0 {
			armatures = append(armatures, a)
		}
	}
	s.Data.Armatures = armatures
}

func (s *Scene) SetActive(obj *Object) {
	if s.active != obj {
		s.mode = ModeObject
	}
	s.active = obj
}

func (s *Scene) Select(obj *Object, selected bool) {
	obj.selected = selected
}

func (s *Scene) DeselectAll() {
	for _, obj := range s.objects {
		obj.selected = false
	}
}

// SetMode switches the interaction mode. Pose mode needs an active armature.
func (s *Scene) SetMode(mode Mode) error {
	if mode == ModePose && (s.active == nil || s.active.Type != ObjectArmature) {
		return ErrNotArmature
	}
	s.mode = mode
	return nil
}

// SelectAllBones selects every bone of the active armature.
func (s *Scene) SelectAllBones() error {
	if s.mode != ModePose {
		return ErrNotPoseMode
	}
	for _, b := range s.active.Armature.Bones {
		b.Selected = true
	}
	return nil
}
