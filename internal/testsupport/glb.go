// Package testsupport writes small GLB fixtures for tests.
package testsupport

import (
	"fmt"
	"math"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
)

// Model describes a skinned model: an armature node holding a bone chain and
// mesh nodes bound to it, optionally with one animation.
type Model struct {
	Armature string
	Bones    []string
	Meshes   int
	// Skins lists the bone indices of each skin. Nil means one skin with
	// every bone. Mesh i is bound to skin i modulo the skin count.
	Skins [][]int

	// Animation keys every bone at each integer frame from StartFrame to EndFrame.
	Animation  string
	StartFrame int
	EndFrame   int
	FrameRate  float64
}

// DefaultBones is a short Mixamo style chain.
var DefaultBones = []string{"mixamorig:Hips", "mixamorig:Spine", "mixamorig:Neck", "mixamorig:Head"}

// BoneRotation is the rotation fixtures key for bone b at frame f.
func BoneRotation(b, f int) [4]float32 {
	a := float64(f) * 0.05 * float64(b+1)
	return [4]float32{0, float32(math.Sin(a / 2)), 0, float32(math.Cos(a / 2))}
}

// RootTranslation is the translation fixtures key for the first bone at frame f.
func RootTranslation(f int) [3]float32 {
	return [3]float32{0, 1, float32(f) * 0.1}
}

func newNode(name string) *gltf.Node {
	return &gltf.Node{
		Name:     name,
		Matrix:   [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1},
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

func (m *Model) Document() *gltf.Document {
	doc := gltf.NewDocument()
	armature := newNode(m.Armature)
	doc.Nodes = append(doc.Nodes, armature)

	var joints []uint32
	for i, name := range m.Bones {
		n := newNode(name)
		n.Translation = [3]float32{0, 1, 0}
		idx := uint32(len(doc.Nodes))
		if i == 0 {
			armature.Children = append(armature.Children, idx)
		} else {
			doc.Nodes[idx-1].Children = append(doc.Nodes[idx-1].Children, idx)
		}
		doc.Nodes = append(doc.Nodes, n)
		joints = append(joints, idx)
	}
	if m.Skins == nil && len(joints) > 0 {
		doc.Skins = []*gltf.Skin{{Name: m.Armature, Joints: joints}}
	}
	for i, bones := range m.Skins {
		skin := &gltf.Skin{Name: fmt.Sprintf("%s_%d", m.Armature, i)}
		for _, b := range bones {
			skin.Joints = append(skin.Joints, joints[b])
		}
		doc.Skins = append(doc.Skins, skin)
	}

	for i := 0; i < m.Meshes; i++ {
		pos := modeler.WritePosition(doc, [][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
		doc.Meshes = append(doc.Meshes, &gltf.Mesh{
			Name:       fmt.Sprintf("Mesh%d", i),
			Primitives: []*gltf.Primitive{{Attributes: map[string]uint32{"POSITION": pos}}},
		})
		n := newNode(fmt.Sprintf("Body%d", i))
		n.Mesh = gltf.Index(uint32(len(doc.Meshes) - 1))
		if len(doc.Skins) > 0 {
			n.Skin = gltf.Index(uint32(i % len(doc.Skins)))
		}
		armature.Children = append(armature.Children, uint32(len(doc.Nodes)))
		doc.Nodes = append(doc.Nodes, n)
	}

	doc.Scenes = []*gltf.Scene{{Name: "Scene", Nodes: []uint32{0}}}
	doc.Scene = gltf.Index(0)

	if m.Animation != "" && len(joints) > 0 {
		doc.Animations = append(doc.Animations, m.animation(doc, joints))
	}
	return doc
}

func (m *Model) animation(doc *gltf.Document, joints []uint32) *gltf.Animation {
	fps := m.FrameRate
	if fps == 0 {
		fps = 24
	}
	var keys []float32
	for f := m.StartFrame; f <= m.EndFrame; f++ {
		keys = append(keys, float32(float64(f)/fps))
	}
	keysAcc := modeler.WriteAccessor(doc, gltf.TargetNone, keys)
	doc.Accessors[keysAcc].Min = []float32{keys[0]}
	doc.Accessors[keysAcc].Max = []float32{keys[len(keys)-1]}

	a := &gltf.Animation{Name: m.Animation}
	addChannel := func(node uint32, path gltf.TRSProperty, output uint32) {
		a.Samplers = append(a.Samplers, &gltf.AnimationSampler{
			Input:         gltf.Index(keysAcc),
			Output:        gltf.Index(output),
			Interpolation: gltf.InterpolationLinear,
		})
		a.Channels = append(a.Channels, &gltf.Channel{
			Sampler: gltf.Index(uint32(len(a.Samplers) - 1)),
			Target:  gltf.ChannelTarget{Node: gltf.Index(node), Path: path},
		})
	}

	var translations [][3]float32
	for f := m.StartFrame; f <= m.EndFrame; f++ {
		translations = append(translations, RootTranslation(f))
	}
	addChannel(joints[0], gltf.TRSTranslation, modeler.WriteAccessor(doc, gltf.TargetNone, translations))

	for b, j := range joints {
		var rotations [][4]float32
		for f := m.StartFrame; f <= m.EndFrame; f++ {
			rotations = append(rotations, BoneRotation(b, f))
		}
		addChannel(j, gltf.TRSRotation, modeler.WriteAccessor(doc, gltf.TargetNone, rotations))
	}
	return a
}

// WriteGLB saves the model to path.
func (m *Model) WriteGLB(t testing.TB, path string) {
	t.Helper()
	if err := gltf.SaveBinary(m.Document(), path); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// Character is the model the pipeline bakes onto.
func Character() *Model {
	return &Model{Armature: "Armature", Bones: DefaultBones, Meshes: 2}
}

// Animation is a Mixamo style animation file with one mesh.
func Animation(start, end int) *Model {
	return &Model{Armature: "Armature", Bones: DefaultBones, Meshes: 1, Animation: "mixamo.com", StartFrame: start, EndFrame: end}
}
