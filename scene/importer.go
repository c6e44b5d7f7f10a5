package scene

import (
	"fmt"
	"math"
	"sort"

	"github.com/binzume/animbake/geom"
	"github.com/binzume/animbake/gltfutil"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
)

var identityMatrix = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

type importer struct {
	scene  *Scene
	src    *source
	doc    *gltf.Document
	logger *zap.Logger

	parent    map[uint32]uint32
	isJoint   map[uint32]bool // joints of every skin
	byNode    map[uint32]*Object
	jointOf   map[uint32]*Object // joint node => armature object
	synthetic map[uint32]*Object // root joint => armature object without a node
	meshes    map[uint32]*Mesh
	armatures []*Object
}

// Import loads a glTF or GLB file and links its objects into the scene.
// The new objects become the selection.
func (s *Scene) Import(path string) ([]*Object, error) {
	doc, err := gltfutil.Load(path)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}
	imp := &importer{
		scene:     s,
		src:       &source{path: path, doc: doc},
		doc:       doc,
		logger:    s.logger.With(zap.String("file", path)),
		parent:    map[uint32]uint32{},
		isJoint:   map[uint32]bool{},
		byNode:    map[uint32]*Object{},
		jointOf:   map[uint32]*Object{},
		synthetic: map[uint32]*Object{},
		meshes:    map[uint32]*Mesh{},
	}
	objs, err := imp.run()
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", path, err)
	}

	s.DeselectAll()
	for _, obj := range objs {
		s.link(obj)
		obj.selected = true
	}
	imp.src.objects = objs
	imp.logger.Debug("imported", zap.Int("objects", len(objs)), zap.Int("animations", len(doc.Animations)))
	return objs, nil
}

func nodeTransform(n *gltf.Node) Transform {
	if n.Matrix != identityMatrix && n.Matrix != [16]float32{} {
		t, r, s := geom.NewMatrix4FromSlice(n.Matrix[:]).Decompose()
		return Transform{
			Translation: [3]float32{t.X, t.Y, t.Z},
			Rotation:    [4]float32{r.X, r.Y, r.Z, r.W},
			Scale:       [3]float32{s.X, s.Y, s.Z},
		}
	}
	tr := Transform{Translation: n.Translation, Rotation: n.Rotation, Scale: n.Scale}
	if tr.Rotation == [4]float32{} {
		tr.Rotation = [4]float32{0, 0, 0, 1}
	}
	if tr.Scale == [3]float32{} {
		tr.Scale = [3]float32{1, 1, 1}
	}
	return tr
}

func (imp *importer) nodeName(idx uint32, prefix string) string {
	if name := imp.doc.Nodes[idx].Name; name != "" {
		return name
	}
	return fmt.Sprintf("%s_%d", prefix, idx)
}

func (imp *importer) run() ([]*Object, error) {
	doc := imp.doc
	for i, n := range doc.Nodes {
		for _, c := range n.Children {
			if int(c) >= len(doc.Nodes) {
				return nil, fmt.Errorf("node %d: invalid child %d", i, c)
			}
			imp.parent[c] = uint32(i)
		}
	}

	for si, skin := range doc.Skins {
		for _, j := range skin.Joints {
			if int(j) >= len(doc.Nodes) {
				return nil, fmt.Errorf("skin %d: invalid joint %d", si, j)
			}
			imp.isJoint[j] = true
		}
	}
	for _, skin := range doc.Skins {
		imp.addSkin(skin)
	}
	for _, a := range imp.armatures {
		bones := a.Armature.Bones
		sort.SliceStable(bones, func(i, j int) bool { return bones[i].node < bones[j].node })
	}

	for i, n := range doc.Nodes {
		idx := uint32(i)
		if imp.byNode[idx] != nil || imp.jointOf[idx] != nil {
			continue
		}
		obj := &Object{Name: imp.nodeName(idx, "node"), Type: ObjectEmpty, Rest: nodeTransform(n), source: imp.src, node: gltf.Index(idx)}
		if n.Mesh != nil {
			obj.Type = ObjectMesh
			obj.Mesh = imp.mesh(*n.Mesh)
			if doc.Nodes[i].Name == "" {
				obj.Name = obj.Mesh.Name
			}
		}
		imp.byNode[idx] = obj
	}

	var objs []*Object
	for i := range doc.Nodes {
		idx := uint32(i)
		if obj := imp.synthetic[idx]; obj != nil {
			objs = append(objs, obj)
		}
		if obj := imp.byNode[idx]; obj != nil {
			obj.Parent = imp.parentObject(idx)
			if obj.Parent == nil && doc.Nodes[i].Skin != nil && int(*doc.Nodes[i].Skin) < len(doc.Skins) {
				// skinned meshes are parented to their armature
				if joints := doc.Skins[*doc.Nodes[i].Skin].Joints; len(joints) > 0 {
					obj.Parent = imp.jointOf[joints[0]]
				}
			}
			objs = append(objs, obj)
		}
	}

	for i, anim := range doc.Animations {
		imp.addAnimation(i, anim)
	}
	return objs, nil
}

func (imp *importer) parentObject(idx uint32) *Object {
	p, ok := imp.parent[idx]
	for ok {
		if obj := imp.byNode[p]; obj != nil {
			return obj
		}
		if obj := imp.jointOf[p]; obj != nil {
			return obj
		}
		p, ok = imp.parent[p]
	}
	return nil
}

func (imp *importer) mesh(idx uint32) *Mesh {
	if m, ok := imp.meshes[idx]; ok {
		return m
	}
	m := &Mesh{Name: fmt.Sprintf("mesh_%d", idx), index: idx}
	if int(idx) < len(imp.doc.Meshes) {
		if name := imp.doc.Meshes[idx].Name; name != "" {
			m.Name = name
		}
		m.Primitives = len(imp.doc.Meshes[idx].Primitives)
	}
	imp.meshes[idx] = m
	imp.scene.Data.Meshes = append(imp.scene.Data.Meshes, m)
	return m
}

// skeletonRoot walks up from joint j while the parent is a joint of any skin.
func (imp *importer) skeletonRoot(j uint32) uint32 {
	for n := 0; n < len(imp.doc.Nodes); n++ {
		p, ok := imp.parent[j]
		if !ok || !imp.isJoint[p] {
			break
		}
		j = p
	}
	return j
}

// addSkin finds or creates the armature object of a skin. The armature is
// the common parent of the skeleton roots when it is a plain node. Skins
// sharing a skeleton share one armature.
func (imp *importer) addSkin(skin *gltf.Skin) {
	doc := imp.doc
	if len(skin.Joints) == 0 {
		return
	}

	var roots []uint32
	seen := map[uint32]bool{}
	for _, j := range skin.Joints {
		if r := imp.skeletonRoot(j); !seen[r] {
			seen[r] = true
			roots = append(roots, r)
		}
	}

	var armature *Object
	if p, ok := imp.parent[roots[0]]; ok && doc.Nodes[p].Mesh == nil {
		common := true
		for _, r := range roots[1:] {
			if q, ok := imp.parent[r]; !ok || q != p {
				common = false
			}
		}
		if common {
			armature = imp.byNode[p]
			if armature == nil {
				armature = imp.newArmature(imp.nodeName(p, "armature"), nodeTransform(doc.Nodes[p]), gltf.Index(p))
				imp.byNode[p] = armature
			}
		}
	}
	for _, r := range roots {
		if armature == nil {
			armature = imp.synthetic[r]
		}
	}
	for _, j := range skin.Joints {
		if armature == nil {
			// joints may already belong to an armature of another skin
			armature = imp.jointOf[j]
		}
	}
	if armature == nil {
		name := skin.Name
		if name == "" {
			name = "Armature"
		}
		armature = imp.newArmature(name, IdentityTransform, nil)
		imp.synthetic[roots[0]] = armature
	}

	for _, j := range skin.Joints {
		if owner := imp.jointOf[j]; owner != nil {
			continue
		}
		imp.jointOf[j] = armature
		armature.Armature.Bones = append(armature.Armature.Bones, &Bone{
			Name: imp.nodeName(j, "joint"),
			Rest: nodeTransform(doc.Nodes[j]),
			node: j,
		})
	}
}

func (imp *importer) newArmature(name string, rest Transform, node *uint32) *Object {
	data := &Armature{Name: name}
	imp.scene.Data.Armatures = append(imp.scene.Data.Armatures, data)
	obj := &Object{Name: name, Type: ObjectArmature, Rest: rest, Armature: data, source: imp.src, node: node}
	imp.armatures = append(imp.armatures, obj)
	return obj
}

// addAnimation splits a glTF animation into one action per armature. The
// first action of an armature becomes its active action.
func (imp *importer) addAnimation(ai int, anim *gltf.Animation) {
	actions := map[*Object]*Action{}
	var owners []*Object
	for ci, ch := range anim.Channels {
		if ch.Target.Node == nil || ch.Sampler == nil || int(*ch.Sampler) >= len(anim.Samplers) {
			continue
		}
		node := *ch.Target.Node
		var owner *Object
		var bone string
		if a := imp.jointOf[node]; a != nil {
			owner, bone = a, imp.nodeName(node, "joint")
		} else if obj := imp.byNode[node]; obj != nil && obj.Type == ObjectArmature {
			owner = obj
		} else {
			imp.logger.Debug("channel ignored", zap.Int("animation", ai), zap.Int("channel", ci), zap.Uint32("node", node))
			continue
		}

		var path Path
		switch ch.Target.Path {
		case gltf.TRSTranslation:
			path = PathTranslation
		case gltf.TRSRotation:
			path = PathRotation
		case gltf.TRSScale:
			path = PathScale
		default:
			imp.logger.Debug("channel ignored", zap.Int("animation", ai), zap.Int("channel", ci), zap.String("path", "weights"))
			continue
		}

		c, err := imp.readChannel(anim.Samplers[*ch.Sampler], path)
		if err != nil {
			imp.logger.Warn("channel skipped", zap.Int("animation", ai), zap.Int("channel", ci), zap.Error(err))
			continue
		}
		c.Bone = bone

		a := actions[owner]
		if a == nil {
			a = &Action{}
			actions[owner] = a
			owners = append(owners, owner)
		}
		a.Channels = append(a.Channels, c)
	}

	name := anim.Name
	if name == "" {
		name = fmt.Sprintf("Animation_%d", ai)
	}
	for _, owner := range owners {
		a := actions[owner]
		a.Name = name
		if len(owners) > 1 {
			a.Name = name + "_" + owner.Name
		}
		imp.scene.Data.Actions = append(imp.scene.Data.Actions, a)
		if owner.ActiveAction() == nil {
			owner.CreateAnimationData().Action = a
		}
	}
}

func (imp *importer) readChannel(sampler *gltf.AnimationSampler, path Path) (*Channel, error) {
	if sampler.Input == nil || sampler.Output == nil {
		return nil, fmt.Errorf("sampler without accessors")
	}
	times, _, err := readFloats(imp.doc, *sampler.Input)
	if err != nil {
		return nil, fmt.Errorf("input: %w", err)
	}
	values, width, err := readFloats(imp.doc, *sampler.Output)
	if err != nil {
		return nil, fmt.Errorf("output: %w", err)
	}

	c := &Channel{Path: path, Values: values}
	switch sampler.Interpolation {
	case gltf.InterpolationStep:
		c.Interpolation = InterpolationStep
	case gltf.InterpolationCubicSpline:
		c.Interpolation = InterpolationCubicSpline
	default:
		c.Interpolation = InterpolationLinear
	}
	if width != c.Width() {
		return nil, fmt.Errorf("%v output has %d components", path, width)
	}
	if len(values) != len(times)*c.stride() {
		return nil, fmt.Errorf("%d keys but %d values", len(times), len(values)/width)
	}

	fps := imp.scene.FrameRate
	c.Frames = make([]float64, len(times))
	for i, t := range times {
		c.Frames[i] = math.Round(float64(t)*fps*1000) / 1000
	}
	if c.Interpolation == InterpolationCubicSpline {
		// tangents per second => per frame
		for i := 0; i < len(times); i++ {
			p := i * c.stride()
			for j := 0; j < width; j++ {
				c.Values[p+j] /= float32(fps)
				c.Values[p+2*width+j] /= float32(fps)
			}
		}
	}
	return c, nil
}

// readFloats reads an accessor as float32 components. Normalized integer
// accessors are converted to [-1, 1] or [0, 1].
func readFloats(doc *gltf.Document, idx uint32) ([]float32, int, error) {
	if int(idx) >= len(doc.Accessors) {
		return nil, 0, fmt.Errorf("invalid accessor %d", idx)
	}
	data, err := modeler.ReadAccessor(doc, doc.Accessors[idx], nil)
	if err != nil {
		return nil, 0, err
	}
	var r []float32
	switch v := data.(type) {
	case []float32:
		return v, 1, nil
	case [][3]float32:
		for _, e := range v {
			r = append(r, e[:]...)
		}
		return r, 3, nil
	case [][4]float32:
		for _, e := range v {
			r = append(r, e[:]...)
		}
		return r, 4, nil
	case [][4]int8:
		for _, e := range v {
			for _, c := range e {
				r = append(r, float32(math.Max(float64(c)/127, -1)))
			}
		}
		return r, 4, nil
	case [][4]uint8:
		for _, e := range v {
			for _, c := range e {
				r = append(r, float32(c)/255)
			}
		}
		return r, 4, nil
	case [][4]int16:
		for _, e := range v {
			for _, c := range e {
				r = append(r, float32(math.Max(float64(c)/32767, -1)))
			}
		}
		return r, 4, nil
	case [][4]uint16:
		for _, e := range v {
			for _, c := range e {
				r = append(r, float32(c)/65535)
			}
		}
		return r, 4, nil
	}
	return nil, 0, fmt.Errorf("unsupported accessor type %T", data)
}
