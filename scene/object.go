package scene

type ObjectType int

const (
	ObjectEmpty ObjectType = iota
	ObjectMesh
	ObjectArmature
)

func (t ObjectType) String() string {
	switch t {
	case ObjectMesh:
		return "MESH"
	case ObjectArmature:
		return "ARMATURE"
	}
	return "EMPTY"
}

// Transform is a local TRS transform.
type Transform struct {
	Translation [3]float32
	Rotation    [4]float32
	Scale       [3]float32
}

var IdentityTransform = Transform{Rotation: [4]float32{0, 0, 0, 1}, Scale: [3]float32{1, 1, 1}}

func (t *Transform) value(path Path) []float32 {
	switch path {
	case PathRotation:
		return append([]float32(nil), t.Rotation[:]...)
	case PathScale:
		return append([]float32(nil), t.Scale[:]...)
	}
	return append([]float32(nil), t.Translation[:]...)
}

type Object struct {
	Name          string
	Type          ObjectType
	Parent        *Object
	Rest          Transform
	Armature      *Armature // ObjectArmature only
	Mesh          *Mesh     // ObjectMesh only
	AnimationData *AnimationData

	source   *source
	node     *uint32 // nil for armatures without a node of their own
	selected bool
}

func (o *Object) Selected() bool {
	return o.selected
}

// CreateAnimationData returns the object's animation data, creating it if needed.
func (o *Object) CreateAnimationData() *AnimationData {
	if o.AnimationData == nil {
		o.AnimationData = &AnimationData{}
	}
	return o.AnimationData
}

// ActiveAction returns the assigned action or nil.
func (o *Object) ActiveAction() *Action {
	if o.AnimationData == nil {
		return nil
	}
	return o.AnimationData.Action
}

type AnimationData struct {
	Action *Action
}

type Armature struct {
	Name  string
	Bones []*Bone
	users int
}

type Bone struct {
	Name     string
	Rest     Transform
	Selected bool
	node     uint32
}

func (a *Armature) Users() int {
	return a.users
}

func (a *Armature) Bone(name string) *Bone {
	for _, b := range a.Bones {
		if b.Name == name {
			return b
		}
	}
	return nil
}

type Mesh struct {
	Name       string
	Primitives int
	users      int
	index      uint32
}

func (m *Mesh) Users() int {
	return m.users
}

// FindArmature returns the first armature object in objs.
func FindArmature(objs []*Object) *Object {
	for _, obj := range objs {
		if obj.Type == ObjectArmature {
			return obj
		}
	}
	return nil
}

// FindMeshes returns all mesh objects in objs.
func FindMeshes(objs []*Object) []*Object {
	var meshes []*Object
	for _, obj := range objs {
		if obj.Type == ObjectMesh {
			meshes = append(meshes, obj)
		}
	}
	return meshes
}
