package gltfutil

import (
	"github.com/qmuntal/gltf"
)

func Load(path string) (*gltf.Document, error) {
	return gltf.Open(path)
}

// Clone copies everything an exporter may rewrite: nodes, skins, accessors,
// buffer views, buffers (including data) and images. Meshes, materials and
// textures are shared with the source document.
func Clone(doc *gltf.Document) *gltf.Document {
	d := *doc

	d.Nodes = make([]*gltf.Node, len(doc.Nodes))
	for i, n := range doc.Nodes {
		c := *n
		c.Children = append([]uint32(nil), n.Children...)
		d.Nodes[i] = &c
	}
	d.Skins = make([]*gltf.Skin, len(doc.Skins))
	for i, s := range doc.Skins {
		c := *s
		c.Joints = append([]uint32(nil), s.Joints...)
		d.Skins[i] = &c
	}
	d.Accessors = make([]*gltf.Accessor, len(doc.Accessors))
	for i, a := range doc.Accessors {
		c := *a
		d.Accessors[i] = &c
	}
	d.BufferViews = make([]*gltf.BufferView, len(doc.BufferViews))
	for i, v := range doc.BufferViews {
		c := *v
		d.BufferViews[i] = &c
	}
	d.Buffers = make([]*gltf.Buffer, len(doc.Buffers))
	for i, b := range doc.Buffers {
		c := *b
		c.Data = append([]byte(nil), b.Data...)
		d.Buffers[i] = &c
	}
	d.Images = make([]*gltf.Image, len(doc.Images))
	for i, m := range doc.Images {
		c := *m
		d.Images[i] = &c
	}
	d.Animations = append([]*gltf.Animation(nil), doc.Animations...)
	d.ExtensionsUsed = append([]string(nil), doc.ExtensionsUsed...)
	return &d
}

// MergeBuffers moves all buffer data into a single buffer without URI,
// as required by the GLB binary chunk.
func MergeBuffers(doc *gltf.Document) {
	if len(doc.Buffers) == 0 {
		return
	}
	offsets := make([]uint32, len(doc.Buffers))
	data := doc.Buffers[0].Data
	for i := 1; i < len(doc.Buffers); i++ {
		for len(data)%4 != 0 {
			data = append(data, 0)
		}
		offsets[i] = uint32(len(data))
		data = append(data, doc.Buffers[i].Data...)
	}
	for _, v := range doc.BufferViews {
		v.ByteOffset += offsets[v.Buffer]
		v.Buffer = 0
	}
	doc.Buffers = []*gltf.Buffer{{Name: doc.Buffers[0].Name, ByteLength: uint32(len(data)), Data: data}}
}
