package loader

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"io/fs"
	"net/url"

	"Scroll3D/internal/logger"
	"Scroll3D/internal/renderer"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"
)

var identity16 = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}

// defaultMaterialKey holds primitives that declare no material.
const defaultMaterialKey = -1

// DecodeGLTF reads a .gltf or .glb stream. External buffers and images are
// resolved relative to the document through fsys. A nil log falls back to
// the process-wide logger.
func DecodeGLTF(r io.Reader, fsys fs.FS, log *zap.Logger) (*renderer.Model, error) {
	if log == nil {
		log = logger.Log
	}
	doc := new(gltf.Document)
	if err := gltf.NewDecoderFS(r, fsys).Decode(doc); err != nil {
		return nil, fmt.Errorf("loader: decode gltf: %w", err)
	}
	return buildGLTF(doc, fsys, log)
}

type meshBuilder struct {
	doc       *gltf.Document
	fsys      fs.FS
	log       *zap.Logger
	positions []float32
	normals   []float32
	uvs       []float32
	indices   []uint32
	parts     []renderer.Part
	materials map[int]*renderer.Material
	images    map[uint32]image.Image
	// normals stay usable only while every primitive provides them
	allNormals bool
}

func buildGLTF(doc *gltf.Document, fsys fs.FS, log *zap.Logger) (*renderer.Model, error) {
	b := &meshBuilder{
		doc:        doc,
		fsys:       fsys,
		log:        log,
		materials:  make(map[int]*renderer.Material),
		images:     make(map[uint32]image.Image),
		allNormals: true,
	}

	roots, err := sceneRoots(doc)
	if err != nil {
		return nil, err
	}
	for _, root := range roots {
		if err := b.visit(root, mgl32.Ident4(), 0); err != nil {
			return nil, err
		}
	}
	if len(b.indices) == 0 {
		return nil, ErrEmptyModel
	}

	normals := b.normals
	if !b.allNormals {
		normals = nil
	}
	model := renderer.NewModel(b.positions, normals, b.uvs, b.indices)
	model.SetParts(b.parts)
	return model, nil
}

// sceneRoots picks the default scene, the first scene, or every node when the
// document declares no scenes.
func sceneRoots(doc *gltf.Document) ([]int, error) {
	var roots []int
	switch {
	case doc.Scene != nil && int(*doc.Scene) < len(doc.Scenes):
		for _, n := range doc.Scenes[*doc.Scene].Nodes {
			roots = append(roots, int(n))
		}
	case len(doc.Scenes) > 0:
		for _, n := range doc.Scenes[0].Nodes {
			roots = append(roots, int(n))
		}
	case len(doc.Nodes) > 0:
		for i := range doc.Nodes {
			roots = append(roots, i)
		}
	default:
		return nil, ErrEmptyModel
	}
	return roots, nil
}

func (b *meshBuilder) visit(index int, parent mgl32.Mat4, depth int) error {
	if index < 0 || index >= len(b.doc.Nodes) {
		return fmt.Errorf("loader: gltf node %d out of range", index)
	}
	if depth > 64 {
		return fmt.Errorf("loader: gltf node hierarchy too deep at node %d", index)
	}
	node := b.doc.Nodes[index]
	world := parent.Mul4(nodeTransform(node))

	if node.Mesh != nil {
		meshIndex := int(*node.Mesh)
		if meshIndex >= len(b.doc.Meshes) {
			return fmt.Errorf("loader: gltf mesh %d out of range", meshIndex)
		}
		for i, p := range b.doc.Meshes[meshIndex].Primitives {
			if err := b.addPrimitive(p, world); err != nil {
				return fmt.Errorf("loader: gltf mesh %d primitive %d: %w", meshIndex, i, err)
			}
		}
	}
	for _, child := range node.Children {
		if err := b.visit(int(child), world, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (b *meshBuilder) addPrimitive(p *gltf.Primitive, world mgl32.Mat4) error {
	if p.Mode != gltf.PrimitiveTriangles {
		b.log.Debug("Skipping non-triangle primitive", zap.Any("mode", p.Mode))
		return nil
	}
	posIndex, ok := p.Attributes["POSITION"]
	if !ok {
		return nil
	}
	positions, err := modeler.ReadPosition(b.doc, b.doc.Accessors[posIndex], nil)
	if err != nil {
		return err
	}

	var normals [][3]float32
	if nIndex, ok := p.Attributes["NORMAL"]; ok {
		if normals, err = modeler.ReadNormal(b.doc, b.doc.Accessors[nIndex], nil); err != nil {
			return err
		}
	}
	if len(normals) != len(positions) {
		b.allNormals = false
		normals = nil
	}

	var uvs [][2]float32
	if tIndex, ok := p.Attributes["TEXCOORD_0"]; ok {
		if uvs, err = modeler.ReadTextureCoord(b.doc, b.doc.Accessors[tIndex], nil); err != nil {
			return err
		}
	}

	var indices []uint32
	if p.Indices != nil {
		if indices, err = modeler.ReadIndices(b.doc, b.doc.Accessors[*p.Indices], nil); err != nil {
			return err
		}
	} else {
		indices = make([]uint32, len(positions))
		for i := range indices {
			indices[i] = uint32(i)
		}
	}

	base := uint32(len(b.positions) / 3)
	normalMatrix := world.Mat3().Inv().Transpose()
	for i, pos := range positions {
		wp := world.Mul4x1(mgl32.Vec4{pos[0], pos[1], pos[2], 1}).Vec3()
		b.positions = append(b.positions, wp.X(), wp.Y(), wp.Z())

		if normals != nil {
			n := normalMatrix.Mul3x1(mgl32.Vec3(normals[i]))
			if n.Len() > 0 {
				n = n.Normalize()
			}
			b.normals = append(b.normals, n.X(), n.Y(), n.Z())
		} else {
			b.normals = append(b.normals, 0, 0, 0)
		}

		if i < len(uvs) {
			b.uvs = append(b.uvs, uvs[i][0], uvs[i][1])
		} else {
			b.uvs = append(b.uvs, 0, 0)
		}
	}

	material, err := b.material(p.Material)
	if err != nil {
		return err
	}

	first := len(b.indices)
	count := uint32(len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		a, c, d := indices[i], indices[i+1], indices[i+2]
		if a >= count || c >= count || d >= count {
			return fmt.Errorf("index out of range in triangle %d", i/3)
		}
		b.indices = append(b.indices, base+a, base+c, base+d)
	}
	b.addPart(material, first, len(b.indices)-first)
	return nil
}

// addPart extends the previous part when it continues with the same material.
func (b *meshBuilder) addPart(material *renderer.Material, first, count int) {
	if count == 0 {
		return
	}
	if n := len(b.parts); n > 0 {
		last := &b.parts[n-1]
		if last.Material == material && last.First+last.Count == first {
			last.Count += count
			return
		}
	}
	b.parts = append(b.parts, renderer.Part{Material: material, First: first, Count: count})
}

// material converts a glTF metallic-roughness material. Primitives sharing a
// material index share the returned pointer.
func (b *meshBuilder) material(index *uint32) (*renderer.Material, error) {
	key := defaultMaterialKey
	if index != nil {
		key = int(*index)
	}
	if m, ok := b.materials[key]; ok {
		return m, nil
	}

	m := renderer.DefaultMaterial
	if key != defaultMaterialKey {
		if key >= len(b.doc.Materials) {
			return nil, fmt.Errorf("material %d out of range", key)
		}
		src := b.doc.Materials[key]
		m.Name = src.Name
		if m.Name == "" {
			m.Name = fmt.Sprintf("material/%d", key)
		}
		pbr := src.PBRMetallicRoughness
		if pbr == nil {
			pbr = &gltf.PBRMetallicRoughness{}
		}
		c := pbr.BaseColorFactorOrDefault()
		m.DiffuseColor = [3]float32{c[0], c[1], c[2]}
		m.Metallic = pbr.MetallicFactorOrDefault()
		m.Roughness = pbr.RoughnessFactorOrDefault()

		if tex := pbr.BaseColorTexture; tex != nil {
			img, imageKey, err := b.texture(tex.Index)
			if err != nil {
				b.log.Warn("Skipping base color texture",
					zap.String("material", m.Name),
					zap.Error(err))
			} else {
				m.DiffuseMap = img
				m.TextureKey = imageKey
			}
		}
	}
	b.materials[key] = &m
	return &m, nil
}

// texture decodes the image behind a glTF texture, from a buffer view, a
// data URI or a file next to the document.
func (b *meshBuilder) texture(index uint32) (image.Image, string, error) {
	if int(index) >= len(b.doc.Textures) {
		return nil, "", fmt.Errorf("texture %d out of range", index)
	}
	source := b.doc.Textures[index].Source
	if source == nil || int(*source) >= len(b.doc.Images) {
		return nil, "", fmt.Errorf("texture %d has no image", index)
	}
	imageKey := fmt.Sprintf("image/%d", *source)
	if img, ok := b.images[*source]; ok {
		return img, imageKey, nil
	}

	src := b.doc.Images[*source]
	var data []byte
	var err error
	switch {
	case src.BufferView != nil:
		if int(*src.BufferView) >= len(b.doc.BufferViews) {
			return nil, "", fmt.Errorf("image %d buffer view out of range", *source)
		}
		data, err = modeler.ReadBufferView(b.doc, b.doc.BufferViews[*src.BufferView])
	case src.IsEmbeddedResource():
		data, err = src.MarshalData()
	case src.URI != "" && b.fsys != nil:
		var name string
		if name, err = url.PathUnescape(src.URI); err == nil {
			data, err = fs.ReadFile(b.fsys, name)
		}
	default:
		err = fmt.Errorf("image %d has no data", *source)
	}
	if err != nil {
		return nil, "", err
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("decode image %d: %w", *source, err)
	}
	b.images[*source] = img
	return img, imageKey, nil
}

// nodeTransform returns the node's local matrix, from Matrix when set and
// from its TRS properties otherwise.
func nodeTransform(node *gltf.Node) mgl32.Mat4 {
	if node.Matrix != identity16 && node.Matrix != ([16]float32{}) {
		return mgl32.Mat4(node.Matrix)
	}

	t := node.TranslationOrDefault()
	r := node.RotationOrDefault()
	s := node.ScaleOrDefault()

	translation := mgl32.Translate3D(t[0], t[1], t[2])
	rotation := mgl32.Quat{W: r[3], V: mgl32.Vec3{r[0], r[1], r[2]}}.Normalize().Mat4()
	scale := mgl32.Scale3D(s[0], s[1], s[2])
	return translation.Mul4(rotation).Mul4(scale)
}
