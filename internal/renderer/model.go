package renderer

import (
	"image"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// DefaultMaterial provides a basic material to fall back on
var DefaultMaterial = Material{
	Name:          "default",
	DiffuseColor:  [3]float32{1.0, 1.0, 1.0},
	SpecularColor: [3]float32{1.0, 1.0, 1.0},
	Metallic:      0.0,
	Roughness:     0.5,
}

type Model struct {
	// HOT DATA - Accessed every frame in render loop
	ModelMatrix mgl32.Mat4 // Transformation matrix
	Position    mgl32.Vec3 // Position in world space
	Scale       mgl32.Vec3 // Scale factors
	Rotation    mgl32.Quat // Rotation quaternion, derived from Euler
	Material    *Material
	VAO         uint32
	VBO         uint32
	EBO         uint32
	IsDirty     bool // Needs matrix recalculation

	// Euler angles in radians, applied in X, Y, Z order. Never wrapped.
	Euler [3]float64

	// COLD DATA - Initialization only
	Name            string
	SourceURL       string
	Vertices        []float32 // Vertex positions, 3 per vertex
	Normals         []float32 // Normals, 3 per vertex
	TextureCoords   []float32 // UVs, 2 per vertex
	Faces           []uint32  // Triangle indices
	InterleavedData []float32 // pos(3) uv(2) normal(3)
	Parts           []Part    // Runs of Faces sharing a material
}

type Material struct {
	DiffuseColor  [3]float32
	SpecularColor [3]float32
	Metallic      float32 // 0.0 = dielectric, 1.0 = metallic
	Roughness     float32 // 0.0 = mirror, 1.0 = completely rough

	// DiffuseMap is decoded by the loader and uploaded by the renderer,
	// which caches the GL texture under TextureKey.
	DiffuseMap image.Image
	TextureKey string
	TextureID  uint32

	Name string
}

// Part is a run of Count indices starting at First in Faces, drawn with one
// material.
type Part struct {
	Material *Material
	First    int
	Count    int
}

// NewModel builds a model from flat position, normal and uv arrays.
// Missing normals are recomputed from the faces; missing uvs are zero.
func NewModel(vertices, normals, uvs []float32, faces []uint32) *Model {
	vertexCount := len(vertices) / 3
	if len(normals) != len(vertices) {
		normals = RecalculateNormals(vertices, faces)
	}
	if len(uvs) != vertexCount*2 {
		uvs = make([]float32, vertexCount*2)
	}

	material := DefaultMaterial
	m := &Model{
		Position:      mgl32.Vec3{0, 0, 0},
		Scale:         mgl32.Vec3{1, 1, 1},
		Rotation:      mgl32.QuatIdent(),
		Material:      &material,
		Vertices:      vertices,
		Normals:       normals,
		TextureCoords: uvs,
		Faces:         faces,
	}
	m.Parts = []Part{{Material: m.Material, First: 0, Count: len(faces)}}
	m.InterleavedData = interleave(vertices, normals, uvs)
	m.updateModelMatrix()
	return m
}

func interleave(vertices, normals, uvs []float32) []float32 {
	vertexCount := len(vertices) / 3
	data := make([]float32, 0, vertexCount*8)
	for i := 0; i < vertexCount; i++ {
		data = append(data, vertices[i*3], vertices[i*3+1], vertices[i*3+2])
		data = append(data, uvs[i*2], uvs[i*2+1])
		data = append(data, normals[i*3], normals[i*3+1], normals[i*3+2])
	}
	return data
}

// RecalculateNormals computes smooth per-vertex normals by accumulating face normals.
func RecalculateNormals(vertices []float32, faces []uint32) []float32 {
	normals := make([]float32, len(vertices))
	vertexCount := uint32(len(vertices) / 3)
	vertexAt := func(i uint32) mgl32.Vec3 {
		return mgl32.Vec3{vertices[i*3], vertices[i*3+1], vertices[i*3+2]}
	}

	for i := 0; i+2 < len(faces); i += 3 {
		a, b, c := faces[i], faces[i+1], faces[i+2]
		if a >= vertexCount || b >= vertexCount || c >= vertexCount {
			continue
		}
		v0, v1, v2 := vertexAt(a), vertexAt(b), vertexAt(c)
		n := v1.Sub(v0).Cross(v2.Sub(v0))
		for _, idx := range [3]uint32{a, b, c} {
			normals[idx*3] += n.X()
			normals[idx*3+1] += n.Y()
			normals[idx*3+2] += n.Z()
		}
	}

	for i := uint32(0); i < vertexCount; i++ {
		n := mgl32.Vec3{normals[i*3], normals[i*3+1], normals[i*3+2]}
		if n.Len() == 0 {
			n = mgl32.Vec3{0, 1, 0}
		} else {
			n = n.Normalize()
		}
		normals[i*3], normals[i*3+1], normals[i*3+2] = n.X(), n.Y(), n.Z()
	}
	return normals
}

func (m *Model) SetPosition(x, y, z float32) {
	m.Position = mgl32.Vec3{x, y, z}
	m.updateModelMatrix()
}

func (m *Model) SetScale(x, y, z float32) {
	m.Scale = mgl32.Vec3{x, y, z}
	m.updateModelMatrix()
}

func (m *Model) SetRotationX(rad float64) {
	m.Euler[0] = rad
	m.updateRotation()
}

func (m *Model) SetRotationY(rad float64) {
	m.Euler[1] = rad
	m.updateRotation()
}

func (m *Model) updateRotation() {
	// Reduce before narrowing to float32 so large scroll offsets keep precision.
	x := float32(math.Remainder(m.Euler[0], 2*math.Pi))
	y := float32(math.Remainder(m.Euler[1], 2*math.Pi))
	z := float32(math.Remainder(m.Euler[2], 2*math.Pi))
	rotationX := mgl32.QuatRotate(x, mgl32.Vec3{1, 0, 0})
	rotationY := mgl32.QuatRotate(y, mgl32.Vec3{0, 1, 0})
	rotationZ := mgl32.QuatRotate(z, mgl32.Vec3{0, 0, 1})
	m.Rotation = rotationX.Mul(rotationY).Mul(rotationZ)
	m.updateModelMatrix()
}

func (m *Model) updateModelMatrix() {
	// ModelMatrix = translation * rotation * scale (TRS)
	scaleMatrix := mgl32.Scale3D(m.Scale[0], m.Scale[1], m.Scale[2])
	rotationMatrix := m.Rotation.Mat4()
	translationMatrix := mgl32.Translate3D(m.Position[0], m.Position[1], m.Position[2])
	m.ModelMatrix = translationMatrix.Mul4(rotationMatrix).Mul4(scaleMatrix)
	m.IsDirty = true
}

// SetParts replaces the single whole-model part. Parts outside Faces are
// dropped. Material points at the first part's material afterwards.
func (m *Model) SetParts(parts []Part) {
	kept := make([]Part, 0, len(parts))
	for _, p := range parts {
		if p.Material == nil || p.Count <= 0 || p.First < 0 || p.First+p.Count > len(m.Faces) {
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		return
	}
	m.Parts = kept
	m.Material = kept[0].Material
}

// Materials returns every distinct material of the model in draw order.
func (m *Model) Materials() []*Material {
	var out []*Material
	seen := make(map[*Material]bool, len(m.Parts))
	for _, p := range m.Parts {
		if !seen[p.Material] {
			seen[p.Material] = true
			out = append(out, p.Material)
		}
	}
	return out
}

// Bounds returns the local-space axis aligned bounding box.
func (m *Model) Bounds() (lo, hi mgl32.Vec3) {
	if len(m.Vertices) < 3 {
		return mgl32.Vec3{}, mgl32.Vec3{}
	}
	lo = mgl32.Vec3{m.Vertices[0], m.Vertices[1], m.Vertices[2]}
	hi = lo
	for i := 3; i+2 < len(m.Vertices); i += 3 {
		for axis := 0; axis < 3; axis++ {
			v := m.Vertices[i+axis]
			if v < lo[axis] {
				lo[axis] = v
			}
			if v > hi[axis] {
				hi[axis] = v
			}
		}
	}
	return lo, hi
}

func (m *Model) VertexCount() int {
	return len(m.Vertices) / 3
}
