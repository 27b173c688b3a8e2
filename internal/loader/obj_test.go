package loader

import (
	"errors"
	"strings"
	"testing"

	"go.uber.org/zap"
)

const quadOBJ = `# unit quad
o quad
v 0 0 0
v 1 0 0
v 1 1 0
v 0 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1 4/4/1
`

func TestDecodeOBJQuad(t *testing.T) {
	model, err := DecodeOBJ(strings.NewReader(quadOBJ), zap.NewNop())
	if err != nil {
		t.Fatalf("DecodeOBJ returned error: %v", err)
	}

	if model.VertexCount() != 4 {
		t.Errorf("Expected 4 unified vertices, got %d", model.VertexCount())
	}
	want := []uint32{0, 1, 2, 0, 2, 3}
	if len(model.Faces) != len(want) {
		t.Fatalf("Expected %d indices, got %d", len(want), len(model.Faces))
	}
	for i := range want {
		if model.Faces[i] != want[i] {
			t.Errorf("Index %d: expected %d, got %d", i, want[i], model.Faces[i])
		}
	}
	if model.Normals[2] != 1 {
		t.Errorf("Expected file normal (0,0,1), got %v", model.Normals[:3])
	}
	if model.TextureCoords[4] != 1 || model.TextureCoords[5] != 1 {
		t.Errorf("Expected uv (1,1) for third vertex, got %v", model.TextureCoords[4:6])
	}
}

func TestDecodeOBJNegativeIndices(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf -3 -2 -1\n"

	model, err := DecodeOBJ(strings.NewReader(src), zap.NewNop())
	if err != nil {
		t.Fatalf("DecodeOBJ returned error: %v", err)
	}
	if len(model.Faces) != 3 || model.Faces[0] != 0 || model.Faces[2] != 2 {
		t.Errorf("Expected faces [0 1 2], got %v", model.Faces)
	}
}

func TestDecodeOBJRecalculatesMissingNormals(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 3\n"

	model, err := DecodeOBJ(strings.NewReader(src), zap.NewNop())
	if err != nil {
		t.Fatalf("DecodeOBJ returned error: %v", err)
	}
	if model.Normals[2] != 1 {
		t.Errorf("Expected recalculated normal (0,0,1), got %v", model.Normals[:3])
	}
}

func TestDecodeOBJPentagonFan(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 2 1 0\nv 1 2 0\nv 0 1 0\nf 1 2 3 4 5\n"

	model, err := DecodeOBJ(strings.NewReader(src), zap.NewNop())
	if err != nil {
		t.Fatalf("DecodeOBJ returned error: %v", err)
	}
	if len(model.Faces) != 9 {
		t.Errorf("Expected 3 triangles, got %d indices", len(model.Faces))
	}
}

func TestDecodeOBJIndexOutOfRange(t *testing.T) {
	src := "v 0 0 0\nv 1 0 0\nv 0 1 0\nf 1 2 7\n"

	if _, err := DecodeOBJ(strings.NewReader(src), zap.NewNop()); err == nil {
		t.Error("Expected error for out of range index")
	}
}

func TestDecodeOBJBadVertex(t *testing.T) {
	src := "v 0 zero 0\n"

	_, err := DecodeOBJ(strings.NewReader(src), zap.NewNop())
	if err == nil || !strings.Contains(err.Error(), "line 1") {
		t.Errorf("Expected error mentioning line 1, got %v", err)
	}
}

func TestDecodeOBJEmpty(t *testing.T) {
	_, err := DecodeOBJ(strings.NewReader("# nothing here\nmtllib chair.mtl\n"), zap.NewNop())
	if !errors.Is(err, ErrEmptyModel) {
		t.Errorf("Expected ErrEmptyModel, got %v", err)
	}
}

func TestParseIndexZeroIsInvalid(t *testing.T) {
	if _, err := parseIndex("0", 3); err == nil {
		t.Error("Index 0 should be rejected")
	}
}

func TestDecodeOBJNilLogger(t *testing.T) {
	model, err := DecodeOBJ(strings.NewReader(quadOBJ), nil)
	if err != nil {
		t.Fatalf("DecodeOBJ returned error: %v", err)
	}
	if len(model.Faces) != 6 {
		t.Errorf("Expected 6 indices, got %d", len(model.Faces))
	}
}
