package loader

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"Scroll3D/internal/logger"
	"Scroll3D/internal/renderer"

	"go.uber.org/zap"
)

type FaceVertex struct {
	VertexIdx   int32
	TexCoordIdx int32
	NormalIdx   int32
}

// DecodeOBJ reads a Wavefront OBJ stream. Material libraries are ignored;
// surface properties come from the scene configuration. A nil log falls back
// to the process-wide logger.
func DecodeOBJ(r io.Reader, log *zap.Logger) (*renderer.Model, error) {
	if log == nil {
		log = logger.Log
	}
	var positions, normals, texCoords []float32
	var faces []FaceVertex

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 || strings.HasPrefix(parts[0], "#") {
			continue
		}
		switch parts[0] {
		case "v":
			vertex, err := parseVertex(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("loader: obj line %d: %w", lineNo, err)
			}
			positions = append(positions, vertex...)
		case "vn":
			normal, err := parseVertex(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("loader: obj line %d: %w", lineNo, err)
			}
			normals = append(normals, normal...)
		case "vt":
			texCoord, err := parseTextureCoordinate(parts[1:])
			if err != nil {
				return nil, fmt.Errorf("loader: obj line %d: %w", lineNo, err)
			}
			texCoords = append(texCoords, texCoord...)
		case "f":
			faceVertices, err := parseFace(parts[1:], len(positions)/3, len(texCoords)/2, len(normals)/3)
			if err != nil {
				return nil, fmt.Errorf("loader: obj line %d: %w", lineNo, err)
			}
			if len(faceVertices) > 3 {
				log.Debug("Triangulating polygon", zap.Int("line", lineNo), zap.Int("vertexCount", len(parts)-1))
			}
			faces = append(faces, triangulate(faceVertices)...)
		default:
			// o, g, s, mtllib, usemtl and friends carry nothing we draw
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: read obj: %w", err)
	}
	if len(faces) == 0 {
		return nil, ErrEmptyModel
	}

	return unify(positions, texCoords, normals, faces)
}

// unify builds one vertex per distinct (v, vt, vn) triple so positions,
// uvs and normals share a single index buffer.
func unify(positions, texCoords, normals []float32, faces []FaceVertex) (*renderer.Model, error) {
	vertexCount := int32(len(positions) / 3)
	uvCount := int32(len(texCoords) / 2)
	normalCount := int32(len(normals) / 3)

	seen := make(map[FaceVertex]uint32, len(faces))
	var outPositions, outUVs, outNormals []float32
	indices := make([]uint32, 0, len(faces))
	hasNormals := true

	for _, fv := range faces {
		if fv.VertexIdx < 0 || fv.VertexIdx >= vertexCount {
			return nil, fmt.Errorf("loader: obj vertex index %d out of range", fv.VertexIdx+1)
		}
		if idx, ok := seen[fv]; ok {
			indices = append(indices, idx)
			continue
		}
		idx := uint32(len(outPositions) / 3)
		seen[fv] = idx
		indices = append(indices, idx)

		v := fv.VertexIdx * 3
		outPositions = append(outPositions, positions[v], positions[v+1], positions[v+2])

		if fv.TexCoordIdx >= 0 && fv.TexCoordIdx < uvCount {
			t := fv.TexCoordIdx * 2
			outUVs = append(outUVs, texCoords[t], texCoords[t+1])
		} else {
			outUVs = append(outUVs, 0, 0)
		}

		if fv.NormalIdx >= 0 && fv.NormalIdx < normalCount {
			n := fv.NormalIdx * 3
			outNormals = append(outNormals, normals[n], normals[n+1], normals[n+2])
		} else {
			hasNormals = false
			outNormals = append(outNormals, 0, 0, 0)
		}
	}

	if !hasNormals {
		outNormals = nil
	}
	return renderer.NewModel(outPositions, outNormals, outUVs, indices), nil
}

func parseVertex(parts []string) ([]float32, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("expected 3 components, got %d", len(parts))
	}
	vertex := make([]float32, 0, 3)
	for _, part := range parts[:3] {
		val, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid vertex value %v: %w", part, err)
		}
		vertex = append(vertex, float32(val))
	}
	return vertex, nil
}

// for 2D textures
func parseTextureCoordinate(parts []string) ([]float32, error) {
	if len(parts) < 2 {
		return nil, fmt.Errorf("expected 2 texture components, got %d", len(parts))
	}
	texCoord := make([]float32, 0, 2)
	for _, part := range parts[:2] {
		val, err := strconv.ParseFloat(part, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid texture coordinate value %v: %w", part, err)
		}
		texCoord = append(texCoord, float32(val))
	}
	return texCoord, nil
}

// parseFace resolves 1-based and negative (relative) OBJ indices to 0-based ones.
// Missing uv or normal references become -1.
func parseFace(parts []string, vertexCount, uvCount, normalCount int) ([]FaceVertex, error) {
	if len(parts) < 3 {
		return nil, fmt.Errorf("face needs at least 3 vertices, got %d", len(parts))
	}
	face := make([]FaceVertex, 0, len(parts))
	for _, part := range parts {
		vals := strings.Split(part, "/")

		vertexIdx, err := parseIndex(vals[0], vertexCount)
		if err != nil {
			return nil, fmt.Errorf("invalid vertex index %v: %w", vals[0], err)
		}

		var texCoordIdx int32 = -1
		if len(vals) > 1 && vals[1] != "" {
			if texCoordIdx, err = parseIndex(vals[1], uvCount); err != nil {
				return nil, fmt.Errorf("invalid texture coordinate index %v: %w", vals[1], err)
			}
		}

		var normalIdx int32 = -1
		if len(vals) > 2 && vals[2] != "" {
			if normalIdx, err = parseIndex(vals[2], normalCount); err != nil {
				return nil, fmt.Errorf("invalid normal index %v: %w", vals[2], err)
			}
		}

		face = append(face, FaceVertex{
			VertexIdx:   vertexIdx,
			TexCoordIdx: texCoordIdx,
			NormalIdx:   normalIdx,
		})
	}
	return face, nil
}

func parseIndex(s string, count int) (int32, error) {
	idx, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return 0, err
	}
	switch {
	case idx > 0:
		return int32(idx - 1), nil
	case idx < 0:
		return int32(int64(count) + idx), nil
	}
	return 0, fmt.Errorf("index 0 is not valid")
}

// triangulate fans polygons out from their first vertex.
func triangulate(face []FaceVertex) []FaceVertex {
	if len(face) == 3 {
		return face
	}
	triangulated := make([]FaceVertex, 0, (len(face)-2)*3)
	for i := 1; i < len(face)-1; i++ {
		triangulated = append(triangulated, face[0], face[i], face[i+1])
	}
	return triangulated
}
