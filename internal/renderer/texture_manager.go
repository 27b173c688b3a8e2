package renderer

import (
	"errors"
	"image"
	"sync"

	"Scroll3D/internal/logger"

	"github.com/go-gl/gl/v4.1-core/gl"
	"go.uber.org/zap"
	xdraw "golang.org/x/image/draw"
)

// DefaultMaxTextureSize bounds the longest texture edge uploaded to the GPU.
const DefaultMaxTextureSize = 4096

var ErrEmptyTexture = errors.New("renderer: empty texture image")

type TextureStats struct {
	TotalTextures  int
	CacheHits      int
	CacheMisses    int
	ActiveTextures int
}

// TextureManager uploads material images once per key and frees the GL
// texture when the last material using it is released.
type TextureManager struct {
	textureCache    map[string]uint32
	textureRefCount map[uint32]int
	textureKeys     map[uint32]string
	maxSize         int
	upload          func(*image.RGBA) uint32
	free            func(uint32)
	mu              sync.Mutex
	stats           TextureStats
}

func NewTextureManager(maxSize int) *TextureManager {
	if maxSize <= 0 {
		maxSize = DefaultMaxTextureSize
	}
	return &TextureManager{
		textureCache:    make(map[string]uint32),
		textureRefCount: make(map[uint32]int),
		textureKeys:     make(map[uint32]string),
		maxSize:         maxSize,
		upload:          uploadRGBA,
		free:            deleteTexture,
	}
}

// Acquire returns the texture cached under key, uploading img on a miss.
// Every call must be paired with a Release.
func (tm *TextureManager) Acquire(key string, img image.Image) (uint32, error) {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	if textureID, exists := tm.textureCache[key]; exists {
		tm.textureRefCount[textureID]++
		tm.stats.CacheHits++
		return textureID, nil
	}
	tm.stats.CacheMisses++

	rgba, err := fitRGBA(img, tm.maxSize)
	if err != nil {
		return 0, err
	}
	textureID := tm.upload(rgba)

	tm.textureCache[key] = textureID
	tm.textureRefCount[textureID] = 1
	tm.textureKeys[textureID] = key
	tm.stats.TotalTextures++

	logger.Log.Debug("Texture uploaded",
		zap.String("key", key),
		zap.Uint32("textureID", textureID),
		zap.Int("width", rgba.Rect.Dx()),
		zap.Int("height", rgba.Rect.Dy()))
	return textureID, nil
}

func (tm *TextureManager) Release(textureID uint32) {
	if textureID == 0 {
		return
	}
	tm.mu.Lock()
	defer tm.mu.Unlock()

	refCount, exists := tm.textureRefCount[textureID]
	if !exists {
		logger.Log.Warn("Attempted to release unknown texture", zap.Uint32("textureID", textureID))
		return
	}
	refCount--
	if refCount > 0 {
		tm.textureRefCount[textureID] = refCount
		return
	}
	tm.free(textureID)
	delete(tm.textureCache, tm.textureKeys[textureID])
	delete(tm.textureRefCount, textureID)
	delete(tm.textureKeys, textureID)
}

func (tm *TextureManager) Stats() TextureStats {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	stats := tm.stats
	stats.ActiveTextures = len(tm.textureRefCount)
	return stats
}

// Clear frees every texture regardless of references.
func (tm *TextureManager) Clear() {
	tm.mu.Lock()
	defer tm.mu.Unlock()

	for textureID := range tm.textureRefCount {
		tm.free(textureID)
	}
	tm.textureCache = make(map[string]uint32)
	tm.textureRefCount = make(map[uint32]int)
	tm.textureKeys = make(map[uint32]string)
}

// fitRGBA converts img to tightly packed RGBA, scaling it down so neither
// edge exceeds maxSize.
func fitRGBA(img image.Image, maxSize int) (*image.RGBA, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= 0 || h <= 0 {
		return nil, ErrEmptyTexture
	}

	if w <= maxSize && h <= maxSize {
		if rgba, ok := img.(*image.RGBA); ok && rgba.Rect.Min == (image.Point{}) && rgba.Stride == w*4 {
			return rgba, nil
		}
		rgba := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)
		return rgba, nil
	}

	dw, dh := maxSize, maxSize
	if w > h {
		dh = h * maxSize / w
	} else {
		dw = w * maxSize / h
	}
	if dw < 1 {
		dw = 1
	}
	if dh < 1 {
		dh = 1
	}
	rgba := image.NewRGBA(image.Rect(0, 0, dw, dh))
	xdraw.ApproxBiLinear.Scale(rgba, rgba.Bounds(), img, b, xdraw.Src, nil)
	return rgba, nil
}

func uploadRGBA(rgba *image.RGBA) uint32 {
	var textureID uint32
	gl.GenTextures(1, &textureID)
	gl.BindTexture(gl.TEXTURE_2D, textureID)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA,
		int32(rgba.Rect.Dx()), int32(rgba.Rect.Dy()),
		0, gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(rgba.Pix))
	gl.GenerateMipmap(gl.TEXTURE_2D)

	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR_MIPMAP_LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.REPEAT)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.REPEAT)
	gl.BindTexture(gl.TEXTURE_2D, 0)
	return textureID
}

func deleteTexture(textureID uint32) {
	gl.DeleteTextures(1, &textureID)
}
