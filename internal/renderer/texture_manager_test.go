package renderer

import (
	"image"
	"image/color"
	"testing"
)

func fakeTextureManager(maxSize int) (*TextureManager, *[]uint32) {
	tm := NewTextureManager(maxSize)
	var next uint32
	freed := &[]uint32{}
	tm.upload = func(*image.RGBA) uint32 {
		next++
		return next
	}
	tm.free = func(id uint32) { *freed = append(*freed, id) }
	return tm, freed
}

func solid(w, h int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 100, B: 50, A: 255})
		}
	}
	return img
}

func TestTextureManagerCachesByKey(t *testing.T) {
	tm, _ := fakeTextureManager(0)

	a, err := tm.Acquire("chair.gltf#image/0", solid(4, 4))
	if err != nil {
		t.Fatalf("Acquire returned error: %v", err)
	}
	b, _ := tm.Acquire("chair.gltf#image/0", solid(4, 4))
	c, _ := tm.Acquire("chair.gltf#image/1", solid(4, 4))

	if a != b {
		t.Errorf("Expected cache hit to return texture %d, got %d", a, b)
	}
	if a == c {
		t.Error("Different keys should upload different textures")
	}
	stats := tm.Stats()
	if stats.CacheHits != 1 || stats.CacheMisses != 2 || stats.ActiveTextures != 2 {
		t.Errorf("Unexpected stats %+v", stats)
	}
}

func TestTextureManagerFreesOnLastRelease(t *testing.T) {
	tm, freed := fakeTextureManager(0)
	id, _ := tm.Acquire("k", solid(2, 2))
	tm.Acquire("k", solid(2, 2))

	tm.Release(id)
	if len(*freed) != 0 {
		t.Fatal("Texture freed while still referenced")
	}
	tm.Release(id)
	if len(*freed) != 1 || (*freed)[0] != id {
		t.Errorf("Expected texture %d freed, got %v", id, *freed)
	}

	again, _ := tm.Acquire("k", solid(2, 2))
	if again == id {
		t.Error("Released key should upload a new texture")
	}
}

func TestTextureManagerClear(t *testing.T) {
	tm, freed := fakeTextureManager(0)
	tm.Acquire("a", solid(2, 2))
	tm.Acquire("b", solid(2, 2))

	tm.Clear()

	if len(*freed) != 2 || tm.Stats().ActiveTextures != 0 {
		t.Errorf("Expected both textures freed, got %v", *freed)
	}
}

func TestFitRGBAConverts(t *testing.T) {
	rgba, err := fitRGBA(solid(3, 2), 16)
	if err != nil {
		t.Fatalf("fitRGBA returned error: %v", err)
	}
	if rgba.Rect.Dx() != 3 || rgba.Rect.Dy() != 2 {
		t.Errorf("Expected 3x2, got %v", rgba.Rect)
	}
	if got := rgba.RGBAAt(1, 1); got.R != 200 || got.G != 100 || got.B != 50 {
		t.Errorf("Unexpected pixel %v", got)
	}
}

func TestFitRGBADownscales(t *testing.T) {
	rgba, err := fitRGBA(solid(64, 16), 32)
	if err != nil {
		t.Fatalf("fitRGBA returned error: %v", err)
	}
	if rgba.Rect.Dx() != 32 || rgba.Rect.Dy() != 8 {
		t.Errorf("Expected 32x8, got %v", rgba.Rect)
	}
}

func TestFitRGBAEmpty(t *testing.T) {
	if _, err := fitRGBA(image.NewRGBA(image.Rect(0, 0, 0, 0)), 16); err != ErrEmptyTexture {
		t.Errorf("Expected ErrEmptyTexture, got %v", err)
	}
}
