package engine

import (
	"errors"
	"math"
	"strings"
	"testing"

	"Scroll3D/internal/config"
	"Scroll3D/internal/renderer"
	"Scroll3D/internal/scroll"

	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl32"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type fakeRenderer struct {
	viewport renderer.Viewport
	models   []*renderer.Model
	renders  int
	cleaned  bool
}

func (f *fakeRenderer) Init(viewport renderer.Viewport, _ mgl32.Vec3) { f.viewport = viewport }
func (f *fakeRenderer) SetViewport(viewport renderer.Viewport)        { f.viewport = viewport }
func (f *fakeRenderer) Viewport() renderer.Viewport                   { return f.viewport }
func (f *fakeRenderer) Render(_ *renderer.Camera, _ *renderer.Lighting) {
	f.renders++
}
func (f *fakeRenderer) AddModel(model *renderer.Model) { f.models = append(f.models, model) }
func (f *fakeRenderer) Cleanup()                       { f.cleaned = true }

// fakeLoader records requests and lets the test decide when they resolve.
type fakeLoader struct {
	post     func(func())
	requests map[string]func(*renderer.Model)
	failures map[string]func(error)
}

func newFakeLoader() *fakeLoader {
	return &fakeLoader{
		requests: make(map[string]func(*renderer.Model)),
		failures: make(map[string]func(error)),
	}
}

func (f *fakeLoader) Load(url string, onSuccess func(*renderer.Model), onError func(error)) {
	f.requests[url] = onSuccess
	f.failures[url] = onError
}

func (f *fakeLoader) succeed(url string, model *renderer.Model) {
	f.post(func() { f.requests[url](model) })
}

func (f *fakeLoader) fail(url string, err error) {
	f.post(func() { f.failures[url](err) })
}

const twoScenes = `
entries:
  - container: sofa
    model_url: https://example.com/sofa.glb
    region: {x: 0, y: 0, w: 1, h: 0.5}
    rotation: {y_factor: 0.007, x_factor: 0.002}
  - container: lamp
    model_url: https://example.com/lamp.obj
    region: {x: 0, y: 0.5, w: 1, h: 0.5}
    rotation: {y_factor: 0.002}
`

type harness struct {
	viewer    *Viewer
	loader    *fakeLoader
	renderers map[string]*fakeRenderer
	logs      *observer.ObservedLogs
}

func newHarness(t *testing.T, doc string, device Device) *harness {
	t.Helper()
	cfg, err := config.Parse([]byte(doc))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	core, logs := observer.New(zapcore.InfoLevel)
	h := &harness{
		loader:    newFakeLoader(),
		renderers: make(map[string]*fakeRenderer),
		logs:      logs,
	}
	v, err := NewViewer(cfg, device,
		WithLoader(h.loader),
		WithLogger(zap.New(core)),
		WithRendererFactory(func(container string) renderer.Render {
			r := &fakeRenderer{}
			h.renderers[container] = r
			return r
		}))
	if err != nil {
		t.Fatalf("NewViewer returned error: %v", err)
	}
	h.loader.post = v.Events().Post
	for _, s := range v.scenes {
		s.entry.Renderer.Init(s.cfg.RegionRect().Resolve(v.Width, v.Height), s.cfg.ClearColor.Vec())
	}
	v.startLoads()
	h.viewer = v
	return h
}

func triangle() *renderer.Model {
	return renderer.NewModel([]float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, nil, nil, []uint32{0, 1, 2})
}

func TestEventQueueDrainRunsInOrder(t *testing.T) {
	q := NewEventQueue(4)
	var got []int
	q.Post(func() { got = append(got, 1) })
	q.Post(func() { got = append(got, 2) })
	q.Post(nil)

	if n := q.Drain(); n != 2 {
		t.Errorf("Expected 2 closures, got %d", n)
	}
	if len(got) != 2 || got[0] != 1 || got[1] != 2 {
		t.Errorf("Unexpected order %v", got)
	}
	if q.Len() != 0 {
		t.Errorf("Expected empty queue, got %d", q.Len())
	}
}

func TestEventQueuePostDuringDrainWaits(t *testing.T) {
	q := NewEventQueue(4)
	ran := false
	q.Post(func() { q.Post(func() { ran = true }) })

	q.Drain()
	if ran {
		t.Error("Closure posted during Drain ran in the same pass")
	}
	q.Drain()
	if !ran {
		t.Error("Closure posted during Drain never ran")
	}
}

func TestScrollSourceWheelAndClamp(t *testing.T) {
	var seen []float64
	s := NewScrollSource(600, 60, func(o float64) { seen = append(seen, o) })

	s.Wheel(-2)
	if s.Offset() != 120 {
		t.Errorf("Expected offset 120 after two notches down, got %v", s.Offset())
	}
	s.Wheel(5)
	if s.Offset() != 0 {
		t.Errorf("Expected offset clamped at 0, got %v", s.Offset())
	}
	s.Wheel(-100)
	if s.Offset() != 600 {
		t.Errorf("Expected offset clamped at page height, got %v", s.Offset())
	}
	if len(seen) != 3 || seen[2] != 600 {
		t.Errorf("Expected one notification per input, got %v", seen)
	}
}

func TestScrollSourceKeys(t *testing.T) {
	s := NewScrollSource(6000, 60, nil)
	s.SetViewportHeight(768)

	s.Key(glfw.KeyPageDown)
	if s.Offset() != 768 {
		t.Errorf("Expected PageDown to move one viewport, got %v", s.Offset())
	}
	s.Key(glfw.KeyEnd)
	if s.Offset() != 6000 {
		t.Errorf("Expected End to jump to 6000, got %v", s.Offset())
	}
	s.Key(glfw.KeyPageUp)
	if s.Offset() != 6000-768 {
		t.Errorf("Expected PageUp to move back one viewport, got %v", s.Offset())
	}
	s.Key(glfw.KeyHome)
	if s.Offset() != 0 {
		t.Errorf("Expected Home to jump to 0, got %v", s.Offset())
	}
	if s.Key(glfw.KeyA) {
		t.Error("Unrelated key should not be handled")
	}
}

func TestScrollSourceShrinkPage(t *testing.T) {
	s := NewScrollSource(6000, 60, nil)
	s.Key(glfw.KeyEnd)

	s.SetPageHeight(1000)
	if s.Offset() != 1000 {
		t.Errorf("Expected offset re-clamped to 1000, got %v", s.Offset())
	}
}

func TestLoadingIndicator(t *testing.T) {
	var title string
	li := NewLoadingIndicator("Scroll3D", func(s string) { title = s })

	li.Show("sofa")
	li.Show("lamp")
	if !strings.Contains(title, "sofa, lamp") {
		t.Errorf("Expected both containers in title, got %q", title)
	}
	li.Tick()
	if !strings.HasSuffix(title, spinnerFrames[1]) {
		t.Errorf("Expected spinner to advance, got %q", title)
	}
	li.Hide("sofa")
	if li.Visible("sofa") || !li.Visible("lamp") {
		t.Error("Hide should only affect its own container")
	}
	li.Hide("lamp")
	if title != "Scroll3D" || li.Active() {
		t.Errorf("Expected bare title once all loaded, got %q", title)
	}
}

func TestDevicePolicy(t *testing.T) {
	if !(Device{}).ResizesViewports() {
		t.Error("Desktop devices should follow resizes")
	}
	if (Device{Touch: true}).ResizesViewports() {
		t.Error("Touch devices should ignore resizes")
	}
}

func TestViewerBuildsScenes(t *testing.T) {
	h := newHarness(t, twoScenes, Device{})
	v := h.viewer

	if len(v.Controller().Entries()) != 2 {
		t.Fatalf("Expected 2 entries, got %d", len(v.Controller().Entries()))
	}
	if len(h.loader.requests) != 2 {
		t.Errorf("Expected one load per container, got %d", len(h.loader.requests))
	}
	top := h.renderers["sofa"].Viewport()
	if top.Y != 384 || top.Height != 384 || top.Width != 1024 {
		t.Errorf("Unexpected top viewport %+v", top)
	}
	if !v.Indicator().Visible("sofa") || !v.Indicator().Visible("lamp") {
		t.Error("Expected indicators visible until load")
	}
}

func TestViewerScrollBeforeLoadIsSafe(t *testing.T) {
	h := newHarness(t, twoScenes, Device{})

	// no load callback ever fires
	for i := 0; i < 10; i++ {
		h.viewer.Scroll().Wheel(-1)
		for j := 0; j < spinnerEvery*4; j++ {
			h.viewer.Frame()
		}
	}

	for _, name := range []string{"sofa", "lamp"} {
		if h.viewer.Controller().Entry(name).State() != scroll.Pending {
			t.Errorf("Entry %s should still be pending", name)
		}
		if !h.viewer.Indicator().Visible(name) {
			t.Errorf("Indicator for %s should stay visible", name)
		}
	}
	if !h.viewer.Indicator().Active() {
		t.Error("Indicator should stay active while loads are outstanding")
	}
	if got := h.renderers["sofa"].renders; got != 10*spinnerEvery*4 {
		t.Errorf("Expected every frame to redraw, got %d renders", got)
	}
}

func TestViewerAttachAndRotate(t *testing.T) {
	h := newHarness(t, twoScenes, Device{})
	v := h.viewer
	sofa, lamp := triangle(), triangle()

	h.loader.succeed("https://example.com/sofa.glb", sofa)
	h.loader.succeed("https://example.com/lamp.obj", lamp)
	if v.Controller().Entry("sofa").State() != scroll.Pending {
		t.Error("Callbacks must wait for the event loop")
	}
	v.Frame()

	if len(h.renderers["sofa"].models) != 1 {
		t.Error("Expected model handed to the renderer")
	}
	if v.Indicator().Active() {
		t.Error("Expected indicator hidden after load")
	}

	v.Scroll().SetViewportHeight(500)
	v.Scroll().Key(glfw.KeyPageDown)

	if math.Abs(sofa.Euler[1]-3.5) > 1e-12 || math.Abs(sofa.Euler[0]-1.0) > 1e-12 {
		t.Errorf("Unexpected sofa rotation %v", sofa.Euler)
	}
	if math.Abs(lamp.Euler[1]-1.0) > 1e-12 || lamp.Euler[0] != 0 {
		t.Errorf("Unexpected lamp rotation %v", lamp.Euler)
	}
}

func TestViewerLateLoadWaitsForNextScroll(t *testing.T) {
	h := newHarness(t, twoScenes, Device{})
	v := h.viewer
	v.Scroll().Wheel(-10)

	sofa := triangle()
	h.loader.succeed("https://example.com/sofa.glb", sofa)
	v.Frame()
	if sofa.Euler[1] != 0 {
		t.Errorf("Expected no catch-up rotation on load, got %v", sofa.Euler[1])
	}

	v.Scroll().Wheel(0)
	if math.Abs(sofa.Euler[1]-600*0.007) > 1e-12 {
		t.Errorf("Expected rotation for offset 600, got %v", sofa.Euler[1])
	}
}

func TestViewerAppliesEntryTransform(t *testing.T) {
	h := newHarness(t, "", Device{})
	model := triangle()

	h.loader.succeed(config.Default().Entries[0].ModelURL, model)
	h.viewer.Frame()

	if model.Scale != (mgl32.Vec3{3, 3, 3}) {
		t.Errorf("Expected scale 3, got %v", model.Scale)
	}
	if model.Material.Metallic != 0.1 || model.Material.Roughness != 0.7 {
		t.Errorf("Expected configured material, got %+v", model.Material)
	}
}

func TestViewerFailureLoggedOnce(t *testing.T) {
	h := newHarness(t, twoScenes, Device{})
	v := h.viewer

	h.loader.fail("https://example.com/lamp.obj", errors.New("404"))
	v.Frame()
	v.Scroll().Wheel(-3)
	v.Scroll().Wheel(-3)

	entry := v.Controller().Entry("lamp")
	if entry.State() != scroll.Failed {
		t.Errorf("Expected failed, got %s", entry.State())
	}
	if n := countLevel(h.logs, zapcore.ErrorLevel); n != 1 {
		t.Errorf("Expected exactly one error log, got %d", n)
	}
	if !v.Indicator().Visible("lamp") {
		t.Error("Failed load leaves its indicator visible")
	}
}

func TestViewerResizeFollowsDevice(t *testing.T) {
	desktop := newHarness(t, twoScenes, Device{})
	desktop.viewer.Resize(800, 1200)
	if vp := desktop.renderers["lamp"].Viewport(); vp.Width != 800 || vp.Height != 600 {
		t.Errorf("Expected resized viewport, got %+v", vp)
	}
	if a := desktop.viewer.scenes[1].entry.Camera.AspectRatio; math.Abs(float64(a)-800.0/600.0) > 1e-6 {
		t.Errorf("Expected camera aspect 4/3, got %v", a)
	}

	touch := newHarness(t, twoScenes, Device{Touch: true})
	before := touch.renderers["lamp"].Viewport()
	aspect := touch.viewer.scenes[1].entry.Camera.AspectRatio
	touch.viewer.Resize(800, 1200)
	if touch.renderers["lamp"].Viewport() != before {
		t.Error("Touch device viewport changed on resize")
	}
	if touch.viewer.scenes[1].entry.Camera.AspectRatio != aspect {
		t.Error("Touch device camera changed on resize")
	}
}

func TestViewerReload(t *testing.T) {
	h := newHarness(t, twoScenes, Device{})
	v := h.viewer
	lamp := triangle()
	h.loader.succeed("https://example.com/lamp.obj", lamp)
	v.Frame()
	v.Scroll().Wheel(-5)

	cfg, err := config.Parse([]byte(strings.Replace(twoScenes, "y_factor: 0.002", "y_factor: 0.01", 1)))
	if err != nil {
		t.Fatalf("Parse returned error: %v", err)
	}
	cfg.Entry("sofa").Camera.Fov = 40
	v.Reload(cfg)

	if math.Abs(lamp.Euler[1]-300*0.01) > 1e-12 {
		t.Errorf("Expected rotation with new factor, got %v", lamp.Euler[1])
	}
	if fov := v.scenes[0].entry.Camera.Fov; fov != 40 {
		t.Errorf("Expected sofa fov 40 after reload, got %v", fov)
	}
	if fov := v.scenes[1].entry.Camera.Fov; fov != 75 {
		t.Errorf("Expected lamp fov unchanged at 75, got %v", fov)
	}
}

func TestViewerCleanup(t *testing.T) {
	h := newHarness(t, twoScenes, Device{})
	h.viewer.Cleanup()

	for name, r := range h.renderers {
		if !r.cleaned {
			t.Errorf("Renderer %s not cleaned up", name)
		}
	}
}

func TestColorRef(t *testing.T) {
	if got := colorRef(renderer.HexColor(0xffca91)); got != 0x0091caff {
		t.Errorf("Expected 0x0091caff, got %#x", got)
	}
}

func countLevel(logs *observer.ObservedLogs, level zapcore.Level) int {
	n := 0
	for _, e := range logs.All() {
		if e.Level == level {
			n++
		}
	}
	return n
}
