package engine

import (
	"fmt"
	"runtime"

	"Scroll3D/internal/config"
	"Scroll3D/internal/loader"
	"Scroll3D/internal/logger"
	"Scroll3D/internal/renderer"
	"Scroll3D/internal/scroll"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"go.uber.org/zap"
)

// spinnerEvery is the number of frames between spinner steps.
const spinnerEvery = 8

// scene is the engine side of a scroll.Entry.
type scene struct {
	cfg   config.EntryConfig
	entry *scroll.Entry
	model *renderer.Model
}

type Option func(*Viewer)

// WithLoader replaces the default asynchronous loader.
func WithLoader(l loader.Loader) Option {
	return func(v *Viewer) { v.loader = l }
}

// WithRendererFactory replaces the OpenGL renderer created per container.
func WithRendererFactory(newRenderer func(container string) renderer.Render) Option {
	return func(v *Viewer) { v.newRenderer = newRenderer }
}

func WithLogger(log *zap.Logger) Option {
	return func(v *Viewer) { v.log = log }
}

// Viewer owns the window, one scene per container and the loop that
// ties scroll input to model orientation.
type Viewer struct {
	Width  int32
	Height int32

	cfg         *config.Config
	device      Device
	window      *glfw.Window
	scenes      []*scene
	lighting    *renderer.Lighting
	controller  *scroll.Controller
	loader      loader.Loader
	newRenderer func(container string) renderer.Render
	events      *EventQueue
	scroll      *ScrollSource
	indicator   *LoadingIndicator
	watcher     *config.Watcher
	frames      int
	log         *zap.Logger
}

func NewViewer(cfg *config.Config, device Device, opts ...Option) (*Viewer, error) {
	v := &Viewer{
		Width:    int32(cfg.Window.Width),
		Height:   int32(cfg.Window.Height),
		cfg:      cfg,
		device:   device,
		lighting: cfg.Lighting.Lighting(),
		events:   NewEventQueue(256),
		newRenderer: func(container string) renderer.Render {
			return renderer.NewOpenGLRenderer(container)
		},
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.log == nil {
		v.log = logger.Named("engine")
	}
	if v.loader == nil {
		v.loader = loader.NewAsyncLoader(v.events.Post,
			loader.WithTimeout(cfg.Loader.Timeout),
			loader.WithUserAgent(cfg.Loader.UserAgent),
			loader.WithMaxBytes(cfg.Loader.MaxBytes),
			loader.WithLogger(v.log.Named("loader")))
	}

	v.controller = scroll.NewController(v.log.Named("scroll"))
	v.scroll = NewScrollSource(cfg.Scroll.PageHeight, cfg.Scroll.LineHeight, v.controller.OnScroll)
	v.scroll.SetViewportHeight(float64(v.Height))
	v.indicator = NewLoadingIndicator(cfg.Window.Title, nil)

	for _, ec := range cfg.Entries {
		s := &scene{
			cfg:   ec,
			entry: scroll.NewEntry(ec.Container, ec.Coefficients()),
		}
		region := ec.RegionRect()
		camera := renderer.NewPerspectiveCamera(ec.Camera.Fov,
			region.Resolve(v.Width, v.Height).AspectRatio(), ec.Camera.Near, ec.Camera.Far)
		camera.Name = ec.Container
		p := ec.Camera.Position
		camera.SetPosition(p[0], p[1], p[2])
		camera.LookAt(ec.Camera.LookAt.Vec())

		s.entry.Camera = camera
		s.entry.Renderer = v.newRenderer(ec.Container)
		if err := v.controller.Add(s.entry); err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		v.scenes = append(v.scenes, s)
	}
	return v, nil
}

func (v *Viewer) Controller() *scroll.Controller {
	return v.controller
}

func (v *Viewer) Scroll() *ScrollSource {
	return v.scroll
}

func (v *Viewer) Indicator() *LoadingIndicator {
	return v.indicator
}

func (v *Viewer) Events() *EventQueue {
	return v.events
}

// Run opens the window and blocks in the render loop until it is closed.
// It must be called from the main goroutine.
func (v *Viewer) Run(x, y int) error {
	runtime.LockOSThread()

	if err := glfw.Init(); err != nil {
		return fmt.Errorf("engine: could not initialize glfw: %w", err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.Decorated, glfw.True)
	glfw.WindowHint(glfw.Resizable, glfw.True)
	glfw.WindowHint(glfw.DepthBits, 24)
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)

	window, err := glfw.CreateWindow(int(v.Width), int(v.Height), v.cfg.Window.Title, nil, nil)
	if err != nil {
		return fmt.Errorf("engine: could not create glfw window: %w", err)
	}
	v.window = window
	window.MakeContextCurrent()
	if err := gl.Init(); err != nil {
		return fmt.Errorf("engine: could not initialize OpenGL: %w", err)
	}
	glfw.SwapInterval(1)
	window.SetPos(x, y)
	if len(v.scenes) > 0 {
		setTitleBarColor(window, v.scenes[0].cfg.ClearColor.Vec())
	}

	fbWidth, fbHeight := window.GetFramebufferSize()
	for _, s := range v.scenes {
		viewport := s.cfg.RegionRect().Resolve(int32(fbWidth), int32(fbHeight))
		s.entry.Renderer.Init(viewport, s.cfg.ClearColor.Vec())
		s.entry.Camera.SetAspectRatio(viewport.AspectRatio())
	}

	v.indicator.setTitle = window.SetTitle
	window.SetScrollCallback(func(_ *glfw.Window, _, yoff float64) {
		v.scroll.Wheel(yoff)
	})
	window.SetKeyCallback(func(w *glfw.Window, key glfw.Key, _ int, action glfw.Action, _ glfw.ModifierKey) {
		if action == glfw.Release {
			return
		}
		if key == glfw.KeyEscape {
			w.SetShouldClose(true)
			return
		}
		v.scroll.Key(key)
	})
	window.SetFramebufferSizeCallback(func(_ *glfw.Window, width, height int) {
		v.Resize(int32(width), int32(height))
	})

	v.startLoads()
	v.RenderLoop()
	return nil
}

// startLoads issues one load per container. Callbacks arrive through the
// event queue.
func (v *Viewer) startLoads() {
	for _, s := range v.scenes {
		s := s
		v.indicator.Show(s.cfg.Container)
		v.log.Info("Loading model",
			zap.String("container", s.cfg.Container),
			zap.String("url", s.cfg.ModelURL))
		v.loader.Load(s.cfg.ModelURL,
			func(model *renderer.Model) { v.attach(s, model) },
			func(err error) { v.fail(s, err) })
	}
}

func (v *Viewer) attach(s *scene, model *renderer.Model) {
	s.cfg.ApplyMaterial(model)
	sc := s.cfg.Scale
	model.SetScale(sc[0], sc[1], sc[2])
	p := s.cfg.Position
	model.SetPosition(p[0], p[1], p[2])

	if err := v.controller.Attach(s.cfg.Container, model); err != nil {
		v.log.Warn("Dropping model", zap.String("container", s.cfg.Container), zap.Error(err))
		return
	}
	s.model = model
	s.entry.Renderer.AddModel(model)
	v.indicator.Hide(s.cfg.Container)
}

func (v *Viewer) fail(s *scene, err error) {
	if ferr := v.controller.Fail(s.cfg.Container, fmt.Errorf("%s: %w", s.cfg.ModelURL, err)); ferr != nil {
		v.log.Warn("Ignoring load failure", zap.String("container", s.cfg.Container), zap.Error(ferr))
	}
}

// Resize recomputes each scene's viewport and camera aspect for a new
// framebuffer size. Touch devices keep their startup layout.
func (v *Viewer) Resize(fbWidth, fbHeight int32) {
	if !v.device.ResizesViewports() || fbWidth <= 0 || fbHeight <= 0 {
		return
	}
	for _, s := range v.scenes {
		viewport := s.cfg.RegionRect().Resolve(fbWidth, fbHeight)
		s.entry.Renderer.SetViewport(viewport)
		s.entry.Camera.SetAspectRatio(viewport.AspectRatio())
	}
	v.scroll.SetViewportHeight(float64(fbHeight))
}

// Reload applies the rotation factors and camera fov of cfg to the running
// scenes. Containers, models and layout stay as they were at startup.
func (v *Viewer) Reload(cfg *config.Config) {
	for _, s := range v.scenes {
		ec := cfg.Entry(s.cfg.Container)
		if ec == nil {
			v.log.Warn("Reloaded config has no entry for container", zap.String("container", s.cfg.Container))
			continue
		}
		s.cfg.Rotation = ec.Rotation
		s.cfg.Camera.Fov = ec.Camera.Fov
		s.entry.Camera.SetFov(ec.Camera.Fov)
		if err := v.controller.SetCoefficients(s.cfg.Container, ec.Coefficients()); err != nil {
			v.log.Error("Could not update coefficients", zap.Error(err))
		}
	}
	v.scroll.SetPageHeight(cfg.Scroll.PageHeight)
	v.controller.OnScroll(v.scroll.Offset())
	v.log.Info("Config reloaded")
}

// Watch reloads path whenever it changes. Reloads run on the render loop.
func (v *Viewer) Watch(path string) error {
	w, err := config.Watch(path)
	if err != nil {
		return fmt.Errorf("engine: watch %s: %w", path, err)
	}
	v.watcher = w
	go func() {
		for {
			select {
			case _, ok := <-w.Events:
				if !ok {
					return
				}
				cfg, err := config.Load(path)
				if err != nil {
					v.log.Error("Could not reload config", zap.Error(err))
					continue
				}
				v.events.Post(func() { v.Reload(cfg) })
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				v.log.Warn("Config watcher error", zap.Error(err))
			}
		}
	}()
	return nil
}

func (v *Viewer) RenderLoop() {
	for !v.window.ShouldClose() {
		v.Frame()
		v.window.SwapBuffers()
		glfw.PollEvents()
	}
	v.Cleanup()
}

// Frame runs queued callbacks and redraws every scene.
func (v *Viewer) Frame() {
	v.events.Drain()
	v.frames++
	if v.frames%spinnerEvery == 0 {
		v.indicator.Tick()
	}
	for _, s := range v.scenes {
		s.entry.Renderer.Render(s.entry.Camera, v.lighting)
	}
}

func (v *Viewer) Cleanup() {
	if v.watcher != nil {
		if err := v.watcher.Close(); err != nil {
			v.log.Warn("Could not close config watcher", zap.Error(err))
		}
	}
	for _, s := range v.scenes {
		s.entry.Renderer.Cleanup()
	}
}
