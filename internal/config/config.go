package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"Scroll3D/internal/renderer"
	"Scroll3D/internal/scroll"

	"github.com/go-gl/mathgl/mgl32"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Window   WindowConfig   `yaml:"window"`
	Device   DeviceConfig   `yaml:"device"`
	Scroll   ScrollConfig   `yaml:"scroll"`
	Log      LogConfig      `yaml:"log"`
	Loader   LoaderConfig   `yaml:"loader"`
	Lighting LightingConfig `yaml:"lighting"`
	Entries  []EntryConfig  `yaml:"entries"`
}

type WindowConfig struct {
	Title  string `yaml:"title"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

// DeviceConfig replaces user-agent sniffing: the host says what it is.
type DeviceConfig struct {
	Touch bool `yaml:"touch"`
}

type ScrollConfig struct {
	PageHeight float64 `yaml:"page_height"`
	LineHeight float64 `yaml:"line_height"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type LoaderConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
	// MaxBytes caps each fetched model, buffer or image file.
	MaxBytes int64 `yaml:"max_bytes"`
}

type LightingConfig struct {
	Hemisphere struct {
		Sky       Color   `yaml:"sky"`
		Ground    Color   `yaml:"ground"`
		Intensity float32 `yaml:"intensity"`
		Position  Vec3    `yaml:"position"`
	} `yaml:"hemisphere"`
	Directional struct {
		Color     Color   `yaml:"color"`
		Intensity float32 `yaml:"intensity"`
		Position  Vec3    `yaml:"position"`
	} `yaml:"directional"`
	Ambient struct {
		Color     Color   `yaml:"color"`
		Intensity float32 `yaml:"intensity"`
	} `yaml:"ambient"`
}

type EntryConfig struct {
	Container  string         `yaml:"container"`
	ModelURL   string         `yaml:"model_url"`
	Region     *RegionConfig  `yaml:"region"`
	ClearColor *Color         `yaml:"clear_color"`
	Scale      *Vec3          `yaml:"scale"`
	Position   Vec3           `yaml:"position"`
	Camera     CameraConfig   `yaml:"camera"`
	Rotation   RotationConfig `yaml:"rotation"`
	Material   MaterialConfig `yaml:"material"`
}

type RegionConfig struct {
	X float32 `yaml:"x"`
	Y float32 `yaml:"y"`
	W float32 `yaml:"w"`
	H float32 `yaml:"h"`
}

type CameraConfig struct {
	Fov      float32 `yaml:"fov"`
	Near     float32 `yaml:"near"`
	Far      float32 `yaml:"far"`
	Position *Vec3   `yaml:"position"`
	LookAt   Vec3    `yaml:"look_at"`
}

type RotationConfig struct {
	YFactor float64 `yaml:"y_factor"`
	// XFactor is optional; when absent the x axis is left alone.
	XFactor *float64 `yaml:"x_factor"`
}

type MaterialConfig struct {
	Metallic  *float32 `yaml:"metallic"`
	Roughness *float32 `yaml:"roughness"`
	Color     *Color   `yaml:"color"`
}

type Vec3 [3]float32

func (v Vec3) Vec() mgl32.Vec3 {
	return mgl32.Vec3(v)
}

// Color is written as "#rrggbb".
type Color mgl32.Vec3

func (c *Color) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("color must be a string")
	}
	s := strings.TrimPrefix(value.Value, "#")
	if len(s) != 6 {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}
	hex, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return fmt.Errorf("invalid color format: %s", value.Value)
	}
	*c = Color(renderer.HexColor(uint32(hex)))
	return nil
}

func (c Color) MarshalYAML() (interface{}, error) {
	return fmt.Sprintf("#%02x%02x%02x", to8(c[0]), to8(c[1]), to8(c[2])), nil
}

func to8(f float32) uint8 {
	return uint8(mgl32.Clamp(f, 0, 1)*255 + 0.5)
}

func (c Color) Vec() mgl32.Vec3 {
	return mgl32.Vec3(c)
}

// Default returns the built-in scene: one leather chair on a peach background.
func Default() *Config {
	cfg, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("config: embedded default is broken: %v", err))
	}
	return cfg
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: load %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes data over the embedded defaults, fills per-entry defaults and
// validates the result. A document without entries keeps the default scene.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(defaultYAML, &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal defaults: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	for i := range cfg.Entries {
		cfg.Entries[i].applyDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (e *EntryConfig) applyDefaults() {
	if e.Region == nil {
		e.Region = &RegionConfig{X: 0, Y: 0, W: 1, H: 1}
	}
	if e.ClearColor == nil {
		c := Color(renderer.HexColor(0xffca91))
		e.ClearColor = &c
	}
	if e.Scale == nil {
		e.Scale = &Vec3{1, 1, 1}
	}
	if e.Camera.Fov == 0 {
		e.Camera.Fov = 75
	}
	if e.Camera.Near == 0 {
		e.Camera.Near = 0.1
	}
	if e.Camera.Far == 0 {
		e.Camera.Far = 1000
	}
	if e.Camera.Position == nil {
		e.Camera.Position = &Vec3{0, 3, 5}
	}
}

func (c *Config) Validate() error {
	if len(c.Entries) == 0 {
		return fmt.Errorf("%w: no entries", ErrInvalid)
	}
	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		return fmt.Errorf("%w: window size %dx%d", ErrInvalid, c.Window.Width, c.Window.Height)
	}
	if c.Scroll.PageHeight <= 0 {
		return fmt.Errorf("%w: scroll.page_height must be positive", ErrInvalid)
	}
	if c.Scroll.LineHeight <= 0 {
		return fmt.Errorf("%w: scroll.line_height must be positive", ErrInvalid)
	}
	if c.Loader.MaxBytes <= 0 {
		return fmt.Errorf("%w: loader.max_bytes must be positive", ErrInvalid)
	}

	seen := make(map[string]bool, len(c.Entries))
	for i, e := range c.Entries {
		if e.Container == "" {
			return fmt.Errorf("%w: entry %d has no container", ErrInvalid, i)
		}
		if seen[e.Container] {
			return fmt.Errorf("%w: duplicate container %q", ErrInvalid, e.Container)
		}
		seen[e.Container] = true
		if e.ModelURL == "" {
			return fmt.Errorf("%w: container %q has no model_url", ErrInvalid, e.Container)
		}
		if r := e.Region; r != nil {
			if r.W <= 0 || r.H <= 0 || r.X < 0 || r.Y < 0 || r.X+r.W > 1.0001 || r.Y+r.H > 1.0001 {
				return fmt.Errorf("%w: container %q region outside the window", ErrInvalid, e.Container)
			}
		}
		if e.Camera.Near >= e.Camera.Far {
			return fmt.Errorf("%w: container %q camera near >= far", ErrInvalid, e.Container)
		}
	}
	return nil
}

func (c *Config) Entry(container string) *EntryConfig {
	for i := range c.Entries {
		if c.Entries[i].Container == container {
			return &c.Entries[i]
		}
	}
	return nil
}

func (e *EntryConfig) Coefficients() scroll.Coefficients {
	coefficients := scroll.Coefficients{Y: e.Rotation.YFactor}
	if e.Rotation.XFactor != nil {
		coefficients.X = *e.Rotation.XFactor
		coefficients.ApplyX = true
	}
	return coefficients
}

func (e *EntryConfig) RegionRect() renderer.Region {
	if e.Region == nil {
		return renderer.FullRegion
	}
	return renderer.Region{X: e.Region.X, Y: e.Region.Y, W: e.Region.W, H: e.Region.H}
}

// ApplyMaterial copies the configured surface overrides onto every material
// of model. Unset fields keep what the model file declared.
func (e *EntryConfig) ApplyMaterial(model *renderer.Model) {
	for _, mat := range model.Materials() {
		if e.Material.Metallic != nil {
			mat.Metallic = *e.Material.Metallic
		}
		if e.Material.Roughness != nil {
			mat.Roughness = *e.Material.Roughness
		}
		if c := e.Material.Color; c != nil {
			mat.DiffuseColor = [3]float32(*c)
		}
	}
}

func (l *LightingConfig) Lighting() *renderer.Lighting {
	return &renderer.Lighting{
		Hemisphere: renderer.HemisphereLight{
			SkyColor:    l.Hemisphere.Sky.Vec(),
			GroundColor: l.Hemisphere.Ground.Vec(),
			Intensity:   l.Hemisphere.Intensity,
			Position:    l.Hemisphere.Position.Vec(),
		},
		Directional: renderer.DirectionalLight{
			Color:     l.Directional.Color.Vec(),
			Intensity: l.Directional.Intensity,
			Position:  l.Directional.Position.Vec(),
		},
		Ambient: renderer.AmbientLight{
			Color:     l.Ambient.Color.Vec(),
			Intensity: l.Ambient.Intensity,
		},
	}
}
