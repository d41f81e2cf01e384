// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen     ScreenConfig     `yaml:"screen"`
	Physics    PhysicsConfig    `yaml:"physics"`
	Grid       GridConfig       `yaml:"grid"`
	Streaming  StreamingConfig  `yaml:"streaming"`
	Population PopulationConfig `yaml:"population"`
	AgentBody  AgentBodyConfig  `yaml:"agent_body"`
	FlowField  FlowFieldConfig  `yaml:"flow_field"`
	Steering   SteeringConfig   `yaml:"steering"`
	Player     PlayerConfig     `yaml:"player"`
	Weapon     WeaponConfig     `yaml:"weapon"`
	Camera     CameraConfig     `yaml:"camera"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// PhysicsConfig holds the fixed simulation step.
type PhysicsConfig struct {
	DT float64 `yaml:"dt"`
}

// GridConfig holds the single cell size shared by streaming and pathfinding.
type GridConfig struct {
	CellSize float64 `yaml:"cell_size"`
}

// StreamingConfig holds terrain tile streaming parameters.
type StreamingConfig struct {
	BaseRadius      int     `yaml:"base_radius"`
	ZoomInfluence   float64 `yaml:"zoom_influence"` // Camera distance per extra ring
	MinRadius       int     `yaml:"min_radius"`
	MaxRadius       int     `yaml:"max_radius"`
	TileOffsetY     float64 `yaml:"tile_offset_y"`
	TileScale       float64 `yaml:"tile_scale"`
	AmbushChance    float64 `yaml:"ambush_chance"`    // Per new tile
	AmbushExclusion int     `yaml:"ambush_exclusion"` // No ambush within this Chebyshev distance of the player
}

// PopulationConfig holds agent population parameters.
type PopulationConfig struct {
	MaxAgents     int     `yaml:"max_agents"`
	SpawnInterval float64 `yaml:"spawn_interval"` // Seconds between ambient spawns
	RingScale     float64 `yaml:"ring_scale"`     // Multiplier on radius*cell_size for cull and spawn distance
	DespawnMargin float64 `yaml:"despawn_margin"` // Cells beyond the streaming ring
	SpawnMargin   float64 `yaml:"spawn_margin"`   // Cells beyond the streaming ring
	GroundY       float64 `yaml:"ground_y"`
	AnimationClip int     `yaml:"animation_clip"`
}

// AgentBodyConfig holds the kinematic capsule attached to each agent.
type AgentBodyConfig struct {
	Radius      float64 `yaml:"radius"`
	HalfHeight  float64 `yaml:"half_height"`
	Friction    float64 `yaml:"friction"`
	Restitution float64 `yaml:"restitution"`
}

// FlowFieldConfig holds flow field solver parameters.
type FlowFieldConfig struct {
	Interval      float64         `yaml:"interval"` // Seconds between recomputes
	Horizon       int             `yaml:"horizon"`  // Chebyshev expansion limit in cells
	Impassable    int             `yaml:"impassable"`
	PruneDistance int             `yaml:"prune_distance"` // 0 keeps every discovered cell
	Async         bool            `yaml:"async"`
	Obstacles     ObstaclesConfig `yaml:"obstacles"`
}

// ObstaclesConfig configures the noise obstacle cost source.
type ObstaclesConfig struct {
	Enabled   bool    `yaml:"enabled"`
	Seed      int64   `yaml:"seed"`
	Frequency float64 `yaml:"frequency"` // Noise frequency per cell
	Octaves   int     `yaml:"octaves"`
	Threshold float64 `yaml:"threshold"` // Normalized noise above this is impassable
	RoughBand float64 `yaml:"rough_band"`
	RoughCost int     `yaml:"rough_cost"`
	Clearing  int     `yaml:"clearing"` // Cells around the origin kept open
}

// SteeringConfig holds agent steering parameters.
type SteeringConfig struct {
	BaseSpeed        float64 `yaml:"base_speed"`
	StopDistance     float64 `yaml:"stop_distance"`
	TurnRate         float64 `yaml:"turn_rate"`
	WobbleFrequency  float64 `yaml:"wobble_frequency"`
	WobbleAmplitude  float64 `yaml:"wobble_amplitude"`
	WobbleWeight     float64 `yaml:"wobble_weight"`
	SeparationRadius float64 `yaml:"separation_radius"`
	SeparationWeight float64 `yaml:"separation_weight"`
}

// PlayerConfig holds player controller parameters.
type PlayerConfig struct {
	Speed          float64 `yaml:"speed"`
	TurnRate       float64 `yaml:"turn_rate"`
	BobRate        float64 `yaml:"bob_rate"`
	BobBlendRate   float64 `yaml:"bob_blend_rate"`
	BobAmplitude   float64 `yaml:"bob_amplitude"`    // Third person
	BobAmplitudeFP float64 `yaml:"bob_amplitude_fp"` // First person
	FocusHeight    float64 `yaml:"focus_height"`
	EyeHeight      float64 `yaml:"eye_height"`
	FPScale        float64 `yaml:"first_person_scale"`
}

// WeaponConfig holds hitscan weapon parameters.
type WeaponConfig struct {
	MuzzleHeight float64 `yaml:"muzzle_height"`
	Range        float64 `yaml:"range"`
	HitRadius    float64 `yaml:"hit_radius"`
	TargetHeight float64 `yaml:"target_height"`
	BeamLifetime float64 `yaml:"beam_lifetime"`
	BeamWidth    float64 `yaml:"beam_width"`
	Cooldown     float64 `yaml:"cooldown"`
	ShootClip    int     `yaml:"shoot_clip"`
	GunScale     float64 `yaml:"gun_scale"`
}

// CameraConfig holds orbit camera parameters.
type CameraConfig struct {
	Distance            float64 `yaml:"distance"`
	Pitch               float64 `yaml:"pitch"`
	Yaw                 float64 `yaml:"yaw"`
	MinDistance         float64 `yaml:"min_distance"`
	PitchLimit          float64 `yaml:"pitch_limit"`
	RotationSpeed       float64 `yaml:"rotation_speed"`
	MaxZoomSpeed        float64 `yaml:"max_zoom_speed"`
	ScrollScale         float64 `yaml:"scroll_scale"`
	LockedDistance      float64 `yaml:"locked_distance"`
	LockedMinPitch      float64 `yaml:"locked_min_pitch"`
	FirstPersonDistance float64 `yaml:"first_person_distance"`
	FirstPersonEnter    float64 `yaml:"first_person_enter"` // Scroll in below this distance
}

// TelemetryConfig holds telemetry and performance collection settings.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"`
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	ScreenW32 float32 // Screen.Width as float32
	ScreenH32 float32 // Screen.Height as float32
	DT32      float32 // Physics.DT as float32
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// MustInit is like Init but panics on error.
func MustInit(path string) {
	if err := Init(path); err != nil {
		panic(fmt.Sprintf("config: failed to initialize: %v", err))
	}
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Defaults returns a fresh copy of the embedded defaults.
func Defaults() *Config {
	cfg, err := Load("")
	if err != nil {
		panic(fmt.Sprintf("config: embedded defaults invalid: %v", err))
	}
	return cfg
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	cfg.computeDerived()

	return cfg, nil
}

// Validate rejects values the simulation cannot run with.
func (c *Config) Validate() error {
	var errs []error
	if c.Physics.DT <= 0 {
		errs = append(errs, fmt.Errorf("physics.dt must be positive, got %v", c.Physics.DT))
	}
	if c.Grid.CellSize <= 0 {
		errs = append(errs, fmt.Errorf("grid.cell_size must be positive, got %v", c.Grid.CellSize))
	}
	if c.Streaming.ZoomInfluence <= 0 {
		errs = append(errs, fmt.Errorf("streaming.zoom_influence must be positive, got %v", c.Streaming.ZoomInfluence))
	}
	if c.Streaming.MinRadius < 0 || c.Streaming.MaxRadius < c.Streaming.MinRadius {
		errs = append(errs, fmt.Errorf("streaming radius bounds invalid: [%d, %d]", c.Streaming.MinRadius, c.Streaming.MaxRadius))
	}
	if c.Streaming.AmbushChance < 0 || c.Streaming.AmbushChance > 1 {
		errs = append(errs, fmt.Errorf("streaming.ambush_chance must be in [0,1], got %v", c.Streaming.AmbushChance))
	}
	if c.Population.MaxAgents < 0 {
		errs = append(errs, fmt.Errorf("population.max_agents must not be negative, got %d", c.Population.MaxAgents))
	}
	if c.Population.SpawnInterval <= 0 {
		errs = append(errs, fmt.Errorf("population.spawn_interval must be positive, got %v", c.Population.SpawnInterval))
	}
	if c.Population.RingScale <= 0 {
		errs = append(errs, fmt.Errorf("population.ring_scale must be positive, got %v", c.Population.RingScale))
	}
	if c.FlowField.Interval <= 0 {
		errs = append(errs, fmt.Errorf("flow_field.interval must be positive, got %v", c.FlowField.Interval))
	}
	if c.FlowField.Horizon < 1 {
		errs = append(errs, fmt.Errorf("flow_field.horizon must be at least 1, got %d", c.FlowField.Horizon))
	}
	if c.FlowField.Impassable < 2 {
		errs = append(errs, fmt.Errorf("flow_field.impassable must be at least 2, got %d", c.FlowField.Impassable))
	}
	if c.Steering.SeparationRadius < 0 {
		errs = append(errs, fmt.Errorf("steering.separation_radius must not be negative, got %v", c.Steering.SeparationRadius))
	}
	if c.Weapon.Range <= 0 {
		errs = append(errs, fmt.Errorf("weapon.range must be positive, got %v", c.Weapon.Range))
	}
	if c.Camera.MinDistance <= 0 {
		errs = append(errs, fmt.Errorf("camera.min_distance must be positive, got %v", c.Camera.MinDistance))
	}
	return errors.Join(errs...)
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	c.Derived.ScreenW32 = float32(c.Screen.Width)
	c.Derived.ScreenH32 = float32(c.Screen.Height)
	c.Derived.DT32 = float32(c.Physics.DT)
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
