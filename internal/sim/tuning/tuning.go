package tuning

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var defaultsYAML []byte

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	Timing    Timing    `yaml:"timing"`
	World     World     `yaml:"world"`
	Build     Build     `yaml:"build"`
	Costs     Costs     `yaml:"costs"`
	Mining    Mining    `yaml:"mining"`
	Shooting  Shooting  `yaml:"shooting"`
	Entities  Entities  `yaml:"entities"`
	Physics   Physics   `yaml:"physics"`
	Transport Transport `yaml:"transport"`
}

// Timing values are simulated milliseconds. Intervals that drive periodic
// work should be multiples of FrameSizeMs or they round up to the next step.
type Timing struct {
	FrameSizeMs         int `yaml:"frame_size_ms"`
	MaxFrameCatchup     int `yaml:"max_frame_catchup"`
	StateIntervalMs     int `yaml:"state_interval_ms"`
	FullStateIntervalMs int `yaml:"full_state_interval_ms"`
	AIIntervalMs        int `yaml:"ai_interval_ms"`
	DigestEveryTicks    int `yaml:"digest_every_ticks"`
	TelemetryWindowMs   int `yaml:"telemetry_window_ms"`
}

type World struct {
	Width               float64 `yaml:"width"`
	Height              float64 `yaml:"height"`
	SpawnPadding        float64 `yaml:"spawn_padding"`
	VisibilityRadius    float64 `yaml:"visibility_radius"`
	NPCCount            int     `yaml:"npc_count"`
	ResourceCount       int     `yaml:"resource_count"`
	ResourceRespawnMs   int     `yaml:"resource_respawn_ms"`
	ResourceAmount      int     `yaml:"resource_amount"`
	ResourceClearRadius float64 `yaml:"resource_clear_radius"`
}

type Build struct {
	RadiusMin float64 `yaml:"radius_min"`
	RadiusMax float64 `yaml:"radius_max"`
	Tolerance float64 `yaml:"tolerance"`
}

type Costs struct {
	Bud       int `yaml:"bud"`
	Shooter   int `yaml:"shooter"`
	Swarm     int `yaml:"swarm"`
	Converter int `yaml:"converter"`
}

type Mining struct {
	Distance   float64 `yaml:"distance"`
	TimeMs     int     `yaml:"time_ms"`
	IntervalMs int     `yaml:"interval_ms"`
	Amount     int     `yaml:"amount"`
}

type Shooting struct {
	Distance        float64 `yaml:"distance"`
	IntervalMs      int     `yaml:"interval_ms"`
	BulletFlyTimeMs int     `yaml:"bullet_fly_time_ms"`
	Damage          int     `yaml:"damage"`
}

type Entities struct {
	PlayerRadius   float64 `yaml:"player_radius"`
	PlayerHP       int     `yaml:"player_hp"`
	NodeRadius     float64 `yaml:"node_radius"`
	NodeHP         int     `yaml:"node_hp"`
	ResourceRadius float64 `yaml:"resource_radius"`
	StartMineral   int     `yaml:"start_mineral"`
}

type Physics struct {
	VelocityIterations int     `yaml:"velocity_iterations"`
	PositionIterations int     `yaml:"position_iterations"`
	PixelsPerMeter     float64 `yaml:"pixels_per_meter"`
}

type Transport struct {
	CommandRate  float64 `yaml:"command_rate"`
	CommandBurst int     `yaml:"command_burst"`
}

// Defaults returns the embedded tuning.
func Defaults() Tuning {
	var t Tuning
	if err := yaml.Unmarshal(defaultsYAML, &t); err != nil {
		panic(fmt.Sprintf("tuning: embedded defaults: %v", err))
	}
	return t
}

// Load reads path over the embedded defaults. Keys missing from the file
// keep their default values. An empty path returns the defaults.
func Load(path string) (Tuning, error) {
	t := Defaults()
	if path == "" {
		return t, t.Validate()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, t.Validate()
}

func (t Tuning) Validate() error {
	var errs []error
	if t.Timing.FrameSizeMs <= 0 {
		errs = append(errs, fmt.Errorf("timing.frame_size_ms must be > 0"))
	}
	if t.Timing.MaxFrameCatchup <= 0 {
		errs = append(errs, fmt.Errorf("timing.max_frame_catchup must be > 0"))
	}
	if t.World.Width <= 0 || t.World.Height <= 0 {
		errs = append(errs, fmt.Errorf("world size must be > 0"))
	}
	if t.World.SpawnPadding*2 >= t.World.Width || t.World.SpawnPadding*2 >= t.World.Height {
		errs = append(errs, fmt.Errorf("world.spawn_padding leaves no room to spawn"))
	}
	if t.Build.RadiusMin < 0 || t.Build.RadiusMin > t.Build.RadiusMax {
		errs = append(errs, fmt.Errorf("build radius range [%v,%v] is invalid", t.Build.RadiusMin, t.Build.RadiusMax))
	}
	if t.Physics.PixelsPerMeter <= 0 {
		errs = append(errs, fmt.Errorf("physics.pixels_per_meter must be > 0"))
	}
	if t.Mining.Amount <= 0 {
		errs = append(errs, fmt.Errorf("mining.amount must be > 0"))
	}
	return errors.Join(errs...)
}

func (t Tuning) FrameSize() time.Duration {
	return time.Duration(t.Timing.FrameSizeMs) * time.Millisecond
}

// StepSeconds is the physics timestep for one fixed step.
func (t Tuning) StepSeconds() float64 {
	return float64(t.Timing.FrameSizeMs) / 1000
}
