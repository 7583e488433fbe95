// pkg/config/config.go
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/opd-ai/go-autopilot/pkg/actuation"
	"github.com/opd-ai/go-autopilot/pkg/steering"
)

// EnvPrefix namespaces environment overrides, e.g. AUTOPILOT_NAVIGATION_ARRIVALRADIUS.
const EnvPrefix = "AUTOPILOT"

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Config contains configuration for the autopilot simulator
type Config struct {
	Navigation NavigationConfig    `json:"navigation" mapstructure:"navigation"`
	Steering   steering.Params     `json:"steering" mapstructure:"steering"`
	Scanner    steering.ScanParams `json:"scanner" mapstructure:"scanner"`
	Actuation  actuation.Params    `json:"actuation" mapstructure:"actuation"`
	Simulation SimulationConfig    `json:"simulation" mapstructure:"simulation"`
	Journal    JournalConfig       `json:"journal" mapstructure:"journal"`
	Notify     NotifyConfig        `json:"notify" mapstructure:"notify"`
	Scenario   ScenarioConfig      `json:"scenario" mapstructure:"scenario"`
}

// NavigationConfig holds the per-vessel navigation defaults.
type NavigationConfig struct {
	SpeedMultiplier float64 `json:"speedMultiplier" mapstructure:"speedMultiplier"`
	ArrivalRadius   float64 `json:"arrivalRadius" mapstructure:"arrivalRadius"`
	SlowdownRadius  float64 `json:"slowdownRadius" mapstructure:"slowdownRadius"`
	// ScanRadius of zero disables obstacle scanning.
	ScanRadius      float64 `json:"scanRadius" mapstructure:"scanRadius"`
	ReportObstacles bool    `json:"reportObstacles" mapstructure:"reportObstacles"`
}

// SimulationConfig contains world and integration settings
type SimulationConfig struct {
	WorldSize       float64 `json:"worldSize" mapstructure:"worldSize"`
	TickRate        int     `json:"tickRate" mapstructure:"tickRate"`
	MaxTicks        int     `json:"maxTicks" mapstructure:"maxTicks"`
	DriveDamping    float64 `json:"driveDamping" mapstructure:"driveDamping"`
	ParkedDamping   float64 `json:"parkedDamping" mapstructure:"parkedDamping"`
	AngularDamping  float64 `json:"angularDamping" mapstructure:"angularDamping"`
	SpatialCapacity int     `json:"spatialCapacity" mapstructure:"spatialCapacity"`
}

// JournalConfig controls the navigation journal
type JournalConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Path of the sqlite database; empty keeps the journal in memory.
	Path string `json:"path" mapstructure:"path"`
}

// NotifyConfig tunes the circuit breaker in front of occupant delivery
type NotifyConfig struct {
	MaxRequests      uint32        `json:"maxRequests" mapstructure:"maxRequests"`
	Interval         time.Duration `json:"interval" mapstructure:"interval"`
	Timeout          time.Duration `json:"timeout" mapstructure:"timeout"`
	FailureThreshold uint32        `json:"failureThreshold" mapstructure:"failureThreshold"`
}

// ScenarioConfig describes the bodies the simulator starts with
type ScenarioConfig struct {
	Stations []StationConfig `json:"stations" mapstructure:"stations"`
	Vessels  []VesselConfig  `json:"vessels" mapstructure:"vessels"`
}

// StationConfig contains configuration for a static obstacle
type StationConfig struct {
	Name   string  `json:"name" mapstructure:"name"`
	X      float64 `json:"x" mapstructure:"x"`
	Y      float64 `json:"y" mapstructure:"y"`
	Radius float64 `json:"radius" mapstructure:"radius"`
}

// VesselConfig contains configuration for a vessel
type VesselConfig struct {
	Name               string       `json:"name" mapstructure:"name"`
	X                  float64      `json:"x" mapstructure:"x"`
	Y                  float64      `json:"y" mapstructure:"y"`
	Rotation           float64      `json:"rotation" mapstructure:"rotation"`
	Mass               float64      `json:"mass" mapstructure:"mass"`
	Inertia            float64      `json:"inertia" mapstructure:"inertia"`
	Radius             float64      `json:"radius" mapstructure:"radius"`
	Thrust             [4]float64   `json:"thrust" mapstructure:"thrust"`
	BaseThrust         [4]float64   `json:"baseThrust" mapstructure:"baseThrust"`
	AngularThrust      float64      `json:"angularThrust" mapstructure:"angularThrust"`
	BaseMaxSpeed       float64      `json:"baseMaxSpeed" mapstructure:"baseMaxSpeed"`
	MaxAngularVelocity float64      `json:"maxAngularVelocity" mapstructure:"maxAngularVelocity"`
	ControlModules     []bool       `json:"controlModules" mapstructure:"controlModules"`
	Occupants          []string     `json:"occupants" mapstructure:"occupants"`
	Destination        *PointConfig `json:"destination,omitempty" mapstructure:"destination"`
	Label              string       `json:"label" mapstructure:"label"`
}

// PointConfig is a world-space position
type PointConfig struct {
	X float64 `json:"x" mapstructure:"x"`
	Y float64 `json:"y" mapstructure:"y"`
}

// Load reads a configuration. Defaults apply first, then the JSON file at
// path if one is given, then AUTOPILOT_ environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	if err := setDefaults(v, DefaultConfig()); err != nil {
		return nil, err
	}

	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		v.SetConfigFile(path)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// setDefaults registers every leaf of cfg as a viper default so that
// environment overrides can reach it.
func setDefaults(v *viper.Viper, cfg *Config) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode defaults: %w", err)
	}
	var tree map[string]any
	if err := json.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("failed to decode defaults: %w", err)
	}
	flatten(v, "", tree)
	return nil
}

func flatten(v *viper.Viper, prefix string, tree map[string]any) {
	for key, value := range tree {
		if prefix != "" {
			key = prefix + "." + key
		}
		if child, ok := value.(map[string]any); ok {
			flatten(v, key, child)
			continue
		}
		v.SetDefault(key, value)
	}
}

// Save saves a configuration to a file
func Save(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to serialize config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks the whole configuration.
func (c *Config) Validate() error {
	if err := c.Navigation.Validate(); err != nil {
		return err
	}

	s := c.Steering
	if s.ArrivalEpsilon <= 0 {
		return invalid("steering.arrivalEpsilon must be positive, got %v", s.ArrivalEpsilon)
	}
	if s.MaxForceRatio <= 0 {
		return invalid("steering.maxForceRatio must be positive, got %v", s.MaxForceRatio)
	}
	if s.MinThreat < 0 || s.CriticalThreat <= s.MinThreat || s.CriticalThreat > 1 {
		return invalid("steering thresholds need 0 <= minThreat < criticalThreat <= 1, got %v and %v",
			s.MinThreat, s.CriticalThreat)
	}

	sc := c.Scanner
	if sc.MinLookAheadRatio <= 0 || sc.MinLookAheadRatio > 1 {
		return invalid("scanner.minLookAheadRatio must be in (0, 1], got %v", sc.MinLookAheadRatio)
	}
	if sc.SafetyMargin < 0 {
		return invalid("scanner.safetyMargin must not be negative, got %v", sc.SafetyMargin)
	}
	if sc.CylinderScale < 1 {
		return invalid("scanner.cylinderScale must be at least 1, got %v", sc.CylinderScale)
	}

	a := c.Actuation
	if a.BrakeCoefficient <= 0 {
		return invalid("actuation.brakeCoefficient must be positive, got %v", a.BrakeCoefficient)
	}
	if a.AngularCeiling <= 0 || a.AngularCeiling > 1 {
		return invalid("actuation.angularCeiling must be in (0, 1], got %v", a.AngularCeiling)
	}
	if a.ThreatSpeedDerate < 0 || a.ThreatSpeedDerate > 1 {
		return invalid("actuation.threatSpeedDerate must be in [0, 1], got %v", a.ThreatSpeedDerate)
	}

	sim := c.Simulation
	if sim.WorldSize <= 0 {
		return invalid("simulation.worldSize must be positive, got %v", sim.WorldSize)
	}
	if sim.TickRate <= 0 {
		return invalid("simulation.tickRate must be positive, got %v", sim.TickRate)
	}

	if c.Notify.FailureThreshold == 0 {
		return invalid("notify.failureThreshold must be positive")
	}

	for i, vc := range c.Scenario.Vessels {
		if vc.Name == "" {
			return invalid("scenario.vessels[%d] has no name", i)
		}
		if vc.Mass <= 0 {
			return invalid("scenario.vessels[%d] %q mass must be positive, got %v", i, vc.Name, vc.Mass)
		}
	}
	for i, st := range c.Scenario.Stations {
		if st.Radius <= 0 {
			return invalid("scenario.stations[%d] %q radius must be positive, got %v", i, st.Name, st.Radius)
		}
	}
	return nil
}

// Validate checks the radius ordering arrival < slowdown < scan.
// A zero scan radius is allowed and turns scanning off.
func (n NavigationConfig) Validate() error {
	if n.SpeedMultiplier <= 0 || n.SpeedMultiplier > 1 {
		return invalid("navigation.speedMultiplier must be in (0, 1], got %v", n.SpeedMultiplier)
	}
	if n.ArrivalRadius <= 0 {
		return invalid("navigation.arrivalRadius must be positive, got %v", n.ArrivalRadius)
	}
	if n.SlowdownRadius <= n.ArrivalRadius {
		return invalid("navigation.slowdownRadius %v must exceed arrivalRadius %v", n.SlowdownRadius, n.ArrivalRadius)
	}
	if n.ScanRadius < 0 || (n.ScanRadius > 0 && n.ScanRadius <= n.SlowdownRadius) {
		return invalid("navigation.scanRadius %v must be 0 or exceed slowdownRadius %v", n.ScanRadius, n.SlowdownRadius)
	}
	return nil
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalid, fmt.Sprintf(format, args...))
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Navigation: NavigationConfig{
			SpeedMultiplier: 0.6,
			ArrivalRadius:   20,
			SlowdownRadius:  150,
			ScanRadius:      300,
		},
		Steering:  steering.DefaultParams(),
		Scanner:   steering.DefaultScanParams(),
		Actuation: actuation.DefaultParams(),
		Simulation: SimulationConfig{
			WorldSize:       20000,
			TickRate:        60,
			MaxTicks:        60 * 60 * 5,
			DriveDamping:    0.05,
			ParkedDamping:   2.5,
			AngularDamping:  0.5,
			SpatialCapacity: 8,
		},
		Journal: JournalConfig{
			Enabled: true,
		},
		Notify: NotifyConfig{
			MaxRequests:      1,
			Interval:         time.Minute,
			Timeout:          10 * time.Second,
			FailureThreshold: 5,
		},
		Scenario: ScenarioConfig{
			Stations: []StationConfig{
				{Name: "Relay Ceres", X: 2000, Y: 150, Radius: 120},
				{Name: "Dock Vesta", X: 4000, Y: 0, Radius: 200},
			},
			Vessels: []VesselConfig{
				{
					Name:               "Shuttle Alpha",
					Mass:               200,
					Inertia:            150,
					Radius:             12,
					Thrust:             [4]float64{2000, 2000, 2000, 2000},
					BaseThrust:         [4]float64{2000, 2000, 2000, 2000},
					AngularThrust:      800,
					BaseMaxSpeed:       80,
					MaxAngularVelocity: 2,
					ControlModules:     []bool{true},
					Occupants:          []string{"pilot"},
					Destination:        &PointConfig{X: 4000, Y: 600},
					Label:              "Dock Vesta",
				},
			},
		},
	}
}
