// Package config loads and saves the pipeline's YAML configuration,
// adapted from the teacher's flat Config/LoadConfig shape.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kwv/lidarslam/slam"
)

// Config is the top-level on-disk configuration: the tunable pipeline
// parameters plus the ambient adapters (telemetry, export) that wrap a
// running Processor.
type Config struct {
	Params   ParamsConfig   `yaml:"params"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	GeoJSON  GeoJSONConfig  `yaml:"geojson,omitempty"`
	Render   RenderConfig   `yaml:"render,omitempty"`
}

// ParamsConfig mirrors slam.Params in YAML form; zero fields fall back to
// slam.DefaultParams() values at load time so a config file only needs to
// name the overrides it cares about.
type ParamsConfig struct {
	LeafSize                  *float64 `yaml:"leafSize,omitempty"`
	AngleResolutionDeg        *float64 `yaml:"angleResolutionDeg,omitempty"`
	MaxDistBetweenTwoFrames   *float64 `yaml:"maxDistBetweenTwoFrames,omitempty"`
	MaxDistanceForICPMatching *float64 `yaml:"maxDistanceForICPMatching,omitempty"`
	FastSlam                  *bool    `yaml:"fastSlam,omitempty"`
	Undistortion              *bool    `yaml:"undistortion,omitempty"`
	UseBlob                   *bool    `yaml:"useBlob,omitempty"`
}

// MQTTConfig holds the broker settings for the pose telemetry publisher
// (adapters.TelemetryPublisher), named the same way the teacher's
// MQTTConfig names its fields.
type MQTTConfig struct {
	Broker        string `yaml:"broker"`
	PublishPrefix string `yaml:"publishPrefix"`
	ClientID      string `yaml:"clientId"`
	Username      string `yaml:"username,omitempty"`
	Password      string `yaml:"password,omitempty"`
}

// GeoJSONConfig controls trajectory/map-snapshot export.
type GeoJSONConfig struct {
	TrajectoryPath     string  `yaml:"trajectoryPath,omitempty"`
	SimplifyToleranceM float64 `yaml:"simplifyToleranceM,omitempty"`
}

// RenderConfig controls SVG map-snapshot export.
type RenderConfig struct {
	OutputPath string  `yaml:"outputPath,omitempty"`
	Scale      float64 `yaml:"scale,omitempty"`
}

// Load reads a YAML config file and resolves it against slam.DefaultParams().
func Load(path string) (*Config, slam.Params, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, slam.Params{}, fmt.Errorf("config file not found: %s", path)
		}
		return nil, slam.Params{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, slam.Params{}, fmt.Errorf("parsing config YAML: %w", err)
	}

	if cfg.MQTT.Broker == "" {
		return nil, slam.Params{}, fmt.Errorf("mqtt.broker is required")
	}

	return &cfg, cfg.Params.resolve(), nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config YAML: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (pc ParamsConfig) resolve() slam.Params {
	const degToRad = 3.14159265358979323846 / 180.0
	p := slam.DefaultParams()
	if pc.LeafSize != nil {
		p.LeafSize = *pc.LeafSize
	}
	if pc.AngleResolutionDeg != nil {
		p.AngleResolution = *pc.AngleResolutionDeg * degToRad
	}
	if pc.MaxDistBetweenTwoFrames != nil {
		p.MaxDistBetweenTwoFrames = *pc.MaxDistBetweenTwoFrames
	}
	if pc.MaxDistanceForICPMatching != nil {
		p.MaxDistanceForICPMatching = *pc.MaxDistanceForICPMatching
	}
	if pc.FastSlam != nil {
		p.FastSlam = *pc.FastSlam
	}
	if pc.Undistortion != nil {
		p.Undistortion = *pc.Undistortion
	}
	if pc.UseBlob != nil {
		p.UseBlob = *pc.UseBlob
	}
	return p
}
