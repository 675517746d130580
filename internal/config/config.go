package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Settings struct {
	ListenAddr string `yaml:"listen_addr"`

	// TickRate is the number of simulation steps per broadcast tick.
	TickRate int `yaml:"tick_rate"`
	// StepMs is the fixed simulation step interval in milliseconds.
	StepMs int `yaml:"step_ms"`

	SceneID       string `yaml:"scene_id"`
	SessionSecret string `yaml:"session_secret"`

	DataDir   string `yaml:"data_dir"`
	DisableDB bool   `yaml:"disable_db"`
}

func Defaults() Settings {
	return Settings{
		ListenAddr: ":8085",
		TickRate:   50,
		StepMs:     20,
		SceneID:    "default",
		DataDir:    "./data",
	}
}

// Load reads settings from a YAML file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Settings, error) {
	s := Defaults()
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return s, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func (s Settings) Validate() error {
	if s.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive")
	}
	if s.StepMs <= 0 {
		return fmt.Errorf("step_ms must be positive")
	}
	if s.ListenAddr == "" {
		return fmt.Errorf("listen_addr must be set")
	}
	return nil
}
