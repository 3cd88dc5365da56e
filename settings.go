package interop

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Environment variables overriding the settings file.
const (
	EnvSettingsPath = "XR_D3D12ON11_SETTINGS"
	EnvDebugDevice  = "XR_D3D12ON11_DEBUG_DEVICE"
	EnvLogLevel     = "XR_D3D12ON11_LOG_LEVEL"
)

// Settings are the user-tunable knobs of the layer.
type Settings struct {
	DebugDevice bool   `yaml:"debug_device"`
	LogLevel    string `yaml:"log_level"`
	LayerName   string `yaml:"layer_name"`
}

// LoadSettings reads the YAML settings file at path, then applies the
// environment overrides. A missing file is not an error. An empty path
// falls back to $XR_D3D12ON11_SETTINGS.
func LoadSettings(path string) (*Settings, error) {
	s := &Settings{LogLevel: "info"}
	if path == "" {
		path = os.Getenv(EnvSettingsPath)
	}
	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("settings: %w", err)
		default:
			if err := yaml.Unmarshal(data, s); err != nil {
				return nil, fmt.Errorf("settings %s: %w", path, err)
			}
		}
	}

	if v := os.Getenv(EnvDebugDevice); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil, fmt.Errorf("settings: %s: %w", EnvDebugDevice, err)
		}
		s.DebugDevice = b
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		s.LogLevel = v
	}
	if _, err := s.Level(); err != nil {
		return nil, err
	}
	return s, nil
}

// Level parses LogLevel.
func (s *Settings) Level() (slog.Level, error) {
	var level slog.Level
	if s.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s.LogLevel)); err != nil {
		return 0, fmt.Errorf("settings: log level %q: %w", s.LogLevel, err)
	}
	return level, nil
}

// Options converts the settings into entry options.
func (s *Settings) Options() []Option {
	opts := []Option{WithDebugDevice(s.DebugDevice)}
	if s.LayerName != "" {
		opts = append(opts, WithLayerName(s.LayerName))
	}
	return opts
}
