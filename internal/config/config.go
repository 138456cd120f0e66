package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"telemetry-rx/internal/serial"
	"telemetry-rx/internal/telemetry"
)

type Config struct {
	Source    SourceConfig    `yaml:"source"`
	Record    RecordConfig    `yaml:"record"`
	Indicator IndicatorConfig `yaml:"indicator"`
	Log       LogConfig       `yaml:"log"`
	Query     QueryConfig     `yaml:"query"`
}

type SourceConfig struct {
	// Kind selects the line stream: "serial" (default) or "replay".
	Kind   string       `yaml:"kind"`
	Serial SerialConfig `yaml:"serial"`
	Replay ReplayConfig `yaml:"replay"`
}

type SerialConfig struct {
	// Device may be empty to auto-detect.
	Device       string `yaml:"device"`
	Baud         int    `yaml:"baud"`
	MaxLineBytes int    `yaml:"max_line_bytes"`
}

type ReplayConfig struct {
	Path  string  `yaml:"path"`
	Speed float64 `yaml:"speed"`
	Loop  bool    `yaml:"loop"`
}

type RecordConfig struct {
	Enable bool   `yaml:"enable"`
	Path   string `yaml:"path"`
}

type IndicatorConfig struct {
	Enable  bool `yaml:"enable"`
	GPIOPin int  `yaml:"gpio_pin"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

type QueryConfig struct {
	SortBy string `yaml:"sort_by"`
}

const (
	SourceSerial = "serial"
	SourceReplay = "replay"
)

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	return Parse(b)
}

// Parse decodes YAML, applies defaults and validates.
func Parse(b []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}

	cfg.Source.Kind = strings.ToLower(strings.TrimSpace(cfg.Source.Kind))
	if cfg.Source.Kind == "" {
		cfg.Source.Kind = SourceSerial
	}
	switch cfg.Source.Kind {
	case SourceSerial:
		if cfg.Source.Serial.Baud == 0 {
			cfg.Source.Serial.Baud = serial.DefaultBaud
		}
		if !serial.SupportedBaud(cfg.Source.Serial.Baud) {
			return Config{}, fmt.Errorf("source.serial.baud %d is not supported", cfg.Source.Serial.Baud)
		}
	case SourceReplay:
		if strings.TrimSpace(cfg.Source.Replay.Path) == "" {
			return Config{}, fmt.Errorf("source.replay.path is required when source.kind is 'replay'")
		}
		if cfg.Source.Replay.Speed == 0 {
			cfg.Source.Replay.Speed = 1
		}
		if cfg.Source.Replay.Speed < 0 {
			return Config{}, fmt.Errorf("source.replay.speed must be > 0")
		}
	default:
		return Config{}, fmt.Errorf("source.kind must be 'serial' or 'replay'")
	}
	if cfg.Source.Serial.MaxLineBytes < 0 {
		return Config{}, fmt.Errorf("source.serial.max_line_bytes must be >= 0")
	}
	if cfg.Source.Serial.MaxLineBytes == 0 {
		cfg.Source.Serial.MaxLineBytes = 4096
	}

	if cfg.Record.Enable {
		if strings.TrimSpace(cfg.Record.Path) == "" {
			return Config{}, fmt.Errorf("record.path is required when record.enable is true")
		}
		if cfg.Source.Kind == SourceReplay {
			return Config{}, fmt.Errorf("record and replay cannot both be enabled")
		}
	}

	if cfg.Indicator.Enable && cfg.Indicator.GPIOPin <= 0 {
		return Config{}, fmt.Errorf("indicator.gpio_pin must be > 0 when indicator.enable is true")
	}

	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	switch cfg.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return Config{}, fmt.Errorf("log.level must be one of debug, info, warn, error")
	}
	cfg.Log.Format = strings.ToLower(strings.TrimSpace(cfg.Log.Format))
	if cfg.Log.Format == "" {
		cfg.Log.Format = "text"
	}
	if cfg.Log.Format != "text" && cfg.Log.Format != "json" {
		return Config{}, fmt.Errorf("log.format must be 'text' or 'json'")
	}

	if cfg.Query.SortBy == "" {
		cfg.Query.SortBy = "latitude"
	}
	if _, err := telemetry.ParseSortKey(cfg.Query.SortBy); err != nil {
		return Config{}, fmt.Errorf("query.sort_by: %w", err)
	}

	return cfg, nil
}
