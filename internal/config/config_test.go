package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempConfig(t *testing.T, contents string) string {
	t.Helper()
	tmp := t.TempDir()
	path := filepath.Join(tmp, "cfg.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error: %v", err)
	}
	return path
}

func requireErrEq(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error %q, got nil", want)
	}
	if err.Error() != want {
		t.Fatalf("error=%q want %q", err.Error(), want)
	}
}

func TestLoad_MissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatalf("expected error")
	}
}

func TestLoad_DefaultsApplied(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Kind != SourceSerial {
		t.Fatalf("source.kind=%q want serial", cfg.Source.Kind)
	}
	if cfg.Source.Serial.Baud != 9600 {
		t.Fatalf("baud=%d want 9600", cfg.Source.Serial.Baud)
	}
	if cfg.Source.Serial.MaxLineBytes != 4096 {
		t.Fatalf("max_line_bytes=%d want 4096", cfg.Source.Serial.MaxLineBytes)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Fatalf("log=%+v", cfg.Log)
	}
	if cfg.Query.SortBy != "latitude" {
		t.Fatalf("sort_by=%q", cfg.Query.SortBy)
	}
}

func TestLoad_FullSerialConfig(t *testing.T) {
	path := writeTempConfig(t, `
source:
  kind: Serial
  serial:
    device: /dev/ttyACM0
    baud: 115200
record:
  enable: true
  path: /tmp/capture.log
indicator:
  enable: true
  gpio_pin: 17
log:
  level: DEBUG
  format: json
query:
  sort_by: lng
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Kind != SourceSerial || cfg.Source.Serial.Device != "/dev/ttyACM0" || cfg.Source.Serial.Baud != 115200 {
		t.Fatalf("source=%+v", cfg.Source)
	}
	if !cfg.Record.Enable || cfg.Record.Path != "/tmp/capture.log" {
		t.Fatalf("record=%+v", cfg.Record)
	}
	if cfg.Indicator.GPIOPin != 17 {
		t.Fatalf("indicator=%+v", cfg.Indicator)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Format != "json" {
		t.Fatalf("log=%+v", cfg.Log)
	}
}

func TestLoad_ReplayDefaults(t *testing.T) {
	cfg, err := Load(writeTempConfig(t, "source:\n  kind: replay\n  replay:\n    path: ./cap.log\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Source.Replay.Speed != 1 {
		t.Fatalf("speed=%v want 1", cfg.Source.Replay.Speed)
	}
}

func TestLoad_Validation(t *testing.T) {
	cases := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "UnknownSource",
			yaml: "source:\n  kind: tcp\n",
			want: "source.kind must be 'serial' or 'replay'",
		},
		{
			name: "UnsupportedBaud",
			yaml: "source:\n  serial:\n    baud: 1234\n",
			want: "source.serial.baud 1234 is not supported",
		},
		{
			name: "NegativeLineLimit",
			yaml: "source:\n  serial:\n    max_line_bytes: -1\n",
			want: "source.serial.max_line_bytes must be >= 0",
		},
		{
			name: "ReplayRequiresPath",
			yaml: "source:\n  kind: replay\n",
			want: "source.replay.path is required when source.kind is 'replay'",
		},
		{
			name: "ReplayNegativeSpeed",
			yaml: "source:\n  kind: replay\n  replay:\n    path: x\n    speed: -2\n",
			want: "source.replay.speed must be > 0",
		},
		{
			name: "RecordRequiresPath",
			yaml: "record:\n  enable: true\n",
			want: "record.path is required when record.enable is true",
		},
		{
			name: "RecordWithReplay",
			yaml: "source:\n  kind: replay\n  replay:\n    path: x\nrecord:\n  enable: true\n  path: y\n",
			want: "record and replay cannot both be enabled",
		},
		{
			name: "IndicatorRequiresPin",
			yaml: "indicator:\n  enable: true\n",
			want: "indicator.gpio_pin must be > 0 when indicator.enable is true",
		},
		{
			name: "BadLogLevel",
			yaml: "log:\n  level: trace\n",
			want: "log.level must be one of debug, info, warn, error",
		},
		{
			name: "BadLogFormat",
			yaml: "log:\n  format: xml\n",
			want: "log.format must be 'text' or 'json'",
		},
		{
			name: "BadSortKey",
			yaml: "query:\n  sort_by: altitude\n",
			want: "query.sort_by: unknown sort key \"altitude\"",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeTempConfig(t, tc.yaml))
			requireErrEq(t, err, tc.want)
		})
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	if _, err := Parse([]byte("source: [\n")); err == nil {
		t.Fatalf("expected error")
	}
}
