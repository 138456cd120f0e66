package serial

import (
	"path/filepath"
	"testing"
)

func TestAutoDetectDevice_PrefersACMThenUSB(t *testing.T) {
	present := map[string]bool{"/dev/ttyUSB0": true, "/dev/ttyACM3": true}
	got := autoDetectDevice(func(p string) bool { return present[p] })
	if got != "/dev/ttyACM3" {
		t.Fatalf("device=%q want /dev/ttyACM3", got)
	}

	delete(present, "/dev/ttyACM3")
	got = autoDetectDevice(func(p string) bool { return present[p] })
	if got != "/dev/ttyUSB0" {
		t.Fatalf("device=%q want /dev/ttyUSB0", got)
	}
}

func TestAutoDetectDevice_None(t *testing.T) {
	if got := autoDetectDevice(func(string) bool { return false }); got != "" {
		t.Fatalf("device=%q want empty", got)
	}
}

func TestSupportedBaud(t *testing.T) {
	for _, b := range []int{4800, 9600, 19200, 38400, 57600, 115200} {
		if !SupportedBaud(b) {
			t.Fatalf("baud %d should be supported", b)
		}
	}
	for _, b := range []int{0, 300, 9601, 230400} {
		if SupportedBaud(b) {
			t.Fatalf("baud %d should not be supported", b)
		}
	}
}

func TestOpen_MissingDevice(t *testing.T) {
	_, err := Open(Config{Device: filepath.Join(t.TempDir(), "ttyNOPE"), Baud: 9600})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestOpen_UnsupportedBaud(t *testing.T) {
	_, err := Open(Config{Device: "/dev/null", Baud: 1234})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestPort_CloseNil(t *testing.T) {
	var p *Port
	if err := p.Close(); err != nil {
		t.Fatalf("Close() error: %v", err)
	}
}
