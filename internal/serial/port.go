package serial

import (
	"fmt"
	"os"
	"strings"
)

// Config selects the serial device feeding telemetry lines.
//
// Device may be empty to auto-detect the first /dev/ttyACM* or /dev/ttyUSB*
// present. Microcontroller boards usually enumerate as ttyACM and talk 9600
// baud out of the box.
type Config struct {
	Device string
	Baud   int
}

const DefaultBaud = 9600

// Port is an open serial device configured for raw 8N1 reads.
type Port struct {
	f      *os.File
	device string
	baud   int
}

func Open(cfg Config) (*Port, error) {
	device := strings.TrimSpace(cfg.Device)
	if device == "" {
		device = autoDetectDevice(statExists)
		if device == "" {
			return nil, fmt.Errorf("serial auto-detect failed: no /dev/ttyACM* or /dev/ttyUSB* found")
		}
	}
	baud := cfg.Baud
	if baud == 0 {
		baud = DefaultBaud
	}

	f, err := openSerial(device, baud)
	if err != nil {
		return nil, fmt.Errorf("serial open failed device=%s baud=%d: %w", device, baud, err)
	}
	return &Port{f: f, device: device, baud: baud}, nil
}

func (p *Port) Read(b []byte) (int, error) { return p.f.Read(b) }

// Close releases the device. A Read blocked in another goroutine returns
// os.ErrClosed.
func (p *Port) Close() error {
	if p == nil || p.f == nil {
		return nil
	}
	return p.f.Close()
}

func (p *Port) Device() string { return p.device }
func (p *Port) Baud() int      { return p.baud }

// SupportedBaud reports whether baud can be configured on this platform.
func SupportedBaud(baud int) bool {
	_, err := baudToUnix(baud)
	return err == nil
}

func statExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func autoDetectDevice(exists func(string) bool) string {
	candidates := make([]string, 0, 20)
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyACM%d", i))
	}
	for i := 0; i < 10; i++ {
		candidates = append(candidates, fmt.Sprintf("/dev/ttyUSB%d", i))
	}
	for _, p := range candidates {
		if exists(p) {
			return p
		}
	}
	return ""
}
