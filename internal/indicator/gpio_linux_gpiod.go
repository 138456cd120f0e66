//go:build linux && (arm || arm64)

package indicator

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/warthog618/go-gpiocdev"
)

func openGPIO(pin int) (Indicator, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("indicator: invalid gpio pin %d", pin)
	}

	// On Pi, line names are commonly "GPIO17", etc.
	lineName := fmt.Sprintf("GPIO%d", pin)

	chipCandidates := []string{"/dev/gpiochip0", "/dev/gpiochip4"}
	entries, _ := os.ReadDir("/dev")
	for _, e := range entries {
		name := e.Name()
		if strings.HasPrefix(name, "gpiochip") {
			chipCandidates = append(chipCandidates, filepath.Join("/dev", name))
		}
	}

	for _, chipPath := range chipCandidates {
		chip, err := gpiocdev.NewChip(chipPath)
		if err != nil {
			continue
		}
		offset, err := chip.FindLine(lineName)
		if err != nil {
			_ = chip.Close()
			continue
		}
		line, err := chip.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer("telemetry-rx-led"))
		if err != nil {
			_ = chip.Close()
			continue
		}
		return &gpiodLED{chip: chip, line: line}, nil
	}

	return nil, fmt.Errorf("indicator: gpio line %q not found (or busy)", lineName)
}

var openGPIOFn = openGPIO

type gpiodLED struct {
	mu   sync.Mutex
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	on   bool
}

func (g *gpiodLED) Toggle() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.line == nil {
		return fmt.Errorf("indicator: gpio line closed")
	}
	v := 0
	if !g.on {
		v = 1
	}
	if err := g.line.SetValue(v); err != nil {
		return err
	}
	g.on = !g.on
	return nil
}

func (g *gpiodLED) Close() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.line == nil {
		return nil
	}
	_ = g.line.SetValue(0)
	err := g.line.Close()
	g.line = nil
	if g.chip != nil {
		_ = g.chip.Close()
		g.chip = nil
	}
	return err
}
