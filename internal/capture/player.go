package capture

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"telemetry-rx/internal/linesource"
)

type Sleeper interface {
	Sleep(d time.Duration)
}

// Player replays captured lines with their relative timing and implements
// linesource.Source.
//
// speed: 1.0 = real time, 2.0 = 2x speed (half waits), 0.5 = half speed.
type Player struct {
	records []Record
	speed   float64
	loop    bool
	sleeper Sleeper

	// OnSegment, when set, is called each time a START marker is passed and
	// each time a looping replay wraps around.
	OnSegment func()

	i        int
	origin   time.Duration
	lastAt   time.Duration
	haveLast bool

	stopOnce sync.Once
	stop     chan struct{}
}

func NewPlayer(records []Record, speed float64, loop bool, sleeper Sleeper) (*Player, error) {
	if speed <= 0 {
		return nil, fmt.Errorf("speed must be > 0")
	}
	hasLine := false
	for _, r := range records {
		if !r.Start {
			hasLine = true
			break
		}
	}
	if !hasLine {
		return nil, errors.New("no records")
	}
	p := &Player{records: records, speed: speed, loop: loop, sleeper: sleeper, stop: make(chan struct{})}
	if p.sleeper == nil {
		p.sleeper = stopSleeper{stop: p.stop}
	}
	return p, nil
}

func (p *Player) Next() (string, error) {
	for {
		select {
		case <-p.stop:
			return "", io.EOF
		default:
		}

		if p.i >= len(p.records) {
			if !p.loop {
				return "", io.EOF
			}
			p.i = 0
			p.origin, p.lastAt, p.haveLast = 0, 0, false
			// Each pass is its own segment, START marker or not.
			if !p.records[0].Start && p.OnSegment != nil {
				p.OnSegment()
			}
		}
		r := p.records[p.i]
		p.i++

		if r.Start {
			p.origin = r.At
			p.lastAt = 0
			p.haveLast = false
			if p.OnSegment != nil {
				p.OnSegment()
			}
			continue
		}

		at := r.At - p.origin
		if at < 0 {
			at = 0
		}
		if p.haveLast {
			wait := at - p.lastAt
			if wait < 0 {
				wait = 0
			}
			wait = time.Duration(float64(wait) / p.speed)
			if wait > 0 {
				p.sleeper.Sleep(wait)
			}
		}
		p.lastAt = at
		p.haveLast = true
		return r.Line, nil
	}
}

// Close makes the next (or a sleeping) Next return io.EOF.
func (p *Player) Close() error {
	p.stopOnce.Do(func() { close(p.stop) })
	return nil
}

type stopSleeper struct {
	stop <-chan struct{}
}

func (s stopSleeper) Sleep(d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
	case <-s.stop:
	}
}

// Tee records every line read from src into w.
type Tee struct {
	src linesource.Source
	w   *Writer
	now func() time.Time
}

func NewTee(src linesource.Source, w *Writer) *Tee {
	return &Tee{src: src, w: w, now: time.Now}
}

func (t *Tee) Next() (string, error) {
	line, err := t.src.Next()
	if err != nil {
		return "", err
	}
	if werr := t.w.WriteLine(t.now(), line); werr != nil {
		return "", &linesource.TransportError{Op: "record", Err: werr}
	}
	return line, nil
}

// Close closes the upstream source (when it is closable) and the capture.
func (t *Tee) Close() error {
	var err error
	if c, ok := t.src.(io.Closer); ok {
		err = c.Close()
	}
	if werr := t.w.Close(); err == nil {
		err = werr
	}
	return err
}
