package telemetry

import (
	"fmt"
	"sync"
)

// Store accumulates readings in arrival order.
//
// A single ingest goroutine appends while any number of callers query; every
// read copies under the lock so callers never observe a slice mid-append.
type Store struct {
	mu sync.RWMutex

	acceleration []float64
	altitude     []float64
	coords       []Coordinate
}

type Counts struct {
	Acceleration int `json:"acceleration"`
	Altitude     int `json:"altitude"`
	Coordinates  int `json:"coordinates"`
}

func NewStore() *Store {
	return &Store{}
}

// AddScalar appends value to the stream for kind. Values are not validated;
// NaN and infinities are stored as given.
func (s *Store) AddScalar(kind ScalarKind, value float64) error {
	if s == nil {
		return fmt.Errorf("store is nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	switch kind {
	case Acceleration:
		s.acceleration = append(s.acceleration, value)
	case Altitude:
		s.altitude = append(s.altitude, value)
	default:
		return fmt.Errorf("unknown scalar kind %s", kind)
	}
	return nil
}

func (s *Store) AddCoordinate(c Coordinate) {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.coords = append(s.coords, c)
	s.mu.Unlock()
}

// Scalars returns a copy of the stream for kind in arrival order.
func (s *Store) Scalars(kind ScalarKind) []float64 {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch kind {
	case Acceleration:
		return append([]float64(nil), s.acceleration...)
	case Altitude:
		return append([]float64(nil), s.altitude...)
	default:
		return nil
	}
}

// Coordinates returns a copy of the joined fixes in arrival order.
func (s *Store) Coordinates() []Coordinate {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Coordinate(nil), s.coords...)
}

// SortedCoordinates returns the fixes ascending by key. Equal keys keep
// arrival order. The stored order is left untouched.
func (s *Store) SortedCoordinates(key SortKey) []Coordinate {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	entries := make([]sortEntry, len(s.coords))
	for i, c := range s.coords {
		entries[i] = sortEntry{key: c.field(key), seq: i, c: c}
	}
	s.mu.RUnlock()

	quickSort(entries)

	out := make([]Coordinate, len(entries))
	for i, e := range entries {
		out[i] = e.c
	}
	return out
}

func (s *Store) Counts() Counts {
	if s == nil {
		return Counts{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Counts{
		Acceleration: len(s.acceleration),
		Altitude:     len(s.altitude),
		Coordinates:  len(s.coords),
	}
}
