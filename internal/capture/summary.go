package capture

import (
	"time"

	"telemetry-rx/internal/telemetry"
)

type Summary struct {
	Segments    int
	Lines       int
	KindCounts  map[telemetry.LineKind]int
	ParseErrors int
	// Coordinates is how many fixes the capture joins into.
	Coordinates int
	MaxDuration time.Duration
}

type countingSink struct {
	coords int
}

func (s *countingSink) AddScalar(telemetry.ScalarKind, float64) error { return nil }
func (s *countingSink) AddCoordinate(telemetry.Coordinate)           { s.coords++ }

// Summarize runs the records through a parser without storing anything.
func Summarize(records []Record) Summary {
	s := Summary{KindCounts: map[telemetry.LineKind]int{}}
	if len(records) == 0 {
		return s
	}

	sink := &countingSink{}
	p := telemetry.NewParser(sink)
	origin := time.Duration(0)
	hasLines := false
	segments := 0

	for _, r := range records {
		if r.Start {
			segments++
			origin = r.At
			p.Reset()
			continue
		}
		hasLines = true
		s.Lines++

		at := r.At - origin
		if at < 0 {
			at = 0
		}
		if at > s.MaxDuration {
			s.MaxDuration = at
		}

		res := p.Process(r.Line)
		s.KindCounts[res.Kind]++
		if res.Err != nil {
			s.ParseErrors++
		}
	}
	if segments == 0 && hasLines {
		segments = 1
	}
	s.Segments = segments
	s.Coordinates = sink.coords
	return s
}
