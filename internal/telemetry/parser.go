package telemetry

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// LineKind is the classification of one input line.
type LineKind int

const (
	KindUnrecognized LineKind = iota
	KindAcceleration
	KindAltitude
	KindLatitude
	KindLongitude
)

func (k LineKind) String() string {
	switch k {
	case KindAcceleration:
		return "acc"
	case KindAltitude:
		return "alt"
	case KindLatitude:
		return "lat"
	case KindLongitude:
		return "lng"
	default:
		return "unrecognized"
	}
}

// Checked in order; the first matching prefix wins.
var prefixes = [...]struct {
	tag  string
	kind LineKind
}{
	{"Acc:", KindAcceleration},
	{"Alt:", KindAltitude},
	{"Lat:", KindLatitude},
	{"Lng:", KindLongitude},
}

// Classify returns the kind of line and the text after its prefix.
func Classify(line string) (LineKind, string) {
	for _, p := range prefixes {
		if strings.HasPrefix(line, p.tag) {
			return p.kind, line[len(p.tag):]
		}
	}
	return KindUnrecognized, ""
}

// JoinState tracks which half of a coordinate is being held.
type JoinState int

const (
	StateIdle JoinState = iota
	// StateAwaitingLongitude holds a latitude.
	StateAwaitingLongitude
	// StateAwaitingLatitude holds a longitude.
	StateAwaitingLatitude
)

func (s JoinState) String() string {
	switch s {
	case StateAwaitingLongitude:
		return "awaiting_lng"
	case StateAwaitingLatitude:
		return "awaiting_lat"
	default:
		return "idle"
	}
}

var errMissingValue = errors.New("missing value")

// ParseError reports a recognized line whose payload is not a number. The
// line is dropped; the parser keeps going.
type ParseError struct {
	Line string
	Kind LineKind
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s line %q: %v", e.Kind, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Sink receives parsed readings. *Store implements it.
type Sink interface {
	AddScalar(kind ScalarKind, value float64) error
	AddCoordinate(c Coordinate)
}

// Result describes what Process did with a line.
type Result struct {
	Kind  LineKind
	Value float64
	// Joined is set when this line completed a coordinate.
	Joined *Coordinate
	// Err is a *ParseError for malformed payloads, or the sink's error.
	Err error
}

// Parser is the per-stream line state machine. It is not safe for concurrent
// use; one ingest loop owns it.
type Parser struct {
	sink  Sink
	state JoinState
	held  float64
}

func NewParser(sink Sink) *Parser {
	return &Parser{sink: sink}
}

func (p *Parser) State() JoinState { return p.state }

// Pending returns the held half-coordinate, if any.
func (p *Parser) Pending() (float64, bool) {
	if p.state == StateIdle {
		return 0, false
	}
	return p.held, true
}

// Reset drops any held half-coordinate.
func (p *Parser) Reset() {
	p.state = StateIdle
	p.held = 0
}

func (p *Parser) Process(line string) Result {
	kind, payload := Classify(line)
	res := Result{Kind: kind}

	switch kind {
	case KindAcceleration, KindAltitude:
		v, err := parseLeadingFloat(payload)
		if err != nil {
			res.Err = &ParseError{Line: line, Kind: kind, Err: err}
			return res
		}
		res.Value = v
		sk := Acceleration
		if kind == KindAltitude {
			sk = Altitude
		}
		res.Err = p.sink.AddScalar(sk, v)

	case KindLatitude, KindLongitude:
		v, err := parseFloat(strings.TrimSpace(payload))
		if err != nil {
			res.Err = &ParseError{Line: line, Kind: kind, Err: err}
			return res
		}
		res.Value = v
		res.Joined = p.half(kind, v)
	}
	return res
}

// half applies one coordinate half and flushes when the counterpart is held.
// A repeated half overwrites the held value.
func (p *Parser) half(kind LineKind, v float64) *Coordinate {
	var c Coordinate
	switch {
	case kind == KindLatitude && p.state == StateAwaitingLatitude:
		c = Coordinate{Lat: v, Lng: p.held}
	case kind == KindLongitude && p.state == StateAwaitingLongitude:
		c = Coordinate{Lat: p.held, Lng: v}
	case kind == KindLatitude:
		p.state, p.held = StateAwaitingLongitude, v
		return nil
	default:
		p.state, p.held = StateAwaitingLatitude, v
		return nil
	}
	p.Reset()
	p.sink.AddCoordinate(c)
	return &c
}

// parseLeadingFloat parses the first whitespace-separated token; units and
// anything after them are ignored.
func parseLeadingFloat(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, errMissingValue
	}
	return parseFloat(fields[0])
}

func parseFloat(s string) (float64, error) {
	if s == "" {
		return 0, errMissingValue
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Out-of-range literals saturate to ±Inf (or 0) and are kept.
		if errors.Is(err, strconv.ErrRange) {
			return v, nil
		}
		var numErr *strconv.NumError
		if errors.As(err, &numErr) {
			return 0, numErr.Err
		}
		return 0, err
	}
	return v, nil
}
