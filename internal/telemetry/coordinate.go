package telemetry

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// Coordinate is a joined latitude/longitude fix.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func (c Coordinate) String() string {
	return "(" + strconv.FormatFloat(c.Lat, 'g', -1, 64) + ", " + strconv.FormatFloat(c.Lng, 'g', -1, 64) + ")"
}

// MarshalJSON writes non-finite fields as the strings "NaN", "+Inf" and
// "-Inf", which encoding/json cannot represent as numbers.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, 48)
	b = append(b, `{"lat":`...)
	b = appendJSONFloat(b, c.Lat)
	b = append(b, `,"lng":`...)
	b = appendJSONFloat(b, c.Lng)
	return append(b, '}'), nil
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	var raw struct {
		Lat json.RawMessage `json:"lat"`
		Lng json.RawMessage `json:"lng"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	lat, err := parseJSONFloat(raw.Lat)
	if err != nil {
		return fmt.Errorf("lat: %w", err)
	}
	lng, err := parseJSONFloat(raw.Lng)
	if err != nil {
		return fmt.Errorf("lng: %w", err)
	}
	*c = Coordinate{Lat: lat, Lng: lng}
	return nil
}

func appendJSONFloat(b []byte, v float64) []byte {
	switch {
	case math.IsNaN(v):
		return append(b, `"NaN"`...)
	case math.IsInf(v, 1):
		return append(b, `"+Inf"`...)
	case math.IsInf(v, -1):
		return append(b, `"-Inf"`...)
	}
	return strconv.AppendFloat(b, v, 'g', -1, 64)
}

func parseJSONFloat(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 {
		return 0, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, err
		}
		switch s {
		case "NaN":
			return math.NaN(), nil
		case "+Inf":
			return math.Inf(1), nil
		case "-Inf":
			return math.Inf(-1), nil
		}
		return 0, fmt.Errorf("invalid number %q", s)
	}
	var v float64
	err := json.Unmarshal(raw, &v)
	return v, err
}

// SortKey selects which coordinate field orders a query.
type SortKey int

const (
	ByLatitude SortKey = iota
	ByLongitude
)

func (k SortKey) String() string {
	switch k {
	case ByLatitude:
		return "latitude"
	case ByLongitude:
		return "longitude"
	default:
		return fmt.Sprintf("SortKey(%d)", int(k))
	}
}

// ParseSortKey accepts "latitude"/"lat" and "longitude"/"lng"/"lon".
func ParseSortKey(s string) (SortKey, error) {
	switch s {
	case "latitude", "lat":
		return ByLatitude, nil
	case "longitude", "lng", "lon":
		return ByLongitude, nil
	default:
		return 0, fmt.Errorf("unknown sort key %q", s)
	}
}

func (c Coordinate) field(k SortKey) float64 {
	if k == ByLongitude {
		return c.Lng
	}
	return c.Lat
}

// ScalarKind identifies a single-value reading stream.
type ScalarKind int

const (
	Acceleration ScalarKind = iota
	Altitude
)

func (k ScalarKind) String() string {
	switch k {
	case Acceleration:
		return "acceleration"
	case Altitude:
		return "altitude"
	default:
		return fmt.Sprintf("ScalarKind(%d)", int(k))
	}
}
