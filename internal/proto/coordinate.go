package proto

import (
	"bytes"
	"encoding/json"
	"math"
	"regexp"
	"strconv"
	"strings"
)

// Coordinate is a leniently decoded number. Peers send numbers or numeric
// strings; anything else decodes without error but leaves Valid false.
type Coordinate struct {
	Value float64
	Valid bool
}

// Coord wraps a float64, marking it valid when finite.
func Coord(v float64) Coordinate {
	return Coordinate{Value: v, Valid: isFinite(v)}
}

// IsZero lets omitzero drop unset coordinates.
func (c Coordinate) IsZero() bool {
	return !c.Valid
}

var numericPrefix = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?`)

// ParseCoordinate coerces text the way a lenient float parse does:
// leading whitespace is skipped and the longest decimal prefix wins.
// Hex, underscores and "inf" are not numbers here.
func ParseCoordinate(s string) Coordinate {
	prefix := numericPrefix.FindString(strings.TrimSpace(s))
	if prefix == "" {
		return Coordinate{}
	}
	v, err := strconv.ParseFloat(prefix, 64)
	if err != nil {
		return Coordinate{}
	}
	return Coord(v)
}

// UnmarshalJSON never fails; see Coordinate.
func (c *Coordinate) UnmarshalJSON(data []byte) error {
	*c = Coordinate{}

	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err == nil {
			*c = ParseCoordinate(s)
		}
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		var v float64
		if err := json.Unmarshal(data, &v); err == nil {
			*c = Coord(v)
		}
	}
	return nil
}

// MarshalJSON writes a number, or null when invalid.
func (c Coordinate) MarshalJSON() ([]byte, error) {
	if !c.Valid {
		return []byte("null"), nil
	}
	return strconv.AppendFloat(nil, c.Value, 'f', -1, 64), nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
