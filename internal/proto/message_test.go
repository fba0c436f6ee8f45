package proto

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeCoercesNumericStrings(t *testing.T) {
	loc, err := Decode([]byte(`{"id":"User-42","lat":"51.5","lng":"-0.09","deviceType":"Linux"}`))
	require.NoError(t, err)

	lat, lng, ok := loc.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 51.5, lat)
	assert.Equal(t, -0.09, lng)
	assert.Equal(t, "User-42", loc.ID)
	assert.Equal(t, "Linux", loc.DeviceType)
}

func TestDecodeFallsBackToLong(t *testing.T) {
	loc, err := Decode([]byte(`{"id":"a","lat":10,"long":20}`))
	require.NoError(t, err)

	lat, lng, ok := loc.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 10.0, lat)
	assert.Equal(t, 20.0, lng)

	// lng wins when both are present.
	loc, err = Decode([]byte(`{"id":"a","lat":10,"lng":0,"long":20}`))
	require.NoError(t, err)
	_, lng, ok = loc.Coordinates()
	require.True(t, ok)
	assert.Equal(t, 0.0, lng)
}

func TestDecodeInvalidCoordinates(t *testing.T) {
	frames := []string{
		`{"id":"a","lat":"north","lng":1}`,
		`{"id":"a","lat":1,"lng":null}`,
		`{"id":"a","lat":true,"lng":1}`,
		`{"id":"a","lat":{},"lng":1}`,
		`{"id":"a","lng":1}`,
		`{"id":"a","lat":"NaN","lng":1}`,
		`{"id":"a","lat":"Infinity","lng":1}`,
		`{"id":"a","lat":1e400,"lng":1}`,
	}
	for _, frame := range frames {
		loc, err := Decode([]byte(frame))
		require.NoError(t, err, frame)
		_, _, ok := loc.Coordinates()
		assert.False(t, ok, frame)
	}
}

func TestDecodeMalformed(t *testing.T) {
	for _, frame := range []string{`not json`, `{"id":`, `{"id":42,"lat":1,"lng":2}`, `[]`} {
		_, err := Decode([]byte(frame))
		assert.Error(t, err, frame)
	}
}

func TestParseCoordinatePrefix(t *testing.T) {
	cases := map[string]Coordinate{
		" 12.5 ":  {Value: 12.5, Valid: true},
		"12.5deg": {Value: 12.5, Valid: true},
		"-.5":     {Value: -0.5, Valid: true},
		"3e2x":    {Value: 300, Valid: true},
		"abc":     {},
		"":        {},
		"--1":     {},
		"0x1p4":   {Value: 0, Valid: true},
		"1_000":   {Value: 1, Valid: true},
		"+5":      {Value: 5, Valid: true},
		"inf":     {},
		"NaN":     {},
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseCoordinate(in), in)
	}
}

func TestEncodeNormalizesAndStamps(t *testing.T) {
	loc := Location{ID: "a", Lat: Coord(1), Long: Coord(2), DeviceType: "iOS"}
	loc.Timestamp = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	data, err := Encode(loc)
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Equal(t, 2.0, raw["lng"])
	assert.NotContains(t, raw, "long")
	assert.Equal(t, "2026-01-02T03:04:05Z", raw["timestamp"])
}

func TestEncodeOmitsZeroTimestamp(t *testing.T) {
	data, err := Encode(NewLocation("User-1", 51.505, -0.09, "Linux"))
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"User-1","lat":51.505,"lng":-0.09,"deviceType":"Linux"}`, string(data))
}
