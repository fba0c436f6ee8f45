package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/vovakirdan/locshare/internal/proto"
)

// DefaultDeviceType is assigned to records that arrive without a device label.
const DefaultDeviceType = "Unknown"

var validate = validator.New()

type locationRules struct {
	ID         string  `validate:"required,max=100"`
	Lat        float64 `validate:"latitude"`
	Lng        float64 `validate:"longitude"`
	DeviceType string  `validate:"max=50"`
}

// ValidateLocation checks an inbound record and returns it normalized:
// coordinates coerced into lat/lng, a default device label filled in and any
// client-supplied timestamp cleared so the hub stamps it on receipt.
func ValidateLocation(loc proto.Location) (proto.Location, error) {
	lat, lng, ok := loc.Coordinates()
	if !ok {
		return proto.Location{}, fmt.Errorf("%w: %w", ErrInvalidLocation, ErrInvalidCoordinate)
	}

	if strings.TrimSpace(loc.DeviceType) == "" {
		loc.DeviceType = DefaultDeviceType
	}

	rules := locationRules{
		ID:         loc.ID,
		Lat:        lat,
		Lng:        lng,
		DeviceType: loc.DeviceType,
	}
	if err := validate.Struct(rules); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return proto.Location{}, fmt.Errorf("%w: %s failed %q", ErrInvalidLocation, fe.Field(), fe.Tag())
		}
		return proto.Location{}, fmt.Errorf("%w: %w", ErrInvalidLocation, err)
	}

	out := loc.Normalized()
	out.Lat = proto.Coord(lat)
	out.Lng = proto.Coord(lng)
	out.Timestamp = time.Time{}
	return out, nil
}
