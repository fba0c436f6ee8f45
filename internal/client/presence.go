package client

import (
	"github.com/rs/zerolog"

	"github.com/vovakirdan/locshare/internal/proto"
	"github.com/vovakirdan/locshare/internal/utils"
)

// Map defaults used before the first fix arrives.
const (
	DefaultLat  = 51.505
	DefaultLng  = -0.09
	DefaultZoom = 13
	SelfZoom    = 15
)

const joinIDLen = 10

// Outcome reports what Apply did with a record.
type Outcome int

const (
	Discarded Outcome = iota
	Created
	Moved
)

func (o Outcome) String() string {
	switch o {
	case Created:
		return "created"
	case Moved:
		return "moved"
	default:
		return "discarded"
	}
}

// Tracker keeps one marker per participant id. Markers are never removed.
type Tracker struct {
	selfID   string
	view     Map
	notifier Notifier
	log      *zerolog.Logger

	markers  map[string]Marker
	centered bool
}

// NewTracker builds a tracker that treats selfID as the local participant.
func NewTracker(selfID string, view Map, notifier Notifier, logger *zerolog.Logger) *Tracker {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Tracker{
		selfID:   selfID,
		view:     view,
		notifier: notifier,
		log:      logger,
		markers:  make(map[string]Marker),
	}
}

// Apply folds one inbound record into the map.
func (t *Tracker) Apply(loc proto.Location) Outcome {
	lat, lng, ok := loc.Coordinates()
	if !ok {
		t.log.Debug().Str("participant", loc.ID).Msg("discarding record with invalid coordinates")
		return Discarded
	}

	outcome := Moved
	marker, seen := t.markers[loc.ID]
	if seen {
		marker.SetLatLng(lat, lng)
	} else {
		outcome = Created
		marker = t.view.AddMarker(loc.ID, lat, lng)
		t.markers[loc.ID] = marker
		t.notifier.Count(len(t.markers))

		if t.isSelf(loc.ID) {
			if !t.centered {
				t.view.SetView(lat, lng, SelfZoom)
				t.centered = true
			}
		} else {
			t.notifier.Notify("User joined: "+utils.ShortID(loc.ID, joinIDLen), LevelInfo)
		}
	}

	title := loc.ID
	if t.isSelf(loc.ID) {
		title = "You"
	}
	marker.BindPopup(title, loc.DeviceType)

	t.log.Debug().Str("participant", loc.ID).Stringer("outcome", outcome).Msg("presence updated")
	return outcome
}

// Count is the number of participants seen so far.
func (t *Tracker) Count() int { return len(t.markers) }

func (t *Tracker) isSelf(id string) bool { return id == t.selfID }
