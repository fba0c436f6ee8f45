package client

import "time"

// Level classifies a user-visible notice.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelSuccess:
		return "success"
	case LevelError:
		return "error"
	default:
		return "info"
	}
}

// StatusKind is the connection badge shown next to the status text.
type StatusKind int

const (
	StatusConnecting StatusKind = iota
	StatusConnected
	StatusDisconnected
)

func (k StatusKind) String() string {
	switch k {
	case StatusConnected:
		return "connected"
	case StatusDisconnected:
		return "disconnected"
	default:
		return "connecting"
	}
}

// Notifier surfaces notices and the connection status to the user.
// It is only ever called from the session loop.
type Notifier interface {
	Notify(message string, level Level)
	Status(text string, kind StatusKind)
	Count(participants int)
}

// Marker is the rendered representation of one participant.
type Marker interface {
	SetLatLng(lat, lng float64)
	BindPopup(title, body string)
}

// Map is the view the presence tracker draws into.
type Map interface {
	AddMarker(id string, lat, lng float64) Marker
	SetView(lat, lng float64, zoom int)
	SetTileLayer(layer Layer)
}

// Clipboard receives the copied user id.
type Clipboard interface {
	WriteText(text string) error
}

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Clock schedules callbacks; tests replace it to fire reconnects by hand.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type systemClock struct{}

func (systemClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// SystemClock returns a Clock backed by the time package.
func SystemClock() Clock { return systemClock{} }

type nopNotifier struct{}

func (nopNotifier) Notify(string, Level)      {}
func (nopNotifier) Status(string, StatusKind) {}
func (nopNotifier) Count(int)                 {}
