package client

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// MarkerView is a marker as last drawn.
type MarkerView struct {
	ID    string
	Lat   float64
	Lng   float64
	Title string
	Body  string
}

// MapSnapshot is a copy of the headless map state.
type MapSnapshot struct {
	CenterLat float64
	CenterLng float64
	Zoom      int
	Layer     Layer
	// Recenters counts SetView calls after construction.
	Recenters int
	Markers   []MarkerView
}

// HeadlessMap is an in-memory Map for terminals and tests.
// It is safe to read snapshots while the session draws into it.
type HeadlessMap struct {
	mu        sync.Mutex
	markers   map[string]*headlessMarker
	centerLat float64
	centerLng float64
	zoom      int
	layer     Layer
	recenters int
}

// NewHeadlessMap returns a map centered on the defaults with the default layer.
func NewHeadlessMap() *HeadlessMap {
	layer, _ := LookupLayer(DefaultLayer)
	return &HeadlessMap{
		markers:   make(map[string]*headlessMarker),
		centerLat: DefaultLat,
		centerLng: DefaultLng,
		zoom:      DefaultZoom,
		layer:     layer,
	}
}

func (m *HeadlessMap) AddMarker(id string, lat, lng float64) Marker {
	m.mu.Lock()
	defer m.mu.Unlock()

	marker := &headlessMarker{mu: &m.mu, view: MarkerView{ID: id, Lat: lat, Lng: lng}}
	m.markers[id] = marker
	return marker
}

func (m *HeadlessMap) SetView(lat, lng float64, zoom int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.centerLat, m.centerLng, m.zoom = lat, lng, zoom
	m.recenters++
}

func (m *HeadlessMap) SetTileLayer(layer Layer) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.layer = layer
}

// Snapshot copies the current state; markers are sorted by id.
func (m *HeadlessMap) Snapshot() MapSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()

	markers := lo.MapToSlice(m.markers, func(_ string, mk *headlessMarker) MarkerView {
		return mk.view
	})
	sort.Slice(markers, func(i, j int) bool { return markers[i].ID < markers[j].ID })

	return MapSnapshot{
		CenterLat: m.centerLat,
		CenterLng: m.centerLng,
		Zoom:      m.zoom,
		Layer:     m.layer,
		Recenters: m.recenters,
		Markers:   markers,
	}
}

type headlessMarker struct {
	mu   *sync.Mutex
	view MarkerView
}

func (mk *headlessMarker) SetLatLng(lat, lng float64) {
	mk.mu.Lock()
	defer mk.mu.Unlock()
	mk.view.Lat, mk.view.Lng = lat, lng
}

func (mk *headlessMarker) BindPopup(title, body string) {
	mk.mu.Lock()
	defer mk.mu.Unlock()
	mk.view.Title, mk.view.Body = title, body
}
