package client

import (
	"fmt"

	"github.com/samber/lo"
)

// DefaultLayer is the basemap shown before the user picks one.
const DefaultLayer = "osm"

// Layer is one basemap tile source.
type Layer struct {
	ID          string
	Name        string
	URL         string
	Attribution string
	MaxZoom     int
}

var layers = []Layer{
	{
		ID:          "osm",
		Name:        "OpenStreetMap",
		URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
		MaxZoom:     19,
	},
	{
		ID:          "cartodb",
		Name:        "CartoDB Positron",
		URL:         "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png",
		Attribution: "&copy; OpenStreetMap contributors &copy; CARTO",
		MaxZoom:     20,
	},
	{
		ID:          "stamen",
		Name:        "Stamen Toner",
		URL:         "https://tile.openstreetmap.de/tiles/osmde/{z}/{x}/{y}.png",
		Attribution: "&copy; OpenStreetMap contributors",
		MaxZoom:     18,
	},
}

// Layers returns the basemap catalog in display order.
func Layers() []Layer {
	return append([]Layer(nil), layers...)
}

// LookupLayer finds a catalog entry by id.
func LookupLayer(id string) (Layer, error) {
	layer, ok := lo.Find(layers, func(l Layer) bool { return l.ID == id })
	if !ok {
		return Layer{}, fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}
	return layer, nil
}
