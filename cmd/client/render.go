package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/vovakirdan/locshare/internal/client"
)

type participant struct {
	ID         string  `json:"id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DeviceType string  `json:"deviceType"`
	UpdatedAt  string  `json:"updated_at"`
	Samples    int64   `json:"samples"`
	FirstSeen  string  `json:"first_seen"`
}

type stats struct {
	ConnectedClients int    `json:"connected_clients"`
	TrackedLocations int    `json:"tracked_locations"`
	BroadcastQueue   int    `json:"broadcast_queue"`
	Dropped          uint64 `json:"dropped"`
	StoredLocations  int    `json:"stored_locations"`
	Timestamp        string `json:"timestamp"`
}

func newTable(out io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	return table
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func renderParticipants(out io.Writer, participants []participant) {
	table := newTable(out, "ID", "Lat", "Lng", "Device", "Updated")
	for _, p := range participants {
		table.Append([]string{p.ID, formatCoord(p.Lat), formatCoord(p.Lng), p.DeviceType, p.UpdatedAt})
	}
	table.SetFooter([]string{"", "", "", "Total", strconv.Itoa(len(participants))})
	table.Render()
}

func renderParticipant(out io.Writer, p participant) {
	table := newTable(out, "Field", "Value")
	table.AppendBulk([][]string{
		{"id", p.ID},
		{"lat", formatCoord(p.Lat)},
		{"lng", formatCoord(p.Lng)},
		{"device", p.DeviceType},
		{"updated", p.UpdatedAt},
	})
	if p.Samples > 0 {
		table.Append([]string{"samples", strconv.FormatInt(p.Samples, 10)})
		table.Append([]string{"first seen", p.FirstSeen})
	}
	table.Render()
}

func renderStats(out io.Writer, s stats) {
	table := newTable(out, "Metric", "Value")
	table.AppendBulk([][]string{
		{"connected clients", strconv.Itoa(s.ConnectedClients)},
		{"tracked locations", strconv.Itoa(s.TrackedLocations)},
		{"broadcast queue", strconv.Itoa(s.BroadcastQueue)},
		{"dropped", strconv.FormatUint(s.Dropped, 10)},
		{"stored locations", strconv.Itoa(s.StoredLocations)},
		{"timestamp", s.Timestamp},
	})
	table.Render()
}

func renderMap(out io.Writer, snap client.MapSnapshot) {
	fmt.Fprintf(out, "center %s, %s zoom %d, layer %s\n",
		formatCoord(snap.CenterLat), formatCoord(snap.CenterLng), snap.Zoom, snap.Layer.Name)
	table := newTable(out, "Marker", "Lat", "Lng", "Device")
	for _, m := range snap.Markers {
		table.Append([]string{m.Title, formatCoord(m.Lat), formatCoord(m.Lng), m.Body})
	}
	table.Render()
}
