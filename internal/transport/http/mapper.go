package http

import (
	"time"

	"github.com/samber/lo"

	"github.com/vovakirdan/locshare/internal/core"
	"github.com/vovakirdan/locshare/internal/proto"
	"github.com/vovakirdan/locshare/internal/store"
)

func toParticipantResponse(loc proto.Location) ParticipantResponse {
	resp := ParticipantResponse{
		ID:         loc.ID,
		Lat:        loc.Lat.Value,
		Lng:        loc.Lng.Value,
		DeviceType: loc.DeviceType,
	}
	if !loc.Timestamp.IsZero() {
		resp.UpdatedAt = loc.Timestamp.UTC().Format(time.RFC3339)
	}
	return resp
}

func toStoredParticipantResponse(loc *store.Location) ParticipantResponse {
	return ParticipantResponse{
		ID:         loc.ParticipantID,
		Lat:        loc.Lat,
		Lng:        loc.Lng,
		DeviceType: loc.DeviceType,
		UpdatedAt:  loc.UpdatedAt.UTC().Format(time.RFC3339),
		Samples:    loc.Samples,
		FirstSeen:  loc.FirstSeen.UTC().Format(time.RFC3339),
	}
}

func toParticipantsResponse(locs []proto.Location) []ParticipantResponse {
	return lo.Map(locs, func(loc proto.Location, _ int) ParticipantResponse {
		return toParticipantResponse(loc)
	})
}

func toStatsResponse(s core.Stats) StatsResponse {
	return StatsResponse{
		ConnectedClients: s.ConnectedClients,
		TrackedLocations: s.TrackedLocations,
		BroadcastQueue:   s.BroadcastQueue,
		Dropped:          s.Dropped,
		Timestamp:        s.Timestamp.UTC().Format(time.RFC3339),
	}
}
