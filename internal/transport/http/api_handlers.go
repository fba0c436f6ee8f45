package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/locshare/internal/core"
	"github.com/vovakirdan/locshare/internal/proto"
	"github.com/vovakirdan/locshare/internal/store"
)

const hubRequestTimeout = 2 * time.Second

// APIHandlers provides the JSON endpoints.
type APIHandlers struct {
	hub   *core.Hub
	store store.LocationStore
	log   *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance. st may be nil.
func NewAPIHandlers(hub *core.Hub, st store.LocationStore, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub:   hub,
		store: st,
		log:   logger,
	}
}

// HealthResponse represents the health check body.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Connected int    `json:"connected"`
}

// StatsResponse represents current server statistics.
type StatsResponse struct {
	ConnectedClients int    `json:"connected_clients"`
	TrackedLocations int    `json:"tracked_locations"`
	BroadcastQueue   int    `json:"broadcast_queue"`
	Dropped          uint64 `json:"dropped"`
	StoredLocations  int    `json:"stored_locations,omitempty"`
	Timestamp        string `json:"timestamp"`
}

// ParticipantResponse is one participant's last known location.
type ParticipantResponse struct {
	ID         string  `json:"id"`
	Lat        float64 `json:"lat"`
	Lng        float64 `json:"lng"`
	DeviceType string  `json:"deviceType"`
	UpdatedAt  string  `json:"updated_at,omitempty"`
	// Samples and FirstSeen are only known when persistence is enabled.
	Samples   int64  `json:"samples,omitempty"`
	FirstSeen string `json:"first_seen,omitempty"`
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Health reports liveness together with the number of connected sockets.
// GET /health
func (h *APIHandlers) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), hubRequestTimeout)
	defer cancel()

	stats, err := h.hub.Stats(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, HealthResponse{
			Status:    "unavailable",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		})
		return
	}

	c.JSON(http.StatusOK, HealthResponse{
		Status:    "healthy",
		Timestamp: stats.Timestamp.UTC().Format(time.RFC3339),
		Connected: stats.ConnectedClients,
	})
}

// Stats returns hub counters.
// GET /stats
func (h *APIHandlers) Stats(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), hubRequestTimeout)
	defer cancel()

	stats, err := h.hub.Stats(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read hub stats")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}

	resp := toStatsResponse(stats)
	if h.store != nil {
		stored, err := h.store.CountLocations(ctx)
		if err != nil {
			h.log.Warn().Err(err).Msg("failed to count stored locations")
		} else {
			resp.StoredLocations = stored
		}
	}

	c.JSON(http.StatusOK, resp)
}

// Participants lists every participant's last known location.
// GET /api/participants
func (h *APIHandlers) Participants(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), hubRequestTimeout)
	defer cancel()

	locs, err := h.hub.Snapshot(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("failed to read participants")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
		return
	}

	h.log.Debug().Int("participants", len(locs)).Msg("participants listed")
	c.JSON(http.StatusOK, toParticipantsResponse(locs))
}

// Participant returns one participant's last known location. The stored row
// is preferred; without a store the hub's snapshot answers.
// GET /api/participants/:id
func (h *APIHandlers) Participant(c *gin.Context) {
	id := c.Param("id")

	ctx, cancel := context.WithTimeout(c.Request.Context(), hubRequestTimeout)
	defer cancel()

	if h.store == nil {
		locs, err := h.hub.Snapshot(ctx)
		if err != nil {
			h.log.Error().Err(err).Msg("failed to read participants")
			c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "hub unavailable"})
			return
		}
		loc, ok := lo.Find(locs, func(l proto.Location) bool { return l.ID == id })
		if !ok {
			c.JSON(http.StatusNotFound, ErrorResponse{Error: "participant not found"})
			return
		}
		c.JSON(http.StatusOK, toParticipantResponse(loc))
		return
	}

	stored, err := h.store.GetLocation(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "participant not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("participant", id).Msg("failed to load participant")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
		return
	}

	c.JSON(http.StatusOK, toStoredParticipantResponse(stored))
}
