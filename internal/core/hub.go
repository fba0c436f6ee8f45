package core

import (
	"context"
	"sort"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/locshare/internal/proto"
	"github.com/vovakirdan/locshare/internal/store"
)

const (
	defaultBroadcastBuffer = 256
	storeTimeout           = 2 * time.Second
)

// Options configures a Hub. Zero values fall back to defaults; a nil Store disables persistence.
type Options struct {
	Store           store.LocationStore
	Logger          *zerolog.Logger
	BroadcastBuffer int
	// StatsInterval controls the periodic stats log line. Zero disables it.
	StatsInterval time.Duration
	// Now is used to stamp records; defaults to time.Now.
	Now func() time.Time
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	ConnectedClients int
	TrackedLocations int
	BroadcastQueue   int
	Dropped          uint64
	Timestamp        time.Time
}

// Hub owns the set of connected clients and the last location of every
// participant. All of its state is touched only by the Run goroutine.
type Hub struct {
	register    chan *Client
	unregister  chan *Client
	publish     chan proto.Location
	statsReq    chan chan Stats
	snapshotReq chan chan []proto.Location
	done        chan struct{}

	store         store.LocationStore
	log           *zerolog.Logger
	statsInterval time.Duration
	now           func() time.Time

	dropped atomic.Uint64
}

// NewHub creates a hub; call Run to start it.
func NewHub(opts Options) *Hub {
	buffer := opts.BroadcastBuffer
	if buffer <= 0 {
		buffer = defaultBroadcastBuffer
	}
	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Hub{
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		publish:       make(chan proto.Location, buffer),
		statsReq:      make(chan chan Stats),
		snapshotReq:   make(chan chan []proto.Location),
		done:          make(chan struct{}),
		store:         opts.Store,
		log:           logger,
		statsInterval: opts.StatsInterval,
		now:           now,
	}
}

// RegisterClient adds a client; it immediately receives the current snapshot.
func (h *Hub) RegisterClient(c *Client) error {
	select {
	case h.register <- c:
		return nil
	case <-h.done:
		return ErrHubStopped
	}
}

// UnregisterClient removes a client and closes its Events channel.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues a validated record for fan-out. It never blocks: when the
// queue is full the record is dropped and false is returned.
func (h *Hub) Publish(loc proto.Location) bool {
	if loc.Timestamp.IsZero() {
		loc.Timestamp = h.now()
	}
	select {
	case h.publish <- loc:
		return true
	default:
		h.dropped.Add(1)
		h.log.Warn().Str("participant", loc.ID).Msg("broadcast queue full, dropping location")
		return false
	}
}

// Stats asks the hub for its current counters.
func (h *Hub) Stats(ctx context.Context) (Stats, error) {
	reply := make(chan Stats, 1)
	select {
	case h.statsReq <- reply:
	case <-h.done:
		return Stats{}, ErrHubStopped
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	}
}

// Snapshot returns every known last location sorted by participant id.
func (h *Hub) Snapshot(ctx context.Context) ([]proto.Location, error) {
	reply := make(chan []proto.Location, 1)
	select {
	case h.snapshotReq <- reply:
	case <-h.done:
		return nil, ErrHubStopped
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case s := <-reply:
		return s, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run processes hub traffic until ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	clients := make(map[*Client]struct{})
	last := h.warmStart(ctx)

	var tick <-chan time.Time
	if h.statsInterval > 0 {
		ticker := time.NewTicker(h.statsInterval)
		defer ticker.Stop()
		tick = ticker.C
	}

	defer func() {
		for c := range clients {
			close(c.Events)
		}
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case c := <-h.register:
			if _, exists := clients[c]; exists {
				continue
			}
			clients[c] = struct{}{}
			if len(last) > 0 {
				h.deliver(c, &Event{Kind: EventSnapshot, Locations: snapshot(last)})
			}
			h.log.Info().Str("client_id", c.ID).Int("clients", len(clients)).Msg("client registered")

		case c := <-h.unregister:
			if _, exists := clients[c]; !exists {
				continue
			}
			delete(clients, c)
			close(c.Events)
			h.log.Info().Str("client_id", c.ID).Int("clients", len(clients)).Msg("client unregistered")

		case loc := <-h.publish:
			last[loc.ID] = loc
			h.persist(ctx, loc)
			ev := &Event{Kind: EventLocation, Location: loc}
			for c := range clients {
				h.deliver(c, ev)
			}

		case reply := <-h.statsReq:
			reply <- Stats{
				ConnectedClients: len(clients),
				TrackedLocations: len(last),
				BroadcastQueue:   len(h.publish),
				Dropped:          h.dropped.Load(),
				Timestamp:        h.now(),
			}

		case reply := <-h.snapshotReq:
			reply <- snapshot(last)

		case <-tick:
			h.log.Info().
				Int("clients", len(clients)).
				Int("tracked_locations", len(last)).
				Int("queue", len(h.publish)).
				Uint64("dropped", h.dropped.Load()).
				Msg("hub stats")
		}
	}
}

// deliver drops the event for slow consumers instead of stalling the hub.
func (h *Hub) deliver(c *Client, ev *Event) {
	select {
	case c.Events <- ev:
	default:
		h.dropped.Add(1)
		h.log.Debug().Str("client_id", c.ID).Str("event", ev.Kind.String()).Msg("client buffer full, dropping event")
	}
}

func (h *Hub) persist(ctx context.Context, loc proto.Location) {
	if h.store == nil {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	err := h.store.SaveLocation(ctx, store.Location{
		ParticipantID: loc.ID,
		Lat:           loc.Lat.Value,
		Lng:           loc.Lng.Value,
		DeviceType:    loc.DeviceType,
		UpdatedAt:     loc.Timestamp,
	})
	if err != nil {
		h.log.Warn().Err(err).Str("participant", loc.ID).Msg("failed to persist location")
	}
}

func (h *Hub) warmStart(ctx context.Context) map[string]proto.Location {
	last := make(map[string]proto.Location)
	if h.store == nil {
		return last
	}
	ctx, cancel := context.WithTimeout(ctx, storeTimeout)
	defer cancel()

	stored, err := h.store.ListLocations(ctx)
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to load stored locations")
		return last
	}
	for _, s := range stored {
		loc := proto.NewLocation(s.ParticipantID, s.Lat, s.Lng, s.DeviceType)
		loc.Timestamp = s.UpdatedAt
		last[s.ParticipantID] = loc
	}
	h.log.Info().Int("tracked_locations", len(last)).Msg("restored stored locations")
	return last
}

func snapshot(last map[string]proto.Location) []proto.Location {
	out := lo.Values(last)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
