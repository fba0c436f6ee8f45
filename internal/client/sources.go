package client

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

const (
	// DefaultSampleInterval matches how often a browser watch reports a fix.
	DefaultSampleInterval = 5 * time.Second

	metersPerDegree = 111_320.0
)

// Position is one fix from a position source.
type Position struct {
	Lat float64
	Lng float64
}

// Valid reports whether the fix is a finite coordinate on the globe.
func (p Position) Valid() bool {
	return !math.IsNaN(p.Lat) && !math.IsNaN(p.Lng) &&
		p.Lat >= -90 && p.Lat <= 90 && p.Lng >= -180 && p.Lng <= 180
}

// PositionSource delivers a stream of fixes until the returned stop function
// is called or ctx ends. Callbacks run on the source's own goroutine.
type PositionSource interface {
	Start(ctx context.Context, onSample func(Position), onError func(error)) (stop func() error, err error)
}

// StaticSource re-emits a fixed point every Interval, starting immediately.
type StaticSource struct {
	Position Position
	Interval time.Duration
}

func (s StaticSource) Start(ctx context.Context, onSample func(Position), _ func(error)) (func() error, error) {
	if !s.Position.Valid() {
		return nil, fmt.Errorf("static source at (%v, %v): %w", s.Position.Lat, s.Position.Lng, ErrPositionUnavailable)
	}
	pos := s.Position
	return runTicker(ctx, s.Interval, func() { onSample(pos) }), nil
}

// WalkSource emits a seeded random walk from Origin. Each step moves at most
// StepMeters in a random direction.
type WalkSource struct {
	Origin     Position
	StepMeters float64
	Interval   time.Duration
	Seed       uint64
}

func (w WalkSource) Start(ctx context.Context, onSample func(Position), _ func(error)) (func() error, error) {
	if !w.Origin.Valid() {
		return nil, fmt.Errorf("walk source at (%v, %v): %w", w.Origin.Lat, w.Origin.Lng, ErrPositionUnavailable)
	}
	walker := newWalker(w.Origin, w.StepMeters, w.Seed)
	first := true
	return runTicker(ctx, w.Interval, func() {
		if first {
			first = false
			onSample(walker.pos)
			return
		}
		onSample(walker.next())
	}), nil
}

type walker struct {
	pos        Position
	stepMeters float64
	rng        *rand.Rand
}

func newWalker(origin Position, stepMeters float64, seed uint64) *walker {
	return &walker{
		pos:        origin,
		stepMeters: math.Max(stepMeters, 0),
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
}

// next moves the walker and returns the new fix.
func (w *walker) next() Position {
	bearing := w.rng.Float64() * 2 * math.Pi
	dist := w.rng.Float64() * w.stepMeters

	dLat := dist * math.Cos(bearing) / metersPerDegree
	cosLat := math.Cos(w.pos.Lat * math.Pi / 180)
	dLng := 0.0
	if cosLat > 1e-9 {
		dLng = dist * math.Sin(bearing) / (metersPerDegree * cosLat)
	}

	lat := math.Max(-90, math.Min(90, w.pos.Lat+dLat))
	lng := math.Mod(w.pos.Lng+dLng+180, 360)
	if lng < 0 {
		lng += 360
	}
	lng -= 180
	w.pos = Position{Lat: lat, Lng: lng}
	return w.pos
}

// runTicker calls tick now and then every interval on a new goroutine.
// The returned stop function waits for the goroutine to exit.
func runTicker(ctx context.Context, interval time.Duration, tick func()) func() error {
	if interval <= 0 {
		interval = DefaultSampleInterval
	}
	ctx, cancel := context.WithCancel(ctx)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		tick()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				tick()
			}
		}
	}()

	var once sync.Once
	return func() error {
		once.Do(func() {
			cancel()
			wg.Wait()
		})
		return nil
	}
}
