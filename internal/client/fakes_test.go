package client

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/locshare/internal/proto"
)

const (
	waitFor = 2 * time.Second
	tick    = 5 * time.Millisecond
)

var (
	errDialRefused = errors.New("connection refused")
	errConnClosed  = errors.New("connection closed")
)

type fakeTransport struct {
	mu       sync.Mutex
	failures int
	dials    int
	conns    []*fakeConn
}

func (t *fakeTransport) Dial(ctx context.Context, _ string) (Conn, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.dials++
	if t.failures > 0 {
		t.failures--
		return nil, errDialRefused
	}
	c := newFakeConn()
	t.conns = append(t.conns, c)
	return c, nil
}

func (t *fakeTransport) failNext(n int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.failures = n
}

func (t *fakeTransport) dialCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.dials
}

func (t *fakeTransport) conn(i int) *fakeConn {
	t.mu.Lock()
	defer t.mu.Unlock()
	if i >= len(t.conns) {
		return nil
	}
	return t.conns[i]
}

type fakeConn struct {
	in        chan []byte
	closed    chan struct{}
	closeOnce sync.Once
	closeErr  error

	mu     sync.Mutex
	writes [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{in: make(chan []byte, 16), closed: make(chan struct{})}
}

func (c *fakeConn) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.in:
		return data, nil
	case <-c.closed:
		return nil, errConnClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *fakeConn) Write(_ context.Context, data []byte) error {
	select {
	case <-c.closed:
		return errConnClosed
	default:
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.writes = append(c.writes, data)
	return nil
}

func (c *fakeConn) Close() error {
	c.closeOnce.Do(func() { close(c.closed) })
	return c.closeErr
}

func (c *fakeConn) isClosed() bool {
	select {
	case <-c.closed:
		return true
	default:
		return false
	}
}

func (c *fakeConn) deliver(data string) { c.in <- []byte(data) }

func (c *fakeConn) written(t *testing.T) []proto.Location {
	t.Helper()
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]proto.Location, 0, len(c.writes))
	for _, w := range c.writes {
		loc, err := proto.Decode(w)
		require.NoError(t, err)
		out = append(out, loc)
	}
	return out
}

type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	clock   *fakeClock
	delay   time.Duration
	f       func()
	stopped bool
	fired   bool
}

func (c *fakeClock) AfterFunc(d time.Duration, f func()) Timer {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := &fakeTimer{clock: c, delay: d, f: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *fakeTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()
	active := !t.stopped && !t.fired
	t.stopped = true
	return active
}

func (c *fakeClock) pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			n++
		}
	}
	return n
}

func (c *fakeClock) scheduled() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]time.Duration, 0, len(c.timers))
	for _, t := range c.timers {
		out = append(out, t.delay)
	}
	return out
}

// fire runs every active timer as if its delay had elapsed.
func (c *fakeClock) fire() {
	c.mu.Lock()
	var due []func()
	for _, t := range c.timers {
		if !t.stopped && !t.fired {
			t.fired = true
			due = append(due, t.f)
		}
	}
	c.mu.Unlock()

	for _, f := range due {
		f()
	}
}

type notice struct {
	message string
	level   Level
}

type recordingNotifier struct {
	mu       sync.Mutex
	notices  []notice
	statuses []string
	counts   []int
}

func (n *recordingNotifier) Notify(message string, level Level) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notices = append(n.notices, notice{message, level})
}

func (n *recordingNotifier) Status(text string, _ StatusKind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.statuses = append(n.statuses, text)
}

func (n *recordingNotifier) Count(participants int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.counts = append(n.counts, participants)
}

func (n *recordingNotifier) times(message string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	c := 0
	for _, nt := range n.notices {
		if nt.message == message {
			c++
		}
	}
	return c
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, 0, len(n.notices))
	for _, nt := range n.notices {
		out = append(out, nt.message)
	}
	return out
}

func (n *recordingNotifier) statusLog() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.statuses...)
}

type fakeSource struct {
	mu       sync.Mutex
	startErr error
	stopErr  error
	starts   int
	stops    int
	onSample func(Position)
	onError  func(error)
}

func (s *fakeSource) Start(_ context.Context, onSample func(Position), onError func(error)) (func() error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.starts++
	if s.startErr != nil {
		return nil, s.startErr
	}
	s.onSample, s.onError = onSample, onError
	return func() error {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.stops++
		return s.stopErr
	}, nil
}

func (s *fakeSource) startCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.starts
}

func (s *fakeSource) stopCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stops
}

func (s *fakeSource) emit(p Position) {
	s.mu.Lock()
	f := s.onSample
	s.mu.Unlock()
	f(p)
}

func (s *fakeSource) fail(err error) {
	s.mu.Lock()
	f := s.onError
	s.mu.Unlock()
	f(err)
}

type fakeClipboard struct {
	mu   sync.Mutex
	text string
	err  error
}

func (c *fakeClipboard) WriteText(text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.text = text
	return nil
}

type harness struct {
	session   *Session
	transport *fakeTransport
	clock     *fakeClock
	notifier  *recordingNotifier
	source    *fakeSource
	view      *HeadlessMap
	clipboard *fakeClipboard
}

func newHarness(t *testing.T, mutate func(*harness, *Options)) *harness {
	t.Helper()

	h := &harness{
		transport: &fakeTransport{},
		clock:     &fakeClock{},
		notifier:  &recordingNotifier{},
		source:    &fakeSource{},
		view:      NewHeadlessMap(),
		clipboard: &fakeClipboard{},
	}
	opts := Options{
		SelfID:     "User-1",
		DeviceType: "Linux",
		Endpoint:   "ws://example.test/ws",
		Map:        h.view,
		Notifier:   h.notifier,
		Transport:  h.transport,
		Source:     h.source,
		Clock:      h.clock,
		Clipboard:  h.clipboard,
	}
	if mutate != nil {
		mutate(h, &opts)
	}

	s, err := NewSession(opts)
	require.NoError(t, err)
	h.session = s
	return h
}

func (h *harness) start(t *testing.T) {
	t.Helper()
	go func() { _ = h.session.Run(context.Background()) }()
	t.Cleanup(func() { _ = h.session.Close() })
}

func (h *harness) waitState(t *testing.T, want State) {
	t.Helper()
	require.Eventually(t, func() bool { return h.session.State() == want }, waitFor, tick,
		"state is %s, want %s", h.session.State(), want)
}

// sync round-trips through the session loop so earlier events are handled.
func (h *harness) sync(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), waitFor)
	defer cancel()
	require.NoError(t, h.session.SwitchLayer(ctx, h.view.Snapshot().Layer.ID))
}
