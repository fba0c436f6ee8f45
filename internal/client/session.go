package client

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/locshare/internal/proto"
)

const (
	// DefaultRetryDelay is the fixed pause before every reconnect attempt.
	DefaultRetryDelay   = 3 * time.Second
	defaultWriteTimeout = 5 * time.Second
	eventBuffer         = 64
)

// User-visible texts.
const (
	statusConnecting   = "Connecting..."
	statusConnected    = "Connected"
	statusDisconnected = "Disconnected"

	noticeConnected       = "Connected to server"
	noticeConnectionLost  = "Connection lost. Retrying..."
	noticeNoGeolocation   = "Geolocation not supported"
	noticeLocationDenied  = "Location access required"
	noticeCopied          = "User ID copied!"
	noticeCopyFailed      = "Failed to copy ID"
	noticeSwitchedToLayer = "Switched to "
)

// State is the connection state of a session.
type State int32

const (
	StateConnecting State = iota
	StateConnected
	StateDisconnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	case StateDisconnected:
		return "disconnected"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Options configures a Session. Only Endpoint is required.
type Options struct {
	SelfID     string
	DeviceType string
	Endpoint   string
	RetryDelay time.Duration
	// WriteTimeout bounds each outbound sample write.
	WriteTimeout time.Duration
	Layer        string

	Map       Map
	Notifier  Notifier
	Transport Transport
	Source    PositionSource
	Clock     Clock
	Clipboard Clipboard
	Logger    *zerolog.Logger
}

type eventKind int

const (
	evOpened eventKind = iota
	evMessage
	evClosed
	evPosition
	evPositionError
	evReconnectDue
	evSwitchLayer
	evCopyID
)

// event is the only way goroutines outside the loop touch session state.
// gen ties connection and timer events to the attempt that produced them.
type event struct {
	kind  eventKind
	gen   uint64
	conn  Conn
	data  []byte
	pos   Position
	err   error
	layer string
	reply chan error
}

// Session owns one participant's connection, presence view and position
// sampling. All state below the channels is owned by the Run goroutine.
type Session struct {
	opts    Options
	log     *zerolog.Logger
	tracker *Tracker

	events    chan event
	stop      chan struct{}
	done      chan struct{}
	stopOnce  sync.Once
	started   atomic.Bool
	stateView atomic.Int32
	closeErr  error

	runCtx     context.Context
	state      State
	gen        uint64
	conn       Conn
	connCtx    context.Context
	cancelConn context.CancelFunc
	timer      Timer

	samplerStarted bool
	stopSource     func() error
	cancelSource   context.CancelFunc
	positionNotice bool

	layer string
}

// NewSession validates opts and fills in defaults.
func NewSession(opts Options) (*Session, error) {
	if opts.Endpoint == "" {
		return nil, errors.New("session endpoint is required")
	}
	if opts.SelfID == "" {
		opts.SelfID = GenerateUserID()
	}
	if opts.DeviceType == "" {
		opts.DeviceType = UnknownDevice
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = DefaultRetryDelay
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaultWriteTimeout
	}
	if opts.Layer == "" {
		opts.Layer = DefaultLayer
	}
	layer, err := LookupLayer(opts.Layer)
	if err != nil {
		return nil, err
	}
	if opts.Map == nil {
		opts.Map = NewHeadlessMap()
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}
	if opts.Transport == nil {
		opts.Transport = NewWebSocketTransport()
	}
	if opts.Clock == nil {
		opts.Clock = SystemClock()
	}
	if opts.Logger == nil {
		nop := zerolog.Nop()
		opts.Logger = &nop
	}

	logger := opts.Logger.With().Str("self", opts.SelfID).Logger()
	opts.Map.SetTileLayer(layer)

	return &Session{
		opts:    opts,
		log:     &logger,
		tracker: NewTracker(opts.SelfID, opts.Map, opts.Notifier, &logger),
		events:  make(chan event, eventBuffer),
		stop:    make(chan struct{}),
		done:    make(chan struct{}),
		layer:   layer.ID,
	}, nil
}

// SelfID is the local participant id.
func (s *Session) SelfID() string { return s.opts.SelfID }

// State returns the most recent connection state.
func (s *Session) State() State { return State(s.stateView.Load()) }

// Done is closed once Run has returned.
func (s *Session) Done() <-chan struct{} { return s.done }

// Run connects and processes events until ctx ends or Close is called.
// The returned error is the teardown error, if any.
func (s *Session) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return ErrSessionClosed
	}
	defer close(s.done)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	s.runCtx = runCtx

	select {
	case <-s.stop:
		s.closeErr = s.teardown()
		return s.closeErr
	default:
	}

	s.connect()
	for {
		select {
		case ev := <-s.events:
			s.handle(ev)
		case <-ctx.Done():
			s.closeErr = s.teardown()
			return s.closeErr
		case <-s.stop:
			s.closeErr = s.teardown()
			return s.closeErr
		}
	}
}

// Close stops the session and waits for teardown to finish.
func (s *Session) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	if !s.started.Load() {
		return nil
	}
	<-s.done
	return s.closeErr
}

// SwitchLayer swaps the basemap. Switching to the current layer is a no-op.
func (s *Session) SwitchLayer(ctx context.Context, id string) error {
	return s.request(ctx, event{kind: evSwitchLayer, layer: id})
}

// CopyID writes the self id to the clipboard and reports the outcome as a notice.
func (s *Session) CopyID(ctx context.Context) error {
	return s.request(ctx, event{kind: evCopyID})
}

func (s *Session) request(ctx context.Context, ev event) error {
	ev.reply = make(chan error, 1)
	select {
	case s.events <- ev:
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-ev.reply:
		return err
	case <-s.done:
		return ErrSessionClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// post hands an event to the loop; it gives up once the loop is gone or
// cancel fires.
func (s *Session) post(cancel <-chan struct{}, ev event) bool {
	select {
	case s.events <- ev:
		return true
	case <-cancel:
		return false
	case <-s.done:
		return false
	}
}

func (s *Session) setState(st State) {
	s.state = st
	s.stateView.Store(int32(st))
	s.log.Debug().Stringer("state", st).Msg("session state changed")
}

func (s *Session) handle(ev event) {
	switch ev.kind {
	case evOpened:
		s.onOpened(ev)
	case evMessage:
		s.onMessage(ev)
	case evClosed:
		s.onClosed(ev)
	case evPosition:
		s.onPosition(ev.pos)
	case evPositionError:
		s.onPositionError(ev.err)
	case evReconnectDue:
		if ev.gen != s.gen {
			return
		}
		s.timer = nil
		s.connect()
	case evSwitchLayer:
		ev.reply <- s.switchLayer(ev.layer)
	case evCopyID:
		ev.reply <- s.copyID()
	}
}

// connect starts a new attempt. Dialing and reading run on their own
// goroutine, which reports back through opened, message and closed events.
func (s *Session) connect() {
	s.gen++
	gen := s.gen
	s.setState(StateConnecting)
	s.opts.Notifier.Status(statusConnecting, StatusConnecting)

	ctx, cancel := context.WithCancel(s.runCtx)
	s.connCtx, s.cancelConn = ctx, cancel

	go func() {
		conn, err := s.opts.Transport.Dial(ctx, s.opts.Endpoint)
		if err != nil {
			s.post(ctx.Done(), event{kind: evClosed, gen: gen, err: err})
			return
		}
		if !s.post(ctx.Done(), event{kind: evOpened, gen: gen, conn: conn}) {
			_ = conn.Close()
			return
		}
		for {
			data, err := conn.Read(ctx)
			if err != nil {
				s.post(ctx.Done(), event{kind: evClosed, gen: gen, err: err})
				return
			}
			if !s.post(ctx.Done(), event{kind: evMessage, gen: gen, data: data}) {
				return
			}
		}
	}()
}

func (s *Session) onOpened(ev event) {
	if ev.gen != s.gen {
		_ = ev.conn.Close()
		return
	}
	s.conn = ev.conn
	s.setState(StateConnected)
	s.opts.Notifier.Status(statusConnected, StatusConnected)
	s.opts.Notifier.Notify(noticeConnected, LevelSuccess)
	s.log.Info().Str("endpoint", s.opts.Endpoint).Msg("connected")

	if !s.samplerStarted {
		s.samplerStarted = true
		s.startSampler()
	}
}

func (s *Session) onMessage(ev event) {
	if ev.gen != s.gen {
		return
	}
	loc, err := proto.Decode(ev.data)
	if err != nil {
		s.log.Debug().Err(err).Msg("discarding malformed record")
		return
	}
	s.tracker.Apply(loc)
}

func (s *Session) onClosed(ev event) {
	if ev.gen != s.gen {
		return
	}
	if s.conn != nil {
		_ = s.conn.Close()
		s.conn = nil
	}
	if s.cancelConn != nil {
		s.cancelConn()
		s.cancelConn = nil
	}
	s.setState(StateDisconnected)
	s.opts.Notifier.Status(statusDisconnected, StatusDisconnected)
	s.opts.Notifier.Notify(noticeConnectionLost, LevelError)
	s.log.Warn().Err(ev.err).Dur("retry_in", s.opts.RetryDelay).Msg("connection lost")

	s.scheduleReconnect()
}

// scheduleReconnect leaves exactly one pending timer.
func (s *Session) scheduleReconnect() {
	if s.timer != nil {
		s.timer.Stop()
	}
	gen := s.gen
	s.timer = s.opts.Clock.AfterFunc(s.opts.RetryDelay, func() {
		s.post(s.stop, event{kind: evReconnectDue, gen: gen})
	})
}

func (s *Session) startSampler() {
	if s.opts.Source == nil {
		s.opts.Notifier.Notify(noticeNoGeolocation, LevelError)
		return
	}

	ctx, cancel := context.WithCancel(s.runCtx)
	stop, err := s.opts.Source.Start(ctx,
		func(p Position) { s.post(ctx.Done(), event{kind: evPosition, pos: p}) },
		func(err error) { s.post(ctx.Done(), event{kind: evPositionError, err: err}) },
	)
	if err != nil {
		cancel()
		s.log.Warn().Err(err).Msg("position source unavailable")
		s.opts.Notifier.Notify(noticeNoGeolocation, LevelError)
		return
	}
	s.cancelSource, s.stopSource = cancel, stop
}

// onPosition forwards a sample only while connected; nothing is queued.
func (s *Session) onPosition(p Position) {
	if s.state != StateConnected || s.conn == nil {
		s.log.Debug().Msg("not connected, dropping sample")
		return
	}
	data, err := proto.Encode(proto.NewLocation(s.opts.SelfID, p.Lat, p.Lng, s.opts.DeviceType))
	if err != nil {
		s.log.Debug().Err(err).Msg("encode sample")
		return
	}

	conn, ctx, timeout := s.conn, s.connCtx, s.opts.WriteTimeout
	go func() {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()
		if err := conn.Write(ctx, data); err != nil {
			s.log.Debug().Err(err).Msg("sample write failed")
		}
	}()
}

func (s *Session) onPositionError(err error) {
	s.log.Warn().Err(err).Msg("position source error")
	if s.positionNotice {
		return
	}
	s.positionNotice = true
	s.opts.Notifier.Notify(noticeLocationDenied, LevelError)
}

func (s *Session) switchLayer(id string) error {
	layer, err := LookupLayer(id)
	if err != nil {
		return err
	}
	if layer.ID == s.layer {
		return nil
	}
	s.opts.Map.SetTileLayer(layer)
	s.layer = layer.ID
	s.opts.Notifier.Notify(noticeSwitchedToLayer+layer.Name, LevelInfo)
	return nil
}

func (s *Session) copyID() error {
	err := ErrNoClipboard
	if s.opts.Clipboard != nil {
		err = s.opts.Clipboard.WriteText(s.opts.SelfID)
	}
	if err != nil {
		s.opts.Notifier.Notify(noticeCopyFailed, LevelError)
		return fmt.Errorf("copy id: %w", err)
	}
	s.opts.Notifier.Notify(noticeCopied, LevelSuccess)
	return nil
}

// teardown releases the transport and the position subscription; both run
// even if one fails. No reconnect can fire afterwards.
func (s *Session) teardown() error {
	s.setState(StateClosed)
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}

	var errs []error
	if s.conn != nil {
		if err := s.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close transport: %w", err))
		}
		s.conn = nil
	}
	if s.cancelConn != nil {
		s.cancelConn()
		s.cancelConn = nil
	}
	if s.stopSource != nil {
		s.cancelSource()
		if err := s.stopSource(); err != nil {
			errs = append(errs, fmt.Errorf("stop position source: %w", err))
		}
		s.stopSource = nil
	}

	err := errors.Join(errs...)
	s.log.Info().Err(err).Msg("session closed")
	return err
}
