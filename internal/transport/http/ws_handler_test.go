package http

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/locshare/internal/config"
	"github.com/vovakirdan/locshare/internal/core"
	"github.com/vovakirdan/locshare/internal/proto"
)

func startTestServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, *core.Hub) {
	t.Helper()

	hub := core.NewHub(core.Options{})
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	cfg := config.Default()
	cfg.Addr = ":0"
	cfg.PublicDir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}

	disabledLogger := zerolog.New(nil)
	server := NewServer(hub, nil, &cfg, &disabledLogger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(ts.Close)

	return ts, hub
}

func dial(t *testing.T, ctx context.Context, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + proto.WSPath
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func readLocation(t *testing.T, ctx context.Context, conn *websocket.Conn) proto.Location {
	t.Helper()

	typ, data, err := conn.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if typ != websocket.MessageText {
		t.Fatalf("unexpected frame type %v", typ)
	}
	loc, err := proto.Decode(data)
	if err != nil {
		t.Fatalf("decode %s: %v", data, err)
	}
	return loc
}

func waitConnected(t *testing.T, hub *core.Hub, n int) {
	t.Helper()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		s, err := hub.Stats(context.Background())
		if err == nil && s.ConnectedClients == n {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("expected %d connected clients", n)
}

func TestWebSocketLocationFanOut(t *testing.T) {
	ts, hub := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	connA := dial(t, ctx, ts)
	connB := dial(t, ctx, ts)
	waitConnected(t, hub, 2)

	if err := connA.Write(ctx, websocket.MessageText,
		[]byte(`{"id":"User-42","lat":"51.5","lng":"-0.09","deviceType":"Linux"}`)); err != nil {
		t.Fatalf("write: %v", err)
	}

	for name, conn := range map[string]*websocket.Conn{"sender": connA, "peer": connB} {
		loc := readLocation(t, ctx, conn)
		lat, lng, ok := loc.Coordinates()
		if !ok || lat != 51.5 || lng != -0.09 {
			t.Fatalf("%s: unexpected coordinates %+v", name, loc)
		}
		if loc.ID != "User-42" || loc.DeviceType != "Linux" {
			t.Fatalf("%s: unexpected record %+v", name, loc)
		}
		if loc.Timestamp.IsZero() {
			t.Fatalf("%s: record not stamped", name)
		}
	}
}

func TestWebSocketSkipsBadFramesWithoutClosing(t *testing.T) {
	ts, hub := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, ts)
	waitConnected(t, hub, 1)

	frames := []string{
		`not json`,
		`{"id":"User-1","lat":"north","lng":1}`,
		`{"id":"","lat":1,"lng":1}`,
		`{"id":"User-1","lat":95,"lng":1}`,
	}
	for _, f := range frames {
		if err := conn.Write(ctx, websocket.MessageText, []byte(f)); err != nil {
			t.Fatalf("write %q: %v", f, err)
		}
	}
	if err := wsjson.Write(ctx, conn, proto.NewLocation("User-2", 10, 20, "")); err != nil {
		t.Fatalf("write valid: %v", err)
	}

	loc := readLocation(t, ctx, conn)
	if loc.ID != "User-2" {
		t.Fatalf("expected only the valid record, got %+v", loc)
	}
	if loc.DeviceType != core.DefaultDeviceType {
		t.Fatalf("device type = %q, want default", loc.DeviceType)
	}

	s, err := hub.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if s.TrackedLocations != 1 || s.ConnectedClients != 1 {
		t.Fatalf("unexpected stats: %+v", s)
	}
}

func TestWebSocketLateJoinerGetsSnapshot(t *testing.T) {
	ts, hub := startTestServer(t, nil)

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	first := dial(t, ctx, ts)
	waitConnected(t, hub, 1)
	if err := wsjson.Write(ctx, first, proto.NewLocation("User-9", 1.5, 2.5, "iOS")); err != nil {
		t.Fatalf("write: %v", err)
	}
	readLocation(t, ctx, first) // own echo

	late := dial(t, ctx, ts)
	loc := readLocation(t, ctx, late)
	if loc.ID != "User-9" || loc.Lat.Value != 1.5 {
		t.Fatalf("unexpected snapshot record: %+v", loc)
	}
}

func TestWebSocketRateLimit(t *testing.T) {
	ts, hub := startTestServer(t, func(cfg *config.Config) { cfg.MaxMessagesPerMinute = 1 })

	ctx, closeCtx := context.WithTimeout(context.Background(), 5*time.Second)
	defer closeCtx()

	conn := dial(t, ctx, ts)
	waitConnected(t, hub, 1)

	for _, id := range []string{"User-1", "User-2"} {
		if err := wsjson.Write(ctx, conn, proto.NewLocation(id, 1, 1, "")); err != nil {
			t.Fatalf("write %s: %v", id, err)
		}
	}

	if loc := readLocation(t, ctx, conn); loc.ID != "User-1" {
		t.Fatalf("expected first record, got %+v", loc)
	}

	readCtx, cancel := context.WithTimeout(ctx, 200*time.Millisecond)
	defer cancel()
	if _, _, err := conn.Read(readCtx); err == nil {
		t.Fatal("second record should have been rate limited")
	}
}

func TestParticipantsEndpoint(t *testing.T) {
	ts, hub := startTestServer(t, nil)

	hub.Publish(proto.NewLocation("User-b", 3, 4, "Mac"))
	hub.Publish(proto.NewLocation("User-a", 1, 2, "Linux"))

	var participants []ParticipantResponse
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := ts.Client().Get(ts.URL + "/api/participants")
		if err != nil {
			t.Fatalf("request: %v", err)
		}
		participants = nil
		err = json.NewDecoder(resp.Body).Decode(&participants)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(participants) == 2 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	if len(participants) != 2 {
		t.Fatalf("expected 2 participants, got %+v", participants)
	}
	if participants[0].ID != "User-a" || participants[0].Lat != 1 || participants[0].DeviceType != "Linux" {
		t.Fatalf("unexpected first participant: %+v", participants[0])
	}
	if participants[1].UpdatedAt == "" {
		t.Fatalf("missing updated_at: %+v", participants[1])
	}
}
