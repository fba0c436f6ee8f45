package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/locshare/internal/proto"
)

func main() {
	if err := run(); err != nil {
		log.Printf("ws_smoke: %v", err)
		os.Exit(1)
	}
}

func run() error {
	addr := flag.String("addr", "ws://localhost:8080/ws", "WebSocket address")
	id := flag.String("id", "User-smoke", "participant id to publish as")
	lat := flag.Float64("lat", 51.505, "latitude to publish")
	lng := flag.Float64("lng", -0.09, "longitude to publish")
	device := flag.String("device", "Linux", "device type to publish")
	timeout := flag.Duration("timeout", 5*time.Second, "total timeout for the run")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	conn, _, err := websocket.Dial(ctx, *addr, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	if err := wsjson.Write(ctx, conn, proto.NewLocation(*id, *lat, *lng, *device)); err != nil {
		return fmt.Errorf("send: %w", err)
	}

	// Snapshot records for other participants may arrive before our own echo.
	for {
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if typ != websocket.MessageText {
			continue
		}
		loc, err := proto.Decode(data)
		if err != nil {
			fmt.Printf("Raw frame: %s\n", data)
			return err
		}
		gotLat, gotLng, ok := loc.Coordinates()
		fmt.Printf("Location: id=%s lat=%v lng=%v valid=%t device=%s ts=%s\n",
			loc.ID, gotLat, gotLng, ok, loc.DeviceType, loc.Timestamp.Format(time.RFC3339))
		if loc.ID == *id {
			return nil
		}
	}
}
