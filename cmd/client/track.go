package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/locshare/internal/client"
	"github.com/vovakirdan/locshare/internal/config"
	"github.com/vovakirdan/locshare/internal/log"
)

type trackOptions struct {
	userID         string
	source         string
	lat            float64
	lng            float64
	step           float64
	seed           int64
	interval       time.Duration
	layer          string
	logLevel       string
	clipboardFile  string
	renderInterval time.Duration
}

func newTrackCmd(root *rootOptions) *cobra.Command {
	opts := &trackOptions{}

	cmd := &cobra.Command{
		Use:   "track",
		Short: "Share a synthetic position and follow other participants",
		Long: "Connects to the server, streams positions from a static point or a random walk,\n" +
			"and prints presence changes. Commands on stdin: layer <id>, copy, map, quit.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			opts.apply(cmd, &cfg)
			return runTrack(cmd.Context(), cfg, opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.userID, "id", "", "participant id (default random User-<n>)")
	flags.StringVar(&opts.source, "source", "", "position source: static or walk")
	flags.Float64Var(&opts.lat, "lat", 0, "start latitude")
	flags.Float64Var(&opts.lng, "lng", 0, "start longitude")
	flags.Float64Var(&opts.step, "step", 0, "max walk step in meters")
	flags.Int64Var(&opts.seed, "seed", 0, "random walk seed")
	flags.DurationVar(&opts.interval, "interval", 0, "sample interval")
	flags.StringVar(&opts.layer, "layer", "", "basemap layer: "+strings.Join(layerIDs(), ", "))
	flags.StringVar(&opts.logLevel, "log-level", "", "log level")
	flags.StringVar(&opts.clipboardFile, "clipboard-file", "", "file that receives the id on copy")
	flags.DurationVar(&opts.renderInterval, "render-every", 0, "print the map table periodically (0 disables)")
	return cmd
}

// apply copies explicitly set flags over the loaded config.
func (o *trackOptions) apply(cmd *cobra.Command, cfg *config.ClientConfig) {
	changed := cmd.Flags().Changed
	if changed("id") {
		cfg.UserID = o.userID
	}
	if changed("source") {
		cfg.Source = o.source
	}
	if changed("lat") {
		cfg.Lat = o.lat
	}
	if changed("lng") {
		cfg.Lng = o.lng
	}
	if changed("step") {
		cfg.WalkStepMeters = o.step
	}
	if changed("seed") {
		cfg.Seed = o.seed
	}
	if changed("interval") {
		cfg.SampleInterval = o.interval
	}
	if changed("layer") {
		cfg.Layer = o.layer
	}
	if changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
}

func newSource(cfg config.ClientConfig) (client.PositionSource, error) {
	start := client.Position{Lat: cfg.Lat, Lng: cfg.Lng}
	switch cfg.Source {
	case "", "static":
		return client.StaticSource{Position: start, Interval: cfg.SampleInterval}, nil
	case "walk":
		return client.WalkSource{
			Origin:     start,
			StepMeters: cfg.WalkStepMeters,
			Interval:   cfg.SampleInterval,
			Seed:       uint64(cfg.Seed),
		}, nil
	default:
		return nil, fmt.Errorf("unknown position source %q", cfg.Source)
	}
}

type fileClipboard struct {
	path string
}

func (c fileClipboard) WriteText(text string) error {
	return os.WriteFile(c.path, []byte(text+"\n"), 0o600)
}

func runTrack(ctx context.Context, cfg config.ClientConfig, opts *trackOptions, in io.Reader, out io.Writer) error {
	endpoint, err := client.EndpointFromOrigin(cfg.Origin)
	if err != nil {
		return err
	}
	source, err := newSource(cfg)
	if err != nil {
		return err
	}
	deviceType := cfg.DeviceType
	if deviceType == "" {
		deviceType = client.DeviceTypeForOS(runtime.GOOS)
	}

	var clipboard client.Clipboard
	if opts.clipboardFile != "" {
		clipboard = fileClipboard{path: opts.clipboardFile}
	}

	view := client.NewHeadlessMap()
	session, err := client.NewSession(client.Options{
		SelfID:     cfg.UserID,
		DeviceType: deviceType,
		Endpoint:   endpoint,
		RetryDelay: cfg.RetryDelay,
		Layer:      cfg.Layer,
		Map:        view,
		Notifier:   newConsoleNotifier(out, !cfg.NoColor),
		Source:     source,
		Clipboard:  clipboard,
		Logger:     log.NewWithWriter(os.Stderr, cfg.LogLevel, log.FormatConsole),
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(out, "tracking as %s (%s) via %s\n", session.SelfID(), deviceType, endpoint)

	go readCommands(ctx, in, out, session, view, stop)
	if opts.renderInterval > 0 {
		go renderLoop(ctx, out, view, opts.renderInterval)
	}

	return session.Run(ctx)
}

func layerIDs() []string {
	return lo.Map(client.Layers(), func(l client.Layer, _ int) string { return l.ID })
}

// readCommands handles the small stdin command set until EOF or quit.
func readCommands(ctx context.Context, in io.Reader, out io.Writer, session *client.Session, view *client.HeadlessMap, quit func()) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		switch fields[0] {
		case "layer":
			if len(fields) != 2 {
				fmt.Fprintf(out, "usage: layer <%s>\n", strings.Join(layerIDs(), "|"))
				continue
			}
			if err := session.SwitchLayer(ctx, fields[1]); err != nil {
				fmt.Fprintln(out, err)
			}
		case "copy":
			_ = session.CopyID(ctx)
		case "map":
			renderMap(out, view.Snapshot())
		case "quit", "exit":
			quit()
			return
		default:
			fmt.Fprintf(out, "unknown command %q\n", fields[0])
		}
	}
}

func renderLoop(ctx context.Context, out io.Writer, view *client.HeadlessMap, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renderMap(out, view.Snapshot())
		}
	}
}
