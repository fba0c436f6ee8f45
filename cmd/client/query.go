package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/spf13/cobra"
)

const requestTimeout = 5 * time.Second

func newParticipantsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "participants [id]",
		Short: "List every participant's last known location, or show one participant",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			if len(args) == 1 {
				var p participant
				if err := fetchJSON(cmd.Context(), cfg.Origin, "/api/participants/"+url.PathEscape(args[0]), &p); err != nil {
					return err
				}
				renderParticipant(cmd.OutOrStdout(), p)
				return nil
			}
			var list []participant
			if err := fetchJSON(cmd.Context(), cfg.Origin, "/api/participants", &list); err != nil {
				return err
			}
			renderParticipants(cmd.OutOrStdout(), list)
			return nil
		},
	}
}

func newStatsCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show server counters",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := root.loadConfig(cmd)
			if err != nil {
				return err
			}
			var s stats
			if err := fetchJSON(cmd.Context(), cfg.Origin, "/stats", &s); err != nil {
				return err
			}
			renderStats(cmd.OutOrStdout(), s)
			return nil
		},
	}
}

func fetchJSON(ctx context.Context, origin, path string, dst any) error {
	endpoint, err := url.JoinPath(origin, path)
	if err != nil {
		return fmt.Errorf("build url: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %s", endpoint, resp.Status)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
