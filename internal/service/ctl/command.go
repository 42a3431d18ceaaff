package ctl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"google.golang.org/protobuf/encoding/protojson"

	"github.com/oshokin/green-sentinel/internal/api/grpc/control"
	"github.com/oshokin/green-sentinel/internal/config"
	"github.com/oshokin/green-sentinel/internal/domain/alarm"
	"github.com/oshokin/green-sentinel/internal/logger"
	"github.com/oshokin/green-sentinel/internal/pipeline"
	"github.com/oshokin/green-sentinel/internal/service/common"
	"github.com/oshokin/green-sentinel/internal/version"
)

// Options configures sentinel-ctl.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string
	// Address overrides the control address from config when specified.
	Address string
	// Wait makes stop poll until the sentinel reports it is monitoring again.
	Wait bool
	// JSON makes status print the raw status document.
	JSON bool
	// Output receives the command output.
	Output io.Writer
}

// pollInterval defines the delay between status polls while waiting for a stop.
const pollInterval = 1 * time.Second

// connect loads settings and dials the sentinel.
func connect(ctx context.Context, opts *Options) (*common.Client, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}

	address := cfg.Control.ListenAddress
	if opts.Address != "" {
		address = opts.Address
	}

	logger.DebugKV(ctx, "Connecting to sentinel", "address", address)

	return common.Dial(ctx, address, common.WithCallTimeout(cfg.Control.Timeout))
}

// Stop silences the alarm. With Wait set it retries until the sentinel is
// monitoring again or ctx ends.
func Stop(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sentinel-ctl")

	// Identify current user and hostname so the sentinel can attribute the stop.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	status, err := client.Stop(ctx, actor)
	if err != nil {
		return err
	}

	if !opts.Wait || status.State == alarm.Monitoring {
		_, _ = fmt.Fprintln(opts.Output, "Stop sent:", formatStatus(status))

		return nil
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			status, err = client.Status(ctx)
			if err != nil {
				// Transient failures are retried until ctx ends.
				logger.WarnKV(ctx, "GetStatus failed", "error", err)

				continue
			}

			if status.State == alarm.Monitoring {
				_, _ = fmt.Fprintln(opts.Output, "Alarm silenced:", formatStatus(status))

				return nil
			}
		}
	}
}

// Status prints the sentinel status.
func Status(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "sentinel-ctl")

	client, err := connect(ctx, opts)
	if err != nil {
		return err
	}

	defer func() {
		_ = client.Close()
	}()

	if err := client.Ping(ctx); err != nil {
		return err
	}

	raw, err := client.RawStatus(ctx)
	if err != nil {
		return err
	}

	checkVersion(ctx, control.VersionOf(raw))

	if opts.JSON {
		data, err := protojson.MarshalOptions{Multiline: true, Indent: "  "}.Marshal(raw)
		if err != nil {
			return fmt.Errorf("marshal status: %w", err)
		}

		_, _ = fmt.Fprintln(opts.Output, string(data))

		return nil
	}

	status, err := control.StatusFromProto(raw)
	if err != nil {
		return err
	}

	_, _ = fmt.Fprintln(opts.Output, formatStatus(status))

	return nil
}

// checkVersion warns when the sentinel and this client disagree on the control API.
func checkVersion(ctx context.Context, remote string) {
	ok, err := version.Compatible(remote)

	switch {
	case errors.Is(err, version.ErrUnknownVersion):
		logger.Warn(ctx, "Sentinel did not report its version")
	case err != nil:
		logger.WarnKV(ctx, "Unable to compare versions", "error", err)
	case !ok:
		logger.WarnKV(ctx, "Sentinel version differs from sentinel-ctl", "sentinel", remote, "client", version.Short())
	}
}

// formatStatus converts a status to a readable line.
func formatStatus(s *pipeline.Status) string {
	if s == nil {
		return "<nil status>"
	}

	line := s.State.String()

	if s.State == alarm.Triggering {
		line += fmt.Sprintf(" since %s (session %s", s.TriggeredAt.Format(time.RFC3339), s.SessionID)
		if s.Fallback {
			line += ", fallback ring"
		}

		line += ")"
	}

	line += fmt.Sprintf(", frames analyzed %d, dropped %d", s.FramesAnalyzed, s.FramesDropped)

	if !s.LastSilencedAt.IsZero() {
		line += fmt.Sprintf(", last silenced by %s at %s", s.LastSilencedBy, s.LastSilencedAt.Format(time.RFC3339))
	}

	return line
}
