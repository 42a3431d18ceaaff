package sentinel

import (
	"context"
	"fmt"

	"github.com/oshokin/green-sentinel/internal/config"
	"github.com/oshokin/green-sentinel/internal/pipeline"
	"github.com/oshokin/green-sentinel/internal/source/camera"
	"github.com/oshokin/green-sentinel/internal/source/images"
)

// newSource maps the source settings to an acquirer and its permission gate.
func newSource(cfg *config.Source) (pipeline.Acquirer, pipeline.Gate, error) {
	switch cfg.Kind {
	case config.SourceImages:
		opts := images.Options{
			Directory: cfg.Directory,
			FPS:       cfg.FPS,
			Loop:      cfg.Loop,
		}

		acquirer := pipeline.AcquirerFunc(func(ctx context.Context) (pipeline.Source, error) {
			src, err := images.Open(ctx, opts)
			if err != nil {
				return nil, err
			}

			return src, nil
		})

		gate := pipeline.GateFunc(func(ctx context.Context) error {
			return images.CheckAccess(ctx, opts.Directory)
		})

		return acquirer, gate, nil
	case config.SourceCamera:
		opts := camera.Options{
			Device: cfg.Device,
			FPS:    cfg.FPS,
		}

		acquirer := pipeline.AcquirerFunc(func(ctx context.Context) (pipeline.Source, error) {
			src, err := camera.Open(ctx, opts)
			if err != nil {
				return nil, err
			}

			return src, nil
		})

		gate := pipeline.GateFunc(func(ctx context.Context) error {
			return camera.CheckAccess(ctx, opts.Device)
		})

		return acquirer, gate, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown kind %q", config.ErrInvalidSource, cfg.Kind)
	}
}
