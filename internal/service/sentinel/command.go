package sentinel

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap/zapcore"

	"github.com/oshokin/green-sentinel/internal/config"
	"github.com/oshokin/green-sentinel/internal/domain/alarm"
	"github.com/oshokin/green-sentinel/internal/domain/detection"
	"github.com/oshokin/green-sentinel/internal/logger"
	"github.com/oshokin/green-sentinel/internal/metrics"
	"github.com/oshokin/green-sentinel/internal/pipeline"
	"github.com/oshokin/green-sentinel/internal/service/common"
	"github.com/oshokin/green-sentinel/internal/service/instance"
	"github.com/oshokin/green-sentinel/internal/source/images"
	"github.com/oshokin/green-sentinel/internal/ui"
	"github.com/oshokin/green-sentinel/internal/version"
)

// Options controls the sentinel process.
type Options struct {
	// ConfigPath specifies the path to settings YAML file.
	ConfigPath string
	// LogLevel overrides the configured log level when set.
	LogLevel string
	// Headless disables the terminal surface; logs go to stdout and the alarm is
	// silenced through the control endpoint only.
	Headless bool
	// Takeover terminates a sentinel that is already running instead of refusing to start.
	Takeover bool
	// Input feeds keys to the terminal surface; nil means stdin.
	Input io.Reader
	// Output receives the terminal surface; nil means stdout.
	Output io.Writer
	// OnStep observes every state machine step; may be nil.
	OnStep func(step alarm.Step)
}

// ErrInvalidLogLevel indicates an unknown --log-level value.
var ErrInvalidLogLevel = errors.New("invalid log level")

// Run starts the sentinel and blocks until ctx is canceled, the user quits the
// surface or a component fails. The alarm is always released before Run returns.
//
//nolint:cyclop,funlen // Wiring of every component lives in one place.
func Run(ctx context.Context, opts *Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load settings: %w", err)
	}

	levelName := cfg.Log.Level
	if opts.LogLevel != "" {
		levelName = opts.LogLevel
	}

	level, ok := logger.ParseLogLevel(levelName)
	if !ok {
		return fmt.Errorf("%w: %q", ErrInvalidLogLevel, levelName)
	}

	logger.SetLevel(level)

	if !opts.Headless {
		// The surface owns the terminal, so log lines go to a file.
		logFile, err := logger.OpenRotatingFile(cfg.Log.File)
		if err != nil {
			return err
		}

		defer func() { _ = logFile.Close() }()

		logger.Redirect(logFile)
	}

	ctx = logger.WithName(ctx, "green-sentinel")

	logger.InfoKV(ctx, "Starting", "version", version.Short(), "source", string(cfg.Source.Kind), "headless", opts.Headless)

	if err := instance.NewGuard("").Acquire(ctx, opts.Takeover); err != nil {
		return err
	}

	acquirer, gate, err := newSource(&cfg.Source)
	if err != nil {
		return err
	}

	m := metrics.New()

	pipelineOptions := pipeline.Options{
		Detector: detection.NewDetector(cfg.Detection.ColorRange, cfg.Detection.Stride),
		Effects:  newEffector(&cfg.Alarm, m),
		Acquirer: acquirer,
		Gate:     gate,
		Metrics:  m,
		OnStep:   opts.OnStep,
	}

	var surface *ui.Surface
	if !opts.Headless {
		surface = ui.NewSurface()
		pipelineOptions.Surface = surface
	}

	coordinator := pipeline.New(pipelineOptions)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg   sync.WaitGroup
		errs = make(chan error, 3)
	)

	wg.Go(func() {
		if err := serveControl(runCtx, cfg.Control.ListenAddress, coordinator); err != nil {
			errs <- err

			cancel()
		}
	})

	if cfg.Metrics.ListenAddress != "" {
		router := metrics.NewRouter(m, func() any { return coordinator.Status() })

		wg.Go(func() {
			if err := metrics.Serve(runCtx, cfg.Metrics.ListenAddress, router, zapcore.DebugLevel); err != nil {
				errs <- err

				cancel()
			}
		})
	}

	if surface != nil {
		localActor, err := common.DetectActor()
		if err != nil {
			logger.WarnKV(ctx, "Unable to identify local user, stops will be anonymous", "error", err)
		}

		model := ui.NewModel(surface, coordinator.Status, func() { coordinator.Stop(localActor) }, ui.DefaultRefresh)

		wg.Go(func() {
			if err := ui.Run(runCtx, model, opts.Input, opts.Output); err != nil {
				errs <- err
			}

			// Leaving the surface ends the process.
			cancel()
		})
	}

	runErr := coordinator.Run(runCtx)

	cancel()
	wg.Wait()
	close(errs)

	if errors.Is(runErr, images.ErrExhausted) {
		logger.Info(ctx, "Image sequence finished")

		runErr = nil
	}

	if runErr != nil {
		runErr = fmt.Errorf("pipeline: %w", runErr)
	}

	for err := range errs {
		runErr = errors.Join(runErr, err)
	}

	logger.Info(ctx, "Stopped")

	return runErr
}
