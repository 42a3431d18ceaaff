package integration

import (
	"context"
	"image"
	"image/color"
	"image/png"
	"net"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/green-sentinel/internal/config"
	"github.com/oshokin/green-sentinel/internal/domain/alarm"
	"github.com/oshokin/green-sentinel/internal/service/common"
	"github.com/oshokin/green-sentinel/internal/service/sentinel"
)

const waitTimeout = 10 * time.Second

// freeAddress reserves a loopback port for a test server.
func freeAddress(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

func writeFrame(t *testing.T, path string, c color.Color) {
	t.Helper()

	img := image.NewNRGBA(image.Rect(0, 0, 64, 48))
	for y := range 48 {
		for x := range 64 {
			img.Set(x, y, c)
		}
	}

	f, err := os.Create(path)
	require.NoError(t, err)

	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())
}

// startSentinel writes a config for an images source and runs a headless sentinel.
func startSentinel(t *testing.T) (address string, steps <-chan alarm.Step, stop func() error) {
	t.Helper()

	dir := t.TempDir()
	frames := filepath.Join(dir, "frames")
	require.NoError(t, os.Mkdir(frames, 0o700))

	writeFrame(t, filepath.Join(frames, "001.png"), color.NRGBA{G: 220, A: 255})
	writeFrame(t, filepath.Join(frames, "002.png"), color.NRGBA{R: 40, G: 40, B: 40, A: 255})

	address = freeAddress(t)

	cfg := config.Default()
	cfg.Log.Level = "debug"
	cfg.Source = config.Source{Kind: config.SourceImages, Directory: frames, FPS: 50, Loop: true}
	cfg.Alarm.SoundFile = filepath.Join(dir, "missing-alarm.wav")
	cfg.Alarm.FallbackSoundFile = filepath.Join(dir, "missing-ring.wav")
	cfg.Control.ListenAddress = address
	cfg.Control.Timeout = 3 * time.Second

	cfgPath := filepath.Join(dir, "green-sentinel.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	stepCh := make(chan alarm.Step, 256)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- sentinel.Run(ctx, &sentinel.Options{
			ConfigPath: cfgPath,
			Headless:   true,
			OnStep: func(step alarm.Step) {
				select {
				case stepCh <- step:
				default:
				}
			},
		})
	}()

	stop = func() error {
		cancel()

		select {
		case err := <-done:
			return err
		case <-time.After(waitTimeout):
			t.Fatal("sentinel did not stop")
		}

		return nil
	}

	return address, stepCh, stop
}

// waitFor returns the first step matching match.
func waitFor(t *testing.T, steps <-chan alarm.Step, match func(alarm.Step) bool) alarm.Step {
	t.Helper()

	deadline := time.After(waitTimeout)

	for {
		select {
		case step := <-steps:
			if match(step) {
				return step
			}
		case <-deadline:
			t.Fatal("expected step never happened")
		}
	}
}

// TestSentinel_AlarmAndRemoteStop raises the alarm from a frame without green, silences
// it through the control client and checks that monitoring resumes.
func TestSentinel_AlarmAndRemoteStop(t *testing.T) {
	address, steps, stop := startSentinel(t)

	triggered := waitFor(t, steps, func(s alarm.Step) bool { return s.To == alarm.Triggering })
	require.Equal(t, []alarm.Effect{alarm.Trigger}, triggered.Effects)

	ctx := context.Background()

	client, err := common.Dial(ctx, address, common.WithCallTimeout(3*time.Second))
	require.NoError(t, err)

	defer func() { _ = client.Close() }()

	require.NoError(t, client.Ping(ctx))

	status, err := client.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, alarm.Triggering, status.State)
	require.NotEmpty(t, status.SessionID)
	require.True(t, status.Fallback)

	actor := &alarm.Actor{Hostname: "integration-host", Username: "integration-user"}

	_, err = client.Stop(ctx, actor)
	require.NoError(t, err)

	silenced := waitFor(t, steps, func(s alarm.Step) bool { return s.Event == alarm.StopCommand })
	require.Equal(t, alarm.Monitoring, silenced.To)
	require.Equal(t, []alarm.Effect{alarm.Silence, alarm.Rearm}, silenced.Effects)

	status, err = client.Status(ctx)
	require.NoError(t, err)
	require.Equal(t, actor, status.LastSilencedBy)
	require.GreaterOrEqual(t, status.Generation, uint64(2))

	require.NoError(t, stop())
}

// TestSentinel_DeniedDirectory checks that an unreadable source ends the run before capture.
func TestSentinel_DeniedDirectory(t *testing.T) {
	dir := t.TempDir()

	cfg := config.Default()
	cfg.Source = config.Source{Kind: config.SourceImages, Directory: filepath.Join(dir, "absent")}
	cfg.Control.ListenAddress = freeAddress(t)

	cfgPath := filepath.Join(dir, "green-sentinel.yaml")
	require.NoError(t, config.Save(cfgPath, cfg))

	err := sentinel.Run(context.Background(), &sentinel.Options{ConfigPath: cfgPath, Headless: true})
	require.ErrorIs(t, err, os.ErrNotExist)
}
