package images

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoding.
	_ "image/jpeg" // Register JPEG decoding.
	_ "image/png"  // Register PNG decoding.
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/oshokin/green-sentinel/internal/domain/frame"
	"github.com/oshokin/green-sentinel/internal/logger"
	"github.com/oshokin/green-sentinel/internal/source"
)

var (
	// ErrPermissionDenied is returned when the directory cannot be read.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrNoImages is returned when the directory holds no supported image.
	ErrNoImages = errors.New("no images found")
	// ErrExhausted is returned by Next once every image has been delivered.
	ErrExhausted = errors.New("image sequence exhausted")
	// ErrClosed is returned by Next after Close.
	ErrClosed = errors.New("source closed")
)

//nolint:gochecknoglobals // Read-only lookup table.
var extensions = []string{".gif", ".jpeg", ".jpg", ".png"}

// Options configures the source.
type Options struct {
	// Directory holds the images.
	Directory string
	// FPS caps the delivery rate. Zero delivers as fast as frames are requested.
	FPS float64
	// Loop restarts the sequence when it is exhausted.
	Loop bool
}

// Source replays a directory. It is not safe for concurrent use.
type Source struct {
	// opts is the source configuration.
	opts Options
	// files are the image paths in delivery order.
	files []string
	// next is the index of the next file.
	next int
	// pacer spaces deliveries.
	pacer *source.Pacer
	// closed makes Next fail.
	closed bool
}

// CheckAccess verifies that the directory can be read.
func CheckAccess(_ context.Context, directory string) error {
	if _, err := os.ReadDir(directory); err != nil {
		if errors.Is(err, os.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, directory)
		}

		return fmt.Errorf("read directory %s: %w", directory, err)
	}

	return nil
}

// Open lists the directory and returns a source positioned at its first image.
func Open(ctx context.Context, opts Options) (*Source, error) {
	files, err := list(opts.Directory)
	if err != nil {
		return nil, err
	}

	logger.DebugKV(ctx, "Image source opened", "directory", opts.Directory, "images", len(files))

	return &Source{
		opts:  opts,
		files: files,
		pacer: source.NewPacer(opts.FPS),
	}, nil
}

func list(directory string) ([]string, error) {
	entries, err := os.ReadDir(directory)
	if err != nil {
		if errors.Is(err, os.ErrPermission) {
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, directory)
		}

		return nil, fmt.Errorf("read directory %s: %w", directory, err)
	}

	files := make([]string, 0, len(entries))

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		if !slices.Contains(extensions, strings.ToLower(filepath.Ext(entry.Name()))) {
			continue
		}

		files = append(files, filepath.Join(directory, entry.Name()))
	}

	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoImages, directory)
	}

	// ReadDir already sorts by name.
	return files, nil
}

// Next decodes the next image. Files that fail to decode are skipped with a warning;
// a sequence where every file fails ends with ErrNoImages.
//
//nolint:ireturn // Frames are consumed through the frame.Frame interface.
func (s *Source) Next(ctx context.Context) (frame.Frame, error) {
	failures := 0

	for {
		if s.closed {
			return nil, ErrClosed
		}

		if s.next == len(s.files) {
			if !s.opts.Loop {
				return nil, ErrExhausted
			}

			s.next = 0
		}

		if err := s.pacer.Wait(ctx); err != nil {
			return nil, err
		}

		path := s.files[s.next]
		s.next++

		img, err := decode(path)
		if err != nil {
			logger.WarnKV(ctx, "Skipping undecodable image", "path", path, "error", err)

			failures++
			if failures == len(s.files) {
				return nil, fmt.Errorf("%w: none of %d files decode", ErrNoImages, failures)
			}

			continue
		}

		return frame.FromImage(img), nil
	}
}

// Close stops the source.
func (s *Source) Close() error {
	s.closed = true

	return nil
}

func decode(path string) (image.Image, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open image: %w", err)
	}

	defer func() { _ = f.Close() }()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	return img, nil
}
