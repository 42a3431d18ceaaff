package logger

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
)

const (
	// fileLogMaxAge is how long rotated log files are kept.
	fileLogMaxAge = 7 * 24 * time.Hour
	// fileLogRotationTime is how often a new log file is started.
	fileLogRotationTime = 24 * time.Hour
)

// RotatingFilePattern turns "dir/name.log" into "dir/name-%Y-%m-%d.log".
func RotatingFilePattern(path string) string {
	ext := filepath.Ext(path)

	return strings.TrimSuffix(path, ext) + "-%Y-%m-%d" + ext
}

// OpenRotatingFile opens a daily rotated log file. path itself becomes a link to
// the current file where the platform allows it.
func OpenRotatingFile(path string) (io.WriteCloser, error) {
	w, err := rotatelogs.New(
		RotatingFilePattern(path),
		rotatelogs.WithLinkName(path),
		rotatelogs.WithMaxAge(fileLogMaxAge),
		rotatelogs.WithRotationTime(fileLogRotationTime),
	)
	if err != nil {
		return nil, fmt.Errorf("open log file %s: %w", path, err)
	}

	return w, nil
}
