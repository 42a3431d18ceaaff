package logger

import (
	"context"
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// StdWriter returns a writer that forwards every written line to the ctx logger at
// debug level. The threshold is independent of the global level: passing DebugLevel
// makes the lines visible even when the rest of the application logs at info.
func StdWriter(ctx context.Context, threshold zapcore.Level) io.Writer {
	base := FromContext(ctx).Desugar().WithOptions(WithLevel(threshold))

	l, err := zap.NewStdLogAt(base, zapcore.DebugLevel)
	if err != nil {
		l = zap.NewStdLog(base)
	}

	return l.Writer()
}
