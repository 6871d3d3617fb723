package extsort

import (
	"context"
	"log/slog"
	"os"
	"time"
)

// Logger wraps slog.Logger with extsort-specific context, giving a
// consistent set of field names across run-generation and merge logging.
type Logger struct {
	*slog.Logger
}

// NewTextLogger creates a Logger that writes human-readable text logs to
// stderr at the given minimum level.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NewJSONLogger creates a Logger that writes JSON logs to stderr at the
// given minimum level.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

// NoopLogger creates a Logger that discards all output. This is the
// default unless a caller opts in via WithLogger or WithLogLevel.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.Level(1000)})
	return &Logger{Logger: slog.New(handler)}
}

// LogPhaseStart logs the start of a job phase (generation, merging).
func (l *Logger) LogPhaseStart(ctx context.Context, phase string, workers int) {
	l.InfoContext(ctx, "phase started", "phase", phase, "workers", workers)
}

// LogPhaseEnd logs the end of a job phase along with its wall-clock duration.
func (l *Logger) LogPhaseEnd(ctx context.Context, phase string, elapsed time.Duration, err error) {
	if err != nil {
		l.ErrorContext(ctx, "phase failed", "phase", phase, "elapsed_ms", elapsed.Milliseconds(), "error", err)
		return
	}
	l.InfoContext(ctx, "phase completed", "phase", phase, "elapsed_ms", elapsed.Milliseconds())
}

// LogRunProduced logs a single sorted run emitted by a Run Producer.
func (l *Logger) LogRunProduced(ctx context.Context, inputPath string, localIndex int, records int64) {
	l.DebugContext(ctx, "run produced", "input", inputPath, "local_index", localIndex, "records", records)
}

// LogMergeRound logs the start of one merge round.
func (l *Logger) LogMergeRound(ctx context.Context, round, runsIn, groups int) {
	l.InfoContext(ctx, "merge round started", "round", round, "runs", runsIn, "groups", groups)
}

// LogMergeGroup logs the completion of a single merge group within a round.
func (l *Logger) LogMergeGroup(ctx context.Context, round, groupIndex int, inputs int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "merge group failed", "round", round, "group", groupIndex, "inputs", inputs, "error", err)
		return
	}
	l.DebugContext(ctx, "merge group completed", "round", round, "group", groupIndex, "inputs", inputs)
}
