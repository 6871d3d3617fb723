package extsort

import "log/slog"

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	fanIn            int
	scratchDir       string
	ioBytesPerSecond int64
	probeOpenFiles   bool
}

// Option configures a Sort call beyond the required Config fields.
type Option func(*options)

// WithLogger configures structured logging for the job. Pass nil to disable
// logging (the default).
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel is a convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithMetricsCollector configures a metrics collector for the job. Pass nil
// to disable metrics collection (the default).
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithFanIn overrides the per-round merge fan-in F (design default 128). A
// value <= 0 leaves the default in place.
func WithFanIn(f int) Option {
	return func(o *options) {
		if f > 0 {
			o.fanIn = f
		}
	}
}

// WithScratchDir overrides the directory used for temporary runs and
// intermediate merges. Defaults to a ".extsort-scratch" directory inside
// the output file's directory.
func WithScratchDir(dir string) Option {
	return func(o *options) {
		o.scratchDir = dir
	}
}

// WithIOBytesPerSecond throttles aggregate producer/merger I/O throughput.
// A value <= 0 (the default) leaves I/O unthrottled.
func WithIOBytesPerSecond(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioBytesPerSecond = bytesPerSec
	}
}

// WithOpenFileLimitProbing enables probing the OS open-file-descriptor
// limit at startup to clamp the fan-in F to a safe fraction of it, instead
// of trusting the configured or default F outright.
func WithOpenFileLimitProbing(enabled bool) Option {
	return func(o *options) {
		o.probeOpenFiles = enabled
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
		fanIn:            DefaultFanIn,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
