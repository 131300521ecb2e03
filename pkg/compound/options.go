package compound

import "go.uber.org/zap"

type options struct {
	log         *zap.Logger
	metrics     *Metrics
	bus         *Bus
	finalizer   Finalizer
	progress    ProgressFunc
	concurrency int
}

// Option configures an Editor, Validator or Executor. Options that do not
// apply to a component are ignored by it.
type Option func(*options)

// WithLogger sets the logger.
func WithLogger(log *zap.Logger) Option {
	return func(o *options) { o.log = log }
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithBus sets the bus the Editor publishes children events on.
func WithBus(b *Bus) Option {
	return func(o *options) { o.bus = b }
}

// WithFinalizer sets the Executor's finalize step handler.
func WithFinalizer(f Finalizer) Option {
	return func(o *options) { o.finalizer = f }
}

// WithProgress sets the Executor's progress callback.
func WithProgress(fn ProgressFunc) Option {
	return func(o *options) { o.progress = fn }
}

// WithConcurrency lets the Executor apply up to n update steps at once.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

func buildOptions(opts []Option) options {
	o := options{concurrency: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return o
}
