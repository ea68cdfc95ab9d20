package collector

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/kbukum/collector/errors"
	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/observability"
	"github.com/kbukum/collector/storage"
)

// Collector drives repeated produce, consume and insert passes. Its queues
// and worker counters live for the collector's lifetime and are reused by
// every pass.
type Collector[W, R any] struct {
	cfg   Config
	hooks Hooks[W, R]
	store storage.Storage
	sink  observability.Sink
	log   *logger.Logger

	producerQ *Queue[W]
	insertQ   *Queue[R]
	consumers atomic.Int64
	inserters atomic.Int64
	wake      chan struct{}

	running atomic.Bool

	mu     sync.Mutex
	passes []PassStats
}

// Option configures a Collector.
type Option func(*options)

type options struct {
	sink observability.Sink
	log  *logger.Logger
}

// WithSink replaces the default log sink. Use observability.MultiSink to
// keep logging alongside other sinks.
func WithSink(s observability.Sink) Option {
	return func(o *options) { o.sink = s }
}

// WithLogger sets the logger used by the default log sink.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// New validates cfg and creates a collector over hooks and store.
func New[W, R any](cfg Config, hooks Hooks[W, R], store storage.Storage, opts ...Option) (*Collector[W, R], error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if hooks == nil {
		return nil, errors.MissingField("hooks")
	}
	if store == nil {
		return nil, errors.MissingField("storage")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.GetGlobalLogger()
	}
	if o.sink == nil {
		o.sink = observability.NewLogSink(o.log)
	}

	c := &Collector[W, R]{
		cfg:   cfg,
		hooks: hooks,
		store: store,
		sink:  o.sink,
		log:   o.log.WithComponent("collector").WithFields(logger.Fields(logger.FieldCollector, cfg.Name)),
		wake:  make(chan struct{}, 1),
	}
	c.producerQ = NewQueue[W](c.signal)
	c.insertQ = NewQueue[R](c.signal)
	return c, nil
}

// Config returns the collector's effective configuration.
func (c *Collector[W, R]) Config() Config { return c.cfg }

// Run executes passes while Condition holds. It returns nil once Condition
// reports false, the joined failures of a pass that aborted, a Produce or
// Condition failure, or ctx.Err() after cancellation.
//
// Run is not re-entrant; a concurrent call fails with a CONFLICT error.
func (c *Collector[W, R]) Run(ctx context.Context) error {
	if !c.running.CompareAndSwap(false, true) {
		return errors.Conflict(fmt.Sprintf("collector %s is already running", c.cfg.Name)).
			WithDetail(logger.FieldCollector, c.cfg.Name)
	}
	defer c.running.Store(false)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		ok, err := c.condition(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			failure := errors.HookFailure("condition", err)
			c.emitFailure(ctx, failure, "condition", 0)
			return failure
		}
		if !ok {
			c.emit(ctx, observability.EventStarterEnd, nil)
			return nil
		}

		c.emit(ctx, observability.EventLoopRestart, nil)
		stats, err := c.runPass(ctx)
		c.record(stats)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.log.Error("Collector stopped", logger.MergeWithError(logger.Fields(logger.FieldPassID, stats.PassID), err))
			return err
		}
	}
}

// Passes returns the stats of every completed pass, oldest first.
func (c *Collector[W, R]) Passes() []PassStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]PassStats, len(c.passes))
	copy(out, c.passes)
	return out
}

// Running reports whether Run is in progress.
func (c *Collector[W, R]) Running() bool { return c.running.Load() }

func (c *Collector[W, R]) record(s PassStats) {
	c.mu.Lock()
	c.passes = append(c.passes, s)
	c.mu.Unlock()
}

func (c *Collector[W, R]) condition(ctx context.Context) (ok bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			ok, err = false, errors.PanicError(r)
		}
	}()
	return c.hooks.Condition(ctx)
}

// signal wakes the governor without blocking.
func (c *Collector[W, R]) signal() {
	select {
	case c.wake <- struct{}{}:
	default:
	}
}

func (c *Collector[W, R]) emit(ctx context.Context, event observability.Event, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{}, 1)
	}
	fields[observability.FieldCollector] = c.cfg.Name
	c.sink.Emit(ctx, event, fields)
}

func (c *Collector[W, R]) emitFailure(ctx context.Context, err *errors.AppError, stage string, items int) {
	c.emit(ctx, observability.EventFailure, map[string]interface{}{
		observability.FieldStage: stage,
		observability.FieldCode:  string(err.Code),
		observability.FieldItems: items,
		observability.FieldError: err.Error(),
	})
}
