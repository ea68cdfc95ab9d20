package collector

import (
	"context"
	stderrors "errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/kbukum/collector/errors"
	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/observability"
)

// pass holds the state of one produce, consume and insert cycle.
type pass[W, R any] struct {
	c      *Collector[W, R]
	id     string
	ctx    context.Context
	cancel context.CancelFunc
	stats  passCounters
	group  *errgroup.Group

	aborted atomic.Bool
	mu      sync.Mutex
	errs    []error
}

func (c *Collector[W, R]) newPass(ctx context.Context) *pass[W, R] {
	id := uuid.NewString()
	ctx = logger.ContextWithPassID(ctx, id)
	pctx, cancel := context.WithCancel(ctx)
	g, gctx := errgroup.WithContext(pctx)
	return &pass[W, R]{c: c, id: id, ctx: gctx, cancel: cancel, group: g}
}

// runPass produces the pass's work, schedules workers until every item is
// acknowledged, then waits for the worker group to exit.
func (c *Collector[W, R]) runPass(ctx context.Context) (PassStats, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, observability.SpanPass, trace.WithAttributes(
		attribute.String(observability.AttrCollector, c.cfg.Name),
		attribute.String(observability.AttrTable, c.cfg.Table),
	))
	defer span.End()

	p := c.newPass(ctx)
	defer p.cancel()
	span.SetAttributes(attribute.String(observability.AttrPassID, p.id))

	c.emit(p.ctx, observability.EventLoopStart, nil)
	c.emit(p.ctx, observability.EventProducerStart, nil)

	items, err := p.produce()
	if err != nil {
		failure := errors.HookFailure("produce", err).WithDetail(logger.FieldPassID, p.id)
		p.stats.failures.Add(1)
		c.emitFailure(p.ctx, failure, "produce", 0)
		stats := p.finish(start)
		observability.SetSpanError(span, failure)
		return stats, failure
	}
	p.stats.produced.Add(int64(len(items)))
	c.producerQ.Push(items...)

	p.govern()
	waitErr := p.barrier(ctx)

	stats := p.finish(start)
	span.SetAttributes(
		attribute.Int64(observability.AttrProduced, stats.Produced),
		attribute.Int64(observability.AttrInserted, stats.Inserted),
		attribute.Int64(observability.AttrDropped, stats.Dropped),
	)

	var runErr error
	switch {
	case ctx.Err() != nil:
		runErr = ctx.Err()
	case p.aborted.Load():
		runErr = p.err()
	case waitErr != nil:
		runErr = waitErr
	}
	if runErr != nil {
		observability.SetSpanError(span, runErr)
	}
	return stats, runErr
}

func (p *pass[W, R]) produce() (items []W, err error) {
	defer func() {
		if r := recover(); r != nil {
			items, err = nil, errors.PanicError(r)
		}
	}()
	return p.c.hooks.Produce(p.ctx)
}

// govern spawns workers while any pushed item is unacknowledged. Workers
// are counted before their goroutine starts, so consumers plus inserters
// never exceed the ceiling.
func (p *pass[W, R]) govern() {
	c := p.c
	ceiling := int64(c.cfg.Ceiling)
	timer := time.NewTimer(c.cfg.PollInterval)
	defer timer.Stop()

	for {
		stopping := p.stopping()
		if stopping {
			p.dropQueued()
		}
		if c.producerQ.Unfinished()+c.insertQ.Unfinished() == 0 {
			return
		}

		if !stopping {
			consumers, inserters := c.consumers.Load(), c.inserters.Load()
			if active := consumers + inserters; active < ceiling {
				prodLen, insLen := c.producerQ.Len(), c.insertQ.Len()
				c.emit(p.ctx, observability.EventLoopUpdate, map[string]interface{}{
					observability.FieldActiveThreads: active,
					observability.FieldProducerQueue: prodLen,
					observability.FieldConsumers:     consumers,
					observability.FieldInsertQueue:   insLen,
					observability.FieldInserters:     inserters,
					observability.FieldCeiling:       ceiling,
				})
				switch {
				case int64(insLen) > inserters:
					c.inserters.Add(1)
					p.group.Go(p.insert)
					continue
				case int64(prodLen) > consumers:
					c.consumers.Add(1)
					p.group.Go(p.consume)
					continue
				}
			}
		}

		p.park(timer)
	}
}

// barrier confirms both queues are settled, then waits for every worker
// to exit. A worker error is the failure that aborted the pass.
func (p *pass[W, R]) barrier(ctx context.Context) error {
	joinErr := stderrors.Join(p.c.producerQ.Join(ctx), p.c.insertQ.Join(ctx))
	if err := p.group.Wait(); err != nil {
		return err
	}
	return joinErr
}

func (p *pass[W, R]) park(timer *time.Timer) {
	timer.Reset(p.c.cfg.PollInterval)
	select {
	case <-p.c.wake:
	case <-timer.C:
	}
}

// stopping reports whether the pass was aborted or its context canceled.
func (p *pass[W, R]) stopping() bool {
	return p.aborted.Load() || p.ctx.Err() != nil
}

// dropQueued acknowledges everything still queued without processing it.
func (p *pass[W, R]) dropQueued() {
	if items := p.c.producerQ.PopAll(); len(items) > 0 {
		p.stats.skipped.Add(int64(len(items)))
		p.c.producerQ.Done(len(items))
	}
	if items := p.c.insertQ.PopAll(); len(items) > 0 {
		p.stats.dropped.Add(int64(len(items)))
		p.c.insertQ.Done(len(items))
	}
}

// fail records a stage failure. Under the abort policy it cancels the pass.
// Errors caused by the pass's own cancellation are not recorded.
func (p *pass[W, R]) fail(err *errors.AppError, stage string, items int) {
	if cause := p.ctx.Err(); cause != nil && stderrors.Is(err, cause) {
		return
	}
	err = err.WithDetail(logger.FieldPassID, p.id).WithDetail(observability.FieldItems, items)

	p.mu.Lock()
	p.errs = append(p.errs, err)
	p.mu.Unlock()
	p.stats.failures.Add(1)
	p.c.emitFailure(p.ctx, err, stage, items)

	if p.c.cfg.FailurePolicy == FailureAbort {
		p.aborted.Store(true)
		p.cancel()
	}
	p.c.signal()
}

// exitErr is what a worker hands the group on exit: the failure that
// aborted the pass, or nil.
func (p *pass[W, R]) exitErr() error {
	if !p.aborted.Load() {
		return nil
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.errs) == 0 {
		return nil
	}
	return p.errs[0]
}

func (p *pass[W, R]) err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return stderrors.Join(p.errs...)
}

func (p *pass[W, R]) finish(start time.Time) PassStats {
	stats := p.stats.snapshot(p.id, time.Since(start))
	p.c.emit(p.ctx, observability.EventPassEnd, stats.Fields())
	return stats
}
