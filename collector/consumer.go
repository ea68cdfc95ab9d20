package collector

import (
	"github.com/kbukum/collector/errors"
	"github.com/kbukum/collector/observability"
)

// consume transforms batches until the producer queue is empty.
func (p *pass[W, R]) consume() error {
	c := p.c
	defer func() {
		c.consumers.Add(-1)
		c.signal()
	}()
	c.emit(p.ctx, observability.EventConsumerStart, nil)

	for !p.stopping() {
		batch := c.producerQ.PopN(c.cfg.BatchSize)
		if len(batch) == 0 {
			return p.exitErr()
		}
		p.stats.batches.Add(1)

		out, err := p.transform(batch)
		if err != nil {
			p.stats.skipped.Add(int64(len(batch)))
			p.fail(errors.HookFailure("consume", err), "consume", len(batch))
		} else if len(out) > 0 {
			p.stats.transformed.Add(int64(len(out)))
			c.insertQ.Push(out...)
		}
		// Results are queued before the batch is acknowledged so the
		// governor never sees both queues settled mid hand-off.
		c.producerQ.Done(len(batch))
	}
	return p.exitErr()
}

func (p *pass[W, R]) transform(batch []W) (out []R, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errors.PanicError(r)
		}
	}()
	return p.c.hooks.Consume(p.ctx, batch)
}
