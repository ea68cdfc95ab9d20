package collector

import (
	"github.com/kbukum/collector/errors"
	"github.com/kbukum/collector/observability"
	"github.com/kbukum/collector/storage"
)

// prepared is a record converted for storage together with its encoded size.
type prepared struct {
	rec  storage.Record
	size int64
}

// insert drains the insert queue in buffers bounded by SizeCeiling. A record
// that would push a non-empty buffer past the ceiling starts the next
// buffer; a single record larger than the ceiling is flushed alone.
func (p *pass[W, R]) insert() error {
	c := p.c
	defer func() {
		c.inserters.Add(-1)
		c.signal()
	}()
	c.emit(p.ctx, observability.EventInserterStart, nil)

	var carry *prepared
	for {
		var (
			buf  []storage.Record
			size int64
		)
		if carry != nil {
			buf, size = append(buf, carry.rec), carry.size
			carry = nil
		}

		for size < c.cfg.SizeCeiling && !p.stopping() {
			item, ok := c.insertQ.TryPop()
			if !ok {
				break
			}
			rec, n, err := p.prepare(item)
			if err != nil {
				p.stats.dropped.Add(1)
				p.fail(errors.HookFailure("prepare", err), "prepare", 1)
				c.insertQ.Done(1)
				continue
			}
			if len(buf) > 0 && size+n > c.cfg.SizeCeiling {
				carry = &prepared{rec: rec, size: n}
				break
			}
			buf = append(buf, rec)
			size += n
		}

		if p.stopping() {
			p.discard(len(buf), carry)
			return p.exitErr()
		}
		if len(buf) == 0 {
			return nil
		}
		p.flush(buf)
	}
}

func (p *pass[W, R]) flush(buf []storage.Record) {
	c := p.c
	p.stats.flushes.Add(1)
	ids, err := p.store(buf)
	if err != nil {
		p.stats.dropped.Add(int64(len(buf)))
		p.fail(errors.StorageFailure(c.cfg.Table, len(buf), err), "insert", len(buf))
	} else {
		p.stats.inserted.Add(int64(len(buf)))
		c.emit(p.ctx, observability.EventInserterEnd, map[string]interface{}{
			observability.FieldInsertedCount: len(ids),
			observability.FieldTable:         c.cfg.Table,
		})
	}
	c.insertQ.Done(len(buf))
}

// discard drops a buffer that will not be flushed because the pass stopped.
func (p *pass[W, R]) discard(n int, carry *prepared) {
	if carry != nil {
		n++
	}
	if n == 0 {
		return
	}
	p.stats.dropped.Add(int64(n))
	p.c.insertQ.Done(n)
}

func (p *pass[W, R]) prepare(item R) (rec storage.Record, size int64, err error) {
	defer func() {
		if r := recover(); r != nil {
			rec, size, err = nil, 0, errors.PanicError(r)
		}
	}()
	rec, err = p.c.hooks.Prepare(p.ctx, item)
	if err != nil {
		return nil, 0, err
	}
	size, err = SizeOf(rec)
	if err != nil {
		return nil, 0, err
	}
	return rec, size, nil
}

func (p *pass[W, R]) store(buf []storage.Record) (ids []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			ids, err = nil, errors.PanicError(r)
		}
	}()
	return p.c.store.InsertData(p.ctx, p.c.cfg.Table, buf)
}
