package storage

import (
	"context"

	"github.com/kbukum/collector/resilience"
)

// BreakerConfig guards a backend with a circuit breaker.
type BreakerConfig struct {
	Enabled                         bool `yaml:"enabled" mapstructure:"enabled" json:"enabled"`
	resilience.CircuitBreakerConfig `yaml:",inline" mapstructure:",squash"`
}

// Guarded fails InsertData fast with resilience.ErrCircuitOpen while the
// wrapped backend keeps failing. Failed batches are never re-sent; only
// transient failures count towards opening the circuit.
type Guarded struct {
	next    Storage
	breaker *resilience.CircuitBreaker
}

var (
	_ Storage = (*Guarded)(nil)
	_ Pinger  = (*Guarded)(nil)
	_ Closer  = (*Guarded)(nil)
)

// NewGuarded wraps next with breaker.
func NewGuarded(next Storage, breaker *resilience.CircuitBreaker) *Guarded {
	return &Guarded{next: next, breaker: breaker}
}

// InsertData calls the wrapped backend unless the circuit is open.
func (g *Guarded) InsertData(ctx context.Context, table string, records []Record) ([]string, error) {
	var ids []string
	err := g.breaker.Execute(func() error {
		var err error
		ids, err = g.next.InsertData(ctx, table, records)
		return err
	}, resilience.IsRetryable)
	return ids, err
}

// Breaker returns the circuit breaker.
func (g *Guarded) Breaker() *resilience.CircuitBreaker { return g.breaker }

// Ping delegates to the wrapped backend when it supports probing.
func (g *Guarded) Ping(ctx context.Context) error {
	if p, ok := g.next.(Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}

// Close delegates to the wrapped backend when it holds connections.
func (g *Guarded) Close() error {
	if c, ok := g.next.(Closer); ok {
		return c.Close()
	}
	return nil
}
