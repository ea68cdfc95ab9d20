package collector

import (
	"context"
	"fmt"

	"github.com/kbukum/collector/storage"
)

// Hooks are the four stage callbacks a collector drives. W is the work item
// produced for a pass and R the record a consumer derives from it.
//
// Consume and Prepare run concurrently on worker goroutines; Condition and
// Produce run on the goroutine calling Run. All hooks receive a context that
// is canceled when the pass aborts.
type Hooks[W, R any] interface {
	// Condition reports whether another pass should run.
	Condition(ctx context.Context) (bool, error)
	// Produce returns every work item for the pass.
	Produce(ctx context.Context) ([]W, error)
	// Consume transforms one batch of at most Config.BatchSize items.
	Consume(ctx context.Context, batch []W) ([]R, error)
	// Prepare maps one transformed record to storage columns.
	Prepare(ctx context.Context, item R) (storage.Record, error)
}

// Funcs adapts plain functions to Hooks. A nil ConditionFunc never starts a
// pass and a nil ProduceFunc yields no work; nil ConsumeFunc and PrepareFunc
// fail their stage.
type Funcs[W, R any] struct {
	ConditionFunc func(ctx context.Context) (bool, error)
	ProduceFunc   func(ctx context.Context) ([]W, error)
	ConsumeFunc   func(ctx context.Context, batch []W) ([]R, error)
	PrepareFunc   func(ctx context.Context, item R) (storage.Record, error)
}

func (f Funcs[W, R]) Condition(ctx context.Context) (bool, error) {
	if f.ConditionFunc == nil {
		return false, nil
	}
	return f.ConditionFunc(ctx)
}

func (f Funcs[W, R]) Produce(ctx context.Context) ([]W, error) {
	if f.ProduceFunc == nil {
		return nil, nil
	}
	return f.ProduceFunc(ctx)
}

func (f Funcs[W, R]) Consume(ctx context.Context, batch []W) ([]R, error) {
	if f.ConsumeFunc == nil {
		return nil, fmt.Errorf("consume hook not set")
	}
	return f.ConsumeFunc(ctx, batch)
}

func (f Funcs[W, R]) Prepare(ctx context.Context, item R) (storage.Record, error) {
	if f.PrepareFunc == nil {
		return nil, fmt.Errorf("prepare hook not set")
	}
	return f.PrepareFunc(ctx, item)
}
