package collector_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/kbukum/collector/collector"
	"github.com/kbukum/collector/observability"
	"github.com/kbukum/collector/storage"
	"github.com/kbukum/collector/storage/memory"
)

func ExampleCollector_Run() {
	store := memory.New()
	pending := []string{"alpha", "beta", "gamma", "delta", "epsilon"}

	c, err := collector.New(collector.Config{Name: "words", Table: "words", BatchSize: 2},
		collector.Funcs[string, string]{
			ConditionFunc: func(context.Context) (bool, error) { return len(pending) > 0, nil },
			ProduceFunc: func(context.Context) ([]string, error) {
				items := pending
				pending = nil
				return items, nil
			},
			ConsumeFunc: func(_ context.Context, batch []string) ([]string, error) {
				out := make([]string, len(batch))
				for i, w := range batch {
					out[i] = strings.ToUpper(w)
				}
				return out, nil
			},
			PrepareFunc: func(_ context.Context, w string) (storage.Record, error) {
				return storage.Record{"word": w}, nil
			},
		}, store, collector.WithSink(observability.NopSink{}))
	if err != nil {
		fmt.Println(err)
		return
	}

	if err := c.Run(context.Background()); err != nil {
		fmt.Println(err)
		return
	}
	s := c.Passes()[0]
	fmt.Printf("passes=%d batches=%d inserted=%d stored=%d\n", len(c.Passes()), s.Batches, s.Inserted, store.Len("words"))
	// Output: passes=1 batches=3 inserted=5 stored=5
}

func ExampleDataToList() {
	rows := []storage.Record{{"id": 7}, {"id": nil}, {"id": 9}}
	fmt.Println(collector.DataToList("id", rows))
	// Output: [7 9]
}
