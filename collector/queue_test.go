package collector

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestQueueFIFO(t *testing.T) {
	q := NewQueue[int](nil)
	q.Push(1, 2, 3)

	for want := 1; want <= 3; want++ {
		got, ok := q.TryPop()
		if !ok || got != want {
			t.Fatalf("TryPop() = %d, %v; want %d, true", got, ok, want)
		}
	}
	if _, ok := q.TryPop(); ok {
		t.Fatal("TryPop() on empty queue should report false")
	}
	if q.Unfinished() != 3 {
		t.Errorf("Unfinished() = %d, want 3 before Done", q.Unfinished())
	}
}

func TestQueuePopNFormsBatches(t *testing.T) {
	q := NewQueue[int](nil)
	q.Push(seq(120)...)

	var sizes []int
	for {
		batch := q.PopN(50)
		if len(batch) == 0 {
			break
		}
		sizes = append(sizes, len(batch))
	}
	want := []int{50, 50, 20}
	if len(sizes) != len(want) {
		t.Fatalf("batch sizes = %v, want %v", sizes, want)
	}
	for i := range want {
		if sizes[i] != want[i] {
			t.Errorf("batch %d size = %d, want %d", i, sizes[i], want[i])
		}
	}
	if q.Len() != 0 {
		t.Errorf("Len() = %d, want 0", q.Len())
	}
}

func TestQueuePopNEdgeCases(t *testing.T) {
	q := NewQueue[string](nil)
	if got := q.PopN(5); got != nil {
		t.Errorf("PopN on empty queue = %v, want nil", got)
	}
	q.Push("a")
	if got := q.PopN(0); got != nil {
		t.Errorf("PopN(0) = %v, want nil", got)
	}
	if got := q.PopN(5); len(got) != 1 || got[0] != "a" {
		t.Errorf("PopN(5) = %v, want [a]", got)
	}
}

func TestQueueConcurrentPopNIsDisjoint(t *testing.T) {
	const total = 1000
	q := NewQueue[int](nil)
	q.Push(seq(total)...)

	var (
		mu   sync.Mutex
		seen = make(map[int]int)
		wg   sync.WaitGroup
	)
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				batch := q.PopN(7)
				if len(batch) == 0 {
					return
				}
				mu.Lock()
				for _, v := range batch {
					seen[v]++
				}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != total {
		t.Fatalf("popped %d distinct items, want %d", len(seen), total)
	}
	for v, n := range seen {
		if n != 1 {
			t.Fatalf("item %d popped %d times", v, n)
		}
	}
}

func TestQueueJoinWaitsForAcknowledgement(t *testing.T) {
	q := NewQueue[int](nil)
	if err := q.Join(context.Background()); err != nil {
		t.Fatalf("Join on fresh queue: %v", err)
	}

	q.Push(1, 2)
	q.PopAll()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if err := q.Join(ctx); err != context.DeadlineExceeded {
		t.Fatalf("Join with unacknowledged items = %v, want deadline exceeded", err)
	}

	done := make(chan error, 1)
	go func() { done <- q.Join(context.Background()) }()
	q.Done(1)
	q.Done(1)

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Join: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Join did not return after all items were acknowledged")
	}
}

func TestQueueDoneOverAcknowledgePanics(t *testing.T) {
	q := NewQueue[int](nil)
	q.Push(1)

	defer func() {
		if recover() == nil {
			t.Fatal("expected panic when acknowledging more than pushed")
		}
	}()
	q.Done(2)
}

func TestQueueNotify(t *testing.T) {
	var calls atomic.Int64
	q := NewQueue[int](func() { calls.Add(1) })

	q.Push()
	q.Push(1, 2)
	q.TryPop()
	q.Done(1)
	q.Done(0)

	if got := calls.Load(); got != 2 {
		t.Errorf("notify calls = %d, want 2 (one push, one ack)", got)
	}
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
