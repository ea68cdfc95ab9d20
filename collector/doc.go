// Package collector runs repeatable batch-ETL passes.
//
// A pass calls Produce once to fetch work items, fans batches of them out
// to consumer workers that Consume them into records, and hands those
// records to inserter workers that Prepare each one and write buffers
// bounded by encoded size to a storage.Storage. A single governor goroutine
// sizes the worker pool: it never lets consumers plus inserters exceed
// Config.Ceiling, and it prefers inserters whenever the insert queue
// outgrows them. Passes repeat while Condition holds.
//
// # Usage
//
//	c, err := collector.New(collector.Config{Table: "tracks", Ceiling: 4},
//		collector.Funcs[int, Track]{
//			ConditionFunc: hasPending,
//			ProduceFunc:   claimIDs,
//			ConsumeFunc:   fetchTracks,
//			PrepareFunc:   toRow,
//		}, store)
//	if err != nil {
//		return err
//	}
//	return c.Run(ctx)
//
// # Failures
//
// Consume, Prepare and InsertData failures (and panics) become HOOK_FAILURE
// or STORAGE_FAILURE errors. With FailureAbort the first one cancels the
// pass and Run returns it; with FailureIsolate the batch or buffer is
// dropped and the pass goes on. Every drop is acknowledged so a pass always
// drains.
//
// # Events
//
// Lifecycle transitions are reported to an observability.Sink: loop_restart,
// loop_start, producer_start, loop_update, consumer_start, inserter_start,
// inserter_end, pass_end, failure and starter_end.
package collector
