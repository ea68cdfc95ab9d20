// Package redis provides a Redis client component with connection pooling,
// lifecycle management, and health checks.
//
// The client wraps go-redis with collector logging and adds the stream
// operations used by the redis storage backend: XAddBatch appends a whole
// flush in one pipeline round trip.
//
// # Quick Start
//
//	cfg := redis.Config{Enabled: true, Addr: "localhost:6379"}
//	comp := redis.NewComponent(cfg, log)
//	if err := comp.Start(ctx); err != nil { ... }
//	ids, err := comp.Client().XAddBatch(ctx, "collector:tracks", entries, 0)
package redis
