package storage

import (
	"context"
	"fmt"
	"sync"

	"github.com/kbukum/collector/component"
	"github.com/kbukum/collector/errors"
	"github.com/kbukum/collector/logger"
)

// Component wraps a Storage backend for lifecycle management. It also
// implements Storage itself so a collector can be wired to it before the
// registry starts it.
type Component struct {
	cfg         Config
	providerCfg any
	log         *logger.Logger

	mu      sync.RWMutex
	storage Storage
}

var (
	_ component.Component   = (*Component)(nil)
	_ component.Describable = (*Component)(nil)
	_ Storage               = (*Component)(nil)
)

// NewComponent creates a storage component for use with the component registry.
func NewComponent(cfg Config, providerCfg any, log *logger.Logger) *Component {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Component{
		cfg:         cfg,
		providerCfg: providerCfg,
		log:         log.WithComponent("storage"),
	}
}

// Storage returns the underlying backend, or nil if not started.
func (c *Component) Storage() Storage {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.storage
}

// Name returns the component name.
func (c *Component) Name() string { return "storage" }

// ProviderConfigFunc defers building the provider config until Start, when
// components registered earlier (such as a database) are running.
type ProviderConfigFunc func() (any, error)

// Start initializes the storage backend.
func (c *Component) Start(_ context.Context) error {
	if !c.cfg.Enabled {
		c.log.Info("storage component is disabled")
		return nil
	}

	if fn, ok := c.providerCfg.(ProviderConfigFunc); ok {
		pc, err := fn()
		if err != nil {
			return fmt.Errorf("storage start: %w", err)
		}
		c.providerCfg = pc
	}

	s, err := New(c.cfg, c.providerCfg, c.log)
	if err != nil {
		return fmt.Errorf("storage start: %w", err)
	}
	c.mu.Lock()
	c.storage = s
	c.mu.Unlock()
	return nil
}

// Stop closes the backend if it holds connections.
func (c *Component) Stop(_ context.Context) error {
	c.mu.Lock()
	s := c.storage
	c.storage = nil
	c.mu.Unlock()

	if cl, ok := s.(Closer); ok {
		if err := cl.Close(); err != nil {
			return fmt.Errorf("storage stop: %w", err)
		}
	}
	return nil
}

// InsertData delegates to the started backend.
func (c *Component) InsertData(ctx context.Context, table string, records []Record) ([]string, error) {
	s := c.Storage()
	if s == nil {
		return nil, errors.ServiceUnavailable("storage")
	}
	return s.InsertData(ctx, table, records)
}

// Health returns the current health status of the storage component.
func (c *Component) Health(ctx context.Context) component.Health {
	if !c.cfg.Enabled {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusHealthy,
			Message: "disabled",
		}
	}

	s := c.Storage()
	if s == nil {
		return component.Health{
			Name:    c.Name(),
			Status:  component.StatusUnhealthy,
			Message: "storage not initialized",
		}
	}

	if p, ok := s.(Pinger); ok {
		if err := p.Ping(ctx); err != nil {
			return component.Health{
				Name:    c.Name(),
				Status:  component.StatusUnhealthy,
				Message: fmt.Sprintf("health check failed: %v", err),
			}
		}
	}

	return component.Health{
		Name:   c.Name(),
		Status: component.StatusHealthy,
	}
}

// Describe returns infrastructure summary info for the bootstrap display.
func (c *Component) Describe() component.Description {
	details := fmt.Sprintf("provider=%s", c.cfg.Provider)
	if d, ok := c.providerCfg.(TargetDescriber); ok {
		if t := d.Target(); t != "" {
			details += " target=" + t
		}
	}
	return component.Description{
		Name:    "Storage",
		Type:    "storage",
		Details: details,
	}
}

// TargetDescriber is optionally implemented by provider configs to name
// where records go (bucket, brokers, dsn).
type TargetDescriber interface {
	Target() string
}
