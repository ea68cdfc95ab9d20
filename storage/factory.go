package storage

import (
	"fmt"
	"slices"
	"sync"

	"github.com/kbukum/collector/logger"
	"github.com/kbukum/collector/resilience"
)

// Factory creates a Storage from core config and provider-specific
// configuration. Each provider type-asserts providerCfg to its own config
// type.
type Factory func(cfg Config, providerCfg any, log *logger.Logger) (Storage, error)

var (
	factoriesMu sync.RWMutex
	factories   = make(map[string]Factory)
)

// RegisterFactory registers a storage backend factory for the given provider
// name. Backend packages call this from init so that importing them makes
// the provider available to New.
func RegisterFactory(name string, f Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[name] = f
}

// Providers lists the registered provider names.
func Providers() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// New creates the Storage selected by cfg.Provider. The provider package
// must be imported (e.g. _ "github.com/kbukum/collector/storage/sqldb") so
// its factory is registered.
func New(cfg Config, providerCfg any, log *logger.Logger) (Storage, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	l := log.WithComponent("storage")

	factoriesMu.RLock()
	f, ok := factories[cfg.Provider]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: provider %q not registered (have %v)", cfg.Provider, Providers())
	}

	l.Info("initializing storage", map[string]interface{}{"provider": cfg.Provider})
	s, err := f(cfg, providerCfg, l)
	if err != nil || !cfg.CircuitBreaker.Enabled {
		return s, err
	}

	cb := cfg.CircuitBreaker.CircuitBreakerConfig
	if cb.Name == "" {
		cb.Name = cfg.Provider
	}
	cb.OnStateChange = func(name string, from, to resilience.State) {
		l.Warn("storage circuit changed state", map[string]interface{}{
			"circuit": name, "from": from.String(), "to": to.String(),
		})
	}
	return NewGuarded(s, resilience.NewCircuitBreaker(cb)), nil
}
