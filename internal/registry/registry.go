// Package registry maps a target's strategy key to the extraction
// strategy set used for it. Most targets run the default heuristics;
// a stubborn site can register a hand-tuned set under a key referenced
// from its target config.
package registry

import (
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/sells-group/facwatch/internal/extract"
)

// Factory builds a fresh strategy set for one target run.
type Factory func() []extract.Strategy

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs a strategy-set factory under a key. Later
// registrations for the same key replace earlier ones.
func Register(key string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[key] = f
}

// Resolve returns the strategy set for a key. An empty key means the
// default heuristics; an unknown key also falls back to them, with a
// warning, so a typo in target config degrades rather than fails.
func Resolve(key string) []extract.Strategy {
	if key == "" {
		return extract.DefaultStrategies()
	}

	mu.RLock()
	f, ok := factories[key]
	mu.RUnlock()
	if !ok {
		zap.L().Warn("unknown strategy key, using defaults",
			zap.String("strategy_key", key))
		return extract.DefaultStrategies()
	}
	return f()
}

// Keys lists the registered strategy keys, sorted.
func Keys() []string {
	mu.RLock()
	defer mu.RUnlock()
	keys := make([]string, 0, len(factories))
	for k := range factories {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
