package notifier

import (
	"fmt"
	"slices"
	"sync"
)

// Factory builds a Notifier from flat string configuration.
type Factory func(config map[string]string) (Notifier, error)

var (
	mu        sync.RWMutex
	factories = make(map[string]Factory)
)

// Register makes a notifier factory available by name.
// Adapter packages call it from init().
func Register(name string, factory Factory) {
	mu.Lock()
	defer mu.Unlock()

	if _, exists := factories[name]; exists {
		panic(fmt.Sprintf("notifier: duplicate registration for %q", name))
	}
	factories[name] = factory
}

// New creates a Notifier by name using the registered factory.
func New(name string, config map[string]string) (Notifier, error) {
	mu.RLock()
	factory, ok := factories[name]
	mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("notifier: unknown kind %q (available: %v)", name, Available())
	}
	return factory(config)
}

// Available returns the sorted names of all registered notifiers.
func Available() []string {
	mu.RLock()
	defer mu.RUnlock()

	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
