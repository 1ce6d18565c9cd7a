package connection

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNoConnection is returned when a registry lookup fails.
var ErrNoConnection = errors.New("no such connection")

// Registry is a set of named connections owned by the caller. The first
// connection added becomes the default.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]*Connection
	def   string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]*Connection)}
}

// Put adds or replaces a named connection.
func (r *Registry) Put(name string, c *Connection) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.conns[name] = c
	if r.def == "" {
		r.def = name
	}
}

// SetDefault selects the default connection.
func (r *Registry) SetDefault(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.conns[name]; !ok {
		return fmt.Errorf("%w: %s", ErrNoConnection, name)
	}
	r.def = name
	return nil
}

// Get returns the named connection.
func (r *Registry) Get(name string) (*Connection, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.conns[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoConnection, name)
	}
	return c, nil
}

// Default returns the default connection.
func (r *Registry) Default() (*Connection, error) {
	r.mu.RLock()
	name := r.def
	r.mu.RUnlock()

	if name == "" {
		return nil, fmt.Errorf("%w: registry is empty", ErrNoConnection)
	}
	return r.Get(name)
}

// Names returns the sorted connection names.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Close closes every connection and empties the registry.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var errs []error
	for name, c := range r.conns {
		if err := c.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", name, err))
		}
	}
	r.conns = make(map[string]*Connection)
	r.def = ""
	return errors.Join(errs...)
}
