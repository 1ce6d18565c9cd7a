package schema

import (
	"sort"
	"sync"
)

// Schema is the set of layouts known to a connection.
// It is loaded once and read mostly afterwards.
type Schema struct {
	mu      sync.RWMutex
	layouts map[string]*Layout
}

// New creates a schema holding layouts.
func New(layouts ...*Layout) *Schema {
	s := &Schema{layouts: make(map[string]*Layout, len(layouts))}
	for _, l := range layouts {
		s.layouts[l.Name()] = l
	}
	return s
}

// Put adds or replaces a layout.
func (s *Schema) Put(l *Layout) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.layouts[l.Name()] = l
}

// Remove forgets the named layout.
func (s *Schema) Remove(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.layouts, name)
}

// Layout returns the named layout.
func (s *Schema) Layout(name string) (*Layout, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, ok := s.layouts[name]
	return l, ok
}

// Names returns the sorted layout names.
func (s *Schema) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.layouts))
	for name := range s.layouts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
