package schema

import (
	"fmt"
	"sort"
	"sync"
)

var (
	registry   = make(map[EntityType]Entity)
	registryMu sync.RWMutex
)

// Register adds an entity schema to the registry.
// Panics if the entity type is already registered or a field name repeats;
// schemas are static configuration and a duplicate is a programming error.
func Register(e Entity) {
	registryMu.Lock()
	defer registryMu.Unlock()

	if _, exists := registry[e.Type]; exists {
		panic(fmt.Sprintf("entity already registered: %s", e.Type))
	}

	seen := make(map[string]bool, len(e.Fields))
	for _, f := range e.Fields {
		if seen[f.Name] {
			panic(fmt.Sprintf("duplicate field %q in entity %s", f.Name, e.Type))
		}
		seen[f.Name] = true
	}

	if e.NaturalKey != "" {
		if _, ok := e.FieldByName(e.NaturalKey); !ok {
			panic(fmt.Sprintf("natural key %q is not a field of entity %s", e.NaturalKey, e.Type))
		}
	}

	registry[e.Type] = e
}

// Get returns the schema for an entity type.
// Returns false if the entity type is unknown.
func Get(t EntityType) (Entity, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()

	e, ok := registry[t]
	return e, ok
}

// FieldsFor returns the importable fields for an entity type in declared
// order. An unknown entity type is a configuration error, not a data error.
func FieldsFor(t EntityType) ([]Field, error) {
	e, ok := Get(t)
	if !ok {
		return nil, fmt.Errorf("unknown entity type: %s", t)
	}
	return e.Fields, nil
}

// Types returns all registered entity types, sorted for consistent ordering.
func Types() []EntityType {
	registryMu.RLock()
	defer registryMu.RUnlock()

	types := make([]EntityType, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
