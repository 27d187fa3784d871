// /internal/engine/variables.go
package engine

import (
	"fmt"
	"strconv"
	"sync"
)

type variableKey struct {
	guildID string
	name    string
}

// VariableStore holds per-guild named string variables with a write-through
// cache: writes hit the cache and the durable store synchronously, reads
// prefer the cache and fall back to the store on a miss. Values are always
// strings; numeric interpretation happens at use time, never in storage.
type VariableStore struct {
	store Store

	mu    sync.RWMutex
	cache map[variableKey]string
}

func NewVariableStore(store Store) *VariableStore {
	return &VariableStore{
		store: store,
		cache: make(map[variableKey]string),
	}
}

// Get returns a variable's value and whether it exists.
func (v *VariableStore) Get(guildID, name string) (string, bool) {
	key := variableKey{guildID: guildID, name: name}

	v.mu.RLock()
	value, ok := v.cache[key]
	v.mu.RUnlock()
	if ok {
		return value, true
	}

	value, exists, err := v.store.LoadVariable(guildID, name)
	if err != nil || !exists {
		return "", false
	}

	v.mu.Lock()
	v.cache[key] = value
	v.mu.Unlock()
	return value, true
}

// Set writes a variable to the cache and through to the store. The caller
// blocks until the value is persisted.
func (v *VariableStore) Set(guildID, name, value string) error {
	if err := v.store.SaveVariable(guildID, name, value); err != nil {
		return fmt.Errorf("save variable %s: %w", name, err)
	}
	v.mu.Lock()
	v.cache[variableKey{guildID: guildID, name: name}] = value
	v.mu.Unlock()
	return nil
}

// Increment adds 1 to a variable, treating an absent or non-numeric value as
// 0, and returns the stored result. The whole read-modify-write-persist runs
// under one lock so concurrent increments never lose updates.
func (v *VariableStore) Increment(guildID, name string) (string, error) {
	key := variableKey{guildID: guildID, name: name}

	v.mu.Lock()
	defer v.mu.Unlock()

	current, ok := v.cache[key]
	if !ok {
		stored, exists, err := v.store.LoadVariable(guildID, name)
		if err == nil && exists {
			current = stored
		}
	}

	n, err := strconv.Atoi(current)
	if err != nil {
		n = 0
	}
	next := strconv.Itoa(n + 1)

	if err := v.store.SaveVariable(guildID, name, next); err != nil {
		return "", fmt.Errorf("save variable %s: %w", name, err)
	}
	v.cache[key] = next
	return next, nil
}

// Forget evicts a variable from the cache, e.g. after an external delete.
func (v *VariableStore) Forget(guildID, name string) {
	v.mu.Lock()
	delete(v.cache, variableKey{guildID: guildID, name: name})
	v.mu.Unlock()
}
