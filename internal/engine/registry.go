// /internal/engine/registry.go
package engine

import (
	"fmt"
	"sync"
)

// GuildRegistry caches the enabled commands of each guild as an immutable,
// pre-sorted snapshot. Snapshots are a pure projection of the store: a reload
// rebuilds the slice from scratch and swaps it in, so in-flight matches keep
// working against the list they already captured and never see a torn update.
type GuildRegistry struct {
	store Store

	mu     sync.RWMutex
	guilds map[string][]Command
}

func NewGuildRegistry(store Store) *GuildRegistry {
	return &GuildRegistry{
		store:  store,
		guilds: make(map[string][]Command),
	}
}

// Commands returns the snapshot for a guild, loading it from the store on
// first use. Callers must treat the returned slice as read-only.
func (r *GuildRegistry) Commands(guildID string) ([]Command, error) {
	r.mu.RLock()
	snapshot, ok := r.guilds[guildID]
	r.mu.RUnlock()
	if ok {
		return snapshot, nil
	}
	return r.Reload(guildID)
}

// Reload rebuilds a guild's snapshot from the store and swaps it in.
func (r *GuildRegistry) Reload(guildID string) ([]Command, error) {
	cmds, err := r.store.LoadCommands(guildID)
	if err != nil {
		return nil, fmt.Errorf("reload commands for guild %s: %w", guildID, err)
	}

	snapshot := make([]Command, 0, len(cmds))
	for _, cmd := range cmds {
		if cmd.Enabled {
			snapshot = append(snapshot, cmd)
		}
	}
	sortCommands(snapshot)

	r.mu.Lock()
	r.guilds[guildID] = snapshot
	r.mu.Unlock()
	return snapshot, nil
}

// Forget drops a guild's snapshot; the next lookup reloads from the store.
func (r *GuildRegistry) Forget(guildID string) {
	r.mu.Lock()
	delete(r.guilds, guildID)
	r.mu.Unlock()
}
