// /internal/storage/storage_groups.go
package storage

import (
	"fmt"

	"github.com/google/uuid"

	"astrobot/internal/engine"
)

// CreateGroup stores a new command group, assigning its ID.
func (s *Storage) CreateGroup(guildID, name string, requiredRoles []string) (CommandGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return CommandGroup{}, err
	}

	group := CommandGroup{
		ID:            uuid.NewString(),
		Name:          name,
		RequiredRoles: requiredRoles,
	}
	record.Groups[group.ID] = group
	s.ds.Add(guildID, record)
	return group, nil
}

// DeleteGroup removes a command group. Commands keep their group ID; the
// dangling reference fails closed until an admin clears or reassigns it.
func (s *Storage) DeleteGroup(guildID, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	if _, exists := record.Groups[groupID]; !exists {
		return fmt.Errorf("group %s not found", groupID)
	}
	delete(record.Groups, groupID)
	s.ds.Add(guildID, record)
	return nil
}

// ListGroups returns all command groups of a guild.
func (s *Storage) ListGroups(guildID string) (map[string]CommandGroup, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]CommandGroup, len(record.Groups))
	for k, v := range record.Groups {
		out[k] = v
	}
	return out, nil
}

// GroupGate adapts stored command groups to the engine's permission check.
// An unknown group fails closed; a group with no required roles passes.
type GroupGate struct {
	store *Storage
}

func NewGroupGate(store *Storage) *GroupGate {
	return &GroupGate{store: store}
}

func (g *GroupGate) Allows(groupID string, mc *engine.MessageContext) bool {
	groups, err := g.store.ListGroups(mc.GuildID)
	if err != nil {
		return false
	}
	group, exists := groups[groupID]
	if !exists {
		return false
	}
	if len(group.RequiredRoles) == 0 {
		return true
	}
	for _, role := range group.RequiredRoles {
		if mc.HasRole(role) {
			return true
		}
	}
	return false
}
