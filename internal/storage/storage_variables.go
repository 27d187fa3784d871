// /internal/storage/storage_variables.go
package storage

import (
	"fmt"
	"time"
)

// LoadVariable returns a guild variable's value and whether it exists.
func (s *Storage) LoadVariable(guildID, name string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return "", false, err
	}

	v, exists := record.Variables[name]
	if !exists {
		return "", false, nil
	}
	return v.Value, true, nil
}

// SaveVariable writes a guild variable.
func (s *Storage) SaveVariable(guildID, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	record.Variables[name] = Variable{Value: value, UpdatedAt: time.Now()}
	s.ds.Add(guildID, record)
	return nil
}

// DeleteVariable removes a guild variable.
func (s *Storage) DeleteVariable(guildID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	if _, exists := record.Variables[name]; !exists {
		return fmt.Errorf("variable '%s' not set for this guild", name)
	}

	delete(record.Variables, name)
	s.ds.Add(guildID, record)
	return nil
}

// ListVariables returns all variables of a guild.
func (s *Storage) ListVariables(guildID string) (map[string]Variable, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}

	out := make(map[string]Variable, len(record.Variables))
	for k, v := range record.Variables {
		out[k] = v
	}
	return out, nil
}
