// /internal/storage/storage.go
package storage

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"astrobot/datastore"
	"astrobot/internal/engine"
)

const usageHistoryLimit int = 500

// Storage persists per-guild command engine state in the JSON datastore. Each
// guild maps to one Record under its guild ID. The mutex serializes
// read-modify-write cycles so concurrent mutations never clobber each other.
type Storage struct {
	ds *datastore.DataStore

	mu sync.Mutex
}

// Variable is a stored guild variable with its last write time.
type Variable struct {
	Value     string    `json:"value"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CommandGroup names a set of roles required to use the commands assigned to
// the group.
type CommandGroup struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	RequiredRoles []string `json:"required_roles,omitempty"`
}

// Record is the full per-guild document.
type Record struct {
	Commands  []engine.Command        `json:"commands"`
	Variables map[string]Variable     `json:"variables"`
	Usage     []engine.UsageEvent     `json:"usage"`
	Groups    map[string]CommandGroup `json:"groups"`
}

func New(filePath string) (*Storage, error) {
	ds, err := datastore.New(filePath)
	if err != nil {
		return nil, err
	}
	return &Storage{ds: ds}, nil
}

func (s *Storage) Close() error {
	return s.ds.Close()
}

// Helper function to get or create a Record for a guild. Callers must hold
// s.mu across the full read-modify-write.
func (s *Storage) getOrCreateGuildRecord(guildID string) (*Record, error) {
	data, exists := s.ds.Get(guildID)
	if !exists {
		newRecord := &Record{
			Commands:  []engine.Command{},
			Variables: map[string]Variable{},
			Groups:    map[string]CommandGroup{},
		}
		s.ds.Add(guildID, newRecord)
		return newRecord, nil
	}

	jsonData, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("error marshalling data: %w", err)
	}

	var record Record
	err = json.Unmarshal(jsonData, &record)
	if err != nil {
		return nil, fmt.Errorf("error unmarshalling to *Record: %w", err)
	}

	if record.Variables == nil {
		record.Variables = map[string]Variable{}
	}
	if record.Groups == nil {
		record.Groups = map[string]CommandGroup{}
	}

	if len(record.Usage) > usageHistoryLimit {
		record.Usage = record.Usage[len(record.Usage)-usageHistoryLimit:]
	}

	return &record, nil
}
