// /internal/storage/storage_commands.go
package storage

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"astrobot/internal/engine"
)

// LoadCommands returns every stored command of a guild, enabled or not.
func (s *Storage) LoadCommands(guildID string) ([]engine.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}
	return record.Commands, nil
}

// CreateCommand stores a new command, assigning its ID and creation time.
func (s *Storage) CreateCommand(cmd engine.Command) (engine.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(cmd.GuildID)
	if err != nil {
		return engine.Command{}, err
	}

	for _, existing := range record.Commands {
		if existing.Trigger == cmd.Trigger && existing.TriggerType == cmd.TriggerType {
			return engine.Command{}, fmt.Errorf("a %s command with trigger '%s' already exists", cmd.TriggerType, cmd.Trigger)
		}
	}

	cmd.ID = uuid.NewString()
	cmd.CreatedAt = time.Now()
	record.Commands = append(record.Commands, cmd)
	s.ds.Add(cmd.GuildID, record)
	return cmd, nil
}

// UpdateCommand replaces a stored command by ID, stamping the update time.
func (s *Storage) UpdateCommand(cmd engine.Command) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(cmd.GuildID)
	if err != nil {
		return err
	}

	for i, existing := range record.Commands {
		if existing.ID == cmd.ID {
			cmd.CreatedBy = existing.CreatedBy
			cmd.CreatedAt = existing.CreatedAt
			cmd.UpdatedAt = time.Now()
			record.Commands[i] = cmd
			s.ds.Add(cmd.GuildID, record)
			return nil
		}
	}
	return fmt.Errorf("command %s not found", cmd.ID)
}

// DeleteCommand removes a command by ID.
func (s *Storage) DeleteCommand(guildID, commandID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	for i, existing := range record.Commands {
		if existing.ID == commandID {
			record.Commands = append(record.Commands[:i], record.Commands[i+1:]...)
			s.ds.Add(guildID, record)
			return nil
		}
	}
	return fmt.Errorf("command %s not found", commandID)
}

// GetCommand fetches one command by ID.
func (s *Storage) GetCommand(guildID, commandID string) (*engine.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}

	for i := range record.Commands {
		if record.Commands[i].ID == commandID {
			cmd := record.Commands[i]
			return &cmd, nil
		}
	}
	return nil, fmt.Errorf("command %s not found", commandID)
}

// FindCommandByTrigger fetches one command by its trigger text.
func (s *Storage) FindCommandByTrigger(guildID, trigger string) (*engine.Command, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}

	for i := range record.Commands {
		if record.Commands[i].Trigger == trigger {
			cmd := record.Commands[i]
			return &cmd, nil
		}
	}
	return nil, fmt.Errorf("no command with trigger '%s'", trigger)
}

// SetCommandEnabled flips a command's enabled flag.
func (s *Storage) SetCommandEnabled(guildID, commandID string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return err
	}

	for i := range record.Commands {
		if record.Commands[i].ID == commandID {
			record.Commands[i].Enabled = enabled
			record.Commands[i].UpdatedAt = time.Now()
			s.ds.Add(guildID, record)
			return nil
		}
	}
	return fmt.Errorf("command %s not found", commandID)
}
