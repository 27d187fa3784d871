// /internal/storage/storage_usage.go
package storage

import (
	"github.com/google/uuid"

	"astrobot/internal/engine"
)

// AppendUsageEvent records one command invocation, assigning the event ID.
// History is capped; the oldest entries fall off.
func (s *Storage) AppendUsageEvent(ev engine.UsageEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(ev.GuildID)
	if err != nil {
		return err
	}

	if ev.ID == "" {
		ev.ID = uuid.NewString()
	}
	record.Usage = append(record.Usage, ev)
	if len(record.Usage) > usageHistoryLimit {
		record.Usage = record.Usage[len(record.Usage)-usageHistoryLimit:]
	}
	s.ds.Add(ev.GuildID, record)
	return nil
}

// UsageCount returns how many recorded invocations a command has.
func (s *Storage) UsageCount(guildID, commandID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return 0, err
	}

	count := 0
	for _, ev := range record.Usage {
		if ev.CommandID == commandID {
			count++
		}
	}
	return count, nil
}

// RecentUsage returns the newest recorded invocations for a guild, newest
// last, capped at limit.
func (s *Storage) RecentUsage(guildID string, limit int) ([]engine.UsageEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, err := s.getOrCreateGuildRecord(guildID)
	if err != nil {
		return nil, err
	}

	usage := record.Usage
	if limit > 0 && len(usage) > limit {
		usage = usage[len(usage)-limit:]
	}
	out := make([]engine.UsageEvent, len(usage))
	copy(out, usage)
	return out, nil
}
