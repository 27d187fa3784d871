// /internal/engine/matcher.go
package engine

import (
	"log"
	"regexp"
	"sort"
	"strings"
)

// MatchTriggers returns the candidate commands for the given message content
// in execution order. Matching is tiered: if any exact trigger matches, only
// exact candidates are considered; otherwise startswith, then contains, then
// regex. Within a tier, candidates run longest trigger first, ties broken by
// priority descending; the input slice is expected in that order already
// (the registry sorts snapshots on load), so tier filtering preserves it.
func MatchTriggers(cmds []Command, content string) []Command {
	trimmed := strings.TrimSpace(content)
	lower := strings.ToLower(trimmed)

	var exact, starts, contains, re []Command
	for _, cmd := range cmds {
		if !cmd.Enabled {
			continue
		}
		switch cmd.TriggerType {
		case TriggerExact:
			if trimmed == cmd.Trigger {
				exact = append(exact, cmd)
			}
		case TriggerStartsWith:
			// A bare trigger with no trailing argument does not match:
			// startswith commands take arguments.
			if strings.HasPrefix(lower, strings.ToLower(cmd.Trigger)+" ") {
				starts = append(starts, cmd)
			}
		case TriggerContains:
			if strings.Contains(lower, strings.ToLower(cmd.Trigger)) {
				contains = append(contains, cmd)
			}
		case TriggerRegex:
			pattern, err := regexp.Compile("(?i)" + cmd.Trigger)
			if err != nil {
				log.Printf("[WARN] Invalid regex trigger for command %s: %v", cmd.ID, err)
				continue
			}
			if pattern.MatchString(trimmed) {
				re = append(re, cmd)
			}
		}
	}

	switch {
	case len(exact) > 0:
		return exact
	case len(starts) > 0:
		return starts
	case len(contains) > 0:
		return contains
	default:
		return re
	}
}

// sortCommands orders a snapshot by (-trigger length, -priority), producing a
// deterministic total order for a fixed command set.
func sortCommands(cmds []Command) {
	sort.SliceStable(cmds, func(i, j int) bool {
		if len(cmds[i].Trigger) != len(cmds[j].Trigger) {
			return len(cmds[i].Trigger) > len(cmds[j].Trigger)
		}
		return cmds[i].Priority > cmds[j].Priority
	})
}
