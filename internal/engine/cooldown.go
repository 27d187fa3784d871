// /internal/engine/cooldown.go
package engine

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// CooldownState classifies a cooldown check.
type CooldownState int

const (
	CooldownAllowed CooldownState = iota
	CooldownUser
	CooldownGlobal
)

// CooldownOutcome is the result of a check-and-record decision. Remaining is
// set when the command is still cooling down.
type CooldownOutcome struct {
	State     CooldownState
	Remaining time.Duration
}

func (o CooldownOutcome) Allowed() bool { return o.State == CooldownAllowed }

type userCooldownKey struct {
	guildID   string
	commandID string
	userID    string
}

type globalCooldownKey struct {
	guildID   string
	commandID string
}

// CooldownTracker keeps per-user and per-command invocation timestamps in two
// flat maps keyed by composite structs. State is in-memory only; entries are
// never the system of record and expire naturally against "now".
type CooldownTracker struct {
	mu      sync.Mutex
	perUser map[userCooldownKey]time.Time
	global  map[globalCooldownKey]time.Time
}

func NewCooldownTracker() *CooldownTracker {
	return &CooldownTracker{
		perUser: make(map[userCooldownKey]time.Time),
		global:  make(map[globalCooldownKey]time.Time),
	}
}

// CheckAndRecord answers whether the command may run now and, if so, records
// the invocation in the same critical section. Two concurrent invocations
// inside the window can therefore never both observe "allowed".
func (t *CooldownTracker) CheckAndRecord(cmd *Command, mc *MessageContext, now time.Time) CooldownOutcome {
	userWindow := time.Duration(cmd.Settings.UserCooldown) * time.Second
	globalWindow := time.Duration(cmd.Settings.GlobalCooldown) * time.Second
	if userWindow == 0 && globalWindow == 0 {
		return CooldownOutcome{State: CooldownAllowed}
	}

	uk := userCooldownKey{guildID: mc.GuildID, commandID: cmd.ID, userID: mc.UserID}
	gk := globalCooldownKey{guildID: mc.GuildID, commandID: cmd.ID}

	t.mu.Lock()
	defer t.mu.Unlock()

	if userWindow > 0 {
		if last, ok := t.perUser[uk]; ok {
			if elapsed := now.Sub(last); elapsed < userWindow {
				return CooldownOutcome{State: CooldownUser, Remaining: userWindow - elapsed}
			}
		}
	}
	if globalWindow > 0 {
		if last, ok := t.global[gk]; ok {
			if elapsed := now.Sub(last); elapsed < globalWindow {
				return CooldownOutcome{State: CooldownGlobal, Remaining: globalWindow - elapsed}
			}
		}
	}

	if userWindow > 0 {
		t.perUser[uk] = now
	}
	if globalWindow > 0 {
		t.global[gk] = now
	}
	return CooldownOutcome{State: CooldownAllowed}
}

// Sweep drops timestamps older than cutoff. Memory hygiene only; correctness
// never depends on it because reads compare elapsed time directly.
func (t *CooldownTracker) Sweep(cutoff time.Time) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	for k, ts := range t.perUser {
		if ts.Before(cutoff) {
			delete(t.perUser, k)
			removed++
		}
	}
	for k, ts := range t.global {
		if ts.Before(cutoff) {
			delete(t.global, k)
			removed++
		}
	}
	return removed
}

// RunCooldownSweeper clears stale cooldown entries every interval until ctx
// is done. Call from main.
func RunCooldownSweeper(ctx context.Context, t *CooldownTracker, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := t.Sweep(time.Now().Add(-maxAge)); n > 0 {
				log.Printf("[INFO] Swept %d expired cooldown entries", n)
			}
		}
	}
}

// FormatRemaining renders a remaining cooldown the way the notice shows it:
// "XmYs" above a minute, plain seconds otherwise.
func FormatRemaining(d time.Duration) string {
	secs := int(d.Seconds())
	if d > time.Duration(secs)*time.Second {
		secs++ // round up partial seconds
	}
	if secs > 60 {
		return fmt.Sprintf("%dm%ds", secs/60, secs%60)
	}
	return fmt.Sprintf("%ds", secs)
}
