package engine

import (
	"sync"
	"testing"
	"time"
)

func cooldownCommand(user, global int) *Command {
	return &Command{
		ID:       "c1",
		Settings: CommandSettings{UserCooldown: user, GlobalCooldown: global},
	}
}

func TestCooldownZeroWindowsAlwaysAllowed(t *testing.T) {
	tracker := NewCooldownTracker()
	c := cooldownCommand(0, 0)
	mc := testMessage("g1", "u1", "!x")

	now := time.Now()
	for i := 0; i < 3; i++ {
		if !tracker.CheckAndRecord(c, mc, now).Allowed() {
			t.Fatal("zero-window command blocked")
		}
	}
}

func TestUserCooldown(t *testing.T) {
	tracker := NewCooldownTracker()
	c := cooldownCommand(60, 0)
	now := time.Now()

	if !tracker.CheckAndRecord(c, testMessage("g1", "u1", "!x"), now).Allowed() {
		t.Fatal("first invocation blocked")
	}

	outcome := tracker.CheckAndRecord(c, testMessage("g1", "u1", "!x"), now.Add(10*time.Second))
	if outcome.State != CooldownUser {
		t.Fatalf("state = %v, want user cooldown", outcome.State)
	}
	if outcome.Remaining != 50*time.Second {
		t.Errorf("remaining = %v, want 50s", outcome.Remaining)
	}

	// Another user is unaffected.
	if !tracker.CheckAndRecord(c, testMessage("g1", "u2", "!x"), now.Add(10*time.Second)).Allowed() {
		t.Error("per-user cooldown blocked a different user")
	}

	// After the window the same user may run again.
	if !tracker.CheckAndRecord(c, testMessage("g1", "u1", "!x"), now.Add(61*time.Second)).Allowed() {
		t.Error("user still blocked after window elapsed")
	}
}

func TestGlobalCooldown(t *testing.T) {
	tracker := NewCooldownTracker()
	c := cooldownCommand(0, 120)
	now := time.Now()

	if !tracker.CheckAndRecord(c, testMessage("g1", "u1", "!x"), now).Allowed() {
		t.Fatal("first invocation blocked")
	}

	outcome := tracker.CheckAndRecord(c, testMessage("g1", "u2", "!x"), now.Add(30*time.Second))
	if outcome.State != CooldownGlobal {
		t.Fatalf("state = %v, want global cooldown", outcome.State)
	}
	if outcome.Remaining != 90*time.Second {
		t.Errorf("remaining = %v, want 90s", outcome.Remaining)
	}

	// Other guilds are independent.
	if !tracker.CheckAndRecord(c, testMessage("g2", "u3", "!x"), now.Add(30*time.Second)).Allowed() {
		t.Error("global cooldown leaked across guilds")
	}
}

func TestBlockedCheckDoesNotExtendWindow(t *testing.T) {
	tracker := NewCooldownTracker()
	c := cooldownCommand(60, 0)
	now := time.Now()

	tracker.CheckAndRecord(c, testMessage("g1", "u1", "!x"), now)
	// Hammering during the window must not push the expiry out.
	for i := 1; i <= 5; i++ {
		tracker.CheckAndRecord(c, testMessage("g1", "u1", "!x"), now.Add(time.Duration(i)*10*time.Second))
	}
	if !tracker.CheckAndRecord(c, testMessage("g1", "u1", "!x"), now.Add(61*time.Second)).Allowed() {
		t.Error("blocked attempts extended the cooldown window")
	}
}

func TestCooldownConcurrentSingleWinner(t *testing.T) {
	tracker := NewCooldownTracker()
	c := cooldownCommand(60, 0)
	mc := testMessage("g1", "u1", "!x")
	now := time.Now()

	var wg sync.WaitGroup
	var mu sync.Mutex
	allowed := 0
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if tracker.CheckAndRecord(c, mc, now).Allowed() {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if allowed != 1 {
		t.Errorf("%d concurrent invocations allowed, want exactly 1", allowed)
	}
}

func TestSweep(t *testing.T) {
	tracker := NewCooldownTracker()
	c := cooldownCommand(60, 60)
	now := time.Now()

	tracker.CheckAndRecord(c, testMessage("g1", "u1", "!x"), now.Add(-2*time.Hour))
	tracker.CheckAndRecord(c, testMessage("g2", "u2", "!x"), now)

	removed := tracker.Sweep(now.Add(-time.Hour))
	if removed != 2 {
		t.Errorf("swept %d entries, want 2 (user and global for the old guild)", removed)
	}
	// The fresh entry still blocks.
	if tracker.CheckAndRecord(c, testMessage("g2", "u2", "!x"), now.Add(time.Second)).Allowed() {
		t.Error("sweep removed a live entry")
	}
}

func TestFormatRemaining(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{45 * time.Second, "45s"},
		{60 * time.Second, "60s"},
		{61 * time.Second, "1m1s"},
		{90 * time.Second, "1m30s"},
		{1500 * time.Millisecond, "2s"},
		{time.Hour, "60m0s"},
	}
	for _, tc := range cases {
		if got := FormatRemaining(tc.d); got != tc.want {
			t.Errorf("FormatRemaining(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
