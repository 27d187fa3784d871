package engine

import "testing"

func TestRegistryLoadsOnceAndFilters(t *testing.T) {
	store := newMemStore()
	off := cmd("off", "!off", TriggerExact, 0)
	off.Enabled = false
	store.commands["g1"] = []Command{
		cmd("short", "!a", TriggerExact, 0),
		cmd("long", "!abc", TriggerExact, 0),
		off,
	}

	reg := NewGuildRegistry(store)

	snapshot, err := reg.Commands("g1")
	if err != nil {
		t.Fatal(err)
	}
	if got := ids(snapshot); !equalIDs(got, []string{"long", "short"}) {
		t.Errorf("snapshot = %v, want sorted enabled commands", got)
	}

	// Second read is served from the cache.
	if _, err := reg.Commands("g1"); err != nil {
		t.Fatal(err)
	}
	if store.loadCalls != 1 {
		t.Errorf("store loaded %d times, want 1", store.loadCalls)
	}
}

func TestRegistryReload(t *testing.T) {
	store := newMemStore()
	store.commands["g1"] = []Command{cmd("c1", "!one", TriggerExact, 0)}
	reg := NewGuildRegistry(store)

	if _, err := reg.Commands("g1"); err != nil {
		t.Fatal(err)
	}

	store.mu.Lock()
	store.commands["g1"] = append(store.commands["g1"], cmd("c2", "!two", TriggerExact, 0))
	store.mu.Unlock()

	// Cached snapshot does not see the new command yet.
	snapshot, _ := reg.Commands("g1")
	if len(snapshot) != 1 {
		t.Fatalf("cache returned %d commands", len(snapshot))
	}

	if _, err := reg.Reload("g1"); err != nil {
		t.Fatal(err)
	}
	snapshot, _ = reg.Commands("g1")
	if len(snapshot) != 2 {
		t.Errorf("reload returned %d commands, want 2", len(snapshot))
	}
}

func TestRegistryForget(t *testing.T) {
	store := newMemStore()
	store.commands["g1"] = []Command{cmd("c1", "!one", TriggerExact, 0)}
	reg := NewGuildRegistry(store)

	if _, err := reg.Commands("g1"); err != nil {
		t.Fatal(err)
	}
	reg.Forget("g1")
	if _, err := reg.Commands("g1"); err != nil {
		t.Fatal(err)
	}
	if store.loadCalls != 2 {
		t.Errorf("store loaded %d times, want 2 after Forget", store.loadCalls)
	}
}
