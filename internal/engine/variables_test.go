package engine

import (
	"sync"
	"testing"
)

func TestVariableStoreGetSet(t *testing.T) {
	store := newMemStore()
	vars := NewVariableStore(store)

	if _, ok := vars.Get("g1", "missing"); ok {
		t.Error("missing variable reported as existing")
	}

	if err := vars.Set("g1", "color", "teal"); err != nil {
		t.Fatal(err)
	}
	if v, ok := vars.Get("g1", "color"); !ok || v != "teal" {
		t.Errorf("Get after Set = %q, %v", v, ok)
	}
	// Write went through to the store.
	if store.variables["g1/color"] != "teal" {
		t.Error("value not persisted")
	}

	// Guilds are isolated.
	if _, ok := vars.Get("g2", "color"); ok {
		t.Error("variable visible from another guild")
	}
}

func TestVariableStoreCacheFallback(t *testing.T) {
	store := newMemStore()
	store.variables["g1/seeded"] = "from-disk"
	vars := NewVariableStore(store)

	if v, ok := vars.Get("g1", "seeded"); !ok || v != "from-disk" {
		t.Errorf("store fallback = %q, %v", v, ok)
	}
}

func TestIncrement(t *testing.T) {
	store := newMemStore()
	vars := NewVariableStore(store)

	cases := []struct {
		name    string
		initial string
		seed    bool
		want    string
	}{
		{"unset starts at one", "", false, "1"},
		{"numeric increments", "41", true, "42"},
		{"non-numeric resets to one", "abc", true, "1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			name := "ctr_" + tc.name
			if tc.seed {
				if err := vars.Set("g1", name, tc.initial); err != nil {
					t.Fatal(err)
				}
			}
			got, err := vars.Increment("g1", name)
			if err != nil {
				t.Fatal(err)
			}
			if got != tc.want {
				t.Errorf("Increment = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestIncrementConcurrent(t *testing.T) {
	store := newMemStore()
	vars := NewVariableStore(store)

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := vars.Increment("g1", "hits"); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if v, _ := vars.Get("g1", "hits"); v != "100" {
		t.Errorf("concurrent increments lost updates: %q", v)
	}
}

func TestForget(t *testing.T) {
	store := newMemStore()
	vars := NewVariableStore(store)

	if err := vars.Set("g1", "tmp", "x"); err != nil {
		t.Fatal(err)
	}
	delete(store.variables, "g1/tmp")
	// Still cached.
	if _, ok := vars.Get("g1", "tmp"); !ok {
		t.Fatal("cache miss before Forget")
	}
	vars.Forget("g1", "tmp")
	if _, ok := vars.Get("g1", "tmp"); ok {
		t.Error("Forget did not evict the cache entry")
	}
}
