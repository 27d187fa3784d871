package engine

import (
	"testing"
	"time"
)

type fakeGroups struct {
	allowed map[string]bool
}

func (f *fakeGroups) Allows(groupID string, _ *MessageContext) bool {
	return f.allowed[groupID]
}

func gateMessage() *MessageContext {
	return &MessageContext{
		GuildID:   "g1",
		ChannelID: "chan-1",
		UserID:    "u1",
		UserRoles: []string{"role-a", "role-b"},
	}
}

func TestGateChannelAndRoleLists(t *testing.T) {
	cases := []struct {
		name     string
		settings CommandSettings
		want     bool
	}{
		{"no restrictions", CommandSettings{}, true},
		{"channel allowed", CommandSettings{ChannelAllow: []string{"chan-1"}}, true},
		{"channel not in allow list", CommandSettings{ChannelAllow: []string{"chan-9"}}, false},
		{"channel denied", CommandSettings{ChannelDeny: []string{"chan-1"}}, false},
		{"deny wins over allow", CommandSettings{ChannelAllow: []string{"chan-1"}, ChannelDeny: []string{"chan-1"}}, false},
		{"role allowed", CommandSettings{RoleAllow: []string{"role-b"}}, true},
		{"role not in allow list", CommandSettings{RoleAllow: []string{"role-z"}}, false},
		{"role denied", CommandSettings{RoleDeny: []string{"role-a"}}, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			gate := NewConditionGate(nil, NewVariableStore(newMemStore()))
			c := &Command{ID: "c1", Settings: tc.settings}
			if got := gate.Allows(c, gateMessage()); got != tc.want {
				t.Errorf("Allows() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGateGroupPermission(t *testing.T) {
	groups := &fakeGroups{allowed: map[string]bool{"mods": true}}
	gate := NewConditionGate(groups, NewVariableStore(newMemStore()))

	allowed := &Command{ID: "c1", GroupID: "mods"}
	if !gate.Allows(allowed, gateMessage()) {
		t.Error("allowed group rejected")
	}
	denied := &Command{ID: "c2", GroupID: "admins"}
	if gate.Allows(denied, gateMessage()) {
		t.Error("unknown group allowed")
	}
	ungrouped := &Command{ID: "c3"}
	if !gate.Allows(ungrouped, gateMessage()) {
		t.Error("ungrouped command rejected")
	}
}

func TestGateCustomCondition(t *testing.T) {
	store := newMemStore()
	store.variables["g1/level"] = "8"
	gate := NewConditionGate(nil, NewVariableStore(store))
	gate.now = func() time.Time {
		return time.Date(2025, 3, 10, 14, 30, 0, 0, time.UTC) // a Monday
	}

	cases := []struct {
		name      string
		condition string
		want      bool
	}{
		{"user match", "user_id == 'u1'", true},
		{"user mismatch", "user_id == 'someone'", false},
		{"weekday", "day_of_week == 'monday'", true},
		{"hour window", "hour >= 9 and hour < 17", true},
		{"variable numeric", "var_level > 5", true},
		{"missing variable is empty", "var_unset == ''", true},
		{"parse failure fails closed", "__import__('os')", false},
		{"eval failure fails closed", "unknown_name == 1", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := &Command{ID: "c1", Settings: CommandSettings{CustomCondition: tc.condition}}
			if got := gate.Allows(c, gateMessage()); got != tc.want {
				t.Errorf("condition %q = %v, want %v", tc.condition, got, tc.want)
			}
		})
	}
}

func TestGateConditionCaching(t *testing.T) {
	gate := NewConditionGate(nil, NewVariableStore(newMemStore()))
	c := &Command{ID: "c1", Settings: CommandSettings{CustomCondition: "1 == 1"}}
	mc := gateMessage()

	for i := 0; i < 3; i++ {
		if !gate.Allows(c, mc) {
			t.Fatal("condition rejected")
		}
	}
	gate.mu.RLock()
	cached := len(gate.cache)
	gate.mu.RUnlock()
	if cached != 1 {
		t.Errorf("cache has %d entries, want 1", cached)
	}
}
