package storage

import (
	"path/filepath"
	"testing"

	"astrobot/internal/engine"
)

func newTestStorage(t *testing.T) (*Storage, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "datastore.json")
	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { s.Close() })
	return s, path
}

func TestCommandCRUD(t *testing.T) {
	s, _ := newTestStorage(t)

	created, err := s.CreateCommand(engine.Command{
		GuildID:     "g1",
		Trigger:     "!ping",
		TriggerType: engine.TriggerExact,
		Template:    "pong",
		Enabled:     true,
		CreatedBy:   "u1",
	})
	if err != nil {
		t.Fatal(err)
	}
	if created.ID == "" || created.CreatedAt.IsZero() {
		t.Errorf("create did not stamp ID/time: %+v", created)
	}

	// Duplicate trigger of the same type is rejected.
	if _, err := s.CreateCommand(engine.Command{GuildID: "g1", Trigger: "!ping", TriggerType: engine.TriggerExact}); err == nil {
		t.Error("duplicate trigger accepted")
	}

	created.Template = "PONG"
	if err := s.UpdateCommand(created); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetCommand("g1", created.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Template != "PONG" || got.UpdatedAt.IsZero() {
		t.Errorf("update not applied: %+v", got)
	}

	if err := s.SetCommandEnabled("g1", created.ID, false); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetCommand("g1", created.ID)
	if got.Enabled {
		t.Error("disable not applied")
	}

	byTrigger, err := s.FindCommandByTrigger("g1", "!ping")
	if err != nil || byTrigger.ID != created.ID {
		t.Errorf("FindCommandByTrigger = %+v, %v", byTrigger, err)
	}

	if err := s.DeleteCommand("g1", created.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetCommand("g1", created.ID); err == nil {
		t.Error("command still present after delete")
	}
}

func TestCommandsPersistAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "datastore.json")

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateCommand(engine.Command{
		GuildID: "g1", Trigger: "!hi", TriggerType: engine.TriggerExact, Template: "hello", Enabled: true,
	}); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveVariable("g1", "mood", "good"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	cmds, err := reopened.LoadCommands("g1")
	if err != nil {
		t.Fatal(err)
	}
	if len(cmds) != 1 || cmds[0].Trigger != "!hi" {
		t.Errorf("reloaded commands = %+v", cmds)
	}
	if v, ok, _ := reopened.LoadVariable("g1", "mood"); !ok || v != "good" {
		t.Errorf("reloaded variable = %q, %v", v, ok)
	}
}

func TestVariables(t *testing.T) {
	s, _ := newTestStorage(t)

	if _, ok, err := s.LoadVariable("g1", "missing"); err != nil || ok {
		t.Errorf("missing variable = %v, %v", ok, err)
	}
	if err := s.SaveVariable("g1", "x", "1"); err != nil {
		t.Fatal(err)
	}
	vars, err := s.ListVariables("g1")
	if err != nil || len(vars) != 1 {
		t.Fatalf("ListVariables = %+v, %v", vars, err)
	}
	if vars["x"].UpdatedAt.IsZero() {
		t.Error("variable missing update time")
	}
	if err := s.DeleteVariable("g1", "x"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteVariable("g1", "x"); err == nil {
		t.Error("deleting absent variable succeeded")
	}
}

func TestUsageEvents(t *testing.T) {
	s, _ := newTestStorage(t)

	for i := 0; i < 3; i++ {
		if err := s.AppendUsageEvent(engine.UsageEvent{GuildID: "g1", CommandID: "c1", UserID: "u1"}); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AppendUsageEvent(engine.UsageEvent{GuildID: "g1", CommandID: "c2", UserID: "u1"}); err != nil {
		t.Fatal(err)
	}

	count, err := s.UsageCount("g1", "c1")
	if err != nil || count != 3 {
		t.Errorf("UsageCount = %d, %v", count, err)
	}

	recent, err := s.RecentUsage("g1", 2)
	if err != nil || len(recent) != 2 {
		t.Fatalf("RecentUsage = %+v, %v", recent, err)
	}
	if recent[1].CommandID != "c2" {
		t.Errorf("newest event last, got %+v", recent)
	}
	if recent[0].ID == "" {
		t.Error("usage event missing assigned ID")
	}
}

func TestGroupGate(t *testing.T) {
	s, _ := newTestStorage(t)
	gate := NewGroupGate(s)

	open, err := s.CreateGroup("g1", "everyone", nil)
	if err != nil {
		t.Fatal(err)
	}
	mods, err := s.CreateGroup("g1", "mods", []string{"role-mod"})
	if err != nil {
		t.Fatal(err)
	}

	member := &engine.MessageContext{GuildID: "g1", UserID: "u1", UserRoles: []string{"role-basic"}}
	mod := &engine.MessageContext{GuildID: "g1", UserID: "u2", UserRoles: []string{"role-mod"}}

	if !gate.Allows(open.ID, member) {
		t.Error("roleless group rejected a member")
	}
	if gate.Allows(mods.ID, member) {
		t.Error("restricted group allowed a member without the role")
	}
	if !gate.Allows(mods.ID, mod) {
		t.Error("restricted group rejected the right role")
	}
	if gate.Allows("no-such-group", member) {
		t.Error("unknown group allowed")
	}

	if err := s.DeleteGroup("g1", mods.ID); err != nil {
		t.Fatal(err)
	}
	if gate.Allows(mods.ID, mod) {
		t.Error("deleted group still allows")
	}
}
