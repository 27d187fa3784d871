package datastore

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")

	ds, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	ds.Add("guild-1", map[string]any{"hello": "world"})
	if err := ds.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	v, ok := reopened.Get("guild-1")
	if !ok {
		t.Fatal("key lost across reopen")
	}
	m, ok := v.(map[string]any)
	if !ok || m["hello"] != "world" {
		t.Errorf("value = %#v", v)
	}
}

func TestDeleteAndKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	ds, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()

	ds.Add("a", 1)
	ds.Add("b", 2)
	if got := len(ds.Keys()); got != 2 {
		t.Errorf("Keys() = %d entries", got)
	}

	ds.Delete("a")
	if _, ok := ds.Get("a"); ok {
		t.Error("deleted key still present")
	}
	if got := len(ds.Keys()); got != 1 {
		t.Errorf("Keys() after delete = %d entries", got)
	}
}

func TestUnchangedPayloadSkipsWrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	ds, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	defer ds.Close()

	ds.Add("k", "v")
	if err := ds.SaveToFile(); err != nil {
		t.Fatal(err)
	}
	first, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}

	time.Sleep(10 * time.Millisecond)
	if err := ds.SaveToFile(); err != nil {
		t.Fatal(err)
	}
	second, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if !first.ModTime().Equal(second.ModTime()) {
		t.Error("identical payload rewrote the file")
	}
}

func TestRejectsEmptyPath(t *testing.T) {
	if _, err := NewWithConfig(&Config{}); err == nil {
		t.Error("empty file path accepted")
	}
}

func TestCorruptFileFailsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.json")
	if err := os.WriteFile(path, []byte("{not json"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := New(path); err == nil {
		t.Error("corrupt file loaded without error")
	}
}
