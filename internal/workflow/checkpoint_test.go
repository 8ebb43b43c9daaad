package workflow

import (
	"os"
	"path/filepath"
	"testing"
)

func TestCheckpointStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state", "checkpoint.json")
	store := NewCheckpointStore(path, true)

	if _, ok, err := store.Load(); err != nil || ok {
		t.Fatalf("empty load: %v %v", ok, err)
	}
	if err := store.Save(Checkpoint{LastBlock: 42, LastEvaluationID: "e1", LastDirection: "none"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	cp, ok, err := store.Load()
	if err != nil || !ok {
		t.Fatalf("load: %v %v", ok, err)
	}
	if cp.LastBlock != 42 || cp.LastEvaluationID != "e1" || cp.UpdatedAt == "" {
		t.Fatalf("checkpoint mismatch: %+v", cp)
	}
}

func TestCheckpointStoreReadsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := NewCheckpointStore(path, true).Save(Checkpoint{LastBlock: 7, LastDirection: "buy_hook_sell_reference"}); err != nil {
		t.Fatalf("save: %v", err)
	}

	cp, ok, err := NewCheckpointStore(path, true).Load()
	if err != nil || !ok {
		t.Fatalf("load: %v %v", ok, err)
	}
	if cp.LastBlock != 7 || cp.LastDirection != "buy_hook_sell_reference" {
		t.Fatalf("checkpoint mismatch: %+v", cp)
	}
}

func TestCheckpointStoreRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checkpoint.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, _, err := NewCheckpointStore(path, true).Load(); err == nil {
		t.Fatalf("expected parse error")
	}
}

func TestCheckpointStoreDisabled(t *testing.T) {
	store := NewCheckpointStore(filepath.Join(t.TempDir(), "cp.json"), false)
	if err := store.Save(Checkpoint{LastBlock: 1}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, ok, _ := store.Load(); ok {
		t.Fatalf("disabled store must not load")
	}

	var nilStore *CheckpointStore
	if nilStore.Enabled() {
		t.Fatalf("nil store must be disabled")
	}
}
