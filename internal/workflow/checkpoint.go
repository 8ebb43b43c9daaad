package workflow

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Checkpoint tracks the last block a tick evaluated.
type Checkpoint struct {
	LastBlock        uint64 `json:"last_block"`
	LastEvaluationID string `json:"last_evaluation_id"`
	LastDirection    string `json:"last_direction"`
	UpdatedAt        string `json:"updated_at"`
}

// CheckpointStore keeps the latest checkpoint in memory and mirrors it to a
// JSON file. A nil or disabled store is a no-op.
type CheckpointStore struct {
	path    string
	enabled bool

	mu   sync.Mutex
	last *Checkpoint
	now  func() time.Time
}

func NewCheckpointStore(path string, enabled bool) *CheckpointStore {
	return &CheckpointStore{path: path, enabled: enabled && path != "", now: time.Now}
}

func (c *CheckpointStore) Enabled() bool {
	return c != nil && c.enabled
}

// Load returns the cached checkpoint, reading the file only on first use.
func (c *CheckpointStore) Load() (Checkpoint, bool, error) {
	if !c.Enabled() {
		return Checkpoint{}, false, nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.last != nil {
		return *c.last, true, nil
	}

	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return Checkpoint{}, false, nil
	}
	if err != nil {
		return Checkpoint{}, false, fmt.Errorf("read checkpoint %s: %w", c.path, err)
	}

	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false, fmt.Errorf("parse checkpoint %s: %w", c.path, err)
	}
	c.last = &cp
	return cp, true, nil
}

// Save replaces the file through a temp file in the same directory.
func (c *CheckpointStore) Save(cp Checkpoint) error {
	if !c.Enabled() {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create checkpoint dir: %w", err)
	}

	cp.UpdatedAt = c.now().UTC().Format(time.RFC3339Nano)
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal checkpoint: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(c.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create checkpoint tmp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write checkpoint tmp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("close checkpoint tmp: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("rename checkpoint: %w", err)
	}
	c.last = &cp
	return nil
}
