package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agenthands/daybrief/internal/core/model"
)

// FileLedger keeps the entity ledger as a single JSON document keyed by
// canonical entity name. Entries are created or updated, never removed.
type FileLedger struct {
	Path string
}

func NewFileLedger(stateDir string) *FileLedger {
	return &FileLedger{Path: filepath.Join(stateDir, "ledger.json")}
}

func (l *FileLedger) Load(_ context.Context) (map[string]*model.Entity, error) {
	data, err := os.ReadFile(l.Path)
	if os.IsNotExist(err) {
		return map[string]*model.Entity{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read entity ledger: %w", err)
	}

	ledger := map[string]*model.Entity{}
	if err := json.Unmarshal(data, &ledger); err != nil {
		return nil, fmt.Errorf("parse entity ledger %s: %w", l.Path, err)
	}
	return ledger, nil
}

func (l *FileLedger) Save(_ context.Context, ledger map[string]*model.Entity) error {
	if err := os.MkdirAll(filepath.Dir(l.Path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(ledger, "", "  ")
	if err != nil {
		return fmt.Errorf("encode entity ledger: %w", err)
	}
	return writeAtomic(l.Path, data)
}

// writeAtomic replaces path via a rename so a crashed run never leaves a
// half-written state file behind.
func writeAtomic(path string, data []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
