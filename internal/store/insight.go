package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/agenthands/daybrief/internal/core/insight"
)

// FileHistory persists deep-dive fingerprints as JSON in the state dir.
type FileHistory struct {
	Path string
}

func NewFileHistory(stateDir string) *FileHistory {
	return &FileHistory{Path: filepath.Join(stateDir, "insight_history.json")}
}

func (h *FileHistory) Load(_ context.Context) (insight.History, error) {
	data, err := os.ReadFile(h.Path)
	if os.IsNotExist(err) {
		return insight.History{}, nil
	}
	if err != nil {
		return insight.History{}, fmt.Errorf("read insight history: %w", err)
	}

	var history insight.History
	if err := json.Unmarshal(data, &history); err != nil {
		return insight.History{}, fmt.Errorf("parse insight history %s: %w", h.Path, err)
	}
	return history, nil
}

func (h *FileHistory) Save(_ context.Context, history insight.History) error {
	if err := os.MkdirAll(filepath.Dir(h.Path), 0o755); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encode insight history: %w", err)
	}
	return writeAtomic(h.Path, data)
}
