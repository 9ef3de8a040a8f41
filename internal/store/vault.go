package store

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/agenthands/daybrief/internal/core"
)

// VaultWriter lays a run's artifacts out as dated markdown notes:
//
//	<dir>/YYYY-MM-DD.md             raw digest
//	<dir>/YYYY-MM-DD_public.md      compliance-filtered digest
//	<dir>/YYYY-MM-DD_compliance.md  compliance report
//
// The public note is skipped when the kill switch suppressed it.
type VaultWriter struct {
	Dir string
}

func NewVaultWriter(dir string) *VaultWriter {
	return &VaultWriter{Dir: dir}
}

func (w *VaultWriter) Write(res *core.RunResult) error {
	if err := os.MkdirAll(w.Dir, 0o755); err != nil {
		return fmt.Errorf("create vault dir: %w", err)
	}
	day := res.Date.Format("2006-01-02")

	if err := w.writeNote(day+".md", res.Raw); err != nil {
		return err
	}
	if res.PublicProduced {
		if err := w.writeNote(day+"_public.md", res.Public); err != nil {
			return err
		}
	}
	return w.writeNote(day+"_compliance.md", res.ComplianceReport)
}

func (w *VaultWriter) writeNote(name, content string) error {
	path := filepath.Join(w.Dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write vault note %s: %w", path, err)
	}
	return nil
}
