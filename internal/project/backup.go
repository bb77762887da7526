package project

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"spectracore/internal/blob"
)

// writeBackup preserves the pre-migration serialization as a sibling of path.
// Suffixes are probed starting at .backup0; an existing backup that already
// holds byte-identical content satisfies the policy without a new write, so
// repeatedly opening the same never-re-saved old file never accumulates
// duplicates.
func (s *Store) writeBackup(ctx context.Context, path, projectID string, preMigration []byte) (string, error) {
	for n := 0; ; n++ {
		candidate := fmt.Sprintf("%s.backup%d", path, n)
		existing, err := os.ReadFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			if err := os.WriteFile(candidate, preMigration, 0o644); err != nil {
				return "", fmt.Errorf("write backup: %w", err)
			}
			s.metrics.IncBackups()
			s.mirrorBackup(ctx, projectID, candidate, preMigration)
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("probe backup %s: %w", candidate, err)
		}
		if bytes.Equal(existing, preMigration) {
			return candidate, nil
		}
	}
}

// mirrorBackup copies a freshly written backup into the configured blob
// store. Failures are logged and swallowed: the local backup already exists,
// the mirror is a convenience.
func (s *Store) mirrorBackup(ctx context.Context, projectID, backupPath string, content []byte) {
	if s.mirror == nil {
		return
	}
	key := fmt.Sprintf("projects/%s/backups/%s", projectID, filepath.Base(backupPath))
	if _, err := s.mirror.Head(ctx, key); err == nil {
		return
	}
	if _, err := s.mirror.Put(ctx, key, bytes.NewReader(content), blob.PutOptions{ContentType: "application/json"}); err != nil {
		s.logger.WarnContext(ctx, "backup mirror failed", "key", key, "error", err)
	}
}
