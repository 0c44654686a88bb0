// Package outdir manages output directories written by the split command.
package outdir

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/provide-io/emotepack/pkg/utils/permissions"
)

// Prepare creates dir if needed and reports whether it already held a
// manifest from an earlier export.
func Prepare(dir string) (bool, error) {
	if err := os.MkdirAll(dir, permissions.FileMode(permissions.DefaultDirPerms)); err != nil {
		return false, fmt.Errorf("failed to create output directory: %w", err)
	}

	_, err := os.Stat(ManifestPath(dir))
	switch {
	case err == nil:
		return true, nil
	case os.IsNotExist(err):
		return false, nil
	default:
		return false, err
	}
}

// Clean removes the files listed in dir's manifest and the manifest
// itself. Files not listed, and listed names outside dir, are left alone.
func Clean(dir string) error {
	m, err := ReadManifest(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	for _, f := range m.Files {
		if !filepath.IsLocal(f.Name) {
			continue
		}
		if err := os.Remove(filepath.Join(dir, f.Name)); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("failed to remove %s: %w", f.Name, err)
		}
	}
	if err := os.Remove(ManifestPath(dir)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
