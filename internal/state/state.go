// Package state manages the per-project state directory (.xeval/):
// namespaced JSON files that mirror remote service data.
package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// DirName is the state directory created at the project root.
const DirName = ".xeval"

// Dir addresses state files under a project's state directory.
type Dir struct {
	root string
}

// NewDir returns the state directory handle for a project root. No
// file system work happens until a file is read or written.
func NewDir(projectRoot string) Dir {
	return Dir{root: filepath.Join(projectRoot, DirName)}
}

// Path resolves a namespaced relative path inside the state dir.
func (d Dir) Path(relative ...string) string {
	return filepath.Join(append([]string{d.root}, relative...)...)
}

// ReadJSON decodes the state file at the relative path into target.
// A missing file leaves target untouched, so callers get their zero
// value as a safe default. A present-but-undecodable file is an error;
// callers decide whether that is fatal.
func (d Dir) ReadJSON(target any, relative ...string) error {
	path := d.Path(relative...)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read state file %s: %w", path, err)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("decode state file %s: %w", path, err)
	}
	return nil
}

// WriteJSON writes value as indented JSON at the relative path,
// creating parent directories as needed. The file is replaced
// wholesale, never merged.
func (d Dir) WriteJSON(value any, relative ...string) error {
	path := d.Path(relative...)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create state dir %s: %w", filepath.Dir(path), err)
	}
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state file %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write state file %s: %w", path, err)
	}
	return nil
}
