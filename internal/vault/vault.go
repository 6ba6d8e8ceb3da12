// Package vault provides file access scoped to a directory of markdown notes.
package vault

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrOutsideVault is returned for paths that resolve outside the vault root.
var ErrOutsideVault = errors.New("path escapes vault")

// Vault is a directory of notes. All paths are slash-separated and relative
// to the root.
type Vault struct {
	root string
}

// New returns a Vault rooted at dir.
func New(dir string) (*Vault, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("could not resolve vault '%s': %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("could not open vault '%s': %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("vault '%s' is not a directory", dir)
	}
	return &Vault{root: abs}, nil
}

// Root returns the absolute vault directory.
func (v *Vault) Root() string { return v.root }

func (v *Vault) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, path)
	}
	full := filepath.Join(v.root, filepath.FromSlash(path))
	rel, err := filepath.Rel(v.root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrOutsideVault, path)
	}
	return full, nil
}

// Exists reports whether path exists in the vault.
func (v *Vault) Exists(path string) bool {
	full, err := v.resolve(path)
	if err != nil {
		return false
	}
	_, err = os.Stat(full)
	return err == nil
}

// Read returns the content of path.
func (v *Vault) Read(path string) (string, error) {
	full, err := v.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("could not read file '%s': %w", path, err)
	}
	return string(data), nil
}

// Write replaces the content of path. The parent folder must exist.
func (v *Vault) Write(path, content string) error {
	full, err := v.resolve(path)
	if err != nil {
		return err
	}
	if err := os.WriteFile(full, []byte(content), 0644); err != nil {
		return fmt.Errorf("could not write file '%s': %w", path, err)
	}
	return nil
}

// CreateFolder creates path and any missing parents.
func (v *Vault) CreateFolder(path string) error {
	full, err := v.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(full, 0755); err != nil {
		return fmt.Errorf("could not create folder '%s': %w", path, err)
	}
	return nil
}

// Notes lists markdown notes under folders (the whole vault when empty),
// skipping hidden directories and anything under exclude. Paths are sorted.
func (v *Vault) Notes(folders []string, exclude string) ([]string, error) {
	if len(folders) == 0 {
		folders = []string{"."}
	}
	exclude = filepath.ToSlash(filepath.Clean(exclude))

	seen := make(map[string]bool)
	var notes []string
	for _, folder := range folders {
		start, err := v.resolve(folder)
		if err != nil {
			return nil, err
		}
		err = filepath.WalkDir(start, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, err := filepath.Rel(v.root, path)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if d.IsDir() {
				if rel != "." && (strings.HasPrefix(d.Name(), ".") || rel == exclude) {
					return filepath.SkipDir
				}
				return nil
			}
			if !strings.EqualFold(filepath.Ext(rel), ".md") || seen[rel] {
				return nil
			}
			seen[rel] = true
			notes = append(notes, rel)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("could not list notes in '%s': %w", folder, err)
		}
	}
	sort.Strings(notes)
	return notes, nil
}

// IsNote reports whether a vault-relative path is a markdown note outside
// the excluded folder and outside hidden directories.
func IsNote(path, exclude string) bool {
	path = filepath.ToSlash(filepath.Clean(path))
	if !strings.EqualFold(filepath.Ext(path), ".md") {
		return false
	}
	exclude = filepath.ToSlash(filepath.Clean(exclude))
	if exclude != "." && (path == exclude || strings.HasPrefix(path, exclude+"/")) {
		return false
	}
	for _, part := range strings.Split(path, "/") {
		if strings.HasPrefix(part, ".") {
			return false
		}
	}
	return true
}

// InFolders reports whether a vault-relative path lies under one of folders.
// An empty list covers the whole vault, as in Notes.
func InFolders(path string, folders []string) bool {
	if len(folders) == 0 {
		return true
	}
	path = filepath.ToSlash(filepath.Clean(path))
	for _, folder := range folders {
		folder = filepath.ToSlash(filepath.Clean(folder))
		if folder == "." || path == folder || strings.HasPrefix(path, folder+"/") {
			return true
		}
	}
	return false
}
