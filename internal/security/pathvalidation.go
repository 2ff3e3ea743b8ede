// Package security validates operator-supplied file paths before the
// process writes to them. Report exports take a filename from an HTTP
// query parameter, so every write target is checked for traversal and
// symlink escapes first.
package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ValidateWithinDir reports whether path resolves to a location inside
// root. Symlinks on both sides are resolved before the containment
// check, so a link inside root cannot point the write outside it. The
// root must exist; the path itself may not yet.
func ValidateWithinDir(path, root string) error {
	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("resolve path %q: %w", path, err)
	}
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolve root %q: %w", root, err)
	}

	canonicalRoot, err := filepath.EvalSymlinks(absRoot)
	if err != nil {
		return fmt.Errorf("resolve root %q: %w", root, err)
	}

	rel, err := filepath.Rel(canonicalRoot, canonicalize(absPath))
	if err != nil {
		return fmt.Errorf("path %q is outside %q: %w", path, root, err)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return fmt.Errorf("path %q escapes %q", path, root)
	}
	return nil
}

// canonicalize resolves symlinks in absPath. When the full path does
// not exist yet, the nearest existing ancestor is resolved instead and
// the missing tail re-joined, so a symlinked parent directory still
// lands on its real location.
func canonicalize(absPath string) string {
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		return resolved
	}
	probe := absPath
	for {
		parent := filepath.Dir(probe)
		if parent == probe {
			// Hit the filesystem root without finding anything on disk.
			return absPath
		}
		if resolved, err := filepath.EvalSymlinks(parent); err == nil {
			tail, _ := filepath.Rel(parent, absPath)
			return filepath.Join(resolved, tail)
		}
		probe = parent
	}
}

// ValidateWithinAny accepts path if it resolves inside at least one of
// the given roots.
func ValidateWithinAny(path string, roots []string) error {
	if len(roots) == 0 {
		return fmt.Errorf("no allowed roots")
	}
	for _, root := range roots {
		if err := ValidateWithinDir(path, root); err == nil {
			return nil
		}
	}
	return fmt.Errorf("path %q is not under any allowed root %v", path, roots)
}

// ValidateExportPath checks a write target for report exports. Exports
// may land in the system temp directory or the working directory the
// process was started from, nowhere else.
func ValidateExportPath(path string) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("get working directory: %w", err)
	}
	return ValidateWithinAny(path, []string{os.TempDir(), cwd})
}

// SanitizeFilename maps an arbitrary identifier to a string safe to
// embed in a filename. ASCII letters, digits, dot, underscore and dash
// pass through; runs of anything else collapse to a single underscore.
// The result is capped at 128 bytes and never empty.
func SanitizeFilename(s string) string {
	const maxLen = 128
	var b strings.Builder
	squashed := false
	for _, r := range s {
		if b.Len() >= maxLen {
			break
		}
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9',
			r == '.', r == '_', r == '-':
			b.WriteRune(r)
			squashed = false
		default:
			if !squashed {
				b.WriteByte('_')
				squashed = true
			}
		}
	}
	out := strings.Trim(b.String(), "._")
	if out == "" {
		return "unknown"
	}
	return out
}
