package report

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bakitorunoglu/TrackRadar/internal/journal"
	"github.com/bakitorunoglu/TrackRadar/internal/security"
)

// defaultExportDir is the base directory for API-triggered exports.
// Writes are restricted to this one directory regardless of the
// filename a request carries.
var defaultExportDir = func() string {
	tmp := os.TempDir()
	abs, err := filepath.Abs(tmp)
	if err != nil {
		log.Printf("report: could not resolve absolute temp dir from %q: %v", tmp, err)
		return tmp
	}
	return filepath.Clean(abs)
}()

// exportFilename builds a unique server-side filename for a session's
// rendered report.
func exportFilename(sessionID, ext string) string {
	return fmt.Sprintf("report_%s_%d%s",
		security.SanitizeFilename(sessionID), time.Now().UnixNano(), ext)
}

// safeExportPath anchors a caller-supplied filename under
// defaultExportDir. Only the last path component of userPath is used,
// so traversal components never reach the filesystem, and the final
// path is checked with security.ValidateExportPath.
func safeExportPath(userPath string) (string, error) {
	if userPath == "" {
		return "", fmt.Errorf("empty export path")
	}
	base := filepath.Base(userPath)
	if base == "." || base == ".." || base == string(os.PathSeparator) {
		return "", fmt.Errorf("invalid export filename %q", userPath)
	}

	absPath, err := filepath.Abs(filepath.Join(defaultExportDir, base))
	if err != nil {
		return "", fmt.Errorf("resolve export path: %w", err)
	}
	cleanPath := filepath.Clean(absPath)
	if cleanPath != defaultExportDir && !strings.HasPrefix(cleanPath, defaultExportDir+string(os.PathSeparator)) {
		return "", fmt.Errorf("export path escapes %s", defaultExportDir)
	}

	if err := security.ValidateExportPath(cleanPath); err != nil {
		log.Printf("Security: rejected export path %s (from %s): %v", cleanPath, userPath, err)
		return "", fmt.Errorf("invalid export path: %w", err)
	}
	return cleanPath, nil
}

// ExportHTML renders the interactive session chart to a file under the
// export directory and returns the path written. An empty userPath
// gets a generated filename derived from the session ID.
func ExportHTML(userPath string, s *Summary, fixes []journal.Fix) (string, error) {
	if userPath == "" {
		userPath = exportFilename(s.SessionID, ".html")
	}
	path, err := safeExportPath(userPath)
	if err != nil {
		return "", err
	}

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	if err := RenderHTML(f, s, fixes); err != nil {
		f.Close()
		return "", err
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", path, err)
	}
	return path, nil
}

// ExportPNG renders the deviation chart to a file under the export
// directory and returns the path written. An empty userPath gets a
// generated filename derived from the session ID.
func ExportPNG(userPath string, s *Summary, fixes []journal.Fix) (string, error) {
	if userPath == "" {
		userPath = exportFilename(s.SessionID, ".png")
	}
	path, err := safeExportPath(userPath)
	if err != nil {
		return "", err
	}
	if err := RenderPNG(path, s, fixes); err != nil {
		return "", err
	}
	return path, nil
}
