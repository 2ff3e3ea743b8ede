package security

import (
	"os"
	"path/filepath"
	"testing"
)

func TestValidateWithinDir(t *testing.T) {
	tmpDir := t.TempDir()

	safeDir := filepath.Join(tmpDir, "safe")
	outsideDir := filepath.Join(tmpDir, "outside")
	if err := os.MkdirAll(safeDir, 0755); err != nil {
		t.Fatalf("Failed to create safe directory: %v", err)
	}
	if err := os.MkdirAll(outsideDir, 0755); err != nil {
		t.Fatalf("Failed to create outside directory: %v", err)
	}

	outsideFile := filepath.Join(outsideDir, "secret.txt")
	if err := os.WriteFile(outsideFile, []byte("secret"), 0644); err != nil {
		t.Fatalf("Failed to create outside file: %v", err)
	}

	// A link inside the safe directory pointing out of it.
	linkPath := filepath.Join(safeDir, "sneaky-link")
	if err := os.Symlink(outsideDir, linkPath); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	tests := []struct {
		name      string
		path      string
		root      string
		wantError bool
	}{
		{
			name:      "path directly within root",
			path:      filepath.Join(tmpDir, "report.html"),
			root:      tmpDir,
			wantError: false,
		},
		{
			name:      "nested path that does not exist yet",
			path:      filepath.Join(tmpDir, "nested", "report.html"),
			root:      tmpDir,
			wantError: false,
		},
		{
			name:      "dotdot traversal",
			path:      filepath.Join(tmpDir, "..", "report.html"),
			root:      tmpDir,
			wantError: true,
		},
		{
			name:      "relative traversal out of root",
			path:      "../../../etc/passwd",
			root:      tmpDir,
			wantError: true,
		},
		{
			name:      "absolute path outside root",
			path:      "/etc/passwd",
			root:      tmpDir,
			wantError: true,
		},
		{
			name:      "file reached through escaping symlink",
			path:      filepath.Join(linkPath, "secret.txt"),
			root:      safeDir,
			wantError: true,
		},
		{
			name:      "escaping symlink itself",
			path:      linkPath,
			root:      safeDir,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWithinDir(tt.path, tt.root)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateWithinDir() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateWithinAny(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	tests := []struct {
		name      string
		path      string
		roots     []string
		wantError bool
	}{
		{
			name:      "within first root",
			path:      filepath.Join(dirA, "report.png"),
			roots:     []string{dirA, dirB},
			wantError: false,
		},
		{
			name:      "within second root",
			path:      filepath.Join(dirB, "report.png"),
			roots:     []string{dirA, dirB},
			wantError: false,
		},
		{
			name:      "outside every root",
			path:      "/etc/passwd",
			roots:     []string{dirA, dirB},
			wantError: true,
		},
		{
			name:      "no roots at all",
			path:      filepath.Join(dirA, "report.png"),
			roots:     nil,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateWithinAny(tt.path, tt.roots)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateWithinAny() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestValidateExportPath(t *testing.T) {
	originalWd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get current directory: %v", err)
	}
	tmpDir := t.TempDir()

	tests := []struct {
		name      string
		path      string
		workDir   string
		wantError bool
	}{
		{
			name:      "under the temp directory",
			path:      filepath.Join(os.TempDir(), "session-report.html"),
			workDir:   originalWd,
			wantError: false,
		},
		{
			name:      "relative to the working directory",
			path:      "session-report.html",
			workDir:   tmpDir,
			wantError: false,
		},
		{
			name:      "absolute path elsewhere",
			path:      "/etc/passwd",
			workDir:   originalWd,
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.workDir != originalWd {
				if err := os.Chdir(tt.workDir); err != nil {
					t.Fatalf("Failed to change directory: %v", err)
				}
				t.Cleanup(func() {
					if err := os.Chdir(originalWd); err != nil {
						t.Errorf("Failed to restore directory: %v", err)
					}
				})
			}

			err := ValidateExportPath(tt.path)
			if (err != nil) != tt.wantError {
				t.Errorf("ValidateExportPath() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"ses_0b5c9e12", "ses_0b5c9e12"},
		{"harbor loop #3", "harbor_loop_3"},
		{"../../etc/passwd", "etc_passwd"},
		{"///", "unknown"},
		{"", "unknown"},
		{"..hidden..", "hidden"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
