package security

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidatePathWithinDirectory(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"file in dir", filepath.Join(dir, "clip.mp4"), false},
		{"nested", filepath.Join(dir, "a", "clip.mp4"), false},
		{"dir itself", dir, true},
		{"parent", filepath.Join(dir, ".."), true},
		{"traversal", filepath.Join(dir, "..", "etc", "passwd"), true},
		{"sibling prefix", dir + "-evil/clip.mp4", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePathWithinDirectory(tt.path, dir)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePathWithinDirectory(%q) err = %v, wantErr %v", tt.path, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePathWithinDirectoryVirtual(t *testing.T) {
	if err := ValidatePathWithinDirectory("/media/abc.mp4", "/media"); err != nil {
		t.Errorf("unexpected error for non-existent dir: %v", err)
	}
	if err := ValidatePathWithinDirectory("/media/../abc.mp4", "/media"); err == nil {
		t.Error("expected traversal error")
	}
}

func TestValidatePathWithinDirectorySymlink(t *testing.T) {
	dir := t.TempDir()
	outside := t.TempDir()
	link := filepath.Join(dir, "link")
	if err := os.Symlink(outside, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	if err := ValidatePathWithinDirectory(filepath.Join(link, "clip.mp4"), dir); err == nil {
		t.Error("expected symlink escape to be rejected")
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"smash.mp4", "smash.mp4"},
		{"rally 3 (slow-mo).MOV", "rally_3_slow-mo_.MOV"},
		{"../../etc/passwd", "etc_passwd"},
		{"", "unknown"},
		{"///", "unknown"},
		{"é.mp4", "mp4"},
	}
	for _, tt := range tests {
		if got := SanitizeFilename(tt.in); got != tt.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
	if got := SanitizeFilename(strings.Repeat("a", 300)); len(got) != 128 {
		t.Errorf("len = %d, want 128", len(got))
	}
}
