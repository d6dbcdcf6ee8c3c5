package security

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func newValidator(t *testing.T) (*PathValidator, string) {
	t.Helper()
	dir := t.TempDir()
	validator, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	t.Cleanup(func() { validator.Close() })
	return validator, dir
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out", "nested")

	validator, err := New(dir)
	if err != nil {
		t.Fatalf("Failed to create validator: %v", err)
	}
	defer validator.Close()

	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		t.Fatalf("Output directory not created: %v", err)
	}
	if validator.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", validator.Dir(), dir)
	}
}

func TestPathValidator_ValidateAndNormalize(t *testing.T) {
	validator, _ := newValidator(t)

	tests := []struct {
		name      string
		input     string
		shouldErr bool
		errType   error
	}{
		{"simple file", "report.pdf", false, nil},
		{"file in subdirectory", "sub/report.pdf", false, nil},
		{"hidden file", ".report.pdf", false, nil},

		{"parent directory", "../report.pdf", true, ErrPathEscapes},
		{"nested parent", "a/../../report.pdf", true, ErrPathEscapes},
		{"absolute path unix", "/etc/passwd", true, ErrAbsolutePath},

		{"empty path", "", true, ErrEmptyPath},

		{"dot slash", "./report.pdf", false, nil},
		{"dot segments", "a/./b/./report.pdf", false, nil},
	}

	if runtime.GOOS == "windows" {
		tests = append(tests, struct {
			name      string
			input     string
			shouldErr bool
			errType   error
		}{"absolute path windows", "C:\\Windows\\System32\\config", true, ErrAbsolutePath})
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := validator.ValidateAndNormalize(tt.input)

			if tt.shouldErr {
				if err == nil {
					t.Errorf("Expected error for input %q, got none", tt.input)
					return
				}
				if tt.errType != nil && !errors.Is(err, tt.errType) {
					t.Errorf("Expected error type %v, got %v", tt.errType, err)
				}
				return
			}

			if err != nil {
				t.Errorf("Unexpected error for input %q: %v", tt.input, err)
				return
			}
			if strings.Contains(result, "\\") || strings.HasPrefix(result, "..") || filepath.IsAbs(result) {
				t.Errorf("Bad normalized result %q", result)
			}
		})
	}
}

func TestSafeFileName(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"report.pdf", "report.pdf"},
		{"../../etc/passwd", "passwd"},
		{"/abs/path/report.pdf", "report.pdf"},
		{"C:\\Users\\me\\report.pdf", "report.pdf"},
		{"dir/", ""},
		{"..", ""},
		{"", ""},
		{"  ", ""},
		{"a\x00b", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := SafeFileName(tt.input)
			if tt.want == "" {
				if !errors.Is(err, ErrUnsafeName) {
					t.Errorf("SafeFileName(%q) = %q, %v; want ErrUnsafeName", tt.input, got, err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Errorf("SafeFileName(%q) = %q, %v; want %q", tt.input, got, err, tt.want)
			}
		})
	}
}

func TestPathValidator_WriteFileInRoot(t *testing.T) {
	validator, dir := newValidator(t)

	if err := validator.WriteFileInRoot("report.pdf", []byte("one"), FilePermSecure, false); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "report.pdf"))
	if err != nil || string(data) != "one" {
		t.Fatalf("File content = %q, %v", data, err)
	}

	// Refuses to clobber without overwrite
	err = validator.WriteFileInRoot("report.pdf", []byte("two"), FilePermSecure, false)
	if !errors.Is(err, os.ErrExist) {
		t.Errorf("Expected os.ErrExist, got %v", err)
	}

	if err := validator.WriteFileInRoot("report.pdf", []byte("2"), FilePermSecure, true); err != nil {
		t.Fatalf("Overwrite failed: %v", err)
	}
	data, _ = os.ReadFile(filepath.Join(dir, "report.pdf"))
	if string(data) != "2" {
		t.Errorf("Overwrite did not truncate: %q", data)
	}

	info, err := validator.StatInRoot("report.pdf")
	if err != nil {
		t.Fatalf("Stat failed: %v", err)
	}
	if runtime.GOOS != "windows" && info.Mode().Perm() != FilePermSecure {
		t.Errorf("Permissions = %o, want %o", info.Mode().Perm(), FilePermSecure)
	}
}

func TestPathValidator_ActualEscapePrevention(t *testing.T) {
	validator, dir := newValidator(t)

	targetFile := filepath.Join(filepath.Dir(dir), "should_not_be_written.txt")
	defer os.Remove(targetFile)

	err := validator.WriteFileInRoot("../should_not_be_written.txt", []byte("pwned"), 0644, true)
	if err == nil {
		t.Error("Expected error when trying to write outside root, got none")
	}

	if _, statErr := os.Stat(targetFile); statErr == nil {
		t.Error("File was created outside the output directory")
	}
}

func TestPathValidator_SymlinkEscape(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	validator, dir := newValidator(t)

	outside := t.TempDir()
	if err := os.Symlink(outside, filepath.Join(dir, "link")); err != nil {
		t.Fatalf("Failed to create symlink: %v", err)
	}

	if err := validator.WriteFileInRoot("link/escaped.txt", []byte("x"), 0644, true); err == nil {
		t.Error("Expected os.Root to refuse following a symlink out of the directory")
	}
	if _, err := os.Stat(filepath.Join(outside, "escaped.txt")); err == nil {
		t.Error("File was written through the symlink")
	}
}
