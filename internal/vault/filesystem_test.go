package vault

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestFSVault(t *testing.T) (*FileSystemVault, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "vault")
	v, err := NewFileSystemVault("test-fs", root)
	if err != nil {
		t.Fatalf("NewFileSystemVault() error = %v", err)
	}
	return v, root
}

func TestFileSystemVault_PutAndGetSnapshot(t *testing.T) {
	v, root := newTestFSVault(t)

	content := "encrypted snapshot"
	if err := v.PutSnapshot("install-1", "db", strings.NewReader(content), int64(len(content)), 12); err != nil {
		t.Fatalf("PutSnapshot() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(root, "install-1", "db")); err != nil {
		t.Errorf("snapshot file not written: %v", err)
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("install-1", "db", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != content {
		t.Errorf("GetSnapshot() = %q, want %q", buf.String(), content)
	}

	version, err := v.GetSnapshotVersion("install-1", "db")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	if version != 12 {
		t.Errorf("GetSnapshotVersion() = %d, want 12", version)
	}
}

func TestFileSystemVault_OverwriteKeepsLatest(t *testing.T) {
	v, _ := newTestFSVault(t)

	for i, content := range []string{"first", "second"} {
		if err := v.PutSnapshot("install-1", "db", strings.NewReader(content), int64(len(content)), int64(i+1)); err != nil {
			t.Fatalf("PutSnapshot(%q) error = %v", content, err)
		}
	}

	var buf bytes.Buffer
	if err := v.GetSnapshot("install-1", "db", &buf); err != nil {
		t.Fatalf("GetSnapshot() error = %v", err)
	}
	if buf.String() != "second" {
		t.Errorf("GetSnapshot() = %q, want %q", buf.String(), "second")
	}
	if version, _ := v.GetSnapshotVersion("install-1", "db"); version != 2 {
		t.Errorf("GetSnapshotVersion() = %d, want 2", version)
	}
}

func TestFileSystemVault_MissingItems(t *testing.T) {
	v, _ := newTestFSVault(t)

	version, err := v.GetSnapshotVersion("install-1", "db")
	if err != nil {
		t.Fatalf("GetSnapshotVersion() error = %v", err)
	}
	if version != 0 {
		t.Errorf("GetSnapshotVersion() = %d, want 0", version)
	}

	var buf bytes.Buffer
	err = v.GetSnapshot("install-1", "db", &buf)
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("GetSnapshot() error = %v, want not found", err)
	}
}

func TestFileSystemVault_SizeMismatchLeavesNoFile(t *testing.T) {
	v, root := newTestFSVault(t)

	if err := v.PutSnapshot("install-1", "db", strings.NewReader("abc"), 99, 1); err == nil {
		t.Fatal("PutSnapshot() expected size mismatch error")
	}

	entries, err := os.ReadDir(filepath.Join(root, "install-1"))
	if err != nil {
		t.Fatalf("ReadDir() error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("install directory has %d leftover files, want 0", len(entries))
	}
}

func TestFileSystemVault_ValidateSetup(t *testing.T) {
	v, root := newTestFSVault(t)

	if err := v.ValidateSetup(); err != nil {
		t.Errorf("ValidateSetup() error = %v", err)
	}

	if err := os.RemoveAll(root); err != nil {
		t.Fatalf("RemoveAll() error = %v", err)
	}
	if err := v.ValidateSetup(); err == nil {
		t.Error("ValidateSetup() expected error after root removed")
	}
}
