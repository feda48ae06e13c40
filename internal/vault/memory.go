package vault

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"hydro-go/internal/hydro"
)

type memoryItem struct {
	data    []byte
	version int64
}

// MemoryVault keeps snapshots in memory. Useful for tests and for the
// `type = "memory"` vault. Safe for concurrent use.
type MemoryVault struct {
	name  string
	items map[string]memoryItem // "installID/name" -> item
	mu    sync.RWMutex
}

// NewMemoryVault creates a new in-memory vault with the given name.
func NewMemoryVault(name string) *MemoryVault {
	return &MemoryVault{
		name:  name,
		items: make(map[string]memoryItem),
	}
}

func itemKey(installID, name string) string {
	return installID + "/" + name
}

// PutSnapshot stores a named item for an installation.
func (m *MemoryVault) PutSnapshot(installID string, name string, r io.Reader, size int64, version int64) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("failed to read snapshot: %w", err)
	}
	if int64(len(data)) != size {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", size, len(data))
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[itemKey(installID, name)] = memoryItem{data: data, version: version}
	return nil
}

// GetSnapshot writes a stored item to w.
func (m *MemoryVault) GetSnapshot(installID string, name string, w io.Writer) error {
	m.mu.RLock()
	item, ok := m.items[itemKey(installID, name)]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("snapshot %q not found for install: %s", name, installID)
	}

	if _, err := io.Copy(w, bytes.NewReader(item.data)); err != nil {
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return nil
}

// GetSnapshotVersion returns 0 for items never stored.
func (m *MemoryVault) GetSnapshotVersion(installID string, name string) (int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.items[itemKey(installID, name)].version, nil
}

// ValidateSetup always succeeds for in-memory vault.
func (m *MemoryVault) ValidateSetup() error {
	return nil
}

var _ hydro.Vault = (*MemoryVault)(nil)
