package storage

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jwebster45206/multiverse-fugitive/pkg/save"
)

// MockStorage is an in-memory SaveStore for testing. Snapshots are kept
// encoded, the same way the real backends keep them.
type MockStorage struct {
	mu        sync.RWMutex
	saves     map[string][]byte
	pingError error
	saveError error
}

// Ensure MockStorage implements SaveStore interface
var _ SaveStore = (*MockStorage)(nil)

// NewMockStorage creates a new mock storage
func NewMockStorage() *MockStorage {
	return &MockStorage{
		saves: make(map[string][]byte),
	}
}

// SetPingError configures the mock to fail on ping with the given error
func (m *MockStorage) SetPingError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingError = err
}

// SetSaveError makes every following SaveSnapshot fail with err.
func (m *MockStorage) SetSaveError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveError = err
}

// SetRaw stores data in slot as-is, bypassing encoding.
func (m *MockStorage) SetRaw(slot string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[slot] = data
}

// Ping mocks storage ping
func (m *MockStorage) Ping(ctx context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pingError
}

// Close mocks storage close
func (m *MockStorage) Close() error {
	return nil
}

// SaveSnapshot mocks saving a snapshot
func (m *MockStorage) SaveSnapshot(ctx context.Context, slot string, snap *save.Snapshot) error {
	if snap == nil {
		return errors.New("snapshot cannot be nil")
	}
	if err := save.ValidateSlot(slot); err != nil {
		return err
	}
	data, err := save.Encode(snap)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveError != nil {
		return m.saveError
	}
	m.saves[slot] = data
	return nil
}

// LoadSnapshot mocks loading a snapshot
func (m *MockStorage) LoadSnapshot(ctx context.Context, slot string) (*save.Snapshot, error) {
	m.mu.RLock()
	data, ok := m.saves[slot]
	m.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return save.Decode(data)
}

// DeleteSnapshot mocks deleting a snapshot
func (m *MockStorage) DeleteSnapshot(ctx context.Context, slot string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saves, slot)
	return nil
}

// ListSnapshots mocks listing snapshots. Unreadable slots are listed with
// a zero save time.
func (m *MockStorage) ListSnapshots(ctx context.Context) ([]save.SlotInfo, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var infos []save.SlotInfo
	for slot, data := range m.saves {
		snap, err := save.Decode(data)
		if err != nil {
			infos = append(infos, save.Unreadable(slot, time.Time{}, err))
			continue
		}
		infos = append(infos, save.Summarize(slot, snap))
	}
	save.SortBySlot(infos)
	return infos, nil
}

// Count returns the number of stored slots, readable or not.
func (m *MockStorage) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.saves)
}
