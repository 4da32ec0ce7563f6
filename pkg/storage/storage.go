package storage

import (
	"context"

	"github.com/jwebster45206/multiverse-fugitive/pkg/save"
)

// SaveStore persists game snapshots by slot.
type SaveStore interface {
	// Health and lifecycle
	Ping(ctx context.Context) error
	Close() error

	// SaveSnapshot writes snap to slot, replacing whatever was there.
	SaveSnapshot(ctx context.Context, slot string, snap *save.Snapshot) error
	// LoadSnapshot returns (nil, nil) when the slot is empty. Stored bytes
	// that do not decode produce a *save.SaveCorruptError.
	LoadSnapshot(ctx context.Context, slot string) (*save.Snapshot, error)
	DeleteSnapshot(ctx context.Context, slot string) error
	// ListSnapshots summarizes every readable slot, sorted by slot.
	ListSnapshots(ctx context.Context) ([]save.SlotInfo, error)
}
