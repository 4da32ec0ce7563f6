package state

import (
	"log/slog"
)

// DeltaWorker applies a Delta to a player state on behalf of one universe.
type DeltaWorker struct {
	ps         *PlayerState
	delta      *Delta
	universeID string
	logger     *slog.Logger
}

// NewDeltaWorker creates a new delta worker for applying state changes
func NewDeltaWorker(ps *PlayerState, delta *Delta, universeID string, logger *slog.Logger) *DeltaWorker {
	return &DeltaWorker{
		ps:         ps,
		delta:      delta,
		universeID: universeID,
		logger:     logger,
	}
}

// Apply applies the delta. Removals run before additions, so an item that
// is both removed and added ends up held.
func (dw *DeltaWorker) Apply() {
	if dw.delta.IsEmpty() {
		return
	}
	d := dw.delta

	if d.Morality != 0 {
		dw.ps.AdjustMorality(d.Morality)
	}
	if d.MemorySync != 0 {
		before := dw.ps.MemorySync
		dw.ps.AdjustMemorySync(d.MemorySync)
		if dw.logger != nil && before+d.MemorySync != dw.ps.MemorySync {
			dw.logger.Debug("Memory sync clamped",
				"universe", dw.universeID,
				"requested", before+d.MemorySync,
				"value", dw.ps.MemorySync)
		}
	}
	if d.Reputation != 0 {
		dw.ps.AdjustReputation(dw.universeID, d.Reputation)
	}

	for _, item := range d.RemoveItems {
		dw.handleDropItem(item)
	}
	for _, item := range d.AddItems {
		dw.handleAcquireItem(item)
	}

	for _, flag := range d.ClearFlags {
		dw.ps.ClearFlag(flag)
	}
	for _, flag := range d.SetFlags {
		dw.ps.SetFlag(flag)
	}

	if d.Scene != "" && d.Scene != dw.ps.Scene {
		if dw.logger != nil {
			dw.logger.Debug("Scene changed",
				"universe", dw.universeID,
				"from", dw.ps.Scene,
				"to", d.Scene)
		}
		dw.ps.Scene = d.Scene
	}
}

// handleAcquireItem adds an item to player inventory
func (dw *DeltaWorker) handleAcquireItem(item string) {
	if dw.ps.HasItem(item) {
		return
	}
	dw.ps.AddItem(item)
	if dw.logger != nil {
		dw.logger.Debug("Item acquired", "universe", dw.universeID, "item", item)
	}
}

// handleDropItem removes an item from player inventory
func (dw *DeltaWorker) handleDropItem(item string) {
	if !dw.ps.HasItem(item) {
		if dw.logger != nil {
			dw.logger.Warn("Cannot drop item not held", "universe", dw.universeID, "item", item)
		}
		return
	}
	dw.ps.RemoveItem(item)
	if dw.logger != nil {
		dw.logger.Debug("Item dropped", "universe", dw.universeID, "item", item)
	}
}
