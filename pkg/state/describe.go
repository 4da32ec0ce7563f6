package state

import (
	"fmt"
	"sort"
	"strings"
)

func (ps *PlayerState) DescribeInventory() string {
	if ps.Inventory.Len() == 0 {
		return "Your inventory is empty."
	}
	return "You have:\n- " + strings.Join(ps.Inventory.Sorted(), "\n- ")
}

// DescribeReputation lists standing per universe, using name to turn ids
// into display names. A nil name function prints raw ids.
func (ps *PlayerState) DescribeReputation(name func(string) string) string {
	if len(ps.Reputation) == 0 {
		return "Nobody knows you yet."
	}
	ids := make([]string, 0, len(ps.Reputation))
	for id := range ps.Reputation {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	for i, id := range ids {
		if i > 0 {
			b.WriteString("\n")
		}
		label := id
		if name != nil {
			label = name(id)
		}
		fmt.Fprintf(&b, "- %s: %d", label, ps.Reputation[id])
	}
	return b.String()
}

// DescribeStats is the one-line status summary shown in the hub.
func (ps *PlayerState) DescribeStats(totalFragments int) string {
	return fmt.Sprintf("Morality %d | Memory Sync %d%% | Charges %d | Fragments %d/%d",
		ps.Morality, ps.MemorySync, ps.FractureKeyCharges, ps.KeyFragments.Len(), totalFragments)
}
