package snapshot

import (
	"fmt"
	"strings"

	"github.com/sportsdesk/cmx/internal/shared"
)

// TablesVersion tracks the legacy id tables below. Bump it when the legacy
// CMS taxonomy changes so stale snapshots are easy to spot in logs.
const TablesVersion = 1

// The destination keeps no record of legacy numeric ids, so taxonomy rows
// are matched back by name. Names are compared case-insensitively.
var (
	websiteLegacyIDs = map[string]int{
		"ONE SPORTS": 7,
	}

	categoryLegacyIDs = map[string]int{
		"NEWS":        2,
		"EDITORIAL":   16,
		"FEATURES":    17,
		"SPORTS LIFE": 18,
		"VIDEOS":      19,
	}

	leagueLegacyIDs = map[string]int{
		"GILAS":       6,
		"MORE SPORTS": 7,
		"PBA":         9,
		"PVL":         10,
		"UAAP":        11,
		"ESPORTS":     16,
		"PARIS 2024":  21,
		"ALAS":        22,
	}
)

// legacyID resolves a destination row name against one table.
func legacyID(table map[string]int, name string) (int, bool) {
	id, ok := table[strings.ToUpper(strings.TrimSpace(name))]
	return id, ok
}

// validateTables rejects malformed tables at startup instead of silently
// producing an empty snapshot later.
func validateTables() error {
	for label, table := range map[string]map[string]int{
		"website":  websiteLegacyIDs,
		"category": categoryLegacyIDs,
		"league":   leagueLegacyIDs,
	} {
		if len(table) == 0 {
			return fmt.Errorf("%w: %s legacy id table is empty", shared.ErrInvalidConfig, label)
		}
		seen := make(map[int]string, len(table))
		for name, id := range table {
			if id <= 0 {
				return fmt.Errorf("%w: %s %q has invalid legacy id %d", shared.ErrInvalidConfig, label, name, id)
			}
			if prev, ok := seen[id]; ok {
				return fmt.Errorf("%w: %s legacy id %d claimed by both %q and %q", shared.ErrInvalidConfig, label, id, prev, name)
			}
			seen[id] = name
		}
	}
	return nil
}
