package storage

import (
	"fmt"

	"github.com/felixgeelhaar/ticklist/pkg/domain/checklist"
)

// migrateState upgrades a loaded document to the current schema version in
// place, one version at a time. Migrations are additive: older documents gain
// fields, nothing is dropped. Returns the version the document arrived at.
func migrateState(st *checklist.ChecklistState) (from int, err error) {
	from = st.Version
	if from < 1 {
		// Pre-versioned documents are treated as version 1.
		from = 1
		st.Version = 1
	}
	if from > checklist.CurrentVersion {
		return from, fmt.Errorf("state version %d is newer than supported version %d", from, checklist.CurrentVersion)
	}

	for st.Version < checklist.CurrentVersion {
		switch st.Version {
		case 1:
			// Version 2 introduced the jumbo cactpot stamp. The drawing is
			// weekly, so the last weekly boundary is the closest honest
			// backfill; a zero weekly stamp stays zero and reconciles on the
			// next tick.
			st.Resets.JumboCactpot = st.Resets.Weekly
			st.Version = 2
		default:
			return from, fmt.Errorf("no migration from state version %d", st.Version)
		}
	}
	return from, nil
}
