// Package history walks a version source's version array to resolve
// column rename chains, column drops, and primary-key history. It performs
// no folding of attributes; that is internal/consolidate's job.
package history

import (
	"alphadb/internal/source"
	"alphadb/internal/version"
)

// Rename is one hop in a column's rename chain.
type Rename struct {
	OldName       string
	NewName       string
	RenameVersion string
}

// GetColumnRenames traces column through the version array's renamecolumn
// entries for table, in the requested order.
//
// In ASC order the walk starts from column's current name and follows
// forward through versions: whenever a renamecolumn key matches the
// name currently being tracked, the hop is recorded and the walk
// continues tracking the renamed-to value. In DESC order the walk starts
// from column and goes backward: whenever a renamecolumn value matches
// the name currently tracked, the hop is recorded and the walk continues
// tracking the pre-rename key.
//
// Both directions are recursive in effect: once a hop is found the walker
// restarts scanning from the first version (ASC) or the last version
// (DESC) under the new tracked name,
// so chained renames are followed to their end. Hops already recorded (by
// RenameVersion) are never re-emitted.
func GetColumnRenames(versions []source.Version, column, table string, order source.Order) []Rename {
	seen := map[string]struct{}{}
	var out []Rename

	switch order {
	case source.ASC:
		tracked := column
		for i := 0; i < len(versions); i++ {
			v := versions[i]
			ab, ok := v.AlterTable[table]
			if !ok || ab.RenameColumn == nil {
				continue
			}
			newName, ok := ab.RenameColumn[tracked]
			if !ok {
				continue
			}
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			out = append(out, Rename{OldName: tracked, NewName: newName, RenameVersion: v.ID})
			tracked = newName
			i = -1 // restart the scan under the new tracked name to catch chains
		}
	case source.DESC:
		tracked := column
		for i := len(versions) - 1; i >= 0; i-- {
			v := versions[i]
			ab, ok := v.AlterTable[table]
			if !ok || ab.RenameColumn == nil {
				continue
			}
			oldName, found := "", false
			for old, new := range ab.RenameColumn {
				if new == tracked {
					oldName, found = old, true
					break
				}
			}
			if !found {
				continue
			}
			if _, dup := seen[v.ID]; dup {
				continue
			}
			seen[v.ID] = struct{}{}
			out = append(out, Rename{OldName: oldName, NewName: tracked, RenameVersion: v.ID})
			tracked = oldName
			i = len(versions) // restart the backward scan (loop decrements to len-1)
		}
	}
	return out
}

// GetColumnDrops returns every version id in which table's dropcolumn
// block contained column.
func GetColumnDrops(versions []source.Version, column, table string) []string {
	var out []string
	for _, v := range versions {
		ab, ok := v.AlterTable[table]
		if !ok {
			continue
		}
		for _, dropped := range ab.DropColumn {
			if dropped == column {
				out = append(out, v.ID)
				break
			}
		}
	}
	return out
}

// WillColumnBeDropped reports whether column (in table) is dropped at any
// version greater than or equal to target. It only looks forward from
// target; a re-addition after a later drop is not distinguished (this
// matches the forward-only check used by default-data consolidation).
func WillColumnBeDropped(versions []source.Version, column, table, target string) bool {
	targetN, err := version.Parse(target)
	if err != nil {
		return false
	}
	for _, drop := range GetColumnDrops(versions, column, table) {
		dropN, err := version.Parse(drop)
		if err != nil {
			continue
		}
		if dropN >= targetN {
			return true
		}
	}
	return false
}

// GetPrimaryKey traces the effective primary key of table just before
// targetVersion, applying in version order: createtable.primary_key sets
// it, altertable.primary_key overrides or (if null) clears it, a
// dropcolumn containing the current key clears it, and a renamecolumn of
// the current key rewrites it in place.
func GetPrimaryKey(versions []source.Version, table, targetVersion string) string {
	hasTarget := targetVersion != ""
	targetN := 0
	if hasTarget {
		n, err := version.Parse(targetVersion)
		if err != nil {
			hasTarget = false
		} else {
			targetN = n
		}
	}

	pk := ""
	for _, v := range versions {
		vn, err := version.Parse(v.ID)
		if err != nil {
			continue
		}
		if hasTarget && vn >= targetN {
			break
		}

		if ct, ok := v.CreateTable[table]; ok && ct.PrimaryKey != "" {
			pk = ct.PrimaryKey
		}

		ab, ok := v.AlterTable[table]
		if !ok {
			continue
		}

		if ab.PrimaryKeySet {
			if ab.PrimaryKey == nil {
				pk = ""
			} else {
				pk = *ab.PrimaryKey
			}
		}

		if pk != "" {
			for _, dropped := range ab.DropColumn {
				if dropped == pk {
					pk = ""
					break
				}
			}
		}

		if pk != "" && ab.RenameColumn != nil {
			if newName, ok := ab.RenameColumn[pk]; ok {
				pk = newName
			}
		}
	}
	return pk
}
