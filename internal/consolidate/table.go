package consolidate

import (
	"alphadb/internal/history"
	"alphadb/internal/source"
	"alphadb/internal/version"
)

// TableResult is the effective definition of a table at a point in
// history: its primary key (if any) and its live columns in the order
// they were first introduced.
//
// Columns include the changes made at targetVersion itself; the primary
// key is the one in effect just before targetVersion (see
// history.GetPrimaryKey), so a key change at targetVersion is not applied.
type TableResult struct {
	PrimaryKey string
	Columns    map[string]source.ColumnDef
	ColumnOrder []string
}

// Table produces the effective table definition (primary key plus every
// live column) at targetVersion, or at the latest version when empty.
func Table(versions []source.Version, table, targetVersion string) TableResult {
	result := TableResult{
		PrimaryKey: history.GetPrimaryKey(versions, table, targetVersion),
		Columns:    map[string]source.ColumnDef{},
	}

	var introduced []string
	for _, v := range versions {
		if targetVersion != "" && version.Compare(v.ID, targetVersion) > 0 {
			break
		}
		if ct, ok := v.CreateTable[table]; ok {
			introduced = append(introduced, ct.ColumnOrder...)
		}
		if ab, ok := v.AlterTable[table]; ok {
			introduced = append(introduced, ab.AddColumnOrder...)
		}
	}

	seen := map[string]struct{}{}
	for _, name := range introduced {
		renames := history.GetColumnRenames(versions, name, table, source.ASC)
		finalName := name
		if len(renames) > 0 {
			finalName = renames[len(renames)-1].NewName
		}
		if _, dup := seen[finalName]; dup {
			continue
		}
		seen[finalName] = struct{}{}

		attrs := Column(versions, finalName, table, targetVersion)
		if len(attrs) == 0 {
			continue
		}
		result.Columns[finalName] = attrs
		result.ColumnOrder = append(result.ColumnOrder, finalName)
	}
	return result
}
