// Package consolidate folds a version source's history into single
// effective definitions: per column, per table, for the seed data, and
// for the source as a whole.
package consolidate

import (
	"alphadb/internal/history"
	"alphadb/internal/source"
	"alphadb/internal/version"
)

// Column produces the effective attribute map for column in table, as of
// targetVersion (every version whose _id does not exceed targetVersion is
// applied, the target itself included; the walk short-circuits once a
// version's _id exceeds targetVersion). An
// empty targetVersion means "the latest version in versions".
func Column(versions []source.Version, column, table, targetVersion string) source.ColumnDef {
	if targetVersion == "" {
		targetVersion = version.Latest(ids(versions))
	}
	targetN, err := version.Parse(targetVersion)
	if err != nil {
		targetN = 0
	}

	renames := history.GetColumnRenames(versions, column, table, source.DESC)

	attrs := source.ColumnDef{}
	for _, v := range versions {
		vn, err := version.Parse(v.ID)
		if err != nil {
			continue
		}
		if vn > targetN {
			break
		}

		histName := historicalName(column, v.ID, renames)

		if ct, ok := v.CreateTable[table]; ok {
			if col, ok := ct.Columns[histName]; ok {
				attrs = attrs.Merge(col)
			}
		}

		if ab, ok := v.AlterTable[table]; ok {
			if col, ok := ab.ModifyColumn[histName]; ok {
				if col.Recreate() {
					attrs = source.ColumnDef{}
				}
				attrs = attrs.Merge(col)
			}
			for _, dropped := range ab.DropColumn {
				if dropped == histName {
					attrs = source.ColumnDef{}
				}
			}
			if col, ok := ab.AddColumn[histName]; ok {
				attrs = attrs.Merge(col)
			}
		}
	}
	return attrs
}

// historicalName resolves the name column was known by at versionID.
// renames is ordered newest-first (the DESC chain); walking it oldest to
// newest and stopping at the first rename whose RenameVersion is >=
// versionID gives the smallest qualifying rename, whose pre-rename name is
// what the column was called at versionID. If no rename qualifies,
// versionID is after every rename and the column is already known by its
// final (current) name.
func historicalName(column, versionID string, renames []history.Rename) string {
	vn, err := version.Parse(versionID)
	if err != nil {
		return column
	}
	for i := len(renames) - 1; i >= 0; i-- {
		r := renames[i]
		rn, err := version.Parse(r.RenameVersion)
		if err != nil {
			continue
		}
		if vn <= rn {
			return r.OldName
		}
	}
	return column
}

// ColumnType yields only the type string of Column's consolidated
// definition. A column created or recreated without a type stays typeless
// until a later operation merges a type in; that includes a recreate:false
// modifycolumn carrying a type, not only a recreate:true one.
func ColumnType(versions []source.Version, column, table, targetVersion string) (string, bool) {
	attrs := Column(versions, column, table, targetVersion)
	t := attrs.Type()
	if t == "" {
		return "", false
	}
	return t, true
}

func ids(versions []source.Version) []string {
	out := make([]string, len(versions))
	for i, v := range versions {
		out[i] = v.ID
	}
	return out
}
