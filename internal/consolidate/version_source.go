package consolidate

import (
	"alphadb/internal/source"
	"alphadb/internal/version"
)

// VersionSourceResult is the single-version document produced by folding
// every table and every seed row of a source into one effective state.
type VersionSourceResult struct {
	Name        string
	ID          string
	Tables      map[string]TableResult
	TableOrder  []string
	DefaultData *DefaultDataResult
}

// VersionSource produces a single-version document equivalent to src: the
// union of every table's consolidation at the latest version, the full
// default-data fold, the latest _id, and the preserved template name.
//
// The identity law this supports is that applying src to a fresh database
// and applying VersionSource(src) to a fresh database yield the same live
// schema and seed data.
func VersionSource(src *source.Source) (*VersionSourceResult, error) {
	var tableOrder []string
	seen := map[string]struct{}{}
	for _, v := range src.Version {
		for _, table := range v.CreateTableOrder {
			if _, ok := seen[table]; ok {
				continue
			}
			seen[table] = struct{}{}
			tableOrder = append(tableOrder, table)
		}
	}

	tables := make(map[string]TableResult, len(tableOrder))
	for _, table := range tableOrder {
		tables[table] = Table(src.Version, table, "")
	}

	defaultData, err := DefaultDataConsolidate(src.Version, "")
	if err != nil {
		return nil, err
	}

	return &VersionSourceResult{
		Name:        src.Name,
		ID:          version.Latest(src.VersionIDs()),
		Tables:      tables,
		TableOrder:  tableOrder,
		DefaultData: defaultData,
	}, nil
}
