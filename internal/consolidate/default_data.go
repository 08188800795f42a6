package consolidate

import (
	"encoding/json"
	"sort"
	"strconv"

	"alphadb/internal/alphadberr"
	"alphadb/internal/history"
	"alphadb/internal/source"
	"alphadb/internal/version"
)

// Row is one seed-data row, preserving the column order it was built in
// (row-to-INSERT rendering depends on a stable column order).
type Row struct {
	keys   []string
	values map[string]any
}

func newRow() *Row {
	return &Row{values: map[string]any{}}
}

// Keys returns the row's columns in insertion order.
func (r *Row) Keys() []string {
	return r.keys
}

// Get returns the value stored for key and whether it was present.
func (r *Row) Get(key string) (any, bool) {
	v, ok := r.values[key]
	return v, ok
}

// Set assigns value to key, appending key to the order if it is new.
func (r *Row) Set(key string, value any) {
	if _, ok := r.values[key]; !ok {
		r.keys = append(r.keys, key)
	}
	r.values[key] = value
}

// Delete removes key from the row entirely.
func (r *Row) Delete(key string) {
	if _, ok := r.values[key]; !ok {
		return
	}
	delete(r.values, key)
	for i, k := range r.keys {
		if k == key {
			r.keys = append(r.keys[:i], r.keys[i+1:]...)
			break
		}
	}
}

func (r *Row) clone() *Row {
	out := newRow()
	for _, k := range r.keys {
		out.Set(k, r.values[k])
	}
	return out
}

// MarshalJSON renders the row as a plain object in its preserved column
// order, since its fields are otherwise unexported.
func (r *Row) MarshalJSON() ([]byte, error) {
	var b []byte
	b = append(b, '{')
	for i, k := range r.keys {
		if i > 0 {
			b = append(b, ',')
		}
		keyJSON, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		valJSON, err := json.Marshal(r.values[k])
		if err != nil {
			return nil, err
		}
		b = append(b, keyJSON...)
		b = append(b, ':')
		b = append(b, valJSON...)
	}
	b = append(b, '}')
	return b, nil
}

// DefaultData is the consolidated seed data, keyed by table name with
// rows in append order.
type DefaultData map[string][]*Row

// DefaultDataResult also carries the table insertion order so callers can
// render tables in the order they first appeared.
type DefaultDataResult struct {
	Tables     DefaultData
	TableOrder []string
}

// DefaultDataConsolidate folds every version's default_data block (≤
// targetVersion, or all versions when empty) into a single ordered result.
//
// Array entries append a new row per element, with each column rewritten
// to its final (ASC-resolved) name and dropped-before-target columns
// filtered out. Object entries are index-keyed patches: a null value
// removes the key from the existing row at that index; any other value
// either patches the existing row or, if the index is new, appends a
// fresh row built from the patch alone.
func DefaultDataConsolidate(versions []source.Version, targetVersion string) (*DefaultDataResult, error) {
	result := &DefaultDataResult{Tables: DefaultData{}}

	// Drops are looked up only among versions up to targetVersion, so a
	// column dropped after the target still receives its seeded values.
	bounded := versions
	if targetVersion != "" {
		for i, v := range versions {
			if version.Compare(v.ID, targetVersion) > 0 {
				bounded = versions[:i]
				break
			}
		}
	}

	for _, v := range versions {
		if targetVersion != "" && version.Compare(v.ID, targetVersion) > 0 {
			break
		}
		if len(v.DefaultData) == 0 {
			continue
		}

		for _, table := range v.DefaultDataOrder {
			raw, ok := v.DefaultData[table]
			if !ok {
				continue
			}
			if _, known := result.Tables[table]; !known {
				result.TableOrder = append(result.TableOrder, table)
			}

			if isJSONArray(raw) {
				var rows []map[string]any
				if err := json.Unmarshal(raw, &rows); err != nil {
					return nil, alphadberr.New(alphadberr.CodeIncompleteVersionObject, "malformed default_data array for "+table, v.ID, "default_data", "table:"+table)
				}
				for _, rawRow := range rows {
					row := newRow()
					for _, col := range orderedMapKeys(rawRow) {
						if history.WillColumnBeDropped(bounded, col, table, v.ID) {
							continue
						}
						finalCol := col
						renames := history.GetColumnRenames(versions, col, table, source.ASC)
						if len(renames) > 0 {
							finalCol = renames[len(renames)-1].NewName
						}
						row.Set(finalCol, rawRow[col])
					}
					result.Tables[table] = append(result.Tables[table], row)
				}
				continue
			}

			var patch map[string]map[string]any
			if err := json.Unmarshal(raw, &patch); err != nil {
				return nil, alphadberr.New(alphadberr.CodeIncompleteVersionObject, "malformed default_data patch for "+table, v.ID, "default_data", "table:"+table)
			}
			for _, idxKey := range sortedNumericKeys(patch) {
				idx, err := strconv.Atoi(idxKey)
				if err != nil {
					return nil, alphadberr.New(alphadberr.CodeInvalidDefaultDataIndex, "invalid default_data index: "+idxKey, v.ID, "default_data", "table:"+table)
				}
				fields := patch[idxKey]

				existing := result.Tables[table]
				if idx < 0 || idx >= len(existing) {
					row := newRow()
					for _, col := range orderedMapKeys(fields) {
						row.Set(col, fields[col])
					}
					result.Tables[table] = append(result.Tables[table], row)
					continue
				}

				row := existing[idx]
				for _, col := range orderedMapKeys(fields) {
					val := fields[col]
					if val == nil {
						row.Delete(col)
						continue
					}
					row.Set(col, val)
				}
			}
		}
	}

	return result, nil
}

func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// orderedMapKeys sorts keys for deterministic iteration; Go's JSON decode
// into map[string]any does not preserve source order and the original
// engine does not depend on patch-field order, only on row/table order.
func orderedMapKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedNumericKeys(m map[string]map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ni, erri := strconv.Atoi(keys[i])
		nj, errj := strconv.Atoi(keys[j])
		if erri != nil || errj != nil {
			return keys[i] < keys[j]
		}
		return ni < nj
	})
	return keys
}
