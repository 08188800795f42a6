// Package source decodes the version-source JSON document and exposes
// typed accessors onto it. It performs no history reasoning of its own;
// that lives in internal/history and internal/consolidate.
package source

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"alphadb/internal/alphadberr"
)

// Order selects the traversal direction for a rename walk.
type Order int

const (
	ASC Order = iota
	DESC
)

// ColumnDef is the raw attribute bag for a column: type, length, null,
// unique, a_i/auto_increment/generated, default, and (only inside
// modifycolumn) recreate.
type ColumnDef map[string]any

func (c ColumnDef) clone() ColumnDef {
	out := make(ColumnDef, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Type returns the column's declared type as written (its case is not
// normalized), or "" if absent.
func (c ColumnDef) Type() string {
	v, ok := c["type"]
	if !ok {
		return ""
	}
	s, _ := v.(string)
	return s
}

// Null reports whether the column allows NULL values.
func (c ColumnDef) Null() bool {
	v, ok := c["null"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Unique reports whether the column has a UNIQUE constraint.
func (c ColumnDef) Unique() bool {
	v, ok := c["unique"]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Identity reports whether the column is an auto-increment/identity column.
// The original source accepts any of a_i, auto_increment, or generated as
// the identity key; this accepts all three defensively.
func (c ColumnDef) Identity() bool {
	for _, key := range []string{"a_i", "auto_increment", "generated"} {
		if v, ok := c[key]; ok {
			if b, ok := v.(bool); ok && b {
				return true
			}
		}
	}
	return false
}

// Length returns the column's declared length and whether one was present.
func (c ColumnDef) Length() (float64, bool) {
	v, ok := c["length"]
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}

// Default returns the column's declared default value and whether one was
// present.
func (c ColumnDef) Default() (any, bool) {
	v, ok := c["default"]
	return v, ok
}

// Recreate returns the value of the modifycolumn-only "recreate" key,
// defaulting to true when absent (the spec's "absent or true" clears the
// accumulated attribute map before merging).
func (c ColumnDef) Recreate() bool {
	v, ok := c["recreate"]
	if !ok {
		return true
	}
	b, ok := v.(bool)
	if !ok {
		return true
	}
	return b
}

// Merge overlays src onto c, in place semantics are not used: Merge returns
// a new map with c's keys overwritten by src's. The "recreate" key is never
// carried into the merged result since it only ever controls the clear
// decision of the caller, never the column's own state.
func (c ColumnDef) Merge(src ColumnDef) ColumnDef {
	out := c.clone()
	for k, v := range src {
		if k == "recreate" {
			continue
		}
		out[k] = v
	}
	return out
}

// ForeignKey describes a createtable foreign-key constraint.
type ForeignKey struct {
	From       string `json:"from"`
	To         string `json:"to"`
	References string `json:"references"`
	OnDelete   string `json:"on_delete,omitempty"`
	OnUpdate   string `json:"on_update,omitempty"`
}

// Validate reports whether all required foreign-key fields are present.
func (fk *ForeignKey) Validate() bool {
	return fk != nil && fk.From != "" && fk.To != "" && fk.References != ""
}

// TableDef is a createtable table definition: a set of column definitions
// plus the reserved primary_key and foreign_key keys.
type TableDef struct {
	Columns    map[string]ColumnDef
	ColumnOrder []string
	PrimaryKey string
	ForeignKey *ForeignKey
}

// UnmarshalJSON splits the reserved primary_key/foreign_key keys out of the
// table's column map, preserving the declared order of the remaining
// column keys by walking the raw JSON token stream directly (Go's
// encoding/json does not preserve object key order through a map).
func (t *TableDef) UnmarshalJSON(data []byte) error {
	keys, vals, err := orderedObjectEntries(data)
	if err != nil {
		return err
	}

	t.Columns = make(map[string]ColumnDef, len(keys))
	for i, key := range keys {
		val := vals[i]
		switch key {
		case "primary_key":
			var pk string
			if err := json.Unmarshal(val, &pk); err != nil {
				return fmt.Errorf("primary_key: %w", err)
			}
			t.PrimaryKey = pk
		case "foreign_key":
			var fk ForeignKey
			if err := json.Unmarshal(val, &fk); err != nil {
				return fmt.Errorf("foreign_key: %w", err)
			}
			t.ForeignKey = &fk
		default:
			var col ColumnDef
			if err := json.Unmarshal(val, &col); err != nil {
				return fmt.Errorf("column %s: %w", key, err)
			}
			t.Columns[key] = col
			t.ColumnOrder = append(t.ColumnOrder, key)
		}
	}
	return nil
}

// orderedObjectEntries walks a JSON object's token stream to recover its
// key order, something encoding/json's map-based decoding discards.
func orderedObjectEntries(data []byte) ([]string, []json.RawMessage, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, nil, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return nil, nil, nil
	}
	var keys []string
	var vals []json.RawMessage
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, nil, err
		}
		key, ok := tok.(string)
		if !ok {
			continue
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, nil, err
		}
		keys = append(keys, key)
		vals = append(vals, raw)
	}
	return keys, vals, nil
}

// AlterBlock is an altertable table alteration: add/modify/drop/rename
// columns plus an optional primary-key change.
type AlterBlock struct {
	AddColumn       map[string]ColumnDef
	AddColumnOrder  []string
	ModifyColumn    map[string]ColumnDef
	ModifyColumnOrder []string
	DropColumn      []string
	RenameColumn    map[string]string
	RenameOrder     []string
	PrimaryKeySet   bool
	PrimaryKey      *string // nil means "drop the primary key"
}

type rawAlterBlock struct {
	AddColumn    map[string]ColumnDef `json:"addcolumn"`
	ModifyColumn map[string]ColumnDef `json:"modifycolumn"`
	DropColumn   []string             `json:"dropcolumn"`
	RenameColumn map[string]string    `json:"renamecolumn"`
	PrimaryKey   *string              `json:"primary_key"`
}

// UnmarshalJSON decodes the alteration block, recording whether
// primary_key was present at all (to distinguish "absent" from "present
// and null"), and preserving declared key order for addcolumn,
// modifycolumn, and renamecolumn.
func (a *AlterBlock) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var r rawAlterBlock
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	a.AddColumn = r.AddColumn
	a.ModifyColumn = r.ModifyColumn
	a.DropColumn = r.DropColumn
	a.RenameColumn = r.RenameColumn
	if _, ok := raw["primary_key"]; ok {
		a.PrimaryKeySet = true
		a.PrimaryKey = r.PrimaryKey
	}
	if v, ok := raw["addcolumn"]; ok {
		a.AddColumnOrder, _, _ = orderedObjectEntries(v)
	}
	if v, ok := raw["modifycolumn"]; ok {
		a.ModifyColumnOrder, _, _ = orderedObjectEntries(v)
	}
	if v, ok := raw["renamecolumn"]; ok {
		a.RenameOrder, _, _ = orderedObjectEntries(v)
	}
	return nil
}

// Version is one entry in a version source's version array.
type Version struct {
	ID          string
	CreateTable map[string]TableDef
	AlterTable  map[string]AlterBlock
	DefaultData map[string]json.RawMessage

	// CreateTableOrder, AlterTableOrder and DefaultDataOrder preserve the
	// table insertion order of each section, since Go maps don't.
	CreateTableOrder []string
	AlterTableOrder  []string
	DefaultDataOrder []string
}

type rawVersion struct {
	ID          string                     `json:"_id"`
	CreateTable map[string]TableDef        `json:"createtable"`
	AlterTable  map[string]AlterBlock      `json:"altertable"`
	DefaultData map[string]json.RawMessage `json:"default_data"`
}

func (v *Version) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	var r rawVersion
	if err := json.Unmarshal(data, &r); err != nil {
		return err
	}
	v.ID = r.ID
	v.CreateTable = r.CreateTable
	v.AlterTable = r.AlterTable
	v.DefaultData = r.DefaultData
	if ct, ok := raw["createtable"]; ok {
		v.CreateTableOrder, _, _ = orderedObjectEntries(ct)
	}
	if at, ok := raw["altertable"]; ok {
		v.AlterTableOrder, _, _ = orderedObjectEntries(at)
	}
	if dd, ok := raw["default_data"]; ok {
		v.DefaultDataOrder, _, _ = orderedObjectEntries(dd)
	}
	return nil
}

// Source is the decoded version-source document.
type Source struct {
	Name    string    `json:"name"`
	Version []Version `json:"version"`
}

// Parse decodes raw JSON bytes into a Source. It first validates the
// document's shape against a JSON Schema, then runs the typed decode that
// recovers declaration order.
func Parse(data []byte) (*Source, error) {
	if err := validateStructure(data); err != nil {
		return nil, err
	}
	var s Source
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, alphadberr.New(alphadberr.CodeIncompleteVersionObject, "malformed version source: "+err.Error())
	}
	return &s, nil
}

// VersionIDs returns every _id in array order.
func (s *Source) VersionIDs() []string {
	out := make([]string, len(s.Version))
	for i, v := range s.Version {
		out[i] = v.ID
	}
	return out
}

// DefaultDataIndex parses a default_data object-patch key ("0", "1", ...)
// into an integer row index.
func DefaultDataIndex(key string) (int, error) {
	n, err := strconv.Atoi(key)
	if err != nil {
		return 0, alphadberr.New(alphadberr.CodeInvalidDefaultDataIndex, "invalid default_data index: "+key)
	}
	return n, nil
}
