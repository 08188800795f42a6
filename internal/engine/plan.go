// Package engine implements the Engine façade: connect, init, status,
// update_queries, update, and vacate, parameterized by a SQL dialect.
package engine

import (
	"encoding/json"
	"strconv"

	"alphadb/internal/alphadberr"
	"alphadb/internal/consolidate"
	"alphadb/internal/dialect"
	"alphadb/internal/history"
	"alphadb/internal/source"
	"alphadb/internal/version"
)

// ConfigTable is the reserved configuration-table name shared by every engine.
const ConfigTable = "adb_conf"

// Query is one statement and its positional parameters.
type Query struct {
	SQL  string
	Args []any
}

func clearIdentity(def source.ColumnDef) source.ColumnDef {
	out := source.ColumnDef{}
	for k, v := range def {
		switch k {
		case "a_i", "auto_increment", "generated":
			continue
		default:
			out[k] = v
		}
	}
	return out
}

func previousVersionID(versions []source.Version, index int) string {
	if index <= 0 {
		return ""
	}
	return versions[index-1].ID
}

// buildCreateTable renders one CREATE TABLE statement for table at version v.
func buildCreateTable(table string, def source.TableDef, gen dialect.Generator) (Query, error) {
	sql, err := gen.CreateTableStatement(table, def.ColumnOrder, def.Columns, def.PrimaryKey, def.ForeignKey)
	if err != nil {
		return Query{}, err
	}
	return Query{SQL: sql}, nil
}

// buildAlterTable renders the single ALTER TABLE statement for table at
// versions[index], applying the clause ordering rules: primary-key
// pre-change rewrite, drops, adds, modifies, renames, then the
// primary-key change itself.
func buildAlterTable(versions []source.Version, index int, table string, gen dialect.Generator) (Query, error) {
	v := versions[index]
	ab, ok := v.AlterTable[table]
	if !ok {
		return Query{}, nil
	}
	prevID := previousVersionID(versions, index)
	var clauses []string

	if ab.PrimaryKeySet {
		prevPK := history.GetPrimaryKey(versions, table, v.ID)
		if prevPK != "" {
			currentName := prevPK
			if renames := history.GetColumnRenames(versions, prevPK, table, source.ASC); len(renames) > 0 {
				currentName = renames[len(renames)-1].NewName
			}
			consolidated := consolidate.Column(versions, currentName, table, prevID)
			if len(consolidated) > 0 {
				def := consolidated
				if ab.PrimaryKey != nil && *ab.PrimaryKey != currentName {
					def = clearIdentity(consolidated)
				}
				clause, err := gen.ModifyColumnClause(currentName, def)
				if err != nil {
					return Query{}, wrapTrace(err, v.ID, "altertable", "table:"+table, "column:"+currentName)
				}
				clauses = append(clauses, clause)
			}
		}
	}

	for _, name := range ab.DropColumn {
		clauses = append(clauses, gen.DropColumnClause(name))
	}

	for _, name := range ab.AddColumnOrder {
		clause, err := gen.AddColumnClause(name, ab.AddColumn[name])
		if err != nil {
			return Query{}, wrapTrace(err, v.ID, "altertable", "table:"+table, "column:"+name)
		}
		clauses = append(clauses, clause)
	}

	for _, name := range ab.ModifyColumnOrder {
		def := ab.ModifyColumn[name]
		if !def.Recreate() {
			def = consolidate.Column(versions, name, table, prevID).Merge(def)
		}
		clause, err := gen.ModifyColumnClause(name, def)
		if err != nil {
			return Query{}, wrapTrace(err, v.ID, "altertable", "table:"+table, "column:"+name)
		}
		clauses = append(clauses, clause)
	}

	for _, old := range ab.RenameOrder {
		clauses = append(clauses, gen.RenameColumnClause(old, ab.RenameColumn[old]))
	}

	if ab.PrimaryKeySet {
		prevPK := history.GetPrimaryKey(versions, table, v.ID)
		if ab.PrimaryKey == nil {
			if prevPK != "" {
				clauses = append(clauses, gen.DropPrimaryKeyClause())
			}
		} else {
			if prevPK != "" {
				clauses = append(clauses, gen.DropPrimaryKeyClause())
			}
			clauses = append(clauses, gen.AddPrimaryKeyClause(*ab.PrimaryKey))
		}
	}

	if len(clauses) == 0 {
		return Query{}, nil
	}
	return Query{SQL: gen.AlterTableStatement(table, clauses)}, nil
}

func wrapTrace(err error, trace ...string) error {
	return alphadberr.Wrap(alphadberr.CodeIncompatibleVersionAttrs, err, trace...)
}

// stringifyParam renders a seed-data value the way default-data insert
// parameters are serialized: bools to "true"/"false", numbers to their
// decimal form, objects/arrays to their JSON string, everything else as-is.
func stringifyParam(v any) (any, bool) {
	if v == nil {
		return nil, false
	}
	switch val := v.(type) {
	case bool:
		if val {
			return "true", true
		}
		return "false", true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return v, true
		}
		return string(b), true
	default:
		return v, true
	}
}

// buildInserts renders one INSERT statement per consolidated seed row.
func buildInserts(result *consolidate.DefaultDataResult, gen dialect.Generator) []Query {
	var out []Query
	for _, table := range result.TableOrder {
		for _, row := range result.Tables[table] {
			var cols []string
			var args []any
			for _, k := range row.Keys() {
				val, _ := row.Get(k)
				param, ok := stringifyParam(val)
				if !ok {
					continue
				}
				cols = append(cols, k)
				args = append(args, param)
			}
			if len(cols) == 0 {
				continue
			}
			out = append(out, Query{SQL: gen.InsertStatement(table, cols), Args: args})
		}
	}
	return out
}

// Plan builds the ordered statement list for advancing db from stored
// version up to target, following §4.11's orchestration steps 4-8. It does
// not touch the configuration row's read/validate steps (1-3); callers
// supply the already-validated stored version and resolved target.
func Plan(src *source.Source, storedVersion, target, dbName string, noData bool, gen dialect.Generator) ([]Query, error) {
	var queries []Query

	for i, v := range src.Version {
		if storedVersion != "" && version.Compare(v.ID, storedVersion) <= 0 {
			continue
		}
		if version.Compare(v.ID, target) > 0 {
			break
		}

		for _, table := range v.CreateTableOrder {
			def, ok := v.CreateTable[table]
			if !ok {
				continue
			}
			q, err := buildCreateTable(table, def, gen)
			if err != nil {
				return nil, wrapTrace(err, v.ID, "createtable", "table:"+table)
			}
			queries = append(queries, q)
		}

		for _, table := range v.AlterTableOrder {
			q, err := buildAlterTable(src.Version, i, table, gen)
			if err != nil {
				return nil, err
			}
			if q.SQL != "" {
				queries = append(queries, q)
			}
		}
	}

	if !noData {
		data, err := consolidate.DefaultDataConsolidate(src.Version, target)
		if err != nil {
			return nil, err
		}
		queries = append(queries, buildInserts(data, gen)...)
	}

	queries = append(queries, Query{
		SQL:  gen.ConfigUpdateStatement(ConfigTable),
		Args: []any{target, src.Name, dbName},
	})

	return queries, nil
}

// ResolveTarget validates an explicit target's version-number format or
// falls back to the latest version in src. It does not require explicit to
// name a version actually present in src: it is used purely as a numeric
// upper bound on the versions to apply, and is written as-is into the
// configuration row's recorded version.
func ResolveTarget(src *source.Source, explicit string) (string, error) {
	if explicit == "" {
		return version.Latest(src.VersionIDs()), nil
	}
	if !version.Valid(explicit) {
		return "", alphadberr.New(alphadberr.CodeInvalidVersionNumber, "invalid target version: "+explicit, explicit)
	}
	return explicit, nil
}
