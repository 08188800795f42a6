// Package postgres implements the PostgreSQL SQL generator.
package postgres

import (
	"fmt"
	"strconv"
	"strings"

	"alphadb/internal/dialect"
	"alphadb/internal/source"
	"alphadb/internal/verify"
)

func init() {
	dialect.RegisterDialect(dialect.PostgreSQL, func() dialect.Dialect {
		return &Dialect{generator: &Generator{}}
	})
}

// Dialect is the PostgreSQL dialect handle.
type Dialect struct {
	generator *Generator
}

// Name returns the PostgreSQL dialect type.
func (d *Dialect) Name() dialect.Type { return dialect.PostgreSQL }

// Generator returns the PostgreSQL SQL generator.
func (d *Dialect) Generator() dialect.Generator { return d.generator }

// Generator is a stateless PostgreSQL SQL generator.
type Generator struct{}

// mysqlTypeAliases maps the source's MySQL-flavored type vocabulary onto
// PostgreSQL equivalents; version sources are written once and rendered
// per dialect, so the declared type is always the MySQL name.
var mysqlTypeAliases = map[string]string{
	"INT":      "INTEGER",
	"TINYINT":  "SMALLINT",
	"BIGINT":   "BIGINT",
	"TEXT":     "TEXT",
	"LONGTEXT": "TEXT",
	"FLOAT":    "REAL",
	"DECIMAL":  "NUMERIC",
	"VARCHAR":  "VARCHAR",
	"DATETIME": "TIMESTAMP",
	"JSON":     "JSONB",
}

var identityIncompatible = map[string]bool{
	"varchar": true, "text": true, "longtext": true,
	"datetime": true, "decimal": true, "json": true,
}

var uniqueIncompatible = map[string]bool{
	"json": true,
}

// Name returns the PostgreSQL dialect type.
func (g *Generator) Name() dialect.Type { return dialect.PostgreSQL }

// QuoteIdentifier double-quotes an identifier, doubling embedded quotes.
func (g *Generator) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, `"`, `""`)
	return `"` + name + `"`
}

// QuoteString single-quotes a value using PostgreSQL's doubled-quote escape.
func (g *Generator) QuoteString(value string) string {
	return "'" + strings.ReplaceAll(value, "'", "''") + "'"
}

func (g *Generator) renderType(typ string) string {
	upper := strings.ToUpper(typ)
	if mapped, ok := mysqlTypeAliases[upper]; ok {
		return mapped
	}
	return upper
}

// ColumnFragment renders "name TYPE(len) NOT NULL UNIQUE DEFAULT x
// GENERATED BY DEFAULT AS IDENTITY" in that fixed clause order.
func (g *Generator) ColumnFragment(name string, def source.ColumnDef) (string, error) {
	declared := def.Type()
	if declared == "" {
		return "", fmt.Errorf("column %s has no type", name)
	}

	lower := strings.ToLower(declared)
	if def.Identity() && def.Null() {
		return "", fmt.Errorf("column %s: identity attribute is incompatible with NULL", name)
	}
	if def.Identity() && identityIncompatible[lower] {
		return "", fmt.Errorf("column %s: type %s is incompatible with an identity attribute", name, declared)
	}
	if def.Unique() && uniqueIncompatible[lower] {
		return "", fmt.Errorf("column %s: type %s is incompatible with attribute UNIQUE", name, declared)
	}

	var b strings.Builder
	b.WriteString(g.QuoteIdentifier(name))
	b.WriteByte(' ')
	b.WriteString(g.renderType(declared))
	if length, ok := def.Length(); ok && lower != "json" {
		b.WriteByte('(')
		b.WriteString(dialect.FormatLength(declared, length))
		b.WriteByte(')')
	}

	if !def.Null() {
		b.WriteString(" NOT NULL")
	}
	if def.Unique() {
		b.WriteString(" UNIQUE")
	}
	if val, ok := def.Default(); ok {
		b.WriteString(" DEFAULT ")
		b.WriteString(dialect.FormatDefault(val, g.QuoteString))
	}
	if def.Identity() {
		b.WriteString(" GENERATED BY DEFAULT AS IDENTITY")
	}
	return b.String(), nil
}

// CreateTableStatement renders CREATE TABLE with inline PRIMARY KEY and
// FOREIGN KEY constraints.
func (g *Generator) CreateTableStatement(table string, columnOrder []string, columns map[string]source.ColumnDef, primaryKey string, fk *source.ForeignKey) (string, error) {
	var lines []string
	for _, name := range columnOrder {
		def, ok := columns[name]
		if !ok {
			continue
		}
		frag, err := g.ColumnFragment(name, def)
		if err != nil {
			return "", err
		}
		lines = append(lines, "  "+frag)
	}
	if primaryKey != "" {
		lines = append(lines, "  PRIMARY KEY ("+g.QuoteIdentifier(primaryKey)+")")
	}
	if fk != nil {
		if !fk.Validate() {
			return "", fmt.Errorf("table %s: incomplete foreign key definition", table)
		}
		line := fmt.Sprintf("  FOREIGN KEY (%s) REFERENCES %s (%s)", g.QuoteIdentifier(fk.From), g.QuoteIdentifier(fk.References), g.QuoteIdentifier(fk.To))
		if fk.OnDelete != "" {
			line += " ON DELETE " + fk.OnDelete
		}
		if fk.OnUpdate != "" {
			line += " ON UPDATE " + fk.OnUpdate
		}
		lines = append(lines, line)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n)", g.QuoteIdentifier(table), strings.Join(lines, ",\n")), nil
}

// DropTableStatement renders DROP TABLE IF EXISTS … CASCADE.
func (g *Generator) DropTableStatement(table string) string {
	return "DROP TABLE IF EXISTS " + g.QuoteIdentifier(table) + " CASCADE"
}

// DropColumnClause renders a DROP COLUMN clause fragment.
func (g *Generator) DropColumnClause(name string) string {
	return "DROP COLUMN " + g.QuoteIdentifier(name)
}

// AddColumnClause renders an ADD COLUMN clause fragment.
func (g *Generator) AddColumnClause(name string, def source.ColumnDef) (string, error) {
	frag, err := g.ColumnFragment(name, def)
	if err != nil {
		return "", err
	}
	return "ADD COLUMN " + frag, nil
}

// ModifyColumnClause renders PostgreSQL's ALTER COLUMN form: since
// PostgreSQL has no single MODIFY clause, this emits a group of ALTER
// COLUMN sub-clauses joined by ", " (not parenthesized) so the caller can still treat
// it as one clause in the outer ALTER TABLE clause list.
func (g *Generator) ModifyColumnClause(name string, def source.ColumnDef) (string, error) {
	declared := def.Type()
	if declared == "" {
		return "", fmt.Errorf("column %s has no type", name)
	}
	col := g.QuoteIdentifier(name)

	lower := strings.ToLower(declared)
	if def.Identity() && def.Null() {
		return "", fmt.Errorf("column %s: identity attribute is incompatible with NULL", name)
	}
	if def.Identity() && identityIncompatible[lower] {
		return "", fmt.Errorf("column %s: type %s is incompatible with an identity attribute", name, declared)
	}
	if def.Unique() && uniqueIncompatible[lower] {
		return "", fmt.Errorf("column %s: type %s is incompatible with attribute UNIQUE", name, declared)
	}

	var parts []string
	typeClause := "ALTER COLUMN " + col + " TYPE " + g.renderType(declared)
	if length, ok := def.Length(); ok && lower != "json" {
		typeClause += "(" + dialect.FormatLength(declared, length) + ")"
	}
	parts = append(parts, typeClause)

	if def.Null() {
		parts = append(parts, "ALTER COLUMN "+col+" DROP NOT NULL")
	} else {
		parts = append(parts, "ALTER COLUMN "+col+" SET NOT NULL")
	}

	if val, ok := def.Default(); ok {
		parts = append(parts, "ALTER COLUMN "+col+" SET DEFAULT "+dialect.FormatDefault(val, g.QuoteString))
	} else {
		parts = append(parts, "ALTER COLUMN "+col+" DROP DEFAULT")
	}

	if def.Identity() {
		parts = append(parts, "ALTER COLUMN "+col+" ADD GENERATED BY DEFAULT AS IDENTITY")
	} else {
		parts = append(parts, "ALTER COLUMN "+col+" DROP IDENTITY IF EXISTS")
	}

	return strings.Join(parts, ", "), nil
}

// RenameColumnClause renders a RENAME COLUMN clause fragment.
func (g *Generator) RenameColumnClause(old, new string) string {
	return "RENAME COLUMN " + g.QuoteIdentifier(old) + " TO " + g.QuoteIdentifier(new)
}

// DropPrimaryKeyClause renders DROP CONSTRAINT for the table's primary key;
// PostgreSQL names primary-key constraints "<table>_pkey" by default, which
// the caller supplies in place of a fixed keyword via AlterTableStatement's
// table argument.
func (g *Generator) DropPrimaryKeyClause() string {
	return "DROP CONSTRAINT IF EXISTS __PK_PLACEHOLDER__"
}

// AddPrimaryKeyClause renders an ADD PRIMARY KEY clause fragment.
func (g *Generator) AddPrimaryKeyClause(col string) string {
	return "ADD PRIMARY KEY (" + g.QuoteIdentifier(col) + ")"
}

// AlterTableStatement joins per-column clauses into one ALTER TABLE
// statement, substituting the conventional "<table>_pkey" constraint name
// into any pending DROP CONSTRAINT placeholder.
func (g *Generator) AlterTableStatement(table string, clauses []string) string {
	pkName := strings.Trim(g.QuoteIdentifier(table), `"`) + "_pkey"
	out := make([]string, len(clauses))
	for i, c := range clauses {
		out[i] = strings.ReplaceAll(c, "__PK_PLACEHOLDER__", g.QuoteIdentifier(pkName))
	}
	return fmt.Sprintf("ALTER TABLE %s %s", g.QuoteIdentifier(table), strings.Join(out, ", "))
}

// InsertStatement renders INSERT INTO table (cols…) VALUES ($1, $2, …)
// using PostgreSQL's indexed placeholder style.
func (g *Generator) InsertStatement(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = g.QuoteIdentifier(c)
		placeholders[i] = "$" + strconv.Itoa(i+1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", g.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// ConfigUpdateStatement renders the single config-row update appended to
// every update plan.
func (g *Generator) ConfigUpdateStatement(configTable string) string {
	return fmt.Sprintf("UPDATE %s SET version = $1, template = $2 WHERE db = $3", g.QuoteIdentifier(configTable))
}

// CompatibilityRules returns PostgreSQL's identity/unique
// type-incompatibility tables for the verifier. The source vocabulary is
// MySQL-flavored, so the same lowercase type names are checked before
// translation.
func (g *Generator) CompatibilityRules() verify.CompatibilityRules {
	return verify.CompatibilityRules{
		IdentityIncompatible: identityIncompatible,
		UniqueIncompatible:   uniqueIncompatible,
	}
}
