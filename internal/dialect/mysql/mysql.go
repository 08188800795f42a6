// Package mysql implements the MySQL SQL generator.
package mysql

import (
	"fmt"
	"strings"

	"alphadb/internal/dialect"
	"alphadb/internal/source"
	"alphadb/internal/verify"
)

func init() {
	dialect.RegisterDialect(dialect.MySQL, func() dialect.Dialect {
		return &Dialect{generator: &Generator{}}
	})
}

// Dialect is the MySQL dialect handle.
type Dialect struct {
	generator *Generator
}

// Name returns the MySQL dialect type.
func (d *Dialect) Name() dialect.Type { return dialect.MySQL }

// Generator returns the MySQL SQL generator.
func (d *Dialect) Generator() dialect.Generator { return d.generator }

// Generator is a stateless MySQL SQL generator.
type Generator struct{}

var identityIncompatible = map[string]bool{
	"varchar": true, "text": true, "longtext": true,
	"datetime": true, "decimal": true, "json": true,
}

var uniqueIncompatible = map[string]bool{
	"json": true,
}

// Name returns the MySQL dialect type.
func (g *Generator) Name() dialect.Type { return dialect.MySQL }

// QuoteIdentifier backtick-quotes an identifier, doubling embedded backticks.
func (g *Generator) QuoteIdentifier(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, "`", "``")
	return "`" + name + "`"
}

// QuoteString single-quotes a value using MySQL's escape rules.
func (g *Generator) QuoteString(value string) string {
	var b strings.Builder
	b.Grow(len(value) + 2)
	b.WriteByte('\'')
	for _, ch := range value {
		switch ch {
		case '\'':
			b.WriteString("''")
		case '\\':
			b.WriteString(`\\`)
		case '\x00':
			b.WriteString(`\0`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\x1A':
			b.WriteString(`\Z`)
		default:
			b.WriteRune(ch)
		}
	}
	b.WriteByte('\'')
	return b.String()
}

// ColumnFragment renders "name TYPE(len) NOT NULL UNIQUE DEFAULT x
// AUTO_INCREMENT" in that fixed clause order.
func (g *Generator) ColumnFragment(name string, def source.ColumnDef) (string, error) {
	typ := strings.ToUpper(def.Type())
	if typ == "" {
		return "", fmt.Errorf("column %s has no type", name)
	}

	lower := strings.ToLower(def.Type())
	if def.Identity() && def.Null() {
		return "", fmt.Errorf("column %s: AUTO_INCREMENT is incompatible with NULL", name)
	}
	if def.Identity() && identityIncompatible[lower] {
		return "", fmt.Errorf("column %s: type %s is incompatible with an identity attribute", name, def.Type())
	}
	if def.Unique() && uniqueIncompatible[lower] {
		return "", fmt.Errorf("column %s: type %s is incompatible with attribute UNIQUE", name, def.Type())
	}

	var b strings.Builder
	b.WriteString(g.QuoteIdentifier(name))
	b.WriteByte(' ')
	b.WriteString(typ)
	if length, ok := def.Length(); ok {
		b.WriteByte('(')
		b.WriteString(dialect.FormatLength(def.Type(), length))
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
		b.WriteString(" AUTO_INCREMENT")
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

// DropTableStatement renders DROP TABLE IF EXISTS.
func (g *Generator) DropTableStatement(table string) string {
	return "DROP TABLE IF EXISTS " + g.QuoteIdentifier(table)
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

// ModifyColumnClause renders a MODIFY COLUMN clause fragment.
func (g *Generator) ModifyColumnClause(name string, def source.ColumnDef) (string, error) {
	frag, err := g.ColumnFragment(name, def)
	if err != nil {
		return "", err
	}
	return "MODIFY COLUMN " + frag, nil
}

// RenameColumnClause renders a RENAME COLUMN clause fragment.
func (g *Generator) RenameColumnClause(old, new string) string {
	return "RENAME COLUMN " + g.QuoteIdentifier(old) + " TO " + g.QuoteIdentifier(new)
}

// DropPrimaryKeyClause renders a DROP PRIMARY KEY clause fragment.
func (g *Generator) DropPrimaryKeyClause() string {
	return "DROP PRIMARY KEY"
}

// AddPrimaryKeyClause renders an ADD PRIMARY KEY clause fragment.
func (g *Generator) AddPrimaryKeyClause(col string) string {
	return "ADD PRIMARY KEY (" + g.QuoteIdentifier(col) + ")"
}

// AlterTableStatement joins per-column clauses into one ALTER TABLE statement.
func (g *Generator) AlterTableStatement(table string, clauses []string) string {
	return fmt.Sprintf("ALTER TABLE %s %s", g.QuoteIdentifier(table), strings.Join(clauses, ", "))
}

// InsertStatement renders INSERT INTO table (cols…) VALUES (?, ?, …) using
// MySQL's unindexed placeholder style.
func (g *Generator) InsertStatement(table string, columns []string) string {
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = g.QuoteIdentifier(c)
		placeholders[i] = "?"
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", g.QuoteIdentifier(table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
}

// ConfigUpdateStatement renders the single config-row update appended to
// every update plan.
func (g *Generator) ConfigUpdateStatement(configTable string) string {
	return fmt.Sprintf("UPDATE %s SET version = ?, template = ? WHERE db = ?", g.QuoteIdentifier(configTable))
}

// CompatibilityRules returns MySQL's identity/unique type-incompatibility
// tables for the verifier.
func (g *Generator) CompatibilityRules() verify.CompatibilityRules {
	return verify.CompatibilityRules{
		IdentityIncompatible: identityIncompatible,
		UniqueIncompatible:   uniqueIncompatible,
	}
}
