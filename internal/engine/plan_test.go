package engine

import (
	"strings"
	"testing"

	mysqldialect "alphadb/internal/dialect/mysql"
	"alphadb/internal/source"
)

// TestPlanSimpleCreate mirrors Scenario A: a single createtable version
// produces one CREATE TABLE statement plus the trailing config update.
func TestPlanSimpleCreate(t *testing.T) {
	gen := &mysqldialect.Generator{}
	src := &source.Source{
		Name: "app",
		Version: []source.Version{
			{
				ID: "0.0.1",
				CreateTable: map[string]source.TableDef{
					"users": {
						Columns:     map[string]source.ColumnDef{"id": {"type": "INT", "a_i": true}},
						ColumnOrder: []string{"id"},
						PrimaryKey:  "id",
					},
				},
				CreateTableOrder: []string{"users"},
			},
		},
	}

	queries, err := Plan(src, "", "0.0.1", "mydb", true, gen)
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries (create + config update), got %d", len(queries))
	}
	if !strings.Contains(queries[0].SQL, "CREATE TABLE `users`") {
		t.Errorf("first query = %q, want CREATE TABLE", queries[0].SQL)
	}
	last := queries[len(queries)-1]
	if !strings.HasPrefix(last.SQL, "UPDATE `adb_conf`") {
		t.Errorf("last query = %q, want config update", last.SQL)
	}
	if last.Args[0] != "0.0.1" || last.Args[1] != "app" || last.Args[2] != "mydb" {
		t.Errorf("config update args = %v, want [0.0.1 app mydb]", last.Args)
	}
}

// TestPlanDropColumnAndPrimaryKey mirrors Scenario B: dropping a column
// whose table's primary key is set to null in the same version preserves
// the identity attribute on the surviving column (re-declared, not cleared).
func TestPlanDropColumnAndPrimaryKey(t *testing.T) {
	gen := &mysqldialect.Generator{}
	src := &source.Source{
		Name: "app",
		Version: []source.Version{
			{
				ID: "0.0.1",
				CreateTable: map[string]source.TableDef{
					"users": {
						Columns: map[string]source.ColumnDef{
							"col":   {"type": "INT", "a_i": true},
							"extra": {"type": "VARCHAR", "length": float64(10), "null": true},
						},
						ColumnOrder: []string{"col", "extra"},
						PrimaryKey:  "col",
					},
				},
				CreateTableOrder: []string{"users"},
			},
			{
				ID: "0.0.2",
				AlterTable: map[string]source.AlterBlock{
					"users": {
						DropColumn:    []string{"extra"},
						PrimaryKeySet: true,
						PrimaryKey:    nil,
					},
				},
				AlterTableOrder: []string{"users"},
			},
		},
	}

	queries, err := Plan(src, "0.0.1", "0.0.2", "mydb", true, gen)
	if err != nil {
		t.Fatal(err)
	}
	if len(queries) != 2 {
		t.Fatalf("expected 2 queries (alter + config update), got %d", len(queries))
	}
	alter := queries[0].SQL
	if !strings.Contains(alter, "MODIFY COLUMN `col` INT NOT NULL AUTO_INCREMENT") {
		t.Errorf("alter = %q, want identity preserved on col", alter)
	}
	if !strings.Contains(alter, "DROP COLUMN `extra`") {
		t.Errorf("alter = %q, want DROP COLUMN extra", alter)
	}
	if !strings.Contains(alter, "DROP PRIMARY KEY") {
		t.Errorf("alter = %q, want DROP PRIMARY KEY", alter)
	}
	modifyIdx := strings.Index(alter, "MODIFY COLUMN")
	dropPKIdx := strings.Index(alter, "DROP PRIMARY KEY")
	if modifyIdx > dropPKIdx {
		t.Errorf("expected MODIFY COLUMN clause before DROP PRIMARY KEY, got %q", alter)
	}
}

// TestPlanPrimaryKeyMovesToNewColumnClearsIdentity covers the
// non-Scenario-B branch: moving the primary key to a different, non-null
// column clears the old column's identity attribute so it can be
// re-issued on the new key.
func TestPlanPrimaryKeyMovesToNewColumnClearsIdentity(t *testing.T) {
	gen := &mysqldialect.Generator{}
	src := &source.Source{
		Name: "app",
		Version: []source.Version{
			{
				ID: "0.0.1",
				CreateTable: map[string]source.TableDef{
					"users": {
						Columns: map[string]source.ColumnDef{
							"id":   {"type": "INT", "a_i": true},
							"uuid": {"type": "VARCHAR", "length": float64(36), "null": true},
						},
						ColumnOrder: []string{"id", "uuid"},
						PrimaryKey:  "id",
					},
				},
				CreateTableOrder: []string{"users"},
			},
			{
				ID: "0.0.2",
				AlterTable: map[string]source.AlterBlock{
					"users": {
						PrimaryKeySet: true,
						PrimaryKey:    strPtr("uuid"),
					},
				},
				AlterTableOrder: []string{"users"},
			},
		},
	}

	queries, err := Plan(src, "0.0.1", "0.0.2", "mydb", true, gen)
	if err != nil {
		t.Fatal(err)
	}
	alter := queries[0].SQL
	if strings.Contains(alter, "AUTO_INCREMENT") {
		t.Errorf("alter = %q, expected identity cleared when primary key moves", alter)
	}
	if !strings.Contains(alter, "ADD PRIMARY KEY (`uuid`)") {
		t.Errorf("alter = %q, want new primary key added on uuid", alter)
	}
}

func TestPlanIsMonotonePrefix(t *testing.T) {
	gen := &mysqldialect.Generator{}
	src := &source.Source{
		Name: "app",
		Version: []source.Version{
			{
				ID: "0.0.1",
				CreateTable: map[string]source.TableDef{
					"t": {Columns: map[string]source.ColumnDef{"a": {"type": "INT"}}, ColumnOrder: []string{"a"}},
				},
				CreateTableOrder: []string{"t"},
			},
			{
				ID: "0.0.2",
				AlterTable: map[string]source.AlterBlock{
					"t": {AddColumn: map[string]source.ColumnDef{"b": {"type": "INT"}}, AddColumnOrder: []string{"b"}},
				},
				AlterTableOrder: []string{"t"},
			},
		},
	}

	shortPlan, err := Plan(src, "", "0.0.1", "mydb", true, gen)
	if err != nil {
		t.Fatal(err)
	}
	longPlan, err := Plan(src, "", "0.0.2", "mydb", true, gen)
	if err != nil {
		t.Fatal(err)
	}
	// Both plans end with a config update; the statement bodies before that
	// trailer should share the shorter plan's create-table prefix.
	if shortPlan[0].SQL != longPlan[0].SQL {
		t.Errorf("expected plans to a later target to retain the same leading statements")
	}
	if len(longPlan) <= len(shortPlan) {
		t.Errorf("expected a later target to produce more statements")
	}
}

func TestResolveTargetDefaultsToLatest(t *testing.T) {
	src := &source.Source{Version: []source.Version{{ID: "0.0.1"}, {ID: "0.0.10"}}}
	got, err := ResolveTarget(src, "")
	if err != nil {
		t.Fatal(err)
	}
	if got != "0.0.10" {
		t.Errorf("ResolveTarget = %q, want 0.0.10", got)
	}
}

// TestResolveTargetAcceptsVersionNotPresentInSource covers explicit targets
// ahead of the source's known versions: they are used purely as a numeric
// upper bound, so a well-formed target need not name an existing version.
func TestResolveTargetAcceptsVersionNotPresentInSource(t *testing.T) {
	src := &source.Source{Version: []source.Version{{ID: "0.0.1"}}}
	got, err := ResolveTarget(src, "0.0.2")
	if err != nil {
		t.Fatalf("expected no error for a well-formed target absent from source, got %v", err)
	}
	if got != "0.0.2" {
		t.Errorf("ResolveTarget = %q, want 0.0.2", got)
	}
}

func TestResolveTargetRejectsMalformedVersion(t *testing.T) {
	src := &source.Source{Version: []source.Version{{ID: "0.0.1"}}}
	if _, err := ResolveTarget(src, "not-a-version"); err == nil {
		t.Error("expected error for a malformed target version")
	}
}

func strPtr(s string) *string { return &s }
