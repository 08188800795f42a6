package source

import "testing"

func TestParseBasicDocument(t *testing.T) {
	doc := []byte(`{
		"name": "app",
		"version": [
			{
				"_id": "0.0.1",
				"createtable": {
					"users": {
						"id": {"type": "INT", "a_i": true},
						"name": {"type": "VARCHAR", "length": 100},
						"primary_key": "id"
					}
				}
			}
		]
	}`)

	src, err := Parse(doc)
	if err != nil {
		t.Fatal(err)
	}
	if src.Name != "app" {
		t.Errorf("Name = %q, want app", src.Name)
	}
	if len(src.Version) != 1 {
		t.Fatalf("expected 1 version, got %d", len(src.Version))
	}
	v := src.Version[0]
	if v.ID != "0.0.1" {
		t.Errorf("ID = %q, want 0.0.1", v.ID)
	}
	table, ok := v.CreateTable["users"]
	if !ok {
		t.Fatal("expected users table")
	}
	if table.PrimaryKey != "id" {
		t.Errorf("PrimaryKey = %q, want id", table.PrimaryKey)
	}
	if len(table.ColumnOrder) != 2 || table.ColumnOrder[0] != "id" || table.ColumnOrder[1] != "name" {
		t.Errorf("ColumnOrder = %v, want [id name]", table.ColumnOrder)
	}
	if table.Columns["id"].Identity() != true {
		t.Error("expected id to be an identity column")
	}
}

func TestPreservesDeclaredColumnOrder(t *testing.T) {
	doc := []byte(`{
		"name": "app",
		"version": [{
			"_id": "0.0.1",
			"createtable": {
				"t": {"zeta": {"type":"INT"}, "alpha": {"type":"INT"}, "middle": {"type":"INT"}}
			}
		}]
	}`)
	src, err := Parse(doc)
	if err != nil {
		t.Fatal(err)
	}
	got := src.Version[0].CreateTable["t"].ColumnOrder
	want := []string{"zeta", "alpha", "middle"}
	for i, w := range want {
		if got[i] != w {
			t.Fatalf("ColumnOrder = %v, want %v", got, want)
		}
	}
}

func TestAlterBlockPrimaryKeyTriState(t *testing.T) {
	withNull := []byte(`{"primary_key": null}`)
	var a AlterBlock
	if err := a.UnmarshalJSON(withNull); err != nil {
		t.Fatal(err)
	}
	if !a.PrimaryKeySet || a.PrimaryKey != nil {
		t.Error("expected PrimaryKeySet=true, PrimaryKey=nil for explicit null")
	}

	absent := []byte(`{"addcolumn": {"x": {"type":"INT"}}}`)
	var b AlterBlock
	if err := b.UnmarshalJSON(absent); err != nil {
		t.Fatal(err)
	}
	if b.PrimaryKeySet {
		t.Error("expected PrimaryKeySet=false when primary_key key is absent")
	}
}

func TestColumnDefIdentityAcceptsAnyKey(t *testing.T) {
	cases := []ColumnDef{
		{"a_i": true},
		{"auto_increment": true},
		{"generated": true},
	}
	for _, c := range cases {
		if !c.Identity() {
			t.Errorf("Identity() = false for %v, want true", c)
		}
	}
}

func TestColumnDefMergeExcludesRecreate(t *testing.T) {
	base := ColumnDef{"type": "INT"}
	merged := base.Merge(ColumnDef{"null": true, "recreate": false})
	if _, ok := merged["recreate"]; ok {
		t.Error("recreate key should never appear in a merged definition")
	}
	if merged.Type() != "INT" || !merged.Null() {
		t.Errorf("merged = %v, want type=INT null=true", merged)
	}
}

func TestForeignKeyValidate(t *testing.T) {
	valid := &ForeignKey{From: "user_id", To: "id", References: "users"}
	if !valid.Validate() {
		t.Error("expected complete foreign key to validate")
	}
	incomplete := &ForeignKey{From: "user_id"}
	if incomplete.Validate() {
		t.Error("expected incomplete foreign key to fail validation")
	}
}
