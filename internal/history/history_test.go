package history

import (
	"reflect"
	"testing"

	"alphadb/internal/source"
)

func versionsWithRenames(renames map[string]map[string]string) []source.Version {
	ids := []string{"0.0.1", "0.0.2", "0.0.3", "0.0.4", "0.0.5", "0.0.6", "0.0.7", "0.0.8"}
	var out []source.Version
	for _, id := range ids {
		v := source.Version{ID: id}
		if rc, ok := renames[id]; ok {
			v.AlterTable = map[string]source.AlterBlock{
				"t": {RenameColumn: rc},
			}
		}
		out = append(out, v)
	}
	return out
}

func chainRenames() []source.Version {
	return versionsWithRenames(map[string]map[string]string{
		"0.0.2": {"col": "renamed"},
		"0.0.5": {"renamed": "rerenamed"},
		"0.0.7": {"rerenamed": "multiplerenamed"},
	})
}

func TestGetColumnRenamesDesc(t *testing.T) {
	versions := chainRenames()
	got := GetColumnRenames(versions, "multiplerenamed", "t", source.DESC)
	want := []Rename{
		{OldName: "rerenamed", NewName: "multiplerenamed", RenameVersion: "0.0.7"},
		{OldName: "renamed", NewName: "rerenamed", RenameVersion: "0.0.5"},
		{OldName: "col", NewName: "renamed", RenameVersion: "0.0.2"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetColumnRenames(DESC) = %#v, want %#v", got, want)
	}
}

func TestGetColumnRenamesAsc(t *testing.T) {
	versions := chainRenames()
	got := GetColumnRenames(versions, "col", "t", source.ASC)
	want := []Rename{
		{OldName: "col", NewName: "renamed", RenameVersion: "0.0.2"},
		{OldName: "renamed", NewName: "rerenamed", RenameVersion: "0.0.5"},
		{OldName: "rerenamed", NewName: "multiplerenamed", RenameVersion: "0.0.7"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetColumnRenames(ASC) = %#v, want %#v", got, want)
	}
}

func TestGetColumnDrops(t *testing.T) {
	versions := []source.Version{
		{ID: "0.0.1"},
		{ID: "0.0.2", AlterTable: map[string]source.AlterBlock{"t": {DropColumn: []string{"col"}}}},
		{ID: "0.0.3"},
	}
	got := GetColumnDrops(versions, "col", "t")
	want := []string{"0.0.2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GetColumnDrops = %v, want %v", got, want)
	}
}

func TestWillColumnBeDroppedTrue(t *testing.T) {
	versions := []source.Version{
		{ID: "0.0.1"},
		{ID: "0.0.2", AlterTable: map[string]source.AlterBlock{"t": {DropColumn: []string{"col"}}}},
	}
	if !WillColumnBeDropped(versions, "col", "t", "0.0.1") {
		t.Error("expected column to be reported as dropped at or after target")
	}
	if WillColumnBeDropped(versions, "col", "t", "0.0.3") {
		t.Error("drop before target should not count")
	}
}

func ptr(s string) *string { return &s }

func TestGetPrimaryKeyCreated(t *testing.T) {
	versions := []source.Version{
		{ID: "0.0.1", CreateTable: map[string]source.TableDef{"t": {PrimaryKey: "id"}}},
	}
	if got := GetPrimaryKey(versions, "t", ""); got != "id" {
		t.Errorf("GetPrimaryKey = %q, want id", got)
	}
}

func TestGetPrimaryKeyAltered(t *testing.T) {
	versions := []source.Version{
		{ID: "0.0.1", CreateTable: map[string]source.TableDef{"t": {PrimaryKey: "id"}}},
		{ID: "0.0.2", AlterTable: map[string]source.AlterBlock{"t": {PrimaryKeySet: true, PrimaryKey: ptr("uuid")}}},
	}
	if got := GetPrimaryKey(versions, "t", ""); got != "uuid" {
		t.Errorf("GetPrimaryKey = %q, want uuid", got)
	}
}

func TestGetPrimaryKeyDeleted(t *testing.T) {
	versions := []source.Version{
		{ID: "0.0.1", CreateTable: map[string]source.TableDef{"t": {PrimaryKey: "id"}}},
		{ID: "0.0.2", AlterTable: map[string]source.AlterBlock{"t": {PrimaryKeySet: true, PrimaryKey: nil}}},
	}
	if got := GetPrimaryKey(versions, "t", ""); got != "" {
		t.Errorf("GetPrimaryKey = %q, want empty", got)
	}
}

func TestGetPrimaryKeyRenamedColumn(t *testing.T) {
	versions := []source.Version{
		{ID: "0.0.1", CreateTable: map[string]source.TableDef{"t": {PrimaryKey: "id"}}},
		{ID: "0.0.2", AlterTable: map[string]source.AlterBlock{"t": {RenameColumn: map[string]string{"id": "uuid"}}}},
	}
	if got := GetPrimaryKey(versions, "t", ""); got != "uuid" {
		t.Errorf("GetPrimaryKey = %q, want uuid", got)
	}
}

func TestGetPrimaryKeyDroppedColumn(t *testing.T) {
	versions := []source.Version{
		{ID: "0.0.1", CreateTable: map[string]source.TableDef{"t": {PrimaryKey: "id"}}},
		{ID: "0.0.2", AlterTable: map[string]source.AlterBlock{"t": {DropColumn: []string{"id"}}}},
	}
	if got := GetPrimaryKey(versions, "t", ""); got != "" {
		t.Errorf("GetPrimaryKey = %q, want empty after drop", got)
	}
}

func TestGetPrimaryKeyTargetVersionExcludesTarget(t *testing.T) {
	versions := []source.Version{
		{ID: "0.0.1", CreateTable: map[string]source.TableDef{"t": {PrimaryKey: "id"}}},
		{ID: "0.0.2", AlterTable: map[string]source.AlterBlock{"t": {PrimaryKeySet: true, PrimaryKey: ptr("uuid")}}},
	}
	if got := GetPrimaryKey(versions, "t", "0.0.2"); got != "id" {
		t.Errorf("GetPrimaryKey before 0.0.2 = %q, want id (change at 0.0.2 not yet applied)", got)
	}
}

func TestGetPrimaryKeyChangeThenRename(t *testing.T) {
	versions := []source.Version{
		{ID: "0.0.1", CreateTable: map[string]source.TableDef{"t": {PrimaryKey: "id"}}},
		{ID: "0.0.2", AlterTable: map[string]source.AlterBlock{"t": {PrimaryKeySet: true, PrimaryKey: ptr("uuid")}}},
		{ID: "0.0.3", AlterTable: map[string]source.AlterBlock{"t": {RenameColumn: map[string]string{"uuid": "external_id"}}}},
	}
	if got := GetPrimaryKey(versions, "t", ""); got != "external_id" {
		t.Errorf("GetPrimaryKey = %q, want external_id", got)
	}
}
