// Package verify walks a version source once and reports every
// compatibility, structural, and completeness issue it finds, each tagged
// with a severity. It never aborts on its own; the caller consults a
// tolerated level to decide whether to proceed.
package verify

import (
	"strings"

	"alphadb/internal/source"
	"alphadb/internal/version"
)

// Level is an issue's severity.
type Level int

const (
	Low Level = iota
	High
	Critical
)

func (l Level) String() string {
	switch l {
	case Low:
		return "Low"
	case High:
		return "High"
	case Critical:
		return "Critical"
	default:
		return "Unknown"
	}
}

// ToleratedLevel is the input knob that decides whether update aborts.
type ToleratedLevel string

const (
	ToleratedLow      ToleratedLevel = "low"
	ToleratedHigh     ToleratedLevel = "high"
	ToleratedCritical ToleratedLevel = "critical"
	ToleratedAll      ToleratedLevel = "all"
)

// Issue is one verification finding.
type Issue struct {
	Level   Level
	Message string
	Trace   []string
}

func (i Issue) key() string {
	return i.Message + "\x00" + strings.Join(i.Trace, "->")
}

// Aborts reports whether issues contains anything the tolerated level
// rejects. "all" aborts on any issue at all; "low"/"high"/"critical" abort
// on any issue at or above that severity.
func Aborts(issues []Issue, tolerated ToleratedLevel) bool {
	if tolerated == ToleratedAll {
		return len(issues) > 0
	}
	var floor Level
	switch tolerated {
	case ToleratedHigh:
		floor = High
	case ToleratedCritical:
		floor = Critical
	default:
		floor = Low
	}
	for _, issue := range issues {
		if issue.Level >= floor {
			return true
		}
	}
	return false
}

// CompatibilityRules is the dialect-specific type-compatibility table the
// verifier consults: which types cannot carry an identity attribute, and
// which cannot carry UNIQUE.
type CompatibilityRules struct {
	IdentityIncompatible map[string]bool
	UniqueIncompatible   map[string]bool
}

func lowerType(t string) string {
	return strings.ToLower(strings.TrimSpace(t))
}

// VerifyColumnCompatibility checks a single column definition against
// rules: identity/NULL mutual exclusion, identity/type incompatibility,
// and UNIQUE/type incompatibility. Each incompatibility is Critical: the
// generator cannot render a column violating them.
func VerifyColumnCompatibility(def source.ColumnDef, rules CompatibilityRules, trace []string) []Issue {
	var issues []Issue
	t := lowerType(def.Type())

	if def.Identity() && def.Null() {
		issues = append(issues, Issue{
			Level:   Critical,
			Message: "Column attribute AUTO_INCREMENT/identity is incompatible with NULL",
			Trace:   trace,
		})
	}
	if def.Identity() && t != "" && rules.IdentityIncompatible[t] {
		issues = append(issues, Issue{
			Level:   Critical,
			Message: "Column type " + def.Type() + " is incompatible with an identity attribute",
			Trace:   trace,
		})
	}
	if def.Unique() && t != "" && rules.UniqueIncompatible[t] {
		issues = append(issues, Issue{
			Level:   Critical,
			Message: "Column type " + def.Type() + " is incompatible with attribute UNIQUE",
			Trace:   trace,
		})
	}
	return issues
}

// Source walks src once, checking version-number structure, foreign-key
// completeness, per-column compatibility, and dropcolumn-of-unknown-column
// (a no-op the caller should still be told about). Duplicate issues
// (same message + trace) are reported only once.
func Source(src *source.Source, rules CompatibilityRules) []Issue {
	var issues []Issue
	seen := map[string]struct{}{}
	add := func(i Issue) {
		k := i.key()
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		issues = append(issues, i)
	}

	live := map[string]map[string]struct{}{} // table -> set of live columns
	prevN := -1
	for _, v := range src.Version {
		n, err := version.Parse(v.ID)
		if err != nil {
			add(Issue{Level: Critical, Message: "unparseable version number: " + v.ID, Trace: []string{v.ID}})
			continue
		}
		if n <= prevN {
			add(Issue{Level: Critical, Message: "version numbers must be strictly increasing", Trace: []string{v.ID}})
		}
		prevN = n

		for table, def := range v.CreateTable {
			if live[table] == nil {
				live[table] = map[string]struct{}{}
			}
			for col, colDef := range def.Columns {
				live[table][col] = struct{}{}
				add3 := append([]string{v.ID, "createtable", "table:" + table, "column:" + col})
				for _, issue := range VerifyColumnCompatibility(colDef, rules, add3) {
					add(issue)
				}
			}
			if def.ForeignKey != nil && !def.ForeignKey.Validate() {
				add(Issue{
					Level:   Critical,
					Message: "incomplete foreign key definition",
					Trace:   []string{v.ID, "createtable", "table:" + table},
				})
			}
		}

		for table, ab := range v.AlterTable {
			if live[table] == nil {
				live[table] = map[string]struct{}{}
			}
			for col, colDef := range ab.AddColumn {
				live[table][col] = struct{}{}
				trace := []string{v.ID, "altertable", "table:" + table, "column:" + col}
				for _, issue := range VerifyColumnCompatibility(colDef, rules, trace) {
					add(issue)
				}
			}
			for col, colDef := range ab.ModifyColumn {
				trace := []string{v.ID, "altertable", "table:" + table, "column:" + col}
				for _, issue := range VerifyColumnCompatibility(colDef, rules, trace) {
					add(issue)
				}
			}
			for _, col := range ab.DropColumn {
				if _, ok := live[table][col]; !ok {
					add(Issue{
						Level:   Low,
						Message: "dropcolumn of a column that is not currently known to exist: " + col,
						Trace:   []string{v.ID, "altertable", "table:" + table, "column:" + col},
					})
					continue
				}
				delete(live[table], col)
			}
			for old, new := range ab.RenameColumn {
				if _, ok := live[table][old]; ok {
					delete(live[table], old)
					live[table][new] = struct{}{}
				}
			}
		}
	}

	return issues
}
