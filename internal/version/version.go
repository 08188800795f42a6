// Package version parses the dotted version strings used throughout the
// version source ("0.0.1", "1.2.3", ...) into integers for ordering.
package version

import (
	"strconv"
	"strings"

	"alphadb/internal/alphadberr"
)

// Zero is the version a database is assumed to be at before any update has
// ever run against it.
const Zero = "0.0.0"

// Valid reports whether s parses as a dotted version string: digits and
// dots only, with at least one digit once the dots are stripped.
func Valid(s string) bool {
	_, err := Parse(s)
	return err == nil
}

// Parse strips every dot from s and parses the remainder as an unsigned
// integer: "0.0.10" -> 10, "1.2.3" -> 123.
func Parse(s string) (int, error) {
	stripped := strings.ReplaceAll(s, ".", "")
	if stripped == "" {
		return 0, alphadberr.New(alphadberr.CodeInvalidVersionNumber, "empty version number", s)
	}
	n, err := strconv.Atoi(stripped)
	if err != nil {
		return 0, alphadberr.New(alphadberr.CodeInvalidVersionNumber, "invalid version number: "+s, s)
	}
	if n < 0 {
		return 0, alphadberr.New(alphadberr.CodeInvalidVersionNumber, "invalid version number: "+s, s)
	}
	return n, nil
}

// MustParse panics on an unparseable version; it exists for call sites that
// have already validated the string (e.g. a value this package produced).
func MustParse(s string) int {
	n, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return n
}

// Latest returns the id with the greatest parsed value out of ids, or Zero
// if ids is empty.
func Latest(ids []string) string {
	latest := Zero
	latestN := 0
	for _, id := range ids {
		n, err := Parse(id)
		if err != nil {
			continue
		}
		if n >= latestN {
			latestN = n
			latest = id
		}
	}
	return latest
}

// Compare returns -1, 0, or 1 comparing the parsed values of a and b.
// Unparseable strings compare as 0.
func Compare(a, b string) int {
	na, errA := Parse(a)
	nb, errB := Parse(b)
	if errA != nil || errB != nil {
		return 0
	}
	switch {
	case na < nb:
		return -1
	case na > nb:
		return 1
	default:
		return 0
	}
}
