package source

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"

	"alphadb/internal/alphadberr"
)

// documentSchema is a structural JSON Schema for a version-source document:
// it only checks shape (required keys, types), never semantics such as
// version ordering or column compatibility — those are internal/verify's job.
const documentSchema = `{
	"$schema": "https://json-schema.org/draft/2020-12/schema",
	"type": "object",
	"required": ["name", "version"],
	"properties": {
		"name": {"type": "string", "minLength": 1},
		"version": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["_id"],
				"properties": {
					"_id": {"type": "string", "pattern": "^[0-9]+(\\.[0-9]+)*$"},
					"createtable": {"type": "object"},
					"altertable": {"type": "object"},
					"default_data": {"type": "object"}
				}
			}
		}
	}
}`

var compiledSchema *jsonschema.Schema

func init() {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("version-source.json", strings.NewReader(documentSchema)); err != nil {
		panic("source: invalid embedded schema: " + err.Error())
	}
	schema, err := compiler.Compile("version-source.json")
	if err != nil {
		panic("source: failed to compile embedded schema: " + err.Error())
	}
	compiledSchema = schema
}

// validateStructure checks raw against documentSchema before the typed
// decode runs, so a malformed document is rejected with a clear structural
// error instead of an opaque encoding/json type-mismatch message.
func validateStructure(data []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return alphadberr.New(alphadberr.CodeIncompleteVersionObject, "malformed JSON: "+err.Error())
	}
	if err := compiledSchema.Validate(v); err != nil {
		return alphadberr.New(alphadberr.CodeIncompleteVersionObject, "version source failed schema validation: "+err.Error())
	}
	return nil
}
