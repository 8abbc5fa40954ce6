package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// CompileSchema compiles a JSON schema given as a decoded JSON value, typically from the config file.
func CompileSchema(name string, raw any) (*jsonschema.Schema, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020

	url := name + ".schema.json"
	if err := compiler.AddResource(url, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", name, err)
	}
	return compiler.Compile(url)
}

type validating struct {
	Store
	collection string
	schema     *jsonschema.Schema
}

// Validating returns a Store that checks created documents, and the merged result of updates,
// against schema before handing them to inner. Rejections are reported as *ValidationError.
func Validating(inner Store, collection string, schema *jsonschema.Schema) Store {
	return &validating{Store: inner, collection: collection, schema: schema}
}

func (v *validating) Create(ctx context.Context, fields *Document) (*Record, error) {
	if err := v.validate(fields); err != nil {
		return nil, err
	}
	return v.Store.Create(ctx, fields)
}

func (v *validating) MergeUpdate(ctx context.Context, existing *Record, fields *Document) (*Record, error) {
	merged := existing.Fields.Clone().Merge(fields)
	if err := v.validate(merged); err != nil {
		return nil, err
	}
	return v.Store.MergeUpdate(ctx, existing, fields)
}

func (v *validating) validate(doc *Document) error {
	// The schema validator only understands the types encoding/json decodes to.
	data, err := json.Marshal(doc)
	if err != nil {
		return &StoreError{Op: "validate", Collection: v.collection, Err: err}
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var instance any
	if err := dec.Decode(&instance); err != nil {
		return &StoreError{Op: "validate", Collection: v.collection, Err: err}
	}

	if err := v.schema.Validate(instance); err != nil {
		return &ValidationError{Collection: v.collection, Err: err}
	}
	return nil
}
