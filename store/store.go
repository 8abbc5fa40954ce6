// Package store defines the resource store adapter: the five operations the CRUD handlers
// need from a document collection, and the errors they report.
package store

import (
	"context"
	"errors"
	"fmt"
)

// Store wraps a single document collection.
type Store interface {
	// FindAll returns every record. An empty collection yields an empty slice, not an error.
	FindAll(ctx context.Context) ([]*Record, error)

	// FindByID returns the record with the given id. A missing record yields found == false
	// and a nil error.
	FindByID(ctx context.Context, id string) (rec *Record, found bool, err error)

	// Create assigns a fresh id to fields, persists them and returns the new record.
	Create(ctx context.Context, fields *Document) (*Record, error)

	// MergeUpdate overlays fields onto existing, persists the result and returns it.
	MergeUpdate(ctx context.Context, existing *Record, fields *Document) (*Record, error)

	// Delete removes existing. The record must exist.
	Delete(ctx context.Context, existing *Record) error
}

// ErrNotFound marks the absence of an addressed record.
var ErrNotFound = errors.New("record not found")

// StoreError wraps any persistence or connectivity failure.
type StoreError struct {
	Op         string
	Collection string
	Err        error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Fail wraps err into a *StoreError unless it already is a *StoreError or a *ValidationError.
func Fail(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	var ve *ValidationError
	if errors.As(err, &se) || errors.As(err, &ve) {
		return err
	}
	return &StoreError{Op: op, Collection: collection, Err: err}
}

// ValidationError reports fields rejected by the collection's schema.
type ValidationError struct {
	Collection string
	Err        error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s validation failed: %v", e.Collection, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
