package rag

import (
	"errors"
	"fmt"
)

// ErrUnavailable is returned when both retrieval backends fail for the same
// query and no context can be assembled at all.
var ErrUnavailable = errors.New("retrieval unavailable: both stores failed")

// ErrDimensionMismatch rejects a record whose embedding length differs from
// the store configuration. The record is refused before any store write.
var ErrDimensionMismatch = errors.New("embedding dimension mismatch")

// PartialWriteError reports a record that reached one store but not the
// other. The record is inconsistent until re-ingested or reconciled by ID.
type PartialWriteError struct {
	ID          string
	DenseStored bool
	Err         error
}

func (e *PartialWriteError) Error() string {
	stored, missing := "sparse", "dense"
	if e.DenseStored {
		stored, missing = "dense", "sparse"
	}
	return fmt.Sprintf("partial write for record %s: stored in %s store, missing from %s store: %v", e.ID, stored, missing, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}
