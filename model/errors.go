package model

import "fmt"

// SchemaError reports a failure creating constraints or the vector index.
type SchemaError struct {
	Op  string
	Err error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema setup failed in %v: %v", e.Op, e.Err)
}

func (e *SchemaError) Unwrap() error {
	return e.Err
}

// StoreError reports a connectivity or transport failure against the graph
// database. A batch operation may have been partially applied when it is
// returned; committed rows are not rolled back.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("graph store failure in %v: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// DimensionMismatchError reports an embedding whose length differs from the
// dimension the vector index was built with.
type DimensionMismatchError struct {
	Want int
	Got  int
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("embedding dimension mismatch: want %v, got %v", e.Want, e.Got)
}

// ExtractionError reports a failure of the external entity/relation
// extraction capability.
type ExtractionError struct {
	Err error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("entity extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// EmbeddingError reports a failure of the external embedding capability.
type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding generation failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error {
	return e.Err
}
