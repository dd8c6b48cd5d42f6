package catalog

import (
	"fmt"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when a requested product or sale listing does not
// exist in the store.
var ErrNotFound = errors.New("product not found")

// QueryError reports a failed round-trip to the relational store. It lets
// callers tell an unreachable store apart from ErrNotFound.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// IdentityMismatchError is returned when sale statistics of one product are
// applied to another.
type IdentityMismatchError struct {
	Want uint64
	Got  uint64
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("sale listing id mismatch: want %d, got %d", e.Want, e.Got)
}

// ImportError reports an import transaction that was rolled back. Step names
// the statement that failed.
type ImportError struct {
	ProductID uint64
	Step      string
	Err       error
}

func (e *ImportError) Error() string {
	return fmt.Sprintf("import product %d: %s: %v", e.ProductID, e.Step, e.Err)
}

func (e *ImportError) Unwrap() error {
	return e.Err
}
