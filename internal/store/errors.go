package store

import (
	"errors"
	"fmt"
)

// Sentinel errors returned by every backend.
var (
	ErrUnknownTable  = errors.New("unknown table")
	ErrUnknownColumn = errors.New("unknown column")
	ErrEmptyMatch    = errors.New("delete requires a non-empty match")
	ErrEmptyKey      = errors.New("upsert requires a match key")
	ErrDuplicateKey  = errors.New("duplicate key")
)

// OpError records the table and operation that failed.
type OpError struct {
	Op    string
	Table string
	Err   error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }

// Wrap annotates err with op and table. A nil err stays nil.
func Wrap(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &OpError{Op: op, Table: table, Err: err}
}
