package dbbadger

import "errors"

var (
	// ErrMissingTransaction is returned by repositories invoked without a
	// transaction opened with RunTransaction.
	ErrMissingTransaction = errors.New("context must contain db transaction value")
	// ErrReadOnlyTransaction is returned when attempting to write within a
	// read-only transaction.
	ErrReadOnlyTransaction = errors.New("cannot write within a read-only db transaction")
)
