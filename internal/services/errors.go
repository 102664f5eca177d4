package services

import (
	"errors"
	"fmt"
)

// ErrCardNotFound is returned when no stored card matches a lookup, or the
// matching card has no Renaiss listing
var ErrCardNotFound = errors.New("card not found")

// ErrInvalidThreshold is returned for a NaN or infinite minimum profit percent
var ErrInvalidThreshold = errors.New("min profit percent must be a finite number")

// FetchError is a network, HTTP or decode failure talking to the market API.
// Refresh cycles treat it as "zero listings this cycle".
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("renaiss fetch %s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// NormalizationError is a malformed market record. Only that record is skipped.
type NormalizationError struct {
	RecordID string
	Field    string
	Err      error
}

func (e *NormalizationError) Error() string {
	id := e.RecordID
	if id == "" {
		id = "<unknown>"
	}
	return fmt.Sprintf("normalize record %s: field %s: %v", id, e.Field, e.Err)
}

func (e *NormalizationError) Unwrap() error {
	return e.Err
}

// StoreError is a database failure. It is always surfaced to the caller.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("card store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}
