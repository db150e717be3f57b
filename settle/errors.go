// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settle

import "fmt"

// ErrorCode identifies a kind of reconciliation error.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrAddressNetworkMismatch indicates a transaction output carries an
	// address that does not belong to the configured network.
	ErrAddressNetworkMismatch ErrorCode = iota

	// ErrNoPaymentOutput indicates no output paid the known counterparty
	// address.
	ErrNoPaymentOutput

	// ErrUnsupportedShape indicates the transaction has an output layout
	// the classifier refuses to guess about, such as multiple change
	// candidates or multiple counterparty matches.
	ErrUnsupportedShape

	// ErrMissingField indicates a settlement record was built without a
	// required field, which is a programming invariant violation rather
	// than an expected runtime condition.
	ErrMissingField

	// ErrIOFailure indicates the settlement report could not be written.
	ErrIOFailure
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errCodeStrings = map[ErrorCode]string{
	ErrAddressNetworkMismatch: "ErrAddressNetworkMismatch",
	ErrNoPaymentOutput:        "ErrNoPaymentOutput",
	ErrUnsupportedShape:       "ErrUnsupportedShape",
	ErrMissingField:           "ErrMissingField",
	ErrIOFailure:              "ErrIOFailure",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error is the error type returned by the reconciliation components.  The
// offending address, when one is involved, is carried alongside the
// description so operators can identify it without re-instrumenting.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human-readable description of the issue
	Address     string    // Address involved, if any
	Err         error     // Underlying error
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	desc := e.Description
	if e.Address != "" {
		desc += fmt.Sprintf(" (address %v)", e.Address)
	}
	if e.Err != nil {
		return desc + ": " + e.Err.Error()
	}
	return desc
}

// Unwrap returns the underlying error, if any.
func (e Error) Unwrap() error {
	return e.Err
}

// settleError creates a settle Error given a set of arguments.
func settleError(c ErrorCode, desc string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Err: err}
}

// addressError creates a settle Error scoped to an address.
func addressError(c ErrorCode, desc, address string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Address: address, Err: err}
}
