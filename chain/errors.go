// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import "fmt"

// ErrorCode identifies a kind of error encountered while talking to the
// ledger node.
type ErrorCode int

// These constants are used to identify a specific Error.
const (
	// ErrConnectivity indicates the node could not be reached or the
	// transport failed mid-call.
	ErrConnectivity ErrorCode = iota

	// ErrAuth indicates the node rejected the supplied RPC credentials.
	ErrAuth

	// ErrWalletState indicates a wallet operation failed because of the
	// wallet's state on the node (not loadable, not creatable, or a send
	// left incomplete).
	ErrWalletState

	// ErrAddressNetworkMismatch indicates an address returned by the node
	// does not belong to the configured network.
	ErrAddressNetworkMismatch

	// ErrProtocolDecode indicates a response from the node could not be
	// decoded into the expected shape.
	ErrProtocolDecode
)

// Map of ErrorCode values back to their constant names for pretty printing.
var errCodeStrings = map[ErrorCode]string{
	ErrConnectivity:           "ErrConnectivity",
	ErrAuth:                   "ErrAuth",
	ErrWalletState:            "ErrWalletState",
	ErrAddressNetworkMismatch: "ErrAddressNetworkMismatch",
	ErrProtocolDecode:         "ErrProtocolDecode",
}

// String returns the ErrorCode as a human-readable name.
func (e ErrorCode) String() string {
	if s, ok := errCodeStrings[e]; ok {
		return s
	}
	return fmt.Sprintf("Unknown ErrorCode (%d)", int(e))
}

// Error provides a single type for errors that can occur while driving the
// ledger node.  Alongside the code and description it carries whichever of
// the wallet name, address, and txid were involved so callers can diagnose a
// failure without re-instrumenting the run.
type Error struct {
	ErrorCode   ErrorCode // Describes the kind of error
	Description string    // Human-readable description of the issue
	Wallet      string    // Wallet name involved, if any
	Address     string    // Address involved, if any
	TxID        string    // Transaction id involved, if any
	Err         error     // Underlying error
}

// Error satisfies the error interface and prints human-readable errors.
func (e Error) Error() string {
	desc := e.Description
	if e.Wallet != "" {
		desc += fmt.Sprintf(" (wallet %v)", e.Wallet)
	}
	if e.Address != "" {
		desc += fmt.Sprintf(" (address %v)", e.Address)
	}
	if e.TxID != "" {
		desc += fmt.Sprintf(" (txid %v)", e.TxID)
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

// nodeError creates a chain Error given a set of arguments.
func nodeError(c ErrorCode, desc string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Err: err}
}

// walletError creates a chain Error scoped to a wallet name.
func walletError(c ErrorCode, desc, wallet string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Wallet: wallet, Err: err}
}

// addressError creates a chain Error scoped to an address.
func addressError(c ErrorCode, desc, address string, err error) Error {
	return Error{ErrorCode: c, Description: desc, Address: address, Err: err}
}

// txError creates a chain Error scoped to a transaction id.
func txError(c ErrorCode, desc, txid string, err error) Error {
	return Error{ErrorCode: c, Description: desc, TxID: txid, Err: err}
}
