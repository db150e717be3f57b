// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settle

import "github.com/btcsuite/btcd/btcutil"

// ComputeFee derives the network fee from the total amount consumed by the
// transaction's inputs and the amounts of all of its outputs.  All
// arithmetic is performed on fixed-point satoshi amounts; the result is
// never negative.
func ComputeFee(inputAmount btcutil.Amount, outputAmounts []btcutil.Amount) btcutil.Amount {
	var outputTotal btcutil.Amount
	for _, amount := range outputAmounts {
		outputTotal += amount
	}
	fee := inputAmount - outputTotal
	if fee < 0 {
		fee = -fee
	}
	return fee
}

// FeeFromWalletView converts the signed fee reported by the node for the
// sending wallet's view of a transaction into a non-negative amount.  The
// node reports the fee as a negative delta from the sender's perspective.
// The second return value is false when the node reported no fee (for
// example, a transaction it has not indexed), in which case callers should
// treat the zero fee as low confidence rather than failing.
func FeeFromWalletView(reportedFee float64) (btcutil.Amount, bool) {
	if reportedFee == 0 {
		return 0, false
	}
	if reportedFee < 0 {
		reportedFee = -reportedFee
	}
	fee, err := btcutil.NewAmount(reportedFee)
	if err != nil {
		return 0, false
	}
	return fee, true
}
