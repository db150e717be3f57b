// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settle

import (
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/stretchr/testify/require"
)

// TestComputeFee checks the fee derivation from input and output amounts.
func TestComputeFee(t *testing.T) {
	require := require.New(t)

	fee := ComputeFee(btc(t, 50), []btcutil.Amount{
		btc(t, 20), btc(t, 29.9999),
	})
	require.Equal(btc(t, 0.0001), fee)
}

// TestComputeFeeNonNegative ensures the fee is never negative, even when the
// reported outputs exceed the inputs.
func TestComputeFeeNonNegative(t *testing.T) {
	require := require.New(t)

	cases := []struct {
		input   btcutil.Amount
		outputs []btcutil.Amount
	}{
		{btc(t, 50), []btcutil.Amount{btc(t, 50)}},
		{btc(t, 50), []btcutil.Amount{btc(t, 60)}},
		{0, []btcutil.Amount{btc(t, 1)}},
		{btc(t, 1), nil},
		{0, nil},
	}
	for _, tc := range cases {
		require.GreaterOrEqual(ComputeFee(tc.input, tc.outputs),
			btcutil.Amount(0))
	}
}

// TestFeeFromWalletView checks conversion of the node-reported signed fee.
func TestFeeFromWalletView(t *testing.T) {
	require := require.New(t)

	// The node reports the fee as a negative delta from the sender's
	// perspective.
	fee, ok := FeeFromWalletView(-0.0001)
	require.True(ok)
	require.Equal(btc(t, 0.0001), fee)

	// A missing fee field is low confidence, not an error.
	fee, ok = FeeFromWalletView(0)
	require.False(ok)
	require.Zero(fee)
}
