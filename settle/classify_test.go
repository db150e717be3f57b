// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settle

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

// testAddress returns a regtest witness address derived from a fixed,
// distinct hash160 so each call site gets a stable, valid address.
func testAddress(t *testing.T, fill byte) btcutil.Address {
	t.Helper()
	addr, err := btcutil.NewAddressWitnessPubKeyHash(
		bytes.Repeat([]byte{fill}, 20), &chaincfg.RegressionNetParams)
	require.NoError(t, err)
	return addr
}

// foreignAddress returns a mainnet pay-to-pubkey-hash address, which decodes
// cleanly but belongs to the wrong network for a regtest classifier.
func foreignAddress(t *testing.T) btcutil.Address {
	t.Helper()
	addr, err := btcutil.NewAddressPubKeyHash(
		bytes.Repeat([]byte{0x7f}, 20), &chaincfg.MainNetParams)
	require.NoError(t, err)
	return addr
}

func btc(t *testing.T, v float64) btcutil.Amount {
	t.Helper()
	amount, err := btcutil.NewAmount(v)
	require.NoError(t, err)
	return amount
}

// TestClassifyTwoOutputs covers the normal shape: one output pays the
// counterparty and one returns change, and the amounts balance against the
// input minus fee.
func TestClassifyTwoOutputs(t *testing.T) {
	require := require.New(t)

	counterparty := testAddress(t, 0x01)
	self := testAddress(t, 0x02)
	change := testAddress(t, 0x03)

	inputAmount := btc(t, 50)
	outputs := []TxOutput{
		{Address: change.EncodeAddress(), Amount: btc(t, 29.9999)},
		{Address: counterparty.EncodeAddress(), Amount: btc(t, 20)},
	}

	classified, err := NewClassifier(&chaincfg.RegressionNetParams).
		Classify(outputs, counterparty, self)
	require.NoError(err)

	require.Equal(counterparty.EncodeAddress(), classified.Payment.Address)
	require.Equal(btc(t, 20), classified.Payment.Amount)
	require.True(classified.HasChange)
	require.Equal(change.EncodeAddress(), classified.Change.Address)
	require.Equal(btc(t, 29.9999), classified.Change.Amount)

	// payment + change + fee must equal the input amount exactly in
	// satoshi precision.
	fee := ComputeFee(inputAmount, []btcutil.Amount{
		classified.Payment.Amount, classified.Change.Amount,
	})
	require.Equal(inputAmount,
		classified.Payment.Amount+classified.Change.Amount+fee)
}

// TestClassifyZeroChange ensures an exact-amount transaction classifies with
// an absent change output, a zero change amount, and the sender fallback
// address, without error.
func TestClassifyZeroChange(t *testing.T) {
	require := require.New(t)

	counterparty := testAddress(t, 0x01)
	self := testAddress(t, 0x02)

	outputs := []TxOutput{
		{Address: counterparty.EncodeAddress(), Amount: btc(t, 20)},
	}

	classified, err := NewClassifier(&chaincfg.RegressionNetParams).
		Classify(outputs, counterparty, self)
	require.NoError(err)
	require.False(classified.HasChange)
	require.Equal(self.EncodeAddress(), classified.Change.Address)
	require.Zero(classified.Change.Amount)
}

// TestClassifyNetworkMismatch ensures an output address from a different
// network surfaces a mismatch error naming that address when classification
// cannot complete without it.
func TestClassifyNetworkMismatch(t *testing.T) {
	require := require.New(t)

	counterparty := testAddress(t, 0x01)
	self := testAddress(t, 0x02)
	foreign := foreignAddress(t)

	outputs := []TxOutput{
		{Address: counterparty.EncodeAddress(), Amount: btc(t, 20)},
		{Address: foreign.EncodeAddress(), Amount: btc(t, 5)},
	}

	classified, err := NewClassifier(&chaincfg.RegressionNetParams).
		Classify(outputs, counterparty, self)
	require.Nil(classified)
	require.Error(err)

	var settleErr Error
	require.ErrorAs(err, &settleErr)
	require.Equal(ErrAddressNetworkMismatch, settleErr.ErrorCode)
	require.Equal(foreign.EncodeAddress(), settleErr.Address)
}

// TestClassifyNetworkMismatchIgnored ensures a resolution failure local to
// an output that classification does not depend on is not fatal.
func TestClassifyNetworkMismatchIgnored(t *testing.T) {
	require := require.New(t)

	counterparty := testAddress(t, 0x01)
	self := testAddress(t, 0x02)
	change := testAddress(t, 0x03)
	foreign := foreignAddress(t)

	outputs := []TxOutput{
		{Address: foreign.EncodeAddress(), Amount: btc(t, 5)},
		{Address: counterparty.EncodeAddress(), Amount: btc(t, 20)},
		{Address: change.EncodeAddress(), Amount: btc(t, 24.9999)},
	}

	classified, err := NewClassifier(&chaincfg.RegressionNetParams).
		Classify(outputs, counterparty, self)
	require.NoError(err)
	require.Equal(counterparty.EncodeAddress(), classified.Payment.Address)
	require.True(classified.HasChange)
	require.Equal(change.EncodeAddress(), classified.Change.Address)
}

// TestClassifyUnsupportedShapes ensures the classifier refuses to guess when
// the output layout is ambiguous.
func TestClassifyUnsupportedShapes(t *testing.T) {
	require := require.New(t)

	counterparty := testAddress(t, 0x01)
	self := testAddress(t, 0x02)

	classifier := NewClassifier(&chaincfg.RegressionNetParams)

	// Two change candidates.
	outputs := []TxOutput{
		{Address: counterparty.EncodeAddress(), Amount: btc(t, 20)},
		{Address: testAddress(t, 0x03).EncodeAddress(), Amount: btc(t, 5)},
		{Address: testAddress(t, 0x04).EncodeAddress(), Amount: btc(t, 6)},
	}
	_, err := classifier.Classify(outputs, counterparty, self)
	var settleErr Error
	require.ErrorAs(err, &settleErr)
	require.Equal(ErrUnsupportedShape, settleErr.ErrorCode)

	// Two counterparty matches.
	outputs = []TxOutput{
		{Address: counterparty.EncodeAddress(), Amount: btc(t, 10)},
		{Address: counterparty.EncodeAddress(), Amount: btc(t, 10)},
	}
	_, err = classifier.Classify(outputs, counterparty, self)
	require.ErrorAs(err, &settleErr)
	require.Equal(ErrUnsupportedShape, settleErr.ErrorCode)
}

// TestClassifyNoPayment ensures a transaction that never pays the
// counterparty is rejected.
func TestClassifyNoPayment(t *testing.T) {
	require := require.New(t)

	counterparty := testAddress(t, 0x01)
	self := testAddress(t, 0x02)

	outputs := []TxOutput{
		{Address: testAddress(t, 0x03).EncodeAddress(), Amount: btc(t, 20)},
	}

	_, err := NewClassifier(&chaincfg.RegressionNetParams).
		Classify(outputs, counterparty, self)
	var settleErr Error
	require.ErrorAs(err, &settleErr)
	require.Equal(ErrNoPaymentOutput, settleErr.ErrorCode)
}

// TestClassifySkipsNonstandard ensures outputs without an extractable
// address (such as data carriers) are ignored by classification.
func TestClassifySkipsNonstandard(t *testing.T) {
	require := require.New(t)

	counterparty := testAddress(t, 0x01)
	self := testAddress(t, 0x02)
	change := testAddress(t, 0x03)

	outputs := []TxOutput{
		{Address: "", Amount: 0},
		{Address: counterparty.EncodeAddress(), Amount: btc(t, 20)},
		{Address: change.EncodeAddress(), Amount: btc(t, 9.5)},
	}

	classified, err := NewClassifier(&chaincfg.RegressionNetParams).
		Classify(outputs, counterparty, self)
	require.NoError(err)
	require.True(classified.HasChange)
	require.Equal(change.EncodeAddress(), classified.Change.Address)
}
