// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settle

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

// TestBuildRecord checks that a fully populated record is assembled with the
// classification, fee, and confirmation metadata intact.
func TestBuildRecord(t *testing.T) {
	require := require.New(t)

	sender := testAddress(t, 0x01)
	counterparty := testAddress(t, 0x02)

	txHash := &chainhash.Hash{0x01}
	blockHash := &chainhash.Hash{0x02}

	outputs := &ClassifiedOutputs{
		Payment: TxOutput{
			Address: counterparty.EncodeAddress(),
			Amount:  btc(t, 20),
		},
		Change: TxOutput{
			Address: sender.EncodeAddress(),
			Amount:  btc(t, 29.9999),
		},
		HasChange: true,
	}

	record, err := BuildRecord(txHash, sender, btc(t, 50), counterparty,
		outputs, btc(t, 0.0001), 102, blockHash)
	require.NoError(err)

	require.Equal(txHash.String(), record.TxID)
	require.Equal(sender.EncodeAddress(), record.SenderAddress)
	require.Equal(btc(t, 50), record.InputAmount)
	require.Equal(counterparty.EncodeAddress(), record.CounterpartyAddress)
	require.Equal(btc(t, 20), record.PaymentAmount)
	require.Equal(sender.EncodeAddress(), record.ChangeAddress)
	require.Equal(btc(t, 29.9999), record.ChangeAmount)
	require.Equal(btc(t, 0.0001), record.Fee)
	require.Equal(int64(102), record.BlockHeight)
	require.Equal(blockHash.String(), record.BlockHash)
}

// TestBuildRecordMissingFields ensures never-populated required fields are
// rejected as invariant violations.
func TestBuildRecordMissingFields(t *testing.T) {
	require := require.New(t)

	sender := testAddress(t, 0x01)
	counterparty := testAddress(t, 0x02)
	txHash := &chainhash.Hash{0x01}
	blockHash := &chainhash.Hash{0x02}
	outputs := &ClassifiedOutputs{}

	cases := []struct {
		name string
		run  func() (*SettlementRecord, error)
	}{
		{"nil txid", func() (*SettlementRecord, error) {
			return BuildRecord(nil, sender, 0, counterparty,
				outputs, 0, 102, blockHash)
		}},
		{"nil sender", func() (*SettlementRecord, error) {
			return BuildRecord(txHash, nil, 0, counterparty,
				outputs, 0, 102, blockHash)
		}},
		{"nil counterparty", func() (*SettlementRecord, error) {
			return BuildRecord(txHash, sender, 0, nil, outputs, 0,
				102, blockHash)
		}},
		{"nil outputs", func() (*SettlementRecord, error) {
			return BuildRecord(txHash, sender, 0, counterparty,
				nil, 0, 102, blockHash)
		}},
		{"zero height", func() (*SettlementRecord, error) {
			return BuildRecord(txHash, sender, 0, counterparty,
				outputs, 0, 0, blockHash)
		}},
		{"nil block hash", func() (*SettlementRecord, error) {
			return BuildRecord(txHash, sender, 0, counterparty,
				outputs, 0, 102, nil)
		}},
	}
	for _, tc := range cases {
		record, err := tc.run()
		require.Nil(record, tc.name)

		var settleErr Error
		require.ErrorAs(err, &settleErr, tc.name)
		require.Equal(ErrMissingField, settleErr.ErrorCode, tc.name)
	}
}
