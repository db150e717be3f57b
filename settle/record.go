// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settle

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// SettlementRecord is the immutable audit artifact describing a completed,
// confirmed transfer.  It is built once after confirmation and consumed once
// by WriteReport.
type SettlementRecord struct {
	TxID                string
	SenderAddress       string
	InputAmount         btcutil.Amount
	CounterpartyAddress string
	PaymentAmount       btcutil.Amount
	ChangeAddress       string
	ChangeAmount        btcutil.Amount
	Fee                 btcutil.Amount
	BlockHeight         int64
	BlockHash           string
}

// BuildRecord composes the classification result, fee, and chain
// confirmation metadata into a settlement record.  It performs no I/O and no
// fallible resolution; it fails only when a required field was never
// populated upstream, which indicates a bug rather than an expected runtime
// condition.
func BuildRecord(txHash *chainhash.Hash, sender btcutil.Address,
	inputAmount btcutil.Amount, counterparty btcutil.Address,
	outputs *ClassifiedOutputs, fee btcutil.Amount, blockHeight int64,
	blockHash *chainhash.Hash) (*SettlementRecord, error) {

	switch {
	case txHash == nil:
		return nil, settleError(ErrMissingField,
			"settlement record is missing the transaction id", nil)
	case sender == nil:
		return nil, settleError(ErrMissingField,
			"settlement record is missing the sender address", nil)
	case counterparty == nil:
		return nil, settleError(ErrMissingField,
			"settlement record is missing the counterparty address",
			nil)
	case outputs == nil:
		return nil, settleError(ErrMissingField,
			"settlement record is missing classified outputs", nil)
	case blockHeight <= 0:
		return nil, settleError(ErrMissingField,
			"settlement record is missing the block height", nil)
	case blockHash == nil:
		return nil, settleError(ErrMissingField,
			"settlement record is missing the block hash", nil)
	}

	return &SettlementRecord{
		TxID:                txHash.String(),
		SenderAddress:       sender.EncodeAddress(),
		InputAmount:         inputAmount,
		CounterpartyAddress: counterparty.EncodeAddress(),
		PaymentAmount:       outputs.Payment.Amount,
		ChangeAddress:       outputs.Change.Address,
		ChangeAmount:        outputs.Change.Amount,
		Fee:                 fee,
		BlockHeight:         blockHeight,
		BlockHash:           blockHash.String(),
	}, nil
}
