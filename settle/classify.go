// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settle

import (
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
)

// TxOutput describes a single output of a confirmed transaction as reported
// by the node.  Address is the encoded destination address and may be empty
// when the output script is nonstandard and carries no address.
type TxOutput struct {
	Address string
	Amount  btcutil.Amount
}

// ClassifiedOutputs is the result of partitioning a transaction's outputs
// into the payment to the counterparty and the change returned to the
// sender.  When the transaction produced no change, HasChange is false and
// Change holds the sender's fallback address with a zero amount.
type ClassifiedOutputs struct {
	Payment   TxOutput
	Change    TxOutput
	HasChange bool
}

// Classifier partitions transaction outputs against a configured network.
type Classifier struct {
	chainParams *chaincfg.Params
}

// NewClassifier returns a Classifier that resolves output addresses against
// the passed network parameters.
func NewClassifier(chainParams *chaincfg.Params) *Classifier {
	return &Classifier{chainParams: chainParams}
}

// resolveAddress decodes an encoded address and verifies it belongs to the
// classifier's network.  DecodeAddress accepts base58 addresses from any
// registered network, so the IsForNet check is required to catch cross
// network addresses that decode cleanly.
func (c *Classifier) resolveAddress(addrStr string) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(addrStr, c.chainParams)
	if err != nil {
		return nil, addressError(ErrAddressNetworkMismatch,
			"address does not decode for network "+
				c.chainParams.Name, addrStr, err)
	}
	if !addr.IsForNet(c.chainParams) {
		return nil, addressError(ErrAddressNetworkMismatch,
			"address belongs to a different network than "+
				c.chainParams.Name, addrStr, nil)
	}
	return addr, nil
}

// Classify partitions outputs into the payment made to counterparty and the
// change returned to the sender.  Output order carries no meaning.
//
// Exactly one output must pay the counterparty address.  At most one other
// addressed output may exist and is taken as change; any additional
// candidate makes the transaction shape unsupported rather than guessing
// which output is change.  Outputs without an extractable address are
// ignored.  An output whose address fails network resolution is an error
// local to that output: it is recorded and only surfaced when
// classification cannot be completed without it.
//
// A transaction with no change output is valid (an exact amount match) and
// yields a zero-amount change entry carrying selfFallback.
func (c *Classifier) Classify(outputs []TxOutput, counterparty,
	selfFallback btcutil.Address) (*ClassifiedOutputs, error) {

	counterpartyStr := counterparty.EncodeAddress()

	var (
		payment    *TxOutput
		change     *TxOutput
		resolveErr error
	)
	for i := range outputs {
		out := &outputs[i]
		if out.Address == "" {
			// Nonstandard script; cannot be the payment or the
			// change.
			continue
		}
		addr, err := c.resolveAddress(out.Address)
		if err != nil {
			log.Debugf("Skipping unresolvable output address %v: %v",
				out.Address, err)
			if resolveErr == nil {
				resolveErr = err
			}
			continue
		}
		if addr.EncodeAddress() == counterpartyStr {
			if payment != nil {
				return nil, settleError(ErrUnsupportedShape,
					"multiple outputs pay the counterparty "+
						"address", nil)
			}
			payment = out
			continue
		}
		if change != nil {
			return nil, settleError(ErrUnsupportedShape,
				"more than one change candidate output", nil)
		}
		change = out
	}

	if payment == nil {
		if resolveErr != nil {
			return nil, resolveErr
		}
		return nil, addressError(ErrNoPaymentOutput,
			"no output pays the counterparty address",
			counterpartyStr, nil)
	}

	if change == nil {
		if resolveErr != nil {
			// The output that failed resolution would have been
			// the change, so the local error now affects the
			// result.
			return nil, resolveErr
		}
		// Not an error.  Either the amounts matched exactly and no
		// change was needed, the address comparison is wrong, or the
		// transaction has an unexpected output count; the log line
		// lets an operator tell these apart.
		log.Infof("No change output found: transaction either spent "+
			"an exact amount, the address comparison missed, or "+
			"the output count is unexpected (outputs=%d)",
			len(outputs))
		return &ClassifiedOutputs{
			Payment: *payment,
			Change: TxOutput{
				Address: selfFallback.EncodeAddress(),
				Amount:  0,
			},
			HasChange: false,
		}, nil
	}

	return &ClassifiedOutputs{
		Payment:   *payment,
		Change:    *change,
		HasChange: true,
	}, nil
}
