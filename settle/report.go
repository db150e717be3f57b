// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package settle

import (
	"os"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
)

// formatAmount renders a fixed-point amount as a decimal currency value for
// the report.  The shortest representation that round-trips is used, so
// whole amounts print without a fractional part.
func formatAmount(amount btcutil.Amount) string {
	return strconv.FormatFloat(amount.ToBTC(), 'f', -1, 64)
}

// encode renders the record as the ten report lines in their fixed order.
// The field order is a compatibility contract with downstream consumers.
func (r *SettlementRecord) encode() string {
	lines := []string{
		r.TxID,
		r.SenderAddress,
		formatAmount(r.InputAmount),
		r.CounterpartyAddress,
		formatAmount(r.PaymentAmount),
		r.ChangeAddress,
		formatAmount(r.ChangeAmount),
		formatAmount(r.Fee),
		strconv.FormatInt(r.BlockHeight, 10),
		r.BlockHash,
	}
	return strings.Join(lines, "\n")
}

// WriteReport serializes the record to the named file, truncating any
// existing file at that path.  The report is ten newline-separated values
// with nothing written after the final value.  A write failure is fatal to
// the run; the record is cheap to regenerate by re-running against the mined
// chain state, so no partial-write recovery is attempted.
func WriteReport(record *SettlementRecord, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return settleError(ErrIOFailure,
			"failed to create settlement report "+path, err)
	}
	if _, err := f.WriteString(record.encode()); err != nil {
		f.Close()
		return settleError(ErrIOFailure,
			"failed to write settlement report "+path, err)
	}
	if err := f.Close(); err != nil {
		return settleError(ErrIOFailure,
			"failed to close settlement report "+path, err)
	}
	return nil
}
