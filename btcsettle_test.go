// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"bytes"
	"testing"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/require"
)

// TestVoutAddress checks address extraction from both the single-address
// form reported by newer nodes and the list form reported by older ones.
func TestVoutAddress(t *testing.T) {
	require := require.New(t)

	vout := &btcjson.Vout{}
	require.Empty(voutAddress(vout))

	vout.ScriptPubKey.Addresses = []string{"bcrt1qold", "bcrt1qother"}
	require.Equal("bcrt1qold", voutAddress(vout))

	vout.ScriptPubKey.Address = "bcrt1qnew"
	require.Equal("bcrt1qnew", voutAddress(vout))
}

// TestDecodeNetAddress checks the active-network guard on decoded addresses.
func TestDecodeNetAddress(t *testing.T) {
	require := require.New(t)

	regtest, err := btcutil.NewAddressWitnessPubKeyHash(
		bytes.Repeat([]byte{0x01}, 20), &chaincfg.RegressionNetParams)
	require.NoError(err)

	addr, err := decodeNetAddress(regtest.EncodeAddress())
	require.NoError(err)
	require.Equal(regtest.EncodeAddress(), addr.EncodeAddress())

	// A mainnet address decodes but is not for the active network.
	mainnet, err := btcutil.NewAddressPubKeyHash(
		bytes.Repeat([]byte{0x02}, 20), &chaincfg.MainNetParams)
	require.NoError(err)

	_, err = decodeNetAddress(mainnet.EncodeAddress())
	require.Error(err)
	require.Contains(err.Error(), mainnet.EncodeAddress())
}
