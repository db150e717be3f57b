// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import "github.com/btcsuite/btcsettle/netparams"

// activeNet is the parameters of the network the pipeline runs against.  The
// regression test network is the default since the pipeline funds itself by
// generating blocks.
var activeNet = &netparams.RegressionNetParams
