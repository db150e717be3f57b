// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

// WalletHost is the subset of node operations required to provision a
// wallet.  It is satisfied by RPCClient and by test doubles.
type WalletHost interface {
	// ListWallets returns the names of the wallets currently loaded.
	ListWallets() ([]string, error)

	// LoadWallet loads the named wallet from the node's on-disk state.
	LoadWallet(name string) error

	// CreateWallet creates the named wallet on the node.
	CreateWallet(name string) error
}

// WalletHandle describes a wallet known to be loaded and active on the node.
type WalletHandle struct {
	Name   string
	Active bool
}

// provisionState tracks the progress of the create-or-attach dance performed
// by ProvisionWallet.
type provisionState int

const (
	// stateUnchecked is the initial state before the node has been
	// queried for the wallet.
	stateUnchecked provisionState = iota

	// stateLoaded is a terminal state: the wallet is loaded, either
	// because it already was or because a load or create succeeded.
	stateLoaded

	// stateCreateAttempted is entered after an initial load failed and a
	// create has been issued.
	stateCreateAttempted

	// stateRetryLoaded is a terminal state: the wallet was loaded by the
	// single bounded retry after a create failed because the wallet
	// already existed on disk.
	stateRetryLoaded

	// stateFailed is the terminal failure state.
	stateFailed
)

// ProvisionWallet idempotently ensures the named wallet exists and is loaded
// on the node.  The node is the single source of truth; the state machine
// tolerates the two possible starting states (wallet absent, wallet
// present-but-unloaded) plus one concurrent-modification race:
//
//	Unchecked -> Loaded               wallet already loaded, or load worked
//	Unchecked -> CreateAttempted      load failed, create issued
//	CreateAttempted -> Loaded         create worked
//	CreateAttempted -> RetryLoaded    create failed, one retry load worked
//	CreateAttempted -> Failed         retry load also failed
//
// The retry is bounded at one attempt so a misbehaving node cannot trap the
// caller in a load/create loop.
func ProvisionWallet(node WalletHost, name string) (*WalletHandle, error) {
	state := stateUnchecked
	for {
		switch state {
		case stateUnchecked:
			loaded, err := node.ListWallets()
			if err != nil {
				return nil, err
			}
			if containsName(loaded, name) {
				log.Debugf("Wallet %q already loaded", name)
				state = stateLoaded
				continue
			}
			if err := node.LoadWallet(name); err == nil {
				log.Infof("Loaded existing wallet %q", name)
				state = stateLoaded
				continue
			}
			state = stateCreateAttempted

		case stateCreateAttempted:
			if err := node.CreateWallet(name); err == nil {
				log.Infof("Created new wallet %q", name)
				state = stateLoaded
				continue
			}
			// The wallet may exist on disk but the earlier load
			// lost a race with the failed create.  One more load
			// is attempted before giving up.
			if err := node.LoadWallet(name); err == nil {
				log.Infof("Loaded existing wallet %q on retry",
					name)
				state = stateRetryLoaded
				continue
			}
			state = stateFailed

		case stateLoaded, stateRetryLoaded:
			return &WalletHandle{Name: name, Active: true}, nil

		case stateFailed:
			return nil, walletError(ErrWalletState,
				"wallet could not be loaded or created", name,
				nil)
		}
	}
}

// containsName reports whether names contains name.
func containsName(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}
