// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package chain

import (
	"encoding/json"
	"errors"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"
)

// RPCClient represents a client connection to the JSON-RPC interface of a
// ledger node.  The zero wallet path targets node-level calls; wallet-scoped
// calls are made through a derived client created with WalletClient.
type RPCClient struct {
	*rpcclient.Client
	connConfig  *rpcclient.ConnConfig // Work around unexported field
	chainParams *chaincfg.Params
}

// A compile-time check to ensure that RPCClient satisfies the WalletHost
// interface used by the wallet provisioner.
var _ WalletHost = (*RPCClient)(nil)

// NewRPCClient creates a client connection to the node described by the
// connect string.  The node is spoken to over HTTP POST with basic auth, the
// same transport bitcoind exposes.  If disableTLS is false, the remote RPC
// certificate must be provided in the certs slice.
func NewRPCClient(chainParams *chaincfg.Params, connect, user, pass string,
	certs []byte, disableTLS bool) (*RPCClient, error) {

	if chainParams == nil {
		return nil, errors.New("missing chain params")
	}

	client := &RPCClient{
		connConfig: &rpcclient.ConnConfig{
			Host:         connect,
			User:         user,
			Pass:         pass,
			Certificates: certs,
			DisableTLS:   disableTLS,
			HTTPPostMode: true,
		},
		chainParams: chainParams,
	}
	rpcClient, err := rpcclient.New(client.connConfig, nil)
	if err != nil {
		return nil, nodeError(ErrConnectivity,
			"failed to create RPC client", err)
	}
	client.Client = rpcClient
	return client, nil
}

// Start verifies that the node is reachable, that the supplied credentials
// are accepted, and that the node operates on the same network as described
// by the client's chain parameters.  It returns the node's blockchain info
// so callers can log the chain state at startup.
func (c *RPCClient) Start() (*btcjson.GetBlockChainInfoResult, error) {
	info, err := c.GetBlockChainInfo()
	if err != nil {
		if errors.Is(err, rpcclient.ErrInvalidAuth) {
			return nil, nodeError(ErrAuth,
				"node rejected RPC credentials", err)
		}
		return nil, nodeError(ErrConnectivity,
			"failed to query node blockchain info", err)
	}
	if !matchesNetwork(info.Chain, c.chainParams) {
		return nil, nodeError(ErrConnectivity,
			"node is running on network "+info.Chain+
				" but client is configured for "+
				c.chainParams.Name, nil)
	}
	return info, nil
}

// WalletClient derives a new client whose calls are scoped to the named
// wallet by way of the /wallet/<name> URL path segment.
func (c *RPCClient) WalletClient(walletName string) (*RPCClient, error) {
	connConfig := *c.connConfig
	connConfig.Host = c.connConfig.Host + "/wallet/" + walletName

	client := &RPCClient{
		connConfig:  &connConfig,
		chainParams: c.chainParams,
	}
	rpcClient, err := rpcclient.New(client.connConfig, nil)
	if err != nil {
		return nil, walletError(ErrConnectivity,
			"failed to create wallet-scoped RPC client", walletName,
			err)
	}
	client.Client = rpcClient
	return client, nil
}

// matchesNetwork reports whether the chain identifier from getblockchaininfo
// describes the same network as the passed chain parameters.  bitcoind
// reports short names (main, test, regtest) while btcd reports the full
// parameter name.
func matchesNetwork(chain string, params *chaincfg.Params) bool {
	if chain == params.Name {
		return true
	}
	switch chain {
	case "main":
		return params.Net == wire.MainNet
	case "test":
		return params.Net == wire.TestNet3
	case "regtest":
		// The regression test network shares the testnet wire magic
		// in the chaincfg parameters.
		return params.Net == wire.TestNet
	case "simnet":
		return params.Net == wire.SimNet
	}
	return false
}

// ListWallets returns the names of the wallets currently loaded on the node.
func (c *RPCClient) ListWallets() ([]string, error) {
	res, err := c.RawRequest("listwallets", nil)
	if err != nil {
		return nil, nodeError(ErrConnectivity,
			"failed to list loaded wallets", err)
	}
	var names []string
	if err := json.Unmarshal(res, &names); err != nil {
		return nil, nodeError(ErrProtocolDecode,
			"failed to decode listwallets response", err)
	}
	return names, nil
}

// LoadWallet asks the node to load the named wallet from its on-disk state.
func (c *RPCClient) LoadWallet(name string) error {
	if _, err := c.Client.LoadWallet(name); err != nil {
		return walletError(ErrWalletState, "failed to load wallet",
			name, err)
	}
	return nil
}

// CreateWallet asks the node to create the named wallet.
func (c *RPCClient) CreateWallet(name string) error {
	if _, err := c.Client.CreateWallet(name); err != nil {
		return walletError(ErrWalletState, "failed to create wallet",
			name, err)
	}
	return nil
}

// NewAddress generates a new bech32 address from the wallet this client is
// scoped to, tagged on the node with the given label.  The returned address
// is resolved against the client's configured network before use.
func (c *RPCClient) NewAddress(label string) (btcutil.Address, error) {
	labelParam, err := json.Marshal(label)
	if err != nil {
		return nil, err
	}
	typeParam, err := json.Marshal("bech32")
	if err != nil {
		return nil, err
	}
	res, err := c.RawRequest("getnewaddress",
		[]json.RawMessage{labelParam, typeParam})
	if err != nil {
		return nil, nodeError(ErrConnectivity,
			"failed to generate new address", err)
	}
	var addrStr string
	if err := json.Unmarshal(res, &addrStr); err != nil {
		return nil, nodeError(ErrProtocolDecode,
			"failed to decode getnewaddress response", err)
	}
	addr, err := btcutil.DecodeAddress(addrStr, c.chainParams)
	if err != nil {
		return nil, addressError(ErrAddressNetworkMismatch,
			"node returned address that does not decode for network "+
				c.chainParams.Name, addrStr, err)
	}
	if !addr.IsForNet(c.chainParams) {
		return nil, addressError(ErrAddressNetworkMismatch,
			"node returned address for the wrong network", addrStr,
			nil)
	}
	return addr, nil
}

// Generate mines numBlocks blocks paying the block subsidy to addr and
// returns the hashes of the generated blocks.
func (c *RPCClient) Generate(numBlocks int64, addr btcutil.Address) ([]*chainhash.Hash, error) {
	hashes, err := c.GenerateToAddress(numBlocks, addr, nil)
	if err != nil {
		return nil, addressError(ErrConnectivity,
			"failed to generate blocks", addr.EncodeAddress(), err)
	}
	return hashes, nil
}

// Balance returns the spendable balance of the wallet this client is scoped
// to.
func (c *RPCClient) Balance() (btcutil.Amount, error) {
	balance, err := c.GetBalance("*")
	if err != nil {
		return 0, nodeError(ErrConnectivity,
			"failed to query wallet balance", err)
	}
	return balance, nil
}

// sendResult models the result object of the node's send call.
type sendResult struct {
	Complete bool   `json:"complete"`
	TxID     string `json:"txid"`
}

// Send instructs the wallet this client is scoped to to build, fund, sign,
// and broadcast a transaction paying amount to addr, returning the
// transaction id.  The send call has no wrapper in the rpcclient API, so it
// is issued through the generic RawRequest.
func (c *RPCClient) Send(addr btcutil.Address, amount btcutil.Amount) (*chainhash.Hash, error) {
	outputs, err := json.Marshal([]map[string]float64{
		{addr.EncodeAddress(): amount.ToBTC()},
	})
	if err != nil {
		return nil, err
	}

	// Positional nulls for conf target, estimate mode, fee rate, and the
	// options object, all left to node policy.
	null := json.RawMessage("null")
	params := []json.RawMessage{outputs, null, null, null, null}

	res, err := c.RawRequest("send", params)
	if err != nil {
		return nil, addressError(ErrConnectivity,
			"send call failed", addr.EncodeAddress(), err)
	}
	var result sendResult
	if err := json.Unmarshal(res, &result); err != nil {
		return nil, nodeError(ErrProtocolDecode,
			"failed to decode send response", err)
	}
	if !result.Complete {
		return nil, txError(ErrWalletState,
			"node reported an incomplete send", result.TxID, nil)
	}
	txHash, err := chainhash.NewHashFromStr(result.TxID)
	if err != nil {
		return nil, txError(ErrProtocolDecode,
			"send returned a malformed txid", result.TxID, err)
	}
	return txHash, nil
}

// MempoolEntry fetches the node's mempool entry for the passed transaction.
func (c *RPCClient) MempoolEntry(txHash *chainhash.Hash) (*btcjson.GetMempoolEntryResult, error) {
	entry, err := c.GetMempoolEntry(txHash.String())
	if err != nil {
		return nil, txError(ErrConnectivity,
			"failed to fetch mempool entry", txHash.String(), err)
	}
	return entry, nil
}

// WalletTransaction fetches the wallet's view of the passed transaction,
// including the per-category amount breakdown and the fee when the wallet
// funded the transaction.
func (c *RPCClient) WalletTransaction(txHash *chainhash.Hash) (*btcjson.GetTransactionResult, error) {
	res, err := c.GetTransaction(txHash)
	if err != nil {
		return nil, txError(ErrConnectivity,
			"failed to fetch wallet transaction", txHash.String(),
			err)
	}
	return res, nil
}

// RawTransaction fetches and decodes the raw form of the passed transaction.
func (c *RPCClient) RawTransaction(txHash *chainhash.Hash) (*btcjson.TxRawResult, error) {
	res, err := c.GetRawTransactionVerbose(txHash)
	if err != nil {
		return nil, txError(ErrConnectivity,
			"failed to fetch raw transaction", txHash.String(), err)
	}
	return res, nil
}

// BlockVerbose fetches the verbose block description for the passed block
// hash, which carries the block's height.
func (c *RPCClient) BlockVerbose(blockHash *chainhash.Hash) (*btcjson.GetBlockVerboseResult, error) {
	block, err := c.GetBlockVerbose(blockHash)
	if err != nil {
		return nil, nodeError(ErrConnectivity,
			"failed to fetch block "+blockHash.String(), err)
	}
	return block, nil
}
