// Copyright (c) 2025 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcsettle/chain"
	"github.com/btcsuite/btcsettle/settle"
)

var cfg *config

func main() {
	// Work around defer not working after os.Exit.
	if err := settleMain(); err != nil {
		os.Exit(1)
	}
}

// settleMain drives the full settlement pipeline against the configured
// ledger node: provision the miner and trader wallets, fund the miner by
// mining past the coinbase maturity window, pay the trader, confirm the
// payment, and reconcile the confirmed transaction into the settlement
// report.  Every node call is a blocking request issued in sequence; any
// failure aborts the run, which is safe to repeat from scratch.
func settleMain() error {
	tcfg, _, err := loadConfig()
	if err != nil {
		return err
	}
	cfg = tcfg
	defer func() {
		if logRotator != nil {
			logRotator.Close()
		}
	}()

	// Read CA certs when TLS is in use.
	var certs []byte
	if !cfg.DisableClientTLS {
		certs, err = os.ReadFile(cfg.CAFile)
		if err != nil {
			log.Errorf("Cannot open CA file: %v", err)
			return err
		}
	}

	client, err := chain.NewRPCClient(activeNet.Params, cfg.RPCConnect,
		cfg.Username, cfg.Password, certs, cfg.DisableClientTLS)
	if err != nil {
		log.Errorf("Cannot create node RPC client: %v", err)
		return err
	}
	defer client.Shutdown()

	info, err := client.Start()
	if err != nil {
		log.Errorf("Cannot connect to the ledger node: %v", err)
		return err
	}
	log.Infof("Connected to %s node at height %d (best block %s)",
		info.Chain, info.Blocks, info.BestBlockHash)

	// Provision both wallets before any funds move.  The node is the
	// single source of truth for wallet state.
	if _, err := chain.ProvisionWallet(client, cfg.MinerWallet); err != nil {
		log.Errorf("Cannot provision wallet %q: %v", cfg.MinerWallet, err)
		return err
	}
	if _, err := chain.ProvisionWallet(client, cfg.TraderWallet); err != nil {
		log.Errorf("Cannot provision wallet %q: %v", cfg.TraderWallet, err)
		return err
	}

	miner, err := client.WalletClient(cfg.MinerWallet)
	if err != nil {
		return err
	}
	defer miner.Shutdown()
	trader, err := client.WalletClient(cfg.TraderWallet)
	if err != nil {
		return err
	}
	defer trader.Shutdown()

	rewardAddr, err := miner.NewAddress("Mining Reward")
	if err != nil {
		log.Errorf("Cannot generate mining reward address: %v", err)
		return err
	}
	log.Infof("Mining reward address: %v", rewardAddr)

	// Coinbase outputs only become spendable after the maturity window,
	// so one block more than the maturity is mined to make the first
	// reward spendable.
	numBlocks := int64(activeNet.CoinbaseMaturity) + 1
	if _, err := miner.Generate(numBlocks, rewardAddr); err != nil {
		log.Errorf("Cannot generate funding blocks: %v", err)
		return err
	}
	log.Infof("Generated %d blocks to the mining reward address", numBlocks)

	balance, err := miner.Balance()
	if err != nil {
		return err
	}
	log.Infof("Wallet %q balance: %v", cfg.MinerWallet, balance)

	recvAddr, err := trader.NewAddress("Received")
	if err != nil {
		log.Errorf("Cannot generate trader receive address: %v", err)
		return err
	}
	log.Infof("Trader receive address: %v", recvAddr)

	preHeight, err := client.GetBlockCount()
	if err != nil {
		return err
	}

	amount := cfg.PaymentAmount.Amount
	txHash, err := miner.Send(recvAddr, amount)
	if err != nil {
		log.Errorf("Cannot send payment: %v", err)
		return err
	}
	log.Infof("Broadcast payment of %v to %v in transaction %v",
		amount, recvAddr, txHash)

	entry, err := miner.MempoolEntry(txHash)
	if err != nil {
		log.Errorf("Cannot fetch mempool entry for %v: %v", txHash, err)
		return err
	}
	log.Infof("Transaction %v accepted to mempool (fee %v, time %d)",
		txHash, entry.Fee, entry.Time)

	// One block confirms the payment.
	if _, err := miner.Generate(1, rewardAddr); err != nil {
		log.Errorf("Cannot mine confirming block: %v", err)
		return err
	}

	record, err := reconcile(client, miner, txHash, recvAddr, rewardAddr,
		preHeight)
	if err != nil {
		log.Errorf("Cannot reconcile transaction %v: %v", txHash, err)
		return err
	}

	if err := settle.WriteReport(record, cfg.ReportFile); err != nil {
		log.Errorf("Cannot write settlement report: %v", err)
		return err
	}
	log.Infof("Settlement record for %v written to %v", txHash,
		cfg.ReportFile)
	return nil
}

// reconcile classifies the confirmed transaction's outputs, derives the fee,
// and assembles the settlement record from the chain confirmation metadata.
func reconcile(client, miner *chain.RPCClient, txHash *chainhash.Hash,
	counterparty, selfFallback btcutil.Address,
	preHeight int64) (*settle.SettlementRecord, error) {

	txInfo, err := miner.WalletTransaction(txHash)
	if err != nil {
		return nil, err
	}
	rawTx, err := miner.RawTransaction(txHash)
	if err != nil {
		return nil, err
	}

	// Resolve the funding inputs to their previous outputs for the total
	// input amount and the sender's funding address.
	var (
		inputAmount btcutil.Amount
		senderAddr  btcutil.Address
	)
	for _, vin := range rawTx.Vin {
		if vin.IsCoinBase() {
			continue
		}
		prevHash, err := chainhash.NewHashFromStr(vin.Txid)
		if err != nil {
			return nil, fmt.Errorf("malformed input txid %q: %v",
				vin.Txid, err)
		}
		prevTx, err := miner.RawTransaction(prevHash)
		if err != nil {
			return nil, err
		}
		if vin.Vout >= uint32(len(prevTx.Vout)) {
			return nil, fmt.Errorf("input of %v references "+
				"missing output %d of %v", txHash, vin.Vout,
				prevHash)
		}
		prevOut := &prevTx.Vout[vin.Vout]
		prevAmount, err := btcutil.NewAmount(prevOut.Value)
		if err != nil {
			return nil, err
		}
		inputAmount += prevAmount

		if senderAddr == nil {
			if addrStr := voutAddress(prevOut); addrStr != "" {
				senderAddr, err = decodeNetAddress(addrStr)
				if err != nil {
					return nil, err
				}
			}
		}
	}
	if senderAddr == nil {
		// All funding inputs hid their addresses; fall back to the
		// wallet's own reward address.
		senderAddr = selfFallback
	}

	outputs := make([]settle.TxOutput, 0, len(rawTx.Vout))
	outputAmounts := make([]btcutil.Amount, 0, len(rawTx.Vout))
	for i := range rawTx.Vout {
		vout := &rawTx.Vout[i]
		outAmount, err := btcutil.NewAmount(vout.Value)
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, settle.TxOutput{
			Address: voutAddress(vout),
			Amount:  outAmount,
		})
		outputAmounts = append(outputAmounts, outAmount)
	}

	classifier := settle.NewClassifier(activeNet.Params)
	classified, err := classifier.Classify(outputs, counterparty,
		selfFallback)
	if err != nil {
		return nil, err
	}

	// Prefer the fee the node reports from the sending wallet's view and
	// fall back to recomputing it from the amount deltas.
	fee, ok := settle.FeeFromWalletView(txInfo.Fee)
	if !ok {
		if inputAmount > 0 {
			fee = settle.ComputeFee(inputAmount, outputAmounts)
		} else {
			log.Warnf("Node reported no fee for %v and its inputs "+
				"could not be resolved; recording a zero fee "+
				"(low confidence)", txHash)
		}
	}

	if txInfo.BlockHash == "" {
		return nil, fmt.Errorf("transaction %v is not confirmed",
			txHash)
	}
	blockHash, err := chainhash.NewHashFromStr(txInfo.BlockHash)
	if err != nil {
		return nil, fmt.Errorf("malformed block hash %q: %v",
			txInfo.BlockHash, err)
	}
	block, err := client.BlockVerbose(blockHash)
	if err != nil {
		return nil, err
	}
	if block.Height != preHeight+1 {
		log.Warnf("Confirming block height %d is not one past the "+
			"pre-transfer height %d", block.Height, preHeight)
	}

	return settle.BuildRecord(txHash, senderAddr, inputAmount,
		counterparty, classified, fee, block.Height, blockHash)
}

// voutAddress extracts the destination address of a decoded output, if the
// output script carries one.  Newer nodes report a single address field
// while older ones report a list.
func voutAddress(vout *btcjson.Vout) string {
	if vout.ScriptPubKey.Address != "" {
		return vout.ScriptPubKey.Address
	}
	if len(vout.ScriptPubKey.Addresses) > 0 {
		return vout.ScriptPubKey.Addresses[0]
	}
	return ""
}

// decodeNetAddress decodes an encoded address and verifies it belongs to the
// active network.
func decodeNetAddress(addrStr string) (btcutil.Address, error) {
	addr, err := btcutil.DecodeAddress(addrStr, activeNet.Params)
	if err != nil {
		return nil, fmt.Errorf("address %q does not decode for "+
			"network %s: %v", addrStr, activeNet.Params.Name, err)
	}
	if !addr.IsForNet(activeNet.Params) {
		return nil, fmt.Errorf("address %q is not for network %s",
			addrStr, activeNet.Params.Name)
	}
	return addr, nil
}
