// Package network talks to a BSV node on behalf of the payout layer: it
// finds spendable custody outputs and relays signed payout transactions.
package network

import "context"

// BlockchainService is the node surface payouts depend on.
type BlockchainService interface {
	// ListUnspent returns all unspent transaction outputs for the given address.
	ListUnspent(ctx context.Context, address string) ([]*UTXO, error)

	// BroadcastTx submits a raw transaction hex to the network and returns the txid.
	BroadcastTx(ctx context.Context, rawTxHex string) (string, error)

	// HasTransaction reports whether the node knows txid, in its mempool or
	// in a block.
	HasTransaction(ctx context.Context, txid string) (bool, error)

	// ImportAddress registers a watch-only address with the node wallet so
	// ListUnspent can see its outputs. Calling it again is harmless.
	ImportAddress(ctx context.Context, address string) error

	// ImportAddressRescan is ImportAddress followed by a chain rescan, for
	// addresses that received coins before they were imported.
	ImportAddressRescan(ctx context.Context, address string) error
}

// UTXO represents an unspent transaction output.
type UTXO struct {
	TxID          string `json:"txid"`
	Vout          uint32 `json:"vout"`
	Amount        uint64 `json:"amount"`
	ScriptPubKey  string `json:"script_pubkey"`
	Address       string `json:"address"`
	Confirmations int64  `json:"confirmations"`
}
