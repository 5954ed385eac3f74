package tx

import (
	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// UTXO represents a custody output available to fund payouts.
type UTXO struct {
	TxID         []byte         `json:"txid"`          // 32 bytes, internal byte order
	Vout         uint32         `json:"vout"`
	Amount       uint64         `json:"amount"`        // satoshis
	ScriptPubKey []byte         `json:"script_pubkey"` // locking script bytes
	PrivateKey   *ec.PrivateKey `json:"-"`             // signing key (not serialized)
}

// PayoutTx is a built payout transaction and the outputs it creates.
type PayoutTx struct {
	RawTx      []byte  // Serialized transaction bytes
	TxID       []byte  // Transaction hash (32 bytes), set once signed
	Inputs     []*UTXO // Spent custody outputs, in input order
	PayoutVout uint32  // Output 0: recipient
	Fee        uint64  // Satoshis left to the miner
	ChangeUTXO *UTXO   // Output 1: change back to custody (nil if dust)
}
