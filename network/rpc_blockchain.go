package network

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var _ BlockchainService = (*RPCClient)(nil)

// btcToSat converts a node-reported BTC amount to satoshis.
func btcToSat(btc float64) uint64 {
	return uint64(math.Round(btc * 1e8))
}

type listUnspentResult struct {
	TxID          string  `json:"txid"`
	Vout          uint32  `json:"vout"`
	Amount        float64 `json:"amount"`
	ScriptPubKey  string  `json:"scriptPubKey"`
	Address       string  `json:"address"`
	Confirmations int64   `json:"confirmations"`
}

// ListUnspent calls `listunspent 0 9999999 ["address"]`, so unconfirmed
// outputs are included.
func (c *RPCClient) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	params := []any{0, 9999999, []string{address}}
	var results []listUnspentResult
	if err := c.Call(ctx, "listunspent", params, &results); err != nil {
		return nil, err
	}

	utxos := make([]*UTXO, len(results))
	for i, r := range results {
		utxos[i] = &UTXO{
			TxID:          r.TxID,
			Vout:          r.Vout,
			Amount:        btcToSat(r.Amount),
			ScriptPubKey:  r.ScriptPubKey,
			Address:       r.Address,
			Confirmations: r.Confirmations,
		}
	}
	return utxos, nil
}

// BroadcastTx calls `sendrawtransaction "hex"`. Any failure wraps
// ErrBroadcastRejected.
func (c *RPCClient) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	var txid string
	if err := c.Call(ctx, "sendrawtransaction", []any{rawTxHex}, &txid); err != nil {
		return "", fmt.Errorf("%w: %w", ErrBroadcastRejected, err)
	}
	if txid == "" {
		return "", fmt.Errorf("%w: empty txid", ErrInvalidResponse)
	}
	return txid, nil
}

// HasTransaction calls `getrawtransaction "txid" 0`. The node's
// unknown-transaction error reads as false; any other failure is returned.
func (c *RPCClient) HasTransaction(ctx context.Context, txid string) (bool, error) {
	var raw string
	err := c.Call(ctx, "getrawtransaction", []any{txid, 0}, &raw)
	var rerr *rpcError
	switch {
	case err == nil:
		return raw != "", nil
	case errors.As(err, &rerr) && rerr.Code == rpcInvalidAddressOrKey:
		return false, nil
	default:
		return false, err
	}
}

// ImportAddress calls `importaddress "address" "heirloom" false`. No rescan
// is requested; the node watches the address from now on.
func (c *RPCClient) ImportAddress(ctx context.Context, address string) error {
	return c.importAddress(ctx, address, false)
}

// ImportAddressRescan is ImportAddress with `rescan` set, for custody
// addresses that were funded before they were imported.
func (c *RPCClient) ImportAddressRescan(ctx context.Context, address string) error {
	return c.importAddress(ctx, address, true)
}

func (c *RPCClient) importAddress(ctx context.Context, address string, rescan bool) error {
	if err := c.Call(ctx, "importaddress", []any{address, "heirloom", rescan}, nil); err != nil {
		return fmt.Errorf("network: import %s: %w", address, err)
	}
	return nil
}
