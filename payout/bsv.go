package payout

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"go.uber.org/zap"

	"github.com/bitfsorg/heirloom-go/custody"
	"github.com/bitfsorg/heirloom-go/inherit"
	"github.com/bitfsorg/heirloom-go/network"
	"github.com/bitfsorg/heirloom-go/tx"
)

// BSV pays out from a custody key's outputs. Each transfer selects coins,
// builds and signs a one-recipient transaction and broadcasts it; plan
// amounts are satoshis.
type BSV struct {
	mu      sync.Mutex
	chain   network.BlockchainService
	key     *custody.KeyPair
	addr    string
	pkh     []byte
	lock    []byte
	feeRate uint64
	log     *zap.Logger

	// Outputs spent by broadcasts the node may not have indexed yet.
	pending map[string]struct{}
}

// NewBSV creates a BSV payout backend spending from wallet's payout key.
func NewBSV(chain network.BlockchainService, wallet *custody.Wallet, opts ...Option) (*BSV, error) {
	if chain == nil {
		return nil, fmt.Errorf("%w: blockchain service", ErrNilParam)
	}
	if wallet == nil {
		return nil, fmt.Errorf("%w: wallet", ErrNilParam)
	}
	s := applyOptions(opts)

	key, err := wallet.PayoutKey()
	if err != nil {
		return nil, err
	}
	addr, err := key.P2PKHAddress()
	if err != nil {
		return nil, err
	}
	lock, err := tx.BuildP2PKHScript(key.PublicKey)
	if err != nil {
		return nil, err
	}

	return &BSV{
		chain:   chain,
		key:     key,
		addr:    addr,
		pkh:     key.PublicKey.Hash(),
		lock:    lock,
		feeRate: s.feeRate,
		log:     s.log,
		pending: make(map[string]struct{}),
	}, nil
}

// CustodyAddress is the address plans' funds must be sent to.
func (b *BSV) CustodyAddress() string {
	return b.addr
}

// Watch asks the node to track the custody address. With rescan the node
// also scans the chain for coins sent before the address was imported.
func (b *BSV) Watch(ctx context.Context, rescan bool) error {
	if rescan {
		return b.chain.ImportAddressRescan(ctx, b.addr)
	}
	return b.chain.ImportAddress(ctx, b.addr)
}

// Transfer pays amount satoshis to the P2PKH address whose hash is to.
// Transfers are serialized so concurrent payouts never pick the same coins.
//
// The spent coins are marked pending before the broadcast. When the node
// rejects the transaction they are released and an error is returned. When
// the reply is lost the node is asked for the txid: a known transaction is
// a payout, an unknown one a failure. If even that cannot be answered the
// payout is reported as sent and its coins stay pending, since reporting a
// failure would let the claim be paid again from fresh coins.
func (b *BSV) Transfer(ctx context.Context, to inherit.Address, amount uint64) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	listed, err := b.chain.ListUnspent(ctx, b.addr)
	if err != nil {
		return fmt.Errorf("payout: list custody outputs: %w", err)
	}

	available := make([]*tx.UTXO, 0, len(listed))
	live := make(map[string]struct{}, len(listed))
	for _, u := range listed {
		op := outpoint(u.TxID, u.Vout)
		live[op] = struct{}{}
		if _, spent := b.pending[op]; spent {
			continue
		}
		h, err := chainhash.NewHashFromHex(u.TxID)
		if err != nil {
			b.log.Warn("skipping custody output with bad txid", zap.String("txid", u.TxID), zap.Error(err))
			continue
		}
		available = append(available, &tx.UTXO{
			TxID:         h.CloneBytes(),
			Vout:         u.Vout,
			Amount:       u.Amount,
			ScriptPubKey: b.lock,
			PrivateKey:   b.key.PrivateKey,
		})
	}
	// Forget pending spends the node no longer lists.
	for op := range b.pending {
		if _, ok := live[op]; !ok {
			delete(b.pending, op)
		}
	}

	selected, err := tx.SelectUTXOs(available, amount, b.feeRate)
	if err != nil {
		return err
	}
	ptx, err := tx.BuildPayoutTx(&tx.PayoutParams{
		Recipient:  to[:],
		Amount:     amount,
		Inputs:     selected,
		ChangeAddr: b.pkh,
		FeeRate:    b.feeRate,
	})
	if err != nil {
		return err
	}
	rawHex, err := tx.SignPayoutTx(ptx)
	if err != nil {
		return err
	}

	id, err := chainhash.NewHash(ptx.TxID)
	if err != nil {
		return fmt.Errorf("payout: signed txid: %w", err)
	}
	txid := id.String()
	spent := make([]string, len(selected))
	for i, in := range selected {
		h, _ := chainhash.NewHash(in.TxID)
		spent[i] = outpoint(h.String(), in.Vout)
		b.pending[spent[i]] = struct{}{}
	}
	release := func() {
		for _, op := range spent {
			delete(b.pending, op)
		}
	}

	if _, err := b.chain.BroadcastTx(ctx, rawHex); err != nil {
		if rejected(err) {
			release()
			return fmt.Errorf("%w: %w", ErrBroadcast, err)
		}
		known, lerr := b.lookup(ctx, txid)
		switch {
		case lerr != nil:
			b.log.Error("bsv payout outcome unknown, treating as sent",
				zap.Stringer("to", to),
				zap.Uint64("amount", amount),
				zap.String("txid", txid),
				zap.NamedError("broadcast_error", err),
				zap.Error(lerr))
		case !known:
			release()
			return fmt.Errorf("%w: %w", ErrBroadcast, err)
		default:
			b.log.Warn("bsv payout accepted despite broadcast error",
				zap.String("txid", txid), zap.Error(err))
		}
	}

	b.log.Info("bsv payout broadcast",
		zap.Stringer("to", to),
		zap.Uint64("amount", amount),
		zap.Uint64("fee", ptx.Fee),
		zap.Int("inputs", len(selected)),
		zap.String("txid", txid))
	return nil
}

// lookup asks the node for txid, still trying when ctx is already done.
func (b *BSV) lookup(ctx context.Context, txid string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
	defer cancel()
	return b.chain.HasTransaction(ctx, txid)
}

// rejected reports whether a broadcast error is the node's verdict on the
// transaction rather than a lost request or reply.
func rejected(err error) bool {
	return errors.Is(err, network.ErrRPC) || errors.Is(err, network.ErrAuthFailed)
}

func outpoint(txid string, vout uint32) string {
	return fmt.Sprintf("%s:%d", txid, vout)
}
