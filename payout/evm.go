package payout

import (
	"context"
	"crypto/ecdsa"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"go.uber.org/zap"

	"github.com/bitfsorg/heirloom-go/inherit"
)

// EVMBackend is the part of an Ethereum client EVM needs.
// *ethclient.Client satisfies it.
type EVMBackend interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionByHash(ctx context.Context, hash common.Hash) (*types.Transaction, bool, error)
}

// EVM pays out native value on an EVM chain from a single hot key.
type EVM struct {
	mu       sync.Mutex
	backend  EVMBackend
	key      *ecdsa.PrivateKey
	from     common.Address
	signer   types.Signer
	unit     *big.Int
	gasLimit uint64
	log      *zap.Logger
}

// NewEVM creates an EVM payout backend signing with key for chainID.
func NewEVM(backend EVMBackend, key *ecdsa.PrivateKey, chainID *big.Int, opts ...Option) (*EVM, error) {
	if backend == nil {
		return nil, fmt.Errorf("%w: backend", ErrNilParam)
	}
	if key == nil {
		return nil, fmt.Errorf("%w: key", ErrNilParam)
	}
	if chainID == nil || chainID.Sign() <= 0 {
		return nil, fmt.Errorf("%w: chain id", ErrNilParam)
	}
	s := applyOptions(opts)

	return &EVM{
		backend:  backend,
		key:      key,
		from:     crypto.PubkeyToAddress(key.PublicKey),
		signer:   types.LatestSignerForChainID(chainID),
		unit:     new(big.Int).Set(s.unit),
		gasLimit: s.gasLimit,
		log:      s.log,
	}, nil
}

// DialEVM connects to rpcURL and builds an EVM backend from a hex private
// key. The chain ID is taken from the node when chainID is zero.
func DialEVM(ctx context.Context, rpcURL, keyHex string, chainID uint64, opts ...Option) (*EVM, *ethclient.Client, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(keyHex, "0x"))
	if err != nil {
		return nil, nil, fmt.Errorf("payout: parse evm key: %w", err)
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: dial %s: %w", ErrBroadcast, rpcURL, err)
	}

	id := new(big.Int).SetUint64(chainID)
	if chainID == 0 {
		id, err = client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, nil, fmt.Errorf("%w: chain id: %w", ErrBroadcast, err)
		}
	}

	e, err := NewEVM(client, key, id, opts...)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return e, client, nil
}

// From returns the account payouts are sent from.
func (e *EVM) From() common.Address {
	return e.from
}

// Transfer sends amount plan units, scaled to wei, to the account to. A
// send whose reply is lost is settled by looking the transaction up by
// hash; if that fails too the payout is reported as sent, as BSV does.
func (e *EVM) Transfer(ctx context.Context, to inherit.Address, amount uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	nonce, err := e.backend.PendingNonceAt(ctx, e.from)
	if err != nil {
		return fmt.Errorf("payout: nonce: %w", err)
	}
	gasPrice, err := e.backend.SuggestGasPrice(ctx)
	if err != nil {
		return fmt.Errorf("payout: gas price: %w", err)
	}

	recipient := common.BytesToAddress(to[:])
	value := new(big.Int).Mul(new(big.Int).SetUint64(amount), e.unit)
	unsigned := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &recipient,
		Value:    value,
		Gas:      e.gasLimit,
		GasPrice: gasPrice,
	})
	signed, err := types.SignTx(unsigned, e.signer, e.key)
	if err != nil {
		return fmt.Errorf("payout: sign evm tx: %w", err)
	}
	if err := e.backend.SendTransaction(ctx, signed); err != nil {
		var verdict rpc.Error
		if errors.As(err, &verdict) {
			return fmt.Errorf("%w: %w", ErrBroadcast, err)
		}
		known, lerr := e.lookup(ctx, signed.Hash())
		switch {
		case lerr != nil:
			e.log.Error("evm payout outcome unknown, treating as sent",
				zap.Stringer("to", to),
				zap.Uint64("amount", amount),
				zap.String("tx", signed.Hash().Hex()),
				zap.NamedError("send_error", err),
				zap.Error(lerr))
		case !known:
			return fmt.Errorf("%w: %w", ErrBroadcast, err)
		default:
			e.log.Warn("evm payout accepted despite send error",
				zap.String("tx", signed.Hash().Hex()), zap.Error(err))
		}
	}

	e.log.Info("evm payout sent",
		zap.Stringer("to", to),
		zap.Uint64("amount", amount),
		zap.Stringer("wei", value),
		zap.Uint64("nonce", nonce),
		zap.String("tx", signed.Hash().Hex()))
	return nil
}

// lookup reports whether the node knows hash, still trying when ctx is
// already done.
func (e *EVM) lookup(ctx context.Context, hash common.Hash) (bool, error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), lookupTimeout)
	defer cancel()
	_, _, err := e.backend.TransactionByHash(ctx, hash)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ethereum.NotFound):
		return false, nil
	default:
		return false, err
	}
}
