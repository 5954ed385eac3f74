// Package payout provides the value-transfer backends the inheritance
// registry pays through: an in-process ledger, BSV custody payouts relayed
// through a node, and native-value transfers on an EVM chain.
package payout

import (
	"errors"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/bitfsorg/heirloom-go/inherit"
)

var (
	// ErrRejected is returned by a Ledger for recipients marked with Reject.
	ErrRejected = errors.New("payout: recipient rejected")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("payout: required parameter is nil")

	// ErrBroadcast wraps node and chain submission failures.
	ErrBroadcast = errors.New("payout: submission failed")
)

var (
	_ inherit.Transferer = (*Ledger)(nil)
	_ inherit.Transferer = (*BSV)(nil)
	_ inherit.Transferer = (*EVM)(nil)
)

// DefaultEVMUnit scales plan amounts to wei: one plan unit is one gwei.
var DefaultEVMUnit = big.NewInt(1_000_000_000)

// DefaultEVMGasLimit is the intrinsic gas of a plain value transfer.
const DefaultEVMGasLimit = 21000

// lookupTimeout bounds the check made after a submission whose outcome was
// lost in transit.
const lookupTimeout = 15 * time.Second

type settings struct {
	log      *zap.Logger
	feeRate  uint64
	unit     *big.Int
	gasLimit uint64
}

// Option configures a backend. Options irrelevant to a backend are ignored.
type Option func(*settings)

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *settings) { s.log = l }
}

// WithFeeRate sets the BSV fee rate in sat/KB.
func WithFeeRate(rate uint64) Option {
	return func(s *settings) { s.feeRate = rate }
}

// WithUnit sets the wei value of one plan unit for EVM payouts.
func WithUnit(wei *big.Int) Option {
	return func(s *settings) { s.unit = wei }
}

// WithGasLimit overrides the EVM gas limit.
func WithGasLimit(gas uint64) Option {
	return func(s *settings) { s.gasLimit = gas }
}

func applyOptions(opts []Option) settings {
	s := settings{
		unit:     DefaultEVMUnit,
		gasLimit: DefaultEVMGasLimit,
	}
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = zap.NewNop()
	}
	if s.unit == nil || s.unit.Sign() <= 0 {
		s.unit = DefaultEVMUnit
	}
	if s.gasLimit == 0 {
		s.gasLimit = DefaultEVMGasLimit
	}
	return s
}
