package payout

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/bitfsorg/heirloom-go/inherit"
)

// Ledger is an in-process balance book. It credits recipients directly and
// is what the registry pays through when no chain is configured.
type Ledger struct {
	mu       sync.Mutex
	balances map[inherit.Address]uint64
	rejected map[inherit.Address]struct{}
	total    uint64
	hook     func(ctx context.Context, to inherit.Address, amount uint64) error
	log      *zap.Logger
}

// NewLedger creates an empty ledger.
func NewLedger(opts ...Option) *Ledger {
	s := applyOptions(opts)
	return &Ledger{
		balances: make(map[inherit.Address]uint64),
		rejected: make(map[inherit.Address]struct{}),
		log:      s.log,
	}
}

// Transfer credits amount to to. The OnTransfer hook runs first, outside
// the ledger lock, and may itself call back into the registry.
func (l *Ledger) Transfer(ctx context.Context, to inherit.Address, amount uint64) error {
	l.mu.Lock()
	hook := l.hook
	l.mu.Unlock()

	if hook != nil {
		if err := hook(ctx, to, amount); err != nil {
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.rejected[to]; ok {
		l.log.Debug("ledger transfer rejected", zap.Stringer("to", to), zap.Uint64("amount", amount))
		return fmt.Errorf("%w: %s", ErrRejected, to)
	}
	l.balances[to] += amount
	l.total += amount
	l.log.Debug("ledger transfer", zap.Stringer("to", to), zap.Uint64("amount", amount))
	return nil
}

// Reject makes every later transfer to addr fail until Accept is called.
func (l *Ledger) Reject(addr inherit.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.rejected[addr] = struct{}{}
}

// Accept undoes Reject.
func (l *Ledger) Accept(addr inherit.Address) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.rejected, addr)
}

// OnTransfer installs a hook that runs at the start of every transfer. A
// hook error fails the transfer. Pass nil to remove it.
func (l *Ledger) OnTransfer(fn func(ctx context.Context, to inherit.Address, amount uint64) error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.hook = fn
}

// Balance returns the amount credited to addr.
func (l *Ledger) Balance(addr inherit.Address) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balances[addr]
}

// Total returns the amount credited across all recipients.
func (l *Ledger) Total() uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.total
}
