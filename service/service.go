// Package service assembles a running heirloom node: configuration, the
// plan store, the payout backend and the registry, plus a keeper that locks
// the share of every plan whose owner has gone silent.
package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/bitfsorg/heirloom-go/config"
	"github.com/bitfsorg/heirloom-go/custody"
	"github.com/bitfsorg/heirloom-go/inherit"
	"github.com/bitfsorg/heirloom-go/network"
	"github.com/bitfsorg/heirloom-go/paymail"
	"github.com/bitfsorg/heirloom-go/payout"
	"github.com/bitfsorg/heirloom-go/storage"
)

// Secrets never live in the config file.
const (
	EnvCustodyPassword = "HEIRLOOM_CUSTODY_PASSWORD"
	EnvEVMKey          = "HEIRLOOM_EVM_KEY"
)

// PlansFile is the plan database's file name inside the data directory.
const PlansFile = "plans.db"

// Service owns the store, the registry and the payout backend.
type Service struct {
	cfg      config.Config
	log      *zap.Logger
	store    *storage.BoltStore
	registry *inherit.Registry
	transfer inherit.Transferer
	clock    inherit.Clock
	keeper   inherit.Address
	resolver *paymail.Resolver

	closeMu sync.Mutex
	closed  bool
	closers []func() error
}

type options struct {
	transfer inherit.Transferer
	clock    inherit.Clock
	log      *zap.Logger
	env      map[string]string
	keeper   inherit.Address
	resolver *paymail.Resolver
}

// Option configures Open.
type Option func(*options)

// WithTransferer overrides the payout backend selected by the config.
func WithTransferer(t inherit.Transferer) Option {
	return func(o *options) { o.transfer = t }
}

// WithClock overrides the system clock for the registry and the keeper.
func WithClock(c inherit.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithLogger replaces the logger built from the config.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithEnv replaces the process environment as the source of secrets and
// HEIRLOOM_RPC_* overrides.
func WithEnv(env map[string]string) Option {
	return func(o *options) { o.env = env }
}

// WithKeeper sets the address recorded as the caller of keeper locks.
func WithKeeper(addr inherit.Address) Option {
	return func(o *options) { o.keeper = addr }
}

// WithResolver replaces the handle resolver built from the config.
func WithResolver(r *paymail.Resolver) Option {
	return func(o *options) { o.resolver = r }
}

// Open validates cfg and starts a node over <DataDir>/plans.db.
func Open(ctx context.Context, cfg config.Config, opts ...Option) (*Service, error) {
	o := options{clock: inherit.SystemClock{}}
	for _, opt := range opts {
		opt(&o)
	}
	if o.env == nil {
		o.env = environ()
	}

	cfg.Payout = strings.ToLower(cfg.Payout)
	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		return nil, fmt.Errorf("service: create data dir: %w", err)
	}

	log := o.log
	if log == nil {
		var err error
		if log, err = config.NewLogger(cfg); err != nil {
			return nil, err
		}
	}

	store, err := storage.OpenBoltStore(filepath.Join(cfg.DataDir, PlansFile))
	if err != nil {
		return nil, err
	}

	s := &Service{
		cfg:      cfg,
		log:      log,
		store:    store,
		clock:    o.clock,
		keeper:   o.keeper,
		resolver: o.resolver,
	}
	if s.resolver == nil {
		s.resolver = newResolver(cfg, log)
	}

	s.transfer = o.transfer
	if s.transfer == nil {
		if s.transfer, err = s.openPayout(ctx, o.env); err != nil {
			_ = s.Close()
			return nil, err
		}
	}

	s.registry, err = inherit.NewRegistry(store, s.transfer,
		inherit.WithLogger(log.Named("registry")),
		inherit.WithClock(o.clock))
	if err != nil {
		_ = s.Close()
		return nil, err
	}

	log.Info("service started",
		zap.String("datadir", cfg.DataDir),
		zap.String("payout", cfg.Payout),
		zap.Uint64("active_plans", s.registry.OwnerCount()))
	return s, nil
}

// openPayout builds the backend named by cfg.Payout.
func (s *Service) openPayout(ctx context.Context, env map[string]string) (inherit.Transferer, error) {
	plog := payout.WithLogger(s.log.Named("payout"))

	switch s.cfg.Payout {
	case config.PayoutBSV:
		explicit := &network.RPCConfig{
			URL:      s.cfg.RPCURL,
			User:     s.cfg.RPCUser,
			Password: s.cfg.RPCPassword,
		}
		rpcCfg, err := network.ResolveConfig(explicit, env, s.cfg.Network)
		if err != nil {
			return nil, err
		}
		netCfg, err := custody.GetNetwork(s.cfg.Network)
		if err != nil {
			return nil, err
		}
		password := env[EnvCustodyPassword]
		if password == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingSecret, EnvCustodyPassword)
		}
		wallet, err := custody.OpenWallet(filepath.Join(s.cfg.DataDir, custody.SealedSeedFile), password, netCfg)
		if err != nil {
			return nil, err
		}

		b, err := payout.NewBSV(network.NewRPCClient(*rpcCfg), wallet, plog, payout.WithFeeRate(s.cfg.FeeRate))
		if err != nil {
			return nil, err
		}
		if err := b.Watch(ctx, s.cfg.Rescan); err != nil {
			// Payouts still work against a node that already tracks the address.
			s.log.Warn("custody address not imported",
				zap.String("address", b.CustodyAddress()), zap.Error(err))
		}
		s.log.Info("bsv payouts enabled", zap.String("custody", b.CustodyAddress()))
		return b, nil

	case config.PayoutEVM:
		key := env[EnvEVMKey]
		if key == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingSecret, EnvEVMKey)
		}
		e, client, err := payout.DialEVM(ctx, s.cfg.RPCURL, key, s.cfg.ChainID, plog)
		if err != nil {
			return nil, err
		}
		s.closers = append(s.closers, func() error { client.Close(); return nil })
		s.log.Info("evm payouts enabled", zap.Stringer("from", e.From()))
		return e, nil

	default:
		return payout.NewLedger(plog), nil
	}
}

func newResolver(cfg config.Config, log *zap.Logger) *paymail.Resolver {
	opts := []paymail.Option{paymail.WithLogger(log.Named("paymail"))}
	if cfg.PaymailResolver != "" && cfg.PaymailResolver != config.ResolverSystem {
		opts = append(opts, paymail.WithDNSResolver(paymail.NewDNSSECResolver(cfg.PaymailResolver)))
	}
	return paymail.NewResolver(opts...)
}

// ResolveAddress turns a beneficiary or owner reference into an Address.
// Handles (alias@domain) are resolved through paymail; anything else must
// be a hex or base58check address.
func (s *Service) ResolveAddress(ctx context.Context, ref string) (inherit.Address, error) {
	if !paymail.IsHandle(ref) {
		return inherit.ParseAddress(ref)
	}
	h, err := paymail.ParseHandle(ref)
	if err != nil {
		return inherit.Address{}, err
	}
	return s.resolver.Address(ctx, h)
}

// ResolveAddresses resolves every ref in order, stopping at the first failure.
func (s *Service) ResolveAddresses(ctx context.Context, refs []string) ([]inherit.Address, error) {
	addrs := make([]inherit.Address, 0, len(refs))
	for _, ref := range refs {
		a, err := s.ResolveAddress(ctx, ref)
		if err != nil {
			return nil, fmt.Errorf("service: resolve %q: %w", ref, err)
		}
		addrs = append(addrs, a)
	}
	return addrs, nil
}

// Registry returns the plan registry.
func (s *Service) Registry() *inherit.Registry {
	return s.registry
}

// Transferer returns the payout backend in use.
func (s *Service) Transferer() inherit.Transferer {
	return s.transfer
}

// Config returns the configuration the service was opened with.
func (s *Service) Config() config.Config {
	return s.cfg
}

// Close closes the payout backend and the store and flushes the logger.
// It is safe to call more than once.
func (s *Service) Close() error {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	errs = append(errs, s.store.Close())
	// Sync on stderr fails with EINVAL on most terminals.
	_ = s.log.Sync()
	return errors.Join(errs...)
}

func environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return env
}

