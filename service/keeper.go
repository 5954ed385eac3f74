package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/bitfsorg/heirloom-go/inherit"
)

// LockExpired locks the share of every active plan that has expired, is
// unlocked, funded and still has beneficiaries. It returns the owners whose
// plans it locked. Plans that stop qualifying between the scan and the lock
// are skipped; other failures are collected and the sweep carries on.
func (s *Service) LockExpired(ctx context.Context) ([]inherit.Address, error) {
	if s.isClosed() {
		return nil, ErrClosed
	}

	owners, err := s.registry.Owners()
	if err != nil {
		return nil, err
	}

	now := inherit.UnixNow(s.clock)
	call := inherit.Call{Sender: s.keeper}

	var locked []inherit.Address
	var errs []error
	for _, owner := range owners {
		if err := ctx.Err(); err != nil {
			return locked, err
		}

		p, err := s.registry.Plan(owner)
		if errors.Is(err, inherit.ErrPlanNotFound) {
			continue
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if p.ShareLocked || p.Balance == 0 || p.BeneficiaryCount() == 0 || !p.IsExpired(now) {
			continue
		}

		err = s.registry.LockShare(call, owner)
		switch {
		case err == nil:
			locked = append(locked, owner)
		case errors.Is(err, inherit.ErrPlanNotFound),
			errors.Is(err, inherit.ErrAlreadyLocked),
			errors.Is(err, inherit.ErrPlanNotExpired),
			errors.Is(err, inherit.ErrNoBeneficiaries),
			errors.Is(err, inherit.ErrNoFunds):
		default:
			s.log.Warn("keeper lock failed", zap.Stringer("owner", owner), zap.Error(err))
			errs = append(errs, err)
		}
	}

	if len(locked) > 0 {
		s.log.Info("keeper sweep", zap.Int("scanned", len(owners)), zap.Int("locked", len(locked)))
	}
	return locked, errors.Join(errs...)
}

// Run sweeps every interval until ctx is done, then returns ctx.Err(). The
// first sweep runs immediately. A non-positive interval returns at once.
func (s *Service) Run(ctx context.Context, every time.Duration) error {
	if every <= 0 {
		return nil
	}

	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		if _, err := s.LockExpired(ctx); err != nil {
			if errors.Is(err, ErrClosed) {
				return err
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.log.Error("keeper sweep failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Service) isClosed() bool {
	s.closeMu.Lock()
	defer s.closeMu.Unlock()
	return s.closed
}
