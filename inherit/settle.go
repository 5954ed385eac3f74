package inherit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// LockShare fixes the per-beneficiary share of owner's expired plan.
// Any caller may trigger it.
func (r *Registry) LockShare(call Call, owner Address) error {
	if call.Value != 0 {
		return ErrUnexpectedValue
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.activePlan(owner)
	if err != nil {
		return err
	}
	if err := p.lockShare(r.now()); err != nil {
		return err
	}
	if err := r.commit(p, r.active); err != nil {
		return err
	}

	r.log.Info("share locked",
		zap.Stringer("owner", owner),
		zap.Stringer("by", call.Sender),
		zap.Uint64("share", p.PerBeneficiaryShare),
		zap.Int("beneficiaries", p.BeneficiaryCount()),
		zap.Uint64("stranded", p.Balance-p.PerBeneficiaryShare*uint64(p.BeneficiaryCount())))
	return nil
}

// Redeem pays call.Sender its share of owner's expired plan, locking the
// share first if nobody has yet. State is updated and persisted before the
// transfer; if the transfer fails every change is reverted and the returned
// error matches ErrTransferFailed.
func (r *Registry) Redeem(ctx context.Context, call Call, owner Address) error {
	if call.Value != 0 {
		return ErrUnexpectedValue
	}
	claimant := call.Sender

	r.mu.Lock()
	p, err := r.activePlan(owner)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	now := r.now()
	if !p.IsExpired(now) {
		r.mu.Unlock()
		return ErrPlanNotExpired
	}
	if p.HasClaimed(claimant) {
		r.mu.Unlock()
		return ErrAlreadyClaimed
	}
	if !p.IsBeneficiary(claimant) {
		r.mu.Unlock()
		return ErrNotABeneficiary
	}

	lockedHere := false
	if !p.ShareLocked {
		if err := p.lockShare(now); err != nil {
			r.mu.Unlock()
			if errors.Is(err, ErrNoFunds) {
				return fmt.Errorf("%w: %w", ErrNoFundsToRedeem, err)
			}
			return err
		}
		lockedHere = true
	}

	amount := p.PerBeneficiaryShare
	if amount == 0 || amount > p.Balance {
		r.mu.Unlock()
		return ErrNoFundsToRedeem
	}

	p.claim(claimant, amount)
	count := r.active
	deactivated := false
	if p.drained() {
		p.Active = false
		count--
		deactivated = true
	}
	if err := r.commit(p, count); err != nil {
		r.mu.Unlock()
		return err
	}
	r.settling[owner]++
	r.mu.Unlock()

	terr := r.transfer.Transfer(ctx, claimant, amount)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.doneSettling(owner)

	if terr != nil {
		r.log.Warn("redeem transfer failed, rolling back",
			zap.Stringer("owner", owner),
			zap.Stringer("beneficiary", claimant),
			zap.Uint64("amount", amount),
			zap.Error(terr))
		return r.rollbackRedeem(owner, claimant, amount, lockedHere, terr)
	}

	r.log.Info("share redeemed",
		zap.Stringer("owner", owner),
		zap.Stringer("beneficiary", claimant),
		zap.Uint64("amount", amount),
		zap.Uint64("balance", p.Balance),
		zap.Bool("plan_closed", deactivated))
	return nil
}

// rollbackRedeem returns the claimant's share to the plan. The record is
// reloaded because other redeems may have settled while the transfer was
// in flight: a plan they drained is reopened, and a share lock taken by
// this call is released only if no other claim now depends on it.
func (r *Registry) rollbackRedeem(owner, claimant Address, amount uint64, lockedHere bool, cause error) error {
	failed := fmt.Errorf("%w: %w", ErrTransferFailed, cause)

	p, err := r.load(owner)
	if err != nil {
		return errors.Join(failed, err)
	}
	if p == nil {
		return errors.Join(failed, fmt.Errorf("inherit: plan %s vanished during payout", owner))
	}

	p.unclaim(claimant, amount)
	count := r.active
	if !p.Active && !p.drained() {
		p.Active = true
		count++
	}
	if lockedHere && len(p.Claimed) == 0 {
		p.unlockShare()
	}
	if err := r.commit(p, count); err != nil {
		r.log.Error("redeem rollback failed",
			zap.Stringer("owner", owner),
			zap.Stringer("beneficiary", claimant),
			zap.Error(err))
		return errors.Join(failed, err)
	}
	return failed
}

// WithdrawAll returns the whole balance to the owner and closes the plan.
// Only possible before the share is locked. The plan is zeroed and
// deactivated before the transfer; a failed transfer restores it.
func (r *Registry) WithdrawAll(ctx context.Context, call Call) error {
	if call.Value != 0 {
		return ErrUnexpectedValue
	}
	owner := call.Sender

	r.mu.Lock()
	p, err := r.unlockedPlan(owner)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	amount := p.Balance
	if amount == 0 {
		r.mu.Unlock()
		return ErrNoFunds
	}

	p.Balance = 0
	p.Active = false
	if err := r.commit(p, r.active-1); err != nil {
		r.mu.Unlock()
		return err
	}
	r.settling[owner]++
	r.mu.Unlock()

	terr := r.transfer.Transfer(ctx, owner, amount)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.doneSettling(owner)

	if terr != nil {
		r.log.Warn("withdraw transfer failed, rolling back",
			zap.Stringer("owner", owner),
			zap.Uint64("amount", amount),
			zap.Error(terr))
		return r.rollbackWithdraw(owner, amount, terr)
	}

	r.log.Info("plan withdrawn",
		zap.Stringer("owner", owner),
		zap.Uint64("amount", amount))
	return nil
}

// rollbackWithdraw restores the balance and reactivates the plan.
func (r *Registry) rollbackWithdraw(owner Address, amount uint64, cause error) error {
	failed := fmt.Errorf("%w: %w", ErrTransferFailed, cause)

	p, err := r.load(owner)
	if err != nil {
		return errors.Join(failed, err)
	}
	if p == nil {
		return errors.Join(failed, fmt.Errorf("inherit: plan %s vanished during payout", owner))
	}

	p.Balance = amount
	count := r.active
	if !p.Active {
		p.Active = true
		count++
	}
	if err := r.commit(p, count); err != nil {
		r.log.Error("withdraw rollback failed", zap.Stringer("owner", owner), zap.Error(err))
		return errors.Join(failed, err)
	}
	return failed
}

func (r *Registry) doneSettling(owner Address) {
	if r.settling[owner] <= 1 {
		delete(r.settling, owner)
		return
	}
	r.settling[owner]--
}
