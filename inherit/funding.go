package inherit

import (
	"math"

	"go.uber.org/zap"
)

// unlockedPlan loads the caller's plan and rejects it once the share is locked.
func (r *Registry) unlockedPlan(owner Address) (*Plan, error) {
	p, err := r.activePlan(owner)
	if err != nil {
		return nil, err
	}
	if p.ShareLocked {
		return nil, ErrPlanLocked
	}
	return p, nil
}

// AddFunds credits call.Value to the caller's plan.
func (r *Registry) AddFunds(call Call) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.unlockedPlan(call.Sender)
	if err != nil {
		return err
	}
	if call.Value > math.MaxUint64-p.Balance {
		return ErrBalanceOverflow
	}
	p.Balance += call.Value
	if err := r.commit(p, r.active); err != nil {
		return err
	}

	r.log.Info("funds added",
		zap.Stringer("owner", p.Owner),
		zap.Uint64("amount", call.Value),
		zap.Uint64("balance", p.Balance))
	return nil
}

// AddBeneficiary adds beneficiary to the caller's plan.
func (r *Registry) AddBeneficiary(call Call, beneficiary Address) error {
	if call.Value != 0 {
		return ErrUnexpectedValue
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.unlockedPlan(call.Sender)
	if err != nil {
		return err
	}
	if p.BeneficiaryCount() >= MaxBeneficiaries {
		return ErrBeneficiaryLimitExceeded
	}
	if beneficiary.IsZero() {
		return ErrInvalidBeneficiary
	}
	var added bool
	if p.Beneficiaries, added = insertAddr(p.Beneficiaries, beneficiary); !added {
		return ErrDuplicateBeneficiary
	}
	if err := r.commit(p, r.active); err != nil {
		return err
	}

	r.log.Info("beneficiary added",
		zap.Stringer("owner", p.Owner),
		zap.Stringer("beneficiary", beneficiary),
		zap.Int("beneficiaries", p.BeneficiaryCount()))
	return nil
}

// RemoveBeneficiary drops beneficiary from the caller's plan.
func (r *Registry) RemoveBeneficiary(call Call, beneficiary Address) error {
	if call.Value != 0 {
		return ErrUnexpectedValue
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.unlockedPlan(call.Sender)
	if err != nil {
		return err
	}
	var removed bool
	if p.Beneficiaries, removed = removeAddr(p.Beneficiaries, beneficiary); !removed {
		return ErrNotABeneficiary
	}
	if err := r.commit(p, r.active); err != nil {
		return err
	}

	r.log.Info("beneficiary removed",
		zap.Stringer("owner", p.Owner),
		zap.Stringer("beneficiary", beneficiary),
		zap.Int("beneficiaries", p.BeneficiaryCount()))
	return nil
}

// ResetTimer records the owner's liveness signal, restarting the timeout window.
func (r *Registry) ResetTimer(call Call) error {
	if call.Value != 0 {
		return ErrUnexpectedValue
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.unlockedPlan(call.Sender)
	if err != nil {
		return err
	}
	p.LastReset = r.now()
	if err := r.commit(p, r.active); err != nil {
		return err
	}

	r.log.Debug("timer reset",
		zap.Stringer("owner", p.Owner),
		zap.Uint64("expires_at", p.ExpiresAt()))
	return nil
}
