package inherit

// PlanDetails is the public projection of a plan.
type PlanDetails struct {
	Balance             uint64
	BeneficiaryCount    int
	LastReset           uint64
	TimeoutPeriod       uint64
	PerBeneficiaryShare uint64
	ShareLocked         bool
}

// PlanDetails returns the balance, timing and share state of owner's plan.
func (r *Registry) PlanDetails(owner Address) (PlanDetails, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.activePlan(owner)
	if err != nil {
		return PlanDetails{}, err
	}
	return PlanDetails{
		Balance:             p.Balance,
		BeneficiaryCount:    p.BeneficiaryCount(),
		LastReset:           p.LastReset,
		TimeoutPeriod:       p.TimeoutPeriod,
		PerBeneficiaryShare: p.PerBeneficiaryShare,
		ShareLocked:         p.ShareLocked,
	}, nil
}

// IsOwnerExpired reports whether owner's plan has passed its timeout.
func (r *Registry) IsOwnerExpired(owner Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.activePlan(owner)
	if err != nil {
		return false, err
	}
	return p.IsExpired(r.now()), nil
}

// IsBeneficiary reports whether addr is an unclaimed beneficiary of owner's plan.
func (r *Registry) IsBeneficiary(owner, addr Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.activePlan(owner)
	if err != nil {
		return false, err
	}
	return p.IsBeneficiary(addr), nil
}

// HasClaimed reports whether addr has redeemed from owner's plan.
func (r *Registry) HasClaimed(owner, addr Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.activePlan(owner)
	if err != nil {
		return false, err
	}
	return p.HasClaimed(addr), nil
}
