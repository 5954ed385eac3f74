// Package inherit implements timed custodial inheritance plans.
//
// An owner deposits value and names up to MaxBeneficiaries beneficiaries.
// If the owner does not reset the plan timer within its timeout period the
// plan expires; anyone may then lock the per-beneficiary share, and each
// beneficiary may redeem that share exactly once.
package inherit

import (
	"slices"
)

const (
	// MaxBeneficiaries is the maximum number of beneficiaries per plan.
	MaxBeneficiaries = 5

	// SecondsPerDay converts a timeout in days to the stored period.
	SecondsPerDay = 86400
)

// Plan is the per-owner record. Beneficiaries and Claimed are kept sorted
// and are always disjoint.
type Plan struct {
	Owner               Address
	Active              bool
	Beneficiaries       []Address
	LastReset           uint64 // Unix seconds
	TimeoutPeriod       uint64 // seconds
	Balance             uint64
	Claimed             []Address
	PerBeneficiaryShare uint64
	ShareLocked         bool
}

// newPlan builds a fresh record. Only the first MaxBeneficiaries entries
// are considered; zero and repeated addresses among them are skipped.
func newPlan(owner Address, candidates []Address, timeout, now, deposit uint64) *Plan {
	p := &Plan{
		Owner:         owner,
		Active:        true,
		LastReset:     now,
		TimeoutPeriod: timeout,
		Balance:       deposit,
	}
	if len(candidates) > MaxBeneficiaries {
		candidates = candidates[:MaxBeneficiaries]
	}
	for _, a := range candidates {
		if a.IsZero() {
			continue
		}
		p.Beneficiaries, _ = insertAddr(p.Beneficiaries, a)
	}
	return p
}

// BeneficiaryCount returns the number of unclaimed beneficiaries.
func (p *Plan) BeneficiaryCount() int {
	return len(p.Beneficiaries)
}

// IsExpired reports whether now >= LastReset + TimeoutPeriod.
func (p *Plan) IsExpired(now uint64) bool {
	if now < p.LastReset {
		return false
	}
	return now-p.LastReset >= p.TimeoutPeriod
}

// ExpiresAt returns LastReset + TimeoutPeriod, saturating at the maximum uint64.
func (p *Plan) ExpiresAt() uint64 {
	end := p.LastReset + p.TimeoutPeriod
	if end < p.LastReset {
		return ^uint64(0)
	}
	return end
}

// IsBeneficiary reports whether a is a current beneficiary.
func (p *Plan) IsBeneficiary(a Address) bool {
	return containsAddr(p.Beneficiaries, a)
}

// HasClaimed reports whether a has redeemed its share.
func (p *Plan) HasClaimed(a Address) bool {
	return containsAddr(p.Claimed, a)
}

// Clone returns a deep copy of p.
func (p *Plan) Clone() *Plan {
	c := *p
	c.Beneficiaries = slices.Clone(p.Beneficiaries)
	c.Claimed = slices.Clone(p.Claimed)
	return &c
}

// lockShare is the single locking transition used by both LockShare and
// the implicit lock in Redeem.
func (p *Plan) lockShare(now uint64) error {
	if !p.IsExpired(now) {
		return ErrPlanNotExpired
	}
	if p.ShareLocked {
		return ErrAlreadyLocked
	}
	if len(p.Beneficiaries) == 0 {
		return ErrNoBeneficiaries
	}
	if p.Balance == 0 {
		return ErrNoFunds
	}
	// Integer division; the remainder stays in Balance and is never paid out.
	p.PerBeneficiaryShare = p.Balance / uint64(len(p.Beneficiaries))
	p.ShareLocked = true
	return nil
}

// unlockShare reverts lockShare. Only valid while nothing has been
// claimed against the share.
func (p *Plan) unlockShare() {
	p.PerBeneficiaryShare = 0
	p.ShareLocked = false
}

// claim moves a from Beneficiaries to Claimed and debits the share.
func (p *Plan) claim(a Address, amount uint64) {
	p.Claimed, _ = insertAddr(p.Claimed, a)
	p.Beneficiaries, _ = removeAddr(p.Beneficiaries, a)
	p.Balance -= amount
}

// unclaim is the exact inverse of claim.
func (p *Plan) unclaim(a Address, amount uint64) {
	p.Claimed, _ = removeAddr(p.Claimed, a)
	p.Beneficiaries, _ = insertAddr(p.Beneficiaries, a)
	p.Balance += amount
}

// drained reports whether a plan has nothing left to settle.
func (p *Plan) drained() bool {
	return p.Balance == 0 || len(p.Beneficiaries) == 0
}

func compareAddr(a, b Address) int { return a.Compare(b) }

// insertAddr adds a to the sorted set; it reports false if a was present.
func insertAddr(set []Address, a Address) ([]Address, bool) {
	i, found := slices.BinarySearchFunc(set, a, compareAddr)
	if found {
		return set, false
	}
	return slices.Insert(set, i, a), true
}

// removeAddr deletes a from the sorted set; it reports false if a was absent.
func removeAddr(set []Address, a Address) ([]Address, bool) {
	i, found := slices.BinarySearchFunc(set, a, compareAddr)
	if !found {
		return set, false
	}
	return slices.Delete(set, i, i+1), true
}

func containsAddr(set []Address, a Address) bool {
	_, found := slices.BinarySearchFunc(set, a, compareAddr)
	return found
}
