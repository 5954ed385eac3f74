package inherit

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bitfsorg/heirloom-go/storage"
)

func TestNewRegistry_NilParams(t *testing.T) {
	_, err := NewRegistry(nil, newFakeTransferer())
	assert.ErrorIs(t, err, ErrNilParam)

	_, err = NewRegistry(storage.NewMemStore(), nil)
	assert.ErrorIs(t, err, ErrNilParam)
}

func TestCreatePlan_SkipsZeroAndDuplicates(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.reg.CreatePlan(pay(owner, 1), []Address{b1, {}, b1, b2}, 7))

	p, err := f.reg.Plan(owner)
	require.NoError(t, err)
	assert.Equal(t, []Address{b1, b2}, p.Beneficiaries)
	assert.Equal(t, uint64(7*86400), p.TimeoutPeriod)
}

func TestCreatePlan_OnlyFirstFiveEntriesConsidered(t *testing.T) {
	f := newFixture(t)

	// The duplicate occupies one of the first five slots, so b6 is not reached.
	require.NoError(t, f.reg.CreatePlan(pay(owner, 1), []Address{b1, b2, b2, b3, b4, b6}, 1))

	p, err := f.reg.Plan(owner)
	require.NoError(t, err)
	assert.Equal(t, []Address{b1, b2, b3, b4}, p.Beneficiaries)
}

func TestCreatePlan_AlreadyExists(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.CreatePlan(pay(owner, 1), nil, 1))

	err := f.reg.CreatePlan(pay(owner, 5), []Address{b1}, 1)
	assert.ErrorIs(t, err, ErrPlanAlreadyExists)
	assert.Equal(t, uint64(1), f.reg.OwnerCount())
}

func TestCreatePlan_InvalidTimeout(t *testing.T) {
	f := newFixture(t)
	err := f.reg.CreatePlan(pay(owner, 1), nil, ^uint64(0))
	assert.ErrorIs(t, err, ErrInvalidTimeout)
	assert.Equal(t, uint64(0), f.reg.OwnerCount())
}

func TestCreatePlan_RecreateAfterDeactivationStartsClean(t *testing.T) {
	f := newFixture(t)
	ctx := t.Context()

	require.NoError(t, f.reg.CreatePlan(pay(owner, 10), []Address{b1}, 1))
	f.clock.Advance(day)
	require.NoError(t, f.reg.Redeem(ctx, from(b1), owner))
	require.Equal(t, uint64(0), f.reg.OwnerCount())

	require.NoError(t, f.reg.CreatePlan(pay(owner, 40), []Address{b1, b2}, 2))

	p, err := f.reg.Plan(owner)
	require.NoError(t, err)
	assert.Empty(t, p.Claimed, "claim history must not leak into the new plan")
	assert.False(t, p.ShareLocked)
	assert.Equal(t, uint64(0), p.PerBeneficiaryShare)
	assert.Equal(t, uint64(40), p.Balance)
	assert.True(t, p.IsBeneficiary(b1))
	assert.Equal(t, uint64(1), f.reg.OwnerCount())
}

func TestOwners_ListsOnlyActive(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.CreatePlan(pay(other, 5), []Address{b1}, 1))
	require.NoError(t, f.reg.CreatePlan(pay(owner, 5), []Address{b1}, 1))
	require.NoError(t, f.reg.WithdrawAll(t.Context(), from(other)))

	owners, err := f.reg.Owners()
	require.NoError(t, err)
	assert.Equal(t, []Address{owner}, owners)
}

func TestFundingAndMembership_Errors(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.CreatePlan(pay(owner, 10), []Address{b1}, 1))

	tests := []struct {
		name string
		op   func() error
		want error
	}{
		{"add funds without plan", func() error { return f.reg.AddFunds(pay(other, 1)) }, ErrPlanNotFound},
		{"add beneficiary without plan", func() error { return f.reg.AddBeneficiary(from(other), b2) }, ErrPlanNotFound},
		{"remove beneficiary without plan", func() error { return f.reg.RemoveBeneficiary(from(other), b1) }, ErrPlanNotFound},
		{"reset without plan", func() error { return f.reg.ResetTimer(from(other)) }, ErrPlanNotFound},
		{"remove non-beneficiary", func() error { return f.reg.RemoveBeneficiary(from(owner), b2) }, ErrNotABeneficiary},
		{"value on add beneficiary", func() error { return f.reg.AddBeneficiary(pay(owner, 1), b2) }, ErrUnexpectedValue},
		{"value on reset", func() error { return f.reg.ResetTimer(pay(owner, 1)) }, ErrUnexpectedValue},
		{"balance overflow", func() error { return f.reg.AddFunds(pay(owner, ^uint64(0))) }, ErrBalanceOverflow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, count := f.snapshot(t, owner)
			assert.ErrorIs(t, tt.op(), tt.want)
			afterRaw, afterCount := f.snapshot(t, owner)
			assert.Equal(t, raw, afterRaw)
			assert.Equal(t, count, afterCount)
		})
	}
}

func TestFundingAndMembership_FrozenAfterLock(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.CreatePlan(pay(owner, 10), []Address{b1}, 1))
	f.clock.Advance(day)
	require.NoError(t, f.reg.LockShare(from(b1), owner))

	assert.ErrorIs(t, f.reg.AddFunds(pay(owner, 1)), ErrPlanLocked)
	assert.ErrorIs(t, f.reg.AddBeneficiary(from(owner), b2), ErrPlanLocked)
	assert.ErrorIs(t, f.reg.RemoveBeneficiary(from(owner), b1), ErrPlanLocked)
	assert.ErrorIs(t, f.reg.ResetTimer(from(owner)), ErrPlanLocked)
	assert.ErrorIs(t, f.reg.WithdrawAll(t.Context(), from(owner)), ErrPlanLocked)
}

func TestResetTimer_PostponesExpiry(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.reg.CreatePlan(pay(owner, 10), []Address{b1}, 1))

	f.clock.Advance(day - time1s)
	require.NoError(t, f.reg.ResetTimer(from(owner)))

	f.clock.Advance(day - time1s)
	expired, err := f.reg.IsOwnerExpired(owner)
	require.NoError(t, err)
	assert.False(t, expired)
	assert.ErrorIs(t, f.reg.LockShare(from(b1), owner), ErrPlanNotExpired)

	f.clock.Advance(time1s)
	expired, err = f.reg.IsOwnerExpired(owner)
	require.NoError(t, err)
	assert.True(t, expired, "expiry is inclusive at lastReset+timeout")
}

func TestQueries_RequireActivePlan(t *testing.T) {
	f := newFixture(t)

	_, err := f.reg.PlanDetails(owner)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = f.reg.IsOwnerExpired(owner)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = f.reg.IsBeneficiary(owner, b1)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = f.reg.HasClaimed(owner, b1)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	_, err = f.reg.Plan(owner)
	assert.ErrorIs(t, err, ErrPlanNotFound)
	assert.Equal(t, uint64(0), f.reg.OwnerCount())
}

func TestRegistry_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plans.db")
	clock := &fakeClock{now: t0}

	store, err := storage.OpenBoltStore(path)
	require.NoError(t, err)
	reg, err := NewRegistry(store, newFakeTransferer(), WithClock(clock))
	require.NoError(t, err)
	require.NoError(t, reg.CreatePlan(pay(owner, 100), []Address{b1, b2}, 1))
	require.NoError(t, reg.CreatePlan(pay(other, 5), []Address{b3}, 1))
	require.NoError(t, store.Close())

	store, err = storage.OpenBoltStore(path)
	require.NoError(t, err)
	defer store.Close()
	reg, err = NewRegistry(store, newFakeTransferer(), WithClock(clock))
	require.NoError(t, err)

	assert.Equal(t, uint64(2), reg.OwnerCount())
	d, err := reg.PlanDetails(owner)
	require.NoError(t, err)
	assert.Equal(t, uint64(100), d.Balance)
	assert.Equal(t, 2, d.BeneficiaryCount)
}

func TestNewRegistry_CorruptCount(t *testing.T) {
	store := storage.NewMemStore()
	require.NoError(t, store.Apply(storage.NewBatch().Put(activeCountKey, []byte{0x01})))

	_, err := NewRegistry(store, newFakeTransferer())
	assert.ErrorIs(t, err, ErrInvalidPlanRecord)
}

func TestUnixNow_ClampsBeforeEpoch(t *testing.T) {
	assert.Equal(t, uint64(1700000000), UnixNow(ClockFunc(func() time.Time { return t0 })))
	assert.Zero(t, UnixNow(ClockFunc(func() time.Time { return time.Unix(-86400, 0) })))

	f := newFixture(t)
	f.clock.now = time.Unix(-5, 0)
	require.NoError(t, f.reg.CreatePlan(pay(owner, 10), []Address{b1}, 1))
	p, err := f.reg.Plan(owner)
	require.NoError(t, err)
	assert.Zero(t, p.LastReset)

	expired, err := f.reg.IsOwnerExpired(owner)
	require.NoError(t, err)
	assert.False(t, expired)
}
