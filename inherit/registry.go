package inherit

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"sync"

	"go.uber.org/zap"

	"github.com/bitfsorg/heirloom-go/storage"
)

var (
	planKeyPrefix  = []byte("plan/")
	activeCountKey = []byte("meta/active_plans")
)

// Registry maps owners to plans and tracks the number of active plans.
// Every public method runs under a single mutex, which is released while a
// payout is in flight so the Transferer may call back into the Registry.
type Registry struct {
	mu       sync.Mutex
	store    storage.Store
	transfer Transferer
	clock    Clock
	log      *zap.Logger

	// active mirrors the persisted active-plan count. It changes only in
	// commit, after the store has accepted the new value.
	active uint64

	// settling counts in-flight payouts per owner.
	settling map[Address]int
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the system clock.
func WithClock(c Clock) Option {
	return func(r *Registry) { r.clock = c }
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) { r.log = l }
}

// NewRegistry opens a registry over store, paying out through transfer.
func NewRegistry(store storage.Store, transfer Transferer, opts ...Option) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store", ErrNilParam)
	}
	if transfer == nil {
		return nil, fmt.Errorf("%w: transferer", ErrNilParam)
	}

	r := &Registry{
		store:    store,
		transfer: transfer,
		clock:    SystemClock{},
		log:      zap.NewNop(),
		settling: make(map[Address]int),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.log == nil {
		r.log = zap.NewNop()
	}

	raw, err := store.Get(activeCountKey)
	switch {
	case errors.Is(err, storage.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("inherit: load active plan count: %w", err)
	case len(raw) != 8:
		return nil, fmt.Errorf("%w: active plan count is %d bytes", ErrInvalidPlanRecord, len(raw))
	default:
		r.active = binary.BigEndian.Uint64(raw)
	}
	return r, nil
}

// CreatePlan opens a plan for call.Sender funded with call.Value. Only the
// first MaxBeneficiaries entries of beneficiaries are considered; zero and
// duplicate addresses among them are skipped rather than rejected.
func (r *Registry) CreatePlan(call Call, beneficiaries []Address, timeoutDays uint64) error {
	if timeoutDays > math.MaxUint64/SecondsPerDay {
		return fmt.Errorf("%w: %d days", ErrInvalidTimeout, timeoutDays)
	}
	owner := call.Sender

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.settling[owner] > 0 {
		return ErrSettlementInProgress
	}
	prev, err := r.load(owner)
	if err != nil {
		return err
	}
	if prev != nil && prev.Active {
		return ErrPlanAlreadyExists
	}

	// Always a brand-new record: nothing from a deactivated plan survives.
	p := newPlan(owner, beneficiaries, timeoutDays*SecondsPerDay, r.now(), call.Value)
	if err := r.commit(p, r.active+1); err != nil {
		return err
	}

	r.log.Info("plan created",
		zap.Stringer("owner", owner),
		zap.Int("beneficiaries", p.BeneficiaryCount()),
		zap.Uint64("timeout_seconds", p.TimeoutPeriod),
		zap.Uint64("deposit", p.Balance))
	return nil
}

// OwnerExists reports whether owner has an active plan.
func (r *Registry) OwnerExists(owner Address) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, err := r.load(owner)
	if err != nil {
		return false, err
	}
	return p != nil && p.Active, nil
}

// OwnerCount returns the number of active plans.
func (r *Registry) OwnerCount() uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// ActivePlanCount is the same count as OwnerCount.
func (r *Registry) ActivePlanCount() uint64 {
	return r.OwnerCount()
}

// Owners lists every owner with an active plan, in address order.
func (r *Registry) Owners() ([]Address, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, err := r.store.List(planKeyPrefix)
	if err != nil {
		return nil, fmt.Errorf("inherit: list plans: %w", err)
	}

	var owners []Address
	for _, k := range keys {
		owner, err := AddressFromBytes(k[len(planKeyPrefix):])
		if err != nil {
			return nil, fmt.Errorf("%w: key %x", ErrInvalidPlanRecord, k)
		}
		p, err := r.load(owner)
		if err != nil {
			return nil, err
		}
		if p != nil && p.Active {
			owners = append(owners, owner)
		}
	}
	return owners, nil
}

// Plan returns a copy of owner's active plan record.
func (r *Registry) Plan(owner Address) (*Plan, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.activePlan(owner)
}

func planKey(owner Address) []byte {
	key := make([]byte, 0, len(planKeyPrefix)+AddressSize)
	key = append(key, planKeyPrefix...)
	return append(key, owner[:]...)
}

// load returns the stored record for owner, active or not, or nil if the
// owner never had a plan.
func (r *Registry) load(owner Address) (*Plan, error) {
	raw, err := r.store.Get(planKey(owner))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("inherit: load plan %s: %w", owner, err)
	}
	p, err := DeserializePlan(raw)
	if err != nil {
		return nil, fmt.Errorf("inherit: plan %s: %w", owner, err)
	}
	return p, nil
}

// activePlan is the existence gate shared by every operation.
func (r *Registry) activePlan(owner Address) (*Plan, error) {
	p, err := r.load(owner)
	if err != nil {
		return nil, err
	}
	if p == nil || !p.Active {
		return nil, ErrPlanNotFound
	}
	return p, nil
}

// commit persists p together with the new active-plan count in one batch.
func (r *Registry) commit(p *Plan, activeCount uint64) error {
	data, err := SerializePlan(p)
	if err != nil {
		return err
	}
	count := make([]byte, 8)
	binary.BigEndian.PutUint64(count, activeCount)

	b := storage.NewBatch().Put(planKey(p.Owner), data).Put(activeCountKey, count)
	if err := r.store.Apply(b); err != nil {
		return fmt.Errorf("inherit: commit plan %s: %w", p.Owner, err)
	}
	r.active = activeCount
	return nil
}

func (r *Registry) now() uint64 { return UnixNow(r.clock) }
