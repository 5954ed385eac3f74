package inherit

import "errors"

var (
	// ErrPlanNotFound indicates the owner has no active plan.
	ErrPlanNotFound = errors.New("inherit: plan not found")

	// ErrPlanAlreadyExists indicates the caller already owns an active plan.
	ErrPlanAlreadyExists = errors.New("inherit: plan already exists")

	// ErrPlanLocked indicates the share is locked and the plan is frozen.
	ErrPlanLocked = errors.New("inherit: plan is locked")

	// ErrPlanNotExpired indicates the timeout window has not elapsed yet.
	ErrPlanNotExpired = errors.New("inherit: plan not expired")

	// ErrAlreadyLocked indicates the share has already been locked.
	ErrAlreadyLocked = errors.New("inherit: share already locked")

	// ErrBeneficiaryLimitExceeded indicates the plan already has MaxBeneficiaries.
	ErrBeneficiaryLimitExceeded = errors.New("inherit: beneficiary limit exceeded")

	// ErrInvalidBeneficiary indicates the zero address was supplied as a beneficiary.
	ErrInvalidBeneficiary = errors.New("inherit: invalid beneficiary address")

	// ErrDuplicateBeneficiary indicates the address is already a beneficiary.
	ErrDuplicateBeneficiary = errors.New("inherit: beneficiary already exists")

	// ErrNotABeneficiary indicates the address is not a beneficiary of the plan.
	ErrNotABeneficiary = errors.New("inherit: not a beneficiary")

	// ErrAlreadyClaimed indicates the beneficiary has already redeemed its share.
	ErrAlreadyClaimed = errors.New("inherit: share already claimed")

	// ErrNoBeneficiaries indicates the plan has no beneficiaries to lock a share for.
	ErrNoBeneficiaries = errors.New("inherit: no beneficiaries")

	// ErrNoFunds indicates the plan balance is zero.
	ErrNoFunds = errors.New("inherit: no funds")

	// ErrNoFundsToRedeem indicates the locked per-beneficiary share is zero.
	ErrNoFundsToRedeem = errors.New("inherit: no funds to redeem")

	// ErrTransferFailed indicates the value transfer was rejected; state was rolled back.
	ErrTransferFailed = errors.New("inherit: transfer failed")

	// ErrUnexpectedValue indicates value was attached to a non-payable operation.
	ErrUnexpectedValue = errors.New("inherit: operation does not accept value")

	// ErrBalanceOverflow indicates a deposit would overflow the plan balance.
	ErrBalanceOverflow = errors.New("inherit: balance overflow")

	// ErrInvalidTimeout indicates the timeout in days cannot be represented in seconds.
	ErrInvalidTimeout = errors.New("inherit: invalid timeout period")

	// ErrSettlementInProgress indicates a payout for this owner's plan is still in flight.
	ErrSettlementInProgress = errors.New("inherit: settlement in progress")

	// ErrInvalidPlanRecord indicates a stored plan record is malformed.
	ErrInvalidPlanRecord = errors.New("inherit: invalid plan record")

	// ErrInvalidAddress indicates an address string could not be parsed.
	ErrInvalidAddress = errors.New("inherit: invalid address")

	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("inherit: required parameter is nil")
)
