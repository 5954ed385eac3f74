package tx

import "errors"

var (
	// ErrNilParam indicates a required parameter is nil.
	ErrNilParam = errors.New("tx: required parameter is nil")

	// ErrInsufficientFunds indicates the inputs cannot cover the payout plus fee.
	ErrInsufficientFunds = errors.New("tx: insufficient funds")

	// ErrInvalidAmount indicates a payout amount below the dust limit.
	ErrInvalidAmount = errors.New("tx: invalid payout amount")

	// ErrInvalidRecipient indicates the recipient is not a 20-byte public key hash.
	ErrInvalidRecipient = errors.New("tx: invalid recipient")

	// ErrSigningFailed indicates transaction signing failed.
	ErrSigningFailed = errors.New("tx: signing failed")

	// ErrScriptBuild indicates script construction failed.
	ErrScriptBuild = errors.New("tx: script build failed")

	// ErrInvalidParams indicates invalid parameters were provided.
	ErrInvalidParams = errors.New("tx: invalid parameters")
)
