package service

import "errors"

var (
	// ErrMissingSecret indicates a payout backend needs a secret that was not supplied.
	ErrMissingSecret = errors.New("service: required secret not set")

	// ErrClosed indicates the service has already been closed.
	ErrClosed = errors.New("service: closed")
)
