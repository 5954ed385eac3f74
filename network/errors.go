package network

import "errors"

var (
	// ErrConnectionFailed indicates the client could not reach the node.
	ErrConnectionFailed = errors.New("network: connection failed")

	// ErrAuthFailed indicates the node rejected the RPC credentials.
	ErrAuthFailed = errors.New("network: authentication failed")

	// ErrBroadcastRejected indicates the node rejected the broadcast transaction.
	ErrBroadcastRejected = errors.New("network: broadcast rejected")

	// ErrInvalidResponse indicates the node returned a malformed or unexpected response.
	ErrInvalidResponse = errors.New("network: invalid response")

	// ErrRPC is wrapped by errors the node reports in the JSON-RPC error object.
	ErrRPC = errors.New("network: rpc error")

	// ErrNoEndpoint indicates no RPC URL could be resolved.
	ErrNoEndpoint = errors.New("network: no rpc endpoint")
)
