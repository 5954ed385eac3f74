package network

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"
)

// maxResponseSize caps a node reply; listunspent on a busy address is the
// largest response the payout layer asks for.
const maxResponseSize = 16 << 20

// RPCClient is a JSON-RPC 1.0 client for a BSV node. The blockchain
// methods are thin wrappers over Call.
type RPCClient struct {
	url    string
	user   string
	pass   string
	client *http.Client
	nextID atomic.Int64
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// rpcInvalidAddressOrKey is the node's code for an unknown txid or a
// malformed address.
const rpcInvalidAddressOrKey = -5

func (e *rpcError) Error() string { return fmt.Sprintf("%s %d: %s", ErrRPC, e.Code, e.Message) }

func (e *rpcError) Unwrap() error { return ErrRPC }

// NewRPCClient creates a client for cfg. Basic auth is sent when User is set.
func NewRPCClient(cfg RPCConfig) *RPCClient {
	transport := &http.Transport{
		MaxIdleConns:        4,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
	}
	return &RPCClient{
		url:    cfg.URL,
		user:   cfg.User,
		pass:   cfg.Password,
		client: &http.Client{Timeout: 30 * time.Second, Transport: transport},
	}
}

// Call invokes method and decodes the result into result, which may be nil
// to discard it.
//
// Nodes report RPC failures with HTTP 500 and a JSON error body, so the body
// is decoded before the status is judged. Errors carried in the body wrap
// ErrRPC; transport failures wrap ErrConnectionFailed and a 401 or 403 wraps
// ErrAuthFailed.
func (c *RPCClient) Call(ctx context.Context, method string, params []any, result any) error {
	if params == nil {
		params = []any{}
	}
	id := c.nextID.Add(1)
	body, err := json.Marshal(rpcRequest{JSONRPC: "1.0", ID: id, Method: method, Params: params})
	if err != nil {
		return fmt.Errorf("network: encode %s: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("network: %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.user != "" {
		req.SetBasicAuth(c.user, c.pass)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	reply, err := decodeReply(resp)
	if err != nil {
		return err
	}
	if reply.ID != id {
		return fmt.Errorf("%w: reply id %d for request %d", ErrInvalidResponse, reply.ID, id)
	}
	if result == nil || len(reply.Result) == 0 {
		return nil
	}
	if err := json.Unmarshal(reply.Result, result); err != nil {
		return fmt.Errorf("%w: %s result: %w", ErrInvalidResponse, method, err)
	}
	return nil
}

// decodeReply classifies the HTTP response and returns the decoded body of
// a successful call.
func decodeReply(resp *http.Response) (*rpcResponse, error) {
	ok := resp.StatusCode >= 200 && resp.StatusCode < 300
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: HTTP %d", ErrAuthFailed, resp.StatusCode)
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %w", ErrConnectionFailed, err)
	}

	var reply rpcResponse
	if err := json.Unmarshal(raw, &reply); err != nil {
		if !ok {
			return nil, fmt.Errorf("%w: HTTP %d: %s", ErrConnectionFailed, resp.StatusCode, truncate(raw, 256))
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	if reply.Error != nil {
		return nil, reply.Error
	}
	if !ok {
		return nil, fmt.Errorf("%w: HTTP %d", ErrConnectionFailed, resp.StatusCode)
	}
	return &reply, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
