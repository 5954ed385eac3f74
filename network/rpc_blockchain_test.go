package network

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type rpcHandler func(params []any) (any, *rpcError)

// rpcTestServer serves JSON-RPC requests from handlers keyed by method name.
func rpcTestServer(t *testing.T, handlers map[string]rpcHandler) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		handler, ok := handlers[req.Method]
		if !ok {
			t.Errorf("unexpected RPC method: %s", req.Method)
			w.WriteHeader(http.StatusNotFound)
			return
		}
		result, rpcErr := handler(req.Params)
		resp := rpcResponse{ID: req.ID}
		if rpcErr != nil {
			resp.Error = rpcErr
			w.WriteHeader(http.StatusInternalServerError)
		} else {
			resp.Result, _ = json.Marshal(result)
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

const custodyAddr = "1A1zP1eP5QGefi2DMPTfTL5SLmv7DivfNa"

func TestListUnspent(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"listunspent": func(params []any) (any, *rpcError) {
			require.Len(t, params, 3)
			assert.Equal(t, float64(0), params[0])
			assert.Equal(t, float64(9999999), params[1])
			addrs, ok := params[2].([]any)
			require.True(t, ok)
			assert.Equal(t, custodyAddr, addrs[0])

			return []map[string]any{
				{
					"txid":          "abc123def456",
					"vout":          0,
					"amount":        0.001,
					"scriptPubKey":  "76a914deadbeef88ac",
					"address":       custodyAddr,
					"confirmations": 6,
				},
				{
					"txid":          "fff000aaa111",
					"vout":          1,
					"amount":        1.5,
					"scriptPubKey":  "76a914cafebabe88ac",
					"address":       custodyAddr,
					"confirmations": 0,
				},
			}, nil
		},
	})
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	utxos, err := client.ListUnspent(context.Background(), custodyAddr)
	require.NoError(t, err)
	require.Len(t, utxos, 2)

	assert.Equal(t, "abc123def456", utxos[0].TxID)
	assert.Equal(t, uint32(0), utxos[0].Vout)
	assert.Equal(t, uint64(100000), utxos[0].Amount)
	assert.Equal(t, int64(6), utxos[0].Confirmations)
	assert.Equal(t, uint64(150000000), utxos[1].Amount)
	assert.Equal(t, uint32(1), utxos[1].Vout)
}

func TestListUnspentEmpty(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"listunspent": func([]any) (any, *rpcError) { return []any{}, nil },
	})
	defer server.Close()

	utxos, err := NewRPCClient(RPCConfig{URL: server.URL}).ListUnspent(context.Background(), custodyAddr)
	require.NoError(t, err)
	assert.Empty(t, utxos)
}

func TestBroadcastTx(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"sendrawtransaction": func(params []any) (any, *rpcError) {
			require.Len(t, params, 1)
			assert.Equal(t, "0100000001abcdef", params[0])
			return "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", nil
		},
	})
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	txid, err := client.BroadcastTx(context.Background(), "0100000001abcdef")
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", txid)
}

func TestBroadcastTxRejected(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"sendrawtransaction": func([]any) (any, *rpcError) {
			return nil, &rpcError{Code: -26, Message: "mandatory-script-verify-flag-failed"}
		},
	})
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	txid, err := client.BroadcastTx(context.Background(), "bad-hex")
	assert.Empty(t, txid)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBroadcastRejected)
	assert.ErrorIs(t, err, ErrRPC)
	assert.Contains(t, err.Error(), "mandatory-script-verify-flag-failed")
}

func TestHasTransaction(t *testing.T) {
	const known = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	server := rpcTestServer(t, map[string]rpcHandler{
		"getrawtransaction": func(params []any) (any, *rpcError) {
			require.Len(t, params, 2)
			assert.EqualValues(t, 0, params[1])
			switch params[0] {
			case known:
				return "0100000001abcdef", nil
			case "warming":
				return nil, &rpcError{Code: -28, Message: "Loading block index..."}
			default:
				return nil, &rpcError{Code: -5, Message: "No such mempool or blockchain transaction"}
			}
		},
	})
	defer server.Close()
	client := NewRPCClient(RPCConfig{URL: server.URL})
	ctx := context.Background()

	ok, err := client.HasTransaction(ctx, known)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.HasTransaction(ctx, "ff")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = client.HasTransaction(ctx, "warming")
	assert.ErrorIs(t, err, ErrRPC)
	assert.Contains(t, err.Error(), "Loading block index")
}

func TestHasTransactionUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	server.Close()

	_, err := NewRPCClient(RPCConfig{URL: server.URL}).HasTransaction(context.Background(), "ff")
	assert.ErrorIs(t, err, ErrConnectionFailed)
}

func TestImportAddress(t *testing.T) {
	var got []any
	server := rpcTestServer(t, map[string]rpcHandler{
		"importaddress": func(params []any) (any, *rpcError) {
			got = params
			return nil, nil
		},
	})
	defer server.Close()

	client := NewRPCClient(RPCConfig{URL: server.URL})
	require.NoError(t, client.ImportAddress(context.Background(), custodyAddr))
	assert.Equal(t, []any{custodyAddr, "heirloom", false}, got)

	require.NoError(t, client.ImportAddressRescan(context.Background(), custodyAddr))
	assert.Equal(t, []any{custodyAddr, "heirloom", true}, got)
}

func TestImportAddressError(t *testing.T) {
	server := rpcTestServer(t, map[string]rpcHandler{
		"importaddress": func([]any) (any, *rpcError) {
			return nil, &rpcError{Code: -5, Message: "Invalid Bitcoin address or script"}
		},
	})
	defer server.Close()

	err := NewRPCClient(RPCConfig{URL: server.URL}).ImportAddress(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrRPC)
	assert.Contains(t, err.Error(), "nope")
}

func TestBtcToSat(t *testing.T) {
	assert.Equal(t, uint64(1), btcToSat(0.00000001))
	assert.Equal(t, uint64(2100000000000000), btcToSat(21000000))
	assert.Equal(t, uint64(29000000), btcToSat(0.29))
}

func TestMockBlockchainServiceDefaults(t *testing.T) {
	m := &MockBlockchainService{}
	utxos, err := m.ListUnspent(context.Background(), custodyAddr)
	assert.NoError(t, err)
	assert.Nil(t, utxos)
	assert.NoError(t, m.ImportAddress(context.Background(), custodyAddr))
	assert.NoError(t, m.ImportAddressRescan(context.Background(), custodyAddr))
	known, err := m.HasTransaction(context.Background(), "ff")
	assert.NoError(t, err)
	assert.False(t, known)
}
