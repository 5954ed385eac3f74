package network

import "context"

// MockBlockchainService is a test double for BlockchainService.
// Unset function fields fall back to empty successful results.
type MockBlockchainService struct {
	ListUnspentFn         func(ctx context.Context, address string) ([]*UTXO, error)
	BroadcastTxFn         func(ctx context.Context, rawTxHex string) (string, error)
	HasTransactionFn      func(ctx context.Context, txid string) (bool, error)
	ImportAddressFn       func(ctx context.Context, address string) error
	ImportAddressRescanFn func(ctx context.Context, address string) error
}

var _ BlockchainService = (*MockBlockchainService)(nil)

func (m *MockBlockchainService) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	if m.ListUnspentFn == nil {
		return nil, nil
	}
	return m.ListUnspentFn(ctx, address)
}

func (m *MockBlockchainService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	if m.BroadcastTxFn == nil {
		return "", nil
	}
	return m.BroadcastTxFn(ctx, rawTxHex)
}

func (m *MockBlockchainService) HasTransaction(ctx context.Context, txid string) (bool, error) {
	if m.HasTransactionFn == nil {
		return false, nil
	}
	return m.HasTransactionFn(ctx, txid)
}

func (m *MockBlockchainService) ImportAddress(ctx context.Context, address string) error {
	if m.ImportAddressFn == nil {
		return nil
	}
	return m.ImportAddressFn(ctx, address)
}

func (m *MockBlockchainService) ImportAddressRescan(ctx context.Context, address string) error {
	if m.ImportAddressRescanFn == nil {
		return nil
	}
	return m.ImportAddressRescanFn(ctx, address)
}
