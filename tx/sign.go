package tx

import (
	"fmt"

	"github.com/bsv-blockchain/go-sdk/script"
	"github.com/bsv-blockchain/go-sdk/transaction"
	"github.com/bsv-blockchain/go-sdk/transaction/template/p2pkh"

	ec "github.com/bsv-blockchain/go-sdk/primitives/ec"
)

// SignPayoutTx signs ptx in place and returns the signed hex. Input i is
// unlocked with ptx.Inputs[i].PrivateKey; RawTx, TxID and the change
// outpoint are updated to the signed transaction.
func SignPayoutTx(ptx *PayoutTx) (string, error) {
	if ptx == nil {
		return "", fmt.Errorf("%w: PayoutTx", ErrNilParam)
	}
	if len(ptx.RawTx) == 0 {
		return "", fmt.Errorf("%w: nothing to sign", ErrSigningFailed)
	}

	unsigned, err := transaction.NewTransactionFromBytes(ptx.RawTx)
	if err != nil {
		return "", fmt.Errorf("%w: parse: %w", ErrSigningFailed, err)
	}
	if n := len(unsigned.Inputs); n != len(ptx.Inputs) {
		return "", fmt.Errorf("%w: %d inputs, %d coins", ErrSigningFailed, n, len(ptx.Inputs))
	}

	for i, coin := range ptx.Inputs {
		if err := attachSource(unsigned.Inputs[i], coin); err != nil {
			return "", fmt.Errorf("input %d: %w", i, err)
		}
	}
	if err := unsigned.Sign(); err != nil {
		return "", fmt.Errorf("%w: %w", ErrSigningFailed, err)
	}

	ptx.RawTx = unsigned.Bytes()
	ptx.TxID = unsigned.TxID().CloneBytes()
	if ptx.ChangeUTXO != nil {
		ptx.ChangeUTXO.TxID = ptx.TxID
	}
	return unsigned.Hex(), nil
}

// attachSource gives in the previous output and unlocking template the
// signer needs.
func attachSource(in *transaction.TransactionInput, coin *UTXO) error {
	switch {
	case coin == nil:
		return fmt.Errorf("%w: coin", ErrNilParam)
	case coin.PrivateKey == nil:
		return fmt.Errorf("%w: no signing key", ErrSigningFailed)
	case len(coin.ScriptPubKey) == 0:
		return fmt.Errorf("%w: no locking script", ErrSigningFailed)
	}

	unlock, err := p2pkh.Unlock(coin.PrivateKey, nil)
	if err != nil {
		return fmt.Errorf("%w: unlocker: %w", ErrSigningFailed, err)
	}
	in.SetSourceTxOutput(&transaction.TransactionOutput{
		Satoshis:      coin.Amount,
		LockingScript: script.NewFromBytes(coin.ScriptPubKey),
	})
	in.UnlockingScriptTemplate = unlock
	return nil
}

// BuildP2PKHScript returns the P2PKH locking script paying pubKey.
func BuildP2PKHScript(pubKey *ec.PublicKey) ([]byte, error) {
	if pubKey == nil {
		return nil, fmt.Errorf("%w: public key", ErrNilParam)
	}
	lock, err := lockToHash(pubKey.Hash())
	if err != nil {
		return nil, err
	}
	return []byte(*lock), nil
}

// BuildP2PKHOutput returns an output paying satoshis to pubKeyHash.
func BuildP2PKHOutput(pubKeyHash []byte, satoshis uint64) (*transaction.TransactionOutput, error) {
	lock, err := lockToHash(pubKeyHash)
	if err != nil {
		return nil, err
	}
	return &transaction.TransactionOutput{Satoshis: satoshis, LockingScript: lock}, nil
}

func lockToHash(pubKeyHash []byte) (*script.Script, error) {
	if len(pubKeyHash) != PubKeyHashLen {
		return nil, fmt.Errorf("%w: hash is %d bytes", ErrScriptBuild, len(pubKeyHash))
	}
	addr, err := script.NewAddressFromPublicKeyHash(pubKeyHash, true)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
	}
	lock, err := p2pkh.Lock(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScriptBuild, err)
	}
	return lock, nil
}
