package tx

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/bsv-blockchain/go-sdk/chainhash"
	"github.com/bsv-blockchain/go-sdk/transaction"
)

// PayoutParams describes a single-recipient payout funded from custody.
type PayoutParams struct {
	Recipient  []byte  // 20-byte public key hash
	Amount     uint64  // satoshis delivered to Recipient
	Inputs     []*UTXO // custody outputs to spend
	ChangeAddr []byte  // 20-byte public key hash for change
	FeeRate    uint64  // sat/KB; 0 means DefaultFeeRate
}

// BuildPayoutTx constructs an unsigned payout transaction.
//
// Output layout:
//
//	[0] P2PKH -> Recipient (Amount)
//	[1] P2PKH -> ChangeAddr (omitted when at or below DustLimit)
//
// The fee is estimated with the change output present; if change turns out
// to be dust it is left to the miner.
func BuildPayoutTx(params *PayoutParams) (*PayoutTx, error) {
	if params == nil {
		return nil, fmt.Errorf("%w: params", ErrNilParam)
	}
	if len(params.Recipient) != PubKeyHashLen {
		return nil, fmt.Errorf("%w: recipient hash is %d bytes", ErrInvalidRecipient, len(params.Recipient))
	}
	if params.Amount < DustLimit {
		return nil, fmt.Errorf("%w: %d sat is below dust limit %d", ErrInvalidAmount, params.Amount, DustLimit)
	}
	if len(params.Inputs) == 0 {
		return nil, fmt.Errorf("%w: no inputs", ErrNilParam)
	}
	if len(params.ChangeAddr) != PubKeyHashLen {
		return nil, fmt.Errorf("%w: change hash is %d bytes", ErrInvalidParams, len(params.ChangeAddr))
	}

	var total uint64
	for i, in := range params.Inputs {
		if in == nil {
			return nil, fmt.Errorf("%w: input[%d]", ErrNilParam, i)
		}
		if len(in.TxID) != TxIDLen {
			return nil, fmt.Errorf("%w: input[%d] TxID is %d bytes", ErrInvalidParams, i, len(in.TxID))
		}
		total += in.Amount
	}

	fee := EstimateFee(EstimateTxSize(len(params.Inputs), 2), params.FeeRate)
	if total < params.Amount+fee {
		return nil, fmt.Errorf("%w: need %d sat, have %d sat",
			ErrInsufficientFunds, params.Amount+fee, total)
	}

	sdkTx := transaction.NewTransaction()
	for _, in := range params.Inputs {
		h, err := chainhash.NewHash(in.TxID)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid UTXO TxID: %w", ErrScriptBuild, err)
		}
		sdkTx.AddInput(&transaction.TransactionInput{
			SourceTXID:       h,
			SourceTxOutIndex: in.Vout,
			SequenceNumber:   transaction.DefaultSequenceNumber,
		})
	}

	payOut, err := BuildP2PKHOutput(params.Recipient, params.Amount)
	if err != nil {
		return nil, err
	}
	sdkTx.AddOutput(payOut)

	result := &PayoutTx{
		Inputs:     params.Inputs,
		PayoutVout: 0,
		Fee:        total - params.Amount,
	}

	change := total - params.Amount - fee
	if change > DustLimit {
		changeOut, err := BuildP2PKHOutput(params.ChangeAddr, change)
		if err != nil {
			return nil, err
		}
		sdkTx.AddOutput(changeOut)
		result.Fee = fee
		result.ChangeUTXO = &UTXO{
			Vout:         1,
			Amount:       change,
			ScriptPubKey: []byte(*changeOut.LockingScript),
		}
	}

	result.RawTx = sdkTx.Bytes()
	return result, nil
}

// SelectUTXOs picks custody outputs largest-first until they cover amount
// plus the fee of a two-output payout spending them.
func SelectUTXOs(available []*UTXO, amount, feeRate uint64) ([]*UTXO, error) {
	sorted := slices.Clone(available)
	sorted = slices.DeleteFunc(sorted, func(u *UTXO) bool { return u == nil || u.Amount == 0 })
	slices.SortStableFunc(sorted, func(a, b *UTXO) int { return cmp.Compare(b.Amount, a.Amount) })

	var total uint64
	for i, u := range sorted {
		total += u.Amount
		fee := EstimateFee(EstimateTxSize(i+1, 2), feeRate)
		if total >= amount+fee {
			return sorted[:i+1], nil
		}
	}
	return nil, fmt.Errorf("%w: need %d sat plus fee, have %d sat across %d outputs",
		ErrInsufficientFunds, amount, total, len(sorted))
}
