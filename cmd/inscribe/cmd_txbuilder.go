package main

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordtools/inscribe/node"
)

// estimatedInputVSize and estimatedOutputVSize are rough per-item
// virtual size contributions used to size the change output; the
// wallet recomputes the real fee when it signs, so this only needs to
// be an overestimate that avoids leaving the transaction underfunded.
const (
	estimatedInputVSize    = 68
	estimatedOutputVSize   = 43
	estimatedOverheadVSize = 11
)

// walletFundedTxBuilder implements batch.TxBuilder with simple greedy
// coin selection over the wallet's listunspent output, leaving every
// input unsigned for the wallet to complete via
// sign-raw-transaction-with-wallet.
type walletFundedTxBuilder struct {
	node node.Client
}

func (b *walletFundedTxBuilder) BuildCommit(
	target btcutil.Amount, addr btcutil.Address, feeRate btcutil.Amount,
) (*wire.MsgTx, error) {

	utxos, err := b.node.ListUnspent()
	if err != nil {
		return nil, err
	}

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("building commit output script: %w", err)
	}

	tx := wire.NewMsgTx(2)
	tx.AddTxOut(&wire.TxOut{Value: int64(target), PkScript: pkScript})

	var selected btcutil.Amount
	for _, u := range utxos {
		if !u.Spendable || u.Locked || u.HasInscription || u.HasRune || !u.Confirmed {
			continue
		}

		tx.AddTxIn(&wire.TxIn{PreviousOutPoint: u.Outpoint})
		selected += u.Amount

		fee := feeRate * btcutil.Amount(
			estimatedOverheadVSize+
				len(tx.TxIn)*estimatedInputVSize+
				2*estimatedOutputVSize,
		)
		if selected >= target+fee {
			break
		}
	}

	fee := feeRate * btcutil.Amount(
		estimatedOverheadVSize+
			len(tx.TxIn)*estimatedInputVSize+
			2*estimatedOutputVSize,
	)
	if selected < target+fee {
		return nil, fmt.Errorf("wallet has insufficient spendable " +
			"funds to cover the commit output and its fee")
	}

	change := selected - target - fee
	if change > 0 {
		changeAddr, err := b.node.GetNewAddress()
		if err != nil {
			return nil, err
		}
		changeScript, err := txscript.PayToAddrScript(changeAddr)
		if err != nil {
			return nil, fmt.Errorf("building change script: %w", err)
		}
		tx.AddTxOut(&wire.TxOut{Value: int64(change), PkScript: changeScript})
	}

	return tx, nil
}
