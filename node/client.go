// Package node defines the Bitcoin node RPC capability the inscribe
// flows are built against, and two implementations: one backed by a
// wallet-enabled bitcoind over RPC, one backed by a read-only esplora
// HTTP API.
package node

import (
	"errors"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// ErrNotSupported is returned by EsploraClient for the wallet-signing
// operations it cannot provide.
var ErrNotSupported = errors.New("node: operation requires a wallet-enabled node")

// PrevOut describes one input's previous output, as required by
// sign-raw-transaction-with-wallet for script-path inputs it cannot
// derive on its own.
type PrevOut struct {
	Outpoint      wire.OutPoint
	PkScript      []byte
	Amount        btcutil.Amount
	RedeemScript  []byte
	WitnessScript []byte
}

// Utxo is one entry of a listunspent response.
type Utxo struct {
	Outpoint       wire.OutPoint
	Address        btcutil.Address
	Amount         btcutil.Amount
	Locked         bool
	Solvable       bool
	Spendable      bool
	Confirmed      bool
	HasInscription bool
	HasRune        bool
}

// Client is the Bitcoin node RPC capability the core consumes (§6).
// RPCClient implements the full surface; EsploraClient implements the
// read-only subset and returns ErrNotSupported for the rest.
type Client interface {
	// GetRawTransaction fetches a transaction by id.
	GetRawTransaction(txid chainhash.Hash) (*wire.MsgTx, error)

	// SendRawTransaction broadcasts a signed transaction.
	SendRawTransaction(tx *wire.MsgTx) (*chainhash.Hash, error)

	// ListUnspent lists the wallet's spendable outputs.
	ListUnspent() ([]Utxo, error)

	// GetNewAddress returns a fresh Bech32m change/receive address.
	GetNewAddress() (btcutil.Address, error)

	// SignRawTransactionWithWallet signs every input the wallet can,
	// using prevOuts to resolve inputs the wallet does not itself
	// track (script-path spends).
	SignRawTransactionWithWallet(
		tx *wire.MsgTx, prevOuts []PrevOut,
	) (*wire.MsgTx, bool, error)

	// WalletProcessPSBT fills in whatever the wallet can sign on a
	// PSBT, for the dry-run flow.
	WalletProcessPSBT(psbtBase64 string) (string, bool, error)

	// ImportDescriptors imports one or more output descriptors,
	// inactive, for recovery-key backup purposes.
	ImportDescriptors(descriptors []string) error

	// LockUnspent locks or unlocks the given outpoints against
	// further coin selection.
	LockUnspent(unlock bool, outpoints []wire.OutPoint) error
}
