package node

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/rpcclient"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordtools/inscribe/errs"
)

// RPCClient wraps a bitcoind JSON-RPC connection. Operations without
// a typed method on rpcclient.Client (the wallet-specific RPCs this
// core needs: signrawtransactionwithwallet, walletprocesspsbt,
// importdescriptors, lockunspent) go through RawRequest, the same
// passthrough chantools uses for RPCs its vendored client doesn't
// wrap.
type RPCClient struct {
	conn *rpcclient.Client
}

// RecoveryKeyLabel is the fixed wallet label assigned to an imported
// commit-recovery descriptor (§4.7, §9).
const RecoveryKeyLabel = "commit tx recovery key"

// NewRPCClient dials a bitcoind RPC endpoint with the given
// connection config. The caller owns the resulting client's lifetime
// and must call Shutdown when done.
func NewRPCClient(cfg *rpcclient.ConnConfig) (*RPCClient, error) {
	conn, err := rpcclient.New(cfg, nil)
	if err != nil {
		return nil, errs.Wrap(errs.Transport, fmt.Errorf(
			"connecting to bitcoin node: %w", err))
	}

	return &RPCClient{conn: conn}, nil
}

// Shutdown closes the underlying RPC connection.
func (c *RPCClient) Shutdown() {
	c.conn.Shutdown()
}

func (c *RPCClient) GetRawTransaction(
	txid chainhash.Hash) (*wire.MsgTx, error) {

	tx, err := c.conn.GetRawTransaction(&txid)
	if err != nil {
		return nil, errs.Wrap(errs.Transport, fmt.Errorf(
			"getrawtransaction %s: %w", txid, err))
	}

	return tx.MsgTx(), nil
}

func (c *RPCClient) SendRawTransaction(
	tx *wire.MsgTx) (*chainhash.Hash, error) {

	hash, err := c.conn.SendRawTransaction(tx, false)
	if err != nil {
		return nil, errs.Wrap(errs.Transport, fmt.Errorf(
			"sendrawtransaction: %w", err))
	}

	return hash, nil
}

func (c *RPCClient) ListUnspent() ([]Utxo, error) {
	results, err := c.conn.ListUnspent()
	if err != nil {
		return nil, errs.Wrap(errs.Transport, fmt.Errorf(
			"listunspent: %w", err))
	}

	utxos := make([]Utxo, 0, len(results))
	for _, r := range results {
		txid, err := chainhash.NewHashFromStr(r.TxID)
		if err != nil {
			return nil, errs.Wrap(errs.Transport, err)
		}

		addr, err := btcutil.DecodeAddress(r.Address, nil)
		if err != nil {
			return nil, errs.Wrap(errs.Transport, err)
		}

		amount, err := btcutil.NewAmount(r.Amount)
		if err != nil {
			return nil, errs.Wrap(errs.Transport, err)
		}

		utxos = append(utxos, Utxo{
			Outpoint: wire.OutPoint{
				Hash:  *txid,
				Index: r.Vout,
			},
			Address:   addr,
			Amount:    amount,
			Spendable: r.Spendable,
			Solvable:  r.Solvable,
			Confirmed: r.Confirmations > 0,
		})
	}

	return utxos, nil
}

func (c *RPCClient) GetNewAddress() (btcutil.Address, error) {
	addr, err := c.conn.GetNewAddress("")
	if err != nil {
		return nil, errs.Wrap(errs.Transport, fmt.Errorf(
			"getnewaddress: %w", err))
	}

	return addr, nil
}

type rawPrevOut struct {
	TxID         string `json:"txid"`
	Vout         uint32 `json:"vout"`
	ScriptPubKey string `json:"scriptPubKey"`
	RedeemScript string `json:"redeemScript,omitempty"`
	WitnessScript string `json:"witnessScript,omitempty"`
	Amount       float64 `json:"amount"`
}

type signRawTxResult struct {
	Hex      string `json:"hex"`
	Complete bool   `json:"complete"`
	Errors   []struct {
		TxID  string `json:"txid"`
		Vout  uint32 `json:"vout"`
		Error string `json:"error"`
	} `json:"errors"`
}

func (c *RPCClient) SignRawTransactionWithWallet(
	tx *wire.MsgTx, prevOuts []PrevOut,
) (*wire.MsgTx, bool, error) {

	txHex, err := serializeTxHex(tx)
	if err != nil {
		return nil, false, errs.Wrap(errs.Transport, err)
	}

	raw := make([]rawPrevOut, 0, len(prevOuts))
	for _, p := range prevOuts {
		raw = append(raw, rawPrevOut{
			TxID:          p.Outpoint.Hash.String(),
			Vout:          p.Outpoint.Index,
			ScriptPubKey:  hex.EncodeToString(p.PkScript),
			RedeemScript:  hex.EncodeToString(p.RedeemScript),
			WitnessScript: hex.EncodeToString(p.WitnessScript),
			Amount:        p.Amount.ToBTC(),
		})
	}

	params, err := marshalParams(txHex, raw)
	if err != nil {
		return nil, false, errs.Wrap(errs.Transport, err)
	}

	resultBytes, err := c.conn.RawRequest(
		"signrawtransactionwithwallet", params,
	)
	if err != nil {
		return nil, false, errs.Wrap(errs.Transport, fmt.Errorf(
			"signrawtransactionwithwallet: %w", err))
	}

	var result signRawTxResult
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		return nil, false, errs.Wrap(errs.Transport, err)
	}

	signed, err := deserializeTxHex(result.Hex)
	if err != nil {
		return nil, false, errs.Wrap(errs.Transport, err)
	}

	return signed, result.Complete, nil
}

func (c *RPCClient) WalletProcessPSBT(
	psbtBase64 string) (string, bool, error) {

	params, err := marshalParams(psbtBase64)
	if err != nil {
		return "", false, errs.Wrap(errs.Transport, err)
	}

	resultBytes, err := c.conn.RawRequest("walletprocesspsbt", params)
	if err != nil {
		return "", false, errs.Wrap(errs.Transport, fmt.Errorf(
			"walletprocesspsbt: %w", err))
	}

	var result struct {
		PSBT     string `json:"psbt"`
		Complete bool   `json:"complete"`
	}
	if err := json.Unmarshal(resultBytes, &result); err != nil {
		return "", false, errs.Wrap(errs.Transport, err)
	}

	return result.PSBT, result.Complete, nil
}

func (c *RPCClient) ImportDescriptors(descriptors []string) error {
	type importRequest struct {
		Desc    string `json:"desc"`
		Active  bool   `json:"active"`
		Timestamp string `json:"timestamp"`
		Label   string `json:"label,omitempty"`
	}

	requests := make([]importRequest, 0, len(descriptors))
	for _, d := range descriptors {
		requests = append(requests, importRequest{
			Desc:      d,
			Active:    false,
			Timestamp: "now",
			Label:     RecoveryKeyLabel,
		})
	}

	params, err := marshalParams(requests)
	if err != nil {
		return errs.Wrap(errs.Transport, err)
	}

	if _, err := c.conn.RawRequest("importdescriptors", params); err != nil {
		return errs.Wrap(errs.Transport, fmt.Errorf(
			"importdescriptors: %w", err))
	}

	return nil
}

func (c *RPCClient) LockUnspent(
	unlock bool, outpoints []wire.OutPoint) error {

	type lockEntry struct {
		TxID string `json:"txid"`
		Vout uint32 `json:"vout"`
	}

	entries := make([]lockEntry, 0, len(outpoints))
	for _, op := range outpoints {
		entries = append(entries, lockEntry{
			TxID: op.Hash.String(),
			Vout: op.Index,
		})
	}

	params, err := marshalParams(unlock, entries)
	if err != nil {
		return errs.Wrap(errs.Transport, err)
	}

	if _, err := c.conn.RawRequest("lockunspent", params); err != nil {
		return errs.Wrap(errs.Transport, fmt.Errorf(
			"lockunspent: %w", err))
	}

	return nil
}

func marshalParams(args ...interface{}) ([]json.RawMessage, error) {
	params := make([]json.RawMessage, 0, len(args))
	for _, a := range args {
		raw, err := json.Marshal(a)
		if err != nil {
			return nil, err
		}
		params = append(params, raw)
	}
	return params, nil
}

func serializeTxHex(tx *wire.MsgTx) (string, error) {
	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf.Bytes()), nil
}

func deserializeTxHex(txHex string) (*wire.MsgTx, error) {
	raw, err := hex.DecodeString(txHex)
	if err != nil {
		return nil, err
	}

	tx := wire.NewMsgTx(0)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, err
	}

	return tx, nil
}
