package node

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordtools/inscribe/errs"
)

// EsploraClient implements the read-only subset of Client against an
// esplora-compatible HTTP API (e.g. blockstream.info/api), for
// environments without a local wallet-enabled node. It cannot sign or
// manage wallet state, so it is primarily useful for dry runs and for
// Phase 2's read of the already-signed, already-broadcast commit
// transaction.
type EsploraClient struct {
	baseURL string
	http    *http.Client
}

// NewEsploraClient constructs a client against the given esplora base
// URL (no trailing slash), e.g. "https://blockstream.info/api".
func NewEsploraClient(baseURL string) *EsploraClient {
	return &EsploraClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http:    http.DefaultClient,
	}
}

func (e *EsploraClient) fetch(path string, target interface{}) error {
	resp, err := e.http.Get(e.baseURL + path)
	if err != nil {
		return errs.Wrap(errs.Transport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return errs.Wrap(errs.Transport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return errs.Wrap(errs.Transport, fmt.Errorf(
			"esplora %s: %s: %s", path, resp.Status, body))
	}

	return errs.Wrap(errs.Transport, json.Unmarshal(body, target))
}

func (e *EsploraClient) GetRawTransaction(
	txid chainhash.Hash) (*wire.MsgTx, error) {

	var hexTx string
	if err := e.fetch("/tx/"+txid.String()+"/hex", &hexTx); err != nil {
		return nil, err
	}

	raw, err := hex.DecodeString(strings.TrimSpace(hexTx))
	if err != nil {
		return nil, errs.Wrap(errs.Transport, err)
	}

	tx := wire.NewMsgTx(0)
	if err := tx.Deserialize(bytes.NewReader(raw)); err != nil {
		return nil, errs.Wrap(errs.Transport, err)
	}

	return tx, nil
}

func (e *EsploraClient) SendRawTransaction(
	tx *wire.MsgTx) (*chainhash.Hash, error) {

	var buf bytes.Buffer
	if err := tx.Serialize(&buf); err != nil {
		return nil, errs.Wrap(errs.Transport, err)
	}

	resp, err := e.http.Post(
		e.baseURL+"/tx", "text/plain",
		strings.NewReader(hex.EncodeToString(buf.Bytes())),
	)
	if err != nil {
		return nil, errs.Wrap(errs.Transport, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errs.Wrap(errs.Transport, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, errs.Wrap(errs.Transport, fmt.Errorf(
			"esplora broadcast failed: %s: %s", resp.Status, body))
	}

	txid, err := chainhash.NewHashFromStr(strings.TrimSpace(string(body)))
	if err != nil {
		return nil, errs.Wrap(errs.Transport, err)
	}

	return txid, nil
}

func (e *EsploraClient) ListUnspent() ([]Utxo, error) {
	return nil, errs.Wrap(errs.Transport, ErrNotSupported)
}

func (e *EsploraClient) GetNewAddress() (btcutil.Address, error) {
	return nil, errs.Wrap(errs.Transport, ErrNotSupported)
}

func (e *EsploraClient) SignRawTransactionWithWallet(
	*wire.MsgTx, []PrevOut) (*wire.MsgTx, bool, error) {

	return nil, false, errs.Wrap(errs.Transport, ErrNotSupported)
}

func (e *EsploraClient) WalletProcessPSBT(string) (string, bool, error) {
	return "", false, errs.Wrap(errs.Transport, ErrNotSupported)
}

func (e *EsploraClient) ImportDescriptors([]string) error {
	return errs.Wrap(errs.Transport, ErrNotSupported)
}

func (e *EsploraClient) LockUnspent(bool, []wire.OutPoint) error {
	return errs.Wrap(errs.Transport, ErrNotSupported)
}
