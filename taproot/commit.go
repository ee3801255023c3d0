// Package taproot builds the Taproot commitment that a reveal
// transaction spends: a single-leaf script tree holding the
// inscription envelope, and the control block needed to prove it.
package taproot

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/txscript"

	"github.com/ordtools/inscribe/inscription"
)

// LeafVersion is the tapscript leaf version used for the reveal
// script, per BIP-342.
const LeafVersion = txscript.BaseLeafVersion

// Commitment is the result of building the Taproot commit output for
// one or more inscriptions: the address funds must be sent to, the
// reveal script that spends it, the control block proving the script
// is committed to by the output key, the untweaked (signing) private
// key, the tweaked output public key and the merkle root. The tweaked
// private key is not held here; callers derive it from InternalKey and
// MerkleRoot.
type Commitment struct {
	Address       btcutil.Address
	PkScript      []byte
	RevealScript  []byte
	ControlBlock  []byte
	InternalKey   *btcec.PrivateKey
	TweakedOutput *btcec.PublicKey
	MerkleRoot    []byte
}

// Build samples a fresh ephemeral keypair and assembles the single-
// leaf Taproot commitment for the given inscriptions under net.
func Build(
	net *chaincfg.Params, inscriptions []*inscription.Inscription,
) (*Commitment, error) {

	internalKey, err := btcec.NewPrivateKey()
	if err != nil {
		return nil, fmt.Errorf("generating ephemeral key: %w", err)
	}

	return build(net, internalKey, inscriptions)
}

// BuildWithKey assembles the commitment using a caller-supplied
// internal key instead of sampling one. Phase 2 uses it to re-derive
// the commitment from the persisted untweaked key.
func BuildWithKey(
	net *chaincfg.Params, internalKey *btcec.PrivateKey,
	inscriptions []*inscription.Inscription,
) (*Commitment, error) {

	return build(net, internalKey, inscriptions)
}

func build(
	net *chaincfg.Params, internalKey *btcec.PrivateKey,
	inscriptions []*inscription.Inscription,
) (*Commitment, error) {

	xOnlyKey := schnorr.SerializePubKey(internalKey.PubKey())

	prefix, err := txscript.NewScriptBuilder().
		AddData(xOnlyKey).
		AddOp(txscript.OP_CHECKSIG).
		Script()
	if err != nil {
		return nil, fmt.Errorf("building checksig prefix: %w", err)
	}

	revealScript, err := inscription.BuildLeafScript(prefix, inscriptions)
	if err != nil {
		return nil, fmt.Errorf("building reveal script: %w", err)
	}

	leaf := txscript.NewBaseTapLeaf(revealScript)
	proof := &txscript.TapscriptProof{
		TapLeaf:  leaf,
		RootNode: leaf,
	}

	controlBlock := proof.ToControlBlock(internalKey.PubKey())
	controlBlockBytes, err := controlBlock.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("serializing control block: %w", err)
	}

	merkleRoot := leaf.TapHash()
	outputKey := txscript.ComputeTaprootOutputKey(
		internalKey.PubKey(), merkleRoot[:],
	)

	addr, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(outputKey), net,
	)
	if err != nil {
		return nil, fmt.Errorf("deriving commit address: %w", err)
	}

	pkScript, err := txscript.PayToAddrScript(addr)
	if err != nil {
		return nil, fmt.Errorf("building commit pkScript: %w", err)
	}

	return &Commitment{
		Address:       addr,
		PkScript:      pkScript,
		RevealScript:  revealScript,
		ControlBlock:  controlBlockBytes,
		InternalKey:   internalKey,
		TweakedOutput: outputKey,
		MerkleRoot:    merkleRoot[:],
	}, nil
}

// VerifyAddress recomputes the P2TR address for the commitment's
// tweaked output key and checks it matches addr, the address recorded
// at persistence time. A mismatch signals a tweak or persistence bug.
func (c *Commitment) VerifyAddress(
	net *chaincfg.Params, addr string) error {

	recomputed, err := btcutil.NewAddressTaproot(
		schnorr.SerializePubKey(c.TweakedOutput), net,
	)
	if err != nil {
		return fmt.Errorf("recomputing commit address: %w", err)
	}

	if recomputed.EncodeAddress() != addr {
		return fmt.Errorf("commit address mismatch: persisted %s, "+
			"recomputed %s", addr, recomputed.EncodeAddress())
	}

	return nil
}
