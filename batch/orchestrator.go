package batch

import (
	"fmt"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/psbt"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/txscript"
	"github.com/btcsuite/btcd/wire"

	"github.com/ordtools/inscribe/errs"
	"github.com/ordtools/inscribe/node"
	"github.com/ordtools/inscribe/store"
	"github.com/ordtools/inscribe/taproot"
)

// TxBuilder constructs and funds the commit transaction at the given
// fee rate. The core treats commit funding as an external capability
// (§4.4 step 4) distinct from the node.Client RPC surface it otherwise
// depends on.
type TxBuilder interface {
	BuildCommit(
		target btcutil.Amount, addr btcutil.Address, feeRate btcutil.Amount,
	) (*wire.MsgTx, error)
}

// Orchestrator wires the commitment builder, skeleton/fee solver,
// signer, persistence gateway, node client and transaction builder
// into the two-phase, single-phase and dry-run inscribe flows (§4.7).
type Orchestrator struct {
	Net     *chaincfg.Params
	Node    node.Client
	Store   *store.Store
	Builder TxBuilder
}

// PrepareCommit is Phase 1: it builds the commitment and reveal
// topology, persists the reveal state, and returns the commit address
// plus the value the caller must fund it with. Funding and broadcast
// of the commit transaction are the caller's responsibility.
func (o *Orchestrator) PrepareCommit(p *Plan) (address string, target btcutil.Amount, err error) {
	if err := p.Validate(); err != nil {
		return "", 0, err
	}

	commitment, err := taproot.Build(o.Net, p.Inscriptions)
	if err != nil {
		return "", 0, errs.Wrap(errs.Construction, err)
	}

	state, target, err := o.buildState(p, commitment)
	if err != nil {
		return "", 0, err
	}

	if err := o.Store.Put(state.TaprootAddress, state); err != nil {
		return "", 0, err
	}

	return state.TaprootAddress, target, nil
}

// resolvePlanSatpoint fills p.Satpoint when the plan does not already
// name one, by listing the wallet's UTXOs and applying §4.3's
// selection rule. Modes that bind their own reveal inputs explicitly
// never need a selected satpoint.
func (o *Orchestrator) resolvePlanSatpoint(p *Plan) error {
	if p.Satpoint != nil || p.Mode == SatPoints {
		return nil
	}

	utxos, err := o.Node.ListUnspent()
	if err != nil {
		return err
	}

	satpoint, err := ResolveSatpoint(p, utxos)
	if err != nil {
		return err
	}

	p.Satpoint = &satpoint
	return nil
}

// buildState runs the fee solver against commitment and assembles the
// persisted reveal state, shared by PrepareCommit and SinglePhase.
func (o *Orchestrator) buildState(
	p *Plan, commitment *taproot.Commitment,
) (*store.State, btcutil.Amount, error) {

	_, fee, err := EstimateRevealFee(p, commitment)
	if err != nil {
		return nil, 0, err
	}
	target := TargetValue(p, fee)

	tweaked := txscript.TweakTaprootPrivKey(
		*commitment.InternalKey, commitment.MerkleRoot,
	)

	state := &store.State{
		Inscriptions:   p.Inscriptions,
		RevealScript:   commitment.RevealScript,
		ControlBlock:   commitment.ControlBlock,
		TaprootAddress: commitment.Address.EncodeAddress(),
		UntweakedKey:   commitment.InternalKey,
		TweakedKey:     tweaked,
	}

	return state, target, nil
}

// Reveal is Phase 2: it loads the reveal state persisted under
// address, binds the signed commit transaction's matching output,
// signs the reveal transaction, resolves the remaining inputs through
// the wallet, and broadcasts.
func (o *Orchestrator) Reveal(
	p *Plan, address string, signedCommitTxid chainhash.Hash,
) (*Result, error) {

	state, err := o.Store.Get(address)
	if err != nil {
		return nil, err
	}
	if state == nil {
		return nil, errs.Wrap(errs.Persistence, fmt.Errorf(
			"no pending reveal for address %s", address))
	}

	commitment, err := taproot.BuildWithKey(o.Net, state.UntweakedKey, state.Inscriptions)
	if err != nil {
		return nil, errs.Wrap(errs.Construction, err)
	}
	if err := commitment.VerifyAddress(o.Net, state.TaprootAddress); err != nil {
		return nil, errs.Wrap(errs.Cryptographic, err)
	}

	commitTx, err := o.Node.GetRawTransaction(signedCommitTxid)
	if err != nil {
		return nil, err
	}

	outpoint, txOut, err := findCommitOutput(commitTx, signedCommitTxid, commitment.PkScript)
	if err != nil {
		return nil, err
	}

	skeleton, err := BuildSkeleton(p, commitment, outpoint, btcutil.Amount(txOut.Value))
	if err != nil {
		return nil, err
	}

	if err := SignCommitInput(skeleton, commitment); err != nil {
		return nil, err
	}

	if err := o.signAuxiliaryInputs(skeleton); err != nil {
		return nil, err
	}

	revealHash, err := o.Node.SendRawTransaction(skeleton.Tx)
	if err != nil {
		return nil, errs.Wrapf(errs.Transport, err,
			"broadcasting reveal transaction")
	}

	// The ephemeral key is single-use; leaving the entry behind leaks
	// no funds, but there's no reason to keep it once the reveal has
	// broadcast.
	_ = o.Store.Delete(address)

	return o.result(p, commitment, skeleton, revealHash, true, "", ""), nil
}

// findCommitOutput locates the vout of commitTx whose scriptPubKey
// matches pkScript.
func findCommitOutput(
	commitTx *wire.MsgTx, txid chainhash.Hash, pkScript []byte,
) (wire.OutPoint, *wire.TxOut, error) {

	for i, out := range commitTx.TxOut {
		if bytesEqual(out.PkScript, pkScript) {
			return wire.OutPoint{Hash: txid, Index: uint32(i)}, out, nil
		}
	}

	return wire.OutPoint{}, nil, errs.Wrap(errs.StateConflict, fmt.Errorf(
		"no output of %s matches the commit script", txid))
}

func bytesEqual(a, b []byte) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// signAuxiliaryInputs resolves every reveal input other than the
// commit input (the parent and any explicit satpoints) through the
// wallet's sign-raw-transaction-with-wallet RPC.
func (o *Orchestrator) signAuxiliaryInputs(skeleton *Skeleton) error {
	aux := AuxiliaryPrevOuts(skeleton)
	if len(aux) == 0 {
		return nil
	}

	prevOuts := make([]node.PrevOut, 0, len(aux))
	for op, txOut := range aux {
		prevOuts = append(prevOuts, node.PrevOut{
			Outpoint: op,
			PkScript: txOut.PkScript,
			Amount:   btcutil.Amount(txOut.Value),
		})
	}

	signed, complete, err := o.Node.SignRawTransactionWithWallet(skeleton.Tx, prevOuts)
	if err != nil {
		return err
	}
	if !complete {
		return errs.Wrap(errs.Transport, fmt.Errorf(
			"wallet could not sign every auxiliary reveal input"))
	}

	// Preserve the already-computed commit-input witness; the wallet
	// round trip only touches auxiliary inputs.
	commitWitness := skeleton.Tx.TxIn[skeleton.CommitInputIndex].Witness
	skeleton.Tx = signed
	skeleton.Tx.TxIn[skeleton.CommitInputIndex].Witness = commitWitness

	return nil
}

// SinglePhase constructs and signs the commit and reveal together,
// optionally backs up the tweaked recovery key, broadcasts the commit,
// then the reveal (§4.7 legacy flow).
func (o *Orchestrator) SinglePhase(p *Plan) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := o.resolvePlanSatpoint(p); err != nil {
		return nil, err
	}

	commitment, err := taproot.Build(o.Net, p.Inscriptions)
	if err != nil {
		return nil, errs.Wrap(errs.Construction, err)
	}

	state, target, err := o.buildState(p, commitment)
	if err != nil {
		return nil, err
	}

	if o.Builder == nil {
		return nil, errs.Wrap(errs.Construction, fmt.Errorf(
			"single-phase flow requires a transaction builder"))
	}

	commitTx, err := o.Builder.BuildCommit(target, commitment.Address, p.CommitFeeRate)
	if err != nil {
		return nil, errs.Wrapf(errs.Transport, err, "building commit transaction")
	}

	if !p.NoBackup {
		descriptor, err := RecoveryDescriptor(o.Net, state.TweakedKey)
		if err != nil {
			return nil, err
		}
		if err := o.Node.ImportDescriptors([]string{descriptor}); err != nil {
			return nil, err
		}
	}

	commitTx, complete, err := o.Node.SignRawTransactionWithWallet(commitTx, nil)
	if err != nil {
		return nil, err
	}
	if !complete {
		return nil, errs.Wrap(errs.Transport, fmt.Errorf(
			"wallet could not sign every commit input"))
	}

	commitHash, err := o.Node.SendRawTransaction(commitTx)
	if err != nil {
		return nil, errs.Wrapf(errs.Transport, err, "broadcasting commit transaction")
	}

	outpoint, txOut, err := findCommitOutput(commitTx, *commitHash, commitment.PkScript)
	if err != nil {
		return nil, err
	}

	skeleton, err := BuildSkeleton(p, commitment, outpoint, btcutil.Amount(txOut.Value))
	if err != nil {
		return nil, err
	}

	if err := SignCommitInput(skeleton, commitment); err != nil {
		return nil, err
	}

	if err := o.signAuxiliaryInputs(skeleton); err != nil {
		return nil, err
	}

	revealHash, err := o.Node.SendRawTransaction(skeleton.Tx)
	if err != nil {
		return nil, errs.Wrapf(errs.Transport, err,
			"broadcasting reveal transaction failed; the imported "+
				"recovery key can sweep the commit output %s once "+
				"mined", outpoint)
	}

	return o.result(p, commitment, skeleton, revealHash, true, "", ""), nil
}

// DryRun constructs both transactions without broadcasting, returning
// base64-encoded PSBTs for each (§4.7 dry-run mode).
func (o *Orchestrator) DryRun(p *Plan) (*Result, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	if err := o.resolvePlanSatpoint(p); err != nil {
		return nil, err
	}

	commitment, err := taproot.Build(o.Net, p.Inscriptions)
	if err != nil {
		return nil, errs.Wrap(errs.Construction, err)
	}

	_, target, err := o.buildState(p, commitment)
	if err != nil {
		return nil, err
	}

	commitPSBT := ""
	if o.Builder != nil {
		commitTx, err := o.Builder.BuildCommit(target, commitment.Address, p.CommitFeeRate)
		if err != nil {
			return nil, errs.Wrapf(errs.Transport, err, "building commit transaction")
		}

		packet, err := psbt.NewFromUnsignedTx(commitTx)
		if err != nil {
			return nil, errs.Wrap(errs.Construction, err)
		}

		unsigned, err := encodePSBT(packet)
		if err != nil {
			return nil, err
		}

		processed, _, err := o.Node.WalletProcessPSBT(unsigned)
		if err != nil {
			return nil, err
		}
		commitPSBT = processed
	}

	skeleton, err := BuildSkeleton(p, commitment, wire.OutPoint{}, target)
	if err != nil {
		return nil, err
	}

	revealPacket, err := psbt.NewFromUnsignedTx(skeleton.Tx)
	if err != nil {
		return nil, errs.Wrap(errs.Construction, err)
	}

	revealPSBT, err := encodePSBT(revealPacket)
	if err != nil {
		return nil, err
	}

	fee := btcutil.Amount(VSize(skeleton.Tx)) * p.RevealFeeRate

	result := o.result(p, commitment, skeleton, nil, false, commitPSBT, revealPSBT)
	result.TotalFees = fee
	return result, nil
}

func encodePSBT(packet *psbt.Packet) (string, error) {
	raw, err := packet.B64Encode()
	if err != nil {
		return "", errs.Wrap(errs.Construction, err)
	}
	return raw, nil
}

// result assembles the output record shared by every flow.
func (o *Orchestrator) result(
	p *Plan, commitment *taproot.Commitment, skeleton *Skeleton,
	revealHash *chainhash.Hash, broadcast bool, commitPSBT, revealPSBT string,
) *Result {

	revealTxid := revealTxidOf(revealHash, skeleton)

	res := &Result{
		Commit:          commitment.Address.EncodeAddress(),
		CommitPSBT:      commitPSBT,
		Reveal:          revealTxid,
		RevealBroadcast: broadcast,
		RevealPSBT:      revealPSBT,
	}

	if p.ParentInfo != nil {
		res.Parent = p.ParentInfo.Id.String()
	}

	for i := range p.Inscriptions {
		vout := revealVoutFor(p, i)
		res.Inscriptions = append(res.Inscriptions, InscriptionResult{
			Id:          fmt.Sprintf("%si%d", revealTxid, vout),
			Destination: destinationFor(p, i),
			Location: fmt.Sprintf(
				"%s:%d:%d", revealTxid, vout, revealOffsetFor(p, i)),
		})
	}

	if p.Etching != nil {
		res.Rune = &RuneResult{
			Rune: p.Etching.Name.String(),
			Vout: skeleton.RuneVout,
		}
	}

	return res
}

// revealVoutFor returns the reveal output index holding the i'th
// inscription, per the output ordering in §4.3.
func revealVoutFor(p *Plan, i int) int {
	base := 0
	if p.ParentInfo != nil {
		base = 1
	}

	switch p.Mode {
	case SharedOutput, SameSat:
		return base
	default:
		return base + i
	}
}

// revealOffsetFor returns the inscription's satoshi offset within its
// reveal output: zero for single-inscription outputs and for SameSat
// (every inscription shares the first sat), cumulative postage for
// SharedOutput (each inscription occupies the next sat range).
func revealOffsetFor(p *Plan, i int) uint64 {
	if p.Mode != SharedOutput {
		return 0
	}

	var offset uint64
	for j := 0; j < i; j++ {
		offset += uint64(p.postageFor(j))
	}
	return offset
}

func destinationFor(p *Plan, i int) string {
	switch p.Mode {
	case SharedOutput, SameSat:
		return p.Destinations[0].EncodeAddress()
	default:
		return p.Destinations[i].EncodeAddress()
	}
}

func revealTxidOf(hash *chainhash.Hash, skeleton *Skeleton) string {
	if hash != nil {
		return hash.String()
	}
	return skeleton.Tx.TxHash().String()
}
