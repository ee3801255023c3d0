package batch

import (
	"math/big"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/wire"
	"github.com/stretchr/testify/require"

	"github.com/ordtools/inscribe/inscription"
	"github.com/ordtools/inscribe/rune"
	"github.com/ordtools/inscribe/taproot"
)

func samplePlan(t *testing.T) (*Plan, *taproot.Commitment) {
	t.Helper()
	ins := inscription.New("text/plain", []byte("hello world"))
	commitment, err := taproot.Build(&chaincfg.RegressionNetParams, []*inscription.Inscription{ins})
	require.NoError(t, err)

	p := &Plan{
		CommitFeeRate: 1,
		RevealFeeRate: 1,
		Mode:          SeparateOutputs,
		Destinations:  []btcutil.Address{mustAddress(t)},
		Inscriptions:  []*inscription.Inscription{ins},
		Postages:      []btcutil.Amount{TargetPostage},
	}
	return p, commitment
}

func TestBuildSkeletonOrdersCommitInputLast(t *testing.T) {
	p, commitment := samplePlan(t)

	skeleton, err := BuildSkeleton(p, commitment, wire.OutPoint{Index: 7}, TargetPostage+1000)
	require.NoError(t, err)

	require.Equal(t, 0, skeleton.CommitInputIndex)
	require.Len(t, skeleton.Tx.TxIn, 1)
	require.Equal(t, uint32(7), skeleton.Tx.TxIn[0].PreviousOutPoint.Index)
}

func TestBuildSkeletonParentInputFirstAndOutputFirst(t *testing.T) {
	p, commitment := samplePlan(t)

	parentAddr := mustAddress(t)
	parentId := inscription.Id{}
	p.Inscriptions[0] = inscription.New("text/plain", []byte("child"), inscription.WithParents(parentId))
	p.ParentInfo = &ParentInfo{
		Id:          parentId,
		Satpoint:    inscription.SatPoint{Outpoint: wire.OutPoint{Index: 3}},
		TxOut:       wire.TxOut{Value: 10_000, PkScript: []byte{0x51}},
		Destination: parentAddr,
	}

	skeleton, err := BuildSkeleton(p, commitment, wire.OutPoint{Index: 9}, TargetPostage+1000)
	require.NoError(t, err)

	require.Equal(t, 1, skeleton.CommitInputIndex)
	require.Equal(t, uint32(3), skeleton.Tx.TxIn[0].PreviousOutPoint.Index)
	require.Equal(t, uint32(9), skeleton.Tx.TxIn[1].PreviousOutPoint.Index)
	require.Equal(t, int64(10_000), skeleton.Tx.TxOut[0].Value)
}

func TestBuildSkeletonSharedOutputSumsPostages(t *testing.T) {
	p, commitment := samplePlan(t)
	p.Mode = SharedOutput
	p.Inscriptions = []*inscription.Inscription{
		inscription.New("text/plain", []byte("a")),
		inscription.New("text/plain", []byte("b")),
	}
	p.Postages = []btcutil.Amount{1000, 2000}

	skeleton, err := BuildSkeleton(p, commitment, wire.OutPoint{}, 50_000)
	require.NoError(t, err)
	require.Len(t, skeleton.Tx.TxOut, 1)
	require.Equal(t, int64(3000), skeleton.Tx.TxOut[0].Value)
}

func TestBuildSkeletonRejectsDustOutput(t *testing.T) {
	p, commitment := samplePlan(t)
	p.Postages = []btcutil.Amount{1}

	_, err := BuildSkeleton(p, commitment, wire.OutPoint{}, 50_000)
	require.Error(t, err)
}

func TestBuildSkeletonEtchingSequenceEnforcesMaturity(t *testing.T) {
	p, commitment := samplePlan(t)
	name, err := rune.ParseName("ORDTOOLSRUNE")
	require.NoError(t, err)
	p.Etching = &rune.Etching{Name: name}

	skeleton, err := BuildSkeleton(p, commitment, wire.OutPoint{}, 50_000)
	require.NoError(t, err)

	require.Equal(t, uint32(etchingMaturity), skeleton.Tx.TxIn[skeleton.CommitInputIndex].Sequence)
	require.NotNil(t, skeleton.Tx.TxOut)
}

func TestBuildSkeletonRunestoneDeciphersToPlannedEtching(t *testing.T) {
	p, commitment := samplePlan(t)
	name, err := rune.ParseName("ORDTOOLSRUNE")
	require.NoError(t, err)
	p.Etching = &rune.Etching{
		Name:         name,
		Divisibility: 2,
		Spacers:      0b101,
		Symbol:       '$',
		Turbo:        true,
	}
	p.EtchingPremine = big.NewInt(250)
	p.ChangeAddress = mustAddress(t)

	skeleton, err := BuildSkeleton(p, commitment, wire.OutPoint{}, 50_000)
	require.NoError(t, err)
	require.NotNil(t, skeleton.RuneVout)

	// BuildSkeleton appends the OP_RETURN runestone output last, after
	// any premine change output.
	runeOutput := skeleton.Tx.TxOut[len(skeleton.Tx.TxOut)-1]
	require.Equal(t, int64(0), runeOutput.Value)

	decoded, err := rune.Decipher(runeOutput.PkScript)
	require.NoError(t, err)
	require.NotNil(t, decoded.Etching)
	require.Equal(t, p.Etching.Name.String(), decoded.Etching.Name.String())
	require.Equal(t, p.Etching.Divisibility, decoded.Etching.Divisibility)
	require.Equal(t, p.Etching.Spacers, decoded.Etching.Spacers)
	require.Equal(t, p.Etching.Symbol, decoded.Etching.Symbol)
	require.Equal(t, p.Etching.Turbo, decoded.Etching.Turbo)
	require.Equal(t, p.EtchingPremine.Int64(), decoded.Etching.Premine.Int64())
}

func TestWeightAndVSizeAreConsistent(t *testing.T) {
	p, commitment := samplePlan(t)
	skeleton, err := BuildSkeleton(p, commitment, wire.OutPoint{}, 50_000)
	require.NoError(t, err)

	weight := Weight(skeleton.Tx)
	vsize := VSize(skeleton.Tx)
	require.Greater(t, weight, int64(0))
	require.Equal(t, (weight+3)/4, vsize)
}
