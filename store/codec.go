package store

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/fxamacker/cbor/v2"

	"github.com/ordtools/inscribe/inscription"
)

// wireInscription is the CBOR-serializable projection of an
// inscription.Inscription; the domain type keeps its fields private,
// so persistence goes through this mirror rather than reaching in.
type wireInscription struct {
	Body            []byte  `cbor:"body"`
	ContentType     string  `cbor:"content_type"`
	ContentEncoding string  `cbor:"content_encoding,omitempty"`
	Metadata        []byte  `cbor:"metadata,omitempty"`
	Metaprotocol    string  `cbor:"metaprotocol,omitempty"`
	Parents         []string `cbor:"parents,omitempty"`
	Delegate        string  `cbor:"delegate,omitempty"`
	Pointer         *uint64 `cbor:"pointer,omitempty"`
	RuneBlock       *uint64 `cbor:"rune_block,omitempty"`
	RuneTx          *uint32 `cbor:"rune_tx,omitempty"`
}

type wireState struct {
	Inscriptions   []wireInscription `cbor:"inscriptions"`
	RevealScript   []byte            `cbor:"reveal_script"`
	ControlBlock   []byte            `cbor:"control_block"`
	TaprootAddress string            `cbor:"taproot_address"`
	UntweakedKey   []byte            `cbor:"untweaked_key"`
	TweakedKey     []byte            `cbor:"tweaked_key"`
}

func toWireInscription(ins *inscription.Inscription) wireInscription {
	w := wireInscription{
		Body:            ins.Body(),
		ContentType:     ins.ContentType(),
		ContentEncoding: ins.ContentEncoding(),
		Metadata:        ins.Metadata(),
		Metaprotocol:    ins.Metaprotocol(),
		Pointer:         ins.Pointer(),
	}

	for _, p := range ins.Parents() {
		w.Parents = append(w.Parents, p.String())
	}

	if d := ins.Delegate(); d != nil {
		w.Delegate = d.String()
	}

	if r := ins.Rune(); r != nil {
		w.RuneBlock = &r.Block
		w.RuneTx = &r.Tx
	}

	return w
}

func fromWireInscription(w wireInscription) (*inscription.Inscription, error) {
	var opts []inscription.Option

	if w.ContentEncoding != "" {
		opts = append(opts, inscription.WithContentEncoding(w.ContentEncoding))
	}
	if len(w.Metadata) > 0 {
		opts = append(opts, inscription.WithMetadata(w.Metadata))
	}
	if w.Metaprotocol != "" {
		opts = append(opts, inscription.WithMetaprotocol(w.Metaprotocol))
	}
	if w.Pointer != nil {
		opts = append(opts, inscription.WithPointer(*w.Pointer))
	}
	if w.RuneBlock != nil && w.RuneTx != nil {
		opts = append(opts, inscription.WithRune(inscription.RuneId{
			Block: *w.RuneBlock,
			Tx:    *w.RuneTx,
		}))
	}

	if len(w.Parents) > 0 {
		parents := make([]inscription.Id, 0, len(w.Parents))
		for _, p := range w.Parents {
			id, err := inscription.ParseId(p)
			if err != nil {
				return nil, fmt.Errorf("decoding persisted parent id: %w", err)
			}
			parents = append(parents, id)
		}
		opts = append(opts, inscription.WithParents(parents...))
	}

	if w.Delegate != "" {
		id, err := inscription.ParseId(w.Delegate)
		if err != nil {
			return nil, fmt.Errorf("decoding persisted delegate id: %w", err)
		}
		opts = append(opts, inscription.WithDelegate(id))
	}

	return inscription.New(w.ContentType, w.Body, opts...), nil
}

func encodeState(s *State) ([]byte, error) {
	w := wireState{
		RevealScript:   s.RevealScript,
		ControlBlock:   s.ControlBlock,
		TaprootAddress: s.TaprootAddress,
		UntweakedKey:   s.UntweakedKey.Serialize(),
		TweakedKey:     s.TweakedKey.Serialize(),
	}

	for _, ins := range s.Inscriptions {
		w.Inscriptions = append(w.Inscriptions, toWireInscription(ins))
	}

	return cbor.Marshal(w)
}

func decodeState(data []byte) (*State, error) {
	var w wireState
	if err := cbor.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decoding persisted reveal state: %w", err)
	}

	s := &State{
		RevealScript:   w.RevealScript,
		ControlBlock:   w.ControlBlock,
		TaprootAddress: w.TaprootAddress,
	}

	untweaked, _ := btcec.PrivKeyFromBytes(w.UntweakedKey)
	s.UntweakedKey = untweaked

	tweaked, _ := btcec.PrivKeyFromBytes(w.TweakedKey)
	s.TweakedKey = tweaked

	for _, wi := range w.Inscriptions {
		ins, err := fromWireInscription(wi)
		if err != nil {
			return nil, err
		}
		s.Inscriptions = append(s.Inscriptions, ins)
	}

	return s, nil
}
