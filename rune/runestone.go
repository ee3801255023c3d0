package rune

import (
	"bytes"
	"errors"
	"math/big"

	"github.com/aviate-labs/leb128"
	"github.com/btcsuite/btcd/txscript"
)

// Tag disambiguates fields inside the LEB128 integer sequence that
// makes up a runestone payload. Values match the published rune
// protocol.
type Tag uint64

const (
	tagBody         Tag = 0
	tagFlags        Tag = 2
	tagRune         Tag = 4
	tagPremine      Tag = 6
	tagCap          Tag = 8
	tagAmount       Tag = 10
	tagHeightStart  Tag = 12
	tagHeightEnd    Tag = 14
	tagOffsetStart  Tag = 16
	tagOffsetEnd    Tag = 18
	tagPointer      Tag = 22
	tagDivisibility Tag = 1
	tagSpacers      Tag = 3
	tagSymbol       Tag = 5
)

const (
	flagEtching uint64 = 1 << 0
	flagTerms   uint64 = 1 << 1
	flagTurbo   uint64 = 1 << 2
)

// maxRunestonePayload is the reveal skeleton's own limit (spec.md
// §4.3 step 4), enforced by the batch package, not here; this package
// only encodes.
const maxRunestonePayload = 82

// Runestone is the OP_RETURN payload announcing an etching. Only the
// etching path is implemented; mints, transfers, and edicts are
// outside this engine's scope.
type Runestone struct {
	Etching *Etching
	Pointer *uint32
}

// IntoScript serializes the runestone and wraps it in the OP_RETURN
// OP_13 <payload> output script.
func (r *Runestone) IntoScript() ([]byte, error) {
	payload, err := r.Serialize()
	if err != nil {
		return nil, err
	}

	if len(payload) < txscript.OP_DATA_1 || len(payload) > txscript.OP_DATA_75 {
		return nil, errors.New("rune: payload out of single-push bounds")
	}

	script := append(
		[]byte{txscript.OP_RETURN, txscript.OP_13, byte(len(payload))},
		payload...,
	)
	return script, nil
}

// Serialize encodes the runestone fields as a LEB128 integer sequence
// of tag/value pairs in a fixed order: flags, divisibility, premine,
// rune, spacers, symbol, then the mint terms, then the pointer.
func (r *Runestone) Serialize() ([]byte, error) {
	var seq []*big.Int

	if r.Etching != nil {
		e := r.Etching

		flags := uint64(flagEtching)
		if e.Terms != nil {
			flags |= flagTerms
		}
		if e.Turbo {
			flags |= flagTurbo
		}

		appendField(&seq, tagFlags, big.NewInt(0).SetUint64(flags))
		appendField(&seq, tagDivisibility, big.NewInt(int64(e.Divisibility)))
		if e.Premine != nil {
			appendField(&seq, tagPremine, e.Premine)
		}
		appendField(&seq, tagRune, e.Name.Value())
		appendField(&seq, tagSpacers, big.NewInt(int64(e.Spacers)))
		appendField(&seq, tagSymbol, big.NewInt(int64(e.Symbol)))

		if e.Terms != nil {
			if e.Terms.Amount != nil {
				appendField(&seq, tagAmount, e.Terms.Amount)
			}
			if e.Terms.Cap != nil {
				appendField(&seq, tagCap, e.Terms.Cap)
			}
			appendUintField(&seq, tagHeightStart, e.Terms.HeightStart)
			appendUintField(&seq, tagHeightEnd, e.Terms.HeightEnd)
			appendUintField(&seq, tagOffsetStart, e.Terms.OffsetStart)
			appendUintField(&seq, tagOffsetEnd, e.Terms.OffsetEnd)
		}
	}

	if r.Pointer != nil {
		appendField(&seq, tagPointer, big.NewInt(int64(*r.Pointer)))
	}

	var buf bytes.Buffer
	for _, n := range seq {
		enc, err := leb128.EncodeUnsigned(n)
		if err != nil {
			return nil, err
		}
		buf.Write(enc)
	}

	return buf.Bytes(), nil
}

func appendField(seq *[]*big.Int, tag Tag, value *big.Int) {
	*seq = append(*seq, big.NewInt(int64(tag)), value)
}

func appendUintField(seq *[]*big.Int, tag Tag, value *uint64) {
	if value == nil {
		return
	}
	appendField(seq, tag, new(big.Int).SetUint64(*value))
}

// Decipher parses a runestone back out of a reveal transaction's
// OP_RETURN output script, for the equality check against the planned
// runestone (spec.md §8, "Runestone equality").
func Decipher(script []byte) (*Runestone, error) {
	if len(script) < 4 {
		return nil, errors.New("rune: script too short")
	}
	if script[0] != txscript.OP_RETURN || script[1] != txscript.OP_13 {
		return nil, errors.New("rune: not a runestone output")
	}

	pushLen := int(script[2])
	if len(script) != 3+pushLen {
		return nil, errors.New("rune: malformed push length")
	}
	payload := script[3:]

	var seq []*big.Int
	r := bytes.NewReader(payload)
	for r.Len() > 0 {
		n, err := leb128.DecodeUnsigned(r)
		if err != nil {
			return nil, err
		}
		seq = append(seq, n)
	}
	if len(seq)%2 != 0 {
		return nil, errors.New("rune: cenotaph: odd-length field sequence")
	}

	fields := map[Tag]*big.Int{}
	for i := 0; i < len(seq); i += 2 {
		fields[Tag(seq[i].Uint64())] = seq[i+1]
	}

	out := &Runestone{}

	if flags, ok := fields[tagFlags]; ok && flags.Bit(0) == 1 {
		e := &Etching{}

		if v, ok := fields[tagDivisibility]; ok {
			e.Divisibility = byte(v.Uint64())
		}
		if v, ok := fields[tagPremine]; ok {
			e.Premine = v
		}
		if v, ok := fields[tagRune]; ok {
			e.Name = Name{value: v}
		}
		if v, ok := fields[tagSpacers]; ok {
			e.Spacers = uint32(v.Uint64())
		}
		if v, ok := fields[tagSymbol]; ok {
			e.Symbol = rune(v.Int64())
		}

		if flags.Bit(1) == 1 {
			terms := &Terms{}
			if v, ok := fields[tagAmount]; ok {
				terms.Amount = v
			}
			if v, ok := fields[tagCap]; ok {
				terms.Cap = v
			}
			terms.HeightStart = decipherUint(fields, tagHeightStart)
			terms.HeightEnd = decipherUint(fields, tagHeightEnd)
			terms.OffsetStart = decipherUint(fields, tagOffsetStart)
			terms.OffsetEnd = decipherUint(fields, tagOffsetEnd)
			e.Terms = terms
		}

		e.Turbo = flags.Bit(2) == 1

		out.Etching = e
	}

	if v, ok := fields[tagPointer]; ok {
		p := uint32(v.Uint64())
		out.Pointer = &p
	}

	return out, nil
}

func decipherUint(fields map[Tag]*big.Int, tag Tag) *uint64 {
	v, ok := fields[tag]
	if !ok {
		return nil
	}
	u := v.Uint64()
	return &u
}
