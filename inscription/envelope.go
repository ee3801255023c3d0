package inscription

import (
	"encoding/binary"
	"errors"
	"strings"

	"github.com/btcsuite/btcd/txscript"
)

// MaxPushBytes is the maximum number of bytes a single data push in the
// envelope body or metadata may carry; larger values are chunked
// across several pushes in byte order.
const MaxPushBytes = 520

// envelopeTag disambiguates envelope fields on the wire. Values match
// the published Ordinals inscription envelope format.
type envelopeTag byte

const (
	tagContentType     envelopeTag = 1
	tagPointer         envelopeTag = 2
	tagParent          envelopeTag = 3
	tagMetadata        envelopeTag = 5
	tagMetaprotocol    envelopeTag = 7
	tagContentEncoding envelopeTag = 9
	tagDelegate        envelopeTag = 11
	tagRune            envelopeTag = 13
	tagBody            envelopeTag = 0
)

// dataPush returns the tag as an OP_DATA_1 push of its single byte.
func (t envelopeTag) dataPush() []byte {
	return []byte{txscript.OP_DATA_1, byte(t)}
}

// protocolId is the literal pushed immediately after OP_IF to mark an
// envelope as an Ordinals inscription.
var protocolId = []byte("ord")

const (
	envelopeStartDisasm = "0 OP_IF 6f7264"
	envelopeEndDisasm   = "OP_ENDIF"
)

// ErrMalformedEnvelope is returned by Decode when witness data does not
// contain a well-formed Ordinals envelope.
var ErrMalformedEnvelope = errors.New("inscription: malformed envelope")

// BuildLeafScript appends, to prefix (typically "<x-only pubkey>
// OP_CHECKSIG"), one Ordinals envelope per inscription in order and
// returns the resulting reveal leaf script. The encoding is
// deterministic: same inscriptions and prefix always produce the same
// bytes.
func BuildLeafScript(prefix []byte, inscriptions []*Inscription) ([]byte, error) {
	builder := txscript.NewScriptBuilder()
	builder.AddOps(prefix)

	for _, ins := range inscriptions {
		appendEnvelope(builder, ins)
	}

	return builder.Script()
}

func appendEnvelope(b *txscript.ScriptBuilder, ins *Inscription) {
	b.AddOp(txscript.OP_FALSE)
	b.AddOp(txscript.OP_IF)
	b.AddData(protocolId)

	if ins.ContentType() != "" {
		b.AddOps(tagContentType.dataPush())
		b.AddData([]byte(ins.ContentType()))
	}

	if ins.ContentEncoding() != "" {
		b.AddOps(tagContentEncoding.dataPush())
		b.AddData([]byte(ins.ContentEncoding()))
	}

	if ins.Metaprotocol() != "" {
		b.AddOps(tagMetaprotocol.dataPush())
		b.AddData([]byte(ins.Metaprotocol()))
	}

	for _, parent := range ins.Parents() {
		b.AddOps(tagParent.dataPush())
		b.AddData(parent.dataPush())
	}

	if d := ins.Delegate(); d != nil {
		b.AddOps(tagDelegate.dataPush())
		b.AddData(d.dataPush())
	}

	if p := ins.Pointer(); p != nil {
		b.AddOps(tagPointer.dataPush())
		b.AddData(trimmedLE(*p))
	}

	if md := ins.Metadata(); len(md) > 0 {
		pushChunked(b, tagMetadata, md)
	}

	if r := ins.Rune(); r != nil {
		b.AddOps(tagRune.dataPush())
		b.AddData(encodeRuneId(*r))
	}

	if len(ins.Body()) > 0 {
		pushChunked(b, tagBody, ins.Body())
	}

	b.AddOp(txscript.OP_ENDIF)
}

// pushChunked splits value across MaxPushBytes pushes, preserving byte
// order. Body (tag 0) is marked once with a single OP_0 followed by
// its raw data pushes, matching Decode's greedy body loop. Every other
// chunked field (metadata) repeats its tag before each chunk, so
// Decode can tell where one field's pushes end and the next begins.
func pushChunked(b *txscript.ScriptBuilder, tag envelopeTag, value []byte) {
	if tag == tagBody {
		b.AddOp(txscript.OP_0)
	}

	for len(value) > 0 {
		if tag != tagBody {
			b.AddOps(tag.dataPush())
		}

		n := len(value)
		if n > MaxPushBytes {
			n = MaxPushBytes
		}
		b.AddData(value[:n])
		value = value[n:]
	}
}

// trimmedLE returns v as little-endian bytes with trailing zero bytes
// omitted (the empty slice for v == 0).
func trimmedLE(v uint64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)

	last := 7
	for last >= 0 && buf[last] == 0 {
		last--
	}
	if last < 0 {
		return nil
	}
	return buf[:last+1]
}

func leToUint64(b []byte) uint64 {
	var buf [8]byte
	copy(buf[:], b)
	return binary.LittleEndian.Uint64(buf[:])
}

func encodeRuneId(r RuneId) []byte {
	// Same little-endian, trailing-zero-trimmed encoding as Id, over
	// the concatenation of block and tx.
	var buf [12]byte
	binary.LittleEndian.PutUint64(buf[0:8], r.Block)
	binary.LittleEndian.PutUint32(buf[8:12], r.Tx)

	last := 11
	for last >= 0 && buf[last] == 0 {
		last--
	}
	if last < 0 {
		return nil
	}
	return buf[:last+1]
}

func decodeRuneId(b []byte) RuneId {
	var buf [12]byte
	copy(buf[:], b)
	return RuneId{
		Block: binary.LittleEndian.Uint64(buf[0:8]),
		Tx:    binary.LittleEndian.Uint32(buf[8:12]),
	}
}

// Decode parses the inscriptions embedded in reveal witness data,
// reversing BuildLeafScript. It is a reference decoder used by tests
// to check the round-trip property; the production core never needs
// to decode its own output.
func Decode(script []byte) ([]*Inscription, error) {
	disasm, err := txscript.DisasmString(script)
	if err != nil {
		return nil, ErrMalformedEnvelope
	}

	var out []*Inscription
	rest := disasm
	for {
		start := strings.Index(rest, envelopeStartDisasm)
		if start == -1 {
			break
		}
		end := strings.Index(rest[start:], envelopeEndDisasm)
		if end == -1 {
			return nil, ErrMalformedEnvelope
		}
		end += start

		body := rest[start+len(envelopeStartDisasm) : end]
		ins, err := decodeOne(strings.Fields(body))
		if err != nil {
			return nil, err
		}
		out = append(out, ins)

		rest = rest[end+len(envelopeEndDisasm):]
	}

	if len(out) == 0 {
		return nil, ErrMalformedEnvelope
	}

	return out, nil
}

func decodeOne(fields []string) (*Inscription, error) {
	ins := &Inscription{}

	for i := 0; i < len(fields); {
		tagHex := fields[i]
		i++

		switch tagHex {
		case "0":
			var chunks [][]byte
			for i < len(fields) {
				b, err := hexField(fields[i])
				if err != nil {
					return nil, err
				}
				chunks = append(chunks, b)
				i++
			}
			var body []byte
			for _, c := range chunks {
				body = append(body, c...)
			}
			ins.body = body
			continue
		default:
			if i >= len(fields) {
				return nil, ErrMalformedEnvelope
			}
			value, err := hexField(fields[i])
			if err != nil {
				return nil, err
			}
			i++

			switch tagHex {
			case tagHexString(tagContentType):
				ins.contentType = string(value)
			case tagHexString(tagContentEncoding):
				ins.contentEncoding = string(value)
			case tagHexString(tagMetaprotocol):
				ins.metaprotocol = string(value)
			case tagHexString(tagParent):
				id, err := idFromDataPush(value)
				if err != nil {
					return nil, err
				}
				ins.parents = append(ins.parents, id)
			case tagHexString(tagDelegate):
				id, err := idFromDataPush(value)
				if err != nil {
					return nil, err
				}
				ins.delegate = &id
			case tagHexString(tagPointer):
				v := leToUint64(value)
				ins.pointer = &v
			case tagHexString(tagMetadata):
				ins.metadata = append(ins.metadata, value...)
				// metadata may be chunked across repeated tag/value
				// pairs; keep consuming while the next tag matches.
				for i+1 < len(fields) && fields[i] == tagHexString(tagMetadata) {
					v, err := hexField(fields[i+1])
					if err != nil {
						return nil, err
					}
					ins.metadata = append(ins.metadata, v...)
					i += 2
				}
			case tagHexString(tagRune):
				r := decodeRuneId(value)
				ins.rune = &r
			default:
				return nil, ErrMalformedEnvelope
			}
		}
	}

	return ins, nil
}

func tagHexString(t envelopeTag) string {
	const hexDigits = "0123456789abcdef"
	return string([]byte{hexDigits[t>>4], hexDigits[t&0xf]})
}

func hexField(s string) ([]byte, error) {
	if s == "0" {
		return nil, nil
	}
	if len(s)%2 != 0 {
		return nil, ErrMalformedEnvelope
	}
	out := make([]byte, len(s)/2)
	for i := range out {
		hi, err := hexNibble(s[i*2])
		if err != nil {
			return nil, err
		}
		lo, err := hexNibble(s[i*2+1])
		if err != nil {
			return nil, err
		}
		out[i] = hi<<4 | lo
	}
	return out, nil
}

func hexNibble(c byte) (byte, error) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', nil
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, nil
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, nil
	default:
		return 0, ErrMalformedEnvelope
	}
}
