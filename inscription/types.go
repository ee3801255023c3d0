// Package inscription holds the data model for Ordinals-style
// inscriptions: the payload record, its on-chain identifier, and the
// satoshi position it is bound to.
package inscription

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// idSeparator separates the txid and output index in the canonical
// string form of an Id.
const idSeparator = "i"

// Id is a pair (reveal transaction id, output index within that
// transaction). Canonical string form: "<txid>i<index>".
type Id struct {
	TxId  chainhash.Hash
	Index uint32
}

// ParseId parses the canonical "<txid>i<index>" form.
func ParseId(s string) (Id, error) {
	parts := strings.Split(s, idSeparator)
	if len(parts) != 2 {
		return Id{}, fmt.Errorf("invalid inscription id %q: want "+
			"<txid>i<index>", s)
	}

	if len(parts[0]) != chainhash.MaxHashStringSize {
		return Id{}, fmt.Errorf("invalid inscription id %q: txid must "+
			"be %d hex chars", s, chainhash.MaxHashStringSize)
	}

	txid, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return Id{}, fmt.Errorf("invalid inscription id %q: %w", s, err)
	}

	index, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return Id{}, fmt.Errorf("invalid inscription id %q: %w", s, err)
	}

	return Id{TxId: *txid, Index: uint32(index)}, nil
}

// String returns the canonical "<txid>i<index>" form.
func (i Id) String() string {
	return fmt.Sprintf("%s%s%d", i.TxId.String(), idSeparator, i.Index)
}

// dataPush returns the id encoded as it appears in an envelope tag
// value: the 32-byte txid in wire order followed by the little-endian
// output index with trailing zero bytes omitted.
func (i Id) dataPush() []byte {
	out := make([]byte, chainhash.HashSize, chainhash.HashSize+4)
	copy(out, i.TxId[:])

	var idxBytes [4]byte
	binary.LittleEndian.PutUint32(idxBytes[:], i.Index)

	last := 3
	for last >= 0 && idxBytes[last] == 0 {
		last--
	}

	return append(out, idxBytes[:last+1]...)
}

// idFromDataPush is the inverse of dataPush; used by the reference
// decoder in tests.
func idFromDataPush(data []byte) (Id, error) {
	if len(data) < chainhash.HashSize || len(data) > chainhash.HashSize+4 {
		return Id{}, fmt.Errorf("invalid id data push: %x", data)
	}

	txid, err := chainhash.NewHash(data[:chainhash.HashSize])
	if err != nil {
		return Id{}, err
	}

	var idxBytes [4]byte
	copy(idxBytes[:], data[chainhash.HashSize:])

	return Id{TxId: *txid, Index: binary.LittleEndian.Uint32(idxBytes[:])}, nil
}

// SatPoint identifies the on-chain position of a specific satoshi: an
// outpoint plus the byte offset into that output's value.
type SatPoint struct {
	Outpoint wire.OutPoint
	Offset   uint64
}

// String returns "<txid>:<vout>:<offset>".
func (s SatPoint) String() string {
	return fmt.Sprintf("%s:%d", s.Outpoint.String(), s.Offset)
}

// ParseSatPoint parses the canonical "<txid>:<vout>:<offset>" form.
func ParseSatPoint(s string) (SatPoint, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return SatPoint{}, fmt.Errorf(
			"invalid satpoint %q: want <txid>:<vout>:<offset>", s)
	}

	txid, err := chainhash.NewHashFromStr(parts[0])
	if err != nil {
		return SatPoint{}, fmt.Errorf("invalid satpoint txid: %w", err)
	}

	vout, err := strconv.ParseUint(parts[1], 10, 32)
	if err != nil {
		return SatPoint{}, fmt.Errorf("invalid satpoint vout: %w", err)
	}

	offset, err := strconv.ParseUint(parts[2], 10, 64)
	if err != nil {
		return SatPoint{}, fmt.Errorf("invalid satpoint offset: %w", err)
	}

	return SatPoint{
		Outpoint: wire.OutPoint{Hash: *txid, Index: uint32(vout)},
		Offset:   offset,
	}, nil
}

// RuneId is the per-inscription rune designation tag (distinct from
// the batch-level etching carried in package rune); it names which
// rune the inscription is associated with.
type RuneId struct {
	Block uint64
	Tx    uint32
}

// Inscription is an immutable payload record.
type Inscription struct {
	body            []byte
	contentType     string
	contentEncoding string
	metadata        []byte
	metaprotocol    string
	parents         []Id
	delegate        *Id
	pointer         *uint64
	rune            *RuneId
}

// Option configures an Inscription at construction time.
type Option func(*Inscription)

// WithContentEncoding sets the content-encoding tag (e.g. "br" for a
// Brotli-compressed body).
func WithContentEncoding(enc string) Option {
	return func(i *Inscription) { i.contentEncoding = enc }
}

// WithMetadata attaches CBOR-encoded metadata bytes.
func WithMetadata(cbor []byte) Option {
	return func(i *Inscription) { i.metadata = cbor }
}

// WithMetaprotocol tags the inscription with a metaprotocol string.
func WithMetaprotocol(tag string) Option {
	return func(i *Inscription) { i.metaprotocol = tag }
}

// WithParents declares zero or more parent inscription ids.
func WithParents(ids ...Id) Option {
	return func(i *Inscription) { i.parents = append([]Id(nil), ids...) }
}

// WithDelegate sets a delegate inscription id.
func WithDelegate(id Id) Option {
	return func(i *Inscription) { i.delegate = &id }
}

// WithPointer sets the pointer offset.
func WithPointer(offset uint64) Option {
	return func(i *Inscription) { i.pointer = &offset }
}

// WithRune tags the inscription with a rune designation.
func WithRune(r RuneId) Option {
	return func(i *Inscription) { i.rune = &r }
}

// New constructs an Inscription from a content type and body plus
// optional attributes. Cross-field rules (e.g. "at least one of
// --file and --delegate is required") are enforced by the CLI layer,
// which has flags; this package has only the data model.
func New(contentType string, body []byte, opts ...Option) *Inscription {
	ins := &Inscription{
		contentType: contentType,
		body:        append([]byte(nil), body...),
	}
	for _, opt := range opts {
		opt(ins)
	}
	return ins
}

func (i *Inscription) Body() []byte           { return i.body }
func (i *Inscription) ContentType() string     { return i.contentType }
func (i *Inscription) ContentEncoding() string { return i.contentEncoding }
func (i *Inscription) Metadata() []byte        { return i.metadata }
func (i *Inscription) Metaprotocol() string    { return i.metaprotocol }
func (i *Inscription) Parents() []Id           { return i.parents }
func (i *Inscription) Delegate() *Id           { return i.delegate }
func (i *Inscription) Pointer() *uint64        { return i.pointer }
func (i *Inscription) Rune() *RuneId           { return i.rune }

// HasParent reports whether id is among the inscription's declared
// parents.
func (i *Inscription) HasParent(id Id) bool {
	for _, p := range i.parents {
		if p == id {
			return true
		}
	}
	return false
}
