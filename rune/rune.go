// Package rune implements the minimal subset of the rune protocol the
// reveal transaction must carry when a batch plan etches a rune: name
// encoding, an Etching description, and the OP_RETURN runestone that
// announces it. Transfers, mints, and the full protocol are out of
// scope.
package rune

import (
	"errors"
	"math/big"
)

var base26 = big.NewInt(26)

// reservedNameThreshold is the first reserved rune name
// ("AAAAAAAAAAAAAAAAAAAAAAAAAAA"), below which ordinary names live.
var reservedNameThreshold, _ = new(big.Int).SetString(
	"6402364363415443603228541259936211926", 10,
)

var maxUint128 = new(big.Int).Sub(
	new(big.Int).Lsh(big.NewInt(1), 128), big.NewInt(1),
)

var charValue = map[byte]int64{}

func init() {
	for i := byte(0); i < 26; i++ {
		charValue['A'+i] = int64(i)
	}
}

// Name is a rune name, encoded internally as a modified base-26
// integer over A-Z as the published rune specification requires.
type Name struct {
	value *big.Int
}

// ParseName parses an upper-case A-Z rune name.
func ParseName(s string) (Name, error) {
	if s == "" {
		return Name{}, errors.New("rune: empty name")
	}

	value := big.NewInt(0)
	for i, c := range s {
		if i > 0 {
			value.Add(value, big.NewInt(1))
		}
		value.Mul(value, base26)

		if c < 'A' || c > 'Z' {
			return Name{}, errors.New("rune: names are A-Z only")
		}
		value.Add(value, big.NewInt(charValue[byte(c)]))
	}

	if value.Cmp(maxUint128) > 0 {
		return Name{}, errors.New("rune: name overflows u128")
	}
	if value.Cmp(reservedNameThreshold) >= 0 {
		return Name{}, errors.New("rune: name is reserved")
	}

	return Name{value: value}, nil
}

// Value returns the name as its underlying integer.
func (n Name) Value() *big.Int {
	return n.value
}

// String renders the name back to A-Z form.
func (n Name) String() string {
	value := new(big.Int).Add(n.value, big.NewInt(1))

	var out []byte
	for value.Sign() > 0 {
		valueSubOne := new(big.Int).Sub(value, big.NewInt(1))
		idx := new(big.Int).Mod(valueSubOne, base26)
		out = append([]byte{byte('A' + idx.Int64())}, out...)
		value = valueSubOne.Div(valueSubOne, base26)
	}

	return string(out)
}

// Id names a rune by the block and transaction index of its etching.
type Id struct {
	Block uint64
	Tx    uint32
}

// Terms bounds an open mint.
type Terms struct {
	Amount      *big.Int
	Cap         *big.Int
	HeightStart *uint64
	HeightEnd   *uint64
	OffsetStart *uint64
	OffsetEnd   *uint64
}

// Etching describes a new rune's genesis.
type Etching struct {
	Name         Name
	Divisibility byte
	Premine      *big.Int
	Spacers      uint32
	Symbol       rune
	Terms        *Terms
	Turbo        bool
}
