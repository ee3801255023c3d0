package errs

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapNilReturnsNil(t *testing.T) {
	require.NoError(t, Wrap(Transport, nil))
	require.NoError(t, Wrapf(Transport, nil, "context"))
}

func TestWrapPreservesChainAndKind(t *testing.T) {
	cause := errors.New("rpc timed out")
	err := Wrap(Transport, cause)

	require.ErrorIs(t, err, cause)

	kind, ok := As(err)
	require.True(t, ok)
	require.Equal(t, Transport, kind)
}

func TestWrapfFormatsAndChains(t *testing.T) {
	cause := errors.New("not found")
	err := Wrapf(Persistence, cause, "loading state for %s", "addr1")

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "loading state for addr1")

	kind, ok := As(err)
	require.True(t, ok)
	require.Equal(t, Persistence, kind)
}

func TestAsFalseForPlainError(t *testing.T) {
	_, ok := As(fmt.Errorf("plain"))
	require.False(t, ok)
}

func TestAsFindsWrappedErrorThroughChain(t *testing.T) {
	inner := Wrap(Cryptographic, errors.New("bad sig"))
	outer := fmt.Errorf("verifying reveal: %w", inner)

	kind, ok := As(outer)
	require.True(t, ok)
	require.Equal(t, Cryptographic, kind)
}

func TestKindStringCoversAllValues(t *testing.T) {
	kinds := []Kind{
		InputValidation, StateConflict, Construction,
		Cryptographic, Transport, Persistence,
	}
	for _, k := range kinds {
		require.NotEqual(t, "unknown", k.String())
	}

	require.Equal(t, "unknown", Kind(99).String())
}
