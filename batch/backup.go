package batch

import (
	"fmt"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg"

	"github.com/ordtools/inscribe/btc"
)

// RecoveryDescriptor renders the tweaked keypair as a `rawtr(<wif>)`
// output descriptor with a valid checksum, ready for inactive import
// so the commit output can be swept by hand if the reveal is lost.
func RecoveryDescriptor(
	net *chaincfg.Params, tweakedKey *btcec.PrivateKey) (string, error) {

	wif, err := btcutil.NewWIF(tweakedKey, net, true)
	if err != nil {
		return "", fmt.Errorf("encoding recovery key WIF: %w", err)
	}

	raw := fmt.Sprintf("rawtr(%s)", wif.String())
	return btc.DescriptorSumCreate(raw), nil
}
