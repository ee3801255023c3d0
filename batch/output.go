package batch

import "github.com/btcsuite/btcd/btcutil"

// InscriptionResult is one entry of a Result's inscriptions list.
type InscriptionResult struct {
	Id          string `json:"id" yaml:"id"`
	Destination string `json:"destination" yaml:"destination"`
	Location    string `json:"location" yaml:"location"`
}

// RuneResult reports the etched rune's name alongside its designated
// vout, when the plan etches one.
type RuneResult struct {
	Rune string `json:"rune" yaml:"rune"`
	Vout *int   `json:"vout,omitempty" yaml:"vout,omitempty"`
}

// Result is the output record produced by every inscribe flow (§6).
type Result struct {
	Commit          string              `json:"commit" yaml:"commit"`
	CommitPSBT      string              `json:"commit_psbt,omitempty" yaml:"commit_psbt,omitempty"`
	Inscriptions    []InscriptionResult `json:"inscriptions" yaml:"inscriptions"`
	Parent          string              `json:"parent,omitempty" yaml:"parent,omitempty"`
	Reveal          string              `json:"reveal" yaml:"reveal"`
	RevealBroadcast bool                `json:"reveal_broadcast" yaml:"reveal_broadcast"`
	RevealPSBT      string              `json:"reveal_psbt,omitempty" yaml:"reveal_psbt,omitempty"`
	Rune            *RuneResult         `json:"rune,omitempty" yaml:"rune,omitempty"`
	TotalFees       btcutil.Amount      `json:"total_fees" yaml:"total_fees"`
}
