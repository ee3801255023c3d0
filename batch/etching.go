package batch

import "github.com/ordtools/inscribe/rune"

// etchingToRunestone adapts the plan's etching parameters into the
// rune package's wire type.
func etchingToRunestone(p *Plan) *rune.Runestone {
	e := *p.Etching
	if p.EtchingPremine != nil {
		e.Premine = p.EtchingPremine
	}

	return &rune.Runestone{Etching: &e}
}
