package analyzer

import (
	"math"

	"github.com/wirec-lang/wirec/internal/compiler/errors"
	"github.com/wirec-lang/wirec/internal/compiler/schema"
	"github.com/wirec-lang/wirec/internal/compiler/size"
)

// checkUnreliableSizes compares every unreliable event, id included, with
// the datagram budget. An event that can never fit is an error; one that
// might not fit is a warning.
func (a *Analyzer) checkUnreliableSizes(cfg *schema.Config) {
	budget := a.opts.budget()
	idSize := cfg.EventIDKind().Size()
	est := size.New(cfg)

	for i, ev := range cfg.EventDecls {
		if ev.Transport != schema.Unreliable {
			continue
		}
		span := a.eventNodes[i].Name.Loc
		b := est.Bounds(ev.Data)
		least, most := size.Add(b.Min, idSize), size.Add(b.Max, idSize)

		switch {
		case least > budget:
			a.report(errors.NewOversizeUnreliable(span, ev.Name, least, budget))
		case !b.HasMax || most == math.MaxInt:
			a.report(errors.NewPotentiallyOversize(span, ev.Name, -1, budget))
		case most > budget:
			a.report(errors.NewPotentiallyOversize(span, ev.Name, most, budget))
		}
	}
}
