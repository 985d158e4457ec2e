package ledger

import (
	"github.com/shopspring/decimal"

	"stockfolio/models"
)

// Summary is the on-demand aggregate view of a ledger. Nothing here is
// stored; it is derived from the positions at call time.
type Summary struct {
	TotalPnL       decimal.Decimal  `json:"totalPnl"`
	TotalInvested  decimal.Decimal  `json:"totalInvested"`
	BestPerformer  *models.Position `json:"bestPerformer,omitempty"`
	WorstPerformer *models.Position `json:"worstPerformer,omitempty"`
}

// Summary computes the ledger's aggregates.
//
// Positions with an absent P&L are excluded from the total (not counted
// as zero) and from the performer picks. The best performer is the
// position with the highest positive P&L, the worst the one with the
// lowest negative P&L; either is nil when no position qualifies.
func (l *Ledger) Summary() Summary {
	s := Summary{
		TotalPnL:      decimal.Zero,
		TotalInvested: decimal.Zero,
	}

	var best, worst *models.Position
	for i := range l.positions {
		p := &l.positions[i]
		s.TotalInvested = s.TotalInvested.Add(p.Invested())
		if p.PnL == nil {
			continue
		}
		s.TotalPnL = s.TotalPnL.Add(*p.PnL)
		if p.PnL.IsPositive() && (best == nil || p.PnL.GreaterThan(*best.PnL)) {
			best = p
		}
		if p.PnL.IsNegative() && (worst == nil || p.PnL.LessThan(*worst.PnL)) {
			worst = p
		}
	}

	if best != nil {
		b := *best
		s.BestPerformer = &b
	}
	if worst != nil {
		w := *worst
		s.WorstPerformer = &w
	}
	return s
}
