package ledger

import (
	"strings"

	"stockfolio/models"
)

// MergeResult reports what a reconciliation merge did with the incoming rows.
type MergeResult struct {
	Added   int `json:"added"`
	Dropped int `json:"dropped"`
}

// Merge reconciles externally recognized positions into the ledger,
// de-duplicating by ticker. A ticker not yet in the ledger is appended
// with no resolved price. A ticker already present is dropped: the
// local book is authoritative and an import never overwrites or blends
// an existing cost basis. Merging the same input twice is a no-op the
// second time.
func (l *Ledger) Merge(incoming []models.RecognizedPosition) MergeResult {
	existing := make(map[string]struct{}, len(l.positions))
	for i := range l.positions {
		existing[l.positions[i].Ticker] = struct{}{}
	}

	var res MergeResult
	for _, in := range incoming {
		ticker := strings.ToUpper(strings.TrimSpace(in.Ticker))
		if ticker == "" {
			res.Dropped++
			continue
		}
		if _, ok := existing[ticker]; ok {
			res.Dropped++
			continue
		}
		existing[ticker] = struct{}{}
		l.positions = append(l.positions, models.Position{
			Ticker:   ticker,
			Shares:   in.Shares.Round(models.SharePrecision),
			AvgPrice: in.AvgPrice,
		})
		res.Added++
	}
	return res
}
