package core

import "github.com/shopspring/decimal"

// ListSummary is the totals row derived from a loaded investment list.
type ListSummary struct {
	Count  int
	Total  decimal.Decimal
	Newest Date
	Oldest Date
}

// Summarize derives the totals row from an in-memory list ordered newest
// first. It is recomputed on every render; there is no aggregate query.
func Summarize(investments []Investment) ListSummary {
	s := ListSummary{Count: len(investments), Total: decimal.Zero}
	if len(investments) == 0 {
		return s
	}
	s.Newest = investments[0].Date
	s.Oldest = investments[len(investments)-1].Date
	for _, inv := range investments {
		s.Total = s.Total.Add(inv.Amount)
	}
	return s
}
