package core

import "github.com/shopspring/decimal"

// AllocationDraft is one unsaved category/amount/notes line in the entry
// form. The amount stays a raw string while the user is editing.
type AllocationDraft struct {
	Category string
	Amount   string
	Notes    string
}

// DraftList is the ordered sequence of drafts in an open entry form.
// Invariant: a list belonging to an open form is never empty.
type DraftList []AllocationDraft

// NewDraftList returns the initial form state: exactly one empty draft.
func NewDraftList() DraftList {
	return DraftList{{}}
}

// Add appends one empty draft to the end of the sequence.
func (l DraftList) Add() DraftList {
	return append(l, AllocationDraft{})
}

// Remove drops the draft at position i. Removing the last remaining draft
// yields a fresh single-element list instead of an empty one. Out-of-range
// positions leave the list unchanged.
func (l DraftList) Remove(i int) DraftList {
	if i < 0 || i >= len(l) {
		return l
	}
	if len(l) == 1 {
		return NewDraftList()
	}
	out := make(DraftList, 0, len(l)-1)
	out = append(out, l[:i]...)
	return append(out, l[i+1:]...)
}

// Total sums the draft amounts for display. Empty or unparsable amounts
// count as zero; validity is checked separately at submit time.
func (l DraftList) Total() decimal.Decimal {
	total := decimal.Zero
	for _, d := range l {
		amount, err := ParseAmount(d.Amount)
		if err != nil {
			continue
		}
		total = total.Add(amount)
	}
	return total
}

// Validate checks every draft and returns the first problem found:
// empty category, unknown category, or a missing/non-positive amount.
// A non-nil error means no insert may be issued for any draft.
func (l DraftList) Validate() error {
	for _, d := range l {
		if d.Category == "" {
			return ErrEmptyCategory
		}
		if !Category(d.Category).IsValid() {
			return ErrUnknownCategory
		}
		if _, err := ParseAmount(d.Amount); err != nil {
			return err
		}
	}
	return nil
}

// Payloads converts validated drafts into insert payloads carrying the
// shared date and owning user. Call Validate first; a draft that fails to
// parse here is skipped.
func (l DraftList) Payloads(userID string, date Date) []NewInvestment {
	out := make([]NewInvestment, 0, len(l))
	for _, d := range l {
		amount, err := ParseAmount(d.Amount)
		if err != nil {
			continue
		}
		out = append(out, NewInvestment{
			UserID:   userID,
			Amount:   amount,
			Category: Category(d.Category),
			Date:     date,
			Notes:    d.Notes,
		})
	}
	return out
}
