package posting

import (
	"strings"

	"github.com/example/branch-teller/internal/ledger"
)

// depositRecipe derives legs for a cash/check deposit. The canonical amount is
// the sum of cash tendered and all check items; explicit cash-back comes off
// the credit to the customer account and is paid from a separate cash leg.
type depositRecipe struct {
	req PostingRequest
	env RecipeEnv
}

func (r *depositRecipe) NormalizedEntries() []Entry {
	if len(r.req.Entries) > 0 {
		return r.sanitize(r.req.Entries)
	}

	checkTotal := r.req.CheckTotal()
	if r.req.CashCents+checkTotal != r.req.AmountCents {
		return nil
	}
	if r.req.CashBackCents < 0 || r.req.CashBackCents > r.req.AmountCents {
		return nil
	}
	if r.req.PrimaryAccountReference == "" {
		return nil
	}

	cashRef := cashReference(r.req, r.env)

	var entries []Entry
	entries = appendNonZero(entries, debit(cashRef, r.req.CashCents))
	for _, item := range r.req.CheckItems {
		entries = appendNonZero(entries, debit("check:"+item.ItemID, item.AmountCents))
	}
	entries = appendNonZero(entries, credit(r.req.PrimaryAccountReference, r.req.AmountCents-r.req.CashBackCents))
	entries = appendNonZero(entries, credit(cashRef, r.req.CashBackCents))
	return entries
}

// sanitize accepts caller-supplied entries but rewrites every debit that does
// not reference a pending-check bucket to the teller's own drawer. Callers
// cannot redirect incoming cash to an arbitrary account. A sanitized set that
// does not balance, or whose total disagrees with the stated amount, is a bad
// request rather than a corrupt batch, so it is rejected here.
func (r *depositRecipe) sanitize(entries []Entry) []Entry {
	cashRef := cashReference(r.req, r.env)

	out := make([]Entry, 0, len(entries))
	var debits, credits int64
	for _, e := range entries {
		if e.AmountCents <= 0 {
			continue
		}
		if e.Side == ledger.Debit && !strings.HasPrefix(e.AccountReference, "check:") {
			e.AccountReference = cashRef
		}
		switch e.Side {
		case ledger.Debit:
			debits += e.AmountCents
		case ledger.Credit:
			credits += e.AmountCents
		}
		out = append(out, e)
	}
	if debits != credits || debits != r.req.AmountCents {
		return nil
	}
	return out
}

func (r *depositRecipe) PostingMetadata() map[string]any {
	md := map[string]any{
		"cash_cents": r.req.CashCents,
	}
	if items := checkItemsMetadata(r.req.CheckItems); items != nil {
		md["check_items"] = items
	}
	if r.req.CashBackCents > 0 {
		md["cash_back_cents"] = r.req.CashBackCents
	}
	return md
}
