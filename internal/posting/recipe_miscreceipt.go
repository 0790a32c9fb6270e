package posting

// miscReceiptRecipe takes payment for something that is not a deposit, e.g.
// a safe-deposit fee or loan payoff. It mirrors the draft's tender
// reconciliation but credits an income bucket instead of a liability.
type miscReceiptRecipe struct {
	req PostingRequest
	env RecipeEnv
}

func (r *miscReceiptRecipe) incomeReference() string {
	if r.req.IncomeAccountReference != "" {
		return r.req.IncomeAccountReference
	}
	return r.env.MiscIncomeReference
}

func (r *miscReceiptRecipe) NormalizedEntries() []Entry {
	req := r.req
	if req.AmountCents <= 0 || req.FeeCents < 0 {
		return nil
	}

	income := r.incomeReference()
	if income == "" {
		return nil
	}

	tendered := req.CashCents + req.CheckTotal() + req.FromAccountCents
	if tendered != req.AmountCents+req.FeeCents {
		return nil
	}
	if req.FromAccountCents > 0 && req.PrimaryAccountReference == "" {
		return nil
	}

	var entries []Entry
	entries = appendNonZero(entries, debit(cashReference(req, r.env), req.CashCents))
	for _, item := range req.CheckItems {
		entries = appendNonZero(entries, debit("check:"+item.ItemID, item.AmountCents))
	}
	entries = appendNonZero(entries, debit(req.PrimaryAccountReference, req.FromAccountCents))
	entries = append(entries, credit(income, req.AmountCents))
	entries = appendNonZero(entries, credit(r.env.FeeIncomeReference, req.FeeCents))
	return entries
}

func (r *miscReceiptRecipe) PostingMetadata() map[string]any {
	md := map[string]any{
		"income_account_reference": r.incomeReference(),
	}
	if r.req.ReceiptDescription != "" {
		md["description"] = r.req.ReceiptDescription
	}
	if items := checkItemsMetadata(r.req.CheckItems); items != nil {
		md["check_items"] = items
	}
	return md
}
