package posting

// draftRecipe issues a bank draft. The customer tenders any mix of cash,
// check items, and funds drawn on their own account; the total tendered must
// equal draft amount plus fee exactly. The draft itself lands on an
// outstanding-instruments liability bucket until presented.
type draftRecipe struct {
	req PostingRequest
	env RecipeEnv
}

func (r *draftRecipe) liabilityReference() string {
	if r.req.LiabilityReference != "" {
		return r.req.LiabilityReference
	}
	return r.env.DraftLiabilityReference
}

func (r *draftRecipe) NormalizedEntries() []Entry {
	req := r.req
	if req.DraftAmountCents <= 0 || req.FeeCents < 0 {
		return nil
	}

	liability := r.liabilityReference()
	if liability == "" {
		return nil
	}

	tendered := req.CashCents + req.CheckTotal() + req.FromAccountCents
	if tendered != req.DraftAmountCents+req.FeeCents {
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
	entries = append(entries, credit(liability, req.DraftAmountCents))
	entries = appendNonZero(entries, credit(r.env.FeeIncomeReference, req.FeeCents))
	return entries
}

func (r *draftRecipe) PostingMetadata() map[string]any {
	md := map[string]any{
		"draft_amount_cents":  r.req.DraftAmountCents,
		"draft_payee":         r.req.DraftPayee,
		"draft_instrument_id": r.req.DraftInstrumentID,
		"liability_reference": r.liabilityReference(),
	}
	if r.req.FeeCents > 0 {
		md["fee_cents"] = r.req.FeeCents
	}
	if items := checkItemsMetadata(r.req.CheckItems); items != nil {
		md["check_items"] = items
	}
	return md
}
