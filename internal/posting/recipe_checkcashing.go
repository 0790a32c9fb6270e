package posting

// checkCashingRecipe cashes a check against a settlement account. The
// canonical amount must equal the net payout (check amount minus fee) exactly.
type checkCashingRecipe struct {
	req PostingRequest
	env RecipeEnv
}

func (r *checkCashingRecipe) NormalizedEntries() []Entry {
	req := r.req
	if req.CheckAmountCents <= 0 || req.FeeCents < 0 {
		return nil
	}
	if req.SettlementAccountReference == "" {
		return nil
	}

	net := req.CheckAmountCents - req.FeeCents
	if net <= 0 || req.AmountCents != net {
		return nil
	}

	var entries []Entry
	entries = append(entries, debit(req.SettlementAccountReference, req.CheckAmountCents))
	entries = append(entries, credit(cashReference(req, r.env), net))
	entries = appendNonZero(entries, credit(r.env.FeeIncomeReference, req.FeeCents))
	return entries
}

func (r *checkCashingRecipe) PostingMetadata() map[string]any {
	md := map[string]any{
		"check_amount_cents":           r.req.CheckAmountCents,
		"settlement_account_reference": r.req.SettlementAccountReference,
	}
	if r.req.FeeCents > 0 {
		md["fee_cents"] = r.req.FeeCents
	}
	return md
}
