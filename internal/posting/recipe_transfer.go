package posting

// transferRecipe moves the canonical amount from the primary account to the
// counterparty, net of an optional fee routed to the fee-income bucket.
type transferRecipe struct {
	req PostingRequest
	env RecipeEnv
}

func (r *transferRecipe) NormalizedEntries() []Entry {
	req := r.req
	if req.AmountCents <= 0 || req.FeeCents < 0 {
		return nil
	}
	// A fee consuming the whole transfer leaves the counterparty with nothing
	// to receive.
	if req.FeeCents >= req.AmountCents {
		return nil
	}
	if req.PrimaryAccountReference == "" || req.CounterpartyAccountReference == "" {
		return nil
	}
	if req.PrimaryAccountReference == req.CounterpartyAccountReference {
		return nil
	}

	var entries []Entry
	entries = appendNonZero(entries, debit(req.PrimaryAccountReference, req.AmountCents))
	entries = appendNonZero(entries, credit(req.CounterpartyAccountReference, req.AmountCents-req.FeeCents))
	entries = appendNonZero(entries, credit(r.env.FeeIncomeReference, req.FeeCents))
	return entries
}

func (r *transferRecipe) PostingMetadata() map[string]any {
	md := map[string]any{
		"counterparty_account_reference": r.req.CounterpartyAccountReference,
	}
	if r.req.FeeCents > 0 {
		md["fee_cents"] = r.req.FeeCents
	}
	return md
}
