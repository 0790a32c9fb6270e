package posting

// withdrawalRecipe pays cash out of a customer account. The canonical amount
// is the only money field; caller-supplied entries are ignored.
type withdrawalRecipe struct {
	req PostingRequest
	env RecipeEnv
}

func (r *withdrawalRecipe) NormalizedEntries() []Entry {
	if r.req.AmountCents <= 0 || r.req.PrimaryAccountReference == "" {
		return nil
	}

	return []Entry{
		debit(r.req.PrimaryAccountReference, r.req.AmountCents),
		credit(cashReference(r.req, r.env), r.req.AmountCents),
	}
}

func (r *withdrawalRecipe) PostingMetadata() map[string]any {
	return map[string]any{}
}
