package posting

// vaultTransferRecipe moves physical cash between drawers and vaults. The leg
// pair always debits the destination and credits the source; both sides are
// cash references resolved from the direction and the teller's own drawer.
type vaultTransferRecipe struct {
	req PostingRequest
	env RecipeEnv
}

func (r *vaultTransferRecipe) endpoints() (source, target string) {
	switch r.req.VaultDirection {
	case DrawerToVault:
		return r.env.DrawerCashReference, r.req.VaultReference
	case VaultToDrawer:
		return r.req.VaultReference, r.env.DrawerCashReference
	case VaultToVault:
		return r.req.SourceCashReference, r.req.TargetCashReference
	}
	return "", ""
}

func (r *vaultTransferRecipe) NormalizedEntries() []Entry {
	if r.req.AmountCents <= 0 {
		return nil
	}

	source, target := r.endpoints()
	if source == "" || target == "" || source == target {
		return nil
	}

	return []Entry{
		debit(target, r.req.AmountCents),
		credit(source, r.req.AmountCents),
	}
}

func (r *vaultTransferRecipe) PostingMetadata() map[string]any {
	source, target := r.endpoints()
	return map[string]any{
		"direction":             string(r.req.VaultDirection),
		"source_cash_reference": source,
		"target_cash_reference": target,
	}
}
