package posting

import (
	"github.com/example/branch-teller/internal/ledger"
)

// Recipe turns raw request fields into a normalized ordered leg list plus
// type-specific metadata. An empty leg list signals a failed per-type
// reconciliation; the engine reports it as a validation failure and never
// commits an empty or unbalanced batch.
type Recipe interface {
	NormalizedEntries() []Entry
	PostingMetadata() map[string]any
}

// RecipeEnv carries the per-request ledger anchors a recipe needs: the
// teller's own drawer and the configured internal bucket references.
type RecipeEnv struct {
	DrawerCashReference     string
	FeeIncomeReference      string
	MiscIncomeReference     string
	DraftLiabilityReference string
}

type recipeConstructor func(req PostingRequest, env RecipeEnv) Recipe

// recipeRegistry maps a transaction type tag to its recipe implementation.
// Dispatch is closed over this table; there is no open-ended dynamic lookup.
var recipeRegistry = map[TransactionType]recipeConstructor{
	TypeDeposit:       func(req PostingRequest, env RecipeEnv) Recipe { return &depositRecipe{req: req, env: env} },
	TypeWithdrawal:    func(req PostingRequest, env RecipeEnv) Recipe { return &withdrawalRecipe{req: req, env: env} },
	TypeTransfer:      func(req PostingRequest, env RecipeEnv) Recipe { return &transferRecipe{req: req, env: env} },
	TypeCheckCashing:  func(req PostingRequest, env RecipeEnv) Recipe { return &checkCashingRecipe{req: req, env: env} },
	TypeDraft:         func(req PostingRequest, env RecipeEnv) Recipe { return &draftRecipe{req: req, env: env} },
	TypeVaultTransfer: func(req PostingRequest, env RecipeEnv) Recipe { return &vaultTransferRecipe{req: req, env: env} },
	TypeMiscReceipt:   func(req PostingRequest, env RecipeEnv) Recipe { return &miscReceiptRecipe{req: req, env: env} },
}

// RecipeFor returns the recipe for a transaction type, or false for types
// without a caller-facing recipe (reversal, session close variance).
func RecipeFor(req PostingRequest, env RecipeEnv) (Recipe, bool) {
	ctor, ok := recipeRegistry[req.TransactionType]
	if !ok {
		return nil, false
	}
	return ctor(req, env), true
}

// cashReference picks the drawer reference for a request: the caller-supplied
// cash reference when present, otherwise the teller's own drawer.
func cashReference(req PostingRequest, env RecipeEnv) string {
	if req.CashAccountReference != "" {
		return req.CashAccountReference
	}
	return env.DrawerCashReference
}

func debit(reference string, amountCents int64) Entry {
	return Entry{Side: ledger.Debit, AccountReference: reference, AmountCents: amountCents}
}

func credit(reference string, amountCents int64) Entry {
	return Entry{Side: ledger.Credit, AccountReference: reference, AmountCents: amountCents}
}

// appendNonZero appends an entry only when its amount is strictly positive;
// zero-amount legs are never created.
func appendNonZero(entries []Entry, e Entry) []Entry {
	if e.AmountCents <= 0 {
		return entries
	}
	return append(entries, e)
}

// SumSides totals the debit and credit amounts of an entry list.
func SumSides(entries []Entry) (debits, credits int64) {
	for _, e := range entries {
		switch e.Side {
		case ledger.Debit:
			debits += e.AmountCents
		case ledger.Credit:
			credits += e.AmountCents
		}
	}
	return debits, credits
}

func checkItemsMetadata(items []CheckItem) []map[string]any {
	if len(items) == 0 {
		return nil
	}
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, map[string]any{
			"item_id":      item.ItemID,
			"amount_cents": item.AmountCents,
		})
	}
	return out
}
