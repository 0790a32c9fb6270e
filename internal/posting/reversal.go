package posting

import (
	"github.com/example/branch-teller/internal/ledger"
)

// Teller transactions have exactly two states: posted, the initial state, and
// reversed, terminal once reversed_by_teller_transaction_id is set. The only
// transition posts a new reversal transaction whose batch mirrors the
// original legs.

// irreversibleTypes are transaction types that can never be the target of a
// reversal. A reversal of a reversal would re-post the original; back out a
// bad reversal by posting the original transaction again.
var irreversibleTypes = map[TransactionType]struct{}{
	TypeReversal:             {},
	TypeSessionCloseVariance: {},
}

// Reversible reports whether a committed teller transaction may be reversed.
func Reversible(tx *ledger.TellerTransaction) bool {
	if tx == nil {
		return false
	}
	if _, banned := irreversibleTypes[TransactionType(tx.TransactionType)]; banned {
		return false
	}
	return tx.ReversedByID == "" && tx.Status == ledger.StatusPosted
}

// MirrorEntries flips every leg's side, preserving order, reference, and
// amount. The result balances iff the input balanced.
func MirrorEntries(legs []ledger.PostingLeg) []Entry {
	entries := make([]Entry, 0, len(legs))
	for _, leg := range legs {
		side := ledger.Debit
		if leg.Side == ledger.Debit {
			side = ledger.Credit
		}
		entries = append(entries, Entry{
			Side:             side,
			AccountReference: leg.AccountReference,
			AmountCents:      leg.AmountCents,
		})
	}
	return entries
}
