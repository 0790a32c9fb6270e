package posting

import (
	"strings"

	"github.com/example/branch-teller/internal/ledger"
)

// CashEffect is the derived physical-drawer effect of a leg set. Amount is
// always strictly positive; a zero net means no movement at all.
type CashEffect struct {
	Direction    string
	AmountCents  int64
	CashLocation string
}

// DeriveCashEffect nets the cash-prefixed legs of a batch into at most one
// drawer movement. Cash received by the teller shows up as debit legs
// (deposits, draft tender), cash paid out as credit legs (withdrawals, check
// cashing). Vault transfers only count legs touching the teller's own drawer:
// a vault-to-vault move never changes this teller's cash position.
func DeriveCashEffect(transactionType TransactionType, entries []Entry, drawerRef string) *CashEffect {
	var netCents int64
	location := drawerRef

	for _, e := range entries {
		if !ledger.IsCashReference(e.AccountReference) {
			continue
		}
		if transactionType == TypeVaultTransfer && e.AccountReference != drawerRef {
			continue
		}
		if e.AccountReference != "" && transactionType != TypeVaultTransfer {
			location = e.AccountReference
		}
		switch e.Side {
		case ledger.Debit:
			netCents += e.AmountCents
		case ledger.Credit:
			netCents -= e.AmountCents
		}
	}

	switch {
	case netCents > 0:
		return &CashEffect{Direction: ledger.CashIn, AmountCents: netCents, CashLocation: location}
	case netCents < 0:
		return &CashEffect{Direction: ledger.CashOut, AmountCents: -netCents, CashLocation: location}
	}
	return nil
}

// TransactionDescription is the ledger-facing label stamped on derived
// account transactions.
func TransactionDescription(transactionType TransactionType) string {
	return "teller " + strings.ReplaceAll(string(transactionType), "_", " ")
}
