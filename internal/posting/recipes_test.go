package posting

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/branch-teller/internal/ledger"
)

var testEnv = RecipeEnv{
	DrawerCashReference:     "cash:DRW-104",
	FeeIncomeReference:      "income:fees",
	MiscIncomeReference:     "income:misc",
	DraftLiabilityReference: "official_check:outstanding",
}

func entriesFor(t *testing.T, req PostingRequest) []Entry {
	t.Helper()
	recipe, ok := RecipeFor(req, testEnv)
	require.True(t, ok, "no recipe for %s", req.TransactionType)
	return recipe.NormalizedEntries()
}

func assertBalancedEntries(t *testing.T, entries []Entry) {
	t.Helper()
	require.NotEmpty(t, entries)
	for i, e := range entries {
		assert.Greater(t, e.AmountCents, int64(0), "leg %d must be strictly positive", i)
	}
	debits, credits := SumSides(entries)
	assert.Equal(t, debits, credits, "batch must balance")
}

func TestDepositCashOnly(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:         TypeDeposit,
		AmountCents:             10000,
		CashCents:               10000,
		PrimaryAccountReference: "ACC1",
	})

	require.Len(t, entries, 2)
	assert.Equal(t, debit("cash:DRW-104", 10000), entries[0])
	assert.Equal(t, credit("ACC1", 10000), entries[1])
	assertBalancedEntries(t, entries)
}

func TestDepositCashAndChecks(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:         TypeDeposit,
		AmountCents:             17500,
		CashCents:               5000,
		CheckItems:              []CheckItem{{ItemID: "chk-1", AmountCents: 7500}, {ItemID: "chk-2", AmountCents: 5000}},
		PrimaryAccountReference: "ACC1",
	})

	require.Len(t, entries, 4)
	assert.Equal(t, debit("cash:DRW-104", 5000), entries[0])
	assert.Equal(t, debit("check:chk-1", 7500), entries[1])
	assert.Equal(t, debit("check:chk-2", 5000), entries[2])
	assert.Equal(t, credit("ACC1", 17500), entries[3])
	assertBalancedEntries(t, entries)
}

func TestDepositWithCashBack(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:         TypeDeposit,
		AmountCents:             10000,
		CheckItems:              []CheckItem{{ItemID: "chk-1", AmountCents: 10000}},
		CashBackCents:           2000,
		PrimaryAccountReference: "ACC1",
	})

	require.Len(t, entries, 3)
	assert.Equal(t, debit("check:chk-1", 10000), entries[0])
	assert.Equal(t, credit("ACC1", 8000), entries[1])
	assert.Equal(t, credit("cash:DRW-104", 2000), entries[2])
	assertBalancedEntries(t, entries)
}

func TestDepositRejectsUnreconciledTender(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:         TypeDeposit,
		AmountCents:             10000,
		CashCents:               9000,
		PrimaryAccountReference: "ACC1",
	})
	assert.Empty(t, entries, "cash plus checks must equal the canonical amount")

	entries = entriesFor(t, PostingRequest{
		TransactionType:         TypeDeposit,
		AmountCents:             10000,
		CashCents:               10000,
		CashBackCents:           10001,
		PrimaryAccountReference: "ACC1",
	})
	assert.Empty(t, entries, "cash back is bounded by the deposit total")
}

func TestDepositSanitizesExplicitEntries(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:         TypeDeposit,
		AmountCents:             10000,
		PrimaryAccountReference: "ACC1",
		Entries: []Entry{
			{Side: ledger.Debit, AccountReference: "ACC-ATTACKER", AmountCents: 6000},
			{Side: ledger.Debit, AccountReference: "check:chk-1", AmountCents: 4000},
			{Side: ledger.Credit, AccountReference: "ACC1", AmountCents: 10000},
			{Side: ledger.Credit, AccountReference: "ACC1", AmountCents: 0},
		},
	})

	require.Len(t, entries, 3)
	assert.Equal(t, "cash:DRW-104", entries[0].AccountReference,
		"non-check debits are rewritten to the teller's drawer")
	assert.Equal(t, "check:chk-1", entries[1].AccountReference)
	assertBalancedEntries(t, entries)
}

func TestDepositRejectsUnbalancedExplicitEntries(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:         TypeDeposit,
		AmountCents:             10000,
		PrimaryAccountReference: "ACC1",
		Entries: []Entry{
			{Side: ledger.Debit, AccountReference: "check:chk-1", AmountCents: 4000},
			{Side: ledger.Credit, AccountReference: "ACC1", AmountCents: 10000},
		},
	})
	assert.Empty(t, entries, "debits and credits must match")

	entries = entriesFor(t, PostingRequest{
		TransactionType:         TypeDeposit,
		AmountCents:             10000,
		PrimaryAccountReference: "ACC1",
		Entries: []Entry{
			{Side: ledger.Debit, AccountReference: "check:chk-1", AmountCents: 4000},
			{Side: ledger.Credit, AccountReference: "ACC1", AmountCents: 4000},
		},
	})
	assert.Empty(t, entries, "explicit entries must reconcile with the stated amount")
}

func TestWithdrawal(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:         TypeWithdrawal,
		AmountCents:             7550,
		PrimaryAccountReference: "ACC1",
	})

	require.Len(t, entries, 2)
	assert.Equal(t, debit("ACC1", 7550), entries[0])
	assert.Equal(t, credit("cash:DRW-104", 7550), entries[1])
	assertBalancedEntries(t, entries)
}

func TestWithdrawalIgnoresCallerEntries(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:         TypeWithdrawal,
		AmountCents:             7550,
		PrimaryAccountReference: "ACC1",
		Entries:                 []Entry{{Side: ledger.Credit, AccountReference: "ACC-ATTACKER", AmountCents: 7550}},
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "cash:DRW-104", entries[1].AccountReference)
}

func TestTransferWithFee(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:              TypeTransfer,
		AmountCents:                  50000,
		FeeCents:                     250,
		PrimaryAccountReference:      "ACC1",
		CounterpartyAccountReference: "ACC2",
	})

	require.Len(t, entries, 3)
	assert.Equal(t, debit("ACC1", 50000), entries[0])
	assert.Equal(t, credit("ACC2", 49750), entries[1])
	assert.Equal(t, credit("income:fees", 250), entries[2])
	assertBalancedEntries(t, entries)
}

func TestTransferRejects(t *testing.T) {
	base := PostingRequest{
		TransactionType:              TypeTransfer,
		AmountCents:                  50000,
		PrimaryAccountReference:      "ACC1",
		CounterpartyAccountReference: "ACC2",
	}

	same := base
	same.CounterpartyAccountReference = "ACC1"
	assert.Empty(t, entriesFor(t, same), "transfer to self")

	feeEatsAll := base
	feeEatsAll.FeeCents = 50000
	assert.Empty(t, entriesFor(t, feeEatsAll), "fee must leave something to transfer")
}

func TestCheckCashing(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:            TypeCheckCashing,
		AmountCents:                19500,
		CheckAmountCents:           20000,
		FeeCents:                   500,
		SettlementAccountReference: "X",
	})

	require.Len(t, entries, 3)
	assert.Equal(t, debit("X", 20000), entries[0])
	assert.Equal(t, credit("cash:DRW-104", 19500), entries[1])
	assert.Equal(t, credit("income:fees", 500), entries[2])
	assertBalancedEntries(t, entries)
}

func TestCheckCashingRejectsAmountMismatch(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:            TypeCheckCashing,
		AmountCents:                20000,
		CheckAmountCents:           20000,
		FeeCents:                   500,
		SettlementAccountReference: "X",
	})
	assert.Empty(t, entries, "amount must equal the net payout exactly")

	entries = entriesFor(t, PostingRequest{
		TransactionType:            TypeCheckCashing,
		AmountCents:                0,
		CheckAmountCents:           500,
		FeeCents:                   500,
		SettlementAccountReference: "X",
	})
	assert.Empty(t, entries, "net payout must be positive")
}

func TestDraftMixedTender(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:         TypeDraft,
		AmountCents:             100000,
		DraftAmountCents:        100000,
		FeeCents:                800,
		CashCents:               30000,
		CheckItems:              []CheckItem{{ItemID: "chk-9", AmountCents: 20800}},
		FromAccountCents:        50000,
		PrimaryAccountReference: "ACC1",
		DraftPayee:              "County Tax Collector",
		DraftInstrumentID:       "DFT-2210",
	})

	require.Len(t, entries, 5)
	assert.Equal(t, debit("cash:DRW-104", 30000), entries[0])
	assert.Equal(t, debit("check:chk-9", 20800), entries[1])
	assert.Equal(t, debit("ACC1", 50000), entries[2])
	assert.Equal(t, credit("official_check:outstanding", 100000), entries[3])
	assert.Equal(t, credit("income:fees", 800), entries[4])
	assertBalancedEntries(t, entries)
}

func TestDraftRejectsUnreconciledTender(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:   TypeDraft,
		AmountCents:       100000,
		DraftAmountCents:  100000,
		FeeCents:          800,
		CashCents:         100000,
		DraftPayee:        "County Tax Collector",
		DraftInstrumentID: "DFT-2210",
	})
	assert.Empty(t, entries, "tendered must equal draft amount plus fee exactly")
}

func TestVaultTransferDirections(t *testing.T) {
	tests := []struct {
		name       string
		req        PostingRequest
		wantDebit  string
		wantCredit string
	}{
		{
			name: "drawer to vault",
			req: PostingRequest{
				TransactionType: TypeVaultTransfer, AmountCents: 200000,
				VaultDirection: DrawerToVault, VaultReference: "cash:VAULT-1",
			},
			wantDebit:  "cash:VAULT-1",
			wantCredit: "cash:DRW-104",
		},
		{
			name: "vault to drawer",
			req: PostingRequest{
				TransactionType: TypeVaultTransfer, AmountCents: 200000,
				VaultDirection: VaultToDrawer, VaultReference: "cash:VAULT-1",
			},
			wantDebit:  "cash:DRW-104",
			wantCredit: "cash:VAULT-1",
		},
		{
			name: "vault to vault",
			req: PostingRequest{
				TransactionType: TypeVaultTransfer, AmountCents: 200000,
				VaultDirection:      VaultToVault,
				SourceCashReference: "cash:VAULT-1", TargetCashReference: "cash:VAULT-2",
			},
			wantDebit:  "cash:VAULT-2",
			wantCredit: "cash:VAULT-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := entriesFor(t, tt.req)
			require.Len(t, entries, 2)
			assert.Equal(t, debit(tt.wantDebit, 200000), entries[0])
			assert.Equal(t, credit(tt.wantCredit, 200000), entries[1])
			assertBalancedEntries(t, entries)
		})
	}
}

func TestVaultTransferRejects(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType: TypeVaultTransfer, AmountCents: 200000,
		VaultDirection:      VaultToVault,
		SourceCashReference: "cash:VAULT-1", TargetCashReference: "cash:VAULT-1",
	})
	assert.Empty(t, entries, "source and target must differ")

	entries = entriesFor(t, PostingRequest{
		TransactionType: TypeVaultTransfer, AmountCents: 200000,
		VaultDirection: DrawerToVault,
	})
	assert.Empty(t, entries, "blank endpoint")
}

func TestMiscReceipt(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:    TypeMiscReceipt,
		AmountCents:        2500,
		CashCents:          2500,
		ReceiptDescription: "safe deposit box annual fee",
	})

	require.Len(t, entries, 2)
	assert.Equal(t, debit("cash:DRW-104", 2500), entries[0])
	assert.Equal(t, credit("income:misc", 2500), entries[1])
	assertBalancedEntries(t, entries)
}

func TestMiscReceiptExplicitIncomeAccount(t *testing.T) {
	entries := entriesFor(t, PostingRequest{
		TransactionType:        TypeMiscReceipt,
		AmountCents:            2500,
		CashCents:              2500,
		IncomeAccountReference: "income:safe_deposit",
		ReceiptDescription:     "safe deposit box annual fee",
	})

	require.Len(t, entries, 2)
	assert.Equal(t, "income:safe_deposit", entries[1].AccountReference)
}

func TestRecipeForUnknownType(t *testing.T) {
	_, ok := RecipeFor(PostingRequest{TransactionType: TypeReversal}, testEnv)
	assert.False(t, ok, "reversals have no caller-facing recipe")

	_, ok = RecipeFor(PostingRequest{TransactionType: "bogus"}, testEnv)
	assert.False(t, ok)
}

func TestRecipeMetadata(t *testing.T) {
	recipe, ok := RecipeFor(PostingRequest{
		TransactionType:         TypeDeposit,
		AmountCents:             10000,
		CashCents:               5000,
		CheckItems:              []CheckItem{{ItemID: "chk-1", AmountCents: 5000}},
		CashBackCents:           1000,
		PrimaryAccountReference: "ACC1",
	}, testEnv)
	require.True(t, ok)

	md := recipe.PostingMetadata()
	assert.Equal(t, int64(5000), md["cash_cents"])
	assert.Equal(t, int64(1000), md["cash_back_cents"])
	require.Contains(t, md, "check_items")
}
