package posting

import "github.com/example/branch-teller/internal/ledger"

// TransactionType tags the recipe used to derive ledger legs.
type TransactionType string

const (
	TypeDeposit       TransactionType = "deposit"
	TypeWithdrawal    TransactionType = "withdrawal"
	TypeTransfer      TransactionType = "transfer"
	TypeCheckCashing  TransactionType = "check_cashing"
	TypeDraft         TransactionType = "draft"
	TypeVaultTransfer TransactionType = "vault_transfer"
	TypeMiscReceipt   TransactionType = "misc_receipt"

	// TypeReversal is server-generated; callers cannot submit it.
	TypeReversal TransactionType = "reversal"

	// TypeSessionCloseVariance is posted by drawer close-out, never reversible.
	TypeSessionCloseVariance TransactionType = "session_close_variance"
)

// VaultDirection selects the source/destination pair for a vault transfer.
type VaultDirection string

const (
	DrawerToVault VaultDirection = "drawer_to_vault"
	VaultToDrawer VaultDirection = "vault_to_drawer"
	VaultToVault  VaultDirection = "vault_to_vault"
)

// Entry is one normalized ledger leg before persistence.
type Entry struct {
	Side             ledger.Side `json:"side"`
	AccountReference string      `json:"account_reference"`
	AmountCents      int64       `json:"amount_cents"`
}

// CheckItem is a single tendered check.
type CheckItem struct {
	ItemID      string `json:"item_id" validate:"required"`
	AmountCents int64  `json:"amount_cents" validate:"gt=0"`
}

// PostingRequest is the normalized in-memory posting request. It is never
// persisted; RequestID is the idempotency boundary at the storage layer.
type PostingRequest struct {
	RequestID                    string          `json:"request_id" validate:"required"`
	TransactionType              TransactionType `json:"transaction_type" validate:"required"`
	AmountCents                  int64           `json:"amount_cents" validate:"gt=0"`
	Currency                     string          `json:"currency" validate:"required,len=3"`
	PrimaryAccountReference      string          `json:"primary_account_reference"`
	CounterpartyAccountReference string          `json:"counterparty_account_reference"`
	CashAccountReference         string          `json:"cash_account_reference"`

	// Tender detail shared by deposit, draft, and misc receipt.
	CashCents  int64       `json:"cash_cents" validate:"gte=0"`
	CheckItems []CheckItem `json:"check_items" validate:"dive"`

	FeeCents      int64 `json:"fee_cents" validate:"gte=0"`
	CashBackCents int64 `json:"cash_back_cents" validate:"gte=0"`

	// Check cashing.
	CheckAmountCents           int64  `json:"check_amount_cents" validate:"gte=0"`
	SettlementAccountReference string `json:"settlement_account_reference"`

	// Bank draft.
	DraftAmountCents   int64  `json:"draft_amount_cents" validate:"gte=0"`
	DraftPayee         string `json:"draft_payee"`
	DraftInstrumentID  string `json:"draft_instrument_id"`
	LiabilityReference string `json:"liability_reference"`
	FromAccountCents   int64  `json:"from_account_cents" validate:"gte=0"`

	// Vault transfer.
	VaultDirection      VaultDirection `json:"vault_transfer_direction"`
	VaultReference      string         `json:"vault_reference"`
	SourceCashReference string         `json:"source_cash_reference"`
	TargetCashReference string         `json:"target_cash_reference"`

	// Misc receipt.
	IncomeAccountReference string `json:"income_account_reference"`
	ReceiptDescription     string `json:"receipt_description"`

	// Explicit caller-supplied override; recipes sanitize rather than trust it.
	Entries []Entry `json:"entries,omitempty"`

	ApprovalToken           string   `json:"approval_token,omitempty"`
	AcknowledgedAdvisoryIDs []string `json:"acknowledged_advisory_ids,omitempty"`
	PartyID                 string   `json:"party_id,omitempty"`
}

// Actor is the authenticated request context threaded explicitly into the
// engine. It is supplied by the upstream session collaborator, never pulled
// from ambient state.
type Actor struct {
	UserID          string
	BranchID        string
	WorkstationID   string
	TellerSessionID string

	// DrawerCashReference is the teller's own drawer, e.g. "cash:DRW-104".
	DrawerCashReference string
}

// CheckTotal sums the tendered check items.
func (r *PostingRequest) CheckTotal() int64 {
	var total int64
	for _, item := range r.CheckItems {
		total += item.AmountCents
	}
	return total
}
