package ledger

import "time"

// Account is a customer account row. References in posting legs that match an
// account_number resolve here; everything else is an internal bucket.
type Account struct {
	ID            string `json:"id"`
	AccountNumber string `json:"account_number"`
	HolderPartyID string `json:"holder_party_id"`
	Status        string `json:"status"`
	Currency      string `json:"currency"`
}

// Side of a posting leg.
type Side string

const (
	Debit  Side = "debit"
	Credit Side = "credit"
)

// TellerTransaction is one committed teller action. Rows are insert-only except
// for the reversal-link fields.
type TellerTransaction struct {
	ID               string     `json:"id"`
	TransactionType  string     `json:"transaction_type"`
	RequestID        string     `json:"request_id"`
	AmountCents      int64      `json:"amount_cents"`
	Currency         string     `json:"currency"`
	Status           string     `json:"status"`
	PostedAt         time.Time  `json:"posted_at"`
	ApprovedByUserID string     `json:"approved_by_user_id,omitempty"`
	ReversalOfID     string     `json:"reversal_of_teller_transaction_id,omitempty"`
	ReversedByID     string     `json:"reversed_by_teller_transaction_id,omitempty"`
	ReversedAt       *time.Time `json:"reversed_at,omitempty"`
	BranchID         string     `json:"branch_id"`
	WorkstationID    string     `json:"workstation_id"`
	TellerSessionID  string     `json:"teller_session_id"`
	CreatedByUserID  string     `json:"created_by_user_id"`
}

// PostingBatch is the balanced leg set for one teller transaction, 1:1.
type PostingBatch struct {
	ID                  string         `json:"id"`
	TellerTransactionID string         `json:"teller_transaction_id"`
	RequestID           string         `json:"request_id"`
	Currency            string         `json:"currency"`
	Status              string         `json:"status"`
	CommittedAt         time.Time      `json:"committed_at"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	ReversalOfBatchID   string         `json:"reversal_of_posting_batch_id,omitempty"`
}

// PostingLeg is one debit or credit line. Position is the 0-based order within
// the batch and the tie-break for duplicate references.
type PostingLeg struct {
	ID               string `json:"id"`
	PostingBatchID   string `json:"posting_batch_id"`
	Side             Side   `json:"side"`
	AccountReference string `json:"account_reference"`
	AmountCents      int64  `json:"amount_cents"`
	Position         int    `json:"position"`
}

// AccountTransaction is the per-account effect of a leg whose reference
// resolved to a persisted account. The reference is kept verbatim so the row
// stays auditable after an account renumber.
type AccountTransaction struct {
	ID                  string `json:"id"`
	PostingBatchID      string `json:"posting_batch_id"`
	AccountID           string `json:"account_id,omitempty"`
	AccountReference    string `json:"account_reference"`
	Direction           Side   `json:"direction"`
	AmountCents         int64  `json:"amount_cents"`
	RunningBalanceCents int64  `json:"running_balance_cents"`
	Description         string `json:"description"`
}

// CashMovement is the physical-drawer effect of a posting. At most one per
// teller transaction; absent when no cash leg nets out.
type CashMovement struct {
	ID                  string `json:"id"`
	TellerTransactionID string `json:"teller_transaction_id"`
	Direction           string `json:"direction"`
	AmountCents         int64  `json:"amount_cents"`
	TellerSessionID     string `json:"teller_session_id"`
	CashLocation        string `json:"cash_location"`
}

const (
	CashIn  = "in"
	CashOut = "out"
)

const (
	StatusPosted   = "posted"
	StatusReversed = "reversed"

	BatchCommitted = "committed"
)
