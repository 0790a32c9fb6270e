package posting

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/example/branch-teller/internal/ledger"
	"github.com/example/branch-teller/pkg/audit"
)

// Store is the persistence boundary the engine commits through.
type Store interface {
	CommitPosting(ctx context.Context, in *ledger.CommitInput) (*ledger.CommitResult, error)
	PostingByTransactionID(ctx context.Context, id string) (*ledger.PostingRecord, error)
	PostingByRequestID(ctx context.Context, requestID string) (*ledger.PostingRecord, error)
}

// AdvisoryCheck is the question the engine asks the compliance gate before
// committing anything.
type AdvisoryCheck struct {
	AccountReference string
	PartyID          string
	UserID           string
	AcknowledgedIDs  []string
}

// AdvisoryVerdict is the gate's answer. When Allowed is false the advisory
// fields identify the blocking advisory.
type AdvisoryVerdict struct {
	Allowed    bool
	AdvisoryID string
	Title      string
	Severity   string
}

// AdvisoryGate decides whether a posting against an account or party may
// proceed. An error from the gate blocks the posting; the engine never fails
// open.
type AdvisoryGate interface {
	CheckPostingAllowed(ctx context.Context, check AdvisoryCheck) (AdvisoryVerdict, error)
}

// ApprovalGate decides when supervisor approval is needed and verifies the
// presented token. Verify returns the approving supervisor's user ID.
type ApprovalGate interface {
	Required(amountCents int64) bool
	Verify(token, requestID string) (string, error)
}

// Auditor receives one append-only record per committed posting.
type Auditor interface {
	Append(payload string) *audit.Entry
}

// Receipt is returned to the caller after a successful commit.
type Receipt struct {
	TellerTransactionID string
	PostingBatchID      string
	RequestID           string
	TransactionType     TransactionType
	AmountCents         int64
	ApprovedByUserID    string
}

// EngineDeps wires the engine's collaborators.
type EngineDeps struct {
	Store      Store
	Advisories AdvisoryGate
	Approvals  ApprovalGate
	Auditor    Auditor
	Logger     *slog.Logger

	FeeIncomeReference      string
	MiscIncomeReference     string
	DraftLiabilityReference string
}

// Engine runs the posting pipeline: validate, gate, expand to balanced
// entries, commit. Nothing is persisted until every gate has passed.
type Engine struct {
	store      Store
	advisories AdvisoryGate
	approvals  ApprovalGate
	auditor    Auditor
	validator  *WorkflowValidator
	logger     *slog.Logger
	env        RecipeEnv
}

func NewEngine(deps EngineDeps) *Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		store:      deps.Store,
		advisories: deps.Advisories,
		approvals:  deps.Approvals,
		auditor:    deps.Auditor,
		validator:  NewWorkflowValidator(),
		logger:     logger,
		env: RecipeEnv{
			FeeIncomeReference:      deps.FeeIncomeReference,
			MiscIncomeReference:     deps.MiscIncomeReference,
			DraftLiabilityReference: deps.DraftLiabilityReference,
		},
	}
}

// Post runs a posting request through the full pipeline and commits it. The
// pipeline is strictly ordered: structural validation, then the compliance
// gate, then the approval gate, then recipe expansion and the balance check,
// then one atomic commit.
func (e *Engine) Post(ctx context.Context, req *PostingRequest, actor Actor) (*Receipt, error) {
	if msgs := e.validator.Errors(*req); len(msgs) > 0 {
		return nil, newValidationError(msgs...)
	}

	if err := e.checkAdvisories(ctx, req, actor); err != nil {
		return nil, err
	}

	approvedBy, err := e.checkApproval(req)
	if err != nil {
		return nil, err
	}

	env := e.env
	env.DrawerCashReference = actor.DrawerCashReference

	recipe, ok := RecipeFor(*req, env)
	if !ok {
		return nil, newValidationError(fmt.Sprintf("unsupported transaction type %q", req.TransactionType))
	}
	entries := recipe.NormalizedEntries()
	if len(entries) == 0 {
		return nil, newValidationError(fmt.Sprintf("%s request does not produce a postable batch", req.TransactionType))
	}

	if err := assertBalanced(entries); err != nil {
		return nil, err
	}

	input := &ledger.CommitInput{
		RequestID:        req.RequestID,
		TransactionType:  string(req.TransactionType),
		Description:      TransactionDescription(req.TransactionType),
		AmountCents:      req.AmountCents,
		Currency:         req.Currency,
		Legs:             toLegInputs(entries),
		Metadata:         recipe.PostingMetadata(),
		BranchID:         actor.BranchID,
		WorkstationID:    actor.WorkstationID,
		TellerSessionID:  actor.TellerSessionID,
		CreatedByUserID:  actor.UserID,
		ApprovedByUserID: approvedBy,
	}
	if effect := DeriveCashEffect(req.TransactionType, entries, actor.DrawerCashReference); effect != nil {
		input.CashMovement = &ledger.CashMovementInput{
			Direction:    effect.Direction,
			AmountCents:  effect.AmountCents,
			CashLocation: effect.CashLocation,
		}
	}

	result, err := e.store.CommitPosting(ctx, input)
	if err != nil {
		if errors.Is(err, ledger.ErrDuplicateRequestID) {
			return nil, ErrDuplicateRequest
		}
		return nil, fmt.Errorf("failed to post %s: %w", req.TransactionType, err)
	}

	e.audit(fmt.Sprintf("posting_committed request_id=%s type=%s batch=%s amount_cents=%d teller=%s",
		req.RequestID, req.TransactionType, result.PostingBatchID, req.AmountCents, actor.UserID))
	e.logger.Info("posting committed",
		"request_id", req.RequestID,
		"transaction_type", req.TransactionType,
		"posting_batch_id", result.PostingBatchID,
		"amount_cents", req.AmountCents,
	)

	return &Receipt{
		TellerTransactionID: result.TellerTransactionID,
		PostingBatchID:      result.PostingBatchID,
		RequestID:           req.RequestID,
		TransactionType:     req.TransactionType,
		AmountCents:         req.AmountCents,
		ApprovedByUserID:    approvedBy,
	}, nil
}

// Reverse posts a mirror batch for a committed transaction and marks the
// original reversed, atomically. Reversals and session-close variances cannot
// themselves be reversed.
func (e *Engine) Reverse(ctx context.Context, tellerTransactionID string, actor Actor) (*Receipt, error) {
	rec, err := e.store.PostingByTransactionID(ctx, tellerTransactionID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, fmt.Errorf("failed to load transaction %s: %w", tellerTransactionID, err)
	}
	if !Reversible(&rec.Transaction) {
		return nil, ErrNotReversible
	}

	entries := MirrorEntries(rec.Legs)
	if err := assertBalanced(entries); err != nil {
		return nil, err
	}

	requestID := uuid.NewString()
	input := &ledger.CommitInput{
		RequestID:       requestID,
		TransactionType: string(TypeReversal),
		Description:     TransactionDescription(TypeReversal),
		AmountCents:     rec.Transaction.AmountCents,
		Currency:        rec.Transaction.Currency,
		Legs:            toLegInputs(entries),
		Metadata: map[string]any{
			"reversal_of_request_id":    rec.Transaction.RequestID,
			"original_transaction_type": rec.Transaction.TransactionType,
		},
		BranchID:                actor.BranchID,
		WorkstationID:           actor.WorkstationID,
		TellerSessionID:         actor.TellerSessionID,
		CreatedByUserID:         actor.UserID,
		ReversalOfTransactionID: rec.Transaction.ID,
		ReversalOfBatchID:       rec.Batch.ID,
	}
	originalType := TransactionType(rec.Transaction.TransactionType)
	if effect := DeriveCashEffect(originalType, entries, actor.DrawerCashReference); effect != nil {
		input.CashMovement = &ledger.CashMovementInput{
			Direction:    effect.Direction,
			AmountCents:  effect.AmountCents,
			CashLocation: effect.CashLocation,
		}
	}

	result, err := e.store.CommitPosting(ctx, input)
	if err != nil {
		if errors.Is(err, ledger.ErrAlreadyReversed) {
			return nil, ErrNotReversible
		}
		return nil, fmt.Errorf("failed to reverse transaction %s: %w", tellerTransactionID, err)
	}

	e.audit(fmt.Sprintf("posting_reversed original=%s reversal=%s batch=%s teller=%s",
		tellerTransactionID, result.TellerTransactionID, result.PostingBatchID, actor.UserID))
	e.logger.Info("posting reversed",
		"original_teller_transaction_id", tellerTransactionID,
		"reversal_teller_transaction_id", result.TellerTransactionID,
		"posting_batch_id", result.PostingBatchID,
	)

	return &Receipt{
		TellerTransactionID: result.TellerTransactionID,
		PostingBatchID:      result.PostingBatchID,
		RequestID:           requestID,
		TransactionType:     TypeReversal,
		AmountCents:         rec.Transaction.AmountCents,
	}, nil
}

// Lookup loads a committed posting by its teller transaction ID.
func (e *Engine) Lookup(ctx context.Context, tellerTransactionID string) (*ledger.PostingRecord, error) {
	rec, err := e.store.PostingByTransactionID(ctx, tellerTransactionID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return rec, nil
}

// LookupByRequestID resolves a duplicate-submission conflict to the posting
// that won.
func (e *Engine) LookupByRequestID(ctx context.Context, requestID string) (*ledger.PostingRecord, error) {
	rec, err := e.store.PostingByRequestID(ctx, requestID)
	if err != nil {
		if errors.Is(err, ledger.ErrNotFound) {
			return nil, ErrTransactionNotFound
		}
		return nil, err
	}
	return rec, nil
}

func (e *Engine) checkAdvisories(ctx context.Context, req *PostingRequest, actor Actor) error {
	if e.advisories == nil {
		return nil
	}
	if req.PrimaryAccountReference == "" && req.PartyID == "" {
		return nil
	}

	verdict, err := e.advisories.CheckPostingAllowed(ctx, AdvisoryCheck{
		AccountReference: req.PrimaryAccountReference,
		PartyID:          req.PartyID,
		UserID:           actor.UserID,
		AcknowledgedIDs:  req.AcknowledgedAdvisoryIDs,
	})
	if err != nil {
		e.logger.Error("advisory check failed, blocking posting",
			"request_id", req.RequestID, "error", err)
		return &ComplianceBlockedError{
			Title:    "compliance advisories unavailable",
			Severity: "restriction",
		}
	}
	if !verdict.Allowed {
		return &ComplianceBlockedError{
			AdvisoryID: verdict.AdvisoryID,
			Title:      verdict.Title,
			Severity:   verdict.Severity,
		}
	}
	return nil
}

func (e *Engine) checkApproval(req *PostingRequest) (string, error) {
	if e.approvals == nil || !e.approvals.Required(req.AmountCents) {
		return "", nil
	}
	if req.ApprovalToken == "" {
		return "", ErrApprovalRequired
	}
	supervisorID, err := e.approvals.Verify(req.ApprovalToken, req.RequestID)
	if err != nil {
		return "", &ApprovalInvalidError{Reason: err.Error()}
	}
	return supervisorID, nil
}

func (e *Engine) audit(payload string) {
	if e.auditor != nil {
		e.auditor.Append(payload)
	}
}

// assertBalanced enforces the ledger invariant on an expanded batch: at least
// one leg, every leg strictly positive, debits equal to credits.
func assertBalanced(entries []Entry) error {
	if len(entries) == 0 {
		return &unbalancedBatchError{}
	}
	for _, entry := range entries {
		if entry.AmountCents <= 0 {
			return &unbalancedBatchError{}
		}
	}
	debits, credits := SumSides(entries)
	if debits != credits {
		return &unbalancedBatchError{Debits: debits, Credits: credits}
	}
	return nil
}

func toLegInputs(entries []Entry) []ledger.LegInput {
	legs := make([]ledger.LegInput, len(entries))
	for i, entry := range entries {
		legs[i] = ledger.LegInput{
			Side:             entry.Side,
			AccountReference: entry.AccountReference,
			AmountCents:      entry.AmountCents,
		}
	}
	return legs
}
