package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/example/branch-teller/internal/ledger"
	"github.com/example/branch-teller/internal/posting"
	"github.com/example/branch-teller/internal/security"
)

// Actor context headers. The authentication layer in front of this API
// resolves the user and session; these headers carry the result.
const (
	headerUserID        = "X-User-ID"
	headerBranchID      = "X-Branch-ID"
	headerWorkstationID = "X-Workstation-ID"
	headerTellerSession = "X-Teller-Session"
	headerDrawerRef     = "X-Drawer-Ref"
)

type postingResponse struct {
	OK                  bool   `json:"ok"`
	PostingBatchID      string `json:"posting_batch_id"`
	TellerTransactionID string `json:"teller_transaction_id"`
	RequestID           string `json:"request_id"`
	ApprovedByUserID    string `json:"approved_by_user_id,omitempty"`
}

func actorFromRequest(r *http.Request) (posting.Actor, bool) {
	actor := posting.Actor{
		UserID:              r.Header.Get(headerUserID),
		BranchID:            r.Header.Get(headerBranchID),
		WorkstationID:       r.Header.Get(headerWorkstationID),
		TellerSessionID:     r.Header.Get(headerTellerSession),
		DrawerCashReference: r.Header.Get(headerDrawerRef),
	}
	ok := actor.UserID != "" && actor.BranchID != "" &&
		actor.WorkstationID != "" && actor.TellerSessionID != ""
	return actor, ok
}

func handleCreatePosting(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			security.WriteJSONError(w, r, http.StatusBadRequest, "missing_actor_context")
			return
		}

		var req posting.PostingRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			security.WriteJSONError(w, r, http.StatusBadRequest, "invalid_json")
			return
		}

		receipt, err := deps.Postings.Post(r.Context(), &req, actor)
		if err != nil {
			writePostingError(w, r, deps, err)
			return
		}

		writeJSON(w, r, http.StatusCreated, postingResponse{
			OK:                  true,
			PostingBatchID:      receipt.PostingBatchID,
			TellerTransactionID: receipt.TellerTransactionID,
			RequestID:           receipt.RequestID,
			ApprovedByUserID:    receipt.ApprovedByUserID,
		})
	}
}

func handleReversePosting(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actor, ok := actorFromRequest(r)
		if !ok {
			security.WriteJSONError(w, r, http.StatusBadRequest, "missing_actor_context")
			return
		}

		id := chi.URLParam(r, "tellerTransactionID")
		receipt, err := deps.Postings.Reverse(r.Context(), id, actor)
		if err != nil {
			writePostingError(w, r, deps, err)
			return
		}

		writeJSON(w, r, http.StatusCreated, postingResponse{
			OK:                  true,
			PostingBatchID:      receipt.PostingBatchID,
			TellerTransactionID: receipt.TellerTransactionID,
			RequestID:           receipt.RequestID,
		})
	}
}

func handleGetPosting(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "tellerTransactionID")
		rec, err := deps.Postings.Lookup(r.Context(), id)
		if err != nil {
			writePostingError(w, r, deps, err)
			return
		}
		writeJSON(w, r, http.StatusOK, postingRecordView(rec))
	}
}

// handleLookupByRequestID resolves a duplicate-submission conflict: the caller
// re-queries with the request_id it already holds.
func handleLookupByRequestID(deps Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID := r.URL.Query().Get("request_id")
		if requestID == "" {
			security.WriteJSONError(w, r, http.StatusBadRequest, "missing_request_id")
			return
		}

		rec, err := deps.Postings.LookupByRequestID(r.Context(), requestID)
		if err != nil {
			writePostingError(w, r, deps, err)
			return
		}
		writeJSON(w, r, http.StatusOK, postingRecordView(rec))
	}
}

type legView struct {
	Side             string `json:"side"`
	AccountReference string `json:"account_reference"`
	AmountCents      int64  `json:"amount_cents"`
	Position         int    `json:"position"`
}

type postingView struct {
	OK                  bool           `json:"ok"`
	TellerTransactionID string         `json:"teller_transaction_id"`
	PostingBatchID      string         `json:"posting_batch_id"`
	RequestID           string         `json:"request_id"`
	TransactionType     string         `json:"transaction_type"`
	AmountCents         int64          `json:"amount_cents"`
	Currency            string         `json:"currency"`
	Status              string         `json:"status"`
	Metadata            map[string]any `json:"metadata,omitempty"`
	Legs                []legView      `json:"legs"`
}

func postingRecordView(rec *ledger.PostingRecord) postingView {
	view := postingView{
		OK:                  true,
		TellerTransactionID: rec.Transaction.ID,
		PostingBatchID:      rec.Batch.ID,
		RequestID:           rec.Transaction.RequestID,
		TransactionType:     rec.Transaction.TransactionType,
		AmountCents:         rec.Transaction.AmountCents,
		Currency:            rec.Transaction.Currency,
		Status:              rec.Transaction.Status,
		Metadata:            rec.Batch.Metadata,
	}
	for _, leg := range rec.Legs {
		view.Legs = append(view.Legs, legView{
			Side:             string(leg.Side),
			AccountReference: leg.AccountReference,
			AmountCents:      leg.AmountCents,
			Position:         leg.Position,
		})
	}
	return view
}

// writePostingError maps the engine's error taxonomy onto HTTP. Gate failures
// are 403s with distinct codes so a workstation can prompt for the right
// follow-up; a duplicate request is a conflict the caller resolves by lookup.
func writePostingError(w http.ResponseWriter, r *http.Request, deps Dependencies, err error) {
	var validationErr *posting.ValidationError
	var complianceErr *posting.ComplianceBlockedError
	var approvalErr *posting.ApprovalInvalidError

	switch {
	case errors.As(err, &validationErr):
		security.WriteJSONErrorDetail(w, r, http.StatusUnprocessableEntity, "validation_error", validationErr.Error())
	case errors.As(err, &complianceErr):
		security.WriteJSONErrorDetail(w, r, http.StatusForbidden, "compliance_blocked", complianceErr.Error())
	case errors.Is(err, posting.ErrApprovalRequired):
		security.WriteJSONError(w, r, http.StatusForbidden, "approval_required")
	case errors.As(err, &approvalErr):
		security.WriteJSONErrorDetail(w, r, http.StatusForbidden, "approval_invalid", approvalErr.Reason)
	case errors.Is(err, posting.ErrDuplicateRequest):
		security.WriteJSONErrorDetail(w, r, http.StatusConflict, "duplicate_request",
			"already submitted; query by request_id instead of retrying")
	case errors.Is(err, posting.ErrNotReversible):
		security.WriteJSONError(w, r, http.StatusConflict, "not_reversible")
	case errors.Is(err, posting.ErrTransactionNotFound):
		security.WriteJSONError(w, r, http.StatusNotFound, "not_found")
	default:
		deps.Logger.Error("posting failed", "error", err, "path", r.URL.Path)
		security.WriteJSONError(w, r, http.StatusInternalServerError, "internal_error")
	}
}
