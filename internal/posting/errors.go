package posting

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError carries the workflow validator's field errors, or a single
// message when a recipe rejected the request. Nothing is persisted when one is
// returned.
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages, "; ")
}

func newValidationError(messages ...string) *ValidationError {
	return &ValidationError{Messages: messages}
}

// ComplianceBlockedError is returned when an advisory blocks the posting.
type ComplianceBlockedError struct {
	AdvisoryID string
	Title      string
	Severity   string
}

func (e *ComplianceBlockedError) Error() string {
	if e.Title != "" {
		return fmt.Sprintf("posting blocked by %s advisory: %s", e.Severity, e.Title)
	}
	return fmt.Sprintf("posting blocked by %s advisory", e.Severity)
}

// ErrApprovalRequired is returned when the amount crosses the supervisor
// threshold and no approval token accompanied the request.
var ErrApprovalRequired = errors.New("supervisor approval required")

// ApprovalInvalidError is returned when a supplied approval token fails
// verification. Distinct from ErrApprovalRequired so callers can tell a
// missing token from a bad one.
type ApprovalInvalidError struct {
	Reason string
}

func (e *ApprovalInvalidError) Error() string {
	return "approval token rejected: " + e.Reason
}

// ErrDuplicateRequest surfaces the request_id uniqueness violation at commit
// time. The caller must resolve by querying the existing posting, not by
// retrying under a new request_id.
var ErrDuplicateRequest = errors.New("request_id already submitted")

// ErrNotReversible is returned when a transaction cannot be reversed, either
// because of its type or because it has already been reversed.
var ErrNotReversible = errors.New("teller transaction is not reversible")

// ErrTransactionNotFound is returned by stores when no teller transaction
// matches the given id.
var ErrTransactionNotFound = errors.New("teller transaction not found")

// unbalancedBatchError is a programming invariant violation, not a user-facing
// validation failure: recipes must never emit an unbalanced leg set.
type unbalancedBatchError struct {
	Debits  int64
	Credits int64
}

func (e *unbalancedBatchError) Error() string {
	return fmt.Sprintf("unbalanced posting batch: debits=%d credits=%d", e.Debits, e.Credits)
}
