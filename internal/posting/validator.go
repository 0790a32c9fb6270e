package posting

import (
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
)

var currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

// WorkflowValidator runs schema and shape checks on a raw request before any
// money or compliance logic. It is pure and stateless; a non-empty result
// aborts the pipeline with nothing persisted.
type WorkflowValidator struct {
	structValidator *validator.Validate
}

func NewWorkflowValidator() *WorkflowValidator {
	return &WorkflowValidator{structValidator: validator.New()}
}

// fieldRule names a required field and how to read it off the request.
type fieldRule struct {
	name    string
	present func(req PostingRequest) bool
}

func requiredString(name string, get func(PostingRequest) string) fieldRule {
	return fieldRule{name: name, present: func(req PostingRequest) bool { return get(req) != "" }}
}

// typeSchema lists the required fields per transaction type.
var typeSchema = map[TransactionType][]fieldRule{
	TypeDeposit: {
		requiredString("primary_account_reference", func(r PostingRequest) string { return r.PrimaryAccountReference }),
	},
	TypeWithdrawal: {
		requiredString("primary_account_reference", func(r PostingRequest) string { return r.PrimaryAccountReference }),
	},
	TypeTransfer: {
		requiredString("primary_account_reference", func(r PostingRequest) string { return r.PrimaryAccountReference }),
		requiredString("counterparty_account_reference", func(r PostingRequest) string { return r.CounterpartyAccountReference }),
	},
	TypeCheckCashing: {
		requiredString("settlement_account_reference", func(r PostingRequest) string { return r.SettlementAccountReference }),
		{name: "check_amount_cents", present: func(r PostingRequest) bool { return r.CheckAmountCents > 0 }},
	},
	TypeDraft: {
		requiredString("draft_payee", func(r PostingRequest) string { return r.DraftPayee }),
		requiredString("draft_instrument_id", func(r PostingRequest) string { return r.DraftInstrumentID }),
		{name: "draft_amount_cents", present: func(r PostingRequest) bool { return r.DraftAmountCents > 0 }},
	},
	TypeVaultTransfer: {
		{name: "vault_transfer_direction", present: func(r PostingRequest) bool {
			switch r.VaultDirection {
			case DrawerToVault, VaultToDrawer, VaultToVault:
				return true
			}
			return false
		}},
	},
	TypeMiscReceipt: {
		requiredString("receipt_description", func(r PostingRequest) string { return r.ReceiptDescription }),
	},
}

// Errors returns every schema violation found, or nil when the request shape
// is acceptable. It never touches the ledger.
func (v *WorkflowValidator) Errors(req PostingRequest) []string {
	var errs []string

	if err := v.structValidator.Struct(req); err != nil {
		if invalid, ok := err.(*validator.InvalidValidationError); ok {
			return []string{invalid.Error()}
		}
		for _, fe := range err.(validator.ValidationErrors) {
			errs = append(errs, fmt.Sprintf("field %s failed %s check", fe.Field(), fe.Tag()))
		}
	}

	if req.Currency != "" && !currencyPattern.MatchString(req.Currency) {
		errs = append(errs, "currency must be a 3-letter uppercase code")
	}

	rules, known := typeSchema[req.TransactionType]
	if !known {
		if req.TransactionType != "" {
			errs = append(errs, fmt.Sprintf("unsupported transaction type %q", req.TransactionType))
		}
		return errs
	}

	for _, rule := range rules {
		if !rule.present(req) {
			errs = append(errs, fmt.Sprintf("%s is required for %s", rule.name, req.TransactionType))
		}
	}

	return errs
}
