package api

// postingSchema is the shape gate for POST /v1/postings. It rejects unknown
// fields and coarse type errors; per-transaction-type rules live in the
// workflow validator.
const postingSchema = `{
  "type": "object",
  "additionalProperties": false,
  "required": ["request_id", "transaction_type", "amount_cents", "currency"],
  "properties": {
    "request_id": {"type": "string", "minLength": 1, "maxLength": 64},
    "transaction_type": {
      "type": "string",
      "enum": ["deposit", "withdrawal", "transfer", "check_cashing", "draft", "vault_transfer", "misc_receipt"]
    },
    "amount_cents": {"type": "integer", "exclusiveMinimum": 0},
    "currency": {"type": "string", "pattern": "^[A-Z]{3}$"},
    "primary_account_reference": {"type": "string", "maxLength": 128},
    "counterparty_account_reference": {"type": "string", "maxLength": 128},
    "cash_account_reference": {"type": "string", "maxLength": 128},
    "cash_cents": {"type": "integer", "minimum": 0},
    "check_items": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["item_id", "amount_cents"],
        "properties": {
          "item_id": {"type": "string", "minLength": 1},
          "amount_cents": {"type": "integer", "exclusiveMinimum": 0}
        }
      }
    },
    "fee_cents": {"type": "integer", "minimum": 0},
    "cash_back_cents": {"type": "integer", "minimum": 0},
    "check_amount_cents": {"type": "integer", "minimum": 0},
    "settlement_account_reference": {"type": "string", "maxLength": 128},
    "draft_amount_cents": {"type": "integer", "minimum": 0},
    "draft_payee": {"type": "string", "maxLength": 255},
    "draft_instrument_id": {"type": "string", "maxLength": 64},
    "liability_reference": {"type": "string", "maxLength": 128},
    "from_account_cents": {"type": "integer", "minimum": 0},
    "vault_transfer_direction": {
      "type": "string",
      "enum": ["drawer_to_vault", "vault_to_drawer", "vault_to_vault"]
    },
    "vault_reference": {"type": "string", "maxLength": 128},
    "source_cash_reference": {"type": "string", "maxLength": 128},
    "target_cash_reference": {"type": "string", "maxLength": 128},
    "income_account_reference": {"type": "string", "maxLength": 128},
    "receipt_description": {"type": "string", "maxLength": 255},
    "entries": {
      "type": "array",
      "items": {
        "type": "object",
        "additionalProperties": false,
        "required": ["side", "account_reference", "amount_cents"],
        "properties": {
          "side": {"type": "string", "enum": ["debit", "credit"]},
          "account_reference": {"type": "string", "minLength": 1},
          "amount_cents": {"type": "integer"}
        }
      }
    },
    "approval_token": {"type": "string"},
    "acknowledged_advisory_ids": {"type": "array", "items": {"type": "string"}},
    "party_id": {"type": "string", "maxLength": 64}
  }
}`
