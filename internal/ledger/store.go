package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrDuplicateRequestID is returned when the request_id uniqueness constraint
// rejects a commit. The prior posting is not read back; callers resolve the
// conflict by querying.
var ErrDuplicateRequestID = errors.New("request_id already committed")

// ErrAlreadyReversed is returned when a reversal commit loses the race to set
// the back-link on the original transaction.
var ErrAlreadyReversed = errors.New("teller transaction already reversed")

// ErrNotFound is returned when no posting matches the given key.
var ErrNotFound = errors.New("posting not found")

// LegInput is one leg of a batch about to be committed.
type LegInput struct {
	Side             Side
	AccountReference string
	AmountCents      int64
}

// CashMovementInput is the derived drawer effect to persist with the commit.
type CashMovementInput struct {
	Direction    string
	AmountCents  int64
	CashLocation string
}

// CommitInput carries everything the store persists atomically for one
// posting. When the reversal fields are set, the commit also links the
// original transaction inside the same database transaction.
type CommitInput struct {
	RequestID       string
	TransactionType string
	Description     string
	AmountCents     int64
	Currency        string
	Legs            []LegInput
	Metadata        map[string]any

	BranchID         string
	WorkstationID    string
	TellerSessionID  string
	CreatedByUserID  string
	ApprovedByUserID string

	CashMovement *CashMovementInput

	ReversalOfTransactionID string
	ReversalOfBatchID       string
}

// CommitResult identifies the committed rows.
type CommitResult struct {
	TellerTransactionID string
	PostingBatchID      string
}

// PostingRecord is a committed posting read back in full.
type PostingRecord struct {
	Transaction TellerTransaction
	Batch       PostingBatch
	Legs        []PostingLeg
}

// PostgresStore persists postings in PostgreSQL. The commit path is the sole
// writer boundary of the system: everything inside CommitPosting happens in
// one SERIALIZABLE transaction or not at all.
type PostgresStore struct {
	pool     *pgxpool.Pool
	resolver *Resolver
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	s := &PostgresStore{pool: pool}
	s.resolver = NewResolver(s)
	return s
}

// Resolver exposes the store-backed account reference resolver.
func (s *PostgresStore) Resolver() *Resolver {
	return s.resolver
}

// AccountByNumber implements AccountLookup.
func (s *PostgresStore) AccountByNumber(ctx context.Context, accountNumber string) (*Account, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var account Account
	err := s.pool.QueryRow(queryCtx, `
		SELECT id, account_number, holder_party_id, status, currency
		FROM accounts
		WHERE account_number = $1
	`, accountNumber).Scan(
		&account.ID, &account.AccountNumber, &account.HolderPartyID,
		&account.Status, &account.Currency,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to look up account %s: %w", accountNumber, err)
	}

	return &account, nil
}

// CommitPosting inserts the teller transaction, its batch, legs in position
// order, derived account transactions, and the cash movement, all in one
// database transaction. Serialization failures are retried a bounded number
// of times; a request_id collision maps to ErrDuplicateRequestID.
func (s *PostgresStore) CommitPosting(ctx context.Context, in *CommitInput) (*CommitResult, error) {
	const maxRetries = 3

	var result *CommitResult
	for attempt := 0; attempt < maxRetries; attempt++ {
		var err error
		result, err = s.commitOnce(ctx, in)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case "40001":
					if attempt == maxRetries-1 {
						return nil, fmt.Errorf("failed to commit posting after %d retries: %w", maxRetries, err)
					}
					time.Sleep(time.Duration(attempt+1) * 10 * time.Millisecond)
					continue
				case "23505":
					return nil, ErrDuplicateRequestID
				}
			}
			return nil, fmt.Errorf("failed to commit posting: %w", err)
		}
		break
	}

	return result, nil
}

func (s *PostgresStore) commitOnce(ctx context.Context, in *CommitInput) (*CommitResult, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	conn, err := s.pool.Acquire(queryCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(queryCtx, pgx.TxOptions{
		IsoLevel:   pgx.Serializable,
		AccessMode: pgx.ReadWrite,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(queryCtx)

	now := time.Now().UTC()
	txID := uuid.NewString()
	batchID := uuid.NewString()

	var reversalOfTxID, reversalOfBatchID, approvedBy any
	if in.ReversalOfTransactionID != "" {
		reversalOfTxID = in.ReversalOfTransactionID
	}
	if in.ReversalOfBatchID != "" {
		reversalOfBatchID = in.ReversalOfBatchID
	}
	if in.ApprovedByUserID != "" {
		approvedBy = in.ApprovedByUserID
	}

	_, err = tx.Exec(queryCtx, `
		INSERT INTO teller_transactions (
			id, transaction_type, request_id, amount_cents, currency, status,
			posted_at, approved_by_user_id, reversal_of_teller_transaction_id,
			branch_id, workstation_id, teller_session_id, created_by_user_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`, txID, in.TransactionType, in.RequestID, in.AmountCents, in.Currency,
		StatusPosted, now, approvedBy, reversalOfTxID,
		in.BranchID, in.WorkstationID, in.TellerSessionID, in.CreatedByUserID)
	if err != nil {
		return nil, err
	}

	metadata, err := json.Marshal(in.Metadata)
	if err != nil {
		return nil, fmt.Errorf("failed to encode batch metadata: %w", err)
	}

	_, err = tx.Exec(queryCtx, `
		INSERT INTO posting_batches (
			id, teller_transaction_id, request_id, currency, status,
			committed_at, metadata, reversal_of_posting_batch_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, batchID, txID, in.RequestID, in.Currency, BatchCommitted, now, metadata, reversalOfBatchID)
	if err != nil {
		return nil, err
	}

	for position, leg := range in.Legs {
		_, err = tx.Exec(queryCtx, `
			INSERT INTO posting_legs (
				id, posting_batch_id, side, account_reference, amount_cents, position
			) VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.NewString(), batchID, string(leg.Side), leg.AccountReference, leg.AmountCents, position)
		if err != nil {
			return nil, err
		}

		if err := s.materializeAccountTransaction(queryCtx, tx, batchID, in.Description, leg); err != nil {
			return nil, err
		}
	}

	if in.CashMovement != nil {
		_, err = tx.Exec(queryCtx, `
			INSERT INTO cash_movements (
				id, teller_transaction_id, direction, amount_cents,
				teller_session_id, cash_location
			) VALUES ($1, $2, $3, $4, $5, $6)
		`, uuid.NewString(), txID, in.CashMovement.Direction, in.CashMovement.AmountCents,
			in.TellerSessionID, in.CashMovement.CashLocation)
		if err != nil {
			return nil, err
		}
	}

	if in.ReversalOfTransactionID != "" {
		tag, err := tx.Exec(queryCtx, `
			UPDATE teller_transactions
			SET status = $1, reversed_by_teller_transaction_id = $2, reversed_at = $3
			WHERE id = $4 AND reversed_by_teller_transaction_id IS NULL
		`, StatusReversed, txID, now, in.ReversalOfTransactionID)
		if err != nil {
			return nil, err
		}
		if tag.RowsAffected() == 0 {
			return nil, ErrAlreadyReversed
		}
	}

	if err := tx.Commit(queryCtx); err != nil {
		return nil, err
	}

	return &CommitResult{TellerTransactionID: txID, PostingBatchID: batchID}, nil
}

// materializeAccountTransaction writes the per-account effect of a leg when
// its reference resolves to a persisted account. The running balance is the
// prior balance adjusted by this leg; balances are computed, never mutated in
// place, so insert-only rows cannot race.
func (s *PostgresStore) materializeAccountTransaction(ctx context.Context, tx pgx.Tx, batchID, description string, leg LegInput) error {
	resolution, err := s.resolver.Resolve(ctx, leg.AccountReference)
	if err != nil {
		return err
	}
	if resolution.Kind != KindAccount {
		return nil
	}

	var prior int64
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(CASE WHEN direction = 'credit' THEN amount_cents ELSE -amount_cents END), 0)
		FROM account_transactions
		WHERE account_id = $1
	`, resolution.Account.ID).Scan(&prior)
	if err != nil {
		return fmt.Errorf("failed to compute prior balance for %s: %w", leg.AccountReference, err)
	}

	running := prior
	if leg.Side == Credit {
		running += leg.AmountCents
	} else {
		running -= leg.AmountCents
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO account_transactions (
			id, posting_batch_id, account_id, account_reference, direction,
			amount_cents, running_balance_cents, description
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, uuid.NewString(), batchID, resolution.Account.ID, leg.AccountReference,
		string(leg.Side), leg.AmountCents, running, description)
	return err
}

// PostingByTransactionID loads a committed posting with its batch and legs.
func (s *PostgresStore) PostingByTransactionID(ctx context.Context, id string) (*PostingRecord, error) {
	return s.loadPosting(ctx, "t.id", id)
}

// PostingByRequestID is the conflict-resolution lookup for duplicate
// submissions.
func (s *PostgresStore) PostingByRequestID(ctx context.Context, requestID string) (*PostingRecord, error) {
	return s.loadPosting(ctx, "t.request_id", requestID)
}

func (s *PostgresStore) loadPosting(ctx context.Context, column, key string) (*PostingRecord, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var rec PostingRecord
	var approvedBy, reversalOf, reversedBy, batchReversalOf *string
	var reversedAt *time.Time
	var metadata []byte

	err := s.pool.QueryRow(queryCtx, fmt.Sprintf(`
		SELECT
			t.id, t.transaction_type, t.request_id, t.amount_cents, t.currency,
			t.status, t.posted_at, t.approved_by_user_id,
			t.reversal_of_teller_transaction_id, t.reversed_by_teller_transaction_id,
			t.reversed_at, t.branch_id, t.workstation_id, t.teller_session_id,
			t.created_by_user_id,
			b.id, b.currency, b.status, b.committed_at, b.metadata,
			b.reversal_of_posting_batch_id
		FROM teller_transactions t
		JOIN posting_batches b ON b.teller_transaction_id = t.id
		WHERE %s = $1
	`, column), key).Scan(
		&rec.Transaction.ID, &rec.Transaction.TransactionType, &rec.Transaction.RequestID,
		&rec.Transaction.AmountCents, &rec.Transaction.Currency, &rec.Transaction.Status,
		&rec.Transaction.PostedAt, &approvedBy, &reversalOf, &reversedBy, &reversedAt,
		&rec.Transaction.BranchID, &rec.Transaction.WorkstationID,
		&rec.Transaction.TellerSessionID, &rec.Transaction.CreatedByUserID,
		&rec.Batch.ID, &rec.Batch.Currency, &rec.Batch.Status, &rec.Batch.CommittedAt,
		&metadata, &batchReversalOf,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load posting: %w", err)
	}

	if approvedBy != nil {
		rec.Transaction.ApprovedByUserID = *approvedBy
	}
	if reversalOf != nil {
		rec.Transaction.ReversalOfID = *reversalOf
	}
	if reversedBy != nil {
		rec.Transaction.ReversedByID = *reversedBy
	}
	rec.Transaction.ReversedAt = reversedAt
	if batchReversalOf != nil {
		rec.Batch.ReversalOfBatchID = *batchReversalOf
	}
	rec.Batch.TellerTransactionID = rec.Transaction.ID
	rec.Batch.RequestID = rec.Transaction.RequestID
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &rec.Batch.Metadata); err != nil {
			return nil, fmt.Errorf("failed to decode batch metadata: %w", err)
		}
	}

	rows, err := s.pool.Query(queryCtx, `
		SELECT id, posting_batch_id, side, account_reference, amount_cents, position
		FROM posting_legs
		WHERE posting_batch_id = $1
		ORDER BY position ASC
	`, rec.Batch.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load posting legs: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var leg PostingLeg
		var side string
		if err := rows.Scan(&leg.ID, &leg.PostingBatchID, &side, &leg.AccountReference, &leg.AmountCents, &leg.Position); err != nil {
			return nil, fmt.Errorf("failed to scan posting leg: %w", err)
		}
		leg.Side = Side(side)
		rec.Legs = append(rec.Legs, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read posting legs: %w", err)
	}

	return &rec, nil
}
