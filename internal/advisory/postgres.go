package advisory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore is the read-only advisory store. Advisory management is
// external; the posting pipeline only queries.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

func (s *PostgresStore) AdvisoriesForScopes(ctx context.Context, accountID string, partyIDs []string) ([]Advisory, error) {
	if accountID == "" && len(partyIDs) == 0 {
		return nil, nil
	}

	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	rows, err := s.pool.Query(queryCtx, `
		SELECT id, COALESCE(account_id, ''), COALESCE(party_id, ''),
		       title, severity, updated_at, effective_start_at, effective_end_at
		FROM advisories
		WHERE ($1 <> '' AND account_id = $1)
		   OR (party_id = ANY($2))
	`, accountID, partyIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query advisories: %w", err)
	}
	defer rows.Close()

	var advisories []Advisory
	for rows.Next() {
		var a Advisory
		var severity string
		if err := rows.Scan(&a.ID, &a.AccountID, &a.PartyID, &a.Title, &severity,
			&a.UpdatedAt, &a.EffectiveStartAt, &a.EffectiveEndAt); err != nil {
			return nil, fmt.Errorf("failed to scan advisory: %w", err)
		}
		a.Severity = Severity(severity)
		advisories = append(advisories, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read advisories: %w", err)
	}

	return advisories, nil
}

func (s *PostgresStore) LatestAcknowledgment(ctx context.Context, advisoryID, userID string) (*Acknowledgment, error) {
	queryCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var ack Acknowledgment
	err := s.pool.QueryRow(queryCtx, `
		SELECT id, advisory_id, user_id, acknowledged_at
		FROM advisory_acknowledgments
		WHERE advisory_id = $1 AND user_id = $2
		ORDER BY acknowledged_at DESC
		LIMIT 1
	`, advisoryID, userID).Scan(&ack.ID, &ack.AdvisoryID, &ack.UserID, &ack.AcknowledgedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNoAcknowledgment
		}
		return nil, fmt.Errorf("failed to query acknowledgment: %w", err)
	}

	return &ack, nil
}
