package advisory

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/example/branch-teller/internal/ledger"
	"github.com/example/branch-teller/internal/posting"
)

// Store is the read side the gate consults. Implementations must only return
// advisories whose scope matches the given account or parties; the gate
// filters for the active window itself.
type Store interface {
	AdvisoriesForScopes(ctx context.Context, accountID string, partyIDs []string) ([]Advisory, error)
	LatestAcknowledgment(ctx context.Context, advisoryID, userID string) (*Acknowledgment, error)
}

// ErrNoAcknowledgment is returned by Store implementations when a user has
// never acknowledged an advisory.
var ErrNoAcknowledgment = errors.New("no acknowledgment on record")

// Gate evaluates compliance advisories for a posting. It resolves the primary
// account reference to its holder, gathers advisories for the account and all
// implicated parties, and applies them most severe first.
type Gate struct {
	store  Store
	lookup ledger.AccountLookup
	now    func() time.Time
}

func NewGate(store Store, lookup ledger.AccountLookup) *Gate {
	return &Gate{store: store, lookup: lookup, now: time.Now}
}

// CheckPostingAllowed implements the engine's compliance gate. Restriction
// advisories block unconditionally. Requires-acknowledgment advisories block
// unless acknowledged in this request or previously acknowledged by the same
// user after the advisory's last edit. Lower severities never block.
func (g *Gate) CheckPostingAllowed(ctx context.Context, check posting.AdvisoryCheck) (posting.AdvisoryVerdict, error) {
	accountID, partyIDs, err := g.resolveScopes(ctx, check)
	if err != nil {
		return posting.AdvisoryVerdict{}, err
	}
	if accountID == "" && len(partyIDs) == 0 {
		return posting.AdvisoryVerdict{Allowed: true}, nil
	}

	advisories, err := g.store.AdvisoriesForScopes(ctx, accountID, partyIDs)
	if err != nil {
		return posting.AdvisoryVerdict{}, fmt.Errorf("failed to load advisories: %w", err)
	}

	now := g.now()
	active := advisories[:0]
	for _, a := range advisories {
		if a.ActiveAt(now) {
			active = append(active, a)
		}
	}
	sort.SliceStable(active, func(i, j int) bool {
		return active[i].Severity.Rank() > active[j].Severity.Rank()
	})

	acknowledged := make(map[string]bool, len(check.AcknowledgedIDs))
	for _, id := range check.AcknowledgedIDs {
		acknowledged[id] = true
	}

	for i := range active {
		a := &active[i]
		if !a.Severity.Blocks() {
			continue
		}
		if a.Severity == SeverityRestriction {
			return blockedBy(a), nil
		}
		if acknowledged[a.ID] {
			continue
		}
		ok, err := g.hasFreshAcknowledgment(ctx, a, check.UserID)
		if err != nil {
			return posting.AdvisoryVerdict{}, err
		}
		if !ok {
			return blockedBy(a), nil
		}
	}

	return posting.AdvisoryVerdict{Allowed: true}, nil
}

func (g *Gate) resolveScopes(ctx context.Context, check posting.AdvisoryCheck) (accountID string, partyIDs []string, err error) {
	if check.PartyID != "" {
		partyIDs = append(partyIDs, check.PartyID)
	}
	if check.AccountReference == "" || ledger.IsCashReference(check.AccountReference) {
		return "", partyIDs, nil
	}

	resolver := ledger.NewResolver(g.lookup)
	resolution, err := resolver.Resolve(ctx, check.AccountReference)
	if err != nil {
		return "", nil, err
	}
	if resolution.Kind != ledger.KindAccount {
		return "", partyIDs, nil
	}

	accountID = resolution.Account.ID
	if holder := resolution.Account.HolderPartyID; holder != "" && holder != check.PartyID {
		partyIDs = append(partyIDs, holder)
	}
	return accountID, partyIDs, nil
}

func (g *Gate) hasFreshAcknowledgment(ctx context.Context, a *Advisory, userID string) (bool, error) {
	if userID == "" {
		return false, nil
	}
	ack, err := g.store.LatestAcknowledgment(ctx, a.ID, userID)
	if err != nil {
		if errors.Is(err, ErrNoAcknowledgment) {
			return false, nil
		}
		return false, fmt.Errorf("failed to load acknowledgment for advisory %s: %w", a.ID, err)
	}
	return ack.Covers(a), nil
}

func blockedBy(a *Advisory) posting.AdvisoryVerdict {
	return posting.AdvisoryVerdict{
		Allowed:    false,
		AdvisoryID: a.ID,
		Title:      a.Title,
		Severity:   string(a.Severity),
	}
}
