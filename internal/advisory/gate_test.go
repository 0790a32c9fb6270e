package advisory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/example/branch-teller/internal/ledger"
	"github.com/example/branch-teller/internal/posting"
)

type fakeStore struct {
	advisories      []Advisory
	acknowledgments map[string]*Acknowledgment
}

func (f *fakeStore) AdvisoriesForScopes(_ context.Context, accountID string, partyIDs []string) ([]Advisory, error) {
	parties := make(map[string]bool, len(partyIDs))
	for _, id := range partyIDs {
		parties[id] = true
	}
	var out []Advisory
	for _, a := range f.advisories {
		if (accountID != "" && a.AccountID == accountID) || parties[a.PartyID] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeStore) LatestAcknowledgment(_ context.Context, advisoryID, userID string) (*Acknowledgment, error) {
	ack, ok := f.acknowledgments[advisoryID+"|"+userID]
	if !ok {
		return nil, ErrNoAcknowledgment
	}
	return ack, nil
}

type fakeLookup struct {
	accounts map[string]*ledger.Account
}

func (f *fakeLookup) AccountByNumber(_ context.Context, number string) (*ledger.Account, error) {
	account, ok := f.accounts[number]
	if !ok {
		return nil, ledger.ErrAccountNotFound
	}
	return account, nil
}

func newTestGate(store *fakeStore) *Gate {
	lookup := &fakeLookup{accounts: map[string]*ledger.Account{
		"ACC1": {ID: "acct-1", AccountNumber: "ACC1", HolderPartyID: "party-1", Status: "open", Currency: "USD"},
	}}
	return NewGate(store, lookup)
}

func checkFor(accountRef string) posting.AdvisoryCheck {
	return posting.AdvisoryCheck{AccountReference: accountRef, UserID: "teller-1"}
}

func TestGateAllowsWhenNoAdvisories(t *testing.T) {
	gate := newTestGate(&fakeStore{})

	verdict, err := gate.CheckPostingAllowed(context.Background(), checkFor("ACC1"))
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
}

func TestGateRestrictionBlocksUnconditionally(t *testing.T) {
	store := &fakeStore{advisories: []Advisory{{
		ID:        "adv-1",
		AccountID: "acct-1",
		Title:     "account frozen by court order",
		Severity:  SeverityRestriction,
		UpdatedAt: time.Now().Add(-time.Hour),
	}}}
	gate := newTestGate(store)

	check := checkFor("ACC1")
	check.AcknowledgedIDs = []string{"adv-1"}

	verdict, err := gate.CheckPostingAllowed(context.Background(), check)
	require.NoError(t, err)
	assert.False(t, verdict.Allowed, "acknowledgment must not bypass a restriction")
	assert.Equal(t, "adv-1", verdict.AdvisoryID)
	assert.Equal(t, string(SeverityRestriction), verdict.Severity)
}

func TestGatePartyScopedAdvisoryBlocksAccountPosting(t *testing.T) {
	store := &fakeStore{advisories: []Advisory{{
		ID:        "adv-holder",
		PartyID:   "party-1",
		Title:     "party under review",
		Severity:  SeverityRestriction,
		UpdatedAt: time.Now().Add(-time.Hour),
	}}}
	gate := newTestGate(store)

	verdict, err := gate.CheckPostingAllowed(context.Background(), checkFor("ACC1"))
	require.NoError(t, err)
	assert.False(t, verdict.Allowed, "holder's advisory must block the account's postings")
}

func TestGateRequiresAcknowledgment(t *testing.T) {
	advisory := Advisory{
		ID:        "adv-2",
		AccountID: "acct-1",
		Title:     "verify customer identity",
		Severity:  SeverityRequiresAck,
		UpdatedAt: time.Now().Add(-time.Hour),
	}
	store := &fakeStore{advisories: []Advisory{advisory}}
	gate := newTestGate(store)

	verdict, err := gate.CheckPostingAllowed(context.Background(), checkFor("ACC1"))
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
	assert.Equal(t, "adv-2", verdict.AdvisoryID)

	check := checkFor("ACC1")
	check.AcknowledgedIDs = []string{"adv-2"}
	verdict, err = gate.CheckPostingAllowed(context.Background(), check)
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
}

func TestGateHonorsFreshPersistedAcknowledgment(t *testing.T) {
	updated := time.Now().Add(-2 * time.Hour)
	store := &fakeStore{
		advisories: []Advisory{{
			ID:        "adv-3",
			AccountID: "acct-1",
			Severity:  SeverityRequiresAck,
			UpdatedAt: updated,
		}},
		acknowledgments: map[string]*Acknowledgment{
			"adv-3|teller-1": {AdvisoryID: "adv-3", UserID: "teller-1", AcknowledgedAt: updated.Add(time.Hour)},
		},
	}
	gate := newTestGate(store)

	verdict, err := gate.CheckPostingAllowed(context.Background(), checkFor("ACC1"))
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
}

func TestGateStaleAcknowledgmentBlocks(t *testing.T) {
	updated := time.Now().Add(-time.Hour)
	store := &fakeStore{
		advisories: []Advisory{{
			ID:        "adv-4",
			AccountID: "acct-1",
			Severity:  SeverityRequiresAck,
			UpdatedAt: updated,
		}},
		acknowledgments: map[string]*Acknowledgment{
			"adv-4|teller-1": {AdvisoryID: "adv-4", UserID: "teller-1", AcknowledgedAt: updated.Add(-time.Minute)},
		},
	}
	gate := newTestGate(store)

	verdict, err := gate.CheckPostingAllowed(context.Background(), checkFor("ACC1"))
	require.NoError(t, err)
	assert.False(t, verdict.Allowed, "editing an advisory invalidates older acknowledgments")
}

func TestGateIgnoresInactiveAndInformationalAdvisories(t *testing.T) {
	now := time.Now()
	past := now.Add(-48 * time.Hour)
	pastEnd := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	store := &fakeStore{advisories: []Advisory{
		{
			ID: "adv-expired", AccountID: "acct-1", Severity: SeverityRestriction,
			UpdatedAt: past, EffectiveStartAt: &past, EffectiveEndAt: &pastEnd,
		},
		{
			ID: "adv-future", AccountID: "acct-1", Severity: SeverityRestriction,
			UpdatedAt: past, EffectiveStartAt: &future,
		},
		{ID: "adv-notice", AccountID: "acct-1", Severity: SeverityNotice, UpdatedAt: past},
		{ID: "adv-info", AccountID: "acct-1", Severity: SeverityInfo, UpdatedAt: past},
	}}
	gate := newTestGate(store)

	verdict, err := gate.CheckPostingAllowed(context.Background(), checkFor("ACC1"))
	require.NoError(t, err)
	assert.True(t, verdict.Allowed)
}

func TestGateSkipsCashReferences(t *testing.T) {
	store := &fakeStore{advisories: []Advisory{{
		ID: "adv-5", AccountID: "acct-1", Severity: SeverityRestriction, UpdatedAt: time.Now(),
	}}}
	gate := newTestGate(store)

	verdict, err := gate.CheckPostingAllowed(context.Background(), checkFor("cash:DRW-104"))
	require.NoError(t, err)
	assert.True(t, verdict.Allowed, "vault and drawer references carry no compliance scope")
}

func TestGateExplicitPartyScope(t *testing.T) {
	store := &fakeStore{advisories: []Advisory{{
		ID: "adv-6", PartyID: "party-9", Severity: SeverityRestriction, UpdatedAt: time.Now(),
	}}}
	gate := newTestGate(store)

	check := posting.AdvisoryCheck{PartyID: "party-9", UserID: "teller-1"}
	verdict, err := gate.CheckPostingAllowed(context.Background(), check)
	require.NoError(t, err)
	assert.False(t, verdict.Allowed)
}
