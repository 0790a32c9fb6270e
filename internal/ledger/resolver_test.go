package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapLookup struct {
	accounts map[string]*Account
	err      error
}

func (m *mapLookup) AccountByNumber(_ context.Context, number string) (*Account, error) {
	if m.err != nil {
		return nil, m.err
	}
	account, ok := m.accounts[number]
	if !ok {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

func newTestResolver() *Resolver {
	return NewResolver(&mapLookup{accounts: map[string]*Account{
		"ACC1": {ID: "acct-1", AccountNumber: "ACC1", HolderPartyID: "party-1", Status: "open", Currency: "USD"},
	}})
}

func TestResolveCashReference(t *testing.T) {
	res, err := newTestResolver().Resolve(context.Background(), "cash:DRW-104")
	require.NoError(t, err)
	assert.Equal(t, KindCash, res.Kind)
	assert.Nil(t, res.Account)
}

func TestResolveCheckReference(t *testing.T) {
	res, err := newTestResolver().Resolve(context.Background(), "check:chk-1")
	require.NoError(t, err)
	assert.Equal(t, KindCheck, res.Kind)
}

func TestResolveRealAccount(t *testing.T) {
	resolver := newTestResolver()

	res, err := resolver.Resolve(context.Background(), "ACC1")
	require.NoError(t, err)
	assert.Equal(t, KindAccount, res.Kind)
	require.NotNil(t, res.Account)
	assert.Equal(t, "acct-1", res.Account.ID)

	// The explicit account: prefix resolves to the same account.
	res, err = resolver.Resolve(context.Background(), "account:ACC1")
	require.NoError(t, err)
	assert.Equal(t, KindAccount, res.Kind)
}

func TestResolveInternalBucketFallback(t *testing.T) {
	res, err := newTestResolver().Resolve(context.Background(), "income:fees")
	require.NoError(t, err)
	assert.Equal(t, KindInternal, res.Kind)
	assert.Nil(t, res.Account)
}

func TestResolveEmptyReference(t *testing.T) {
	_, err := newTestResolver().Resolve(context.Background(), "  ")
	assert.Error(t, err)
}

func TestResolvePropagatesLookupFailure(t *testing.T) {
	resolver := NewResolver(&mapLookup{err: errors.New("connection refused")})

	_, err := resolver.Resolve(context.Background(), "ACC1")
	assert.Error(t, err, "a store outage is not an internal bucket")
}

func TestIsCashReference(t *testing.T) {
	assert.True(t, IsCashReference("cash:DRW-104"))
	assert.False(t, IsCashReference("ACC1"))
	assert.False(t, IsCashReference("check:chk-1"))
}
