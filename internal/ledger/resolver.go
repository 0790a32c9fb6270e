package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// ReferenceKind classifies what an opaque account reference addresses.
type ReferenceKind string

const (
	KindAccount  ReferenceKind = "account"
	KindCash     ReferenceKind = "cash"
	KindCheck    ReferenceKind = "check"
	KindInternal ReferenceKind = "internal"
)

// Resolution is the result of resolving an account reference. Account is set
// only when Kind is KindAccount.
type Resolution struct {
	Kind    ReferenceKind
	Account *Account
}

// AccountLookup is the read side the resolver needs.
type AccountLookup interface {
	AccountByNumber(ctx context.Context, accountNumber string) (*Account, error)
}

// ErrAccountNotFound is returned by AccountLookup implementations when no
// account matches; the resolver treats it as an internal bucket.
var ErrAccountNotFound = errors.New("account not found")

// Resolver maps opaque reference strings to accounts or internal buckets. It
// is a pure lookup used for attribution and cash-direction inference; it never
// drives recipe control flow.
type Resolver struct {
	lookup AccountLookup
}

func NewResolver(lookup AccountLookup) *Resolver {
	return &Resolver{lookup: lookup}
}

// Resolve classifies a reference. "cash:<code>" addresses a drawer or vault,
// "check:<id>" a pending-item bucket; anything else is tried against the
// accounts table and falls back to an internal bucket.
func (r *Resolver) Resolve(ctx context.Context, reference string) (Resolution, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return Resolution{}, errors.New("empty account reference")
	}

	switch {
	case strings.HasPrefix(reference, "cash:"):
		return Resolution{Kind: KindCash}, nil
	case strings.HasPrefix(reference, "check:"):
		return Resolution{Kind: KindCheck}, nil
	}

	number := reference
	if n, ok := strings.CutPrefix(reference, "account:"); ok {
		number = n
	}

	account, err := r.lookup.AccountByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			return Resolution{Kind: KindInternal}, nil
		}
		return Resolution{}, fmt.Errorf("failed to resolve reference %q: %w", reference, err)
	}

	return Resolution{Kind: KindAccount, Account: account}, nil
}

// IsCashReference reports whether a reference addresses physical cash.
func IsCashReference(reference string) bool {
	return strings.HasPrefix(reference, "cash:")
}
