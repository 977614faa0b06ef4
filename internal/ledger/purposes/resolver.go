package purposes

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aurora-books/aurora-books/internal/ledger/accounts"
	"github.com/aurora-books/aurora-books/internal/ledger/shared"
)

// AccountSource exposes the account operations the resolver needs.
type AccountSource interface {
	Get(ctx context.Context, scope shared.Scope, id int64) (accounts.Account, error)
	Ensure(ctx context.Context, acc accounts.Account) (accounts.Account, error)
}

// MissingAccountsError lists every purpose that failed to resolve, so the
// caller can fix the whole mapping configuration in one pass.
type MissingAccountsError struct {
	Purposes []Purpose
}

func (e *MissingAccountsError) Error() string {
	names := make([]string, 0, len(e.Purposes))
	for _, p := range e.Purposes {
		names = append(names, string(p))
	}
	return fmt.Sprintf("ledger: missing account mappings: %s", strings.Join(names, ", "))
}

func (e *MissingAccountsError) Unwrap() error {
	return shared.ErrMissingAccounts
}

// Resolver translates purposes into concrete accounts via the mapping table.
// When provisioning is enabled, a missing mapping for a purpose with a
// default definition creates the account and the mapping instead of failing.
type Resolver struct {
	mappings  Repository
	accounts  AccountSource
	provision bool
}

func NewResolver(mappings Repository, accountSource AccountSource, autoProvision bool) *Resolver {
	return &Resolver{mappings: mappings, accounts: accountSource, provision: autoProvision}
}

// Resolve returns the account mapped to the purpose in scope.
func (r *Resolver) Resolve(ctx context.Context, scope shared.Scope, purpose Purpose) (accounts.Account, error) {
	if err := purpose.Validate(); err != nil {
		return accounts.Account{}, err
	}
	mapping, err := r.mappings.Get(ctx, scope, purpose)
	if err != nil {
		if errors.Is(err, shared.ErrMappingNotFound) && r.provision {
			return r.provisionAccount(ctx, scope, purpose)
		}
		return accounts.Account{}, err
	}
	return r.accounts.Get(ctx, scope, mapping.AccountID)
}

// ResolveAll resolves every purpose or fails with a MissingAccountsError
// naming all unresolved purposes. A partial result is never returned: an
// unbalanced entry caused by a silently skipped leg is a data corruption
// event.
func (r *Resolver) ResolveAll(ctx context.Context, scope shared.Scope, wanted []Purpose) (map[Purpose]accounts.Account, error) {
	resolved := make(map[Purpose]accounts.Account, len(wanted))
	var missing []Purpose
	for _, purpose := range wanted {
		if _, ok := resolved[purpose]; ok {
			continue
		}
		acc, err := r.Resolve(ctx, scope, purpose)
		if err != nil {
			if errors.Is(err, shared.ErrMappingNotFound) || errors.Is(err, shared.ErrAccountNotFound) {
				missing = append(missing, purpose)
				continue
			}
			return nil, err
		}
		resolved[purpose] = acc
	}
	if len(missing) > 0 {
		sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
		return nil, &MissingAccountsError{Purposes: missing}
	}
	return resolved, nil
}

func (r *Resolver) provisionAccount(ctx context.Context, scope shared.Scope, purpose Purpose) (accounts.Account, error) {
	def, ok := defaults[purpose]
	if !ok {
		return accounts.Account{}, shared.ErrMappingNotFound
	}
	acc, err := r.accounts.Ensure(ctx, accounts.Account{
		TenantID:  scope.TenantID,
		CompanyID: scope.CompanyID,
		Code:      def.Code,
		Name:      def.Name,
		Type:      def.Type,
		Purpose:   string(purpose),
	})
	if err != nil {
		return accounts.Account{}, err
	}
	if err := r.mappings.Put(ctx, AccountMapping{
		TenantID:  scope.TenantID,
		CompanyID: scope.CompanyID,
		Purpose:   purpose,
		AccountID: acc.ID,
	}); err != nil {
		return accounts.Account{}, err
	}
	return acc, nil
}
