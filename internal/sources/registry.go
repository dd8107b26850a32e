package sources

import (
	"fmt"

	"github.com/lox/receipt-matcher/internal/types"
)

// Registry holds the connected accounts in the order they were configured
type Registry struct {
	accounts []Account
	index    map[string]int
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		index: make(map[string]int),
	}
}

// Register adds an account; account ids must be unique
func (r *Registry) Register(ref types.AccountRef, src Source) error {
	if ref.ID == "" {
		return fmt.Errorf("account id is required")
	}
	if src == nil {
		return fmt.Errorf("account %s has no source", ref.ID)
	}
	if _, exists := r.index[ref.ID]; exists {
		return fmt.Errorf("account %s already registered", ref.ID)
	}
	r.index[ref.ID] = len(r.accounts)
	r.accounts = append(r.accounts, Account{Ref: ref, Source: src})
	return nil
}

// Get returns an account by id
func (r *Registry) Get(id string) (Account, bool) {
	i, ok := r.index[id]
	if !ok {
		return Account{}, false
	}
	return r.accounts[i], true
}

// Accounts returns all accounts in configured order
func (r *Registry) Accounts() []Account {
	out := make([]Account, len(r.accounts))
	copy(out, r.accounts)
	return out
}

// List returns the references of all accounts in configured order
func (r *Registry) List() []types.AccountRef {
	refs := make([]types.AccountRef, len(r.accounts))
	for i, a := range r.accounts {
		refs[i] = a.Ref
	}
	return refs
}

// Len returns the number of registered accounts
func (r *Registry) Len() int {
	return len(r.accounts)
}
