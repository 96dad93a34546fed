// Package accountrepo manages repository layer of accounts.
package accountrepo

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/go-petr/bankist/internal/domain"
	"github.com/go-petr/bankist/pkg/currencypkg"
)

// RepoMem keeps the process-wide account set in memory.
//
// Accounts are handed out by reference so that a session works on the stored
// account itself. Mutating an account's movements is the caller's job.
type RepoMem struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	order    []string
}

// NewRepoMem returns an empty account RepoMem.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		accounts: make(map[string]*domain.Account),
	}
}

// Create creates the account and then returns it.
func (r *RepoMem) Create(ctx context.Context, arg domain.CreateAccountParams) (*domain.Account, error) {
	l := zerolog.Ctx(ctx)

	owner := strings.TrimSpace(arg.Owner)
	if owner == "" {
		return nil, domain.ErrEmptyOwner
	}

	if !currencypkg.IsSupportedCurrency(arg.Currency) {
		l.Info().Str("currency", arg.Currency).Err(domain.ErrUnsupportedCurrency).Send()
		return nil, domain.ErrUnsupportedCurrency
	}

	movements := make([]domain.Movement, len(arg.Movements))
	copy(movements, arg.Movements)

	a := &domain.Account{
		Owner:        owner,
		Username:     domain.Username(owner),
		PIN:          arg.PIN,
		Movements:    movements,
		InterestRate: arg.InterestRate,
		Currency:     arg.Currency,
		Locale:       arg.Locale,
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[a.Username]; ok {
		l.Info().Str("username", a.Username).Err(domain.ErrUsernameAlreadyExists).Send()
		return nil, domain.ErrUsernameAlreadyExists
	}

	r.accounts[a.Username] = a
	r.order = append(r.order, a.Username)

	return a, nil
}

// Get returns the account with exactly the given username.
func (r *RepoMem) Get(ctx context.Context, username string) (*domain.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.accounts[username]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	return a, nil
}

// Delete removes the account with the given username.
func (r *RepoMem) Delete(ctx context.Context, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[username]; !ok {
		return domain.ErrAccountNotFound
	}

	delete(r.accounts, username)

	for i, u := range r.order {
		if u == username {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	return nil
}

// List returns all accounts in creation order.
func (r *RepoMem) List(ctx context.Context) []*domain.Account {
	r.mu.RLock()
	defer r.mu.RUnlock()

	accounts := make([]*domain.Account, 0, len(r.order))
	for _, u := range r.order {
		accounts = append(accounts, r.accounts[u])
	}

	return accounts
}
