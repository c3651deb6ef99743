// Package memstore is an in-process account.Store for tests, development and
// single-node deployments. Uniqueness and compare-and-swap are enforced under
// one mutex; records never escape without being cloned.
package memstore

import (
	"context"
	"sync"

	"github.com/MrEthical07/goIdentity/account"
)

type extKey struct {
	provider string
	subject  string
}

// Store is a mutex-guarded map of accounts with secondary indexes.
type Store struct {
	mu       sync.RWMutex
	byID     map[string]*account.Account
	byEmail  map[string]string
	byPhone  map[string]string
	byExtern map[extKey]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		byID:     make(map[string]*account.Account),
		byEmail:  make(map[string]string),
		byPhone:  make(map[string]string),
		byExtern: make(map[extKey]string),
	}
}

func (s *Store) Create(ctx context.Context, a *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byID[a.ID]; ok {
		return account.ErrDuplicate
	}
	if a.Email != "" {
		if _, ok := s.byEmail[a.Email]; ok {
			return account.ErrDuplicate
		}
	}
	if a.Phone != "" {
		if _, ok := s.byPhone[a.Phone]; ok {
			return account.ErrDuplicate
		}
	}
	if a.External != nil {
		if _, ok := s.byExtern[extKey{a.External.Provider, a.External.Subject}]; ok {
			return account.ErrDuplicate
		}
	}

	s.byID[a.ID] = a.Clone()
	if a.Email != "" {
		s.byEmail[a.Email] = a.ID
	}
	if a.Phone != "" {
		s.byPhone[a.Phone] = a.ID
	}
	if a.External != nil {
		s.byExtern[extKey{a.External.Provider, a.External.Subject}] = a.ID
	}
	return nil
}

func (s *Store) FindByID(ctx context.Context, id string) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lookup(id)
}

func (s *Store) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	return s.findIndexed(ctx, func() (string, bool) {
		id, ok := s.byEmail[email]
		return id, ok
	})
}

func (s *Store) FindByPhone(ctx context.Context, phone string) (*account.Account, error) {
	return s.findIndexed(ctx, func() (string, bool) {
		id, ok := s.byPhone[phone]
		return id, ok
	})
}

func (s *Store) FindByExternal(ctx context.Context, provider, subject string) (*account.Account, error) {
	return s.findIndexed(ctx, func() (string, bool) {
		id, ok := s.byExtern[extKey{provider, subject}]
		return id, ok
	})
}

// CompareAndSwap replaces the record when its stored version equals expected.
func (s *Store) CompareAndSwap(ctx context.Context, a *account.Account, expected uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.byID[a.ID]
	if !ok {
		return account.ErrNotFound
	}
	if cur.Version != expected {
		return account.ErrVersionConflict
	}
	if !account.SameIdentity(cur, a) {
		return account.ErrImmutableIdentity
	}
	s.byID[a.ID] = a.Clone()
	return nil
}

// Len reports the number of stored accounts.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *Store) findIndexed(ctx context.Context, resolve func() (string, bool)) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := resolve()
	if !ok {
		return nil, account.ErrNotFound
	}
	return s.lookup(id)
}

func (s *Store) lookup(id string) (*account.Account, error) {
	a, ok := s.byID[id]
	if !ok {
		return nil, account.ErrNotFound
	}
	return a.Clone(), nil
}
