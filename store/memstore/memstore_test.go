package memstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/MrEthical07/goIdentity/account"
)

func emailAccount(id, email string) *account.Account {
	return &account.Account{
		ID:             id,
		Email:          email,
		Method:         account.MethodEmail,
		CredentialHash: "hash",
		Status:         account.StatusNeedsEmailVerification,
		Role:           account.RoleUser,
		Version:        1,
	}
}

func TestCreateEnforcesUniqueness(t *testing.T) {
	ctx := context.Background()
	s := New()

	if err := s.Create(ctx, emailAccount("a1", "a@x.com")); err != nil {
		t.Fatalf("Create error: %v", err)
	}
	if err := s.Create(ctx, emailAccount("a2", "a@x.com")); !errors.Is(err, account.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected one record, got %d", s.Len())
	}

	ext := &account.Account{ID: "a3", External: &account.ExternalIdentity{Provider: "google", Subject: "1"}, Method: account.MethodExternal}
	if err := s.Create(ctx, ext); err != nil {
		t.Fatalf("Create external error: %v", err)
	}
	dup := &account.Account{ID: "a4", External: &account.ExternalIdentity{Provider: "google", Subject: "1"}, Method: account.MethodExternal}
	if err := s.Create(ctx, dup); !errors.Is(err, account.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for external identity, got %v", err)
	}
	other := &account.Account{ID: "a5", External: &account.ExternalIdentity{Provider: "github", Subject: "1"}, Method: account.MethodExternal}
	if err := s.Create(ctx, other); err != nil {
		t.Fatalf("expected same subject under another provider to be accepted: %v", err)
	}
}

func TestFindReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Create(ctx, emailAccount("a1", "a@x.com")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	got, err := s.FindByEmail(ctx, "a@x.com")
	if err != nil {
		t.Fatalf("FindByEmail error: %v", err)
	}
	got.Status = account.StatusActive

	again, err := s.FindByID(ctx, "a1")
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if again.Status != account.StatusNeedsEmailVerification {
		t.Fatal("mutating a returned record leaked into the store")
	}
	if _, err := s.FindByPhone(ctx, "+15550000000"); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompareAndSwapSingleWinner(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Create(ctx, emailAccount("a1", "a@x.com")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	var wins atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			next := emailAccount("a1", "a@x.com")
			next.Status = account.StatusActive
			next.Version = 2
			if err := s.CompareAndSwap(ctx, next, 1); err == nil {
				wins.Add(1)
			} else if !errors.Is(err, account.ErrVersionConflict) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if wins.Load() != 1 {
		t.Fatalf("expected exactly one winner, got %d", wins.Load())
	}
}

func TestCompareAndSwapKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.Create(ctx, emailAccount("a1", "a@x.com")); err != nil {
		t.Fatalf("Create error: %v", err)
	}

	next := emailAccount("a1", "b@x.com")
	next.Version = 2
	if err := s.CompareAndSwap(ctx, next, 1); !errors.Is(err, account.ErrImmutableIdentity) {
		t.Fatalf("expected ErrImmutableIdentity, got %v", err)
	}
	got, err := s.FindByID(ctx, "a1")
	if err != nil {
		t.Fatalf("FindByID error: %v", err)
	}
	if got.Email != "a@x.com" || got.Version != 1 {
		t.Fatalf("unexpected record after rejected swap: %+v", got)
	}
	if err := s.CompareAndSwap(ctx, emailAccount("missing", "m@x.com"), 1); !errors.Is(err, account.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
