package account

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no account matches a lookup.
	ErrNotFound = errors.New("account: not found")
	// ErrDuplicate is returned by Create when a uniqueness constraint would break.
	ErrDuplicate = errors.New("account: duplicate identifier")
	// ErrVersionConflict is returned by CompareAndSwap when the stored version moved.
	ErrVersionConflict = errors.New("account: version conflict")
	// ErrImmutableIdentity is returned by CompareAndSwap when a would change
	// the stored email, phone or external identity.
	ErrImmutableIdentity = errors.New("account: identity attributes are immutable")
	// ErrStoreUnavailable wraps backend faults.
	ErrStoreUnavailable = errors.New("account: store unavailable")
)

// Store is the durable account store. Implementations must be safe for
// concurrent use and must return copies, never shared records.
type Store interface {
	// Create inserts a, enforcing uniqueness of email, phone and external
	// identity. It returns ErrDuplicate without writing anything on conflict.
	Create(ctx context.Context, a *Account) error
	FindByID(ctx context.Context, id string) (*Account, error)
	FindByEmail(ctx context.Context, email string) (*Account, error)
	FindByPhone(ctx context.Context, phone string) (*Account, error)
	FindByExternal(ctx context.Context, provider, subject string) (*Account, error)
	// CompareAndSwap replaces the stored record with a if and only if the
	// stored Version equals expected. a.Version must already be advanced.
	// Identity attributes (email, phone, external) are immutable.
	CompareAndSwap(ctx context.Context, a *Account, expected uint64) error
}
