package password

import (
	"context"
	"runtime"

	"golang.org/x/sync/semaphore"
)

// Limited wraps a Hasher with a weighted semaphore so at most n hash or
// verify computations run concurrently. Waiting callers honour ctx.
type Limited struct {
	Hasher
	sem *semaphore.Weighted
}

// NewLimited bounds h to n concurrent computations. n <= 0 uses GOMAXPROCS.
func NewLimited(h Hasher, n int) *Limited {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &Limited{Hasher: h, sem: semaphore.NewWeighted(int64(n))}
}

// HashContext waits for a slot, then hashes. The only non-hashing error is ctx.Err().
func (l *Limited) HashContext(ctx context.Context, plaintext string) (string, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer l.sem.Release(1)
	return l.Hasher.Hash(plaintext)
}

// VerifyContext waits for a slot, then verifies. err is non-nil only when ctx
// ended before a slot was free.
func (l *Limited) VerifyContext(ctx context.Context, plaintext, encoded string) (bool, error) {
	if err := l.sem.Acquire(ctx, 1); err != nil {
		return false, err
	}
	defer l.sem.Release(1)
	return l.Hasher.Verify(plaintext, encoded), nil
}
