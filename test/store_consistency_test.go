package test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
)

func TestStoreConsistencyFullFlow(t *testing.T) {
	for _, mode := range storeModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			box := newInbox()
			engine := newEngine(t, mode.setup(t), box)

			res, err := engine.Signup(ctx, goIdentity.SignupRequest{
				Method:    account.MethodEmail,
				FirstName: "Grace",
				Email:     "Grace@Example.com",
				Password:  testPassword,
			})
			if err != nil {
				t.Fatalf("Signup() error = %v", err)
			}
			if res.Status != account.StatusNeedsEmailVerification || res.PendingIdentifier != "grace@example.com" {
				t.Fatalf("signup result = %+v", res)
			}

			if _, err := engine.Login(ctx, "grace@example.com", testPassword); !errors.Is(err, goIdentity.ErrInvalidCredentials) {
				t.Fatalf("login before verification error = %v", err)
			}

			verified, err := engine.Verify(ctx, res.PendingIdentifier, box.code(t, otp.PurposeVerification, res.PendingIdentifier))
			if err != nil {
				t.Fatalf("Verify() error = %v", err)
			}
			if verified.Account.Status != account.StatusActive || verified.Account.CredentialHash != "" {
				t.Fatalf("verified account = %+v", verified.Account)
			}

			pair, err := engine.Login(ctx, "GRACE@example.com", testPassword)
			if err != nil {
				t.Fatalf("Login() error = %v", err)
			}
			access, err := engine.Refresh(ctx, pair.RefreshToken)
			if err != nil {
				t.Fatalf("Refresh() error = %v", err)
			}
			claims, err := engine.VerifyAccess(access)
			if err != nil || claims.Subject != res.AccountID {
				t.Fatalf("VerifyAccess() = %+v, %v", claims, err)
			}

			if _, err := engine.Signup(ctx, goIdentity.SignupRequest{
				Method:   account.MethodEmail,
				Email:    "grace@example.com",
				Password: testPassword,
			}); !errors.Is(err, goIdentity.ErrDuplicateAccount) {
				t.Fatalf("duplicate signup error = %v", err)
			}
		})
	}
}

func TestStoreConsistencyConcurrentVerifySingleWinner(t *testing.T) {
	for _, mode := range storeModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			store := mode.setup(t)
			box := newInbox()
			first := newEngine(t, store, box)
			second := newEngine(t, store, box)

			res, err := first.Signup(ctx, goIdentity.SignupRequest{
				Method: account.MethodPhone,
				Phone:  "+15550100200",
			})
			if err != nil {
				t.Fatalf("Signup() error = %v", err)
			}
			code := box.code(t, otp.PurposeVerification, res.PendingIdentifier)

			const workers = 12
			var wins, rejected atomic.Int64
			var wg sync.WaitGroup
			wg.Add(workers)
			for i := 0; i < workers; i++ {
				engine := first
				if i%2 == 1 {
					engine = second
				}
				go func() {
					defer wg.Done()
					_, err := engine.Verify(ctx, res.PendingIdentifier, code)
					switch {
					case err == nil:
						wins.Add(1)
					case errors.Is(err, goIdentity.ErrOTPInvalidOrExpired), errors.Is(err, goIdentity.ErrConflict):
						rejected.Add(1)
					default:
						t.Errorf("unexpected verify error: %v", err)
					}
				}()
			}
			wg.Wait()

			if wins.Load() != 1 {
				t.Fatalf("wins = %d, want exactly 1", wins.Load())
			}
			if rejected.Load() != workers-1 {
				t.Fatalf("rejected = %d, want %d", rejected.Load(), workers-1)
			}
			if box.welcomeCount(res.AccountID) != 1 {
				t.Fatalf("welcome sent %d times", box.welcomeCount(res.AccountID))
			}

			a, err := store.FindByID(ctx, res.AccountID)
			if err != nil {
				t.Fatalf("FindByID() error = %v", err)
			}
			if a.Status != account.StatusActive || a.OTP != nil || a.Version != 2 {
				t.Fatalf("stored account = status %s otp %v version %d", a.Status, a.OTP, a.Version)
			}
		})
	}
}

func TestStoreConsistencyLockoutSharedAcrossEngines(t *testing.T) {
	for _, mode := range storeModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			store := mode.setup(t)
			box := newInbox()
			first := newEngine(t, store, box)
			second := newEngine(t, store, box)

			res, err := first.Signup(ctx, goIdentity.SignupRequest{
				Method:   account.MethodEmail,
				Email:    "shared@example.com",
				Password: testPassword,
			})
			if err != nil {
				t.Fatalf("Signup() error = %v", err)
			}
			if _, err := first.Verify(ctx, res.PendingIdentifier, box.code(t, otp.PurposeVerification, res.PendingIdentifier)); err != nil {
				t.Fatalf("Verify() error = %v", err)
			}

			threshold := integrationConfig().Lockout.Threshold
			for i := 0; i < threshold; i++ {
				engine := first
				if i%2 == 1 {
					engine = second
				}
				_, _ = engine.Login(ctx, "shared@example.com", fmt.Sprintf("wrong-password-%d", i))
			}

			a, err := store.FindByID(ctx, res.AccountID)
			if err != nil {
				t.Fatalf("FindByID() error = %v", err)
			}
			if a.Status != account.StatusTemporarilyBlocked {
				t.Fatalf("status = %s, want TEMPORARILY_BLOCKED", a.Status)
			}
			if _, err := second.Login(ctx, "shared@example.com", testPassword); !errors.Is(err, goIdentity.ErrInvalidCredentials) {
				t.Fatalf("login while locked error = %v", err)
			}
		})
	}
}

func TestStoreConsistencyConcurrentRefresh(t *testing.T) {
	for _, mode := range storeModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			ctx := context.Background()
			box := newInbox()
			engine := newEngine(t, mode.setup(t), box)

			res, err := engine.AuthenticateExternal(ctx, account.ExternalIdentity{
				Provider: "github",
				Subject:  "gh-" + mode.name,
			})
			if err != nil {
				t.Fatalf("AuthenticateExternal() error = %v", err)
			}

			const workers = 16
			var wg sync.WaitGroup
			errs := make(chan error, workers)
			wg.Add(workers)
			for i := 0; i < workers; i++ {
				go func() {
					defer wg.Done()
					if _, err := engine.Refresh(ctx, res.Tokens.RefreshToken); err != nil {
						errs <- err
					}
				}()
			}
			wg.Wait()
			close(errs)
			for err := range errs {
				t.Fatalf("stateless refresh should not fail concurrently: %v", err)
			}
		})
	}
}
