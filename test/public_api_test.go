package test

import (
	"context"
	"testing"

	goIdentity "github.com/MrEthical07/goIdentity"
	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/delivery"
	"github.com/MrEthical07/goIdentity/store/memstore"
	"github.com/MrEthical07/goIdentity/store/pgstore"
	"github.com/MrEthical07/goIdentity/store/redisstore"
)

// This test guards public API compile-compat for consumers.
func TestPublicAPISurfaceCompile(t *testing.T) {
	_ = goIdentity.New
	_ = goIdentity.DefaultConfig
	_ = goIdentity.ConfigFromEnv
	_ = goIdentity.Describe

	var _ *goIdentity.Engine
	var _ goIdentity.Config
	var _ goIdentity.SignupRequest
	var _ goIdentity.SignupResult
	var _ goIdentity.VerifyResult
	var _ goIdentity.TokenPair
	var _ goIdentity.AuditSink
	var _ goIdentity.Failure

	var _ goIdentity.AccountStore = memstore.New()
	var _ goIdentity.AccountStore = (*redisstore.Store)(nil)
	var _ goIdentity.AccountStore = (*pgstore.Store)(nil)
	var _ goIdentity.Deliverer = (*delivery.LogDeliverer)(nil)
	var _ goIdentity.Deliverer = (*delivery.QueueDeliverer)(nil)

	var _ error = goIdentity.ErrInvalidCredentials
	var _ error = goIdentity.ErrOTPInvalidOrExpired
	var _ error = goIdentity.ErrDuplicateAccount
	var _ error = goIdentity.ErrAccountNotFound
	var _ error = goIdentity.ErrTokenExpired
	var _ error = goIdentity.ErrTokenInvalid
	var _ error = goIdentity.ErrDeliveryFailed

	var _ func(*goIdentity.Engine, context.Context, goIdentity.SignupRequest) (goIdentity.SignupResult, error) = (*goIdentity.Engine).Signup
	var _ func(*goIdentity.Engine, context.Context, string, string) (goIdentity.VerifyResult, error) = (*goIdentity.Engine).Verify
	var _ func(*goIdentity.Engine, context.Context, string, string) (goIdentity.TokenPair, error) = (*goIdentity.Engine).Login
	var _ func(*goIdentity.Engine, context.Context, string) (string, error) = (*goIdentity.Engine).Refresh
	var _ func(*goIdentity.Engine, context.Context, string) error = (*goIdentity.Engine).ResendVerification
	var _ func(*goIdentity.Engine, context.Context, string) error = (*goIdentity.Engine).RequestPasswordReset
	var _ func(*goIdentity.Engine, context.Context, string, string, string) error = (*goIdentity.Engine).ConfirmPasswordReset
	var _ func(*goIdentity.Engine, context.Context, string) error = (*goIdentity.Engine).RequestLoginCode
	var _ func(*goIdentity.Engine, context.Context, string, string) (goIdentity.TokenPair, error) = (*goIdentity.Engine).LoginWithCode
	var _ func(*goIdentity.Engine, context.Context, account.ExternalIdentity) (goIdentity.VerifyResult, error) = (*goIdentity.Engine).AuthenticateExternal
	var _ func(*goIdentity.Engine, context.Context, string) error = (*goIdentity.Engine).BlockAccount
	var _ func(*goIdentity.Engine, context.Context, string) error = (*goIdentity.Engine).UnblockAccount
	var _ func(*goIdentity.Engine, context.Context, string) error = (*goIdentity.Engine).RequirePasswordReset
	var _ func(*goIdentity.Engine, context.Context, string, account.Role) error = (*goIdentity.Engine).SetRole
	var _ func(*goIdentity.Engine, string) (*goIdentity.Claims, error) = (*goIdentity.Engine).VerifyAccess
}
