package goIdentity

import (
	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/delivery"
	"github.com/MrEthical07/goIdentity/jwt"
)

// AccountStore is the durable store the engine reads and compare-and-swaps
// accounts through. See store/memstore, store/redisstore and store/pgstore.
type AccountStore = account.Store

// Deliverer hands verification codes and welcome notices to a transport.
// delivery.LogDeliverer and delivery.QueueDeliverer implement it.
type Deliverer = delivery.Sender

// TokenPair is an access/refresh token pair issued together.
type TokenPair = jwt.Pair

// Claims are the verified contents of an access or refresh token.
type Claims = jwt.Claims

// SignupRequest carries the fields of a self-service signup. Exactly one of
// Email, Phone or External is set, matching Method.
//
// Identifiers are normalized before the validate tags are checked.
type SignupRequest struct {
	Method    account.SignupMethod      `json:"signup_method" validate:"required"`
	FirstName string                    `json:"first_name,omitempty" validate:"max=100"`
	LastName  string                    `json:"last_name,omitempty" validate:"max=100"`
	Email     string                    `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Phone     string                    `json:"phone,omitempty" validate:"omitempty,e164"`
	Password  string                    `json:"password,omitempty"`
	External  *account.ExternalIdentity `json:"external,omitempty"`
}

// SignupResult identifies the pending account. For EXTERNAL signups the
// account is already ACTIVE and PendingIdentifier is empty.
type SignupResult struct {
	AccountID         string         `json:"account_id"`
	PendingIdentifier string         `json:"pending_identifier,omitempty"`
	Status            account.Status `json:"status"`
}

// VerifyResult is returned by flows that end in an authenticated account.
// Account has its credential hash and challenge code removed.
type VerifyResult struct {
	Account account.Account `json:"account"`
	Tokens  TokenPair       `json:"tokens"`
}

// publicView strips secrets before an account leaves the engine.
func publicView(a *account.Account) account.Account {
	out := a.Clone()
	out.CredentialHash = ""
	if out.OTP != nil {
		out.OTP.Code = ""
	}
	return *out
}
