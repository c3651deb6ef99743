// Package delivery hands verification codes and welcome notices to the
// outside world.
//
// [LogDeliverer] writes them to a zap logger for development.
// [QueueDeliverer] enqueues them as asynq tasks so the request path only
// pays for a Redis write, and [Worker] consumes those tasks and calls a
// [Sender] that owns the actual email/SMS transport.
package delivery

import (
	"context"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
)

const (
	// TypeVerificationCode is the asynq task type for one-time codes.
	TypeVerificationCode = "identity:verification_code"
	// TypeWelcome is the asynq task type for welcome notices.
	TypeWelcome = "identity:welcome"
)

// Sender delivers messages to a destination. QueueDeliverer and LogDeliverer
// implement it, and Worker dispatches to one.
type Sender interface {
	SendVerificationCode(ctx context.Context, dst account.Destination, code string, purpose otp.Purpose) error
	SendWelcome(ctx context.Context, dst account.Destination, accountID string) error
}

// CodePayload is the body of a TypeVerificationCode task.
type CodePayload struct {
	Destination account.Destination `json:"destination"`
	Code        string              `json:"code"`
	Purpose     otp.Purpose         `json:"purpose"`
}

// WelcomePayload is the body of a TypeWelcome task.
type WelcomePayload struct {
	Destination account.Destination `json:"destination"`
	AccountID   string              `json:"account_id"`
}
