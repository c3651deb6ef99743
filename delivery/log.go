package delivery

import (
	"context"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/logging"
	"github.com/MrEthical07/goIdentity/otp"
	"go.uber.org/zap"
)

// LogDeliverer writes deliveries to a logger instead of sending them.
// Codes are only written when RevealCodes is set.
type LogDeliverer struct {
	logger      *zap.Logger
	RevealCodes bool
}

// NewLogDeliverer returns a LogDeliverer writing to logger (Nop when nil).
func NewLogDeliverer(logger *zap.Logger) *LogDeliverer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LogDeliverer{logger: logger.Named("delivery")}
}

func (d *LogDeliverer) SendVerificationCode(ctx context.Context, dst account.Destination, code string, purpose otp.Purpose) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	fields := []zap.Field{
		zap.String("channel", string(dst.Channel)),
		zap.String("to", logging.Redact(dst.Address)),
		zap.String("purpose", string(purpose)),
	}
	if d.RevealCodes {
		fields = append(fields, zap.String("code", code))
	}
	d.logger.Info("verification code", fields...)
	return nil
}

func (d *LogDeliverer) SendWelcome(ctx context.Context, dst account.Destination, accountID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.logger.Info("welcome",
		zap.String("channel", string(dst.Channel)),
		zap.String("to", logging.Redact(dst.Address)),
		zap.String("account_id", accountID),
	)
	return nil
}
