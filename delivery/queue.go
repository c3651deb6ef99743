package delivery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MrEthical07/goIdentity/account"
	"github.com/MrEthical07/goIdentity/otp"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Enqueuer is the subset of *asynq.Client used by QueueDeliverer.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueConfig tunes enqueued tasks.
type QueueConfig struct {
	Queue    string        `env:"QUEUE" envDefault:"identity"`
	MaxRetry int           `env:"MAX_RETRY" envDefault:"5"`
	Timeout  time.Duration `env:"TIMEOUT" envDefault:"30s"`
	// WelcomeRetention keeps completed welcome tasks so a duplicate enqueue
	// for the same account is still rejected after completion.
	WelcomeRetention time.Duration `env:"WELCOME_RETENTION" envDefault:"24h"`
}

// QueueDeliverer enqueues deliveries as asynq tasks.
type QueueDeliverer struct {
	client Enqueuer
	cfg    QueueConfig
	logger *zap.Logger
}

// NewQueueDeliverer wraps client. Zero config fields take the envDefault values.
func NewQueueDeliverer(client Enqueuer, cfg QueueConfig, logger *zap.Logger) *QueueDeliverer {
	if cfg.Queue == "" {
		cfg.Queue = "identity"
	}
	if cfg.MaxRetry <= 0 {
		cfg.MaxRetry = 5
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.WelcomeRetention <= 0 {
		cfg.WelcomeRetention = 24 * time.Hour
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDeliverer{client: client, cfg: cfg, logger: logger.Named("delivery")}
}

func (q *QueueDeliverer) SendVerificationCode(ctx context.Context, dst account.Destination, code string, purpose otp.Purpose) error {
	body, err := json.Marshal(CodePayload{Destination: dst, Code: code, Purpose: purpose})
	if err != nil {
		return fmt.Errorf("delivery: encode code payload: %w", err)
	}
	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeVerificationCode, body), q.options()...)
	if err != nil {
		return fmt.Errorf("delivery: enqueue verification code: %w", err)
	}
	q.logger.Debug("verification code enqueued", zap.String("task_id", info.ID), zap.String("purpose", string(purpose)))
	return nil
}

// SendWelcome enqueues at most one welcome task per account. A duplicate
// enqueue is treated as success.
func (q *QueueDeliverer) SendWelcome(ctx context.Context, dst account.Destination, accountID string) error {
	body, err := json.Marshal(WelcomePayload{Destination: dst, AccountID: accountID})
	if err != nil {
		return fmt.Errorf("delivery: encode welcome payload: %w", err)
	}
	opts := append(q.options(), asynq.TaskID("welcome:"+accountID), asynq.Retention(q.cfg.WelcomeRetention))
	info, err := q.client.EnqueueContext(ctx, asynq.NewTask(TypeWelcome, body), opts...)
	if err != nil {
		if errors.Is(err, asynq.ErrTaskIDConflict) {
			q.logger.Debug("welcome already enqueued", zap.String("account_id", accountID))
			return nil
		}
		return fmt.Errorf("delivery: enqueue welcome: %w", err)
	}
	q.logger.Debug("welcome enqueued", zap.String("task_id", info.ID), zap.String("account_id", accountID))
	return nil
}

func (q *QueueDeliverer) options() []asynq.Option {
	return []asynq.Option{
		asynq.Queue(q.cfg.Queue),
		asynq.MaxRetry(q.cfg.MaxRetry),
		asynq.Timeout(q.cfg.Timeout),
	}
}
