package delivery

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// Worker consumes delivery tasks and forwards them to a Sender.
type Worker struct {
	sender Sender
	logger *zap.Logger
}

// NewWorker returns a Worker dispatching to sender.
func NewWorker(sender Sender, logger *zap.Logger) *Worker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Worker{sender: sender, logger: logger.Named("delivery.worker")}
}

// Register installs the task handlers on mux.
func (w *Worker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeVerificationCode, w.HandleVerificationCode)
	mux.HandleFunc(TypeWelcome, w.HandleWelcome)
}

// ServeMux returns a new mux with the handlers registered.
func (w *Worker) ServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	w.Register(mux)
	return mux
}

// HandleVerificationCode sends a queued code. Undecodable payloads are not retried.
func (w *Worker) HandleVerificationCode(ctx context.Context, task *asynq.Task) error {
	var p CodePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	if p.Destination.Address == "" || p.Code == "" {
		return fmt.Errorf("incomplete %s payload: %w", task.Type(), asynq.SkipRetry)
	}
	if err := w.sender.SendVerificationCode(ctx, p.Destination, p.Code, p.Purpose); err != nil {
		w.logger.Warn("verification code send failed", zap.String("purpose", string(p.Purpose)), zap.Error(err))
		return err
	}
	return nil
}

// HandleWelcome sends a queued welcome notice.
func (w *Worker) HandleWelcome(ctx context.Context, task *asynq.Task) error {
	var p WelcomePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return fmt.Errorf("decode %s payload: %v: %w", task.Type(), err, asynq.SkipRetry)
	}
	if p.Destination.Address == "" || p.AccountID == "" {
		return fmt.Errorf("incomplete %s payload: %w", task.Type(), asynq.SkipRetry)
	}
	if err := w.sender.SendWelcome(ctx, p.Destination, p.AccountID); err != nil {
		w.logger.Warn("welcome send failed", zap.String("account_id", p.AccountID), zap.Error(err))
		return err
	}
	return nil
}
