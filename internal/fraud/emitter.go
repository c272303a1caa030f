package fraud

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"
)

// TaskTypeSignal is the asynq task type carrying fraud signals.
const TaskTypeSignal = "fraud:signal"

// QueueSignals is the queue fraud signals are delivered on.
const QueueSignals = "signals"

// Emitter submits signals toward the detector.
type Emitter interface {
	Submit(ctx context.Context, signal Signal) error
}

// AsynqEmitter enqueues signals as background tasks so the primary decision
// path never waits on the detector.
type AsynqEmitter struct {
	client *asynq.Client
}

// NewAsynqEmitter constructs an AsynqEmitter.
func NewAsynqEmitter(client *asynq.Client) *AsynqEmitter {
	return &AsynqEmitter{client: client}
}

// Submit enqueues the signal.
func (e *AsynqEmitter) Submit(ctx context.Context, signal Signal) error {
	if e == nil || e.client == nil {
		return errors.New("fraud: emitter not initialised")
	}
	if signal.BusinessID == "" || signal.Type == "" {
		return errors.New("fraud: signal requires business and type")
	}
	data, err := json.Marshal(signal)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, asynq.NewTask(TaskTypeSignal, data), asynq.Queue(QueueSignals))
	return err
}

// Try submits the signal and swallows any failure after logging it.
func Try(ctx context.Context, logger *slog.Logger, emitter Emitter, signal Signal) {
	if emitter == nil {
		return
	}
	if err := emitter.Submit(ctx, signal); err != nil && logger != nil {
		logger.Warn("fraud signal dropped",
			slog.String("type", signal.Type),
			slog.String("business_id", signal.BusinessID),
			slog.Any("error", err))
	}
}

var _ Emitter = (*AsynqEmitter)(nil)
