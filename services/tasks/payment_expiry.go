package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypePaymentExpire = "payment:expire"

// PaymentExpirePayload identifies the session to expire.
type PaymentExpirePayload struct {
	SessionID string `json:"sessionId"`
}

// NewPaymentExpireTask builds a deferred task that fails a payment session
// still non-terminal after the given delay.
func NewPaymentExpireTask(sessionID string, delay time.Duration) (*asynq.Task, []asynq.Option, error) {
	b, err := json.Marshal(PaymentExpirePayload{SessionID: sessionID})
	if err != nil {
		return nil, nil, err
	}
	task := asynq.NewTask(TypePaymentExpire, b)
	opts := []asynq.Option{asynq.ProcessIn(delay)}
	return task, opts, nil
}

// Scheduler enqueues deferred tasks through asynq.
type Scheduler struct {
	Client *asynq.Client
}

func NewScheduler(client *asynq.Client) *Scheduler {
	return &Scheduler{Client: client}
}

// ScheduleExpiry enqueues a payment session expiry to fire after delay.
func (s *Scheduler) ScheduleExpiry(sessionID string, delay time.Duration) error {
	task, opts, err := NewPaymentExpireTask(sessionID, delay)
	if err != nil {
		return err
	}
	_, err = s.Client.Enqueue(task, opts...)
	return err
}
