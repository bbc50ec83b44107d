package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"carvia/config"
	"carvia/services/payment"
	"carvia/services/tasks"

	"github.com/hibiken/asynq"
)

// InitPaymentExpiryWorker runs the async worker in background. It processes
// deferred payment-session expiry tasks scheduled at initiation time.
func InitPaymentExpiryWorker(adapter *payment.Adapter) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypePaymentExpire, handlePaymentExpireTask(adapter))

	// Start async worker with retry logic.
	go func() {
		log.Println("[PaymentExpiryWorker] starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[PaymentExpiryWorker] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[PaymentExpiryWorker] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handlePaymentExpireTask(adapter *payment.Adapter) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.PaymentExpirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[PaymentExpiry] invalid payload: %v", err)
			return err
		}
		return adapter.ExpireSession(ctx, p.SessionID)
	}
}
