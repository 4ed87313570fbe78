// Package resilience decorates a ports.Store with per-call timeouts, a fixed
// interval retry loop and a circuit breaker.
package resilience

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	apperrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

// RetryPolicy controls how store calls are retried
type RetryPolicy struct {
	Attempts int
	Interval time.Duration
	Timeout  time.Duration

	// Breaker opens after BreakerTrips consecutive transient failures and
	// stays open for BreakerTimeout
	BreakerTrips   uint32
	BreakerTimeout time.Duration
}

// DefaultRetryPolicy returns ten attempts half a second apart
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       10,
		Interval:       500 * time.Millisecond,
		Timeout:        30 * time.Second,
		BreakerTrips:   5,
		BreakerTimeout: 30 * time.Second,
	}
}

// Executor runs store operations under a RetryPolicy
type Executor struct {
	policy  RetryPolicy
	breaker *gobreaker.CircuitBreaker
	logger  *zap.Logger
}

// NewExecutor creates an executor with its own breaker
func NewExecutor(name string, policy RetryPolicy, logger *zap.Logger) *Executor {
	if policy.Attempts < 1 {
		policy.Attempts = 1
	}
	if policy.BreakerTrips == 0 {
		policy.BreakerTrips = 5
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Timeout:     policy.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= policy.BreakerTrips
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Store circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
		// Only transient failures count against the breaker; a miss or a
		// validation error is a healthy answer from the store
		IsSuccessful: func(err error) bool {
			return err == nil || !IsTransient(err)
		},
	})

	return &Executor{policy: policy, breaker: breaker, logger: logger}
}

// Do runs fn until it succeeds, fails permanently or attempts run out
func (e *Executor) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	_, err := call(ctx, e, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func call[T any](ctx context.Context, e *Executor, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	var lastErr error

	for attempt := 1; attempt <= e.policy.Attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, apperrors.NewTimeoutError(op).WithCause(err)
		}

		result, err := e.breaker.Execute(func() (interface{}, error) {
			attemptCtx := ctx
			if e.policy.Timeout > 0 {
				var cancel context.CancelFunc
				attemptCtx, cancel = context.WithTimeout(ctx, e.policy.Timeout)
				defer cancel()
			}
			v, err := fn(attemptCtx)
			return v, err
		})
		if err == nil {
			return result.(T), nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return zero, apperrors.NewUnavailableError("store").WithCause(err)
		}
		if !IsTransient(err) || ctx.Err() != nil {
			return zero, err
		}

		lastErr = err
		e.logger.Warn("Transient store failure, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", e.policy.Attempts),
			zap.Error(err))

		if attempt == e.policy.Attempts {
			break
		}
		timer := time.NewTimer(e.policy.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, apperrors.NewTimeoutError(op).WithCause(ctx.Err())
		case <-timer.C:
		}
	}

	e.logger.Error("Store operation exhausted retries",
		zap.String("operation", op),
		zap.Int("attempts", e.policy.Attempts),
		zap.Error(lastErr))
	return zero, apperrors.NewStoreFailureError(op, e.policy.Attempts, lastErr)
}

// transientCodes are DynamoDB error codes worth another attempt
var transientCodes = map[string]bool{
	"ProvisionedThroughputExceededException": true,
	"RequestLimitExceeded":                   true,
	"ThrottlingException":                    true,
	"InternalServerError":                    true,
	"ServiceUnavailable":                     true,
	"TransactionConflictException":           true,
	"LimitExceededException":                 true,
}

// IsTransient reports whether err is a failure that a later attempt may not see
func IsTransient(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if apperrors.IsTimeout(err) || apperrors.IsUnavailable(err) {
		return true
	}
	if apperrors.IsAppError(err) {
		return false
	}

	var throughput *types.ProvisionedThroughputExceededException
	var requestLimit *types.RequestLimitExceeded
	var internal *types.InternalServerError
	if errors.As(err, &throughput) || errors.As(err, &requestLimit) || errors.As(err, &internal) {
		return true
	}

	var ae smithy.APIError
	if errors.As(err, &ae) {
		return transientCodes[ae.ErrorCode()] || ae.ErrorFault() == smithy.FaultServer
	}
	return false
}

func opName(repo, method string) string {
	return fmt.Sprintf("%s.%s", repo, method)
}
