package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Rik-van-de-Laar/ChronoZoom/application/ports"
	"github.com/Rik-van-de-Laar/ChronoZoom/infrastructure/persistence/memory"
	apperrors "github.com/Rik-van-de-Laar/ChronoZoom/pkg/errors"
)

func testPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts:       10,
		Interval:       time.Millisecond,
		Timeout:        time.Second,
		BreakerTrips:   100,
		BreakerTimeout: time.Second,
	}
}

func newWrapped(t *testing.T, policy RetryPolicy) (*memory.Store, ports.Store) {
	t.Helper()
	inner := memory.NewStore()
	return inner, Wrap(inner, NewExecutor(t.Name(), policy, zap.NewNop()))
}

func TestWrap_PreservesSubtreeProcedure(t *testing.T) {
	_, wrapped := newWrapped(t, testPolicy())
	_, ok := wrapped.(ports.SubtreeProcedure)
	assert.True(t, ok)
}

func TestRetry_RecoversFromTransientFailures(t *testing.T) {
	inner, wrapped := newWrapped(t, testPolicy())

	failures := 3
	inner.SetFault(func(op string) error {
		if failures > 0 {
			failures--
			return apperrors.NewUnavailableError("dynamodb")
		}
		return nil
	})

	_, err := wrapped.Timelines().GetByID(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 4, inner.Calls("timelines.GetByID"))
}

func TestRetry_ExhaustsAttempts(t *testing.T) {
	inner, wrapped := newWrapped(t, testPolicy())
	inner.SetFault(func(op string) error {
		return &types.ProvisionedThroughputExceededException{}
	})

	_, err := wrapped.Bitmasks().List(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.IsStoreFailure(err))
	assert.Equal(t, 10, inner.Calls("bitmasks.List"))

	var throughput *types.ProvisionedThroughputExceededException
	assert.True(t, errors.As(err, &throughput))
}

func TestRetry_PermanentErrorsAreNotRetried(t *testing.T) {
	inner, wrapped := newWrapped(t, testPolicy())

	err := wrapped.Timelines().Delete(context.Background(), uuid.New())
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Equal(t, 1, inner.Calls("timelines.Delete"))
}

func TestRetry_StopsWhenContextCancelled(t *testing.T) {
	policy := testPolicy()
	policy.Interval = time.Hour
	inner, wrapped := newWrapped(t, policy)
	inner.SetFault(func(op string) error {
		return apperrors.NewTimeoutError(op)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := wrapped.Triples().FindByObject(ctx, "t123")
	require.Error(t, err)
	assert.True(t, apperrors.IsTimeout(err))
	assert.Equal(t, 1, inner.Calls("triples.FindByObject"))
}

func TestBreaker_OpensAfterConsecutiveFailures(t *testing.T) {
	policy := testPolicy()
	policy.Attempts = 1
	policy.BreakerTrips = 2
	policy.BreakerTimeout = time.Minute
	inner, wrapped := newWrapped(t, policy)
	inner.SetFault(func(op string) error {
		return apperrors.NewUnavailableError("dynamodb")
	})

	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := wrapped.Collections().GetByID(ctx, uuid.New())
		assert.True(t, apperrors.IsStoreFailure(err))
	}

	_, err := wrapped.Collections().GetByID(ctx, uuid.New())
	assert.True(t, apperrors.IsUnavailable(err))
	assert.Equal(t, 2, inner.Calls("collections.GetByID"))
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"deadline", context.DeadlineExceeded, true},
		{"not found", apperrors.NewNotFoundError("timeline"), false},
		{"validation", apperrors.NewValidationError("bad"), false},
		{"unavailable", apperrors.NewUnavailableError("store"), true},
		{"request limit", &types.RequestLimitExceeded{}, true},
		{"internal server", &types.InternalServerError{}, true},
		{"throttling code", &smithy.GenericAPIError{Code: "ThrottlingException"}, true},
		{"server fault", &smithy.GenericAPIError{Code: "Whatever", Fault: smithy.FaultServer}, true},
		{"validation code", &smithy.GenericAPIError{Code: "ValidationException", Fault: smithy.FaultClient}, false},
		{"plain", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTransient(tt.err))
		})
	}
}
