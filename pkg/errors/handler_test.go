package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stoppedEarly struct {
	done []string
	err  error
}

func (e *stoppedEarly) Error() string { return "stopped early: " + e.err.Error() }
func (e *stoppedEarly) Unwrap() error { return e.err }
func (e *stoppedEarly) PartialDetails() map[string]interface{} {
	return map[string]interface{}{"done": e.done}
}

func handle(t *testing.T, err error) (int, ErrorResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/timelines/x", nil)
	NewErrorHandler(zap.NewNop(), false).Handle(rec, req, err)

	var response ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &response), rec.Body.String())
	return rec.Code, response
}

func TestErrorHandler_Handle(t *testing.T) {
	t.Run("app error", func(t *testing.T) {
		status, response := handle(t, fmt.Errorf("lookup: %w", NewNotFoundError("timeline 1")))
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, string(ErrorTypeNotFound), response.Type)
		assert.Equal(t, "timeline 1 not found", response.Message)
	})

	t.Run("plain error", func(t *testing.T) {
		status, response := handle(t, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, string(ErrorTypeInternal), response.Type)
		assert.Equal(t, "An internal error occurred", response.Message)
	})
}

func TestErrorHandler_HandlePartial(t *testing.T) {
	t.Run("plain cause", func(t *testing.T) {
		err := fmt.Errorf("delete: %w", &stoppedEarly{done: []string{"a"}, err: errors.New("connection reset")})

		status, response := handle(t, err)
		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, string(ErrorTypeCascade), response.Type)
		assert.Equal(t, true, response.Details["partial"])
		assert.Equal(t, []interface{}{"a"}, response.Details["done"])
	})

	t.Run("app error cause", func(t *testing.T) {
		cause := NewStoreFailureError("timelines.Delete", 3, errors.New("throttled")).
			WithDetails(map[string]interface{}{"table": "chronozoom"})
		err := &stoppedEarly{done: []string{"a", "b"}, err: cause}

		status, response := handle(t, err)
		assert.Equal(t, http.StatusServiceUnavailable, status)
		assert.Equal(t, string(ErrorTypeStoreFailure), response.Type)
		assert.Equal(t, "chronozoom", response.Details["table"])
		assert.Equal(t, []interface{}{"a", "b"}, response.Details["done"])

		// The cause keeps its own details
		assert.Equal(t, map[string]interface{}{"table": "chronozoom"}, cause.Details)
	})
}
