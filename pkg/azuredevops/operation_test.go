package azuredevops

import (
	"context"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOperationStatusIsFinished(t *testing.T) {
	assert.False(t, OperationStatusNotSet.IsFinished())
	assert.False(t, OperationStatusQueued.IsFinished())
	assert.False(t, OperationStatusInProgress.IsFinished())
	assert.True(t, OperationStatusSucceeded.IsFinished())
	assert.True(t, OperationStatusFailed.IsFinished())
	assert.True(t, OperationStatusCancelled.IsFinished())
	assert.True(t, OperationStatus("Succeeded").IsFinished())
}

func TestGetOperation(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodGet, "/myorg/_apis/operations/abc-123", http.StatusOK, `{"id":"abc-123","status":"inProgress","pluginId":"p"}`)

	operation, err := fake.client().GetOperation(context.Background(), testToken, "abc-123")
	require.NoError(t, err)
	assert.Equal(t, OperationStatusInProgress, operation.Status)
	assert.Equal(t, "api-version=6.0", fake.received(http.MethodGet)[0].RawQuery)
}

func TestGetOperationNotFound(t *testing.T) {
	fake := newFakeAzureDevops(t)

	_, err := fake.client().GetOperation(context.Background(), testToken, "unknown")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

// operationHandler returns each status in order, then the last one forever
func operationHandler(calls *int32, statuses ...OperationStatus) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		call := int(atomic.AddInt32(calls, 1)) - 1
		if call >= len(statuses) {
			call = len(statuses) - 1
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"id":"abc-123","status":%q,"detailedMessage":"details"}`, statuses[call])
	}
}

func TestWaitForOperation(t *testing.T) {
	cases := []struct {
		name     string
		statuses []OperationStatus
		calls    int32
		err      error
	}{
		{
			name:     "succeeded",
			statuses: []OperationStatus{OperationStatusQueued, OperationStatusInProgress, OperationStatusSucceeded},
			calls:    3,
		},
		{
			name:     "already succeeded",
			statuses: []OperationStatus{OperationStatusSucceeded},
			calls:    1,
		},
		{
			name:     "failed",
			statuses: []OperationStatus{OperationStatusInProgress, OperationStatusFailed},
			calls:    2,
			err:      ErrOperationFailed,
		},
		{
			name:     "cancelled",
			statuses: []OperationStatus{OperationStatusCancelled},
			calls:    1,
			err:      ErrOperationFailed,
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			var calls int32
			fake := newFakeAzureDevops(t)
			fake.handleFunc(http.MethodGet, "/myorg/_apis/operations/abc-123", operationHandler(&calls, c.statuses...))

			operation, err := fake.client().WaitForOperation(context.Background(), testToken, "abc-123")
			if c.err != nil {
				assert.True(t, errors.Is(err, c.err), "expected %v, got %v", c.err, err)
			} else {
				require.NoError(t, err)
			}
			require.NotNil(t, operation)
			assert.Equal(t, c.statuses[len(c.statuses)-1], operation.Status)
			assert.Equal(t, c.calls, atomic.LoadInt32(&calls))
		})
	}
}

func TestWaitForOperationContextDone(t *testing.T) {
	var calls int32
	fake := newFakeAzureDevops(t)
	fake.handleFunc(http.MethodGet, "/myorg/_apis/operations/abc-123", operationHandler(&calls, OperationStatusInProgress))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	operation, err := fake.client().WaitForOperation(ctx, testToken, "abc-123")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled), "unexpected error %v", err)
	if operation != nil {
		assert.Equal(t, OperationStatusInProgress, operation.Status)
	}
	assert.True(t, atomic.LoadInt32(&calls) >= 1)
}

func TestWaitForOperationRequestError(t *testing.T) {
	fake := newFakeAzureDevops(t)
	fake.handle(http.MethodGet, "/myorg/_apis/operations/abc-123", http.StatusUnauthorized, `{"message":"Access denied"}`)

	_, err := fake.client().WaitForOperation(context.Background(), testToken, "abc-123")
	require.Error(t, err)

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusUnauthorized, httpErr.StatusCode)
	assert.Len(t, fake.received(http.MethodGet), 1)
}
