package report

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garrison-sh/garrison/pkg/types"
)

func TestSend_PostsResult(t *testing.T) {
	var received payload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &received))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	result := types.Result{
		Action:         types.ActionSFTPUpdate,
		SubscriptionID: "sub-1",
		Status:         types.StatusCompleted,
		Success:        true,
	}
	err := NewReporter(server.URL).Send(context.Background(), result)
	require.NoError(t, err)

	assert.Equal(t, "sub-1", received.Result.SubscriptionID)
	assert.Equal(t, types.StatusCompleted, received.Result.Status)
	assert.False(t, received.ReportedAt.IsZero())
	_, err = uuid.Parse(received.ReportID)
	assert.NoError(t, err)
}

func TestSend_CollectorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	err := NewReporter(server.URL).Send(context.Background(), types.Result{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestSend_DisabledWithoutURL(t *testing.T) {
	err := NewReporter("").Send(context.Background(), types.Result{})
	assert.NoError(t, err)
}
