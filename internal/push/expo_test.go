package push

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karli2122/Loan-management-and-locker-sub000/internal/config"
)

func TestValidToken(t *testing.T) {
	assert.True(t, ValidToken("ExponentPushToken[abc123]"))
	assert.False(t, ValidToken(""))
	assert.False(t, ValidToken("abc123"))
	assert.False(t, ValidToken("ExponentPushToken[abc123"))
	assert.False(t, ValidToken("FCMToken[abc123]"))
}

func newExpoClient(endpoint string) *ExpoClient {
	return NewExpoClient(config.PushConfig{
		Endpoint: endpoint,
		Timeout:  5 * time.Second,
	}, zap.NewNop())
}

func TestSendFiltersInvalidTokens(t *testing.T) {
	var received []Message
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := newExpoClient(srv.URL)
	err := client.Send(context.Background(), []Message{
		{To: "ExponentPushToken[ok]", Title: "Payment due", Body: "EMI of 100 due today"},
		{To: "not-a-token", Title: "dropped", Body: "dropped"},
	})
	require.NoError(t, err)

	require.Len(t, received, 1)
	assert.Equal(t, "ExponentPushToken[ok]", received[0].To)
	assert.Equal(t, "default", received[0].Sound)
}

func TestSendSkipsEmptyBatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("no request expected for an all-invalid batch")
	}))
	defer srv.Close()

	client := newExpoClient(srv.URL)
	err := client.Send(context.Background(), []Message{{To: "bogus"}})
	assert.NoError(t, err)
}

func TestSendGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := newExpoClient(srv.URL)
	err := client.Send(context.Background(), []Message{{To: "ExponentPushToken[ok]"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
