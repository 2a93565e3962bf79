package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/messages", r.URL.Path)
		require.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req sendRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "+447700900001", req.From)
		assert.Equal(t, "+447700900000", req.To)
		assert.Equal(t, "hi", req.Body)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(SendResult{SID: "SM123", Status: "queued"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", "+447700900001")

	res, err := c.Send(context.Background(), "+447700900000", "hi")
	require.NoError(t, err)
	assert.Equal(t, "SM123", res.SID)
	assert.Equal(t, "queued", res.Status)
}

func TestClient_Send_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"message": "invalid destination number"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "test-token", "+447700900001")

	_, err := c.Send(context.Background(), "not-a-number", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid destination number")
}

func TestClient_Send_Unreachable(t *testing.T) {
	c := NewClient("http://127.0.0.1:1", "test-token", "+447700900001")

	_, err := c.Send(context.Background(), "+447700900000", "hi")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sms gateway request")
}
