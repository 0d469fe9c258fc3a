package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pnodewatch/config"
	"pnodewatch/models"
)

func testPRPCConfig(endpoint string) *config.Config {
	cfg := &config.Config{}
	cfg.PRPC.MainnetEndpoint = endpoint
	cfg.PRPC.Timeout = 2
	cfg.PRPC.MaxRetries = 3
	cfg.PRPC.BackoffBase = 1
	cfg.PRPC.BackoffCap = 8
	return cfg
}

// newTestClient disables real sleeping so retry tests run instantly.
func newTestClient(cfg *config.Config) (*PRPCClient, *[]time.Duration) {
	client := NewPRPCClient(cfg)
	var delays []time.Duration
	client.sleep = func(d time.Duration) {
		delays = append(delays, d)
	}
	return client, &delays
}

func podsResult(t *testing.T) json.RawMessage {
	t.Helper()
	result, err := json.Marshal(models.PodsResponse{
		Pods: []models.Pod{
			{
				Pubkey:            "ABCDEFGH12",
				Address:           "1.2.3.4:9001",
				Uptime:            86400,
				LastSeenTimestamp: 1000,
			},
		},
		TotalCount: 1,
	})
	if err != nil {
		t.Fatalf("marshal pods: %v", err)
	}
	return result
}

func TestFetchPods_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req models.RPCRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("Failed to decode request: %v", err)
		}
		if req.Method != "get-pods-with-stats" {
			t.Errorf("Expected method 'get-pods-with-stats', got '%s'", req.Method)
		}
		if req.JSONRPC != "2.0" {
			t.Errorf("Expected JSON-RPC 2.0 envelope, got '%s'", req.JSONRPC)
		}

		json.NewEncoder(w).Encode(models.RPCResponse{
			JSONRPC: "2.0",
			Result:  podsResult(t),
			ID:      req.ID,
		})
	}))
	defer server.Close()

	client, _ := newTestClient(testPRPCConfig(server.URL))

	pods, responseTime, err := client.FetchPods(context.Background(), "mainnet")
	if err != nil {
		t.Fatalf("FetchPods failed: %v", err)
	}
	if len(pods.Pods) != 1 {
		t.Errorf("Expected 1 pod, got %d", len(pods.Pods))
	}
	if responseTime < 0 {
		t.Errorf("Expected non-negative response time, got %d", responseTime)
	}
}

func TestFetchPods_RetryThenSuccess(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(models.RPCResponse{
			JSONRPC: "2.0",
			Result:  podsResult(t),
			ID:      1,
		})
	}))
	defer server.Close()

	client, delays := newTestClient(testPRPCConfig(server.URL))

	_, _, err := client.FetchPods(context.Background(), "mainnet")
	if err != nil {
		t.Fatalf("Expected success after retry, got error: %v", err)
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}

	// Backoff doubles: 1s then 2s
	want := []time.Duration{1 * time.Second, 2 * time.Second}
	if len(*delays) != len(want) {
		t.Fatalf("Expected %d sleeps, got %d", len(want), len(*delays))
	}
	for i, d := range want {
		if (*delays)[i] != d {
			t.Errorf("sleep %d: got %v, want %v", i, (*delays)[i], d)
		}
	}
}

func TestFetchPods_RetriesExhausted(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client, _ := newTestClient(testPRPCConfig(server.URL))

	_, _, err := client.FetchPods(context.Background(), "mainnet")
	if err == nil {
		t.Fatal("Expected error after exhausting retries, got nil")
	}
	if attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", attempts)
	}

	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FetchError, got %T", err)
	}
	if !fe.Retryable {
		t.Error("Exhausted 5xx failure should still report retryable")
	}
	if fe.UserMessage == "" {
		t.Error("Expected a user-facing message")
	}
}

func TestFetchPods_404NoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client, delays := newTestClient(testPRPCConfig(server.URL))

	_, _, err := client.FetchPods(context.Background(), "mainnet")
	if err == nil {
		t.Fatal("Expected error for 404, got nil")
	}
	if attempts != 1 {
		t.Errorf("Expected exactly 1 attempt for 4xx, got %d", attempts)
	}
	if len(*delays) != 0 {
		t.Errorf("Expected no backoff sleeps, got %d", len(*delays))
	}

	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FetchError, got %T", err)
	}
	if fe.Retryable {
		t.Error("4xx must be non-retryable")
	}
}

func TestFetchPods_RPCErrorNoRetry(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		json.NewEncoder(w).Encode(models.RPCResponse{
			JSONRPC: "2.0",
			Error: &models.RPCError{
				Code:    -32601,
				Message: "Method not found",
			},
			ID: 1,
		})
	}))
	defer server.Close()

	client, _ := newTestClient(testPRPCConfig(server.URL))

	_, _, err := client.FetchPods(context.Background(), "mainnet")
	if err == nil {
		t.Fatal("Expected error for RPC error, got nil")
	}
	if attempts != 1 {
		t.Errorf("Expected 1 attempt for RPC-level error, got %d", attempts)
	}
}

func TestFetchPods_MalformedResultNoRetry(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(models.RPCResponse{
			JSONRPC: "2.0",
			Result:  json.RawMessage(`{"pods": "not-an-array"}`),
			ID:      1,
		})
	}))
	defer server.Close()

	client, _ := newTestClient(testPRPCConfig(server.URL))

	_, _, err := client.FetchPods(context.Background(), "mainnet")
	if err == nil {
		t.Fatal("Expected parse failure, got nil")
	}

	var fe *models.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Expected FetchError, got %T", err)
	}
	if fe.Retryable {
		t.Error("Parse failure must be non-retryable")
	}
}

func TestFetchPods_UnconfiguredNetwork(t *testing.T) {
	client, _ := newTestClient(testPRPCConfig(""))

	_, _, err := client.FetchPods(context.Background(), "devnet")
	if err == nil {
		t.Fatal("Expected error for unconfigured network, got nil")
	}
}
