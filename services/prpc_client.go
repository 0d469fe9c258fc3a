package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"pnodewatch/config"
	"pnodewatch/models"
)

// PRPCClient issues JSON-RPC 2.0 calls to the seed-node proxy. Transport
// failures and 5xx responses are retried with exponential backoff; 4xx and
// RPC-level errors propagate immediately.
type PRPCClient struct {
	cfg        *config.Config
	httpClient *http.Client

	// sleep is overridable so retry timing is testable.
	sleep func(time.Duration)
}

func NewPRPCClient(cfg *config.Config) *PRPCClient {
	return &PRPCClient{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.PRPCTimeoutDuration(),
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     30 * time.Second,
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
			},
		},
		sleep: time.Sleep,
	}
}

// Call sends one JSON-RPC request under the retry policy: up to MaxRetries
// attempts, backoff starting at BackoffBase and doubling up to BackoffCap.
func (c *PRPCClient) Call(ctx context.Context, endpoint, method string, params interface{}) (*models.RPCResponse, error) {
	reqBody := models.RPCRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, models.NewPermanentError("prpc", "failed to marshal request", "Internal request error.", err)
	}

	maxAttempts := c.cfg.PRPC.MaxRetries
	if maxAttempts <= 0 {
		maxAttempts = 1
	}
	delay := time.Duration(c.cfg.PRPC.BackoffBase) * time.Second
	if delay <= 0 {
		delay = time.Second
	}
	maxDelay := time.Duration(c.cfg.PRPC.BackoffCap) * time.Second
	if maxDelay <= 0 {
		maxDelay = 8 * time.Second
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := c.doCall(ctx, endpoint, jsonData)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var fe *models.FetchError
		if !errors.As(err, &fe) || !fe.Retryable {
			return nil, err
		}

		if attempt < maxAttempts {
			c.sleep(delay)
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
			}
		}
	}

	return nil, lastErr
}

func (c *PRPCClient) doCall(ctx context.Context, endpoint string, jsonData []byte) (*models.RPCResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return nil, models.NewPermanentError("prpc", "failed to create request", "Internal request error.", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, models.NewRetryableError("prpc",
			fmt.Sprintf("request to %s failed", endpoint),
			"Could not reach the seed node. Retrying...", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return nil, models.NewRetryableError("prpc",
			fmt.Sprintf("server error %d from %s", resp.StatusCode, endpoint),
			"The seed node is having trouble. Retrying...", nil)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, models.NewPermanentError("prpc",
			fmt.Sprintf("http error %d from %s", resp.StatusCode, endpoint),
			"The seed node rejected the request.", nil)
	}

	var rpcResp models.RPCResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpcResp); err != nil {
		return nil, models.NewPermanentError("prpc", "failed to decode response",
			"The seed node returned an unexpected response.", err)
	}

	if rpcResp.Error != nil {
		return nil, models.NewPermanentError("prpc",
			fmt.Sprintf("rpc error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message),
			"The seed node rejected the request.", nil)
	}

	return &rpcResp, nil
}

// FetchPods fetches the raw pod batch for one network and reports the
// observed round-trip time in milliseconds.
func (c *PRPCClient) FetchPods(ctx context.Context, network string) (*models.PodsResponse, int64, error) {
	endpoint := c.cfg.PRPCEndpoint(network)
	if endpoint == "" {
		return nil, 0, models.NewPermanentError("prpc",
			fmt.Sprintf("no endpoint configured for network %q", network),
			"This network is not configured.", nil)
	}

	start := time.Now()
	resp, err := c.Call(ctx, endpoint, "get-pods-with-stats", nil)
	responseTime := time.Since(start).Milliseconds()
	if err != nil {
		return nil, responseTime, err
	}

	var podsResp models.PodsResponse
	if err := json.Unmarshal(resp.Result, &podsResp); err != nil {
		return nil, responseTime, models.NewPermanentError("prpc", "failed to unmarshal pods result",
			"The seed node returned an unexpected response.", err)
	}
	if err := podsResp.Validate(); err != nil {
		return nil, responseTime, models.NewPermanentError("prpc", "pods result failed validation",
			"The seed node returned an unexpected response.", err)
	}

	return &podsResp, responseTime, nil
}
