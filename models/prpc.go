package models

import (
	"encoding/json"
	"fmt"
)

// JSON-RPC 2.0 Request
type RPCRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
	ID      int         `json:"id"`
}

// JSON-RPC 2.0 Response
type RPCResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      int             `json:"id"`
}

// JSON-RPC 2.0 Error
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

// ============================================
// get-pods-with-stats result
// ============================================

type PodsResponse struct {
	Pods       []Pod `json:"pods"`
	TotalCount int   `json:"total_count"`
}

// Pod is the raw telemetry record gossiped for a single pNode.
// Pubkey may be empty for pods that have not yet announced an identity.
type Pod struct {
	Address             string  `json:"address"`
	Pubkey              string  `json:"pubkey"`
	RpcPort             int     `json:"rpc_port,omitempty"`
	IsPublic            bool    `json:"is_public,omitempty"`
	Version             string  `json:"version,omitempty"`
	LastSeenTimestamp   int64   `json:"last_seen_timestamp"`
	StorageCommitted    int64   `json:"storage_committed,omitempty"`
	StorageUsed         int64   `json:"storage_used,omitempty"`
	StorageUsagePercent float64 `json:"storage_usage_percent,omitempty"`
	Uptime              int64   `json:"uptime,omitempty"`
}

// Validate rejects payloads that do not match the upstream contract, so a
// silent API change fails fast instead of producing zeroed node records.
func (pr *PodsResponse) Validate() error {
	if pr.Pods == nil {
		return fmt.Errorf("pods response missing 'pods' array")
	}
	for i, pod := range pr.Pods {
		if pod.Address == "" {
			return fmt.Errorf("pod %d: missing address", i)
		}
		if pod.Uptime < 0 {
			return fmt.Errorf("pod %d (%s): negative uptime %d", i, pod.Address, pod.Uptime)
		}
		if pod.StorageUsagePercent < 0 || pod.StorageUsagePercent > 100 {
			return fmt.Errorf("pod %d (%s): storage usage %.2f out of range", i, pod.Address, pod.StorageUsagePercent)
		}
	}
	return nil
}

// ============================================
// get-version result
// ============================================

type VersionResponse struct {
	Version string `json:"version"`
}
