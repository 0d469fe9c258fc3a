package models

import "time"

// NetworkStats represents aggregated network statistics for one poll cycle.
type NetworkStats struct {
	Network string `json:"network"`

	TotalNodes    int `json:"total_nodes"`
	OnlineNodes   int `json:"online_nodes"`
	DegradedNodes int `json:"degraded_nodes"`
	OfflineNodes  int `json:"offline_nodes"`
	PublicNodes   int `json:"public_nodes"`
	PrivateNodes  int `json:"private_nodes"`

	TotalStoragePB float64 `json:"total_storage_pb"`
	UsedStoragePB  float64 `json:"used_storage_pb"`

	AverageUptime      float64 `json:"average_uptime"`
	AverageHealthScore float64 `json:"average_health_score"`
	TotalCredits       int64   `json:"total_credits"`

	NetworkHealth float64 `json:"network_health"` // 0-100

	ResponseTime int64     `json:"response_time"` // ms, proxy round trip
	LastUpdated  time.Time `json:"last_updated"`
}
