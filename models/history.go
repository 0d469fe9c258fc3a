package models

import "time"

// NetworkSnapshot is one append-only record of aggregate network state,
// written once per interval to the snapshot store for trend charts.
type NetworkSnapshot struct {
	Timestamp      time.Time `json:"timestamp" bson:"timestamp"`
	Network        string    `json:"network" bson:"network"`
	TotalNodes     int       `json:"total_nodes" bson:"total_nodes"`
	OnlineNodes    int       `json:"online_nodes" bson:"online_nodes"`
	DegradedNodes  int       `json:"degraded_nodes" bson:"degraded_nodes"`
	OfflineNodes   int       `json:"offline_nodes" bson:"offline_nodes"`
	TotalStoragePB float64   `json:"total_storage_pb" bson:"total_storage_pb"`
	UsedStoragePB  float64   `json:"used_storage_pb" bson:"used_storage_pb"`
	NetworkHealth  float64   `json:"network_health" bson:"network_health"`
	AverageUptime  float64   `json:"average_uptime" bson:"average_uptime"`
	AverageHealth  float64   `json:"average_health_score" bson:"average_health_score"`
}

// NodeSnapshot is one node's derived state at a point in time.
type NodeSnapshot struct {
	Timestamp     time.Time `json:"timestamp" bson:"timestamp"`
	NodeID        string    `json:"node_id" bson:"node_id"`
	Status        string    `json:"status" bson:"status"`
	UptimePercent float64   `json:"uptime_percent" bson:"uptime_percent"`
	HealthScore   int       `json:"health_score" bson:"health_score"`
	StorageUsed   int64     `json:"storage_used" bson:"storage_used"`
	Credits       int64     `json:"credits" bson:"credits"`
}
