package models

import "time"

// Node status values. Status is relative to the freshest pod in the batch,
// not wall-clock time: a batch where every pod is stale still marks the
// freshest one online.
const (
	StatusOnline   = "online"
	StatusDegraded = "degraded"
	StatusOffline  = "offline"
)

// Node is the canonical record derived from a raw Pod. Recomputed fresh on
// every poll cycle; nothing here is persisted except periodic snapshots.
type Node struct {
	// Identity
	ID      string `json:"id"`
	Pubkey  string `json:"pubkey"`
	IP      string `json:"ip"`
	Port    int    `json:"port"`
	Address string `json:"address"`
	Network string `json:"network"` // "mainnet" or "devnet"

	// Status
	Status   string    `json:"status"` // online | degraded | offline
	IsPublic bool      `json:"is_public"`
	LastSeen time.Time `json:"last_seen"`

	// Derived metrics
	UptimeSeconds int64   `json:"uptime_seconds"`
	UptimePercent float64 `json:"uptime_percent"`
	HealthScore   int     `json:"health_score"`

	// Storage
	StorageCommitted    int64   `json:"storage_committed"`
	StorageUsed         int64   `json:"storage_used"`
	StorageUsagePercent float64 `json:"storage_usage_percent"`

	// Version
	Version         string `json:"version"`
	VersionStatus   string `json:"version_status"`
	IsUpgradeNeeded bool   `json:"is_upgrade_needed"`
	UpgradeSeverity string `json:"upgrade_severity"`

	// Enrichment (absent unless a match exists)
	Credits     int64   `json:"credits"`
	CreditsRank int     `json:"credits_rank,omitempty"`
	Country     string  `json:"country,omitempty"`
	City        string  `json:"city,omitempty"`
	Lat         float64 `json:"lat,omitempty"`
	Lon         float64 `json:"lon,omitempty"`

	// Round-trip time of the fetch that produced this record (ms)
	ResponseTime int64 `json:"response_time"`
}
