package models

import "time"

const (
	RuleNodeOffline   = "node_offline"
	RuleNetworkHealth = "network_health"
)

// AlertRule is a monitoring rule evaluated against each poll cycle.
type AlertRule struct {
	ID        string    `json:"id" bson:"id"`
	Name      string    `json:"name" bson:"name"`
	Enabled   bool      `json:"enabled" bson:"enabled"`
	RuleType  string    `json:"rule_type" bson:"rule_type"` // "node_offline", "network_health"
	Threshold float64   `json:"threshold" bson:"threshold"` // health % for network_health
	NodeID    string    `json:"node_id,omitempty" bson:"node_id,omitempty"`
	Cooldown  int       `json:"cooldown_minutes" bson:"cooldown_minutes"`
	LastFired time.Time `json:"last_fired" bson:"last_fired"`
}

// AlertEvent records a rule firing.
type AlertEvent struct {
	RuleID    string    `json:"rule_id" bson:"rule_id"`
	RuleName  string    `json:"rule_name" bson:"rule_name"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Message   string    `json:"message" bson:"message"`
	Delivered bool      `json:"delivered" bson:"delivered"`
}
