package utils

import (
	"testing"

	"pnodewatch/models"
)

func TestNodeStatus(t *testing.T) {
	tests := []struct {
		name        string
		lastSeen    int64
		maxLastSeen int64
		want        string
	}{
		{"fresh pod", 1000, 1000, models.StatusOnline},
		{"exactly 60s behind", 940, 1000, models.StatusOnline},
		{"61s behind", 939, 1000, models.StatusDegraded},
		{"exactly 300s behind", 700, 1000, models.StatusDegraded},
		{"301s behind", 699, 1000, models.StatusOffline},
		{"very stale", 0, 1000, models.StatusOffline},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NodeStatus(tt.lastSeen, tt.maxLastSeen)
			if got != tt.want {
				t.Errorf("NodeStatus(%d, %d) = %s, want %s", tt.lastSeen, tt.maxLastSeen, got, tt.want)
			}
		})
	}
}

func TestUptimePercent(t *testing.T) {
	// Full 24h of uptime while online -> 100%
	if got := UptimePercent(86400, 1000, 1000, models.StatusOnline); got != 100.0 {
		t.Errorf("full window online: got %.1f, want 100.0", got)
	}

	// More than 24h still caps at 100
	if got := UptimePercent(172800, 1000, 1000, models.StatusOnline); got != 100.0 {
		t.Errorf("over window online: got %.1f, want 100.0", got)
	}

	// Half window online
	if got := UptimePercent(43200, 1000, 1000, models.StatusOnline); got != 50.0 {
		t.Errorf("half window: got %.1f, want 50.0", got)
	}

	// Offline pod: staleness penalty applies.
	// 600s behind with full uptime -> 100 - 600/86400*100 = 99.3
	if got := UptimePercent(86400, 400, 1000, models.StatusOffline); got != 99.3 {
		t.Errorf("offline penalty: got %.1f, want 99.3", got)
	}

	// Penalty floors at zero
	if got := UptimePercent(3600, 0, 100000, models.StatusOffline); got != 0.0 {
		t.Errorf("floored: got %.1f, want 0.0", got)
	}

	// Penalty decreases monotonically with staleness
	prev := 101.0
	for _, lastSeen := range []int64{900, 700, 400, 100} {
		got := UptimePercent(86400, lastSeen, 1000, models.StatusOffline)
		if got >= prev {
			t.Errorf("uptime should strictly decrease: lastSeen=%d got %.1f, prev %.1f", lastSeen, got, prev)
		}
		prev = got
	}
}

func TestHealthScore(t *testing.T) {
	// Fully healthy pod: 40 status + 30 uptime + 10 committed + 10 usage + 5 version + 5 pubkey
	pod := &models.Pod{
		Pubkey:              "ABCDEFGH12",
		Address:             "1.2.3.4:9001",
		Uptime:              86400,
		StorageCommitted:    100,
		StorageUsagePercent: 50,
		Version:             "1.2.3",
		LastSeenTimestamp:   1000,
	}
	if got := HealthScore(pod, models.StatusOnline); got != 100 {
		t.Errorf("healthy pod: got %d, want 100", got)
	}

	// Degraded status drops the status weight to 20
	if got := HealthScore(pod, models.StatusDegraded); got != 80 {
		t.Errorf("degraded pod: got %d, want 80", got)
	}

	// Offline loses the whole status weight
	if got := HealthScore(pod, models.StatusOffline); got != 60 {
		t.Errorf("offline pod: got %d, want 60", got)
	}

	// High storage usage gets the reduced bonus
	busy := *pod
	busy.StorageUsagePercent = 90
	if got := HealthScore(&busy, models.StatusOnline); got != 95 {
		t.Errorf("90%% usage: got %d, want 95", got)
	}

	// Critical usage gets no usage bonus
	full := *pod
	full.StorageUsagePercent = 97
	if got := HealthScore(&full, models.StatusOnline); got != 90 {
		t.Errorf("97%% usage: got %d, want 90", got)
	}

	// Deterministic: identical inputs, identical outputs
	a := HealthScore(pod, models.StatusOnline)
	b := HealthScore(pod, models.StatusOnline)
	if a != b {
		t.Errorf("not deterministic: %d vs %d", a, b)
	}

	// Always in [0,100]
	empty := &models.Pod{}
	if got := HealthScore(empty, models.StatusOffline); got < 0 || got > 100 {
		t.Errorf("score out of range: %d", got)
	}
}

func TestNodeID(t *testing.T) {
	id := NodeID("ABCDEFGH12", "1.2.3.4:9001")
	if id != "ABCDEFGH-3.4" {
		t.Errorf("got %s, want ABCDEFGH-3.4", id)
	}

	// Short pubkey keeps its full length
	if got := NodeID("ABC", "1.2.3.4:9001"); got != "ABC-3.4" {
		t.Errorf("short pubkey: got %s, want ABC-3.4", got)
	}

	// Pubkey-less pods get a placeholder that is stable across calls
	a := NodeID("", "5.6.7.8:9001")
	b := NodeID("", "5.6.7.8:9001")
	if a != b {
		t.Errorf("placeholder id not deterministic: %s vs %s", a, b)
	}
	if len(a) != len("unknown-")+6 {
		t.Errorf("unexpected placeholder shape: %s", a)
	}

	// Different addresses produce different placeholders
	if c := NodeID("", "9.9.9.9:9001"); c == a {
		t.Errorf("placeholder collision: %s", c)
	}
}

func TestNormalizePods(t *testing.T) {
	pods := []models.Pod{
		{
			Pubkey:              "ABCDEFGH12",
			Address:             "1.2.3.4:9001",
			Uptime:              86400,
			StorageCommitted:    100,
			StorageUsagePercent: 50,
			Version:             "1.2.3",
			LastSeenTimestamp:   1000,
		},
		{
			// No pubkey: must be dropped
			Address:           "5.6.7.8:9001",
			LastSeenTimestamp: 1000,
		},
		{
			Pubkey:            "ZYXWVUTS99",
			Address:           "9.8.7.6:9001",
			LastSeenTimestamp: 700, // 300 behind -> degraded
		},
	}

	nodes := NormalizePods(pods, "mainnet", 42)

	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes after dropping pubkey-less pod, got %d", len(nodes))
	}

	first := nodes[0]
	if first.ID != "ABCDEFGH-3.4" {
		t.Errorf("id: got %s", first.ID)
	}
	if first.Status != models.StatusOnline {
		t.Errorf("status: got %s, want online", first.Status)
	}
	if first.UptimePercent != 100.0 {
		t.Errorf("uptime: got %.1f, want 100.0", first.UptimePercent)
	}
	if first.HealthScore != 100 {
		t.Errorf("health: got %d, want 100", first.HealthScore)
	}
	if first.Network != "mainnet" {
		t.Errorf("network: got %s", first.Network)
	}
	if first.ResponseTime != 42 {
		t.Errorf("response time: got %d", first.ResponseTime)
	}

	second := nodes[1]
	if second.Status != models.StatusDegraded {
		t.Errorf("second status: got %s, want degraded", second.Status)
	}
	if second.Version != "unknown" {
		t.Errorf("missing version should default to unknown, got %s", second.Version)
	}
}

func TestMaxLastSeen(t *testing.T) {
	pods := []models.Pod{
		{LastSeenTimestamp: 500},
		{LastSeenTimestamp: 1000},
		{LastSeenTimestamp: 700},
	}
	if got := MaxLastSeen(pods); got != 1000 {
		t.Errorf("got %d, want 1000", got)
	}
	if got := MaxLastSeen(nil); got != 0 {
		t.Errorf("empty batch: got %d, want 0", got)
	}
}
