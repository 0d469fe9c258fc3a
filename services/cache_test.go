package services

import (
	"testing"
	"time"

	"pnodewatch/config"
	"pnodewatch/models"
)

func testCacheService() *CacheService {
	cfg := &config.Config{}
	cfg.Cache.TTL = 30
	cfg.Polling.CycleInterval = 30

	poller := &Poller{
		nodes: map[string][]*models.Node{
			"mainnet": {
				{ID: "AAAA-1.1", Status: models.StatusOnline, UptimePercent: 100, HealthScore: 100},
			},
		},
		responseTime: map[string]int64{"mainnet": 50},
		lastErr:      map[string]error{},
	}

	return NewCacheService(cfg, poller, NewAggregator(poller))
}

func TestCacheSetGet(t *testing.T) {
	cs := testCacheService()

	cs.Set("stats:mainnet", models.NetworkStats{TotalNodes: 7}, time.Minute)

	data, found := cs.Get("stats:mainnet")
	if !found {
		t.Fatal("expected cache hit")
	}
	stats, ok := data.(models.NetworkStats)
	if !ok {
		t.Fatalf("unexpected type %T", data)
	}
	if stats.TotalNodes != 7 {
		t.Errorf("got %d, want 7", stats.TotalNodes)
	}

	if _, found := cs.Get("stats:devnet"); found {
		t.Error("expected miss for unset key")
	}
}

func TestCacheStaleness(t *testing.T) {
	cs := testCacheService()

	cs.Set("nodes:mainnet", []*models.Node{{ID: "x"}}, -time.Second)

	// Expired entries are invisible to Get
	if _, found := cs.Get("nodes:mainnet"); found {
		t.Error("expired entry should not be returned by Get")
	}

	// But GetWithStale still serves them, flagged
	data, stale, found := cs.GetWithStale("nodes:mainnet")
	if !found {
		t.Fatal("expected stale hit")
	}
	if !stale {
		t.Error("expected stale flag")
	}
	if nodes := data.([]*models.Node); len(nodes) != 1 {
		t.Errorf("got %d nodes", len(nodes))
	}
}

func TestCacheRefresh(t *testing.T) {
	cs := testCacheService()
	cs.Refresh()

	stats, stale, found := cs.GetNetworkStats("mainnet", false)
	if !found || stale {
		t.Fatalf("expected fresh stats, found=%v stale=%v", found, stale)
	}
	if stats.TotalNodes != 1 {
		t.Errorf("total nodes: got %d, want 1", stats.TotalNodes)
	}

	nodes, _, found := cs.GetNodes("all", true)
	if !found {
		t.Fatal("expected nodes under 'all'")
	}
	if len(nodes) != 1 {
		t.Errorf("got %d nodes", len(nodes))
	}

	node, _, found := cs.GetNode("AAAA-1.1", true)
	if !found {
		t.Fatal("expected per-node entry")
	}
	if node.Status != models.StatusOnline {
		t.Errorf("status: got %s", node.Status)
	}
}

func TestCacheClear(t *testing.T) {
	cs := testCacheService()
	cs.Refresh()

	if err := cs.ClearCache(); err != nil {
		t.Fatalf("ClearCache failed: %v", err)
	}

	if _, _, found := cs.GetNetworkStats("mainnet", true); found {
		t.Error("expected empty cache after clear")
	}

	stats := cs.GetCacheStats()
	if stats["in_memory_keys"] != 0 {
		t.Errorf("expected 0 keys, got %v", stats["in_memory_keys"])
	}
}

func TestCacheMode(t *testing.T) {
	cs := testCacheService()
	if cs.GetCacheMode() != CacheModeInMemory {
		t.Errorf("expected in-memory mode with Redis disabled, got %s", cs.GetCacheMode())
	}
}
