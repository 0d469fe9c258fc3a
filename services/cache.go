package services

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"pnodewatch/config"
	"pnodewatch/models"
)

// CacheMode indicates which cache backend is active
type CacheMode string

const (
	CacheModeRedis    CacheMode = "redis"
	CacheModeInMemory CacheMode = "in-memory"
)

// CacheItem for in-memory fallback
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// CacheService fronts the poller output: Redis primary when configured,
// in-memory sync.Map fallback, with automatic mode switching when Redis
// comes and goes.
type CacheService struct {
	cfg        *config.Config
	poller     *Poller
	aggregator *Aggregator

	redis       *redis.Client
	redisCtx    context.Context
	redisCancel context.CancelFunc
	mode        CacheMode
	modeMutex   sync.RWMutex

	inMemoryStore sync.Map

	stopChan chan struct{}
}

func NewCacheService(cfg *config.Config, poller *Poller, aggregator *Aggregator) *CacheService {
	ctx, cancel := context.WithCancel(context.Background())

	cs := &CacheService{
		cfg:         cfg,
		poller:      poller,
		aggregator:  aggregator,
		redisCtx:    ctx,
		redisCancel: cancel,
		stopChan:    make(chan struct{}),
		mode:        CacheModeInMemory,
	}

	if cfg.Redis.Enabled {
		cs.connectRedis()
	} else {
		log.Println("Redis disabled in config, using in-memory cache only")
	}

	return cs
}

func (cs *CacheService) connectRedis() {
	if cs.cfg.Redis.Address == "" {
		log.Println("Redis address not configured, using in-memory cache")
		return
	}

	options := &redis.Options{
		Addr:         cs.cfg.Redis.Address,
		Password:     cs.cfg.Redis.Password,
		DB:           cs.cfg.Redis.DB,
		DialTimeout:  10 * time.Second,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		PoolTimeout:  10 * time.Second,
	}

	if cs.cfg.Redis.UseTLS {
		options.TLSConfig = &tls.Config{
			MinVersion:         tls.VersionTLS12,
			InsecureSkipVerify: true, // cloud providers with shared certs
		}
	}

	cs.redis = redis.NewClient(options)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pong, err := cs.redis.Ping(ctx).Result()
	if err != nil {
		log.Printf("Redis connection failed: %v", err)
		log.Printf("Running in IN-MEMORY mode")
		cs.setMode(CacheModeInMemory)
		return
	}

	log.Printf("Redis connected (response: %s)", pong)
	cs.setMode(CacheModeRedis)
}

func (cs *CacheService) setMode(mode CacheMode) {
	cs.modeMutex.Lock()
	defer cs.modeMutex.Unlock()
	cs.mode = mode
}

func (cs *CacheService) getMode() CacheMode {
	cs.modeMutex.RLock()
	defer cs.modeMutex.RUnlock()
	return cs.mode
}

// StartCacheWarmer refreshes the cache from the poller on the cycle
// interval and keeps an eye on Redis health.
func (cs *CacheService) StartCacheWarmer() {
	log.Println("Starting Cache Warmer...")

	cs.Refresh()

	go cs.runRefreshLoop()
	go cs.runHealthCheckLoop()
}

func (cs *CacheService) Stop() {
	close(cs.stopChan)
	cs.redisCancel()

	if cs.redis != nil {
		cs.redis.Close()
	}
}

func (cs *CacheService) runRefreshLoop() {
	ticker := time.NewTicker(cs.cfg.CycleIntervalDuration())
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.Refresh()
		case <-cs.stopChan:
			return
		}
	}
}

func (cs *CacheService) runHealthCheckLoop() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cs.checkRedisHealth()
		case <-cs.stopChan:
			return
		}
	}
}

func (cs *CacheService) checkRedisHealth() {
	if !cs.cfg.Redis.Enabled || cs.redis == nil {
		return
	}

	mode := cs.getMode()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := cs.redis.Ping(ctx).Result()

	if mode == CacheModeRedis && err != nil {
		log.Printf("Redis health check failed: %v, switching to IN-MEMORY mode", err)
		cs.setMode(CacheModeInMemory)
	} else if mode == CacheModeInMemory && err == nil {
		log.Println("Redis reconnected, switching back to REDIS mode")
		cs.syncInMemoryToRedis()
		cs.setMode(CacheModeRedis)
	}
}

func (cs *CacheService) syncInMemoryToRedis() {
	synced := 0
	cs.inMemoryStore.Range(func(key, value interface{}) bool {
		keyStr := key.(string)
		item := value.(*CacheItem)

		ttl := time.Until(item.ExpiresAt)
		if ttl > 0 {
			if err := cs.setRedis(keyStr, item.Data, ttl); err == nil {
				synced++
			}
		}
		return true
	})

	log.Printf("Synced %d items to Redis", synced)
}

// Refresh recomputes aggregates from the latest poll cycle and stores
// them per network plus the union view.
func (cs *CacheService) Refresh() {
	start := time.Now()
	ttl := cs.cfg.CacheTTLDuration()

	for _, network := range []string{"mainnet", "devnet", "all"} {
		nodes := cs.poller.GetNodes(network)
		if network != "all" && len(nodes) == 0 {
			continue
		}

		stats := cs.aggregator.Aggregate(network)
		cs.Set("stats:"+network, stats, ttl)
		cs.Set("nodes:"+network, nodes, ttl)

		if network == "all" {
			for _, n := range nodes {
				cs.Set("node:"+n.ID, n, 60*time.Second)
			}
		}
	}

	log.Printf("Cache refreshed in %s | Mode: %s", time.Since(start).Round(time.Millisecond), cs.getMode())
}

// ============================================
// Generic Set/Get with Redis + In-Memory
// ============================================

func (cs *CacheService) Set(key string, data interface{}, ttl time.Duration) {
	if cs.getMode() == CacheModeRedis {
		if err := cs.setRedis(key, data, ttl); err != nil {
			log.Printf("Redis SET failed for '%s': %v (falling back to in-memory)", key, err)
			cs.setInMemory(key, data, ttl)
		}
	} else {
		cs.setInMemory(key, data, ttl)
	}
}

func (cs *CacheService) Get(key string) (interface{}, bool) {
	if cs.getMode() == CacheModeRedis {
		data, found, err := cs.getRedis(key)
		if err != nil {
			return cs.getInMemory(key)
		}
		return data, found
	}

	return cs.getInMemory(key)
}

// GetWithStale returns (data, stale, found). Redis manages TTL itself, so
// anything found there is fresh.
func (cs *CacheService) GetWithStale(key string) (interface{}, bool, bool) {
	if cs.getMode() == CacheModeRedis {
		data, found, err := cs.getRedis(key)
		if err != nil {
			data, found := cs.getInMemory(key)
			return data, false, found
		}
		return data, false, found
	}

	return cs.getInMemoryWithStale(key)
}

// ============================================
// Redis Operations
// ============================================

func (cs *CacheService) setRedis(key string, data interface{}, ttl time.Duration) error {
	if cs.redis == nil {
		return fmt.Errorf("redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
	defer cancel()

	jsonData, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	return cs.redis.Set(ctx, key, jsonData, ttl).Err()
}

func (cs *CacheService) getRedis(key string) (interface{}, bool, error) {
	if cs.redis == nil {
		return nil, false, fmt.Errorf("redis client not initialized")
	}

	ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
	defer cancel()

	jsonData, err := cs.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	// Deserialize based on key pattern
	var data interface{}

	switch {
	case strings.HasPrefix(key, "stats:"):
		var stats models.NetworkStats
		if err := json.Unmarshal([]byte(jsonData), &stats); err != nil {
			return nil, false, err
		}
		data = stats
	case strings.HasPrefix(key, "nodes:"):
		var nodes []*models.Node
		if err := json.Unmarshal([]byte(jsonData), &nodes); err != nil {
			return nil, false, err
		}
		data = nodes
	case strings.HasPrefix(key, "node:"):
		var node models.Node
		if err := json.Unmarshal([]byte(jsonData), &node); err != nil {
			return nil, false, err
		}
		data = &node
	default:
		if err := json.Unmarshal([]byte(jsonData), &data); err != nil {
			return nil, false, err
		}
	}

	return data, true, nil
}

// ============================================
// In-Memory Operations (Fallback)
// ============================================

func (cs *CacheService) setInMemory(key string, data interface{}, ttl time.Duration) {
	cs.inMemoryStore.Store(key, &CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

func (cs *CacheService) getInMemory(key string) (interface{}, bool) {
	val, ok := cs.inMemoryStore.Load(key)
	if !ok {
		return nil, false
	}

	item := val.(*CacheItem)
	if time.Now().After(item.ExpiresAt) {
		return nil, false
	}

	return item.Data, true
}

func (cs *CacheService) getInMemoryWithStale(key string) (interface{}, bool, bool) {
	val, ok := cs.inMemoryStore.Load(key)
	if !ok {
		return nil, false, false
	}

	item := val.(*CacheItem)
	isStale := time.Now().After(item.ExpiresAt)
	return item.Data, isStale, true
}

// ============================================
// Typed Helper Methods
// ============================================

func (cs *CacheService) GetNetworkStats(network string, allowStale bool) (*models.NetworkStats, bool, bool) {
	data, stale, found := cs.GetWithStale("stats:" + network)
	if !found || (!allowStale && stale) {
		return nil, false, false
	}

	if stats, ok := data.(models.NetworkStats); ok {
		return &stats, stale, true
	}
	return nil, false, false
}

func (cs *CacheService) GetNodes(network string, allowStale bool) ([]*models.Node, bool, bool) {
	data, stale, found := cs.GetWithStale("nodes:" + network)
	if !found || (!allowStale && stale) {
		return nil, false, false
	}

	if nodes, ok := data.([]*models.Node); ok {
		return nodes, stale, true
	}
	return nil, false, false
}

func (cs *CacheService) GetNode(id string, allowStale bool) (*models.Node, bool, bool) {
	data, stale, found := cs.GetWithStale("node:" + id)
	if !found || (!allowStale && stale) {
		return nil, false, false
	}

	if node, ok := data.(*models.Node); ok {
		return node, stale, true
	}
	return nil, false, false
}

// ============================================
// Utility Methods
// ============================================

func (cs *CacheService) GetCacheMode() CacheMode {
	return cs.getMode()
}

func (cs *CacheService) ClearCache() error {
	if cs.getMode() == CacheModeRedis && cs.redis != nil {
		ctx, cancel := context.WithTimeout(cs.redisCtx, 5*time.Second)
		defer cancel()

		iter := cs.redis.Scan(ctx, 0, "node*", 0).Iterator()
		deleted := 0
		for iter.Next(ctx) {
			cs.redis.Del(ctx, iter.Val())
			deleted++
		}

		cs.redis.Del(ctx, "stats:mainnet", "stats:devnet", "stats:all")
		log.Printf("Redis cache cleared (%d node keys deleted)", deleted)
	}

	cs.inMemoryStore = sync.Map{}
	log.Println("In-memory cache cleared")

	return nil
}

func (cs *CacheService) GetCacheStats() map[string]interface{} {
	stats := map[string]interface{}{
		"mode":    string(cs.getMode()),
		"enabled": cs.cfg.Redis.Enabled,
	}

	if cs.getMode() == CacheModeRedis && cs.redis != nil {
		ctx, cancel := context.WithTimeout(cs.redisCtx, 2*time.Second)
		defer cancel()

		dbSize, err := cs.redis.DBSize(ctx).Result()
		if err == nil {
			stats["redis_keys"] = dbSize
		}
	}

	inMemCount := 0
	cs.inMemoryStore.Range(func(_, _ interface{}) bool {
		inMemCount++
		return true
	})
	stats["in_memory_keys"] = inMemCount

	return stats
}
