package services

import (
	"context"
	"log"
	"sync"
	"time"

	"pnodewatch/config"
	"pnodewatch/models"
)

const (
	// In-memory window keeps roughly the last hour at the default
	// 5-minute snapshot interval.
	recentSnapshotLimit = 12

	snapshotRetention = 30 * 24 * time.Hour
)

// HistoryService records periodic snapshots of network and node state.
// MongoDB holds the long tail; a small in-memory ring serves the common
// "last hour" queries even when persistence is disabled.
type HistoryService struct {
	cfg        *config.Config
	poller     *Poller
	aggregator *Aggregator
	mongo      *MongoDBService

	stopChan chan struct{}
	mutex    sync.RWMutex

	recentNetworkSnapshots map[string][]models.NetworkSnapshot
	recentNodeSnapshots    map[string][]models.NodeSnapshot
}

func NewHistoryService(cfg *config.Config, poller *Poller, aggregator *Aggregator, mongo *MongoDBService) *HistoryService {
	return &HistoryService{
		cfg:                    cfg,
		poller:                 poller,
		aggregator:             aggregator,
		mongo:                  mongo,
		stopChan:               make(chan struct{}),
		recentNetworkSnapshots: make(map[string][]models.NetworkSnapshot),
		recentNodeSnapshots:    make(map[string][]models.NodeSnapshot),
	}
}

func (hs *HistoryService) Start() {
	log.Printf("Starting History Service (snapshot every %ds)...", hs.cfg.Polling.SnapshotInterval)

	go func() {
		ticker := time.NewTicker(hs.cfg.SnapshotIntervalDuration())
		defer ticker.Stop()

		pruneTicker := time.NewTicker(6 * time.Hour)
		defer pruneTicker.Stop()

		for {
			select {
			case <-ticker.C:
				hs.collectSnapshot()
			case <-pruneTicker.C:
				hs.prune()
			case <-hs.stopChan:
				return
			}
		}
	}()
}

func (hs *HistoryService) Stop() {
	close(hs.stopChan)
}

func (hs *HistoryService) collectSnapshot() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	now := time.Now()

	for _, network := range []string{"mainnet", "devnet"} {
		nodes := hs.poller.GetNodes(network)
		if len(nodes) == 0 {
			continue
		}

		stats := hs.aggregator.Aggregate(network)

		netSnap := models.NetworkSnapshot{
			Timestamp:      now,
			Network:        network,
			TotalNodes:     stats.TotalNodes,
			OnlineNodes:    stats.OnlineNodes,
			DegradedNodes:  stats.DegradedNodes,
			OfflineNodes:   stats.OfflineNodes,
			TotalStoragePB: stats.TotalStoragePB,
			UsedStoragePB:  stats.UsedStoragePB,
			NetworkHealth:  stats.NetworkHealth,
			AverageUptime:  stats.AverageUptime,
			AverageHealth:  stats.AverageHealthScore,
		}

		if err := hs.mongo.InsertNetworkSnapshot(ctx, &netSnap); err != nil {
			log.Printf("Error saving %s network snapshot: %v", network, err)
		}

		nodeSnaps := make([]*models.NodeSnapshot, 0, len(nodes))
		for _, node := range nodes {
			nodeSnaps = append(nodeSnaps, &models.NodeSnapshot{
				Timestamp:     now,
				NodeID:        node.ID,
				Status:        node.Status,
				UptimePercent: node.UptimePercent,
				HealthScore:   node.HealthScore,
				StorageUsed:   node.StorageUsed,
				Credits:       node.Credits,
			})
		}

		if err := hs.mongo.InsertNodeSnapshots(ctx, nodeSnaps); err != nil {
			log.Printf("Error saving %s node snapshots: %v", network, err)
		}

		hs.storeRecent(network, netSnap, nodeSnaps)
	}
}

func (hs *HistoryService) storeRecent(network string, netSnap models.NetworkSnapshot, nodeSnaps []*models.NodeSnapshot) {
	hs.mutex.Lock()
	defer hs.mutex.Unlock()

	recent := append(hs.recentNetworkSnapshots[network], netSnap)
	if len(recent) > recentSnapshotLimit {
		recent = recent[len(recent)-recentSnapshotLimit:]
	}
	hs.recentNetworkSnapshots[network] = recent

	for _, snap := range nodeSnaps {
		history := append(hs.recentNodeSnapshots[snap.NodeID], *snap)
		if len(history) > recentSnapshotLimit {
			history = history[len(history)-recentSnapshotLimit:]
		}
		hs.recentNodeSnapshots[snap.NodeID] = history
	}
}

func (hs *HistoryService) prune() {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	if err := hs.mongo.PruneSnapshots(ctx, snapshotRetention); err != nil {
		log.Printf("Error pruning snapshots: %v", err)
	}
}

// GetNetworkHistory returns snapshots for a network over the last N
// hours, preferring MongoDB and falling back to the in-memory ring.
func (hs *HistoryService) GetNetworkHistory(ctx context.Context, network string, hours int) ([]models.NetworkSnapshot, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	if hs.mongo.Enabled() {
		return hs.mongo.GetNetworkSnapshots(ctx, network, since)
	}

	hs.mutex.RLock()
	defer hs.mutex.RUnlock()

	var results []models.NetworkSnapshot
	networks := []string{network}
	if network == "" || network == "all" {
		networks = []string{"mainnet", "devnet"}
	}
	for _, net := range networks {
		for _, snap := range hs.recentNetworkSnapshots[net] {
			if snap.Timestamp.After(since) {
				results = append(results, snap)
			}
		}
	}
	return results, nil
}

// GetNodeHistory returns snapshots for one node over the last N hours.
func (hs *HistoryService) GetNodeHistory(ctx context.Context, nodeID string, hours int) ([]models.NodeSnapshot, error) {
	if hours <= 0 {
		hours = 24
	}
	since := time.Now().Add(-time.Duration(hours) * time.Hour)

	if hs.mongo.Enabled() {
		return hs.mongo.GetNodeSnapshots(ctx, nodeID, since)
	}

	hs.mutex.RLock()
	defer hs.mutex.RUnlock()

	var results []models.NodeSnapshot
	for _, snap := range hs.recentNodeSnapshots[nodeID] {
		if snap.Timestamp.After(since) {
			results = append(results, snap)
		}
	}
	return results, nil
}
