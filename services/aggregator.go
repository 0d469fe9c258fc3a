package services

import (
	"log"
	"time"

	"pnodewatch/models"
)

// Aggregator reduces the latest node set into network-level statistics.
type Aggregator struct {
	poller *Poller
}

func NewAggregator(poller *Poller) *Aggregator {
	return &Aggregator{poller: poller}
}

// Aggregate computes NetworkStats over the latest cycle for a network
// filter. Pure reduction over the poller's snapshot; no I/O.
func (a *Aggregator) Aggregate(network string) models.NetworkStats {
	nodes := a.poller.GetNodes(network)

	stats := models.NetworkStats{
		Network:      network,
		TotalNodes:   len(nodes),
		ResponseTime: a.poller.ResponseTime(network),
		LastUpdated:  time.Now(),
	}

	if len(nodes) == 0 {
		log.Printf("No %s nodes available for aggregation", network)
		return stats
	}

	var sumUptime, sumHealth float64

	for _, node := range nodes {
		switch node.Status {
		case models.StatusOnline:
			stats.OnlineNodes++
		case models.StatusDegraded:
			stats.DegradedNodes++
		case models.StatusOffline:
			stats.OfflineNodes++
		}

		if node.IsPublic {
			stats.PublicNodes++
		} else {
			stats.PrivateNodes++
		}

		stats.TotalStoragePB += float64(node.StorageCommitted) / 1e15
		stats.UsedStoragePB += float64(node.StorageUsed) / 1e15
		stats.TotalCredits += node.Credits

		sumUptime += node.UptimePercent
		sumHealth += float64(node.HealthScore)
	}

	stats.AverageUptime = sumUptime / float64(len(nodes))
	stats.AverageHealthScore = sumHealth / float64(len(nodes))

	// Online ratio dominates; average uptime contributes the rest.
	onlineRatio := float64(stats.OnlineNodes) / float64(stats.TotalNodes)
	stats.NetworkHealth = (onlineRatio * 80) + (stats.AverageUptime * 0.2)
	if stats.NetworkHealth > 100 {
		stats.NetworkHealth = 100
	}

	return stats
}
