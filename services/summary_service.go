package services

import (
	"fmt"
	"log"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"pnodewatch/config"
	"pnodewatch/models"
)

// SummaryService renders a human-readable network summary from the latest
// aggregates. Rendering is cheap but the output only changes once per poll
// cycle, so results are memoized per network with a long TTL and flushed
// explicitly when callers want a rebuild.
type SummaryService struct {
	cfg        *config.Config
	aggregator *Aggregator
	memo       *gocache.Cache
}

// Summary is the serialized form returned to API callers.
type Summary struct {
	Network     string              `json:"network"`
	Text        string              `json:"text"`
	Stats       models.NetworkStats `json:"stats"`
	GeneratedAt time.Time           `json:"generated_at"`
}

func NewSummaryService(cfg *config.Config, aggregator *Aggregator) *SummaryService {
	ttl := cfg.SummaryTTLDuration()
	return &SummaryService{
		cfg:        cfg,
		aggregator: aggregator,
		memo:       gocache.New(ttl, 2*ttl),
	}
}

// GetSummary returns the memoized summary for a network filter, rendering
// a fresh one on miss or expiry.
func (ss *SummaryService) GetSummary(network string) *Summary {
	if cached, found := ss.memo.Get(network); found {
		return cached.(*Summary)
	}

	summary := ss.render(network)
	ss.memo.SetDefault(network, summary)
	return summary
}

// Flush drops all memoized summaries so the next request re-renders.
func (ss *SummaryService) Flush() {
	ss.memo.Flush()
	log.Println("Summary cache flushed")
}

func (ss *SummaryService) render(network string) *Summary {
	stats := ss.aggregator.Aggregate(network)

	var health string
	switch {
	case stats.NetworkHealth >= 90:
		health = "excellent"
	case stats.NetworkHealth >= 75:
		health = "good"
	case stats.NetworkHealth >= 50:
		health = "degraded"
	default:
		health = "poor"
	}

	text := fmt.Sprintf(
		"%s network: %d pNodes tracked (%d online, %d degraded, %d offline). "+
			"Network health is %s at %.1f%%. Average uptime %.1f%%, average health score %.0f. "+
			"Storage committed: %.2f PB (%.2f PB used). Total credits: %d.",
		network,
		stats.TotalNodes, stats.OnlineNodes, stats.DegradedNodes, stats.OfflineNodes,
		health, stats.NetworkHealth,
		stats.AverageUptime, stats.AverageHealthScore,
		stats.TotalStoragePB, stats.UsedStoragePB,
		stats.TotalCredits,
	)

	return &Summary{
		Network:     network,
		Text:        text,
		Stats:       stats,
		GeneratedAt: time.Now(),
	}
}
