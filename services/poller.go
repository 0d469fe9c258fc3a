package services

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"pnodewatch/config"
	"pnodewatch/models"
	"pnodewatch/utils"
)

// Poller drives the fetch -> normalize -> enrich cycle on a fixed
// interval. Within one cycle the pod fetches and the credits refresh run
// concurrently and are joined before normalization, so the enricher always
// observes nodes derived from the same fetch batch. Nothing carries over
// between cycles; every cycle recomputes the full node set.
type Poller struct {
	cfg     *config.Config
	prpc    *PRPCClient
	credits *CreditsService
	geo     *utils.GeoResolver

	nodes        map[string][]*models.Node // network -> normalized+enriched nodes
	responseTime map[string]int64
	lastErr      map[string]error
	lastCycle    time.Time
	mutex        sync.RWMutex

	stopChan chan struct{}
}

func NewPoller(cfg *config.Config, prpc *PRPCClient, credits *CreditsService, geo *utils.GeoResolver) *Poller {
	return &Poller{
		cfg:          cfg,
		prpc:         prpc,
		credits:      credits,
		geo:          geo,
		nodes:        make(map[string][]*models.Node),
		responseTime: make(map[string]int64),
		lastErr:      make(map[string]error),
		stopChan:     make(chan struct{}),
	}
}

func (p *Poller) Start() {
	log.Printf("Starting Poller (cycle every %ds)...", p.cfg.Polling.CycleInterval)

	go func() {
		p.RunCycle()

		ticker := time.NewTicker(p.cfg.CycleIntervalDuration())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				p.RunCycle()
			case <-p.stopChan:
				log.Println("Poller stopped")
				return
			}
		}
	}()
}

func (p *Poller) Stop() {
	close(p.stopChan)
}

// networks returns the networks that have a proxy endpoint configured.
func (p *Poller) networks() []string {
	nets := make([]string, 0, 2)
	if p.cfg.PRPC.MainnetEndpoint != "" {
		nets = append(nets, "mainnet")
	}
	if p.cfg.PRPC.DevnetEndpoint != "" {
		nets = append(nets, "devnet")
	}
	return nets
}

// RunCycle executes one full pipeline pass.
func (p *Poller) RunCycle() {
	start := time.Now()
	nets := p.networks()
	if len(nets) == 0 {
		log.Println("Poller: no proxy endpoints configured, skipping cycle")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.cycleBudget())
	defer cancel()

	type fetchResult struct {
		pods         *models.PodsResponse
		responseTime int64
		err          error
	}

	results := make(map[string]*fetchResult, len(nets))
	var wg sync.WaitGroup

	for _, network := range nets {
		results[network] = &fetchResult{}
		wg.Add(1)
		go func(net string, res *fetchResult) {
			defer wg.Done()
			res.pods, res.responseTime, res.err = p.prpc.FetchPods(ctx, net)
		}(network, results[network])
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		p.credits.RefreshAll()
	}()

	wg.Wait()

	for _, network := range nets {
		res := results[network]
		if res.err != nil {
			var fe *models.FetchError
			if errors.As(res.err, &fe) {
				log.Printf("Poller: %s fetch failed (retryable=%v): %v", network, fe.Retryable, fe)
			} else {
				log.Printf("Poller: %s fetch failed: %v", network, res.err)
			}
			// Keep the previous cycle's nodes; record the error for callers.
			p.mutex.Lock()
			p.lastErr[network] = res.err
			p.mutex.Unlock()
			continue
		}

		nodes := utils.NormalizePods(res.pods.Pods, network, res.responseTime)
		Enrich(nodes, p.credits.CreditsMap(network), p.geo)

		p.mutex.Lock()
		p.nodes[network] = nodes
		p.responseTime[network] = res.responseTime
		p.lastErr[network] = nil
		p.lastCycle = time.Now()
		p.mutex.Unlock()

		log.Printf("Poller: %s cycle done in %s (%d pods, %d nodes after normalization)",
			network, time.Since(start).Round(time.Millisecond), len(res.pods.Pods), len(nodes))
	}
}

// cycleBudget sizes the cycle context for the worst case the retry policy
// allows: every attempt at the full request timeout plus the backoff
// sleeps between attempts, with slack for normalization.
func (p *Poller) cycleBudget() time.Duration {
	attempts := p.cfg.PRPC.MaxRetries
	if attempts < 1 {
		attempts = 1
	}
	delay := time.Duration(p.cfg.PRPC.BackoffBase) * time.Second
	if delay <= 0 {
		delay = time.Second
	}
	maxDelay := time.Duration(p.cfg.PRPC.BackoffCap) * time.Second
	if maxDelay <= 0 {
		maxDelay = 8 * time.Second
	}

	budget := time.Duration(attempts) * p.cfg.PRPCTimeoutDuration()
	for i := 1; i < attempts; i++ {
		budget += delay
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return budget + 10*time.Second
}

// Enrich merges credits (keyed by pubkey) and geolocation (keyed by IP)
// into normalized nodes in place. Missing keys leave the fields zero;
// lookup failures are never fatal.
func Enrich(nodes []*models.Node, creditsMap map[string]int64, geo *utils.GeoResolver) {
	for _, node := range nodes {
		if credits, ok := creditsMap[node.Pubkey]; ok {
			node.Credits = credits
		}

		country, city, lat, lon := geo.Lookup(node.IP)
		node.Country = country
		node.City = city
		node.Lat = lat
		node.Lon = lon
	}
}

// GetNodes returns the latest cycle's nodes for a network filter. "all"
// concatenates every configured network.
func (p *Poller) GetNodes(network string) []*models.Node {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if network == "mainnet" || network == "devnet" {
		return append([]*models.Node(nil), p.nodes[network]...)
	}

	var all []*models.Node
	for _, nodes := range p.nodes {
		all = append(all, nodes...)
	}
	return all
}

// ResponseTime returns the proxy round-trip time of the latest cycle (ms).
func (p *Poller) ResponseTime(network string) int64 {
	p.mutex.RLock()
	defer p.mutex.RUnlock()

	if network == "mainnet" || network == "devnet" {
		return p.responseTime[network]
	}
	var max int64
	for _, rt := range p.responseTime {
		if rt > max {
			max = rt
		}
	}
	return max
}

// LastError returns the most recent fetch error for a network, nil after
// a successful cycle.
func (p *Poller) LastError(network string) error {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.lastErr[network]
}

// LastCycle returns when the latest successful cycle completed.
func (p *Poller) LastCycle() time.Time {
	p.mutex.RLock()
	defer p.mutex.RUnlock()
	return p.lastCycle
}
