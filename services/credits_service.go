package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"pnodewatch/config"
	"pnodewatch/models"
)

// CreditsService polls the per-network credits APIs in the background and
// serves the latest maps. Under the "all" filter a pod appearing on both
// networks gets its best recorded score, avoiding double counting.
type CreditsService struct {
	cfg        *config.Config
	httpClient *http.Client

	credits      map[string]map[string]*models.PodCredits // network -> pubkey -> credits
	creditsMutex sync.RWMutex
}

func NewCreditsService(cfg *config.Config) *CreditsService {
	return &CreditsService{
		cfg: cfg,
		httpClient: &http.Client{
			Timeout: cfg.CreditsTimeoutDuration(),
		},
		credits: map[string]map[string]*models.PodCredits{
			"mainnet": {},
			"devnet":  {},
		},
	}
}

// RefreshAll fetches both networks concurrently. The poller drives this
// once per cycle. A failed fetch keeps the previous map for that network;
// enrichment is never fatal.
func (cs *CreditsService) RefreshAll() {
	var wg sync.WaitGroup
	for _, network := range []string{"mainnet", "devnet"} {
		wg.Add(1)
		go func(net string) {
			defer wg.Done()
			if err := cs.refreshNetwork(net); err != nil {
				log.Printf("Credits refresh failed for %s: %v", net, err)
			}
		}(network)
	}
	wg.Wait()
}

func (cs *CreditsService) refreshNetwork(network string) error {
	endpoint := cs.cfg.CreditsEndpoint(network)
	if endpoint == "" {
		return fmt.Errorf("no credits endpoint configured for %s", network)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cs.cfg.CreditsTimeoutDuration())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := cs.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("credits API returned status %d", resp.StatusCode)
	}

	var creditsResp models.PodCreditsResponse
	if err := json.NewDecoder(resp.Body).Decode(&creditsResp); err != nil {
		return fmt.Errorf("failed to decode credits response: %w", err)
	}
	if err := creditsResp.Validate(); err != nil {
		return fmt.Errorf("credits response failed validation: %w", err)
	}
	if creditsResp.Status != "success" {
		return fmt.Errorf("credits API returned status %q", creditsResp.Status)
	}

	// Sort by credits descending so ranks are correct.
	entries := creditsResp.PodsCredits
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Credits > entries[j].Credits
	})

	cs.creditsMutex.Lock()
	defer cs.creditsMutex.Unlock()

	old := cs.credits[network]
	updated := make(map[string]*models.PodCredits, len(entries))
	for i, entry := range entries {
		oldCredits := int64(0)
		if existing, exists := old[entry.PodID]; exists {
			oldCredits = existing.Credits
		}
		updated[entry.PodID] = &models.PodCredits{
			Pubkey:        entry.PodID,
			Credits:       entry.Credits,
			Network:       network,
			Rank:          i + 1,
			CreditsChange: entry.Credits - oldCredits,
			LastUpdated:   time.Now(),
		}
	}
	cs.credits[network] = updated

	log.Printf("Updated %s pod credits: %d pods tracked", network, len(updated))
	return nil
}

// CreditsMap returns pubkey -> credits for a network filter. For "all" the
// two networks are merged taking the maximum per key.
func (cs *CreditsService) CreditsMap(network string) map[string]int64 {
	cs.creditsMutex.RLock()
	defer cs.creditsMutex.RUnlock()

	if network == "mainnet" || network == "devnet" {
		result := make(map[string]int64, len(cs.credits[network]))
		for pubkey, c := range cs.credits[network] {
			result[pubkey] = c.Credits
		}
		return result
	}

	merged := make(map[string]int64)
	for _, net := range []string{"mainnet", "devnet"} {
		for pubkey, c := range cs.credits[net] {
			if c.Credits > merged[pubkey] {
				merged[pubkey] = c.Credits
			}
		}
	}
	return merged
}

// GetCredits returns the record for a pubkey, preferring the higher score
// when the pod appears on both networks.
func (cs *CreditsService) GetCredits(pubkey string) (*models.PodCredits, bool) {
	if pubkey == "" {
		return nil, false
	}

	cs.creditsMutex.RLock()
	defer cs.creditsMutex.RUnlock()

	var best *models.PodCredits
	for _, net := range []string{"mainnet", "devnet"} {
		if c, exists := cs.credits[net][pubkey]; exists {
			if best == nil || c.Credits > best.Credits {
				best = c
			}
		}
	}
	return best, best != nil
}

// AllCredits returns the credits list for a network filter, sorted by
// credits descending.
func (cs *CreditsService) AllCredits(network string) []*models.PodCredits {
	creditsMap := cs.CreditsMap(network)

	cs.creditsMutex.RLock()
	result := make([]*models.PodCredits, 0, len(creditsMap))
	for pubkey := range creditsMap {
		if c, ok := cs.lookupLocked(pubkey); ok {
			result = append(result, c)
		}
	}
	cs.creditsMutex.RUnlock()

	sort.Slice(result, func(i, j int) bool {
		return result[i].Credits > result[j].Credits
	})
	return result
}

func (cs *CreditsService) lookupLocked(pubkey string) (*models.PodCredits, bool) {
	var best *models.PodCredits
	for _, net := range []string{"mainnet", "devnet"} {
		if c, exists := cs.credits[net][pubkey]; exists {
			if best == nil || c.Credits > best.Credits {
				best = c
			}
		}
	}
	return best, best != nil
}

// TopCredits returns the top N pods by credits across the given filter.
func (cs *CreditsService) TopCredits(network string, limit int) []*models.PodCredits {
	all := cs.AllCredits(network)
	if limit > len(all) {
		limit = len(all)
	}
	if limit < 0 {
		limit = 0
	}
	return all[:limit]
}
