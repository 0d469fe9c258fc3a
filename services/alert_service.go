package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"pnodewatch/config"
	"pnodewatch/models"
)

// AlertService evaluates monitoring rules against the latest poll cycle.
// Rules live in memory; firings are recorded to the snapshot store and
// delivered over Discord when configured.
type AlertService struct {
	cfg        *config.Config
	poller     *Poller
	aggregator *Aggregator
	mongo      *MongoDBService
	discord    *DiscordBotService

	rules      map[string]*models.AlertRule
	rulesMutex sync.RWMutex

	stopChan chan struct{}
}

func NewAlertService(cfg *config.Config, poller *Poller, aggregator *Aggregator, mongo *MongoDBService, discord *DiscordBotService) *AlertService {
	as := &AlertService{
		cfg:        cfg,
		poller:     poller,
		aggregator: aggregator,
		mongo:      mongo,
		discord:    discord,
		rules:      make(map[string]*models.AlertRule),
		stopChan:   make(chan struct{}),
	}

	// Sensible defaults so monitoring works out of the box.
	as.rules["default-network-health"] = &models.AlertRule{
		ID:        "default-network-health",
		Name:      "Network health below 50%",
		Enabled:   true,
		RuleType:  models.RuleNetworkHealth,
		Threshold: 50,
		Cooldown:  30,
	}

	return as
}

func (as *AlertService) Start() {
	log.Println("Starting Alert Service...")

	go func() {
		ticker := time.NewTicker(as.cfg.CycleIntervalDuration())
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				as.EvaluateRules()
			case <-as.stopChan:
				return
			}
		}
	}()
}

func (as *AlertService) Stop() {
	close(as.stopChan)
}

// CreateRule registers a rule, generating an ID when absent.
func (as *AlertService) CreateRule(rule *models.AlertRule) error {
	if rule.RuleType != models.RuleNodeOffline && rule.RuleType != models.RuleNetworkHealth {
		return fmt.Errorf("unknown rule type %q", rule.RuleType)
	}
	if rule.RuleType == models.RuleNodeOffline && rule.NodeID == "" {
		return fmt.Errorf("node_offline rule requires node_id")
	}
	if rule.ID == "" {
		rule.ID = fmt.Sprintf("rule_%d", time.Now().UnixNano())
	}
	if rule.Cooldown <= 0 {
		rule.Cooldown = 15
	}

	as.rulesMutex.Lock()
	as.rules[rule.ID] = rule
	as.rulesMutex.Unlock()

	return nil
}

func (as *AlertService) GetRule(id string) (*models.AlertRule, bool) {
	as.rulesMutex.RLock()
	defer as.rulesMutex.RUnlock()
	rule, exists := as.rules[id]
	return rule, exists
}

func (as *AlertService) ListRules() []*models.AlertRule {
	as.rulesMutex.RLock()
	defer as.rulesMutex.RUnlock()

	rules := make([]*models.AlertRule, 0, len(as.rules))
	for _, r := range as.rules {
		rules = append(rules, r)
	}
	return rules
}

func (as *AlertService) DeleteRule(id string) error {
	as.rulesMutex.Lock()
	defer as.rulesMutex.Unlock()

	if _, exists := as.rules[id]; !exists {
		return fmt.Errorf("rule not found")
	}
	delete(as.rules, id)
	return nil
}

// EvaluateRules checks every enabled rule against current state, honoring
// per-rule cooldowns.
func (as *AlertService) EvaluateRules() {
	as.rulesMutex.RLock()
	rules := make([]*models.AlertRule, 0, len(as.rules))
	for _, r := range as.rules {
		if r.Enabled {
			rules = append(rules, r)
		}
	}
	as.rulesMutex.RUnlock()

	for _, rule := range rules {
		if time.Since(rule.LastFired) < time.Duration(rule.Cooldown)*time.Minute {
			continue
		}

		triggered, message := as.evaluate(rule)
		if triggered {
			as.fire(rule, message)
		}
	}
}

func (as *AlertService) evaluate(rule *models.AlertRule) (bool, string) {
	switch rule.RuleType {
	case models.RuleNodeOffline:
		for _, node := range as.poller.GetNodes("all") {
			if node.ID == rule.NodeID {
				if node.Status == models.StatusOffline {
					return true, fmt.Sprintf("pNode %s is offline (last seen %s)",
						node.ID, node.LastSeen.UTC().Format(time.RFC3339))
				}
				return false, ""
			}
		}
		return true, fmt.Sprintf("pNode %s is no longer reported by any network", rule.NodeID)

	case models.RuleNetworkHealth:
		stats := as.aggregator.Aggregate("all")
		if stats.TotalNodes > 0 && stats.NetworkHealth < rule.Threshold {
			return true, fmt.Sprintf("Network health dropped to %.1f%% (threshold %.1f%%)",
				stats.NetworkHealth, rule.Threshold)
		}
		return false, ""
	}

	return false, ""
}

func (as *AlertService) fire(rule *models.AlertRule, message string) {
	log.Printf("Alert fired: %s: %s", rule.Name, message)

	as.rulesMutex.Lock()
	rule.LastFired = time.Now()
	as.rulesMutex.Unlock()

	delivered := false
	if as.discord.Enabled() {
		if err := as.discord.SendAlert(rule, message); err != nil {
			log.Printf("Failed to deliver alert %s: %v", rule.ID, err)
		} else {
			delivered = true
		}
	}

	event := &models.AlertEvent{
		RuleID:    rule.ID,
		RuleName:  rule.Name,
		Timestamp: time.Now(),
		Message:   message,
		Delivered: delivered,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := as.mongo.InsertAlertEvent(ctx, event); err != nil {
		log.Printf("Failed to persist alert event: %v", err)
	}
}
