package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"math"
	"net"
	"strconv"
	"strings"
	"time"

	"pnodewatch/models"
)

// Status thresholds, relative to the freshest pod in the batch (seconds).
const (
	OnlineThreshold   = 60
	DegradedThreshold = 300
)

// uptimeWindow is the window the uptime percentage is measured against.
const uptimeWindow = 86400.0 // 24h in seconds

// NodeStatus classifies a pod's freshness relative to the maximum
// last-seen timestamp observed in the current batch. This is deliberately
// not an absolute liveness check: a batch where every pod is stale still
// marks the freshest one online.
func NodeStatus(lastSeen, maxLastSeen int64) string {
	delta := maxLastSeen - lastSeen
	switch {
	case delta <= OnlineThreshold:
		return models.StatusOnline
	case delta <= DegradedThreshold:
		return models.StatusDegraded
	default:
		return models.StatusOffline
	}
}

// UptimePercent converts raw consecutive-uptime seconds into a displayed
// percentage over a 24h window. Nodes that are not online get the staleness
// window subtracted as a penalty; otherwise a node that went offline long
// ago would still show near-100%. Result is clamped to [0,100] and rounded
// to one decimal.
func UptimePercent(uptimeSeconds, lastSeen, maxLastSeen int64, status string) float64 {
	base := float64(uptimeSeconds) / uptimeWindow * 100
	if base > 100 {
		base = 100
	}

	if status != models.StatusOnline {
		offlineSeconds := maxLastSeen - lastSeen
		penalty := float64(offlineSeconds) / uptimeWindow * 100
		base -= penalty
		if base < 0 {
			base = 0
		}
	}

	return math.Round(base*10) / 10
}

// HealthScore computes the 0-100 composite quality score. The weight
// boundaries (40/30/20/10/10/5/5/5) and thresholds (80%, 95%, 24h) must
// stay identical across every call site that displays a score, so this is
// the only implementation.
func HealthScore(pod *models.Pod, status string) int {
	score := 0.0

	// Status weight (40)
	switch status {
	case models.StatusOnline:
		score += 40
	case models.StatusDegraded:
		score += 20
	}

	// Uptime weight (30), caps at 24h
	uptimeHours := float64(pod.Uptime) / 3600
	uptimeScore := uptimeHours / 24 * 30
	if uptimeScore > 30 {
		uptimeScore = 30
	}
	score += uptimeScore

	// Storage weight (10 + 10)
	if pod.StorageCommitted > 0 {
		score += 10
		if pod.StorageUsagePercent < 80 {
			score += 10
		} else if pod.StorageUsagePercent < 95 {
			score += 5
		}
	}

	// Metadata completeness (5 + 5)
	if pod.Version != "" && pod.Version != "unknown" {
		score += 5
	}
	if pod.Pubkey != "" {
		score += 5
	}

	result := int(math.Round(score))
	if result > 100 {
		result = 100
	}
	if result < 0 {
		result = 0
	}
	return result
}

// NodeID derives a stable identifier from the first 8 characters of the
// pubkey and the last two octets of the IP. Pods without a pubkey get a
// deterministic placeholder hashed from the address, so the id does not
// change between fetches.
func NodeID(pubkey, address string) string {
	if pubkey == "" {
		sum := sha256.Sum256([]byte(address))
		return "unknown-" + hex.EncodeToString(sum[:])[:6]
	}

	prefix := pubkey
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	return prefix + "-" + lastTwoOctets(address)
}

func lastTwoOctets(address string) string {
	host, _, err := net.SplitHostPort(address)
	if err != nil {
		host = address
	}
	parts := strings.Split(host, ".")
	if len(parts) < 2 {
		return host
	}
	return parts[len(parts)-2] + "." + parts[len(parts)-1]
}

// MaxLastSeen returns the maximum last-seen timestamp in the batch, the
// reference point every status in the batch is computed against.
func MaxLastSeen(pods []models.Pod) int64 {
	var max int64
	for _, pod := range pods {
		if pod.LastSeenTimestamp > max {
			max = pod.LastSeenTimestamp
		}
	}
	return max
}

// NormalizePods converts a raw pod batch into canonical node records,
// dropping pods that lack a pubkey. Pure function: no I/O, no clock reads
// beyond converting the pod's own timestamp.
func NormalizePods(pods []models.Pod, network string, responseTime int64) []*models.Node {
	maxLastSeen := MaxLastSeen(pods)

	nodes := make([]*models.Node, 0, len(pods))
	for _, pod := range pods {
		if pod.Pubkey == "" {
			continue
		}

		host, portStr, err := net.SplitHostPort(pod.Address)
		if err != nil {
			host = pod.Address
		}
		port := pod.RpcPort
		if port == 0 {
			port, _ = strconv.Atoi(portStr)
		}

		status := NodeStatus(pod.LastSeenTimestamp, maxLastSeen)
		version := pod.Version
		if version == "" {
			version = "unknown"
		}

		node := &models.Node{
			ID:      NodeID(pod.Pubkey, pod.Address),
			Pubkey:  pod.Pubkey,
			IP:      host,
			Port:    port,
			Address: pod.Address,
			Network: network,

			Status:   status,
			IsPublic: pod.IsPublic,
			LastSeen: time.Unix(pod.LastSeenTimestamp, 0),

			UptimeSeconds: pod.Uptime,
			UptimePercent: UptimePercent(pod.Uptime, pod.LastSeenTimestamp, maxLastSeen, status),
			HealthScore:   HealthScore(&pod, status),

			StorageCommitted:    pod.StorageCommitted,
			StorageUsed:         pod.StorageUsed,
			StorageUsagePercent: pod.StorageUsagePercent,

			Version:      version,
			ResponseTime: responseTime,
		}

		versionStatus, needsUpgrade, severity := CheckVersionStatus(version, nil)
		node.VersionStatus = versionStatus
		node.IsUpgradeNeeded = needsUpgrade
		node.UpgradeSeverity = severity

		nodes = append(nodes, node)
	}

	return nodes
}
