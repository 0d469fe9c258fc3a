package utils

import (
	"strings"

	"github.com/hashicorp/go-version"
)

// VersionConfig holds current version requirements
type VersionConfig struct {
	CurrentStable string
	MinSupported  string
	Deprecated    string
}

var DefaultVersionConfig = VersionConfig{
	CurrentStable: "0.8.0",
	MinSupported:  "0.7.3",
	Deprecated:    "0.7.2", // Versions below this are deprecated
}

// CheckVersionStatus determines if a node version needs upgrading.
func CheckVersionStatus(nodeVersion string, config *VersionConfig) (status string, needsUpgrade bool, severity string) {
	if config == nil {
		config = &DefaultVersionConfig
	}

	nodeVersion = strings.TrimPrefix(nodeVersion, "v")

	nodeVer, err := version.NewVersion(nodeVersion)
	if err != nil {
		return "unknown", false, "none"
	}

	current, _ := version.NewVersion(config.CurrentStable)
	minSupported, _ := version.NewVersion(config.MinSupported)
	deprecated, _ := version.NewVersion(config.Deprecated)

	if nodeVer.LessThan(deprecated) {
		return "deprecated", true, "critical"
	}
	if nodeVer.LessThan(minSupported) {
		return "outdated", true, "warning"
	}
	if nodeVer.LessThan(current) {
		return "outdated", true, "info"
	}

	return "current", false, "none"
}
