package primitives

import (
	"crypto/sha256"
	"fmt"
	"time"

	"github.com/goccy/go-json"
)

// ComputeVersion computes deterministic version for MachineConfig.
// Priority: user-provided config.Version, else SHA256(config JSON)[:8] + timestamp.
func ComputeVersion(config *MachineConfig) string {
	if config.Version != "" {
		return config.Version
	}
	return fmt.Sprintf("%s-%s", Fingerprint(config), time.Now().UTC().Format("20060102T150405Z"))
}

// Fingerprint returns the hex SHA256 prefix of the config's JSON encoding.
// Map keys are encoded in sorted order, so equal configs share a fingerprint.
func Fingerprint(config *MachineConfig) string {
	data, err := json.Marshal(config)
	if err != nil {
		// Fallback (should not happen for valid config)
		return fmt.Sprintf("invalid-%d", time.Now().Unix())
	}

	hash := sha256.Sum256(data)
	return fmt.Sprintf("%x", hash[:8])
}
