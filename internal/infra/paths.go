package infra

import (
	"os"
	"path/filepath"
	"strings"
)

const (
	AppName = "crypto-tycoon"

	// ConfigEnv names a config file that wins over the search path.
	ConfigEnv = "TYCOON_CONFIG"
)

// ConfigCandidates lists where config.yaml is looked for, highest priority
// first: $TYCOON_CONFIG, ./configs, then the OS config dir.
func ConfigCandidates() []string {
	var out []string
	if p := os.Getenv(ConfigEnv); p != "" {
		out = append(out, p)
	}
	out = append(out, filepath.Join("configs", "config.yaml"))
	if root, err := os.UserConfigDir(); err == nil {
		out = append(out, filepath.Join(root, AppName, "config.yaml"))
	}
	return out
}

// ResolveConfigPath returns the first candidate that exists. When none does
// it returns the top candidate and LoadConfig falls back to defaults.
func ResolveConfigPath() string {
	candidates := ConfigCandidates()
	for _, p := range candidates {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return candidates[0]
}

// EnsureJournalDir creates the parent directory of a file-backed journal.
// In-memory DSNs and sqlite URIs are left alone.
func EnsureJournalDir(dsn string) error {
	if dsn == "" || strings.HasPrefix(dsn, ":") || strings.HasPrefix(dsn, "file:") {
		return nil
	}
	return os.MkdirAll(filepath.Dir(dsn), 0o755)
}
