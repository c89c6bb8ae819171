package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
)

// Heuristics holds the thresholds used to classify a repository.
// They can be overridden with a TOML file; unset keys keep their defaults.
type Heuristics struct {
	StaleAfterDays       int      `toml:"stale_after_days"`
	OutdatedReactMajors  []int    `toml:"outdated_react_majors"`
	NextScenarioBelow    int      `toml:"next_scenario_below"`
	NextIssueBelow       int      `toml:"next_issue_below"`
	WebpackIssueBelow    int      `toml:"webpack_issue_below"`
	AuthPackages         []string `toml:"auth_packages"`
	FileStructurePreview int      `toml:"file_structure_preview"`
}

// DefaultHeuristics returns the built-in thresholds.
func DefaultHeuristics() Heuristics {
	return Heuristics{
		StaleAfterDays:      180,
		OutdatedReactMajors: []int{16, 17},
		NextScenarioBelow:   13,
		NextIssueBelow:      14,
		WebpackIssueBelow:   5,
		AuthPackages: []string{
			"@stackframe/stack",
			"next-auth",
			"auth0",
			"firebase",
		},
		FileStructurePreview: 20,
	}
}

// LoadHeuristics reads a TOML file over the defaults. An empty path returns
// the defaults unchanged.
func LoadHeuristics(path string) (Heuristics, error) {
	h := DefaultHeuristics()
	if path == "" {
		return h, nil
	}
	if _, err := toml.DecodeFile(path, &h); err != nil {
		return h, fmt.Errorf("decode heuristics %s: %w", path, err)
	}
	if h.StaleAfterDays <= 0 {
		return h, fmt.Errorf("heuristics %s: stale_after_days must be positive", path)
	}
	return h, nil
}

// StaleThreshold is the inactivity period after which a repository counts as dead.
func (h Heuristics) StaleThreshold() time.Duration {
	return time.Duration(h.StaleAfterDays) * 24 * time.Hour
}

// IsOutdatedReact reports whether a React major version is listed as outdated.
func (h Heuristics) IsOutdatedReact(major int) bool {
	return slices.Contains(h.OutdatedReactMajors, major)
}
