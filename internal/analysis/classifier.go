package analysis

import (
	"fmt"
	"slices"
	"strings"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/pkg/config"
)

// Classification is the result of inspecting a manifest and root listing.
type Classification struct {
	Scenario  domain.Scenario
	Framework string
	Issues    []domain.Issue
	HasTests  bool
	HasDocker bool
	HasCI     bool
}

// Classify derives the scenario and issue list for a repository. A nil
// manifest means no package.json could be read.
func Classify(h config.Heuristics, m *domain.Manifest, files []domain.FileEntry) Classification {
	scenario, framework := DetectScenario(h, m)
	return Classification{
		Scenario:  scenario,
		Framework: framework,
		Issues:    DetectIssues(h, m, files),
		HasTests:  HasTests(files),
		HasDocker: HasDocker(files),
		HasCI:     HasCI(files),
	}
}

// DetectScenario picks exactly one scenario; the first matching rule wins.
// Framework rules read runtime dependencies only, the TypeScript rule reads
// both maps and the auth rule reads the merged map.
func DetectScenario(h config.Heuristics, m *domain.Manifest) (domain.Scenario, string) {
	if m == nil {
		return domain.ScenarioDefault, "unknown"
	}

	if v, ok := m.Dependency("react"); ok {
		if major, ok := MajorVersion(v); ok && h.IsOutdatedReact(major) {
			return domain.ScenarioOutdatedReact, "React " + trimRange(v)
		}
	}
	if v, ok := m.Dependency("next"); ok && majorBelow(v, h.NextScenarioBelow) {
		return domain.ScenarioNextMigration, "Next.js " + trimRange(v)
	}
	if !m.Has("typescript") && !m.Has("@types/react") {
		return domain.ScenarioAddTypeScript, "unknown"
	}
	if !hasAuthPackage(h, m) {
		return domain.ScenarioNoAuth, "unknown"
	}
	return domain.ScenarioDefault, "unknown"
}

// FrameworkName names the primary UI framework in the manifest, for summaries.
func FrameworkName(m *domain.Manifest) string {
	switch {
	case m.Has("next"):
		return "Next.js"
	case m.Has("react"):
		return "React"
	}
	return "Unknown"
}

func trimRange(v string) string {
	return strings.TrimLeft(v, "^~")
}

func hasAuthPackage(h config.Heuristics, m *domain.Manifest) bool {
	return slices.ContainsFunc(h.AuthPackages, m.Has)
}

// issueCheck inspects one aspect of a repository. Checks run in a fixed order
// so the issue list is stable for a given input.
type issueCheck func(h config.Heuristics, m *domain.Manifest, files []domain.FileEntry) (domain.Issue, bool)

var issueChecks = []issueCheck{
	checkOutdated,
	checkAuth,
	checkTypeScript,
	checkTests,
	checkDocker,
	checkCI,
}

// DetectIssues runs every check and collects what they report.
func DetectIssues(h config.Heuristics, m *domain.Manifest, files []domain.FileEntry) []domain.Issue {
	issues := []domain.Issue{}
	for _, check := range issueChecks {
		if issue, found := check(h, m, files); found {
			issues = append(issues, issue)
		}
	}
	return issues
}

func checkOutdated(h config.Heuristics, m *domain.Manifest, _ []domain.FileEntry) (domain.Issue, bool) {
	if m == nil {
		return domain.Issue{}, false
	}
	deps := m.Merged()

	var items []string
	if v, ok := deps["react"]; ok {
		if major, ok := MajorVersion(v); ok && h.IsOutdatedReact(major) {
			items = append(items, "React (outdated)")
		}
	}
	if v, ok := deps["next"]; ok && majorBelow(v, h.NextIssueBelow) {
		items = append(items, "Next.js (outdated)")
	}
	if v, ok := deps["webpack"]; ok && majorBelow(v, h.WebpackIssueBelow) {
		items = append(items, "Webpack (outdated)")
	}
	if len(items) == 0 {
		return domain.Issue{}, false
	}
	return domain.Issue{
		Type:           domain.IssueOutdatedDependencies,
		Severity:       domain.SeverityHigh,
		Message:        fmt.Sprintf("%d outdated dependencies detected", len(items)),
		Recommendation: "Upgrade to the current major versions",
		Items:          items,
	}, true
}

func checkAuth(h config.Heuristics, m *domain.Manifest, _ []domain.FileEntry) (domain.Issue, bool) {
	if m == nil || hasAuthPackage(h, m) {
		return domain.Issue{}, false
	}
	return domain.Issue{
		Type:           domain.IssueNoAuthentication,
		Severity:       domain.SeverityMedium,
		Message:        "No authentication system detected",
		Recommendation: "Add an authentication provider such as Stack Auth",
	}, true
}

func checkTypeScript(_ config.Heuristics, m *domain.Manifest, _ []domain.FileEntry) (domain.Issue, bool) {
	if m == nil {
		return domain.Issue{
			Type:     domain.IssueNoTypeScript,
			Severity: domain.SeverityLow,
			Message:  "No package.json found; TypeScript usage unknown",
		}, true
	}
	if m.Has("typescript") {
		return domain.Issue{}, false
	}
	return domain.Issue{
		Type:           domain.IssueNoTypeScript,
		Severity:       domain.SeverityLow,
		Message:        "JavaScript-only project",
		Recommendation: "Migrate to TypeScript",
	}, true
}

func checkTests(_ config.Heuristics, _ *domain.Manifest, files []domain.FileEntry) (domain.Issue, bool) {
	if HasTests(files) {
		return domain.Issue{}, false
	}
	return domain.Issue{
		Type:     domain.IssueNoTests,
		Severity: domain.SeverityMedium,
		Message:  "No test suite detected",
	}, true
}

func checkDocker(_ config.Heuristics, _ *domain.Manifest, files []domain.FileEntry) (domain.Issue, bool) {
	if HasDocker(files) {
		return domain.Issue{}, false
	}
	return domain.Issue{
		Type:     domain.IssueNoDocker,
		Severity: domain.SeverityLow,
		Message:  "No Docker configuration",
	}, true
}

func checkCI(_ config.Heuristics, _ *domain.Manifest, files []domain.FileEntry) (domain.Issue, bool) {
	if HasCI(files) {
		return domain.Issue{}, false
	}
	return domain.Issue{
		Type:     domain.IssueNoCI,
		Severity: domain.SeverityLow,
		Message:  "No CI/CD pipeline",
	}, true
}

// HasTests reports whether a root entry looks like a test suite.
func HasTests(files []domain.FileEntry) bool {
	return slices.ContainsFunc(files, func(f domain.FileEntry) bool {
		return strings.Contains(f.Name, "test") || strings.Contains(f.Name, "spec") || f.Name == "__tests__"
	})
}

// HasDocker reports whether a Dockerfile or compose file sits at the root.
func HasDocker(files []domain.FileEntry) bool {
	return hasEntry(files, "Dockerfile", "docker-compose.yml")
}

// HasCI reports whether GitHub Actions or GitLab CI is configured.
func HasCI(files []domain.FileEntry) bool {
	return hasEntry(files, ".github", ".gitlab-ci.yml")
}

func hasEntry(files []domain.FileEntry, names ...string) bool {
	return slices.ContainsFunc(files, func(f domain.FileEntry) bool {
		return slices.Contains(names, f.Name)
	})
}
