package domain

import "time"

// Analysis is the full result of analyzing one repository.
type Analysis struct {
	Repository      RepositorySummary `json:"repository"`
	Analysis        AnalysisDetail    `json:"analysis"`
	Recommendations Recommendations   `json:"recommendations"`
}

// RepositorySummary carries metadata and staleness for the analyzed repository.
// IsDead and DaysSinceLastCommit are nil when no timestamp could be found.
type RepositorySummary struct {
	Owner               string     `json:"owner"`
	Name                string     `json:"name"`
	FullName            string     `json:"fullName"`
	Description         string     `json:"description"`
	Stars               int        `json:"stars"`
	Language            string     `json:"language"`
	LastCommit          *time.Time `json:"lastCommit"`
	DaysSinceLastCommit *int       `json:"daysSinceLastCommit"`
	IsDead              *bool      `json:"isDead"`
}

// AnalysisDetail is the classification output.
type AnalysisDetail struct {
	Framework     string           `json:"framework"`
	Scenario      Scenario         `json:"scenario"`
	PackageJSON   *ManifestSummary `json:"packageJson"`
	FileStructure []FileEntry      `json:"fileStructure"`
	HasTests      bool             `json:"hasTests"`
	HasDocker     bool             `json:"hasDocker"`
	HasCI         bool             `json:"hasCI"`
	Issues        []Issue          `json:"issues"`
	IssueCount    int              `json:"issueCount"`
}

// Recommendations is the suggested next action for a repository.
type Recommendations struct {
	Scenario      Scenario `json:"scenario"`
	Priority      Severity `json:"priority"`
	EstimatedTime string   `json:"estimatedTime"`
}

// AnalysisReport is a persisted analysis result.
type AnalysisReport struct {
	ID         string    `json:"id"`
	Repository string    `json:"repository"`
	Scenario   Scenario  `json:"scenario"`
	IssueCount int       `json:"issue_count"`
	IsDead     *bool     `json:"is_dead"`
	Payload    string    `json:"payload"` // JSON blob of Analysis
	CreatedAt  time.Time `json:"created_at"`
}
