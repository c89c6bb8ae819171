package domain

// Severity ranks how urgently an issue should be addressed.
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// IssueType identifies a class of detected problem.
type IssueType string

const (
	IssueOutdatedDependencies IssueType = "outdated-dependencies"
	IssueNoAuthentication     IssueType = "no-authentication"
	IssueNoTypeScript         IssueType = "no-typescript"
	IssueNoTests              IssueType = "no-tests"
	IssueNoDocker             IssueType = "no-docker"
	IssueNoCI                 IssueType = "no-ci"
)

// Issue is a single problem found while classifying a repository.
type Issue struct {
	Type           IssueType `json:"type"`
	Severity       Severity  `json:"severity"`
	Message        string    `json:"message"`
	Recommendation string    `json:"recommendation,omitempty"`
	Items          []string  `json:"items,omitempty"`
}
