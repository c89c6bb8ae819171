package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/arturoeanton/ghost-commit/internal/analysis"
	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
	"github.com/arturoeanton/ghost-commit/pkg/config"
)

const insightSystemPrompt = "You are an expert software architect analyzing GitHub repositories. Provide concise, actionable insights."

// AIUnavailable replaces the narrative when the text generator fails.
const AIUnavailable = "AI analysis unavailable"

// QuickAnalysis is a lightweight, read-only analysis with an optional
// model-written narrative.
type QuickAnalysis struct {
	Repository      QuickRepository      `json:"repository"`
	Analysis        QuickDetail          `json:"analysis"`
	Recommendations QuickRecommendations `json:"recommendations"`
}

type QuickRepository struct {
	Owner               string     `json:"owner"`
	Name                string     `json:"name"`
	FullName            string     `json:"fullName"`
	Description         string     `json:"description"`
	Stars               int        `json:"stars"`
	Language            string     `json:"language"`
	LastCommit          *time.Time `json:"lastCommit"`
	DaysSinceLastCommit *int       `json:"daysSinceLastCommit"`
	IsStale             bool       `json:"isStale"`
}

type QuickDetail struct {
	HasPackageJSON  bool           `json:"hasPackageJson"`
	Framework       string         `json:"framework"`
	Dependencies    int            `json:"dependencies"`
	DevDependencies int            `json:"devDependencies"`
	Issues          []domain.Issue `json:"issues"`
	AIInsights      *string        `json:"aiInsights"`
}

type QuickRecommendations struct {
	Priority      domain.Severity `json:"priority"`
	EstimatedTime string          `json:"estimatedTime"`
	TopActions    []string        `json:"topActions"`
}

// InsightService produces quick analyses.
type InsightService struct {
	scm          port.SourceControl
	llm          port.TextGenerator
	heuristics   config.Heuristics
	credentialed bool
	timeout      time.Duration
	now          func() time.Time
}

// NewInsightService creates the service. llm may be nil.
func NewInsightService(scm port.SourceControl, llm port.TextGenerator, h config.Heuristics, credentialed bool, timeout time.Duration) *InsightService {
	return &InsightService{
		scm:          scm,
		llm:          llm,
		heuristics:   h,
		credentialed: credentialed,
		timeout:      timeout,
		now:          time.Now,
	}
}

// QuickAnalyze returns ErrNotConfigured when no GitHub credentials are set.
func (s *InsightService) QuickAnalyze(ctx context.Context, repoURL string) (*QuickAnalysis, error) {
	if strings.TrimSpace(repoURL) == "" {
		return nil, fmt.Errorf("%w: repository URL is required", port.ErrInvalidInput)
	}
	ref, err := analysis.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}
	if !s.credentialed {
		return nil, fmt.Errorf("%w: GITHUB_TOKEN", port.ErrNotConfigured)
	}

	callCtx, cancel := withTimeout(ctx, s.timeout)
	info, err := s.scm.GetRepository(callCtx, ref)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch repository: %w", err)
	}

	manifest := fetchManifest(ctx, s.scm, ref, s.timeout)
	files := fetchRoot(ctx, s.scm, ref, s.timeout)
	last := fetchLastActivity(ctx, s.scm, ref, info.UpdatedAt, s.timeout)
	stale := analysis.ComputeStaleness(last, s.now(), s.heuristics.StaleThreshold())
	issues := analysis.DetectIssues(s.heuristics, manifest, files)

	fullName := info.FullName
	if fullName == "" {
		fullName = ref.FullName()
	}

	qa := &QuickAnalysis{
		Repository: QuickRepository{
			Owner:               ref.Owner,
			Name:                ref.Name,
			FullName:            fullName,
			Description:         info.Description,
			Stars:               info.Stars,
			Language:            info.Language,
			LastCommit:          stale.LastActivity,
			DaysSinceLastCommit: stale.DaysSince,
			IsStale:             stale.Stale,
		},
		Analysis: QuickDetail{
			HasPackageJSON: manifest != nil,
			Framework:      analysis.FrameworkName(manifest),
			Issues:         issues,
		},
		Recommendations: recommend(issues),
	}
	if manifest != nil {
		qa.Analysis.Dependencies = len(manifest.Dependencies)
		qa.Analysis.DevDependencies = len(manifest.DevDependencies)
		qa.Analysis.AIInsights = s.narrate(ctx, info, manifest)
	}
	return qa, nil
}

// narrate asks the model for a short narrative. It returns nil when no model
// is configured and AIUnavailable when the call fails.
func (s *InsightService) narrate(ctx context.Context, info *domain.RepoInfo, m *domain.Manifest) *string {
	if s.llm == nil {
		return nil
	}
	callCtx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.llm.Chat(callCtx, insightSystemPrompt, insightPrompt(info, m), port.ChatOptions{
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		slog.Warn("insight generation failed", "repo", info.FullName, "error", err)
		text = AIUnavailable
	}
	text = strings.TrimSpace(text)
	return &text
}

func insightPrompt(info *domain.RepoInfo, m *domain.Manifest) string {
	deps, _ := json.MarshalIndent(m.Dependencies, "", "  ")
	devDeps, _ := json.MarshalIndent(m.DevDependencies, "", "  ")
	description := info.Description
	if description == "" {
		description = "No description"
	}
	updated := "unknown"
	if info.UpdatedAt != nil {
		updated = info.UpdatedAt.Format(time.RFC3339)
	}

	return fmt.Sprintf(`Analyze this GitHub repository and provide specific, actionable recommendations:

Repository: %s
Description: %s
Language: %s
Stars: %d
Last Updated: %s

Package.json dependencies:
%s

DevDependencies:
%s

Provide a brief analysis (3-4 sentences) covering:
1. What this project does
2. Current state (outdated, modern, etc.)
3. Top 3 specific improvements needed
4. Estimated effort to modernize

Be specific and actionable. Format as plain text.`,
		info.FullName, description, info.Language, info.Stars, updated, deps, devDeps)
}

// recommend grades effort by the number of issues.
func recommend(issues []domain.Issue) QuickRecommendations {
	r := QuickRecommendations{TopActions: []string{}}
	switch n := len(issues); {
	case n > 2:
		r.Priority, r.EstimatedTime = domain.SeverityHigh, "4-6 hours"
	case n > 0:
		r.Priority, r.EstimatedTime = domain.SeverityMedium, "2-3 hours"
	default:
		r.Priority, r.EstimatedTime = domain.SeverityLow, "1 hour"
	}
	for _, is := range issues[:min(3, len(issues))] {
		action := is.Recommendation
		if action == "" {
			action = is.Message
		}
		r.TopActions = append(r.TopActions, action)
	}
	return r
}
