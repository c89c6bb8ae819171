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

// AnalysisService inspects a GitHub repository and classifies it.
type AnalysisService struct {
	scm        port.SourceControl
	reports    port.ReportStore
	heuristics config.Heuristics
	timeout    time.Duration
	now        func() time.Time
}

// NewAnalysisService creates an analysis service. reports may be nil, in
// which case results are not persisted.
func NewAnalysisService(scm port.SourceControl, reports port.ReportStore, h config.Heuristics, timeout time.Duration) *AnalysisService {
	return &AnalysisService{
		scm:        scm,
		reports:    reports,
		heuristics: h,
		timeout:    timeout,
		now:        time.Now,
	}
}

// Analyze fetches repository metadata, manifest, root listing and latest
// commit, then classifies the repository. Only the metadata fetch is
// required; every other missing artifact degrades its own field.
func (s *AnalysisService) Analyze(ctx context.Context, repoURL string) (*domain.Analysis, error) {
	if strings.TrimSpace(repoURL) == "" {
		return nil, fmt.Errorf("%w: repository URL is required", port.ErrInvalidInput)
	}
	ref, err := analysis.ParseRepoURL(repoURL)
	if err != nil {
		return nil, err
	}

	slog.Info("analyzing repository", "repo", ref.FullName())

	callCtx, cancel := withTimeout(ctx, s.timeout)
	info, err := s.scm.GetRepository(callCtx, ref)
	cancel()
	if err != nil {
		return nil, fmt.Errorf("fetch repository: %w", err)
	}

	manifest := fetchManifest(ctx, s.scm, ref, s.timeout)
	files := fetchRoot(ctx, s.scm, ref, s.timeout)
	last := fetchLastActivity(ctx, s.scm, ref, nil, s.timeout)

	c := analysis.Classify(s.heuristics, manifest, files)
	stale := analysis.ComputeStaleness(last, s.now(), s.heuristics.StaleThreshold())

	priority := domain.SeverityMedium
	if stale.Stale {
		priority = domain.SeverityHigh
	}

	preview := files
	if n := s.heuristics.FileStructurePreview; n > 0 && len(preview) > n {
		preview = preview[:n]
	}

	fullName := info.FullName
	if fullName == "" {
		fullName = ref.FullName()
	}

	result := &domain.Analysis{
		Repository: domain.RepositorySummary{
			Owner:               ref.Owner,
			Name:                ref.Name,
			FullName:            fullName,
			Description:         info.Description,
			Stars:               info.Stars,
			Language:            info.Language,
			LastCommit:          stale.LastActivity,
			DaysSinceLastCommit: stale.DaysSince,
			IsDead:              stale.IsDead(),
		},
		Analysis: domain.AnalysisDetail{
			Framework:     c.Framework,
			Scenario:      c.Scenario,
			PackageJSON:   manifest.Summary(),
			FileStructure: preview,
			HasTests:      c.HasTests,
			HasDocker:     c.HasDocker,
			HasCI:         c.HasCI,
			Issues:        c.Issues,
			IssueCount:    len(c.Issues),
		},
		Recommendations: domain.Recommendations{
			Scenario:      c.Scenario,
			Priority:      priority,
			EstimatedTime: "3-5 minutes",
		},
	}

	slog.Info("repository analyzed",
		"repo", ref.FullName(),
		"scenario", c.Scenario,
		"issues", len(c.Issues),
		"has_manifest", manifest != nil,
	)

	s.saveReport(ctx, result)
	return result, nil
}

// saveReport persists the analysis. Failures are logged and never surface.
func (s *AnalysisService) saveReport(ctx context.Context, a *domain.Analysis) {
	if s.reports == nil {
		return
	}
	payload, err := json.Marshal(a)
	if err != nil {
		slog.Warn("encode analysis report", "repo", a.Repository.FullName, "error", err)
		return
	}
	report := &domain.AnalysisReport{
		Repository: a.Repository.Owner + "/" + a.Repository.Name,
		Scenario:   a.Analysis.Scenario,
		IssueCount: a.Analysis.IssueCount,
		IsDead:     a.Repository.IsDead,
		Payload:    string(payload),
	}
	if err := s.reports.SaveReport(ctx, report); err != nil {
		slog.Warn("save analysis report", "repo", report.Repository, "error", err)
	}
}

// ListReports returns stored reports for a repository, newest first.
func (s *AnalysisService) ListReports(ctx context.Context, repository string, limit int) ([]domain.AnalysisReport, error) {
	if s.reports == nil {
		return nil, fmt.Errorf("%w: DATABASE_URL", port.ErrNotConfigured)
	}
	return s.reports.ListReports(ctx, repository, limit)
}
