package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
)

const planSystemPrompt = "You are an expert at modernizing and resurrecting dead code repositories."

var fallbackPlans = map[domain.Scenario][]string{
	domain.ScenarioOutdatedReact: {
		"Update React 16/17 → 19",
		"Convert class components to hooks",
		"Update React Router v5 → v6",
		"Fix deprecated lifecycle methods",
		"Update build configuration",
	},
	domain.ScenarioNoAuth: {
		"Install @stackframe/stack",
		"Create auth pages (login/signup)",
		"Add protected routes",
		"Implement user context",
		"Configure OAuth providers",
	},
	domain.ScenarioNextMigration: {
		"Update Next.js to v14",
		"Create app directory",
		"Migrate pages to app router",
		"Convert to Server Components",
		"Update API routes to Route Handlers",
	},
	domain.ScenarioAddTypeScript: {
		"Install typescript and @types packages",
		"Add tsconfig.json with strict mode",
		"Rename .js/.jsx files to .ts/.tsx",
		"Add types to components and props",
		"Run type checking in CI",
	},
	domain.ScenarioDefault: {
		"Update all dependencies",
		"Fix breaking changes",
		"Add modern tooling",
		"Improve code quality",
		"Add deployment config",
	},
}

// FallbackPlan returns the static plan for a scenario. Unknown scenarios get
// the default plan. Only no-auth sets AddAuth.
func FallbackPlan(scenario domain.Scenario) domain.TransformationPlan {
	steps, ok := fallbackPlans[scenario]
	if !ok {
		scenario = domain.ScenarioDefault
		steps = fallbackPlans[domain.ScenarioDefault]
	}
	return domain.TransformationPlan{
		Transformations:    slices.Clone(steps),
		AddAuth:            scenario == domain.ScenarioNoAuth,
		DeploymentStrategy: domain.DefaultDeploymentStrategy,
	}
}

// PlanResult is a generated plan together with where it came from.
// FallbackReason is set whenever Source is PlanFromFallback.
type PlanResult struct {
	Plan           domain.TransformationPlan
	Source         domain.PlanSource
	FallbackReason string
}

// PlanGenerator drafts transformation plans with a text generator and falls
// back to the static table whenever the model is unavailable or unusable.
type PlanGenerator struct {
	llm     port.TextGenerator
	timeout time.Duration
}

// NewPlanGenerator creates a plan generator. llm may be nil.
func NewPlanGenerator(llm port.TextGenerator, timeout time.Duration) *PlanGenerator {
	return &PlanGenerator{llm: llm, timeout: timeout}
}

// Configured reports whether a text generator is available.
func (g *PlanGenerator) Configured() bool {
	return g.llm != nil
}

// Generate never fails: model errors are logged and replaced by the fallback.
func (g *PlanGenerator) Generate(ctx context.Context, ref domain.RepositoryRef, m *domain.Manifest, scenario domain.Scenario) PlanResult {
	if g.llm == nil {
		return PlanResult{
			Plan:           FallbackPlan(scenario),
			Source:         domain.PlanFromFallback,
			FallbackReason: "text generation not configured",
		}
	}

	plan, err := g.fromModel(ctx, ref, m, scenario)
	if err != nil {
		slog.Warn("model plan unavailable, using fallback",
			"repo", ref.FullName(),
			"scenario", scenario,
			"model", g.llm.ModelName(),
			"error", err,
		)
		return PlanResult{
			Plan:           FallbackPlan(scenario),
			Source:         domain.PlanFromFallback,
			FallbackReason: err.Error(),
		}
	}
	return PlanResult{Plan: plan, Source: domain.PlanFromModel}
}

func (g *PlanGenerator) fromModel(ctx context.Context, ref domain.RepositoryRef, m *domain.Manifest, scenario domain.Scenario) (domain.TransformationPlan, error) {
	callCtx, cancel := withTimeout(ctx, g.timeout)
	defer cancel()

	raw, err := g.llm.Chat(callCtx, planSystemPrompt, planPrompt(ref, m, scenario), port.ChatOptions{JSON: true})
	if err != nil {
		return domain.TransformationPlan{}, err
	}
	return parsePlan(raw)
}

func planPrompt(ref domain.RepositoryRef, m *domain.Manifest, scenario domain.Scenario) string {
	deps := map[string]string{}
	if m != nil && m.Dependencies != nil {
		deps = m.Dependencies
	}
	depsJSON, _ := json.MarshalIndent(deps, "", "  ")

	return fmt.Sprintf(`You are an expert code modernization AI. Analyze this repository and create a transformation plan.

Repository: %s
Scenario: %s
Current Dependencies: %s

Create a detailed plan to resurrect this dead project. Include:
1. Dependencies to update
2. Breaking changes to fix
3. New features to add
4. Deployment strategy

Return a JSON object with: { "transformations": string[], "addAuth": boolean, "deploymentStrategy": string }`,
		ref.FullName(), scenario, depsJSON)
}

var errMalformedPlan = errors.New("malformed plan response")

// parsePlan decodes a model response. Missing fields default to an empty
// list, false and "vercel". Markdown code fences around the object are tolerated.
func parsePlan(raw string) (domain.TransformationPlan, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end < start {
		return domain.TransformationPlan{}, fmt.Errorf("%w: no JSON object", errMalformedPlan)
	}

	var payload struct {
		Transformations    []any  `json:"transformations"`
		AddAuth            *bool  `json:"addAuth"`
		DeploymentStrategy string `json:"deploymentStrategy"`
	}
	if err := json.Unmarshal([]byte(raw[start:end+1]), &payload); err != nil {
		return domain.TransformationPlan{}, fmt.Errorf("%w: %v", errMalformedPlan, err)
	}

	plan := domain.TransformationPlan{
		Transformations:    []string{},
		DeploymentStrategy: payload.DeploymentStrategy,
	}
	for _, t := range payload.Transformations {
		if s, ok := t.(string); ok && strings.TrimSpace(s) != "" {
			plan.Transformations = append(plan.Transformations, s)
		}
	}
	if payload.AddAuth != nil {
		plan.AddAuth = *payload.AddAuth
	}
	if plan.DeploymentStrategy == "" {
		plan.DeploymentStrategy = domain.DefaultDeploymentStrategy
	}
	return plan, nil
}
