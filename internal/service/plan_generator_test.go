package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port/porttest"
)

var widget = domain.RepositoryRef{Owner: "acme", Name: "widget"}

func TestFallbackPlan(t *testing.T) {
	for _, sc := range domain.Scenarios {
		t.Run(string(sc), func(t *testing.T) {
			p := FallbackPlan(sc)
			assert.Len(t, p.Transformations, 5)
			assert.Equal(t, sc == domain.ScenarioNoAuth, p.AddAuth)
			assert.Equal(t, "vercel", p.DeploymentStrategy)
		})
	}
}

func TestFallbackPlan_UnknownScenarioUsesDefault(t *testing.T) {
	assert.Equal(t, FallbackPlan(domain.ScenarioDefault), FallbackPlan("rewrite-in-rust"))
}

func TestFallbackPlan_ReturnsCopy(t *testing.T) {
	p := FallbackPlan(domain.ScenarioNoAuth)
	p.Transformations[0] = "changed"
	assert.Equal(t, "Install @stackframe/stack", FallbackPlan(domain.ScenarioNoAuth).Transformations[0])
}

func TestGenerate_NotConfigured(t *testing.T) {
	res := NewPlanGenerator(nil, time.Second).Generate(context.Background(), widget, nil, domain.ScenarioNoAuth)

	assert.Equal(t, domain.PlanFromFallback, res.Source)
	assert.Equal(t, "text generation not configured", res.FallbackReason)
	assert.Len(t, res.Plan.Transformations, 5)
	assert.True(t, res.Plan.AddAuth)
}

func TestGenerate_FromModel(t *testing.T) {
	gen := &porttest.Generator{Response: "```json\n{\"transformations\":[\"Bump React\",\"\",42,\"Add hooks\"],\"addAuth\":true}\n```"}
	m := &domain.Manifest{Dependencies: map[string]string{"react": "^16.0.0"}}

	res := NewPlanGenerator(gen, time.Second).Generate(context.Background(), widget, m, domain.ScenarioOutdatedReact)

	assert.Equal(t, domain.PlanFromModel, res.Source)
	assert.Empty(t, res.FallbackReason)
	assert.Equal(t, []string{"Bump React", "Add hooks"}, res.Plan.Transformations)
	assert.True(t, res.Plan.AddAuth)
	assert.Equal(t, "vercel", res.Plan.DeploymentStrategy)

	require.Len(t, gen.Prompts, 1)
	assert.Contains(t, gen.Prompts[0], "Repository: acme/widget")
	assert.Contains(t, gen.Prompts[0], "Scenario: outdated-react")
	assert.Contains(t, gen.Prompts[0], `"react": "^16.0.0"`)
}

func TestGenerate_FallsBack(t *testing.T) {
	tests := []struct {
		name string
		gen  *porttest.Generator
	}{
		{"model error", &porttest.Generator{Err: errors.New("connection refused")}},
		{"no json", &porttest.Generator{Response: "Sure! Here is a plan: update everything."}},
		{"broken json", &porttest.Generator{Response: `{"transformations": [}`}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := NewPlanGenerator(tt.gen, time.Second).Generate(context.Background(), widget, nil, domain.ScenarioNextMigration)
			assert.Equal(t, domain.PlanFromFallback, res.Source)
			assert.NotEmpty(t, res.FallbackReason)
			assert.Equal(t, FallbackPlan(domain.ScenarioNextMigration), res.Plan)
		})
	}
}

func TestParsePlan_Defaults(t *testing.T) {
	p, err := parsePlan(`{}`)
	require.NoError(t, err)
	assert.Equal(t, []string{}, p.Transformations)
	assert.False(t, p.AddAuth)
	assert.Equal(t, "vercel", p.DeploymentStrategy)

	p, err = parsePlan(`{"deploymentStrategy":"netlify"}`)
	require.NoError(t, err)
	assert.Equal(t, "netlify", p.DeploymentStrategy)
}
