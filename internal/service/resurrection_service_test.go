package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arturoeanton/ghost-commit/internal/adapter/store"
	"github.com/arturoeanton/ghost-commit/internal/domain"
	"github.com/arturoeanton/ghost-commit/internal/port"
	"github.com/arturoeanton/ghost-commit/internal/port/porttest"
)

func newResurrection(src *porttest.Source, gen *porttest.Generator, sessions port.SessionStore) *ResurrectionService {
	var planner *PlanGenerator
	if gen != nil {
		planner = NewPlanGenerator(gen, time.Second)
	} else {
		planner = NewPlanGenerator(nil, time.Second)
	}
	s := NewResurrectionService(src, planner, sessions, true, time.Second)
	s.now = func() time.Time { return fixedNow }
	return s
}

func stepStatuses(steps []domain.ResurrectionStep) []domain.StepStatus {
	out := make([]domain.StepStatus, len(steps))
	for i, st := range steps {
		out[i] = st.Status
	}
	return out
}

func TestResurrect_NoAuthWithoutModel(t *testing.T) {
	src := &porttest.Source{Files: map[string][]byte{
		"package.json": []byte(`{"name":"widget","dependencies":{"react":"^18.2.0","typescript":"^5.0.0"}}`),
	}}
	sessions := store.NewMemorySessionStore(0)

	res, err := newResurrection(src, nil, sessions).Resurrect(context.Background(), ResurrectRequest{
		RepoURL:  "https://github.com/acme/widget",
		Scenario: "no-auth",
	})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.SessionID, "resurrection_"))
	assert.Equal(t, domain.ScenarioNoAuth, res.Scenario)
	assert.Equal(t, domain.PlanFromFallback, res.PlanSource)
	assert.Len(t, res.Result.Transformations, 5)
	assert.Len(t, res.Result.FilesModified, 5)
	assert.True(t, res.Result.Simulated)
	assert.Equal(t, "https://widget-resurrected.vercel.app", res.Result.DeploymentURL)
	assert.Equal(t, "https://github.com/acme/widget/pull/new/ghost-commit-resurrection", res.Result.PRURL)

	require.Len(t, res.Steps, 5)
	for _, st := range res.Steps {
		assert.Equal(t, domain.StepCompleted, st.Status, st.ID)
	}
	assert.Equal(t, "🔐 Stack Auth Integration Complete", res.Steps[3].Title)
	assert.Contains(t, res.Steps[0].Details, "Analyzed acme/widget")
	assert.Contains(t, res.Steps[0].Details, "Package: widget")
	assert.Contains(t, res.Steps[1].Details, "Transformation Plan:")
	assert.Contains(t, res.Steps[1].Details, "Set OLLAMA_CHAT_URL or GEMINI_API_KEY")

	sess, err := sessions.Get(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepCompleted, sess.Status)
	assert.Equal(t, stepStatuses(res.Steps), stepStatuses(sess.Steps))
}

func TestResurrect_AuthSkippedForOtherScenarios(t *testing.T) {
	res, err := newResurrection(&porttest.Source{}, nil, nil).Resurrect(context.Background(), ResurrectRequest{
		RepoURL:  "https://github.com/acme/widget",
		Scenario: "outdated-react",
	})
	require.NoError(t, err)
	assert.Equal(t, "Authentication Skipped", res.Steps[3].Title)
	assert.Equal(t, domain.StepCompleted, res.Steps[3].Status)
	assert.Contains(t, res.Steps[0].Details, "Package: Unknown")
	assert.Contains(t, res.Steps[0].Details, "Dependencies: 0")
}

func TestResurrect_ModelPlanCanRequestAuth(t *testing.T) {
	gen := &porttest.Generator{Response: `{"transformations":["Upgrade React"],"addAuth":true,"deploymentStrategy":"vercel"}`}
	res, err := newResurrection(&porttest.Source{}, gen, nil).Resurrect(context.Background(), ResurrectRequest{
		RepoURL: "https://github.com/acme/widget",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.ScenarioDefault, res.Scenario)
	assert.Equal(t, domain.PlanFromModel, res.PlanSource)
	assert.Equal(t, []string{"Upgrade React"}, res.Result.Transformations)
	assert.Equal(t, "AI Generated Plan:\nUpgrade React", res.Steps[1].Details)
	assert.Equal(t, "🔐 Stack Auth Integration Complete", res.Steps[3].Title)
}

func TestResurrect_Validation(t *testing.T) {
	svc := newResurrection(&porttest.Source{}, nil, nil)

	_, err := svc.Resurrect(context.Background(), ResurrectRequest{})
	assert.ErrorIs(t, err, port.ErrInvalidInput)

	_, err = svc.Resurrect(context.Background(), ResurrectRequest{RepoURL: "not a url"})
	assert.ErrorIs(t, err, port.ErrInvalidURL)

	svc.credentialed = false
	_, err = svc.Resurrect(context.Background(), ResurrectRequest{RepoURL: "https://github.com/acme/widget"})
	assert.ErrorIs(t, err, port.ErrNotConfigured)
}

func TestResurrect_CancelledRunMarksStepFailed(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sessions := store.NewMemorySessionStore(0)

	res, err := newResurrection(&porttest.Source{}, nil, sessions).Resurrect(ctx, ResurrectRequest{
		RepoURL: "https://github.com/acme/widget",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, res)

	assert.Equal(t, []domain.StepStatus{
		domain.StepFailed, domain.StepPending, domain.StepPending, domain.StepPending, domain.StepPending,
	}, stepStatuses(res.Steps))
	assert.Empty(t, res.Result.PRURL)

	sess, err := sessions.Get(context.Background(), res.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.StepFailed, sess.Status)
}

func TestNewSessionID(t *testing.T) {
	id := newSessionID(fixedNow)
	parts := strings.Split(id, "_")
	require.Len(t, parts, 3)
	assert.Equal(t, "resurrection", parts[0])
	assert.Len(t, parts[2], 9)
	assert.NotEqual(t, id, newSessionID(fixedNow))
}
