package domain

// TransformationPlan is the ordered list of changes proposed for a repository.
type TransformationPlan struct {
	Transformations    []string `json:"transformations"`
	AddAuth            bool     `json:"addAuth"`
	DeploymentStrategy string   `json:"deploymentStrategy"`
}

// DefaultDeploymentStrategy is used when a plan does not name one.
const DefaultDeploymentStrategy = "vercel"

// PlanSource tells where a plan came from.
type PlanSource string

const (
	PlanFromModel    PlanSource = "model"
	PlanFromFallback PlanSource = "fallback"
)
