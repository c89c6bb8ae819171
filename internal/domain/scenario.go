package domain

// Scenario names a resurrection strategy.
type Scenario string

const (
	ScenarioOutdatedReact Scenario = "outdated-react"
	ScenarioNextMigration Scenario = "nextjs-migration"
	ScenarioAddTypeScript Scenario = "add-typescript"
	ScenarioNoAuth        Scenario = "no-auth"
	ScenarioDefault       Scenario = "default"
)

// Scenarios lists every known scenario in classification order.
var Scenarios = []Scenario{
	ScenarioOutdatedReact,
	ScenarioNextMigration,
	ScenarioAddTypeScript,
	ScenarioNoAuth,
	ScenarioDefault,
}

// ParseScenario maps caller input to a Scenario. Empty input means
// ScenarioDefault. Unknown names are kept as given so callers can still
// echo them back; IsKnown tells them apart.
func ParseScenario(s string) Scenario {
	if s == "" {
		return ScenarioDefault
	}
	return Scenario(s)
}

// IsKnown reports whether s is one of the listed scenarios.
func (s Scenario) IsKnown() bool {
	for _, known := range Scenarios {
		if s == known {
			return true
		}
	}
	return false
}
