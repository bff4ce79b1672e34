package config

// Presets are named run configurations per scenario. The constants are
// empirical tuning, exposed as plain configuration.
var Presets = map[string]map[string]*Config{
	"blowdown": {
		"gentle": {
			Scenario: "blowdown", Integrator: "rk4", Strategy: "relaxed",
			Dt: 0.01, Duration: 5.0, MinDt: 1e-4,
			MaxRetries: 8, CutbackFactor: 0.5, GrowFactor: 2.0,
			MaxSteps: DefaultMaxSteps, RecordEvery: 5,
		},
		"fast": {
			Scenario: "blowdown", Integrator: "rk4", Strategy: "relaxed",
			Dt: 0.05, Duration: 5.0, MinDt: 1e-3,
			MaxRetries: 12, CutbackFactor: 0.5, GrowFactor: 1.5,
			MaxSteps: DefaultMaxSteps, RecordEvery: 1,
		},
		"stress": {
			Scenario: "blowdown", Integrator: "euler", Strategy: "relaxed",
			Dt: 0.002, Duration: 2.0, MinDt: 1e-5,
			MaxRetries: 16, CutbackFactor: 0.25, GrowFactor: 1.2,
			MaxSteps: DefaultMaxSteps, RecordEvery: 20,
		},
	},
	"pumploop": {
		"spinup": {
			Scenario: "pumploop", Integrator: "rk4", Strategy: "strict",
			Dt: 0.02, Duration: 10.0, MinDt: 1e-4,
			MaxRetries: 8, CutbackFactor: 0.5, GrowFactor: 2.0,
			MaxSteps: DefaultMaxSteps, RecordEvery: 5,
		},
		"coastdown": {
			Scenario: "pumploop", Integrator: "rk4", Strategy: "strict",
			Dt: 0.05, Duration: 30.0, MinDt: 1e-3,
			MaxRetries: 8, CutbackFactor: 0.5, GrowFactor: 2.0,
			MaxSteps: DefaultMaxSteps, RecordEvery: 10,
		},
	},
}

func GetPreset(scenario, preset string) *Config {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	cfg, ok := scenarioPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(scenario string) []string {
	scenarioPresets, ok := Presets[scenario]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenarioPresets))
	for name := range scenarioPresets {
		names = append(names, name)
	}
	return names
}
