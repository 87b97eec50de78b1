// Package config holds the single Config value threaded by reference through
// the grounder, encoder, SAT driver and engine (spec.md §9's "shared config"
// design note). It is assembled from compiled-in defaults, then an optional
// YAML file, then CLI flags, each layer overriding the last — the same
// layering the teacher's own internal/ext/config.go and
// internal/evaluator/builtins_yaml.go establish gopkg.in/yaml.v3 for.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Mode selects how far the CLI pipeline runs (spec.md §6.1 -m).
type Mode string

const (
	ModeParse       Mode = "parse"
	ModeNormalize   Mode = "normalize"
	ModePreprocess  Mode = "preprocess"
	ModePlan        Mode = "plan"
)

// GroundingStrategy selects the grounder's parameter-selection rule
// (spec.md §4.3).
type GroundingStrategy string

const (
	StrategyMostFrequent    GroundingStrategy = "most-frequent"
	StrategyMinNew          GroundingStrategy = "min-new"
	StrategyMaxRigid        GroundingStrategy = "max-rigid"
	StrategyApproxMinNew    GroundingStrategy = "approx-min-new"
	StrategyApproxMaxRigid  GroundingStrategy = "approx-max-rigid"
	StrategyFirstEffect     GroundingStrategy = "first-effect"
)

// Encoding selects the encoder variant (spec.md §6.1 -e). Only "foreach" is
// implemented here; spec.md §9 calls out "sequential" and "exists" as
// exploratory variants whose comments are non-normative.
type Encoding string

const (
	EncodingForeach    Encoding = "foreach"
	EncodingSequential Encoding = "sequential"
	EncodingExists     Encoding = "exists"
)

// CachePolicy controls how the grounder's rigid/useless predicate caches are
// retained across refinement rounds (spec.md §4.3).
type CachePolicy string

const (
	CacheNone           CachePolicy = "none"
	CacheNoUnsuccessful CachePolicy = "no-unsuccessful"
	CacheUnsuccessful   CachePolicy = "unsuccessful"
)

// ValidationPolicy chooses whether schema validation instantiates yet-lifted
// atoms (Eager) or only trivially-ground ones (Trivial), spec.md §4.3.
type ValidationPolicy string

const (
	ValidationEager   ValidationPolicy = "eager"
	ValidationTrivial ValidationPolicy = "trivial"
)

// EngineMode selects one of the three orchestration patterns of spec.md
// §4.7. It has no flag of its own: cmd/planner switches to EngineInterrupt
// when -i is 2 or more, and EngineFixed is only reachable through YAML.
type EngineMode string

const (
	EngineOneshot   EngineMode = "oneshot"
	EngineInterrupt EngineMode = "interrupt"
	EngineFixed     EngineMode = "fixed"
)

// Config is the full set of knobs spec.md's CLI surface (§6.1) and the
// grounder/encoder/driver/engine internals expose. Every field has a
// compiled-in default; YAML and flags only override what they set.
type Config struct {
	Mode Mode `yaml:"mode"`

	// Timeout is the overall wall-clock budget; zero means unlimited.
	Timeout time.Duration `yaml:"timeout"`

	OutputPath string `yaml:"output_path"`

	Strategy         GroundingStrategy `yaml:"strategy"`
	ProgressTarget   float64           `yaml:"progress_target"`
	CachePolicy      CachePolicy       `yaml:"cache_policy"`
	ValidationPolicy ValidationPolicy  `yaml:"validation_policy"`

	Encoding     Encoding `yaml:"encoding"`
	DNFThreshold int      `yaml:"dnf_threshold"`
	// RequireParamImpliesAction turns on the optional universal-block clause
	// param(a,p,c) -> action(a) of spec.md §4.5(c).
	RequireParamImpliesAction bool `yaml:"require_param_implies_action"`

	SolverName string `yaml:"solver"`

	StepFactor float64 `yaml:"step_factor"`
	MaxSteps   int     `yaml:"max_steps"`

	NumSolverAttempts int           `yaml:"num_solver_attempts"`
	SolverTimeout     time.Duration `yaml:"solver_timeout"`

	// EngineMode selects Oneshot/Interrupt/Fixed orchestration (spec.md
	// §4.7). TargetGroundness is only consulted by Fixed.
	EngineMode       EngineMode `yaml:"engine_mode"`
	TargetGroundness float64    `yaml:"target_groundness"`

	Workers int `yaml:"workers"`

	Verbose bool `yaml:"verbose"`
}

// Default returns the compiled-in defaults, matching spec.md's documented
// flag semantics (e.g. -f must be > 1.0, -r in [0,1]).
func Default() *Config {
	return &Config{
		Mode:                      ModePlan,
		Timeout:                   0,
		OutputPath:                "",
		Strategy:                  StrategyMostFrequent,
		ProgressTarget:            1.0,
		CachePolicy:               CacheUnsuccessful,
		ValidationPolicy:          ValidationEager,
		Encoding:                  EncodingForeach,
		DNFThreshold:              4,
		RequireParamImpliesAction: false,
		SolverName:                "internal-dpll",
		StepFactor:                1.5,
		MaxSteps:                  1000,
		NumSolverAttempts:         1,
		SolverTimeout:             0,
		EngineMode:                EngineOneshot,
		TargetGroundness:          1.0,
		Workers:                   1,
		Verbose:                   false,
	}
}

// LoadYAML overlays the contents of path onto c, leaving fields the file
// does not mention untouched.
func (c *Config) LoadYAML(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: reading %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return nil
}

// Validate checks the cross-field invariants spec.md §6.1 documents for the
// numeric flags.
func (c *Config) Validate() error {
	if c.StepFactor <= 1.0 {
		return fmt.Errorf("config: step factor must be > 1.0, got %v", c.StepFactor)
	}
	if c.ProgressTarget < 0 || c.ProgressTarget > 1 {
		return fmt.Errorf("config: progress target must be in [0,1], got %v", c.ProgressTarget)
	}
	if c.NumSolverAttempts < 1 {
		return fmt.Errorf("config: number of solver attempts must be >= 1, got %d", c.NumSolverAttempts)
	}
	if c.Workers < 1 {
		return fmt.Errorf("config: worker count must be >= 1, got %d", c.Workers)
	}
	return nil
}
