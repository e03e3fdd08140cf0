package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/arbor/checks"
	"github.com/banshee-data/arbor/morph"
	"github.com/banshee-data/arbor/traversal"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// ErrRequired is wrapped when a threshold with no default is missing.
var ErrRequired = errors.New("required setting missing")

// AnalysisConfig holds the thresholds for the check suite and the Sholl
// engine. Fields are pointers so that omitted keys fall back to the Get*
// defaults. The back-tracking tolerance and the jump distance have no
// default and must be set.
type AnalysisConfig struct {
	// Check params
	BackTrackingTolerance *float64 `json:"back_tracking_tolerance,omitempty"` // microns, required
	BackTrackingAngleDeg  *float64 `json:"back_tracking_angle_deg,omitempty"`
	OverlapEpsilon        *float64 `json:"overlap_epsilon,omitempty"`
	SkipJunctions         *bool    `json:"skip_junctions,omitempty"`
	MaxJumpDistance       *float64 `json:"max_jump_distance,omitempty"` // microns, required
	MinSomaRadius         *float64 `json:"min_soma_radius,omitempty"`
	NarrowStartFraction   *float64 `json:"narrow_start_fraction,omitempty"`

	// Sholl params
	ShollStep    *float64 `json:"sholl_step,omitempty"`
	ShollWorkers *int     `json:"sholl_workers,omitempty"`
	NeuriteTypes []string `json:"neurite_types,omitempty"` // empty means all neurites
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnalysisConfig returns a config with every field unset.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file. The file
// must have a .json extension and be at most 1MB. Omitted fields keep
// their defaults.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// MustLoadDefaultConfig loads DefaultConfigPath from the current directory
// or one of its parents. It panics when the file cannot be found and is
// meant for tests and tools run inside the repository.
func MustLoadDefaultConfig() *AnalysisConfig {
	candidates := []string{
		DefaultConfigPath,
		"../" + DefaultConfigPath,       // from a root package
		"../../" + DefaultConfigPath,    // from internal/config/ or cmd/<tool>/
		"../../../" + DefaultConfigPath, // deeper packages
	}
	for _, path := range candidates {
		if cfg, err := LoadAnalysisConfig(path); err == nil {
			return cfg
		}
	}
	panic("cannot find " + DefaultConfigPath + " - run from repository root")
}

// Validate checks the ranges of the fields that are set. Missing required
// fields are reported by the accessors, not here, so partial files load.
func (c *AnalysisConfig) Validate() error {
	if c.BackTrackingTolerance != nil && !(*c.BackTrackingTolerance > 0) {
		return fmt.Errorf("back_tracking_tolerance must be positive, got %g", *c.BackTrackingTolerance)
	}
	if c.BackTrackingAngleDeg != nil && !(*c.BackTrackingAngleDeg > 0 && *c.BackTrackingAngleDeg <= 180) {
		return fmt.Errorf("back_tracking_angle_deg must be in (0, 180], got %g", *c.BackTrackingAngleDeg)
	}
	if c.OverlapEpsilon != nil && !(*c.OverlapEpsilon > 0) {
		return fmt.Errorf("overlap_epsilon must be positive, got %g", *c.OverlapEpsilon)
	}
	if c.MaxJumpDistance != nil && !(*c.MaxJumpDistance > 0) {
		return fmt.Errorf("max_jump_distance must be positive, got %g", *c.MaxJumpDistance)
	}
	if c.MinSomaRadius != nil && *c.MinSomaRadius < 0 {
		return fmt.Errorf("min_soma_radius must be non-negative, got %g", *c.MinSomaRadius)
	}
	if c.NarrowStartFraction != nil && !(*c.NarrowStartFraction > 0) {
		return fmt.Errorf("narrow_start_fraction must be positive, got %g", *c.NarrowStartFraction)
	}
	if c.ShollStep != nil && !(*c.ShollStep > 0) {
		return fmt.Errorf("sholl_step must be positive, got %g", *c.ShollStep)
	}
	if c.ShollWorkers != nil && *c.ShollWorkers < 1 {
		return fmt.Errorf("sholl_workers must be at least 1, got %d", *c.ShollWorkers)
	}
	for _, name := range c.NeuriteTypes {
		if _, err := morph.ParseSectionType(name); err != nil {
			return fmt.Errorf("neurite_types: %w", err)
		}
	}
	return nil
}

// GetBackTrackingTolerance returns back_tracking_tolerance. There is no
// default.
func (c *AnalysisConfig) GetBackTrackingTolerance() (float64, error) {
	if c.BackTrackingTolerance == nil {
		return 0, fmt.Errorf("%w: back_tracking_tolerance", ErrRequired)
	}
	return *c.BackTrackingTolerance, nil
}

// GetBackTrackingAngleDeg returns back_tracking_angle_deg or the default.
func (c *AnalysisConfig) GetBackTrackingAngleDeg() float64 {
	if c.BackTrackingAngleDeg == nil {
		return checks.DefaultBackTrackingAngleDeg
	}
	return *c.BackTrackingAngleDeg
}

// GetOverlapEpsilon returns overlap_epsilon or the default.
func (c *AnalysisConfig) GetOverlapEpsilon() float64 {
	if c.OverlapEpsilon == nil {
		return checks.DefaultOverlapEpsilon
	}
	return *c.OverlapEpsilon
}

// GetSkipJunctions returns skip_junctions or the default.
func (c *AnalysisConfig) GetSkipJunctions() bool {
	if c.SkipJunctions == nil {
		return false // default: junction duplicates are reported
	}
	return *c.SkipJunctions
}

// GetMaxJumpDistance returns max_jump_distance. There is no default.
func (c *AnalysisConfig) GetMaxJumpDistance() (float64, error) {
	if c.MaxJumpDistance == nil {
		return 0, fmt.Errorf("%w: max_jump_distance", ErrRequired)
	}
	return *c.MaxJumpDistance, nil
}

// GetMinSomaRadius returns min_soma_radius or the default.
func (c *AnalysisConfig) GetMinSomaRadius() float64 {
	if c.MinSomaRadius == nil {
		return 0
	}
	return *c.MinSomaRadius
}

// GetNarrowStartFraction returns narrow_start_fraction or the default.
func (c *AnalysisConfig) GetNarrowStartFraction() float64 {
	if c.NarrowStartFraction == nil {
		return checks.DefaultNarrowStartFraction
	}
	return *c.NarrowStartFraction
}

// GetShollStep returns sholl_step or the default.
func (c *AnalysisConfig) GetShollStep() float64 {
	if c.ShollStep == nil {
		return 10.0
	}
	return *c.ShollStep
}

// GetShollWorkers returns sholl_workers or the default.
func (c *AnalysisConfig) GetShollWorkers() int {
	if c.ShollWorkers == nil {
		return 1
	}
	return *c.ShollWorkers
}

// GetNeuriteFilter returns a filter admitting the configured neurite types,
// or every neurite when none are configured.
func (c *AnalysisConfig) GetNeuriteFilter() (traversal.NeuriteFilter, error) {
	if len(c.NeuriteTypes) == 0 {
		return traversal.AllNeurites, nil
	}
	types := make([]morph.SectionType, 0, len(c.NeuriteTypes))
	for _, name := range c.NeuriteTypes {
		t, err := morph.ParseSectionType(name)
		if err != nil {
			return nil, fmt.Errorf("neurite_types: %w", err)
		}
		types = append(types, t)
	}
	return traversal.NeuriteTypeIs(types...), nil
}

// CheckParams assembles the thresholds for checks.DefaultRunner.
func (c *AnalysisConfig) CheckParams() (checks.Params, error) {
	tol, err := c.GetBackTrackingTolerance()
	if err != nil {
		return checks.Params{}, err
	}
	jump, err := c.GetMaxJumpDistance()
	if err != nil {
		return checks.Params{}, err
	}
	return checks.Params{
		BackTracking: checks.BackTrackingParams{
			Tolerance:   tol,
			MaxAngleDeg: c.GetBackTrackingAngleDeg(),
		},
		Overlap: checks.OverlapParams{
			Epsilon:       c.GetOverlapEpsilon(),
			SkipJunctions: c.GetSkipJunctions(),
		},
		MaxJumpDistance:     jump,
		MinSomaRadius:       c.GetMinSomaRadius(),
		NarrowStartFraction: c.GetNarrowStartFraction(),
	}, nil
}
