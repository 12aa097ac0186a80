package config

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	ScenarioDefault = "default"
	ScenarioHECO    = "heco"
)

// Config is the on-disk configuration shape (YAML). Any field left out of the
// file keeps its value from Default().
type Config struct {
	Study       StudyConfig               `yaml:"study"`
	Scenarios   map[string]ScenarioConfig `yaml:"scenarios"`
	Targets     TargetsConfig             `yaml:"targets"`
	Tolerances  TolerancesConfig          `yaml:"tolerances"`
	Registry    RegistryConfig            `yaml:"registry"`
	Constraints ConstraintsConfig         `yaml:"constraints"`
	Report      ReportConfig              `yaml:"report"`
}

type StudyConfig struct {
	StartYear int `yaml:"start_year"`
	EndYear   int `yaml:"end_year"`
}

// ScenarioConfig names the input/output directory pair of the multi-year model
// and the pair the annual model reads from and writes to.
type ScenarioConfig struct {
	Inputs        string `yaml:"inputs"`
	Outputs       string `yaml:"outputs"`
	AnnualInputs  string `yaml:"annual_inputs"`
	AnnualOutputs string `yaml:"annual_outputs"`

	// ShiftOnly treats every interpolated group as shift-only: construction is
	// slid to the correct start year but targets are not smoothed.
	ShiftOnly bool `yaml:"shift_only"`
	// SkipLifeOverrides leaves gen_max_age untouched in the adjusted registry.
	SkipLifeOverrides bool `yaml:"skip_life_overrides"`
}

type TargetsConfig struct {
	// Groups whose step targets are replaced by a linear ramp between periods.
	InterpolateGroups []string `yaml:"interpolate_groups"`
	// Groups whose targets are met as-is, only sliding construction earlier.
	ShiftOnlyGroups []string `yaml:"shift_only_groups"`
	// Minimum annual build increment per group, in MW.
	MinIncrement map[string]float64 `yaml:"min_increment"`
	// Largest year-over-year drop tolerated in an interpolated group's target.
	MonotonicTolerance float64 `yaml:"monotonic_tolerance"`
}

type TolerancesConfig struct {
	// Online vs target mismatch reported after shifting.
	Target float64 `yaml:"target"`
	// Per-project excess over its capacity limit that is trimmed instead of failing.
	CapacityLimit float64 `yaml:"capacity_limit"`
	// Online above target by more than this is reported as an overshoot.
	Overshoot float64 `yaml:"overshoot"`
	// Exported values smaller than this in magnitude are written as 0.
	Zero float64 `yaml:"zero"`
}

type RegistryConfig struct {
	// gen_max_age overrides keyed by gen_tech.
	LifeOverrides map[string]int `yaml:"life_overrides"`
}

type ConstraintsConfig struct {
	OnshoreWindTech      string   `yaml:"onshore_wind_tech"`
	OnshoreWindLimitMW   float64  `yaml:"onshore_wind_limit_mw"`
	NoNewThermal         bool     `yaml:"no_new_thermal"`
	NonFuelEnergySources []string `yaml:"non_fuel_energy_sources"`
}

type ReportConfig struct {
	// Label given to construction not explained by the outlook.
	PlanLabel string         `yaml:"plan_label"`
	Columns   []ColumnConfig `yaml:"columns"`
}

type ColumnConfig struct {
	Group string `yaml:"group"`
	Title string `yaml:"title"`
}

// Default returns the Oahu study settings.
func Default() *Config {
	return &Config{
		Study: StudyConfig{StartYear: 2020, EndYear: 2050},
		Scenarios: map[string]ScenarioConfig{
			ScenarioDefault: {
				Inputs:        "inputs",
				Outputs:       "outputs",
				AnnualInputs:  "inputs_annual",
				AnnualOutputs: "outputs_annual",
			},
			ScenarioHECO: {
				Inputs:            "inputs_heco",
				Outputs:           "outputs_heco",
				AnnualInputs:      "inputs_annual_heco",
				AnnualOutputs:     "outputs_annual_heco",
				ShiftOnly:         true,
				SkipLifeOverrides: true,
			},
		},
		Targets: TargetsConfig{
			InterpolateGroups: []string{"LargePV", "OnshoreWind", "OffshoreWind", "Battery_Bulk"},
			ShiftOnlyGroups: []string{
				"DistPV", "DistBattery", "Battery_Reg", "Battery_Conting",
				"CC_152", "IC_Barge", "IC_MCBH", "IC_Schofield",
			},
			MinIncrement:       map[string]float64{"OffshoreWind": 100},
			MonotonicTolerance: 1e9,
		},
		Tolerances: TolerancesConfig{
			Target:        0.001,
			CapacityLimit: 1e-5,
			Overshoot:     1e-9,
			Zero:          1e-9,
		},
		Registry: RegistryConfig{
			LifeOverrides: map[string]int{"IC_Schofield": 32},
		},
		Constraints: ConstraintsConfig{
			OnshoreWindTech:      "OnshoreWind",
			OnshoreWindLimitMW:   323,
			NoNewThermal:         true,
			NonFuelEnergySources: []string{"SUN", "WND", "Electricity", "Water"},
		},
		Report: ReportConfig{
			PlanLabel: "Switch",
			Columns: []ColumnConfig{
				{Group: "LargePV", Title: "Large PV"},
				{Group: "Battery_Bulk", Title: "Large Battery"},
				{Group: "DistPV", Title: "Dist PV"},
				{Group: "DistBattery", Title: "Dist Battery"},
				{Group: "OnshoreWind", Title: "Onshore Wind"},
				{Group: "OffshoreWind", Title: "Offshore Wind"},
			},
		},
	}
}

// Load returns Default() when path is empty; otherwise it overlays the file
// on the defaults and validates the result.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default(), nil
	}
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, errors.Wrapf(err, "config %s", path)
	}
	return c, nil
}

// LoadUnchecked overlays the file on Default() but does not validate it.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read config")
	}
	c := Default()
	if err := yaml.Unmarshal(raw, c); err != nil {
		return nil, errors.Wrapf(err, "parse config %s", path)
	}
	return c, nil
}

func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if c.Study.StartYear <= 0 || c.Study.EndYear < c.Study.StartYear {
		return errors.Errorf("study years %d-%d are invalid", c.Study.StartYear, c.Study.EndYear)
	}
	if len(c.Scenarios) == 0 {
		return errors.New("at least one scenario is required")
	}
	for name, s := range c.Scenarios {
		if s.Inputs == "" || s.Outputs == "" || s.AnnualInputs == "" || s.AnnualOutputs == "" {
			return errors.Errorf("scenario %s: inputs, outputs, annual_inputs and annual_outputs are required", name)
		}
	}
	seen := map[string]bool{}
	for _, g := range append(append([]string(nil), c.Targets.InterpolateGroups...), c.Targets.ShiftOnlyGroups...) {
		if seen[g] {
			return errors.Errorf("tech group %s is listed more than once in targets", g)
		}
		seen[g] = true
	}
	for g, inc := range c.Targets.MinIncrement {
		if inc <= 0 {
			return errors.Errorf("min_increment for %s must be > 0", g)
		}
	}
	for tech, age := range c.Registry.LifeOverrides {
		if age <= 0 {
			return errors.Errorf("life override for %s must be > 0", tech)
		}
	}
	t := c.Tolerances
	if t.Target < 0 || t.CapacityLimit < 0 || t.Overshoot < 0 || t.Zero < 0 || c.Targets.MonotonicTolerance < 0 {
		return errors.New("tolerances must be >= 0")
	}
	if c.Report.PlanLabel == "" {
		return errors.New("report.plan_label is required")
	}
	return nil
}

// ScenarioName maps the CLI's single scenario switch to a scenario key.
func ScenarioName(hecoPlan bool) string {
	if hecoPlan {
		return ScenarioHECO
	}
	return ScenarioDefault
}

// Scenario returns the named scenario with every directory resolved against root.
func (c *Config) Scenario(name, root string) (ScenarioConfig, error) {
	s, ok := c.Scenarios[name]
	if !ok {
		return ScenarioConfig{}, errors.Errorf("unknown scenario %q (have %v)", name, c.ScenarioNames())
	}
	if root != "" {
		s.Inputs = resolve(root, s.Inputs)
		s.Outputs = resolve(root, s.Outputs)
		s.AnnualInputs = resolve(root, s.AnnualInputs)
		s.AnnualOutputs = resolve(root, s.AnnualOutputs)
	}
	return s, nil
}

func (c *Config) ScenarioNames() []string {
	out := make([]string, 0, len(c.Scenarios))
	for n := range c.Scenarios {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// InterpolatedGroups returns the groups smoothed under scenario s.
func (c *Config) InterpolatedGroups(s ScenarioConfig) []string {
	if s.ShiftOnly {
		return nil
	}
	return append([]string(nil), c.Targets.InterpolateGroups...)
}

// TargetGroups returns every group whose power target is enforced, interpolated
// groups first.
func (c *Config) TargetGroups() []string {
	return append(append([]string(nil), c.Targets.InterpolateGroups...), c.Targets.ShiftOnlyGroups...)
}

func resolve(root, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(root, p)
}
