// Package pipeline runs one scenario end to end: load the multi-year plan,
// build and smooth targets, shift construction, and export the annual inputs.
package pipeline

import (
	"path/filepath"

	"annual-plan/internal/config"
	"annual-plan/internal/constraints"
	"annual-plan/internal/data"
	"annual-plan/internal/diag"
	"annual-plan/internal/export"
	"annual-plan/internal/ledger"
	"annual-plan/internal/model"
	"annual-plan/internal/shift"
	"annual-plan/internal/targets"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

type Engine struct {
	cfg    *config.Config
	logger *zap.Logger
}

func New(cfg *config.Config, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{cfg: cfg, logger: logger}
}

type Options struct {
	Scenario string
	// Root is the directory scenario paths are resolved against.
	Root string
	// Write saves the adjusted tables; without it the run is a dry run.
	Write bool
}

// Result is everything a run produced. Ledgers hold the final shifted plan.
type Result struct {
	Scenario string
	Paths    config.ScenarioConfig

	Registry      *model.Registry
	Periods       model.Periods
	RawTargets    *targets.Tables
	Targets       *targets.Tables
	Power         *ledger.Ledger
	Energy        *ledger.Ledger
	Predetermined *export.Predetermined
	Additions     *export.AdditionsTable
	Warnings      []diag.Warning
	Moves         []diag.Move
	// Files lists the paths written, in write order.
	Files []string
}

// inputs is the multi-year model data a run starts from.
type inputs struct {
	outlook  *model.Outlook
	periods  model.Periods
	registry *model.Registry
	existing []data.Predetermined
	plan     *model.BuildPlan
	sources  map[string]string
}

func (e *Engine) load(log *zap.Logger, paths config.ScenarioConfig) (*inputs, error) {
	join := filepath.Join
	outlook, err := data.LoadOutlookJSON(join(paths.Outputs, "heco_outlook.json"))
	if err != nil {
		return nil, err
	}
	if err := checkStorageGroups(outlook); err != nil {
		return nil, err
	}
	periods, err := data.ReadPeriods(join(paths.Inputs, "periods.csv"))
	if err != nil {
		return nil, err
	}
	projects, err := data.ReadProjects(join(paths.Inputs, "generation_projects_info.csv"), outlook.TechTechGroup)
	if err != nil {
		return nil, err
	}
	reg, err := model.NewRegistry(projects, outlook.TechsForTechGroup)
	if err != nil {
		return nil, errors.Wrap(err, "project registry")
	}
	existing, err := data.ReadPredetermined(join(paths.Inputs, "gen_build_predetermined.csv"))
	if err != nil {
		return nil, err
	}
	power, err := data.ReadBuildGen(join(paths.Outputs, "BuildGen.csv"))
	if err != nil {
		return nil, err
	}
	energy, err := data.ReadBuildStorageEnergy(join(paths.Outputs, "BuildStorageEnergy.csv"))
	if err != nil {
		return nil, err
	}
	sources, err := data.ReadEnergySources(join(paths.Inputs, "generation_projects_info.csv"))
	if err != nil {
		log.Warn("energy sources unavailable; skipping new thermal check", zap.Error(err))
		sources = nil
	}

	log.Info("loaded multi-year plan",
		zap.String("inputs", paths.Inputs),
		zap.String("outputs", paths.Outputs),
		zap.Ints("periods", []int(periods)),
		zap.Int("projects", len(reg.Names())),
		zap.Int("build_gen_rows", len(power)),
		zap.Int("build_storage_rows", len(energy)),
	)
	return &inputs{
		outlook:  outlook,
		periods:  periods,
		registry: reg,
		existing: existing,
		plan:     &model.BuildPlan{Power: power, Energy: energy},
		sources:  sources,
	}, nil
}

// checkStorageGroups rejects storage groups that bundle several technologies.
func checkStorageGroups(o *model.Outlook) error {
	for g, techs := range o.TechsForTechGroup {
		if model.IsStorageGroup(g) && (len(techs) != 1 || techs[0] != g) {
			return errors.Errorf("storage tech group %s must contain only the %s technology", g, g)
		}
	}
	return nil
}

// Run executes the scenario. Fatal conditions (falling targets, projects over
// their limit, bad inputs) abort with an error; everything else ends up in
// Result.Warnings.
func (e *Engine) Run(opts Options) (*Result, error) {
	if err := e.cfg.Validate(); err != nil {
		return nil, err
	}
	name := opts.Scenario
	if name == "" {
		name = config.ScenarioDefault
	}
	paths, err := e.cfg.Scenario(name, opts.Root)
	if err != nil {
		return nil, err
	}
	log := e.logger.With(zap.String("scenario", name))
	log.Info("annualizing construction plan", zap.Bool("write", opts.Write))

	in, err := e.load(log, paths)
	if err != nil {
		return nil, errors.Wrapf(err, "scenario %s", name)
	}

	study := e.cfg.Study
	collector := diag.NewCollector(log)

	checker := &constraints.Checker{Periods: in.periods, End: study.EndYear, Config: e.cfg.Constraints, Diag: collector}
	checker.Run(in.registry, in.sources, in.plan)

	builder := &targets.Builder{Registry: in.registry, Periods: in.periods, Start: study.StartYear, End: study.EndYear, Logger: log}
	raw := builder.Build(in.outlook, in.existing, in.plan, e.cfg.TargetGroups())

	interp := &targets.Interpolator{
		Groups:       e.cfg.InterpolatedGroups(paths),
		Periods:      in.periods,
		LastDefinite: in.outlook.LastDefiniteTarget,
		MinIncrement: e.cfg.Targets.MinIncrement,
		Tolerance:    e.cfg.Targets.MonotonicTolerance,
		Logger:       log,
	}
	final := &targets.Tables{}
	if final.Power, err = interp.Apply(raw.Power); err != nil {
		return nil, err
	}
	if final.Energy, err = interp.Apply(raw.Energy); err != nil {
		return nil, err
	}

	shifter := &shift.Shifter{
		Periods: in.periods,
		Tolerances: shift.Tolerances{
			Target:        e.cfg.Tolerances.Target,
			CapacityLimit: e.cfg.Tolerances.CapacityLimit,
			Overshoot:     e.cfg.Tolerances.Overshoot,
		},
		Diag: collector,
	}
	ledgers := map[model.Kind]*ledger.Ledger{}
	for _, k := range model.Kinds {
		l, err := ledger.FromEvents(k, in.registry, study.EndYear, in.plan.Events(k))
		if err != nil {
			return nil, err
		}
		if err := shifter.Run(l, final.Get(k)); err != nil {
			return nil, err
		}
		ledgers[k] = l
	}

	res := &Result{
		Scenario:   name,
		Paths:      paths,
		Registry:   in.registry,
		Periods:    in.periods,
		RawTargets: raw,
		Targets:    final,
		Power:      ledgers[model.KindPower],
		Energy:     ledgers[model.KindEnergy],
	}
	if err := e.export(log, paths, in, builder, res, opts.Write); err != nil {
		return nil, err
	}
	res.Warnings = collector.Warnings()
	res.Moves = collector.Moves()

	if opts.Write {
		p, err := export.WriteDiagnostics(paths.AnnualOutputs, res.Warnings)
		if err != nil {
			return nil, err
		}
		res.Files = append(res.Files, p)
	}
	log.Info("annualized construction plan",
		zap.Int("moves", len(res.Moves)),
		zap.Int("warnings", len(res.Warnings)),
		zap.Strings("files", res.Files),
	)
	return res, nil
}

func (e *Engine) export(log *zap.Logger, paths config.ScenarioConfig, in *inputs, b *targets.Builder, res *Result, write bool) error {
	annual := func(name string) string { return filepath.Join(paths.AnnualInputs, name) }

	keys, err := data.ReadBuildKeys(annual("gen_build_costs.csv"))
	if err != nil {
		return err
	}
	seed, err := data.ReadPredetermined(annual("gen_build_predetermined.csv"))
	if err != nil {
		return err
	}
	annualPeriods, err := data.ReadPeriods(annual("periods.csv"))
	if err != nil {
		return err
	}
	registry, err := data.ReadCSV(annual("generation_projects_info.csv"))
	if err != nil {
		return err
	}

	study := e.cfg.Study
	pre := export.BuildPredetermined(export.PredeterminedInputs{
		BuildKeys: keys,
		Annual:    seed,
		Plan:      in.plan,
		Power:     res.Power,
		Energy:    res.Energy,
		Registry:  in.registry,
		Start:     study.StartYear,
		End:       study.EndYear,
	})
	pre.Zero(e.cfg.Tolerances.Zero)
	res.Predetermined = pre

	exPower, exEnergy := b.ExistingEntries(in.existing)
	res.Additions = export.BuildAdditions(export.AdditionsInputs{
		Predetermined: pre,
		Registry:      in.registry,
		PowerEntries:  append(exPower, in.outlook.PowerTargets...),
		EnergyEntries: append(exEnergy, in.outlook.EnergyTargets...),
		Start:         study.StartYear,
		PlanLabel:     e.cfg.Report.PlanLabel,
		Columns:       e.cfg.Report.Columns,
		Zero:          e.cfg.Tolerances.Zero,
	})

	adj := export.RegistryAdjustment{
		MinIncrement:  e.cfg.Targets.MinIncrement,
		TechsForGroup: in.outlook.TechsForTechGroup,
	}
	if !paths.SkipLifeOverrides {
		adj.LifeOverrides = e.cfg.Registry.LifeOverrides
	}
	changed, err := export.AdjustRegistry(registry, adj)
	if err != nil {
		return errors.Wrap(err, "adjust project registry")
	}
	log.Debug("adjusted project registry", zap.Int("cells", changed))

	if !write {
		return nil
	}
	for _, w := range []func() (string, error){
		func() (string, error) { return export.WritePredetermined(paths.AnnualInputs, pre, annualPeriods.Last()) },
		func() (string, error) { return export.WriteRegistry(paths.AnnualInputs, registry) },
		func() (string, error) { return export.WriteAdditions(paths.AnnualOutputs, res.Additions) },
	} {
		p, err := w()
		if err != nil {
			return err
		}
		res.Files = append(res.Files, p)
	}
	return nil
}
