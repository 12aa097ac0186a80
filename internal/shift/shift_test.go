package shift

import (
	"errors"
	"math"
	"testing"

	"annual-plan/internal/diag"
	"annual-plan/internal/ledger"
	"annual-plan/internal/model"
	"annual-plan/internal/targets"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var defaultTolerances = Tolerances{Target: 0.001, CapacityLimit: 1e-5, Overshoot: 1e-9}

func registry(t *testing.T, projects ...model.Project) *model.Registry {
	t.Helper()
	groups := map[string][]string{}
	for i, p := range projects {
		if p.Tech == "" {
			projects[i].Tech = p.Group
		}
		if p.CapacityLimitMW == 0 {
			projects[i].CapacityLimitMW = math.NaN()
		}
		projects[i].MinBuildCapacity = math.NaN()
		groups[p.Group] = []string{projects[i].Tech}
	}
	reg, err := model.NewRegistry(projects, groups)
	require.NoError(t, err)
	return reg
}

func newShifter(periods ...int) (*Shifter, *diag.Collector) {
	c := diag.NewCollector(zap.NewNop())
	return &Shifter{Periods: model.Periods(periods), Tolerances: defaultTolerances, Diag: c}, c
}

func TestExistingBuildMeetingTargetIsLeftAlone(t *testing.T) {
	reg := registry(t, model.Project{Name: "P1", Group: "Battery_Bulk", MaxAge: 15, CapacityLimitMW: 100})
	l := ledger.New(model.KindPower, reg, 2050)
	require.NoError(t, l.Add("P1", 2020, 100))

	targets := model.NewTargetTable(model.KindPower, []string{"Battery_Bulk"}, 2020, 2050)
	targets.AddRange("Battery_Bulk", 2020, 2034, 100)

	s, c := newShifter(2020, 2025, 2030, 2035, 2040, 2045)
	require.NoError(t, s.Run(l, targets))

	assert.Equal(t, []ledger.Entry{{Group: "Battery_Bulk", Project: "P1", Year: 2020, Amount: 100}}, l.Entries())
	assert.Empty(t, c.Moves())
	assert.Empty(t, c.Warnings())
}

func TestMidPeriodRetirementIsPulledForward(t *testing.T) {
	reg := registry(t, model.Project{Name: "Oahu_LargePV", Group: "LargePV", MaxAge: 10})
	l := ledger.New(model.KindPower, reg, 2050)
	require.NoError(t, l.Add("Oahu_LargePV", 2017, 20))
	require.NoError(t, l.Add("Oahu_LargePV", 2030, 20))
	require.NoError(t, l.Add("Oahu_LargePV", 2040, 20))

	s, c := newShifter(2020, 2025, 2030, 2035, 2040, 2045)
	require.NoError(t, s.CorrectMidPeriod(l, nil))

	want := []ledger.Entry{
		{Group: "LargePV", Project: "Oahu_LargePV", Year: 2017, Amount: 20},
		{Group: "LargePV", Project: "Oahu_LargePV", Year: 2027, Amount: 20},
		{Group: "LargePV", Project: "Oahu_LargePV", Year: 2037, Amount: 20},
	}
	if diff := cmp.Diff(want, l.Entries()); diff != "" {
		t.Fatalf("ledger mismatch (-want +got):\n%s", diff)
	}
	moves := c.Moves()
	require.Len(t, moves, 2)
	assert.Equal(t, ReasonMidPeriod, moves[0].Reason)
	assert.Equal(t, 2030, moves[0].From)
	assert.Equal(t, 2027, moves[0].To)
	assert.Equal(t, ReasonCascade, moves[1].Reason)

	require.NoError(t, s.CorrectMidPeriod(l, nil))
	assert.Len(t, c.Moves(), 2, "second pass must not move anything")
}

func TestMidPeriodCorrectionKeepsOnTimeRebuild(t *testing.T) {
	reg := registry(t, model.Project{Name: "Oahu_LargePV", Group: "LargePV", MaxAge: 12})
	l := ledger.New(model.KindPower, reg, 2050)
	// 2020 retires for good in 2032; the 2035 build replaces the 2023 build
	require.NoError(t, l.Add("Oahu_LargePV", 2020, 50))
	require.NoError(t, l.Add("Oahu_LargePV", 2023, 10))
	require.NoError(t, l.Add("Oahu_LargePV", 2035, 10))
	want := l.Entries()

	s, c := newShifter(2020, 2025, 2030, 2035, 2040, 2045)
	require.NoError(t, s.CorrectMidPeriod(l, nil))

	assert.Empty(t, c.Moves())
	assert.Equal(t, want, l.Entries())
}

type planBuild struct {
	project string
	year    int
	amount  float64
}

var studyPeriods = model.Periods{2020, 2025, 2030, 2035, 2040, 2045}

// shiftPlan runs the shifter over a LargePV plan against interpolated plan
// targets, the way the pipeline does. Every project is limited to the sum of
// its planned builds.
func shiftPlan(t *testing.T, maxAge int, builds []planBuild) (*ledger.Ledger, *model.TargetTable, *Shifter, *diag.Collector) {
	t.Helper()
	var projects []model.Project
	var events []model.BuildEvent
	limits := map[string]float64{}
	for _, b := range builds {
		if _, ok := limits[b.project]; !ok {
			projects = append(projects, model.Project{Name: b.project, Group: "LargePV", MaxAge: maxAge})
		}
		limits[b.project] += b.amount
		events = append(events, model.BuildEvent{Project: b.project, Year: b.year, Amount: b.amount})
	}
	for i := range projects {
		projects[i].CapacityLimitMW = limits[projects[i].Name]
	}
	reg := registry(t, projects...)

	builder := &targets.Builder{Registry: reg, Periods: studyPeriods, Start: 2020, End: 2050}
	raw := builder.PlanTable(model.KindPower, []string{"LargePV"}, events)
	interp := &targets.Interpolator{Groups: []string{"LargePV"}, Periods: studyPeriods, Tolerance: 1e9}
	tt, err := interp.Apply(raw)
	require.NoError(t, err)

	l, err := ledger.FromEvents(model.KindPower, reg, 2050, events)
	require.NoError(t, err)
	s, c := newShifter(studyPeriods...)
	return l, tt, s, c
}

func TestShiftedPlanProperties(t *testing.T) {
	tests := []struct {
		name   string
		maxAge int
		builds []planBuild
	}{
		{"12 year life with cascades", 12, []planBuild{
			{"A", 2035, 40}, {"A", 2040, 10},
			{"C", 2020, 50}, {"C", 2025, 30}, {"C", 2035, 10}, {"C", 2040, 20}, {"C", 2045, 10},
		}},
		{"12 year life pulled into off years", 12, []planBuild{{"A", 2045, 50}, {"B", 2035, 20}, {"B", 2045, 20}}},
		{"12 year life with off-year existing builds", 12, []planBuild{
			{"A", 2020, 30}, {"A", 2035, 20}, {"A", 2040, 40}, {"A", 2045, 10},
			{"B", 2023, 10}, {"B", 2025, 10}, {"B", 2035, 50},
		}},
		{"10 year life", 10, []planBuild{{"A", 2017, 20}, {"A", 2030, 20}, {"A", 2040, 20}}},
		{"15 year life", 15, []planBuild{{"A", 2018, 30}, {"A", 2035, 30}, {"B", 2025, 20}, {"B", 2040, 40}}},
		{"20 year life", 20, []planBuild{{"A", 2021, 20}, {"A", 2025, 30}, {"A", 2045, 50}}},
		{"25 year life", 25, []planBuild{{"A", 2017, 10}, {"A", 2045, 40}, {"B", 2030, 30}}},
		{"30 year life", 30, []planBuild{{"A", 2023, 20}, {"A", 2030, 40}, {"A", 2045, 10}}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			l, tt, s, c := shiftPlan(t, tc.maxAge, tc.builds)
			reg := l.Registry()
			before := map[string]float64{}
			for _, name := range reg.Names() {
				before[name] = l.Total(name)
			}

			require.NoError(t, s.Run(l, tt))
			require.NotEmpty(t, c.Moves())

			// capacity is only redistributed; rebuilds past the old horizon
			// and trims are the reported exceptions
			for _, name := range reg.Names() {
				want := before[name]
				for _, m := range c.Moves() {
					if m.Project == name && m.Reason == ReasonRebuild {
						want += m.Amount
					}
				}
				for _, w := range c.Filter(diag.CodeCapacityTrimmed) {
					if w.Project == name {
						want -= w.Value
					}
				}
				assert.InDelta(t, want, l.Total(name), 1e-6, "total of %s", name)

				p, _ := reg.Project(name)
				for y := 2020; y <= 2050; y++ {
					assert.LessOrEqual(t, l.ProjectOnline(name, y), p.CapacityLimitMW+1e-5, "%s in %d", name, y)
				}
			}

			shifted := l.Entries()
			moves := len(c.Moves())
			overshoots := len(c.Filter(diag.CodeTargetOvershoot))
			require.NoError(t, s.Run(l, tt))
			assert.Len(t, c.Moves(), moves, "second run moved %v", c.Moves()[moves:])
			require.Len(t, l.Entries(), len(shifted))
			for i, e := range l.Entries() {
				assert.Equal(t, shifted[i].Project, e.Project)
				assert.Equal(t, shifted[i].Year, e.Year)
				assert.InDelta(t, shifted[i].Amount, e.Amount, 1e-9)
			}
			// a rerun may repeat earlier warnings but never adds overshoot
			assert.Len(t, c.Filter(diag.CodeTargetOvershoot), 2*overshoots)
		})
	}
}

func rampTargets() *model.TargetTable {
	t := model.NewTargetTable(model.KindPower, []string{"LargePV"}, 2020, 2035)
	for y := 2020; y < 2030; y++ {
		t.Set("LargePV", y, float64(y-2020)*10)
	}
	t.AddRange("LargePV", 2030, 2035, 150)
	return t
}

func TestFulfillTargetsPullsNewConstructionForward(t *testing.T) {
	reg := registry(t,
		model.Project{Name: "Oahu_LargePV_A", Group: "LargePV", MaxAge: 20},
		model.Project{Name: "Oahu_LargePV_B", Group: "LargePV", MaxAge: 20},
	)
	l := ledger.New(model.KindPower, reg, 2035)
	require.NoError(t, l.Add("Oahu_LargePV_A", 2025, 50))
	require.NoError(t, l.Add("Oahu_LargePV_B", 2030, 100))

	targets := rampTargets()
	s, c := newShifter(2020, 2025, 2030, 2035)
	require.NoError(t, s.Run(l, targets))

	for _, y := range targets.Years() {
		assert.InDelta(t, targets.Get("LargePV", y), l.Online("LargePV", y), 1e-9, "year %d", y)
	}
	for y := 2021; y <= 2025; y++ {
		assert.InDelta(t, 10, l.Amount("Oahu_LargePV_A", y), 1e-9, "A in %d", y)
	}
	for y := 2026; y <= 2029; y++ {
		assert.InDelta(t, 10, l.Amount("Oahu_LargePV_B", y), 1e-9, "B in %d", y)
	}
	assert.InDelta(t, 60, l.Amount("Oahu_LargePV_B", 2030), 1e-9)

	assert.InDelta(t, 50, l.Total("Oahu_LargePV_A"), 1e-9)
	assert.InDelta(t, 100, l.Total("Oahu_LargePV_B"), 1e-9)
	assert.Len(t, c.Moves(), 8)
	assert.Empty(t, c.Warnings())

	// already shifted: nothing left to do
	before := l.Entries()
	require.NoError(t, s.Run(l, targets))
	assert.Equal(t, before, l.Entries())
	assert.Len(t, c.Moves(), 8)
}

func TestRebuildsAreNotPulledForward(t *testing.T) {
	reg := registry(t, model.Project{Name: "Oahu_DistPV", Group: "DistPV", MaxAge: 5})
	l := ledger.New(model.KindPower, reg, 2030)
	require.NoError(t, l.Add("Oahu_DistPV", 2020, 10))
	require.NoError(t, l.Add("Oahu_DistPV", 2025, 10))

	targets := model.NewTargetTable(model.KindPower, []string{"DistPV"}, 2020, 2030)
	targets.AddRange("DistPV", 2020, 2030, 15)

	s, c := newShifter(2020, 2025, 2030)
	require.NoError(t, s.Run(l, targets))

	assert.Empty(t, c.Moves())
	missed := c.Filter(diag.CodeTargetMissed)
	require.Len(t, missed, 1)
	assert.Equal(t, "DistPV", missed[0].Group)
}

func TestOvershootIsReported(t *testing.T) {
	reg := registry(t, model.Project{Name: "Oahu_DistBattery", Group: "DistBattery", MaxAge: 10})
	l := ledger.New(model.KindEnergy, reg, 2025)
	require.NoError(t, l.Add("Oahu_DistBattery", 2020, 40))

	targets := model.NewTargetTable(model.KindEnergy, []string{"DistBattery"}, 2020, 2025)
	targets.AddRange("DistBattery", 2020, 2025, 30)

	s, c := newShifter(2020, 2025)
	require.NoError(t, s.Run(l, targets))

	assert.Len(t, c.Filter(diag.CodeTargetOvershoot), 6)
	assert.True(t, c.Has(diag.CodeTargetMissed))
	assert.Equal(t, 40.0, l.Total("Oahu_DistBattery"))
}

func TestEnforceLimits(t *testing.T) {
	tests := []struct {
		name    string
		extra   float64
		wantErr bool
	}{
		{"within limit", 0, false},
		{"tiny excess is trimmed", 5e-6, false},
		{"large excess is fatal", 1, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			reg := registry(t, model.Project{Name: "P1", Group: "LargePV", MaxAge: 15, CapacityLimitMW: 100})
			l := ledger.New(model.KindPower, reg, 2050)
			require.NoError(t, l.Add("P1", 2020, 100))
			if tc.extra > 0 {
				require.NoError(t, l.Add("P1", 2025, tc.extra))
			}

			s, c := newShifter(2020, 2025)
			err := s.EnforceLimits(l)
			if tc.wantErr {
				var cle *CapacityLimitError
				require.True(t, errors.As(err, &cle))
				assert.Equal(t, "P1", cle.Project)
				assert.Equal(t, 2025, cle.Year)
				return
			}
			require.NoError(t, err)
			for y := 2020; y <= 2050; y++ {
				assert.LessOrEqual(t, l.ProjectOnline("P1", y), 100+1e-9)
			}
			assert.Equal(t, tc.extra > 0, c.Has(diag.CodeCapacityTrimmed))
		})
	}
}
