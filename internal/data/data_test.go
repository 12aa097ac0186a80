package data

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

func TestReadCSVMissingSentinel(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "t.csv", "a,b\n1.5,.\n,2\n")
	tbl, err := ReadCSV(p)
	require.NoError(t, err)

	v, err := tbl.Float(0, 0)
	require.NoError(t, err)
	assert.Equal(t, 1.5, v)
	v, err = tbl.Float(0, 1)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))
	v, err = tbl.Float(1, 0)
	require.NoError(t, err)
	assert.True(t, math.IsNaN(v))

	_, err = tbl.Col("c")
	assert.Error(t, err)
}

func TestReadCSVRejectsRaggedRows(t *testing.T) {
	p := writeFile(t, t.TempDir(), "t.csv", "a,b\n1\n")
	_, err := ReadCSV(p)
	assert.Error(t, err)
}

func TestWriteCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tbl := NewTable([]string{"GENERATION_PROJECT", "build_year", "gen_predetermined_cap"})
	tbl.Append([]string{"Oahu_LargePV", "2025", FormatFloat(12.25)})
	tbl.Append([]string{"Oahu_DistPV", "2026", FormatFloat(math.NaN())})
	out := filepath.Join(dir, "nested", "out.csv")
	require.NoError(t, WriteCSV(out, tbl))

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "GENERATION_PROJECT,build_year,gen_predetermined_cap\nOahu_LargePV,2025,12.25\nOahu_DistPV,2026,.\n", string(raw))
}

func TestReadPeriods(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "periods.csv", "INVESTMENT_PERIOD,period_start,period_end\n2025,2025,2029\n2020,2020,2024\n")
	periods, err := ReadPeriods(p)
	require.NoError(t, err)
	assert.Equal(t, []int{2020, 2025}, []int(periods))

	bad := writeFile(t, dir, "bad.csv", "INVESTMENT_PERIOD,period_start\n2022,2020\n")
	_, err = ReadPeriods(bad)
	assert.ErrorContains(t, err, "period_start")
}

func TestReadProjectsFiltersToTechGroups(t *testing.T) {
	p := writeFile(t, t.TempDir(), "gpi.csv",
		"GENERATION_PROJECT,gen_tech,gen_max_age,gen_min_build_capacity,gen_capacity_limit_mw,gen_energy_source\n"+
			"Oahu_LargePV,LargePV,30,.,400,SUN\n"+
			"Oahu_Kahe_1,Kahe,40,.,.,LSFO\n"+
			"Oahu_OffshoreWind,OffshoreWind,30,200,800,WND\n")
	projects, err := ReadProjects(p, map[string]string{"LargePV": "LargePV", "OffshoreWind": "OffshoreWind"})
	require.NoError(t, err)
	require.Len(t, projects, 2)
	assert.Equal(t, "Oahu_LargePV", projects[0].Name)
	assert.Equal(t, 400.0, projects[0].CapacityLimitMW)
	assert.True(t, math.IsNaN(projects[0].MinBuildCapacity))
	assert.Equal(t, 200.0, projects[1].MinBuildCapacity)
	assert.Equal(t, "WND", projects[1].EnergySource)
}

func TestReadBuildTables(t *testing.T) {
	dir := t.TempDir()
	bg := writeFile(t, dir, "BuildGen.csv", "GEN_BLD_YRS_1,GEN_BLD_YRS_2,BuildGen\nOahu_LargePV,2025,50\nOahu_LargePV,2030,.\n")
	events, err := ReadBuildGen(bg)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 50.0, events[0].Amount)
	assert.Equal(t, 0.0, events[1].Amount)

	pd := writeFile(t, dir, "gbp.csv",
		"GENERATION_PROJECT,build_year,gen_predetermined_cap,gen_predetermined_storage_energy_mwh\n"+
			"Oahu_Battery_Bulk,2019,50,200\nOahu_LargePV,2018.0,20,.\n")
	rows, err := ReadPredetermined(pd)
	require.NoError(t, err)
	assert.Equal(t, 200.0, rows[0].EnergyMWh)
	assert.Equal(t, 2018, rows[1].Year)
	assert.True(t, math.IsNaN(rows[1].EnergyMWh))
}

func TestLoadOutlookJSON(t *testing.T) {
	p := writeFile(t, t.TempDir(), "heco_outlook.json", `{
		"tech_group_power_targets": [[2021, "LargePV", 100, "CBRE"]],
		"tech_group_energy_targets": [],
		"techs_for_tech_group": {"LargePV": ["LargePV"]},
		"tech_tech_group": {"LargePV": "LargePV"}
	}`)
	o, err := LoadOutlookJSON(p)
	require.NoError(t, err)
	assert.Len(t, o.PowerTargets, 1)
	assert.NotNil(t, o.LastDefiniteTarget)

	_, err = LoadOutlookJSON(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestAddColFillsExistingRows(t *testing.T) {
	tbl := NewTable([]string{"GENERATION_PROJECT", "gen_tech"})
	tbl.Append([]string{"Oahu_CC_152", "CC_152"})

	c := tbl.AddCol("gen_min_build_capacity", Missing)
	assert.Equal(t, 2, c)
	assert.Equal(t, c, tbl.AddCol("gen_min_build_capacity", "0"))
	assert.Equal(t, []string{"Oahu_CC_152", "CC_152", "."}, tbl.Rows[0])

	tbl.SetCell(0, c, "100")
	v, err := tbl.Float(0, c)
	require.NoError(t, err)
	assert.Equal(t, 100.0, v)
}

func TestCacheExpiry(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewCache[int](time.Minute)
	c.now = func() time.Time { return now }

	c.Set("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)

	now = now.Add(2 * time.Minute)
	c.Set("b", 2)
	_, ok = c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 2, c.Len())
	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())

	var nilCache *Cache[int]
	_, ok = nilCache.Get("a")
	assert.False(t, ok)
}
