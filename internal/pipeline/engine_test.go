package pipeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"annual-plan/internal/config"
	"annual-plan/internal/diag"
	"annual-plan/internal/pipeline/pipelinetest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRunDefaultScenario(t *testing.T) {
	root := pipelinetest.Write(t)
	res, err := New(config.Default(), zap.NewNop()).Run(Options{Root: root, Write: true})
	require.NoError(t, err)

	// LargePV ramps from its 2022 commitment to the 2025 plan level.
	assert.Equal(t, []float64{10, 10, 30, 40, 50, 60}, res.Targets.Power.Row("LargePV")[:6])
	assert.Equal(t, 20.0, res.Power.Amount("Oahu_LargePV", 2022))
	assert.Equal(t, 10.0, res.Power.Amount("Oahu_LargePV", 2023))
	assert.Equal(t, 10.0, res.Power.Amount("Oahu_LargePV", 2025))

	for y := 2021; y <= 2025; y++ {
		assert.Equal(t, 4.0, res.Power.Amount("Oahu_Battery_Bulk", y), "battery MW in %d", y)
		assert.Equal(t, 16.0, res.Energy.Amount("Oahu_Battery_Bulk", y), "battery MWh in %d", y)
	}
	for _, y := range res.Targets.Power.Years() {
		assert.Equal(t, res.Targets.Power.Get("Battery_Bulk", y), res.Power.Online("Battery_Bulk", y), "year %d", y)
	}

	assert.False(t, hasCode(res.Warnings, diag.CodeTargetMissed), "%v", res.Warnings)
	assert.False(t, hasCode(res.Warnings, diag.CodeNewThermalBuild))
	assert.Len(t, res.Moves, 11)

	require.Len(t, res.Files, 4)
	for _, f := range res.Files {
		assert.FileExists(t, f)
	}

	pre, err := os.ReadFile(filepath.Join(root, "inputs_annual", "gen_build_predetermined_adjusted.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(pre), "Oahu_Battery_Bulk,2021,4,16\n")
	assert.Contains(t, string(pre), "Oahu_CC_152,2000,180,.\n")
	assert.NotContains(t, string(pre), ",2031,")

	assert.Equal(t, "20.0\n(RFP Stage 1)", res.Additions.Cell(2022, "LargePV"))
	assert.Equal(t, "4.0 MW/16.0 MWh\n(Switch)", res.Additions.Cell(2021, "Battery_Bulk"))
}

func TestRunAppliesLifeOverride(t *testing.T) {
	root := pipelinetest.Write(t)
	_, err := New(config.Default(), nil).Run(Options{Root: root, Write: true})
	require.NoError(t, err)

	reg, err := os.ReadFile(filepath.Join(root, "inputs_annual", "generation_projects_info_adjusted.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(reg), "Oahu_IC_Schofield,IC_Schofield,32,.,.,ULSD\n")
	assert.Contains(t, string(reg), "Oahu_CC_152,CC_152,30,.,.,LSFO\n")
}

func TestRunHECOScenario(t *testing.T) {
	root := pipelinetest.WriteHECO(t)
	res, err := New(config.Default(), zap.NewNop()).Run(Options{Root: root, Scenario: config.ScenarioHECO, Write: true})
	require.NoError(t, err)
	assert.Equal(t, config.ScenarioHECO, res.Scenario)

	// targets keep the step shape of the plan and outlook
	assert.Equal(t, []float64{10, 10, 30, 30, 30, 60}, res.Targets.Power.Row("LargePV")[:6])
	for _, k := range []string{"LargePV", "Battery_Bulk"} {
		assert.Equal(t, res.RawTargets.Power.Row(k), res.Targets.Power.Row(k), k)
	}
	assert.Equal(t, res.RawTargets.Energy.Row("Battery_Bulk"), res.Targets.Energy.Row("Battery_Bulk"))
	for _, y := range res.Targets.Power.Years() {
		assert.InDelta(t, res.Targets.Power.Get("LargePV", y), res.Power.Online("LargePV", y), 1e-9, "year %d", y)
	}

	require.Len(t, res.Files, 4)
	for _, f := range res.Files {
		assert.True(t, strings.Contains(f, "_heco"), f)
	}
	reg, err := os.ReadFile(filepath.Join(root, "inputs_annual_heco", "generation_projects_info_adjusted.csv"))
	require.NoError(t, err)
	assert.Contains(t, string(reg), "Oahu_IC_Schofield,IC_Schofield,30,.,.,ULSD\n")
	assert.NoFileExists(t, filepath.Join(root, "inputs_annual", "generation_projects_info_adjusted.csv"))
}

func TestRunWithoutWriteLeavesFilesAlone(t *testing.T) {
	root := pipelinetest.Write(t)
	res, err := New(config.Default(), nil).Run(Options{Root: root})
	require.NoError(t, err)
	assert.Empty(t, res.Files)
	assert.NoFileExists(t, filepath.Join(root, "inputs_annual", "gen_build_predetermined_adjusted.csv"))
}

func TestRunHECOScenarioNeedsItsOwnDirectories(t *testing.T) {
	root := pipelinetest.Write(t)
	_, err := New(config.Default(), nil).Run(Options{Root: root, Scenario: config.ScenarioHECO})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "heco"), err.Error())

	_, err = New(config.Default(), nil).Run(Options{Root: root, Scenario: "nope"})
	assert.Error(t, err)
}

func TestRunRejectsGroupedStorage(t *testing.T) {
	root := pipelinetest.Write(t)
	outlook := strings.Replace(pipelinetest.Files["outputs/heco_outlook.json"],
		`"Battery_Bulk": ["Battery_Bulk"]}`, `"Battery_Bulk": ["Battery_Bulk", "Battery_Other"]}`, 1)
	require.NoError(t, os.WriteFile(filepath.Join(root, "outputs", "heco_outlook.json"), []byte(outlook), 0o644))

	_, err := New(config.Default(), nil).Run(Options{Root: root})
	assert.ErrorContains(t, err, "Battery_Bulk")
}

func hasCode(ws []diag.Warning, code diag.Code) bool {
	for _, w := range ws {
		if w.Code == code {
			return true
		}
	}
	return false
}
