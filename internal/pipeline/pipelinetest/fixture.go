// Package pipelinetest provides a small two-group study on disk for tests
// that run the whole pipeline.
package pipelinetest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// Files maps scenario-relative paths to their contents for the default
// scenario: LargePV (40-year life) and Battery_Bulk (15-year life) plus one
// thermal plant outside any tech group.
var Files = map[string]string{
	"inputs/periods.csv": `INVESTMENT_PERIOD,period_start,period_end
2020,2020,2024
2025,2025,2029
2030,2030,2034
2035,2035,2039
2040,2040,2044
2045,2045,2049
`,
	"inputs/generation_projects_info.csv": `GENERATION_PROJECT,gen_tech,gen_max_age,gen_min_build_capacity,gen_capacity_limit_mw,gen_energy_source
Oahu_LargePV,LargePV,40,.,500,SUN
Oahu_Battery_Bulk,Battery_Bulk,15,.,.,Electricity
Oahu_CC_152,CC_152,30,.,.,LSFO
`,
	"inputs/gen_build_predetermined.csv": `GENERATION_PROJECT,build_year,gen_predetermined_cap,gen_predetermined_storage_energy_mwh
Oahu_CC_152,2000,180,.
Oahu_LargePV,2015,10,.
`,
	"outputs/heco_outlook.json": `{
  "tech_group_power_targets": [[2022, "LargePV", 20, "RFP Stage 1"]],
  "tech_group_energy_targets": [],
  "techs_for_tech_group": {"LargePV": ["LargePV"], "Battery_Bulk": ["Battery_Bulk"]},
  "tech_tech_group": {"LargePV": "LargePV", "Battery_Bulk": "Battery_Bulk"},
  "last_definite_target": {"LargePV": 2022}
}`,
	"outputs/BuildGen.csv": `GEN_BLD_YRS_1,GEN_BLD_YRS_2,BuildGen
Oahu_CC_152,2000,180
Oahu_LargePV,2015,10
Oahu_LargePV,2025,50
Oahu_Battery_Bulk,2025,20
`,
	"outputs/BuildStorageEnergy.csv": `STORAGE_GEN_BLD_YRS_1,STORAGE_GEN_BLD_YRS_2,BuildStorageEnergy
Oahu_Battery_Bulk,2025,80
`,
	"inputs_annual/periods.csv": `INVESTMENT_PERIOD
2020
2021
2022
2023
2024
2025
2026
2027
2028
2029
2030
`,
	"inputs_annual/gen_build_costs.csv": `GENERATION_PROJECT,build_year,gen_overnight_cost
Oahu_CC_152,2000,0
Oahu_LargePV,2015,0
Oahu_LargePV,2020,1500
Oahu_Battery_Bulk,2020,900
`,
	"inputs_annual/gen_build_predetermined.csv": `GENERATION_PROJECT,build_year,gen_predetermined_cap,gen_predetermined_storage_energy_mwh
Oahu_CC_152,2000,180,.
Oahu_LargePV,2015,10,.
`,
	"inputs_annual/generation_projects_info.csv": `GENERATION_PROJECT,gen_tech,gen_max_age,gen_min_build_capacity,gen_capacity_limit_mw,gen_energy_source
Oahu_LargePV,LargePV,40,.,500,SUN
Oahu_Battery_Bulk,Battery_Bulk,15,.,.,Electricity
Oahu_CC_152,CC_152,30,.,.,LSFO
Oahu_IC_Schofield,IC_Schofield,30,.,.,ULSD
`,
}

// Write copies Files into a fresh temporary directory and returns it.
func Write(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write(t, root, "")
	return root
}

// WriteHECO lays out the same study under the utility plan scenario's
// directories (inputs_heco, outputs_heco, inputs_annual_heco).
func WriteHECO(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	write(t, root, "_heco")
	return root
}

func write(t *testing.T, root, suffix string) {
	t.Helper()
	for name, body := range Files {
		dir, file := filepath.Split(name)
		p := filepath.Join(root, filepath.Clean(dir)+suffix, file)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	}
}
