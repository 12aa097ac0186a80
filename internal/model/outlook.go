package model

import (
	"encoding/json"
	"fmt"
)

// LabelExisting marks outlook entries synthesized from pre-existing capacity.
const LabelExisting = "existing"

// OutlookEntry is one minimum-capacity commitment from the utility outlook:
// Capacity (MW or MWh) comes online in Year for Group.
//
// On disk each entry is a 4-element array: [year, tech_group, capacity, label].
type OutlookEntry struct {
	Year     int
	Group    string
	Capacity float64
	Label    string
}

func (e *OutlookEntry) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) != 4 {
		return fmt.Errorf("outlook entry must have 4 elements, got %d", len(raw))
	}
	var year float64
	if err := json.Unmarshal(raw[0], &year); err != nil {
		return fmt.Errorf("outlook entry year: %w", err)
	}
	e.Year = int(year)
	if err := json.Unmarshal(raw[1], &e.Group); err != nil {
		return fmt.Errorf("outlook entry tech group: %w", err)
	}
	if err := json.Unmarshal(raw[2], &e.Capacity); err != nil {
		return fmt.Errorf("outlook entry capacity: %w", err)
	}
	if err := json.Unmarshal(raw[3], &e.Label); err != nil {
		return fmt.Errorf("outlook entry label: %w", err)
	}
	return nil
}

func (e OutlookEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{e.Year, e.Group, e.Capacity, e.Label})
}

// Outlook matches the JSON shape of heco_outlook.json.
type Outlook struct {
	PowerTargets       []OutlookEntry      `json:"tech_group_power_targets"`
	EnergyTargets      []OutlookEntry      `json:"tech_group_energy_targets"`
	TechsForTechGroup  map[string][]string `json:"techs_for_tech_group"`
	TechTechGroup      map[string]string   `json:"tech_tech_group"`
	LastDefiniteTarget map[string]int      `json:"last_definite_target"`
}
