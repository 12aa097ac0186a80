package model

import (
	"errors"
	"fmt"
	"math"
)

// Project is one generation or storage asset from the project registry.
// MinBuildCapacity and CapacityLimitMW are NaN when the registry leaves them blank.
type Project struct {
	Name             string
	Tech             string
	Group            string
	EnergySource     string
	MaxAge           int
	MinBuildCapacity float64
	CapacityLimitMW  float64
}

func (p Project) HasCapacityLimit() bool { return !math.IsNaN(p.CapacityLimitMW) }

func (p Project) Validate() error {
	if p.Name == "" {
		return errors.New("project name is required")
	}
	if p.MaxAge <= 0 {
		return fmt.Errorf("project %s: gen_max_age must be > 0", p.Name)
	}
	if p.HasCapacityLimit() && p.CapacityLimitMW < 0 {
		return fmt.Errorf("project %s: gen_capacity_limit_mw must be >= 0", p.Name)
	}
	return nil
}

// TechGroup is a bucket of technologies sharing a capacity target.
type TechGroup struct {
	Name             string
	Techs            []string
	MaxAge           int
	MinBuildCapacity float64
	Storage          bool
}
