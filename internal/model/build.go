package model

// BuildEvent is capacity added to Project in Year by the solved plan.
type BuildEvent struct {
	Project string
	Year    int
	Amount  float64
}

// BuildPlan is the solved optimization plan: BuildGen (MW) and
// BuildStorageEnergy (MWh) per project and build year, in file order.
type BuildPlan struct {
	Power  []BuildEvent
	Energy []BuildEvent
}

func (p *BuildPlan) Events(k Kind) []BuildEvent {
	if k == KindEnergy {
		return p.Energy
	}
	return p.Power
}
