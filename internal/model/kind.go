package model

// Kind selects which of the two parallel quantities a table or ledger tracks.
// Keep these values stable; they are written to CSV output.
type Kind string

const (
	KindPower  Kind = "power"
	KindEnergy Kind = "energy"
)

// Unit returns the display unit for values of this kind.
func (k Kind) Unit() string {
	if k == KindEnergy {
		return "MWh"
	}
	return "MW"
}

var Kinds = []Kind{KindPower, KindEnergy}
