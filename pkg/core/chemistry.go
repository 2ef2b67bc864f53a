package core

import "math"

// Atomic masses (monoisotopic)
const (
	MassH  = 1.0078250321
	MassC  = 12.0000000000
	MassN  = 14.0030740052
	MassO  = 15.9949146221
	MassS  = 31.9720706900
	MassNa = 22.9897692809
	MassCl = 34.9688527200
)

// Composition stores elemental composition of a detected formula.
type Composition struct {
	C, H, Na, S, O, N, Cl int
}

// NeutralMass computes the neutral monoisotopic mass of the composition.
func (c Composition) NeutralMass() float64 {
	return float64(c.C)*MassC +
		float64(c.H)*MassH +
		float64(c.Na)*MassNa +
		float64(c.S)*MassS +
		float64(c.O)*MassO +
		float64(c.N)*MassN +
		float64(c.Cl)*MassCl
}

// HC returns the hydrogen to carbon ratio, NaN when C is zero.
func (c Composition) HC() float64 {
	return ratio(c.H, c.C)
}

// OC returns the oxygen to carbon ratio, NaN when C is zero.
func (c Composition) OC() float64 {
	return ratio(c.O, c.C)
}

func ratio(num, den int) float64 {
	if den == 0 {
		return math.NaN()
	}
	return float64(num) / float64(den)
}

// RoundFloat rounds a float to n decimal places
func RoundFloat(val float64, precision int) float64 {
	ratio := math.Pow(10, float64(precision))
	return math.Round(val*ratio) / ratio
}
