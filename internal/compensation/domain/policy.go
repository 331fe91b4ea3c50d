package compensation

import (
	"fmt"
	"math"
)

// UnknownClassPolicy decides how an unrecognized connection class is handled.
type UnknownClassPolicy string

const (
	// UnknownClassHighest applies the highest floor in the table.
	UnknownClassHighest UnknownClassPolicy = "highest"
	// UnknownClassReject fails the computation with ErrUnknownConnectionClass.
	UnknownClassReject UnknownClassPolicy = "reject"
)

const shareTolerance = 1e-9

// knownClasses is the order used for floor lookups and tie breaking.
var knownClasses = []ConnectionClass{ClassSinglePhase, ClassTwoPhase, ClassThreePhase}

// Policy holds the regulatory parameters of the compensation calculation.
type Policy struct {
	Floors                 map[ConnectionClass]float64 `yaml:"floors" json:"floors"`
	TUSDCompensationFactor float64                     `yaml:"tusd_compensation_factor" json:"tusd_compensation_factor"`
	MemberShareRate        float64                     `yaml:"member_share_rate" json:"member_share_rate"`
	AssociationShareRate   float64                     `yaml:"association_share_rate" json:"association_share_rate"`
	UnknownClass           UnknownClassPolicy          `yaml:"unknown_connection_class" json:"unknown_connection_class"`
}

// DefaultPolicy returns the floors 30/50/100 kWh, the 20% TUSD deduction and the 20/80 split.
func DefaultPolicy() Policy {
	return Policy{
		Floors: map[ConnectionClass]float64{
			ClassSinglePhase: 30,
			ClassTwoPhase:    50,
			ClassThreePhase:  100,
		},
		TUSDCompensationFactor: 0.8,
		MemberShareRate:        0.2,
		AssociationShareRate:   0.8,
		UnknownClass:           UnknownClassHighest,
	}
}

// Validate checks the policy parameters.
func (p Policy) Validate() error {
	for _, class := range knownClasses {
		floor, ok := p.Floors[class]
		if !ok {
			return fmt.Errorf("%w: missing floor for %q", ErrInvalidPolicy, class)
		}
		if floor < 0 || math.IsNaN(floor) || math.IsInf(floor, 0) {
			return fmt.Errorf("%w: floor for %q must be a non-negative number", ErrInvalidPolicy, class)
		}
	}
	for class := range p.Floors {
		if !class.Known() {
			return fmt.Errorf("%w: floor for unknown class %q", ErrInvalidPolicy, class)
		}
	}
	if !unitInterval(p.TUSDCompensationFactor) {
		return fmt.Errorf("%w: tusd compensation factor must be within [0,1]", ErrInvalidPolicy)
	}
	if !unitInterval(p.MemberShareRate) || !unitInterval(p.AssociationShareRate) {
		return fmt.Errorf("%w: share rates must be within [0,1]", ErrInvalidPolicy)
	}
	if math.Abs(p.MemberShareRate+p.AssociationShareRate-1) > shareTolerance {
		return fmt.Errorf("%w: member and association shares must sum to 1", ErrInvalidPolicy)
	}
	switch p.UnknownClass {
	case "", UnknownClassHighest, UnknownClassReject:
	default:
		return fmt.Errorf("%w: unknown connection class policy %q", ErrInvalidPolicy, p.UnknownClass)
	}
	return nil
}

// FloorFor returns the minimum-consumption floor and the class it was taken from.
func (p Policy) FloorFor(class ConnectionClass) (float64, ConnectionClass, error) {
	if floor, ok := p.Floors[class]; ok && class.Known() {
		return floor, class, nil
	}
	if p.UnknownClass == UnknownClassReject {
		return 0, class, fmt.Errorf("%w: %q", ErrUnknownConnectionClass, class)
	}
	applied := knownClasses[0]
	highest := p.Floors[applied]
	for _, candidate := range knownClasses[1:] {
		if floor := p.Floors[candidate]; floor >= highest {
			highest = floor
			applied = candidate
		}
	}
	return highest, applied, nil
}

func (p Policy) clone() Policy {
	out := p
	out.Floors = make(map[ConnectionClass]float64, len(p.Floors))
	for class, floor := range p.Floors {
		out.Floors[class] = floor
	}
	if out.UnknownClass == "" {
		out.UnknownClass = UnknownClassHighest
	}
	return out
}

func unitInterval(v float64) bool {
	return v >= 0 && v <= 1 && !math.IsNaN(v)
}
