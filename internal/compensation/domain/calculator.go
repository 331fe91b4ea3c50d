package compensation

import (
	"math"
	"strconv"

	"github.com/shopspring/decimal"
)

// Calculator computes compensation reports under a fixed policy.
// It has no I/O and holds no mutable state, so one instance may serve every request.
type Calculator struct {
	policy    Policy
	tusdLabel string
}

// NewCalculator validates the policy and constructs a calculator.
func NewCalculator(policy Policy) (*Calculator, error) {
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	return &Calculator{policy: policy.clone(), tusdLabel: TUSDLabel(policy.TUSDCompensationFactor)}, nil
}

// Policy returns a copy of the calculator policy.
func (c *Calculator) Policy() Policy {
	return c.policy.clone()
}

// Compute turns a bill into a compensation report. Numeric fields that are
// negative, not finite or above MaxAmount count as 0. The only error is
// ErrUnknownConnectionClass, and only under the reject policy.
func (c *Calculator) Compute(in BillInput) (CompensationReport, error) {
	floor, class, err := c.policy.FloorFor(in.Connection)
	if err != nil {
		return CompensationReport{}, err
	}

	total := nonNegative(in.TotalKWh)
	te := nonNegative(in.EnergyRate)
	tusd := nonNegative(in.TUSDRate)
	yellow := nonNegative(in.YellowFlagRate)
	red := nonNegative(in.RedFlagRate)
	lighting := nonNegative(in.PublicLighting)

	compensable := math.Max(0, total-floor)
	adjustedTUSD := tusd * c.policy.TUSDCompensationFactor

	items := []LineItem{
		lineItem(LabelEnergy, compensable, te),
		lineItem(c.tusdLabel, compensable, adjustedTUSD),
	}
	if yellow > 0 {
		items = append(items, lineItem(LabelYellowFlag, compensable, yellow))
	}
	if red > 0 {
		items = append(items, lineItem(LabelRedFlag, compensable, red))
	}

	var credit float64
	for _, item := range items {
		credit += item.Value
	}
	member := credit * c.policy.MemberShareRate
	association := credit * c.policy.AssociationShareRate

	// The baseline bills every component at face value, TUSD included.
	fullRate := te + tusd + yellow + red
	current := total*fullRate + lighting
	final := (current - credit) + association

	var reduction float64
	if current > 0 {
		reduction = RoundPercent((current - final) / current * 100)
	}

	return CompensationReport{
		Identification: Identification{
			Client:         in.ClientName,
			ConsumerUnit:   in.ConsumerUnit,
			Distributor:    in.Distributor,
			ReferenceMonth: in.ReferenceMonth,
			Connection:     class,
		},
		Consumption: Consumption{
			TotalKWh:       total,
			MinimumKWh:     floor,
			CompensableKWh: compensable,
		},
		LineItems: items,
		Summary: Summary{
			CreditTotal:      credit,
			MemberShare:      member,
			AssociationShare: association,
			ReductionPct:     reduction,
		},
		Comparison: Comparison{
			CurrentInvoice: current,
			NewFinalTotal:  final,
		},
		Notes: in.Notes,
	}, nil
}

// RoundPercent rounds to 2 decimal places, half away from zero, on the decimal
// representation of v. Non-finite values round to 0.
func RoundPercent(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// TUSDLabel names the TUSD line item after the deduction the factor applies.
// The default factor 0.8 yields LabelTUSD.
func TUSDLabel(factor float64) string {
	deduction := RoundPercent((1 - factor) * 100)
	return "TUSD (Ajustada -" + strconv.FormatFloat(deduction, 'f', -1, 64) + "%)"
}

func lineItem(label string, kwh, rate float64) LineItem {
	return LineItem{Label: label, KWh: kwh, Rate: rate, Value: kwh * rate}
}

func nonNegative(v float64) float64 {
	if !withinRange(v) {
		return 0
	}
	return v
}
