package compensation

import (
	"fmt"
	"iter"
)

// ProjectionMonths is the length of the savings projection.
const ProjectionMonths = 12

// ProjectionPoint is the accumulated member saving after a number of months.
type ProjectionPoint struct {
	Month       int     `json:"mes"`
	Label       string  `json:"rotulo"`
	Accumulated float64 `json:"acumulado"`
}

// Projection is the 12-month accumulation of the monthly member saving.
type Projection struct {
	MonthlySaving float64           `json:"economia_mensal"`
	Points        []ProjectionPoint `json:"pontos"`
	AnnualSaving  float64           `json:"economia_anual"`
}

// AccumulatedSavings yields (month, memberShare*month) for months 1..12.
// Each value is a direct product, not a running sum, so month 12 equals
// memberShare*12 exactly. The sequence can be ranged over any number of times.
func AccumulatedSavings(memberShare float64) iter.Seq2[int, float64] {
	return func(yield func(int, float64) bool) {
		for month := 1; month <= ProjectionMonths; month++ {
			if !yield(month, memberShare*float64(month)) {
				return
			}
		}
	}
}

// ProjectMonthly materializes AccumulatedSavings for rendering.
func ProjectMonthly(memberShare float64) Projection {
	memberShare = nonNegative(memberShare)
	points := make([]ProjectionPoint, 0, ProjectionMonths)
	for month, accumulated := range AccumulatedSavings(memberShare) {
		points = append(points, ProjectionPoint{
			Month:       month,
			Label:       fmt.Sprintf("mês %d", month),
			Accumulated: accumulated,
		})
	}
	return Projection{
		MonthlySaving: memberShare,
		Points:        points,
		AnnualSaving:  points[len(points)-1].Accumulated,
	}
}

// ChartCeiling is the value the tallest bar is scaled against: the annual
// saving plus 15% headroom, or 100 when there is no saving.
func (p Projection) ChartCeiling() float64 {
	if p.AnnualSaving > 0 {
		return p.AnnualSaving * 1.15
	}
	return 100
}

// BarHeightPct returns the bar height of a point as a percentage of the chart.
// A zero-height bar is drawn at 1% so empty months stay visible.
func (p Projection) BarHeightPct(point ProjectionPoint) float64 {
	height := point.Accumulated / p.ChartCeiling() * 100
	if height == 0 {
		return 1
	}
	return height
}
