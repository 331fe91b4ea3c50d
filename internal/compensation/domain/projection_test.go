package compensation

import "testing"

func TestProjectMonthly(t *testing.T) {
	share := 26.0665872
	projection := ProjectMonthly(share)

	if len(projection.Points) != ProjectionMonths {
		t.Fatalf("points mismatch: got=%d want=%d", len(projection.Points), ProjectionMonths)
	}
	for i, point := range projection.Points {
		if point.Month != i+1 {
			t.Fatalf("month mismatch: got=%d want=%d", point.Month, i+1)
		}
		if i > 0 && point.Accumulated < projection.Points[i-1].Accumulated {
			t.Fatalf("projection should be non-decreasing at month %d", point.Month)
		}
	}
	if got, want := projection.Points[11].Accumulated, share*12; got != want {
		t.Fatalf("month 12 mismatch: got=%v want=%v", got, want)
	}
	if projection.AnnualSaving != projection.Points[11].Accumulated {
		t.Fatalf("annual saving mismatch: got=%v want=%v", projection.AnnualSaving, projection.Points[11].Accumulated)
	}
	if projection.Points[0].Label != "mês 1" || projection.Points[11].Label != "mês 12" {
		t.Fatalf("unexpected labels: %q %q", projection.Points[0].Label, projection.Points[11].Label)
	}
}

func TestAccumulatedSavings_Restartable(t *testing.T) {
	seq := AccumulatedSavings(10)

	var first, second []float64
	for _, v := range seq {
		first = append(first, v)
	}
	for _, v := range seq {
		second = append(second, v)
	}
	if len(first) != ProjectionMonths || len(second) != ProjectionMonths {
		t.Fatalf("expected %d values per pass, got %d and %d", ProjectionMonths, len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("pass mismatch at %d: got=%v want=%v", i, second[i], first[i])
		}
	}
}

func TestAccumulatedSavings_EarlyBreak(t *testing.T) {
	var months []int
	for month := range AccumulatedSavings(5) {
		months = append(months, month)
		if month == 3 {
			break
		}
	}
	if len(months) != 3 {
		t.Fatalf("expected to stop after 3 months, got %v", months)
	}
}

func TestProjectMonthly_ZeroSaving(t *testing.T) {
	projection := ProjectMonthly(0)

	if projection.AnnualSaving != 0 {
		t.Fatalf("expected zero annual saving, got %v", projection.AnnualSaving)
	}
	if projection.ChartCeiling() != 100 {
		t.Fatalf("ceiling mismatch: got=%v want=100", projection.ChartCeiling())
	}
	for _, point := range projection.Points {
		if h := projection.BarHeightPct(point); h != 1 {
			t.Fatalf("empty bar height mismatch: got=%v want=1", h)
		}
	}
}

func TestProjection_BarHeights(t *testing.T) {
	projection := ProjectMonthly(115)

	if got, want := projection.ChartCeiling(), projection.AnnualSaving*1.15; got != want {
		t.Fatalf("ceiling mismatch: got=%v want=%v", got, want)
	}
	last := projection.BarHeightPct(projection.Points[11])
	if last >= 100 || last < 86 || last > 87 {
		t.Fatalf("tallest bar should leave headroom, got %v", last)
	}
	first := projection.BarHeightPct(projection.Points[0])
	if first <= 0 || first >= last {
		t.Fatalf("first bar height out of range: %v", first)
	}
}
