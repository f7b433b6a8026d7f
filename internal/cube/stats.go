package cube

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/rewired-gh/usercube/internal/models"
)

// ComputeStats rolls up any list of cells. Defined for the empty list.
func ComputeStats(cells []*models.Cell) models.GlobalStats {
	users := make(map[string]struct{})
	var minutes, binge float64
	for _, cell := range cells {
		minutes += cell.Metrics[models.MetricSessionMinutes]
		binge += cell.Metrics[models.MetricBinge]
		users[cell.Entity] = struct{}{}
	}

	st := models.GlobalStats{
		UserCount:  len(users),
		TotalHours: roundHalfUp(minutes / 60),
		TotalBinge: roundHalfUp(binge),
	}
	if len(users) > 0 {
		st.AvgMin = roundHalfUp(minutes / float64(len(users)))
	}
	return st
}

// roundHalfUp rounds to the nearest integer, halves towards +Inf.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// CategoryBreakdown rolls up cells per category, in category order.
// labels maps category keys to display names; missing keys use the key.
func CategoryBreakdown(cells []*models.Cell, categories []string, labels map[string]string) []models.CategoryStats {
	byCategory := make(map[string]*models.CategoryStats, len(categories))
	out := make([]models.CategoryStats, len(categories))
	for i, category := range categories {
		label := labels[category]
		if label == "" {
			label = category
		}
		out[i] = models.CategoryStats{Category: category, Label: label}
		byCategory[category] = &out[i]
	}

	var total float64
	for _, cell := range cells {
		cs, ok := byCategory[cell.Category]
		if !ok {
			continue
		}
		cs.Cells++
		cs.Minutes += cell.Metrics[models.MetricSessionMinutes]
		cs.BingeCount += int(cell.Metrics[models.MetricBinge])
		cs.Completed += int(cell.Metrics[models.MetricCompleted])
		cs.Recommended += int(cell.Metrics[models.MetricRecommended])
		total += cell.Metrics[models.MetricSessionMinutes]
	}

	if total > 0 {
		for i := range out {
			out[i].ShareOfTotal = out[i].Minutes / total
		}
	}
	return out
}

// Spread describes per-user total minutes across the given cells.
func Spread(cells []*models.Cell) models.Spread {
	perUser := make(map[string]float64)
	for _, cell := range cells {
		perUser[cell.Entity] += cell.Metrics[models.MetricSessionMinutes]
	}
	if len(perUser) == 0 {
		return models.Spread{}
	}

	totals := make([]float64, 0, len(perUser))
	for _, entity := range SortEntities(keys(perUser)) {
		totals = append(totals, perUser[entity])
	}

	sp := models.Spread{
		Users: len(totals),
		Mean:  stat.Mean(totals, nil),
		Min:   floats.Min(totals),
		Max:   floats.Max(totals),
	}
	if len(totals) > 1 {
		sp.StdDev = stat.StdDev(totals, nil)
	}
	return sp
}

func keys(m map[string]float64) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
