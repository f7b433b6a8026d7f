// Package cube builds and queries the session cube: a sparse three-axis grid of
// (category, entity, page) cells aggregated from parsed records.
//
// Every function here is a pure derivation. Build produces a Cube that is
// treated as immutable afterwards; Filter, ComputeStats and Advance read it
// without writing back.
package cube

import (
	"github.com/rewired-gh/usercube/internal/logger"
	"github.com/rewired-gh/usercube/internal/models"
	"github.com/rewired-gh/usercube/internal/records"
)

// DefaultPageSize is the number of entity rows per page.
const DefaultPageSize = 8

// DefaultCategories is the category axis of the session export.
var DefaultCategories = []string{"music", "news", "search", "podcast", "video"}

// Options configures one build.
type Options struct {
	Categories []string
	PageSize   int
	Schema     models.Schema
}

func (o Options) withDefaults() Options {
	if o.Categories == nil {
		o.Categories = DefaultCategories
	}
	if o.PageSize < 1 {
		o.PageSize = DefaultPageSize
	}
	o.Schema = o.Schema.WithDefaults()
	return o
}

// BuildFromText parses raw text and builds its cube.
func BuildFromText(raw string, opts Options) *models.Cube {
	opts = opts.withDefaults()
	return Build(records.Parse(raw, opts.Schema), opts)
}

type groupKey struct {
	entity   string
	category string
}

// Build groups records by (category, entity), aggregates each non-empty group
// into a cell and normalizes the primary metric across all cells.
func Build(recs []models.Record, opts Options) *models.Cube {
	opts = opts.withDefaults()
	schema := opts.Schema

	categories := make([]string, len(opts.Categories))
	copy(categories, opts.Categories)

	ids := make([]string, len(recs))
	groups := make(map[groupKey][]models.Record)
	for i, rec := range recs {
		entity := rec.String(schema.EntityField)
		ids[i] = entity
		key := groupKey{entity: entity, category: rec.String(schema.CategoryField)}
		groups[key] = append(groups[key], rec)
	}
	arena := NewEntityArena(ids, opts.PageSize)

	cells := make([]*models.Cell, 0)
	seen := make(map[string]bool)
	var minM, maxM float64
	for entityIdx, entity := range arena.ids {
		for categoryIdx, category := range categories {
			group := groups[groupKey{entity: entity, category: category}]
			if len(group) == 0 {
				continue
			}

			id := models.CellID(category, entity)
			if seen[id] {
				// A category containing the separator collides with another pair.
				logger.Warn("Dropping cell %s/%s: id %s already taken", category, entity, id)
				continue
			}
			seen[id] = true

			grid := arena.Coord(categoryIdx, entityIdx)
			cell := &models.Cell{
				ID:        id,
				Category:  category,
				Entity:    entity,
				PageLabel: models.PageLabel(grid.Page()),
				Grid:      grid,
				Metrics:   aggregate(group, schema),
				Details:   group,
			}

			v := cell.Metrics[models.MetricSessionMinutes]
			if len(cells) == 0 || v < minM {
				minM = v
			}
			if len(cells) == 0 || v > maxM {
				maxM = v
			}
			cells = append(cells, cell)
		}
	}

	// Weights need the final bounds, so they are assigned in a second pass.
	for _, cell := range cells {
		cell.Normalized = normalize(cell.Metrics[models.MetricSessionMinutes], minM, maxM)
	}

	return &models.Cube{
		Categories:    categories,
		RowLabels:     arena.RowLabels(),
		PageLabels:    arena.PageLabels(),
		Cells:         cells,
		PrimaryMetric: models.MetricSessionMinutes,
		Entities:      arena.IDs(),
		PageSize:      arena.PageSize(),
		MetricMin:     minM,
		MetricMax:     maxM,
	}
}

func aggregate(group []models.Record, schema models.Schema) map[string]float64 {
	m := map[string]float64{
		models.MetricSessionMinutes: 0,
		models.MetricCompleted:      0,
		models.MetricBinge:          0,
		models.MetricRecommended:    0,
	}
	for _, rec := range group {
		if v, ok := rec.Get(schema.DurationField); ok {
			minutes, _ := v.Float()
			m[models.MetricSessionMinutes] += minutes
		}
		if rec.String(schema.CompletedField) == "1" {
			m[models.MetricCompleted]++
		}
		if rec.String(schema.BingeField) == "1" {
			m[models.MetricBinge]++
		}
		if rec.String(schema.RecommendedField) == "yes" {
			m[models.MetricRecommended]++
		}
	}
	return m
}

// normalize maps v into [0,1] over [lo, hi]; a degenerate range maps to 0.5.
func normalize(v, lo, hi float64) float64 {
	if hi == lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}
