// Package models defines the core domain entities for the usercube application.
// These models represent parsed session records, aggregated cube cells, the cube
// itself, rollup statistics, and the stored datasets and explorer sessions.
// Stored models include built-in validation like the rest of the application.
//
// Terminology:
//   - Entity: the per-record subject (a user id). The cube's second axis.
//   - Category: one of a fixed, externally ordered set of labels. The first axis.
//   - Page: a fixed-size bucket of consecutive entities. The third axis.
package models

import (
	"errors"
	"fmt"
	"math"
)

// GridCoord is a cell position: [categoryIndex, rowInPage, pageIndex].
type GridCoord [3]int

// Category returns the category axis index.
func (g GridCoord) Category() int { return g[0] }

// Row returns the row within the page.
func (g GridCoord) Row() int { return g[1] }

// Page returns the page index.
func (g GridCoord) Page() int { return g[2] }

// Cell is the aggregation of every record sharing one (category, entity) pair.
// Consumers read cells; nothing outside the cube builder writes to them.
type Cell struct {
	ID         string             `json:"id" yaml:"id"` // "<category>-<entity>"
	Category   string             `json:"category" yaml:"category"`
	Entity     string             `json:"entity" yaml:"entity"`
	PageLabel  string             `json:"page_label" yaml:"page_label"` // "Group <page+1>"
	Grid       GridCoord          `json:"grid" yaml:"grid"`
	Metrics    map[string]float64 `json:"metrics" yaml:"metrics"`
	Normalized float64            `json:"normalized" yaml:"normalized"` // primary metric rescaled to [0,1]
	Details    []Record           `json:"details" yaml:"details"`       // contributing records, input order
}

// CellIDSeparator joins category and entity in a cell id. Categories must not
// contain it, otherwise two pairs can share one id.
const CellIDSeparator = "-"

// CellID returns the identity key of a (category, entity) pair.
func CellID(category, entity string) string {
	return category + CellIDSeparator + entity
}

// PageLabel returns the display name of the page at index p.
func PageLabel(p int) string {
	return fmt.Sprintf("Group %d", p+1)
}

// Metric returns a metric value, zero when absent.
func (c *Cell) Metric(name string) float64 {
	return c.Metrics[name]
}

// Validate checks the cell's structural invariants.
func (c *Cell) Validate() error {
	if c.ID != CellID(c.Category, c.Entity) {
		return fmt.Errorf("cell ID %q does not match category %q and entity %q", c.ID, c.Category, c.Entity)
	}
	for i, v := range c.Grid {
		if v < 0 {
			return fmt.Errorf("grid coordinate %d must not be negative", i)
		}
	}
	if math.IsNaN(c.Normalized) || c.Normalized < 0.0 || c.Normalized > 1.0 {
		return errors.New("normalized weight must be between 0.0 and 1.0")
	}
	if len(c.Details) == 0 {
		return errors.New("cell must have at least one contributing record")
	}
	return nil
}

// Cube is the full result of one build. The category order is the externally
// defined axis; Entities is the globally sorted entity list that every grid
// coordinate and page label derives from.
type Cube struct {
	Categories    []string `json:"categories" yaml:"categories"`
	RowLabels     []string `json:"row_labels" yaml:"row_labels"`
	PageLabels    []string `json:"page_labels" yaml:"page_labels"`
	Cells         []*Cell  `json:"cells" yaml:"cells"`
	PrimaryMetric string   `json:"primary_metric" yaml:"primary_metric"`
	Entities      []string `json:"entities" yaml:"entities"`
	PageSize      int      `json:"page_size" yaml:"page_size"`
	MetricMin     float64  `json:"metric_min" yaml:"metric_min"`
	MetricMax     float64  `json:"metric_max" yaml:"metric_max"`
}

// CellByID finds a cell by its identity key.
func (c *Cube) CellByID(id string) (*Cell, bool) {
	for _, cell := range c.Cells {
		if cell.ID == id {
			return cell, true
		}
	}
	return nil, false
}

// PageCount returns the number of entity pages.
func (c *Cube) PageCount() int {
	return len(c.PageLabels)
}
