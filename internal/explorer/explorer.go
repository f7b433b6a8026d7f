// Package explorer owns one built cube together with the filter text and the
// cursor a user drives it with.
//
// The cube is immutable once built. The explorer keeps the last
// (filter text, view, stats) triple so repeated reads for the same filter do
// not refilter, and drops it whenever the filter or the cube changes.
// All methods are safe for concurrent use.
package explorer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/usercube/internal/cube"
	"github.com/rewired-gh/usercube/internal/logger"
	"github.com/rewired-gh/usercube/internal/models"
)

// ErrCellNotFound is returned when a cell id is not part of the cube.
var ErrCellNotFound = errors.New("cell not found")

// memo is the cached result of the last filter.
type memo struct {
	filter string
	view   *models.Cube
	stats  models.GlobalStats
}

// Explorer handles filtering, stats and navigation over one cube
type Explorer struct {
	mu        sync.RWMutex
	cube      *models.Cube
	datasetID string
	sessionID string
	filter    string
	cursor    *cube.Cursor
	labels    map[string]string
	cache     *memo
}

// Options configures a new Explorer.
type Options struct {
	DatasetID         string
	PreferredCategory string
	CategoryLabels    map[string]string
}

// New creates an Explorer over c with an empty filter and no selection.
func New(c *models.Cube, opts Options) *Explorer {
	return &Explorer{
		cube:      c,
		datasetID: opts.DatasetID,
		sessionID: uuid.New().String(),
		cursor:    cube.NewCursor(opts.PreferredCategory),
		labels:    opts.CategoryLabels,
	}
}

// Cube returns the unfiltered cube.
func (e *Explorer) Cube() *models.Cube {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cube
}

// DatasetID returns the id of the dataset the cube was built from.
func (e *Explorer) DatasetID() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.datasetID
}

// Filter returns the current filter text as entered.
func (e *Explorer) Filter() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.filter
}

// SetFilter replaces the filter text. The selection is kept even when it
// falls outside the new view; the next Advance restarts from the first
// visible entity in that case.
func (e *Explorer) SetFilter(filter string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if filter == e.filter {
		return
	}
	e.filter = filter
	logger.Debug("Filter set to %q", filter)
}

// View returns the cube filtered by the current filter text.
func (e *Explorer) View() *models.Cube {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.memoLocked(e.filter).view
}

// ViewFor filters by an ad-hoc predicate without touching the explorer state
// or its cache.
func (e *Explorer) ViewFor(filter string) *models.Cube {
	e.mu.RLock()
	c := e.cube
	e.mu.RUnlock()
	return cube.Filter(c, filter)
}

// Stats returns the rollup of the current view.
func (e *Explorer) Stats() models.GlobalStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.memoLocked(e.filter).stats
}

// Categories returns the per-category breakdown of the current view.
func (e *Explorer) Categories() []models.CategoryStats {
	e.mu.Lock()
	defer e.mu.Unlock()
	view := e.memoLocked(e.filter).view
	return cube.CategoryBreakdown(view.Cells, view.Categories, e.labels)
}

// Spread returns the per-user minutes spread of the current view.
func (e *Explorer) Spread() models.Spread {
	e.mu.Lock()
	defer e.mu.Unlock()
	return cube.Spread(e.memoLocked(e.filter).view.Cells)
}

// Label returns the display label of a category.
func (e *Explorer) Label(category string) string {
	if l, ok := e.labels[category]; ok && l != "" {
		return l
	}
	return category
}

// memoLocked returns the cached view for filter, recomputing it on a miss.
// Filter text that normalizes to the same predicate shares one entry.
func (e *Explorer) memoLocked(filter string) *memo {
	key := cube.NormalizePredicate(filter)
	if e.cache != nil && e.cache.filter == key {
		return e.cache
	}
	view := cube.Filter(e.cube, key)
	e.cache = &memo{filter: key, view: view, stats: cube.ComputeStats(view.Cells)}
	return e.cache
}

// Advance moves the selection through the current view and returns the new
// selection, or nil when nothing is visible and nothing was selected.
func (e *Explorer) Advance(dir cube.Direction) *models.Cell {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cursor.Advance(e.memoLocked(e.filter).view.Cells, dir)
}

// Selected returns the selected cell, or nil.
func (e *Explorer) Selected() *models.Cell {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.cursor.Selected()
}

// Select selects the cell with the given id.
func (e *Explorer) Select(id string) (*models.Cell, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	cell, ok := e.cube.CellByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCellNotFound, id)
	}
	e.cursor.Select(cell)
	return cell, nil
}

// ClearSelection drops the selection.
func (e *Explorer) ClearSelection() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cursor.Clear()
}

// Cell looks up a cell of the unfiltered cube.
func (e *Explorer) Cell(id string) (*models.Cell, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cell, ok := e.cube.CellByID(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrCellNotFound, id)
	}
	return cell, nil
}

// Reload swaps in a cube rebuilt from new raw data. The filter is kept; the
// selection is kept when a cell with the same id exists in the new cube and
// cleared otherwise.
func (e *Explorer) Reload(c *models.Cube, datasetID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	var selected string
	if cell := e.cursor.Selected(); cell != nil {
		selected = cell.ID
	}

	e.cube = c
	e.datasetID = datasetID
	e.cache = nil
	e.cursor.Clear()
	if selected != "" {
		if cell, ok := c.CellByID(selected); ok {
			e.cursor.Select(cell)
		} else {
			logger.Info("Selection %s is gone after reload, cleared", selected)
		}
	}
	logger.Debug("Explorer reloaded: dataset=%s cells=%d", datasetID, len(c.Cells))
}

// Session captures the explorer state for storage.
func (e *Explorer) Session() models.Session {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s := models.Session{
		ID:        e.sessionID,
		DatasetID: e.datasetID,
		Filter:    e.filter,
		UpdatedAt: time.Now(),
	}
	if cell := e.cursor.Selected(); cell != nil {
		s.SelectedCell = cell.ID
	}
	return s
}

// Restore applies a stored session. A selected cell that no longer exists is
// dropped with a warning rather than failing the restore.
func (e *Explorer) Restore(s models.Session) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if s.ID != "" {
		e.sessionID = s.ID
	}
	e.filter = s.Filter
	e.cursor.Clear()
	if s.SelectedCell == "" {
		return
	}
	cell, ok := e.cube.CellByID(s.SelectedCell)
	if !ok {
		logger.Warn("Stored selection %s not in cube, ignoring", s.SelectedCell)
		return
	}
	e.cursor.Select(cell)
}
