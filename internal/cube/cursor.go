package cube

import (
	"slices"

	"github.com/samber/lo"

	"github.com/rewired-gh/usercube/internal/models"
)

// DefaultPreferredCategory is the category the cursor lands on when the next
// entity has a cell there.
const DefaultPreferredCategory = "video"

// Direction moves the cursor through the visible entities.
type Direction int

const (
	Prev Direction = -1
	Next Direction = 1
)

func (d Direction) step() int {
	switch {
	case d > 0:
		return 1
	case d < 0:
		return -1
	}
	return 0
}

// CursorState is the selection of one explorer.
type CursorState struct {
	Selected *models.Cell
}

// Advance moves the selection to the next or previous entity among the visible
// cells, wrapping at both ends. A missing or stale selection restarts at the
// first entity. The target is the entity's cell in the preferred category when
// it has one, else its first visible cell. An empty visible set, or a zero
// direction, returns state unchanged.
func Advance(state CursorState, visible []*models.Cell, dir Direction, preferred string) CursorState {
	step := dir.step()
	if step == 0 {
		return state
	}

	entities := SortEntities(lo.Map(visible, func(c *models.Cell, _ int) string { return c.Entity }))
	n := len(entities)
	if n == 0 {
		return state
	}

	target := 0
	if state.Selected != nil {
		if idx := slices.Index(entities, state.Selected.Entity); idx >= 0 {
			target = ((idx+step)%n + n) % n
		}
	}

	if cell := targetCell(visible, entities[target], preferred); cell != nil {
		return CursorState{Selected: cell}
	}
	return state
}

func targetCell(visible []*models.Cell, entity, preferred string) *models.Cell {
	var first *models.Cell
	for _, c := range visible {
		if c.Entity != entity {
			continue
		}
		if c.Category == preferred {
			return c
		}
		if first == nil {
			first = c
		}
	}
	return first
}

// Cursor owns one CursorState. It is not safe for concurrent use.
type Cursor struct {
	state     CursorState
	preferred string
}

// NewCursor creates a cursor with no selection. An empty preferred category
// uses DefaultPreferredCategory.
func NewCursor(preferred string) *Cursor {
	if preferred == "" {
		preferred = DefaultPreferredCategory
	}
	return &Cursor{preferred: preferred}
}

// Selected returns the selected cell, or nil.
func (c *Cursor) Selected() *models.Cell { return c.state.Selected }

// State returns the current state.
func (c *Cursor) State() CursorState { return c.state }

// Select replaces the selection.
func (c *Cursor) Select(cell *models.Cell) { c.state = CursorState{Selected: cell} }

// Clear drops the selection.
func (c *Cursor) Clear() { c.state = CursorState{} }

// Advance moves the selection and returns the new selected cell.
func (c *Cursor) Advance(visible []*models.Cell, dir Direction) *models.Cell {
	c.state = Advance(c.state, visible, dir, c.preferred)
	return c.state.Selected
}
