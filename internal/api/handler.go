package api

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/rewired-gh/usercube/internal/cube"
	"github.com/rewired-gh/usercube/internal/explorer"
	"github.com/rewired-gh/usercube/internal/logger"
	"github.com/rewired-gh/usercube/internal/models"
	"github.com/rewired-gh/usercube/pkg/response"
)

// SessionStore persists explorer sessions after state changes.
type SessionStore interface {
	SaveSession(s *models.Session) error
}

// Handler serves one explorer over HTTP
type Handler struct {
	explorer *explorer.Explorer
	sessions SessionStore
}

// NewHandler creates a handler. sessions may be nil.
func NewHandler(e *explorer.Explorer, sessions SessionStore) *Handler {
	return &Handler{explorer: e, sessions: sessions}
}

// FilterRequest is the body of PUT /api/v1/filter
type FilterRequest struct {
	Filter string `json:"filter"`
}

// SelectRequest is the body of PUT /api/v1/selection. An empty cell id clears
// the selection.
type SelectRequest struct {
	CellID string `json:"cell_id"`
}

// NavigateRequest is the body of POST /api/v1/navigate
type NavigateRequest struct {
	Direction int `json:"direction"`
}

// SelectionResponse wraps the selected cell, null when nothing is selected.
type SelectionResponse struct {
	Selected *models.Cell `json:"selected"`
}

// FilterResponse echoes the filter and the size of the resulting view.
type FilterResponse struct {
	Filter string             `json:"filter"`
	Cells  int                `json:"cells"`
	Stats  models.GlobalStats `json:"stats"`
}

// GetCube returns the unfiltered cube
// GET /api/v1/cube
func (h *Handler) GetCube(c *gin.Context) {
	response.Success(c, h.explorer.Cube())
}

// GetView returns the current view, or an ad-hoc one for ?filter=
// GET /api/v1/view
func (h *Handler) GetView(c *gin.Context) {
	if filter, ok := c.GetQuery("filter"); ok {
		response.Success(c, h.explorer.ViewFor(filter))
		return
	}
	response.Success(c, h.explorer.View())
}

// SetFilter replaces the filter text
// PUT /api/v1/filter
func (h *Handler) SetFilter(c *gin.Context) {
	var req FilterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	h.explorer.SetFilter(req.Filter)
	h.saveSession()

	response.Success(c, FilterResponse{
		Filter: h.explorer.Filter(),
		Cells:  len(h.explorer.View().Cells),
		Stats:  h.explorer.Stats(),
	})
}

// GetStats returns the stats of the current view
// GET /api/v1/stats
func (h *Handler) GetStats(c *gin.Context) {
	response.Success(c, h.explorer.Stats())
}

// GetCategories returns the per-category breakdown of the current view
// GET /api/v1/categories
func (h *Handler) GetCategories(c *gin.Context) {
	response.Success(c, h.explorer.Categories())
}

// GetCell returns one cell with its details
// GET /api/v1/cells/:id
func (h *Handler) GetCell(c *gin.Context) {
	cell, err := h.explorer.Cell(c.Param("id"))
	if err != nil {
		h.cellError(c, err)
		return
	}
	response.Success(c, cell)
}

// GetSelection returns the selected cell
// GET /api/v1/selection
func (h *Handler) GetSelection(c *gin.Context) {
	response.Success(c, SelectionResponse{Selected: h.explorer.Selected()})
}

// Select selects a cell by id
// PUT /api/v1/selection
func (h *Handler) Select(c *gin.Context) {
	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	if req.CellID == "" {
		h.explorer.ClearSelection()
	} else if _, err := h.explorer.Select(req.CellID); err != nil {
		h.cellError(c, err)
		return
	}
	h.saveSession()

	response.Success(c, SelectionResponse{Selected: h.explorer.Selected()})
}

// Navigate moves the selection to the next or previous entity
// POST /api/v1/navigate
func (h *Handler) Navigate(c *gin.Context) {
	var req NavigateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}
	if req.Direction < -1 || req.Direction > 1 {
		response.BadRequest(c, "direction must be -1, 0 or 1")
		return
	}

	selected := h.explorer.Advance(cube.Direction(req.Direction))
	h.saveSession()

	response.Success(c, SelectionResponse{Selected: selected})
}

func (h *Handler) cellError(c *gin.Context, err error) {
	if errors.Is(err, explorer.ErrCellNotFound) {
		response.NotFound(c, err.Error())
		return
	}
	response.InternalError(c, err.Error())
}

// saveSession persists the explorer state. Failures are logged, not returned:
// the in-memory state is already updated.
func (h *Handler) saveSession() {
	if h.sessions == nil {
		return
	}
	s := h.explorer.Session()
	if s.DatasetID == "" {
		return
	}
	if err := h.sessions.SaveSession(&s); err != nil {
		logger.Warn("Failed to save session %s: %v", s.ID, err)
	}
}
