package cube

import (
	"github.com/rewired-gh/usercube/internal/models"
)

// EntityArena is the sorted entity list of one build with an explicit index.
// Grid rows, pages and page labels are all derived from it, never from the
// position of a cell in some slice.
type EntityArena struct {
	ids      []string
	index    map[string]int
	pageSize int
}

// NewEntityArena sorts and deduplicates ids. pageSize below 1 uses DefaultPageSize.
func NewEntityArena(ids []string, pageSize int) *EntityArena {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	sorted := SortEntities(ids)
	index := make(map[string]int, len(sorted))
	for i, id := range sorted {
		index[id] = i
	}
	return &EntityArena{ids: sorted, index: index, pageSize: pageSize}
}

// Len returns the number of distinct entities.
func (a *EntityArena) Len() int { return len(a.ids) }

// PageSize returns the number of rows per page.
func (a *EntityArena) PageSize() int { return a.pageSize }

// IDs returns a copy of the sorted entity list.
func (a *EntityArena) IDs() []string {
	out := make([]string, len(a.ids))
	copy(out, a.ids)
	return out
}

// Index returns the position of an entity in the sorted order.
func (a *EntityArena) Index(id string) (int, bool) {
	i, ok := a.index[id]
	return i, ok
}

// Coord returns the grid coordinate of an entity index in a category column.
func (a *EntityArena) Coord(categoryIndex, entityIndex int) models.GridCoord {
	return models.GridCoord{categoryIndex, entityIndex % a.pageSize, entityIndex / a.pageSize}
}

// PageCount returns ceil(Len / PageSize).
func (a *EntityArena) PageCount() int {
	return (len(a.ids) + a.pageSize - 1) / a.pageSize
}

// Page returns the entities on page p, or nil when p is out of range.
func (a *EntityArena) Page(p int) []string {
	if p < 0 || p >= a.PageCount() {
		return nil
	}
	start := p * a.pageSize
	end := min(start+a.pageSize, len(a.ids))
	out := make([]string, end-start)
	copy(out, a.ids[start:end])
	return out
}

// PageLabels returns "<first> - <last>" for every page.
func (a *EntityArena) PageLabels() []string {
	labels := make([]string, 0, a.PageCount())
	for p := 0; p < a.PageCount(); p++ {
		page := a.Page(p)
		labels = append(labels, page[0]+" - "+page[len(page)-1])
	}
	return labels
}

// RowLabels returns the entities of the first page, the representative row set.
func (a *EntityArena) RowLabels() []string {
	if rows := a.Page(0); rows != nil {
		return rows
	}
	return []string{}
}
