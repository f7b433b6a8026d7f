package cube

import (
	"strings"

	"github.com/samber/lo"

	"github.com/rewired-gh/usercube/internal/models"
)

// NormalizePredicate trims and lowercases filter text.
func NormalizePredicate(predicate string) string {
	return strings.ToLower(strings.TrimSpace(predicate))
}

// MatchEntity reports whether an entity id contains the predicate,
// case-insensitively. An empty predicate matches everything.
func MatchEntity(entity, predicate string) bool {
	return matchNormalized(entity, NormalizePredicate(predicate))
}

// matchNormalized expects p to have gone through NormalizePredicate.
func matchNormalized(entity, p string) bool {
	return p == "" || strings.Contains(strings.ToLower(entity), p)
}

// Filter returns a view of c limited to cells whose entity matches predicate.
// The view shares c's axis labels and cell pointers but always has its own
// cell slice. Weights are not recomputed: a view keeps the normalization of
// the unfiltered cube.
func Filter(c *models.Cube, predicate string) *models.Cube {
	p := NormalizePredicate(predicate)
	view := *c
	view.Cells = lo.Filter(c.Cells, func(cell *models.Cell, _ int) bool {
		return matchNormalized(cell.Entity, p)
	})
	return &view
}
