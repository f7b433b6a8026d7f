package cube

import (
	"slices"
	"strings"

	"github.com/samber/lo"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// entityCollator orders digit runs numerically ("U2" < "U10").
// A Collator keeps internal buffers, so every caller gets its own.
func entityCollator() *collate.Collator {
	return collate.New(language.Und, collate.Numeric)
}

// CompareEntities is the single total order over entity ids: numeric-aware
// collation first, byte order for ids the collation considers equal.
func CompareEntities(a, b string) int {
	return compareWith(entityCollator(), a, b)
}

func compareWith(c *collate.Collator, a, b string) int {
	if r := c.CompareString(a, b); r != 0 {
		return r
	}
	return strings.Compare(a, b)
}

// SortEntities returns the distinct ids in entity order. The input is not modified.
func SortEntities(ids []string) []string {
	out := lo.Uniq(ids)
	c := entityCollator()
	slices.SortFunc(out, func(a, b string) int {
		return compareWith(c, a, b)
	})
	return out
}
