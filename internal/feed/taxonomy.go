package feed

import (
	"errors"

	"github.com/ETAnderson/shopfeed/internal/domain"
)

// MaxCategoryDepth bounds the parent walk in RootCategory.
const MaxCategoryDepth = 64

var (
	ErrNilCategory   = errors.New("category is nil")
	ErrCategoryCycle = errors.New("category tree contains a cycle")
	ErrCategoryDepth = errors.New("category tree exceeds max depth")
)

// RootCategory walks Parent links up to the topmost ancestor.
func RootCategory(c *domain.Category) (*domain.Category, error) {
	if c == nil {
		return nil, ErrNilCategory
	}

	seen := make(map[*domain.Category]struct{}, 8)
	cur := c
	for depth := 0; depth < MaxCategoryDepth; depth++ {
		if cur.Parent == nil {
			return cur, nil
		}
		seen[cur] = struct{}{}
		if _, ok := seen[cur.Parent]; ok {
			return nil, ErrCategoryCycle
		}
		cur = cur.Parent
	}
	return nil, ErrCategoryDepth
}

// TaxonomyTable maps merchant root category titles to destination taxonomy
// strings.
type TaxonomyTable map[string]string

func (t TaxonomyTable) Lookup(title string) (string, bool) {
	v, ok := t[title]
	return v, ok
}

// UniqueCapped returns the distinct values in first-seen order, at most limit
// of them.
func UniqueCapped(values []string, limit int) []string {
	out := make([]string, 0, min(len(values), max(limit, 0)))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		if len(out) >= limit {
			break
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// Head returns a copy of the first n values.
func Head(values []string, n int) []string {
	if n < 0 {
		n = 0
	}
	if n > len(values) {
		n = len(values)
	}
	out := make([]string, n)
	copy(out, values[:n])
	return out
}
