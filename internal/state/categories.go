package state

import "github.com/ETAnderson/shopfeed/internal/domain"

// linkCategories builds a fresh category graph with Parent pointers resolved.
// Unknown parent keys leave the node as a root.
func linkCategories(cats map[string]domain.Category) map[string]*domain.Category {
	nodes := make(map[string]*domain.Category, len(cats))
	for k, c := range cats {
		c := c
		c.TaxonomyPaths = append([]string(nil), c.TaxonomyPaths...)
		c.Parent = nil
		nodes[k] = &c
	}

	for _, n := range nodes {
		if n.ParentKey == "" {
			continue
		}
		if parent, ok := nodes[n.ParentKey]; ok {
			n.Parent = parent
		}
	}
	return nodes
}

// attachCategories fills p.Categories in CategoryKeys order, skipping keys
// that are not in the catalog.
func attachCategories(p *domain.Product, nodes map[string]*domain.Category) {
	p.Categories = make([]*domain.Category, 0, len(p.CategoryKeys))
	for _, k := range p.CategoryKeys {
		if n, ok := nodes[k]; ok {
			p.Categories = append(p.Categories, n)
		}
	}
}
