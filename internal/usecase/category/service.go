package category

import (
	"slices"
	"strings"
	"sync"

	dom "example.com/storefront/internal/domain/category"
	domproduct "example.com/storefront/internal/domain/product"
)

// Service indexes the categories seen on fetched product pages so listings can be
// addressed by slug the way the storefront routes do.
type Service struct {
	mu    sync.RWMutex
	byKey map[string]dom.Category
}

func NewService() *Service {
	return &Service{byKey: make(map[string]dom.Category)}
}

// key of a top-level category is its slug; a sub-category is keyed under its parent's slug.
func key(parentSlug, slug string) string {
	if parentSlug == "" {
		return slug
	}
	return parentSlug + "/" + slug
}

// Observe records the category and sub-category of every product.
func (s *Service) Observe(products []domproduct.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range products {
		if p.Category == nil {
			continue
		}
		parent := s.putLocked("", "", p.Category)
		if p.SubCategory != nil && parent.Slug != "" {
			s.putLocked(parent.Slug, parent.ID, p.SubCategory)
		}
	}
}

func (s *Service) putLocked(parentSlug, parentID string, c *domproduct.Category) dom.Category {
	entry := dom.Category{ID: c.ID, Name: c.Name, Slug: dom.Slugify(c.Name), Parent: parentID}
	if entry.Slug == "" || entry.ID == "" {
		return dom.Category{}
	}
	s.byKey[key(parentSlug, entry.Slug)] = entry
	return entry
}

// List returns the known categories, parents first, each group by name.
func (s *Service) List() []dom.Category {
	s.mu.RLock()
	out := make([]dom.Category, 0, len(s.byKey))
	for _, c := range s.byKey {
		out = append(out, c)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b dom.Category) int {
		if (a.Parent == "") != (b.Parent == "") {
			if a.Parent == "" {
				return -1
			}
			return 1
		}
		if c := strings.Compare(a.Parent, b.Parent); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}

// Resolve maps slugs to category ids. subSlug requires categorySlug; both may be empty.
func (s *Service) Resolve(categorySlug, subSlug string) (categoryID, subCategoryID *string, err error) {
	if categorySlug == "" {
		if subSlug != "" {
			return nil, nil, dom.ErrCategoryInvalidSlug
		}
		return nil, nil, nil
	}
	if !dom.IsValidSlug(categorySlug) || (subSlug != "" && !dom.IsValidSlug(subSlug)) {
		return nil, nil, dom.ErrCategoryInvalidSlug
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	parent, ok := s.byKey[key("", categorySlug)]
	if !ok {
		return nil, nil, dom.ErrCategoryNotFound
	}
	id := parent.ID
	categoryID = &id
	if subSlug == "" {
		return categoryID, nil, nil
	}
	sub, ok := s.byKey[key(categorySlug, subSlug)]
	if !ok {
		return nil, nil, dom.ErrCategoryNotFound
	}
	subID := sub.ID
	return categoryID, &subID, nil
}
