package category

import "errors"

var (
	ErrCategoryNotFound    = errors.New("category not found")
	ErrCategoryInvalidSlug = errors.New("invalid category slug")
)
