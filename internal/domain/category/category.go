package category

import (
	"regexp"
	"strings"
)

// Category is a product category as it appears in the catalogue. Parent is empty for a
// top-level category and set for a sub-category.
type Category struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	Parent string `json:"parent,omitempty"`
}

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases name and joins its alphanumeric runs with hyphens.
func Slugify(name string) string {
	return strings.Trim(nonSlug.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

func IsValidSlug(slug string) bool {
	return slug != "" && Slugify(slug) == slug
}
