package product

import (
	"fmt"

	"example.com/storefront/internal/domain/listing"
)

func Column(p Product, column string) (any, error) {
	switch column {
	case "id":
		return p.ID, nil
	case "name":
		return p.Name, nil
	case "price":
		return p.Price, nil
	case "stock":
		return p.Stock, nil
	case "category":
		if p.Category == nil {
			return nil, nil
		}
		return p.Category.Name, nil
	case "subCategory":
		if p.SubCategory == nil {
			return nil, nil
		}
		return p.SubCategory.Name, nil
	case "createdAt", "date":
		if p.CreatedAt.IsZero() {
			return nil, nil
		}
		return p.CreatedAt, nil
	default:
		return nil, fmt.Errorf("%w: %q", listing.ErrUnknownColumn, column)
	}
}
