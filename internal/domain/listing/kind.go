package listing

import "errors"

var ErrUnknownColumn = errors.New("unknown sort column")

type Kind string

const (
	KindOrders   Kind = "orders"
	KindProducts Kind = "products"
)

func (k Kind) IsValid() bool {
	switch k {
	case KindOrders, KindProducts:
		return true
	default:
		return false
	}
}

// StorageKey is where the held filter of this listing is persisted.
func (k Kind) StorageKey() string {
	return "filter:" + string(k)
}

// Cardinality counts the significant predicates set on f. Page and page size never count,
// and a range counts once whichever bound is set.
func (k Kind) Cardinality(f Filter) int {
	n := 0
	if f.MinPrice != nil || f.MaxPrice != nil {
		n++
	}
	if f.MinDate != nil || f.MaxDate != nil {
		n++
	}
	switch k {
	case KindOrders:
		if f.DeliveryStatus != nil {
			n++
		}
	case KindProducts:
		if f.CategoryID != nil {
			n++
		}
		if f.SubCategoryID != nil {
			n++
		}
	}
	return n
}

// ColumnFunc extracts a sortable value from a row. A nil value sorts last.
type ColumnFunc[R any] func(row R, column string) (any, error)
