package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"example.com/storefront/internal/domain/listing"
)

// sortPage returns a sorted copy of p. Rows whose value is nil go last in both directions
// and equal rows keep their relative order.
func sortPage[R any](p *listing.Page[R], s SortState, column listing.ColumnFunc[R]) (*listing.Page[R], error) {
	type keyed struct {
		row R
		key any
	}
	rows := make([]keyed, len(p.Items))
	for i, row := range p.Items {
		k, err := column(row, s.Column)
		if err != nil {
			return nil, err
		}
		rows[i] = keyed{row: row, key: k}
	}

	slices.SortStableFunc(rows, func(a, b keyed) int {
		switch {
		case a.key == nil && b.key == nil:
			return 0
		case a.key == nil:
			return 1
		case b.key == nil:
			return -1
		}
		c := compareValues(a.key, b.key)
		if s.Direction == Desc {
			return -c
		}
		return c
	})

	out := p.Clone()
	for i, r := range rows {
		out.Items[i] = r.row
	}
	return out, nil
}

func compareValues(a, b any) int {
	switch av := a.(type) {
	case string:
		if bv, ok := b.(string); ok {
			return strings.Compare(strings.ToLower(av), strings.ToLower(bv))
		}
	case int:
		if bv, ok := b.(int); ok {
			return cmp.Compare(av, bv)
		}
	case int64:
		if bv, ok := b.(int64); ok {
			return cmp.Compare(av, bv)
		}
	case float64:
		if bv, ok := b.(float64); ok {
			return cmp.Compare(av, bv)
		}
	case decimal.Decimal:
		if bv, ok := b.(decimal.Decimal); ok {
			return av.Cmp(bv)
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			return av.Compare(bv)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
