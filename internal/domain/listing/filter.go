package listing

import "time"

const (
	DefaultPage     = 1
	DefaultPageSize = 10
)

// Filter is the query state of a listing. Nil fields are unset.
type Filter struct {
	MinPrice       *float64   `json:"minPrice,omitempty" validate:"omitempty,gte=0"`
	MaxPrice       *float64   `json:"maxPrice,omitempty" validate:"omitempty,gte=0"`
	MinDate        *time.Time `json:"minDate,omitempty"`
	MaxDate        *time.Time `json:"maxDate,omitempty"`
	DeliveryStatus *string    `json:"deliveryStatus,omitempty" validate:"omitempty,oneof=PENDING PACKED DELIVERED"`
	OrderID        *string    `json:"orderId,omitempty" validate:"omitempty,max=64"`
	Search         *string    `json:"search,omitempty" validate:"omitempty,max=200"`
	CategoryID     *string    `json:"categoryId,omitempty" validate:"omitempty,max=64"`
	SubCategoryID  *string    `json:"subCategoryId,omitempty" validate:"omitempty,max=64"`
	SortBy         *string    `json:"sortBy,omitempty" validate:"omitempty,max=64"`
	Page           int        `json:"page,omitempty" validate:"gte=1"`
	PageSize       int        `json:"pageSize,omitempty" validate:"gt=0,lte=100"`
}

func Default() Filter {
	return Filter{Page: DefaultPage, PageSize: DefaultPageSize}
}

// Clone copies the pointed-to values so two filters never alias.
func (f Filter) Clone() Filter {
	out := f
	out.MinPrice = clonePtr(f.MinPrice)
	out.MaxPrice = clonePtr(f.MaxPrice)
	out.MinDate = clonePtr(f.MinDate)
	out.MaxDate = clonePtr(f.MaxDate)
	out.DeliveryStatus = clonePtr(f.DeliveryStatus)
	out.OrderID = clonePtr(f.OrderID)
	out.Search = clonePtr(f.Search)
	out.CategoryID = clonePtr(f.CategoryID)
	out.SubCategoryID = clonePtr(f.SubCategoryID)
	out.SortBy = clonePtr(f.SortBy)
	return out
}

// WithDefaults fills a zero page or page size.
func (f Filter) WithDefaults() Filter {
	if f.Page <= 0 {
		f.Page = DefaultPage
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	return f
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func Ptr[T any](v T) *T {
	return &v
}

// Page is one fetched page of a listing.
type Page[R any] struct {
	Items    []R `json:"items"`
	Total    int `json:"total"`
	Page     int `json:"page"`
	PageSize int `json:"pageSize"`
}

func (p *Page[R]) Clone() *Page[R] {
	if p == nil {
		return nil
	}
	items := make([]R, len(p.Items))
	copy(items, p.Items)
	return &Page[R]{Items: items, Total: p.Total, Page: p.Page, PageSize: p.PageSize}
}
