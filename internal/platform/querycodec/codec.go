// Package querycodec maps a listing.Filter to and from flat query parameters.
package querycodec

import (
	"net/url"
	"strconv"
	"time"

	"example.com/storefront/internal/domain/listing"
)

const (
	KeyPage           = "page"
	KeyPageSize       = "pageSize"
	KeyMinPrice       = "minPrice"
	KeyMaxPrice       = "maxPrice"
	KeyMinDate        = "minDate"
	KeyMaxDate        = "maxDate"
	KeyDeliveryStatus = "deliveryStatus"
	KeyOrderID        = "orderId"
	KeySearch         = "search"
	KeyCategoryID     = "categoryId"
	KeySubCategoryID  = "subCategoryId"
	KeySortBy         = "sortBy"
)

const dateLayout = time.RFC3339Nano

// Encode omits every unset field. Page and page size are omitted when zero.
func Encode(f listing.Filter) url.Values {
	q := url.Values{}
	if f.Page > 0 {
		q.Set(KeyPage, strconv.Itoa(f.Page))
	}
	if f.PageSize > 0 {
		q.Set(KeyPageSize, strconv.Itoa(f.PageSize))
	}
	setFloat(q, KeyMinPrice, f.MinPrice)
	setFloat(q, KeyMaxPrice, f.MaxPrice)
	setTime(q, KeyMinDate, f.MinDate)
	setTime(q, KeyMaxDate, f.MaxDate)
	setString(q, KeyDeliveryStatus, f.DeliveryStatus)
	setString(q, KeyOrderID, f.OrderID)
	setString(q, KeySearch, f.Search)
	setString(q, KeyCategoryID, f.CategoryID)
	setString(q, KeySubCategoryID, f.SubCategoryID)
	setString(q, KeySortBy, f.SortBy)
	return q
}

// Decode leaves absent or unparsable keys unset and ignores unknown keys.
func Decode(q url.Values) listing.Filter {
	var f listing.Filter
	if v, ok := parseInt(q, KeyPage); ok {
		f.Page = v
	}
	if v, ok := parseInt(q, KeyPageSize); ok {
		f.PageSize = v
	}
	f.MinPrice = parseFloat(q, KeyMinPrice)
	f.MaxPrice = parseFloat(q, KeyMaxPrice)
	f.MinDate = parseTime(q, KeyMinDate)
	f.MaxDate = parseTime(q, KeyMaxDate)
	f.DeliveryStatus = parseString(q, KeyDeliveryStatus)
	f.OrderID = parseString(q, KeyOrderID)
	f.Search = parseString(q, KeySearch)
	f.CategoryID = parseString(q, KeyCategoryID)
	f.SubCategoryID = parseString(q, KeySubCategoryID)
	f.SortBy = parseString(q, KeySortBy)
	return f
}

// Key is the canonical string form of f. url.Values.Encode sorts by key.
func Key(f listing.Filter) string {
	return Encode(f).Encode()
}

func setFloat(q url.Values, key string, v *float64) {
	if v != nil {
		q.Set(key, strconv.FormatFloat(*v, 'f', -1, 64))
	}
}

func setTime(q url.Values, key string, v *time.Time) {
	if v != nil {
		q.Set(key, v.UTC().Format(dateLayout))
	}
}

func setString(q url.Values, key string, v *string) {
	if v != nil {
		q.Set(key, *v)
	}
}

func parseInt(q url.Values, key string) (int, bool) {
	raw := q.Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return v, true
}

func parseFloat(q url.Values, key string) *float64 {
	raw := q.Get(key)
	if raw == "" {
		return nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &v
}

func parseTime(q url.Values, key string) *time.Time {
	raw := q.Get(key)
	if raw == "" {
		return nil
	}
	v, err := time.Parse(dateLayout, raw)
	if err != nil {
		// date-only values as produced by date pickers
		if v, err = time.Parse(time.DateOnly, raw); err != nil {
			return nil
		}
	}
	v = v.UTC()
	return &v
}

func parseString(q url.Values, key string) *string {
	if !q.Has(key) {
		return nil
	}
	v := q.Get(key)
	return &v
}
