package querycodec

import (
	"math/rand/v2"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"example.com/storefront/internal/domain/listing"
)

func requireFilterEqual(t *testing.T, want, got listing.Filter) {
	t.Helper()
	require.Equal(t, want.Page, got.Page)
	require.Equal(t, want.PageSize, got.PageSize)
	require.Equal(t, want.MinPrice, got.MinPrice)
	require.Equal(t, want.MaxPrice, got.MaxPrice)
	requireTimeEqual(t, want.MinDate, got.MinDate)
	requireTimeEqual(t, want.MaxDate, got.MaxDate)
	require.Equal(t, want.DeliveryStatus, got.DeliveryStatus)
	require.Equal(t, want.OrderID, got.OrderID)
	require.Equal(t, want.Search, got.Search)
	require.Equal(t, want.CategoryID, got.CategoryID)
	require.Equal(t, want.SubCategoryID, got.SubCategoryID)
	require.Equal(t, want.SortBy, got.SortBy)
}

func requireTimeEqual(t *testing.T, want, got *time.Time) {
	t.Helper()
	if want == nil {
		require.Nil(t, got)
		return
	}
	require.NotNil(t, got)
	require.True(t, want.Equal(*got), "want %s got %s", want, got)
}

func TestEncode_OmitsUnsetFields(t *testing.T) {
	q := Encode(listing.Default())

	require.Equal(t, url.Values{"page": {"1"}, "pageSize": {"10"}}, q)
}

func TestEncode_PlainStrings(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	f := listing.Filter{
		Page:           2,
		PageSize:       25,
		MinPrice:       listing.Ptr(2000.0),
		MaxPrice:       listing.Ptr(10000.5),
		MinDate:        &from,
		DeliveryStatus: listing.Ptr("PACKED"),
	}

	q := Encode(f)
	require.Equal(t, "2", q.Get(KeyPage))
	require.Equal(t, "25", q.Get(KeyPageSize))
	require.Equal(t, "2000", q.Get(KeyMinPrice))
	require.Equal(t, "10000.5", q.Get(KeyMaxPrice))
	require.Equal(t, "2024-03-01T00:00:00Z", q.Get(KeyMinDate))
	require.Equal(t, "PACKED", q.Get(KeyDeliveryStatus))
	require.False(t, q.Has(KeyMaxDate))
	require.False(t, q.Has(KeySearch))
}

func TestDecode_IgnoresUnknownKeys(t *testing.T) {
	f := Decode(url.Values{"page": {"3"}, "utm_source": {"mail"}})

	requireFilterEqual(t, listing.Filter{Page: 3}, f)
}

func TestDecode_DropsUnparsableValues(t *testing.T) {
	f := Decode(url.Values{
		"page":     {"abc"},
		"minPrice": {"cheap"},
		"maxPrice": {"99.9"},
		"minDate":  {"yesterday"},
		"maxDate":  {"2024-05-06"},
	})

	require.Equal(t, 0, f.Page)
	require.Nil(t, f.MinPrice)
	require.Equal(t, 99.9, *f.MaxPrice)
	require.Nil(t, f.MinDate)
	require.Equal(t, time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC), f.MaxDate.UTC())
}

func TestDecode_EmptyStringIsKept(t *testing.T) {
	f := Decode(url.Values{"search": {""}})

	require.NotNil(t, f.Search)
	require.Equal(t, "", *f.Search)
}

func TestRoundTrip_Examples(t *testing.T) {
	at := time.Date(2023, 12, 31, 23, 59, 59, 123456789, time.UTC)
	cases := []listing.Filter{
		{},
		listing.Default(),
		{Page: 7, PageSize: 100, Search: listing.Ptr("red shoes & socks")},
		{MinPrice: listing.Ptr(0.1), MaxPrice: listing.Ptr(1e9)},
		{MinDate: &at, MaxDate: &at, OrderID: listing.Ptr("ord_1")},
		{CategoryID: listing.Ptr("c1"), SubCategoryID: listing.Ptr("s2"), SortBy: listing.Ptr("price")},
	}

	for _, f := range cases {
		requireFilterEqual(t, f, Decode(Encode(f)))
	}
}

func TestRoundTrip_Random(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 7))
	for i := 0; i < 500; i++ {
		f := randomFilter(rng)
		requireFilterEqual(t, f, Decode(Encode(f)))
		require.Equal(t, Key(f), Key(Decode(Encode(f))))
	}
}

func TestKey_StableAcrossEqualFilters(t *testing.T) {
	a := listing.Filter{Page: 1, PageSize: 10, Search: listing.Ptr("x")}
	b := a.Clone()

	require.Equal(t, Key(a), Key(b))
	b.Page = 2
	require.NotEqual(t, Key(a), Key(b))
}

func randomFilter(rng *rand.Rand) listing.Filter {
	f := listing.Filter{
		Page:     rng.IntN(50),
		PageSize: rng.IntN(101),
	}
	if rng.IntN(2) == 0 {
		f.MinPrice = listing.Ptr(rng.Float64() * 10000)
	}
	if rng.IntN(2) == 0 {
		f.MaxPrice = listing.Ptr(float64(rng.IntN(100000)) / 100)
	}
	if rng.IntN(2) == 0 {
		d := time.Unix(rng.Int64N(4_000_000_000), rng.Int64N(1_000_000_000)).UTC()
		f.MinDate = &d
	}
	if rng.IntN(2) == 0 {
		d := time.Unix(rng.Int64N(4_000_000_000), 0).UTC()
		f.MaxDate = &d
	}
	strs := []*string{nil, listing.Ptr(""), listing.Ptr("PENDING"), listing.Ptr("a b=c&d"), listing.Ptr("ünïcödé")}
	pick := func() *string {
		s := strs[rng.IntN(len(strs))]
		if s == nil {
			return nil
		}
		v := *s
		return &v
	}
	f.DeliveryStatus = pick()
	f.OrderID = pick()
	f.Search = pick()
	f.CategoryID = pick()
	f.SubCategoryID = pick()
	f.SortBy = pick()
	return f
}
