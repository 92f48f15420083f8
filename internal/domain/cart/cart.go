package cart

import "github.com/shopspring/decimal"

type Item struct {
	ID           string          `json:"id"`
	ProductID    string          `json:"productId"`
	ProductName  string          `json:"productName,omitempty"`
	Unit         int             `json:"unit"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LineTotal    decimal.Decimal `json:"lineTotal"`
	ShippingCost decimal.Decimal `json:"shippingCost"`
}

// Recompute derives LineTotal from Unit and UnitPrice. Stored totals are never trusted.
func (i *Item) Recompute() {
	i.LineTotal = i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Unit)))
}

func (i Item) Validate() error {
	if i.Unit <= 0 {
		return ErrInvalidUnit
	}
	if i.UnitPrice.IsNegative() || i.ShippingCost.IsNegative() {
		return ErrInvalidPrice
	}
	return nil
}

// Cart is either a guest cart (empty Owner) or the mirror of a user's server cart.
type Cart struct {
	Owner string `json:"owner,omitempty"`
	Items []Item `json:"cartItems"`
}

func NewGuest() *Cart {
	return &Cart{Items: []Item{}}
}

func (c *Cart) IsGuest() bool {
	return c.Owner == ""
}

func (c *Cart) Count() int {
	if c == nil {
		return 0
	}
	return len(c.Items)
}

func (c *Cart) IsEmpty() bool {
	return c.Count() == 0
}

func (c *Cart) Find(itemID string) (int, bool) {
	if c == nil {
		return -1, false
	}
	for i, item := range c.Items {
		if item.ID == itemID {
			return i, true
		}
	}
	return -1, false
}

func (c *Cart) FindProduct(productID string) (int, bool) {
	if c == nil {
		return -1, false
	}
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i, true
		}
	}
	return -1, false
}

func (c *Cart) Subtotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.LineTotal)
	}
	return sum
}

func (c *Cart) ShippingTotal() decimal.Decimal {
	sum := decimal.Zero
	for _, item := range c.Items {
		sum = sum.Add(item.ShippingCost)
	}
	return sum
}

func (c *Cart) Total() decimal.Decimal {
	return c.Subtotal().Add(c.ShippingTotal())
}

// Clone returns a deep copy so cells never share item slices.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}
	items := make([]Item, len(c.Items))
	copy(items, c.Items)
	return &Cart{Owner: c.Owner, Items: items}
}

// Normalize recomputes every line total; used on anything read from storage or the wire.
func (c *Cart) Normalize() {
	if c.Items == nil {
		c.Items = []Item{}
	}
	for i := range c.Items {
		c.Items[i].Recompute()
	}
}
