package product

import (
	"time"

	"github.com/shopspring/decimal"
)

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int64           `json:"stock"`
	Category    *Category       `json:"category,omitempty"`
	SubCategory *Category       `json:"subCategory,omitempty"`
	CreatedAt   time.Time       `json:"createdAt"`
}
