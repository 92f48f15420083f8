package order

import (
	"fmt"

	"example.com/storefront/internal/domain/listing"
)

// Column returns the value of o used when sorting a loaded page by column.
func Column(o Order, column string) (any, error) {
	switch column {
	case "id":
		return o.ID, nil
	case "orderStatus":
		return o.OrderStatus, nil
	case "deliveryStatus":
		return string(o.DeliveryStatus), nil
	case "paymentMethod":
		return o.PaymentMethod, nil
	case "orderAmount":
		return o.OrderAmount, nil
	case "totalAmount", "price":
		return o.TotalAmount, nil
	case "createdAt", "date":
		if o.CreatedAt.IsZero() {
			return nil, nil
		}
		return o.CreatedAt, nil
	default:
		return nil, fmt.Errorf("%w: %q", listing.ErrUnknownColumn, column)
	}
}
