package cart

import (
	"fmt"

	validation "github.com/go-ozzo/ozzo-validation"

	"github.com/jrsteele09/go-shop-client/internal/errors"
)

// Item is one cart line. Anonymous lines carry a negative local id; server lines carry the server's id.
type Item struct {
	ID          int64   `json:"id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	ImageURL    string  `json:"image_url"`
	Price       float64 `json:"price"`
	Quantity    int     `json:"quantity"`
}

// NewItem builds a validated line for productID
func NewItem(productID int64, name string, price float64, quantity int) (Item, error) {
	i := Item{ProductID: productID, ProductName: name, Price: price, Quantity: quantity}
	if err := i.Validate(); err != nil {
		return Item{}, fmt.Errorf("[cart NewItem] %w: %v", errors.ErrInvalidItem, err)
	}
	return i, nil
}

// Validate checks an item about to be added
func (i Item) Validate() error {
	return validation.ValidateStruct(&i,
		validation.Field(&i.ProductID, validation.Required, validation.Min(1)),
		validation.Field(&i.Quantity, validation.Required, validation.Min(1)),
		validation.Field(&i.Price, validation.Min(0.0)),
	)
}

// IsLocal reports whether the line has not been stored on the server
func (i Item) IsLocal() bool {
	return i.ID < 0
}

func productKey(i Item) int64 {
	return i.ProductID
}

// ItemCount sums the quantities of items
func ItemCount(items []Item) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

// TotalPrice sums quantity times price over items
func TotalPrice(items []Item) float64 {
	total := 0.0
	for _, it := range items {
		total += it.Price * float64(it.Quantity)
	}
	return total
}
