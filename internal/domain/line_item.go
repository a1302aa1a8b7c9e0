package domain

import "strings"

// LineItem is one garment variant ordered on a job
type LineItem struct {
	SKU         string `bson:"sku" json:"sku"`
	Size        string `bson:"size" json:"size"`
	Color       string `bson:"color" json:"color"`
	Quantity    int    `bson:"quantity" json:"quantity"`
	Description string `bson:"description" json:"description"`
}

var hoodieTokens = []string{"hoodie", "hooded", "sweatshirt"}

// IsHoodie reports whether the item packs as a hoodie
func (li LineItem) IsHoodie() bool {
	desc := strings.ToLower(li.Description)
	for _, token := range hoodieTokens {
		if strings.Contains(desc, token) {
			return true
		}
	}
	return false
}

// Validate checks a single line item
func (li LineItem) Validate() error {
	if li.SKU == "" {
		return NewValidationError("lineItems.sku", "sku is required")
	}
	if li.Quantity <= 0 {
		return NewValidationError("lineItems.quantity", "quantity must be greater than zero")
	}
	return nil
}
