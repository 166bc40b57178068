package domain

// ListItem is one shopping list entry. A generic item carries only a free-text
// name until a search binds it to a product.
type ListItem struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	ProductID string `json:"productId,omitempty"`
	IsGeneric bool   `json:"isGeneric"`
	Quantity  int    `json:"quantity"`
	IsChecked bool   `json:"isChecked"`
}

// Validate checks the item invariants; field prefixes the reported field name.
func (i ListItem) Validate(field string) error {
	if i.ID == "" {
		return NewValidationError(field+".id", "must not be empty")
	}
	if i.Quantity < 1 {
		return NewValidationError(field+".quantity", "must be at least 1, got %d", i.Quantity)
	}
	if i.IsGeneric {
		if i.ProductID != "" {
			return NewValidationError(field+".productId", "generic item must not be bound to a product")
		}
		if i.Name == "" {
			return NewValidationError(field+".name", "generic item needs a name")
		}
		return nil
	}
	if i.ProductID == "" {
		return NewValidationError(field+".productId", "must not be empty for a resolved item")
	}
	return nil
}

// Resolve returns a copy of a generic item bound to productID.
func (i ListItem) Resolve(productID, name string) ListItem {
	i.IsGeneric = false
	i.ProductID = productID
	if name != "" {
		i.Name = name
	}
	return i
}

// PlanItem returns the optimizer input for a resolved item.
func (i ListItem) PlanItem() PlanItem {
	return PlanItem{ItemID: i.ID, ProductID: i.ProductID, Name: i.Name, Quantity: i.Quantity}
}
