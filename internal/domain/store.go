package domain

import "fmt"

// StoreID identifies a supported retailer in the catalog.
type StoreID string

// Catalog store ids.
const (
	StoreWoolworths StoreID = "store-woolworths"
	StoreColes      StoreID = "store-coles"
	StoreAldi       StoreID = "store-aldi"
)

// Store is one entry of the static retailer catalog.
type Store struct {
	ID      StoreID `json:"id"`
	Name    string  `json:"name"`
	Chain   string  `json:"chain"`
	LogoURL string  `json:"logoUrl"`
}

// Catalog is the immutable table of supported retailers, loaded once at startup.
type Catalog struct {
	stores []Store
	byID   map[StoreID]int
}

// NewCatalog builds a catalog preserving the given order.
func NewCatalog(stores ...Store) (*Catalog, error) {
	c := &Catalog{
		stores: make([]Store, 0, len(stores)),
		byID:   make(map[StoreID]int, len(stores)),
	}
	for _, s := range stores {
		if s.ID == "" {
			return nil, fmt.Errorf("catalog store %q has no id", s.Name)
		}
		if _, dup := c.byID[s.ID]; dup {
			return nil, fmt.Errorf("duplicate catalog store id %q", s.ID)
		}
		c.byID[s.ID] = len(c.stores)
		c.stores = append(c.stores, s)
	}
	return c, nil
}

// DefaultCatalog returns the three supported retailers.
func DefaultCatalog() *Catalog {
	c, _ := NewCatalog(
		Store{ID: StoreWoolworths, Name: "Woolworths", Chain: "Woolworths", LogoURL: "https://e7.pngegg.com/pngimages/87/110/png-clipart-logo-woolworths-supermarkets-brand-woolworths-epsom-woolworths-st-clair-netball-text-trademark.png"},
		Store{ID: StoreColes, Name: "Coles", Chain: "Coles", LogoURL: "https://e7.pngegg.com/pngimages/792/16/png-clipart-brand-logo-coles-upper-coomera-coles-supermarkets-coles-robina-palm-reading-signs-red-text-trademark.png"},
		Store{ID: StoreAldi, Name: "ALDI", Chain: "ALDI", LogoURL: "https://p7.hiclipart.com/preview/687/518/570/aldi-grocery-store-supermarket-chicago-company-aldi-logo.jpg"},
	)
	return c
}

// Stores returns a copy of the catalog in catalog order.
func (c *Catalog) Stores() []Store {
	out := make([]Store, len(c.stores))
	copy(out, c.stores)
	return out
}

// Lookup finds a store by id.
func (c *Catalog) Lookup(id StoreID) (Store, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Store{}, false
	}
	return c.stores[i], true
}

// Contains reports whether id is in the catalog.
func (c *Catalog) Contains(id StoreID) bool {
	_, ok := c.byID[id]
	return ok
}

// StoreName returns the display name for id, or the raw id when unknown.
func (c *Catalog) StoreName(id StoreID) string {
	if s, ok := c.Lookup(id); ok {
		return s.Name
	}
	return string(id)
}

// ParseStoreIDs validates a user store selection. Order is preserved (it is the
// optimizer's tie-break order) and duplicates are dropped.
func (c *Catalog) ParseStoreIDs(field string, ids []string) ([]StoreID, error) {
	if len(ids) == 0 {
		return nil, NewValidationError(field, "at least one store is required")
	}

	out := make([]StoreID, 0, len(ids))
	seen := make(map[StoreID]bool, len(ids))
	for i, raw := range ids {
		id := StoreID(raw)
		if !c.Contains(id) {
			return nil, NewValidationError(fmt.Sprintf("%s[%d]", field, i), "%v %q", ErrUnknownStore, raw)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out, nil
}
