package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()

	stores := c.Stores()
	require.Len(t, stores, 3)
	assert.Equal(t, StoreWoolworths, stores[0].ID)
	assert.Equal(t, StoreColes, stores[1].ID)
	assert.Equal(t, StoreAldi, stores[2].ID)

	s, ok := c.Lookup(StoreAldi)
	require.True(t, ok)
	assert.Equal(t, "ALDI", s.Name)
	assert.NotEmpty(t, s.LogoURL)

	assert.Equal(t, "Coles", c.StoreName(StoreColes))
	assert.Equal(t, "store-iga", c.StoreName("store-iga"))
}

func TestCatalog_StoresIsACopy(t *testing.T) {
	c := DefaultCatalog()
	stores := c.Stores()
	stores[0].Name = "changed"

	assert.Equal(t, "Woolworths", c.Stores()[0].Name)
}

func TestNewCatalog_RejectsDuplicates(t *testing.T) {
	_, err := NewCatalog(Store{ID: "a", Name: "A"}, Store{ID: "a", Name: "B"})
	assert.Error(t, err)

	_, err = NewCatalog(Store{Name: "no id"})
	assert.Error(t, err)
}

func TestCatalog_ParseStoreIDs(t *testing.T) {
	c := DefaultCatalog()

	t.Run("keeps order and drops duplicates", func(t *testing.T) {
		ids, err := c.ParseStoreIDs("storeIds", []string{"store-aldi", "store-coles", "store-aldi"})
		require.NoError(t, err)
		assert.Equal(t, []StoreID{StoreAldi, StoreColes}, ids)
	})

	t.Run("names the unknown entry", func(t *testing.T) {
		_, err := c.ParseStoreIDs("storeIds", []string{"store-coles", "store-iga"})

		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "storeIds[1]", verr.Field)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})

	t.Run("requires at least one store", func(t *testing.T) {
		_, err := c.ParseStoreIDs("storeIds", nil)
		assert.ErrorIs(t, err, ErrInvalidRequest)
	})
}
