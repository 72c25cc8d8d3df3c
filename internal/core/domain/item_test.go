package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRemoveStock(t *testing.T) {
	item := &Item{Name: "JPA", Price: 10000, StockQuantity: 10}

	require.NoError(t, item.RemoveStock(2))
	assert.Equal(t, 8, item.StockQuantity)

	require.NoError(t, item.RemoveStock(8))
	assert.Equal(t, 0, item.StockQuantity)
}

func TestRemoveStock_NotEnoughStock(t *testing.T) {
	item := &Item{Name: "JPA", Price: 10000, StockQuantity: 10}

	err := item.RemoveStock(11)
	assert.ErrorIs(t, err, ErrNotEnoughStock)
	assert.Equal(t, 10, item.StockQuantity, "stock must be unchanged on failure")
}

func TestRemoveStock_InvalidQuantity(t *testing.T) {
	item := &Item{StockQuantity: 5}

	assert.ErrorIs(t, item.RemoveStock(0), ErrInvalidQuantity)
	assert.ErrorIs(t, item.RemoveStock(-1), ErrInvalidQuantity)
	assert.Equal(t, 5, item.StockQuantity)
}

func TestAddStock(t *testing.T) {
	item := &Item{StockQuantity: 8}
	item.AddStock(2)
	assert.Equal(t, 10, item.StockQuantity)
}

func TestItemValidate(t *testing.T) {
	tests := []struct {
		name string
		item Item
		err  error
	}{
		{"valid book", Item{Kind: ItemKindBook, Name: "JPA", Price: 1, StockQuantity: 0}, nil},
		{"empty kind defaults to book", Item{Name: "JPA", Price: 1}, nil},
		{"empty name", Item{Kind: ItemKindBook, Price: 1}, ErrEmptyName},
		{"zero price", Item{Kind: ItemKindBook, Name: "JPA"}, ErrInvalidPrice},
		{"negative stock", Item{Kind: ItemKindBook, Name: "JPA", Price: 1, StockQuantity: -1}, ErrNotEnoughStock},
		{"bad kind", Item{Kind: "TOY", Name: "JPA", Price: 1}, ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.item.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestParseItemKind(t *testing.T) {
	k, err := ParseItemKind("album")
	require.NoError(t, err)
	assert.Equal(t, ItemKindAlbum, k)

	_, err = ParseItemKind("toy")
	assert.ErrorIs(t, err, ErrInvalidKind)
}
