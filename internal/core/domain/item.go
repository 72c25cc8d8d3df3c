package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotEnoughStock  = errors.New("not enough stock")
	ErrInvalidQuantity = errors.New("quantity must be greater than 0")
	ErrInvalidPrice    = errors.New("price must be greater than 0")
	ErrInvalidKind     = errors.New("unknown item kind")
)

type ItemKind string

const (
	ItemKindBook  ItemKind = "BOOK"
	ItemKindAlbum ItemKind = "ALBUM"
	ItemKindMovie ItemKind = "MOVIE"
)

func ParseItemKind(s string) (ItemKind, error) {
	switch k := ItemKind(strings.ToUpper(s)); k {
	case ItemKindBook, ItemKindAlbum, ItemKindMovie:
		return k, nil
	case "":
		return ItemKindBook, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidKind, s)
	}
}

// Item is stored single-table; only the attributes of its Kind are set.
type Item struct {
	ID            int64
	Kind          ItemKind
	Name          string
	Price         int
	StockQuantity int

	Author string // BOOK
	ISBN   string // BOOK

	Artist string // ALBUM
	Etc    string // ALBUM

	Director string // MOVIE
	Actor    string // MOVIE

	Version int // optimistic locking
}

func (i Item) Validate() error {
	if strings.TrimSpace(i.Name) == "" {
		return ErrEmptyName
	}
	if i.Price <= 0 {
		return ErrInvalidPrice
	}
	if i.StockQuantity < 0 {
		return ErrNotEnoughStock
	}
	if _, err := ParseItemKind(string(i.Kind)); err != nil {
		return err
	}
	return nil
}

// CheckStock reports whether quantity units can be taken from stock.
func CheckStock(stock, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if quantity > stock {
		return fmt.Errorf("%w: requested %d, available %d", ErrNotEnoughStock, quantity, stock)
	}
	return nil
}

// RemoveStock leaves the item untouched when it returns an error.
func (i *Item) RemoveStock(quantity int) error {
	if err := CheckStock(i.StockQuantity, quantity); err != nil {
		return err
	}
	i.StockQuantity -= quantity
	return nil
}

func (i *Item) AddStock(quantity int) {
	i.StockQuantity += quantity
}
