package domain

import (
	"errors"
	"strings"
)

var (
	ErrDuplicateMember = errors.New("member already exists")
	ErrEmptyName       = errors.New("name must not be empty")
)

type Address struct {
	City    string
	Street  string
	Zipcode string
}

func (a Address) IsZero() bool {
	return a.City == "" && a.Street == "" && a.Zipcode == ""
}

type Member struct {
	ID      int64
	Name    string
	Address Address
}

func (m Member) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// CheckUniqueName fails when any of existing already uses name.
func CheckUniqueName(name string, existing []Member) error {
	for _, m := range existing {
		if m.Name == name {
			return ErrDuplicateMember
		}
	}
	return nil
}
