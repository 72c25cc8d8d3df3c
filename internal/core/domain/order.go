package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrAlreadyCancelled   = errors.New("order already cancelled")
	ErrDeliveryCompleted  = errors.New("delivery already completed")
	ErrEmptyOrder         = errors.New("order must have at least one line")
	ErrInvalidOrderStatus = errors.New("unknown order status")
)

type OrderStatus string

const (
	OrderStatusOrder  OrderStatus = "ORDER"
	OrderStatusCancel OrderStatus = "CANCEL"
)

func ParseOrderStatus(s string) (OrderStatus, error) {
	switch st := OrderStatus(strings.ToUpper(s)); st {
	case OrderStatusOrder, OrderStatusCancel:
		return st, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOrderStatus, s)
	}
}

var validNext = map[OrderStatus]map[OrderStatus]bool{
	OrderStatusOrder:  {OrderStatusCancel: true},
	OrderStatusCancel: {},
}

func CanTransition(from, to OrderStatus) bool {
	return validNext[from][to]
}

type DeliveryStatus string

const (
	DeliveryStatusReady    DeliveryStatus = "READY"
	DeliveryStatusComplete DeliveryStatus = "COMP"
)

type Delivery struct {
	Address Address
	Status  DeliveryStatus
}

// CancelPolicy decides what cancelling an already cancelled order does.
type CancelPolicy string

const (
	CancelPolicyReject CancelPolicy = "reject"
	CancelPolicyIgnore CancelPolicy = "ignore"
)

func ParseCancelPolicy(s string) (CancelPolicy, error) {
	switch p := CancelPolicy(strings.ToLower(s)); p {
	case CancelPolicyReject, CancelPolicyIgnore:
		return p, nil
	case "":
		return CancelPolicyReject, nil
	default:
		return "", fmt.Errorf("unknown cancel policy %q", s)
	}
}

type OrderLine struct {
	ItemID     int64
	OrderPrice int // item price at order time
	Count      int
}

func (l OrderLine) TotalPrice() int {
	return l.OrderPrice * l.Count
}

type Order struct {
	ID        int64
	MemberID  int64
	Lines     []OrderLine
	Status    OrderStatus
	Delivery  Delivery
	OrderDate time.Time
	UpdatedAt time.Time
}

// NewOrder creates an order in ORDER status with a READY delivery.
func NewOrder(memberID int64, address Address, lines ...OrderLine) (*Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyOrder
	}
	for _, l := range lines {
		if l.Count <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	now := time.Now()
	return &Order{
		MemberID:  memberID,
		Lines:     lines,
		Status:    OrderStatusOrder,
		Delivery:  Delivery{Address: address, Status: DeliveryStatusReady},
		OrderDate: now,
		UpdatedAt: now,
	}, nil
}

func (o Order) TotalPrice() int {
	total := 0
	for _, l := range o.Lines {
		total += l.TotalPrice()
	}
	return total
}

// Cancel moves the order to CANCEL. It returns false without error when the
// order was already cancelled and policy is CancelPolicyIgnore; the caller
// must only restore stock when it returns true.
func (o *Order) Cancel(policy CancelPolicy) (bool, error) {
	if o.Status == OrderStatusCancel {
		if policy == CancelPolicyIgnore {
			return false, nil
		}
		return false, ErrAlreadyCancelled
	}
	if o.Delivery.Status == DeliveryStatusComplete {
		return false, ErrDeliveryCompleted
	}
	if !CanTransition(o.Status, OrderStatusCancel) {
		return false, fmt.Errorf("%w: %s", ErrInvalidOrderStatus, o.Status)
	}

	o.Status = OrderStatusCancel
	o.UpdatedAt = time.Now()
	return true, nil
}

func (o *Order) CompleteDelivery() error {
	if o.Status == OrderStatusCancel {
		return ErrAlreadyCancelled
	}
	if o.Delivery.Status == DeliveryStatusComplete {
		return ErrDeliveryCompleted
	}
	o.Delivery.Status = DeliveryStatusComplete
	o.UpdatedAt = time.Now()
	return nil
}

// OrderSearch filters orders; zero fields match everything.
type OrderSearch struct {
	MemberName string
	Status     OrderStatus
}
