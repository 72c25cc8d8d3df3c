package domain

import "time"

type EventType string

const (
	EventMemberJoined   EventType = "MemberJoined"
	EventOrderPlaced    EventType = "OrderPlaced"
	EventOrderCancelled EventType = "OrderCancelled"
)

// Event is published after the transaction that produced it commits.
type Event struct {
	Type       EventType
	Key        int64 // order id, or member id for MemberJoined
	OccurredAt time.Time
	Payload    any
}

type MemberJoined struct {
	MemberID int64  `json:"member_id"`
	Name     string `json:"name"`
}

type OrderPlaced struct {
	OrderID    int64 `json:"order_id"`
	MemberID   int64 `json:"member_id"`
	ItemID     int64 `json:"item_id"`
	Count      int   `json:"count"`
	TotalPrice int   `json:"total_price"`
}

type OrderCancelled struct {
	OrderID  int64 `json:"order_id"`
	MemberID int64 `json:"member_id"`
}
