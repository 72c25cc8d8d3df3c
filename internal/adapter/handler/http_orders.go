package handler

import (
	"net/http"
	"time"

	"github.com/rl1809/bookshop/internal/core/domain"
)

type PlaceOrderRequest struct {
	RequestID string `json:"request_id"`
	MemberID  int64  `json:"member_id"`
	ItemID    int64  `json:"item_id"`
	Count     int    `json:"count"`
}

type PlaceOrderResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	OrderID int64  `json:"order_id"`
}

type OrderLineJSON struct {
	ItemID     int64 `json:"item_id"`
	OrderPrice int   `json:"order_price"`
	Count      int   `json:"count"`
	TotalPrice int   `json:"total_price"`
}

type DeliveryJSON struct {
	AddressJSON
	Status string `json:"status"`
}

type OrderResponse struct {
	ID         int64           `json:"id"`
	MemberID   int64           `json:"member_id"`
	Status     string          `json:"status"`
	OrderDate  time.Time       `json:"order_date"`
	Delivery   DeliveryJSON    `json:"delivery"`
	Lines      []OrderLineJSON `json:"lines"`
	TotalPrice int             `json:"total_price"`
}

func toOrderResponse(o domain.Order) OrderResponse {
	lines := make([]OrderLineJSON, 0, len(o.Lines))
	for _, l := range o.Lines {
		lines = append(lines, OrderLineJSON{
			ItemID:     l.ItemID,
			OrderPrice: l.OrderPrice,
			Count:      l.Count,
			TotalPrice: l.TotalPrice(),
		})
	}
	return OrderResponse{
		ID:        o.ID,
		MemberID:  o.MemberID,
		Status:    string(o.Status),
		OrderDate: o.OrderDate,
		Delivery: DeliveryJSON{
			AddressJSON: AddressJSON(o.Delivery.Address),
			Status:      string(o.Delivery.Status),
		},
		Lines:      lines,
		TotalPrice: o.TotalPrice(),
	}
}

// PlaceOrder uses OrderOnce when the client sends a request_id.
func (h *HTTPHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req PlaceOrderRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if req.MemberID <= 0 || req.ItemID <= 0 {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "missing required fields"})
		return
	}

	var (
		id  int64
		err error
	)
	if req.RequestID != "" {
		id, err = h.orders.OrderOnce(r.Context(), req.RequestID, req.MemberID, req.ItemID, req.Count)
	} else {
		id, err = h.orders.Order(r.Context(), req.MemberID, req.ItemID, req.Count)
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, PlaceOrderResponse{
		Success: true,
		Message: "order placed successfully",
		OrderID: id,
	})
}

func (h *HTTPHandler) SearchOrders(w http.ResponseWriter, r *http.Request) {
	search := domain.OrderSearch{MemberName: r.URL.Query().Get("member_name")}
	if s := r.URL.Query().Get("status"); s != "" {
		status, err := domain.ParseOrderStatus(s)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		search.Status = status
	}

	orders, err := h.orders.Search(r.Context(), search)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]OrderResponse, 0, len(orders))
	for _, o := range orders {
		out = append(out, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	order, err := h.orders.FindOne(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(*order))
}

func (h *HTTPHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.orders.Cancel(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "order cancelled"})
}

func (h *HTTPHandler) CompleteDelivery(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.orders.CompleteDelivery(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, Response{Success: true, Message: "delivery completed"})
}
