package handler

import (
	"net/http"

	"github.com/rl1809/bookshop/internal/core/domain"
	"github.com/rl1809/bookshop/internal/core/service"
)

type ItemJSON struct {
	ID            int64  `json:"id,omitempty"`
	Kind          string `json:"kind"`
	Name          string `json:"name"`
	Price         int    `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
	Author        string `json:"author,omitempty"`
	ISBN          string `json:"isbn,omitempty"`
	Artist        string `json:"artist,omitempty"`
	Etc           string `json:"etc,omitempty"`
	Director      string `json:"director,omitempty"`
	Actor         string `json:"actor,omitempty"`
}

type UpdateItemRequest struct {
	Name          string `json:"name"`
	Price         int    `json:"price"`
	StockQuantity int    `json:"stock_quantity"`
}

func toItemJSON(i domain.Item) ItemJSON {
	return ItemJSON{
		ID:            i.ID,
		Kind:          string(i.Kind),
		Name:          i.Name,
		Price:         i.Price,
		StockQuantity: i.StockQuantity,
		Author:        i.Author,
		ISBN:          i.ISBN,
		Artist:        i.Artist,
		Etc:           i.Etc,
		Director:      i.Director,
		Actor:         i.Actor,
	}
}

func (h *HTTPHandler) SaveItem(w http.ResponseWriter, r *http.Request) {
	var req ItemJSON
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.items.SaveItem(r.Context(), domain.Item{
		Kind:          domain.ItemKind(req.Kind),
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
		Author:        req.Author,
		ISBN:          req.ISBN,
		Artist:        req.Artist,
		Etc:           req.Etc,
		Director:      req.Director,
		Actor:         req.Actor,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *HTTPHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.items.FindItems(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]ItemJSON, 0, len(items))
	for _, i := range items {
		out = append(out, toItemJSON(i))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	item, err := h.items.FindOne(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toItemJSON(*item))
}

func (h *HTTPHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var req UpdateItemRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	err := h.items.UpdateItem(r.Context(), id, service.UpdateItemParams{
		Name:          req.Name,
		Price:         req.Price,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, Response{Success: true, Message: "item updated"})
}
