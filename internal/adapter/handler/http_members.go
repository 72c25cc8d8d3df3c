package handler

import (
	"net/http"

	"github.com/rl1809/bookshop/internal/core/domain"
)

type AddressJSON struct {
	City    string `json:"city"`
	Street  string `json:"street"`
	Zipcode string `json:"zipcode"`
}

type JoinMemberRequest struct {
	Name string `json:"name"`
	AddressJSON
}

type MemberResponse struct {
	ID      int64       `json:"id"`
	Name    string      `json:"name"`
	Address AddressJSON `json:"address"`
}

func toMemberResponse(m domain.Member) MemberResponse {
	return MemberResponse{
		ID:      m.ID,
		Name:    m.Name,
		Address: AddressJSON(m.Address),
	}
}

func (h *HTTPHandler) JoinMember(w http.ResponseWriter, r *http.Request) {
	var req JoinMemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.members.Join(r.Context(), domain.Member{
		Name:    req.Name,
		Address: domain.Address(req.AddressJSON),
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

func (h *HTTPHandler) ListMembers(w http.ResponseWriter, r *http.Request) {
	members, err := h.members.FindMembers(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	out := make([]MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *HTTPHandler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	m, err := h.members.FindOne(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponse(*m))
}
