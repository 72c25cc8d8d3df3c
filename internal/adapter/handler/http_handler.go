package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/rl1809/bookshop/internal/core/domain"
	"github.com/rl1809/bookshop/internal/core/service"
)

type HTTPHandler struct {
	router  *chi.Mux
	members *service.MemberService
	items   *service.ItemService
	orders  *service.OrderService
	logger  *zap.Logger
}

type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func NewHTTPHandler(members *service.MemberService, items *service.ItemService, orders *service.OrderService, logger *zap.Logger) *HTTPHandler {
	if logger == nil {
		logger = zap.NewNop()
	}

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)

	h := &HTTPHandler{
		router:  router,
		members: members,
		items:   items,
		orders:  orders,
		logger:  logger,
	}
	h.registerRoutes()
	return h
}

func (h *HTTPHandler) registerRoutes() {
	h.router.Get("/health", h.HealthCheck)

	h.router.Route("/api", func(r chi.Router) {
		r.Route("/members", func(r chi.Router) {
			r.Post("/", h.JoinMember)
			r.Get("/", h.ListMembers)
			r.Get("/{id}", h.GetMember)
		})
		r.Route("/items", func(r chi.Router) {
			r.Post("/", h.SaveItem)
			r.Get("/", h.ListItems)
			r.Get("/{id}", h.GetItem)
			r.Put("/{id}", h.UpdateItem)
		})
		r.Route("/orders", func(r chi.Router) {
			r.Post("/", h.PlaceOrder)
			r.Get("/", h.SearchOrders)
			r.Get("/{id}", h.GetOrder)
			r.Post("/{id}/cancel", h.CancelOrder)
			r.Post("/{id}/delivery/complete", h.CompleteDelivery)
		})
	})
}

func (h *HTTPHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *HTTPHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func requestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			logger.Info("http request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", time.Since(start)),
				zap.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// errorStatus maps service and domain errors to an HTTP status and a client message.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMemberNotFound),
		errors.Is(err, service.ErrItemNotFound),
		errors.Is(err, service.ErrOrderNotFound):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, service.ErrDuplicateRequest):
		return http.StatusConflict, "duplicate request"
	case errors.Is(err, domain.ErrDuplicateMember),
		errors.Is(err, domain.ErrAlreadyCancelled),
		errors.Is(err, domain.ErrDeliveryCompleted):
		return http.StatusConflict, err.Error()
	case errors.Is(err, domain.ErrNotEnoughStock):
		return http.StatusGone, "not enough stock"
	case errors.Is(err, domain.ErrEmptyName),
		errors.Is(err, domain.ErrInvalidPrice),
		errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidKind),
		errors.Is(err, domain.ErrInvalidOrderStatus),
		errors.Is(err, domain.ErrEmptyOrder):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, message := errorStatus(err)
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
	}
	writeJSON(w, status, Response{Success: false, Message: message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "invalid request body"})
		return false
	}
	return true
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, Response{Success: false, Message: "invalid id"})
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
