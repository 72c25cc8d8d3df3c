package handler

import (
	"context"

	"go.uber.org/zap"

	"github.com/rl1809/bookshop/internal/adapter/handler/orderrpc"
	"github.com/rl1809/bookshop/internal/core/service"
)

type GRPCHandler struct {
	orderrpc.UnimplementedOrderServiceServer
	orderService *service.OrderService
	logger       *zap.Logger
}

func NewGRPCHandler(orderService *service.OrderService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{orderService: orderService, logger: logger}
}

// Order reports failures in the reply, not as gRPC errors.
func (h *GRPCHandler) Order(ctx context.Context, req *orderrpc.OrderRequest) (*orderrpc.OrderReply, error) {
	if req.MemberID <= 0 || req.ItemID <= 0 {
		return &orderrpc.OrderReply{
			Success: false,
			Message: "missing required fields",
		}, nil
	}

	var (
		id  int64
		err error
	)
	if req.RequestID != "" {
		id, err = h.orderService.OrderOnce(ctx, req.RequestID, req.MemberID, req.ItemID, int(req.Count))
	} else {
		id, err = h.orderService.Order(ctx, req.MemberID, req.ItemID, int(req.Count))
	}
	if err != nil {
		return &orderrpc.OrderReply{
			Success: false,
			Message: h.failureMessage("Order", err),
		}, nil
	}

	return &orderrpc.OrderReply{
		Success: true,
		Message: "order placed successfully",
		OrderID: id,
	}, nil
}

func (h *GRPCHandler) Cancel(ctx context.Context, req *orderrpc.CancelRequest) (*orderrpc.CancelReply, error) {
	if err := h.orderService.Cancel(ctx, req.OrderID); err != nil {
		return &orderrpc.CancelReply{
			Success: false,
			Message: h.failureMessage("Cancel", err),
		}, nil
	}

	return &orderrpc.CancelReply{
		Success: true,
		Message: "order cancelled",
	}, nil
}

func (h *GRPCHandler) failureMessage(method string, err error) string {
	_, message := errorStatus(err)
	if message == "internal error" {
		h.logger.Error("grpc call failed", zap.String("method", method), zap.Error(err))
	}
	return message
}
