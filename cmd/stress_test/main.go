package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"github.com/rl1809/bookshop/internal/adapter/storage"
	"github.com/rl1809/bookshop/internal/core/domain"
	"github.com/rl1809/bookshop/internal/core/service"
	"github.com/rl1809/bookshop/internal/observability"
)

const (
	initialStock  = 20
	totalRequests = 50
)

func main() {
	ctx := context.Background()
	logger := observability.NewLogger("bookshop-stress", zapcore.WarnLevel, true)
	defer logger.Sync()

	db := storage.NewMemoryAdapter()
	memberService := service.NewMemberService(db, nil, logger)
	itemService := service.NewItemService(db, logger)
	orderService := service.NewOrderService(db, storage.NewMemoryCache(), nil, domain.CancelPolicyReject, logger)

	memberID, err := memberService.Join(ctx, domain.Member{Name: "stress-member"})
	if err != nil {
		log.Fatalf("failed to join member: %v", err)
	}
	itemID, err := itemService.SaveItem(ctx, domain.Item{
		Kind:          domain.ItemKindBook,
		Name:          "stress-book",
		Price:         10000,
		StockQuantity: initialStock,
	})
	if err != nil {
		log.Fatalf("failed to save item: %v", err)
	}

	// Counters
	var successCount atomic.Int32
	var soldOutCount atomic.Int32
	var orderIDs sync.Map

	// Spawn concurrent requests
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			id, err := orderService.OrderOnce(ctx, uuid.NewString(), memberID, itemID, 1)
			switch {
			case err == nil:
				successCount.Add(1)
				orderIDs.Store(id, struct{}{})
			case errors.Is(err, domain.ErrNotEnoughStock):
				soldOutCount.Add(1)
			default:
				log.Printf("unexpected error: %v", err)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	// Results
	success := successCount.Load()
	soldOut := soldOutCount.Load()

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Requests:   %d\n", totalRequests)
	fmt.Printf("Successful:       %d\n", success)
	fmt.Printf("Sold Out:         %d\n", soldOut)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("==========================================")

	if success == int32(initialStock) && soldOut == int32(totalRequests-initialStock) {
		fmt.Printf("PASS: Exactly %d orders succeeded, %d sold out\n", initialStock, totalRequests-initialStock)
	} else {
		fmt.Printf("FAIL: Expected %d success/%d sold out, got %d/%d\n",
			initialStock, totalRequests-initialStock, success, soldOut)
	}

	reportStock(ctx, itemService, itemID, 0)

	// Cancel everything and expect the stock back
	orderIDs.Range(func(key, _ any) bool {
		if err := orderService.Cancel(ctx, key.(int64)); err != nil {
			log.Printf("cancel order %d failed: %v", key, err)
		}
		return true
	})

	reportStock(ctx, itemService, itemID, initialStock)
}

func reportStock(ctx context.Context, items *service.ItemService, itemID int64, want int) {
	item, err := items.FindOne(ctx, itemID)
	if err != nil {
		log.Fatalf("failed to read stock: %v", err)
	}

	fmt.Printf("Final Stock: %d\n", item.StockQuantity)
	if item.StockQuantity == want {
		fmt.Printf("PASS: Stock is %d\n", want)
	} else {
		fmt.Printf("FAIL: Expected stock %d, got %d\n", want, item.StockQuantity)
	}
}
