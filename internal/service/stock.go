package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"reservation-service/internal/redisclient"
	"reservation-service/internal/store"
	"reservation-service/internal/util"

	"go.uber.org/zap"
)

// StockClient answers existencias lookups and mirrors cart-side stock
// reservations. Reads go through Redis first and fall back to the
// database; mutations hit Redis atomically and sync to the database in
// the background.
type StockClient struct {
	store  *store.Store
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewStockClient creates a new stock client
func NewStockClient(store *store.Store, redis *redisclient.Client) *StockClient {
	return &StockClient{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

// GetStock returns the available stock count for a product
func (sc *StockClient) GetStock(ctx context.Context, productID int64) (int, error) {
	ctx, span := util.StartSpan(ctx, "StockClient.GetStock")
	defer span.End()

	start := time.Now()
	defer func() {
		util.StockLookupLatency.Observe(time.Since(start).Seconds())
	}()

	available, err := sc.redis.GetAvailable(ctx, productID)
	if err == nil {
		return available, nil
	}

	sc.logger.Warn("Redis stock lookup failed, falling back to DB",
		zap.Int64("product_id", productID),
		zap.Error(err))

	inv, err := sc.store.GetInventory(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("stock lookup failed for product %d: %w", productID, err)
	}
	return inv.Available, nil
}

// ReserveStock reserves stock for a product (fast path via Redis)
func (sc *StockClient) ReserveStock(ctx context.Context, productID int64, quantity int) (bool, error) {
	ctx, span := util.StartSpan(ctx, "StockClient.ReserveStock")
	defer span.End()

	success, err := sc.redis.ReserveStock(ctx, productID, quantity)
	if err != nil {
		sc.logger.Warn("Redis reservation failed, falling back to DB",
			zap.Int64("product_id", productID),
			zap.Error(err))

		return sc.reserveStockDB(ctx, productID, quantity)
	}

	if !success {
		return false, nil
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := sc.store.ReserveStockTx(ctx, productID, quantity); err != nil {
			sc.logger.Error("Failed to sync reservation to DB",
				zap.Int64("product_id", productID),
				zap.Error(err))
		}
	}()

	return true, nil
}

// reserveStockDB reserves stock using a database transaction (fallback)
func (sc *StockClient) reserveStockDB(ctx context.Context, productID int64, quantity int) (bool, error) {
	err := sc.store.ReserveStockTx(ctx, productID, quantity)
	if err != nil {
		if errors.Is(err, store.ErrInsufficientStock) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ReleaseStock releases reserved stock (compensation)
func (sc *StockClient) ReleaseStock(ctx context.Context, productID int64, quantity int) error {
	ctx, span := util.StartSpan(ctx, "StockClient.ReleaseStock")
	defer span.End()

	if err := sc.redis.ReleaseStock(ctx, productID, quantity); err != nil {
		sc.logger.Error("Failed to release stock in Redis",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}

	return sc.store.ReleaseStock(ctx, productID, quantity)
}

// CommitStock commits reserved stock (final deduction)
func (sc *StockClient) CommitStock(ctx context.Context, productID int64, quantity int) error {
	ctx, span := util.StartSpan(ctx, "StockClient.CommitStock")
	defer span.End()

	if err := sc.redis.CommitStock(ctx, productID, quantity); err != nil {
		sc.logger.Error("Failed to commit stock in Redis",
			zap.Int64("product_id", productID),
			zap.Error(err))
	}

	return sc.store.CommitStock(ctx, productID, quantity)
}

// SyncInventoryToRedis synchronizes database inventory to Redis
func (sc *StockClient) SyncInventoryToRedis(ctx context.Context) error {
	sc.logger.Info("Starting inventory sync to Redis")

	products, err := sc.store.GetProducts(ctx)
	if err != nil {
		return fmt.Errorf("failed to get products: %w", err)
	}

	for _, product := range products {
		inv, err := sc.store.GetInventory(ctx, product.ID)
		if err != nil {
			sc.logger.Error("Failed to get inventory",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
			continue
		}

		if err := sc.redis.InitInventory(ctx, product.ID, inv.Available, inv.Reserved); err != nil {
			sc.logger.Error("Failed to init Redis inventory",
				zap.Int64("product_id", product.ID),
				zap.Error(err))
		}
	}

	sc.logger.Info("Inventory sync completed", zap.Int("count", len(products)))
	return nil
}
