package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/adapter/metrics"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/config"
	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/core/service"
)

const (
	productID     = "stress-tee"
	variantID     = "stress-tee-m"
	initialStock  = 100
	totalOrders   = 50
	orderQuantity = 1
)

// Fires concurrent order-created triggers at one variant. Each trigger reads
// the product and writes the full variant list back, so overlapping triggers
// overwrite each other and the final stock ends up higher than expected.
func main() {
	ctx := context.Background()

	cfg, err := config.Load("config/config.yaml")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Fatalf("failed to connect mysql: %v", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)

	if err := db.PingContext(ctx); err != nil {
		log.Fatalf("failed to ping mysql: %v", err)
	}

	store := storage.NewMySQLAdapter(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatalf("failed to apply schema: %v", err)
	}

	// Reset the product
	err = store.SaveProduct(ctx, domain.Product{
		ID:    productID,
		Title: "Stress Tee",
		Variants: []domain.Variant{
			{ID: variantID, Name: "M", StockQuantity: initialStock},
		},
	})
	if err != nil {
		log.Fatalf("failed to seed product: %v", err)
	}

	promMetrics, err := metrics.NewPrometheusMetrics(prometheus.NewRegistry())
	if err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	inventory := service.NewInventoryService(store, promMetrics, noop.NewTracerProvider().Tracer("stress"), zap.NewNop(), cfg.Inventory.LowStockThreshold)

	var successCount atomic.Int32
	var failCount atomic.Int32

	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalOrders; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := inventory.OnOrderCreated(ctx, domain.Order{
				ID:    uuid.NewString(),
				Items: []domain.LineItem{{ProductID: productID, VariantID: variantID, Quantity: orderQuantity}},
			})
			if err == nil {
				successCount.Add(1)
			} else {
				failCount.Add(1)
			}
		}()
	}

	wg.Wait()
	elapsed := time.Since(start)

	product, err := store.GetProduct(ctx, productID)
	if err != nil || product == nil {
		log.Fatalf("failed to read final product: %v", err)
	}
	idx := product.VariantIndex(variantID)
	if idx < 0 {
		log.Fatalf("variant %s disappeared", variantID)
	}
	finalStock := product.Variants[idx].StockQuantity
	expected := initialStock - int(successCount.Load())*orderQuantity

	fmt.Println("========== STRESS TEST RESULTS ==========")
	fmt.Printf("Initial Stock:    %d\n", initialStock)
	fmt.Printf("Total Orders:     %d\n", totalOrders)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Printf("Expected Stock:   %d\n", expected)
	fmt.Printf("Final Stock:      %d\n", finalStock)
	fmt.Println("==========================================")

	if finalStock == expected {
		fmt.Println("no lost updates observed this run")
	} else {
		fmt.Printf("LOST UPDATES: %d decrements overwritten by concurrent triggers\n", finalStock-expected)
	}
}
