package storage

import (
	"context"
	"database/sql"
	"errors"
	"os"
	"testing"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"

	"github.com/rl1809/storefront/internal/core/domain"
)

func getMySQLDB(t *testing.T) *sql.DB {
	dsn := os.Getenv("MYSQL_DSN")
	if dsn == "" {
		dsn = "root:root@tcp(localhost:3306)/storefront?parseTime=true"
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := db.Ping(); err != nil {
		t.Skipf("MySQL not available: %v", err)
	}

	if err := NewMySQLAdapter(db).EnsureSchema(context.Background()); err != nil {
		t.Fatalf("schema setup failed: %v", err)
	}

	return db
}

func TestGetProduct(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	// Setup
	err := adapter.SaveProduct(ctx, domain.Product{
		ID:    "get-test-product",
		Title: "Mug",
		Variants: []domain.Variant{
			{ID: "red", StockQuantity: 10},
			{ID: "blue", StockQuantity: 4},
		},
	})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}

	p, err := adapter.GetProduct(ctx, "get-test-product")
	if err != nil {
		t.Fatalf("GetProduct failed: %v", err)
	}
	if p == nil {
		t.Fatal("expected product, got nil")
	}
	if p.Title != "Mug" {
		t.Errorf("expected title Mug, got %s", p.Title)
	}
	if len(p.Variants) != 2 || p.Variants[1].StockQuantity != 4 {
		t.Errorf("unexpected variants: %+v", p.Variants)
	}
}

func TestGetProduct_NotFound(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	p, err := NewMySQLAdapter(db).GetProduct(context.Background(), "nonexistent-product")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p != nil {
		t.Error("expected nil for nonexistent product")
	}
}

func TestCommitBatch_Success(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	for _, id := range []string{"batch-a", "batch-b"} {
		err := adapter.SaveProduct(ctx, domain.Product{ID: id, Title: id, Variants: []domain.Variant{{ID: "v", StockQuantity: 10}}})
		if err != nil {
			t.Fatalf("setup failed: %v", err)
		}
	}

	var batch domain.Batch
	batch.Stage("batch-a", []domain.Variant{{ID: "v", StockQuantity: 7}})
	batch.Stage("batch-b", []domain.Variant{{ID: "v", StockQuantity: 0}})

	if err := adapter.CommitBatch(ctx, batch); err != nil {
		t.Fatalf("CommitBatch failed: %v", err)
	}

	a, _ := adapter.GetProduct(ctx, "batch-a")
	b, _ := adapter.GetProduct(ctx, "batch-b")
	if a.Variants[0].StockQuantity != 7 {
		t.Errorf("expected stock 7, got %d", a.Variants[0].StockQuantity)
	}
	if b.Variants[0].StockQuantity != 0 {
		t.Errorf("expected stock 0, got %d", b.Variants[0].StockQuantity)
	}
}

func TestCommitBatch_AllOrNothing(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)

	err := adapter.SaveProduct(ctx, domain.Product{ID: "atomic-a", Title: "A", Variants: []domain.Variant{{ID: "v", StockQuantity: 10}}})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	db.ExecContext(ctx, `DELETE FROM products WHERE id = 'atomic-missing'`)

	var batch domain.Batch
	batch.Stage("atomic-a", []domain.Variant{{ID: "v", StockQuantity: 1}})
	batch.Stage("atomic-missing", []domain.Variant{{ID: "v", StockQuantity: 1}})

	err = adapter.CommitBatch(ctx, batch)
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got: %v", err)
	}

	a, _ := adapter.GetProduct(ctx, "atomic-a")
	if a.Variants[0].StockQuantity != 10 {
		t.Errorf("expected stock 10 after rollback, got %d", a.Variants[0].StockQuantity)
	}
}

func TestRecordOrder(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	customerID := "stats-" + uuid.New().String()

	first := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	if err := adapter.RecordOrder(ctx, customerID, 10.25, first); err != nil {
		t.Fatalf("RecordOrder failed: %v", err)
	}
	if err := adapter.RecordOrder(ctx, customerID, 5.75, first.Add(-time.Hour)); err != nil {
		t.Fatalf("RecordOrder failed: %v", err)
	}

	st, err := adapter.GetStats(ctx, customerID)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	if st.OrderCount != 2 {
		t.Errorf("expected 2 orders, got %d", st.OrderCount)
	}
	if st.TotalSpent != 16 {
		t.Errorf("expected total 16, got %v", st.TotalSpent)
	}
	if !st.LastOrderAt.Equal(first) {
		t.Errorf("expected last order at %v, got %v", first, st.LastOrderAt)
	}

	db.ExecContext(ctx, `DELETE FROM customer_stats WHERE customer_id = ?`, customerID)
}

func TestCreateProfileIfAbsent(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	adapter := NewMySQLAdapter(db)
	customerID := "profile-" + uuid.New().String()

	profile := domain.CustomerProfile{
		CustomerID:  customerID,
		DisplayName: "jane",
		Email:       "jane@example.com",
		Preferences: map[string]string{},
		CreatedAt:   time.Now(),
	}

	created, err := adapter.CreateProfileIfAbsent(ctx, profile)
	if err != nil {
		t.Fatalf("CreateProfileIfAbsent failed: %v", err)
	}
	if !created {
		t.Error("expected first call to create")
	}

	created, err = adapter.CreateProfileIfAbsent(ctx, profile)
	if err != nil {
		t.Fatalf("CreateProfileIfAbsent failed: %v", err)
	}
	if created {
		t.Error("expected second call to be a no-op")
	}

	db.ExecContext(ctx, `DELETE FROM customer_profiles WHERE customer_id = ?`, customerID)
}

func TestSaveContactMessage(t *testing.T) {
	db := getMySQLDB(t)
	defer db.Close()

	ctx := context.Background()
	msg := domain.ContactMessage{
		ID:        uuid.New().String(),
		Form:      domain.ContactForm{Name: "Jane", Email: "jane@example.com", Subject: "Hi", Message: "Hello"},
		CreatedAt: time.Now(),
	}

	if err := NewMySQLAdapter(db).SaveContactMessage(ctx, msg); err != nil {
		t.Fatalf("SaveContactMessage failed: %v", err)
	}

	var count int
	db.QueryRowContext(ctx, `SELECT COUNT(*) FROM contact_messages WHERE id = ?`, msg.ID).Scan(&count)
	if count != 1 {
		t.Error("contact message not found in database")
	}

	db.ExecContext(ctx, `DELETE FROM contact_messages WHERE id = ?`, msg.ID)
}
