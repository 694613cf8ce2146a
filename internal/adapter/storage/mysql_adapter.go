package storage

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

var ErrProductNotFound = errors.New("product not found")

//go:embed schema.sql
var schemaSQL string

type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

// EnsureSchema creates the tables if they do not exist yet.
func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) GetProduct(ctx context.Context, productID string) (*domain.Product, error) {
	var (
		p        domain.Product
		variants []byte
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT id, title, variants, updated_at
		FROM products WHERE id = ?`, productID,
	).Scan(&p.ID, &p.Title, &variants, &p.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}

	if err := json.Unmarshal(variants, &p.Variants); err != nil {
		return nil, fmt.Errorf("decode variants of product %s: %w", productID, err)
	}
	return &p, nil
}

// CommitBatch writes every patch in one transaction. A patch for a product
// that no longer exists fails the whole batch.
func (m *MySQLAdapter) CommitBatch(ctx context.Context, batch domain.Batch) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, patch := range batch.Patches {
		variants, err := json.Marshal(patch.Variants)
		if err != nil {
			return fmt.Errorf("encode variants of product %s: %w", patch.ProductID, err)
		}

		result, err := tx.ExecContext(ctx, `
			UPDATE products
			SET variants = ?, version = version + 1, updated_at = NOW()
			WHERE id = ?`,
			variants, patch.ProductID,
		)
		if err != nil {
			return fmt.Errorf("update product %s: %w", patch.ProductID, err)
		}

		rows, _ := result.RowsAffected()
		if rows == 0 {
			return fmt.Errorf("update product %s: %w", patch.ProductID, ErrProductNotFound)
		}
	}

	return tx.Commit()
}

// SaveProduct inserts or fully replaces a product.
func (m *MySQLAdapter) SaveProduct(ctx context.Context, p domain.Product) error {
	variants, err := json.Marshal(p.Variants)
	if err != nil {
		return fmt.Errorf("encode variants: %w", err)
	}
	_, err = m.db.ExecContext(ctx, `
		INSERT INTO products (id, title, variants) VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE title = VALUES(title), variants = VALUES(variants),
			version = version + 1, updated_at = NOW()`,
		p.ID, p.Title, variants,
	)
	if err != nil {
		return fmt.Errorf("save product: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) RecordOrder(ctx context.Context, customerID string, total float64, at time.Time) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO customer_stats (customer_id, order_count, total_spent, last_order_at)
		VALUES (?, 1, ?, ?)
		ON DUPLICATE KEY UPDATE
			order_count = order_count + 1,
			total_spent = total_spent + VALUES(total_spent),
			last_order_at = GREATEST(COALESCE(last_order_at, VALUES(last_order_at)), VALUES(last_order_at))`,
		customerID, total, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("upsert customer stats: %w", err)
	}
	return nil
}

func (m *MySQLAdapter) GetStats(ctx context.Context, customerID string) (*domain.CustomerStats, error) {
	var (
		st          domain.CustomerStats
		lastOrderAt sql.NullTime
	)
	err := m.db.QueryRowContext(ctx, `
		SELECT customer_id, order_count, total_spent, last_order_at
		FROM customer_stats WHERE customer_id = ?`, customerID,
	).Scan(&st.CustomerID, &st.OrderCount, &st.TotalSpent, &lastOrderAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query customer stats: %w", err)
	}
	st.LastOrderAt = lastOrderAt.Time
	return &st, nil
}

func (m *MySQLAdapter) CreateProfileIfAbsent(ctx context.Context, profile domain.CustomerProfile) (bool, error) {
	prefs, err := json.Marshal(profile.Preferences)
	if err != nil {
		return false, fmt.Errorf("encode preferences: %w", err)
	}

	result, err := m.db.ExecContext(ctx, `
		INSERT IGNORE INTO customer_profiles
			(customer_id, display_name, email, marketing_opt_in, preferences, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		profile.CustomerID, profile.DisplayName, profile.Email, profile.MarketingOptIn,
		prefs, profile.CreatedAt.UTC(),
	)
	if err != nil {
		return false, fmt.Errorf("insert customer profile: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

func (m *MySQLAdapter) SaveContactMessage(ctx context.Context, msg domain.ContactMessage) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO contact_messages (id, name, email, subject, message, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.Form.Name, msg.Form.Email, msg.Form.Subject, msg.Form.Message, msg.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert contact message: %w", err)
	}
	return nil
}
