package cart

import (
	"context"
	"database/sql"

	"github.com/madraskitchen/canteen/internal/domain"
)

// Repository is the narrow storage boundary for the cart: callers see named
// reads and writes, never the mechanism behind them.
type Repository interface {
	Get(ctx context.Context, sessionID string) ([]domain.CartItem, error)
	Replace(ctx context.Context, sessionID string, items []domain.CartItem) error
	Clear(ctx context.Context, sessionID string) error
}

type repository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Get(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, name, price, quantity, image, category
		FROM cart_items
		WHERE session_id = $1
		ORDER BY position
	`, sessionID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.CartItem
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Price, &item.Quantity,
			&item.Image, &item.Category); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *repository) Replace(ctx context.Context, sessionID string, items []domain.CartItem) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM cart_items WHERE session_id = $1
	`, sessionID); err != nil {
		return err
	}

	for i, item := range items {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO cart_items (session_id, item_id, name, price, quantity, image, category, position)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, sessionID, item.ID, item.Name, item.Price, item.Quantity, item.Image, item.Category, i); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *repository) Clear(ctx context.Context, sessionID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM cart_items WHERE session_id = $1
	`, sessionID)
	return err
}
