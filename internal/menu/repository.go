package menu

import (
	"context"
	"database/sql"

	"github.com/madraskitchen/canteen/internal/domain"
)

type MenuRepository struct {
	db *sql.DB
}

func NewMenuRepository(db *sql.DB) *MenuRepository {
	return &MenuRepository{db: db}
}

// List returns the full menu, or one category of it when category is
// non-empty. The menu is small and seeded by migration, so no paging.
func (r *MenuRepository) List(ctx context.Context, category string) ([]domain.MenuItem, error) {
	query := `
		SELECT id, name, description, price, image, category, veg
		FROM menu_items
		ORDER BY category, name
	`
	args := []any{}
	if category != "" {
		query = `
			SELECT id, name, description, price, image, category, veg
			FROM menu_items
			WHERE category = $1
			ORDER BY name
		`
		args = append(args, category)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []domain.MenuItem
	for rows.Next() {
		var item domain.MenuItem
		if err := rows.Scan(&item.ID, &item.Name, &item.Description, &item.Price,
			&item.Image, &item.Category, &item.Veg); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func (r *MenuRepository) GetByID(ctx context.Context, id string) (*domain.MenuItem, error) {
	item := &domain.MenuItem{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, price, image, category, veg
		FROM menu_items
		WHERE id = $1
	`, id).Scan(&item.ID, &item.Name, &item.Description, &item.Price,
		&item.Image, &item.Category, &item.Veg)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return item, nil
}
