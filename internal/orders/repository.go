package orders

import (
	"context"
	"database/sql"

	"github.com/lib/pq"

	"github.com/madraskitchen/canteen/internal/domain"
)

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create persists the order and its item snapshot in one transaction. The
// caller has already fixed id, token, total and status; nothing here is
// recomputed.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, student_id, total, payment_method, status, token, gateway_order_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, ''), $8)
	`, order.ID, order.StudentID, order.Total, order.PaymentMethod, order.Status,
		order.Token, order.GatewayOrderID, order.CreatedAt)
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, item_id, name, price, quantity)
			VALUES ($1, $2, $3, $4, $5)
		`, order.ID, item.ItemID, item.Name, item.Price, item.Quantity)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	order := &domain.Order{}
	var gatewayOrderID sql.NullString

	err := r.db.QueryRowContext(ctx, `
		SELECT id, student_id, total, payment_method, status, token, gateway_order_id, created_at
		FROM orders
		WHERE id = $1
	`, id).Scan(&order.ID, &order.StudentID, &order.Total, &order.PaymentMethod,
		&order.Status, &order.Token, &gatewayOrderID, &order.CreatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	order.GatewayOrderID = gatewayOrderID.String

	rows, err := r.db.QueryContext(ctx, `
		SELECT item_id, name, price, quantity
		FROM order_items
		WHERE order_id = $1
	`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ItemID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return order, nil
}

// List returns orders newest first; studentID and status narrow the result
// when non-empty. The canteen's volume never justifies paging.
func (r *OrderRepository) List(ctx context.Context, studentID string, status domain.OrderStatus) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, student_id, total, payment_method, status, token, gateway_order_id, created_at
		FROM orders
		WHERE ($1 = '' OR student_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY created_at DESC
	`, studentID, string(status))
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		var order domain.Order
		var gatewayOrderID sql.NullString
		if err := rows.Scan(&order.ID, &order.StudentID, &order.Total, &order.PaymentMethod,
			&order.Status, &order.Token, &gatewayOrderID, &order.CreatedAt); err != nil {
			return nil, err
		}
		order.GatewayOrderID = gatewayOrderID.String
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, item_id, name, price, quantity
		FROM order_items
		WHERE order_id = ANY($1)
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ItemID, &item.Name, &item.Price, &item.Quantity); err != nil {
			return nil, err
		}
		order := orderMap[orderID]
		order.Items = append(order.Items, item)
	}

	if err := itemRows.Err(); err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// UpdateStatus overwrites the status unconditionally. There is no legality
// check on the transition; the lifecycle is linear by convention, not by
// enforcement.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET status = $1
		WHERE id = $2
	`, status, id)
	if err != nil {
		return nil, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}

	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}
