package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/madraskitchen/canteen/internal/cart"
	"github.com/madraskitchen/canteen/internal/domain"
	"github.com/madraskitchen/canteen/internal/orders"
	"github.com/madraskitchen/canteen/internal/payment"
)

var (
	ErrEmptyCart            = errors.New("cart is empty")
	ErrNotAuthenticated     = errors.New("not authenticated")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrMissingUPIID         = errors.New("upi id is required")
	ErrUnknownPaymentMethod = errors.New("unknown payment method")
)

const (
	MethodCard    = "card"
	MethodUPI     = "upi"
	MethodGPay    = "gpay"
	MethodPhonePe = "phonepe"
)

type SessionStore interface {
	Get(ctx context.Context, id string) (*domain.Session, error)
}

type StudentStore interface {
	GetByID(ctx context.Context, id string) (*domain.Student, error)
	Debit(ctx context.Context, id string, amount, points int64) error
	CreditPoints(ctx context.Context, id string, points int64) error
}

type CartStore interface {
	Get(ctx context.Context, sessionID string) ([]domain.CartItem, error)
	Clear(ctx context.Context, sessionID string) error
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
}

type Gateway interface {
	CreateOrder(ctx context.Context, req payment.CreateOrderRequest) (*payment.CreateOrderResponse, error)
}

type Broadcaster interface {
	Publish(ctx context.Context, key string, event any) error
}

// Service turns a cart into an order. The card path debits the student's
// stored balance synchronously; the UPI paths register the payment with the
// external gateway and create the order optimistically, trusting the
// verify step to catch unpaid ones later.
type Service struct {
	sessions  SessionStore
	students  StudentStore
	cart      CartStore
	orders    OrderStore
	gateway   Gateway
	broadcast Broadcaster
	returnURL string
	logger    *slog.Logger
}

func NewService(sessions SessionStore, students StudentStore, cartStore CartStore,
	orderStore OrderStore, gateway Gateway, broadcast Broadcaster, returnURL string,
	logger *slog.Logger) *Service {
	return &Service{
		sessions:  sessions,
		students:  students,
		cart:      cartStore,
		orders:    orderStore,
		gateway:   gateway,
		broadcast: broadcast,
		returnURL: returnURL,
		logger:    logger,
	}
}

// Checkout validates everything before mutating anything: session, then
// cart, then (for the card path) balance. Only after all checks pass are
// the debit, the order insert and the cart clear issued, in that order.
func (s *Service) Checkout(ctx context.Context, sessionID, method, upiID string) (*domain.Order, error) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if session == nil {
		return nil, ErrNotAuthenticated
	}

	student, err := s.students.GetByID(ctx, session.StudentID)
	if err != nil {
		return nil, fmt.Errorf("load student: %w", err)
	}
	if student == nil {
		return nil, ErrNotAuthenticated
	}

	items, err := s.cart.Get(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	subtotal := cart.Subtotal(items)
	grandTotal := subtotal + GST(subtotal)
	points := grandTotal / 10

	order := &domain.Order{
		ID:            uuid.New().String(),
		StudentID:     student.ID,
		Items:         snapshotItems(items),
		Total:         grandTotal,
		PaymentMethod: method,
		Status:        domain.OrderStatusPending,
		Token:         orders.NewToken(),
		CreatedAt:     time.Now().UTC(),
	}

	switch method {
	case MethodCard:
		if student.Balance < grandTotal {
			return nil, ErrInsufficientBalance
		}
		if err := s.students.Debit(ctx, student.ID, grandTotal, points); err != nil {
			return nil, fmt.Errorf("debit balance: %w", err)
		}

	case MethodUPI, MethodGPay, MethodPhonePe:
		if upiID == "" {
			return nil, ErrMissingUPIID
		}

		gatewayOrderID := fmt.Sprintf("CF%d", time.Now().UnixMilli())
		resp, err := s.gateway.CreateOrder(ctx, payment.CreateOrderRequest{
			OrderID:       gatewayOrderID,
			Amount:        grandTotal,
			CustomerID:    student.ID,
			CustomerName:  student.Name,
			CustomerEmail: student.Email,
			CustomerPhone: student.Phone,
			ReturnURL:     s.returnURL,
			Note:          "Canteen order " + order.Token,
		})
		if err != nil {
			// Nothing has been written yet; the cart stays as it was.
			return nil, err
		}

		order.GatewayOrderID = resp.GatewayOrderID
		if err := s.students.CreditPoints(ctx, student.ID, points); err != nil {
			return nil, fmt.Errorf("credit points: %w", err)
		}

	default:
		return nil, ErrUnknownPaymentMethod
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}

	if err := s.cart.Clear(ctx, sessionID); err != nil {
		// The order exists; a stale cart is recoverable by the student.
		s.logger.Error("failed to clear cart after checkout", "error", err, "order_id", order.ID)
	}

	s.publishPlaced(ctx, order)

	s.logger.Info("order placed", "order_id", order.ID, "student_id", student.ID,
		"method", method, "total", grandTotal, "token", order.Token)
	return order, nil
}

func (s *Service) publishPlaced(ctx context.Context, order *domain.Order) {
	if s.broadcast == nil {
		return
	}

	event := domain.OrderPlacedEvent{
		OrderID:       order.ID,
		StudentID:     order.StudentID,
		Token:         order.Token,
		Total:         order.Total,
		PaymentMethod: order.PaymentMethod,
		Items:         order.Items,
		Timestamp:     order.CreatedAt,
	}
	if err := s.broadcast.Publish(ctx, order.ID, event); err != nil {
		s.logger.Warn("failed to broadcast order placed", "error", err, "order_id", order.ID)
	}
}

// snapshotItems freezes the cart into order rows. The copy is deliberate:
// the live cart keeps changing after checkout and must not reach into
// placed orders.
func snapshotItems(items []domain.CartItem) []domain.OrderItem {
	snapshot := make([]domain.OrderItem, len(items))
	for i, item := range items {
		snapshot[i] = domain.OrderItem{
			ItemID:   item.ID,
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		}
	}
	return snapshot
}
