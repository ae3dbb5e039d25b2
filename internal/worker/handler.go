package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/madraskitchen/canteen/internal/domain"
)

// ReceiptHandler turns order.placed events into pickup notifications. It is
// read-only with respect to orders: payment reconciliation and status moves
// stay manual, this worker only tells the student their token.
type ReceiptHandler struct {
	canteenURL string
	notifyURL  string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewReceiptHandler(canteenURL, notifyURL string, client *http.Client, logger *slog.Logger) *ReceiptHandler {
	return &ReceiptHandler{
		canteenURL: canteenURL,
		notifyURL:  notifyURL,
		httpClient: client,
		logger:     logger,
	}
}

func (h *ReceiptHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "student_id", event.StudentID)

	email, err := h.lookupStudentEmail(ctx, event.StudentID)
	if err != nil {
		return fmt.Errorf("look up student %s: %w", event.StudentID, err)
	}

	if err := h.sendReceipt(ctx, email, event); err != nil {
		return fmt.Errorf("send receipt for order %s: %w", event.OrderID, err)
	}

	h.logger.Info("receipt sent", "order_id", event.OrderID, "token", event.Token)
	return nil
}

func (h *ReceiptHandler) lookupStudentEmail(ctx context.Context, studentID string) (string, error) {
	url := fmt.Sprintf("%s/students/%s", h.canteenURL, studentID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("canteen service returned status %d", resp.StatusCode)
	}

	var student struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&student); err != nil {
		return "", err
	}

	return student.Email, nil
}

func (h *ReceiptHandler) sendReceipt(ctx context.Context, email string, event domain.OrderPlacedEvent) error {
	body := map[string]string{
		"to":      email,
		"subject": "Your canteen order " + event.Token,
		"body": fmt.Sprintf("Order received. Show token %s at the counter when your order is ready. Total paid: %d.",
			event.Token, event.Total),
	}

	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.notifyURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("notify service returned status %d", resp.StatusCode)
	}

	return nil
}
