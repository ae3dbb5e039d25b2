package cart

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/madraskitchen/canteen/internal/domain"
)

// ErrInvalidQuantity rejects add calls with a zero or negative quantity.
// SetQuantity is different: there, anything at or below zero means removal.
var ErrInvalidQuantity = errors.New("quantity must be at least 1")

// Broadcaster is the refresh signal sink. Publishing is advisory: a failed
// broadcast never fails the cart write that triggered it.
type Broadcaster interface {
	Publish(ctx context.Context, key string, event any) error
}

// Service owns cart semantics: the item id is the merge key, so a sequence
// of adds, quantity updates and removals can never produce two entries for
// the same dish.
type Service struct {
	repo      Repository
	broadcast Broadcaster
	logger    *slog.Logger
}

func NewService(repo Repository, broadcast Broadcaster, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		broadcast: broadcast,
		logger:    logger,
	}
}

func (s *Service) Get(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	return s.repo.Get(ctx, sessionID)
}

// Add merges by id: an existing entry has its quantity incremented, a new
// one is appended as-is.
func (s *Service) Add(ctx context.Context, sessionID string, item domain.CartItem) ([]domain.CartItem, error) {
	if item.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	items, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range items {
		if items[i].ID == item.ID {
			items[i].Quantity += item.Quantity
			merged = true
			break
		}
	}
	if !merged {
		items = append(items, item)
	}

	if err := s.repo.Replace(ctx, sessionID, items); err != nil {
		return nil, err
	}

	s.notify(ctx, sessionID, items)
	return items, nil
}

// SetQuantity overwrites the entry's quantity; zero or less removes the
// entry. Unknown ids are a no-op, matching Remove.
func (s *Service) SetQuantity(ctx context.Context, sessionID, itemID string, quantity int) ([]domain.CartItem, error) {
	items, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if quantity <= 0 {
		items = removeByID(items, itemID)
	} else {
		for i := range items {
			if items[i].ID == itemID {
				items[i].Quantity = quantity
				break
			}
		}
	}

	if err := s.repo.Replace(ctx, sessionID, items); err != nil {
		return nil, err
	}

	s.notify(ctx, sessionID, items)
	return items, nil
}

// Remove deletes the entry if present; removing an absent id is not an
// error.
func (s *Service) Remove(ctx context.Context, sessionID, itemID string) ([]domain.CartItem, error) {
	items, err := s.repo.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items = removeByID(items, itemID)

	if err := s.repo.Replace(ctx, sessionID, items); err != nil {
		return nil, err
	}

	s.notify(ctx, sessionID, items)
	return items, nil
}

// Clear empties the cart unconditionally.
func (s *Service) Clear(ctx context.Context, sessionID string) error {
	if err := s.repo.Clear(ctx, sessionID); err != nil {
		return err
	}

	s.notify(ctx, sessionID, nil)
	return nil
}

func (s *Service) notify(ctx context.Context, sessionID string, items []domain.CartItem) {
	if s.broadcast == nil {
		return
	}

	event := domain.CartUpdatedEvent{
		SessionID: sessionID,
		ItemCount: ItemCount(items),
		Subtotal:  Subtotal(items),
		Timestamp: time.Now().UTC(),
	}
	if err := s.broadcast.Publish(ctx, sessionID, event); err != nil {
		s.logger.Warn("failed to broadcast cart update", "error", err, "session_id", sessionID)
	}
}

func removeByID(items []domain.CartItem, itemID string) []domain.CartItem {
	filtered := items[:0]
	for _, item := range items {
		if item.ID != itemID {
			filtered = append(filtered, item)
		}
	}
	return filtered
}

// Subtotal is the pre-tax sum of price times quantity.
func Subtotal(items []domain.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.Price * int64(item.Quantity)
	}
	return total
}

// ItemCount is the sum of quantities, the number shown on the cart badge.
func ItemCount(items []domain.CartItem) int {
	var count int
	for _, item := range items {
		count += item.Quantity
	}
	return count
}
