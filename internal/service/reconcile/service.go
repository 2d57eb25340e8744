package reconcile

import (
	"context"
	"fmt"
)

// Service implements the reconciliation write path. Safe for concurrent use
// if the underlying repository is concurrency-safe.
type Service struct {
	repo Repository
}

// NewService creates a reconcile service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Reconcile persists one classified message: the message row first, then the
// derived promotion row when one applies, linked by the internal id the
// message upsert returned. Reprocessing the same message overwrites both
// rows in place.
func (s *Service) Reconcile(ctx context.Context, in Input) error {
	msg, promo := BuildRows(in)

	internalID, err := s.repo.UpsertMessage(ctx, &msg)
	if err != nil {
		return fmt.Errorf("upserting message %d in chat %d: %w", msg.MessageID, msg.ChatID, err)
	}
	if internalID <= 0 {
		return ErrNoInternalID
	}

	if promo == nil {
		return nil
	}

	promo.MessageInternalID = internalID
	if err := s.repo.UpsertPromotion(ctx, promo); err != nil {
		return fmt.Errorf("upserting promotion for message %d in chat %d: %w", msg.MessageID, msg.ChatID, err)
	}
	return nil
}
