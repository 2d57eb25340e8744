package reconcile

import (
	"context"

	"github.com/dealradar/promo-monitor/internal/domain"
)

// Repository defines the data access contract for reconciled rows.
// Implementations must be safe for concurrent use.
type Repository interface {
	// UpsertMessage inserts or updates a message keyed by (chat_id, message_id)
	// and returns the row's internal id on both the insert and update path, so
	// promotion linkage is always resolvable.
	UpsertMessage(ctx context.Context, m *domain.Message) (int64, error)

	// UpsertPromotion inserts or updates the promotion row keyed by its
	// message_internal_id uniqueness. A second write for the same message
	// overwrites, never duplicates.
	UpsertPromotion(ctx context.Context, p *domain.Promotion) error
}
