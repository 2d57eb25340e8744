package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/dealradar/promo-monitor/internal/domain"
)

// MessageRepo implements reconcile.Repository against PostgreSQL.
type MessageRepo struct{ db *sql.DB }

// NewMessageRepo creates a Postgres-backed message repository.
func NewMessageRepo(db *sql.DB) *MessageRepo { return &MessageRepo{db: db} }

// UpsertMessage inserts or updates one message keyed by (chat_id, message_id).
// RETURNING resolves the internal id on both the insert and the update path.
func (r *MessageRepo) UpsertMessage(ctx context.Context, m *domain.Message) (int64, error) {
	var internalID int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO telegram_messages
			(message_id, chat_id, chat_name, sender_id, sender_name,
			 message_text, message_date, media_type, extracted_urls, processed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		ON CONFLICT (chat_id, message_id) DO UPDATE SET
			chat_name      = EXCLUDED.chat_name,
			sender_id      = EXCLUDED.sender_id,
			sender_name    = EXCLUDED.sender_name,
			message_text   = EXCLUDED.message_text,
			message_date   = EXCLUDED.message_date,
			media_type     = EXCLUDED.media_type,
			extracted_urls = EXCLUDED.extracted_urls,
			processed_at   = NOW()
		RETURNING internal_id
	`, m.MessageID, m.ChatID, nullIfEmpty(m.ChatName), nullIfZero(m.SenderID),
		nullIfEmpty(m.SenderName), nullIfEmpty(m.Text), m.Date,
		nullIfEmpty(m.MediaType), pq.Array(m.ExtractedURLs)).Scan(&internalID)
	if err != nil {
		return 0, fmt.Errorf("upsert message: %w", err)
	}
	m.InternalID = internalID
	return internalID, nil
}

// UpsertPromotion inserts or updates the derived promotion row keyed by
// message_internal_id. Monetary fields arrive already rounded; nil pointers
// become NULL.
func (r *MessageRepo) UpsertPromotion(ctx context.Context, p *domain.Promotion) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO message_promotions
			(message_internal_id, promotion_type, reason, product_name, store_name,
			 original_price, discounted_price, coupon_name, coupon_discount_amount,
			 coupon_discount_percentage, minimum_purchase_value, maximum_purchase_value,
			 maximum_discount_amount, direct_discount_amount, direct_discount_percentage,
			 discount_description, applicable_to, expiration_date, link,
			 created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		        $11, $12, $13, $14, $15, $16, $17, $18, $19, NOW(), NOW())
		ON CONFLICT (message_internal_id) DO UPDATE SET
			promotion_type             = EXCLUDED.promotion_type,
			reason                     = EXCLUDED.reason,
			product_name               = EXCLUDED.product_name,
			store_name                 = EXCLUDED.store_name,
			original_price             = EXCLUDED.original_price,
			discounted_price           = EXCLUDED.discounted_price,
			coupon_name                = EXCLUDED.coupon_name,
			coupon_discount_amount     = EXCLUDED.coupon_discount_amount,
			coupon_discount_percentage = EXCLUDED.coupon_discount_percentage,
			minimum_purchase_value     = EXCLUDED.minimum_purchase_value,
			maximum_purchase_value     = EXCLUDED.maximum_purchase_value,
			maximum_discount_amount    = EXCLUDED.maximum_discount_amount,
			direct_discount_amount     = EXCLUDED.direct_discount_amount,
			direct_discount_percentage = EXCLUDED.direct_discount_percentage,
			discount_description       = EXCLUDED.discount_description,
			applicable_to              = EXCLUDED.applicable_to,
			expiration_date            = EXCLUDED.expiration_date,
			link                       = EXCLUDED.link,
			updated_at                 = NOW()
	`, p.MessageInternalID, p.Type, nullIfEmpty(p.Reason),
		nullIfEmpty(p.ProductName), nullIfEmpty(p.StoreName),
		p.OriginalPrice, p.DiscountedPrice, nullIfEmpty(p.CouponName),
		p.CouponDiscountAmount, p.CouponDiscountPercentage,
		p.MinimumPurchaseValue, p.MaximumPurchaseValue, p.MaximumDiscountAmount,
		p.DirectDiscountAmount, p.DirectDiscountPercentage,
		nullIfEmpty(p.DiscountDescription), nullIfEmpty(p.ApplicableTo),
		nullIfEmpty(p.ExpirationDate), nullIfEmpty(p.Link))
	if err != nil {
		return fmt.Errorf("upsert promotion: %w", err)
	}
	return nil
}

// nullIfEmpty maps "" to NULL so absent text doesn't masquerade as data.
func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// nullIfZero maps 0 to NULL for ids the gateway couldn't attribute.
func nullIfZero(n int64) interface{} {
	if n == 0 {
		return nil
	}
	return n
}
