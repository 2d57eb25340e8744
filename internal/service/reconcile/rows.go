package reconcile

import (
	"math"

	"github.com/dealradar/promo-monitor/internal/domain"
)

// Input couples one fetched message with its classification outcome and the
// URLs collected alongside it.
type Input struct {
	Message    domain.RawMessage
	ChatName   string
	Extraction domain.Extraction
	URLs       []string
}

// BuildRows maps a classified message onto its persisted shapes. The message
// row is always produced. The promotion row is nil when the extraction
// carries no type at all; a placeholder carrying only (type, reason) when the
// type is a known non-offer outcome; and a full row otherwise, including for
// type strings the model invented, so nothing it says is silently dropped.
func BuildRows(in Input) (domain.Message, *domain.Promotion) {
	msg := domain.Message{
		MessageID:     in.Message.ID,
		ChatID:        in.Message.ChatID,
		ChatName:      in.ChatName,
		SenderID:      in.Message.SenderID,
		SenderName:    in.Message.SenderName,
		Text:          in.Message.Text,
		Date:          in.Message.Date,
		MediaType:     in.Message.MediaType,
		ExtractedURLs: in.URLs,
	}

	ext := in.Extraction
	if ext.Type == "" {
		return msg, nil
	}

	if ext.PlaceholderOnly() {
		return msg, &domain.Promotion{Type: ext.Type, Reason: ext.Reason}
	}

	return msg, &domain.Promotion{
		Type:                     ext.Type,
		Reason:                   ext.Reason,
		ProductName:              ext.ProductName,
		StoreName:                ext.StoreName,
		OriginalPrice:            round2(ext.OriginalPrice),
		DiscountedPrice:          round2(ext.DiscountedPrice),
		CouponName:               ext.CouponName,
		CouponDiscountAmount:     round2(ext.CouponDiscountAmount),
		CouponDiscountPercentage: round2(ext.CouponDiscountPercentage),
		MinimumPurchaseValue:     round2(ext.MinimumPurchaseValue),
		MaximumPurchaseValue:     round2(ext.MaximumPurchaseValue),
		MaximumDiscountAmount:    round2(ext.MaximumDiscountAmount),
		DirectDiscountAmount:     round2(ext.DirectDiscountAmount),
		DirectDiscountPercentage: round2(ext.DirectDiscountPercentage),
		DiscountDescription:      ext.DiscountDescription,
		ApplicableTo:             ext.ApplicableTo,
		ExpirationDate:           ext.ExpirationDate,
		Link:                     ext.Link,
	}
}

// round2 rounds a monetary value to two decimal places. nil passes through.
func round2(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100) / 100
	return &r
}
