package domain

import "time"

// ExtractionType discriminates the closed set of classification outcomes.
// The model's output vocabulary is not fully closed, so unknown strings are
// carried through as-is rather than rejected; the reconciler treats them as
// actionable so nothing the model says is silently dropped.
type ExtractionType string

const (
	ExtractionProductOffer ExtractionType = "product_offer"
	ExtractionCouponOnly   ExtractionType = "coupon_only"
	ExtractionIrrelevant   ExtractionType = "irrelevant"
	ExtractionError        ExtractionType = "error"

	// Pre-classification outcomes: the model was never asked.
	ExtractionNoText           ExtractionType = "no_text_content"
	ExtractionSkippedPreFilter ExtractionType = "skipped_pre_filter"
)

// Reasons recorded for messages the model was never asked about.
const (
	ReasonNoText          = "Message without text."
	ReasonFailedPreFilter = "Not promotional by initial screening."
)

// Extraction is the result of classifying one message. Exactly one Type per
// message. String fields are "" when absent; monetary/percentage fields are
// nil when the model omitted them or emitted something unparseable.
type Extraction struct {
	Type   ExtractionType `json:"type"`
	Reason string         `json:"reason,omitempty"`

	// Offer/coupon fields, all optional.
	ProductName              string   `json:"product_name,omitempty"`
	StoreName                string   `json:"store_name,omitempty"`
	OriginalPrice            *float64 `json:"original_price,omitempty"`
	DiscountedPrice          *float64 `json:"discounted_price,omitempty"`
	CouponName               string   `json:"coupon_name,omitempty"`
	CouponDiscountAmount     *float64 `json:"coupon_discount_value_amount,omitempty"`
	CouponDiscountPercentage *float64 `json:"coupon_discount_value_percentage,omitempty"`
	MinimumPurchaseValue     *float64 `json:"minimum_purchase_value,omitempty"`
	MaximumPurchaseValue     *float64 `json:"maximum_purchase_value,omitempty"`
	MaximumDiscountAmount    *float64 `json:"maximum_discount_amount,omitempty"`
	DirectDiscountAmount     *float64 `json:"direct_discount_amount,omitempty"`
	DirectDiscountPercentage *float64 `json:"direct_discount_percentage,omitempty"`
	DiscountDescription      string   `json:"discount_description,omitempty"`
	ApplicableTo             string   `json:"applicable_to,omitempty"`
	ExpirationDate           string   `json:"expiration_date,omitempty"`
	Link                     string   `json:"link,omitempty"`

	// RawResponse preserves the model's output when it couldn't be parsed.
	RawResponse string `json:"raw_response,omitempty"`
}

// NotAttempted builds the extraction recorded when the model is skipped.
func NotAttempted(t ExtractionType, reason string) Extraction {
	return Extraction{Type: t, Reason: reason}
}

// ExtractionFailure builds the error-variant extraction. rawResponse may be
// empty when the call failed before any body arrived.
func ExtractionFailure(reason, rawResponse string) Extraction {
	return Extraction{Type: ExtractionError, Reason: reason, RawResponse: rawResponse}
}

// Attempted reports whether the model was actually consulted for this
// extraction (true even when the call itself failed).
func (e Extraction) Attempted() bool {
	return e.Type != ExtractionNoText && e.Type != ExtractionSkippedPreFilter
}

// PlaceholderOnly reports whether only a (type, reason) placeholder row
// should be persisted for this extraction: known non-offer outcomes.
// Unknown type strings return false and get a full row.
func (e Extraction) PlaceholderOnly() bool {
	switch e.Type {
	case ExtractionError, ExtractionNoText, ExtractionSkippedPreFilter, ExtractionIrrelevant:
		return true
	}
	return false
}

// Promotion is the persisted derived record, keyed 1:1 by the message's
// surrogate key. Placeholder rows carry only Type and Reason.
type Promotion struct {
	ID                       int64          `json:"id" db:"id"`
	MessageInternalID        int64          `json:"message_internal_id" db:"message_internal_id"`
	Type                     ExtractionType `json:"promotion_type" db:"promotion_type"`
	Reason                   string         `json:"reason,omitempty" db:"reason"`
	ProductName              string         `json:"product_name,omitempty" db:"product_name"`
	StoreName                string         `json:"store_name,omitempty" db:"store_name"`
	OriginalPrice            *float64       `json:"original_price,omitempty" db:"original_price"`
	DiscountedPrice          *float64       `json:"discounted_price,omitempty" db:"discounted_price"`
	CouponName               string         `json:"coupon_name,omitempty" db:"coupon_name"`
	CouponDiscountAmount     *float64       `json:"coupon_discount_amount,omitempty" db:"coupon_discount_amount"`
	CouponDiscountPercentage *float64       `json:"coupon_discount_percentage,omitempty" db:"coupon_discount_percentage"`
	MinimumPurchaseValue     *float64       `json:"minimum_purchase_value,omitempty" db:"minimum_purchase_value"`
	MaximumPurchaseValue     *float64       `json:"maximum_purchase_value,omitempty" db:"maximum_purchase_value"`
	MaximumDiscountAmount    *float64       `json:"maximum_discount_amount,omitempty" db:"maximum_discount_amount"`
	DirectDiscountAmount     *float64       `json:"direct_discount_amount,omitempty" db:"direct_discount_amount"`
	DirectDiscountPercentage *float64       `json:"direct_discount_percentage,omitempty" db:"direct_discount_percentage"`
	DiscountDescription      string         `json:"discount_description,omitempty" db:"discount_description"`
	ApplicableTo             string         `json:"applicable_to,omitempty" db:"applicable_to"`
	ExpirationDate           string         `json:"expiration_date,omitempty" db:"expiration_date"`
	Link                     string         `json:"link,omitempty" db:"link"`
	CreatedAt                time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt                time.Time      `json:"updated_at" db:"updated_at"`
}
