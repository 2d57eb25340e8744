package classifier

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/dealradar/promo-monitor/internal/config"
	"github.com/dealradar/promo-monitor/internal/domain"
)

// Extractor turns message text into a structured extraction. Implementations
// never return a Go error: every failure mode is encoded as an error-typed
// extraction so one bad model call can't abort a batch.
type Extractor interface {
	Extract(ctx context.Context, text string) domain.Extraction
}

// Completer is the slice of the OpenAI client the extractor needs.
// *openai.Client satisfies it; tests substitute a canned implementation.
type Completer interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIExtractor implements Extractor against the OpenAI chat completions
// API in JSON mode.
type OpenAIExtractor struct {
	client  Completer
	model   string
	timeout time.Duration
}

// NewOpenAIExtractor creates an extractor from the OpenAI configuration.
// BaseURL may point at any OpenAI-compatible endpoint.
func NewOpenAIExtractor(cfg config.OpenAIConfig) *OpenAIExtractor {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAIExtractor{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout(),
	}
}

// NewOpenAIExtractorWithClient creates an extractor with an injected client,
// primarily for tests.
func NewOpenAIExtractorWithClient(client Completer, model string, timeout time.Duration) *OpenAIExtractor {
	return &OpenAIExtractor{client: client, model: model, timeout: timeout}
}

// Extract asks the model for a structured read of the message text.
// Transport errors, empty responses, and unparseable output all degrade to
// an error-typed extraction; the raw body is preserved when one existed.
func (e *OpenAIExtractor) Extract(ctx context.Context, text string) domain.Extraction {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	resp, err := e.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: e.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: buildPrompt(text)},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.1,
	})
	if err != nil {
		return domain.ExtractionFailure("OpenAI API Error: "+err.Error(), "")
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return domain.ExtractionFailure("Unexpected OpenAI response structure.", "")
	}

	raw := resp.Choices[0].Message.Content
	var payload extractionPayload
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return domain.ExtractionFailure("OpenAI response not valid JSON: "+err.Error(), raw)
	}

	return payload.toDomain()
}

// extractionPayload mirrors the JSON shapes the prompt demands. The product
// and coupon variants share most fields; minimum purchase appears under two
// different names depending on the variant.
type extractionPayload struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`

	ProductName                   string    `json:"product_name"`
	StoreName                     string    `json:"store_name"`
	OriginalPrice                 flexFloat `json:"original_price"`
	DiscountedPrice               flexFloat `json:"discounted_price"`
	CouponName                    string    `json:"coupon_name"`
	CouponDiscountAmount          flexFloat `json:"coupon_discount_value_amount"`
	CouponDiscountPercentage      flexFloat `json:"coupon_discount_value_percentage"`
	MinimumPurchaseValue          flexFloat `json:"minimum_purchase_value"`
	MinimumPurchaseValueForCoupon flexFloat `json:"minimum_purchase_value_for_coupon"`
	MaximumPurchaseValue          flexFloat `json:"maximum_purchase_value"`
	MaximumDiscountAmount         flexFloat `json:"maximum_discount_amount"`
	DirectDiscountAmount          flexFloat `json:"direct_discount_amount"`
	DirectDiscountPercentage      flexFloat `json:"direct_discount_percentage"`
	DiscountDescription           string    `json:"discount_description"`
	ApplicableTo                  string    `json:"applicable_to"`
	ExpirationDate                string    `json:"expiration_date"`
	Link                          string    `json:"link"`
}

func (p extractionPayload) toDomain() domain.Extraction {
	minPurchase := p.MinimumPurchaseValue.value
	if minPurchase == nil {
		minPurchase = p.MinimumPurchaseValueForCoupon.value
	}

	return domain.Extraction{
		Type:                     domain.ExtractionType(strings.TrimSpace(p.Type)),
		Reason:                   p.Reason,
		ProductName:              p.ProductName,
		StoreName:                p.StoreName,
		OriginalPrice:            p.OriginalPrice.value,
		DiscountedPrice:          p.DiscountedPrice.value,
		CouponName:               p.CouponName,
		CouponDiscountAmount:     p.CouponDiscountAmount.value,
		CouponDiscountPercentage: p.CouponDiscountPercentage.value,
		MinimumPurchaseValue:     minPurchase,
		MaximumPurchaseValue:     p.MaximumPurchaseValue.value,
		MaximumDiscountAmount:    p.MaximumDiscountAmount.value,
		DirectDiscountAmount:     p.DirectDiscountAmount.value,
		DirectDiscountPercentage: p.DirectDiscountPercentage.value,
		DiscountDescription:      p.DiscountDescription,
		ApplicableTo:             p.ApplicableTo,
		ExpirationDate:           p.ExpirationDate,
		Link:                     p.Link,
	}
}

// flexFloat accepts a JSON number, a numeric string (with either decimal
// separator), or null. Anything unparseable or negative becomes nil rather
// than failing the whole payload: monetary noise must never abort a row.
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" || s == `""` {
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var unquoted string
		if err := json.Unmarshal(b, &unquoted); err != nil {
			return nil
		}
		s = strings.TrimSpace(unquoted)
		if s == "" {
			return nil
		}
		// Model occasionally slips into pt-BR decimal commas.
		if strings.Contains(s, ",") && !strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v < 0 {
		return nil
	}
	f.value = &v
	return nil
}
