package classifier

import (
	"context"

	"github.com/dealradar/promo-monitor/internal/domain"
)

// Classifier runs the two-stage pipeline: a cheap keyword screen first,
// the model only for messages that survive it.
type Classifier struct {
	extractor Extractor
}

func New(extractor Extractor) *Classifier {
	return &Classifier{extractor: extractor}
}

// Classify decides what a message is and collects its URLs. Messages without
// text and messages rejected by the pre-filter never reach the model; their
// extractions carry the corresponding type and canned reason instead. A link
// reported by the model is merged into the regex-extracted URLs when it is
// not already among them.
func (c *Classifier) Classify(ctx context.Context, msg domain.RawMessage) (domain.Extraction, []string) {
	if !msg.HasText() {
		return domain.NotAttempted(domain.ExtractionNoText, domain.ReasonNoText), nil
	}

	urls := ExtractURLs(msg.Text)

	if !PreFilter(msg.Text) {
		return domain.NotAttempted(domain.ExtractionSkippedPreFilter, domain.ReasonFailedPreFilter), urls
	}

	ext := c.extractor.Extract(ctx, msg.Text)
	if ext.Link != "" {
		urls = MergeLink(urls, ext.Link)
	}
	return ext, urls
}
