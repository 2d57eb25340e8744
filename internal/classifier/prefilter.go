// Package classifier decides whether a message is worth sending to the
// model and turns model output into a typed extraction.
//
// Classification is two-stage: a free local pre-filter over keywords and
// price patterns, then a structured-extraction call to OpenAI for the
// messages that pass. Extraction failures are data, not errors: they come
// back as an error-typed extraction and are persisted like any other result.
package classifier

import (
	"regexp"
	"strings"
)

// Keyword set for the promotional pre-filter. Matched case-insensitively
// against the whole message text. Tuned for Brazilian deal channels; "r$"
// and "%" alone catch most price talk.
var preFilterKeywords = []string{
	"r$",
	"promo",
	"desconto",
	"cupom",
	"oferta",
	"%",
	" off",
	"barato",
	"preço",
	"imperdível",
	"saldão",
	"liquida",
	"frete grátis",
	"grátis",
	"compre",
	"ganhe",
	"economize",
	"leve",
	"pague",
	"cashback",
	"metade do preço",
}

// Price patterns applied to the lowercased text.
var (
	percentPattern    = regexp.MustCompile(`\d+([,.]\d{2})?\s*%`)
	currencyPattern   = regexp.MustCompile(`r\$\s*\d+([,.]\d{2})?`)
	priceRangePattern = regexp.MustCompile(`de\s+r\$\s*[\d,.]+\s+por\s+r\$\s*[\d,.]+`)
)

// PreFilter reports whether the text looks promotional enough to justify a
// model call. Empty text never qualifies. Pure function, no I/O.
func PreFilter(text string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, kw := range preFilterKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	if percentPattern.MatchString(lower) ||
		currencyPattern.MatchString(lower) ||
		priceRangePattern.MatchString(lower) {
		return true
	}
	return false
}
