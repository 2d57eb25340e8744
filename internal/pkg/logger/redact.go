package logger

import "strings"

// RedactPhone masks a phone number for safe logging, keeping the country
// prefix and the last two digits: "+5511998765432" → "+55*********32".
// Inputs too short to mask meaningfully are fully masked.
func RedactPhone(phone string) string {
	p := strings.TrimSpace(phone)
	if len(p) < 6 {
		return "***"
	}
	keep := 2
	if strings.HasPrefix(p, "+") {
		keep = 3
	}
	return p[:keep] + strings.Repeat("*", len(p)-keep-2) + p[len(p)-2:]
}

// RedactSecret masks an API key or token, keeping only the first four
// characters: "sk-proj-abc123..." → "sk-p***".
func RedactSecret(secret string) string {
	if len(secret) <= 4 {
		return "***"
	}
	return secret[:4] + "***"
}
