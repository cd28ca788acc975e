package logging

import (
	"regexp"
	"strings"
)

// Field names whose values are never logged.
var sensitiveFields = []string{
	"api_key",
	"apikey",
	"api-key",
	"authorization",
	"token",
	"secret",
	"password",
}

var secretPatterns = []*regexp.Regexp{
	// Authorization header values
	regexp.MustCompile(`(?i)bearer\s+[a-zA-Z0-9._~+/=-]{8,}`),

	// key=... in query strings and key: "..." in payloads
	regexp.MustCompile(`(?i)\b(api_?key|key|token|secret)(["']?\s*[=:]\s*["']?)[a-zA-Z0-9._~+/=-]{16,}`),
}

// RedactedValue is the replacement for sensitive values.
const RedactedValue = "[REDACTED]"

// Redact replaces bearer tokens and key-like assignments in s.
func Redact(s string) string {
	result := secretPatterns[0].ReplaceAllString(s, RedactedValue)
	return secretPatterns[1].ReplaceAllString(result, "${1}${2}"+RedactedValue)
}

// MaskSecret keeps the last four characters of a secret, e.g. "****f00d".
// Secrets of eight characters or fewer are masked entirely.
func MaskSecret(secret string) string {
	secret = strings.TrimSpace(secret)
	if secret == "" {
		return ""
	}
	if len(secret) <= 8 {
		return strings.Repeat("*", len(secret))
	}
	return "****" + secret[len(secret)-4:]
}

// IsSensitiveField checks if a field name is considered sensitive.
func IsSensitiveField(name string) bool {
	lowerName := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lowerName, field) {
			return true
		}
	}
	return false
}
