package log

import (
	"strings"
)

// SanitizeField checks if the key contains sensitive keywords and sanitizes the value.
// The provider key is the main secret this service handles; it must never appear
// in full in any log line, including request URLs echoed on provider errors.
func SanitizeField(key, value string) string {
	if value == "" {
		return value
	}

	// Convert key to lowercase for case-insensitive matching
	lowerKey := strings.ToLower(key)

	// Check if key contains sensitive keywords
	sensitiveKeywords := []string{
		"password", "passwd", "pwd",
		"api_key", "apikey", "api-key",
		"provider_key", "amap_key",
		"token", "secret",
		"auth", "authorization",
		"credential", "dsn",
	}

	for _, keyword := range sensitiveKeywords {
		if strings.Contains(lowerKey, keyword) {
			return sanitizeSecret(value)
		}
	}

	return value
}

// sanitizeSecret masks secret values showing only first 4 and last 4 characters
func sanitizeSecret(value string) string {
	if len(value) <= 8 {
		// For short strings, mask everything except first and last char
		if len(value) <= 2 {
			return strings.Repeat("*", len(value))
		}
		return string(value[0]) + strings.Repeat("*", len(value)-2) + string(value[len(value)-1])
	}

	// For longer strings, show first 4 and last 4
	return value[:4] + strings.Repeat("*", len(value)-8) + value[len(value)-4:]
}
