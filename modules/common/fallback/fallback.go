package fallback

import (
	"log"
	"strings"
)

// SafeString returns a trimmed string or the provided fallback.
func SafeString(value interface{}, fallbackValue string) string {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return fallbackValue
}

// BestEffort runs a side-effect operation that must never abort the pipeline.
// Failures are logged and swallowed.
func BestEffort(label string, fn func() error) {
	if err := fn(); err != nil {
		log.Printf("⚠️  [BestEffort] %s failed: %v", label, err)
	}
}
