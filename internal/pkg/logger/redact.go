package logger

import "strings"

// secretKeys are field-name fragments whose values must never appear in
// the log stream.
var secretKeys = []string{"password", "senha", "secret", "token", "credential"}

// redactValue masks the value when the key names a secret.
func redactValue(key, val string) string {
	lower := strings.ToLower(key)
	for _, frag := range secretKeys {
		if strings.Contains(lower, frag) {
			return Redact(val)
		}
	}
	return val
}

// Redact masks a secret for safe logging, keeping only a short prefix.
// "hunter2secret" → "hu***", "" → "***".
func Redact(s string) string {
	if len(s) > 4 {
		return s[:2] + "***"
	}
	return "***"
}
