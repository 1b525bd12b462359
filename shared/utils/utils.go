package utils

import (
	"encoding/base64"
	"fmt"
	"os"
	"strings"
)

// BasicAuthToken builds the base64 credential for an HTTP Basic Authorization
// header.
func BasicAuthToken(username, password string) string {
	return base64.StdEncoding.EncodeToString([]byte(fmt.Sprintf("%s:%s", username, password)))
}

// ContainsFold reports whether substr occurs in s, case-insensitively.
func ContainsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// GetEnv fetches environment variables with a fallback default.
func GetEnv(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
