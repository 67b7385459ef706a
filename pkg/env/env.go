// Package env is a tiny helper for reading environment variables with a
// default, used before the typed config layer is loaded.
package env

import "os"

// Get returns the value of key, or fallback when it is unset or empty.
func Get(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
