package config

import "log"

// MustNonEmpty stops the process when a required setting is missing.
func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
