package config

import "log"

// MustNonEmpty aborts startup when a required secret is missing. Every
// other key has a usable default; secrets do not.
func MustNonEmpty(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("refusing to start without %s", envName)
	}
}
