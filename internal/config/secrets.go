package config

import (
	"fmt"
	"os"
	"strings"
)

// readSecret reads a Docker secret from /run/secrets, falling back to the
// given environment variable so local runs work without a secrets mount.
func readSecret(secretName, envFallback string) (string, error) {
	filePath := fmt.Sprintf("/run/secrets/%s", secretName)
	secretBytes, err := os.ReadFile(filePath)
	if err == nil {
		secret := strings.TrimSpace(string(secretBytes))
		if secret != "" {
			return secret, nil
		}
	}
	if v := strings.TrimSpace(os.Getenv(envFallback)); v != "" {
		return v, nil
	}
	return "", fmt.Errorf("secret %s not found: no readable file at %s and %s is unset", secretName, filePath, envFallback)
}
