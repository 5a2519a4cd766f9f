// SPDX-License-Identifier: MIT

package provider

import (
	"fmt"
	"os"
	"strings"
)

// ReadKey reads an API key from a file, trimming surrounding whitespace. A
// missing or empty file is an error so a misconfigured server fails at
// startup instead of on the first request.
func ReadKey(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read key file %s: %w", path, err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("key file %s is empty", path)
	}
	return key, nil
}
