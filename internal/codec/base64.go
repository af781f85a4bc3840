// Package codec converts function payloads between their JSON transport form
// and the binary data the functions operate on.
package codec

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// DecodeBase64 decodes standard base64 text. Line breaks are ignored.
func DecodeBase64(s string) ([]byte, error) {
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return data, nil
}

// EncodeBase64 encodes data as standard base64 text.
func EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// StripDataURL returns the data portion of a base64 data URL
// ("data:image/png;base64,...") and leaves any other string untouched.
func StripDataURL(s string) (string, error) {
	if !strings.HasPrefix(s, "data:") {
		return s, nil
	}

	content := s[len("data:"):]
	commaIdx := strings.Index(content, ",")
	if commaIdx == -1 {
		return "", fmt.Errorf("invalid data URL: missing comma separator")
	}

	params := strings.Split(content[:commaIdx], ";")
	for _, p := range params[1:] {
		if p == "base64" {
			return content[commaIdx+1:], nil
		}
	}
	return "", fmt.Errorf("data URL must be base64 encoded")
}
