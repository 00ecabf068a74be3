package watch

import (
	"fmt"

	"golang.org/x/net/html/charset"
)

// Decode converts body to UTF-8. The encoding is taken from the charset
// parameter of contentType, a byte order mark or a <meta> declaration in the
// first kilobyte, in that order, defaulting to windows-1252. It returns the
// decoded text and the name of the encoding.
func Decode(body []byte, contentType string) (string, string, error) {
	enc, name, _ := charset.DetermineEncoding(body, contentType)
	text, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		return "", name, fmt.Errorf("decode %s: %w", name, err)
	}
	return string(text), name, nil
}
