package textextract

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ExtractPlain decodes a text file. A UTF-8 or UTF-16 byte order mark selects
// the encoding; without one the input is read as UTF-8 and invalid sequences
// are replaced.
func ExtractPlain(b []byte) (string, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(b), decoder))
	if err != nil {
		return "", fmt.Errorf("decode text failed: %w", err)
	}
	normalized := strings.ReplaceAll(string(decoded), "\r\n", "\n")
	return strings.ToValidUTF8(normalized, "�"), nil
}
