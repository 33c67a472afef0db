package fetcher

import (
	"bytes"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// sniffLimit bounds how many bytes the charset detector sees.
const sniffLimit = 10 * 1024

// DecodeText converts a response body to UTF-8. Valid UTF-8 passes through
// untouched; otherwise the charset is sniffed from the first bytes and the
// body decoded with that encoding. When nothing works the body is kept
// with invalid sequences stripped.
func DecodeText(body []byte) string {
	if utf8.Valid(body) {
		return string(body)
	}

	sample := body
	if len(sample) > sniffLimit {
		sample = sample[:sniffLimit]
	}
	detector := chardet.NewTextDetector()
	if result, err := detector.DetectBest(sample); err == nil && result != nil {
		if enc, _ := charset.Lookup(result.Charset); enc != nil {
			if decoded, err := enc.NewDecoder().Bytes(body); err == nil {
				return string(decoded)
			}
		}
	}
	return string(bytes.ToValidUTF8(body, nil))
}
