package httpclient

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/net/html/charset"
)

// DetectCharset guesses the charset of data, defaulting to utf-8.
func DetectCharset(data []byte) string {
	result, err := chardet.NewTextDetector().DetectBest(data)
	if err != nil || result == nil {
		return "utf-8"
	}
	return strings.ToLower(result.Charset)
}

// DecodeText converts body to UTF-8. A charset in contentType wins; otherwise
// valid UTF-8 is returned as is and anything else is sniffed with chardet.
func DecodeText(body []byte, contentType string) string {
	if len(body) == 0 {
		return ""
	}

	if _, params, err := mime.ParseMediaType(contentType); err == nil && params["charset"] != "" {
		if s, ok := decodeWith(body, contentType); ok {
			return s
		}
	}
	if utf8.Valid(body) {
		return string(body)
	}

	detected := DetectCharset(body)
	if s, ok := decodeWith(body, "text/plain; charset="+detected); ok {
		return s
	}
	return string(body)
}

func decodeWith(body []byte, contentType string) (string, bool) {
	r, err := charset.NewReader(bytes.NewReader(body), contentType)
	if err != nil {
		return "", false
	}
	out, err := io.ReadAll(r)
	if err != nil {
		return "", false
	}
	return string(out), true
}
