package oauth1

import (
	"sort"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"

	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
)

// DefaultCharset is the text encoding used when none is configured.
const DefaultCharset = "utf-8"

const upperhex = "0123456789ABCDEF"

// PercentEncode percent-encodes the UTF-8 bytes of s following RFC 3986:
// only the unreserved set [A-Za-z0-9-._~] is left as is.
func PercentEncode(s string) string {
	return percentEncodeBytes([]byte(s))
}

func percentEncodeBytes(b []byte) string {
	var sb strings.Builder
	sb.Grow(len(b) * 3)
	for _, c := range b {
		if isUnreserved(c) {
			sb.WriteByte(c)
			continue
		}
		sb.WriteByte('%')
		sb.WriteByte(upperhex[c>>4])
		sb.WriteByte(upperhex[c&15])
	}
	return sb.String()
}

// isUnreserved reports whether c is an unreserved character (RFC 3986
// section 2.3).
func isUnreserved(c byte) bool {
	switch {
	case (c >= 'A' && c <= 'Z') || (c >= 'a' && c <= 'z'):
		return true
	case c >= '0' && c <= '9':
		return true
	case c == '-' || c == '.' || c == '_' || c == '~':
		return true
	}
	return false
}

// Encoder percent-encodes strings after transcoding them to a text encoding.
// The zero value encodes UTF-8.
type Encoder struct {
	charset string
	enc     encoding.Encoding
}

// NewEncoder returns an Encoder for the named charset. Names are resolved
// through the WHATWG encoding index ("utf-8", "iso-8859-1", "shift_jis"...).
// An empty name selects DefaultCharset.
func NewEncoder(charset string) (*Encoder, error) {
	if charset == "" {
		charset = DefaultCharset
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, &twerrors.ConfigError{Field: "Charset", Message: "unsupported text encoding " + charset}
	}
	canonical, err := htmlindex.Name(enc)
	if err != nil {
		canonical = strings.ToLower(charset)
	}
	return &Encoder{charset: canonical, enc: enc}, nil
}

// Charset returns the canonical name of the encoder's charset.
func (e *Encoder) Charset() string {
	if e == nil || e.charset == "" {
		return DefaultCharset
	}
	return e.charset
}

// Bytes transcodes s into the encoder's charset. Characters the charset cannot
// represent make the whole string fall back to UTF-8.
func (e *Encoder) Bytes(s string) []byte {
	if e == nil || e.enc == nil || e.enc == unicode.UTF8 {
		return []byte(s)
	}
	out, err := e.enc.NewEncoder().String(s)
	if err != nil {
		return []byte(s)
	}
	return []byte(out)
}

// Encode percent-encodes s in the encoder's charset.
func (e *Encoder) Encode(s string) string {
	return percentEncodeBytes(e.Bytes(s))
}

// EncodePair returns the encoded "key=value" form of a parameter.
func (e *Encoder) EncodePair(key, value string) string {
	return e.Encode(key) + "=" + e.Encode(value)
}

// SortedPairs percent-encodes every key and value of params, joins each as
// "key=value" and sorts the pairs lexicographically. Signature base strings
// and Authorization headers are both built from this ordering.
func (e *Encoder) SortedPairs(params map[string]string) []string {
	pairs := make([]string, 0, len(params))
	for k, v := range params {
		pairs = append(pairs, e.EncodePair(k, v))
	}
	sort.Strings(pairs)
	return pairs
}

// BuildQueryString joins params as key=value pairs separated by '&',
// percent-encoding keys and values when encode is true. Keys are emitted in
// sorted order so the output is deterministic.
func (e *Encoder) BuildQueryString(params map[string]string, encode bool) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		if encode {
			sb.WriteString(e.EncodePair(k, params[k]))
		} else {
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(params[k])
		}
	}
	return sb.String()
}

// SortedPairs is Encoder.SortedPairs with UTF-8.
func SortedPairs(params map[string]string) []string {
	return (*Encoder)(nil).SortedPairs(params)
}

// BuildQueryString is Encoder.BuildQueryString with UTF-8.
func BuildQueryString(params map[string]string, encode bool) string {
	return (*Encoder)(nil).BuildQueryString(params, encode)
}

// ParseQueryString splits s on '&' and then on the first '='. Values are
// returned verbatim, without percent-decoding. Empty segments and segments
// without '=' are skipped.
func ParseQueryString(s string) map[string]string {
	params := make(map[string]string)
	for _, segment := range strings.Split(s, "&") {
		if segment == "" {
			continue
		}
		key, value, ok := strings.Cut(segment, "=")
		if !ok || key == "" {
			continue
		}
		params[key] = value
	}
	return params
}
