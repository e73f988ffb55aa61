package oauth1

import (
	"fmt"
	"strconv"
	"strings"
)

// ReservedPrefix marks protocol parameters. They travel in the Authorization
// header only.
const ReservedPrefix = "oauth_"

// Params maps request parameter names to scalar values. Supported values are
// string, bool, the integer and float types, []string (joined with commas)
// and fmt.Stringer. Values of type []byte, and values implementing Binary,
// are payloads for multipart uploads: they are never signed nor sent as
// query or body parameters.
type Params map[string]any

// Binary is implemented by parameter values carried out-of-band in a
// multipart body.
type Binary interface {
	BinaryPayload() []byte
}

// IsReserved reports whether key is in the oauth_ namespace.
func IsReserved(key string) bool {
	return strings.HasPrefix(key, ReservedPrefix)
}

// FormatValue renders a scalar parameter value. ok is false for binary
// payloads and nil.
func FormatValue(v any) (s string, ok bool) {
	switch val := v.(type) {
	case nil:
		return "", false
	case []byte, Binary:
		return "", false
	case string:
		return val, true
	case bool:
		return strconv.FormatBool(val), true
	case int:
		return strconv.Itoa(val), true
	case int8:
		return strconv.FormatInt(int64(val), 10), true
	case int16:
		return strconv.FormatInt(int64(val), 10), true
	case int32:
		return strconv.FormatInt(int64(val), 10), true
	case int64:
		return strconv.FormatInt(val, 10), true
	case uint:
		return strconv.FormatUint(uint64(val), 10), true
	case uint8:
		return strconv.FormatUint(uint64(val), 10), true
	case uint16:
		return strconv.FormatUint(uint64(val), 10), true
	case uint32:
		return strconv.FormatUint(uint64(val), 10), true
	case uint64:
		return strconv.FormatUint(val, 10), true
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), true
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), true
	case []string:
		return strings.Join(val, ","), true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

// Strings returns the scalar parameters rendered as strings, skipping binary
// payloads.
func (p Params) Strings() map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		if s, ok := FormatValue(v); ok {
			out[k] = s
		}
	}
	return out
}

// NonOAuth returns the scalar parameters outside the oauth_ namespace.
func (p Params) NonOAuth() map[string]string {
	out := make(map[string]string, len(p))
	for k, v := range p {
		if IsReserved(k) {
			continue
		}
		if s, ok := FormatValue(v); ok {
			out[k] = s
		}
	}
	return out
}

// Clone returns a shallow copy of p.
func (p Params) Clone() Params {
	out := make(Params, len(p))
	for k, v := range p {
		out[k] = v
	}
	return out
}
