package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"reflect"

	"golang.org/x/text/encoding/htmlindex"

	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
)

// Response is a buffered API response with a status below 400.
type Response struct {
	StatusCode int
	Header     http.Header
	// Body is nil for streaming responses, whose content is delivered as
	// chunks.
	Body []byte
}

// Charset returns the charset declared by the Content-Type header, or "".
func (r *Response) Charset() string {
	_, params, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return ""
	}
	return params["charset"]
}

// Text decodes the body using the declared charset. Undeclared or unknown
// charsets are read as UTF-8.
func (r *Response) Text() string {
	charset := r.Charset()
	if charset == "" {
		return string(r.Body)
	}
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return string(r.Body)
	}
	text, err := enc.NewDecoder().Bytes(r.Body)
	if err != nil {
		return string(r.Body)
	}
	return string(text)
}

// JSON decodes the body into v. An empty body decodes as an empty object,
// or as an empty array when v points to a slice.
func (r *Response) JSON(v any) error {
	body := bytes.TrimSpace(r.Body)
	if len(body) == 0 {
		body = emptyDocument(v)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return twerrors.NewDecodingError("decode response", r.Body, err)
	}
	return nil
}

func emptyDocument(v any) []byte {
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Slice {
		return []byte("[]")
	}
	return []byte("{}")
}

var statusReasons = map[int]string{
	100: "Continue",
	101: "Switching Protocols",
	102: "Processing",
	200: "OK",
	201: "Created",
	202: "Accepted",
	203: "Non-Authoritative Information",
	204: "No Content",
	205: "Reset Content",
	206: "Partial Content",
	207: "Multi-Status",
	208: "Already Reported",
	226: "IM Used",
	300: "Multiple Choices",
	301: "Moved Permanently",
	302: "Found",
	303: "See Other",
	304: "Not Modified",
	305: "Use Proxy",
	306: "Switch Proxy",
	307: "Temporary Redirect",
	308: "Permanent Redirect",
	400: "Bad Request",
	401: "Unauthorized",
	402: "Payment Required",
	403: "Forbidden",
	404: "Not Found",
	405: "Method Not Allowed",
	406: "Not Acceptable",
	407: "Proxy Authentication Required",
	408: "Request Timeout",
	409: "Conflict",
	410: "Gone",
	411: "Length Required",
	412: "Precondition Failed",
	413: "Request Entity Too Large",
	414: "Request-URI Too Long",
	415: "Unsupported Media Type",
	416: "Requested Range Not Satisfiable",
	417: "Expectation Failed",
	418: "I'm a teapot",
	420: "Enhance Your Calm",
	422: "Unprocessable Entity",
	423: "Locked",
	424: "Failed Dependency",
	425: "Unordered Collection",
	426: "Upgrade Required",
	428: "Precondition Required",
	429: "Too Many Requests",
	431: "Request Header Fields Too Large",
	444: "No Response",
	449: "Retry With",
	450: "Blocked by Windows Parental Controls",
	451: "Unavailable For Legal Reasons",
	499: "Client Closed Request",
	500: "Internal Server Error",
	501: "Not Implemented",
	502: "Bad Gateway",
	503: "Service Unavailable",
	504: "Gateway Timeout",
	505: "HTTP Version Not Supported",
	506: "Variant Also Negotiates",
	507: "Insufficient Storage",
	508: "Loop Detected",
	509: "Bandwidth Limit Exceeded",
	510: "Not Extended",
	511: "Network Authentication Required",
}

// StatusReason returns the reason phrase for code, or "HTTP Status {code}"
// for codes outside the table.
func StatusReason(code int) string {
	if reason, ok := statusReasons[code]; ok {
		return reason
	}
	return fmt.Sprintf("HTTP Status %d", code)
}

// apiErrorBody is the error document returned by the platform.
type apiErrorBody struct {
	Errors []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Error string `json:"error"`
}

func newStatusError(code int, body []byte) *twerrors.HTTPStatusError {
	statusErr := &twerrors.HTTPStatusError{
		StatusCode: code,
		Reason:     StatusReason(code),
		Body:       string(body),
	}

	var parsed apiErrorBody
	if err := json.Unmarshal(body, &parsed); err == nil {
		if len(parsed.Errors) > 0 {
			statusErr.ErrorCode = parsed.Errors[0].Code
			statusErr.Message = parsed.Errors[0].Message
		} else if parsed.Error != "" {
			statusErr.Message = parsed.Error
		}
	}
	return statusErr
}
