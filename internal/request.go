package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
)

// BodyFormat selects how parameters of non-query methods are serialized.
type BodyFormat int

const (
	// BodyJSON sends parameters as a JSON object.
	BodyJSON BodyFormat = iota
	// BodyForm sends parameters as application/x-www-form-urlencoded.
	BodyForm
)

// DefaultUploadMimeType is the content type of uploads that do not declare one.
const DefaultUploadMimeType = "application/octet-stream"

// SignFunc returns the Authorization header for a request. params are the
// full caller parameters, oauth_ keys included. multipart is true when the
// scalar parameters travel in a multipart body and must not be signed.
type SignFunc func(method, rawURL string, params oauth1.Params, multipart bool) (string, error)

// RequestSpec describes a single request. It is built per call and
// discarded afterwards.
type RequestSpec struct {
	Method string
	// URL is absolute and carries no query.
	URL    string
	Header http.Header
	Params oauth1.Params
	// Timeout bounds the whole exchange. Zero means no timeout beyond the
	// context's.
	Timeout    time.Duration
	BodyFormat BodyFormat
}

func (s RequestSpec) method() string {
	if s.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(s.Method)
}

// sendsQuery reports whether parameters of method travel in the URL.
func sendsQuery(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodDelete:
		return true
	}
	return false
}

type upload struct {
	field    string
	fileName string
	mimeType string
	data     []byte
}

// splitParams separates the transmitted scalar parameters from binary
// uploads. Parameters in the oauth_ namespace are dropped: they travel in the
// Authorization header only.
func splitParams(params oauth1.Params) (map[string]any, []upload) {
	scalars := make(map[string]any, len(params))
	var uploads []upload
	for k, v := range params {
		if oauth1.IsReserved(k) || v == nil {
			continue
		}
		switch val := v.(type) {
		case *types.Upload:
			uploads = append(uploads, upload{field: k, fileName: val.FileName, mimeType: val.MimeType, data: val.Data})
		case []byte:
			uploads = append(uploads, upload{field: k, data: val})
		case oauth1.Binary:
			uploads = append(uploads, upload{field: k, data: val.BinaryPayload()})
		default:
			scalars[k] = v
		}
	}
	sort.Slice(uploads, func(i, j int) bool { return uploads[i].field < uploads[j].field })
	return scalars, uploads
}

// NewRequest builds and signs the HTTP request for spec. sign may be nil for
// unauthenticated requests or when spec.Header already carries credentials.
func (e *Engine) NewRequest(ctx context.Context, spec RequestSpec, sign SignFunc) (*http.Request, error) {
	method := spec.method()

	u, err := url.Parse(spec.URL)
	if err != nil {
		return nil, &twerrors.ConfigError{Field: "URL", Message: fmt.Sprintf("invalid request URL %q: %v", spec.URL, err)}
	}
	if !u.IsAbs() {
		return nil, &twerrors.ConfigError{Field: "URL", Message: fmt.Sprintf("request URL %q is not absolute", spec.URL)}
	}

	scalars, uploads := splitParams(spec.Params)
	strs := oauth1.Params(scalars).Strings()

	var (
		body        io.Reader
		contentType string
		isMultipart bool
	)
	switch {
	case sendsQuery(method):
		if len(strs) > 0 {
			query := e.encoder.BuildQueryString(strs, true)
			if u.RawQuery != "" {
				u.RawQuery += "&" + query
			} else {
				u.RawQuery = query
			}
		}
	case len(uploads) > 0:
		isMultipart = true
		buf, ct, err := buildMultipart(strs, uploads)
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case len(strs) > 0 && spec.BodyFormat == BodyForm:
		body = strings.NewReader(e.encoder.BuildQueryString(strs, true))
		contentType = "application/x-www-form-urlencoded; charset=" + e.encoder.Charset()
	case len(strs) > 0:
		payload, err := json.Marshal(jsonBody(scalars))
		if err != nil {
			return nil, twerrors.NewDecodingError("encode request body", nil, err)
		}
		body = bytes.NewReader(payload)
		contentType = "application/json; charset=" + e.encoder.Charset()
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), body)
	if err != nil {
		return nil, &twerrors.ConfigError{Field: "URL", Message: err.Error()}
	}

	for k, values := range spec.Header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}
	if e.UserAgent != "" && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", e.UserAgent)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	if sign != nil {
		authorization, err := sign(method, spec.URL, spec.Params, isMultipart)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", authorization)
	}

	return req, nil
}

// jsonBody keeps JSON-native types for booleans and numbers and renders
// everything else the way it is signed.
func jsonBody(scalars map[string]any) map[string]any {
	out := make(map[string]any, len(scalars))
	for k, v := range scalars {
		switch v.(type) {
		case string, bool,
			int, int8, int16, int32, int64,
			uint, uint8, uint16, uint32, uint64,
			float32, float64:
			out[k] = v
		default:
			s, _ := oauth1.FormatValue(v)
			out[k] = s
		}
	}
	return out
}

func buildMultipart(fields map[string]string, uploads []upload) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if err := w.SetBoundary("twitter-" + uuid.NewString()); err != nil {
		return nil, "", err
	}

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := w.WriteField(k, fields[k]); err != nil {
			return nil, "", err
		}
	}

	for _, up := range uploads {
		fileName := up.fileName
		if fileName == "" {
			fileName = types.DefaultUploadFileName
		}
		mimeType := up.mimeType
		if mimeType == "" {
			mimeType = DefaultUploadMimeType
		}

		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name=%q; filename=%q`, up.field, fileName))
		h.Set("Content-Type", mimeType)
		part, err := w.CreatePart(h)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(up.data); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}
