package test_helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
)

const (
	// Test credentials understood by the mock server
	ConsumerKey    = "test_consumer_key"
	ConsumerSecret = "test_consumer_secret"

	AccessToken       = "test_access_token"
	AccessTokenSecret = "test_access_token_secret"

	RequestToken       = "test_request_token"
	RequestTokenSecret = "test_request_token_secret"
	Verifier           = "test_verifier"

	BearerToken = "test_bearer_token"
)

// MockServer provides a configurable mock Twitter API server for testing.
// Every request must carry a valid OAuth 1.0a signature or a known bearer
// token; anything else is answered with 401.
type MockServer struct {
	server  *httptest.Server
	handler *MockHandler

	logMutex   sync.Mutex
	requestLog []RequestEntry
}

// RequestEntry logs incoming requests for debugging
type RequestEntry struct {
	Method       string
	Path         string
	Query        url.Values
	Headers      http.Header
	Body         string
	OAuth        map[string]string
	Timestamp    time.Time
	ResponseCode int
}

// MockHandler handles mock API responses
type MockHandler struct {
	server      *MockServer
	creds       oauth1.Credentials
	tokens      map[string]string
	bearers     map[string]bool
	responses   map[string]*MockResponse
	handlers    map[string]http.HandlerFunc
	defaultResp *MockResponse
	delay       time.Duration
	callCount   map[string]int
	mutex       sync.RWMutex
}

// MockResponse defines a mock API response
type MockResponse struct {
	Status  int
	Body    string
	Headers map[string]string
	Delay   time.Duration
}

// NewMockServer creates a new mock server that accepts the test consumer,
// the test access token and the test request token.
func NewMockServer() *MockServer {
	handler := &MockHandler{
		creds: oauth1.Credentials{ConsumerKey: ConsumerKey, ConsumerSecret: ConsumerSecret},
		tokens: map[string]string{
			AccessToken:  AccessTokenSecret,
			RequestToken: RequestTokenSecret,
		},
		bearers:   map[string]bool{},
		responses: make(map[string]*MockResponse),
		handlers:  make(map[string]http.HandlerFunc),
		callCount: make(map[string]int),
		defaultResp: &MockResponse{
			Status: http.StatusNotFound,
			Body:   `{"errors":[{"code":34,"message":"Sorry, that page does not exist."}]}`,
		},
	}

	ms := &MockServer{handler: handler}
	handler.server = ms
	ms.server = httptest.NewServer(handler)
	ms.setupDefaultResponses()
	return ms
}

// URL returns the base URL of the mock server
func (ms *MockServer) URL() string {
	return ms.server.URL
}

// APIURL returns the URL to use for the REST, upload and stream base URLs.
func (ms *MockServer) APIURL() string {
	return ms.server.URL + "/1.1/"
}

// Close shuts down the mock server
func (ms *MockServer) Close() {
	ms.server.Close()
}

// SetResponse configures a response for a specific path
func (ms *MockServer) SetResponse(path string, response *MockResponse) {
	ms.handler.mutex.Lock()
	defer ms.handler.mutex.Unlock()
	ms.handler.responses[path] = response
}

// SetHandler serves path with fn once the request is authenticated. It
// takes precedence over SetResponse.
func (ms *MockServer) SetHandler(path string, fn http.HandlerFunc) {
	ms.handler.mutex.Lock()
	defer ms.handler.mutex.Unlock()
	ms.handler.handlers[path] = fn
}

// SetDefaultResponse configures the response for unknown paths
func (ms *MockServer) SetDefaultResponse(response *MockResponse) {
	ms.handler.mutex.Lock()
	defer ms.handler.mutex.Unlock()
	ms.handler.defaultResp = response
}

// SetDelay adds delay to all responses
func (ms *MockServer) SetDelay(delay time.Duration) {
	ms.handler.mutex.Lock()
	defer ms.handler.mutex.Unlock()
	ms.handler.delay = delay
}

// AddToken makes the server accept token key with the given secret.
func (ms *MockServer) AddToken(key, secret string) {
	ms.handler.mutex.Lock()
	defer ms.handler.mutex.Unlock()
	ms.handler.tokens[key] = secret
}

// GetRequestLog returns the request log
func (ms *MockServer) GetRequestLog() []RequestEntry {
	ms.logMutex.Lock()
	defer ms.logMutex.Unlock()
	return append([]RequestEntry{}, ms.requestLog...)
}

// GetCallCount returns the number of requests received for a path,
// including rejected ones.
func (ms *MockServer) GetCallCount(path string) int {
	ms.handler.mutex.RLock()
	defer ms.handler.mutex.RUnlock()
	return ms.handler.callCount[path]
}

// TotalCalls returns the number of requests received.
func (ms *MockServer) TotalCalls() int {
	ms.handler.mutex.RLock()
	defer ms.handler.mutex.RUnlock()
	total := 0
	for _, c := range ms.handler.callCount {
		total += c
	}
	return total
}

// ClearLog clears the request log and call counts
func (ms *MockServer) ClearLog() {
	ms.logMutex.Lock()
	ms.requestLog = ms.requestLog[:0]
	ms.logMutex.Unlock()

	ms.handler.mutex.Lock()
	ms.handler.callCount = make(map[string]int)
	ms.handler.mutex.Unlock()
}

func (ms *MockServer) record(entry RequestEntry) {
	ms.logMutex.Lock()
	defer ms.logMutex.Unlock()
	ms.requestLog = append(ms.requestLog, entry)
}

// ServeHTTP implements http.Handler
func (h *MockHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mutex.Lock()
	h.callCount[r.URL.Path]++
	h.mutex.Unlock()

	body, _ := io.ReadAll(r.Body)
	r.Body = io.NopCloser(bytes.NewReader(body))

	entry := RequestEntry{
		Method:    r.Method,
		Path:      r.URL.Path,
		Query:     r.URL.Query(),
		Headers:   r.Header.Clone(),
		Body:      string(body),
		Timestamp: time.Now(),
	}

	oauthParams, err := h.authenticate(r, body)
	entry.OAuth = oauthParams
	if err != nil {
		entry.ResponseCode = http.StatusUnauthorized
		h.server.record(entry)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprintf(w, `{"errors":[{"code":32,"message":%q}]}`, "Could not authenticate you. "+err.Error())
		return
	}

	h.mutex.RLock()
	fn := h.handlers[r.URL.Path]
	response, exists := h.responses[r.URL.Path]
	if !exists {
		response = h.defaultResp
	}
	delay := h.delay
	h.mutex.RUnlock()

	if fn != nil {
		entry.ResponseCode = http.StatusOK
		h.server.record(entry)
		fn(w, r)
		return
	}

	if total := delay + response.Delay; total > 0 {
		select {
		case <-time.After(total):
		case <-r.Context().Done():
			return
		}
	}

	for key, value := range response.Headers {
		w.Header().Set(key, value)
	}
	if w.Header().Get("Content-Type") == "" {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
	}
	w.WriteHeader(response.Status)
	w.Write([]byte(response.Body))

	entry.ResponseCode = response.Status
	h.server.record(entry)
}

// authenticate checks the Authorization header of r. The consumer secret is
// presented with HTTP basic auth on the bearer token endpoints.
func (h *MockHandler) authenticate(r *http.Request, body []byte) (map[string]string, error) {
	header := r.Header.Get("Authorization")

	if strings.HasPrefix(r.URL.Path, "/oauth2/") {
		key, secret, ok := r.BasicAuth()
		if !ok {
			return nil, fmt.Errorf("missing basic credentials")
		}
		key, _ = url.QueryUnescape(key)
		secret, _ = url.QueryUnescape(secret)
		if key != h.creds.ConsumerKey || secret != h.creds.ConsumerSecret {
			return nil, fmt.Errorf("invalid consumer credentials")
		}
		return nil, nil
	}

	if token, ok := strings.CutPrefix(header, "Bearer "); ok {
		h.mutex.RLock()
		known := h.bearers[token]
		h.mutex.RUnlock()
		if !known {
			return nil, fmt.Errorf("invalid bearer token")
		}
		return nil, nil
	}

	oauthParams, err := ParseAuthorizationHeader(header)
	if err != nil {
		return nil, err
	}
	if oauthParams["oauth_consumer_key"] != h.creds.ConsumerKey {
		return oauthParams, fmt.Errorf("unknown consumer key")
	}

	tokenSecret := ""
	if key := oauthParams["oauth_token"]; key != "" {
		h.mutex.RLock()
		secret, ok := h.tokens[key]
		h.mutex.RUnlock()
		if !ok {
			return oauthParams, fmt.Errorf("unknown token")
		}
		tokenSecret = secret
	}

	signed, err := signedParams(r, body, oauthParams)
	if err != nil {
		return oauthParams, err
	}
	requestURL := "http://" + r.Host + r.URL.Path
	want, err := oauth1.NewEngine(h.creds).Signature(r.Method, requestURL, signed, tokenSecret)
	if err != nil {
		return oauthParams, err
	}
	if want != oauthParams["oauth_signature"] {
		return oauthParams, fmt.Errorf("invalid signature")
	}
	return oauthParams, nil
}

// signedParams rebuilds the parameter set covered by the signature: the
// oauth_ header values plus the query and body parameters. Multipart bodies
// are not signed.
func signedParams(r *http.Request, body []byte, oauthParams map[string]string) (map[string]string, error) {
	signed := make(map[string]string, len(oauthParams))
	for k, v := range oauthParams {
		if k != "oauth_signature" {
			signed[k] = v
		}
	}
	for k, values := range r.URL.Query() {
		if len(values) > 0 {
			signed[k] = values[0]
		}
	}

	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		form, err := url.ParseQuery(string(body))
		if err != nil {
			return nil, fmt.Errorf("malformed form body: %w", err)
		}
		for k, values := range form {
			if len(values) > 0 {
				signed[k] = values[0]
			}
		}
	case "application/json":
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		var fields map[string]any
		if err := dec.Decode(&fields); err != nil {
			return nil, fmt.Errorf("malformed JSON body: %w", err)
		}
		for k, v := range fields {
			signed[k] = fmt.Sprint(v)
		}
	}
	return signed, nil
}

// ParseAuthorizationHeader returns the decoded parameters of an OAuth
// Authorization header.
func ParseAuthorizationHeader(header string) (map[string]string, error) {
	rest, ok := strings.CutPrefix(header, "OAuth ")
	if !ok {
		return nil, fmt.Errorf("missing OAuth authorization header")
	}

	params := make(map[string]string)
	for _, part := range strings.Split(rest, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			return nil, fmt.Errorf("malformed authorization component %q", part)
		}
		value = strings.Trim(value, `"`)
		decodedKey, err := url.PathUnescape(key)
		if err != nil {
			return nil, err
		}
		decodedValue, err := url.PathUnescape(value)
		if err != nil {
			return nil, err
		}
		params[decodedKey] = decodedValue
	}
	return params, nil
}

// setupDefaultResponses configures the token endpoints and a few REST
// endpoints with canned responses
func (ms *MockServer) setupDefaultResponses() {
	form := map[string]string{"Content-Type": "application/x-www-form-urlencoded"}

	ms.SetResponse("/oauth/request_token", &MockResponse{
		Status:  http.StatusOK,
		Body:    "oauth_token=" + RequestToken + "&oauth_token_secret=" + RequestTokenSecret + "&oauth_callback_confirmed=true",
		Headers: form,
	})

	ms.SetHandler("/oauth/access_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("oauth_verifier") == "" && !strings.Contains(r.Header.Get("Authorization"), "oauth_verifier") {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"errors":[{"code":89,"message":"Invalid or expired token."}]}`)
			return
		}
		w.Header().Set("Content-Type", "application/x-www-form-urlencoded")
		fmt.Fprint(w, "oauth_token="+AccessToken+"&oauth_token_secret="+AccessTokenSecret+"&user_id=6253282&screen_name=twitterapi")
	})

	ms.SetHandler("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		if r.Form.Get("grant_type") != "client_credentials" {
			w.WriteHeader(http.StatusForbidden)
			fmt.Fprint(w, `{"errors":[{"code":170,"message":"Missing required parameter: grant_type"}]}`)
			return
		}
		ms.handler.mutex.Lock()
		ms.handler.bearers[BearerToken] = true
		ms.handler.mutex.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"token_type":"bearer","access_token":%q}`, BearerToken)
	})

	ms.SetHandler("/oauth2/invalidate_token", func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		token := r.Form.Get("access_token")
		ms.handler.mutex.Lock()
		delete(ms.handler.bearers, token)
		ms.handler.mutex.Unlock()
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprintf(w, `{"access_token":%q}`, token)
	})

	ms.SetResponse("/1.1/account/verify_credentials.json", &MockResponse{
		Status: http.StatusOK,
		Body:   `{"id":6253282,"id_str":"6253282","name":"Twitter API","screen_name":"twitterapi","followers_count":6133636}`,
	})

	ms.SetResponse("/1.1/statuses/home_timeline.json", &MockResponse{
		Status: http.StatusOK,
		Body: `[{"id":850006245121695744,"id_str":"850006245121695744","text":"Hello timeline","created_at":"Thu Apr 06 15:24:15 +0000 2017","user":{"id":6253282,"id_str":"6253282","screen_name":"twitterapi"}},` +
			`{"id":850006245121695745,"id_str":"850006245121695745","text":"Second","created_at":"Thu Apr 06 15:25:15 +0000 2017","user":{"id":6253282,"id_str":"6253282","screen_name":"twitterapi"}}]`,
	})
}

// WaitForRequests waits for a specific number of requests to be made
func (ms *MockServer) WaitForRequests(count int, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for {
		if ms.TotalCalls() >= count {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for %d requests", count)
		case <-ticker.C:
		}
	}
}

// AssertRequestCount asserts that a specific number of requests were made to a path
func (ms *MockServer) AssertRequestCount(path string, expectedCount int) error {
	actualCount := ms.GetCallCount(path)
	if actualCount != expectedCount {
		return fmt.Errorf("expected %d requests to %s, got %d", expectedCount, path, actualCount)
	}
	return nil
}

// GetLastRequest returns the last request made to a specific path
func (ms *MockServer) GetLastRequest(path string) (*RequestEntry, error) {
	ms.logMutex.Lock()
	defer ms.logMutex.Unlock()

	for i := len(ms.requestLog) - 1; i >= 0; i-- {
		if ms.requestLog[i].Path == path {
			entry := ms.requestLog[i]
			return &entry, nil
		}
	}

	return nil, fmt.Errorf("no requests found for path: %s", path)
}
