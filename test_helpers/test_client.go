package test_helpers

import (
	"net/http"
	"sync"
	"testing"
	"time"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
)

// FixedTime is the clock used by test clients, so that signatures are
// reproducible.
var FixedTime = time.Unix(1318622958, 0)

// TestClient wraps a client pointed at its own mock server
type TestClient struct {
	*twitter.Client
	mockServer *MockServer
}

// ConfigFor returns a client configuration for server, authorized with the
// test access token. Callers may tweak it before NewClient.
func ConfigFor(server *MockServer) *twitter.Config {
	return &twitter.Config{
		ConsumerKey:       ConsumerKey,
		ConsumerSecret:    ConsumerSecret,
		AccessToken:       AccessToken,
		AccessTokenSecret: AccessTokenSecret,
		UserAgent:         "test-client/1.0",
		BaseURLs: twitter.BaseURLs{
			API:        server.APIURL(),
			Upload:     server.APIURL(),
			Stream:     server.APIURL(),
			UserStream: server.APIURL(),
			SiteStream: server.APIURL(),
			OAuth:      server.URL() + "/",
		},
		HTTPClient: &http.Client{},
		Timeout:    5 * time.Second,
		SignerOptions: []oauth1.Option{
			oauth1.WithClock(func() time.Time { return FixedTime }),
		},
	}
}

// NewTestClient creates a client and a mock server, both closed when the
// test ends. modify, when non-nil, adjusts the configuration first.
func NewTestClient(t testing.TB, modify func(*twitter.Config)) *TestClient {
	t.Helper()

	server := NewMockServer()
	t.Cleanup(server.Close)

	config := ConfigFor(server)
	if modify != nil {
		modify(config)
	}

	client, err := twitter.NewClient(config)
	if err != nil {
		t.Fatalf("failed to create twitter client: %v", err)
	}

	return &TestClient{Client: client, mockServer: server}
}

// MockServer returns the underlying mock server
func (tc *TestClient) MockServer() *MockServer {
	return tc.mockServer
}

// Reset resets the mock server state
func (tc *TestClient) Reset() {
	tc.mockServer.ClearLog()
}

// RunConcurrently runs fn from n goroutines and returns the errors in
// goroutine order.
func RunConcurrently(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(index int) {
			defer wg.Done()
			errs[index] = fn(index)
		}(i)
	}
	wg.Wait()
	return errs
}
