package twitter_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/test_helpers"
)

const verifyPath = "account/verify_credentials.json"

func newRateLimitedClient(t *testing.T, requestsPerMinute float64, burst int) *test_helpers.TestClient {
	return test_helpers.NewTestClient(t, func(c *twitter.Config) {
		c.RateLimit = &twitter.RateLimitConfig{RequestsPerMinute: requestsPerMinute, Burst: burst}
	})
}

// TestRateLimit_PacesRequests checks that requests past the burst wait for
// the limiter
func TestRateLimit_PacesRequests(t *testing.T) {
	// 10 requests per second after a burst of 2
	client := newRateLimitedClient(t, 600, 2)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 6; i++ {
		if _, err := client.Get(ctx, twitter.APIBase, verifyPath, nil); err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
	}
	elapsed := time.Since(start)

	// Four paced requests at 100ms each
	if elapsed < 350*time.Millisecond {
		t.Errorf("Requests completed too quickly (%v), rate limiting may not be working", elapsed)
	}
	t.Logf("Completed 6 requests in %v", elapsed)
}

// TestRateLimit_BurstIsImmediate checks that a burst is not delayed
func TestRateLimit_BurstIsImmediate(t *testing.T) {
	// One request per second, but a burst of 5
	client := newRateLimitedClient(t, 60, 5)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 5; i++ {
		if _, err := client.Get(ctx, twitter.APIBase, verifyPath, nil); err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Burst took %v, expected no pacing", elapsed)
	}
}

// TestRateLimit_ConcurrentRequestsShareLimiter checks that goroutines draw
// from a single limiter
func TestRateLimit_ConcurrentRequestsShareLimiter(t *testing.T) {
	// 20 requests per second, no burst beyond the first
	client := newRateLimitedClient(t, 1200, 1)
	ctx := context.Background()

	const numRequests = 10
	var wg sync.WaitGroup
	errs := make(chan error, numRequests)

	start := time.Now()
	for i := 0; i < numRequests; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.VerifyCredentials(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	elapsed := time.Since(start)

	for err := range errs {
		t.Errorf("Request failed: %v", err)
	}
	// Nine paced requests at 50ms each
	if elapsed < 400*time.Millisecond {
		t.Errorf("Concurrent requests completed too quickly (%v)", elapsed)
	}
	if calls := client.MockServer().GetCallCount("/1.1/" + verifyPath); calls != numRequests {
		t.Errorf("Expected %d requests, got %d", numRequests, calls)
	}
}

// TestRateLimit_WaitRespectsContext checks that a request waiting for the
// limiter gives up with its context and is never sent
func TestRateLimit_WaitRespectsContext(t *testing.T) {
	// One request per minute
	client := newRateLimitedClient(t, 1, 1)

	if _, err := client.VerifyCredentials(context.Background()); err != nil {
		t.Fatalf("First request failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.VerifyCredentials(ctx)
	if err == nil {
		t.Fatal("Expected an error while waiting for the limiter")
	}
	var netErr *twerrors.NetworkError
	if !errors.As(err, &netErr) {
		t.Errorf("Expected NetworkError, got %T: %v", err, err)
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Limiter wait ignored the context deadline (%v)", elapsed)
	}
	if calls := client.MockServer().TotalCalls(); calls != 1 {
		t.Errorf("Expected only the first request to be sent, got %d", calls)
	}
}

// TestRateLimit_ServerLimitSurfaced checks that a 429 is reported as-is and
// never retried
func TestRateLimit_ServerLimitSurfaced(t *testing.T) {
	client := test_helpers.NewTestClient(t, nil)
	client.MockServer().SetResponse("/1.1/statuses/home_timeline.json", &test_helpers.MockResponse{
		Status: http.StatusTooManyRequests,
		Body:   `{"errors":[{"code":88,"message":"Rate limit exceeded"}]}`,
		Headers: map[string]string{
			"x-rate-limit-limit":     "15",
			"x-rate-limit-remaining": "0",
			"x-rate-limit-reset":     "1318623858",
		},
	})

	_, err := client.HomeTimeline(context.Background(), nil)
	var statusErr *twerrors.HTTPStatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected HTTPStatusError, got %T: %v", err, err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("Expected status 429, got %d", statusErr.StatusCode)
	}
	if statusErr.ErrorCode != 88 || statusErr.Message != "Rate limit exceeded" {
		t.Errorf("Unexpected platform error: %d %q", statusErr.ErrorCode, statusErr.Message)
	}
	if calls := client.MockServer().TotalCalls(); calls != 1 {
		t.Errorf("Expected a single attempt, got %d", calls)
	}
}

// TestRateLimit_Disabled checks that a nil RateLimit sends requests back to
// back
func TestRateLimit_Disabled(t *testing.T) {
	client := test_helpers.NewTestClient(t, nil)
	ctx := context.Background()

	start := time.Now()
	for i := 0; i < 20; i++ {
		if _, err := client.Get(ctx, twitter.APIBase, verifyPath, nil); err != nil {
			t.Fatalf("Request %d failed: %v", i, err)
		}
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("Unlimited client took %v for 20 requests", elapsed)
	}
}
