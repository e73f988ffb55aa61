package twitter_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"testing"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/test_generators"
	"github.com/jamesprial/go-twitter-api-wrapper/test_helpers"
)

const verifyCredentialsPath = "/1.1/account/verify_credentials.json"

func respondWith(t *testing.T, path string, resp *test_helpers.MockResponse) *test_helpers.TestClient {
	t.Helper()
	client := test_helpers.NewTestClient(t, nil)
	client.MockServer().SetResponse(path, resp)
	return client
}

// TestMalformedJSONResponse tests handling of malformed JSON responses
func TestMalformedJSONResponse(t *testing.T) {
	client := respondWith(t, verifyCredentialsPath, &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   `{"id": 6253282, "screen_name": "twitterapi", "status": {`,
	})

	_, err := client.VerifyCredentials(context.Background())
	if err == nil {
		t.Fatal("Expected error for malformed JSON, but got none")
	}

	var decodeErr *twerrors.DecodingError
	if !errors.As(err, &decodeErr) {
		t.Fatalf("Expected DecodingError, got %T: %v", err, err)
	}
	if !strings.HasPrefix(decodeErr.Data, `{"id": 6253282`) {
		t.Errorf("Expected the offending payload in the error, got %q", decodeErr.Data)
	}
}

// TestEmptyResponse tests handling of completely empty responses
func TestEmptyResponse(t *testing.T) {
	client := respondWith(t, "/1.1/account/settings.json", &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   "",
	})

	resp, err := client.Get(context.Background(), twitter.APIBase, "account/settings.json", nil)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var settings map[string]any
	if err := resp.JSON(&settings); err != nil {
		t.Fatalf("Empty body should decode as an empty object: %v", err)
	}
	if settings == nil || len(settings) != 0 {
		t.Errorf("Expected an empty object, got %v", settings)
	}
}

// TestUnexpectedResponseStructure tests decoding a tweet list where an
// object is returned
func TestUnexpectedResponseStructure(t *testing.T) {
	client := respondWith(t, "/1.1/statuses/home_timeline.json", &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   `{"unexpected_field": "value", "nested": {"wrong_structure": ["item1", "item2"]}}`,
	})

	_, err := client.HomeTimeline(context.Background(), nil)
	var decodeErr *twerrors.DecodingError
	if !errors.As(err, &decodeErr) {
		t.Errorf("Expected DecodingError for unexpected structure, got %T: %v", err, err)
	}
}

// TestNullFieldsInResponse tests handling of null fields in otherwise valid responses
func TestNullFieldsInResponse(t *testing.T) {
	client := respondWith(t, verifyCredentialsPath, &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   `{"id_str": "6253282", "name": null, "screen_name": "twitterapi", "followers_count": null, "created_at": null, "description": "valid description"}`,
	})

	user, err := client.VerifyCredentials(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error handling null fields: %v", err)
	}

	if user.Name != "" {
		t.Errorf("Expected empty name for null field, got: %s", user.Name)
	}
	if user.FollowersCount != 0 {
		t.Errorf("Expected 0 followers for null field, got: %d", user.FollowersCount)
	}
	if !user.CreatedAt.IsZero() {
		t.Errorf("Expected zero created_at for null field, got: %v", user.CreatedAt)
	}

	// Valid fields are still parsed
	if user.Description != "valid description" || user.ScreenName != "twitterapi" {
		t.Errorf("Valid fields lost: %+v", user)
	}
}

// TestVeryLargeResponse tests decoding a full page of large tweets
func TestVeryLargeResponse(t *testing.T) {
	body, tweets := test_generators.NewTweetGenerator(99).GenerateTimelineJSON(1000)
	client := respondWith(t, "/1.1/statuses/home_timeline.json", &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   body,
	})

	got, err := client.HomeTimeline(context.Background(), nil)
	if err != nil {
		t.Fatalf("Failed to decode large response: %v", err)
	}
	if len(got) != len(tweets) {
		t.Fatalf("Expected %d tweets, got %d", len(tweets), len(got))
	}
	if got[999].IDStr != tweets[999].IDStr {
		t.Errorf("Last tweet mismatch: %s != %s", got[999].IDStr, tweets[999].IDStr)
	}
}

// TestUnicodeAndSpecialCharacters tests that text survives decoding intact
func TestUnicodeAndSpecialCharacters(t *testing.T) {
	texts := []string{
		"日本語のツイート",
		"emoji 🚀🔥 and ZWJ 👩‍💻",
		`quotes " and backslashes \ and <html> & entities`,
		"right-to-left \u202e text",
		"newline\nand tab\t",
	}

	for _, text := range texts {
		data, _ := json.Marshal([]map[string]any{{"id_str": "1", "full_text": text}})
		client := respondWith(t, "/1.1/statuses/home_timeline.json", &test_helpers.MockResponse{
			Status: http.StatusOK,
			Body:   string(data),
		})

		tweets, err := client.HomeTimeline(context.Background(), nil)
		if err != nil {
			t.Fatalf("Failed to decode %q: %v", text, err)
		}
		if len(tweets) != 1 || tweets[0].Content() != text {
			t.Errorf("Text mangled: got %+v, want %q", tweets, text)
		}
	}
}

// TestResponseWithExtraFields tests that unknown fields are ignored
func TestResponseWithExtraFields(t *testing.T) {
	client := respondWith(t, verifyCredentialsPath, &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   `{"id": 6253282, "screen_name": "twitterapi", "entities": {"url": {"urls": []}}, "withheld_in_countries": ["DE"], "new_field_2030": true}`,
	})

	user, err := client.VerifyCredentials(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error with extra fields: %v", err)
	}
	if user.ID != 6253282 {
		t.Errorf("Expected id 6253282, got %d", user.ID)
	}
}

// TestResponseWithWrongTypes tests fields whose types differ from the
// documented ones
func TestResponseWithWrongTypes(t *testing.T) {
	testCases := []struct {
		name string
		body string
	}{
		{"string count", `{"followers_count": "many"}`},
		{"numeric name", `{"screen_name": 12345}`},
		{"bad created_at", `{"created_at": "yesterday"}`},
		{"numeric created_at", `{"created_at": 1318622958}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := respondWith(t, verifyCredentialsPath, &test_helpers.MockResponse{
				Status: http.StatusOK,
				Body:   tc.body,
			})

			_, err := client.VerifyCredentials(context.Background())
			var decodeErr *twerrors.DecodingError
			if !errors.As(err, &decodeErr) {
				t.Errorf("Expected DecodingError, got %T: %v", err, err)
			}
		})
	}
}

// TestResponseWithNewlinesAndWhitespace tests bodies padded with whitespace
func TestResponseWithNewlinesAndWhitespace(t *testing.T) {
	client := respondWith(t, verifyCredentialsPath, &test_helpers.MockResponse{
		Status: http.StatusOK,
		Body:   "\r\n\n  {\n  \"screen_name\" : \"twitterapi\"\n}\n\n",
	})

	user, err := client.VerifyCredentials(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if user.ScreenName != "twitterapi" {
		t.Errorf("Expected twitterapi, got %q", user.ScreenName)
	}
}

// TestResponseCharset tests that Text honors the declared charset
func TestResponseCharset(t *testing.T) {
	testCases := []struct {
		name        string
		contentType string
		body        string
		want        string
	}{
		{"utf-8", "text/plain; charset=utf-8", "café", "café"},
		{"latin-1", "text/plain; charset=iso-8859-1", "caf\xe9", "café"},
		{"windows-1252", "text/plain; charset=windows-1252", "\x93quoted\x94", "“quoted”"},
		{"undeclared", "text/plain", "café", "café"},
		{"unknown charset", "text/plain; charset=x-klingon", "plain", "plain"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := respondWith(t, "/1.1/help/privacy.json", &test_helpers.MockResponse{
				Status:  http.StatusOK,
				Body:    tc.body,
				Headers: map[string]string{"Content-Type": tc.contentType},
			})

			resp, err := client.Get(context.Background(), twitter.APIBase, "help/privacy.json", nil)
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got := resp.Text(); got != tc.want {
				t.Errorf("Text() = %q, want %q", got, tc.want)
			}
		})
	}
}

// TestErrorResponseBodies tests the platform error formats
func TestErrorResponseBodies(t *testing.T) {
	testCases := []struct {
		name        string
		status      int
		body        string
		wantCode    int
		wantMessage string
	}{
		{"errors array", http.StatusForbidden, `{"errors":[{"code":187,"message":"Status is a duplicate."}]}`, 187, "Status is a duplicate."},
		{"error string", http.StatusUnauthorized, `{"error":"Not authorized."}`, 0, "Not authorized."},
		{"html", http.StatusBadGateway, `<html><body>Bad Gateway</body></html>`, 0, ""},
		{"empty", http.StatusServiceUnavailable, ``, 0, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := respondWith(t, verifyCredentialsPath, &test_helpers.MockResponse{
				Status: tc.status,
				Body:   tc.body,
			})

			_, err := client.VerifyCredentials(context.Background())
			var statusErr *twerrors.HTTPStatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("Expected HTTPStatusError, got %T: %v", err, err)
			}
			if statusErr.StatusCode != tc.status {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tc.status)
			}
			if statusErr.Reason != http.StatusText(tc.status) {
				t.Errorf("Reason = %q, want %q", statusErr.Reason, http.StatusText(tc.status))
			}
			if statusErr.ErrorCode != tc.wantCode || statusErr.Message != tc.wantMessage {
				t.Errorf("Platform error = %d %q, want %d %q", statusErr.ErrorCode, statusErr.Message, tc.wantCode, tc.wantMessage)
			}
			if statusErr.Body != tc.body {
				t.Errorf("Body = %q, want %q", statusErr.Body, tc.body)
			}
		})
	}
}
