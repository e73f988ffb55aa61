package adversarial_tests

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/jamesprial/go-twitter-api-wrapper/adversarial_tests/helpers"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/validation"
	"github.com/jamesprial/go-twitter-api-wrapper/test_helpers"
)

// TestScreenNameValidation_Fuzzed rejects every hostile screen name
func TestScreenNameValidation_Fuzzed(t *testing.T) {
	f := helpers.NewFuzzer(3)

	for _, name := range f.FuzzScreenName() {
		if validation.IsValidScreenName(name) {
			t.Errorf("IsValidScreenName(%q) = true, want false", name)
		}
	}
}

// TestUserTimeline_HostileScreenNamesNeverSent checks that invalid screen
// names fail locally, without a request
func TestUserTimeline_HostileScreenNamesNeverSent(t *testing.T) {
	client := test_helpers.NewTestClient(t, nil)
	f := helpers.NewFuzzer(5)

	for _, name := range f.FuzzScreenName() {
		if name == "" {
			continue
		}
		_, err := client.UserTimeline(context.Background(), &types.TimelineRequest{ScreenName: name})
		var configErr *twerrors.ConfigError
		if !errors.As(err, &configErr) {
			t.Errorf("UserTimeline(%q): expected ConfigError, got %v", name, err)
		}
	}

	if n := client.MockServer().TotalCalls(); n != 0 {
		t.Errorf("expected no requests, got %d", n)
	}
}

// TestTweetLength_CountsCharactersNotBytes checks the length limit with
// multi-byte text
func TestTweetLength_CountsCharactersNotBytes(t *testing.T) {
	testCases := []struct {
		name    string
		status  string
		wantErr bool
	}{
		{"ascii at limit", strings.Repeat("a", validation.MaxTweetLength), false},
		{"ascii over limit", strings.Repeat("a", validation.MaxTweetLength+1), true},
		{"two-byte at limit", strings.Repeat("é", validation.MaxTweetLength), false},
		{"three-byte at limit", strings.Repeat("日", validation.MaxTweetLength), false},
		{"four-byte at limit", strings.Repeat("🚀", validation.MaxTweetLength), false},
		{"four-byte over limit", strings.Repeat("🚀", validation.MaxTweetLength+1), true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validation.ValidateTweetRequest(&types.TweetRequest{Status: tc.status})
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// TestTweetRequest_HostileMediaIDs rejects media IDs that could smuggle
// extra parameters
func TestTweetRequest_HostileMediaIDs(t *testing.T) {
	ids := []string{
		"",
		"123,456",
		"123&status=forged",
		"-1",
		"1e10",
		" 123",
		"123\n",
		"０１２", // full-width digits
	}

	for _, id := range ids {
		err := validation.ValidateTweetRequest(&types.TweetRequest{Status: "hello", MediaIDs: []string{id}})
		if err == nil {
			t.Errorf("media ID %q was accepted", id)
		}
	}
}

// TestFilterStreamRequest_Limits checks predicate limits at their
// boundaries
func TestFilterStreamRequest_Limits(t *testing.T) {
	repeat := func(s string, n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = s
		}
		return out
	}

	testCases := []struct {
		name    string
		request *types.FilterStreamRequest
		wantErr bool
	}{
		{"nil", nil, true},
		{"no predicates", &types.FilterStreamRequest{}, true},
		{"track at limit", &types.FilterStreamRequest{Track: repeat("go", validation.MaxTrackKeywords)}, false},
		{"track over limit", &types.FilterStreamRequest{Track: repeat("go", validation.MaxTrackKeywords+1)}, true},
		{"follow at limit", &types.FilterStreamRequest{Follow: repeat("6253282", validation.MaxFollowIDs)}, false},
		{"follow over limit", &types.FilterStreamRequest{Follow: repeat("6253282", validation.MaxFollowIDs+1)}, true},
		{"follow not numeric", &types.FilterStreamRequest{Follow: []string{"twitterapi"}}, true},
		{"locations not a box", &types.FilterStreamRequest{Locations: []string{"-122.75", "36.8", "-121.75"}}, true},
		{"locations not numbers", &types.FilterStreamRequest{Locations: []string{"a", "b", "c", "d"}}, true},
		{"locations valid", &types.FilterStreamRequest{Locations: []string{"-122.75", "36.8", "-121.75", "37.8"}}, false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := validation.ValidateFilterStreamRequest(tc.request)
			if tc.wantErr && err == nil {
				t.Error("expected error, got nil")
			}
			if !tc.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}
