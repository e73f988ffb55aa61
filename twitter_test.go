package twitter_test

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
	"github.com/jamesprial/go-twitter-api-wrapper/test_helpers"
)

func TestNewClient_Validation(t *testing.T) {
	tests := []struct {
		name      string
		config    *twitter.Config
		wantField string
	}{
		{
			name:   "nil config",
			config: nil,
		},
		{
			name:      "missing consumer secret",
			config:    &twitter.Config{ConsumerKey: "key"},
			wantField: "ConsumerKey",
		},
		{
			name:      "access token without secret",
			config:    &twitter.Config{ConsumerKey: "key", ConsumerSecret: "secret", AccessToken: "token"},
			wantField: "AccessToken",
		},
		{
			name:      "relative base URL",
			config:    &twitter.Config{ConsumerKey: "key", ConsumerSecret: "secret", BaseURLs: twitter.BaseURLs{API: "/1.1/"}},
			wantField: "BaseURLs.api",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := twitter.NewClient(tt.config)
			require.Error(t, err)
			assert.Nil(t, client)

			var configErr *twerrors.ConfigError
			require.ErrorAs(t, err, &configErr)
			assert.Equal(t, tt.wantField, configErr.Field)
		})
	}
}

func TestNewClient_UnknownCharset(t *testing.T) {
	_, err := twitter.NewClient(&twitter.Config{ConsumerKey: "key", ConsumerSecret: "secret", Charset: "no-such-charset"})
	var configErr *twerrors.ConfigError
	require.ErrorAs(t, err, &configErr)
}

func TestNewClient_LeavesConfigUntouched(t *testing.T) {
	config := &twitter.Config{ConsumerKey: "key", ConsumerSecret: "secret"}

	client, err := twitter.NewClient(config)
	require.NoError(t, err)
	require.NotNil(t, client)

	assert.Empty(t, config.UserAgent)
	assert.Nil(t, config.HTTPClient)
	assert.Nil(t, config.Logger)
	assert.Nil(t, client.AccessToken())
}

func TestNewClient_NoNetworkActivity(t *testing.T) {
	var calls atomic.Int32
	httpClient := &http.Client{Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
		calls.Add(1)
		return nil, errors.New("unexpected request")
	})}

	_, err := twitter.NewClient(&twitter.Config{ConsumerKey: "key", ConsumerSecret: "secret", HTTPClient: httpClient})
	require.NoError(t, err)
	assert.Zero(t, calls.Load())
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func TestClient_URL(t *testing.T) {
	client, err := twitter.NewClient(&twitter.Config{ConsumerKey: "key", ConsumerSecret: "secret"})
	require.NoError(t, err)

	tests := []struct {
		base twitter.BaseURL
		path string
		want string
	}{
		{twitter.APIBase, "statuses/home_timeline.json", "https://api.twitter.com/1.1/statuses/home_timeline.json"},
		{twitter.APIBase, "/statuses/home_timeline.json", "https://api.twitter.com/1.1/statuses/home_timeline.json"},
		{twitter.UploadBase, "media/upload.json", "https://upload.twitter.com/1.1/media/upload.json"},
		{twitter.StreamBase, "statuses/filter.json", "https://stream.twitter.com/1.1/statuses/filter.json"},
		{twitter.OAuthBase, "oauth/request_token", "https://api.twitter.com/oauth/request_token"},
	}

	for _, tt := range tests {
		t.Run(tt.base.String()+" "+tt.path, func(t *testing.T) {
			got, err := client.URL(tt.base, tt.path)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = client.URL(twitter.BaseURL(99), "x")
	var configErr *twerrors.ConfigError
	assert.ErrorAs(t, err, &configErr)
}

func TestClient_SignedRequestAccepted(t *testing.T) {
	tc := test_helpers.NewTestClient(t, nil)

	user, err := tc.VerifyCredentials(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "twitterapi", user.ScreenName)
	assert.Equal(t, int64(6253282), user.ID)

	entry, err := tc.MockServer().GetLastRequest("/1.1/account/verify_credentials.json")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, entry.Method)
	assert.Equal(t, "true", entry.Query.Get("skip_status"))
	assert.Equal(t, test_helpers.AccessToken, entry.OAuth["oauth_token"])
	assert.Equal(t, "HMAC-SHA1", entry.OAuth["oauth_signature_method"])
	assert.Equal(t, "1.0", entry.OAuth["oauth_version"])
	assert.Equal(t, "1318622958", entry.OAuth["oauth_timestamp"])
	assert.Equal(t, "test-client/1.0", entry.Headers.Get("User-Agent"))
}

func TestClient_WrongSecretRejected(t *testing.T) {
	tc := test_helpers.NewTestClient(t, func(c *twitter.Config) {
		c.ConsumerSecret = "wrong"
	})

	_, err := tc.VerifyCredentials(context.Background())
	require.Error(t, err)

	var statusErr *twerrors.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Equal(t, "Unauthorized", statusErr.Reason)
	assert.Equal(t, 32, statusErr.ErrorCode)
	assert.Contains(t, statusErr.Message, "invalid signature")
}

func TestClient_PostBodyFormats(t *testing.T) {
	tests := []struct {
		name        string
		format      twitter.BodyFormat
		contentType string
		body        string
	}{
		{"json", twitter.BodyJSON, "application/json; charset=utf-8", `{"count":3,"name":"a b"}`},
		{"form", twitter.BodyForm, "application/x-www-form-urlencoded; charset=utf-8", "count=3&name=a%20b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tc := test_helpers.NewTestClient(t, func(c *twitter.Config) {
				c.BodyFormat = tt.format
			})
			tc.MockServer().SetResponse("/1.1/things/create.json", &test_helpers.MockResponse{Status: http.StatusOK, Body: `{"ok":true}`})

			resp, err := tc.Post(context.Background(), twitter.APIBase, "things/create.json", oauth1.Params{"name": "a b", "count": 3})
			require.NoError(t, err)
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var out struct {
				OK bool `json:"ok"`
			}
			require.NoError(t, resp.JSON(&out))
			assert.True(t, out.OK)

			entry, err := tc.MockServer().GetLastRequest("/1.1/things/create.json")
			require.NoError(t, err)
			assert.Equal(t, tt.contentType, entry.Headers.Get("Content-Type"))
			if tt.format == twitter.BodyJSON {
				assert.JSONEq(t, tt.body, entry.Body)
			} else {
				assert.Equal(t, tt.body, entry.Body)
			}
			assert.Empty(t, entry.Query)
		})
	}
}

func TestClient_OAuthParamsNeverSentInBody(t *testing.T) {
	tc := test_helpers.NewTestClient(t, nil)
	tc.MockServer().SetResponse("/1.1/things/create.json", &test_helpers.MockResponse{Status: http.StatusOK, Body: `{}`})

	_, err := tc.Post(context.Background(), twitter.APIBase, "things/create.json",
		oauth1.Params{"name": "x", "oauth_callback": "oob"}, twitter.WithBodyFormat(twitter.BodyForm))
	require.NoError(t, err)

	entry, err := tc.MockServer().GetLastRequest("/1.1/things/create.json")
	require.NoError(t, err)
	assert.Equal(t, "name=x", entry.Body)
	assert.Equal(t, "oob", entry.OAuth["oauth_callback"])
}

func TestClient_Timeout(t *testing.T) {
	tc := test_helpers.NewTestClient(t, func(c *twitter.Config) {
		c.Timeout = 50 * time.Millisecond
	})
	tc.MockServer().SetDelay(time.Second)

	_, err := tc.VerifyCredentials(context.Background())
	var netErr *twerrors.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClient_EmptyBodyDecodesAsObject(t *testing.T) {
	tc := test_helpers.NewTestClient(t, nil)
	tc.MockServer().SetResponse("/1.1/empty.json", &test_helpers.MockResponse{Status: http.StatusOK})

	var out map[string]any
	err := tc.JSON(context.Background(), http.MethodGet, twitter.APIBase, "empty.json", nil, &out)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestClient_SetAccessTokenSnapshot(t *testing.T) {
	tc := test_helpers.NewTestClient(t, func(c *twitter.Config) {
		c.Logger = slog.New(slog.DiscardHandler)
	})
	tc.MockServer().AddToken("second_token", "second_secret")

	tc.SetAccessToken(oauth1.NewAccessToken("second_token", "second_secret"))
	assert.Equal(t, "second_token", tc.AccessToken().Key)

	_, err := tc.VerifyCredentials(context.Background())
	require.NoError(t, err)

	entry, err := tc.MockServer().GetLastRequest("/1.1/account/verify_credentials.json")
	require.NoError(t, err)
	assert.Equal(t, "second_token", entry.OAuth["oauth_token"])
}

func TestClient_ConcurrentRequests(t *testing.T) {
	tc := test_helpers.NewTestClient(t, nil)

	errs := test_helpers.RunConcurrently(10, func(int) error {
		_, err := tc.VerifyCredentials(context.Background())
		return err
	})
	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.NoError(t, tc.MockServer().AssertRequestCount("/1.1/account/verify_credentials.json", 10))
}

func TestClient_StartBuffered(t *testing.T) {
	tc := test_helpers.NewTestClient(t, nil)

	got := make(chan *twitter.Response, 1)
	task, err := tc.Start(context.Background(), http.MethodGet, twitter.APIBase, "account/verify_credentials.json", nil, twitter.Handlers{
		OnSuccess: func(resp *twitter.Response) { got <- resp },
		OnFailure: func(err error) { t.Errorf("unexpected failure: %v", err) },
	})
	require.NoError(t, err)
	require.NoError(t, task.Wait())

	select {
	case resp := <-got:
		assert.True(t, strings.Contains(resp.Text(), "twitterapi"))
	default:
		t.Fatal("OnSuccess was not called before Wait returned")
	}
}
