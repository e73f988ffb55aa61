package twitter_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/test_helpers"
)

func TestAuthorizeAppOnly(t *testing.T) {
	tc := newUnauthorizedClient(t)

	token, err := tc.AuthorizeAppOnly(context.Background())
	require.NoError(t, err)
	assert.Equal(t, test_helpers.BearerToken, token)
	assert.Equal(t, test_helpers.BearerToken, tc.BearerToken())

	entry, err := tc.MockServer().GetLastRequest("/oauth2/token")
	require.NoError(t, err)
	assert.Equal(t, "grant_type=client_credentials", entry.Body)
	assert.Equal(t, "test-client/1.0", entry.Headers.Get("User-Agent"))

	// Requests now carry the bearer token instead of a signature.
	_, err = tc.VerifyCredentials(context.Background())
	require.NoError(t, err)

	entry, err = tc.MockServer().GetLastRequest("/1.1/account/verify_credentials.json")
	require.NoError(t, err)
	assert.Equal(t, "Bearer "+test_helpers.BearerToken, entry.Headers.Get("Authorization"))
	assert.Nil(t, entry.OAuth)
}

func TestAuthorizeAppOnly_BadCredentials(t *testing.T) {
	tc := test_helpers.NewTestClient(t, func(c *twitter.Config) {
		c.ConsumerSecret = "wrong"
	})

	_, err := tc.AuthorizeAppOnly(context.Background())
	var statusErr *twerrors.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
	assert.Empty(t, tc.BearerToken())
}

func TestAuthorizeAppOnly_WrongTokenType(t *testing.T) {
	tc := newUnauthorizedClient(t)
	tc.MockServer().SetHandler("/oauth2/token", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"token_type":"mac","access_token":"abc"}`))
	})

	_, err := tc.AuthorizeAppOnly(context.Background())
	var protoErr *twerrors.ProtocolError
	require.ErrorAs(t, err, &protoErr)
	assert.Empty(t, tc.BearerToken())
}

func TestInvalidateBearerToken(t *testing.T) {
	tc := test_helpers.NewTestClient(t, nil)

	_, err := tc.AuthorizeAppOnly(context.Background())
	require.NoError(t, err)

	require.NoError(t, tc.InvalidateBearerToken(context.Background()))
	assert.Empty(t, tc.BearerToken())

	entry, err := tc.MockServer().GetLastRequest("/oauth2/invalidate_token")
	require.NoError(t, err)
	assert.Equal(t, "access_token="+test_helpers.BearerToken, entry.Body)

	// Back to OAuth 1.0a signing with the user token.
	_, err = tc.VerifyCredentials(context.Background())
	require.NoError(t, err)
	entry, err = tc.MockServer().GetLastRequest("/1.1/account/verify_credentials.json")
	require.NoError(t, err)
	assert.Equal(t, test_helpers.AccessToken, entry.OAuth["oauth_token"])
}

func TestInvalidateBearerToken_NoToken(t *testing.T) {
	tc := test_helpers.NewTestClient(t, nil)

	err := tc.InvalidateBearerToken(context.Background())
	var stateErr *twerrors.StateError
	require.ErrorAs(t, err, &stateErr)
	assert.Zero(t, tc.MockServer().TotalCalls())
}

func TestSetBearerToken(t *testing.T) {
	tc := test_helpers.NewTestClient(t, nil)

	tc.SetBearerToken("revoked")
	_, err := tc.VerifyCredentials(context.Background())
	var statusErr *twerrors.HTTPStatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)

	tc.SetBearerToken("")
	_, err = tc.VerifyCredentials(context.Background())
	require.NoError(t, err)
}
