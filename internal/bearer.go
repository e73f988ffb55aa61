package internal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
)

const (
	defaultTokenEndpointPath      = "oauth2/token"
	defaultInvalidateEndpointPath = "oauth2/invalidate_token"
)

// BearerSource obtains and invalidates application-only bearer tokens with
// the OAuth 2 client credentials grant.
type BearerSource struct {
	client        *http.Client
	config        clientcredentials.Config
	userAgent     string
	invalidateURL *url.URL
}

// NewBearerSource creates a bearer token source for the consumer credentials.
// baseURL is the root of the oauth endpoints.
func NewBearerSource(httpClient *http.Client, consumerKey, consumerSecret, userAgent, baseURL string) (*BearerSource, error) {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, &twerrors.ConfigError{Field: "BaseURLs.OAuth", Message: fmt.Sprintf("failed to parse base URL: %v", err)}
	}
	if !strings.HasSuffix(parsedURL.Path, "/") {
		parsedURL.Path += "/"
	}

	tokenURL, err := parsedURL.Parse(defaultTokenEndpointPath)
	if err != nil {
		return nil, &twerrors.ConfigError{Field: "BaseURLs.OAuth", Message: fmt.Sprintf("failed to resolve token endpoint: %v", err)}
	}
	invalidateURL, err := parsedURL.Parse(defaultInvalidateEndpointPath)
	if err != nil {
		return nil, &twerrors.ConfigError{Field: "BaseURLs.OAuth", Message: fmt.Sprintf("failed to resolve invalidate endpoint: %v", err)}
	}

	return &BearerSource{
		client: httpClient,
		config: clientcredentials.Config{
			ClientID:     consumerKey,
			ClientSecret: consumerSecret,
			TokenURL:     tokenURL.String(),
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		userAgent:     userAgent,
		invalidateURL: invalidateURL,
	}, nil
}

// TokenURL returns the endpoint used to obtain tokens.
func (b *BearerSource) TokenURL() string {
	return b.config.TokenURL
}

// Token performs the client credentials grant and returns the bearer token.
func (b *BearerSource) Token(ctx context.Context) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, b.clientWithUserAgent())

	tok, err := b.config.Token(ctx)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			if retrieveErr.Response.StatusCode >= http.StatusBadRequest {
				return "", newStatusError(retrieveErr.Response.StatusCode, retrieveErr.Body)
			}
			return "", &twerrors.ProtocolError{Message: "malformed bearer token response", Body: string(retrieveErr.Body), Err: err}
		}
		if strings.Contains(err.Error(), "missing access_token") {
			return "", &twerrors.ProtocolError{Message: "access token was empty in response", Err: twerrors.ErrMissingToken}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &twerrors.NetworkError{Operation: http.MethodPost, URL: b.config.TokenURL, Err: err}
	}

	if !strings.EqualFold(tok.TokenType, "bearer") {
		return "", &twerrors.ProtocolError{Message: fmt.Sprintf("unexpected token type %q", tok.TokenType)}
	}
	if tok.AccessToken == "" {
		return "", &twerrors.ProtocolError{Message: "access token was empty in response", Err: twerrors.ErrMissingToken}
	}
	return tok.AccessToken, nil
}

type invalidateResponse struct {
	AccessToken string `json:"access_token"`
}

// Invalidate revokes token. It returns the token the server reports as
// invalidated.
func (b *BearerSource) Invalidate(ctx context.Context, token string) (string, error) {
	form := url.Values{"access_token": {token}}
	endpoint := b.invalidateURL.String()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &twerrors.ConfigError{Field: "BaseURLs.OAuth", Message: err.Error()}
	}

	req.SetBasicAuth(url.QueryEscape(b.config.ClientID), url.QueryEscape(b.config.ClientSecret))
	if b.userAgent != "" {
		req.Header.Set("User-Agent", b.userAgent)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded;charset=UTF-8")

	resp, err := b.client.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return "", &twerrors.NetworkError{Operation: http.MethodPost, URL: endpoint, Err: err}
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &twerrors.NetworkError{Operation: http.MethodPost, URL: endpoint, Err: err}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return "", newStatusError(resp.StatusCode, bodyBytes)
	}

	var parsed invalidateResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", twerrors.NewDecodingError("invalidate bearer token", bodyBytes, err)
	}
	return parsed.AccessToken, nil
}

// clientWithUserAgent returns the HTTP client, decorated to send the
// configured User-Agent.
func (b *BearerSource) clientWithUserAgent() *http.Client {
	if b.userAgent == "" {
		return b.client
	}
	transport := b.client.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	c := *b.client
	c.Transport = userAgentTransport{base: transport, userAgent: b.userAgent}
	return &c
}

type userAgentTransport struct {
	base      http.RoundTripper
	userAgent string
}

func (t userAgentTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return t.base.RoundTrip(req)
	}
	clone := req.Clone(req.Context())
	clone.Header.Set("User-Agent", t.userAgent)
	return t.base.RoundTrip(clone)
}
