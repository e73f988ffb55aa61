package twitter

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"

	"github.com/jamesprial/go-twitter-api-wrapper/internal"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
)

const (
	requestTokenPath = "oauth/request_token"
	authorizePath    = "oauth/authorize"
	authenticatePath = "oauth/authenticate"
	accessTokenPath  = "oauth/access_token"

	// OutOfBand is the callback URL for PIN-based authorization.
	OutOfBand = "oob"
)

// RequestToken obtains temporary credentials. The user is then sent to
// AuthorizeURL, and the platform redirects to callbackURL with a verifier.
func (c *Client) RequestToken(ctx context.Context, callbackURL string) (*oauth1.AccessToken, error) {
	if callbackURL == "" {
		return nil, &twerrors.ConfigError{Field: "callbackURL", Message: "callback URL is required (use OutOfBand for PIN-based flows)"}
	}

	spec, err := c.newSpec(http.MethodPost, OAuthBase, requestTokenPath, oauth1.Params{"oauth_callback": callbackURL}, []RequestOption{WithBodyFormat(BodyForm)})
	if err != nil {
		return nil, err
	}

	resp, err := c.engine.Do(ctx, spec, c.tokenSigner(nil))
	if err != nil {
		return nil, err
	}

	tok, err := oauth1.ParseAccessToken(resp.Text())
	if err != nil {
		return nil, err
	}
	c.logger.DebugContext(ctx, "obtained request token", "callback_confirmed", tok.UserInfo["oauth_callback_confirmed"])
	return tok, nil
}

// AuthorizeOption adds a parameter to the authorize URL.
type AuthorizeOption func(url.Values)

// ForceLogin makes the user enter credentials even with an active session.
func ForceLogin() AuthorizeOption {
	return func(v url.Values) { v.Set("force_login", "true") }
}

// ScreenName prefills the user name on the login page.
func ScreenName(name string) AuthorizeOption {
	return func(v url.Values) { v.Set("screen_name", name) }
}

// AuthorizeURL returns the page where the user grants access to requestToken.
func (c *Client) AuthorizeURL(requestToken *oauth1.AccessToken, opts ...AuthorizeOption) string {
	return c.userURL(authorizePath, requestToken, opts)
}

// AuthenticateURL is AuthorizeURL for "Sign in with Twitter": users who
// already granted access are redirected immediately.
func (c *Client) AuthenticateURL(requestToken *oauth1.AccessToken, opts ...AuthorizeOption) string {
	return c.userURL(authenticatePath, requestToken, opts)
}

func (c *Client) userURL(path string, requestToken *oauth1.AccessToken, opts []AuthorizeOption) string {
	u := *c.bases[OAuthBase]
	u.Path += path

	values := url.Values{}
	if requestToken != nil {
		values.Set("oauth_token", requestToken.Key)
	}
	for _, opt := range opts {
		opt(values)
	}
	u.RawQuery = values.Encode()
	return u.String()
}

// ExchangeAccessToken trades an authorized request token, carrying the
// verifier from the callback, for an access token. The access token is
// installed on the client.
//
// A request token without a verifier is rejected with a *errors.ProtocolError
// before any network activity.
func (c *Client) ExchangeAccessToken(ctx context.Context, requestToken *oauth1.AccessToken) (*oauth1.AccessToken, error) {
	if requestToken == nil || requestToken.Key == "" {
		return nil, &twerrors.ProtocolError{Message: "missing request token", Err: twerrors.ErrMissingToken}
	}
	if requestToken.Verifier == "" {
		return nil, &twerrors.ProtocolError{Message: "missing verifier", Err: twerrors.ErrMissingVerifier}
	}

	params := oauth1.Params{
		"oauth_token":    requestToken.Key,
		"oauth_verifier": requestToken.Verifier,
	}
	spec, err := c.newSpec(http.MethodPost, OAuthBase, accessTokenPath, params, []RequestOption{WithBodyFormat(BodyForm)})
	if err != nil {
		return nil, err
	}

	resp, err := c.engine.Do(ctx, spec, c.tokenSigner(requestToken))
	if err != nil {
		return nil, err
	}

	tok, err := oauth1.ParseAccessToken(resp.Text())
	if err != nil {
		return nil, err
	}
	c.SetAccessToken(tok)
	return tok, nil
}

// FlowState is the progress of a three-legged authorization.
type FlowState int

const (
	StateUnauthenticated FlowState = iota
	StateRequestTokenObtained
	StateAwaitingCallback
	StateAccessTokenObtained
)

func (s FlowState) String() string {
	switch s {
	case StateUnauthenticated:
		return "unauthenticated"
	case StateRequestTokenObtained:
		return "request token obtained"
	case StateAwaitingCallback:
		return "awaiting callback"
	case StateAccessTokenObtained:
		return "access token obtained"
	default:
		return fmt.Sprintf("FlowState(%d)", int(s))
	}
}

// Flow drives one three-legged authorization:
//
//	flow := client.NewFlow()
//	authorizeURL, err := flow.Begin(ctx, "http://127.0.0.1:8000/callback")
//	// send the user to authorizeURL; route the redirect to flow.CallbackHandler()
//	token, err := flow.Complete(ctx)
//
// The callback may be delivered from any goroutine. Only the first delivery
// is used.
type Flow struct {
	client *Client
	latch  *internal.CallbackLatch

	mu           sync.Mutex
	state        FlowState
	beginning    bool
	requestToken *oauth1.AccessToken
	accessToken  *oauth1.AccessToken
}

// NewFlow starts a new authorization in StateUnauthenticated.
func (c *Client) NewFlow() *Flow {
	return &Flow{client: c, latch: internal.NewCallbackLatch()}
}

// State returns the current state.
func (f *Flow) State() FlowState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

// RequestToken returns the temporary credentials, or nil before Begin.
func (f *Flow) RequestToken() *oauth1.AccessToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requestToken
}

// Begin obtains a request token and returns the URL the user must visit.
// The flow stays in StateUnauthenticated while the request is in flight;
// a concurrent Begin fails with a *errors.StateError.
func (f *Flow) Begin(ctx context.Context, callbackURL string, opts ...AuthorizeOption) (string, error) {
	f.mu.Lock()
	if f.state != StateUnauthenticated {
		state := f.state
		f.mu.Unlock()
		return "", &twerrors.StateError{Operation: "Begin", Message: "flow already started (" + state.String() + ")"}
	}
	if f.beginning {
		f.mu.Unlock()
		return "", &twerrors.StateError{Operation: "Begin", Message: "request token already being obtained"}
	}
	f.beginning = true
	f.mu.Unlock()

	tok, err := f.client.RequestToken(ctx, callbackURL)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.beginning = false
	if err != nil {
		return "", err
	}
	f.requestToken = tok
	f.state = StateRequestTokenObtained
	return f.client.AuthorizeURL(tok, opts...), nil
}

// HandleCallback delivers the redirect URL that ends the authorization
// step. It reports whether u was accepted; duplicates return false.
func (f *Flow) HandleCallback(u *url.URL) bool {
	if u == nil {
		return false
	}
	return f.latch.Deliver(u)
}

// SubmitVerifier delivers a verifier typed in by the user, for flows using
// the OutOfBand callback.
func (f *Flow) SubmitVerifier(verifier string) bool {
	return f.HandleCallback(&url.URL{Opaque: OutOfBand, RawQuery: url.Values{"oauth_verifier": {verifier}}.Encode()})
}

// CallbackHandler returns an http.Handler for the callback URL. It delivers
// each request's URL to HandleCallback.
func (f *Flow) CallbackHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !f.HandleCallback(r.URL) {
			w.WriteHeader(http.StatusConflict)
			fmt.Fprintln(w, "Authorization callback already received.")
			return
		}
		fmt.Fprintln(w, "Authorization received. You can close this window.")
	})
}

// AwaitCallback blocks until the callback is delivered and returns its
// verifier. Cancelling ctx abandons the wait; the flow can be awaited again.
func (f *Flow) AwaitCallback(ctx context.Context) (string, error) {
	f.mu.Lock()
	switch f.state {
	case StateRequestTokenObtained, StateAwaitingCallback:
		f.state = StateAwaitingCallback
	default:
		state := f.state
		f.mu.Unlock()
		return "", &twerrors.StateError{Operation: "AwaitCallback", Message: "no pending request token (" + state.String() + ")"}
	}
	requestToken := f.requestToken
	f.mu.Unlock()

	u, err := f.latch.Wait(ctx)
	if err != nil {
		return "", err
	}
	return verifierFromCallback(u, requestToken)
}

func verifierFromCallback(u *url.URL, requestToken *oauth1.AccessToken) (string, error) {
	params := oauth1.ParseQueryString(u.RawQuery)

	if _, denied := params["denied"]; denied {
		return "", &twerrors.ProtocolError{Message: "authorization denied by user"}
	}
	if tok, ok := params["oauth_token"]; ok && requestToken != nil && unescape(tok) != requestToken.Key {
		return "", &twerrors.ProtocolError{Message: "callback oauth_token does not match the request token"}
	}

	verifier := unescape(params["oauth_verifier"])
	if verifier == "" {
		return "", &twerrors.ProtocolError{Message: "missing verifier", Err: twerrors.ErrMissingVerifier}
	}
	return verifier, nil
}

func unescape(s string) string {
	if v, err := url.QueryUnescape(s); err == nil {
		return v
	}
	return s
}

// Complete waits for the callback, exchanges the verified request token for
// an access token and installs it on the client.
func (f *Flow) Complete(ctx context.Context) (*oauth1.AccessToken, error) {
	verifier, err := f.AwaitCallback(ctx)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	requestToken := f.requestToken.WithVerifier(verifier)
	f.requestToken = requestToken
	f.mu.Unlock()

	tok, err := f.client.ExchangeAccessToken(ctx, requestToken)
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	f.accessToken = tok
	f.state = StateAccessTokenObtained
	f.mu.Unlock()
	return tok, nil
}

// AccessToken returns the token obtained by Complete, or nil.
func (f *Flow) AccessToken() *oauth1.AccessToken {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accessToken
}

// Authorize runs a whole authorization. open is called with the new flow and
// the authorize URL; it must present the URL to the user and arrange for the
// callback to reach the flow, through HandleCallback, CallbackHandler or
// SubmitVerifier.
func (c *Client) Authorize(ctx context.Context, callbackURL string, open func(flow *Flow, authorizeURL string) error) (*oauth1.AccessToken, error) {
	flow := c.NewFlow()

	authorizeURL, err := flow.Begin(ctx, callbackURL)
	if err != nil {
		return nil, err
	}
	if err := open(flow, authorizeURL); err != nil {
		return nil, fmt.Errorf("opening authorize URL: %w", err)
	}
	return flow.Complete(ctx)
}
