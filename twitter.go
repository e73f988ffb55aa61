package twitter

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/jamesprial/go-twitter-api-wrapper/internal"
	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
)

const (
	// DefaultAPIURL is the base URL of the REST API
	DefaultAPIURL = "https://api.twitter.com/1.1/"
	// DefaultUploadURL is the base URL of the media upload API
	DefaultUploadURL = "https://upload.twitter.com/1.1/"
	// DefaultStreamURL is the base URL of the public streaming API
	DefaultStreamURL = "https://stream.twitter.com/1.1/"
	// DefaultUserStreamURL is the base URL of the user streaming API
	DefaultUserStreamURL = "https://userstream.twitter.com/1.1/"
	// DefaultSiteStreamURL is the base URL of the site streaming API
	DefaultSiteStreamURL = "https://sitestream.twitter.com/1.1/"
	// DefaultOAuthURL is the base URL of the token endpoints
	DefaultOAuthURL = "https://api.twitter.com/"
	// DefaultUserAgent is the default user agent string
	DefaultUserAgent = "go-twitter-api-wrapper/0.1"
	// DefaultTimeout bounds non-streaming requests
	DefaultTimeout = 30 * time.Second
)

// BaseURL selects one of the API hosts.
type BaseURL int

const (
	APIBase BaseURL = iota
	UploadBase
	StreamBase
	UserStreamBase
	SiteStreamBase
	OAuthBase
)

func (b BaseURL) String() string {
	switch b {
	case APIBase:
		return "api"
	case UploadBase:
		return "upload"
	case StreamBase:
		return "stream"
	case UserStreamBase:
		return "userstream"
	case SiteStreamBase:
		return "sitestream"
	case OAuthBase:
		return "oauth"
	default:
		return "unknown"
	}
}

// BaseURLs overrides the API hosts. Empty fields use the defaults.
type BaseURLs struct {
	API        string
	Upload     string
	Stream     string
	UserStream string
	SiteStream string
	OAuth      string
}

// These aliases expose the request engine types.
type (
	// Response is a buffered API response.
	Response = internal.Response
	// Task is an in-flight asynchronous request.
	Task = internal.Task
	// Handlers receive the outcome of an asynchronous request.
	Handlers = internal.Handlers
	// RateLimitConfig enables client-side request pacing.
	RateLimitConfig = internal.RateLimitConfig
	// BodyFormat selects how POST parameters are serialized.
	BodyFormat = internal.BodyFormat
)

const (
	// BodyJSON sends POST parameters as a JSON object.
	BodyJSON = internal.BodyJSON
	// BodyForm sends POST parameters form-encoded.
	BodyForm = internal.BodyForm
)

// Config holds the configuration for the client.
//
// ConsumerKey and ConsumerSecret identify the application and are always
// required. AccessToken and AccessTokenSecret may be set when the user
// token is already known; otherwise obtain one with a Flow.
//
//	config := &Config{
//		ConsumerKey:       "xvz1evFS4wEEPTGEFPHBog",
//		ConsumerSecret:    "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw",
//		AccessToken:       "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb",
//		AccessTokenSecret: "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE",
//	}
type Config struct {
	ConsumerKey    string
	ConsumerSecret string

	// AccessToken and AccessTokenSecret install a user token at creation.
	AccessToken       string
	AccessTokenSecret string

	// UserAgent identifies your application. Defaults to DefaultUserAgent.
	UserAgent string

	// BaseURLs overrides the API hosts, for tests or proxies.
	BaseURLs BaseURLs

	// HTTPClient to use for requests. Defaults to a client without a global
	// timeout so that streams can stay open; see Timeout.
	HTTPClient *http.Client

	// Timeout bounds each non-streaming request. Defaults to DefaultTimeout.
	// A negative value disables it.
	Timeout time.Duration

	// Charset is the text encoding used when percent-encoding parameters.
	// Defaults to UTF-8.
	Charset string

	// BodyFormat of POST parameters for generic requests. Defaults to JSON.
	// The endpoint wrappers always send forms.
	BodyFormat BodyFormat

	// RateLimit enables client-side pacing. Nil disables it.
	RateLimit *RateLimitConfig

	// SignerOptions are passed to the OAuth signing engine, mostly to fix
	// the clock and nonce in tests.
	SignerOptions []oauth1.Option

	// Logger for structured diagnostics. Nil discards output.
	Logger *slog.Logger
}

// Client is the API client. It is safe for concurrent use.
type Client struct {
	config *Config
	signer *oauth1.Engine
	engine *internal.Engine
	bearer *internal.BearerSource
	logger *slog.Logger

	bases map[BaseURL]*url.URL

	bearerToken atomic.Pointer[string]
}

// RequestOption customizes a single request.
type RequestOption func(*internal.RequestSpec)

// WithBodyFormat overrides the body format of a request.
func WithBodyFormat(f BodyFormat) RequestOption {
	return func(s *internal.RequestSpec) { s.BodyFormat = f }
}

// WithHeader adds a header to a request.
func WithHeader(key, value string) RequestOption {
	return func(s *internal.RequestSpec) {
		if s.Header == nil {
			s.Header = http.Header{}
		}
		s.Header.Add(key, value)
	}
}

// WithTimeout overrides the timeout of a request. Zero disables it.
func WithTimeout(d time.Duration) RequestOption {
	return func(s *internal.RequestSpec) { s.Timeout = d }
}

// NewClient creates a client with the provided configuration. It performs no
// network activity.
//
// Returns a *errors.ConfigError if:
//   - config is nil
//   - ConsumerKey or ConsumerSecret are missing
//   - only one of AccessToken and AccessTokenSecret is set
//   - Charset or one of the BaseURLs is invalid
func NewClient(config *Config) (*Client, error) {
	if config == nil {
		return nil, &twerrors.ConfigError{Message: "config cannot be nil"}
	}

	if config.ConsumerKey == "" || config.ConsumerSecret == "" {
		return nil, &twerrors.ConfigError{Field: "ConsumerKey", Message: "ConsumerKey and ConsumerSecret are required"}
	}
	if (config.AccessToken == "") != (config.AccessTokenSecret == "") {
		return nil, &twerrors.ConfigError{Field: "AccessToken", Message: "AccessToken and AccessTokenSecret must be set together"}
	}

	// Set defaults on a copy so the caller's Config is left untouched
	cfg := *config
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}

	encoder, err := oauth1.NewEncoder(cfg.Charset)
	if err != nil {
		return nil, err
	}

	bases, err := parseBaseURLs(cfg.BaseURLs)
	if err != nil {
		return nil, err
	}

	opts := append([]oauth1.Option{oauth1.WithEncoder(encoder)}, cfg.SignerOptions...)
	if cfg.AccessToken != "" {
		opts = append(opts, oauth1.WithToken(oauth1.NewAccessToken(cfg.AccessToken, cfg.AccessTokenSecret)))
	}
	cfg.SignerOptions = opts

	bearer, err := internal.NewBearerSource(cfg.HTTPClient, cfg.ConsumerKey, cfg.ConsumerSecret, cfg.UserAgent, bases[OAuthBase].String())
	if err != nil {
		return nil, err
	}

	return &Client{
		config: &cfg,
		signer: oauth1.NewEngine(oauth1.Credentials{ConsumerKey: cfg.ConsumerKey, ConsumerSecret: cfg.ConsumerSecret}, opts...),
		engine: internal.NewEngine(cfg.HTTPClient, encoder, cfg.UserAgent, cfg.RateLimit, cfg.Logger),
		bearer: bearer,
		logger: cfg.Logger,
		bases:  bases,
	}, nil
}

func parseBaseURLs(overrides BaseURLs) (map[BaseURL]*url.URL, error) {
	raw := map[BaseURL]string{
		APIBase:        firstNonEmpty(overrides.API, DefaultAPIURL),
		UploadBase:     firstNonEmpty(overrides.Upload, DefaultUploadURL),
		StreamBase:     firstNonEmpty(overrides.Stream, DefaultStreamURL),
		UserStreamBase: firstNonEmpty(overrides.UserStream, DefaultUserStreamURL),
		SiteStreamBase: firstNonEmpty(overrides.SiteStream, DefaultSiteStreamURL),
		OAuthBase:      firstNonEmpty(overrides.OAuth, DefaultOAuthURL),
	}

	bases := make(map[BaseURL]*url.URL, len(raw))
	for base, s := range raw {
		u, err := url.Parse(s)
		if err != nil || !u.IsAbs() {
			return nil, &twerrors.ConfigError{Field: "BaseURLs." + base.String(), Message: "invalid base URL " + s}
		}
		if !strings.HasSuffix(u.Path, "/") {
			u.Path += "/"
		}
		bases[base] = u
	}
	return bases, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// Signer returns the OAuth signing engine.
func (c *Client) Signer() *oauth1.Engine {
	return c.signer
}

// AccessToken returns the installed user token, or nil.
func (c *Client) AccessToken() *oauth1.AccessToken {
	return c.signer.Token()
}

// SetAccessToken atomically installs tok. Requests already signing keep the
// token they started with.
func (c *Client) SetAccessToken(tok *oauth1.AccessToken) {
	c.signer.SetToken(tok)
	if tok != nil {
		c.logger.Debug("installed access token", "screen_name", tok.ScreenName, "user_id", tok.UserID)
	}
}

// URL resolves path against a base URL.
func (c *Client) URL(base BaseURL, path string) (string, error) {
	b, ok := c.bases[base]
	if !ok {
		return "", &twerrors.ConfigError{Field: "BaseURL", Message: "unknown base URL " + base.String()}
	}
	u, err := b.Parse(strings.TrimPrefix(path, "/"))
	if err != nil {
		return "", &twerrors.ConfigError{Field: "path", Message: "invalid path " + path + ": " + err.Error()}
	}
	return u.String(), nil
}

// oauthSigner signs with the installed token, or sends the bearer token
// once AuthorizeAppOnly has succeeded.
func (c *Client) oauthSigner() internal.SignFunc {
	return func(method, rawURL string, params oauth1.Params, multipart bool) (string, error) {
		if tok := c.bearerToken.Load(); tok != nil {
			return "Bearer " + *tok, nil
		}
		if multipart {
			return c.signer.MediaAuthorizationHeader(method, rawURL, params)
		}
		return c.signer.AuthorizationHeader(method, rawURL, params)
	}
}

// tokenSigner signs with tok instead of the installed token. It is used by
// the token exchange, whose requests carry temporary credentials.
func (c *Client) tokenSigner(tok *oauth1.AccessToken) internal.SignFunc {
	opts := append(append([]oauth1.Option{}, c.config.SignerOptions...), oauth1.WithToken(tok))
	engine := oauth1.NewEngine(c.signer.Credentials(), opts...)
	return func(method, rawURL string, params oauth1.Params, multipart bool) (string, error) {
		return engine.AuthorizationHeader(method, rawURL, params)
	}
}

func (c *Client) newSpec(method string, base BaseURL, path string, params oauth1.Params, opts []RequestOption) (internal.RequestSpec, error) {
	rawURL, err := c.URL(base, path)
	if err != nil {
		return internal.RequestSpec{}, err
	}

	spec := internal.RequestSpec{
		Method:     method,
		URL:        rawURL,
		Params:     params,
		BodyFormat: c.config.BodyFormat,
	}
	if c.config.Timeout > 0 {
		spec.Timeout = c.config.Timeout
	}
	for _, opt := range opts {
		opt(&spec)
	}
	return spec, nil
}

// Do sends a signed request and returns the buffered response. It makes a
// single attempt.
func (c *Client) Do(ctx context.Context, method string, base BaseURL, path string, params oauth1.Params, opts ...RequestOption) (*Response, error) {
	spec, err := c.newSpec(method, base, path, params, opts)
	if err != nil {
		return nil, err
	}
	return c.engine.Do(ctx, spec, c.oauthSigner())
}

// Get sends a signed GET request.
func (c *Client) Get(ctx context.Context, base BaseURL, path string, params oauth1.Params, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, base, path, params, opts...)
}

// Post sends a signed POST request.
func (c *Client) Post(ctx context.Context, base BaseURL, path string, params oauth1.Params, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, base, path, params, opts...)
}

// JSON sends a signed request and decodes the response body into v.
func (c *Client) JSON(ctx context.Context, method string, base BaseURL, path string, params oauth1.Params, v any, opts ...RequestOption) error {
	resp, err := c.Do(ctx, method, base, path, params, opts...)
	if err != nil {
		return err
	}
	return resp.JSON(v)
}

// Start sends a signed request asynchronously. Setting h.OnChunk streams the
// response as newline-delimited JSON documents; streaming requests have no
// timeout unless one is given with WithTimeout.
func (c *Client) Start(ctx context.Context, method string, base BaseURL, path string, params oauth1.Params, h Handlers, opts ...RequestOption) (*Task, error) {
	spec, err := c.newSpec(method, base, path, params, nil)
	if err != nil {
		return nil, err
	}
	if h.OnChunk != nil {
		spec.Timeout = 0
	}
	for _, opt := range opts {
		opt(&spec)
	}
	return c.engine.Start(ctx, spec, c.oauthSigner(), h), nil
}
