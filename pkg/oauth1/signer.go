// Package oauth1 implements OAuth 1.0a request signing with HMAC-SHA1
// (RFC 5849) together with the percent-encoding, query-string and token
// helpers the protocol relies on.
//
// An Engine holds the consumer credentials and the current access token.
// Each call to AuthorizationHeader snapshots the token, so installing a new
// token with SetToken never affects a signature already being computed.
//
//	engine := oauth1.NewEngine(oauth1.Credentials{
//		ConsumerKey:    "key",
//		ConsumerSecret: "secret",
//	})
//	engine.SetToken(oauth1.NewAccessToken("token", "token-secret"))
//	header, err := engine.AuthorizationHeader("POST", "https://api.twitter.com/1.1/statuses/update.json",
//		oauth1.Params{"status": "hello"})
package oauth1

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

const (
	// Version is the value of oauth_version.
	Version = "1.0"
	// SignatureMethod is the only supported oauth_signature_method.
	SignatureMethod = "HMAC-SHA1"
)

// Engine signs requests on behalf of one consumer. It is safe for concurrent
// use.
type Engine struct {
	creds   Credentials
	encoder *Encoder
	token   atomic.Pointer[AccessToken]
	now     func() time.Time
	nonce   func() string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for oauth_timestamp.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithNonce overrides the oauth_nonce source.
func WithNonce(nonce func() string) Option {
	return func(e *Engine) { e.nonce = nonce }
}

// WithEncoder sets the text encoding used when percent-encoding parameters.
func WithEncoder(enc *Encoder) Option {
	return func(e *Engine) { e.encoder = enc }
}

// WithToken installs an initial access token.
func WithToken(tok *AccessToken) Option {
	return func(e *Engine) { e.token.Store(tok) }
}

// NewEngine returns an Engine for the given consumer credentials.
func NewEngine(creds Credentials, opts ...Option) *Engine {
	e := &Engine{
		creds: creds,
		now:   time.Now,
		nonce: uuid.NewString,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Credentials returns the consumer credentials.
func (e *Engine) Credentials() Credentials {
	return e.creds
}

// Encoder returns the encoder used for percent-encoding.
func (e *Engine) Encoder() *Encoder {
	return e.encoder
}

// Token returns the current access token, or nil.
func (e *Engine) Token() *AccessToken {
	return e.token.Load()
}

// SetToken atomically replaces the access token. Passing nil clears it.
func (e *Engine) SetToken(tok *AccessToken) {
	e.token.Store(tok)
}

// AuthorizationHeader returns the value of the Authorization header for a
// request whose transmitted parameters are params. Caller parameters in the
// oauth_ namespace (oauth_callback, oauth_verifier...) are merged into the
// header; all scalar parameters take part in the signature.
func (e *Engine) AuthorizationHeader(method, rawURL string, params Params) (string, error) {
	return e.authorizationHeader(method, rawURL, params, false)
}

// MediaAuthorizationHeader is AuthorizationHeader for multipart requests:
// parameters carried in the multipart body are not signed.
func (e *Engine) MediaAuthorizationHeader(method, rawURL string, params Params) (string, error) {
	return e.authorizationHeader(method, rawURL, params, true)
}

// Sign sets the Authorization header of req. params are the parameters that
// will be transmitted with req; req.URL must not yet carry them.
func (e *Engine) Sign(req *http.Request, params Params) error {
	header, err := e.AuthorizationHeader(req.Method, req.URL.String(), params)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", header)
	return nil
}

func (e *Engine) authorizationHeader(method, rawURL string, params Params, multipart bool) (string, error) {
	tok := e.token.Load()

	authParams := map[string]string{
		"oauth_version":          Version,
		"oauth_signature_method": SignatureMethod,
		"oauth_consumer_key":     e.creds.ConsumerKey,
		"oauth_timestamp":        strconv.FormatInt(e.now().Unix(), 10),
		"oauth_nonce":            e.nonce(),
	}
	if tok != nil && tok.Key != "" {
		authParams["oauth_token"] = tok.Key
	}

	caller := params.Strings()
	delete(caller, "oauth_signature")
	for k, v := range caller {
		if IsReserved(k) {
			authParams[k] = v
		}
	}

	signed := authParams
	if !multipart {
		signed = make(map[string]string, len(authParams)+len(caller))
		for k, v := range caller {
			signed[k] = v
		}
		for k, v := range authParams {
			signed[k] = v
		}
	}

	tokenSecret := ""
	if tok != nil {
		tokenSecret = tok.Secret
	}
	sig, err := e.signature(method, rawURL, signed, tokenSecret)
	if err != nil {
		return "", err
	}
	authParams["oauth_signature"] = sig

	pairs := e.encoder.SortedPairs(authParams)
	components := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		k, v, _ := strings.Cut(pair, "=")
		components = append(components, fmt.Sprintf("%s=\"%s\"", k, v))
	}
	return "OAuth " + strings.Join(components, ", "), nil
}

// Signature computes oauth_signature for the given request elements using
// the engine's consumer secret.
func (e *Engine) Signature(method, rawURL string, params map[string]string, tokenSecret string) (string, error) {
	return e.signature(method, rawURL, params, tokenSecret)
}

func (e *Engine) signature(method, rawURL string, params map[string]string, tokenSecret string) (string, error) {
	base, err := e.SignatureBase(method, rawURL, params)
	if err != nil {
		return "", err
	}
	key := e.encoder.Encode(e.creds.ConsumerSecret) + "&" + e.encoder.Encode(tokenSecret)
	return SignBase64([]byte(key), []byte(base)), nil
}

// SignatureBase returns the signature base string:
// METHOD&encode(normalized URL)&encode(sorted encoded parameters).
func (e *Engine) SignatureBase(method, rawURL string, params map[string]string) (string, error) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return "", err
	}
	parameterString := strings.Join(e.encoder.SortedPairs(params), "&")
	return strings.ToUpper(method) + "&" + e.encoder.Encode(normalized) + "&" + e.encoder.Encode(parameterString), nil
}

// NormalizeURL returns the base string URI of rawURL: lowercase scheme and
// host, default ports removed, no query and no fragment.
func NormalizeURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid request URL %q: %w", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("request URL %q is not absolute", rawURL)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	if port := u.Port(); port != "" {
		if !(scheme == "http" && port == "80") && !(scheme == "https" && port == "443") {
			host += ":" + port
		}
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}
	return scheme + "://" + host + path, nil
}
