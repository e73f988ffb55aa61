package oauth1

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
)

// Credentials identify the consumer (the registered application).
type Credentials struct {
	ConsumerKey    string
	ConsumerSecret string
}

// AccessToken is an OAuth token as returned by the request-token and
// access-token endpoints. A request token carries a Verifier once the user
// has authorized it.
type AccessToken struct {
	Key        string
	Secret     string
	Verifier   string
	Session    string
	ScreenName string
	UserID     string
	// Expiration is zero when the token does not expire.
	Expiration time.Time
	Renewable  bool
	// UserInfo holds every response attribute other than the reserved
	// oauth_token* and oauth_session_handle keys. Nil when there are none.
	UserInfo map[string]string
}

var reservedTokenKeys = []string{
	"oauth_token",
	"oauth_token_secret",
	"oauth_session_handle",
	"oauth_token_duration",
	"oauth_token_renewable",
}

// NewAccessToken returns a token with only key and secret set.
func NewAccessToken(key, secret string) *AccessToken {
	return &AccessToken{Key: key, Secret: secret}
}

// ParseAccessToken builds an AccessToken from a query-string formatted token
// response body. Values are taken verbatim. A body without oauth_token or
// oauth_token_secret yields a *errors.ProtocolError.
func ParseAccessToken(body string) (*AccessToken, error) {
	return parseAccessToken(body, time.Now())
}

func parseAccessToken(body string, now time.Time) (*AccessToken, error) {
	attrs := ParseQueryString(strings.TrimSpace(body))

	key, hasKey := attrs["oauth_token"]
	secret, hasSecret := attrs["oauth_token_secret"]
	if !hasKey || !hasSecret || key == "" {
		return nil, &twerrors.ProtocolError{
			Message: "token response lacks oauth_token or oauth_token_secret",
			Body:    body,
			Err:     twerrors.ErrMissingToken,
		}
	}

	tok := &AccessToken{
		Key:        key,
		Secret:     secret,
		Session:    attrs["oauth_session_handle"],
		ScreenName: attrs["screen_name"],
		UserID:     attrs["user_id"],
	}

	if d, ok := attrs["oauth_token_duration"]; ok {
		lifetime, err := parseTokenDuration(d)
		if err != nil {
			return nil, &twerrors.ProtocolError{
				Message: "invalid oauth_token_duration " + strconv.Quote(d),
				Body:    body,
				Err:     err,
			}
		}
		tok.Expiration = now.Add(lifetime)
	}

	if r, ok := attrs["oauth_token_renewable"]; ok {
		tok.Renewable = strings.HasPrefix(strings.ToLower(r), "t")
	}

	for _, k := range reservedTokenKeys {
		delete(attrs, k)
	}
	if len(attrs) > 0 {
		tok.UserInfo = attrs
	}

	return tok, nil
}

// Expired reports whether the token has an expiration in the past.
func (t *AccessToken) Expired() bool {
	return t.ExpiredAt(time.Now())
}

// ExpiredAt reports whether the token's expiration is set and earlier than now.
func (t *AccessToken) ExpiredAt(now time.Time) bool {
	if t == nil || t.Expiration.IsZero() {
		return false
	}
	return t.Expiration.Before(now)
}

// WithVerifier returns a copy of t carrying verifier.
func (t *AccessToken) WithVerifier(verifier string) *AccessToken {
	cp := *t
	cp.Verifier = verifier
	return &cp
}

// maxTokenLifetime caps durations that would overflow time.Duration.
const maxTokenLifetime = time.Duration(math.MaxInt64)

// parseTokenDuration reads oauth_token_duration, a number of seconds.
func parseTokenDuration(s string) (time.Duration, error) {
	seconds, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) || seconds < 0 {
		return 0, errors.New("duration must be a finite, non-negative number of seconds")
	}
	if seconds >= maxTokenLifetime.Seconds() {
		return maxTokenLifetime, nil
	}
	return time.Duration(seconds * float64(time.Second)), nil
}
