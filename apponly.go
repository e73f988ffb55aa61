package twitter

import (
	"context"

	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
)

// AuthorizeAppOnly obtains an application-only bearer token with the
// consumer credentials. Once it succeeds, every request from this client is
// authorized with the bearer token instead of an OAuth 1.0a signature.
func (c *Client) AuthorizeAppOnly(ctx context.Context) (string, error) {
	token, err := c.bearer.Token(ctx)
	if err != nil {
		return "", err
	}
	c.bearerToken.Store(&token)
	c.logger.DebugContext(ctx, "obtained bearer token", "token_url", c.bearer.TokenURL())
	return token, nil
}

// BearerToken returns the application-only token, or "".
func (c *Client) BearerToken() string {
	if tok := c.bearerToken.Load(); tok != nil {
		return *tok
	}
	return ""
}

// SetBearerToken installs a previously obtained bearer token. An empty token
// returns the client to OAuth 1.0a signing.
func (c *Client) SetBearerToken(token string) {
	if token == "" {
		c.bearerToken.Store(nil)
		return
	}
	c.bearerToken.Store(&token)
}

// InvalidateBearerToken revokes the application-only token and returns the
// client to OAuth 1.0a signing.
func (c *Client) InvalidateBearerToken(ctx context.Context) error {
	current := c.bearerToken.Load()
	if current == nil {
		return &twerrors.StateError{Operation: "InvalidateBearerToken", Message: "no bearer token installed"}
	}

	if _, err := c.bearer.Invalidate(ctx, *current); err != nil {
		return err
	}
	// Keep a token installed concurrently.
	c.bearerToken.CompareAndSwap(current, nil)
	c.logger.DebugContext(ctx, "invalidated bearer token")
	return nil
}
