// Package twitter is a Go client for the Twitter REST and streaming APIs,
// authorized with OAuth 1.0a or application-only bearer tokens.
//
// # Overview
//
// The client signs every request with HMAC-SHA1 (see package oauth1), sends
// it with the request engine and decodes the response. It covers the three
// ways of being authorized:
//
//   - a user access token already known to the application
//   - a three-legged authorization driven by a Flow
//   - an application-only bearer token (AuthorizeAppOnly)
//
// # Quick Start
//
//	client, err := twitter.NewClient(&twitter.Config{
//		ConsumerKey:       "consumer-key",
//		ConsumerSecret:    "consumer-secret",
//		AccessToken:       "access-token",
//		AccessTokenSecret: "access-token-secret",
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	tweets, err := client.HomeTimeline(ctx, &types.TimelineRequest{Count: 20})
//	if err != nil {
//		log.Fatal(err)
//	}
//	for _, tweet := range tweets {
//		fmt.Printf("@%s: %s\n", tweet.User.ScreenName, tweet.Content())
//	}
//
// NewClient performs no network activity.
//
// # Authorization
//
// A Flow walks through the request token, user authorization and access
// token steps:
//
//	flow := client.NewFlow()
//	authorizeURL, err := flow.Begin(ctx, twitter.OutOfBand)
//	// show authorizeURL to the user, then read the PIN
//	flow.SubmitVerifier(pin)
//	token, err := flow.Complete(ctx)
//
// With a web callback, mount flow.CallbackHandler() on the callback URL.
// Only the first callback is used; later ones are answered with 409.
// Completing the flow installs the access token on the client. The token can
// be persisted and given back through Config.AccessToken on the next run.
//
// # Generic Requests
//
// Endpoints without a dedicated method are reached with Get, Post, Do and
// JSON. Parameters whose name starts with oauth_ go to the Authorization
// header; the others are sent in the query string for GET, HEAD and DELETE,
// and in the body otherwise. A parameter holding an *types.Upload switches
// the body to multipart/form-data.
//
//	var out map[string]any
//	err := client.JSON(ctx, http.MethodGet, twitter.APIBase, "friends/ids.json",
//		oauth1.Params{"screen_name": "twitterapi"}, &out)
//
// # Streaming
//
// Streams deliver newline-delimited JSON documents as they arrive:
//
//	stream, err := client.FilterStream(ctx, &types.FilterStreamRequest{Track: []string{"golang"}},
//		twitter.StreamHandlers{
//			OnMessage: func(doc json.RawMessage) { fmt.Println(string(doc)) },
//			OnEnd:     func(err error) { log.Println("stream ended:", err) },
//		})
//	...
//	stream.Stop()
//
// Keep-alive newlines are skipped and malformed lines are dropped. After Stop
// returns no handler runs.
//
// # Error Handling
//
// Every failure is one of the types in package errors:
//
//	_, err := client.VerifyCredentials(ctx)
//	var statusErr *errors.HTTPStatusError
//	if errors.As(err, &statusErr) && statusErr.StatusCode == 420 {
//		// back off
//	}
//
// The client never retries.
//
// # Logging
//
// Set Config.Logger to an *slog.Logger to get debug output for every request.
package twitter
