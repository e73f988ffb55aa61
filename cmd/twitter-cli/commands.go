package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"mime"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
)

func runAuthorize(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("authorize", flag.ContinueOnError)
	listen := fs.String("listen", "", "serve the callback on this address instead of asking for a PIN")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var (
		tok *oauth1.AccessToken
		err error
	)
	if *listen == "" {
		tok, err = authorizeWithPIN(ctx, a)
	} else {
		tok, err = authorizeWithCallback(ctx, a, *listen)
	}
	if err != nil {
		return err
	}

	a.cfg.AccessToken = tok.Key
	a.cfg.AccessTokenSecret = tok.Secret
	a.cfg.ScreenName = tok.ScreenName
	if err := a.cfg.Save(); err != nil {
		return err
	}
	a.log.Info().Str("screen_name", tok.ScreenName).Str("path", a.cfg.Path).Msg("saved access token")
	return nil
}

func authorizeWithPIN(ctx context.Context, a *app) (*oauth1.AccessToken, error) {
	return a.client.Authorize(ctx, twitter.OutOfBand, func(flow *twitter.Flow, authorizeURL string) error {
		fmt.Printf("Open this URL and authorize the application:\n\n  %s\n\nPIN: ", authorizeURL)

		pin, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading PIN: %w", err)
		}
		flow.SubmitVerifier(strings.TrimSpace(pin))
		return nil
	})
}

func authorizeWithCallback(ctx context.Context, a *app, addr string) (*oauth1.AccessToken, error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("listen for callback: %w", err)
	}
	defer listener.Close()

	mux := http.NewServeMux()
	server := &http.Server{Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	callbackURL := "http://" + listener.Addr().String() + "/callback"
	return a.client.Authorize(ctx, callbackURL, func(flow *twitter.Flow, authorizeURL string) error {
		mux.Handle("/callback", flow.CallbackHandler())
		go func() {
			if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.log.Error().Err(err).Msg("callback server failed")
			}
		}()

		a.log.Info().Str("callback", callbackURL).Msg("waiting for authorization")
		fmt.Printf("Open this URL and authorize the application:\n\n  %s\n\n", authorizeURL)
		return nil
	})
}

func runVerify(ctx context.Context, a *app, args []string) error {
	user, err := a.client.VerifyCredentials(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("@%s (%s)\n  id: %s\n  followers: %d  following: %d  tweets: %d\n",
		user.ScreenName, user.Name, user.IDStr, user.FollowersCount, user.FriendsCount, user.StatusesCount)
	return nil
}

func runTimeline(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("timeline", flag.ContinueOnError)
	count := fs.Int("count", 20, "number of tweets")
	user := fs.String("user", "", "screen name; the home timeline when empty")
	if err := fs.Parse(args); err != nil {
		return err
	}

	request := &types.TimelineRequest{Count: *count, ScreenName: *user, TweetMode: types.TweetModeExtended}

	var (
		tweets []types.Tweet
		err    error
	)
	if *user == "" {
		tweets, err = a.client.HomeTimeline(ctx, request)
	} else {
		tweets, err = a.client.UserTimeline(ctx, request)
	}
	if err != nil {
		return err
	}

	for i := range tweets {
		printTweet(&tweets[i])
	}
	return nil
}

func runTweet(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("tweet", flag.ContinueOnError)
	mediaPath := fs.String("media", "", "image to attach")
	if err := fs.Parse(args); err != nil {
		return err
	}

	request := &types.TweetRequest{Status: strings.Join(fs.Args(), " ")}

	if *mediaPath != "" {
		data, err := os.ReadFile(*mediaPath)
		if err != nil {
			return fmt.Errorf("read media: %w", err)
		}
		media, err := a.client.UploadMedia(ctx, &types.MediaUploadRequest{
			Data:     data,
			FileName: filepath.Base(*mediaPath),
			MimeType: mime.TypeByExtension(filepath.Ext(*mediaPath)),
			Category: "tweet_image",
		})
		if err != nil {
			return err
		}
		a.log.Debug().Str("media_id", media.MediaIDString).Int64("size", media.Size).Msg("uploaded media")
		request.MediaIDs = []string{media.MediaIDString}
	}

	tweet, err := a.client.PostTweet(ctx, request)
	if err != nil {
		return err
	}
	a.log.Info().Str("id", tweet.IDStr).Msg("posted")
	return nil
}

func runStream(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("stream", flag.ContinueOnError)
	track := fs.String("track", "", "comma-separated keywords")
	follow := fs.String("follow", "", "comma-separated user IDs")
	language := fs.String("language", "", "comma-separated language codes")
	if err := fs.Parse(args); err != nil {
		return err
	}

	request := &types.FilterStreamRequest{
		StreamRequest: types.StreamRequest{StallWarnings: true, Language: splitList(*language)},
		Track:         splitList(*track),
		Follow:        splitList(*follow),
	}

	ended := make(chan error, 1)
	stream, err := a.client.FilterStream(ctx, request, twitter.StreamHandlers{
		OnMessage: func(doc json.RawMessage) {
			var tweet types.Tweet
			if err := json.Unmarshal(doc, &tweet); err != nil || tweet.IDStr == "" {
				a.log.Debug().RawJSON("message", doc).Msg("skipping non-tweet message")
				return
			}
			printTweet(&tweet)
		},
		OnStallWarning: func(w types.StallWarning) {
			a.log.Warn().Str("code", w.Code).Int("percent_full", w.PercentFull).Msg(w.Message)
		},
		OnEnd: func(err error) { ended <- err },
	})
	if err != nil {
		return err
	}
	a.log.Info().Strs("track", request.Track).Strs("follow", request.Follow).Msg("streaming; press Ctrl-C to stop")

	select {
	case err := <-ended:
		return err
	case <-ctx.Done():
		stream.Stop()
		return nil
	}
}

func printTweet(t *types.Tweet) {
	author := "?"
	if t.User != nil {
		author = t.User.ScreenName
	}
	fmt.Printf("%s @%s: %s\n", t.CreatedAt.Local().Format(time.DateTime), author, t.Content())
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
