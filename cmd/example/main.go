package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
)

func main() {
	// Get credentials from environment variables
	consumerKey := os.Getenv("TWITTER_CONSUMER_KEY")
	consumerSecret := os.Getenv("TWITTER_CONSUMER_SECRET")
	accessToken := os.Getenv("TWITTER_ACCESS_TOKEN")
	accessTokenSecret := os.Getenv("TWITTER_ACCESS_TOKEN_SECRET")

	if consumerKey == "" || consumerSecret == "" {
		log.Fatal("TWITTER_CONSUMER_KEY and TWITTER_CONSUMER_SECRET environment variables are required")
	}

	// Route structured logs to stdout; adjust the level as needed.
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	// Create client configuration
	config := &twitter.Config{
		ConsumerKey:       consumerKey,
		ConsumerSecret:    consumerSecret,
		AccessToken:       accessToken,       // Optional: for user-authenticated requests
		AccessTokenSecret: accessTokenSecret, // Optional: for user-authenticated requests
		UserAgent:         "example-bot/1.0",
		Logger:            logger,
	}

	// Create the client
	client, err := twitter.NewClient(config)
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()

	// Without a user token, fall back to application-only auth
	if accessToken == "" || accessTokenSecret == "" {
		if _, err := client.AuthorizeAppOnly(ctx); err != nil {
			log.Fatalf("Failed to obtain bearer token: %v", err)
		}
		fmt.Println("Authorized with an application-only bearer token")
		showUserTimeline(ctx, client, "golang")
		return
	}

	user, err := client.VerifyCredentials(ctx)
	if err != nil {
		log.Fatalf("Failed to verify credentials: %v", err)
	}
	fmt.Printf("Authenticated as @%s (%s), %d followers\n", user.ScreenName, user.Name, user.FollowersCount)

	// Home timeline through the typed wrapper
	tweets, err := client.HomeTimeline(ctx, &types.TimelineRequest{Count: 5, TweetMode: types.TweetModeExtended})
	if err != nil {
		log.Printf("Failed to get home timeline: %v", err)
	} else {
		fmt.Println("\nHome timeline:")
		for i, tweet := range tweets {
			author := ""
			if tweet.User != nil {
				author = tweet.User.ScreenName
			}
			fmt.Printf("%d. @%s: %.80s\n", i+1, author, tweet.Content())
		}
	}

	// Any endpoint can be called through the generic request methods
	resp, err := client.Get(ctx, twitter.APIBase, "account/settings.json", nil)
	if err != nil {
		log.Printf("Failed to get account settings: %v", err)
	} else {
		var settings struct {
			Language   string `json:"language"`
			ScreenName string `json:"screen_name"`
			TimeZone   struct {
				Name string `json:"name"`
			} `json:"time_zone"`
		}
		if err := resp.JSON(&settings); err != nil {
			log.Printf("Failed to decode account settings: %v", err)
		} else {
			fmt.Printf("\nAccount settings: language=%s time_zone=%s\n", settings.Language, settings.TimeZone.Name)
		}
	}

	// Rate limit status for the timeline endpoints
	resp, err = client.Get(ctx, twitter.APIBase, "application/rate_limit_status.json", oauth1.Params{"resources": "statuses"})
	if err != nil {
		log.Printf("Failed to get rate limit status: %v", err)
	} else {
		var status struct {
			Resources map[string]map[string]struct {
				Limit     int   `json:"limit"`
				Remaining int   `json:"remaining"`
				Reset     int64 `json:"reset"`
			} `json:"resources"`
		}
		if err := resp.JSON(&status); err != nil {
			log.Printf("Failed to decode rate limit status: %v", err)
		} else {
			fmt.Println("\nRate limits:")
			for endpoint, limit := range status.Resources["statuses"] {
				fmt.Printf("  %s: %d/%d remaining\n", endpoint, limit.Remaining, limit.Limit)
			}
		}
	}

	showUserTimeline(ctx, client, user.ScreenName)
}

// showUserTimeline prints the first two pages of a user timeline
func showUserTimeline(ctx context.Context, client *twitter.Client, screenName string) {
	fmt.Printf("\nRecent tweets from @%s:\n", screenName)

	it := client.NewUserTimelineIterator(ctx, &types.TimelineRequest{ScreenName: screenName}).WithCount(5)
	tweets, err := it.Collect(10)
	if err != nil {
		log.Printf("Failed to page through @%s: %v", screenName, err)
	}
	for i, tweet := range tweets {
		fmt.Printf("%2d. [%s] %.80s (retweets: %d, likes: %d)\n",
			i+1, tweet.IDStr, tweet.Content(), tweet.RetweetCount, tweet.FavoriteCount)
	}
}
