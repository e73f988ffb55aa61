package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
)

// Simple test to see what the API actually returns, signed by hand
func main() {
	consumerKey := os.Getenv("TWITTER_CONSUMER_KEY")
	consumerSecret := os.Getenv("TWITTER_CONSUMER_SECRET")
	accessToken := os.Getenv("TWITTER_ACCESS_TOKEN")
	accessTokenSecret := os.Getenv("TWITTER_ACCESS_TOKEN_SECRET")

	if consumerKey == "" || consumerSecret == "" || accessToken == "" || accessTokenSecret == "" {
		fmt.Println("TWITTER_CONSUMER_KEY, TWITTER_CONSUMER_SECRET, TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_TOKEN_SECRET required")
		return
	}

	signer := oauth1.NewEngine(
		oauth1.Credentials{ConsumerKey: consumerKey, ConsumerSecret: consumerSecret},
		oauth1.WithToken(oauth1.NewAccessToken(accessToken, accessTokenSecret)),
	)

	// Test fetching a timeline
	resp, err := fetch(signer, "https://api.twitter.com/1.1/statuses/home_timeline.json", oauth1.Params{"count": 3})
	if err != nil {
		fmt.Printf("Failed to fetch: %v\n", err)
		return
	}

	// Parse and display structure
	var result []map[string]any
	if err := json.Unmarshal(resp, &result); err != nil {
		fmt.Printf("Failed to parse: %v\n", err)
		fmt.Printf("Raw response: %.500s...\n", string(resp))
		return
	}

	fmt.Printf("\nTimeline Response Structure:\n")
	fmt.Printf("Number of tweets: %d\n", len(result))
	for i, tweet := range result {
		fmt.Printf("\nTweet %d:\n", i)
		fmt.Printf("  id_str: %v\n", tweet["id_str"])
		fmt.Printf("  created_at: %v\n", tweet["created_at"])
		if user, ok := tweet["user"].(map[string]any); ok {
			fmt.Printf("  user.screen_name: %v\n", user["screen_name"])
		}
		fmt.Printf("  keys: %d\n", len(tweet))
	}

	// Show the first raw lines of the sample stream
	fmt.Printf("\nSample stream (first 3 lines):\n")
	if err := peekStream(signer, "https://stream.twitter.com/1.1/statuses/sample.json", 3); err != nil {
		fmt.Printf("Failed to read stream: %v\n", err)
	}
}

func fetch(signer *oauth1.Engine, endpoint string, params oauth1.Params) ([]byte, error) {
	req, err := http.NewRequest("GET", endpoint+"?"+oauth1.BuildQueryString(params.Strings(), true), nil)
	if err != nil {
		return nil, err
	}

	// The signer normalizes the URL, so the query must be signed as params
	header, err := signer.AuthorizationHeader(req.Method, endpoint, params)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", header)
	req.Header.Set("User-Agent", "TestBot/1.0")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}
	return io.ReadAll(resp.Body)
}

func peekStream(signer *oauth1.Engine, endpoint string, lines int) error {
	req, err := http.NewRequest("GET", endpoint, nil)
	if err != nil {
		return err
	}
	if err := signer.Sign(req, nil); err != nil {
		return err
	}
	req.Header.Set("User-Agent", "TestBot/1.0")

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("status %d", resp.StatusCode)
	}

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for seen := 0; seen < lines && scanner.Scan(); {
		line := scanner.Bytes()
		if len(line) == 0 || (len(line) == 1 && line[0] == '\r') {
			fmt.Println("  (keep-alive)")
			continue
		}
		fmt.Printf("  %.120s\n", line)
		seen++
	}
	return scanner.Err()
}
