package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	twitter "github.com/jamesprial/go-twitter-api-wrapper"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
)

// The worked example from the platform's "Creating a signature" guide.
const (
	sampleConsumerKey    = "xvz1evFS4wEEPTGEFPHBog"
	sampleConsumerSecret = "kAcSOqF21Fu85e7zjz7ZN2U4ZRhfV3WpwPAoE3Z7kBw"
	sampleToken          = "370773112-GmHxMAgYyLbNEtIKZeRNFsMKPR9EyMZeS9weJAEb"
	sampleTokenSecret    = "LswwdoUaIvS8ltyTt5jkRh4J50vUPVVHtR2YPi5kE"
	sampleNonce          = "kYjzVBB8Y0ZFabxSWbWovY3uYSQ2pTgmZeNu2VS4cg"
	sampleTimestamp      = 1318622958
	sampleURL            = "https://api.twitter.com/1.1/statuses/update.json"
	sampleSignature      = "hCtSmYh+iHYCEqBWrE7C7hYmtUk="
)

func main() {
	consumerKey := os.Getenv("TWITTER_CONSUMER_KEY")
	consumerSecret := os.Getenv("TWITTER_CONSUMER_SECRET")

	if consumerKey == "" || consumerSecret == "" {
		// Check the signing logic against the known answer
		testSigningLogic()
		return
	}

	// Route structured logs to stdout with debug level
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	client, err := twitter.NewClient(&twitter.Config{
		ConsumerKey:       consumerKey,
		ConsumerSecret:    consumerSecret,
		AccessToken:       os.Getenv("TWITTER_ACCESS_TOKEN"),
		AccessTokenSecret: os.Getenv("TWITTER_ACCESS_TOKEN_SECRET"),
		UserAgent:         "debug-bot/1.0",
		Logger:            logger,
	})
	if err != nil {
		log.Fatalf("Failed to create client: %v", err)
	}

	ctx := context.Background()
	if client.AccessToken() == nil {
		fmt.Println("No access token; testing application-only auth")
		if _, err := client.AuthorizeAppOnly(ctx); err != nil {
			log.Fatalf("Failed to obtain bearer token: %v", err)
		}
		fmt.Println("✓ Bearer token obtained")
		if err := client.InvalidateBearerToken(ctx); err != nil {
			fmt.Printf("✗ Invalidate failed: %v\n", err)
		} else {
			fmt.Println("✓ Bearer token invalidated")
		}
		return
	}

	// Test 1: the header a real request would carry
	fmt.Printf("\n=== TEST 1: Authorization header ===\n")
	endpoint, err := client.URL(twitter.APIBase, "account/verify_credentials.json")
	if err != nil {
		log.Fatalf("Failed to resolve URL: %v", err)
	}
	header, err := client.Signer().AuthorizationHeader("GET", endpoint, nil)
	if err != nil {
		log.Fatalf("Failed to sign: %v", err)
	}
	fmt.Printf("GET %s\n", endpoint)
	printHeader(header)

	// Test 2: the same request sent
	fmt.Printf("\n=== TEST 2: verify_credentials ===\n")
	user, err := client.VerifyCredentials(ctx)
	if err != nil {
		fmt.Printf("✗ ERROR: %v\n", err)
		return
	}
	fmt.Printf("✓ Authenticated as @%s (id %s)\n", user.ScreenName, user.IDStr)
}

func testSigningLogic() {
	fmt.Println("No credentials found. Running signing logic test...")

	params := oauth1.Params{
		"status":           "Hello Ladies + Gentlemen, a signed OAuth request!",
		"include_entities": true,
	}

	engine := oauth1.NewEngine(
		oauth1.Credentials{ConsumerKey: sampleConsumerKey, ConsumerSecret: sampleConsumerSecret},
		oauth1.WithToken(oauth1.NewAccessToken(sampleToken, sampleTokenSecret)),
		oauth1.WithClock(func() time.Time { return time.Unix(sampleTimestamp, 0) }),
		oauth1.WithNonce(func() string { return sampleNonce }),
	)

	signed := params.Strings()
	signed["oauth_consumer_key"] = sampleConsumerKey
	signed["oauth_nonce"] = sampleNonce
	signed["oauth_signature_method"] = oauth1.SignatureMethod
	signed["oauth_timestamp"] = fmt.Sprint(sampleTimestamp)
	signed["oauth_token"] = sampleToken
	signed["oauth_version"] = oauth1.Version

	base, err := engine.SignatureBase("POST", sampleURL, signed)
	if err != nil {
		log.Fatalf("Failed to build signature base: %v", err)
	}
	fmt.Printf("\nSignature base string:\n%s\n", base)

	sig, err := engine.Signature("POST", sampleURL, signed, sampleTokenSecret)
	if err != nil {
		log.Fatalf("Failed to sign: %v", err)
	}
	if sig == sampleSignature {
		fmt.Printf("\n✓ Signature matches: %s\n", sig)
	} else {
		fmt.Printf("\n✗ Signature mismatch: got %s, want %s\n", sig, sampleSignature)
	}

	header, err := engine.AuthorizationHeader("POST", sampleURL, params)
	if err != nil {
		log.Fatalf("Failed to build header: %v", err)
	}
	fmt.Println("\nAuthorization header:")
	printHeader(header)

	want := `oauth_signature="` + oauth1.PercentEncode(sampleSignature) + `"`
	if strings.Contains(header, want) {
		fmt.Println("✓ Header carries the expected signature")
	} else {
		fmt.Printf("✗ Header is missing %s\n", want)
	}
}

// printHeader prints one OAuth field per line
func printHeader(header string) {
	fields := strings.Split(strings.TrimPrefix(header, "OAuth "), ", ")
	fmt.Println("OAuth")
	for _, field := range fields {
		fmt.Printf("  %s\n", field)
	}
}
