package test_generators

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
)

// baseTweetID is the first ID handed out; timelines count down from the
// newest tweet like the real API.
const baseTweetID int64 = 1050118621198921728

// TweetGenerator generates realistic tweets for testing
type TweetGenerator struct {
	rand      *rand.Rand
	nextID    int64
	now       time.Time
	templates []string
	topics    []string
	users     []types.User
	langs     []string
}

// NewTweetGenerator creates a new tweet generator. The same seed always
// produces the same tweets.
func NewTweetGenerator(seed int64) *TweetGenerator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	tg := &TweetGenerator{
		rand:   rand.New(rand.NewSource(seed)),
		nextID: baseTweetID,
		now:    time.Date(2018, time.October, 10, 20, 19, 24, 0, time.UTC),
		templates: []string{
			"Just shipped %s 🚀",
			"Thread: everything I learned about %s (1/7)",
			"Hot take: %s is underrated",
			"Anyone else having trouble with %s today?",
			"New blog post on %s: https://t.co/%s",
			"Reminder that %s exists & is great",
			"RT if you've ever debugged %s at 3am",
			"%s > everything else. Fight me.",
		},
		topics: []string{
			"golang", "generics", "OAuth 1.0a", "rate limits", "streaming APIs",
			"goroutines", "the new release", "code review", "unit tests", "#100DaysOfCode",
		},
		langs: []string{"en", "en", "en", "es", "ja", "fr", "und"},
	}

	for i, name := range []string{"twitterapi", "gopher", "TwitterDev", "jack", "golang_news", "dev_null"} {
		id := int64(6253282 + i*1000)
		tg.users = append(tg.users, types.User{
			ID:             id,
			IDStr:          strconv.FormatInt(id, 10),
			Name:           strings.ToUpper(name[:1]) + name[1:],
			ScreenName:     name,
			FollowersCount: tg.rand.Intn(100000),
			FriendsCount:   tg.rand.Intn(2000),
			StatusesCount:  tg.rand.Intn(50000),
			CreatedAt:      types.Time{Time: time.Date(2007, time.May, 23, 6, 1, 13, 0, time.UTC)},
		})
	}
	return tg
}

// GenerateTweet creates the next tweet. Each call returns an older tweet
// with a lower ID than the previous one.
func (tg *TweetGenerator) GenerateTweet() types.Tweet {
	id := tg.nextID
	tg.nextID -= int64(1 + tg.rand.Intn(1000))
	tg.now = tg.now.Add(-time.Duration(1+tg.rand.Intn(3600)) * time.Second)

	user := tg.users[tg.rand.Intn(len(tg.users))]
	tweet := types.Tweet{
		ID:            id,
		IDStr:         strconv.FormatInt(id, 10),
		Text:          tg.generateText(),
		CreatedAt:     types.Time{Time: tg.now},
		User:          &user,
		RetweetCount:  tg.generateCount(),
		FavoriteCount: tg.generateCount(),
		Lang:          tg.langs[tg.rand.Intn(len(tg.langs))],
	}

	if tg.rand.Float32() < 0.25 { // 25% are replies
		replyTo := id - int64(1+tg.rand.Intn(100000))
		tweet.InReplyToStatusID = &replyTo
	}
	return tweet
}

// GenerateTweets creates count tweets, newest first
func (tg *TweetGenerator) GenerateTweets(count int) []types.Tweet {
	tweets := make([]types.Tweet, count)
	for i := range tweets {
		tweets[i] = tg.GenerateTweet()
	}
	return tweets
}

// GenerateTimelineJSON returns count tweets encoded as a timeline response
// body, along with the tweets themselves
func (tg *TweetGenerator) GenerateTimelineJSON(count int) (string, []types.Tweet) {
	tweets := tg.GenerateTweets(count)
	data, err := json.Marshal(tweets)
	if err != nil {
		panic(fmt.Sprintf("encode timeline: %v", err))
	}
	return string(data), tweets
}

// GenerateStreamBody returns count tweets as a newline-delimited stream
// body with CRLF terminators, and the documents in order
func (tg *TweetGenerator) GenerateStreamBody(count int) (string, []string) {
	var (
		sb   strings.Builder
		docs []string
	)
	for _, tweet := range tg.GenerateTweets(count) {
		data, err := json.Marshal(tweet)
		if err != nil {
			panic(fmt.Sprintf("encode tweet: %v", err))
		}
		docs = append(docs, string(data))
		sb.Write(data)
		sb.WriteString("\r\n")
	}
	return sb.String(), docs
}

func (tg *TweetGenerator) generateText() string {
	template := tg.templates[tg.rand.Intn(len(tg.templates))]
	topic := tg.topics[tg.rand.Intn(len(tg.topics))]
	if strings.Count(template, "%s") == 2 {
		return fmt.Sprintf(template, topic, tg.randString(10))
	}
	return fmt.Sprintf(template, topic)
}

func (tg *TweetGenerator) generateCount() int {
	// Most tweets get little engagement, a few go viral (power law distribution)
	r := tg.rand.Float64()
	switch {
	case r < 0.7:
		return tg.rand.Intn(10)
	case r < 0.9:
		return tg.rand.Intn(90) + 10
	case r < 0.98:
		return tg.rand.Intn(900) + 100
	default:
		return tg.rand.Intn(90000) + 1000
	}
}

func (tg *TweetGenerator) randString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	for i := range b {
		b[i] = charset[tg.rand.Intn(len(charset))]
	}
	return string(b)
}
