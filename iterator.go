package twitter

import (
	"context"
	"errors"
	"strconv"

	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/validation"
)

// ErrNoMoreTweets is returned by TimelineIterator.Next when the timeline is
// exhausted.
var ErrNoMoreTweets = errors.New("no more tweets available")

// TimelineIterator pages back through a timeline with max_id, newest tweet
// first.
type TimelineIterator struct {
	ctx       context.Context
	listFunc  func(context.Context, *types.TimelineRequest) ([]types.Tweet, error)
	request   types.TimelineRequest
	buffer    []types.Tweet
	bufferIdx int
	maxID     string
	hasMore   bool
	err       error
}

func newTimelineIterator(ctx context.Context, request *types.TimelineRequest, listFunc func(context.Context, *types.TimelineRequest) ([]types.Tweet, error)) *TimelineIterator {
	it := &TimelineIterator{
		ctx:      ctx,
		listFunc: listFunc,
		request:  types.TimelineRequest{Count: validation.MaxTimelineCount},
		hasMore:  true,
	}
	if request != nil {
		it.request = *request
		if it.request.Count == 0 {
			it.request.Count = validation.MaxTimelineCount
		}
	}
	it.maxID = it.request.MaxID
	return it
}

// NewHomeTimelineIterator creates an iterator over the home timeline.
// request.MaxID, when set, is where iteration starts.
func (c *Client) NewHomeTimelineIterator(ctx context.Context, request *types.TimelineRequest) *TimelineIterator {
	return newTimelineIterator(ctx, request, c.HomeTimeline)
}

// NewUserTimelineIterator creates an iterator over a user timeline.
func (c *Client) NewUserTimelineIterator(ctx context.Context, request *types.TimelineRequest) *TimelineIterator {
	return newTimelineIterator(ctx, request, c.UserTimeline)
}

// WithCount sets the number of tweets to fetch per request.
func (it *TimelineIterator) WithCount(count int) *TimelineIterator {
	if count > validation.MaxTimelineCount {
		count = validation.MaxTimelineCount
	}
	if count < 1 {
		count = 1
	}
	it.request.Count = count
	return it
}

// HasNext returns true if there may be more tweets to iterate through.
func (it *TimelineIterator) HasNext() bool {
	if it.err != nil {
		return false
	}
	return it.bufferIdx < len(it.buffer) || it.hasMore
}

// Next returns the next tweet, fetching the next page when the current one
// is exhausted. The timeline ends with an empty page.
func (it *TimelineIterator) Next() (*types.Tweet, error) {
	if it.err != nil {
		return nil, it.err
	}

	if it.bufferIdx >= len(it.buffer) {
		if !it.hasMore {
			return nil, ErrNoMoreTweets
		}

		request := it.request
		request.MaxID = it.maxID
		tweets, err := it.listFunc(it.ctx, &request)
		if err != nil {
			it.err = err
			return nil, err
		}

		it.buffer = tweets
		it.bufferIdx = 0
		if len(tweets) == 0 {
			it.hasMore = false
			return nil, ErrNoMoreTweets
		}

		next, ok := olderThan(&tweets[len(tweets)-1])
		if !ok || next == it.maxID {
			// Without a usable cursor the same page would come back.
			it.hasMore = false
		}
		it.maxID = next
	}

	tweet := &it.buffer[it.bufferIdx]
	it.bufferIdx++
	return tweet, nil
}

// olderThan returns the max_id selecting tweets older than t.
func olderThan(t *types.Tweet) (string, bool) {
	id := t.ID
	if id == 0 {
		parsed, err := strconv.ParseInt(t.IDStr, 10, 64)
		if err != nil {
			return "", false
		}
		id = parsed
	}
	if id <= 1 {
		return "", false
	}
	return strconv.FormatInt(id-1, 10), true
}

// Error returns any error encountered during iteration.
func (it *TimelineIterator) Error() error {
	return it.err
}

// Reset restarts the iteration from the newest tweet, or from the MaxID of
// the original request.
func (it *TimelineIterator) Reset() {
	it.buffer = nil
	it.bufferIdx = 0
	it.maxID = it.request.MaxID
	it.hasMore = true
	it.err = nil
}

// Collect fetches tweets until the timeline ends or maxTweets have been
// collected (0 means no limit).
func (it *TimelineIterator) Collect(maxTweets int) ([]types.Tweet, error) {
	var tweets []types.Tweet

	for it.HasNext() && (maxTweets <= 0 || len(tweets) < maxTweets) {
		tweet, err := it.Next()
		if errors.Is(err, ErrNoMoreTweets) {
			break
		}
		if err != nil {
			return tweets, err
		}
		tweets = append(tweets, *tweet)
	}

	return tweets, nil
}
