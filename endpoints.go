package twitter

import (
	"context"
	"net/http"

	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/validation"
)

// VerifyCredentials returns the authenticated user. It is the cheapest way
// to check that a token works.
func (c *Client) VerifyCredentials(ctx context.Context) (*types.User, error) {
	var user types.User
	params := oauth1.Params{"skip_status": true}
	if err := c.JSON(ctx, http.MethodGet, APIBase, "account/verify_credentials.json", params, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// HomeTimeline returns the most recent tweets from the authenticated user
// and the accounts they follow. A nil request uses the API defaults.
func (c *Client) HomeTimeline(ctx context.Context, request *types.TimelineRequest) ([]types.Tweet, error) {
	if err := validation.ValidateTimelineRequest(request); err != nil {
		return nil, err
	}

	params := request.Params()
	// Home timeline is always the authenticated user's.
	delete(params, "user_id")
	delete(params, "screen_name")

	var tweets []types.Tweet
	if err := c.JSON(ctx, http.MethodGet, APIBase, "statuses/home_timeline.json", params, &tweets); err != nil {
		return nil, err
	}
	return tweets, nil
}

// UserTimeline returns tweets posted by the user named by UserID or
// ScreenName, or by the authenticated user when both are empty.
func (c *Client) UserTimeline(ctx context.Context, request *types.TimelineRequest) ([]types.Tweet, error) {
	if err := validation.ValidateTimelineRequest(request); err != nil {
		return nil, err
	}

	var tweets []types.Tweet
	if err := c.JSON(ctx, http.MethodGet, APIBase, "statuses/user_timeline.json", request.Params(), &tweets); err != nil {
		return nil, err
	}
	return tweets, nil
}

// PostTweet publishes a status update.
func (c *Client) PostTweet(ctx context.Context, request *types.TweetRequest) (*types.Tweet, error) {
	if err := validation.ValidateTweetRequest(request); err != nil {
		return nil, err
	}

	var tweet types.Tweet
	if err := c.JSON(ctx, http.MethodPost, APIBase, "statuses/update.json", request.Params(), &tweet, WithBodyFormat(BodyForm)); err != nil {
		return nil, err
	}
	return &tweet, nil
}

// UploadMedia uploads an image in a single multipart request. Use the
// returned MediaIDString in TweetRequest.MediaIDs.
func (c *Client) UploadMedia(ctx context.Context, request *types.MediaUploadRequest) (*types.Media, error) {
	if err := validation.ValidateMediaUploadRequest(request); err != nil {
		return nil, err
	}

	var media types.Media
	if err := c.JSON(ctx, http.MethodPost, UploadBase, "media/upload.json", request.Params(), &media); err != nil {
		return nil, err
	}
	return &media, nil
}
