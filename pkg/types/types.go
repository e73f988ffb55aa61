package types

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jamesprial/go-twitter-api-wrapper/pkg/oauth1"
)

// TimeLayout is the layout of created_at fields in API objects.
const TimeLayout = time.RubyDate

// Time is a timestamp in the API's RubyDate format
// ("Wed Aug 27 13:08:45 +0000 2008").
type Time struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler for the RubyDate format.
// It also accepts null and an empty string, which leave the time zero.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		t.Time = time.Time{}
		return nil
	}

	unquoted, err := strconv.Unquote(s)
	if err != nil {
		return fmt.Errorf("unrecognized type for time field: %s", s)
	}
	parsed, err := time.Parse(TimeLayout, unquoted)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", unquoted, err)
	}
	t.Time = parsed
	return nil
}

// MarshalJSON writes the time back in the API format.
func (t Time) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Format(TimeLayout))
}

// User is the subset of a user object the wrapper decodes.
type User struct {
	ID              int64  `json:"id"`
	IDStr           string `json:"id_str"`
	Name            string `json:"name"`
	ScreenName      string `json:"screen_name"`
	Location        string `json:"location"`
	Description     string `json:"description"`
	Protected       bool   `json:"protected"`
	Verified        bool   `json:"verified"`
	FollowersCount  int    `json:"followers_count"`
	FriendsCount    int    `json:"friends_count"`
	StatusesCount   int    `json:"statuses_count"`
	CreatedAt       Time   `json:"created_at"`
	ProfileImageURL string `json:"profile_image_url_https"`
}

// Tweet is the subset of a status object the wrapper decodes.
type Tweet struct {
	ID                int64  `json:"id"`
	IDStr             string `json:"id_str"`
	Text              string `json:"text"`
	FullText          string `json:"full_text"`
	CreatedAt         Time   `json:"created_at"`
	User              *User  `json:"user"`
	InReplyToStatusID *int64 `json:"in_reply_to_status_id"`
	RetweetCount      int    `json:"retweet_count"`
	FavoriteCount     int    `json:"favorite_count"`
	Truncated         bool   `json:"truncated"`
	Lang              string `json:"lang"`
}

// Content returns FullText when the tweet was fetched in extended mode and
// Text otherwise.
func (t *Tweet) Content() string {
	if t.FullText != "" {
		return t.FullText
	}
	return t.Text
}

// Media is the response of the media upload endpoint.
type Media struct {
	MediaID       int64  `json:"media_id"`
	MediaIDString string `json:"media_id_string"`
	Size          int64  `json:"size"`
	Image         *struct {
		Type   string `json:"image_type"`
		Width  int    `json:"w"`
		Height int    `json:"h"`
	} `json:"image,omitempty"`
}

// StallWarning is sent on streaming connections when the client falls behind.
type StallWarning struct {
	Code        string `json:"code"`
	Message     string `json:"message"`
	PercentFull int    `json:"percent_full"`
}

// Upload is a binary parameter sent in a multipart/form-data body. Uploads
// are never part of the OAuth signature.
type Upload struct {
	Data []byte
	// FileName defaults to DefaultUploadFileName.
	FileName string
	// MimeType defaults to application/octet-stream.
	MimeType string
}

// DefaultUploadFileName is used for uploads without a FileName.
const DefaultUploadFileName = "media.jpg"

// BinaryPayload implements oauth1.Binary.
func (u *Upload) BinaryPayload() []byte {
	return u.Data
}

// TweetMode selects the text rendering of statuses.
type TweetMode string

const (
	TweetModeDefault  TweetMode = ""
	TweetModeExtended TweetMode = "extended"
	TweetModeCompat   TweetMode = "compat"
)

// TimelineRequest describes a request for a timeline. Zero values are
// omitted from the request.
type TimelineRequest struct {
	// UserID or ScreenName select the user for user timelines. Ignored for
	// the home timeline.
	UserID     string
	ScreenName string

	// Count: number of tweets to return (max 200).
	Count int
	// SinceID: return tweets newer than this ID.
	SinceID string
	// MaxID: return tweets older than or equal to this ID.
	MaxID string

	TrimUser        bool
	ExcludeReplies  bool
	IncludeEntities *bool
	TweetMode       TweetMode
}

// Params builds the request parameters.
func (r *TimelineRequest) Params() oauth1.Params {
	p := oauth1.Params{}
	if r == nil {
		return p
	}
	if r.UserID != "" {
		p["user_id"] = r.UserID
	}
	if r.ScreenName != "" {
		p["screen_name"] = r.ScreenName
	}
	if r.Count > 0 {
		p["count"] = r.Count
	}
	if r.SinceID != "" {
		p["since_id"] = r.SinceID
	}
	if r.MaxID != "" {
		p["max_id"] = r.MaxID
	}
	if r.TrimUser {
		p["trim_user"] = true
	}
	if r.ExcludeReplies {
		p["exclude_replies"] = true
	}
	if r.IncludeEntities != nil {
		p["include_entities"] = *r.IncludeEntities
	}
	if r.TweetMode != TweetModeDefault {
		p["tweet_mode"] = string(r.TweetMode)
	}
	return p
}

// TweetRequest describes a status update.
type TweetRequest struct {
	Status            string
	InReplyToStatusID string
	MediaIDs          []string
	PossiblySensitive bool
	Lat               *float64
	Long              *float64
	PlaceID           string
	TrimUser          bool
	TweetMode         TweetMode
}

// Params builds the request parameters.
func (r *TweetRequest) Params() oauth1.Params {
	p := oauth1.Params{"status": r.Status}
	if r.InReplyToStatusID != "" {
		p["in_reply_to_status_id"] = r.InReplyToStatusID
	}
	if len(r.MediaIDs) > 0 {
		p["media_ids"] = r.MediaIDs
	}
	if r.PossiblySensitive {
		p["possibly_sensitive"] = true
	}
	if r.Lat != nil && r.Long != nil {
		p["lat"] = *r.Lat
		p["long"] = *r.Long
	}
	if r.PlaceID != "" {
		p["place_id"] = r.PlaceID
	}
	if r.TrimUser {
		p["trim_user"] = true
	}
	if r.TweetMode != TweetModeDefault {
		p["tweet_mode"] = string(r.TweetMode)
	}
	return p
}

// MediaUploadRequest describes a simple (non-chunked) media upload.
type MediaUploadRequest struct {
	Data     []byte
	FileName string
	MimeType string
	// Category: tweet_image, tweet_gif, tweet_video, dm_image...
	Category string

	AdditionalOwners []string
}

// Params builds the request parameters. The media itself is an *Upload.
func (r *MediaUploadRequest) Params() oauth1.Params {
	p := oauth1.Params{
		"media": &Upload{Data: r.Data, FileName: r.FileName, MimeType: r.MimeType},
	}
	if r.Category != "" {
		p["media_category"] = r.Category
	}
	if len(r.AdditionalOwners) > 0 {
		p["additional_owners"] = r.AdditionalOwners
	}
	return p
}

// StreamRequest holds the options shared by streaming endpoints.
type StreamRequest struct {
	Delimited     bool
	StallWarnings bool
	// FilterLevel: none, low or medium.
	FilterLevel string
	Language    []string
}

func (r *StreamRequest) addTo(p oauth1.Params) {
	if r.Delimited {
		p["delimited"] = "length"
	}
	if r.StallWarnings {
		p["stall_warnings"] = true
	}
	if r.FilterLevel != "" {
		p["filter_level"] = r.FilterLevel
	}
	if len(r.Language) > 0 {
		p["language"] = r.Language
	}
}

// Params builds the request parameters.
func (r *StreamRequest) Params() oauth1.Params {
	p := oauth1.Params{}
	if r != nil {
		r.addTo(p)
	}
	return p
}

// FilterStreamRequest describes a statuses/filter stream. At least one of
// Follow, Track or Locations must be set.
type FilterStreamRequest struct {
	StreamRequest
	Follow    []string
	Track     []string
	Locations []string
}

// Params builds the request parameters.
func (r *FilterStreamRequest) Params() oauth1.Params {
	p := oauth1.Params{}
	r.addTo(p)
	if len(r.Follow) > 0 {
		p["follow"] = strings.Join(r.Follow, ",")
	}
	if len(r.Track) > 0 {
		p["track"] = strings.Join(r.Track, ",")
	}
	if len(r.Locations) > 0 {
		p["locations"] = strings.Join(r.Locations, ",")
	}
	return p
}
