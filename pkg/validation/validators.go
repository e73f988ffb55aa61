// Package validation checks request options before they are sent, so that
// obviously invalid requests fail without a network round trip.
package validation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	twerrors "github.com/jamesprial/go-twitter-api-wrapper/pkg/errors"
	"github.com/jamesprial/go-twitter-api-wrapper/pkg/types"
)

const (
	// MaxTweetLength is the maximum status length in characters.
	MaxTweetLength = 280
	// MaxTimelineCount is the largest count accepted by timeline endpoints.
	MaxTimelineCount = 200
	// MaxMediaIDs is the number of media attachments allowed on a tweet.
	MaxMediaIDs = 4

	// Filter stream predicate limits.
	MaxTrackKeywords  = 400
	MaxFollowIDs      = 5000
	MaxLocationBoxes  = 25
	coordinatesPerBox = 4
)

var (
	// screenNameRegex matches valid screen names (1-15 chars, alphanumeric + underscore)
	screenNameRegex = regexp.MustCompile(`^[A-Za-z0-9_]{1,15}$`)

	// idRegex matches numeric object IDs as sent in *_str fields
	idRegex = regexp.MustCompile(`^[0-9]+$`)
)

// IsValidScreenName checks if a string is a valid screen name, without the
// leading @.
func IsValidScreenName(s string) bool {
	return screenNameRegex.MatchString(s)
}

// IsValidID checks if a string is a valid numeric object ID
func IsValidID(s string) bool {
	return idRegex.MatchString(s)
}

// ValidateTimelineRequest validates timeline options. A nil request is valid.
func ValidateTimelineRequest(r *types.TimelineRequest) error {
	if r == nil {
		return nil
	}

	var errs []error

	if r.UserID != "" && !IsValidID(r.UserID) {
		errs = append(errs, fmt.Errorf("UserID has invalid format: %s", r.UserID))
	}
	if r.ScreenName != "" && !IsValidScreenName(r.ScreenName) {
		errs = append(errs, fmt.Errorf("ScreenName has invalid format: %s", r.ScreenName))
	}
	if r.Count < 0 || r.Count > MaxTimelineCount {
		errs = append(errs, fmt.Errorf("Count must be between 0 and %d, got %d", MaxTimelineCount, r.Count))
	}
	if r.SinceID != "" && !IsValidID(r.SinceID) {
		errs = append(errs, fmt.Errorf("SinceID has invalid format: %s", r.SinceID))
	}
	if r.MaxID != "" && !IsValidID(r.MaxID) {
		errs = append(errs, fmt.Errorf("MaxID has invalid format: %s", r.MaxID))
	}

	return joinValidationErrors("timeline", errs)
}

// ValidateTweetRequest validates a status update.
func ValidateTweetRequest(r *types.TweetRequest) error {
	if r == nil {
		return &twerrors.ConfigError{Field: "tweet", Message: "request is nil"}
	}

	var errs []error

	length := utf8.RuneCountInString(r.Status)
	if length == 0 && len(r.MediaIDs) == 0 {
		errs = append(errs, fmt.Errorf("Status is required when no media is attached"))
	}
	if length > MaxTweetLength {
		errs = append(errs, fmt.Errorf("Status exceeds %d character limit (%d chars)", MaxTweetLength, length))
	}
	if len(r.MediaIDs) > MaxMediaIDs {
		errs = append(errs, fmt.Errorf("at most %d media IDs may be attached, got %d", MaxMediaIDs, len(r.MediaIDs)))
	}
	for i, id := range r.MediaIDs {
		if !IsValidID(id) {
			errs = append(errs, fmt.Errorf("media ID at index %d has invalid format: %s", i, id))
		}
	}
	if r.InReplyToStatusID != "" && !IsValidID(r.InReplyToStatusID) {
		errs = append(errs, fmt.Errorf("InReplyToStatusID has invalid format: %s", r.InReplyToStatusID))
	}
	if (r.Lat == nil) != (r.Long == nil) {
		errs = append(errs, fmt.Errorf("Lat and Long must be set together"))
	}
	if r.Lat != nil && (*r.Lat < -90 || *r.Lat > 90) {
		errs = append(errs, fmt.Errorf("Lat must be between -90 and 90, got %f", *r.Lat))
	}
	if r.Long != nil && (*r.Long < -180 || *r.Long > 180) {
		errs = append(errs, fmt.Errorf("Long must be between -180 and 180, got %f", *r.Long))
	}

	return joinValidationErrors("tweet", errs)
}

// ValidateMediaUploadRequest validates a simple media upload.
func ValidateMediaUploadRequest(r *types.MediaUploadRequest) error {
	if r == nil {
		return &twerrors.ConfigError{Field: "media", Message: "request is nil"}
	}
	if len(r.Data) == 0 {
		return &twerrors.ConfigError{Field: "media", Message: "Data is required"}
	}
	return nil
}

// ValidateFilterStreamRequest validates statuses/filter predicates. At least
// one of Follow, Track or Locations is required.
func ValidateFilterStreamRequest(r *types.FilterStreamRequest) error {
	if r == nil || (len(r.Follow) == 0 && len(r.Track) == 0 && len(r.Locations) == 0) {
		return &twerrors.ConfigError{
			Field:   "filter",
			Message: "at least one predicate parameter (follow, locations, or track) must be specified",
		}
	}

	var errs []error

	if len(r.Track) > MaxTrackKeywords {
		errs = append(errs, fmt.Errorf("at most %d track keywords are allowed, got %d", MaxTrackKeywords, len(r.Track)))
	}
	if len(r.Follow) > MaxFollowIDs {
		errs = append(errs, fmt.Errorf("at most %d follow IDs are allowed, got %d", MaxFollowIDs, len(r.Follow)))
	}
	for i, id := range r.Follow {
		if !IsValidID(id) {
			errs = append(errs, fmt.Errorf("follow ID at index %d has invalid format: %s", i, id))
		}
	}
	if err := validateLocations(r.Locations); err != nil {
		errs = append(errs, err)
	}

	return joinValidationErrors("filter", errs)
}

// validateLocations checks bounding boxes given as
// southwest longitude, southwest latitude, northeast longitude, northeast latitude.
func validateLocations(coords []string) error {
	if len(coords) == 0 {
		return nil
	}
	if len(coords)%coordinatesPerBox != 0 {
		return fmt.Errorf("Locations must contain groups of %d coordinates, got %d values", coordinatesPerBox, len(coords))
	}
	if len(coords)/coordinatesPerBox > MaxLocationBoxes {
		return fmt.Errorf("at most %d location boxes are allowed", MaxLocationBoxes)
	}

	for i, c := range coords {
		v, err := strconv.ParseFloat(strings.TrimSpace(c), 64)
		if err != nil {
			return fmt.Errorf("location coordinate at index %d is not a number: %s", i, c)
		}
		limit := 180.0
		if i%2 == 1 {
			limit = 90
		}
		if v < -limit || v > limit {
			return fmt.Errorf("location coordinate at index %d is out of range: %s", i, c)
		}
	}
	return nil
}

// joinValidationErrors combines multiple errors into a single ConfigError
func joinValidationErrors(field string, errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	msgs := make([]string, 0, len(errs))
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}
	return &twerrors.ConfigError{Field: field, Message: strings.Join(msgs, "; ")}
}
