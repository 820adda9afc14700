package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/pkg/errors"
)

type rawReview struct {
	RoadID    model.FlexInt   `json:"road_id"`
	UserID    model.FlexInt   `json:"user_id"`
	Tags      json.RawMessage `json:"tags"`
	Comment   *string         `json:"comment"`
	Media     *string         `json:"media"`
	Timestamp *string         `json:"timestamp"`
}

type reviewsEnvelope struct {
	Reviews   []rawReview    `json:"reviews"`
	TagCounts map[string]int `json:"tag_counts"`
}

type rawRating struct {
	RatingID  model.FlexInt   `json:"rating_id"`
	RoadID    model.FlexInt   `json:"road_id"`
	UserID    model.FlexInt   `json:"user_id"`
	Rating    model.FlexFloat `json:"rating"`
	Location  *string         `json:"location"`
	Timestamp *string         `json:"timestamp"`
}

// Reviews lists the reviews of a road with the backend's tag tally.
func (c *Client) Reviews(ctx context.Context, roadID int64) ([]model.Review, map[string]int, error) {
	body, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/user/roads/%d/reviews", roadID), nil, nil)
	if err != nil {
		return nil, nil, err
	}

	var envelope reviewsEnvelope
	body = bytes.TrimSpace(body)
	if len(body) > 0 && body[0] == '[' {
		if err := json.Unmarshal(body, &envelope.Reviews); err != nil {
			return nil, nil, fmt.Errorf("failed to decode reviews: %w", err)
		}
	} else if len(body) > 0 {
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, nil, fmt.Errorf("failed to decode reviews: %w", err)
		}
	}

	reviews := make([]model.Review, 0, len(envelope.Reviews))
	for _, r := range envelope.Reviews {
		review := model.Review{
			RoadID:    int64(r.RoadID),
			UserID:    int64(r.UserID),
			Tags:      decodeTags(r.Tags),
			Media:     optional(r.Media),
			Timestamp: parseTimestamp(r.Timestamp),
		}
		if review.RoadID == 0 {
			review.RoadID = roadID
		}
		if r.Comment != nil {
			review.Comment = *r.Comment
		}
		reviews = append(reviews, review)
	}
	return reviews, envelope.TagCounts, nil
}

// Ratings lists the star ratings of a road.
func (c *Client) Ratings(ctx context.Context, roadID int64) ([]model.Rating, error) {
	body, err := c.doJSON(ctx, http.MethodGet, fmt.Sprintf("/user/roads/%d/ratings/", roadID), nil, nil)
	if err != nil {
		return nil, err
	}

	var list []rawRating
	body = bytes.TrimSpace(body)
	switch {
	case len(body) == 0:
	case body[0] == '[':
		if err := json.Unmarshal(body, &list); err != nil {
			return nil, fmt.Errorf("failed to decode ratings: %w", err)
		}
	default:
		var envelope struct {
			Ratings []rawRating `json:"ratings"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, fmt.Errorf("failed to decode ratings: %w", err)
		}
		list = envelope.Ratings
	}

	ratings := make([]model.Rating, 0, len(list))
	for _, r := range list {
		rating := model.Rating{
			RatingID:  int64(r.RatingID),
			RoadID:    int64(r.RoadID),
			UserID:    int64(r.UserID),
			Rating:    float64(r.Rating),
			Timestamp: parseTimestamp(r.Timestamp),
		}
		if r.Location != nil {
			rating.Location = *r.Location
		}
		ratings = append(ratings, rating)
	}
	return ratings, nil
}

// PostReview creates a review as a multipart form, attaching media when
// present.
func (c *Client) PostReview(ctx context.Context, roadID int64, comment string, tags []string, media *model.Media) error {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := [][2]string{
		{"road_id", strconv.FormatInt(roadID, 10)},
		{"tags", strings.Join(tags, ",")},
	}
	if comment != "" {
		fields = append(fields, [2]string{"comment", comment})
	}
	for _, f := range fields {
		if err := mw.WriteField(f[0], f[1]); err != nil {
			return errors.Wrap(err, "failed to write review form")
		}
	}

	if media != nil && len(media.Data) > 0 {
		contentType := media.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="media_file"; filename=%q`, media.Filename))
		h.Set("Content-Type", contentType)
		part, err := mw.CreatePart(h)
		if err != nil {
			return errors.Wrap(err, "failed to attach review media")
		}
		if _, err := part.Write(media.Data); err != nil {
			return errors.Wrap(err, "failed to attach review media")
		}
	}
	if err := mw.Close(); err != nil {
		return errors.Wrap(err, "failed to finish review form")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("/user/roads/review/", nil), &buf)
	if err != nil {
		return errors.Wrap(err, "failed to create request")
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err = c.do(req)
	return err
}

type ratingRequest struct {
	RoadID   int64  `json:"road_id"`
	Rating   int    `json:"rating"`
	Location string `json:"location"`
}

// PostRating records a 1 to 5 star rating.
func (c *Client) PostRating(ctx context.Context, roadID int64, rating int, location string) error {
	_, err := c.doJSON(ctx, http.MethodPost, "/user/roads/rate/", nil, ratingRequest{
		RoadID:   roadID,
		Rating:   rating,
		Location: location,
	})
	return err
}

// decodeTags accepts a JSON array of tags or a comma separated string.
func decodeTags(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if isEmptyJSON(raw) {
		return []string{}
	}

	var list []string
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &list); err != nil {
			return []string{}
		}
	} else {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return []string{}
		}
		list = strings.Split(s, ",")
	}

	out := make([]string, 0, len(list))
	for _, t := range list {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
