package model

import "time"

// Review is a road review as listed by the backend.
type Review struct {
	RoadID    int64     `json:"road_id,omitempty"`
	UserID    int64     `json:"user_id"`
	Comment   string    `json:"comment,omitempty"`
	Tags      []string  `json:"tags"`
	Media     *string   `json:"media,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Rating is a single star rating of a road.
type Rating struct {
	RatingID  int64     `json:"rating_id,omitempty"`
	RoadID    int64     `json:"road_id"`
	UserID    int64     `json:"user_id,omitempty"`
	Rating    float64   `json:"rating"`
	Location  string    `json:"location,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Media is an attachment for a review.
type Media struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"-"`
}

// ReviewForm is what the review panel collects before submission.
type ReviewForm struct {
	RoadID   int64    `json:"road_id" validate:"required,gt=0"`
	Comment  string   `json:"comment"`
	Tags     []string `json:"tags"`
	Rating   int      `json:"rating" validate:"gte=0,lte=5"`
	Location string   `json:"location"`
	Media    *Media   `json:"media,omitempty"`
}

// ReviewList is the panel content after a refresh.
type ReviewList struct {
	RoadID        int64          `json:"road_id"`
	Reviews       []Review       `json:"reviews"`
	TagCounts     map[string]int `json:"tag_counts"`
	Ratings       []Rating       `json:"ratings"`
	AverageRating float64        `json:"average_rating"`
}
