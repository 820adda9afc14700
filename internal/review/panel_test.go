package review

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"

	"github.com/bwise1/roadwatch/internal/model"
)

type fakeClient struct {
	mu         sync.Mutex
	reviewPost []model.ReviewForm
	ratingPost []model.ReviewForm
	fetches    int
	reviewErr  error
	ratingErr  error
	reviews    []model.Review
	ratings    []model.Rating
}

func (f *fakeClient) PostReview(_ context.Context, roadID int64, comment string, tags []string, media *model.Media) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviewPost = append(f.reviewPost, model.ReviewForm{RoadID: roadID, Comment: comment, Tags: tags, Media: media})
	if f.reviewErr == nil {
		f.reviews = append(f.reviews, model.Review{RoadID: roadID, Comment: comment, Tags: tags})
	}
	return f.reviewErr
}

func (f *fakeClient) PostRating(_ context.Context, roadID int64, rating int, location string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ratingPost = append(f.ratingPost, model.ReviewForm{RoadID: roadID, Rating: rating, Location: location})
	if f.ratingErr == nil {
		f.ratings = append(f.ratings, model.Rating{RoadID: roadID, Rating: float64(rating), Location: location})
	}
	return f.ratingErr
}

func (f *fakeClient) Reviews(context.Context, int64) ([]model.Review, map[string]int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetches++
	return append([]model.Review{}, f.reviews...), nil, nil
}

func (f *fakeClient) Ratings(context.Context, int64) ([]model.Rating, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Rating{}, f.ratings...), nil
}

func TestSubmitRequiresSomething(t *testing.T) {
	client := &fakeClient{}
	p := NewPanel(client, 9)

	_, err := p.Submit(context.Background(), model.ReviewForm{Comment: "  ", Media: &model.Media{Filename: "empty.jpg"}})
	if !errors.Is(err, ErrNothingToSubmit) {
		t.Fatalf("err = %v; want ErrNothingToSubmit", err)
	}
	if err.Error() != "provide at least one of: comment, tags, rating or media" {
		t.Errorf("message = %q", err.Error())
	}
	if len(client.reviewPost)+len(client.ratingPost)+client.fetches != 0 {
		t.Error("network used for an empty review")
	}
}

func TestSubmitBlankTags(t *testing.T) {
	client := &fakeClient{}
	p := NewPanel(client, 9)

	_, err := p.Submit(context.Background(), model.ReviewForm{Tags: []string{" ", "", " , "}})
	if !errors.Is(err, ErrNothingToSubmit) {
		t.Fatalf("err = %v; want ErrNothingToSubmit", err)
	}
	if len(client.reviewPost)+len(client.ratingPost)+client.fetches != 0 {
		t.Error("network used for a review with only blank tags")
	}
}

func TestSplitTags(t *testing.T) {
	tests := []struct {
		name string
		raw  []string
		want []string
	}{
		{"nil", nil, []string{}},
		{"trimmed", []string{" pothole ", "smooth"}, []string{"pothole", "smooth"}},
		{"comma joined", []string{"pothole, ,cracks"}, []string{"pothole", "cracks"}},
		{"blank only", []string{" ", ""}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SplitTags(tt.raw)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitTags(%q) = %q; want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestSubmitRatingOnly(t *testing.T) {
	client := &fakeClient{}
	p := NewPanel(client, 9)

	res, err := p.Submit(context.Background(), model.ReviewForm{Rating: 4})
	if err != nil {
		t.Fatalf("Submit returned error %v", err)
	}

	if len(client.reviewPost) != 1 || len(client.ratingPost) != 1 {
		t.Fatalf("review posts = %d rating posts = %d; want 1 and 1", len(client.reviewPost), len(client.ratingPost))
	}
	rv := client.reviewPost[0]
	if rv.Comment != "" || len(rv.Tags) != 0 || rv.Media != nil {
		t.Errorf("review post = %+v; want empty comment and tags", rv)
	}
	if client.ratingPost[0].Rating != 4 || client.ratingPost[0].Location != DefaultLocation {
		t.Errorf("rating post = %+v", client.ratingPost[0])
	}

	if !res.Review.OK || !res.Rating.OK || res.Partial() || res.Failed() {
		t.Errorf("result = %+v", res)
	}
	if res.List.AverageRating != 4 || client.fetches != 1 {
		t.Errorf("average = %v fetches = %d", res.List.AverageRating, client.fetches)
	}
}

func TestSubmitNoRatingSkipsRatingCall(t *testing.T) {
	client := &fakeClient{}
	p := NewPanel(client, 9)
	p.ToggleTag("pothole")
	p.ToggleTag("dusty")
	p.ToggleTag("dusty")
	p.ToggleTag("pothole")
	p.ToggleTag("cracks")

	res, err := p.Submit(context.Background(), model.ReviewForm{Comment: "bumpy ride"})
	if err != nil {
		t.Fatalf("Submit returned error %v", err)
	}
	if len(client.ratingPost) != 0 || res.Rating.Attempted {
		t.Error("rating posted without a rating")
	}
	if !reflect.DeepEqual(client.reviewPost[0].Tags, []string{"cracks"}) {
		t.Errorf("tags = %v", client.reviewPost[0].Tags)
	}
	if res.List.TagCounts["cracks"] != 1 {
		t.Errorf("tag counts = %v", res.List.TagCounts)
	}
	if len(p.SelectedTags()) != 0 {
		t.Error("selection not cleared after a stored review")
	}
}

func TestSubmitPartialFailure(t *testing.T) {
	testCases := []struct {
		name      string
		reviewErr error
		ratingErr error
		partial   bool
		failed    bool
		message   string
	}{
		{"rating fails", nil, errors.New("rating down"), true, false, "Your review was saved but the rating could not be: rating down"},
		{"review fails", errors.New("review down"), nil, true, false, "Your rating was saved but the review could not be: review down"},
		{"both fail", errors.New("a"), errors.New("b"), false, true, "Your review could not be saved"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			client := &fakeClient{reviewErr: tc.reviewErr, ratingErr: tc.ratingErr}
			p := NewPanel(client, 9)

			res, err := p.Submit(context.Background(), model.ReviewForm{Comment: "ok", Rating: 3})
			if err != nil {
				t.Fatalf("Submit returned error %v", err)
			}
			if res.Partial() != tc.partial || res.Failed() != tc.failed {
				t.Errorf("partial = %v failed = %v", res.Partial(), res.Failed())
			}
			if res.Message != tc.message {
				t.Errorf("message = %q; want %q", res.Message, tc.message)
			}
			if client.fetches != 1 {
				t.Errorf("fetches = %d; want a refresh after the calls settle", client.fetches)
			}
		})
	}
}

func TestSubmitRejectsOutOfRangeRating(t *testing.T) {
	client := &fakeClient{}
	p := NewPanel(client, 9)

	if _, err := p.Submit(context.Background(), model.ReviewForm{Rating: 6}); err == nil {
		t.Error("rating 6 accepted")
	}
	if len(client.reviewPost) != 0 {
		t.Error("network used for an invalid rating")
	}
}

func TestAverageRating(t *testing.T) {
	testCases := []struct {
		ratings []float64
		want    float64
	}{
		{nil, 0},
		{[]float64{4}, 4},
		{[]float64{5, 4, 2}, 3.7},
		{[]float64{1, 2}, 1.5},
	}
	for _, tc := range testCases {
		var rs []model.Rating
		for _, r := range tc.ratings {
			rs = append(rs, model.Rating{Rating: r})
		}
		if got := AverageRating(rs); got != tc.want {
			t.Errorf("AverageRating(%v) = %v; want %v", tc.ratings, got, tc.want)
		}
	}
}
