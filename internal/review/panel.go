package review

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"sync"

	"github.com/bwise1/roadwatch/internal/model"
	"github.com/bwise1/roadwatch/util"
	"golang.org/x/sync/errgroup"
)

// DefaultLocation is sent with ratings when the user gives none.
const DefaultLocation = "Unknown"

var ErrNothingToSubmit = errors.New("provide at least one of: comment, tags, rating or media")

// Tags offered for selection.
var Tags = []string{
	"pothole",
	"cracks",
	"waterlogging",
	"poor lighting",
	"dusty",
	"narrow",
	"smooth",
	"well maintained",
}

// Client is the backend as used by the panel.
type Client interface {
	PostReview(ctx context.Context, roadID int64, comment string, tags []string, media *model.Media) error
	PostRating(ctx context.Context, roadID int64, rating int, location string) error
	Reviews(ctx context.Context, roadID int64) ([]model.Review, map[string]int, error)
	Ratings(ctx context.Context, roadID int64) ([]model.Rating, error)
}

// Step is the outcome of one of the two submission calls.
type Step struct {
	Attempted bool   `json:"attempted"`
	OK        bool   `json:"ok"`
	Error     string `json:"error,omitempty"`
}

// Result reports each call separately. The review and the rating are
// separate resources: one can be stored without the other.
type Result struct {
	Review       Step             `json:"review"`
	Rating       Step             `json:"rating"`
	Message      string           `json:"message"`
	List         model.ReviewList `json:"list"`
	RefreshError string           `json:"refresh_error,omitempty"`
}

// Partial reports that exactly one of the attempted calls failed.
func (r Result) Partial() bool {
	return r.Rating.Attempted && r.Review.OK != r.Rating.OK
}

// Failed reports that nothing was stored.
func (r Result) Failed() bool {
	return !r.Review.OK && (!r.Rating.Attempted || !r.Rating.OK)
}

// Panel collects and submits reviews for one road.
type Panel struct {
	mu       sync.Mutex
	client   Client
	roadID   int64
	selected map[string]bool
	list     model.ReviewList
	closed   bool
	epoch    uint64
}

func NewPanel(client Client, roadID int64) *Panel {
	return &Panel{
		client:   client,
		roadID:   roadID,
		selected: make(map[string]bool),
		list:     model.ReviewList{RoadID: roadID, Reviews: []model.Review{}, TagCounts: map[string]int{}, Ratings: []model.Rating{}},
	}
}

func (p *Panel) RoadID() int64 { return p.roadID }

// ToggleTag flips tag and reports whether it is now selected.
func (p *Panel) ToggleTag(tag string) bool {
	tag = strings.TrimSpace(tag)
	if tag == "" {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.selected[tag] {
		delete(p.selected, tag)
		return false
	}
	p.selected[tag] = true
	return true
}

// SelectedTags returns the selection in offer order, then any custom tags
// alphabetically.
func (p *Panel) SelectedTags() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.selectedLocked()
}

func (p *Panel) selectedLocked() []string {
	out := []string{}
	seen := map[string]bool{}
	for _, t := range Tags {
		if p.selected[t] {
			out = append(out, t)
			seen[t] = true
		}
	}
	var extra []string
	for t := range p.selected {
		if !seen[t] {
			extra = append(extra, t)
		}
	}
	sort.Strings(extra)
	return append(out, extra...)
}

// Submit posts the review, then the rating when one was given, then
// refreshes the list. Tags default to the toggled selection.
func (p *Panel) Submit(ctx context.Context, form model.ReviewForm) (Result, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return Result{}, errors.New("review panel closed")
	}
	if form.RoadID == 0 {
		form.RoadID = p.roadID
	}
	if form.Tags == nil {
		form.Tags = p.selectedLocked()
	}
	p.mu.Unlock()

	form.Tags = SplitTags(form.Tags)

	form.Comment = strings.TrimSpace(form.Comment)
	if err := util.ValidateStruct(form); err != nil {
		return Result{}, err
	}
	hasMedia := form.Media != nil && len(form.Media.Data) > 0
	if form.Comment == "" && len(form.Tags) == 0 && form.Rating == 0 && !hasMedia {
		return Result{}, ErrNothingToSubmit
	}
	if !hasMedia {
		form.Media = nil
	}

	var res Result

	res.Review.Attempted = true
	if err := p.client.PostReview(ctx, form.RoadID, form.Comment, form.Tags, form.Media); err != nil {
		log.Printf("❌ review post for road %d failed: %v", form.RoadID, err)
		res.Review.Error = err.Error()
	} else {
		res.Review.OK = true
	}

	if form.Rating > 0 {
		location := strings.TrimSpace(form.Location)
		if location == "" {
			location = DefaultLocation
		}
		res.Rating.Attempted = true
		if err := p.client.PostRating(ctx, form.RoadID, form.Rating, location); err != nil {
			log.Printf("❌ rating post for road %d failed: %v", form.RoadID, err)
			res.Rating.Error = err.Error()
		} else {
			res.Rating.OK = true
		}
	}

	res.Message = message(res)
	if res.Review.OK {
		p.mu.Lock()
		p.selected = make(map[string]bool)
		p.mu.Unlock()
	}

	list, err := p.Refresh(ctx)
	if err != nil {
		res.RefreshError = err.Error()
	}
	res.List = list
	return res, nil
}

func message(res Result) string {
	switch {
	case res.Failed():
		return "Your review could not be saved"
	case !res.Review.OK:
		return fmt.Sprintf("Your rating was saved but the review could not be: %s", res.Review.Error)
	case res.Rating.Attempted && !res.Rating.OK:
		return fmt.Sprintf("Your review was saved but the rating could not be: %s", res.Rating.Error)
	default:
		return "Thanks for your feedback"
	}
}

// Refresh fetches reviews and ratings together and rebuilds the tag tally
// and the average rating.
func (p *Panel) Refresh(ctx context.Context) (model.ReviewList, error) {
	p.mu.Lock()
	p.epoch++
	epoch := p.epoch
	p.mu.Unlock()

	var (
		reviews []model.Review
		counts  map[string]int
		ratings []model.Rating
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		reviews, counts, err = p.client.Reviews(gctx, p.roadID)
		if err != nil {
			return fmt.Errorf("failed to load reviews: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		ratings, err = p.client.Ratings(gctx, p.roadID)
		if err != nil {
			return fmt.Errorf("failed to load ratings: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return p.List(), err
	}

	list := model.ReviewList{
		RoadID:        p.roadID,
		Reviews:       reviews,
		TagCounts:     TallyTags(reviews),
		Ratings:       ratings,
		AverageRating: AverageRating(ratings),
	}
	if len(counts) > 0 {
		list.TagCounts = counts
	}
	if list.Reviews == nil {
		list.Reviews = []model.Review{}
	}
	if list.Ratings == nil {
		list.Ratings = []model.Rating{}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed || p.epoch != epoch {
		return list, nil
	}
	p.list = list
	return list, nil
}

func (p *Panel) List() model.ReviewList {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.list
}

// Close makes later fetch results inert.
func (p *Panel) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// SplitTags trims each tag, splits comma separated entries and drops the
// blank ones.
func SplitTags(raw []string) []string {
	tags := []string{}
	for _, v := range raw {
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}
	return tags
}

// TallyTags counts how often each tag was used.
func TallyTags(reviews []model.Review) map[string]int {
	counts := map[string]int{}
	for _, r := range reviews {
		for _, t := range r.Tags {
			if t = strings.TrimSpace(t); t != "" {
				counts[t]++
			}
		}
	}
	return counts
}

// AverageRating is the mean rating to one decimal, 0 without ratings.
func AverageRating(ratings []model.Rating) float64 {
	if len(ratings) == 0 {
		return 0
	}
	var sum float64
	for _, r := range ratings {
		sum += r.Rating
	}
	return util.Round1(sum / float64(len(ratings)))
}
