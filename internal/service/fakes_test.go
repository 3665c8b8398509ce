package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/user/cinereview/internal/config"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/repository"
	"github.com/user/cinereview/internal/storage"
)

// 固定的测试 id，主键都是 uuid
const (
	movieAlien = "8f0c6d1e-2b1a-4c55-9a41-3f2d7b6e1a01"
	movieHeat  = "8f0c6d1e-2b1a-4c55-9a41-3f2d7b6e1a02"
	reviewOne  = "5a7e9c3b-0d4f-4e21-8b6a-1c2d3e4f5a01"
	missingID  = "00000000-0000-4000-8000-000000000000"
)

func testConfig() *config.Config {
	return &config.Config{
		PlaceholderPoster: "https://via.placeholder.com/300x450",
		MovieCacheSize:    16,
		MovieCacheTTL:     time.Minute,
		DetailTimeout:     time.Second,
	}
}

// fakeMovieStore 内存电影表，平均分从 fakeReviewStore 中读取
type fakeMovieStore struct {
	mu        sync.Mutex
	rows      map[string]*model.MovieRow
	order     []string
	reviews   *fakeReviewStore
	findCalls int
	findDelay time.Duration
	err       error
	seq       int
}

func newFakeMovieStore(reviews *fakeReviewStore) *fakeMovieStore {
	return &fakeMovieStore{rows: map[string]*model.MovieRow{}, reviews: reviews}
}

func (f *fakeMovieStore) put(row model.MovieRow) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows[row.ID] = &row
	f.order = append(f.order, row.ID)
}

func (f *fakeMovieStore) average(id string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id].AverageRating
}

func (f *fakeMovieStore) all() []model.MovieRow {
	rows := make([]model.MovieRow, 0, len(f.order))
	for _, id := range f.order {
		rows = append(rows, *f.rows[id])
	}
	return rows
}

func (f *fakeMovieStore) ListAll(context.Context) ([]model.MovieRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.all(), nil
}

func (f *fakeMovieStore) ListByCategoryID(_ context.Context, categoryID string) ([]model.MovieRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []model.MovieRow
	for _, row := range f.all() {
		for _, link := range row.MovieCategories {
			if link.CategoryID == categoryID {
				out = append(out, row)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeMovieStore) TopRated(_ context.Context, limit int) ([]model.MovieRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	rows := f.all()
	if len(rows) > limit {
		rows = rows[:limit]
	}
	return rows, nil
}

func (f *fakeMovieStore) SearchByTitle(context.Context, string) ([]model.MovieRow, error) {
	return f.ListAll(context.Background())
}

func (f *fakeMovieStore) FindByID(ctx context.Context, id string) (*model.MovieRow, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.findCalls++
	delay := f.findDelay
	f.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (f *fakeMovieStore) Create(_ context.Context, row *model.MovieRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.seq++
	row.ID = uuid.NewString()
	stored := *row
	f.rows[row.ID] = &stored
	f.order = append(f.order, row.ID)
	return nil
}

func (f *fakeMovieStore) LinkCategory(_ context.Context, movieID, categoryID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[movieID]
	if !ok {
		return fmt.Errorf("movie %s missing", movieID)
	}
	row.MovieCategories = append(row.MovieCategories, model.MovieCategory{MovieID: movieID, CategoryID: categoryID})
	return nil
}

func (f *fakeMovieStore) ListIDs(context.Context) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.order...), nil
}

func (f *fakeMovieStore) RecomputeAverage(_ context.Context, movieID string, mean func([]int) float64) (float64, error) {
	ratings := f.reviews.ratingsFor(movieID)

	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[movieID]
	if !ok {
		return 0, model.ErrNotFound
	}
	row.AverageRating = mean(ratings)
	return row.AverageRating, nil
}

type fakeCategoryStore struct {
	mu     sync.Mutex
	byName map[string]*model.Category
	seq    int
}

func newFakeCategoryStore() *fakeCategoryStore {
	return &fakeCategoryStore{byName: map[string]*model.Category{}}
}

func (f *fakeCategoryStore) FindByName(_ context.Context, name string) (*model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byName[name]
	if !ok {
		return nil, nil
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCategoryStore) Create(_ context.Context, c *model.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	c.ID = fmt.Sprintf("cat-%d", f.seq)
	stored := *c
	f.byName[c.Name] = &stored
	return nil
}

func (f *fakeCategoryStore) ListAll(context.Context) ([]model.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]model.Category, 0, len(f.byName))
	for _, c := range f.byName {
		out = append(out, *c)
	}
	return out, nil
}

type fakeReviewStore struct {
	mu        sync.Mutex
	rows      map[string]*model.ReviewRow
	order     []string
	seq       int
	listDelay time.Duration
}

func newFakeReviewStore() *fakeReviewStore {
	return &fakeReviewStore{rows: map[string]*model.ReviewRow{}}
}

func (f *fakeReviewStore) ratingsFor(movieID string) []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	var ratings []int
	for _, id := range f.order {
		if r := f.rows[id]; r.MovieID == movieID {
			ratings = append(ratings, r.Rating)
		}
	}
	return ratings
}

func (f *fakeReviewStore) FindByID(_ context.Context, id string) (*model.ReviewRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	copied := *row
	return &copied, nil
}

func (f *fakeReviewStore) FindByMovieAndUser(_ context.Context, movieID, userID string) (*model.ReviewRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, id := range f.order {
		if r := f.rows[id]; r.MovieID == movieID && r.UserID == userID {
			return &model.ReviewRow{ID: r.ID}, nil
		}
	}
	return nil, nil
}

func (f *fakeReviewStore) Create(_ context.Context, row *model.ReviewRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	row.ID = uuid.NewString()
	row.CreatedAt = time.Now()
	row.UpdatedAt = row.CreatedAt
	stored := *row
	f.rows[row.ID] = &stored
	f.order = append(f.order, row.ID)
	return nil
}

func (f *fakeReviewStore) Update(_ context.Context, id string, fields map[string]interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	row, ok := f.rows[id]
	if !ok {
		return nil
	}
	for k, v := range fields {
		switch k {
		case "content":
			row.Content = v.(string)
		case "rating":
			row.Rating = v.(int)
		case "recommended":
			row.Recommended = v.(bool)
		case "contains_spoilers":
			row.ContainsSpoilers = v.(bool)
		case "image_url":
			row.ImageURL = v.(string)
		case "updated_at":
			row.UpdatedAt = v.(time.Time)
		}
	}
	return nil
}

func (f *fakeReviewStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, id)
	for i, rid := range f.order {
		if rid == id {
			f.order = append(f.order[:i], f.order[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeReviewStore) AdjustHelpfulCount(_ context.Context, id string, delta int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if row, ok := f.rows[id]; ok {
		row.HelpfulCount += delta
		if row.HelpfulCount < 0 {
			row.HelpfulCount = 0
		}
	}
	return nil
}

func (f *fakeReviewStore) ListByMovie(ctx context.Context, movieID string) ([]model.ReviewRow, error) {
	if f.listDelay > 0 {
		select {
		case <-time.After(f.listDelay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ReviewRow
	for i := len(f.order) - 1; i >= 0; i-- {
		if r := f.rows[f.order[i]]; r.MovieID == movieID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeReviewStore) ListByUser(_ context.Context, userID string) ([]model.ReviewRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ReviewRow
	for i := len(f.order) - 1; i >= 0; i-- {
		if r := f.rows[f.order[i]]; r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

type fakeVoteStore struct {
	mu    sync.Mutex
	votes map[string]bool
	err   error
}

func newFakeVoteStore() *fakeVoteStore {
	return &fakeVoteStore{votes: map[string]bool{}}
}

func (f *fakeVoteStore) Insert(_ context.Context, reviewID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	key := reviewID + "|" + userID
	if f.votes[key] {
		return repository.ErrVoteExists
	}
	f.votes[key] = true
	return nil
}

func (f *fakeVoteStore) Delete(_ context.Context, reviewID, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.votes, reviewID+"|"+userID)
	return nil
}

func (f *fakeVoteStore) VotedReviewIDs(_ context.Context, userID string, reviewIDs []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, id := range reviewIDs {
		if f.votes[id+"|"+userID] {
			out = append(out, id)
		}
	}
	return out, nil
}

type fakeImages struct {
	err     error
	uploads []string
}

func (f *fakeImages) upload(prefix string, file *storage.File) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	url := "http://cdn.local/bucket/" + prefix + file.Name
	f.uploads = append(f.uploads, url)
	return url, nil
}

func (f *fakeImages) UploadPoster(_ context.Context, file *storage.File) (string, error) {
	return f.upload("", file)
}

func (f *fakeImages) UploadReviewImage(_ context.Context, file *storage.File) (string, error) {
	return f.upload("reviews/", file)
}

func (f *fakeImages) UploadAvatar(_ context.Context, file *storage.File) (string, error) {
	return f.upload("avatars/", file)
}

// fakeProfiles 明文比较密码，仅用于测试
type fakeProfiles struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newFakeProfiles() *fakeProfiles {
	return &fakeProfiles{profiles: map[string]*model.Profile{}}
}

func (f *fakeProfiles) Get(_ context.Context, username string) (*model.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.profiles[username]
	if !ok {
		return nil, nil
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProfiles) Save(_ context.Context, p *model.Profile) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *p
	f.profiles[p.Username] = &copied
	return nil
}

func (f *fakeProfiles) CheckPassword(p *model.Profile, password string) bool {
	return p.Password == password
}

func (f *fakeProfiles) UpdatePassword(ctx context.Context, p *model.Profile, next string) error {
	p.Password = next
	return f.Save(ctx, p)
}

// testServices 组装一套基于内存存储的服务
type testServices struct {
	movies     *fakeMovieStore
	categories *fakeCategoryStore
	reviews    *fakeReviewStore
	votes      *fakeVoteStore
	images     *fakeImages
	movieSvc   *MovieService
	reviewSvc  *ReviewService
	aggregator *RatingAggregator
}

func newTestServices() *testServices {
	cfg := testConfig()
	reviews := newFakeReviewStore()
	movies := newFakeMovieStore(reviews)
	categories := newFakeCategoryStore()
	votes := newFakeVoteStore()
	images := &fakeImages{}

	movieSvc := NewMovieService(movies, categories, images, cfg)
	aggregator := NewRatingAggregator(movies, movieSvc.Forget)
	reviewSvc := NewReviewService(reviews, votes, images, aggregator, cfg)

	return &testServices{
		movies:     movies,
		categories: categories,
		reviews:    reviews,
		votes:      votes,
		images:     images,
		movieSvc:   movieSvc,
		reviewSvc:  reviewSvc,
		aggregator: aggregator,
	}
}
