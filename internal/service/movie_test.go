package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/cinereview/internal/model"
	"github.com/user/cinereview/internal/storage"
)

func TestGetMovie_SecondCallHitsMemo(t *testing.T) {
	env := newTestServices()
	env.movies.put(model.MovieRow{ID: movieAlien, Title: "Alien"})
	ctx := context.Background()

	first, err := env.movieSvc.GetMovie(ctx, movieAlien)
	require.NoError(t, err)
	second, err := env.movieSvc.GetMovie(ctx, movieAlien)
	require.NoError(t, err)

	assert.Equal(t, 1, env.movies.findCalls)
	assert.Equal(t, first, second)
}

func TestGetMovie_ListPopulatesMemo(t *testing.T) {
	env := newTestServices()
	env.movies.put(model.MovieRow{ID: movieAlien, Title: "Alien"})
	env.movies.put(model.MovieRow{ID: movieHeat, Title: "Heat"})
	ctx := context.Background()

	movies := env.movieSvc.ListMovies(ctx)
	require.Len(t, movies, 2)

	movie, err := env.movieSvc.GetMovie(ctx, movieHeat)
	require.NoError(t, err)
	assert.Equal(t, "Heat", movie.Title)
	assert.Equal(t, 0, env.movies.findCalls)
}

func TestGetMovie_NotFound(t *testing.T) {
	env := newTestServices()

	_, err := env.movieSvc.GetMovie(context.Background(), missingID)
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestGetMovie_MalformedID(t *testing.T) {
	env := newTestServices()

	_, err := env.movieSvc.GetMovie(context.Background(), "abc")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.Equal(t, 0, env.movies.findCalls)
}

// 合并的查询不跟随调用方的取消
func TestGetMovie_CallerCancelDoesNotAbortFetch(t *testing.T) {
	env := newTestServices()
	env.movies.put(model.MovieRow{ID: movieAlien, Title: "Alien"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	movie, err := env.movieSvc.GetMovie(ctx, movieAlien)
	require.NoError(t, err)
	assert.Equal(t, "Alien", movie.Title)
	assert.Equal(t, 1, env.movies.findCalls)
}

func TestGetMovie_StoreFailure(t *testing.T) {
	env := newTestServices()
	env.movies.err = errors.New("connection refused")

	_, err := env.movieSvc.GetMovie(context.Background(), movieAlien)
	assert.ErrorIs(t, err, model.ErrRemoteStore)
}

func TestListMovies_EmptyOnFailure(t *testing.T) {
	env := newTestServices()
	env.movies.err = errors.New("connection refused")
	ctx := context.Background()

	assert.Equal(t, []model.Movie{}, env.movieSvc.ListMovies(ctx))
	assert.Equal(t, []model.Movie{}, env.movieSvc.TopRated(ctx, 5))
	assert.Equal(t, []model.Movie{}, env.movieSvc.Search(ctx, "alien"))
}

func TestListByCategory(t *testing.T) {
	env := newTestServices()
	ctx := context.Background()

	_, err := env.movieSvc.AddMovie(ctx, model.NewMovie{Title: "Alien", Categories: []string{"Horror", "Sci-Fi"}}, nil)
	require.NoError(t, err)
	_, err = env.movieSvc.AddMovie(ctx, model.NewMovie{Title: "Heat", Categories: []string{"Crime"}}, nil)
	require.NoError(t, err)

	horror := env.movieSvc.ListByCategory(ctx, "Horror")
	require.Len(t, horror, 1)
	assert.Equal(t, "Alien", horror[0].Title)

	assert.Empty(t, env.movieSvc.ListByCategory(ctx, "Western"))
}

func TestAddMovie(t *testing.T) {
	env := newTestServices()
	ctx := context.Background()

	t.Run("标题必填", func(t *testing.T) {
		_, err := env.movieSvc.AddMovie(ctx, model.NewMovie{Title: "  "}, nil)
		assert.ErrorIs(t, err, model.ErrInvalidInput)
	})

	t.Run("上传海报并创建分类", func(t *testing.T) {
		poster := &storage.File{Name: "alien.jpg", Body: strings.NewReader("img")}
		movie, err := env.movieSvc.AddMovie(ctx, model.NewMovie{
			Title:      "Alien",
			Director:   "Ridley Scott",
			Categories: []string{"Horror", " ", "Sci-Fi", "Horror"},
			CreatedBy:  "alice",
		}, poster)
		require.NoError(t, err)

		assert.Equal(t, "http://cdn.local/bucket/alien.jpg", movie.PosterURL)
		assert.Equal(t, []string{"Horror", "Sci-Fi"}, movie.Categories)
		assert.Equal(t, "Ridley Scott", *movie.Director)
		assert.Equal(t, "alice", movie.CreatedBy)

		horror, err := env.categories.FindByName(ctx, "Horror")
		require.NoError(t, err)
		assert.NotNil(t, horror)
	})

	t.Run("复用已有分类", func(t *testing.T) {
		before := len(env.movieSvc.ListCategories(ctx))
		_, err := env.movieSvc.AddMovie(ctx, model.NewMovie{Title: "The Thing", Categories: []string{"Horror"}}, nil)
		require.NoError(t, err)
		assert.Len(t, env.movieSvc.ListCategories(ctx), before)
	})

	t.Run("海报上传失败仍然创建电影", func(t *testing.T) {
		env.images.err = errors.New("bucket down")
		defer func() { env.images.err = nil }()

		movie, err := env.movieSvc.AddMovie(ctx, model.NewMovie{Title: "Heat"}, &storage.File{Name: "heat.jpg", Body: strings.NewReader("x")})
		require.NoError(t, err)
		assert.Equal(t, "https://via.placeholder.com/300x450", movie.PosterURL)
	})
}

func TestTopRated_DefaultLimit(t *testing.T) {
	env := newTestServices()
	for i := 0; i < 12; i++ {
		env.movies.put(model.MovieRow{ID: string(rune('a' + i)), Title: "M"})
	}

	assert.Len(t, env.movieSvc.TopRated(context.Background(), 0), 10)
	assert.Len(t, env.movieSvc.TopRated(context.Background(), 3), 3)
}
