package service

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/testutil"
	"aiedu_backend/internal/util"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type stubFetcher struct {
	name     string
	articles []model.NewsArticle
	err      error
}

func (f *stubFetcher) Name() string { return f.name }

func (f *stubFetcher) Fetch(ctx context.Context) ([]model.NewsArticle, error) {
	return f.articles, f.err
}

func article(link, title, category string, published time.Time) model.NewsArticle {
	return model.NewsArticle{
		ID:          ArticleID(link),
		Title:       title,
		Link:        link,
		Category:    category,
		PublishedAt: published,
		FetchedAt:   published,
	}
}

func newNewsService(t *testing.T, fetchers ...NewsFetcher) (*gorm.DB, *NewsService) {
	db := testutil.NewDB(t)
	svc := NewNewsService(repository.NewNewsRepository(db), nil, config.NewsConfig{MaxArticles: 20, RequestsPerMinute: 2}, nil)
	svc.Fetchers = fetchers
	return db, svc
}

func TestRefreshNews_DedupesAndKeepsLikes(t *testing.T) {
	day := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	feedA := &stubFetcher{name: "a", articles: []model.NewsArticle{
		article("https://x.example.com/1", "GPT news", "ai", day),
		article("https://x.example.com/2", "Robotics", "research", day.Add(time.Hour)),
	}}
	feedB := &stubFetcher{name: "b", articles: []model.NewsArticle{
		article("https://x.example.com/1", "GPT news (mirror)", "ai", day),
	}}
	broken := &stubFetcher{name: "broken", err: errors.New("timeout")}
	_, svc := newNewsService(t, feedA, feedB, broken)
	ctx := context.Background()

	res, err := svc.RefreshNews(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Fetched)
	assert.Equal(t, 2, res.Stored)
	assert.Equal(t, []string{"broken"}, res.Failed)

	first := ArticleID("https://x.example.com/1")
	like, err := svc.ToggleLike(ctx, "u1", first)
	require.NoError(t, err)
	assert.True(t, like.Liked)
	assert.Equal(t, 1, like.Likes)

	feedA.articles[0].Title = "GPT news (updated)"
	_, err = svc.RefreshNews(ctx)
	require.NoError(t, err)

	items, err := svc.ListNews(ctx, 10, "", "u1")
	require.NoError(t, err)
	require.Len(t, items, 2)
	// 按发布时间倒序
	assert.Equal(t, "Robotics", items[0].Title)
	assert.Equal(t, "GPT news (updated)", items[1].Title)
	assert.Equal(t, 1, items[1].Likes)
	assert.True(t, items[1].LikedByMe)
	assert.False(t, items[0].LikedByMe)
}

func TestRefreshNews_AllFeedsFailing(t *testing.T) {
	_, svc := newNewsService(t, &stubFetcher{name: "a", err: errors.New("down")})

	_, err := svc.RefreshNews(context.Background())
	assert.Error(t, err)
}

func TestRefreshNewsManual_RateLimited(t *testing.T) {
	_, svc := newNewsService(t, &stubFetcher{name: "a"})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svc.RefreshNewsManual(ctx, "admin")
		require.NoError(t, err)
	}
	_, err := svc.RefreshNewsManual(ctx, "admin")
	assert.ErrorIs(t, err, util.ErrTooManyRequests)
}

func TestToggleLike_TwiceUnlikes(t *testing.T) {
	_, svc := newNewsService(t, &stubFetcher{name: "a", articles: []model.NewsArticle{
		article("https://x.example.com/1", "one", "ai", time.Now()),
	}})
	ctx := context.Background()
	_, err := svc.RefreshNews(ctx)
	require.NoError(t, err)
	id := ArticleID("https://x.example.com/1")

	_, err = svc.ToggleLike(ctx, "u1", id)
	require.NoError(t, err)
	res, err := svc.ToggleLike(ctx, "u1", id)
	require.NoError(t, err)
	assert.False(t, res.Liked)
	assert.Zero(t, res.Likes)

	_, err = svc.ToggleLike(ctx, "u1", "missing")
	assert.ErrorIs(t, err, util.ErrArticleNotFound)
}

func TestListNews_FallbackWhenStoreDown(t *testing.T) {
	db, svc := newNewsService(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	items, err := svc.ListNews(context.Background(), 2, "", "")
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, FallbackArticles()[0].ID, items[0].ID)

	items, err = svc.ListNews(context.Background(), 10, "education", "")
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "education", items[0].Category)
}

func TestRSS2JSONFetcher_ParsesItems(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "https://blog.example.com/feed", r.URL.Query().Get("rss_url"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok","items":[
			{"title":"<b>New model</b> released","pubDate":"2024-03-01 10:00:00","link":"https://blog.example.com/a",
			 "description":"<p>Faster &amp; cheaper</p>","enclosure":{"link":"https://img.example.com/a.png","type":"image/png"}},
			{"title":"","link":"https://blog.example.com/skip"}
		]}`))
	}))
	defer srv.Close()

	f := NewRSS2JSONFetcher(srv.URL, config.NewsFeed{Name: "Blog", URL: "https://blog.example.com/feed", Category: "ai"})
	items, err := f.Fetch(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)

	a := items[0]
	assert.Equal(t, "New model released", a.Title)
	assert.Equal(t, "Faster & cheaper", a.Description)
	assert.Equal(t, "https://img.example.com/a.png", a.Thumbnail)
	assert.Equal(t, "Blog", a.Source)
	assert.Equal(t, ArticleID("https://blog.example.com/a"), a.ID)
	assert.Equal(t, time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), a.PublishedAt)
}

func TestRSS2JSONFetcher_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"error","message":"rss_url is invalid"}`))
	}))
	defer srv.Close()

	f := NewRSS2JSONFetcher(srv.URL, config.NewsFeed{Name: "Blog", URL: "bad"})
	_, err := f.Fetch(context.Background())
	assert.ErrorContains(t, err, "rss_url is invalid")
}
