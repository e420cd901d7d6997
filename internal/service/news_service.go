package service

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"aiedu_backend/internal/repository"
	"aiedu_backend/internal/util"
	"aiedu_backend/pkg/logger"
	"aiedu_backend/pkg/monitoring"
	"aiedu_backend/pkg/security"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const newsCachePrefix = "news:list:"

type NewsItem struct {
	model.NewsArticle
	LikedByMe bool `json:"likedByMe"`
}

type RefreshResult struct {
	Fetched int      `json:"fetched"`
	Stored  int      `json:"stored"`
	Failed  []string `json:"failed,omitempty"`
}

type LikeResult struct {
	Liked bool `json:"liked"`
	Likes int  `json:"likes"`
}

type NewsService struct {
	Repo     *repository.NewsRepository
	Redis    *redis.Client
	Fetchers []NewsFetcher
	Limiter  *security.KeyedLimiter
	Hub      *RealtimeHub

	cacheTTL    time.Duration
	maxArticles int

	mu       sync.RWMutex
	lastGood []model.NewsArticle
}

func NewNewsService(repo *repository.NewsRepository, rdb *redis.Client, cfg config.NewsConfig, hub *RealtimeHub) *NewsService {
	fetchers := make([]NewsFetcher, 0, len(cfg.Feeds))
	for _, feed := range cfg.Feeds {
		fetchers = append(fetchers, NewRSS2JSONFetcher(cfg.ProxyURL, feed))
	}
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 10
	}
	maxArticles := cfg.MaxArticles
	if maxArticles <= 0 {
		maxArticles = 50
	}
	return &NewsService{
		Repo:        repo,
		Redis:       rdb,
		Fetchers:    fetchers,
		Limiter:     security.NewKeyedLimiter(perMinute, time.Minute),
		Hub:         hub,
		cacheTTL:    cfg.CacheTTL,
		maxArticles: maxArticles,
	}
}

// RefreshNews 拉取全部新闻源，按链接去重后写入，保留点赞数
func (s *NewsService) RefreshNews(ctx context.Context) (*RefreshResult, error) {
	result := &RefreshResult{}
	seen := make(map[string]bool)
	var articles []model.NewsArticle

	for _, f := range s.Fetchers {
		items, err := f.Fetch(ctx)
		monitoring.NewsRefreshCounter.WithLabelValues(f.Name(), monitoring.Result(err)).Inc()
		if err != nil {
			logger.Log.Warn("News feed fetch failed", zap.String("source", f.Name()), zap.Error(err))
			result.Failed = append(result.Failed, f.Name())
			continue
		}
		result.Fetched += len(items)
		for _, a := range items {
			if seen[a.ID] {
				continue
			}
			seen[a.ID] = true
			articles = append(articles, a)
		}
	}

	if len(s.Fetchers) > 0 && len(result.Failed) == len(s.Fetchers) {
		return result, fmt.Errorf("refresh news: all %d feeds failed", len(s.Fetchers))
	}

	if err := s.Repo.UpsertArticles(ctx, articles); err != nil {
		return result, fmt.Errorf("refresh news: %w", err)
	}
	result.Stored = len(articles)
	s.invalidateCache(ctx)

	logger.Log.Info("News refreshed",
		zap.Int("fetched", result.Fetched),
		zap.Int("stored", result.Stored),
		zap.Strings("failed", result.Failed))
	s.Hub.Publish(TopicNews, "news_refreshed", result)
	return result, nil
}

// RefreshNewsManual 手动刷新，按调用方限流
func (s *NewsService) RefreshNewsManual(ctx context.Context, key string) (*RefreshResult, error) {
	if !s.Limiter.Allow("refresh:" + key) {
		return nil, util.ErrTooManyRequests
	}
	return s.RefreshNews(ctx)
}

func cacheKey(limit int, category string) string {
	return newsCachePrefix + category + ":" + strconv.Itoa(limit)
}

func (s *NewsService) readCache(ctx context.Context, key string) ([]model.NewsArticle, bool) {
	if s.Redis == nil {
		return nil, false
	}
	data, err := s.Redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("News cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var articles []model.NewsArticle
	if err := json.Unmarshal(data, &articles); err != nil {
		return nil, false
	}
	return articles, true
}

func (s *NewsService) writeCache(ctx context.Context, key string, articles []model.NewsArticle) {
	if s.Redis == nil || s.cacheTTL <= 0 {
		return
	}
	data, err := json.Marshal(articles)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, key, data, s.cacheTTL).Err(); err != nil {
		logger.Log.Warn("News cache write failed", zap.Error(err))
	}
}

func (s *NewsService) invalidateCache(ctx context.Context) {
	if s.Redis == nil {
		return
	}
	iter := s.Redis.Scan(ctx, 0, newsCachePrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		s.Redis.Del(ctx, keys...)
	}
}

// ListNews 读取新闻列表；数据库不可用时返回最近一次成功的结果或内置文章
func (s *NewsService) ListNews(ctx context.Context, limit int, category, userID string) ([]NewsItem, error) {
	if limit <= 0 || limit > s.maxArticles {
		limit = s.maxArticles
	}
	key := cacheKey(limit, category)

	articles, ok := s.readCache(ctx, key)
	if !ok {
		var err error
		articles, err = s.Repo.List(ctx, limit, category)
		if err != nil {
			logger.Log.Warn("News store unavailable, serving fallback", zap.Error(err))
			articles = s.fallback(limit, category)
		} else {
			if len(articles) > 0 {
				s.mu.Lock()
				s.lastGood = articles
				s.mu.Unlock()
			}
			s.writeCache(ctx, key, articles)
		}
	}

	liked := map[string]bool{}
	if userID != "" && len(articles) > 0 {
		ids := make([]string, len(articles))
		for i, a := range articles {
			ids[i] = a.ID
		}
		if m, err := s.Repo.LikedBy(ctx, userID, ids); err == nil {
			liked = m
		}
	}

	items := make([]NewsItem, len(articles))
	for i, a := range articles {
		items[i] = NewsItem{NewsArticle: a, LikedByMe: liked[a.ID]}
	}
	return items, nil
}

func (s *NewsService) fallback(limit int, category string) []model.NewsArticle {
	s.mu.RLock()
	source := s.lastGood
	s.mu.RUnlock()
	if len(source) == 0 {
		source = FallbackArticles()
	}

	out := make([]model.NewsArticle, 0, limit)
	for _, a := range source {
		if category != "" && a.Category != category {
			continue
		}
		out = append(out, a)
		if len(out) == limit {
			break
		}
	}
	return out
}

// ToggleLike 点赞或取消点赞
func (s *NewsService) ToggleLike(ctx context.Context, userID, articleID string) (*LikeResult, error) {
	liked, likes, err := s.Repo.ToggleLike(ctx, articleID, userID)
	if err != nil {
		return nil, fmt.Errorf("toggle like: %w", err)
	}
	s.invalidateCache(ctx)
	s.Hub.Publish(TopicNews, "news_liked", map[string]interface{}{"id": articleID, "likes": likes})
	return &LikeResult{Liked: liked, Likes: likes}, nil
}

// StartBackgroundRefresh 启动后立即刷新一次，之后按 interval 定时刷新
func (s *NewsService) StartBackgroundRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 || len(s.Fetchers) == 0 {
		return
	}
	s.Limiter.StartJanitor()
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			refreshCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
			if _, err := s.RefreshNews(refreshCtx); err != nil {
				logger.Log.Error("Background news refresh failed", zap.Error(err))
			}
			cancel()

			select {
			case <-ctx.Done():
				s.Limiter.Stop()
				return
			case <-ticker.C:
			}
		}
	}()
}

// FallbackArticles 新闻源和数据库都不可用时展示的内置文章
func FallbackArticles() []model.NewsArticle {
	published := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	items := []struct{ title, link, desc, source, category string }{
		{"What is a large language model?", "https://developers.google.com/machine-learning/resources/intro-llms",
			"An introduction to how large language models are trained and used.", "Google Developers", "ai"},
		{"Neural networks, explained", "https://news.mit.edu/2017/explained-neural-networks-deep-learning-0414",
			"A plain-language overview of neural networks and deep learning.", "MIT News", "research"},
		{"Prompt engineering overview", "https://platform.openai.com/docs/guides/prompt-engineering",
			"Strategies and tactics for getting better results from language models.", "OpenAI", "ai"},
		{"Machine Learning Crash Course", "https://developers.google.com/machine-learning/crash-course",
			"A fast-paced, practical introduction to machine learning.", "Google Developers", "education"},
	}
	out := make([]model.NewsArticle, len(items))
	for i, it := range items {
		out[i] = model.NewsArticle{
			ID:          ArticleID(it.link),
			Title:       it.title,
			Link:        it.link,
			Description: it.desc,
			Source:      it.source,
			Category:    it.category,
			PublishedAt: published,
			FetchedAt:   published,
		}
	}
	return out
}
