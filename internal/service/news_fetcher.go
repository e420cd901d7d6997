package service

import (
	"aiedu_backend/internal/config"
	"aiedu_backend/internal/model"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

// NewsFetcher 抽象每一个新闻源
type NewsFetcher interface {
	Name() string
	Fetch(ctx context.Context) ([]model.NewsArticle, error)
}

// ArticleID 按链接哈希去重
func ArticleID(link string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(link)))
	return hex.EncodeToString(sum[:16])
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// plainText 去掉 HTML 标签并截断
func plainText(s string, max int) string {
	s = html.UnescapeString(tagPattern.ReplaceAllString(s, " "))
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return strings.TrimSpace(string(r[:max])) + "..."
}

// RSS2JSONFetcher 通过 rss2json 代理把 RSS 转成 JSON
type RSS2JSONFetcher struct {
	Client   *http.Client
	ProxyURL string
	Feed     config.NewsFeed
}

type rss2jsonResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Feed    struct {
		Title string `json:"title"`
	} `json:"feed"`
	Items []struct {
		Title       string `json:"title"`
		PubDate     string `json:"pubDate"`
		Link        string `json:"link"`
		GUID        string `json:"guid"`
		Author      string `json:"author"`
		Thumbnail   string `json:"thumbnail"`
		Description string `json:"description"`
		Content     string `json:"content"`
		Enclosure   struct {
			Link string `json:"link"`
			Type string `json:"type"`
		} `json:"enclosure"`
	} `json:"items"`
}

func NewRSS2JSONFetcher(proxyURL string, feed config.NewsFeed) *RSS2JSONFetcher {
	return &RSS2JSONFetcher{
		Client:   &http.Client{Timeout: 15 * time.Second},
		ProxyURL: proxyURL,
		Feed:     feed,
	}
}

func (f *RSS2JSONFetcher) Name() string {
	return f.Feed.Name
}

func (f *RSS2JSONFetcher) Fetch(ctx context.Context) ([]model.NewsArticle, error) {
	endpoint := f.ProxyURL + "?rss_url=" + url.QueryEscape(f.Feed.URL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", f.Feed.Name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %d", f.Feed.Name, resp.StatusCode)
	}

	var body rss2jsonResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode %s: %w", f.Feed.Name, err)
	}
	if body.Status != "ok" {
		return nil, fmt.Errorf("fetch %s: %s", f.Feed.Name, body.Message)
	}

	now := time.Now()
	articles := make([]model.NewsArticle, 0, len(body.Items))
	for _, item := range body.Items {
		link := item.Link
		if link == "" {
			link = item.GUID
		}
		if link == "" || item.Title == "" {
			continue
		}

		published, err := time.Parse("2006-01-02 15:04:05", item.PubDate)
		if err != nil {
			published = now
		}
		thumbnail := item.Thumbnail
		if thumbnail == "" && strings.HasPrefix(item.Enclosure.Type, "image/") {
			thumbnail = item.Enclosure.Link
		}
		desc := item.Description
		if desc == "" {
			desc = item.Content
		}

		articles = append(articles, model.NewsArticle{
			ID:          ArticleID(link),
			Title:       plainText(item.Title, 500),
			Link:        link,
			Description: plainText(desc, 400),
			Author:      item.Author,
			Source:      f.Feed.Name,
			Category:    f.Feed.Category,
			Thumbnail:   thumbnail,
			PublishedAt: published.UTC(),
			FetchedAt:   now,
		})
	}
	return articles, nil
}
