// Package news fetches recent blood-donation news for the landing page.
// The upstream API key stays server side; responses are cached.
package news

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

const (
	// DefaultEndpoint is the NewsAPI "everything" search.
	DefaultEndpoint = "https://newsapi.org/v2/everything"
	// Query is the fixed keyword filter.
	Query = `("blood donation" OR "blood drive" OR "donate blood")`
	// MaxArticles caps the number of articles returned.
	MaxArticles = 5
	// CacheKey holds the cached article list.
	CacheKey = "news:health"
	// DefaultCacheTTL applies when none is configured.
	DefaultCacheTTL = 15 * time.Minute
)

// ErrNoAPIKey is returned when the client has no API key.
var ErrNoAPIKey = errors.New("news api key not configured")

// Source is the article's publisher.
type Source struct {
	Name string `json:"name"`
}

// Article is one news item.
type Article struct {
	Title       string `json:"title"`
	URL         string `json:"url"`
	Source      Source `json:"source"`
	PublishedAt string `json:"publishedAt"`
	Description string `json:"description,omitempty"`
}

// Fetcher is the news collaborator.
type Fetcher interface {
	FetchHealthNews(ctx context.Context) ([]Article, error)
}

// Client queries NewsAPI, reading through an optional KV cache.
type Client struct {
	http   *resty.Client
	apiKey string
	cache  KV
	ttl    time.Duration
	logger *zap.Logger
}

// NewClient builds a news client. cache may be nil. An empty endpoint uses
// DefaultEndpoint and a non-positive ttl uses DefaultCacheTTL.
func NewClient(endpoint, apiKey string, cache KV, ttl time.Duration, logger *zap.Logger) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	hc := resty.New().
		SetBaseURL(endpoint).
		SetTimeout(10*time.Second).
		SetRetryCount(1).
		SetHeader("Accept", "application/json")

	return &Client{http: hc, apiKey: apiKey, cache: cache, ttl: ttl, logger: logger}
}

type everythingResponse struct {
	Status   string    `json:"status"`
	Code     string    `json:"code"`
	Message  string    `json:"message"`
	Articles []Article `json:"articles"`
}

// FetchHealthNews returns up to MaxArticles of the most recent articles.
// Cache misses and cache errors fall through to the API.
func (c *Client) FetchHealthNews(ctx context.Context) ([]Article, error) {
	if cached, ok := c.fromCache(ctx); ok {
		return cached, nil
	}
	if c.apiKey == "" {
		return nil, ErrNoAPIKey
	}

	var out everythingResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("X-Api-Key", c.apiKey).
		SetQueryParams(map[string]string{
			"q":        Query,
			"language": "en",
			"sortBy":   "publishedAt",
			"pageSize": fmt.Sprint(MaxArticles),
		}).
		SetResult(&out).
		SetError(&out).
		Get("")
	if err != nil {
		return nil, fmt.Errorf("news request: %w", err)
	}
	if resp.IsError() || out.Status == "error" {
		return nil, fmt.Errorf("news api error: status %d: %s", resp.StatusCode(), out.Message)
	}

	articles := out.Articles
	if len(articles) > MaxArticles {
		articles = articles[:MaxArticles]
	}
	if articles == nil {
		articles = []Article{}
	}

	c.toCache(ctx, articles)
	return articles, nil
}

func (c *Client) fromCache(ctx context.Context) ([]Article, bool) {
	if c.cache == nil {
		return nil, false
	}
	raw, err := c.cache.Get(ctx, CacheKey)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("news cache read failed", zap.Error(err))
		}
		return nil, false
	}
	var articles []Article
	if err := json.Unmarshal([]byte(raw), &articles); err != nil {
		c.logger.Warn("news cache entry unreadable", zap.Error(err))
		return nil, false
	}
	return articles, true
}

func (c *Client) toCache(ctx context.Context, articles []Article) {
	if c.cache == nil {
		return
	}
	b, err := json.Marshal(articles)
	if err != nil {
		return
	}
	if err := c.cache.Set(ctx, CacheKey, string(b), c.ttl); err != nil {
		c.logger.Warn("news cache write failed", zap.Error(err))
	}
}
