package sidechannel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/model"
)

// Reddit searches public posts via the unauthenticated search endpoint
type Reddit struct {
	cfg  model.SocialConfig
	http *http.Client
	log  zerolog.Logger
}

// NewReddit builds the reddit retriever
func NewReddit(cfg model.SocialConfig, log zerolog.Logger) *Reddit {
	return &Reddit{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

// Name implements Retriever
func (r *Reddit) Name() string { return "reddit" }

type redditListing struct {
	Data struct {
		Children []struct {
			Data struct {
				ID          string  `json:"id"`
				Title       string  `json:"title"`
				Selftext    string  `json:"selftext"`
				Subreddit   string  `json:"subreddit"`
				Score       float64 `json:"score"`
				NumComments float64 `json:"num_comments"`
				CreatedUTC  float64 `json:"created_utc"`
				Permalink   string  `json:"permalink"`
				Over18      bool    `json:"over_18"`
			} `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

// Retrieve searches the last week of posts, NSFW excluded
func (r *Reddit) Retrieve(ctx context.Context, claim *model.ParsedClaim, limit int) ([]model.SideItem, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	endpoint := fmt.Sprintf("https://www.reddit.com/search.json?q=%s&limit=%d&sort=relevance&t=week",
		url.QueryEscape(searchQuery(claim)), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", r.cfg.RedditUserAgent)

	resp, err := r.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("reddit search: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("reddit search: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("reddit search: %w", err)
	}

	var listing redditListing
	if err := json.Unmarshal(body, &listing); err != nil {
		return nil, fmt.Errorf("reddit search: decode: %w", err)
	}

	items := make([]model.SideItem, 0, len(listing.Data.Children))
	for _, child := range listing.Data.Children {
		post := child.Data
		if post.Over18 || post.Title == "" {
			continue
		}
		items = append(items, model.SideItem{
			Source:      "reddit",
			Title:       post.Title,
			URL:         "https://reddit.com" + post.Permalink,
			Snippet:     truncateText(post.Selftext, 300),
			PublishedAt: int64(post.CreatedUTC * 1000),
			Extra: map[string]float64{
				"score":        post.Score,
				"num_comments": post.NumComments,
			},
		})
	}
	return items, nil
}

func truncateText(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
