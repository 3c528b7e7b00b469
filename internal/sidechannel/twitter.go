package sidechannel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/model"
)

// Twitter searches recent tweets via the v2 API. Without a bearer token the
// channel is silently inactive.
type Twitter struct {
	cfg  model.SocialConfig
	http *http.Client
	log  zerolog.Logger
}

// NewTwitter builds the twitter retriever
func NewTwitter(cfg model.SocialConfig, log zerolog.Logger) *Twitter {
	return &Twitter{cfg: cfg, http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

// Name implements Retriever
func (t *Twitter) Name() string { return "twitter" }

type twitterResponse struct {
	Data []struct {
		ID            string `json:"id"`
		Text          string `json:"text"`
		AuthorID      string `json:"author_id"`
		CreatedAt     string `json:"created_at"`
		PublicMetrics struct {
			RetweetCount float64 `json:"retweet_count"`
			LikeCount    float64 `json:"like_count"`
		} `json:"public_metrics"`
	} `json:"data"`
	Includes struct {
		Users []struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"users"`
	} `json:"includes"`
}

// Retrieve searches recent tweets, dropping bare retweets
func (t *Twitter) Retrieve(ctx context.Context, claim *model.ParsedClaim, limit int) ([]model.SideItem, error) {
	if t.cfg.TwitterBearerToken == "" {
		return nil, nil
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if limit < 10 {
		limit = 10 // API minimum for max_results
	}

	endpoint := fmt.Sprintf(
		"https://api.twitter.com/2/tweets/search/recent?query=%s&max_results=%d&tweet.fields=created_at,public_metrics,author_id&expansions=author_id&user.fields=username",
		url.QueryEscape(searchQuery(claim)), limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+t.cfg.TwitterBearerToken)

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twitter search: %w", err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		t.log.Warn().Msg("twitter rate limited")
		return nil, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, fmt.Errorf("twitter search: auth error %d", resp.StatusCode)
	default:
		return nil, fmt.Errorf("twitter search: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("twitter search: %w", err)
	}

	var payload twitterResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("twitter search: decode: %w", err)
	}

	usernames := make(map[string]string, len(payload.Includes.Users))
	for _, u := range payload.Includes.Users {
		usernames[u.ID] = u.Username
	}

	items := make([]model.SideItem, 0, len(payload.Data))
	for _, tw := range payload.Data {
		if tw.Text == "" || strings.HasPrefix(tw.Text, "RT @") {
			continue
		}
		username := usernames[tw.AuthorID]
		if username == "" {
			username = "unknown"
		}
		item := model.SideItem{
			Source:  "twitter",
			Title:   truncateText(tw.Text, 120),
			URL:     fmt.Sprintf("https://twitter.com/%s/status/%s", username, tw.ID),
			Snippet: tw.Text,
			Extra: map[string]float64{
				"retweets": tw.PublicMetrics.RetweetCount,
				"likes":    tw.PublicMetrics.LikeCount,
			},
		}
		if created, err := time.Parse(time.RFC3339, tw.CreatedAt); err == nil {
			item.PublishedAt = created.UnixMilli()
		}
		items = append(items, item)
	}
	return items, nil
}
