package sidechannel

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/model"
)

// Trends reads Google's daily search trends and surfaces entries matching
// the claim's keywords. The endpoint is unofficial; its JSON is wrapped in an
// anti-hijacking prefix that must be stripped first.
type Trends struct {
	http *http.Client
	log  zerolog.Logger
}

// NewTrends builds the trends retriever
func NewTrends(cfg model.SocialConfig, log zerolog.Logger) *Trends {
	return &Trends{http: &http.Client{Timeout: cfg.Timeout}, log: log}
}

// Name implements Retriever
func (t *Trends) Name() string { return "trends" }

const dailyTrendsURL = "https://trends.google.com/trends/api/dailytrends?hl=en-US&geo=US&ns=15"

type dailyTrends struct {
	Default struct {
		TrendingSearchesDays []struct {
			TrendingSearches []struct {
				Title struct {
					Query string `json:"query"`
				} `json:"title"`
				FormattedTraffic string `json:"formattedTraffic"`
				RelatedQueries   []struct {
					Query string `json:"query"`
				} `json:"relatedQueries"`
				Articles []struct {
					Title string `json:"title"`
					URL   string `json:"url"`
				} `json:"articles"`
			} `json:"trendingSearches"`
		} `json:"trendingSearchesDays"`
	} `json:"default"`
}

// Retrieve fetches today's trending searches and keeps those overlapping the
// claim's terms.
func (t *Trends) Retrieve(ctx context.Context, claim *model.ParsedClaim, limit int) ([]model.SideItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, dailyTrendsURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := t.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("trends: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("trends: HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, fmt.Errorf("trends: %w", err)
	}
	// Responses start with ")]}'," before the JSON payload.
	if idx := bytes.IndexByte(body, '{'); idx > 0 {
		body = body[idx:]
	}

	var payload dailyTrends
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("trends: decode: %w", err)
	}

	terms := claimTerms(claim)
	var items []model.SideItem
	for _, day := range payload.Default.TrendingSearchesDays {
		for _, ts := range day.TrendingSearches {
			text := strings.ToLower(ts.Title.Query)
			for _, rq := range ts.RelatedQueries {
				text += " " + strings.ToLower(rq.Query)
			}
			if !matchesTerms(text, terms) {
				continue
			}
			item := model.SideItem{
				Source:  "trends",
				Title:   ts.Title.Query,
				Snippet: "Search traffic: " + ts.FormattedTraffic,
			}
			if len(ts.Articles) > 0 {
				item.URL = ts.Articles[0].URL
			}
			items = append(items, item)
			if len(items) >= limit {
				return items, nil
			}
		}
	}
	return items, nil
}

func claimTerms(claim *model.ParsedClaim) []string {
	var terms []string
	for _, t := range claim.MustInclude {
		terms = append(terms, strings.ToLower(t))
	}
	for _, e := range claim.Entities {
		terms = append(terms, strings.ToLower(e.Name))
	}
	return terms
}

func matchesTerms(text string, terms []string) bool {
	for _, t := range terms {
		if len(t) > 2 && strings.Contains(text, t) {
			return true
		}
	}
	return false
}
