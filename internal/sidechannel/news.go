package sidechannel

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/html"

	"github.com/nroshak/marketcheck/internal/index"
	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/util"
	"github.com/nroshak/marketcheck/internal/worker"
)

// Embedder scores article relevance against the claim
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// News retrieves recent articles from configured RSS feeds and ranks them by
// embedding similarity to the claim. Feeds are fetched politely: robots.txt
// is honored and requests carry the configured user agent.
type News struct {
	cfg      model.NewsConfig
	http     *http.Client
	robots   *util.RobotsChecker
	embedder Embedder
	log      zerolog.Logger
}

// NewNews builds the news retriever. embedder may be nil, in which case
// articles come back unranked.
func NewNews(cfg model.NewsConfig, robots *util.RobotsChecker, embedder Embedder, log zerolog.Logger) *News {
	return &News{
		cfg:      cfg,
		http:     &http.Client{Timeout: cfg.Timeout},
		robots:   robots,
		embedder: embedder,
		log:      log,
	}
}

// Name implements Retriever
func (n *News) Name() string { return "news" }

type rssFeed struct {
	Channel struct {
		Items []rssItem `xml:"item"`
	} `xml:"channel"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	PubDate     string `xml:"pubDate"`
}

// Retrieve fetches every configured feed concurrently, keeps items that share
// a keyword with the claim, and returns the most relevant ones.
func (n *News) Retrieve(ctx context.Context, claim *model.ParsedClaim, limit int) ([]model.SideItem, error) {
	perFeed := worker.Map(ctx, 4, n.cfg.Feeds, func(ctx context.Context, feed string) []model.SideItem {
		items, err := n.fetchFeed(ctx, feed)
		if err != nil {
			n.log.Warn().Err(err).Str("feed", feed).Msg("feed fetch failed")
			return nil
		}
		return items
	})

	var all []model.SideItem
	for _, items := range perFeed {
		all = append(all, items...)
	}
	if n.cfg.NewsAPIKey != "" {
		extra, err := n.fetchNewsAPI(ctx, claim, limit)
		if err != nil {
			n.log.Warn().Err(err).Msg("newsapi fetch failed")
		} else {
			all = append(all, extra...)
		}
	}
	all = filterByKeywords(all, claim)

	if n.embedder != nil && len(all) > 0 {
		n.scoreRelevance(ctx, claim, all)
		sort.SliceStable(all, func(i, j int) bool {
			ri, rj := all[i].Relevance, all[j].Relevance
			if ri == nil || rj == nil {
				return rj == nil && ri != nil
			}
			return *ri > *rj
		})
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (n *News) fetchFeed(ctx context.Context, feedURL string) ([]model.SideItem, error) {
	if allowed, err := n.robots.Allowed(ctx, feedURL); err != nil || !allowed {
		if err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("disallowed by robots.txt")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", n.cfg.UserAgent)

	resp, err := n.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 5<<20))
	if err != nil {
		return nil, err
	}

	var feed rssFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	items := make([]model.SideItem, 0, len(feed.Channel.Items))
	for _, it := range feed.Channel.Items {
		item := model.SideItem{
			Source:  "news",
			Title:   StripHTML(it.Title),
			URL:     strings.TrimSpace(it.Link),
			Snippet: StripHTML(it.Description),
		}
		if t, err := parsePubDate(it.PubDate); err == nil {
			item.PublishedAt = t.UnixMilli()
		}
		if item.Title != "" {
			items = append(items, item)
		}
	}
	return items, nil
}

const newsAPIBaseURL = "https://newsapi.org/v2/everything"

// fetchNewsAPI queries NewsAPI's everything endpoint when a key is
// configured, supplementing the RSS feeds with targeted search results.
func (n *News) fetchNewsAPI(ctx context.Context, claim *model.ParsedClaim, limit int) ([]model.SideItem, error) {
	q := url.Values{}
	q.Set("q", searchQuery(claim))
	q.Set("pageSize", strconv.Itoa(limit))
	q.Set("sortBy", "publishedAt")
	q.Set("language", "en")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, newsAPIBaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-Api-Key", n.cfg.NewsAPIKey)

	resp, err := n.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("newsapi: HTTP %d", resp.StatusCode)
	}

	var payload struct {
		Articles []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
			PublishedAt string `json:"publishedAt"`
			Source      struct {
				Name string `json:"name"`
			} `json:"source"`
		} `json:"articles"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 5<<20)).Decode(&payload); err != nil {
		return nil, fmt.Errorf("newsapi: decode: %w", err)
	}

	items := make([]model.SideItem, 0, len(payload.Articles))
	for _, a := range payload.Articles {
		if a.Title == "" {
			continue
		}
		item := model.SideItem{
			Source:  "news",
			Title:   a.Title,
			URL:     a.URL,
			Snippet: StripHTML(a.Description),
		}
		if t, err := time.Parse(time.RFC3339, a.PublishedAt); err == nil {
			item.PublishedAt = t.UnixMilli()
		}
		items = append(items, item)
	}
	return items, nil
}

func (n *News) scoreRelevance(ctx context.Context, claim *model.ParsedClaim, items []model.SideItem) {
	queryVec, err := n.embedder.Embed(ctx, claim.RetrievalText())
	if err != nil {
		n.log.Warn().Err(err).Msg("claim embedding failed, returning unranked news")
		return
	}
	for i := range items {
		vec, err := n.embedder.Embed(ctx, items[i].Title+" "+items[i].Snippet)
		if err != nil {
			continue
		}
		sim, err := index.CosineSimilarity(queryVec, vec)
		if err != nil {
			continue
		}
		items[i].Relevance = model.Float64(sim)
	}
}

// filterByKeywords keeps items mentioning any must-include term or entity
// name. With nothing to match on, everything passes.
func filterByKeywords(items []model.SideItem, claim *model.ParsedClaim) []model.SideItem {
	var terms []string
	for _, t := range claim.MustInclude {
		terms = append(terms, strings.ToLower(t))
	}
	for _, e := range claim.Entities {
		terms = append(terms, strings.ToLower(e.Name))
	}
	if len(terms) == 0 {
		return items
	}

	var out []model.SideItem
	for _, it := range items {
		text := strings.ToLower(it.Title + " " + it.Snippet)
		for _, t := range terms {
			if t != "" && strings.Contains(text, t) {
				out = append(out, it)
				break
			}
		}
	}
	return out
}

// StripHTML flattens markup into plain text. Feeds routinely embed HTML in
// titles and descriptions.
func StripHTML(s string) string {
	s = strings.TrimSpace(s)
	if !strings.ContainsAny(s, "<&") {
		return s
	}
	var b strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			b.WriteString(tokenizer.Token().Data)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func parsePubDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC1123Z, time.RFC1123, time.RFC822Z, time.RFC822, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
