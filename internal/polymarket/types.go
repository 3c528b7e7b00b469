// Package polymarket talks to the two Polymarket APIs: Gamma for market
// metadata and CLOB for live prices and order books. Payloads are decoded
// loosely, since field names and types vary across endpoint versions.
package polymarket

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/nroshak/marketcheck/internal/model"
)

// flexFloat decodes a JSON number or a numeric string
type flexFloat struct {
	value *float64
}

func (f *flexFloat) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		// Tolerate garbage rather than failing the whole market.
		return nil
	}
	f.value = &v
	return nil
}

// flexStrings decodes a JSON string array or a string containing one
type flexStrings struct {
	values []string
}

func (f *flexStrings) UnmarshalJSON(data []byte) error {
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		f.values = arr
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if err := json.Unmarshal([]byte(s), &arr); err == nil {
			f.values = arr
		} else if s != "" {
			f.values = []string{s}
		}
	}
	return nil
}

// gammaMarket is the raw Gamma API market payload
type gammaMarket struct {
	ID           string      `json:"id"`
	ConditionID  string      `json:"conditionId"`
	Question     string      `json:"question"`
	Title        string      `json:"title"`
	Description  string      `json:"description"`
	Slug         string      `json:"slug"`
	URL          string      `json:"url"`
	EndDate      string      `json:"endDate"`
	EndDateISO   string      `json:"endDateIso"`
	Outcomes     flexStrings `json:"outcomes"`
	Volume       flexFloat   `json:"volume"`
	VolumeNum    flexFloat   `json:"volumeNum"`
	Liquidity    flexFloat   `json:"liquidity"`
	LiquidityNum flexFloat   `json:"liquidityNum"`
	Active       *bool       `json:"active"`
	Closed       *bool       `json:"closed"`
}

// record normalizes the raw payload into a MarketRecord. Returns false for
// markets with no usable ID or title, and for explicitly closed or inactive
// markets.
func (m *gammaMarket) record() (*model.MarketRecord, bool) {
	id := m.ID
	if id == "" {
		id = m.ConditionID
	}
	if id == "" {
		id = m.Slug
	}
	title := m.Question
	if title == "" {
		title = m.Title
	}
	if id == "" || title == "" {
		return nil, false
	}
	if m.Closed != nil && *m.Closed {
		return nil, false
	}
	if m.Active != nil && !*m.Active {
		return nil, false
	}

	rec := &model.MarketRecord{
		PolymarketMarketID: id,
		Title:              title,
		Description:        m.Description,
		Slug:               m.Slug,
		URL:                m.URL,
		Outcomes:           m.Outcomes.values,
		Volume:             m.VolumeNum.value,
		Liquidity:          m.LiquidityNum.value,
	}
	if rec.Volume == nil {
		rec.Volume = m.Volume.value
	}
	if rec.Liquidity == nil {
		rec.Liquidity = m.Liquidity.value
	}
	if len(rec.Outcomes) == 0 {
		rec.Outcomes = []string{"Yes", "No"}
	}
	if rec.URL == "" && rec.Slug != "" {
		rec.URL = "https://polymarket.com/event/" + rec.Slug
	}
	if end := parseEndDate(m.EndDate, m.EndDateISO); end != nil {
		rec.EndDate = end
	}
	return rec, true
}

func parseEndDate(candidates ...string) *int64 {
	for _, s := range candidates {
		if s == "" {
			continue
		}
		for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z0700", "2006-01-02"} {
			if t, err := time.Parse(layout, s); err == nil {
				return model.Int64(t.UnixMilli())
			}
		}
	}
	return nil
}

// Level is one order book level
type Level struct {
	Price float64
	Size  float64
}

// Book is a CLOB order book, best levels first
type Book struct {
	Bids []Level
	Asks []Level
}

// BestBid returns the top bid price, or nil for an empty side
func (b *Book) BestBid() *float64 {
	if b == nil || len(b.Bids) == 0 {
		return nil
	}
	return model.Float64(b.Bids[0].Price)
}

// BestAsk returns the top ask price, or nil for an empty side
func (b *Book) BestAsk() *float64 {
	if b == nil || len(b.Asks) == 0 {
		return nil
	}
	return model.Float64(b.Asks[0].Price)
}

type clobLevel struct {
	Price flexFloat `json:"price"`
	Size  flexFloat `json:"size"`
}

type clobBook struct {
	Bids []clobLevel `json:"bids"`
	Asks []clobLevel `json:"asks"`
}

func (b *clobBook) book() *Book {
	out := &Book{}
	for _, l := range b.Bids {
		if l.Price.value != nil {
			lvl := Level{Price: *l.Price.value}
			if l.Size.value != nil {
				lvl.Size = *l.Size.value
			}
			out.Bids = append(out.Bids, lvl)
		}
	}
	for _, l := range b.Asks {
		if l.Price.value != nil {
			lvl := Level{Price: *l.Price.value}
			if l.Size.value != nil {
				lvl.Size = *l.Size.value
			}
			out.Asks = append(out.Asks, lvl)
		}
	}
	return out
}

type clobPrice struct {
	Price flexFloat `json:"price"`
}
