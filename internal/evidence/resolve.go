package evidence

import (
	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/polymarket"
)

// Quotes is everything the resolution chains may draw on for one market
type Quotes struct {
	Last         *float64
	Book         *polymarket.Book
	QuotedSpread *float64
}

// priceStrategy is one step of the price resolution chain
type priceStrategy struct {
	Name    string
	Resolve func(q Quotes) *float64
}

// priceChain resolves the YES price, best source first
var priceChain = []priceStrategy{
	{"last_trade", func(q Quotes) *float64 { return q.Last }},
	{"best_bid", func(q Quotes) *float64 { return q.Book.BestBid() }},
	{"midpoint", func(q Quotes) *float64 {
		bid, ask := q.Book.BestBid(), q.Book.BestAsk()
		if bid == nil || ask == nil {
			return nil
		}
		return model.Float64((*bid + *ask) / 2)
	}},
}

// spreadChain resolves the bid-ask spread
var spreadChain = []priceStrategy{
	{"quoted", func(q Quotes) *float64 { return q.QuotedSpread }},
	{"ask_minus_bid", func(q Quotes) *float64 {
		bid, ask := q.Book.BestBid(), q.Book.BestAsk()
		if bid == nil || ask == nil {
			return nil
		}
		return model.Float64(*ask - *bid)
	}},
}

// ResolvePrice walks the price chain and returns the first hit, or nil
func ResolvePrice(q Quotes) *float64 {
	return resolve(priceChain, q)
}

// ResolveSpread walks the spread chain and returns the first hit, or nil
func ResolveSpread(q Quotes) *float64 {
	return resolve(spreadChain, q)
}

func resolve(chain []priceStrategy, q Quotes) *float64 {
	for _, s := range chain {
		if v := s.Resolve(q); v != nil {
			return v
		}
	}
	return nil
}
