// Package pipeline orchestrates one fact-check request end to end: claim
// parsing, candidate retrieval with concurrent side channels, rank
// resolution, evidence enrichment, scoring, synthesis, and result assembly.
// Everything after claim parsing degrades instead of failing.
package pipeline

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nroshak/marketcheck/internal/degrade"
	"github.com/nroshak/marketcheck/internal/llm"
	"github.com/nroshak/marketcheck/internal/model"
	"github.com/nroshak/marketcheck/internal/rank"
	"github.com/nroshak/marketcheck/internal/score"
	"github.com/nroshak/marketcheck/internal/sidechannel"
)

// ClaimParser turns a question into a structured claim
type ClaimParser interface {
	ParseClaim(ctx context.Context, question string) (*model.ParsedClaim, error)
}

// Embedder produces the retrieval vector
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// CandidateRetriever finds markets by vector similarity
type CandidateRetriever interface {
	RetrieveTopK(ctx context.Context, query []float64, k int, now time.Time) ([]model.MarketCandidate, error)
}

// Reranker scores candidates against the claim
type Reranker interface {
	Rerank(ctx context.Context, claim *model.ParsedClaim, candidates []model.MarketCandidate) (*llm.RerankResult, error)
}

// Enricher attaches trading evidence
type Enricher interface {
	Enrich(ctx context.Context, ranked []model.MarketWithEvidence, now time.Time) []model.MarketWithEvidence
}

// Scorer computes confidence and sentiment for the best market
type Scorer interface {
	Score(ctx context.Context, best model.MarketWithEvidence, now time.Time) score.Result
}

// Synthesizer writes the answer text
type Synthesizer interface {
	Synthesize(ctx context.Context, req llm.SynthesisRequest) (string, error)
}

// SnapshotRecorder persists evidence snapshots, best-effort
type SnapshotRecorder interface {
	Record(ctx context.Context, markets []model.MarketWithEvidence)
}

// ExpiringSource lists markets ending near a date
type ExpiringSource interface {
	MarketsByEndDate(ctx context.Context, target time.Time, dayRange int) ([]model.MarketRecord, error)
}

// QueryLogger appends the per-request log entry
type QueryLogger interface {
	LogQuery(ctx context.Context, e model.QueryLogEntry) error
}

// Pipeline runs fact-check requests
type Pipeline struct {
	cfg       model.PipelineConfig
	parser    ClaimParser
	embedder  Embedder
	retriever CandidateRetriever
	reranker  Reranker
	enricher  Enricher
	scorer    Scorer
	synth     Synthesizer
	snapshots SnapshotRecorder
	expiring  ExpiringSource
	queryLog  QueryLogger
	channels  []sidechannel.Retriever
	log       zerolog.Logger
	now       func() time.Time
}

// Deps bundles the pipeline's collaborators
type Deps struct {
	Parser    ClaimParser
	Embedder  Embedder
	Retriever CandidateRetriever
	Reranker  Reranker
	Enricher  Enricher
	Scorer    Scorer
	Synth     Synthesizer
	Snapshots SnapshotRecorder
	Expiring  ExpiringSource
	QueryLog  QueryLogger
	Channels  []sidechannel.Retriever
}

// New builds a Pipeline
func New(cfg model.PipelineConfig, deps Deps, log zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		parser:    deps.Parser,
		embedder:  deps.Embedder,
		retriever: deps.Retriever,
		reranker:  deps.Reranker,
		enricher:  deps.Enricher,
		scorer:    deps.Scorer,
		synth:     deps.Synth,
		snapshots: deps.Snapshots,
		expiring:  deps.Expiring,
		queryLog:  deps.QueryLog,
		channels:  deps.Channels,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one fact-check. The only request-level error is a claim-parse
// failure; every other fault degrades into the result.
func (p *Pipeline) Run(ctx context.Context, question string) (*model.FactCheckResult, error) {
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	started := p.now()
	timings := make(map[string]int64)
	requestID := uuid.NewString()
	log := p.log.With().Str("request", requestID).Logger()

	stage := func(name string, since time.Time) {
		timings[name] = time.Since(since).Milliseconds()
	}

	// Claim parsing is the one fatal stage.
	t := time.Now()
	claim, err := p.parser.ParseClaim(ctx, question)
	stage("parse", t)
	if err != nil {
		return nil, fmt.Errorf("parse claim: %w", err)
	}
	log.Info().Str("claim", claim.Claim).Str("type", string(claim.Type)).Msg("claim parsed")

	// Candidate retrieval and side channels are independent; run both now.
	t = time.Now()
	var sideItems map[string][]model.SideItem
	sideDone := make(chan struct{})
	go func() {
		defer close(sideDone)
		sideItems = sidechannel.Collect(ctx, p.channels, claim, p.cfg.SideChannelLimit, log)
	}()

	candidates := p.retrieveCandidates(ctx, claim, log)
	<-sideDone
	stage("retrieve", t)

	if len(candidates) == 0 {
		result := p.emptyResult(question, claim, requestID,
			"No Polymarket markets found matching this claim.", sideItems, timings, started)
		p.writeQueryLog(ctx, result, log)
		return result, nil
	}

	// Rank resolution, with similarity fallback on comparator failure.
	t = time.Now()
	reranked := degrade.Call(ctx, log, "rerank", degrade.Options{}, nil,
		func(ctx context.Context) (*llm.RerankResult, error) {
			return p.reranker.Rerank(ctx, claim, candidates)
		})
	ranked, ambiguity := rank.Resolve(candidates, reranked)
	stage("rerank", t)

	if len(ranked) > p.cfg.EnrichTopK {
		ranked = ranked[:p.cfg.EnrichTopK]
	}

	t = time.Now()
	enriched := p.enricher.Enrich(ctx, ranked, p.now())
	stage("enrich", t)

	if len(enriched) == 0 {
		result := p.emptyResult(question, claim, requestID,
			"Matching markets were found, but none could be backed with current market data.", sideItems, timings, started)
		p.writeQueryLog(ctx, result, log)
		return result, nil
	}

	p.snapshots.Record(ctx, enriched)

	best := enriched[0]
	t = time.Now()
	scored := p.scorer.Score(ctx, best, p.now())
	stage("score", t)

	t = time.Now()
	summary := degrade.Call(ctx, log, "synthesize", degrade.Options{},
		llm.FallbackSummary(best, scored.HasGoodMatch),
		func(ctx context.Context) (string, error) {
			return p.synth.Synthesize(ctx, llm.SynthesisRequest{
				Question:     question,
				Claim:        claim.Claim,
				Best:         best,
				Alternatives: enriched[1:],
				HasGoodMatch: scored.HasGoodMatch,
			})
		})
	stage("synthesize", t)

	expiring := p.expiringMarkets(ctx, claim, log)

	timings["total"] = time.Since(started).Milliseconds()
	sentiment := scored.Sentiment
	result := &model.FactCheckResult{
		Question:    question,
		ParsedClaim: *claim,
		Answer: model.Answer{
			Summary:    summary,
			ProbYes:    best.Evidence.PriceYes,
			Confidence: scored.Confidence,
			Ambiguity:  ambiguity,
		},
		Sentiment:    &sentiment,
		BestMarket:   &best,
		Alternatives: enriched[1:],
		SideChannels: sideItems,
		Expiring:     expiring,
		Debug: model.DebugInfo{
			RequestID: requestID,
			Scoring:   scored.Breakdown,
			Timings:   timings,
		},
	}
	p.writeQueryLog(ctx, result, log)
	return result, nil
}

// retrieveCandidates embeds the claim's retrieval text and queries the index.
// Both steps degrade to zero candidates.
func (p *Pipeline) retrieveCandidates(ctx context.Context, claim *model.ParsedClaim, log zerolog.Logger) []model.MarketCandidate {
	vec := degrade.Call(ctx, log, "embed claim", degrade.Options{}, nil,
		func(ctx context.Context) ([]float64, error) {
			return p.embedder.Embed(ctx, claim.RetrievalText())
		})
	if vec == nil {
		return nil
	}
	return degrade.Call(ctx, log, "retrieve candidates", degrade.Options{}, nil,
		func(ctx context.Context) ([]model.MarketCandidate, error) {
			return p.retriever.RetrieveTopK(ctx, vec, p.cfg.RetrievalTopK, p.now())
		})
}

// emptyResult builds the zero-candidate success shape. The message
// distinguishes "nothing matched" from "matches had no evidence".
func (p *Pipeline) emptyResult(question string, claim *model.ParsedClaim, requestID, summary string,
	sideItems map[string][]model.SideItem, timings map[string]int64, started time.Time) *model.FactCheckResult {

	timings["total"] = time.Since(started).Milliseconds()
	return &model.FactCheckResult{
		Question:    question,
		ParsedClaim: *claim,
		Answer: model.Answer{
			Summary:    summary,
			ProbYes:    nil,
			Confidence: 0,
			Ambiguity:  model.AmbiguityHigh,
		},
		BestMarket:   nil,
		Alternatives: []model.MarketWithEvidence{},
		SideChannels: sideItems,
		Debug: model.DebugInfo{
			RequestID: requestID,
			Timings:   timings,
		},
	}
}

// expiringMarkets lists markets ending around the claim's date reference,
// enriched like regular candidates. No date reference, no lookup.
func (p *Pipeline) expiringMarkets(ctx context.Context, claim *model.ParsedClaim, log zerolog.Logger) []model.MarketWithEvidence {
	target := DateReference(claim, p.now())
	if target == nil {
		return nil
	}

	records := degrade.Call(ctx, log, "expiring markets", degrade.Options{}, nil,
		func(ctx context.Context) ([]model.MarketRecord, error) {
			return p.expiring.MarketsByEndDate(ctx, *target, p.cfg.ExpiringDayRange)
		})
	if len(records) > p.cfg.ExpiringLimit {
		records = records[:p.cfg.ExpiringLimit]
	}
	if len(records) == 0 {
		return nil
	}

	ranked := make([]model.MarketWithEvidence, len(records))
	for i, r := range records {
		ranked[i] = model.MarketWithEvidence{
			MarketCandidate: model.MarketCandidate{MarketRecord: r},
			RankedMarket:    model.RankedMarket{PolymarketMarketID: r.PolymarketMarketID},
		}
	}
	return p.enricher.Enrich(ctx, ranked, p.now())
}

func (p *Pipeline) writeQueryLog(ctx context.Context, result *model.FactCheckResult, log zerolog.Logger) {
	entry := model.QueryLogEntry{
		Question:    result.Question,
		ParsedClaim: result.ParsedClaim,
		Confidence:  result.Answer.Confidence,
		Debug:       result.Debug,
		CreatedAt:   p.now().UnixMilli(),
	}
	if result.BestMarket != nil {
		entry.BestMarketID = result.BestMarket.PolymarketMarketID
	}
	if err := p.queryLog.LogQuery(ctx, entry); err != nil {
		log.Warn().Err(err).Msg("query log write failed")
	}
}

var yearPattern = regexp.MustCompile(`\b(20\d{2})\b`)

// DateReference extracts the date a claim points at: the time window's end
// when present, otherwise an explicit year in the claim text (mapped to that
// year's end). Claims without either produce nil.
func DateReference(claim *model.ParsedClaim, now time.Time) *time.Time {
	if claim.TimeWindow.End != "" {
		for _, layout := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(layout, claim.TimeWindow.End); err == nil {
				return &t
			}
		}
	}
	if m := yearPattern.FindString(claim.Claim); m != "" {
		year, err := strconv.Atoi(m)
		if err == nil && year >= now.Year() {
			t := time.Date(year, 12, 31, 23, 59, 59, 0, time.UTC)
			return &t
		}
	}
	return nil
}
