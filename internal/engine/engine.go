package engine

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/khanglvm/tool-recommender/internal/analytics"
	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/explain"
	"github.com/khanglvm/tool-recommender/internal/feedback"
	"github.com/khanglvm/tool-recommender/internal/reccache"
	"github.com/khanglvm/tool-recommender/internal/scoring"
	"github.com/khanglvm/tool-recommender/internal/storage"
)

const (
	defaultMaxResults     = 5
	defaultFetchLimit     = 50
	fallbackConfidence    = 0.3
	anonymousUserID       = "anonymous"
	profileCacheKeyPrefix = "profile:"
)

// Options configure an Engine. Zero values resolve to documented defaults.
type Options struct {
	// DefaultWeights is the baseline algorithm weight set.
	DefaultWeights scoring.Weights

	// Scorers tunes the individual scorers.
	Scorers scoring.ScorerOptions

	// Feedback tunes the adaptation loop.
	Feedback feedback.Options

	// Cache sizes the three cache classes.
	Cache reccache.Config

	// DefaultMaxResults is used when a request does not cap results.
	DefaultMaxResults int

	// CandidateFetchLimit caps how many candidates one request scores.
	CandidateFetchLimit int

	// FallbackTools is the small fixed list returned when the catalog is
	// unavailable. Empty means total catalog failure yields an empty list.
	FallbackTools []catalog.Candidate

	// Collector receives telemetry; nil installs an in-memory collector.
	Collector analytics.Collector

	// AnalyticsRetention bounds the in-memory collector's window.
	AnalyticsRetention time.Duration

	// Storage optionally persists feedback across restarts.
	Storage storage.Store
}

func (o Options) withDefaults() Options {
	if !o.DefaultWeights.Valid() {
		o.DefaultWeights = scoring.DefaultWeights()
	}
	if o.DefaultMaxResults <= 0 {
		o.DefaultMaxResults = defaultMaxResults
	}
	if o.CandidateFetchLimit <= 0 {
		o.CandidateFetchLimit = defaultFetchLimit
	}
	return o
}

// cachedBatch is the cache value for one fingerprint. explained records
// whether explanation synthesis completed; a scores-only batch is upgraded
// on the next demand that wants explanations.
type cachedBatch struct {
	recs      []Recommendation
	explained bool
}

// Engine is the contextual recommendation engine. Construct with New; one
// engine instance is safe for concurrent use and multiple instances (e.g.
// per tenant) can coexist.
type Engine struct {
	opts      Options
	catalog   catalog.Catalog
	analyzer  *analyzer.Analyzer
	scorers   []scoring.Scorer
	combiner  *scoring.Combiner
	cache     *reccache.Cache
	feedback  *feedback.Store
	explainer *explain.Generator
	collector analytics.Collector
}

// New creates an engine over the given catalog.
func New(cat catalog.Catalog, opts Options) (*Engine, error) {
	if cat == nil {
		return nil, fmt.Errorf("catalog is required")
	}
	opts = opts.withDefaults()

	cache, err := reccache.New(opts.Cache)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache: %w", err)
	}

	var store *feedback.Store
	if opts.Storage != nil {
		store = feedback.NewStoreWithBackend(opts.Feedback, opts.Storage)
	} else {
		store = feedback.NewStore(opts.Feedback)
	}

	collector := opts.Collector
	if collector == nil {
		collector = analytics.NewMemoryCollector(opts.AnalyticsRetention)
	}

	return &Engine{
		opts:      opts,
		catalog:   cat,
		analyzer:  analyzer.New(),
		scorers:   scoring.NewDefaultScorers(opts.Scorers),
		combiner:  scoring.NewCombiner(opts.DefaultWeights),
		cache:     cache,
		feedback:  store,
		explainer: explain.NewGenerator(),
		collector: collector,
	}, nil
}

// Stop flushes pending feedback persistence and releases the cache.
func (e *Engine) Stop() {
	e.feedback.Stop()
	e.cache.Close()
}

// FeedbackStore exposes the adaptation store, mainly for the CLI surface.
func (e *Engine) FeedbackStore() *feedback.Store {
	return e.feedback
}

// Computations reports how many scoring-pipeline runs the engine has
// performed; identical cached requests do not increase it.
func (e *Engine) Computations() int64 {
	return e.cache.Computations()
}

// GetRecommendations ranks candidate tools for the request. The call is
// total: engine-internal faults degrade to the fallback list or an empty
// list, never an error or panic.
func (e *Engine) GetRecommendations(ctx context.Context, req RecommendationRequest) (recs []Recommendation) {
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: recommendation pipeline fault: %v", r)
			recs = e.fallback(req)
			e.emit(req, recs, start, false, true)
		}
	}()

	features := e.contextFeatures(ctx, req)
	profile := e.profileSnapshot(ctx, req.UserID)
	newUser := profile.IsNew(e.feedback.NewUserThreshold())
	weights := e.combiner.ActiveWeights(req.Weights, newUser)

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = e.opts.DefaultMaxResults
	}

	fp := fingerprint(req.UserID, req.Message, features, weights, maxResults)

	computed := false
	computeFn := func(ctx context.Context) (any, error) {
		computed = true
		return e.computeBatch(ctx, req, features, profile, newUser, weights, maxResults)
	}

	value, err := e.cache.GetOrCompute(ctx, reccache.ClassRecommendations, fp, computeFn)
	if err != nil {
		log.Printf("Warning: recommendation computation failed: %v", err)
		recs = e.fallback(req)
		e.emit(req, recs, start, false, true)
		return recs
	}

	batch := value.(cachedBatch)

	// A batch cached without explanations (explanation step skipped after
	// cancellation, or never requested) is upgraded on demand.
	if req.IncludeExplanations && !batch.explained {
		e.cache.Invalidate(reccache.ClassRecommendations, fp)
		value, err = e.cache.GetOrCompute(ctx, reccache.ClassRecommendations, fp, computeFn)
		if err != nil {
			log.Printf("Warning: recommendation recomputation failed: %v", err)
			recs = e.fallback(req)
			e.emit(req, recs, start, false, true)
			return recs
		}
		batch = value.(cachedBatch)
	}

	recs = cloneBatch(batch.recs)
	e.emit(req, recs, start, !computed, false)
	return recs
}

// computeBatch runs the scoring pipeline for one cache miss: fetch
// candidates, score, combine, rank, explain.
func (e *Engine) computeBatch(ctx context.Context, req RecommendationRequest, features analyzer.ContextFeatures, profile *feedback.UserProfile, newUser bool, weights scoring.Weights, maxResults int) (cachedBatch, error) {
	candidates, err := e.fetchCandidates(ctx, req.Message)
	if err != nil {
		return cachedBatch{}, err
	}
	if len(candidates) == 0 {
		return cachedBatch{recs: []Recommendation{}, explained: true}, nil
	}

	batchID := uuid.NewString()

	type scored struct {
		candidate catalog.Candidate
		vector    scoring.Vector
	}
	results := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		vector := scoring.ScoreAll(e.scorers, c, features, profile)
		vector = e.combiner.Combine(vector, req.Weights, newUser)
		results = append(results, scored{candidate: c, vector: vector})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].vector.Combined != results[j].vector.Combined {
			return results[i].vector.Combined > results[j].vector.Combined
		}
		return results[i].candidate.ID < results[j].candidate.ID
	})

	if len(results) > maxResults {
		results = results[:maxResults]
	}

	recs := make([]Recommendation, 0, len(results))
	for i, r := range results {
		recs = append(recs, Recommendation{
			ToolID:     r.candidate.ID,
			ToolName:   r.candidate.Name,
			Category:   r.candidate.Category,
			Scores:     r.vector,
			Confidence: confidence(r.vector.Combined, features.IntentConfidence),
			Position:   i + 1,
			BatchID:    batchID,
		})
	}

	// The computation is committed even when the caller has gone away;
	// only the explanation step is skipped, degrading the entry to
	// scores-only until the next demand.
	explained := true
	if req.IncludeExplanations {
		if ctx.Err() != nil {
			explained = false
		} else {
			for i := range recs {
				var cand *catalog.Candidate
				for j := range results {
					if results[j].candidate.ID == recs[i].ToolID {
						cand = &results[j].candidate
						break
					}
				}
				expl := e.explainer.Explain(recs[i].ToolID, recs[i].Scores, weights, features, profile, cand)
				recs[i].WhyRecommended = &expl
			}
		}
	} else {
		explained = false
	}

	return cachedBatch{recs: recs, explained: explained}, nil
}

// fetchCandidates queries the catalog with the message as a filter hint and
// widens to the full catalog when nothing matches the text.
func (e *Engine) fetchCandidates(ctx context.Context, message string) ([]catalog.Candidate, error) {
	hints := catalog.FilterHints{Query: message, Limit: e.opts.CandidateFetchLimit}
	candidates, err := e.catalog.ListCandidates(ctx, hints)
	if err != nil {
		return nil, fmt.Errorf("catalog unavailable: %w", err)
	}
	if len(candidates) > 0 {
		return candidates, nil
	}

	candidates, err = e.catalog.ListCandidates(ctx, catalog.FilterHints{Limit: e.opts.CandidateFetchLimit})
	if err != nil {
		return nil, fmt.Errorf("catalog unavailable: %w", err)
	}
	return candidates, nil
}

// fallback builds the minimal fixed recommendation set used when the
// catalog or the pipeline is unavailable.
func (e *Engine) fallback(req RecommendationRequest) []Recommendation {
	if len(e.opts.FallbackTools) == 0 {
		return []Recommendation{}
	}

	maxResults := req.MaxResults
	if maxResults <= 0 {
		maxResults = e.opts.DefaultMaxResults
	}

	batchID := uuid.NewString()
	neutral := scoring.Vector{
		Collaborative: 0.5, ContentBased: 0.5, Contextual: 0.5,
		Temporal: 0.5, Behavioral: 0.5,
	}
	neutral = e.combiner.Combine(neutral, nil, false)

	recs := make([]Recommendation, 0, len(e.opts.FallbackTools))
	for i, c := range e.opts.FallbackTools {
		if i >= maxResults {
			break
		}
		recs = append(recs, Recommendation{
			ToolID:     c.ID,
			ToolName:   c.Name,
			Category:   c.Category,
			Scores:     neutral,
			Confidence: fallbackConfidence,
			Position:   i + 1,
			BatchID:    batchID,
		})
	}
	return recs
}

// contextFeatures derives (or re-reads) the context snapshot for a request.
// Snapshots are cached in their own class, keyed by the analyzer-relevant
// request fields plus the hour bucket.
func (e *Engine) contextFeatures(ctx context.Context, req RecommendationRequest) analyzer.ContextFeatures {
	key := contextKey(req)

	value, err := e.cache.GetOrCompute(ctx, reccache.ClassContext, key, func(context.Context) (any, error) {
		return e.analyzer.Analyze(req.analyzerRequest()), nil
	})
	if err == nil {
		if features, ok := value.(analyzer.ContextFeatures); ok {
			return features
		}
	}
	return e.analyzer.Analyze(req.analyzerRequest())
}

// contextKey hashes the analyzer-relevant request fields. The hour bucket
// is included because temporal features change across hours.
func contextKey(req RecommendationRequest) string {
	now := time.Now()
	if req.TimeContext != nil && !req.TimeContext.Now.IsZero() {
		now = req.TimeContext.Now
	}

	var b strings.Builder
	b.WriteString(normalizeMessage(req.Message))
	fmt.Fprintf(&b, "|%s|%s|", req.SkillLevel, req.Device)
	if req.Workflow != nil {
		fmt.Fprintf(&b, "%s|%s|%s|", req.Workflow.Stage,
			strings.Join(req.Workflow.ActiveNodes, ","),
			strings.Join(req.Workflow.PendingActions, ","))
	}
	fmt.Fprintf(&b, "%d", now.Truncate(time.Hour).Unix())

	hash := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(hash[:])
}

// profileSnapshot reads the user's profile through the behavior cache class,
// which is allowed to go stale slower than recommendations. Feedback writes
// invalidate it.
func (e *Engine) profileSnapshot(ctx context.Context, userID string) *feedback.UserProfile {
	if userID == "" {
		userID = anonymousUserID
	}

	value, err := e.cache.GetOrCompute(ctx, reccache.ClassBehavior, profileCacheKeyPrefix+userID, func(context.Context) (any, error) {
		return e.feedback.ProfileFor(userID), nil
	})
	if err == nil {
		if profile, ok := value.(*feedback.UserProfile); ok {
			return profile
		}
	}
	return e.feedback.ProfileFor(userID)
}

// confidence blends the combined score with the intent confidence.
func confidence(combined, intentConfidence float64) float64 {
	return scoring.Clamp01(0.8*combined + 0.2*intentConfidence)
}

// cloneBatch copies cached recommendations so callers cannot mutate the
// cache's copy.
func cloneBatch(recs []Recommendation) []Recommendation {
	out := make([]Recommendation, len(recs))
	copy(out, recs)
	return out
}

// emit sends telemetry, fire-and-forget: a faulting collector is logged and
// ignored, never surfaced.
func (e *Engine) emit(req RecommendationRequest, recs []Recommendation, start time.Time, cacheHit, fallback bool) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Warning: analytics collector fault: %v", r)
		}
	}()

	event := analytics.Event{
		Timestamp: time.Now(),
		UserID:    req.UserID,
		Results:   len(recs),
		CacheHit:  cacheHit,
		Fallback:  fallback,
		Duration:  time.Since(start),
	}
	if len(recs) > 0 {
		event.BatchID = recs[0].BatchID
		event.TopCombined = recs[0].Scores.Combined
	}
	e.collector.Record(event)
}

// ExplainRecommendation produces the explanation bundle for one tool. When
// the recommendation already carries one it is returned as-is; otherwise
// the explanation is synthesized from current context and profile state,
// degrading gracefully when the tool is unknown.
func (e *Engine) ExplainRecommendation(ctx context.Context, toolID string, req RecommendationRequest, rec *Recommendation) explain.Explanation {
	if rec != nil && rec.WhyRecommended != nil {
		return *rec.WhyRecommended
	}

	features := e.contextFeatures(ctx, req)
	profile := e.profileSnapshot(ctx, req.UserID)
	newUser := profile.IsNew(e.feedback.NewUserThreshold())
	weights := e.combiner.ActiveWeights(req.Weights, newUser)

	candidate := e.lookupCandidate(ctx, toolID)

	var vector scoring.Vector
	switch {
	case rec != nil:
		vector = rec.Scores
	case candidate != nil:
		vector = scoring.ScoreAll(e.scorers, *candidate, features, profile)
		vector = e.combiner.Combine(vector, req.Weights, newUser)
	}

	return e.explainer.Explain(toolID, vector, weights, features, profile, candidate)
}

// lookupCandidate scans the catalog for a tool ID. Returns nil when the
// catalog is unavailable or the tool is gone.
func (e *Engine) lookupCandidate(ctx context.Context, toolID string) *catalog.Candidate {
	candidates, err := e.catalog.ListCandidates(ctx, catalog.FilterHints{})
	if err != nil {
		log.Printf("Warning: catalog lookup failed for %s: %v", toolID, err)
		return nil
	}
	for i := range candidates {
		if candidates[i].ID == toolID {
			return &candidates[i]
		}
	}
	return nil
}

// RecordFeedback feeds one outcome back into the adaptation loop. The
// recommendations slice is the batch the feedback refers to; it supplies
// the batch reference and the co-used tool set.
func (e *Engine) RecordFeedback(userID string, recs []Recommendation, fb Feedback) {
	if userID == "" {
		userID = anonymousUserID
	}

	event := feedback.Event{
		UserID:  userID,
		ToolID:  fb.ToolID,
		Outcome: feedback.ParseOutcome(fb.Outcome),
		Rating:  fb.Rating,
		Comment: fb.Comment,
	}

	batchTools := make([]string, 0, len(recs))
	for _, rec := range recs {
		batchTools = append(batchTools, rec.ToolID)
		if rec.ToolID == fb.ToolID {
			event.Category = rec.Category
			event.BatchID = rec.BatchID
		}
	}

	e.feedback.RecordFeedback(event, batchTools)

	// The next request for this user must see the updated profile.
	e.cache.Invalidate(reccache.ClassBehavior, profileCacheKeyPrefix+userID)
}

// GetAnalytics summarizes telemetry over a time range. Collectors that
// cannot aggregate (external sinks) yield empty stats.
func (e *Engine) GetAnalytics(from, to time.Time) analytics.AggregatedStats {
	type aggregator interface {
		Aggregate(from, to time.Time) analytics.AggregatedStats
	}
	if agg, ok := e.collector.(aggregator); ok {
		return agg.Aggregate(from, to)
	}
	return analytics.AggregatedStats{From: from, To: to}
}
