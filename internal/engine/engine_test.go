package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/khanglvm/tool-recommender/internal/analytics"
	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/scoring"
)

// tuesdayMorning pins requests inside working hours so temporal features
// stay stable across test runs.
var tuesdayMorning = time.Date(2025, time.March, 4, 10, 0, 0, 0, time.UTC)

func testCatalog(t *testing.T) *catalog.InMemoryCatalog {
	t.Helper()

	cat, err := catalog.NewInMemoryCatalog()
	if err != nil {
		t.Fatalf("failed to create catalog: %v", err)
	}
	t.Cleanup(func() { cat.Close() })

	err = cat.Add(
		catalog.Candidate{
			ID:       "workflow-builder",
			Name:     "Workflow Builder",
			Category: "automation",
			Tags:     []string{"workflow", "create", "build"},
			Stage:    catalog.StagePlanning,
			Latency:  catalog.LatencyModerate,
		},
		catalog.Candidate{
			ID:       "report-exporter",
			Name:     "Report Exporter",
			Category: "reporting",
			Tags:     []string{"report", "export"},
			Stage:    catalog.StageDelivery,
			Latency:  catalog.LatencySlow,
		},
		catalog.Candidate{
			ID:          "quick-lookup",
			Name:        "Quick Lookup",
			Category:    "search",
			Tags:        []string{"lookup", "search"},
			Stage:       catalog.StageDiscovery,
			Latency:     catalog.LatencyFast,
			Exploratory: true,
		},
	)
	if err != nil {
		t.Fatalf("failed to add candidates: %v", err)
	}
	return cat
}

func newTestEngine(t *testing.T, cat catalog.Catalog, opts Options) *Engine {
	t.Helper()

	e, err := New(cat, opts)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	t.Cleanup(e.Stop)
	return e
}

func baseRequest(message string) RecommendationRequest {
	return RecommendationRequest{
		UserID:      "alice",
		Message:     message,
		TimeContext: &analyzer.TimeContext{Now: tuesdayMorning},
	}
}

func TestGetRecommendations_CreationWorkflowScenario(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})

	req := baseRequest("I need to create a workflow for our new process")
	req.Workflow = &analyzer.WorkflowState{Stage: "planning"}
	req.IncludeExplanations = true

	recs := e.GetRecommendations(context.Background(), req)

	if len(recs) == 0 {
		t.Fatal("expected recommendations for a creation request")
	}
	for i, rec := range recs {
		if rec.Position != i+1 {
			t.Errorf("expected position %d, got %d", i+1, rec.Position)
		}
		if rec.BatchID != recs[0].BatchID {
			t.Error("all recommendations must share one batch ID")
		}
		if rec.Scores.Combined < 0 || rec.Scores.Combined > 1 {
			t.Errorf("combined score out of range: %f", rec.Scores.Combined)
		}
		if rec.Confidence < 0 || rec.Confidence > 1 {
			t.Errorf("confidence out of range: %f", rec.Confidence)
		}
		if rec.WhyRecommended == nil {
			t.Errorf("expected explanation for %s", rec.ToolID)
		}
	}
}

func TestGetRecommendations_OrderedByCombinedScore(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})

	// A message matching nothing widens scoring to the full catalog.
	recs := e.GetRecommendations(context.Background(), baseRequest("zzz unmatchable"))

	if len(recs) != 3 {
		t.Fatalf("expected all 3 candidates, got %d", len(recs))
	}
	for i := 1; i < len(recs); i++ {
		if recs[i-1].Scores.Combined < recs[i].Scores.Combined {
			t.Errorf("results out of order at %d: %f < %f",
				i, recs[i-1].Scores.Combined, recs[i].Scores.Combined)
		}
	}
}

func TestGetRecommendations_MaxResultsTruncates(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})

	req := baseRequest("zzz unmatchable")
	req.MaxResults = 1

	recs := e.GetRecommendations(context.Background(), req)

	if len(recs) != 1 {
		t.Errorf("expected 1 result, got %d", len(recs))
	}
}

func TestGetRecommendations_IdenticalRequestHitsCache(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})
	req := baseRequest("create a workflow")

	first := e.GetRecommendations(context.Background(), req)
	if len(first) == 0 {
		t.Fatal("expected recommendations")
	}
	computations := e.Computations()

	second := e.GetRecommendations(context.Background(), req)

	if e.Computations() != computations {
		t.Errorf("identical request must not recompute: %d -> %d",
			computations, e.Computations())
	}
	if first[0].BatchID != second[0].BatchID {
		t.Error("cached request must return the same batch")
	}
}

func TestGetRecommendations_InvalidWeightsShareDefaultEntry(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})

	e.GetRecommendations(context.Background(), baseRequest("create a workflow"))
	computations := e.Computations()

	// An invalid override resolves to the defaults wholesale, so the
	// fingerprint collapses onto the default-weights entry.
	req := baseRequest("create a workflow")
	req.Weights = &scoring.Weights{Collaborative: 2.0, ContentBased: -1.0}

	recs := e.GetRecommendations(context.Background(), req)

	if len(recs) == 0 {
		t.Fatal("invalid weights must not fail the request")
	}
	if e.Computations() != computations {
		t.Error("invalid override should reuse the default-weights batch")
	}
}

func TestGetRecommendations_ValidOverrideComputesSeparately(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})

	e.GetRecommendations(context.Background(), baseRequest("create a workflow"))
	computations := e.Computations()

	req := baseRequest("create a workflow")
	req.Weights = &scoring.Weights{Collaborative: 0.6, ContentBased: 0.4}

	e.GetRecommendations(context.Background(), req)

	if e.Computations() <= computations {
		t.Error("distinct valid weights must compute a distinct batch")
	}
}

func TestGetRecommendations_ColdStartScores(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})

	recs := e.GetRecommendations(context.Background(), baseRequest("create a workflow"))

	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}
	for _, rec := range recs {
		if rec.Scores.Collaborative > 0.3 {
			t.Errorf("cold-start collaborative should sit at the baseline, got %f",
				rec.Scores.Collaborative)
		}
		if rec.Scores.ContentBased < 0.2 {
			t.Errorf("content score below floor: %f", rec.Scores.ContentBased)
		}
	}
}

func TestGetRecommendations_FallbackOnCatalogFailure(t *testing.T) {
	fallback := []catalog.Candidate{
		{ID: "safe-default", Name: "Safe Default", Category: "general"},
	}
	e := newTestEngine(t, failingCatalog{}, Options{FallbackTools: fallback})

	recs := e.GetRecommendations(context.Background(), baseRequest("anything"))

	if len(recs) != 1 {
		t.Fatalf("expected the fallback list, got %d results", len(recs))
	}
	if recs[0].ToolID != "safe-default" {
		t.Errorf("unexpected fallback tool: %s", recs[0].ToolID)
	}
	if recs[0].Confidence != fallbackConfidence {
		t.Errorf("fallback confidence should be low, got %f", recs[0].Confidence)
	}
}

func TestGetRecommendations_EmptyFallbackYieldsEmptyList(t *testing.T) {
	e := newTestEngine(t, failingCatalog{}, Options{})

	recs := e.GetRecommendations(context.Background(), baseRequest("anything"))

	if recs == nil || len(recs) != 0 {
		t.Errorf("expected empty non-nil list, got %v", recs)
	}
}

func TestGetRecommendations_FallbackNotCached(t *testing.T) {
	flaky := &flakyCatalog{inner: testCatalog(t), failures: 1}
	e := newTestEngine(t, flaky, Options{
		FallbackTools: []catalog.Candidate{{ID: "safe-default", Name: "Safe Default"}},
	})
	req := baseRequest("create a workflow")

	first := e.GetRecommendations(context.Background(), req)
	if first[0].ToolID != "safe-default" {
		t.Fatalf("expected fallback on first call, got %s", first[0].ToolID)
	}

	// The failure must not poison the fingerprint: the next identical
	// request recomputes against the recovered catalog.
	second := e.GetRecommendations(context.Background(), req)
	if len(second) == 0 || second[0].ToolID == "safe-default" {
		t.Errorf("expected real recommendations after recovery, got %v", second)
	}
}

func TestGetRecommendations_ConcurrentRequestsCoalesce(t *testing.T) {
	release := make(chan struct{})
	blocking := &blockingCatalog{inner: testCatalog(t), release: release}
	e := newTestEngine(t, blocking, Options{})
	req := baseRequest("create a workflow")

	const callers = 16
	results := make([][]Recommendation, callers)

	var started, done sync.WaitGroup
	started.Add(callers)
	done.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i] = e.GetRecommendations(context.Background(), req)
		}(i)
	}

	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(release)
	done.Wait()

	if calls := blocking.calls.Load(); calls > 2 {
		t.Errorf("expected coalesced catalog access, got %d calls", calls)
	}
	for i := 1; i < callers; i++ {
		if len(results[i]) == 0 || results[i][0].BatchID != results[0][0].BatchID {
			t.Fatal("all concurrent callers must share one computed batch")
		}
	}
}

func TestGetRecommendations_ExplanationsUpgradeCachedBatch(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})
	req := baseRequest("create a workflow")

	plain := e.GetRecommendations(context.Background(), req)
	if plain[0].WhyRecommended != nil {
		t.Fatal("explanations must not appear unrequested")
	}

	req.IncludeExplanations = true
	explained := e.GetRecommendations(context.Background(), req)

	if len(explained) == 0 || explained[0].WhyRecommended == nil {
		t.Error("expected the cached batch upgraded with explanations")
	}
}

func TestGetRecommendations_CollectorPanicDoesNotFailRequest(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{Collector: panickingCollector{}})

	recs := e.GetRecommendations(context.Background(), baseRequest("create a workflow"))

	if len(recs) == 0 {
		t.Error("collector faults must not affect results")
	}
}

func TestRecordFeedback_UpdatesProfile(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})
	req := baseRequest("create a workflow")

	recs := e.GetRecommendations(context.Background(), req)
	if len(recs) == 0 {
		t.Fatal("expected recommendations")
	}

	e.RecordFeedback("alice", recs, Feedback{
		ToolID:  recs[0].ToolID,
		Outcome: "positive",
		Rating:  1.0,
	})

	profile := e.FeedbackStore().ProfileFor("alice")
	if profile.Affinity[recs[0].ToolID] <= 0 {
		t.Error("positive feedback should raise affinity")
	}
	if profile.FeedbackCount != 1 {
		t.Errorf("expected 1 feedback event, got %d", profile.FeedbackCount)
	}
}

func TestExplainRecommendation_WithAndWithoutCandidate(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})
	req := baseRequest("create a workflow")

	known := e.ExplainRecommendation(context.Background(), "workflow-builder", req, nil)
	if known.Confidence < 0.5 {
		t.Errorf("expected confident explanation for known tool, got %f", known.Confidence)
	}
	if len(known.Breakdown) != 5 {
		t.Errorf("expected full breakdown, got %d entries", len(known.Breakdown))
	}

	gone := e.ExplainRecommendation(context.Background(), "retired-tool", req, nil)
	if gone.Confidence >= 0.5 {
		t.Errorf("expected degraded explanation for unknown tool, got %f", gone.Confidence)
	}
}

func TestGetAnalytics_CountsRequests(t *testing.T) {
	e := newTestEngine(t, testCatalog(t), Options{})
	req := baseRequest("create a workflow")

	e.GetRecommendations(context.Background(), req)
	e.GetRecommendations(context.Background(), req)

	stats := e.GetAnalytics(time.Now().Add(-time.Hour), time.Now().Add(time.Hour))

	if stats.Requests != 2 {
		t.Fatalf("expected 2 recorded requests, got %d", stats.Requests)
	}
	if stats.CacheHits != 1 {
		t.Errorf("expected the second request recorded as a hit, got %d", stats.CacheHits)
	}
}

func TestFingerprint_StableAndSensitive(t *testing.T) {
	features := analyzer.ContextFeatures{Intent: "creation"}
	weights := scoring.DefaultWeights()

	a := fingerprint("alice", "Create  a Workflow", features, weights, 5)
	b := fingerprint("alice", "create a workflow", features, weights, 5)
	if a != b {
		t.Error("fingerprint must normalize case and whitespace")
	}

	if fingerprint("bob", "create a workflow", features, weights, 5) == a {
		t.Error("fingerprint must vary by user")
	}
	if fingerprint("alice", "create a workflow", features, weights, 3) == a {
		t.Error("fingerprint must vary by result cap")
	}
}

func BenchmarkGetRecommendations_CacheMiss(b *testing.B) {
	cat, err := catalog.NewInMemoryCatalog()
	if err != nil {
		b.Fatal(err)
	}
	defer cat.Close()
	cat.Add(
		catalog.Candidate{ID: "workflow-builder", Name: "Workflow Builder", Category: "automation", Tags: []string{"workflow", "create"}},
		catalog.Candidate{ID: "quick-lookup", Name: "Quick Lookup", Category: "search", Tags: []string{"lookup"}},
	)

	e, err := New(cat, Options{})
	if err != nil {
		b.Fatal(err)
	}
	defer e.Stop()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		// Vary the message to defeat the cache and measure the full pipeline.
		req := baseRequest(fmt.Sprintf("create a workflow %d", i))
		e.GetRecommendations(context.Background(), req)
	}
}

func BenchmarkGetRecommendations_CacheHit(b *testing.B) {
	cat, err := catalog.NewInMemoryCatalog()
	if err != nil {
		b.Fatal(err)
	}
	defer cat.Close()
	cat.Add(catalog.Candidate{ID: "workflow-builder", Name: "Workflow Builder", Category: "automation", Tags: []string{"workflow"}})

	e, err := New(cat, Options{})
	if err != nil {
		b.Fatal(err)
	}
	defer e.Stop()

	req := baseRequest("create a workflow")
	e.GetRecommendations(context.Background(), req)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.GetRecommendations(context.Background(), req)
	}
}

// failingCatalog always reports unavailability.
type failingCatalog struct{}

func (failingCatalog) ListCandidates(context.Context, catalog.FilterHints) ([]catalog.Candidate, error) {
	return nil, errors.New("catalog offline")
}

// flakyCatalog fails the first N calls, then delegates.
type flakyCatalog struct {
	mu       sync.Mutex
	inner    catalog.Catalog
	failures int
}

func (f *flakyCatalog) ListCandidates(ctx context.Context, hints catalog.FilterHints) ([]catalog.Candidate, error) {
	f.mu.Lock()
	if f.failures > 0 {
		f.failures--
		f.mu.Unlock()
		return nil, errors.New("catalog offline")
	}
	f.mu.Unlock()
	return f.inner.ListCandidates(ctx, hints)
}

// blockingCatalog holds every call until released and counts calls.
type blockingCatalog struct {
	inner   catalog.Catalog
	release chan struct{}
	calls   atomic.Int64
}

func (b *blockingCatalog) ListCandidates(ctx context.Context, hints catalog.FilterHints) ([]catalog.Candidate, error) {
	b.calls.Add(1)
	<-b.release
	return b.inner.ListCandidates(ctx, hints)
}

type panickingCollector struct{}

func (panickingCollector) Record(analytics.Event) {
	panic("collector down")
}
