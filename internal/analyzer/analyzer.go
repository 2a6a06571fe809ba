package analyzer

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/khanglvm/tool-recommender/internal/catalog"
)

const (
	// intentGeneral is the fallback intent when no taxonomy category matches.
	intentGeneral = "general"

	// minIntentConfidence is the confidence floor for any resolved intent.
	minIntentConfidence = 0.1

	// workdayStart/workdayEnd bound the working-hours flag (hour of day).
	workdayStart = 9
	workdayEnd   = 17
)

// intentTaxonomy maps intent labels to their keyword sets. Labels are
// iterated in lexical order so ties resolve deterministically.
var intentTaxonomy = map[string][]string{
	"action":      {"run", "execute", "start", "stop", "trigger", "do", "perform", "apply", "deploy", "send"},
	"analysis":    {"analyze", "analyse", "compare", "measure", "evaluate", "trend", "report", "metric", "why", "investigate"},
	"creation":    {"create", "build", "make", "new", "add", "design", "generate", "write", "compose", "draft"},
	"decision":    {"should", "choose", "decide", "recommend", "pick", "best", "option", "versus", "vs"},
	"exploration": {"explore", "browse", "discover", "look", "around", "ideas", "curious", "wonder", "try"},
	"information": {"what", "who", "when", "where", "show", "list", "find", "search", "lookup", "status"},
	"learning":    {"learn", "how", "tutorial", "guide", "explain", "teach", "understand", "help", "example"},
}

var urgencyHighMarkers = []string{"urgent", "urgently", "asap", "immediately", "now", "quickly", "emergency", "deadline", "critical"}

var urgencyLowMarkers = []string{"whenever", "eventually", "someday", "no rush", "sometime", "curious", "casually", "leisure"}

var skillBeginnerMarkers = []string{"beginner", "new to", "first time", "getting started", "never used", "basics"}

var skillAdvancedMarkers = []string{"advanced", "optimize", "optimise", "fine-tune", "internals", "api", "batch", "automate"}

var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "but": true, "by": true, "can": true, "for": true, "from": true,
	"i": true, "in": true, "is": true, "it": true, "me": true, "my": true,
	"of": true, "on": true, "or": true, "please": true, "so": true, "that": true,
	"the": true, "this": true, "to": true, "want": true, "with": true, "you": true,
}

// Analyzer derives ContextFeatures from requests. The zero value is not
// usable; construct with New.
type Analyzer struct {
	now func() time.Time
}

// New creates an analyzer that reads the wall clock when the request carries
// no time context.
func New() *Analyzer {
	return &Analyzer{now: time.Now}
}

// NewWithClock creates an analyzer with an injected clock, for tests.
func NewWithClock(now func() time.Time) *Analyzer {
	return &Analyzer{now: now}
}

// Analyze derives a feature snapshot from the request. It never fails:
// missing fields resolve to defaults (intent "general", skill intermediate,
// urgency medium) and the empty request yields a fully defaulted snapshot.
func (a *Analyzer) Analyze(req Request) ContextFeatures {
	tokens := tokenize(req.Message)

	intent, confidence := resolveIntent(tokens)

	features := ContextFeatures{
		Intent:           intent,
		IntentConfidence: confidence,
		Skill:            resolveSkill(req),
		Urgency:          resolveUrgency(req.Message),
		Temporal:         a.resolveTemporal(req.Time),
		Workflow:         resolveWorkflow(req.Workflow),
		Keywords:         keywords(tokens),
		Mobile:           strings.EqualFold(req.Device, "mobile"),
	}
	features.Business = features.Temporal.WorkingHours

	return features
}

// tokenize lowercases and splits a message on non-letter/digit runes.
func tokenize(message string) []string {
	return strings.FieldsFunc(strings.ToLower(message), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// resolveIntent matches tokens against the taxonomy. The winning label is
// the one with the most matching tokens; ties break by lexical order of the
// label. Confidence is the fraction of tokens matching the winning set,
// floored at minIntentConfidence.
func resolveIntent(tokens []string) (string, float64) {
	if len(tokens) == 0 {
		return intentGeneral, minIntentConfidence
	}

	labels := make([]string, 0, len(intentTaxonomy))
	for label := range intentTaxonomy {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	bestLabel := intentGeneral
	bestCount := 0
	for _, label := range labels {
		keywordSet := make(map[string]bool, len(intentTaxonomy[label]))
		for _, kw := range intentTaxonomy[label] {
			keywordSet[kw] = true
		}

		count := 0
		for _, token := range tokens {
			if keywordSet[token] {
				count++
			}
		}

		// Strictly greater keeps the lexically first label on ties.
		if count > bestCount {
			bestCount = count
			bestLabel = label
		}
	}

	if bestCount == 0 {
		return intentGeneral, minIntentConfidence
	}

	confidence := float64(bestCount) / float64(len(tokens))
	if confidence < minIntentConfidence {
		confidence = minIntentConfidence
	}
	return bestLabel, confidence
}

// resolveSkill uses the explicit skill level when supplied, else falls back
// to light phrase heuristics, else intermediate.
func resolveSkill(req Request) SkillLevel {
	if req.SkillLevel != "" {
		return ParseSkillLevel(req.SkillLevel)
	}

	message := strings.ToLower(req.Message)
	for _, marker := range skillBeginnerMarkers {
		if strings.Contains(message, marker) {
			return SkillBeginner
		}
	}
	for _, marker := range skillAdvancedMarkers {
		if strings.Contains(message, marker) {
			return SkillAdvanced
		}
	}
	return SkillIntermediate
}

// resolveUrgency scans for urgency markers; high markers win over low ones.
// Single-word markers match whole tokens so "now" does not fire on "know".
func resolveUrgency(message string) Urgency {
	tokens := tokenize(message)
	tokenSet := make(map[string]bool, len(tokens))
	for _, token := range tokens {
		tokenSet[token] = true
	}
	lower := strings.ToLower(message)

	matches := func(marker string) bool {
		if strings.ContainsRune(marker, ' ') {
			return strings.Contains(lower, marker)
		}
		return tokenSet[marker]
	}

	for _, marker := range urgencyHighMarkers {
		if matches(marker) {
			return UrgencyHigh
		}
	}
	for _, marker := range urgencyLowMarkers {
		if matches(marker) {
			return UrgencyLow
		}
	}
	return UrgencyMedium
}

// resolveTemporal reads the caller-supplied time context verbatim when
// present, otherwise the wall clock.
func (a *Analyzer) resolveTemporal(tc *TimeContext) TemporalBucket {
	now := a.now()
	if tc != nil && !tc.Now.IsZero() {
		now = tc.Now
	}

	weekday := now.Weekday()
	hour := now.Hour()
	working := weekday != time.Saturday && weekday != time.Sunday &&
		hour >= workdayStart && hour < workdayEnd

	return TemporalBucket{
		HourOfDay:    hour,
		Weekday:      weekday,
		WorkingHours: working,
	}
}

// resolveWorkflow copies caller-supplied workflow state into signals.
func resolveWorkflow(state *WorkflowState) WorkflowSignals {
	if state == nil {
		return WorkflowSignals{Stage: catalog.StageUnknown}
	}

	signals := WorkflowSignals{
		Stage: catalog.ParseStage(state.Stage),
	}
	signals.ActiveNodes = append(signals.ActiveNodes, state.ActiveNodes...)
	signals.PendingActions = append(signals.PendingActions, state.PendingActions...)
	return signals
}

// keywords returns stopword-filtered tokens, deduplicated, in first-seen
// order.
func keywords(tokens []string) []string {
	seen := make(map[string]bool, len(tokens))
	var out []string
	for _, token := range tokens {
		if stopwords[token] || seen[token] || len(token) < 2 {
			continue
		}
		seen[token] = true
		out = append(out, token)
	}
	return out
}
