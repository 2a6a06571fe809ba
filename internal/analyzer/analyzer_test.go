package analyzer

import (
	"testing"
	"time"

	"github.com/khanglvm/tool-recommender/internal/catalog"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

// Tuesday 10:00 local time, inside working hours.
var tuesdayMorning = time.Date(2026, 3, 10, 10, 0, 0, 0, time.UTC)

// Saturday 22:00 local time, outside working hours.
var saturdayNight = time.Date(2026, 3, 14, 22, 0, 0, 0, time.UTC)

func TestAnalyze_EmptyRequestDefaults(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	f := a.Analyze(Request{})

	if f.Intent != "general" {
		t.Errorf("expected intent general, got %s", f.Intent)
	}
	if f.IntentConfidence != 0.1 {
		t.Errorf("expected confidence floor 0.1, got %f", f.IntentConfidence)
	}
	if f.Skill != SkillIntermediate {
		t.Errorf("expected intermediate skill, got %s", f.Skill)
	}
	if f.Urgency != UrgencyMedium {
		t.Errorf("expected medium urgency, got %s", f.Urgency)
	}
	if f.Workflow.Stage != catalog.StageUnknown {
		t.Errorf("expected unknown stage, got %v", f.Workflow.Stage)
	}
}

func TestAnalyze_CreationIntent(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	f := a.Analyze(Request{Message: "I want to create a new workflow"})

	if f.Intent != "creation" {
		t.Errorf("expected creation intent, got %s", f.Intent)
	}
	if f.IntentConfidence <= 0.1 || f.IntentConfidence > 1.0 {
		t.Errorf("expected confidence in (0.1, 1.0], got %f", f.IntentConfidence)
	}
}

func TestResolveIntent_TieBreaksLexically(t *testing.T) {
	// "run" is an action keyword, "what" an information keyword: one match
	// each, so the lexically first label (action) must win.
	label, _ := resolveIntent([]string{"run", "what"})

	if label != "action" {
		t.Errorf("expected tie to resolve to action, got %s", label)
	}
}

func TestResolveIntent_ConfidenceFraction(t *testing.T) {
	// 2 of 4 tokens match creation keywords.
	label, confidence := resolveIntent([]string{"create", "new", "thing", "tomorrow"})

	if label != "creation" {
		t.Fatalf("expected creation, got %s", label)
	}
	if confidence != 0.5 {
		t.Errorf("expected confidence 0.5, got %f", confidence)
	}
}

func TestAnalyze_UrgencyMarkers(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	if f := a.Analyze(Request{Message: "fix this asap"}); f.Urgency != UrgencyHigh {
		t.Errorf("expected high urgency for asap, got %s", f.Urgency)
	}
	if f := a.Analyze(Request{Message: "no rush, just curious"}); f.Urgency != UrgencyLow {
		t.Errorf("expected low urgency, got %s", f.Urgency)
	}
	// "know" must not trigger the "now" marker.
	if f := a.Analyze(Request{Message: "I know the answer"}); f.Urgency != UrgencyMedium {
		t.Errorf("expected medium urgency for 'know', got %s", f.Urgency)
	}
}

func TestAnalyze_ExplicitSkillWins(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	f := a.Analyze(Request{Message: "I am new to this", SkillLevel: "expert"})

	if f.Skill != SkillExpert {
		t.Errorf("expected explicit expert skill, got %s", f.Skill)
	}
}

func TestAnalyze_SkillHeuristics(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	if f := a.Analyze(Request{Message: "I am new to workflows"}); f.Skill != SkillBeginner {
		t.Errorf("expected beginner, got %s", f.Skill)
	}
	if f := a.Analyze(Request{Message: "optimize the batch pipeline"}); f.Skill != SkillAdvanced {
		t.Errorf("expected advanced, got %s", f.Skill)
	}
}

func TestAnalyze_TemporalFromTimeContext(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	f := a.Analyze(Request{Time: &TimeContext{Now: saturdayNight}})

	if f.Temporal.Weekday != time.Saturday {
		t.Errorf("expected Saturday from time context, got %v", f.Temporal.Weekday)
	}
	if f.Temporal.WorkingHours {
		t.Error("Saturday night should not be working hours")
	}
	if f.Business {
		t.Error("business flag should follow working hours")
	}
}

func TestAnalyze_TemporalFromClock(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	f := a.Analyze(Request{})

	if !f.Temporal.WorkingHours {
		t.Error("Tuesday 10:00 should be working hours")
	}
	if f.Temporal.HourOfDay != 10 {
		t.Errorf("expected hour 10, got %d", f.Temporal.HourOfDay)
	}
}

func TestAnalyze_WorkflowSignals(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	f := a.Analyze(Request{Workflow: &WorkflowState{
		Stage:          "execution",
		ActiveNodes:    []string{"deploy"},
		PendingActions: []string{"approve"},
	}})

	if f.Workflow.Stage != catalog.StageExecution {
		t.Errorf("expected execution stage, got %v", f.Workflow.Stage)
	}
	if len(f.Workflow.ActiveNodes) != 1 || f.Workflow.ActiveNodes[0] != "deploy" {
		t.Errorf("unexpected active nodes: %v", f.Workflow.ActiveNodes)
	}
}

func TestAnalyze_KeywordsFiltered(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	f := a.Analyze(Request{Message: "I want to create a new report"})

	for _, kw := range f.Keywords {
		if kw == "i" || kw == "to" || kw == "a" || kw == "want" {
			t.Errorf("stopword %q leaked into keywords", kw)
		}
	}
	found := false
	for _, kw := range f.Keywords {
		if kw == "report" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected 'report' in keywords, got %v", f.Keywords)
	}
}

func TestDigest_StableAndSensitive(t *testing.T) {
	a := NewWithClock(fixedClock(tuesdayMorning))

	f1 := a.Analyze(Request{Message: "create a report"})
	f2 := a.Analyze(Request{Message: "create a report"})
	f3 := a.Analyze(Request{Message: "delete a report"})

	if f1.Digest() != f2.Digest() {
		t.Error("identical features must produce identical digests")
	}
	if f1.Digest() == f3.Digest() {
		t.Error("different features must produce different digests")
	}
}
