/*
Package catalog defines the candidate tool model and the catalog collaborator
interface the recommendation engine consumes.

The engine treats the catalog as an external system: it fetches a fresh
candidate set per request and never caches catalog contents itself. This
package also ships an in-process reference implementation backed by a Bleve
memory index, used by the CLI and by tests.
*/
package catalog

import "strings"

// WorkflowStage identifies where in a workflow a tool applies.
// Stages are ordered so adjacency can be measured.
type WorkflowStage int

const (
	StageUnknown WorkflowStage = iota
	StageDiscovery
	StagePlanning
	StageExecution
	StageReview
	StageDelivery
)

var stageNames = map[WorkflowStage]string{
	StageUnknown:   "unknown",
	StageDiscovery: "discovery",
	StagePlanning:  "planning",
	StageExecution: "execution",
	StageReview:    "review",
	StageDelivery:  "delivery",
}

// String returns the lowercase stage name.
func (s WorkflowStage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// ParseStage maps a stage name to its WorkflowStage. Unrecognized names
// resolve to StageUnknown.
func ParseStage(name string) WorkflowStage {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "discovery":
		return StageDiscovery
	case "planning":
		return StagePlanning
	case "execution":
		return StageExecution
	case "review":
		return StageReview
	case "delivery":
		return StageDelivery
	default:
		return StageUnknown
	}
}

// Adjacent reports whether two known stages are direct neighbors in the
// workflow ordering.
func (s WorkflowStage) Adjacent(other WorkflowStage) bool {
	if s == StageUnknown || other == StageUnknown {
		return false
	}
	diff := int(s) - int(other)
	return diff == 1 || diff == -1
}

// LatencyClass describes a tool's typical execution latency.
type LatencyClass string

const (
	LatencyFast     LatencyClass = "fast"
	LatencyModerate LatencyClass = "moderate"
	LatencySlow     LatencyClass = "slow"
)

// Complexity describes a tool's declared complexity level.
type Complexity string

const (
	ComplexitySimple   Complexity = "simple"
	ComplexityModerate Complexity = "moderate"
	ComplexityAdvanced Complexity = "advanced"
)

// Candidate is a tool the engine may recommend, with the static metadata
// the scorers need. The engine treats candidates as immutable input.
type Candidate struct {
	// ID uniquely identifies the tool within the catalog.
	ID string `json:"id"`

	// Name is the human-readable tool name.
	Name string `json:"name"`

	// Description is a short human-readable summary.
	Description string `json:"description,omitempty"`

	// Category groups related tools (e.g. "automation", "reporting").
	Category string `json:"category"`

	// Tags are lowercase descriptors matched against message keywords.
	Tags []string `json:"tags,omitempty"`

	// Stage is the workflow stage the tool applies to.
	Stage WorkflowStage `json:"-"`

	// StageName is the serialized form of Stage.
	StageName string `json:"stage,omitempty"`

	// Latency is the tool's typical execution latency class.
	Latency LatencyClass `json:"latency,omitempty"`

	// Complexity is the tool's declared complexity level.
	Complexity Complexity `json:"complexity,omitempty"`

	// Exploratory marks low-commitment tools suited to open-ended sessions.
	Exploratory bool `json:"exploratory,omitempty"`
}

// TagSet returns the candidate's tags plus its category as a lowercase set.
func (c Candidate) TagSet() map[string]bool {
	set := make(map[string]bool, len(c.Tags)+1)
	for _, tag := range c.Tags {
		set[strings.ToLower(tag)] = true
	}
	if c.Category != "" {
		set[strings.ToLower(c.Category)] = true
	}
	return set
}
