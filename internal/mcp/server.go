/*
Package mcp implements the MCP server that exposes the recommendation
engine as meta-tools.

The server uses stdio transport and exposes 4 meta-tools:
  - recommend_tools: Rank catalog tools for a message and context
  - explain_recommendation: Explain why a tool was recommended
  - record_feedback: Report the outcome of acting on a recommendation
  - get_stats: Summarize recommendation telemetry
*/
package mcp

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/khanglvm/tool-recommender/internal/analyzer"
	"github.com/khanglvm/tool-recommender/internal/engine"
)

// maxTrackedBatches bounds how many recommendation batches are kept for
// feedback correlation.
const maxTrackedBatches = 256

// Server represents the tool-recommender MCP server.
type Server struct {
	engine *engine.Engine

	mu      sync.Mutex
	batches map[string][]engine.Recommendation
	order   []string
}

// NewServer creates a new MCP server over the given engine.
func NewServer(eng *engine.Engine) *Server {
	return &Server{
		engine:  eng,
		batches: make(map[string][]engine.Recommendation),
	}
}

// Run starts the MCP server using stdio transport.
// This blocks until stdin is closed.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(os.Stdin)

	for scanner.Scan() {
		line := scanner.Bytes()

		response, err := s.handleRequest(line)
		if err != nil {
			// Send error response
			s.sendError(err)
			continue
		}

		if response != nil {
			s.sendResponse(response)
		}
	}

	return scanner.Err()
}

// Close stops the underlying engine.
func (s *Server) Close() {
	s.engine.Stop()
}

// MCPRequest represents an incoming MCP JSON-RPC request.
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing MCP JSON-RPC response.
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents an MCP error.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// handleRequest processes an incoming MCP request.
func (s *Server) handleRequest(data []byte) (*MCPResponse, error) {
	var req MCPRequest
	if err := json.Unmarshal(data, &req); err != nil {
		return nil, fmt.Errorf("invalid JSON-RPC request: %w", err)
	}

	switch req.Method {
	case "initialize":
		return s.handleInitialize(&req)
	case "tools/list":
		return s.handleToolsList(&req)
	case "tools/call":
		return s.handleToolsCall(&req)
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32601, Message: "Method not found"},
		}, nil
	}
}

// handleInitialize handles the MCP initialize request.
func (s *Server) handleInitialize(req *MCPRequest) (*MCPResponse, error) {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "tool-recommender",
				"version": "0.1.0",
			},
		},
	}, nil
}

// handleToolsList returns the list of available meta-tools.
func (s *Server) handleToolsList(req *MCPRequest) (*MCPResponse, error) {
	tools := []map[string]interface{}{
		{
			"name": "recommend_tools",
			"description": `Rank catalog tools for a user message and context.

WHEN TO USE: Call before suggesting a tool to the user. The ranking blends
the user's history, content relevance, workflow position, time of day, and
recent behavior.

Returns: Ranked recommendations with per-algorithm scores and a batchId
for feedback correlation.`,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"message": map[string]interface{}{
						"type":        "string",
						"description": "The user's message or task description",
					},
					"userId": map[string]interface{}{
						"type":        "string",
						"description": "Stable user identifier for personalization",
					},
					"workflowStage": map[string]interface{}{
						"type":        "string",
						"description": "Current workflow stage",
						"enum":        []string{"discovery", "planning", "execution", "review", "delivery"},
					},
					"maxResults": map[string]interface{}{
						"type":        "integer",
						"description": "Maximum number of recommendations",
					},
					"includeExplanations": map[string]interface{}{
						"type":        "boolean",
						"description": "Attach a whyRecommended bundle to each result",
					},
				},
				"required": []string{"message"},
			},
		},
		{
			"name": "explain_recommendation",
			"description": `Explain why a tool was (or would be) recommended for a message.

WHEN TO USE: When the user asks "why this tool?" or before presenting a
recommendation to a beginner who needs step-by-step guidance.`,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"toolId": map[string]interface{}{
						"type":        "string",
						"description": "Catalog tool identifier",
					},
					"message": map[string]interface{}{
						"type":        "string",
						"description": "The user's message or task description",
					},
					"userId": map[string]interface{}{
						"type":        "string",
						"description": "Stable user identifier for personalization",
					},
				},
				"required": []string{"toolId", "message"},
			},
		},
		{
			"name": "record_feedback",
			"description": `Report how acting on a recommendation went.

WHEN TO USE: After the user accepted, rejected, or rated a recommended
tool. Feedback reshapes the user's future rankings.

WORKFLOW:
1. recommend_tools(message) -> note the batchId
2. record_feedback(batchId, toolId, outcome, rating)`,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"batchId": map[string]interface{}{
						"type":        "string",
						"description": "Batch identifier from recommend_tools",
					},
					"toolId": map[string]interface{}{
						"type":        "string",
						"description": "The tool the feedback applies to",
					},
					"userId": map[string]interface{}{
						"type":        "string",
						"description": "Stable user identifier",
					},
					"outcome": map[string]interface{}{
						"type":        "string",
						"description": "How it went",
						"enum":        []string{"positive", "negative", "mixed"},
					},
					"rating": map[string]interface{}{
						"type":        "number",
						"description": "Strength of the outcome in [0,1]",
					},
					"comment": map[string]interface{}{
						"type":        "string",
						"description": "Optional free-text comment",
					},
				},
				"required": []string{"toolId", "outcome"},
			},
		},
		{
			"name": "get_stats",
			"description": `Summarize recommendation telemetry over recent hours.

Returns: Request counts, cache hit rate, fallback rate, and average
top-result score.`,
			"inputSchema": map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"hours": map[string]interface{}{
						"type":        "integer",
						"description": "Look-back window in hours (default 24)",
					},
				},
			},
		},
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": tools,
		},
	}, nil
}

// handleToolsCall handles tool execution requests.
func (s *Server) handleToolsCall(req *MCPRequest) (*MCPResponse, error) {
	var params struct {
		Name      string                 `json:"name"`
		Arguments map[string]interface{} `json:"arguments"`
	}

	if err := json.Unmarshal(req.Params, &params); err != nil {
		return nil, fmt.Errorf("invalid params: %w", err)
	}

	var result interface{}
	var err error

	switch params.Name {
	case "recommend_tools":
		result, err = s.execRecommend(params.Arguments)
	case "explain_recommendation":
		result, err = s.execExplain(params.Arguments)
	case "record_feedback":
		result, err = s.execFeedback(params.Arguments)
	case "get_stats":
		result, err = s.execStats(params.Arguments)
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32602, Message: fmt.Sprintf("Unknown tool: %s", params.Name)},
		}, nil
	}

	if err != nil {
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error:   &MCPError{Code: -32000, Message: err.Error()},
		}, nil
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}, nil
}

// execRecommend runs the recommendation pipeline and tracks the batch for
// later feedback.
func (s *Server) execRecommend(args map[string]interface{}) (string, error) {
	message, _ := args["message"].(string)
	if message == "" {
		return "", fmt.Errorf("message is required")
	}

	req := engine.RecommendationRequest{
		UserID:  stringArg(args, "userId"),
		Message: message,
	}
	if stage := stringArg(args, "workflowStage"); stage != "" {
		req.Workflow = &analyzer.WorkflowState{Stage: stage}
	}
	if maxResults, ok := args["maxResults"].(float64); ok {
		req.MaxResults = int(maxResults)
	}
	if include, ok := args["includeExplanations"].(bool); ok {
		req.IncludeExplanations = include
	}

	recs := s.engine.GetRecommendations(context.Background(), req)
	s.trackBatch(recs)

	payload, err := json.MarshalIndent(map[string]interface{}{
		"recommendations": recs,
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal recommendations: %w", err)
	}
	return string(payload), nil
}

// execExplain synthesizes an explanation for a tool.
func (s *Server) execExplain(args map[string]interface{}) (string, error) {
	toolID := stringArg(args, "toolId")
	message := stringArg(args, "message")
	if toolID == "" || message == "" {
		return "", fmt.Errorf("toolId and message are required")
	}

	req := engine.RecommendationRequest{
		UserID:  stringArg(args, "userId"),
		Message: message,
	}

	explanation := s.engine.ExplainRecommendation(context.Background(), toolID, req, nil)

	payload, err := json.MarshalIndent(explanation, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal explanation: %w", err)
	}
	return string(payload), nil
}

// execFeedback records one outcome against a tracked batch.
func (s *Server) execFeedback(args map[string]interface{}) (string, error) {
	toolID := stringArg(args, "toolId")
	outcome := stringArg(args, "outcome")
	if toolID == "" || outcome == "" {
		return "", fmt.Errorf("toolId and outcome are required")
	}

	rating := 1.0
	if r, ok := args["rating"].(float64); ok {
		rating = r
	}

	batch := s.lookupBatch(stringArg(args, "batchId"))

	s.engine.RecordFeedback(stringArg(args, "userId"), batch, engine.Feedback{
		ToolID:  toolID,
		Outcome: outcome,
		Rating:  rating,
		Comment: stringArg(args, "comment"),
	})

	return fmt.Sprintf("Feedback recorded for %s (%s)", toolID, outcome), nil
}

// execStats summarizes telemetry over the requested window.
func (s *Server) execStats(args map[string]interface{}) (string, error) {
	hours := 24
	if h, ok := args["hours"].(float64); ok && h > 0 {
		hours = int(h)
	}

	now := time.Now()
	stats := s.engine.GetAnalytics(now.Add(-time.Duration(hours)*time.Hour), now)

	payload, err := json.MarshalIndent(map[string]interface{}{
		"stats":        stats,
		"cacheHitRate": stats.CacheHitRate(),
	}, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal stats: %w", err)
	}
	return string(payload), nil
}

// trackBatch remembers a batch for feedback correlation, evicting the
// oldest when over the cap.
func (s *Server) trackBatch(recs []engine.Recommendation) {
	if len(recs) == 0 {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchID := recs[0].BatchID
	if _, exists := s.batches[batchID]; !exists {
		s.order = append(s.order, batchID)
	}
	s.batches[batchID] = recs

	for len(s.order) > maxTrackedBatches {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.batches, oldest)
	}
}

// lookupBatch returns the tracked batch, or nil when unknown.
func (s *Server) lookupBatch(batchID string) []engine.Recommendation {
	if batchID == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.batches[batchID]
}

func stringArg(args map[string]interface{}, key string) string {
	v, _ := args[key].(string)
	return v
}

// sendResponse writes a JSON-RPC response to stdout.
func (s *Server) sendResponse(resp *MCPResponse) {
	data, _ := json.Marshal(resp)
	fmt.Println(string(data))
}

// sendError writes an error response to stdout.
func (s *Server) sendError(err error) {
	resp := &MCPResponse{
		JSONRPC: "2.0",
		ID:      nil,
		Error:   &MCPError{Code: -32700, Message: err.Error()},
	}
	s.sendResponse(resp)
}
