package mcp

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/khanglvm/tool-recommender/internal/catalog"
	"github.com/khanglvm/tool-recommender/internal/engine"
)

func newTestServer(t *testing.T) *Server {
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
			Tags:     []string{"workflow", "create"},
			Stage:    catalog.StagePlanning,
		},
		catalog.Candidate{
			ID:       "quick-lookup",
			Name:     "Quick Lookup",
			Category: "search",
			Tags:     []string{"lookup", "search"},
			Stage:    catalog.StageDiscovery,
			Latency:  catalog.LatencyFast,
		},
	)
	if err != nil {
		t.Fatalf("failed to add candidates: %v", err)
	}

	eng, err := engine.New(cat, engine.Options{})
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}

	server := NewServer(eng)
	t.Cleanup(server.Close)
	return server
}

func callTool(t *testing.T, s *Server, name string, args map[string]interface{}) *MCPResponse {
	t.Helper()

	params, err := json.Marshal(map[string]interface{}{
		"name":      name,
		"arguments": args,
	})
	if err != nil {
		t.Fatal(err)
	}

	request, err := json.Marshal(MCPRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "tools/call",
		Params:  params,
	})
	if err != nil {
		t.Fatal(err)
	}

	resp, err := s.handleRequest(request)
	if err != nil {
		t.Fatalf("handleRequest failed: %v", err)
	}
	return resp
}

func responseText(t *testing.T, resp *MCPResponse) string {
	t.Helper()

	if resp.Error != nil {
		t.Fatalf("unexpected tool error: %s", resp.Error.Message)
	}
	result := resp.Result.(map[string]interface{})
	content := result["content"].([]map[string]interface{})
	return content[0]["text"].(string)
}

func TestHandleInitialize(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleRequest([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize"}`))
	if err != nil {
		t.Fatalf("initialize failed: %v", err)
	}

	result := resp.Result.(map[string]interface{})
	info := result["serverInfo"].(map[string]interface{})
	if info["name"] != "tool-recommender" {
		t.Errorf("unexpected server name: %v", info["name"])
	}
}

func TestHandleToolsList(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleRequest([]byte(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`))
	if err != nil {
		t.Fatalf("tools/list failed: %v", err)
	}

	result := resp.Result.(map[string]interface{})
	tools := result["tools"].([]map[string]interface{})
	if len(tools) != 4 {
		t.Fatalf("expected 4 meta-tools, got %d", len(tools))
	}

	names := make(map[string]bool)
	for _, tool := range tools {
		names[tool["name"].(string)] = true
	}
	for _, want := range []string{"recommend_tools", "explain_recommendation", "record_feedback", "get_stats"} {
		if !names[want] {
			t.Errorf("missing meta-tool %s", want)
		}
	}
}

func TestRecommendTools(t *testing.T) {
	s := newTestServer(t)

	resp := callTool(t, s, "recommend_tools", map[string]interface{}{
		"message": "create a workflow",
		"userId":  "alice",
	})

	text := responseText(t, resp)

	var payload struct {
		Recommendations []engine.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("response is not valid JSON: %v", err)
	}
	if len(payload.Recommendations) == 0 {
		t.Fatal("expected recommendations in response")
	}
	if payload.Recommendations[0].BatchID == "" {
		t.Error("recommendations must carry a batch ID")
	}
}

func TestRecommendTools_RequiresMessage(t *testing.T) {
	s := newTestServer(t)

	resp := callTool(t, s, "recommend_tools", map[string]interface{}{})

	if resp.Error == nil {
		t.Fatal("expected error for missing message")
	}
}

func TestRecordFeedback_RoundTrip(t *testing.T) {
	s := newTestServer(t)

	recResp := callTool(t, s, "recommend_tools", map[string]interface{}{
		"message": "create a workflow",
		"userId":  "alice",
	})
	var payload struct {
		Recommendations []engine.Recommendation `json:"recommendations"`
	}
	if err := json.Unmarshal([]byte(responseText(t, recResp)), &payload); err != nil {
		t.Fatal(err)
	}
	if len(payload.Recommendations) == 0 {
		t.Fatal("expected recommendations")
	}

	fbResp := callTool(t, s, "record_feedback", map[string]interface{}{
		"userId":  "alice",
		"batchId": payload.Recommendations[0].BatchID,
		"toolId":  payload.Recommendations[0].ToolID,
		"outcome": "positive",
		"rating":  1.0,
	})

	text := responseText(t, fbResp)
	if !strings.Contains(text, "Feedback recorded") {
		t.Errorf("unexpected feedback response: %s", text)
	}
}

func TestExplainRecommendation(t *testing.T) {
	s := newTestServer(t)

	resp := callTool(t, s, "explain_recommendation", map[string]interface{}{
		"toolId":  "workflow-builder",
		"message": "create a workflow",
	})

	text := responseText(t, resp)
	if !strings.Contains(text, "breakdown") && !strings.Contains(text, "Breakdown") {
		t.Errorf("expected a score breakdown in explanation: %s", text)
	}
}

func TestGetStats(t *testing.T) {
	s := newTestServer(t)

	callTool(t, s, "recommend_tools", map[string]interface{}{
		"message": "create a workflow",
	})

	resp := callTool(t, s, "get_stats", map[string]interface{}{"hours": float64(1)})
	text := responseText(t, resp)

	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		t.Fatalf("stats response is not valid JSON: %v", err)
	}
	if _, ok := payload["cacheHitRate"]; !ok {
		t.Error("expected cacheHitRate in stats payload")
	}
}

func TestUnknownMethodAndTool(t *testing.T) {
	s := newTestServer(t)

	resp, err := s.handleRequest([]byte(`{"jsonrpc":"2.0","id":3,"method":"bogus"}`))
	if err != nil {
		t.Fatalf("unexpected transport error: %v", err)
	}
	if resp.Error == nil || resp.Error.Code != -32601 {
		t.Error("expected method-not-found error")
	}

	resp = callTool(t, s, "bogus_tool", nil)
	if resp.Error == nil || resp.Error.Code != -32602 {
		t.Error("expected unknown-tool error")
	}
}

func TestHandleRequest_InvalidJSON(t *testing.T) {
	s := newTestServer(t)

	if _, err := s.handleRequest([]byte("{not json")); err == nil {
		t.Error("expected parse error for malformed request")
	}
}
