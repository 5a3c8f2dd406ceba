package toolloop

import (
	"testing"
)

func TestExtractFencedJSON(t *testing.T) {
	content := "I'll check the release.\n```json\n{\"name\": \"helm_status\", \"parameters\": {\"release\": \"linkerd\"}}\n```\nStand by."
	calls := ExtractInlineToolCalls(content)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Name != "helm_status" {
		t.Errorf("expected helm_status, got %q", calls[0].Name)
	}
	if calls[0].Arguments["release"] != "linkerd" {
		t.Errorf("expected release argument, got %v", calls[0].Arguments)
	}
	if calls[0].ID == "" {
		t.Error("expected a synthesized call ID")
	}
}

func TestExtractFencedWithoutLanguageTag(t *testing.T) {
	content := "```\n{\"name\": \"kubectl_get_pods\", \"arguments\": {\"namespace\": \"linkerd\"}}\n```"
	calls := ExtractInlineToolCalls(content)
	if len(calls) != 1 || calls[0].Name != "kubectl_get_pods" {
		t.Fatalf("expected kubectl_get_pods, got %v", calls)
	}
}

func TestExtractBareText(t *testing.T) {
	content := `Sure! {"name": "helm_status", "arguments": {"release": "linkerd"}} running now`
	calls := ExtractInlineToolCalls(content)
	if len(calls) != 1 || calls[0].Name != "helm_status" {
		t.Fatalf("expected bare-text extraction, got %v", calls)
	}
}

func TestExtractFencedTakesPrecedenceOverBareText(t *testing.T) {
	content := "{\"name\": \"kubectl_get_pods\", \"arguments\": {}}\n```json\n{\"name\": \"helm_status\", \"arguments\": {}}\n```"
	calls := ExtractInlineToolCalls(content)
	if len(calls) != 1 || calls[0].Name != "helm_status" {
		t.Fatalf("fenced block must win over bare text, got %v", calls)
	}
}

func TestExtractNestedFunctionShape(t *testing.T) {
	content := `{"function": {"name": "helm_status", "arguments": {"release": "linkerd"}}}`
	calls := ExtractInlineToolCalls(content)
	if len(calls) != 1 || calls[0].Name != "helm_status" {
		t.Fatalf("expected function.name extraction, got %v", calls)
	}
	if calls[0].Arguments["release"] != "linkerd" {
		t.Errorf("expected function.arguments, got %v", calls[0].Arguments)
	}
}

func TestExtractParametersWinOverArguments(t *testing.T) {
	content := `{"name": "helm_status", "parameters": {"a": 1.0}, "arguments": {"b": 2.0}}`
	calls := ExtractInlineToolCalls(content)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if _, ok := calls[0].Arguments["a"]; !ok {
		t.Errorf("parameters key must take precedence, got %v", calls[0].Arguments)
	}
}

func TestExtractDefaultsEmptyArguments(t *testing.T) {
	calls := ExtractInlineToolCalls(`{"name": "helm_status"}`)
	if len(calls) != 1 {
		t.Fatalf("expected 1 call, got %d", len(calls))
	}
	if calls[0].Arguments == nil || len(calls[0].Arguments) != 0 {
		t.Errorf("missing arguments must default to empty map, got %v", calls[0].Arguments)
	}
}

func TestExtractIgnoresNonCandidateJSON(t *testing.T) {
	content := `Here is the output: {"status": "deployed", "revision": 3}`
	if calls := ExtractInlineToolCalls(content); len(calls) != 0 {
		t.Errorf("objects without a name are not tool calls, got %v", calls)
	}
}

func TestExtractHandlesStrayBraces(t *testing.T) {
	content := `} some noise } {"name": "helm_status", "arguments": {}} trailing {`
	calls := ExtractInlineToolCalls(content)
	if len(calls) != 1 || calls[0].Name != "helm_status" {
		t.Fatalf("stray braces must not break the scan, got %v", calls)
	}
}

func TestExtractMultipleCalls(t *testing.T) {
	content := `{"name": "helm_status", "arguments": {}} then {"name": "kubectl_get_pods", "arguments": {}}`
	calls := ExtractInlineToolCalls(content)
	if len(calls) != 2 {
		t.Fatalf("expected 2 calls, got %d", len(calls))
	}
	if calls[0].Name != "helm_status" || calls[1].Name != "kubectl_get_pods" {
		t.Errorf("calls out of order: %v", calls)
	}
}

func TestExtractNothing(t *testing.T) {
	if calls := ExtractInlineToolCalls("plain prose with no JSON at all"); len(calls) != 0 {
		t.Errorf("expected no calls, got %v", calls)
	}
}
