package toolloop

import (
	"testing"

	"github.com/todea/meshhub/llm"
)

func linkerdSpecs() []llm.ToolSpec {
	names := []string{
		"helm_install_linkerd_crds",
		"helm_install_linkerd_control_plane",
		"helm_status",
		"kubectl_get_pods",
		"github_clone",
	}
	specs := make([]llm.ToolSpec, len(names))
	for i, n := range names {
		specs[i] = llm.ToolSpec{Name: n, Schema: llm.ArgumentSchema{Type: "object"}}
	}
	return specs
}

func TestResolveExact(t *testing.T) {
	spec, ok := Resolve("helm_status", linkerdSpecs())
	if !ok || spec.Name != "helm_status" {
		t.Fatalf("expected exact match, got %q ok=%v", spec.Name, ok)
	}
}

func TestResolveSubstringBothDirections(t *testing.T) {
	cases := []struct {
		requested string
		want      string
	}{
		{"helm_status_check", "helm_status"}, // requested contains catalog name
		{"kubectl_get", "kubectl_get_pods"},  // catalog name contains requested
	}
	for _, c := range cases {
		spec, ok := Resolve(c.requested, linkerdSpecs())
		if !ok || spec.Name != c.want {
			t.Errorf("Resolve(%q) = %q ok=%v, want %q", c.requested, spec.Name, ok, c.want)
		}
	}
}

func TestResolveTokenOverlapTieBreak(t *testing.T) {
	// Both install tools contain the requested name and share three tokens
	// with it. The earlier catalog entry must win, every time.
	for i := 0; i < 50; i++ {
		spec, ok := Resolve("helm_install_linkerd", linkerdSpecs())
		if !ok {
			t.Fatal("expected a match")
		}
		if spec.Name != "helm_install_linkerd_crds" {
			t.Fatalf("run %d: tie broke to %q, want earliest catalog entry", i, spec.Name)
		}
	}
}

func TestResolveNoMatch(t *testing.T) {
	if _, ok := Resolve("weather_report", linkerdSpecs()); ok {
		t.Error("expected no match for unrelated name")
	}
	if _, ok := Resolve("anything", nil); ok {
		t.Error("expected no match against empty catalog")
	}
}

func TestSanitizeArgumentsStripsUnknownKeys(t *testing.T) {
	spec := llm.ToolSpec{
		Name: "github_clone",
		Schema: llm.ArgumentSchema{
			Type: "object",
			Properties: map[string]any{
				"repo_url": map[string]any{"type": "string"},
				"branch":   map[string]any{"type": "string"},
			},
		},
	}
	args := SanitizeArguments(spec, map[string]any{
		"repo_url": "https://example.com/r.git",
		"repo-url": "typo",
		"force":    true,
	})
	if len(args) != 1 {
		t.Fatalf("expected 1 surviving key, got %v", args)
	}
	if args["repo_url"] != "https://example.com/r.git" {
		t.Errorf("declared key must survive, got %v", args)
	}
}

func TestSanitizeArgumentsPassThroughWithoutProperties(t *testing.T) {
	spec := llm.ToolSpec{Name: "helm_status", Schema: llm.ArgumentSchema{Type: "object"}}
	args := SanitizeArguments(spec, map[string]any{"anything": 1})
	if args["anything"] != 1 {
		t.Errorf("schema without properties must pass args through, got %v", args)
	}
}

func TestSanitizeArgumentsNil(t *testing.T) {
	spec := llm.ToolSpec{Name: "helm_status", Schema: llm.ArgumentSchema{Type: "object"}}
	args := SanitizeArguments(spec, nil)
	if args == nil || len(args) != 0 {
		t.Errorf("nil args must become an empty map, got %v", args)
	}
}
