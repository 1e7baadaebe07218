package insights

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func testClient(apiKey, baseURL string) *Client {
	c := New(apiKey, "test-model", zerolog.Nop())
	if baseURL != "" {
		c.baseURL = baseURL
	}
	return c
}

func sampleRequest() Request {
	return Request{
		SiteSummary:     []ProductTotal{{Product: "CGR ADULTE", Total: 120, Distribution: map[string]int{"A+": 120}}},
		NationalSummary: []ProductTotal{{Product: "CGR ADULTE", Total: 900}},
		Metadata:        Metadata{Site: "01 CRTS TREICHVILLE", Period: "Mars 2026"},
	}
}

func geminiReply(text string) string {
	b, _ := json.Marshal(map[string]any{
		"candidates": []map[string]any{{
			"content": map[string]any{
				"parts": []map[string]string{{"text": text}},
			},
		}},
	})
	return string(b)
}

func TestGenerateWithoutKeyFallsBack(t *testing.T) {
	out := testClient("", "").Generate(context.Background(), sampleRequest())
	if len(out) != 1 || out[0].Type != "warning" {
		t.Fatalf("fallback = %+v", out)
	}
}

func TestGenerateParsesInsights(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		reply := geminiReply(`{"insights":[{"title":"Tension O-","content":"Stock faible","type":"warning"},{"title":"Hausse CGR","content":"+12%"}]}`)
		w.Write([]byte(reply))
	}))
	defer srv.Close()

	out := testClient("key", srv.URL).Generate(context.Background(), sampleRequest())
	if len(out) != 2 {
		t.Fatalf("got %d insights: %+v", len(out), out)
	}
	if out[0].Title != "Tension O-" || out[0].Type != "warning" {
		t.Errorf("first = %+v", out[0])
	}
	if out[1].Type != "info" {
		t.Errorf("missing type should default to info: %+v", out[1])
	}
}

func TestGenerateStripsMarkdownFence(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reply := geminiReply("```json\n{\"insights\":[{\"title\":\"T\",\"content\":\"C\",\"type\":\"success\"}]}\n```")
		w.Write([]byte(reply))
	}))
	defer srv.Close()

	out := testClient("key", srv.URL).Generate(context.Background(), sampleRequest())
	if len(out) != 1 || out[0].Type != "success" {
		t.Fatalf("out = %+v", out)
	}
}

func TestGenerateGarbageFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(geminiReply("je ne peux pas répondre")))
	}))
	defer srv.Close()

	out := testClient("key", srv.URL).Generate(context.Background(), sampleRequest())
	if len(out) != 1 || out[0].Type != "warning" {
		t.Fatalf("expected fallback, got %+v", out)
	}
}

func TestGenerateServerErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	out := testClient("key", srv.URL).Generate(context.Background(), sampleRequest())
	if len(out) != 1 || out[0].Type != "warning" {
		t.Fatalf("expected fallback, got %+v", out)
	}
}
