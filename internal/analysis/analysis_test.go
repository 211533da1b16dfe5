package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLocalAnalyzer_Deterministic(t *testing.T) {
	a := NewLocalAnalyzer()
	req := Request{Kind: KindTransitAnalysis, Subject: "Vera", Material: "Sun in Virgo"}

	first, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	second, err := a.Analyze(context.Background(), req)
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if first != second {
		t.Error("local analysis is not deterministic")
	}
	if !strings.Contains(first, "Vera") || !strings.Contains(first, "Sun in Virgo") {
		t.Errorf("analysis dropped subject or material:\n%s", first)
	}
}

func TestLocalAnalyzer_ReviewReturnsMaterial(t *testing.T) {
	a := NewLocalAnalyzer()

	out, err := a.Analyze(context.Background(), Request{
		Kind:     KindAnalysisReview,
		Material: "The full analysis text.",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if out != "The full analysis text." {
		t.Errorf("review output = %q", out)
	}
}

func TestLocalAnalyzer_UnknownKind(t *testing.T) {
	a := NewLocalAnalyzer()

	_, err := a.Analyze(context.Background(), Request{Kind: "divination"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
}

func TestLocalAnalyzer_EmptyReview(t *testing.T) {
	a := NewLocalAnalyzer()

	_, err := a.Analyze(context.Background(), Request{Kind: KindReportReview, Material: "  "})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIClient_Analyze(t *testing.T) {
	var gotReq chatRequest
	var gotAuth string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "Mars is busy."}},
			},
		})
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "test-key", BaseURL: srv.URL, Model: "test-model"})

	out, err := c.Analyze(context.Background(), Request{
		Kind:     KindTransitAnalysis,
		Subject:  "Vera",
		Material: "Mars at 12 Leo",
	})
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}

	if out != "Mars is busy." {
		t.Errorf("output = %q", out)
	}
	if gotAuth != "Bearer test-key" {
		t.Errorf("auth header = %q", gotAuth)
	}
	if gotReq.Model != "test-model" {
		t.Errorf("model = %q", gotReq.Model)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" {
		t.Fatalf("messages = %+v", gotReq.Messages)
	}
	if !strings.Contains(gotReq.Messages[1].Content, "Mars at 12 Leo") {
		t.Errorf("user prompt dropped material: %q", gotReq.Messages[1].Content)
	}
	if !strings.Contains(gotReq.Messages[1].Content, "Vera") {
		t.Errorf("user prompt dropped subject: %q", gotReq.Messages[1].Content)
	}
}

func TestOpenAIClient_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Analyze(context.Background(), Request{Kind: KindNatalAnalysis, Material: "x"})
	if !errors.Is(err, ErrRequest) {
		t.Fatalf("expected ErrRequest, got %v", err)
	}
	if !strings.Contains(err.Error(), "429") {
		t.Errorf("error should carry status code: %v", err)
	}
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Analyze(context.Background(), Request{Kind: KindNatalAnalysis, Material: "x"})
	if !errors.Is(err, ErrEmptyResponse) {
		t.Errorf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestOpenAIClient_UnknownKindBeforeRequest(t *testing.T) {
	// Неизвестный kind отвергается без обращения к сети.
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	c := NewOpenAIClient(OpenAIConfig{APIKey: "k", BaseURL: srv.URL})

	_, err := c.Analyze(context.Background(), Request{Kind: "tea_leaves"})
	if !errors.Is(err, ErrUnknownKind) {
		t.Errorf("expected ErrUnknownKind, got %v", err)
	}
	if called {
		t.Error("request was sent for unknown kind")
	}
}
