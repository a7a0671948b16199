package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/recist-io/recist/internal/models"
)

func TestOpenAICompleteWithSystem(t *testing.T) {
	var gotBody map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %s, want /chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("auth header = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"hello back"}}]}`)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4o", server.URL, 5*time.Second)
	got, err := client.CompleteWithSystem(context.Background(), "be terse", "hello")
	if err != nil {
		t.Fatalf("CompleteWithSystem failed: %v", err)
	}
	if got != "hello back" {
		t.Errorf("response = %q", got)
	}

	if gotBody["model"] != "gpt-4o" {
		t.Errorf("model = %v", gotBody["model"])
	}
	if gotBody["temperature"].(float64) != 0.1 {
		t.Errorf("temperature = %v, want 0.1", gotBody["temperature"])
	}
	messages := gotBody["messages"].([]interface{})
	if len(messages) != 2 {
		t.Fatalf("messages = %d, want system + user", len(messages))
	}
	first := messages[0].(map[string]interface{})
	if first["role"] != "system" || first["content"] != "be terse" {
		t.Errorf("first message = %v", first)
	}
}

func TestOpenAICompleteOmitsSystem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		messages := body["messages"].([]interface{})
		if len(messages) != 1 {
			t.Errorf("messages = %d, want 1", len(messages))
		}
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"ok"}}]}`)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4o", server.URL, 5*time.Second)
	if _, err := client.Complete(context.Background(), "hello"); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func TestOpenAIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4o", server.URL, 5*time.Second)
	_, err := client.Complete(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error")
	}
	var llmErr *models.LLMError
	if !errors.As(err, &llmErr) {
		t.Errorf("error type = %T, want *models.LLMError", err)
	}
}

func TestOpenAIGenerateEmbedding(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s, want /embeddings", r.URL.Path)
		}
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["model"] != "text-embedding-3-small" {
			t.Errorf("model = %v, want text-embedding-3-small", body["model"])
		}
		if body["input"] != "some incident summary" {
			t.Errorf("input = %v", body["input"])
		}
		fmt.Fprint(w, `{"data":[{"embedding":[0.1,0.2,0.3]}]}`)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4o", server.URL, 5*time.Second)
	embedding, err := client.GenerateEmbedding(context.Background(), "some incident summary")
	if err != nil {
		t.Fatalf("GenerateEmbedding failed: %v", err)
	}
	if len(embedding) != 3 || embedding[1] != 0.2 {
		t.Errorf("embedding = %v", embedding)
	}
}

func TestOpenAIDiagnose(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		messages := body["messages"].([]interface{})
		system := messages[0].(map[string]interface{})
		if system["role"] != "system" {
			t.Errorf("first message role = %v, want system", system["role"])
		}
		answer := map[string]interface{}{
			"choices": []map[string]interface{}{
				{"message": map[string]interface{}{
					"role":    "assistant",
					"content": `{"root_cause":"OOM","confidence":90,"evidence":["log 1"],"explanation":"heap","suggested_actions":["restart"]}`,
				}},
			},
		}
		_ = json.NewEncoder(w).Encode(answer)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4o", server.URL, 5*time.Second)
	diagnosis, err := client.Diagnose(context.Background(), &DiagnosisRequest{
		Logs:      []string{"OOMKilled"},
		PodName:   "web-1",
		Namespace: "default",
		ErrorType: "oomKilled",
	})
	if err != nil {
		t.Fatalf("Diagnose failed: %v", err)
	}
	if diagnosis.RootCause != "OOM" || diagnosis.Confidence != 0.9 {
		t.Errorf("diagnosis = %+v", diagnosis)
	}
}

func TestOpenAIEvaluateStrategy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":"{\"success_probability\":0.8,\"risk_score\":0.2,\"estimated_time_seconds\":60,\"reasoning\":\"fits\",\"prerequisites_met\":true}"}}]}`)
	}))
	defer server.Close()

	client := NewOpenAIClient("test-key", "gpt-4o", server.URL, 5*time.Second)
	eval, err := client.EvaluateStrategy(context.Background(), &StrategyEvaluationRequest{
		Diagnosis:    "OOM",
		RootCause:    "heap",
		StrategyType: "vertical_scale",
	})
	if err != nil {
		t.Fatalf("EvaluateStrategy failed: %v", err)
	}
	if eval.StrategyType != models.StrategyVerticalScale {
		t.Errorf("strategy type = %q", eval.StrategyType)
	}
	if eval.SuccessProbability != 0.8 || eval.EstimatedTimeSeconds != 60 {
		t.Errorf("evaluation = %+v", eval)
	}
}

func TestOpenAIProviderIdentity(t *testing.T) {
	client := NewOpenAIClient("k", "gpt-4o", "", time.Second)
	if client.ProviderName() != "OpenAI" || client.ModelName() != "gpt-4o" {
		t.Errorf("identity = %s/%s", client.ProviderName(), client.ModelName())
	}
	if client.baseURL != defaultOpenAIBaseURL {
		t.Errorf("baseURL = %q, want default", client.baseURL)
	}
}
