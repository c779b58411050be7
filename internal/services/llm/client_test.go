package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"vidpipe/internal/config"
	"vidpipe/internal/services"
)

func completionServer(t *testing.T, handle func(req completionRequest) map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		_ = json.NewEncoder(w).Encode(handle(req))
	}))
	t.Cleanup(server.Close)
	return server
}

func messageChoice(content string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{"message": map[string]any{"content": content}},
		},
	}
}

func TestClientHealthCheck(t *testing.T) {
	cases := []struct {
		name    string
		status  int
		content string
		wantErr bool
	}{
		{name: "plain", content: `{"ok":true}`},
		{name: "fenced", content: "```json\n{\"ok\":true}\n```"},
		{name: "not ok", content: `{"ok":false}`, wantErr: true},
		{name: "unauthorized", status: http.StatusUnauthorized, wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			requests := make(chan completionRequest, 1)
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				var req completionRequest
				_ = json.NewDecoder(r.Body).Decode(&req)
				requests <- req
				if tc.status != 0 {
					w.WriteHeader(tc.status)
					_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
					return
				}
				_ = json.NewEncoder(w).Encode(messageChoice(tc.content))
			}))
			defer server.Close()

			client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"}, WithRetryMaxAttempts(1))
			err := client.HealthCheck(context.Background())
			if (err != nil) != tc.wantErr {
				t.Fatalf("HealthCheck error = %v, wantErr %v", err, tc.wantErr)
			}
			if seen := <-requests; seen.ResponseFormat["type"] != "json_object" {
				t.Fatalf("health check should request a JSON object, got %v", seen.ResponseFormat)
			}
		})
	}
}

func TestClientCompleteTextSendsPlainRequest(t *testing.T) {
	var seen completionRequest
	server := completionServer(t, func(req completionRequest) map[string]any {
		seen = req
		return messageChoice("  Bonjour le monde \n")
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "gpt-4o-mini"})
	got, err := client.CompleteText(context.Background(), "Translate into fr", "Hello world")
	if err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if got != "Bonjour le monde" {
		t.Fatalf("expected trimmed content, got %q", got)
	}
	if seen.ResponseFormat != nil {
		t.Fatalf("plain completion must not request a response format, got %v", seen.ResponseFormat)
	}
	if seen.Model != "gpt-4o-mini" || seen.Temperature != 0 || len(seen.Messages) != 2 {
		t.Fatalf("unexpected request %+v", seen)
	}
	if seen.Messages[0].Role != "system" || seen.Messages[1].Content != "Hello world" {
		t.Fatalf("unexpected messages %+v", seen.Messages)
	}
}

func TestClientCompleteTextWithoutKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:0"})
	if client.Configured() {
		t.Fatal("client without key should not be configured")
	}
	_, err := client.CompleteText(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrUpstreamUnavailable) {
		t.Fatalf("expected upstream unavailable, got %v", err)
	}
}

func TestClientCompleteJSONToolCallsArguments(t *testing.T) {
	server := completionServer(t, func(completionRequest) map[string]any {
		return map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "tool_calls",
					"message": map[string]any{
						"content": "",
						"tool_calls": []any{
							map[string]any{
								"type": "function",
								"id":   "call_1",
								"function": map[string]any{
									"name":      "respond",
									"arguments": `{"ok":true}`,
								},
							},
						},
					},
				},
			},
		}
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if !strings.Contains(content, `"ok"`) {
		t.Fatalf("expected tool call arguments, got %q", content)
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := completionServer(t, func(completionRequest) map[string]any {
		return map[string]any{
			"choices": []any{
				map[string]any{
					"finish_reason": "stop",
					"message":       map[string]any{"content": ""},
				},
			},
		}
	})

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithRetryBackoff(0, 0),
		WithSleeper(func(time.Duration) {}),
	)
	_, err := client.CompleteText(context.Background(), "system", "user")
	if err == nil {
		t.Fatal("expected completion to fail")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientDeltaAndLegacyText(t *testing.T) {
	cases := map[string]map[string]any{
		"delta": {
			"choices": []any{
				map[string]any{"delta": map[string]any{"content": "hola"}},
			},
		},
		"legacy": {
			"choices": []any{
				map[string]any{"finish_reason": "stop", "text": "hola"},
			},
		},
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			server := completionServer(t, func(completionRequest) map[string]any { return payload })
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
			got, err := client.CompleteText(context.Background(), "system", "hello")
			if err != nil {
				t.Fatalf("CompleteText returned error: %v", err)
			}
			if got != "hola" {
				t.Fatalf("expected hola, got %q", got)
			}
		})
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		_ = json.NewEncoder(w).Encode(messageChoice("ciao"))
	}))
	defer server.Close()

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	got, err := client.CompleteText(context.Background(), "system", "hello")
	if err != nil {
		t.Fatalf("CompleteText returned error: %v", err)
	}
	if got != "ciao" {
		t.Fatalf("expected ciao, got %q", got)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientDoesNotRetryClientErrors(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":{"message":"bad model"}}`))
	}))
	defer server.Close()

	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"},
		WithSleeper(func(time.Duration) {}),
		WithRetryMaxAttempts(5),
	)
	if _, err := client.CompleteText(context.Background(), "system", "hello"); err == nil {
		t.Fatal("expected error for 400 response")
	}
	if calls != 1 {
		t.Fatalf("expected a single call, got %d", calls)
	}
}

func TestNewFromConfigUsesTranslationSection(t *testing.T) {
	cfg := config.Default()
	cfg.Translation.APIKey = "sk-test"
	cfg.Translation.Model = "gpt-4o-mini"
	cfg.Translation.RetryAttempts = 2
	client := NewFromConfig(&cfg)
	if !client.Configured() || client.Model() != "gpt-4o-mini" {
		t.Fatalf("unexpected client config %+v", client.cfg)
	}
	if client.retry.maxAttempts() != 2 {
		t.Fatalf("expected 2 attempts, got %d", client.retry.maxAttempts())
	}
	if client.cfg.BaseURL != cfg.Translation.BaseURL {
		t.Fatalf("expected base url %q, got %q", cfg.Translation.BaseURL, client.cfg.BaseURL)
	}
}
