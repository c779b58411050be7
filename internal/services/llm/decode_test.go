package llm

import (
	"strings"
	"testing"
	"time"
)

func TestDecodeJSONExtractsFromProse(t *testing.T) {
	var got struct {
		Lang string `json:"lang"`
	}
	inputs := []string{
		`{"lang":"fr"}`,
		"```json\n{\"lang\":\"fr\"}\n```",
		"Sure! Here it is: {\"lang\":\"fr\"} Let me know.",
	}
	for _, in := range inputs {
		got.Lang = ""
		if err := DecodeJSON(in, &got); err != nil {
			t.Fatalf("DecodeJSON(%q): %v", in, err)
		}
		if got.Lang != "fr" {
			t.Fatalf("DecodeJSON(%q) = %q", in, got.Lang)
		}
	}
}

func TestDecodeJSONReportsSnippet(t *testing.T) {
	var target map[string]any
	err := DecodeJSON("not json at all", &target)
	if err == nil || !strings.Contains(err.Error(), "payload snippet: not json at all") {
		t.Fatalf("expected snippet in error, got %v", err)
	}
	if err := DecodeJSON("   ", &target); err == nil {
		t.Fatal("expected error for empty payload")
	}
}

func TestSnippetTruncates(t *testing.T) {
	long := strings.Repeat("a ", 200)
	got := snippet(long)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 163 {
		t.Fatalf("unexpected snippet %q", got)
	}
	if snippet("\n\t") != "<empty>" {
		t.Fatal("expected placeholder for blank content")
	}
}

func TestBackoffDelayDoublesUpToCeiling(t *testing.T) {
	b := backoff{attempts: 5, first: time.Second, ceiling: 5 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, w := range want {
		if got := b.delay(i + 1); got != w {
			t.Fatalf("delay(%d) = %s, want %s", i+1, got, w)
		}
	}
	if (backoff{}).maxAttempts() != 1 {
		t.Fatal("zero attempts should clamp to one")
	}
}

func TestRetryAfterForms(t *testing.T) {
	if got := retryAfter("3"); got != 3*time.Second {
		t.Fatalf("retryAfter(3) = %s", got)
	}
	if got := retryAfter("-1"); got != 0 {
		t.Fatalf("negative Retry-After should be ignored, got %s", got)
	}
	if got := retryAfter("soon"); got != 0 {
		t.Fatalf("unparseable Retry-After should be ignored, got %s", got)
	}
}
