package provider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/openai/openai-go/option"
)

func TestOpenAIClientServerErrorRetriesThenFails(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"internal error","type":"server_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("test-key", option.WithBaseURL(srv.URL))
	_, err := client.Chat(context.Background(), "gpt-4", "hi", ChatParams{})
	if err == nil {
		t.Fatal("expected an error after exhausting retries")
	}
	if attempts != 3 {
		t.Errorf("expected 3 attempts (default retry count), got %d", attempts)
	}
}

func TestOpenAIClientAuthErrorNotRetried(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":{"message":"invalid api key","type":"invalid_request_error"}}`))
	}))
	defer srv.Close()

	client := NewOpenAIClient("bad-key", option.WithBaseURL(srv.URL))
	_, err := client.Chat(context.Background(), "gpt-4", "hi", ChatParams{})
	if _, ok := err.(*AuthError); !ok {
		t.Fatalf("expected AuthError, got %v (%T)", err, err)
	}
	if attempts != 1 {
		t.Errorf("expected exactly 1 attempt for a non-retryable error, got %d", attempts)
	}
}
