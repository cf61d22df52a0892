package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Heliazer/duply-v6-cli/internal/core/domain"
	"github.com/Heliazer/duply-v6-cli/internal/infrastructure/resilience"
)

func newTestClassifier(t *testing.T, serverURL string) *BatchClassifier {
	t.Helper()
	codec, err := NewCodec(nil)
	if err != nil {
		t.Fatalf("NewCodec() error = %v", err)
	}
	exec := resilience.NewExecutor("gemini", resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}, classifyGeminiError, nil)
	return NewBatchClassifier(New(serverURL, "gemini-1.5-flash", "test-key"), codec, exec, nil)
}

func geminiTextResponse(text string) string {
	payload := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]any{{"text": text}}}},
		},
	}
	raw, _ := json.Marshal(payload)
	return string(raw)
}

func TestClassifyBatchSendsPromptAndDecodesFencedAnswer(t *testing.T) {
	var capturedPrompt string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		var payload generateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(payload.Contents) > 0 && len(payload.Contents[0].Parts) > 0 {
			capturedPrompt = payload.Contents[0].Parts[0].Text
		}
		answer := "```json\n" + `[{"documento": 1, "archivo": "libro.pdf", "tema_general": "Ciencias", "tema_especifico": "Biología", "confianza": "alta", "palabras_clave": ["célula"]}]` + "\n```"
		_, _ = w.Write([]byte(geminiTextResponse(answer)))
	}))
	defer server.Close()

	classifier := newTestClassifier(t, server.URL)
	records, err := classifier.ClassifyBatch(context.Background(), []domain.BatchItem{{Filename: "libro.pdf", Text: "texto del libro"}})
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
	if records[0].TemaGeneral != "Ciencias" {
		t.Fatalf("unexpected tema_general: %q", records[0].TemaGeneral)
	}
	if !strings.Contains(capturedPrompt, "libro.pdf") || !strings.Contains(capturedPrompt, "texto del libro") {
		t.Fatalf("prompt missing document block: %s", capturedPrompt)
	}
}

func TestClassifyBatchSurfacesMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(geminiTextResponse("No puedo clasificar estos documentos.")))
	}))
	defer server.Close()

	classifier := newTestClassifier(t, server.URL)
	_, err := classifier.ClassifyBatch(context.Background(), []domain.BatchItem{{Filename: "a.pdf", Text: "t"}})
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed response kind, got %v", err)
	}
}

func TestClassifyBatchRetriesRetryableStatus(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "quota", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(geminiTextResponse(`[{"tema_general": "Arte", "archivo": "a.pdf"}]`)))
	}))
	defer server.Close()

	classifier := newTestClassifier(t, server.URL)
	records, err := classifier.ClassifyBatch(context.Background(), []domain.BatchItem{{Filename: "a.pdf", Text: "t"}})
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}
	if attempts != 2 {
		t.Fatalf("expected retry after 429, got %d attempts", attempts)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}
}

func TestClassifyBatchEmptyInputSkipsTransport(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Errorf("transport must not be called for an empty batch")
	}))
	defer server.Close()

	classifier := newTestClassifier(t, server.URL)
	records, err := classifier.ClassifyBatch(context.Background(), nil)
	if err != nil {
		t.Fatalf("ClassifyBatch() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
}
