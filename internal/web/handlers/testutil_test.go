package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/verilink/profile-verify/internal/config"
	"github.com/verilink/profile-verify/internal/pipeline"
	"github.com/verilink/profile-verify/internal/profiles"
)

// testConfig creates a minimal config for testing
func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Match: config.MatchConfig{
			SimilarityThreshold: 0.35,
			MaxResults:          4,
			OutputPath:          filepath.Join(t.TempDir(), "top_matches.json"),
			PlatformLabel:       "LinkedIn",
		},
	}
}

// fakeRunner returns a canned pipeline result or error.
type fakeRunner struct {
	result *pipeline.RunResult
	err    error
}

func (f *fakeRunner) Run(ctx context.Context, queryImage []byte, pool []profiles.Candidate, opts pipeline.Options) (*pipeline.RunResult, error) {
	if f.result == nil {
		f.result = &pipeline.RunResult{RunID: "test-run"}
	}
	return f.result, f.err
}

// fakeExtractor returns a canned embedding or error.
type fakeExtractor struct {
	embedding []float32
	err       error
}

func (f *fakeExtractor) Extract(ctx context.Context, imageData []byte) ([]float32, error) {
	return f.embedding, f.err
}

// multipartImageRequest builds a POST request with an image in the "file" field
func multipartImageRequest(t *testing.T, path string, imageData []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "query.jpg")
	if err != nil {
		t.Fatalf("failed to create form file: %v", err)
	}
	if _, err := part.Write(imageData); err != nil {
		t.Fatalf("failed to write form file: %v", err)
	}
	writer.Close()

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

// parseJSONResponse parses a JSON response body into the target type
func parseJSONResponse(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	if err := json.Unmarshal(recorder.Body.Bytes(), target); err != nil {
		t.Fatalf("failed to parse JSON response: %v\nBody: %s", err, recorder.Body.String())
	}
}

// assertStatusCode checks if the response has the expected status code
func assertStatusCode(t *testing.T, recorder *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if recorder.Code != expected {
		t.Errorf("expected status %d, got %d\nBody: %s", expected, recorder.Code, recorder.Body.String())
	}
}

// assertJSONError checks if the response is a JSON error with the expected message
func assertJSONError(t *testing.T, recorder *httptest.ResponseRecorder, expectedMessage string) {
	t.Helper()
	var result map[string]string
	if err := json.Unmarshal(recorder.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse error response: %v\nBody: %s", err, recorder.Body.String())
	}
	if result["error"] != expectedMessage {
		t.Errorf("expected error '%s', got '%s'", expectedMessage, result["error"])
	}
}
