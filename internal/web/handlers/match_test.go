package handlers

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/verilink/profile-verify/internal/pipeline"
	"github.com/verilink/profile-verify/internal/report"
)

func TestMatch_Success(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{
		result: &pipeline.RunResult{
			RunID: "test-run",
			State: pipeline.StateDone,
			Matches: []pipeline.MatchResult{
				{DisplayName: "John Smith", ProfileRef: "https://www.example.com/in/john", FaceSimilarity: 0.9},
			},
		},
	}
	h := NewMatchHandler(cfg, runner, nil, nil)

	req := multipartImageRequest(t, "/api/v1/match", []byte("jpeg-bytes"))
	recorder := httptest.NewRecorder()
	h.Match(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp MatchResponse
	parseJSONResponse(t, recorder, &resp)
	if !resp.Success {
		t.Error("expected success true")
	}
	if len(resp.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(resp.Results))
	}
	view := resp.Results[0]
	if view.Name != "John Smith" || view.Confidence != 90 || view.Status != "verified" || view.Platform != "LinkedIn" {
		t.Errorf("unexpected view: %+v", view)
	}

	// The artifact must be persisted for later reads.
	if _, err := os.Stat(cfg.Match.OutputPath); err != nil {
		t.Errorf("artifact not written: %v", err)
	}
}

func TestMatch_NoQualifyingMatch(t *testing.T) {
	cfg := testConfig(t)
	h := NewMatchHandler(cfg, &fakeRunner{result: &pipeline.RunResult{RunID: "r", State: pipeline.StateDone}}, nil, nil)

	req := multipartImageRequest(t, "/api/v1/match", []byte("jpeg-bytes"))
	recorder := httptest.NewRecorder()
	h.Match(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp MatchResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Success {
		t.Error("expected success false for empty result list")
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results, got %d", len(resp.Results))
	}
}

func TestMatch_NoFaceInQuery(t *testing.T) {
	cfg := testConfig(t)
	runner := &fakeRunner{
		result: &pipeline.RunResult{RunID: "r", State: pipeline.StateFailed},
		err:    &pipeline.QueryResolutionError{Err: errors.New("no face detected")},
	}
	h := NewMatchHandler(cfg, runner, nil, nil)

	req := multipartImageRequest(t, "/api/v1/match", []byte("not-a-face"))
	recorder := httptest.NewRecorder()
	h.Match(recorder, req)

	assertStatusCode(t, recorder, http.StatusUnprocessableEntity)

	var resp MatchResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Success {
		t.Error("expected success false")
	}
}

func TestMatch_EngineFailure(t *testing.T) {
	cfg := testConfig(t)
	h := NewMatchHandler(cfg, &fakeRunner{err: errors.New("connection refused")}, nil, nil)

	req := multipartImageRequest(t, "/api/v1/match", []byte("jpeg-bytes"))
	recorder := httptest.NewRecorder()
	h.Match(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadGateway)
	assertJSONError(t, recorder, "face engine unavailable")
}

func TestMatch_MissingFile(t *testing.T) {
	h := NewMatchHandler(testConfig(t), &fakeRunner{}, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/match", nil)
	recorder := httptest.NewRecorder()
	h.Match(recorder, req)

	assertStatusCode(t, recorder, http.StatusBadRequest)
	assertJSONError(t, recorder, "file is required")
}

func TestResults_MissingArtifact(t *testing.T) {
	h := NewMatchHandler(testConfig(t), &fakeRunner{}, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/matches", nil)
	recorder := httptest.NewRecorder()
	h.Results(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp MatchResponse
	parseJSONResponse(t, recorder, &resp)
	if resp.Success {
		t.Error("expected success false when no artifact exists")
	}
	if len(resp.Results) != 0 {
		t.Errorf("expected no results, got %d", len(resp.Results))
	}
}

func TestResults_ReadsArtifact(t *testing.T) {
	cfg := testConfig(t)
	matches := []pipeline.MatchResult{
		{DisplayName: "John Smith", ProfileRef: "https://www.example.com/in/john", FaceSimilarity: 0.72},
	}
	if err := report.WriteArtifact(cfg.Match.OutputPath, matches); err != nil {
		t.Fatal(err)
	}

	h := NewMatchHandler(cfg, &fakeRunner{}, nil, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/matches", nil)
	recorder := httptest.NewRecorder()
	h.Results(recorder, req)

	assertStatusCode(t, recorder, http.StatusOK)

	var resp MatchResponse
	parseJSONResponse(t, recorder, &resp)
	if !resp.Success {
		t.Error("expected success true")
	}
	if len(resp.Results) != 1 || resp.Results[0].Confidence != 72 {
		t.Errorf("unexpected results: %+v", resp.Results)
	}
}
