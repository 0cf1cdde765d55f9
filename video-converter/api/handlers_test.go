package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"blog_to_video/video-converter/models"
	"blog_to_video/video-converter/service"
	"blog_to_video/video-converter/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeJobs struct {
	submitted []models.ContentDocument
	submitErr error
	statuses  map[string]service.StatusResult
}

func (f *fakeJobs) Submit(ctx context.Context, doc models.ContentDocument) (service.SubmitResult, error) {
	if f.submitErr != nil {
		return service.SubmitResult{}, f.submitErr
	}
	f.submitted = append(f.submitted, doc)
	return service.SubmitResult{JobID: fmt.Sprintf("job-%d", len(f.submitted)), Progress: "pending"}, nil
}

func (f *fakeJobs) Status(jobID string) (service.StatusResult, error) {
	status, ok := f.statuses[jobID]
	if !ok {
		return service.StatusResult{}, fmt.Errorf("%w: %s", service.ErrJobNotFound, jobID)
	}
	return status, nil
}

func (f *fakeJobs) Jobs() []service.StatusResult {
	var out []service.StatusResult
	for _, id := range []string{"job-a", "job-b"} {
		if s, ok := f.statuses[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

type fakeHistory struct {
	limit int64
}

func (f *fakeHistory) Recent(ctx context.Context, limit int64) ([]store.JobRecord, error) {
	f.limit = limit
	return []store.JobRecord{{ID: "old", Status: "done", UpdatedAt: time.Unix(0, 0).UTC()}}, nil
}

type envelope struct {
	Result string          `json:"result"`
	Data   json.RawMessage `json:"data"`
}

func newTestServer(t *testing.T, jobs *fakeJobs, opts ...Option) (*gin.Engine, string) {
	t.Helper()
	dir := t.TempDir()
	s := NewServer(jobs, service.NewSequencer(service.DefaultSecondsPerCharacter), dir, zerolog.Nop(), opts...)
	return s.Router(), dir
}

func do(t *testing.T, r http.Handler, method, target, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s: %v", w.Body.String(), err)
		}
	}
	return w, env
}

func TestCreateVideo(t *testing.T) {
	jobs := &fakeJobs{}
	r, _ := newTestServer(t, jobs)

	body := `{"content": {"title": "post", "blocks": [
		{"type": "text", "value": "hello"},
		{"type": "image", "value": {"src": "https://example.com/a.png"}, "duration": 2}
	]}}`
	w, env := do(t, r, http.MethodPost, "/api/to-video", body)
	if w.Code != http.StatusOK || env.Result != "success" {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var data jobData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if data.JobID != "job-1" || data.Progress != "pending" {
		t.Errorf("data = %+v", data)
	}

	if len(jobs.submitted) != 1 {
		t.Fatalf("submitted = %d", len(jobs.submitted))
	}
	doc := jobs.submitted[0]
	if doc.Blocks[0].Text != "hello" || doc.Blocks[1].Src != "https://example.com/a.png" || doc.Blocks[1].Duration != 2 {
		t.Errorf("decoded document = %+v", doc)
	}
}

func TestCreateVideoErrors(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		submitErr error
		want      int
	}{
		{"invalid json", `{"content":`, nil, http.StatusBadRequest},
		{"missing content", `{}`, nil, http.StatusBadRequest},
		{"unknown block", `{"content": {"blocks": []}}`, fmt.Errorf("translate: %w", service.ErrUnknownBlockType), http.StatusBadRequest},
		{"empty content", `{"content": {"blocks": []}}`, service.ErrEmptyContent, http.StatusBadRequest},
		{"server failure", `{"content": {"blocks": []}}`, errors.New("disk full"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := newTestServer(t, &fakeJobs{submitErr: tt.submitErr})
			w, env := do(t, r, http.MethodPost, "/api/to-video", tt.body)
			if w.Code != tt.want || env.Result != "error" {
				t.Errorf("status = %d result = %q, want %d error", w.Code, env.Result, tt.want)
			}
		})
	}
}

func TestVideoStatus(t *testing.T) {
	jobs := &fakeJobs{statuses: map[string]service.StatusResult{
		"job-a": {JobID: "job-a", Progress: "done", Percent: 100, OutputPath: "/srv/output/job-a_final.mp4"},
		"job-b": {JobID: "job-b", Progress: "pending", Percent: 12.5},
	}}
	r, _ := newTestServer(t, jobs)

	w, env := do(t, r, http.MethodGet, "/api/to-video?jobId=job-a", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var done jobData
	_ = json.Unmarshal(env.Data, &done)
	if done.VideoURL != "/videos/job-a_final.mp4" || done.OutputPath == "" || done.Percent != 100 {
		t.Errorf("done data = %+v", done)
	}

	_, env = do(t, r, http.MethodGet, "/api/to-video?jobId=job-b", "")
	var pending jobData
	_ = json.Unmarshal(env.Data, &pending)
	if pending.VideoURL != "" || pending.OutputPath != "" || pending.Progress != "pending" {
		t.Errorf("pending data = %+v", pending)
	}

	if w, _ := do(t, r, http.MethodGet, "/api/to-video?jobId=nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("unknown job status = %d", w.Code)
	}
	if w, _ := do(t, r, http.MethodGet, "/api/to-video", ""); w.Code != http.StatusBadRequest {
		t.Errorf("missing jobId status = %d", w.Code)
	}

	w, env = do(t, r, http.MethodGet, "/api/jobs", "")
	var list []jobData
	_ = json.Unmarshal(env.Data, &list)
	if w.Code != http.StatusOK || len(list) != 2 || list[0].JobID != "job-a" {
		t.Errorf("jobs = %d %+v", w.Code, list)
	}
}

func TestSequence(t *testing.T) {
	jobs := &fakeJobs{}
	r, _ := newTestServer(t, jobs)

	body := `{
		"content": {"title": "flat", "blocks": [
			{"type": "image", "value": {"src": "a.png"}},
			{"type": "text", "value": "hello world"}
		]},
		"commands": [{"type": "createSingleImageSingleText", "targetImageIndex": 0, "targetTextIndex": 1}],
		"convert": true
	}`
	w, env := do(t, r, http.MethodPost, "/api/sequence", body)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	var data sequenceData
	if err := json.Unmarshal(env.Data, &data); err != nil {
		t.Fatal(err)
	}
	if len(data.Content.Blocks) != 1 || data.Content.Blocks[0].Type != models.BlockSingleImageAndSingleText {
		t.Errorf("sequenced content = %+v", data.Content)
	}
	if data.JobID != "job-1" || len(jobs.submitted) != 1 {
		t.Errorf("convert did not submit: %+v", data)
	}

	bad := `{"content": {"blocks": [{"type": "text", "value": "x"}]},
		"commands": [{"type": "createSingleImageSingleText", "targetImageIndex": 0, "targetTextIndex": 0}]}`
	if w, env := do(t, r, http.MethodPost, "/api/sequence", bad); w.Code != http.StatusBadRequest || env.Result != "error" {
		t.Errorf("bad index status = %d", w.Code)
	}
}

func TestHistoryRoute(t *testing.T) {
	r, _ := newTestServer(t, &fakeJobs{})
	if w, _ := do(t, r, http.MethodGet, "/api/history", ""); w.Code != http.StatusNotFound {
		t.Errorf("history without store = %d", w.Code)
	}

	history := &fakeHistory{}
	r, _ = newTestServer(t, &fakeJobs{}, WithHistory(history))
	w, env := do(t, r, http.MethodGet, "/api/history?limit=5", "")
	if w.Code != http.StatusOK || history.limit != 5 {
		t.Errorf("history = %d limit %d", w.Code, history.limit)
	}
	var records []store.JobRecord
	_ = json.Unmarshal(env.Data, &records)
	if len(records) != 1 || records[0].ID != "old" {
		t.Errorf("records = %+v", records)
	}

	if w, _ := do(t, r, http.MethodGet, "/api/history?limit=zero", ""); w.Code != http.StatusBadRequest {
		t.Errorf("bad limit = %d", w.Code)
	}
}

func TestHealthAndCORS(t *testing.T) {
	r, _ := newTestServer(t, &fakeJobs{}, WithVersion("2.0.0"))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var health HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "healthy" || health.Version != "2.0.0" {
		t.Errorf("health = %+v", health)
	}
	if w.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/to-video", nil)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Errorf("preflight status = %d", w.Code)
	}
}

func TestServesRenderedVideos(t *testing.T) {
	jobs := &fakeJobs{statuses: map[string]service.StatusResult{}}
	r, dir := newTestServer(t, jobs)

	final := filepath.Join(dir, "job-a_final.mp4")
	if err := os.WriteFile(final, []byte("video bytes"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "input_list_1_x.txt"), []byte("file 'a.mp4'"), 0o644); err != nil {
		t.Fatal(err)
	}
	jobs.statuses["job-a"] = service.StatusResult{JobID: "job-a", Progress: "done", Percent: 100, OutputPath: final}
	jobs.statuses["job-b"] = service.StatusResult{JobID: "job-b", Progress: "processing", Percent: 40}

	tests := []struct {
		name   string
		method string
		target string
		code   int
		body   string
	}{
		{"video file", http.MethodGet, "/videos/job-a_final.mp4", http.StatusOK, "video bytes"},
		{"video head", http.MethodHead, "/videos/job-a_final.mp4", http.StatusOK, ""},
		{"missing video", http.MethodGet, "/videos/missing.mp4", http.StatusNotFound, ""},
		{"manifest is hidden", http.MethodGet, "/videos/input_list_1_x.txt", http.StatusNotFound, ""},
		{"no directory listing", http.MethodGet, "/videos/", http.StatusNotFound, ""},
		{"finished job", http.MethodGet, "/videos/jobs/job-a", http.StatusOK, "video bytes"},
		{"running job", http.MethodGet, "/videos/jobs/job-b", http.StatusConflict, ""},
		{"unknown job", http.MethodGet, "/videos/jobs/nope", http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.target, nil)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tt.code {
				t.Errorf("%s %s = %d, want %d", tt.method, tt.target, w.Code, tt.code)
			}
			if tt.body != "" && w.Body.String() != tt.body {
				t.Errorf("%s %s body = %q, want %q", tt.method, tt.target, w.Body.String(), tt.body)
			}
		})
	}
}
