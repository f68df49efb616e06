package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jackzampolin/timetable/internal/config"
	"github.com/jackzampolin/timetable/internal/home"
	"github.com/jackzampolin/timetable/internal/importer"
	"github.com/jackzampolin/timetable/internal/server/endpoints"
	"github.com/jackzampolin/timetable/internal/testutil"
	"github.com/jackzampolin/timetable/internal/timetable"
)

const pastedText = "Period 1\nSpecialist Mathematics (10SPE251101)\nM 07 Mr Paul Jefimenko"

const remoteReply = `{
	"days": ["Day 1", "Day 2"],
	"periods": [{"name": "Period 1", "startTime": "8:35am", "endTime": "9:35am"}],
	"classes": {"Day 1": {"Period 1": [{"subject": "Chemistry", "room": "S 12", "teacher": "Ms Grace Hopper"}]}}
}`

// newTestServer builds a server from the given config YAML without listening.
func newTestServer(t *testing.T, yaml string) (*Server, testutil.ServerConfig) {
	t.Helper()
	cfg := testutil.NewServerConfig(t)
	cfg.WriteConfig(t, yaml)

	mgr, err := config.NewManager(cfg.ConfigFile)
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	h, err := home.New(cfg.HomeDir)
	if err != nil {
		t.Fatalf("home.New() error = %v", err)
	}

	srv, err := New(Config{
		Host:          cfg.Host,
		Port:          cfg.Port,
		ConfigManager: mgr,
		Home:          h,
		Logger:        cfg.Logger,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	return srv, cfg
}

func remoteConfig(baseURL string, enabled bool) string {
	return fmt.Sprintf(`llm_providers:
  openrouter:
    type: openrouter
    model: anthropic/claude-sonnet-4
    api_key: test-key
    base_url: %s
    rate_limit: 600
    enabled: true
import:
  remote_enabled: %t
  remote_timeout: 10s
`, baseURL, enabled)
}

func do(t *testing.T, h http.Handler, method, path string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, h http.Handler, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("failed to marshal body: %v", err)
	}
	return do(t, h, http.MethodPost, path, bytes.NewReader(b), "application/json")
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestServer_FullLifecycle(t *testing.T) {
	srv, cfg := newTestServer(t, "logging:\n  level: debug\n")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	serverErr := make(chan error, 1)
	serverCtx, serverCancel := context.WithCancel(ctx)
	go func() {
		serverErr <- srv.Start(serverCtx)
	}()

	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		serverCancel()
		t.Fatalf("server did not start: %v", err)
	}

	t.Run("health_endpoint", func(t *testing.T) {
		resp, err := http.Get(cfg.URL() + "/health")
		if err != nil {
			t.Fatalf("health check failed: %v", err)
		}
		defer resp.Body.Close()

		var health endpoints.HealthResponse
		if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if resp.StatusCode != http.StatusOK || health.Status != "ok" {
			t.Errorf("health = %d %+v", resp.StatusCode, health)
		}
	})

	t.Run("is_running", func(t *testing.T) {
		if !srv.IsRunning() {
			t.Error("IsRunning() = false, want true")
		}
	})

	t.Run("double_start", func(t *testing.T) {
		if err := srv.Start(ctx); err == nil {
			t.Error("second Start() should return error")
		}
	})

	serverCancel()
	if err := testutil.WaitForShutdown(serverErr, 10*time.Second); err != nil {
		t.Fatalf("Start() returned %v", err)
	}
	if srv.IsRunning() {
		t.Error("IsRunning() = true after shutdown")
	}
}

func TestServer_PortInUse(t *testing.T) {
	first, cfg := newTestServer(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	starter := testutil.StartServer{Cancel: cancel, Done: startAsync(ctx, first)}
	t.Cleanup(starter.Stop)
	if err := testutil.WaitForServer(cfg.URL(), 10*time.Second); err != nil {
		t.Fatalf("server did not start: %v", err)
	}

	second, err := New(Config{Host: cfg.Host, Port: cfg.Port, Logger: cfg.Logger})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("Start() on a busy port should fail")
	}
	if second.IsRunning() {
		t.Error("failed server should not report running")
	}
}

func startAsync(ctx context.Context, s *Server) <-chan error {
	done := make(chan error, 1)
	go func() { done <- s.Start(ctx) }()
	return done
}

func TestEndpoints_Health(t *testing.T) {
	srv, cfg := newTestServer(t, "")
	h := srv.Handler()

	t.Run("ready reports remote disabled", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/ready", nil, "")
		got := decode[endpoints.HealthResponse](t, rec)
		if rec.Code != http.StatusOK || got.Status != "ok" || got.Remote != "disabled" {
			t.Errorf("ready = %d %+v", rec.Code, got)
		}
	})

	t.Run("status", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/status", nil, "")
		got := decode[endpoints.StatusResponse](t, rec)
		if got.Server != "running" || got.ConfigFile != cfg.ConfigFile || got.Home != cfg.HomeDir {
			t.Errorf("status = %+v", got)
		}
		if got.Import.RemoteEnabled || got.Import.RemoteTimeout != "1m30s" || got.Import.MaxUploadBytes != 10<<20 {
			t.Errorf("import status = %+v", got.Import)
		}
		if got.Providers.Default != "openrouter" {
			t.Errorf("default provider = %q", got.Providers.Default)
		}
	})
}

func TestEndpoints_Parse(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.Handler()

	t.Run("local parse", func(t *testing.T) {
		rec := postJSON(t, h, "/api/timetable/parse", endpoints.ParseRequest{Text: pastedText})
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		res := decode[importer.Result](t, rec)
		if res.Source != importer.SourceLocal || res.Fallback || res.Classes == 0 {
			t.Errorf("unexpected result: %+v", res)
		}
		if err := res.Schedule.Validate(); err != nil {
			t.Errorf("schedule invalid: %v", err)
		}
	})

	t.Run("empty text yields default schedule", func(t *testing.T) {
		rec := postJSON(t, h, "/api/timetable/parse", endpoints.ParseRequest{})
		res := decode[importer.Result](t, rec)
		if res.Source != importer.SourceDefault {
			t.Errorf("Source = %q", res.Source)
		}
		if len(res.Schedule.Days) != timetable.DefaultDayCount {
			t.Errorf("days = %v", res.Schedule.Days)
		}
	})

	t.Run("remote requested but disabled", func(t *testing.T) {
		rec := postJSON(t, h, "/api/timetable/parse", endpoints.ParseRequest{Text: pastedText, Remote: true})
		res := decode[importer.Result](t, rec)
		if !res.Fallback || res.Notice != importer.IncompleteNotice {
			t.Errorf("unexpected result: %+v", res)
		}
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/api/timetable/parse", strings.NewReader("{"), "application/json")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d", rec.Code)
		}
		if got := decode[endpoints.ErrorResponse](t, rec); got.Error == "" {
			t.Error("missing error message")
		}
	})
}

func TestEndpoints_ParseBodyLimit(t *testing.T) {
	srv, _ := newTestServer(t, "import:\n  max_upload_bytes: 64\n")
	rec := postJSON(t, srv.Handler(), "/api/timetable/parse", endpoints.ParseRequest{Text: strings.Repeat("x", 200)})
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", rec.Code)
	}
}

func TestEndpoints_DetectExtractDefault(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.Handler()

	t.Run("detect", func(t *testing.T) {
		rec := postJSON(t, h, "/api/timetable/detect", endpoints.ParseRequest{Text: "\tMonday\tTuesday\tWednesday\nPeriod 1\tMaths\tEnglish\tScience"})
		got := decode[endpoints.DetectResponse](t, rec)
		if got.Format != timetable.FormatTabDelimitedGrid {
			t.Errorf("Format = %q", got.Format)
		}
	})

	t.Run("extract", func(t *testing.T) {
		rec := postJSON(t, h, "/api/timetable/extract", endpoints.ParseRequest{Text: "Chemistry (10CHE251101) S 12 Ms Grace Hopper\n\nLunch\n"})
		got := decode[endpoints.ExtractResponse](t, rec)
		if len(got.Lines) != 2 {
			t.Fatalf("lines = %+v", got.Lines)
		}
		first := got.Lines[0]
		if first.Code != "10CHE251101" || first.Room != "S 12" || first.Teacher != "Ms Grace Hopper" {
			t.Errorf("first line = %+v", first)
		}
		if !got.Lines[1].Placeholder {
			t.Errorf("lunch should be a placeholder: %+v", got.Lines[1])
		}
	})

	t.Run("default", func(t *testing.T) {
		rec := do(t, h, http.MethodGet, "/api/timetable/default", nil, "")
		got := decode[timetable.Schedule](t, rec)
		if len(got.Days) != 10 || len(got.Periods) != len(timetable.DefaultPeriods()) {
			t.Errorf("default schedule = %+v", got)
		}
		if got.ClassCount() != 0 {
			t.Error("default schedule should be empty")
		}
	})
}

func multipartBody(t *testing.T, filename, content string, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		mw.WriteField(k, v)
	}
	if filename != "" {
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("CreateFormFile() error = %v", err)
		}
		part.Write([]byte(content))
	}
	mw.Close()
	return &buf, mw.FormDataContentType()
}

func TestEndpoints_Upload(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.Handler()

	t.Run("csv", func(t *testing.T) {
		csv := ",Monday,Tuesday,Wednesday\nPeriod 1 8:30am-9:30am,Maths,English,Science\nPeriod 2 9:30am-10:30am,History,,Geography\n"
		body, ct := multipartBody(t, "grid.csv", csv, nil)
		rec := do(t, h, http.MethodPost, "/api/timetable/upload", body, ct)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
		}
		got := decode[endpoints.UploadResponse](t, rec)
		if got.Document.Kind != "csv" || got.Document.Name != "grid.csv" {
			t.Errorf("document = %+v", got.Document)
		}
		if got.Result == nil || got.Format != timetable.FormatTabDelimitedGrid || got.Classes != 5 {
			t.Fatalf("result = %+v", got.Result)
		}
		if slot := got.Schedule.Slot("Day 3", "Period 2"); len(slot) != 1 || slot[0].Subject != "Geography" {
			t.Errorf("Day 3 / Period 2 = %+v", slot)
		}
	})

	tests := []struct {
		name     string
		filename string
		content  string
		want     int
	}{
		{"missing file", "", "", http.StatusBadRequest},
		{"unsupported type", "photo.png", "png", http.StatusUnsupportedMediaType},
		{"empty source", "blank.txt", " \n\t", http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			body, ct := multipartBody(t, tt.filename, tt.content, map[string]string{"remote": "false"})
			rec := do(t, h, http.MethodPost, "/api/timetable/upload", body, ct)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
		})
	}
}

func TestEndpoints_Prompts(t *testing.T) {
	srv, _ := newTestServer(t, "prompts:\n  timetable.parse.system: \"Return JSON only.\"\n")
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/api/prompts", nil, "")
	list := decode[endpoints.PromptsListResponse](t, rec)
	if len(list.Prompts) != 2 {
		t.Fatalf("prompts = %+v", list.Prompts)
	}
	for _, p := range list.Prompts {
		wantOverride := p.Key == "timetable.parse.system"
		if p.IsOverride != wantOverride {
			t.Errorf("%s IsOverride = %v", p.Key, p.IsOverride)
		}
	}

	rec = do(t, h, http.MethodGet, "/api/prompts/timetable.parse.system", nil, "")
	got := decode[endpoints.PromptResponse](t, rec)
	if got.Text != "Return JSON only." || got.EmbeddedHash == "" || got.EmbeddedHash == got.Hash {
		t.Errorf("prompt = %+v", got)
	}

	rec = do(t, h, http.MethodGet, "/api/prompts/no.such.prompt", nil, "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestEndpoints_SwaggerAndStatic(t *testing.T) {
	srv, _ := newTestServer(t, "")
	h := srv.Handler()

	rec := do(t, h, http.MethodGet, "/swagger.json", nil, "")
	spec := decode[map[string]any](t, rec)
	paths, _ := spec["paths"].(map[string]any)
	if _, ok := paths["/api/timetable/parse"]; !ok {
		t.Errorf("swagger paths = %v", paths)
	}

	rec = do(t, h, http.MethodGet, "/", nil, "")
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "<textarea") {
		t.Errorf("index = %d", rec.Code)
	}

	rec = do(t, h, http.MethodGet, "/api/nothing", nil, "")
	if rec.Code != http.StatusNotFound || !strings.Contains(rec.Header().Get("Content-Type"), "json") {
		t.Errorf("unknown API path = %d %s", rec.Code, rec.Header().Get("Content-Type"))
	}
}

func TestEndpoints_RemoteParseAndReload(t *testing.T) {
	stub := testutil.NewChatStub(t, remoteReply)
	srv, cfg := newTestServer(t, remoteConfig(stub.URL, false))
	h := srv.Handler()

	rec := postJSON(t, h, "/api/timetable/parse", endpoints.ParseRequest{Text: pastedText, Remote: true})
	res := decode[importer.Result](t, rec)
	if !res.Fallback || !strings.Contains(res.FallbackReason, importer.ErrRemoteDisabled.Error()) {
		t.Fatalf("expected disabled fallback, got %+v", res)
	}
	if stub.Requests() != 0 {
		t.Fatal("disabled remote should not be called")
	}

	// Enable remote parsing and reload in place.
	cfg.WriteConfig(t, remoteConfig(stub.URL, true))
	if err := srv.Services().ConfigManager.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	rec = postJSON(t, h, "/api/timetable/parse", endpoints.ParseRequest{Text: pastedText, Remote: true})
	res = decode[importer.Result](t, rec)
	if res.Source != importer.SourceRemote || res.Fallback || res.Provider != "openrouter" {
		t.Fatalf("expected remote result, got %+v", res)
	}
	if slot := res.Schedule.Slot("Day 1", "Period 1"); len(slot) != 1 || slot[0].Subject != "Chemistry" {
		t.Errorf("Day 1 / Period 1 = %+v", slot)
	}
	if stub.Requests() != 1 {
		t.Errorf("stub requests = %d, want 1", stub.Requests())
	}

	rec = do(t, h, http.MethodGet, "/ready", nil, "")
	if got := decode[endpoints.HealthResponse](t, rec); got.Remote != "enabled" {
		t.Errorf("ready.Remote = %q", got.Remote)
	}
}
