package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/health" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.Write([]byte(`{"status":"ok"}`))
	}))
	defer srv.Close()

	var resp struct {
		Status string `json:"status"`
	}
	if err := NewClient(srv.URL).Get(context.Background(), "/health", &resp); err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q", resp.Status)
	}
}

func TestClient_Post(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]string
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(map[string]string{"echo": body["text"]})
	}))
	defer srv.Close()

	var resp map[string]string
	err := NewClient(srv.URL).Post(context.Background(), "/api/timetable/parse", map[string]string{"text": "Period 1"}, &resp)
	if err != nil {
		t.Fatalf("Post() error = %v", err)
	}
	if resp["echo"] != "Period 1" {
		t.Errorf("echo = %q", resp["echo"])
	}
}

func TestClient_PostFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("ParseMultipartForm() error = %v", err)
		}
		f, hdr, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("FormFile() error = %v", err)
		}
		defer f.Close()
		content, _ := io.ReadAll(f)
		json.NewEncoder(w).Encode(map[string]string{
			"name":    hdr.Filename,
			"content": string(content),
			"remote":  r.FormValue("remote"),
		})
	}))
	defer srv.Close()

	var resp map[string]string
	err := NewClient(srv.URL).PostFile(context.Background(), "/api/timetable/upload", "file", "week.txt",
		strings.NewReader("Day 1\tDay 2\tDay 3"), map[string]string{"remote": "true"}, &resp)
	if err != nil {
		t.Fatalf("PostFile() error = %v", err)
	}
	if resp["name"] != "week.txt" || resp["content"] != "Day 1\tDay 2\tDay 3" || resp["remote"] != "true" {
		t.Errorf("server saw %v", resp)
	}
}

func TestClient_StatusError(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		code    int
		wantMsg string
	}{
		{"json error body", `{"error":"no file uploaded"}`, http.StatusBadRequest, "no file uploaded"},
		{"plain body", "boom", http.StatusInternalServerError, "boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			err := NewClient(srv.URL).Get(context.Background(), "/", nil)
			var se *StatusError
			if !errors.As(err, &se) {
				t.Fatalf("expected *StatusError, got %v", err)
			}
			if se.Code != tt.code || se.Message != tt.wantMsg {
				t.Errorf("StatusError = %+v", se)
			}
		})
	}
}
