package main

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"gsearch/internal/models"
	"gsearch/internal/paging"
)

// mockTransport records requests and returns a configurable status.
type mockTransport struct {
	mu          sync.Mutex
	status      int
	lastURL     string
	lastMethod  string
	contentType string
	bodies      []models.SearchRequest
}

func (m *mockTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	var body models.SearchRequest
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		_ = json.Unmarshal(data, &body)
	}
	m.mu.Lock()
	m.lastURL = req.URL.String()
	m.lastMethod = req.Method
	m.contentType = req.Header.Get("Content-Type")
	m.bodies = append(m.bodies, body)
	m.mu.Unlock()
	return &http.Response{
		StatusCode: m.status,
		Body:       http.NoBody,
		Header:     make(http.Header),
	}, nil
}

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "searches.json")
	if err := os.WriteFile(path, []byte(contents), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name     string
		contents string
		missing  bool
		wantErr  bool
		searches int
	}{
		{"valid", `{"searches":[{"type":"web","query":"golang","count":10}]}`, false, false, 1},
		{"plural type", `{"searches":[{"type":"Images","query":"bridges","count":40}]}`, false, false, 1},
		{"missing", "", true, true, 0},
		{"empty searches", `{"searches":[]}`, false, true, 0},
		{"invalid json", `{not json`, false, true, 0},
		{"invalid search", `{"searches":[{"type":"web","query":"","count":10}]}`, false, true, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, "missing.json")
			if !tt.missing {
				path = writeConfig(t, tt.contents)
			}
			cfg, err := loadConfig(path)
			if (err != nil) != tt.wantErr {
				t.Fatalf("loadConfig() err = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && len(cfg.Searches) != tt.searches {
				t.Errorf("len(Searches) = %d, want %d", len(cfg.Searches), tt.searches)
			}
			if tt.name == "empty searches" && err != errNoSearches {
				t.Errorf("empty searches: err = %v, want errNoSearches", err)
			}
			if tt.name == "invalid search" && !errors.Is(err, paging.ErrInvalidArgument) {
				t.Errorf("invalid search: err = %v, want invalid argument", err)
			}
			if tt.name == "plural type" && cfg.Searches[0].Type != models.SearchTypeImage {
				t.Errorf("type = %s, want image", cfg.Searches[0].Type)
			}
		})
	}
}

func TestSubmitSearch(t *testing.T) {
	transport := &mockTransport{status: http.StatusAccepted}
	client := &http.Client{Transport: transport}
	baseURL, _ := url.Parse("http://api.test/ignored?x=1")
	req := models.SearchRequest{Type: models.SearchTypeNews, Query: "elections", Count: 12, Filters: map[string]string{"topic": "world"}}

	if !submitSearch(client, baseURL, 0, req, nil) {
		t.Fatal("expected search to be accepted")
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if transport.lastMethod != http.MethodPost {
		t.Errorf("method = %s, want POST", transport.lastMethod)
	}
	if transport.lastURL != "http://api.test/search" {
		t.Errorf("url = %s, want http://api.test/search", transport.lastURL)
	}
	if transport.contentType != "application/json" {
		t.Errorf("content type = %q", transport.contentType)
	}
	if len(transport.bodies) != 1 || transport.bodies[0].Filters["topic"] != "world" || transport.bodies[0].Count != 12 {
		t.Errorf("unexpected body: %+v", transport.bodies)
	}
}

func TestSubmitSearchNotAccepted(t *testing.T) {
	transport := &mockTransport{status: http.StatusBadRequest}
	client := &http.Client{Transport: transport}
	baseURL, _ := url.Parse("http://api.test")
	if submitSearch(client, baseURL, 0, models.SearchRequest{Type: models.SearchTypeWeb, Query: "x", Count: 1}, nil) {
		t.Fatal("expected rejection to report false")
	}
}

func TestRun(t *testing.T) {
	configPath := writeConfig(t, `{"repeat":2,"searches":[
		{"type":"web","query":"a","count":1},
		{"type":"video","query":"b","count":9},
		{"type":"book","query":"c","count":20,"filters":{"full_view":"true"}}
	]}`)

	transport := &mockTransport{status: http.StatusAccepted}
	client := &http.Client{Transport: transport}

	accepted, err := run(configPath, "http://api.test", 2, client, nil)
	if err != nil {
		t.Fatalf("run() err = %v", err)
	}
	if accepted != 6 {
		t.Errorf("accepted = %d, want 6", accepted)
	}

	transport.mu.Lock()
	defer transport.mu.Unlock()
	if len(transport.bodies) != 6 {
		t.Errorf("request count = %d, want 6", len(transport.bodies))
	}
}

func TestRunBadConfigPath(t *testing.T) {
	if _, err := run("/nonexistent/config.json", "http://localhost:8080", 1, nil, nil); err == nil {
		t.Fatal("run() expected error for missing config")
	}
}

func TestRunEmptySearches(t *testing.T) {
	configPath := writeConfig(t, `{"searches":[]}`)
	if _, err := run(configPath, "http://localhost:8080", 1, nil, nil); err != errNoSearches {
		t.Fatalf("run() err = %v, want errNoSearches", err)
	}
}

func TestRunInvalidAPIBase(t *testing.T) {
	configPath := writeConfig(t, `{"searches":[{"type":"web","query":"a","count":1}]}`)
	if _, err := run(configPath, "://invalid", 1, nil, nil); err == nil {
		t.Fatal("run() expected error for invalid api base")
	}
}
