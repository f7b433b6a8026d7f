package source

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func testClient() *Client {
	return NewClient(ClientConfig{
		Timeout:        2 * time.Second,
		MaxRetries:     3,
		RetryDelayBase: time.Millisecond,
	})
}

func TestFetch_Sample(t *testing.T) {
	c := testClient()
	for _, loc := range []string{"", SampleLocation} {
		raw, err := c.Fetch(context.Background(), loc)
		if err != nil {
			t.Fatalf("Fetch(%q) failed: %v", loc, err)
		}
		if !strings.HasPrefix(raw, "user_id,hour,day_type") {
			t.Errorf("Unexpected sample header: %.40s", raw)
		}
	}
	if lines := strings.Count(strings.TrimSpace(SampleCSV), "\n"); lines != 40 {
		t.Errorf("Expected 40 sample rows, got %d", lines)
	}
}

func TestFetch_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.csv")
	content := "user_id,session_minutes\nU01,7\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	raw, err := testClient().Fetch(context.Background(), path)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if raw != content {
		t.Errorf("Expected %q, got %q", content, raw)
	}
}

func TestFetch_MissingFile(t *testing.T) {
	_, err := testClient().Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.csv"))
	if err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestFetch_RemoteRetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte("user_id,session_minutes\nU01,7\n"))
	}))
	defer server.Close()

	raw, err := testClient().Fetch(context.Background(), server.URL+"/sessions.csv")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if !strings.Contains(raw, "U01,7") {
		t.Errorf("Unexpected body: %q", raw)
	}
	if calls.Load() != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls.Load())
	}
}

func TestFetch_RemoteGivesUp(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	_, err := testClient().Fetch(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "max retries exceeded") {
		t.Errorf("Expected max retries error, got %v", err)
	}
}

func TestFetch_RemoteClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	if _, err := testClient().Fetch(context.Background(), server.URL); err == nil {
		t.Error("Expected error for 404")
	}
	if calls.Load() != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls.Load())
	}
}

func TestFetch_RemoteBodyLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("user_id\nU01\n"))
	}))
	defer server.Close()

	tight := NewClient(ClientConfig{MaxRetries: 1, MaxBodyBytes: 8})
	if _, err := tight.Fetch(context.Background(), server.URL); err == nil || !strings.Contains(err.Error(), "exceeds 8 bytes") {
		t.Errorf("Expected body limit error, got %v", err)
	}

	exact := NewClient(ClientConfig{MaxRetries: 1, MaxBodyBytes: 12})
	raw, err := exact.Fetch(context.Background(), server.URL)
	if err != nil || raw != "user_id\nU01\n" {
		t.Errorf("Expected full body at the limit, got %q, %v", raw, err)
	}
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		location string
		expected bool
	}{
		{"http://example.com/a.csv", true},
		{"https://example.com/a.csv", true},
		{"./data/a.csv", false},
		{"sample", false},
	}
	for _, tt := range tests {
		if got := IsRemote(tt.location); got != tt.expected {
			t.Errorf("IsRemote(%q) = %v, expected %v", tt.location, got, tt.expected)
		}
	}
}
