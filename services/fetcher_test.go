package services

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
)

func TestFetcherDownloadWritesBody(t *testing.T) {
	payload := []byte("RIFF....WAVEfmt fake audio")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(payload)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "nested", "sample.wav")
	n, err := NewFetcher(srv.Client()).Download(context.Background(), srv.URL+"/sample.wav", path)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	if n != int64(len(payload)) {
		t.Fatalf("bytes = %d, want %d", n, len(payload))
	}

	got, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read downloaded file: %v", err)
	}
	if !bytes.Equal(got, payload) {
		t.Fatalf("file content = %q, want %q", got, payload)
	}
}

func TestFetcherDownloadReplacesStaleFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("new"))
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "sample.wav")
	if err := os.WriteFile(path, []byte("old and longer"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := NewFetcher(srv.Client()).Download(context.Background(), srv.URL, path); err != nil {
		t.Fatalf("download: %v", err)
	}
	got, _ := os.ReadFile(path)
	if string(got) != "new" {
		t.Fatalf("file content = %q, want %q", got, "new")
	}
}

func TestFetcherDownloadRejectsNon200(t *testing.T) {
	for _, status := range []int{http.StatusNotFound, http.StatusInternalServerError, http.StatusNoContent} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		path := filepath.Join(t.TempDir(), "sample.wav")
		_, err := NewFetcher(srv.Client()).Download(context.Background(), srv.URL, path)
		srv.Close()

		var dlErr *DownloadError
		if !errors.As(err, &dlErr) {
			t.Fatalf("status %d: error = %v, want *DownloadError", status, err)
		}
		if dlErr.StatusCode != status {
			t.Fatalf("status code = %d, want %d", dlErr.StatusCode, status)
		}
		if _, err := os.Stat(path); !os.IsNotExist(err) {
			t.Fatalf("status %d: expected no local file, stat err = %v", status, err)
		}
	}
}
