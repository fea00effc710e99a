package services

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/sirupsen/logrus"
)

type Fetcher struct {
	client *http.Client
}

func NewFetcher(client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client}
}

// Download fetches rawURL into localPath, replacing any previous file. Only
// a 200 response is accepted; anything else yields a *DownloadError and
// leaves no file behind.
func (f *Fetcher) Download(ctx context.Context, rawURL, localPath string) (int64, error) {
	if err := os.Remove(localPath); err != nil && !os.IsNotExist(err) {
		return 0, fmt.Errorf("remove stale file failed (path=%s): %w", localPath, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("get %s: %w", rawURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, &DownloadError{URL: rawURL, StatusCode: resp.StatusCode}
	}

	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return 0, fmt.Errorf("create data dir failed: %w", err)
	}

	out, err := os.Create(localPath)
	if err != nil {
		return 0, fmt.Errorf("create local file failed (path=%s): %w", localPath, err)
	}

	n, err := io.Copy(out, resp.Body)
	if closeErr := out.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(localPath)
		return 0, fmt.Errorf("write to local file failed: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"url":  rawURL,
		"path": localPath,
		"size": humanize.Bytes(uint64(n)),
	}).Debug("Downloaded source media")

	return n, nil
}
